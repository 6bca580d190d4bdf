package playback

import "time"

// Options 播放引擎的可调参数
type Options struct {
	// 队列已有这么多曲目时不再自动补充
	SeedThreshold int
	// 每次自动补充的上限
	SeedCap         int
	SeedWindow      time.Duration
	RelatedPerTrack int

	RecommendationCap         int
	PlayRecommendationRelated int
	GeneratedPlaylistSize     int

	HistoryPage   int
	ChartsDefault int
	ChartsMax     int

	// 游标之后剩余曲目少于该值时触发自动补充
	RadioLowWatermark int
	QueueCleanupAge   time.Duration
}

// DefaultOptions 默认参数
func DefaultOptions() Options {
	return Options{
		SeedThreshold:             5,
		SeedCap:                   5,
		SeedWindow:                14 * 24 * time.Hour,
		RelatedPerTrack:           3,
		RecommendationCap:         10,
		PlayRecommendationRelated: 20,
		GeneratedPlaylistSize:     30,
		HistoryPage:               50,
		ChartsDefault:             50,
		ChartsMax:                 100,
		RadioLowWatermark:         2,
		QueueCleanupAge:           24 * time.Hour,
	}
}
