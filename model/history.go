package model

import "time"

// HistoryEvent 播放历史的转移类型
type HistoryEvent string

const (
	// EventPlayed 曲目成为当前曲目
	EventPlayed HistoryEvent = "played"
	// EventFinished 通过下一首离开
	EventFinished HistoryEvent = "finished"
	// EventSkipped 通过跳转离开
	EventSkipped HistoryEvent = "skipped"
)

// HistoryEntry 播放历史，只追加，不随歌单或队列删除
type HistoryEntry struct {
	ID       int64        `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID   string       `json:"-" gorm:"size:64;index:idx_history_user_time;not null"`
	TrackRef `gorm:"embedded"`
	Event    HistoryEvent `json:"event" gorm:"size:16;not null"`
	PlayedAt time.Time    `json:"timestamp" gorm:"index:idx_history_user_time;not null"`
}

// TableName 指定表名
func (HistoryEntry) TableName() string {
	return "playback_history"
}
