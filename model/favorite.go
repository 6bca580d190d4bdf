package model

import "time"

// Favorite 用户收藏的曲目
type Favorite struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID     string    `json:"-" gorm:"size:64;not null;uniqueIndex:idx_favorite_user_track"`
	TrackID    string    `json:"track_id" gorm:"size:32;not null;uniqueIndex:idx_favorite_user_track"`
	ArtistID   string    `json:"artist_id" gorm:"size:32"`
	Title      string    `json:"track_title" gorm:"size:255"`
	ArtistName string    `json:"artist_name" gorm:"size:255"`
	AlbumTitle string    `json:"album_title" gorm:"size:255"`
	AlbumCover string    `json:"album_cover" gorm:"size:512"`
	Duration   int       `json:"duration"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName 指定表名
func (Favorite) TableName() string {
	return "favorites"
}

// NewFavorite 由元数据快照生成收藏
func NewFavorite(userID string, ref TrackRef) *Favorite {
	return &Favorite{
		UserID:     userID,
		TrackID:    ref.TrackID,
		ArtistID:   ref.ArtistID,
		Title:      ref.Title,
		ArtistName: ref.ArtistName,
		AlbumTitle: ref.AlbumTitle,
		AlbumCover: ref.AlbumCover,
		Duration:   ref.Duration,
	}
}

// AllModels 需要迁移的全部模型
func AllModels() []interface{} {
	return []interface{}{&Playlist{}, &Queue{}, &ListTrack{}, &HistoryEntry{}, &Favorite{}}
}
