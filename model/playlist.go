package model

import "time"

// Playlist 用户歌单
type Playlist struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	UserID      string    `json:"user_id" gorm:"size:64;index;not null"`
	Name        string    `json:"name" gorm:"size:255;not null"`
	Description string    `json:"description" gorm:"type:text"`
	IsPublic    bool      `json:"is_public" gorm:"default:false;index"`
	CoverObject string    `json:"cover_object,omitempty" gorm:"size:255"`
	TracksCount int       `json:"tracks_count" gorm:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Playlist) TableName() string {
	return "playlists"
}

// VisibleTo 公开歌单或自己的歌单可见
func (p *Playlist) VisibleTo(userID string) bool {
	return p.IsPublic || p.UserID == userID
}
