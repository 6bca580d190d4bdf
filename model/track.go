package model

import (
	"strconv"
	"strings"
	"time"
)

// TrackRef 添加时刻的曲目元数据快照
type TrackRef struct {
	TrackID    string `json:"track_id" gorm:"size:32;not null;index"`
	ArtistID   string `json:"artist_id" gorm:"size:32"`
	Title      string `json:"track_title" gorm:"size:255"`
	ArtistName string `json:"artist_name" gorm:"size:255"`
	AlbumTitle string `json:"album_title" gorm:"size:255"`
	AlbumCover string `json:"album_cover" gorm:"size:512"`
	Duration   int    `json:"duration"`
	Genre      string `json:"genre,omitempty" gorm:"size:100"`
	GenreID    string `json:"genre_id,omitempty" gorm:"size:32"`
}

// ListTrack 歌单或队列中的一条曲目，ListID 为歌单ID或队列ID。
// 创建后只有 Position 会变化。
type ListTrack struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	ListID     string    `json:"-" gorm:"size:36;not null;uniqueIndex:idx_list_track;index:idx_list_position"`
	TrackID    string    `json:"track_id" gorm:"size:32;not null;uniqueIndex:idx_list_track"`
	ArtistID   string    `json:"artist_id" gorm:"size:32"`
	Title      string    `json:"track_title" gorm:"size:255"`
	ArtistName string    `json:"artist_name" gorm:"size:255"`
	AlbumTitle string    `json:"album_title" gorm:"size:255"`
	AlbumCover string    `json:"album_cover" gorm:"size:512"`
	Duration   int       `json:"duration"`
	Genre      string    `json:"genre,omitempty" gorm:"size:100"`
	GenreID    string    `json:"genre_id,omitempty" gorm:"size:32"`
	Position   int       `json:"position" gorm:"not null;index:idx_list_position"`
	AddedAt    time.Time `json:"added_at"`
}

// TableName 指定表名
func (ListTrack) TableName() string {
	return "list_tracks"
}

// Ref 取出元数据快照
func (t *ListTrack) Ref() TrackRef {
	return TrackRef{
		TrackID:    t.TrackID,
		ArtistID:   t.ArtistID,
		Title:      t.Title,
		ArtistName: t.ArtistName,
		AlbumTitle: t.AlbumTitle,
		AlbumCover: t.AlbumCover,
		Duration:   t.Duration,
		Genre:      t.Genre,
		GenreID:    t.GenreID,
	}
}

// NewListTrack 用快照构造列表项，位置由调用方决定
func NewListTrack(id, listID string, ref TrackRef, position int, addedAt time.Time) *ListTrack {
	return &ListTrack{
		ID:         id,
		ListID:     listID,
		TrackID:    ref.TrackID,
		ArtistID:   ref.ArtistID,
		Title:      ref.Title,
		ArtistName: ref.ArtistName,
		AlbumTitle: ref.AlbumTitle,
		AlbumCover: ref.AlbumCover,
		Duration:   ref.Duration,
		Genre:      ref.Genre,
		GenreID:    ref.GenreID,
		Position:   position,
		AddedAt:    addedAt,
	}
}

// NormalizeTrackID 曲目ID必须是正整数，返回去掉空白和前导零后的形式
func NormalizeTrackID(id string) (string, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(id), 10, 64)
	if err != nil || n == 0 {
		return "", false
	}
	return strconv.FormatUint(n, 10), true
}
