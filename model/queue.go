package model

import "time"

// Queue 用户播放队列，每个用户一个，首次访问时创建。
// CurrentTrackID 是游标的权威值，CurrentPosition 只是提示，以 ListTrack.Position 为准。
type Queue struct {
	ID              string    `json:"id" gorm:"primaryKey;size:36"`
	UserID          string    `json:"user_id" gorm:"size:64;uniqueIndex;not null"`
	CurrentTrackID  *string   `json:"current_track_id" gorm:"size:32"`
	CurrentPosition int       `json:"current_position" gorm:"default:0"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Queue) TableName() string {
	return "queues"
}

// PointTo 把游标指向某个列表项
func (q *Queue) PointTo(t *ListTrack) {
	if t == nil {
		q.CurrentTrackID = nil
		q.CurrentPosition = 0
		return
	}
	id := t.TrackID
	q.CurrentTrackID = &id
	q.CurrentPosition = t.Position
}

// HasCursor 游标是否指向某首曲目
func (q *Queue) HasCursor() bool {
	return q.CurrentTrackID != nil && *q.CurrentTrackID != ""
}

// QueueState 队列及其曲目的快照
type QueueState struct {
	Queue   *Queue      `json:"queue"`
	Tracks  []ListTrack `json:"tracks"`
	Current *ListTrack  `json:"current"`
}
