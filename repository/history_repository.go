package repository

import (
	"context"
	"time"

	"playpod/model"

	"gorm.io/gorm"
)

// HistoryRepository 播放历史数据访问接口，只追加
type HistoryRepository interface {
	Create(ctx context.Context, entry *model.HistoryEntry) error
	// Latest 最近一条记录，没有时返回 nil, nil
	Latest(ctx context.Context, userID string) (*model.HistoryEntry, error)
	// Recent 按时间倒序返回，since 为 nil 时不限制起点
	Recent(ctx context.Context, userID string, limit int, since *time.Time) ([]model.HistoryEntry, error)
}

// gormHistoryRepository GORM 实现
type gormHistoryRepository struct {
	db *gorm.DB
}

// NewGormHistoryRepository 创建 GORM 播放历史仓库
func NewGormHistoryRepository(db *gorm.DB) HistoryRepository {
	return &gormHistoryRepository{db: db}
}

func (r *gormHistoryRepository) Create(ctx context.Context, entry *model.HistoryEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *gormHistoryRepository) Latest(ctx context.Context, userID string) (*model.HistoryEntry, error) {
	var entry model.HistoryEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("played_at DESC, id DESC").
		First(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *gormHistoryRepository) Recent(ctx context.Context, userID string, limit int, since *time.Time) ([]model.HistoryEntry, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if since != nil {
		q = q.Where("played_at >= ?", *since)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var entries []model.HistoryEntry
	err := q.Order("played_at DESC, id DESC").Find(&entries).Error
	return entries, err
}
