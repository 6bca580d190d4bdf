package repository

import (
	"context"

	"playpod/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QueueRepository 播放队列数据访问接口
type QueueRepository interface {
	GetByUserID(ctx context.Context, userID string) (*model.Queue, error)
	// GetOrCreate 懒创建用户队列，并发创建时返回已存在的那一个
	GetOrCreate(ctx context.Context, userID string) (*model.Queue, error)
	// SaveCursor 只更新游标字段
	SaveCursor(ctx context.Context, queue *model.Queue) error
	ListWithCursor(ctx context.Context) ([]*model.Queue, error)
}

// gormQueueRepository GORM 实现
type gormQueueRepository struct {
	db *gorm.DB
}

// NewGormQueueRepository 创建 GORM 队列仓库
func NewGormQueueRepository(db *gorm.DB) QueueRepository {
	return &gormQueueRepository{db: db}
}

// GetByUserID 不存在时返回 nil, nil
func (r *gormQueueRepository) GetByUserID(ctx context.Context, userID string) (*model.Queue, error) {
	var queue model.Queue
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&queue).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &queue, nil
}

func (r *gormQueueRepository) GetOrCreate(ctx context.Context, userID string) (*model.Queue, error) {
	queue, err := r.GetByUserID(ctx, userID)
	if err != nil || queue != nil {
		return queue, err
	}

	queue = &model.Queue{ID: uuid.NewString(), UserID: userID}
	if err := r.db.WithContext(ctx).Create(queue).Error; err != nil {
		if IsDuplicateKey(err) {
			return r.GetByUserID(ctx, userID)
		}
		return nil, err
	}
	return queue, nil
}

func (r *gormQueueRepository) SaveCursor(ctx context.Context, queue *model.Queue) error {
	return r.db.WithContext(ctx).Model(queue).
		Updates(map[string]interface{}{
			"current_track_id": queue.CurrentTrackID,
			"current_position": queue.CurrentPosition,
		}).Error
}

func (r *gormQueueRepository) ListWithCursor(ctx context.Context) ([]*model.Queue, error) {
	var queues []*model.Queue
	err := r.db.WithContext(ctx).
		Where("current_track_id IS NOT NULL").
		Find(&queues).Error
	return queues, err
}
