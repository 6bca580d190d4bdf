package repository

import (
	"context"
	"time"

	"playpod/model"

	"gorm.io/gorm"
)

// TrackListRepository 有序曲目列表的数据访问接口，歌单和队列共用
type TrackListRepository interface {
	List(ctx context.Context, listID string) ([]model.ListTrack, error)
	Count(ctx context.Context, listID string) (int, error)
	TrackIDs(ctx context.Context, listID string) ([]string, error)
	GetByTrackID(ctx context.Context, listID, trackID string) (*model.ListTrack, error)
	GetByPosition(ctx context.Context, listID string, position int) (*model.ListTrack, error)
	Create(ctx context.Context, track *model.ListTrack) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context, listID string) error
	// DeleteStale 删除 position 小于 before 且添加时间早于 addedBefore 的曲目
	DeleteStale(ctx context.Context, listID string, before int, addedBefore time.Time) (int64, error)
	// ShiftPositions 把 [from, to] 区间内的 position 加上 delta，to < 0 表示不设上限
	ShiftPositions(ctx context.Context, listID string, from, to, delta int) error
	SetPosition(ctx context.Context, id string, position int) error
}

// gormTrackListRepository GORM 实现
type gormTrackListRepository struct {
	db *gorm.DB
}

// NewGormTrackListRepository 创建 GORM 曲目列表仓库
func NewGormTrackListRepository(db *gorm.DB) TrackListRepository {
	return &gormTrackListRepository{db: db}
}

// List 按 position 升序返回全部曲目
func (r *gormTrackListRepository) List(ctx context.Context, listID string) ([]model.ListTrack, error) {
	var tracks []model.ListTrack
	err := r.db.WithContext(ctx).
		Where("list_id = ?", listID).
		Order("position ASC").
		Find(&tracks).Error
	return tracks, err
}

func (r *gormTrackListRepository) Count(ctx context.Context, listID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ListTrack{}).
		Where("list_id = ?", listID).
		Count(&count).Error
	return int(count), err
}

func (r *gormTrackListRepository) TrackIDs(ctx context.Context, listID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.ListTrack{}).
		Where("list_id = ?", listID).
		Order("position ASC").
		Pluck("track_id", &ids).Error
	return ids, err
}

// GetByTrackID 不存在时返回 nil, nil
func (r *gormTrackListRepository) GetByTrackID(ctx context.Context, listID, trackID string) (*model.ListTrack, error) {
	var track model.ListTrack
	err := r.db.WithContext(ctx).
		Where("list_id = ? AND track_id = ?", listID, trackID).
		First(&track).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &track, nil
}

// GetByPosition 不存在时返回 nil, nil
func (r *gormTrackListRepository) GetByPosition(ctx context.Context, listID string, position int) (*model.ListTrack, error) {
	var track model.ListTrack
	err := r.db.WithContext(ctx).
		Where("list_id = ? AND position = ?", listID, position).
		First(&track).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &track, nil
}

func (r *gormTrackListRepository) Create(ctx context.Context, track *model.ListTrack) error {
	return r.db.WithContext(ctx).Create(track).Error
}

func (r *gormTrackListRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.ListTrack{}).Error
}

func (r *gormTrackListRepository) DeleteAll(ctx context.Context, listID string) error {
	return r.db.WithContext(ctx).Where("list_id = ?", listID).Delete(&model.ListTrack{}).Error
}

func (r *gormTrackListRepository) DeleteStale(ctx context.Context, listID string, before int, addedBefore time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("list_id = ? AND position < ? AND added_at < ?", listID, before, addedBefore).
		Delete(&model.ListTrack{})
	return res.RowsAffected, res.Error
}

func (r *gormTrackListRepository) ShiftPositions(ctx context.Context, listID string, from, to, delta int) error {
	q := r.db.WithContext(ctx).Model(&model.ListTrack{}).
		Where("list_id = ? AND position >= ?", listID, from)
	if to >= 0 {
		q = q.Where("position <= ?", to)
	}
	return q.UpdateColumn("position", gorm.Expr("position + ?", delta)).Error
}

func (r *gormTrackListRepository) SetPosition(ctx context.Context, id string, position int) error {
	return r.db.WithContext(ctx).Model(&model.ListTrack{}).
		Where("id = ?", id).
		UpdateColumn("position", position).Error
}
