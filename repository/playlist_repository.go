package repository

import (
	"context"

	"playpod/model"

	"gorm.io/gorm"
)

// PlaylistRepository 歌单数据访问接口
type PlaylistRepository interface {
	Create(ctx context.Context, playlist *model.Playlist) error
	GetByID(ctx context.Context, id string) (*model.Playlist, error)
	// ListVisible 返回用户自己的歌单，mineOnly 为 false 时包含其他人的公开歌单
	ListVisible(ctx context.Context, userID string, mineOnly bool) ([]*model.Playlist, error)
	Update(ctx context.Context, playlist *model.Playlist) error
	Delete(ctx context.Context, id string) error
}

// gormPlaylistRepository GORM 实现
type gormPlaylistRepository struct {
	db *gorm.DB
}

// NewGormPlaylistRepository 创建 GORM 歌单仓库
func NewGormPlaylistRepository(db *gorm.DB) PlaylistRepository {
	return &gormPlaylistRepository{db: db}
}

func (r *gormPlaylistRepository) Create(ctx context.Context, playlist *model.Playlist) error {
	return r.db.WithContext(ctx).Create(playlist).Error
}

// GetByID 不存在时返回 nil, nil
func (r *gormPlaylistRepository) GetByID(ctx context.Context, id string) (*model.Playlist, error) {
	var playlist model.Playlist
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&playlist).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	counts, err := r.trackCounts(ctx, []string{playlist.ID})
	if err != nil {
		return nil, err
	}
	playlist.TracksCount = counts[playlist.ID]
	return &playlist, nil
}

func (r *gormPlaylistRepository) ListVisible(ctx context.Context, userID string, mineOnly bool) ([]*model.Playlist, error) {
	q := r.db.WithContext(ctx)
	if mineOnly {
		q = q.Where("user_id = ?", userID)
	} else {
		q = q.Where("user_id = ? OR is_public = ?", userID, true)
	}

	var playlists []*model.Playlist
	if err := q.Order("created_at DESC").Find(&playlists).Error; err != nil {
		return nil, err
	}
	if len(playlists) == 0 {
		return playlists, nil
	}

	ids := make([]string, len(playlists))
	for i, p := range playlists {
		ids[i] = p.ID
	}
	counts, err := r.trackCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range playlists {
		p.TracksCount = counts[p.ID]
	}
	return playlists, nil
}

func (r *gormPlaylistRepository) trackCounts(ctx context.Context, ids []string) (map[string]int, error) {
	var rows []struct {
		ListID string
		Total  int
	}
	err := r.db.WithContext(ctx).Model(&model.ListTrack{}).
		Select("list_id, COUNT(*) AS total").
		Where("list_id IN ?", ids).
		Group("list_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.ListID] = row.Total
	}
	return counts, nil
}

func (r *gormPlaylistRepository) Update(ctx context.Context, playlist *model.Playlist) error {
	return r.db.WithContext(ctx).Save(playlist).Error
}

func (r *gormPlaylistRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Playlist{}).Error
}
