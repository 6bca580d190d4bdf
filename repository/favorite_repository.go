package repository

import (
	"context"

	"playpod/model"

	"gorm.io/gorm"
)

// FavoriteRepository 收藏数据访问接口
type FavoriteRepository interface {
	Create(ctx context.Context, fav *model.Favorite) error
	// Delete 返回是否删除了记录
	Delete(ctx context.Context, userID, trackID string) (bool, error)
	Exists(ctx context.Context, userID, trackID string) (bool, error)
	List(ctx context.Context, userID string) ([]model.Favorite, error)
}

// gormFavoriteRepository GORM 实现
type gormFavoriteRepository struct {
	db *gorm.DB
}

// NewGormFavoriteRepository 创建 GORM 收藏仓库
func NewGormFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &gormFavoriteRepository{db: db}
}

func (r *gormFavoriteRepository) Create(ctx context.Context, fav *model.Favorite) error {
	return r.db.WithContext(ctx).Create(fav).Error
}

func (r *gormFavoriteRepository) Delete(ctx context.Context, userID, trackID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND track_id = ?", userID, trackID).
		Delete(&model.Favorite{})
	return res.RowsAffected > 0, res.Error
}

func (r *gormFavoriteRepository) Exists(ctx context.Context, userID, trackID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Favorite{}).
		Where("user_id = ? AND track_id = ?", userID, trackID).
		Count(&count).Error
	return count > 0, err
}

func (r *gormFavoriteRepository) List(ctx context.Context, userID string) ([]model.Favorite, error) {
	var favs []model.Favorite
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&favs).Error
	return favs, err
}
