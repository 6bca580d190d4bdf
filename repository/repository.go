package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repositories 同一个连接（或事务）上的全部仓库
type Repositories struct {
	Playlists PlaylistRepository
	Queues    QueueRepository
	Tracks    TrackListRepository
	History   HistoryRepository
	Favorites FavoriteRepository
}

// NewGormRepositories 基于给定的 *gorm.DB（可以是事务）创建仓库集合
func NewGormRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Playlists: NewGormPlaylistRepository(db),
		Queues:    NewGormQueueRepository(db),
		Tracks:    NewGormTrackListRepository(db),
		History:   NewGormHistoryRepository(db),
		Favorites: NewGormFavoriteRepository(db),
	}
}

// Store 工作单元：Repos 用于只读访问，Transaction 用于复合修改
type Store struct {
	db    *gorm.DB
	repos *Repositories
}

// NewStore 创建 Store
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, repos: NewGormRepositories(db)}
}

// Repos 事务外的仓库
func (s *Store) Repos() *Repositories {
	return s.repos
}

// Transaction 在单个数据库事务中执行 fn，fn 返回错误时整体回滚
func (s *Store) Transaction(ctx context.Context, fn func(r *Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormRepositories(tx))
	})
}

// IsDuplicateKey 唯一索引冲突
func IsDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
