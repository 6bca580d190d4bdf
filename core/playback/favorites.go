package playback

import (
	"context"

	"playpod/model"
	"playpod/repository"
)

// AddFavorite 收藏曲目，保存当时的元数据快照
func (s *Service) AddFavorite(ctx context.Context, userID, trackID string) (*model.Favorite, error) {
	id, err := normalizeID(trackID)
	if err != nil {
		return nil, err
	}

	r := s.store.Repos()
	exists, err := r.Favorites.Exists(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, model.DuplicateEntry("Track already in favorites")
	}

	ref, err := s.resolveTrack(ctx, id)
	if err != nil {
		return nil, err
	}
	fav := model.NewFavorite(userID, ref)
	fav.CreatedAt = s.now()
	if err := r.Favorites.Create(ctx, fav); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, model.DuplicateEntry("Track already in favorites")
		}
		return nil, err
	}
	return fav, nil
}

// RemoveFavorite 取消收藏
func (s *Service) RemoveFavorite(ctx context.Context, userID, trackID string) error {
	deleted, err := s.store.Repos().Favorites.Delete(ctx, userID, trackID)
	if err != nil {
		return err
	}
	if !deleted {
		return model.NotFound("Track not in favorites")
	}
	return nil
}

// ListFavorites 收藏列表
func (s *Service) ListFavorites(ctx context.Context, userID string) ([]model.Favorite, error) {
	favs, err := s.store.Repos().Favorites.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if favs == nil {
		favs = []model.Favorite{}
	}
	return favs, nil
}
