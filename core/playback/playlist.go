package playback

import (
	"context"
	"io"
	"strings"
	"unicode/utf8"

	"playpod/core/tracklist"
	"playpod/logger"
	"playpod/model"
	"playpod/repository"

	"github.com/google/uuid"
)

const maxPlaylistNameLength = 255

// PlaylistInput 创建歌单的参数
type PlaylistInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPublic    bool   `json:"is_public"`
}

// PlaylistPatch 更新歌单的参数，nil 字段保持不变
type PlaylistPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"is_public"`
}

// PlayOptions 播放歌单的参数
type PlayOptions struct {
	Position int  `json:"position"`
	Shuffle  bool `json:"shuffle"`
}

func validatePlaylistName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", model.Validation("Playlist name is required")
	}
	if utf8.RuneCountInString(name) > maxPlaylistNameLength {
		return "", model.Validation("Playlist name must be at most %d characters", maxPlaylistNameLength)
	}
	return name, nil
}

// CreatePlaylist 创建歌单
func (s *Service) CreatePlaylist(ctx context.Context, userID string, in PlaylistInput) (*model.Playlist, error) {
	name, err := validatePlaylistName(in.Name)
	if err != nil {
		return nil, err
	}

	playlist := &model.Playlist{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Description: in.Description,
		IsPublic:    in.IsPublic,
	}
	if err := s.store.Repos().Playlists.Create(ctx, playlist); err != nil {
		return nil, err
	}

	logger.Info("[Playlist] 创建歌单",
		logger.String("user", userID),
		logger.String("playlist", playlist.ID))
	return playlist, nil
}

// ListPlaylists 返回自己的歌单；mineOnly 为 false 时同时返回其他人的公开歌单
func (s *Service) ListPlaylists(ctx context.Context, userID string, mineOnly bool) ([]*model.Playlist, error) {
	playlists, err := s.store.Repos().Playlists.ListVisible(ctx, userID, mineOnly)
	if err != nil {
		return nil, err
	}
	if playlists == nil {
		playlists = []*model.Playlist{}
	}
	return playlists, nil
}

// visiblePlaylist 不可见的歌单和不存在的歌单同样返回 NotFound
func (s *Service) visiblePlaylist(ctx context.Context, r *repository.Repositories, userID, playlistID string) (*model.Playlist, error) {
	playlist, err := r.Playlists.GetByID(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if playlist == nil || !playlist.VisibleTo(userID) {
		return nil, model.NotFound("Playlist not found")
	}
	return playlist, nil
}

// ownedPlaylist 可见但不属于自己的歌单返回 Forbidden
func (s *Service) ownedPlaylist(ctx context.Context, r *repository.Repositories, userID, playlistID string) (*model.Playlist, error) {
	playlist, err := s.visiblePlaylist(ctx, r, userID, playlistID)
	if err != nil {
		return nil, err
	}
	if playlist.UserID != userID {
		return nil, model.Forbidden("Not the owner of this playlist")
	}
	return playlist, nil
}

// GetPlaylist 获取歌单
func (s *Service) GetPlaylist(ctx context.Context, userID, playlistID string) (*model.Playlist, error) {
	return s.visiblePlaylist(ctx, s.store.Repos(), userID, playlistID)
}

// UpdatePlaylist 修改歌单信息
func (s *Service) UpdatePlaylist(ctx context.Context, userID, playlistID string, patch PlaylistPatch) (*model.Playlist, error) {
	var playlist *model.Playlist
	err := s.withLock(ctx, playlistLockKey(playlistID), func() error {
		r := s.store.Repos()
		var err error
		if playlist, err = s.ownedPlaylist(ctx, r, userID, playlistID); err != nil {
			return err
		}
		if patch.Name != nil {
			name, err := validatePlaylistName(*patch.Name)
			if err != nil {
				return err
			}
			playlist.Name = name
		}
		if patch.Description != nil {
			playlist.Description = *patch.Description
		}
		if patch.IsPublic != nil {
			playlist.IsPublic = *patch.IsPublic
		}
		return r.Playlists.Update(ctx, playlist)
	})
	if err != nil {
		return nil, err
	}
	return playlist, nil
}

// DeletePlaylist 删除歌单及其曲目，封面在提交后删除
func (s *Service) DeletePlaylist(ctx context.Context, userID, playlistID string) error {
	var cover string
	err := s.withLock(ctx, playlistLockKey(playlistID), func() error {
		return s.store.Transaction(ctx, func(r *repository.Repositories) error {
			playlist, err := s.ownedPlaylist(ctx, r, userID, playlistID)
			if err != nil {
				return err
			}
			cover = playlist.CoverObject
			if err := r.Tracks.DeleteAll(ctx, playlistID); err != nil {
				return err
			}
			return r.Playlists.Delete(ctx, playlistID)
		})
	})
	if err != nil {
		return err
	}

	if cover != "" && s.covers != nil {
		if err := s.covers.RemoveCover(ctx, cover); err != nil {
			logger.Warn("[Playlist] 删除封面失败",
				logger.String("playlist", playlistID),
				logger.ErrorField(err))
		}
	}
	logger.Info("[Playlist] 删除歌单", logger.String("user", userID), logger.String("playlist", playlistID))
	return nil
}

// PlaylistTracks 歌单曲目，按位置排序
func (s *Service) PlaylistTracks(ctx context.Context, userID, playlistID string) ([]model.ListTrack, error) {
	r := s.store.Repos()
	if _, err := s.visiblePlaylist(ctx, r, userID, playlistID); err != nil {
		return nil, err
	}
	tracks, err := s.list(r, playlistID).Tracks(ctx)
	if err != nil {
		return nil, err
	}
	if tracks == nil {
		tracks = []model.ListTrack{}
	}
	return tracks, nil
}

// AddPlaylistTrack 追加一首曲目
func (s *Service) AddPlaylistTrack(ctx context.Context, userID, playlistID, trackID string) (*model.ListTrack, error) {
	id, err := normalizeID(trackID)
	if err != nil {
		return nil, err
	}

	var added *model.ListTrack
	err = s.withLock(ctx, playlistLockKey(playlistID), func() error {
		r := s.store.Repos()
		if _, err := s.ownedPlaylist(ctx, r, userID, playlistID); err != nil {
			return err
		}
		existing, err := r.Tracks.GetByTrackID(ctx, playlistID, id)
		if err != nil {
			return err
		}
		if existing != nil {
			return model.DuplicateEntry("Track already in playlist")
		}

		ref, err := s.resolveTrack(ctx, id)
		if err != nil {
			return err
		}
		return s.store.Transaction(ctx, func(r *repository.Repositories) error {
			added, err = s.list(r, playlistID).Append(ctx, ref)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// AddPlaylistTracks 批量追加，部分成功时返回跳过的输入及原因。空输入返回空结果。
func (s *Service) AddPlaylistTracks(ctx context.Context, userID, playlistID string, trackIDs []string) (*tracklist.BulkResult, error) {
	var result tracklist.BulkResult
	err := s.withLock(ctx, playlistLockKey(playlistID), func() error {
		r := s.store.Repos()
		if _, err := s.ownedPlaylist(ctx, r, userID, playlistID); err != nil {
			return err
		}
		existing, err := s.list(r, playlistID).Contains(ctx)
		if err != nil {
			return err
		}

		plan := tracklist.PlanBulk(trackIDs, existing)
		resolved := make(map[string]model.TrackRef, len(plan.Pending))
		for _, id := range plan.Pending {
			track, err := s.provider.GetTrack(ctx, id)
			if err != nil {
				logger.Warn("[Playlist] 批量添加时解析曲目失败",
					logger.String("playlist", playlistID),
					logger.String("track", id),
					logger.ErrorField(err))
				continue
			}
			resolved[id] = track.Ref()
		}

		return s.store.Transaction(ctx, func(r *repository.Repositories) error {
			result, err = s.list(r, playlistID).BulkAppend(ctx, plan, resolved)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	if result.Added == nil {
		result.Added = []model.ListTrack{}
	}
	if result.Skipped == nil {
		result.Skipped = []tracklist.Skipped{}
	}
	logger.Info("[Playlist] 批量添加曲目",
		logger.String("playlist", playlistID),
		logger.Int("added", result.AddedCount),
		logger.Int("skipped", len(result.Skipped)))
	return &result, nil
}

// RemovePlaylistTrack 按曲目ID移除
func (s *Service) RemovePlaylistTrack(ctx context.Context, userID, playlistID, trackID string) (*model.ListTrack, error) {
	return s.mutatePlaylist(ctx, userID, playlistID, func(l *tracklist.List) (*model.ListTrack, error) {
		return l.Remove(ctx, trackID)
	})
}

// RemovePlaylistTrackAt 按位置移除
func (s *Service) RemovePlaylistTrackAt(ctx context.Context, userID, playlistID string, position int) (*model.ListTrack, error) {
	return s.mutatePlaylist(ctx, userID, playlistID, func(l *tracklist.List) (*model.ListTrack, error) {
		return l.RemoveAt(ctx, position)
	})
}

// ReorderPlaylistTrack 移动歌单中的曲目
func (s *Service) ReorderPlaylistTrack(ctx context.Context, userID, playlistID, trackID string, position int) (*model.ListTrack, error) {
	return s.mutatePlaylist(ctx, userID, playlistID, func(l *tracklist.List) (*model.ListTrack, error) {
		return l.Reorder(ctx, trackID, position)
	})
}

func (s *Service) mutatePlaylist(ctx context.Context, userID, playlistID string, fn func(l *tracklist.List) (*model.ListTrack, error)) (*model.ListTrack, error) {
	var track *model.ListTrack
	err := s.withLock(ctx, playlistLockKey(playlistID), func() error {
		return s.store.Transaction(ctx, func(r *repository.Repositories) error {
			if _, err := s.ownedPlaylist(ctx, r, userID, playlistID); err != nil {
				return err
			}
			var err error
			track, err = fn(s.list(r, playlistID))
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return track, nil
}

// ShufflePlaylist 打乱歌单顺序
func (s *Service) ShufflePlaylist(ctx context.Context, userID, playlistID string) ([]model.ListTrack, error) {
	var tracks []model.ListTrack
	err := s.withLock(ctx, playlistLockKey(playlistID), func() error {
		return s.store.Transaction(ctx, func(r *repository.Repositories) error {
			if _, err := s.ownedPlaylist(ctx, r, userID, playlistID); err != nil {
				return err
			}
			var err error
			if tracks, err = s.list(r, playlistID).Shuffle(ctx, "", s.newRand()); err != nil {
				return err
			}
			if len(tracks) == 0 {
				return model.EmptyCollection("Playlist is empty")
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return tracks, nil
}

// SetPlaylistCover 上传歌单封面，替换旧封面
func (s *Service) SetPlaylistCover(ctx context.Context, userID, playlistID string, body io.Reader, size int64, contentType string) (*model.Playlist, error) {
	if s.covers == nil {
		return nil, model.UpstreamUnavailable("cover storage is not configured")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, model.Validation("cover must be an image")
	}

	var (
		playlist *model.Playlist
		previous string
	)
	err := s.withLock(ctx, playlistLockKey(playlistID), func() error {
		r := s.store.Repos()
		var err error
		if playlist, err = s.ownedPlaylist(ctx, r, userID, playlistID); err != nil {
			return err
		}
		object, err := s.covers.PutCover(ctx, playlistID, body, size, contentType)
		if err != nil {
			return model.UpstreamUnavailable("upload cover: %v", err)
		}
		previous = playlist.CoverObject
		playlist.CoverObject = object
		return r.Playlists.Update(ctx, playlist)
	})
	if err != nil {
		return nil, err
	}

	if previous != "" && previous != playlist.CoverObject {
		if err := s.covers.RemoveCover(ctx, previous); err != nil {
			logger.Warn("[Playlist] 删除旧封面失败", logger.String("object", previous), logger.ErrorField(err))
		}
	}
	return playlist, nil
}

// PlayPlaylist 用歌单替换队列并从指定位置开始播放。
// 起始位置越界时从 0 开始；shuffle 时起始曲目固定在队首。
func (s *Service) PlayPlaylist(ctx context.Context, userID, playlistID string, opts PlayOptions) (*model.QueueState, error) {
	tracks, err := s.PlaylistTracks(ctx, userID, playlistID)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, model.EmptyCollection("Playlist is empty")
	}

	start := opts.Position
	if start < 0 || start >= len(tracks) {
		start = 0
	}

	var ordered []model.ListTrack
	if opts.Shuffle {
		ordered = tracklist.ShuffleOrder(tracks, tracks[start].TrackID, s.newRand())
	} else {
		ordered = tracks[start:]
	}

	refs := make([]model.TrackRef, len(ordered))
	for i := range ordered {
		refs[i] = ordered[i].Ref()
	}

	var state *model.QueueState
	err = s.withLock(ctx, queueLockKey(userID), func() error {
		return s.store.Transaction(ctx, func(r *repository.Repositories) error {
			state, err = s.replaceQueue(ctx, r, userID, refs)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.forgetRecommendations(ctx, userID)
	logger.Info("[Playlist] 播放歌单",
		logger.String("user", userID),
		logger.String("playlist", playlistID),
		logger.Int("tracks", len(refs)))
	return state, nil
}
