package playback

import (
	"context"
	"time"

	"playpod/logger"
	"playpod/model"
	"playpod/repository"
)

// SeedResult 一次自动补充的结果
type SeedResult struct {
	Added   []model.ListTrack `json:"added"`
	Total   int               `json:"total"`
	Skipped bool              `json:"skipped"`
}

// SeedQueue 根据最近播放为队列补充曲目。
// 队列已足够长时跳过；原本为空的队列会把游标指向第一首新曲目。
func (s *Service) SeedQueue(ctx context.Context, userID string) (*SeedResult, error) {
	result := &SeedResult{}
	err := s.withLock(ctx, queueLockKey(userID), func() error {
		r := s.store.Repos()
		q, err := r.Queues.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		existing, err := s.list(r, q.ID).Contains(ctx)
		if err != nil {
			return err
		}
		if len(existing) >= s.opts.SeedThreshold {
			result.Skipped = true
			result.Total = len(existing)
			return nil
		}

		since := s.now().Add(-s.opts.SeedWindow)
		recent, err := r.History.Recent(ctx, userID, s.opts.HistoryPage, &since)
		if err != nil {
			return err
		}

		exclude := make(map[string]bool, len(existing)+len(recent))
		for id := range existing {
			exclude[id] = true
		}
		for _, h := range recent {
			exclude[h.TrackID] = true
		}

		c := newCandidates(s.opts.SeedCap, exclude)
		s.collectSeeds(ctx, c, recent)
		if len(c.tracks) == 0 {
			result.Total = len(existing)
			return nil
		}

		wasEmpty := len(existing) == 0
		return s.store.Transaction(ctx, func(r *repository.Repositories) error {
			l := s.list(r, q.ID)
			for i := range c.tracks {
				added, err := l.Append(ctx, c.tracks[i].Ref())
				if err != nil {
					if isDuplicateEntry(err) {
						continue
					}
					return err
				}
				result.Added = append(result.Added, *added)
			}
			if result.Total, err = l.Count(ctx); err != nil {
				return err
			}
			if wasEmpty && len(result.Added) > 0 && !q.HasCursor() {
				q.PointTo(&result.Added[0])
				return r.Queues.SaveCursor(ctx, q)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if len(result.Added) > 0 {
		logger.Info("[Radio] 自动补充队列",
			logger.String("user", userID),
			logger.Int("added", len(result.Added)),
			logger.Int("total", result.Total))
	}
	return result, nil
}

// collectSeeds 先取最近曲目的相关曲目，不够时按最近艺人最常见的流派补充
func (s *Service) collectSeeds(ctx context.Context, c *candidates, recent []model.HistoryEntry) {
	seen := make(map[string]bool)
	for _, h := range recent {
		if seen[h.TrackID] {
			continue
		}
		seen[h.TrackID] = true

		related, err := s.provider.RelatedTracks(ctx, h.TrackID, s.opts.RelatedPerTrack)
		if err != nil {
			logger.Warn("[Radio] 获取相关曲目失败", logger.String("track", h.TrackID), logger.ErrorField(err))
			continue
		}
		if c.add(related) {
			return
		}
	}

	genreID := topGenre(recent)
	if genreID == "" {
		return
	}
	tracks, err := s.provider.GenreTracks(ctx, genreID, s.opts.SeedCap*2)
	if err != nil {
		logger.Warn("[Radio] 获取流派曲目失败", logger.String("genre", genreID), logger.ErrorField(err))
		return
	}
	c.add(tracks)
}

// CleanupQueue 删除游标之前、添加时间超过 QueueCleanupAge 的曲目，然后重排位置
func (s *Service) CleanupQueue(ctx context.Context, userID string) (int64, error) {
	var removed int64
	err := s.withLock(ctx, queueLockKey(userID), func() error {
		return s.store.Transaction(ctx, func(r *repository.Repositories) error {
			q, err := r.Queues.GetByUserID(ctx, userID)
			if err != nil || q == nil || !q.HasCursor() {
				return err
			}
			cur, err := r.Tracks.GetByTrackID(ctx, q.ID, *q.CurrentTrackID)
			if err != nil || cur == nil || cur.Position == 0 {
				return err
			}

			cutoff := s.now().Add(-s.opts.QueueCleanupAge)
			if removed, err = r.Tracks.DeleteStale(ctx, q.ID, cur.Position, cutoff); err != nil {
				return err
			}
			if removed == 0 {
				return nil
			}
			if _, err := s.list(r, q.ID).Normalize(ctx); err != nil {
				return err
			}
			return s.syncCursorHint(ctx, r, q)
		})
	})
	return removed, err
}

// CleanupQueues 清理所有有游标的队列，单个队列失败不影响其他队列
func (s *Service) CleanupQueues(ctx context.Context) (int64, error) {
	queues, err := s.store.Repos().Queues.ListWithCursor(ctx)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, q := range queues {
		n, err := s.CleanupQueue(ctx, q.UserID)
		if err != nil {
			logger.Warn("[Cleanup] 清理队列失败", logger.String("user", q.UserID), logger.ErrorField(err))
			continue
		}
		total += n
	}
	if total > 0 {
		logger.Info("[Cleanup] 清理过期队列曲目", logger.Int64("removed", total))
	}
	return total, nil
}

// StartCleanupTicker 周期执行 CleanupQueues，ctx 取消时退出
func StartCleanupTicker(ctx context.Context, svc *Service, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := svc.CleanupQueues(ctx); err != nil {
					logger.Warn("[Cleanup] 定时清理失败", logger.ErrorField(err))
				}
			}
		}
	}()
}
