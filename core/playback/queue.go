package playback

import (
	"context"
	"time"

	"playpod/core/tracklist"
	"playpod/logger"
	"playpod/model"
	"playpod/repository"
)

// queueState 组装队列快照
func (s *Service) queueState(ctx context.Context, r *repository.Repositories, q *model.Queue) (*model.QueueState, error) {
	tracks, err := r.Tracks.List(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	state := &model.QueueState{Queue: q, Tracks: tracks}
	if q.HasCursor() {
		for i := range tracks {
			if tracks[i].TrackID == *q.CurrentTrackID {
				state.Current = &tracks[i]
				break
			}
		}
	}
	if state.Tracks == nil {
		state.Tracks = []model.ListTrack{}
	}
	return state, nil
}

// syncCursorHint 列表变化后刷新 current_position 提示
func (s *Service) syncCursorHint(ctx context.Context, r *repository.Repositories, q *model.Queue) error {
	if !q.HasCursor() {
		return nil
	}
	cur, err := r.Tracks.GetByTrackID(ctx, q.ID, *q.CurrentTrackID)
	if err != nil || cur == nil || cur.Position == q.CurrentPosition {
		return err
	}
	q.CurrentPosition = cur.Position
	return r.Queues.SaveCursor(ctx, q)
}

// GetQueue 返回用户队列，不存在时创建
func (s *Service) GetQueue(ctx context.Context, userID string) (*model.QueueState, error) {
	r := s.store.Repos()
	q, err := r.Queues.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.queueState(ctx, r, q)
}

// QueueTracks 按位置返回队列曲目
func (s *Service) QueueTracks(ctx context.Context, userID string) ([]model.ListTrack, error) {
	state, err := s.GetQueue(ctx, userID)
	if err != nil {
		return nil, err
	}
	return state.Tracks, nil
}

// Enqueue 追加曲目到队列末尾，队列没有游标时指向新曲目
func (s *Service) Enqueue(ctx context.Context, userID, trackID string) (*model.ListTrack, error) {
	id, err := normalizeID(trackID)
	if err != nil {
		return nil, err
	}

	var added *model.ListTrack
	err = s.withLock(ctx, queueLockKey(userID), func() error {
		r := s.store.Repos()
		q, err := r.Queues.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		existing, err := r.Tracks.GetByTrackID(ctx, q.ID, id)
		if err != nil {
			return err
		}
		if existing != nil {
			return model.DuplicateEntry("Already in queue")
		}

		ref, err := s.resolveTrack(ctx, id)
		if err != nil {
			return err
		}

		return s.store.Transaction(ctx, func(r *repository.Repositories) error {
			added, err = s.list(r, q.ID).Append(ctx, ref)
			if err != nil {
				return err
			}
			if !q.HasCursor() {
				q.PointTo(added)
				return r.Queues.SaveCursor(ctx, q)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info("[Queue] 曲目入队", logger.String("user", userID), logger.String("track", id))
	return added, nil
}

// Dequeue 按曲目ID移出队列
func (s *Service) Dequeue(ctx context.Context, userID, trackID string) (*model.ListTrack, error) {
	return s.dequeue(ctx, userID, func(l *tracklist.List) (*model.ListTrack, error) {
		return l.Remove(ctx, trackID)
	})
}

// DequeueAt 按位置移出队列
func (s *Service) DequeueAt(ctx context.Context, userID string, position int) (*model.ListTrack, error) {
	return s.dequeue(ctx, userID, func(l *tracklist.List) (*model.ListTrack, error) {
		return l.RemoveAt(ctx, position)
	})
}

// dequeue 删除后若删掉的是当前曲目，游标移到占据原位置的曲目，没有则移到新的末尾
func (s *Service) dequeue(ctx context.Context, userID string, remove func(l *tracklist.List) (*model.ListTrack, error)) (*model.ListTrack, error) {
	var removed *model.ListTrack
	err := s.withLock(ctx, queueLockKey(userID), func() error {
		return s.store.Transaction(ctx, func(r *repository.Repositories) error {
			q, err := r.Queues.GetOrCreate(ctx, userID)
			if err != nil {
				return err
			}
			l := s.list(r, q.ID)
			if removed, err = remove(l); err != nil {
				return err
			}

			if !q.HasCursor() || *q.CurrentTrackID != removed.TrackID {
				return s.syncCursorHint(ctx, r, q)
			}

			next, err := l.At(ctx, removed.Position)
			if err != nil {
				return err
			}
			if next == nil && removed.Position > 0 {
				if next, err = l.At(ctx, removed.Position-1); err != nil {
					return err
				}
			}
			q.PointTo(next)
			return r.Queues.SaveCursor(ctx, q)
		})
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// ReorderQueueTrack 移动队列中的曲目
func (s *Service) ReorderQueueTrack(ctx context.Context, userID, trackID string, position int) (*model.ListTrack, error) {
	var moved *model.ListTrack
	err := s.withLock(ctx, queueLockKey(userID), func() error {
		return s.store.Transaction(ctx, func(r *repository.Repositories) error {
			q, err := r.Queues.GetOrCreate(ctx, userID)
			if err != nil {
				return err
			}
			if moved, err = s.list(r, q.ID).Reorder(ctx, trackID, position); err != nil {
				return err
			}
			return s.syncCursorHint(ctx, r, q)
		})
	})
	return moved, err
}

// ClearQueue 清空队列并重置游标
func (s *Service) ClearQueue(ctx context.Context, userID string) error {
	return s.withLock(ctx, queueLockKey(userID), func() error {
		return s.store.Transaction(ctx, func(r *repository.Repositories) error {
			q, err := r.Queues.GetOrCreate(ctx, userID)
			if err != nil {
				return err
			}
			if err := s.list(r, q.ID).Clear(ctx); err != nil {
				return err
			}
			q.PointTo(nil)
			return r.Queues.SaveCursor(ctx, q)
		})
	})
}

// Current 当前曲目。游标指向已不存在的曲目时重置游标并返回 NotFound。
func (s *Service) Current(ctx context.Context, userID string) (*model.ListTrack, error) {
	var (
		current *model.ListTrack
		stale   bool
	)
	err := s.withLock(ctx, queueLockKey(userID), func() error {
		return s.store.Transaction(ctx, func(r *repository.Repositories) error {
			q, err := r.Queues.GetOrCreate(ctx, userID)
			if err != nil {
				return err
			}
			if !q.HasCursor() {
				return model.NotFound("No current track")
			}
			if current, err = r.Tracks.GetByTrackID(ctx, q.ID, *q.CurrentTrackID); err != nil {
				return err
			}
			if current == nil {
				stale = true
				q.PointTo(nil)
				return r.Queues.SaveCursor(ctx, q)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if stale {
		logger.Warn("[Queue] 游标指向的曲目已不在队列中，已重置", logger.String("user", userID))
		return nil, model.NotFound("Current track not found in queue")
	}
	return current, nil
}

// cursorEntry 读取游标指向的曲目
func (s *Service) cursorEntry(ctx context.Context, r *repository.Repositories, q *model.Queue, emptyErr error) (*model.ListTrack, error) {
	if !q.HasCursor() {
		count, err := r.Tracks.Count(ctx, q.ID)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, emptyErr
		}
		return nil, model.Validation("No current track")
	}
	cur, err := r.Tracks.GetByTrackID(ctx, q.ID, *q.CurrentTrackID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, model.NotFound("Current track not found in queue")
	}
	return cur, nil
}

// Next 前进到下一首，离开的曲目记为 finished
func (s *Service) Next(ctx context.Context, userID string) (*model.ListTrack, error) {
	var (
		next      *model.ListTrack
		remaining int
	)
	err := s.withLock(ctx, queueLockKey(userID), func() error {
		return s.store.Transaction(ctx, func(r *repository.Repositories) error {
			q, err := r.Queues.GetOrCreate(ctx, userID)
			if err != nil {
				return err
			}
			cur, err := s.cursorEntry(ctx, r, q, model.EndOfList("End of queue reached"))
			if err != nil {
				return err
			}

			l := s.list(r, q.ID)
			if next, err = l.At(ctx, cur.Position+1); err != nil {
				return err
			}
			if next == nil {
				return model.EndOfList("End of queue reached")
			}

			if err := s.record(ctx, r, userID, cur.Ref(), model.EventFinished); err != nil {
				return err
			}
			q.PointTo(next)
			if err := r.Queues.SaveCursor(ctx, q); err != nil {
				return err
			}

			count, err := l.Count(ctx)
			remaining = count - next.Position - 1
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.forgetRecommendations(ctx, userID)
	if s.radio != nil && remaining < s.opts.RadioLowWatermark {
		s.radio.Schedule(userID)
	}
	return next, nil
}

// Previous 回到上一首；已在位置 0 时原样返回当前曲目
func (s *Service) Previous(ctx context.Context, userID string) (*model.ListTrack, error) {
	var result *model.ListTrack
	err := s.withLock(ctx, queueLockKey(userID), func() error {
		return s.store.Transaction(ctx, func(r *repository.Repositories) error {
			q, err := r.Queues.GetOrCreate(ctx, userID)
			if err != nil {
				return err
			}
			cur, err := s.cursorEntry(ctx, r, q, model.EmptyCollection("Queue is empty"))
			if err != nil {
				return err
			}
			result = cur
			if cur.Position == 0 {
				return nil
			}

			prev, err := r.Tracks.GetByPosition(ctx, q.ID, cur.Position-1)
			if err != nil || prev == nil {
				return err
			}
			result = prev
			q.PointTo(prev)
			if err := r.Queues.SaveCursor(ctx, q); err != nil {
				return err
			}
			return s.record(ctx, r, userID, prev.Ref(), model.EventPlayed)
		})
	})
	if err != nil {
		return nil, err
	}
	s.forgetRecommendations(ctx, userID)
	return result, nil
}

// JumpTo 直接跳到指定位置；之前的曲目记为 skipped，新曲目记为 played
func (s *Service) JumpTo(ctx context.Context, userID string, position int) (*model.ListTrack, error) {
	var target *model.ListTrack
	err := s.withLock(ctx, queueLockKey(userID), func() error {
		return s.store.Transaction(ctx, func(r *repository.Repositories) error {
			q, err := r.Queues.GetOrCreate(ctx, userID)
			if err != nil {
				return err
			}
			if target, err = r.Tracks.GetByPosition(ctx, q.ID, position); err != nil {
				return err
			}
			if target == nil {
				return model.NotFound("Track at position %d not found", position)
			}

			if q.HasCursor() && *q.CurrentTrackID != target.TrackID {
				prev, err := r.Tracks.GetByTrackID(ctx, q.ID, *q.CurrentTrackID)
				if err != nil {
					return err
				}
				if prev != nil {
					if err := s.record(ctx, r, userID, prev.Ref(), model.EventSkipped); err != nil {
						return err
					}
				}
			}

			q.PointTo(target)
			if err := r.Queues.SaveCursor(ctx, q); err != nil {
				return err
			}
			return s.record(ctx, r, userID, target.Ref(), model.EventPlayed)
		})
	})
	if err != nil {
		return nil, err
	}
	s.forgetRecommendations(ctx, userID)
	return target, nil
}

// ShuffleQueue 打乱队列，当前曲目固定在位置 0；没有游标时指向打乱后的第一首
func (s *Service) ShuffleQueue(ctx context.Context, userID string) (*model.QueueState, error) {
	var state *model.QueueState
	err := s.withLock(ctx, queueLockKey(userID), func() error {
		return s.store.Transaction(ctx, func(r *repository.Repositories) error {
			q, err := r.Queues.GetOrCreate(ctx, userID)
			if err != nil {
				return err
			}
			l := s.list(r, q.ID)
			count, err := l.Count(ctx)
			if err != nil {
				return err
			}
			if count == 0 {
				return model.EmptyCollection("Queue is empty")
			}

			pinned := ""
			if q.HasCursor() {
				cur, err := l.Find(ctx, *q.CurrentTrackID)
				if err != nil {
					return err
				}
				if cur != nil {
					pinned = cur.TrackID
				}
			}

			tracks, err := l.Shuffle(ctx, pinned, s.newRand())
			if err != nil {
				return err
			}
			q.PointTo(&tracks[0])
			if err := r.Queues.SaveCursor(ctx, q); err != nil {
				return err
			}
			state, err = s.queueState(ctx, r, q)
			return err
		})
	})
	return state, err
}

// Stream 开始播放一首曲目，不在队列中时先解析元数据并追加到末尾。
// trackID 为空时播放游标指向的曲目。
func (s *Service) Stream(ctx context.Context, userID, trackID string) (*model.ListTrack, error) {
	var current *model.ListTrack
	err := s.withLock(ctx, queueLockKey(userID), func() error {
		r := s.store.Repos()
		q, err := r.Queues.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}

		id := trackID
		if id == "" {
			if !q.HasCursor() {
				return model.Validation("No current track")
			}
			id = *q.CurrentTrackID
		}
		if id, err = normalizeID(id); err != nil {
			return err
		}

		existing, err := r.Tracks.GetByTrackID(ctx, q.ID, id)
		if err != nil {
			return err
		}
		var ref model.TrackRef
		if existing == nil {
			if ref, err = s.resolveTrack(ctx, id); err != nil {
				return err
			}
		}

		return s.store.Transaction(ctx, func(r *repository.Repositories) error {
			current = existing
			if current == nil {
				if current, err = s.list(r, q.ID).Append(ctx, ref); err != nil {
					return err
				}
			}
			q.PointTo(current)
			if err := r.Queues.SaveCursor(ctx, q); err != nil {
				return err
			}
			return s.record(ctx, r, userID, current.Ref(), model.EventPlayed)
		})
	})
	if err != nil {
		return nil, err
	}
	s.forgetRecommendations(ctx, userID)
	return current, nil
}

// replaceQueue 用 refs 替换队列内容，游标指向第一首并记录一次 played
func (s *Service) replaceQueue(ctx context.Context, r *repository.Repositories, userID string, refs []model.TrackRef) (*model.QueueState, error) {
	q, err := r.Queues.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	tracks, err := s.list(r, q.ID).Replace(ctx, refs)
	if err != nil {
		return nil, err
	}

	if len(tracks) == 0 {
		q.PointTo(nil)
	} else {
		q.PointTo(&tracks[0])
	}
	if err := r.Queues.SaveCursor(ctx, q); err != nil {
		return nil, err
	}
	if len(tracks) > 0 {
		if err := s.record(ctx, r, userID, tracks[0].Ref(), model.EventPlayed); err != nil {
			return nil, err
		}
	}
	return s.queueState(ctx, r, q)
}

// History 最近的播放历史，按时间倒序
func (s *Service) History(ctx context.Context, userID string, limit int, since *time.Time) ([]model.HistoryEntry, error) {
	if limit <= 0 || limit > s.opts.HistoryPage {
		limit = s.opts.HistoryPage
	}
	entries, err := s.store.Repos().History.Recent(ctx, userID, limit, since)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	return entries, nil
}
