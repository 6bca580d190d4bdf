// Package playback 编排歌单、播放队列、播放历史和推荐。
//
// 所有复合操作都在 owner 锁内完成：先解析元数据，再在一个事务里依次修改列表、
// 移动游标、追加历史。元数据请求失败时不会留下部分修改。
package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"playpod/core/deezer"
	"playpod/core/tracklist"
	"playpod/logger"
	"playpod/model"
	"playpod/repository"
)

// UnitOfWork 仓库访问和事务边界
type UnitOfWork interface {
	Repos() *repository.Repositories
	Transaction(ctx context.Context, fn func(r *repository.Repositories) error) error
}

// RecommendationStore 推荐结果缓存
type RecommendationStore interface {
	Get(ctx context.Context, userID string) ([]model.DeezerTrack, bool, error)
	Set(ctx context.Context, userID string, tracks []model.DeezerTrack) error
	Invalidate(ctx context.Context, userID string) error
}

// CoverStore 歌单封面对象存储
type CoverStore interface {
	PutCover(ctx context.Context, playlistID string, body io.Reader, size int64, contentType string) (string, error)
	RemoveCover(ctx context.Context, object string) error
}

// Scheduler 接收自动补充队列的请求
type Scheduler interface {
	Schedule(userID string) bool
}

// Service 播放队列与歌单服务
type Service struct {
	store    UnitOfWork
	provider deezer.Provider
	locker   Locker
	recs     RecommendationStore
	covers   CoverStore
	radio    Scheduler
	opts     Options
	now      func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// Option 配置 Service
type Option func(*Service)

func WithLocker(l Locker) Option {
	return func(s *Service) { s.locker = l }
}

func WithRecommendationStore(r RecommendationStore) Option {
	return func(s *Service) { s.recs = r }
}

func WithCoverStore(c CoverStore) Option {
	return func(s *Service) { s.covers = c }
}

func WithOptions(o Options) Option {
	return func(s *Service) { s.opts = o }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRand 固定随机源，测试用
func WithRand(r *rand.Rand) Option {
	return func(s *Service) { s.rnd = r }
}

// NewService 创建服务，provider 通常是带缓存的 Deezer 客户端
func NewService(store UnitOfWork, provider deezer.Provider, opts ...Option) *Service {
	s := &Service{
		store:    store,
		provider: provider,
		locker:   NewLocalLocker(),
		opts:     DefaultOptions(),
		now:      func() time.Time { return time.Now().UTC() },
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetScheduler 挂接自动补充队列的后台任务
func (s *Service) SetScheduler(sched Scheduler) {
	s.radio = sched
}

// Options 当前参数
func (s *Service) Options() Options {
	return s.opts
}

// withLock 在 key 对应的 owner 锁内执行 fn
func (s *Service) withLock(ctx context.Context, key string, fn func() error) error {
	release, err := s.locker.Acquire(ctx, key)
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", key, err)
	}
	defer release()
	return fn()
}

func queueLockKey(userID string) string {
	return "queue:" + userID
}

func playlistLockKey(playlistID string) string {
	return "playlist:" + playlistID
}

// newRand 每次调用派生一个独立的随机源，避免并发共享 *rand.Rand
func (s *Service) newRand() *rand.Rand {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return rand.New(rand.NewSource(s.rnd.Int63()))
}

func (s *Service) list(r *repository.Repositories, listID string) *tracklist.List {
	return tracklist.New(r.Tracks, listID).WithClock(s.now)
}

// normalizeID 校验曲目ID格式
func normalizeID(trackID string) (string, error) {
	id, ok := model.NormalizeTrackID(trackID)
	if !ok {
		return "", model.Validation("invalid track_id %q", trackID)
	}
	return id, nil
}

func isDuplicateEntry(err error) bool {
	return errors.Is(err, model.ErrDuplicateEntry)
}

// resolveTrack 通过元数据服务解析曲目，必须在事务开始前调用
func (s *Service) resolveTrack(ctx context.Context, trackID string) (model.TrackRef, error) {
	id, err := normalizeID(trackID)
	if err != nil {
		return model.TrackRef{}, err
	}
	track, err := s.provider.GetTrack(ctx, id)
	if err != nil {
		return model.TrackRef{}, deezer.AsModelError(err, "Track "+id)
	}
	return track.Ref(), nil
}

// record 追加一条播放历史，时间戳对同一用户单调不减
func (s *Service) record(ctx context.Context, r *repository.Repositories, userID string, ref model.TrackRef, event model.HistoryEvent) error {
	ts := s.now()
	last, err := r.History.Latest(ctx, userID)
	if err != nil {
		return err
	}
	if last != nil && last.PlayedAt.After(ts) {
		ts = last.PlayedAt
	}

	entry := &model.HistoryEntry{UserID: userID, TrackRef: ref, Event: event, PlayedAt: ts}
	if err := r.History.Create(ctx, entry); err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	logger.Debug("[History] 记录播放历史",
		logger.String("user", userID),
		logger.String("track", ref.TrackID),
		logger.String("event", string(event)))
	return nil
}
