// Package tracklist 实现歌单和队列共用的有序曲目列表。
//
// 列表中的 position 在每次修改完成后始终是 0..count-1 的连续排列，
// 每个 track_id 在同一列表中只出现一次。List 的方法本身不开启事务，
// 调用方需要把传入的仓库绑定到同一个事务上，复合操作才是原子的。
package tracklist

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"playpod/model"
	"playpod/repository"

	"github.com/google/uuid"
)

// List 某个歌单或队列的曲目列表
type List struct {
	repo repository.TrackListRepository
	id   string
	now  func() time.Time
}

// New 绑定仓库和列表ID
func New(repo repository.TrackListRepository, listID string) *List {
	return &List{repo: repo, id: listID, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock 替换时间来源
func (l *List) WithClock(now func() time.Time) *List {
	l.now = now
	return l
}

// ID 列表ID
func (l *List) ID() string {
	return l.id
}

func (l *List) Tracks(ctx context.Context) ([]model.ListTrack, error) {
	return l.repo.List(ctx, l.id)
}

func (l *List) Count(ctx context.Context) (int, error) {
	return l.repo.Count(ctx, l.id)
}

// Find 不存在时返回 nil, nil
func (l *List) Find(ctx context.Context, trackID string) (*model.ListTrack, error) {
	return l.repo.GetByTrackID(ctx, l.id, trackID)
}

// At 不存在时返回 nil, nil
func (l *List) At(ctx context.Context, position int) (*model.ListTrack, error) {
	return l.repo.GetByPosition(ctx, l.id, position)
}

// Contains 当前列表的 track_id 集合
func (l *List) Contains(ctx context.Context) (map[string]bool, error) {
	ids, err := l.repo.TrackIDs(ctx, l.id)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// Append 追加到末尾，position = 当前数量
func (l *List) Append(ctx context.Context, ref model.TrackRef) (*model.ListTrack, error) {
	existing, err := l.repo.GetByTrackID(ctx, l.id, ref.TrackID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, model.DuplicateEntry("track %s already in list", ref.TrackID)
	}

	count, err := l.repo.Count(ctx, l.id)
	if err != nil {
		return nil, err
	}

	track := model.NewListTrack(uuid.NewString(), l.id, ref, count, l.now())
	if err := l.repo.Create(ctx, track); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, model.DuplicateEntry("track %s already in list", ref.TrackID)
		}
		return nil, err
	}
	return track, nil
}

// Remove 按 track_id 删除，后续曲目前移一位
func (l *List) Remove(ctx context.Context, trackID string) (*model.ListTrack, error) {
	track, err := l.repo.GetByTrackID(ctx, l.id, trackID)
	if err != nil {
		return nil, err
	}
	if track == nil {
		return nil, model.NotFound("track %s not in list", trackID)
	}
	return track, l.removeEntry(ctx, track)
}

// RemoveAt 按位置删除
func (l *List) RemoveAt(ctx context.Context, position int) (*model.ListTrack, error) {
	track, err := l.repo.GetByPosition(ctx, l.id, position)
	if err != nil {
		return nil, err
	}
	if track == nil {
		return nil, model.NotFound("no track at position %d", position)
	}
	return track, l.removeEntry(ctx, track)
}

func (l *List) removeEntry(ctx context.Context, track *model.ListTrack) error {
	if err := l.repo.Delete(ctx, track.ID); err != nil {
		return err
	}
	return l.repo.ShiftPositions(ctx, l.id, track.Position+1, -1, -1)
}

// Reorder 把曲目移动到 newPosition，中间的曲目整体平移一位
func (l *List) Reorder(ctx context.Context, trackID string, newPosition int) (*model.ListTrack, error) {
	track, err := l.repo.GetByTrackID(ctx, l.id, trackID)
	if err != nil {
		return nil, err
	}
	if track == nil {
		return nil, model.NotFound("track %s not in list", trackID)
	}

	count, err := l.repo.Count(ctx, l.id)
	if err != nil {
		return nil, err
	}
	if newPosition < 0 || newPosition >= count {
		return nil, model.OutOfRange("position %d out of range [0, %d)", newPosition, count)
	}

	old := track.Position
	switch {
	case newPosition == old:
		return track, nil
	case old < newPosition:
		err = l.repo.ShiftPositions(ctx, l.id, old+1, newPosition, -1)
	default:
		err = l.repo.ShiftPositions(ctx, l.id, newPosition, old-1, 1)
	}
	if err != nil {
		return nil, err
	}

	if err := l.repo.SetPosition(ctx, track.ID, newPosition); err != nil {
		return nil, err
	}
	track.Position = newPosition
	return track, nil
}

// Shuffle 随机重排。pinnedTrackID 非空且存在时固定在位置 0。
// 空列表直接返回，由调用方决定如何报错。
func (l *List) Shuffle(ctx context.Context, pinnedTrackID string, rnd *rand.Rand) ([]model.ListTrack, error) {
	tracks, err := l.repo.List(ctx, l.id)
	if err != nil || len(tracks) == 0 {
		return tracks, err
	}

	ordered := ShuffleOrder(tracks, pinnedTrackID, rnd)
	for i := range ordered {
		if ordered[i].Position == i {
			continue
		}
		if err := l.repo.SetPosition(ctx, ordered[i].ID, i); err != nil {
			return nil, err
		}
		ordered[i].Position = i
	}
	return ordered, nil
}

// ShuffleOrder 返回重排后的新切片，不修改入参
func ShuffleOrder(tracks []model.ListTrack, pinnedTrackID string, rnd *rand.Rand) []model.ListTrack {
	out := make([]model.ListTrack, 0, len(tracks))
	rest := make([]model.ListTrack, 0, len(tracks))
	for _, t := range tracks {
		if pinnedTrackID != "" && t.TrackID == pinnedTrackID && len(out) == 0 {
			out = append(out, t)
			continue
		}
		rest = append(rest, t)
	}

	shuffle := rand.Shuffle
	if rnd != nil {
		shuffle = rnd.Shuffle
	}
	shuffle(len(rest), func(i, j int) {
		rest[i], rest[j] = rest[j], rest[i]
	})
	return append(out, rest...)
}

// Replace 清空后按顺序写入 refs，重复的 track_id 只保留第一次出现
func (l *List) Replace(ctx context.Context, refs []model.TrackRef) ([]model.ListTrack, error) {
	if err := l.repo.DeleteAll(ctx, l.id); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(refs))
	tracks := make([]model.ListTrack, 0, len(refs))
	now := l.now()
	for _, ref := range refs {
		if seen[ref.TrackID] {
			continue
		}
		seen[ref.TrackID] = true

		track := model.NewListTrack(uuid.NewString(), l.id, ref, len(tracks), now)
		if err := l.repo.Create(ctx, track); err != nil {
			return nil, fmt.Errorf("replace list %s: %w", l.id, err)
		}
		tracks = append(tracks, *track)
	}
	return tracks, nil
}

// Clear 删除全部曲目
func (l *List) Clear(ctx context.Context) error {
	return l.repo.DeleteAll(ctx, l.id)
}

// Normalize 按当前顺序把 position 重排为 0..n-1
func (l *List) Normalize(ctx context.Context) ([]model.ListTrack, error) {
	tracks, err := l.repo.List(ctx, l.id)
	if err != nil {
		return nil, err
	}
	for i := range tracks {
		if tracks[i].Position == i {
			continue
		}
		if err := l.repo.SetPosition(ctx, tracks[i].ID, i); err != nil {
			return nil, err
		}
		tracks[i].Position = i
	}
	return tracks, nil
}
