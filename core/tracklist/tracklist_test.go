package tracklist

import (
	"context"
	"math/rand"
	"sort"
	"strconv"
	"testing"

	"playpod/config"
	"playpod/db"
	"playpod/model"
	"playpod/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestList(t *testing.T, ids ...string) *List {
	t.Helper()
	gdb, err := db.Open(&config.Config{DBDriver: "sqlite", SQLitePath: "file::memory:"})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(model.AllModels()...))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	l := New(repository.NewGormTrackListRepository(gdb), "list-1")
	for _, id := range ids {
		_, err := l.Append(context.Background(), ref(id))
		require.NoError(t, err)
	}
	return l
}

func ref(id string) model.TrackRef {
	return model.TrackRef{TrackID: id, Title: "Track " + id}
}

func order(t *testing.T, l *List) []string {
	t.Helper()
	tracks, err := l.Tracks(context.Background())
	require.NoError(t, err)
	ids := make([]string, len(tracks))
	for i, tr := range tracks {
		ids[i] = tr.TrackID
	}
	return ids
}

func assertContiguous(t *testing.T, l *List) {
	t.Helper()
	tracks, err := l.Tracks(context.Background())
	require.NoError(t, err)
	positions := make([]int, len(tracks))
	for i, tr := range tracks {
		positions[i] = tr.Position
	}
	sort.Ints(positions)
	for i, p := range positions {
		require.Equal(t, i, p, "positions %v are not contiguous", positions)
	}
}

func TestAppend(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t, "A", "B")

	track, err := l.Append(ctx, ref("C"))
	require.NoError(t, err)
	assert.Equal(t, 2, track.Position)

	_, err = l.Append(ctx, ref("B"))
	assert.ErrorIs(t, err, model.ErrDuplicateEntry)
	assert.Equal(t, []string{"A", "B", "C"}, order(t, l))
}

func TestRemoveAtPositionScenario(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t, "A", "B", "C")

	removed, err := l.RemoveAt(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "B", removed.TrackID)

	tracks, err := l.Tracks(ctx)
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "A", tracks[0].TrackID)
	assert.Equal(t, 0, tracks[0].Position)
	assert.Equal(t, "C", tracks[1].TrackID)
	assert.Equal(t, 1, tracks[1].Position)

	_, err = l.RemoveAt(ctx, 2)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = l.RemoveAt(ctx, -1)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRemoveByTrackID(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t, "A", "B", "C", "D")

	_, err := l.Remove(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C", "D"}, order(t, l))
	assertContiguous(t, l)

	_, err = l.Remove(ctx, "Z")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestAppendThenRemoveRestoresList(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t, "A", "B", "C")
	before, err := l.Tracks(ctx)
	require.NoError(t, err)

	_, err = l.Append(ctx, ref("D"))
	require.NoError(t, err)
	_, err = l.Remove(ctx, "D")
	require.NoError(t, err)

	after, err := l.Tracks(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestReorder(t *testing.T) {
	ctx := context.Background()

	t.Run("move to front", func(t *testing.T) {
		l := newTestList(t, "A", "B", "C")
		moved, err := l.Reorder(ctx, "C", 0)
		require.NoError(t, err)
		assert.Equal(t, 0, moved.Position)
		assert.Equal(t, []string{"C", "A", "B"}, order(t, l))
		assertContiguous(t, l)
	})

	t.Run("move forward", func(t *testing.T) {
		l := newTestList(t, "A", "B", "C", "D")
		_, err := l.Reorder(ctx, "A", 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"B", "C", "A", "D"}, order(t, l))
		assertContiguous(t, l)
	})

	t.Run("same position is a no-op", func(t *testing.T) {
		l := newTestList(t, "A", "B")
		_, err := l.Reorder(ctx, "B", 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B"}, order(t, l))
	})

	t.Run("out of range", func(t *testing.T) {
		l := newTestList(t, "A", "B")
		_, err := l.Reorder(ctx, "A", 2)
		assert.ErrorIs(t, err, model.ErrOutOfRange)
		_, err = l.Reorder(ctx, "A", -1)
		assert.ErrorIs(t, err, model.ErrOutOfRange)
		assert.Equal(t, []string{"A", "B"}, order(t, l))
	})

	t.Run("unknown track", func(t *testing.T) {
		l := newTestList(t, "A")
		_, err := l.Reorder(ctx, "Z", 0)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("reorder and back restores order", func(t *testing.T) {
		l := newTestList(t, "A", "B", "C", "D", "E")
		original := order(t, l)
		_, err := l.Reorder(ctx, "B", 4)
		require.NoError(t, err)
		_, err = l.Reorder(ctx, "B", 1)
		require.NoError(t, err)
		assert.Equal(t, original, order(t, l))
	})
}

func TestShufflePinned(t *testing.T) {
	ctx := context.Background()
	for size := 1; size <= 6; size++ {
		ids := make([]string, size)
		for i := range ids {
			ids[i] = strconv.Itoa(i + 1)
		}
		l := newTestList(t, ids...)
		pinned := ids[size-1]

		for seed := int64(0); seed < 5; seed++ {
			shuffled, err := l.Shuffle(ctx, pinned, rand.New(rand.NewSource(seed)))
			require.NoError(t, err)
			assert.Equal(t, pinned, shuffled[0].TrackID)

			first, err := l.At(ctx, 0)
			require.NoError(t, err)
			assert.Equal(t, pinned, first.TrackID)
			assertContiguous(t, l)
		}
	}
}

func TestShuffleWithoutPinKeepsMembers(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t, "A", "B", "C", "D")

	_, err := l.Shuffle(ctx, "", rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	got := order(t, l)
	sort.Strings(got)
	assert.Equal(t, []string{"A", "B", "C", "D"}, got)
	assertContiguous(t, l)

	empty := newTestList(t)
	tracks, err := empty.Shuffle(ctx, "X", nil)
	require.NoError(t, err)
	assert.Empty(t, tracks)
}

func TestRandomOperationsKeepPositionsContiguous(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t)
	rnd := rand.New(rand.NewSource(42))
	next := 0

	for step := 0; step < 200; step++ {
		count, err := l.Count(ctx)
		require.NoError(t, err)

		switch op := rnd.Intn(5); {
		case op <= 1 || count == 0:
			next++
			_, err = l.Append(ctx, ref(strconv.Itoa(next)))
		case op == 2:
			_, err = l.RemoveAt(ctx, rnd.Intn(count))
		case op == 3:
			target, _ := l.At(ctx, rnd.Intn(count))
			_, err = l.Reorder(ctx, target.TrackID, rnd.Intn(count))
		default:
			_, err = l.Shuffle(ctx, "", rnd)
		}
		require.NoError(t, err)
		assertContiguous(t, l)
	}
}

func TestReplaceAndNormalize(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t, "A", "B")

	tracks, err := l.Replace(ctx, []model.TrackRef{ref("X"), ref("Y"), ref("X"), ref("Z")})
	require.NoError(t, err)
	assert.Len(t, tracks, 3)
	assert.Equal(t, []string{"X", "Y", "Z"}, order(t, l))

	// 人为制造空洞
	require.NoError(t, l.repo.ShiftPositions(ctx, l.ID(), 1, -1, 3))
	tracks, err = l.Normalize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, tracks[2].Position)
	assertContiguous(t, l)

	require.NoError(t, l.Clear(ctx))
	n, err := l.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBulkAppendScenario(t *testing.T) {
	ctx := context.Background()
	l := newTestList(t, "300")

	existing, err := l.Contains(ctx)
	require.NoError(t, err)

	plan := PlanBulk([]string{"100", "300", "not-a-number", "200", "100", "404"}, existing)
	assert.Equal(t, []string{"100", "200", "404"}, plan.Pending)

	resolved := map[string]model.TrackRef{"100": ref("100"), "200": ref("200")}
	result, err := l.BulkAppend(ctx, plan, resolved)
	require.NoError(t, err)

	assert.Equal(t, 2, result.AddedCount)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, []string{"300", "100", "200"}, order(t, l))

	reasons := map[string]SkipReason{}
	for _, s := range result.Skipped {
		reasons[s.ID] = s.Reason
	}
	assert.Equal(t, SkipDuplicate, reasons["300"])
	assert.Equal(t, SkipMalformed, reasons["not-a-number"])
	assert.Equal(t, SkipUnresolved, reasons["404"])
	assert.Len(t, result.Skipped, 4)
}

func TestShuffleOrderDoesNotMutateInput(t *testing.T) {
	in := []model.ListTrack{{TrackID: "A"}, {TrackID: "B"}, {TrackID: "C"}}
	out := ShuffleOrder(in, "C", rand.New(rand.NewSource(1)))
	assert.Equal(t, "C", out[0].TrackID)
	assert.Equal(t, "A", in[0].TrackID)
	assert.Len(t, out, 3)
}
