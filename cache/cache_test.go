package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"playpod/core/deezer"
	"playpod/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProvider 模拟元数据服务
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) GetTrack(ctx context.Context, id string) (*model.DeezerTrack, error) {
	args := m.Called(ctx, id)
	track, _ := args.Get(0).(*model.DeezerTrack)
	return track, args.Error(1)
}

func (m *MockProvider) RelatedTracks(ctx context.Context, id string, limit int) ([]model.DeezerTrack, error) {
	args := m.Called(ctx, id, limit)
	tracks, _ := args.Get(0).([]model.DeezerTrack)
	return tracks, args.Error(1)
}

func (m *MockProvider) GenreTracks(ctx context.Context, genreID string, limit int) ([]model.DeezerTrack, error) {
	args := m.Called(ctx, genreID, limit)
	tracks, _ := args.Get(0).([]model.DeezerTrack)
	return tracks, args.Error(1)
}

func (m *MockProvider) GetGenre(ctx context.Context, id string) (*model.DeezerGenre, error) {
	args := m.Called(ctx, id)
	genre, _ := args.Get(0).(*model.DeezerGenre)
	return genre, args.Error(1)
}

func (m *MockProvider) ChartTracks(ctx context.Context, limit int) ([]model.DeezerTrack, error) {
	args := m.Called(ctx, limit)
	tracks, _ := args.Get(0).([]model.DeezerTrack)
	return tracks, args.Error(1)
}

func (m *MockProvider) GetArtist(ctx context.Context, id string) (*model.DeezerArtist, error) {
	args := m.Called(ctx, id)
	artist, _ := args.Get(0).(*model.DeezerArtist)
	return artist, args.Error(1)
}

func (m *MockProvider) ArtistAlbums(ctx context.Context, artistID string, limit int) ([]model.DeezerAlbum, error) {
	args := m.Called(ctx, artistID, limit)
	albums, _ := args.Get(0).([]model.DeezerAlbum)
	return albums, args.Error(1)
}

func (m *MockProvider) GetAlbum(ctx context.Context, id string) (*model.DeezerAlbum, error) {
	args := m.Called(ctx, id)
	album, _ := args.Get(0).(*model.DeezerAlbum)
	return album, args.Error(1)
}

func (m *MockProvider) AlbumTracks(ctx context.Context, albumID string, limit int) ([]model.DeezerTrack, error) {
	args := m.Called(ctx, albumID, limit)
	tracks, _ := args.Get(0).([]model.DeezerTrack)
	return tracks, args.Error(1)
}

func (m *MockProvider) ChartAlbums(ctx context.Context, limit int) ([]model.DeezerAlbum, error) {
	args := m.Called(ctx, limit)
	albums, _ := args.Get(0).([]model.DeezerAlbum)
	return albums, args.Error(1)
}

func (m *MockProvider) NewReleases(ctx context.Context, limit int) ([]model.DeezerAlbum, error) {
	args := m.Called(ctx, limit)
	albums, _ := args.Get(0).([]model.DeezerAlbum)
	return albums, args.Error(1)
}

func (m *MockProvider) SearchTracks(ctx context.Context, query string, limit int) ([]model.DeezerTrack, error) {
	args := m.Called(ctx, query, limit)
	tracks, _ := args.Get(0).([]model.DeezerTrack)
	return tracks, args.Error(1)
}

func (m *MockProvider) ArtistTopTracks(ctx context.Context, artistID string, limit int) ([]model.DeezerTrack, error) {
	args := m.Called(ctx, artistID, limit)
	tracks, _ := args.Get(0).([]model.DeezerTrack)
	return tracks, args.Error(1)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestMetadataCacheReadThrough(t *testing.T) {
	mr, rdb := newTestRedis(t)
	next := new(MockProvider)
	c := NewMetadataCache(rdb, next, time.Hour, 24*time.Hour)
	ctx := context.Background()

	next.On("GetTrack", mock.Anything, "42").
		Return(&model.DeezerTrack{ID: 42, Title: "Answer"}, nil).Once()

	first, err := c.GetTrack(ctx, "42")
	require.NoError(t, err)
	second, err := c.GetTrack(ctx, "42")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, mr.Exists("deezer:track:42"))
	assert.Equal(t, time.Hour, mr.TTL("deezer:track:42"))
	next.AssertNumberOfCalls(t, "GetTrack", 1)
}

func TestMetadataCacheDoesNotCacheFailures(t *testing.T) {
	mr, rdb := newTestRedis(t)
	next := new(MockProvider)
	c := NewMetadataCache(rdb, next, time.Hour, 24*time.Hour)
	ctx := context.Background()

	next.On("GetTrack", mock.Anything, "1").Return(nil, deezer.ErrTrackNotFound).Twice()

	_, err := c.GetTrack(ctx, "1")
	assert.ErrorIs(t, err, deezer.ErrTrackNotFound)
	_, err = c.GetTrack(ctx, "1")
	assert.ErrorIs(t, err, deezer.ErrTrackNotFound)

	assert.False(t, mr.Exists("deezer:track:1"))
	next.AssertExpectations(t)
}

func TestMetadataCacheKeysAndGenreTTL(t *testing.T) {
	mr, rdb := newTestRedis(t)
	next := new(MockProvider)
	c := NewMetadataCache(rdb, next, time.Hour, 24*time.Hour)
	ctx := context.Background()
	tracks := []model.DeezerTrack{{ID: 1}}

	next.On("RelatedTracks", mock.Anything, "7", 3).Return(tracks, nil).Once()
	next.On("GenreTracks", mock.Anything, "132", 30).Return(tracks, nil).Once()
	next.On("GetGenre", mock.Anything, "132").Return(&model.DeezerGenre{ID: 132, Name: "Pop"}, nil).Once()
	next.On("ChartTracks", mock.Anything, 10).Return(tracks, nil).Once()
	next.On("SearchTracks", mock.Anything, "daft", 5).Return(tracks, nil).Once()
	next.On("ArtistTopTracks", mock.Anything, "27", 3).Return(tracks, nil).Once()

	for i := 0; i < 2; i++ {
		_, err := c.RelatedTracks(ctx, "7", 3)
		require.NoError(t, err)
		_, err = c.GenreTracks(ctx, "132", 30)
		require.NoError(t, err)
		_, err = c.GetGenre(ctx, "132")
		require.NoError(t, err)
		_, err = c.ChartTracks(ctx, 10)
		require.NoError(t, err)
		_, err = c.SearchTracks(ctx, "daft", 5)
		require.NoError(t, err)
		_, err = c.ArtistTopTracks(ctx, "27", 3)
		require.NoError(t, err)
	}

	next.AssertExpectations(t)
	for _, key := range []string{
		"deezer:related:7:3", "deezer:genre_tracks:132:30", "deezer:chart:10",
		"deezer:search:daft:5", "deezer:artist_top:27:3",
	} {
		assert.True(t, mr.Exists(key), key)
	}
	assert.Equal(t, 24*time.Hour, mr.TTL("deezer:genre:132"))
}

func TestMetadataCacheCatalogueKeys(t *testing.T) {
	mr, rdb := newTestRedis(t)
	next := new(MockProvider)
	c := NewMetadataCache(rdb, next, time.Hour, 24*time.Hour)
	ctx := context.Background()
	albums := []model.DeezerAlbum{{ID: 302127, Title: "Discovery"}}

	next.On("GetArtist", mock.Anything, "27").Return(&model.DeezerArtist{ID: 27, Name: "Daft Punk"}, nil).Once()
	next.On("ArtistAlbums", mock.Anything, "27", 20).Return(albums, nil).Once()
	next.On("GetAlbum", mock.Anything, "302127").Return(&albums[0], nil).Once()
	next.On("AlbumTracks", mock.Anything, "302127", 50).Return([]model.DeezerTrack{{ID: 3135556}}, nil).Once()
	next.On("ChartAlbums", mock.Anything, 25).Return(albums, nil).Once()
	next.On("NewReleases", mock.Anything, 50).Return(albums, nil).Once()

	for i := 0; i < 2; i++ {
		artist, err := c.GetArtist(ctx, "27")
		require.NoError(t, err)
		assert.Equal(t, "Daft Punk", artist.Name)
		_, err = c.ArtistAlbums(ctx, "27", 20)
		require.NoError(t, err)
		album, err := c.GetAlbum(ctx, "302127")
		require.NoError(t, err)
		assert.Equal(t, "Discovery", album.Title)
		_, err = c.AlbumTracks(ctx, "302127", 50)
		require.NoError(t, err)
		top, err := c.ChartAlbums(ctx, 25)
		require.NoError(t, err)
		assert.Len(t, top, 1)
		_, err = c.NewReleases(ctx, 50)
		require.NoError(t, err)
	}

	next.AssertExpectations(t)
	for _, key := range []string{
		"deezer:artist:27", "deezer:artist_albums:27:20", "deezer:album:302127",
		"deezer:album_tracks:302127:50", "deezer:chart_albums:25", "deezer:releases:50",
	} {
		assert.True(t, mr.Exists(key), key)
	}
}

func TestMetadataCacheFallsBackWhenRedisDown(t *testing.T) {
	mr, rdb := newTestRedis(t)
	mr.Close()

	next := new(MockProvider)
	next.On("ChartTracks", mock.Anything, 5).Return([]model.DeezerTrack{{ID: 9}}, nil)
	c := NewMetadataCache(rdb, next, time.Hour, time.Hour)

	tracks, err := c.ChartTracks(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, tracks, 1)
}

func TestRecommendationCache(t *testing.T) {
	mr, rdb := newTestRedis(t)
	c := NewRecommendationCache(rdb, time.Hour)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "u1", []model.DeezerTrack{{ID: 1}, {ID: 2}}))
	tracks, ok, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, tracks, 2)
	assert.Equal(t, time.Hour, mr.TTL(GetRecommendationKey("u1")))

	mr.FastForward(2 * time.Hour)
	_, ok, err = c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "u1", nil))
	require.NoError(t, c.Invalidate(ctx, "u1"))
	assert.False(t, mr.Exists(GetRecommendationKey("u1")))
}

func TestRedisLockerMutualExclusion(t *testing.T) {
	_, rdb := newTestRedis(t)
	locker := NewRedisLocker(rdb, 2*time.Second)
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(ctx, "queue:u1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside)
}

func TestRedisLockerRenewsLeaseWhileHeld(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ttl := 300 * time.Millisecond
	locker := NewRedisLocker(rdb, ttl)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "queue:u1")
	require.NoError(t, err)

	// 持有时间累计超过两倍 ttl，续期保证锁一直存在
	for i := 0; i < 4; i++ {
		time.Sleep(ttl / 2)
		mr.FastForward(ttl / 2)
		require.True(t, mr.Exists("lock:queue:u1"), "lease expired after %d rounds", i+1)
	}

	_, err = locker.Acquire(ctx, "queue:u1")
	assert.True(t, errors.Is(err, ErrLockTimeout))

	release()
	assert.False(t, mr.Exists("lock:queue:u1"))

	// 释放后不再续期
	time.Sleep(ttl / 2)
	assert.False(t, mr.Exists("lock:queue:u1"))

	again, err := locker.Acquire(ctx, "queue:u1")
	require.NoError(t, err)
	again()
}

func TestRedisLockerTimeoutAndOwnership(t *testing.T) {
	mr, rdb := newTestRedis(t)
	locker := NewRedisLocker(rdb, 100*time.Millisecond)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "playlist:p1")
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "playlist:p1")
	assert.True(t, errors.Is(err, ErrLockTimeout))

	// 锁被别人接管后，旧持有者的释放不能删掉它
	mr.Set("lock:playlist:p1", "someone-else")
	release()
	got, err := mr.Get("lock:playlist:p1")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestTestRedis(t *testing.T) {
	_, rdb := newTestRedis(t)
	assert.NoError(t, TestRedis(context.Background(), rdb))
	assert.Error(t, TestRedis(context.Background(), nil))
}
