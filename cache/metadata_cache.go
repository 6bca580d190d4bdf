package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"playpod/core/deezer"
	"playpod/logger"
	"playpod/model"

	"github.com/go-redis/redis/v8"
)

// 元数据缓存键
const (
	trackKey      = "deezer:track:%s"
	relatedKey    = "deezer:related:%s:%d"
	genreKey      = "deezer:genre:%s"
	genreTrackKey = "deezer:genre_tracks:%s:%d"
	chartKey      = "deezer:chart:%d"
	searchKey     = "deezer:search:%s:%d"
	artistTopKey  = "deezer:artist_top:%s:%d"

	artistKey       = "deezer:artist:%s"
	artistAlbumsKey = "deezer:artist_albums:%s:%d"
	albumKey        = "deezer:album:%s"
	albumTracksKey  = "deezer:album_tracks:%s:%d"
	chartAlbumsKey  = "deezer:chart_albums:%d"
	releasesKey     = "deezer:releases:%d"
)

// MetadataCache 带 Redis 读穿缓存的 Provider，只缓存成功结果。
// Redis 不可用时直接访问下游。
type MetadataCache struct {
	client   *redis.Client
	next     deezer.Provider
	ttl      time.Duration
	genreTTL time.Duration
}

// NewMetadataCache 包装一个 Provider
func NewMetadataCache(client *redis.Client, next deezer.Provider, ttl, genreTTL time.Duration) *MetadataCache {
	return &MetadataCache{client: client, next: next, ttl: ttl, genreTTL: genreTTL}
}

var _ deezer.Provider = (*MetadataCache)(nil)

func remember[T any](ctx context.Context, c *MetadataCache, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var cached T
	if c.client != nil {
		raw, err := c.client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
				return cached, nil
			}
			logger.Warn("[MetadataCache] 缓存数据损坏", logger.String("key", key))
		case err != redis.Nil:
			logger.Warn("[MetadataCache] 读取缓存失败", logger.String("key", key), logger.ErrorField(err))
		}
	}

	value, err := load()
	if err != nil {
		return value, err
	}

	if c.client != nil {
		if raw, err := json.Marshal(value); err == nil {
			if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
				logger.Warn("[MetadataCache] 写入缓存失败", logger.String("key", key), logger.ErrorField(err))
			}
		}
	}
	return value, nil
}

func (c *MetadataCache) GetTrack(ctx context.Context, id string) (*model.DeezerTrack, error) {
	return remember(ctx, c, fmt.Sprintf(trackKey, id), c.ttl, func() (*model.DeezerTrack, error) {
		return c.next.GetTrack(ctx, id)
	})
}

func (c *MetadataCache) RelatedTracks(ctx context.Context, id string, limit int) ([]model.DeezerTrack, error) {
	return remember(ctx, c, fmt.Sprintf(relatedKey, id, limit), c.ttl, func() ([]model.DeezerTrack, error) {
		return c.next.RelatedTracks(ctx, id, limit)
	})
}

func (c *MetadataCache) GenreTracks(ctx context.Context, genreID string, limit int) ([]model.DeezerTrack, error) {
	return remember(ctx, c, fmt.Sprintf(genreTrackKey, genreID, limit), c.ttl, func() ([]model.DeezerTrack, error) {
		return c.next.GenreTracks(ctx, genreID, limit)
	})
}

func (c *MetadataCache) GetGenre(ctx context.Context, id string) (*model.DeezerGenre, error) {
	return remember(ctx, c, fmt.Sprintf(genreKey, id), c.genreTTL, func() (*model.DeezerGenre, error) {
		return c.next.GetGenre(ctx, id)
	})
}

func (c *MetadataCache) ChartTracks(ctx context.Context, limit int) ([]model.DeezerTrack, error) {
	return remember(ctx, c, fmt.Sprintf(chartKey, limit), c.ttl, func() ([]model.DeezerTrack, error) {
		return c.next.ChartTracks(ctx, limit)
	})
}

func (c *MetadataCache) SearchTracks(ctx context.Context, query string, limit int) ([]model.DeezerTrack, error) {
	return remember(ctx, c, fmt.Sprintf(searchKey, query, limit), c.ttl, func() ([]model.DeezerTrack, error) {
		return c.next.SearchTracks(ctx, query, limit)
	})
}

func (c *MetadataCache) ArtistTopTracks(ctx context.Context, artistID string, limit int) ([]model.DeezerTrack, error) {
	return remember(ctx, c, fmt.Sprintf(artistTopKey, artistID, limit), c.ttl, func() ([]model.DeezerTrack, error) {
		return c.next.ArtistTopTracks(ctx, artistID, limit)
	})
}

func (c *MetadataCache) GetArtist(ctx context.Context, id string) (*model.DeezerArtist, error) {
	return remember(ctx, c, fmt.Sprintf(artistKey, id), c.ttl, func() (*model.DeezerArtist, error) {
		return c.next.GetArtist(ctx, id)
	})
}

func (c *MetadataCache) ArtistAlbums(ctx context.Context, artistID string, limit int) ([]model.DeezerAlbum, error) {
	return remember(ctx, c, fmt.Sprintf(artistAlbumsKey, artistID, limit), c.ttl, func() ([]model.DeezerAlbum, error) {
		return c.next.ArtistAlbums(ctx, artistID, limit)
	})
}

func (c *MetadataCache) GetAlbum(ctx context.Context, id string) (*model.DeezerAlbum, error) {
	return remember(ctx, c, fmt.Sprintf(albumKey, id), c.ttl, func() (*model.DeezerAlbum, error) {
		return c.next.GetAlbum(ctx, id)
	})
}

func (c *MetadataCache) AlbumTracks(ctx context.Context, albumID string, limit int) ([]model.DeezerTrack, error) {
	return remember(ctx, c, fmt.Sprintf(albumTracksKey, albumID, limit), c.ttl, func() ([]model.DeezerTrack, error) {
		return c.next.AlbumTracks(ctx, albumID, limit)
	})
}

func (c *MetadataCache) ChartAlbums(ctx context.Context, limit int) ([]model.DeezerAlbum, error) {
	return remember(ctx, c, fmt.Sprintf(chartAlbumsKey, limit), c.ttl, func() ([]model.DeezerAlbum, error) {
		return c.next.ChartAlbums(ctx, limit)
	})
}

func (c *MetadataCache) NewReleases(ctx context.Context, limit int) ([]model.DeezerAlbum, error) {
	return remember(ctx, c, fmt.Sprintf(releasesKey, limit), c.ttl, func() ([]model.DeezerAlbum, error) {
		return c.next.NewReleases(ctx, limit)
	})
}
