package deezer

import (
	"context"
	"errors"

	"playpod/model"
)

var (
	// ErrTrackNotFound Deezer 明确返回了 error 对象
	ErrTrackNotFound = errors.New("deezer: not found")
	// ErrUnavailable 网络失败、非 200 响应或无法解析的响应
	ErrUnavailable = errors.New("deezer: upstream unavailable")
)

// Provider 曲目元数据服务
type Provider interface {
	GetTrack(ctx context.Context, id string) (*model.DeezerTrack, error)
	RelatedTracks(ctx context.Context, id string, limit int) ([]model.DeezerTrack, error)
	GenreTracks(ctx context.Context, genreID string, limit int) ([]model.DeezerTrack, error)
	GetGenre(ctx context.Context, id string) (*model.DeezerGenre, error)
	ChartTracks(ctx context.Context, limit int) ([]model.DeezerTrack, error)
	SearchTracks(ctx context.Context, query string, limit int) ([]model.DeezerTrack, error)
	ArtistTopTracks(ctx context.Context, artistID string, limit int) ([]model.DeezerTrack, error)

	GetArtist(ctx context.Context, id string) (*model.DeezerArtist, error)
	ArtistAlbums(ctx context.Context, artistID string, limit int) ([]model.DeezerAlbum, error)
	GetAlbum(ctx context.Context, id string) (*model.DeezerAlbum, error)
	AlbumTracks(ctx context.Context, albumID string, limit int) ([]model.DeezerTrack, error)
	ChartAlbums(ctx context.Context, limit int) ([]model.DeezerAlbum, error)
	NewReleases(ctx context.Context, limit int) ([]model.DeezerAlbum, error)
}

// AsModelError 把 Provider 错误转换为业务错误
func AsModelError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrTrackNotFound):
		return model.NotFound("%s not found", what)
	default:
		return model.UpstreamUnavailable("metadata provider unavailable: %v", err)
	}
}
