package deezer

import (
	"context"
	"fmt"
	"net/url"

	"playpod/model"
)

type albumList struct {
	Data []model.DeezerAlbum `json:"data"`
}

func (c *Client) getAlbums(ctx context.Context, path string, query url.Values) ([]model.DeezerAlbum, error) {
	var list albumList
	if err := c.get(ctx, path, query, &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

// GetArtist 艺人详情
func (c *Client) GetArtist(ctx context.Context, id string) (*model.DeezerArtist, error) {
	var artist model.DeezerArtist
	if err := c.get(ctx, "artist/"+url.PathEscape(id), nil, &artist); err != nil {
		return nil, err
	}
	if artist.ID == 0 {
		return nil, fmt.Errorf("%w: artist %s", ErrTrackNotFound, id)
	}
	return &artist, nil
}

// ArtistAlbums 艺人专辑
func (c *Client) ArtistAlbums(ctx context.Context, artistID string, limit int) ([]model.DeezerAlbum, error) {
	return c.getAlbums(ctx, "artist/"+url.PathEscape(artistID)+"/albums", limitQuery(limit))
}

// GetAlbum 专辑详情
func (c *Client) GetAlbum(ctx context.Context, id string) (*model.DeezerAlbum, error) {
	var album model.DeezerAlbum
	if err := c.get(ctx, "album/"+url.PathEscape(id), nil, &album); err != nil {
		return nil, err
	}
	if album.ID == 0 {
		return nil, fmt.Errorf("%w: album %s", ErrTrackNotFound, id)
	}
	return &album, nil
}

// AlbumTracks 专辑曲目，Deezer 返回的曲目不带 album 字段
func (c *Client) AlbumTracks(ctx context.Context, albumID string, limit int) ([]model.DeezerTrack, error) {
	return c.getTracks(ctx, "album/"+url.PathEscape(albumID)+"/tracks", limitQuery(limit))
}

// ChartAlbums 专辑总榜
func (c *Client) ChartAlbums(ctx context.Context, limit int) ([]model.DeezerAlbum, error) {
	return c.getAlbums(ctx, "chart/0/albums", limitQuery(limit))
}

// NewReleases 编辑推荐的新碟
func (c *Client) NewReleases(ctx context.Context, limit int) ([]model.DeezerAlbum, error) {
	return c.getAlbums(ctx, "editorial/0/releases", limitQuery(limit))
}
