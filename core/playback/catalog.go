package playback

import (
	"context"
	"strings"

	"playpod/core/deezer"
	"playpod/logger"
	"playpod/model"
)

func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		return s.opts.ChartsDefault
	}
	if limit > s.opts.ChartsMax {
		return s.opts.ChartsMax
	}
	return limit
}

// ArtistDetail 艺人详情，专辑与热门曲目
type ArtistDetail struct {
	Artist    *model.DeezerArtist `json:"artist"`
	Albums    []model.DeezerAlbum `json:"albums"`
	TopTracks []model.DeezerTrack `json:"top_tracks"`
}

// AlbumDetail 专辑详情
type AlbumDetail struct {
	Album  *model.DeezerAlbum  `json:"album"`
	Tracks []model.DeezerTrack `json:"tracks"`
}

const artistDetailLimit = 20

func nonNilAlbums(albums []model.DeezerAlbum) []model.DeezerAlbum {
	if albums == nil {
		return []model.DeezerAlbum{}
	}
	return albums
}

func nonNil(tracks []model.DeezerTrack) []model.DeezerTrack {
	if tracks == nil {
		return []model.DeezerTrack{}
	}
	return tracks
}

// Track 查询单首曲目元数据
func (s *Service) Track(ctx context.Context, trackID string) (*model.DeezerTrack, error) {
	id, err := normalizeID(trackID)
	if err != nil {
		return nil, err
	}
	track, err := s.provider.GetTrack(ctx, id)
	if err != nil {
		return nil, deezer.AsModelError(err, "Track "+id)
	}
	return track, nil
}

// Related 相关曲目
func (s *Service) Related(ctx context.Context, trackID string, limit int) ([]model.DeezerTrack, error) {
	id, err := normalizeID(trackID)
	if err != nil {
		return nil, err
	}
	tracks, err := s.provider.RelatedTracks(ctx, id, s.clampLimit(limit))
	if err != nil {
		return nil, deezer.AsModelError(err, "Track "+id)
	}
	return nonNil(tracks), nil
}

// Search 搜索曲目
func (s *Service) Search(ctx context.Context, query string, limit int) ([]model.DeezerTrack, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, model.Validation("query parameter q is required")
	}
	tracks, err := s.provider.SearchTracks(ctx, query, s.clampLimit(limit))
	if err != nil {
		return nil, deezer.AsModelError(err, "Search results")
	}
	return nonNil(tracks), nil
}

// Charts 全站排行榜
func (s *Service) Charts(ctx context.Context, limit int) ([]model.DeezerTrack, error) {
	tracks, err := s.provider.ChartTracks(ctx, s.clampLimit(limit))
	if err != nil {
		return nil, deezer.AsModelError(err, "Charts")
	}
	return nonNil(tracks), nil
}

// Artist 艺人详情。专辑或热门曲目拉取失败时降级为空列表
func (s *Service) Artist(ctx context.Context, artistID string) (*ArtistDetail, error) {
	id, err := normalizeCatalogID(artistID, "invalid artist id")
	if err != nil {
		return nil, err
	}
	artist, err := s.provider.GetArtist(ctx, id)
	if err != nil {
		return nil, deezer.AsModelError(err, "Artist "+id)
	}

	albums, err := s.provider.ArtistAlbums(ctx, id, artistDetailLimit)
	if err != nil {
		logger.Warn("[Catalog] 获取艺人专辑失败", logger.String("artist", id), logger.ErrorField(err))
		albums = nil
	}
	top, err := s.provider.ArtistTopTracks(ctx, id, artistDetailLimit)
	if err != nil {
		logger.Warn("[Catalog] 获取艺人热门曲目失败", logger.String("artist", id), logger.ErrorField(err))
		top = nil
	}
	return &ArtistDetail{Artist: artist, Albums: nonNilAlbums(albums), TopTracks: nonNil(top)}, nil
}

// Album 专辑详情，曲目缺少专辑信息时用专辑本身补齐
func (s *Service) Album(ctx context.Context, albumID string) (*AlbumDetail, error) {
	id, err := normalizeCatalogID(albumID, "invalid album id")
	if err != nil {
		return nil, err
	}
	album, err := s.provider.GetAlbum(ctx, id)
	if err != nil {
		return nil, deezer.AsModelError(err, "Album "+id)
	}
	tracks, err := s.provider.AlbumTracks(ctx, id, s.opts.ChartsMax)
	if err != nil {
		return nil, deezer.AsModelError(err, "Album "+id)
	}
	for i := range tracks {
		if tracks[i].Album.ID == 0 {
			tracks[i].Album = model.DeezerAlbum{
				ID:          album.ID,
				Title:       album.Title,
				Cover:       album.Cover,
				CoverMedium: album.CoverMedium,
				GenreID:     album.GenreID,
			}
		}
	}
	return &AlbumDetail{Album: album, Tracks: nonNil(tracks)}, nil
}

// TopAlbums 专辑排行榜
func (s *Service) TopAlbums(ctx context.Context, limit int) ([]model.DeezerAlbum, error) {
	albums, err := s.provider.ChartAlbums(ctx, s.clampLimit(limit))
	if err != nil {
		return nil, deezer.AsModelError(err, "Album charts")
	}
	return nonNilAlbums(albums), nil
}

// NewReleases 新发行专辑
func (s *Service) NewReleases(ctx context.Context, limit int) ([]model.DeezerAlbum, error) {
	albums, err := s.provider.NewReleases(ctx, s.clampLimit(limit))
	if err != nil {
		return nil, deezer.AsModelError(err, "New releases")
	}
	return nonNilAlbums(albums), nil
}

// 艺人和专辑 ID 与曲目 ID 同为正整数
func normalizeCatalogID(raw, msg string) (string, error) {
	id, ok := model.NormalizeTrackID(raw)
	if !ok {
		return "", model.Validation("%s %q", msg, raw)
	}
	return id, nil
}
