package model

import "strconv"

// DeezerArtist Deezer 艺人
type DeezerArtist struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Picture       string `json:"picture,omitempty"`
	PictureMedium string `json:"picture_medium,omitempty"`
	NbAlbum       int    `json:"nb_album,omitempty"`
	NbFan         int    `json:"nb_fan,omitempty"`
}

// DeezerAlbum Deezer 专辑
type DeezerAlbum struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Cover       string `json:"cover"`
	CoverMedium string `json:"cover_medium"`
	GenreID     int64  `json:"genre_id,omitempty"`
	ReleaseDate string `json:"release_date,omitempty"`
	RecordType  string `json:"record_type,omitempty"`
	NbTracks    int    `json:"nb_tracks,omitempty"`
	// 只在专辑详情、专辑榜和新碟列表中出现
	Artist *DeezerArtist `json:"artist,omitempty"`
}

// DeezerTrack Deezer 曲目元数据
type DeezerTrack struct {
	ID       int64        `json:"id"`
	Title    string       `json:"title"`
	Duration int          `json:"duration"`
	Preview  string       `json:"preview"`
	Rank     int64        `json:"rank,omitempty"`
	Artist   DeezerArtist `json:"artist"`
	Album    DeezerAlbum  `json:"album"`
}

// DeezerGenre Deezer 流派
type DeezerGenre struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

// Ref 转换为元数据快照
func (t *DeezerTrack) Ref() TrackRef {
	cover := t.Album.CoverMedium
	if cover == "" {
		cover = t.Album.Cover
	}
	ref := TrackRef{
		TrackID:    strconv.FormatInt(t.ID, 10),
		Title:      t.Title,
		ArtistName: t.Artist.Name,
		AlbumTitle: t.Album.Title,
		AlbumCover: cover,
		Duration:   t.Duration,
	}
	if t.Artist.ID != 0 {
		ref.ArtistID = strconv.FormatInt(t.Artist.ID, 10)
	}
	if t.Album.GenreID > 0 {
		ref.GenreID = strconv.FormatInt(t.Album.GenreID, 10)
	}
	if ref.Duration < 0 {
		ref.Duration = 0
	}
	return ref
}
