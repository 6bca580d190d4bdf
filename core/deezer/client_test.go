package deezer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"playpod/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RoundTripFunc 用函数模拟 http.RoundTripper
type RoundTripFunc func(req *http.Request) (*http.Response, error)

func (f RoundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient()
	c.SetBaseURL(srv.URL + "/")
	return c
}

func TestGetTrack(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/track/3135556":
			w.Write([]byte(`{"id":3135556,"title":"Harder","duration":224,"artist":{"id":27,"name":"Daft Punk"},"album":{"title":"Discovery","cover_medium":"m.jpg"}}`))
		default:
			w.Write([]byte(`{"error":{"type":"DataException","message":"no data","code":800}}`))
		}
	})

	track, err := c.GetTrack(context.Background(), "3135556")
	require.NoError(t, err)
	assert.Equal(t, int64(3135556), track.ID)
	assert.Equal(t, "Daft Punk", track.Artist.Name)
	assert.Equal(t, "m.jpg", track.Ref().AlbumCover)

	_, err = c.GetTrack(context.Background(), "1")
	assert.ErrorIs(t, err, ErrTrackNotFound)
	assert.ErrorIs(t, AsModelError(err, "track"), model.ErrNotFound)
}

func TestListEndpoints(t *testing.T) {
	var seen []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.URL.RequestURI())
		w.Write([]byte(`{"data":[{"id":1,"title":"a"},{"id":2,"title":"b"}]}`))
	})
	ctx := context.Background()

	related, err := c.RelatedTracks(ctx, "10", 3)
	require.NoError(t, err)
	assert.Len(t, related, 2)

	_, err = c.GenreTracks(ctx, "132", 30)
	require.NoError(t, err)
	_, err = c.ChartTracks(ctx, 50)
	require.NoError(t, err)
	_, err = c.SearchTracks(ctx, `genre:"Pop"`, 30)
	require.NoError(t, err)
	_, err = c.ArtistTopTracks(ctx, "27", 3)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/track/10/related?limit=3",
		"/chart/132/tracks?limit=30",
		"/chart/0/tracks?limit=50",
		"/search?limit=30&q=genre%3A%22Pop%22",
		"/artist/27/top?limit=3",
	}, seen)
}

func TestGetGenre(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/genre/132" {
			w.Write([]byte(`{"id":132,"name":"Pop"}`))
			return
		}
		w.Write([]byte(`{"error":{"type":"DataException","message":"no data","code":800}}`))
	})

	genre, err := c.GetGenre(context.Background(), "132")
	require.NoError(t, err)
	assert.Equal(t, "Pop", genre.Name)

	_, err = c.GetGenre(context.Background(), "999")
	assert.ErrorIs(t, err, ErrTrackNotFound)
}

func TestArtistAndAlbumEndpoints(t *testing.T) {
	var seen []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.URL.RequestURI())
		switch r.URL.Path {
		case "/artist/27":
			w.Write([]byte(`{"id":27,"name":"Daft Punk","nb_album":36,"nb_fan":4000000}`))
		case "/album/302127":
			w.Write([]byte(`{"id":302127,"title":"Discovery","release_date":"2001-03-07","nb_tracks":14,"artist":{"id":27,"name":"Daft Punk"}}`))
		case "/album/302127/tracks":
			w.Write([]byte(`{"data":[{"id":3135553,"title":"One More Time"},{"id":3135554,"title":"Aerodynamic"}]}`))
		case "/artist/27/albums", "/chart/0/albums", "/editorial/0/releases":
			w.Write([]byte(`{"data":[{"id":302127,"title":"Discovery","artist":{"id":27,"name":"Daft Punk"}}]}`))
		default:
			w.Write([]byte(`{"error":{"type":"DataException","message":"no data","code":800}}`))
		}
	})
	ctx := context.Background()

	artist, err := c.GetArtist(ctx, "27")
	require.NoError(t, err)
	assert.Equal(t, "Daft Punk", artist.Name)
	assert.Equal(t, 36, artist.NbAlbum)

	albums, err := c.ArtistAlbums(ctx, "27", 20)
	require.NoError(t, err)
	require.Len(t, albums, 1)
	assert.Equal(t, "Daft Punk", albums[0].Artist.Name)

	album, err := c.GetAlbum(ctx, "302127")
	require.NoError(t, err)
	assert.Equal(t, 14, album.NbTracks)
	assert.Equal(t, "2001-03-07", album.ReleaseDate)

	tracks, err := c.AlbumTracks(ctx, "302127", 0)
	require.NoError(t, err)
	assert.Len(t, tracks, 2)

	_, err = c.ChartAlbums(ctx, 25)
	require.NoError(t, err)
	_, err = c.NewReleases(ctx, 50)
	require.NoError(t, err)

	_, err = c.GetArtist(ctx, "1")
	assert.ErrorIs(t, err, ErrTrackNotFound)
	_, err = c.GetAlbum(ctx, "1")
	assert.ErrorIs(t, err, ErrTrackNotFound)

	assert.Equal(t, []string{
		"/artist/27",
		"/artist/27/albums?limit=20",
		"/album/302127",
		"/album/302127/tracks",
		"/chart/0/albums?limit=25",
		"/editorial/0/releases?limit=50",
		"/artist/1",
		"/album/1",
	}, seen)
}

func TestUpstreamFailures(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		_, err := c.GetTrack(context.Background(), "1")
		assert.ErrorIs(t, err, ErrUnavailable)
		assert.ErrorIs(t, AsModelError(err, "track"), model.ErrUpstreamUnavailable)
	})

	t.Run("quota exceeded", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error":{"type":"Exception","message":"Quota limit exceeded","code":4}}`))
		})
		_, err := c.ChartTracks(context.Background(), 10)
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("garbage body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>`))
		})
		_, err := c.SearchTracks(context.Background(), "x", 1)
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("transport error", func(t *testing.T) {
		c := NewClient()
		c.SetHTTPClient(&http.Client{Transport: RoundTripFunc(func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		})})
		_, err := c.GetTrack(context.Background(), "1")
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("timeout", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		})
		c.SetTimeout(20 * time.Millisecond)
		_, err := c.GetTrack(context.Background(), "1")
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}
