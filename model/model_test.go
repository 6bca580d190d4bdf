package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesByKind(t *testing.T) {
	err := NotFound("track %s not found", "42")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrDuplicateEntry))
	assert.Equal(t, "track 42 not found", err.Error())

	wrapped := fmt.Errorf("enqueue: %w", err)
	assert.True(t, errors.Is(wrapped, ErrNotFound))

	var me *Error
	if assert.True(t, errors.As(wrapped, &me)) {
		assert.Equal(t, KindNotFound, me.Kind)
	}
	assert.Equal(t, "end_of_list", ErrEndOfList.Error())
}

func TestNormalizeTrackID(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"3135556", "3135556", true},
		{" 0042 ", "42", true},
		{"0", "", false},
		{"-5", "", false},
		{"abc", "", false},
		{"", "", false},
		{"1.5", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeTrackID(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestDeezerTrackRef(t *testing.T) {
	track := DeezerTrack{
		ID:       3135556,
		Title:    "Harder, Better, Faster, Stronger",
		Duration: 224,
		Artist:   DeezerArtist{ID: 27, Name: "Daft Punk"},
		Album:    DeezerAlbum{Title: "Discovery", Cover: "small.jpg", GenreID: 113},
	}

	ref := track.Ref()
	assert.Equal(t, "3135556", ref.TrackID)
	assert.Equal(t, "27", ref.ArtistID)
	assert.Equal(t, "small.jpg", ref.AlbumCover)
	assert.Equal(t, "113", ref.GenreID)

	track.Album.CoverMedium = "medium.jpg"
	assert.Equal(t, "medium.jpg", track.Ref().AlbumCover)
}

func TestQueuePointTo(t *testing.T) {
	q := &Queue{}
	assert.False(t, q.HasCursor())

	q.PointTo(&ListTrack{TrackID: "7", Position: 3})
	assert.True(t, q.HasCursor())
	assert.Equal(t, "7", *q.CurrentTrackID)
	assert.Equal(t, 3, q.CurrentPosition)

	q.PointTo(nil)
	assert.False(t, q.HasCursor())
	assert.Equal(t, 0, q.CurrentPosition)
}

func TestPlaylistVisibility(t *testing.T) {
	p := &Playlist{UserID: "owner"}
	assert.True(t, p.VisibleTo("owner"))
	assert.False(t, p.VisibleTo("other"))
	p.IsPublic = true
	assert.True(t, p.VisibleTo("other"))
}
