package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SearchTracksHandler GET /api/tracks/search?q=&limit=
func (h *APIHandler) SearchTracksHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tracks, err := h.svc.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

// GetTrackHandler GET /api/tracks/{id}
func (h *APIHandler) GetTrackHandler(w http.ResponseWriter, r *http.Request) {
	track, err := h.svc.Track(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, track)
}

// RelatedTracksHandler GET /api/tracks/{id}/related?limit=
func (h *APIHandler) RelatedTracksHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tracks, err := h.svc.Related(r.Context(), mux.Vars(r)["id"], limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

// ChartsHandler GET /api/charts/tracks?limit=
func (h *APIHandler) ChartsHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tracks, err := h.svc.Charts(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

// TopAlbumsHandler GET /api/charts/albums?limit=
func (h *APIHandler) TopAlbumsHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	albums, err := h.svc.TopAlbums(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, albums)
}

// NewReleasesHandler GET /api/charts/new-releases?limit=
func (h *APIHandler) NewReleasesHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	albums, err := h.svc.NewReleases(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, albums)
}

// GetArtistHandler GET /api/artists/{id}
func (h *APIHandler) GetArtistHandler(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.Artist(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// GetAlbumHandler GET /api/albums/{id}
func (h *APIHandler) GetAlbumHandler(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.Album(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// ListFavoritesHandler GET /api/favorites
func (h *APIHandler) ListFavoritesHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	favs, err := h.svc.ListFavorites(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, favs)
}

// AddFavoriteHandler POST /api/favorites
func (h *APIHandler) AddFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req trackIDRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	fav, err := h.svc.AddFavorite(r.Context(), uid, string(req.TrackID))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, fav)
}

// RemoveFavoriteHandler DELETE /api/favorites/{trackId}
func (h *APIHandler) RemoveFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	if err := h.svc.RemoveFavorite(r.Context(), uid, mux.Vars(r)["trackId"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
