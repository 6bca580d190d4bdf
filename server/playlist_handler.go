package server

import (
	"net/http"

	"playpod/core/playback"
	"playpod/model"

	"github.com/gorilla/mux"
)

// maxCoverSize 封面上传上限
const maxCoverSize = 5 << 20

// ListPlaylistsHandler GET /api/playlists?me=true
func (h *APIHandler) ListPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	mineOnly := r.URL.Query().Get("me") == "true"
	playlists, err := h.svc.ListPlaylists(r.Context(), uid, mineOnly)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, playlists)
}

// CreatePlaylistHandler POST /api/playlists
func (h *APIHandler) CreatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req playback.PlaylistInput
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	playlist, err := h.svc.CreatePlaylist(r.Context(), uid, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, playlist)
}

// GetPlaylistHandler GET /api/playlists/{id}
func (h *APIHandler) GetPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	playlist, err := h.svc.GetPlaylist(r.Context(), uid, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

// UpdatePlaylistHandler PUT|PATCH /api/playlists/{id}
func (h *APIHandler) UpdatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req playback.PlaylistPatch
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	playlist, err := h.svc.UpdatePlaylist(r.Context(), uid, mux.Vars(r)["id"], req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

// DeletePlaylistHandler DELETE /api/playlists/{id}
func (h *APIHandler) DeletePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeletePlaylist(r.Context(), uid, mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PlaylistTracksHandler GET /api/playlists/{id}/tracks
func (h *APIHandler) PlaylistTracksHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	tracks, err := h.svc.PlaylistTracks(r.Context(), uid, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

// AddPlaylistTrackHandler POST /api/playlists/{id}/tracks
func (h *APIHandler) AddPlaylistTrackHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req trackIDRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	track, err := h.svc.AddPlaylistTrack(r.Context(), uid, mux.Vars(r)["id"], string(req.TrackID))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, track)
}

// bulkTracksRequest 批量添加请求体
type bulkTracksRequest struct {
	Tracks []flexibleID `json:"tracks"`
}

// AddPlaylistTracksHandler POST /api/playlists/{id}/tracks/bulk
func (h *APIHandler) AddPlaylistTracksHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req bulkTracksRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	ids := make([]string, len(req.Tracks))
	for i, id := range req.Tracks {
		ids[i] = string(id)
	}
	result, err := h.svc.AddPlaylistTracks(r.Context(), uid, mux.Vars(r)["id"], ids)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// RemovePlaylistTrackHandler DELETE /api/playlists/{id}/tracks/{trackId}
func (h *APIHandler) RemovePlaylistTrackHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	removed, err := h.svc.RemovePlaylistTrack(r.Context(), uid, vars["id"], vars["trackId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, removed)
}

// RemovePlaylistPositionHandler DELETE /api/playlists/{id}/positions/{position}
func (h *APIHandler) RemovePlaylistPositionHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	position, err := pathInt(r, "position")
	if err != nil {
		writeError(w, r, err)
		return
	}
	removed, err := h.svc.RemovePlaylistTrackAt(r.Context(), uid, mux.Vars(r)["id"], position)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, removed)
}

// ReorderPlaylistTrackHandler PUT /api/playlists/{id}/tracks/{trackId}/position
func (h *APIHandler) ReorderPlaylistTrackHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req positionRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	position, err := req.value()
	if err != nil {
		writeError(w, r, err)
		return
	}
	vars := mux.Vars(r)
	moved, err := h.svc.ReorderPlaylistTrack(r.Context(), uid, vars["id"], vars["trackId"], position)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, moved)
}

// ShufflePlaylistHandler POST /api/playlists/{id}/shuffle
func (h *APIHandler) ShufflePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	tracks, err := h.svc.ShufflePlaylist(r.Context(), uid, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

// PlayPlaylistHandler POST /api/playlists/{id}/play
func (h *APIHandler) PlayPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req playback.PlayOptions
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, r, err)
		return
	}
	state, err := h.svc.PlayPlaylist(r.Context(), uid, mux.Vars(r)["id"], req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// PlaylistCoverHandler PUT /api/playlists/{id}/cover，请求体为图片本身
func (h *APIHandler) PlaylistCoverHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	if r.ContentLength <= 0 {
		writeError(w, r, model.Validation("cover body is required"))
		return
	}
	if r.ContentLength > maxCoverSize {
		writeError(w, r, model.Validation("cover must be at most %d bytes", maxCoverSize))
		return
	}
	body := http.MaxBytesReader(w, r.Body, maxCoverSize)
	playlist, err := h.svc.SetPlaylistCover(r.Context(), uid, mux.Vars(r)["id"], body, r.ContentLength, r.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

// RecommendationsHandler GET /api/playlists/recommendations
func (h *APIHandler) RecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	tracks, err := h.svc.Recommendations(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

// PlayRecommendationHandler POST /api/playlists/play-recommendation
func (h *APIHandler) PlayRecommendationHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req trackIDRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	state, err := h.svc.PlayRecommendation(r.Context(), uid, string(req.TrackID))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// GeneratePlaylistHandler POST /api/playlists/generate
func (h *APIHandler) GeneratePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req struct {
		Genre    string     `json:"genre"`
		GenreID  flexibleID `json:"genre_id"`
		Name     string     `json:"name"`
		IsPublic bool       `json:"is_public"`
	}
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.svc.GeneratePlaylist(r.Context(), uid, playback.GenerateInput{
		Genre:    req.Genre,
		GenreID:  string(req.GenreID),
		Name:     req.Name,
		IsPublic: req.IsPublic,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}
