package server

import (
	"net/http"

	"playpod/model"

	"github.com/gorilla/mux"
)

// GetQueueHandler GET /api/queue
func (h *APIHandler) GetQueueHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	state, err := h.svc.GetQueue(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// QueueTracksHandler GET /api/queue/tracks
func (h *APIHandler) QueueTracksHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	tracks, err := h.svc.QueueTracks(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

// CurrentTrackHandler GET /api/queue/current
func (h *APIHandler) CurrentTrackHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	current, err := h.svc.Current(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, current)
}

// EnqueueHandler POST /api/queue/enqueue
func (h *APIHandler) EnqueueHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req trackIDRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	track, err := h.svc.Enqueue(r.Context(), uid, string(req.TrackID))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, track)
}

// DequeueHandler DELETE /api/queue/tracks/{trackId}
func (h *APIHandler) DequeueHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	removed, err := h.svc.Dequeue(r.Context(), uid, mux.Vars(r)["trackId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, removed)
}

// DequeuePositionHandler DELETE /api/queue/positions/{position}
func (h *APIHandler) DequeuePositionHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	position, err := pathInt(r, "position")
	if err != nil {
		writeError(w, r, err)
		return
	}
	removed, err := h.svc.DequeueAt(r.Context(), uid, position)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, removed)
}

// ReorderQueueHandler PUT /api/queue/tracks/{trackId}/position
func (h *APIHandler) ReorderQueueHandler(w http.ResponseWriter, r *http.Request) {
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
	moved, err := h.svc.ReorderQueueTrack(r.Context(), uid, mux.Vars(r)["trackId"], position)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, moved)
}

// ClearQueueHandler POST /api/queue/clear
func (h *APIHandler) ClearQueueHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	if err := h.svc.ClearQueue(r.Context(), uid); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// NextHandler POST /api/queue/next
func (h *APIHandler) NextHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	next, err := h.svc.Next(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, next)
}

// PreviousHandler POST /api/queue/previous
func (h *APIHandler) PreviousHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	prev, err := h.svc.Previous(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prev)
}

// JumpHandler POST /api/queue/position
func (h *APIHandler) JumpHandler(w http.ResponseWriter, r *http.Request) {
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
	target, err := h.svc.JumpTo(r.Context(), uid, position)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, target)
}

// ShuffleQueueHandler POST /api/queue/shuffle
func (h *APIHandler) ShuffleQueueHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	state, err := h.svc.ShuffleQueue(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// StreamHandler POST /api/queue/stream，track_id 为空时播放当前曲目
func (h *APIHandler) StreamHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req trackIDRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, r, err)
		return
	}
	current, err := h.svc.Stream(r.Context(), uid, string(req.TrackID))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, current)
}

// QueueHistoryHandler GET /api/queue/history
func (h *APIHandler) QueueHistoryHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	entries, err := h.svc.History(r.Context(), uid, 0, nil)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HistoryHandler GET /api/history?limit=&since=
func (h *APIHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if limit < 0 {
		writeError(w, r, model.OutOfRange("limit must not be negative"))
		return
	}
	since, err := queryTime(r, "since")
	if err != nil {
		writeError(w, r, err)
		return
	}
	entries, err := h.svc.History(r.Context(), uid, limit, since)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
