package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"time"

	"battle-board/internal/battle"
	"battle-board/internal/infopanel"
	"battle-board/internal/replay"

	"github.com/go-chi/chi/v5"
)

// Handler methods for routerHandlers

func (h *routerHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status":  "ok",
		"session": h.board.Session().String(),
	})
}

func (h *routerHandlers) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.board.Snapshot())
}

func (h *routerHandlers) handleGetLogs(w http.ResponseWriter, r *http.Request) {
	logs := h.board.Snapshot().Logs
	if logs == nil {
		logs = []battle.LogLine{}
	}
	writeJSON(w, logs)
}

func (h *routerHandlers) handleGetPanel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.board.Snapshot().Panel)
}

func (h *routerHandlers) handleBoardPNG(w http.ResponseWriter, r *http.Request) {
	if h.renderer == nil {
		writeError(w, "Rendering disabled", http.StatusServiceUnavailable)
		return
	}

	start := time.Now()
	var buf bytes.Buffer
	if err := h.renderer.EncodePNG(&buf, h.board.Snapshot()); err != nil {
		log.Printf("❌ Board render failed: %v", err)
		writeError(w, "Render failed", http.StatusInternalServerError)
		return
	}
	RecordRender(time.Since(start))

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func (h *routerHandlers) handleReplayEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.board.ReplayEntry(r.Context(), id)
	switch {
	case errors.Is(err, replay.ErrUnknownEntry):
		writeError(w, "Unknown log entry", http.StatusNotFound)
		return
	case err != nil:
		writeError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]interface{}{"success": true, "id": id})
}

func (h *routerHandlers) handleReplayAll(w http.ResponseWriter, r *http.Request) {
	log.Println("▶️ Full replay requested via API")
	ok, err := h.board.PlayAll(r.Context())
	if err != nil {
		writeError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if !ok {
		writeError(w, "Replay already playing", http.StatusConflict)
		return
	}
	writeJSONStatus(w, http.StatusAccepted, map[string]interface{}{"success": true, "session": replay.Playing.String()})
}

func (h *routerHandlers) handleViewport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	err := h.board.Resize(r.Context(), req.Width, req.Height)
	switch {
	case errors.Is(err, battle.ErrInvalidViewport):
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		writeError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, h.board.Snapshot().Viewport)
}

func (h *routerHandlers) handlePin(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		writeError(w, "Invalid team name", http.StatusBadRequest)
		return
	}

	err = h.board.Pin(r.Context(), name)
	switch {
	case errors.Is(err, infopanel.ErrUnknownTeam):
		writeError(w, "Unknown team", http.StatusNotFound)
		return
	case err != nil:
		writeError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, h.board.Snapshot().Panel)
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
