package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/playlist-api/internal/core"
	"github.com/go-chi/chi/v5"
)

// maxJSONBody bounds playlist request bodies.
const maxJSONBody = 64 << 10

type removeResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

type clearResponse struct {
	Message string `json:"message"`
	Deleted int64  `json:"deleted"`
}

func (s *Server) handleListPlaylist(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.ListPlaylist(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleAddToPlaylist appends a catalogued song. Body:
//
//	{"songName": "...", "artistName": "...", "userName": "...", "songLink": "..."}
func (s *Server) handleAddToPlaylist(w http.ResponseWriter, r *http.Request) {
	var in core.PlaylistAdd
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&in); err != nil {
		s.fail(w, r, core.Validationf("invalid request body: %v", err))
		return
	}

	item, err := s.service.AddToPlaylist(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleRemoveFromPlaylist(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.fail(w, r, core.Validationf("invalid playlist item id %q", raw))
		return
	}

	if err := s.service.RemoveFromPlaylist(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, removeResponse{
		Message: fmt.Sprintf("Playlist item %d removed.", id),
		ID:      id,
	})
}

func (s *Server) handleClearPlaylist(w http.ResponseWriter, r *http.Request) {
	n, err := s.service.ClearPlaylist(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clearResponse{
		Message: fmt.Sprintf("Playlist cleared, %d item(s) removed.", n),
		Deleted: n,
	})
}
