package web

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

// handleListArtists returns every artist name, sorted.
func (s *Server) handleListArtists(w http.ResponseWriter, r *http.Request) {
	artists, err := s.service.ListArtists(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, artists)
}

// handleListSongs returns the songs of one artist ordered by name.
func (s *Server) handleListSongs(w http.ResponseWriter, r *http.Request) {
	songs, err := s.service.ListSongs(r.Context(), pathParam(r, "artistName"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

// pathParam returns the decoded URL parameter. chi routes on RawPath when
// the request needs one (an escaped "/" for example), and the value then
// arrives encoded. Otherwise it comes from the already decoded Path and must
// not be unescaped again, or a name like "100%41" would become "100A".
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v
	}
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}
