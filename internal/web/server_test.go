package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/JonMunkholm/playlist-api/internal/config"
	"github.com/JonMunkholm/playlist-api/internal/core"
	"github.com/JonMunkholm/playlist-api/internal/store"
)

// newTestServer builds a server over a fresh store. env overrides the
// configuration; STORAGE_BACKEND defaults to sqlite.
func newTestServer(t *testing.T, env map[string]string) *Server {
	t.Helper()

	dir := t.TempDir()
	vars := map[string]string{
		"STORAGE_BACKEND": config.BackendSQLite,
		"SQLITE_PATH":     filepath.Join(dir, "playlist.db"),
		"DATA_DIR":        filepath.Join(dir, "data"),
		"LOG_LEVEL":       "error",
	}
	for k, v := range env {
		vars[k] = v
	}

	cfg, err := config.LoadFrom(func(k string) string { return vars[k] })
	if err != nil {
		t.Fatalf("config.LoadFrom: %v", err)
	}

	st, err := store.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	svc, err := core.NewService(st, cfg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	srv := NewServer(svc, cfg)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return do(t, srv, req)
}

func uploadRequest(t *testing.T, field, fileName, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, fileName)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	io.WriteString(fw, content)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload/artist", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, want, rec.Body.String())
	}
}

func TestUploadThenListSongs(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := do(t, srv, uploadRequest(t, uploadField, "Foo.csv", "song_name,song_link\nB,http://y\nA,http://x\n"))
	expectStatus(t, rec, http.StatusCreated)

	up := decode[map[string]any](t, rec)
	if up["artistName"] != "Foo" {
		t.Errorf("artistName = %v, want Foo", up["artistName"])
	}
	if up["songsUpserted"] != float64(2) {
		t.Errorf("songsUpserted = %v, want 2", up["songsUpserted"])
	}
	if id, _ := up["uploadId"].(string); id == "" {
		t.Error("uploadId missing")
	}
	if msg, _ := up["message"].(string); !strings.Contains(msg, "Foo.csv") {
		t.Errorf("message = %q, want it to name the file", msg)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/artists", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[[]string](t, rec); len(got) != 1 || got[0] != "Foo" {
		t.Errorf("artists = %v, want [Foo]", got)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/artists/Foo/songs", nil)
	expectStatus(t, rec, http.StatusOK)
	songs := decode[[]core.Song](t, rec)
	if len(songs) != 2 {
		t.Fatalf("songs = %+v, want 2", songs)
	}
	if songs[0].Name != "A" || songs[0].Link != "http://x" || songs[1].Name != "B" || songs[1].Link != "http://y" {
		t.Errorf("songs = %+v, want A→http://x, B→http://y", songs)
	}
}

func TestUploadUpdatesExistingLinks(t *testing.T) {
	srv := newTestServer(t, nil)

	expectStatus(t, do(t, srv, uploadRequest(t, uploadField, "Foo.csv", "A,http://old\n")), http.StatusCreated)
	rec := do(t, srv, uploadRequest(t, uploadField, "Foo.csv", "A,http://new\n"))
	expectStatus(t, rec, http.StatusCreated)
	if created := decode[map[string]any](t, rec)["artistCreated"]; created != false {
		t.Errorf("artistCreated on re-upload = %v, want false", created)
	}

	songs := decode[[]core.Song](t, doJSON(t, srv, http.MethodGet, "/api/artists/Foo/songs", nil))
	if len(songs) != 1 || songs[0].Link != "http://new" {
		t.Errorf("songs = %+v, want single A with new link", songs)
	}
}

func TestUploadErrors(t *testing.T) {
	srv := newTestServer(t, map[string]string{"UPLOAD_MAX_FILE_SIZE": "2048"})

	plain := httptest.NewRequest(http.MethodPost, "/api/upload/artist", strings.NewReader("A,http://x"))
	plain.Header.Set("Content-Type", "text/plain")

	tests := []struct {
		name     string
		req      *http.Request
		wantCode string
	}{
		{"wrong field", uploadRequest(t, "file", "Foo.csv", "A,http://x\n"), "FILE003"},
		{"not csv", uploadRequest(t, uploadField, "Foo.txt", "A,http://x\n"), "FILE005"},
		{"empty file", uploadRequest(t, uploadField, "Foo.csv", ""), "FILE004"},
		{"header only", uploadRequest(t, uploadField, "Foo.csv", "song_name,song_link\n"), "FILE004"},
		{"no valid rows", uploadRequest(t, uploadField, "Foo.csv", "song_name,song_link\nA,\n"), "FILE002"},
		{"bad artist name", uploadRequest(t, uploadField, "_hidden.csv", "A,http://x\n"), "VAL001"},
		{"too large", uploadRequest(t, uploadField, "Foo.csv", strings.Repeat("A,http://x\n", 400)), "FILE001"},
		{"not multipart", plain, "VAL004"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, tt.req)
			expectStatus(t, rec, http.StatusBadRequest)
			body := decode[ErrorResponse](t, rec)
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q (body %+v)", body.Code, tt.wantCode, body)
			}
			if body.Message == "" || body.Error == "" {
				t.Errorf("incomplete error body %+v", body)
			}
		})
	}

	artists := decode[[]string](t, doJSON(t, srv, http.MethodGet, "/api/artists", nil))
	if len(artists) != 0 {
		t.Errorf("rejected uploads created artists %v", artists)
	}
}

func TestListSongs_UnknownArtist(t *testing.T) {
	t.Run("sqlite returns empty list", func(t *testing.T) {
		srv := newTestServer(t, nil)
		rec := doJSON(t, srv, http.MethodGet, "/api/artists/Nobody/songs", nil)
		expectStatus(t, rec, http.StatusOK)
		if strings.TrimSpace(rec.Body.String()) != "[]" {
			t.Errorf("body = %s, want []", rec.Body.String())
		}
	})

	t.Run("filesystem returns 404", func(t *testing.T) {
		srv := newTestServer(t, map[string]string{"STORAGE_BACKEND": config.BackendFilesystem})
		rec := doJSON(t, srv, http.MethodGet, "/api/artists/Nobody/songs", nil)
		expectStatus(t, rec, http.StatusNotFound)
		if code := decode[ErrorResponse](t, rec).Code; code != "CAT001" {
			t.Errorf("code = %q, want CAT001", code)
		}
	})
}

func TestEscapedArtistName(t *testing.T) {
	srv := newTestServer(t, map[string]string{"STORAGE_BACKEND": config.BackendFilesystem})
	expectStatus(t, do(t, srv, uploadRequest(t, uploadField, "Sigur Rós.csv", "Hoppípolla,http://h\n")), http.StatusCreated)

	rec := doJSON(t, srv, http.MethodGet, "/api/artists/Sigur%20R%C3%B3s/songs", nil)
	expectStatus(t, rec, http.StatusOK)
	if songs := decode[[]core.Song](t, rec); len(songs) != 1 || songs[0].Name != "Hoppípolla" {
		t.Errorf("songs = %+v", songs)
	}
}

func TestArtistNameWithPercent(t *testing.T) {
	for _, backend := range []string{config.BackendSQLite, config.BackendFilesystem} {
		t.Run(backend, func(t *testing.T) {
			srv := newTestServer(t, map[string]string{"STORAGE_BACKEND": backend})
			expectStatus(t, do(t, srv, uploadRequest(t, uploadField, "100%41.csv", "Track,http://t\n")), http.StatusCreated)

			rec := doJSON(t, srv, http.MethodGet, "/api/artists/100%2541/songs", nil)
			expectStatus(t, rec, http.StatusOK)
			if songs := decode[[]core.Song](t, rec); len(songs) != 1 || songs[0].Name != "Track" {
				t.Errorf("songs = %+v", songs)
			}
		})
	}
}

func TestErrorCodeIgnoresNames(t *testing.T) {
	srv := newTestServer(t, map[string]string{"STORAGE_BACKEND": config.BackendFilesystem})

	rec := doJSON(t, srv, http.MethodGet, "/api/artists/Timeout/songs", nil)
	expectStatus(t, rec, http.StatusNotFound)
	if code := decode[ErrorResponse](t, rec).Code; code != "CAT001" {
		t.Errorf("code = %q, want CAT001", code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/playlist/add", core.PlaylistAdd{SongName: "Deadlock", ArtistName: "Rate Limit", UserName: "ann"})
	expectStatus(t, rec, http.StatusNotFound)
	if code := decode[ErrorResponse](t, rec).Code; code != "CAT001" {
		t.Errorf("code = %q, want CAT001", code)
	}
}

func TestPlaylistFlow(t *testing.T) {
	for _, backend := range []string{config.BackendSQLite, config.BackendFilesystem} {
		t.Run(backend, func(t *testing.T) {
			srv := newTestServer(t, map[string]string{"STORAGE_BACKEND": backend})
			expectStatus(t, do(t, srv, uploadRequest(t, uploadField, "Foo.csv", "Hello,http://x/hello\n")), http.StatusCreated)

			rec := doJSON(t, srv, http.MethodPost, "/api/playlist/add", core.PlaylistAdd{SongName: "Nope", ArtistName: "Foo", UserName: "ann"})
			expectStatus(t, rec, http.StatusNotFound)

			rec = doJSON(t, srv, http.MethodPost, "/api/playlist/add", core.PlaylistAdd{SongName: "Hello", ArtistName: "Foo"})
			expectStatus(t, rec, http.StatusBadRequest)

			rec = doJSON(t, srv, http.MethodPost, "/api/playlist/add", core.PlaylistAdd{SongName: "Hello", ArtistName: "Foo", UserName: "ann"})
			expectStatus(t, rec, http.StatusCreated)
			item := decode[core.PlaylistItem](t, rec)
			if item.ID <= 0 || item.UserName != "ann" || item.AddedAt.IsZero() {
				t.Errorf("item = %+v", item)
			}

			entries := decode[[]core.PlaylistEntry](t, doJSON(t, srv, http.MethodGet, "/api/playlist", nil))
			if len(entries) != 1 || entries[0].SongLink != "http://x/hello" || entries[0].ArtistName != "Foo" {
				t.Fatalf("playlist = %+v", entries)
			}

			expectStatus(t, doJSON(t, srv, http.MethodDelete, "/api/playlist/remove/abc", nil), http.StatusBadRequest)
			expectStatus(t, doJSON(t, srv, http.MethodDelete, "/api/playlist/remove/999", nil), http.StatusNotFound)

			rec = doJSON(t, srv, http.MethodDelete, "/api/playlist/remove/"+strconv.FormatInt(item.ID, 10), nil)
			expectStatus(t, rec, http.StatusOK)
			if got := decode[removeResponse](t, rec); got.ID != item.ID {
				t.Errorf("removed id = %d, want %d", got.ID, item.ID)
			}

			for i := 0; i < 2; i++ {
				expectStatus(t, doJSON(t, srv, http.MethodPost, "/api/playlist/add",
					core.PlaylistAdd{SongName: "Hello", ArtistName: "Foo", UserName: "bob"}), http.StatusCreated)
			}

			rec = doJSON(t, srv, http.MethodDelete, "/api/playlist/clear", nil)
			expectStatus(t, rec, http.StatusOK)
			if got := decode[clearResponse](t, rec); got.Deleted != 2 {
				t.Errorf("deleted = %d, want 2", got.Deleted)
			}

			rec = doJSON(t, srv, http.MethodGet, "/api/playlist", nil)
			expectStatus(t, rec, http.StatusOK)
			if strings.TrimSpace(rec.Body.String()) != "[]" {
				t.Errorf("playlist after clear = %s, want []", rec.Body.String())
			}
		})
	}
}

func TestAddToPlaylist_BadBody(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/playlist/add", strings.NewReader("{not json"))
	rec := do(t, srv, req)
	expectStatus(t, rec, http.StatusBadRequest)
	if code := decode[ErrorResponse](t, rec).Code; code != "VAL004" {
		t.Errorf("code = %q, want VAL004", code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	expectStatus(t, rec, http.StatusOK)
	health := decode[healthResponse](t, rec)
	if health.Status != "ok" || health.Backend != config.BackendSQLite {
		t.Errorf("health = %+v", health)
	}

	rec = doJSON(t, srv, http.MethodGet, "/metrics", nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "playlist_api_http_requests_total") {
		t.Error("metrics output lacks playlist_api_http_requests_total")
	}
}

func TestMetricsDisabled(t *testing.T) {
	srv := newTestServer(t, map[string]string{"METRICS_ENABLED": "false"})
	expectStatus(t, doJSON(t, srv, http.MethodGet, "/metrics", nil), http.StatusNotFound)
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodGet, "/api/nope", nil)
	expectStatus(t, rec, http.StatusNotFound)
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	expectStatus(t, doJSON(t, srv, http.MethodPut, "/api/artists", nil), http.StatusMethodNotAllowed)
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodGet, "/api/artists", nil)
	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/playlist/add", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := do(t, srv, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestAPIKeyRequiredForMutations(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"REQUIRE_API_KEY": "true",
		"API_KEYS":        "k1,secret",
	})

	expectStatus(t, doJSON(t, srv, http.MethodGet, "/api/artists", nil), http.StatusOK)
	expectStatus(t, doJSON(t, srv, http.MethodGet, "/api/playlist", nil), http.StatusOK)

	expectStatus(t, doJSON(t, srv, http.MethodDelete, "/api/playlist/clear", nil), http.StatusUnauthorized)

	req := httptest.NewRequest(http.MethodDelete, "/api/playlist/clear", nil)
	req.Header.Set("X-API-Key", "wrong")
	expectStatus(t, do(t, srv, req), http.StatusForbidden)

	req = httptest.NewRequest(http.MethodDelete, "/api/playlist/clear", nil)
	req.Header.Set("X-API-Key", "secret")
	expectStatus(t, do(t, srv, req), http.StatusOK)
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, map[string]string{"RATE_LIMIT_REQUESTS_PER_MINUTE": "2"})

	expectStatus(t, doJSON(t, srv, http.MethodGet, "/api/artists", nil), http.StatusOK)
	expectStatus(t, doJSON(t, srv, http.MethodGet, "/api/artists", nil), http.StatusOK)

	rec := doJSON(t, srv, http.MethodGet, "/api/artists", nil)
	expectStatus(t, rec, http.StatusTooManyRequests)
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
	if code := decode[ErrorResponse](t, rec).Code; code != "RATE001" {
		t.Errorf("code = %q, want RATE001", code)
	}

	other := httptest.NewRequest(http.MethodGet, "/api/artists", nil)
	other.RemoteAddr = "198.51.100.7:4000"
	expectStatus(t, do(t, srv, other), http.StatusOK)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.Validationf("bad"), http.StatusBadRequest},
		{core.ErrArtistNotFound, http.StatusNotFound},
		{core.ErrPlaylistItemNotFound, http.StatusNotFound},
		{core.ErrTooManyUploads, http.StatusServiceUnavailable},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
