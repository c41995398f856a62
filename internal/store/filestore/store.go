// Package filestore keeps the catalog as plain CSV files in one directory:
//
//	_artists_list.csv   artist_name header, one artist per line, sorted
//	<Artist>.csv        song_name,song_link header, one song per line
//	_playlist.csv       the shared playlist
//
// Artist files use the same bare-comma layout that uploads are parsed with,
// so a song name or link containing a comma cannot be stored. The playlist is
// written with encoding/csv since user names are free text.
//
// A mutex serializes access within one process. Two processes sharing a
// directory can still lose updates.
package filestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/playlist-api/internal/config"
	"github.com/JonMunkholm/playlist-api/internal/core"
	"github.com/JonMunkholm/playlist-api/internal/ingest"
	"github.com/JonMunkholm/playlist-api/internal/metrics"
)

const backend = config.BackendFilesystem

const (
	artistsListFile = "_artists_list.csv"
	playlistFile    = "_playlist.csv"
	artistFileExt   = ".csv"
)

// Store implements core.Store on a directory of CSV files.
type Store struct {
	dir string
	now func() time.Time

	mu sync.Mutex
}

var _ core.Store = (*Store)(nil)

// Open returns a store rooted at dir. The directory is created on first use.
func Open(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("filestore: empty data directory")
	}
	return &Store{
		dir: dir,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

// Ping creates the data directory if needed and checks it is writable.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureDir(); err != nil {
		return err
	}
	f, err := os.CreateTemp(s.dir, ".ping-*")
	if err != nil {
		return fmt.Errorf("data directory not writable: %w", err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

func (s *Store) Close() error { return nil }

func (s *Store) ListArtists(ctx context.Context) (names []string, err error) {
	defer observe("list_artists", time.Now(), &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureDir(); err != nil {
		return nil, err
	}
	return s.readArtists()
}

// ListSongs returns core.ErrArtistNotFound when the artist has no file.
func (s *Store) ListSongs(ctx context.Context, artist string) (songs []core.Song, err error) {
	defer observe("list_songs", time.Now(), &err)

	if err := core.ValidateArtistName(artist); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	songs, err = s.readSongs(artist)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(songs, func(i, j int) bool { return songs[i].Name < songs[j].Name })
	return songs, nil
}

// ImportArtist merges songs into the artist's file: known names get the new
// link and new names are appended.
func (s *Store) ImportArtist(ctx context.Context, artist string, songs []core.SongInput) (res *core.ImportResult, err error) {
	defer observe("import_artist", time.Now(), &err)

	if err := core.ValidateArtistName(artist); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureDir(); err != nil {
		return nil, err
	}

	res = &core.ImportResult{ArtistName: artist}

	existing, err := s.readSongs(artist)
	switch {
	case errors.Is(err, core.ErrArtistNotFound):
		existing = nil
	case err != nil:
		return nil, err
	}

	index := make(map[string]int, len(existing))
	for i, song := range existing {
		index[song.Name] = i
	}

	for _, in := range songs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strings.ContainsAny(in.Name+in.Link, ",\r\n") {
			res.Failed = append(res.Failed, core.RowError{
				Line:   in.Line,
				Song:   in.Name,
				Reason: "commas and line breaks cannot be stored in an artist file",
			})
			continue
		}
		if i, ok := index[in.Name]; ok {
			existing[i].Link = in.Link
		} else {
			index[in.Name] = len(existing)
			existing = append(existing, core.Song{Name: in.Name, Link: in.Link})
		}
		res.Upserted++
	}

	if err := s.writeSongs(artist, existing); err != nil {
		return nil, err
	}

	created, err := s.addArtist(artist)
	if err != nil {
		return nil, err
	}
	res.ArtistCreated = created

	return res, nil
}

func (s *Store) ensureDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	listPath := filepath.Join(s.dir, artistsListFile)
	if _, err := os.Stat(listPath); errors.Is(err, fs.ErrNotExist) {
		return writeFileAtomic(listPath, []byte(ingest.ArtistNameHeader+"\n"))
	} else if err != nil {
		return fmt.Errorf("stat artist list: %w", err)
	}
	return nil
}

func (s *Store) readArtists() ([]string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, artistsListFile))
	if err != nil {
		return nil, fmt.Errorf("read artist list: %w", err)
	}

	records := ingest.ParseBytes(data, ingest.ArtistHeaders)
	names := make([]string, 0, len(records))
	for _, rec := range records {
		if name := rec.Get(ingest.ArtistNameHeader); name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// addArtist appends artist to the master list and reports whether it was new.
func (s *Store) addArtist(artist string) (bool, error) {
	names, err := s.readArtists()
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == artist {
			return false, nil
		}
	}

	names = append(names, artist)
	sort.Strings(names)

	var buf bytes.Buffer
	buf.WriteString(ingest.ArtistNameHeader + "\n")
	for _, n := range names {
		buf.WriteString(n + "\n")
	}
	if err := writeFileAtomic(filepath.Join(s.dir, artistsListFile), buf.Bytes()); err != nil {
		return false, fmt.Errorf("write artist list: %w", err)
	}
	return true, nil
}

func (s *Store) artistPath(artist string) string {
	return filepath.Join(s.dir, artist+artistFileExt)
}

// readSongs returns the artist's songs in file order.
func (s *Store) readSongs(artist string) ([]core.Song, error) {
	data, err := os.ReadFile(s.artistPath(artist))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, core.ErrArtistNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read songs of %q: %w", artist, err)
	}

	records := ingest.ParseBytes(data, ingest.SongHeaders)
	songs := make([]core.Song, 0, len(records))
	for _, rec := range records {
		name := rec.Get(ingest.SongNameHeader)
		if name == "" {
			continue
		}
		songs = append(songs, core.Song{Name: name, Link: rec.Get(ingest.SongLinkHeader)})
	}
	return songs, nil
}

func (s *Store) writeSongs(artist string, songs []core.Song) error {
	var buf bytes.Buffer
	buf.WriteString(strings.Join(ingest.SongHeaders, ",") + "\n")
	for _, song := range songs {
		buf.WriteString(song.Name + "," + song.Link + "\n")
	}
	if err := writeFileAtomic(s.artistPath(artist), buf.Bytes()); err != nil {
		return fmt.Errorf("write songs of %q: %w", artist, err)
	}
	return nil
}

// writeFileAtomic replaces path via a temporary file in the same directory so
// readers never see a half-written file.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func observe(operation string, start time.Time, errp *error) {
	metrics.ObserveStore(backend, operation, start, *errp)
}
