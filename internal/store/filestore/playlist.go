package filestore

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/JonMunkholm/playlist-api/internal/core"
)

var playlistHeader = []string{"id", "user_name", "artist_name", "song_name", "song_link", "added_at"}

// AddPlaylistItem resolves the song in the artist's file and appends it. The
// stored link is the catalog's, not the one in the request. Ids continue from
// the highest id currently in the playlist.
func (s *Store) AddPlaylistItem(ctx context.Context, in core.PlaylistAdd) (item *core.PlaylistItem, err error) {
	defer observe("add_playlist_item", time.Now(), &err)

	if err := core.ValidateArtistName(in.ArtistName); err != nil {
		return nil, core.ErrArtistNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	songs, err := s.readSongs(in.ArtistName)
	if err != nil {
		return nil, err
	}

	var song *core.Song
	for i := range songs {
		if songs[i].Name == in.SongName {
			song = &songs[i]
			break
		}
	}
	if song == nil {
		return nil, core.ErrSongNotFound
	}

	entries, err := s.readPlaylist()
	if err != nil {
		return nil, err
	}

	var maxID int64
	for _, e := range entries {
		if e.ID > maxID {
			maxID = e.ID
		}
	}

	entry := core.PlaylistEntry{
		ID:         maxID + 1,
		UserName:   in.UserName,
		ArtistName: in.ArtistName,
		SongName:   song.Name,
		SongLink:   song.Link,
		AddedAt:    s.now(),
	}
	if err := s.writePlaylist(append(entries, entry)); err != nil {
		return nil, err
	}

	return &core.PlaylistItem{ID: entry.ID, UserName: entry.UserName, AddedAt: entry.AddedAt}, nil
}

func (s *Store) RemovePlaylistItem(ctx context.Context, id int64) (err error) {
	defer observe("remove_playlist_item", time.Now(), &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readPlaylist()
	if err != nil {
		return err
	}

	kept := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(entries) {
		return core.ErrPlaylistItemNotFound
	}
	return s.writePlaylist(kept)
}

func (s *Store) ClearPlaylist(ctx context.Context) (n int64, err error) {
	defer observe("clear_playlist", time.Now(), &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readPlaylist()
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}
	if err := s.writePlaylist(nil); err != nil {
		return 0, err
	}
	return int64(len(entries)), nil
}

func (s *Store) ListPlaylist(ctx context.Context) (entries []core.PlaylistEntry, err error) {
	defer observe("list_playlist", time.Now(), &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err = s.readPlaylist()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].AddedAt.Equal(entries[j].AddedAt) {
			return entries[i].AddedAt.Before(entries[j].AddedAt)
		}
		return entries[i].ID < entries[j].ID
	})
	return entries, nil
}

// readPlaylist returns the stored entries; a missing file is an empty playlist.
func (s *Store) readPlaylist() ([]core.PlaylistEntry, error) {
	f, err := os.Open(filepath.Join(s.dir, playlistFile))
	if errors.Is(err, fs.ErrNotExist) {
		return []core.PlaylistEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open playlist: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(playlistHeader)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read playlist: %w", err)
	}

	entries := make([]core.PlaylistEntry, 0, len(rows))
	for i, row := range rows {
		if i == 0 && row[0] == playlistHeader[0] {
			continue
		}
		id, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("playlist line %d: bad id %q", i+1, row[0])
		}
		addedAt, err := time.Parse(time.RFC3339Nano, row[5])
		if err != nil {
			return nil, fmt.Errorf("playlist line %d: bad added_at %q", i+1, row[5])
		}
		entries = append(entries, core.PlaylistEntry{
			ID:         id,
			UserName:   row[1],
			ArtistName: row[2],
			SongName:   row[3],
			SongLink:   row[4],
			AddedAt:    addedAt.UTC(),
		})
	}
	return entries, nil
}

func (s *Store) writePlaylist(entries []core.PlaylistEntry) error {
	if err := s.ensureDir(); err != nil {
		return err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(playlistHeader)
	for _, e := range entries {
		_ = w.Write([]string{
			strconv.FormatInt(e.ID, 10),
			e.UserName,
			e.ArtistName,
			e.SongName,
			e.SongLink,
			e.AddedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode playlist: %w", err)
	}

	if err := writeFileAtomic(filepath.Join(s.dir, playlistFile), buf.Bytes()); err != nil {
		return fmt.Errorf("write playlist: %w", err)
	}
	return nil
}
