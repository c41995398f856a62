// Package sqlitestore is the embedded SQLite backend, for single-node setups
// and the CLI. It follows the PostgreSQL backend's semantics: imports run in
// one transaction with a savepoint per song.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/playlist-api/internal/config"
	"github.com/JonMunkholm/playlist-api/internal/core"
	"github.com/JonMunkholm/playlist-api/internal/metrics"
	"github.com/mattn/go-sqlite3"
)

const backend = config.BackendSQLite

// Store implements core.Store on a SQLite file.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ core.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", path)

	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single connection serializes writers and keeps transactions simple.
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.ExecContext(ctx, schema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{
		db:  sqlDB,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListArtists(ctx context.Context) (names []string, err error) {
	defer observe("list_artists", time.Now(), &err)

	rows, err := s.db.QueryContext(ctx, selectArtistNames)
	if err != nil {
		return nil, fmt.Errorf("query artists: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan artist: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ListSongs returns an empty list for an unknown artist.
func (s *Store) ListSongs(ctx context.Context, artist string) (songs []core.Song, err error) {
	defer observe("list_songs", time.Now(), &err)

	rows, err := s.db.QueryContext(ctx, selectSongsByArtist, artist)
	if err != nil {
		return nil, fmt.Errorf("query songs: %w", err)
	}
	defer rows.Close()

	songs = []core.Song{}
	for rows.Next() {
		var song core.Song
		if err := rows.Scan(&song.ID, &song.Name, &song.Link); err != nil {
			return nil, fmt.Errorf("scan song: %w", err)
		}
		songs = append(songs, song)
	}
	return songs, rows.Err()
}

func (s *Store) ImportArtist(ctx context.Context, artist string, songs []core.SongInput) (res *core.ImportResult, err error) {
	defer observe("import_artist", time.Now(), &err)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now()
	res = &core.ImportResult{ArtistName: artist}

	created, err := tx.ExecContext(ctx, insertArtist, artist, now)
	if err != nil {
		return nil, fmt.Errorf("create artist: %w", err)
	}
	if n, _ := created.RowsAffected(); n > 0 {
		res.ArtistCreated = true
	}

	var artistID int64
	if err := tx.QueryRowContext(ctx, selectArtistID, artist).Scan(&artistID); err != nil {
		return nil, fmt.Errorf("look up artist: %w", err)
	}

	for i, song := range songs {
		savepoint := fmt.Sprintf("sp_%d", i)
		if _, err := tx.ExecContext(ctx, "SAVEPOINT "+savepoint); err != nil {
			return nil, fmt.Errorf("create savepoint: %w", err)
		}

		if _, err := tx.ExecContext(ctx, upsertSong, artistID, song.Name, song.Link, now, now); err != nil {
			_, _ = tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+savepoint)
			res.Failed = append(res.Failed, core.RowError{
				Line:   song.Line,
				Song:   song.Name,
				Reason: rowErrorReason(err),
			})
			continue
		}

		_, _ = tx.ExecContext(ctx, "RELEASE SAVEPOINT "+savepoint)
		res.Upserted++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return res, nil
}

func (s *Store) AddPlaylistItem(ctx context.Context, in core.PlaylistAdd) (item *core.PlaylistItem, err error) {
	defer observe("add_playlist_item", time.Now(), &err)

	var songID int64
	err = s.db.QueryRowContext(ctx, selectSongID, in.ArtistName, in.SongName).Scan(&songID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, s.missingSongError(ctx, in.ArtistName)
	}
	if err != nil {
		return nil, fmt.Errorf("look up song: %w", err)
	}

	item = &core.PlaylistItem{SongID: songID, UserName: in.UserName, AddedAt: s.now()}
	err = s.db.QueryRowContext(ctx, insertPlaylistItem, songID, in.UserName, item.AddedAt).Scan(&item.ID)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
			return nil, core.ErrSongNotFound
		}
		return nil, fmt.Errorf("insert playlist item: %w", err)
	}
	return item, nil
}

// missingSongError tells an unknown artist apart from an unknown song.
func (s *Store) missingSongError(ctx context.Context, artist string) error {
	var id int64
	err := s.db.QueryRowContext(ctx, selectArtistID, artist).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return core.ErrArtistNotFound
	case err != nil:
		return fmt.Errorf("look up artist: %w", err)
	default:
		return core.ErrSongNotFound
	}
}

func (s *Store) RemovePlaylistItem(ctx context.Context, id int64) (err error) {
	defer observe("remove_playlist_item", time.Now(), &err)

	res, err := s.db.ExecContext(ctx, deletePlaylistItem, id)
	if err != nil {
		return fmt.Errorf("delete playlist item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete playlist item: %w", err)
	}
	if n == 0 {
		return core.ErrPlaylistItemNotFound
	}
	return nil
}

func (s *Store) ClearPlaylist(ctx context.Context) (n int64, err error) {
	defer observe("clear_playlist", time.Now(), &err)

	res, err := s.db.ExecContext(ctx, deleteAllPlaylistItems)
	if err != nil {
		return 0, fmt.Errorf("clear playlist: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) ListPlaylist(ctx context.Context) (entries []core.PlaylistEntry, err error) {
	defer observe("list_playlist", time.Now(), &err)

	rows, err := s.db.QueryContext(ctx, selectPlaylistEntries)
	if err != nil {
		return nil, fmt.Errorf("query playlist: %w", err)
	}
	defer rows.Close()

	entries = []core.PlaylistEntry{}
	for rows.Next() {
		var e core.PlaylistEntry
		if err := rows.Scan(&e.ID, &e.UserName, &e.ArtistName, &e.SongName, &e.SongLink, &e.AddedAt); err != nil {
			return nil, fmt.Errorf("scan playlist entry: %w", err)
		}
		e.AddedAt = e.AddedAt.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func rowErrorReason(err error) string {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Error()
	}
	return err.Error()
}

func observe(operation string, start time.Time, errp *error) {
	metrics.ObserveStore(backend, operation, start, *errp)
}
