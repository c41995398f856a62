// Package pgstore is the PostgreSQL backend. Imports run in one transaction
// with a savepoint per song so a bad row is reported without aborting the
// rest of the file.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/JonMunkholm/playlist-api/internal/config"
	"github.com/JonMunkholm/playlist-api/internal/core"
	db "github.com/JonMunkholm/playlist-api/internal/database"
	"github.com/JonMunkholm/playlist-api/internal/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const backend = config.BackendPostgres

// contextCheckInterval is how many rows are upserted between cancellation checks.
const contextCheckInterval = 100

// pgForeignKeyViolation is the SQLSTATE of a foreign key violation.
const pgForeignKeyViolation = "23503"

// Store implements core.Store on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ core.Store = (*Store)(nil)

// New wraps an existing pool. The schema must already exist.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Open connects with the pool settings from cfg, verifies the connection and
// applies the schema.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(cfg.URL); err == nil && u.Path != "" {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	return New(pool), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) ListArtists(ctx context.Context) (names []string, err error) {
	defer observe("list_artists", time.Now(), &err)

	names, err = db.New(s.pool).ListArtistNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("query artists: %w", err)
	}
	return names, nil
}

// ListSongs returns an empty list for an unknown artist.
func (s *Store) ListSongs(ctx context.Context, artist string) (songs []core.Song, err error) {
	defer observe("list_songs", time.Now(), &err)

	rows, err := db.New(s.pool).ListSongsByArtistName(ctx, artist)
	if err != nil {
		return nil, fmt.Errorf("query songs: %w", err)
	}

	songs = make([]core.Song, 0, len(rows))
	for _, r := range rows {
		songs = append(songs, core.Song{ID: r.ID, Name: r.Name, Link: r.Link})
	}
	return songs, nil
}

func (s *Store) ImportArtist(ctx context.Context, artist string, songs []core.SongInput) (res *core.ImportResult, err error) {
	defer observe("import_artist", time.Now(), &err)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	q := db.New(s.pool).WithTx(tx)
	res = &core.ImportResult{ArtistName: artist}

	artistID, err := q.CreateArtist(ctx, artist)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		existing, err := q.GetArtistByName(ctx, artist)
		if err != nil {
			return nil, fmt.Errorf("look up artist: %w", err)
		}
		artistID = existing.ID
	case err != nil:
		return nil, fmt.Errorf("create artist: %w", err)
	default:
		res.ArtistCreated = true
	}

	for i, song := range songs {
		if i%contextCheckInterval == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		savepoint := fmt.Sprintf("sp_%d", i)
		if _, err := tx.Exec(ctx, "SAVEPOINT "+savepoint); err != nil {
			return nil, fmt.Errorf("create savepoint: %w", err)
		}

		_, err := q.UpsertSong(ctx, db.UpsertSongParams{
			ArtistID: artistID,
			Name:     song.Name,
			Link:     song.Link,
		})
		if err != nil {
			_, _ = tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+savepoint)
			res.Failed = append(res.Failed, core.RowError{
				Line:   song.Line,
				Song:   song.Name,
				Reason: rowErrorReason(err),
			})
			continue
		}

		_, _ = tx.Exec(ctx, "RELEASE SAVEPOINT "+savepoint)
		res.Upserted++
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return res, nil
}

func (s *Store) AddPlaylistItem(ctx context.Context, in core.PlaylistAdd) (item *core.PlaylistItem, err error) {
	defer observe("add_playlist_item", time.Now(), &err)

	q := db.New(s.pool)

	song, err := q.GetSongByArtistAndName(ctx, db.GetSongByArtistAndNameParams{
		ArtistName: in.ArtistName,
		SongName:   in.SongName,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, s.missingSongError(ctx, in.ArtistName)
	}
	if err != nil {
		return nil, fmt.Errorf("look up song: %w", err)
	}

	row, err := q.CreatePlaylistItem(ctx, db.CreatePlaylistItemParams{
		SongID:   song.ID,
		UserName: in.UserName,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return nil, core.ErrSongNotFound
		}
		return nil, fmt.Errorf("insert playlist item: %w", err)
	}

	return &core.PlaylistItem{
		ID:       row.ID,
		SongID:   song.ID,
		UserName: in.UserName,
		AddedAt:  row.AddedAt.Time.UTC(),
	}, nil
}

// missingSongError tells an unknown artist apart from an unknown song.
func (s *Store) missingSongError(ctx context.Context, artist string) error {
	_, err := db.New(s.pool).GetArtistByName(ctx, artist)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return core.ErrArtistNotFound
	case err != nil:
		return fmt.Errorf("look up artist: %w", err)
	default:
		return core.ErrSongNotFound
	}
}

func (s *Store) RemovePlaylistItem(ctx context.Context, id int64) (err error) {
	defer observe("remove_playlist_item", time.Now(), &err)

	n, err := db.New(s.pool).DeletePlaylistItem(ctx, id)
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

	n, err = db.New(s.pool).ClearPlaylistItems(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear playlist: %w", err)
	}
	return n, nil
}

func (s *Store) ListPlaylist(ctx context.Context) (entries []core.PlaylistEntry, err error) {
	defer observe("list_playlist", time.Now(), &err)

	rows, err := db.New(s.pool).ListPlaylistEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("query playlist: %w", err)
	}

	entries = make([]core.PlaylistEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, core.PlaylistEntry{
			ID:         r.ID,
			UserName:   r.UserName,
			ArtistName: r.ArtistName,
			SongName:   r.SongName,
			SongLink:   r.SongLink,
			AddedAt:    r.AddedAt.Time.UTC(),
		})
	}
	return entries, nil
}

// rowErrorReason renders a row failure for the upload report without
// leaking connection details.
func rowErrorReason(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Sprintf("%s (SQLSTATE %s)", pgErr.Message, pgErr.Code)
	}
	return err.Error()
}

func observe(operation string, start time.Time, errp *error) {
	metrics.ObserveStore(backend, operation, start, *errp)
}
