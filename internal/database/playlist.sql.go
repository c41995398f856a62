package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const clearPlaylistItems = `-- name: ClearPlaylistItems :execrows
DELETE FROM playlist_items
`

func (q *Queries) ClearPlaylistItems(ctx context.Context) (int64, error) {
	result, err := q.db.Exec(ctx, clearPlaylistItems)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const createPlaylistItem = `-- name: CreatePlaylistItem :one
INSERT INTO playlist_items (song_id, user_name)
VALUES ($1, $2)
RETURNING id, added_at
`

type CreatePlaylistItemParams struct {
	SongID   int64
	UserName string
}

type CreatePlaylistItemRow struct {
	ID      int64
	AddedAt pgtype.Timestamptz
}

func (q *Queries) CreatePlaylistItem(ctx context.Context, arg CreatePlaylistItemParams) (CreatePlaylistItemRow, error) {
	row := q.db.QueryRow(ctx, createPlaylistItem, arg.SongID, arg.UserName)
	var i CreatePlaylistItemRow
	err := row.Scan(&i.ID, &i.AddedAt)
	return i, err
}

const deletePlaylistItem = `-- name: DeletePlaylistItem :execrows
DELETE FROM playlist_items
WHERE id = $1
`

func (q *Queries) DeletePlaylistItem(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.Exec(ctx, deletePlaylistItem, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listPlaylistEntries = `-- name: ListPlaylistEntries :many
SELECT p.id, p.user_name, a.name AS artist_name, s.name AS song_name, s.link AS song_link, p.added_at
FROM playlist_items p
JOIN songs s ON s.id = p.song_id
JOIN artists a ON a.id = s.artist_id
ORDER BY p.added_at, p.id
`

type ListPlaylistEntriesRow struct {
	ID         int64
	UserName   string
	ArtistName string
	SongName   string
	SongLink   string
	AddedAt    pgtype.Timestamptz
}

func (q *Queries) ListPlaylistEntries(ctx context.Context) ([]ListPlaylistEntriesRow, error) {
	rows, err := q.db.Query(ctx, listPlaylistEntries)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListPlaylistEntriesRow
	for rows.Next() {
		var i ListPlaylistEntriesRow
		if err := rows.Scan(
			&i.ID,
			&i.UserName,
			&i.ArtistName,
			&i.SongName,
			&i.SongLink,
			&i.AddedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
