package database

import (
	"context"
)

const getSongByArtistAndName = `-- name: GetSongByArtistAndName :one
SELECT s.id, s.artist_id, s.name, s.link, s.created_at, s.updated_at
FROM songs s
JOIN artists a ON a.id = s.artist_id
WHERE a.name = $1 AND s.name = $2
`

type GetSongByArtistAndNameParams struct {
	ArtistName string
	SongName   string
}

func (q *Queries) GetSongByArtistAndName(ctx context.Context, arg GetSongByArtistAndNameParams) (Song, error) {
	row := q.db.QueryRow(ctx, getSongByArtistAndName, arg.ArtistName, arg.SongName)
	var i Song
	err := row.Scan(
		&i.ID,
		&i.ArtistID,
		&i.Name,
		&i.Link,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listSongsByArtistName = `-- name: ListSongsByArtistName :many
SELECT s.id, s.name, s.link
FROM songs s
JOIN artists a ON a.id = s.artist_id
WHERE a.name = $1
ORDER BY s.name
`

type ListSongsByArtistNameRow struct {
	ID   int64
	Name string
	Link string
}

func (q *Queries) ListSongsByArtistName(ctx context.Context, artistName string) ([]ListSongsByArtistNameRow, error) {
	rows, err := q.db.Query(ctx, listSongsByArtistName, artistName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListSongsByArtistNameRow
	for rows.Next() {
		var i ListSongsByArtistNameRow
		if err := rows.Scan(&i.ID, &i.Name, &i.Link); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertSong = `-- name: UpsertSong :one
INSERT INTO songs (artist_id, name, link)
VALUES ($1, $2, $3)
ON CONFLICT (artist_id, name)
DO UPDATE SET link = EXCLUDED.link, updated_at = now()
RETURNING id
`

type UpsertSongParams struct {
	ArtistID int64
	Name     string
	Link     string
}

func (q *Queries) UpsertSong(ctx context.Context, arg UpsertSongParams) (int64, error) {
	row := q.db.QueryRow(ctx, upsertSong, arg.ArtistID, arg.Name, arg.Link)
	var id int64
	err := row.Scan(&id)
	return id, err
}
