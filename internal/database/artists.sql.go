package database

import (
	"context"
)

const createArtist = `-- name: CreateArtist :one
INSERT INTO artists (name)
VALUES ($1)
ON CONFLICT (name) DO NOTHING
RETURNING id
`

// CreateArtist returns pgx.ErrNoRows when the artist already exists.
func (q *Queries) CreateArtist(ctx context.Context, name string) (int64, error) {
	row := q.db.QueryRow(ctx, createArtist, name)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getArtistByName = `-- name: GetArtistByName :one
SELECT id, name, created_at FROM artists
WHERE name = $1
`

func (q *Queries) GetArtistByName(ctx context.Context, name string) (Artist, error) {
	row := q.db.QueryRow(ctx, getArtistByName, name)
	var i Artist
	err := row.Scan(&i.ID, &i.Name, &i.CreatedAt)
	return i, err
}

const listArtistNames = `-- name: ListArtistNames :many
SELECT name FROM artists
ORDER BY name
`

func (q *Queries) ListArtistNames(ctx context.Context) ([]string, error) {
	rows, err := q.db.Query(ctx, listArtistNames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		items = append(items, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
