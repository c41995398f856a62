package database

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Artist struct {
	ID        int64
	Name      string
	CreatedAt pgtype.Timestamptz
}

type Song struct {
	ID        int64
	ArtistID  int64
	Name      string
	Link      string
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

type PlaylistItem struct {
	ID       int64
	SongID   int64
	UserName string
	AddedAt  pgtype.Timestamptz
}
