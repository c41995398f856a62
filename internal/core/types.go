package core

import "time"

// Song is one catalog entry of an artist. ID is zero for backends without
// generated keys and is then omitted from JSON.
type Song struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
	Link string `json:"link"`
}

// SongInput is a song row handed to a catalog import.
type SongInput struct {
	Line int // 1-based line in the uploaded file (header and blank lines count), 0 when unknown
	Name string
	Link string
}

// RowError describes one import row that could not be stored.
type RowError struct {
	Line   int    `json:"line"`
	Song   string `json:"song,omitempty"`
	Reason string `json:"reason"`
}

// ImportResult summarizes a catalog import for one artist.
type ImportResult struct {
	ArtistName    string
	ArtistCreated bool
	Upserted      int
	Failed        []RowError
}

// PlaylistAdd is the payload of a playlist add. SongLink is informational;
// the song is resolved by artist and song name only.
type PlaylistAdd struct {
	SongName   string `json:"songName"`
	ArtistName string `json:"artistName"`
	UserName   string `json:"userName"`
	SongLink   string `json:"songLink,omitempty"`
}

// PlaylistItem is a stored playlist row.
type PlaylistItem struct {
	ID       int64     `json:"id"`
	SongID   int64     `json:"songId,omitempty"`
	UserName string    `json:"userName"`
	AddedAt  time.Time `json:"addedAt"`
}

// PlaylistEntry is the flattened playlist view: item, song and artist.
type PlaylistEntry struct {
	ID         int64     `json:"id"`
	UserName   string    `json:"userName"`
	ArtistName string    `json:"artistName"`
	SongName   string    `json:"songName"`
	SongLink   string    `json:"songLink"`
	AddedAt    time.Time `json:"addedAt"`
}

// UploadResult is returned to clients after an artist CSV upload.
type UploadResult struct {
	UploadID      string        `json:"uploadId"`
	ArtistName    string        `json:"artistName"`
	ArtistCreated bool          `json:"artistCreated"`
	RowsParsed    int           `json:"rowsParsed"`
	SongsUpserted int           `json:"songsUpserted"`
	SongsFailed   int           `json:"songsFailed"`
	Errors        []RowError    `json:"errors,omitempty"`
	Duration      time.Duration `json:"-"`
}
