package core

import "context"

// Catalog is the durable record of artists and their songs.
type Catalog interface {
	// ListArtists returns every artist name in ascending order.
	ListArtists(ctx context.Context) ([]string, error)

	// ListSongs returns the songs of artist ordered by name.
	ListSongs(ctx context.Context, artist string) ([]Song, error)

	// ImportArtist finds or creates artist and upserts songs on
	// (artist, song name). Per-row failures are reported in the result
	// and do not abort the import.
	ImportArtist(ctx context.Context, artist string, songs []SongInput) (*ImportResult, error)
}

// Playlist is the shared, insertion-ordered play queue.
type Playlist interface {
	// AddPlaylistItem appends an already catalogued song. It returns
	// ErrArtistNotFound or ErrSongNotFound without writing anything when
	// the song cannot be resolved.
	AddPlaylistItem(ctx context.Context, in PlaylistAdd) (*PlaylistItem, error)

	// RemovePlaylistItem deletes one item or returns ErrPlaylistItemNotFound.
	RemovePlaylistItem(ctx context.Context, id int64) error

	// ClearPlaylist deletes every item and reports how many were removed.
	ClearPlaylist(ctx context.Context) (int64, error)

	// ListPlaylist returns the flattened playlist, oldest first.
	ListPlaylist(ctx context.Context) ([]PlaylistEntry, error)
}

// Store is a complete backend.
type Store interface {
	Catalog
	Playlist

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend's resources.
	Close() error
}
