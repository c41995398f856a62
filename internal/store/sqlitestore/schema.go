package sqlitestore

// schema mirrors the PostgreSQL tables. Timestamps are DATETIME so the
// driver converts them to time.Time on scan.
const schema = `
CREATE TABLE IF NOT EXISTS artists (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    name       TEXT NOT NULL UNIQUE,
    created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS songs (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    artist_id  INTEGER NOT NULL REFERENCES artists (id) ON DELETE CASCADE,
    name       TEXT NOT NULL,
    link       TEXT NOT NULL,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL,
    UNIQUE (artist_id, name)
);

CREATE TABLE IF NOT EXISTS playlist_items (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    song_id   INTEGER NOT NULL REFERENCES songs (id) ON DELETE CASCADE,
    user_name TEXT NOT NULL,
    added_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS playlist_items_added_at_idx ON playlist_items (added_at, id);
`

const (
	insertArtist = `INSERT INTO artists (name, created_at) VALUES (?, ?)
ON CONFLICT (name) DO NOTHING`

	selectArtistID = `SELECT id FROM artists WHERE name = ?`

	selectArtistNames = `SELECT name FROM artists ORDER BY name`

	selectSongsByArtist = `SELECT s.id, s.name, s.link
FROM songs s
JOIN artists a ON a.id = s.artist_id
WHERE a.name = ?
ORDER BY s.name`

	upsertSong = `INSERT INTO songs (artist_id, name, link, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (artist_id, name)
DO UPDATE SET link = excluded.link, updated_at = excluded.updated_at`

	selectSongID = `SELECT s.id
FROM songs s
JOIN artists a ON a.id = s.artist_id
WHERE a.name = ? AND s.name = ?`

	insertPlaylistItem = `INSERT INTO playlist_items (song_id, user_name, added_at)
VALUES (?, ?, ?)
RETURNING id`

	deletePlaylistItem = `DELETE FROM playlist_items WHERE id = ?`

	deleteAllPlaylistItems = `DELETE FROM playlist_items`

	selectPlaylistEntries = `SELECT p.id, p.user_name, a.name, s.name, s.link, p.added_at
FROM playlist_items p
JOIN songs s ON s.id = p.song_id
JOIN artists a ON a.id = s.artist_id
ORDER BY p.added_at, p.id`
)
