// Package core holds the domain model and business rules of the playlist API.
//
// It knows nothing about HTTP or about any particular database. Handlers and
// the admin CLI talk to a [Service]; the Service talks to a [Store], which is
// satisfied by the filesystem, PostgreSQL and SQLite backends under
// internal/store.
//
// # Catalog and playlist
//
// The catalog is the set of artists and their songs; (artist, song name) is
// unique, and importing the same pair again overwrites the song link. The
// playlist is a shared, insertion-ordered list of catalogued songs, each
// entry tagged with the user who added it. A song must already be in the
// catalog before it can be added to the playlist.
//
// # Uploads
//
// [Service.UploadArtistCSV] derives the artist from the file name, parses the
// body with package ingest and hands the valid rows to [Catalog.ImportArtist]
// in one call. Uploads are throttled by an [UploadLimiter].
//
// # Error Handling
//
// Failures are classified with sentinel errors ([ErrValidation],
// [ErrNotFound] and friends) that the web layer turns into status codes, and
// technical messages are mapped to user-facing text with [MapError]:
//
//   - DB001-DB007: database errors (constraints, connections)
//   - VAL001-VAL005: validation errors (names, required fields, ids)
//   - FILE001-FILE006: upload file errors (size, type, content)
//   - CAT001-CAT003: catalog and playlist lookups
//   - UPL001-UPL003: upload throttling and cancellation
package core
