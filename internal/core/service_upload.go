package core

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/JonMunkholm/playlist-api/internal/ingest"
	"github.com/JonMunkholm/playlist-api/internal/logging"
	"github.com/JonMunkholm/playlist-api/internal/metrics"
	"github.com/google/uuid"
)

var csvMediaTypes = map[string]bool{
	"text/csv":        true,
	"application/csv": true,
}

// ArtistFromFileName derives the artist name from an uploaded file name
// ("Daft Punk.csv" → "Daft Punk"). The file must carry a .csv extension, or
// no extension at all together with a CSV content type.
func ArtistFromFileName(fileName, contentType string) (string, error) {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), `\`, "/"))
	if base == "." || base == "/" {
		return "", Validationf("no file provided")
	}

	ext := path.Ext(base)
	switch {
	case strings.EqualFold(ext, ".csv"):
		base = base[:len(base)-len(ext)]
	case ext == "" && isCSVMediaType(contentType):
	default:
		return "", Validationf("unsupported file type %q: only .csv files are allowed", base)
	}

	name := strings.TrimSpace(base)
	if err := ValidateArtistName(name); err != nil {
		return "", err
	}
	return name, nil
}

func isCSVMediaType(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && csvMediaTypes[strings.ToLower(mt)]
}

// UploadArtistCSV imports one artist's song CSV. The artist is created when
// missing and every valid row is upserted on (artist, song name), so
// uploading the same file twice changes nothing.
func (s *Service) UploadArtistCSV(ctx context.Context, fileName, contentType string, data []byte) (*UploadResult, error) {
	start := time.Now()

	artist, songs, rowErrs, parsed, err := prepareUpload(fileName, contentType, data)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	uploadID := uuid.NewString()
	log := logging.WithFields(ctx, "upload_id", uploadID, "artist", artist, "file", fileName)

	if err := s.limiter.Acquire(ctx); err != nil {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		log.Warn("upload slot unavailable", "error", err)
		return nil, err
	}
	metrics.UploadsInProgress.Inc()
	defer func() {
		metrics.UploadsInProgress.Dec()
		s.limiter.Release()
	}()

	log.Info("upload started", "rows", parsed, "valid_rows", len(songs))

	importCtx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
	defer cancel()

	res, err := s.store.ImportArtist(importCtx, artist, songs)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		log.Error("upload failed", "error", err)
		return nil, fmt.Errorf("import artist %q: %w", artist, err)
	}

	for _, re := range res.Failed {
		log.Warn("song row not stored", "line", re.Line, "song", re.Song, "reason", re.Reason)
	}

	allErrs := append(rowErrs, res.Failed...)
	result := &UploadResult{
		UploadID:      uploadID,
		ArtistName:    res.ArtistName,
		ArtistCreated: res.ArtistCreated,
		RowsParsed:    parsed,
		SongsUpserted: res.Upserted,
		SongsFailed:   len(allErrs),
		Errors:        allErrs,
		Duration:      time.Since(start),
	}

	metrics.UploadsTotal.WithLabelValues("success").Inc()
	metrics.UploadRowsTotal.WithLabelValues("upserted").Add(float64(result.SongsUpserted))
	metrics.UploadRowsTotal.WithLabelValues("failed").Add(float64(result.SongsFailed))

	log.Info("upload completed",
		"artist_created", result.ArtistCreated,
		"upserted", result.SongsUpserted,
		"failed", result.SongsFailed,
		"duration_ms", result.Duration.Milliseconds(),
	)

	return result, nil
}

// prepareUpload validates the file and splits its rows into storable songs
// and rejected rows.
func prepareUpload(fileName, contentType string, data []byte) (string, []SongInput, []RowError, int, error) {
	artist, err := ArtistFromFileName(fileName, contentType)
	if err != nil {
		return "", nil, nil, 0, err
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return "", nil, nil, 0, Validationf("empty file %q", fileName)
	}

	records := ingest.ParseBytesLines(data, ingest.SongHeaders)
	if len(records) == 0 {
		return "", nil, nil, 0, Validationf("empty file %q: no song rows after the header", fileName)
	}

	songs, rowErrs := songsFromRecords(records)
	if len(songs) == 0 {
		return "", nil, nil, 0, Validationf("invalid csv %q: no row has both %s and %s",
			fileName, ingest.SongNameHeader, ingest.SongLinkHeader)
	}

	return artist, songs, rowErrs, len(records), nil
}

func songsFromRecords(records []ingest.Line) ([]SongInput, []RowError) {
	songs := make([]SongInput, 0, len(records))
	var rowErrs []RowError

	for _, l := range records {
		line := l.Number
		name := l.Record.Get(ingest.SongNameHeader)
		link := l.Record.Get(ingest.SongLinkHeader)

		switch {
		case name == "":
			rowErrs = append(rowErrs, RowError{Line: line, Reason: "missing " + ingest.SongNameHeader})
		case link == "":
			rowErrs = append(rowErrs, RowError{Line: line, Song: name, Reason: "missing " + ingest.SongLinkHeader})
		default:
			songs = append(songs, SongInput{Line: line, Name: name, Link: link})
		}
	}

	return songs, rowErrs
}
