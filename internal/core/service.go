package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/JonMunkholm/playlist-api/internal/config"
)

// Service provides the business logic behind the HTTP API and the CLI.
type Service struct {
	store         Store
	limiter       *UploadLimiter
	uploadTimeout time.Duration
}

// NewService wires a Service around store. A nil cfg uses defaults.
func NewService(store Store, cfg *config.Config) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("new service: nil store")
	}

	s := &Service{
		store:         store,
		limiter:       NewUploadLimiter(DefaultMaxConcurrentUploads, DefaultMaxWaitTime),
		uploadTimeout: 2 * time.Minute,
	}

	if cfg != nil {
		s.limiter = NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)
		if cfg.Upload.Timeout > 0 {
			s.uploadTimeout = cfg.Upload.Timeout
		}
	}

	return s, nil
}

// Ping checks that the backing store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ListArtists returns all artist names, sorted.
func (s *Service) ListArtists(ctx context.Context) ([]string, error) {
	artists, err := s.store.ListArtists(ctx)
	if err != nil {
		return nil, fmt.Errorf("list artists: %w", err)
	}
	if artists == nil {
		artists = []string{}
	}
	sort.Strings(artists)
	return artists, nil
}

// ListSongs returns the songs of artist ordered by name. Relational backends
// return an empty list for unknown artists; the filesystem backend reports
// ErrArtistNotFound.
func (s *Service) ListSongs(ctx context.Context, artist string) ([]Song, error) {
	if err := ValidateArtistName(artist); err != nil {
		return nil, err
	}

	songs, err := s.store.ListSongs(ctx, artist)
	if err != nil {
		return nil, fmt.Errorf("list songs of %q: %w", artist, err)
	}
	if songs == nil {
		songs = []Song{}
	}
	return songs, nil
}

// UploadLimiterStatus reports upload slot usage.
func (s *Service) UploadLimiterStatus() UploadLimiterStatus {
	return s.limiter.Status()
}

// WaitForUploads blocks until in-flight uploads finish or ctx ends.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
