package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/playlist-api/internal/logging"
	"github.com/JonMunkholm/playlist-api/internal/metrics"
)

// AddToPlaylist appends a catalogued song to the shared playlist. The song is
// never created from the payload: an unknown artist or song fails with
// ErrArtistNotFound or ErrSongNotFound.
func (s *Service) AddToPlaylist(ctx context.Context, in PlaylistAdd) (*PlaylistItem, error) {
	in.SongName = strings.TrimSpace(in.SongName)
	in.ArtistName = strings.TrimSpace(in.ArtistName)
	in.UserName = strings.TrimSpace(in.UserName)
	in.SongLink = strings.TrimSpace(in.SongLink)

	var missing []string
	if in.SongName == "" {
		missing = append(missing, "songName")
	}
	if in.ArtistName == "" {
		missing = append(missing, "artistName")
	}
	if in.UserName == "" {
		missing = append(missing, "userName")
	}
	if len(missing) > 0 {
		return nil, Validationf("missing required field(s): %s", strings.Join(missing, ", "))
	}

	item, err := s.store.AddPlaylistItem(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("add %q by %q to playlist: %w", in.SongName, in.ArtistName, err)
	}

	metrics.PlaylistChangesTotal.WithLabelValues("add").Inc()
	logging.FromContext(ctx).Info("playlist item added",
		"id", item.ID,
		"artist", in.ArtistName,
		"song", in.SongName,
		"user", in.UserName,
	)
	return item, nil
}

// RemoveFromPlaylist deletes one playlist item.
func (s *Service) RemoveFromPlaylist(ctx context.Context, id int64) error {
	if id <= 0 {
		return Validationf("invalid playlist item id %d", id)
	}

	if err := s.store.RemovePlaylistItem(ctx, id); err != nil {
		return fmt.Errorf("remove playlist item %d: %w", id, err)
	}

	metrics.PlaylistChangesTotal.WithLabelValues("remove").Inc()
	logging.FromContext(ctx).Info("playlist item removed", "id", id)
	return nil
}

// ClearPlaylist removes every playlist item and returns how many there were.
func (s *Service) ClearPlaylist(ctx context.Context) (int64, error) {
	n, err := s.store.ClearPlaylist(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear playlist: %w", err)
	}

	metrics.PlaylistChangesTotal.WithLabelValues("clear").Inc()
	logging.FromContext(ctx).Info("playlist cleared", "deleted", n)
	return n, nil
}

// ListPlaylist returns the flattened playlist, oldest entry first.
func (s *Service) ListPlaylist(ctx context.Context) ([]PlaylistEntry, error) {
	entries, err := s.store.ListPlaylist(ctx)
	if err != nil {
		return nil, fmt.Errorf("list playlist: %w", err)
	}
	if entries == nil {
		entries = []PlaylistEntry{}
	}
	return entries, nil
}
