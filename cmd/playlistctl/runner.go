package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/JonMunkholm/playlist-api/internal/config"
	"github.com/JonMunkholm/playlist-api/internal/core"
	"github.com/JonMunkholm/playlist-api/internal/logging"
	"github.com/JonMunkholm/playlist-api/internal/store"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

// Runner holds the service shared by all commands. Open and Close bracket
// every invocation.
type Runner struct {
	out     io.Writer
	store   core.Store
	service *core.Service
}

func NewRunner(out io.Writer) *Runner {
	return &Runner{out: out}
}

// Open loads the environment and configuration and opens the store.
func (r *Runner) Open(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if err := loadEnvFile(cmd.String("env-file"), cmd.IsSet("env-file")); err != nil {
		return ctx, err
	}

	cfg, err := config.Load()
	if err != nil {
		return ctx, err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	st, err := store.Open(ctx, cfg)
	if err != nil {
		return ctx, err
	}

	svc, err := core.NewService(st, cfg)
	if err != nil {
		st.Close()
		return ctx, err
	}

	r.store, r.service = st, svc
	return ctx, nil
}

// loadEnvFile applies path over the process environment. A missing default
// file is not an error; a missing file named on the command line is.
func loadEnvFile(path string, explicit bool) error {
	err := godotenv.Overload(path)
	if err == nil || (!explicit && errors.Is(err, fs.ErrNotExist)) {
		return nil
	}
	return fmt.Errorf("load env file %s: %w", path, err)
}

func (r *Runner) Close(ctx context.Context, cmd *cli.Command) error {
	if r.store == nil {
		return nil
	}
	return r.store.Close()
}

// Import uploads each file as an artist CSV and keeps going after failures.
func (r *Runner) Import(ctx context.Context, cmd *cli.Command) error {
	files := cmd.Args().Slice()
	if len(files) == 0 {
		return errors.New("import: at least one CSV file is required")
	}

	var errs []error
	for _, path := range files {
		res, err := r.importFile(ctx, path)
		if err != nil {
			fmt.Fprintf(r.out, "%s: %s\n", path, core.FormatUserError(err))
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}

		fmt.Fprintf(r.out, "%s: artist %q, %d upserted, %d failed\n",
			path, res.ArtistName, res.SongsUpserted, res.SongsFailed)
		for _, re := range res.Errors {
			fmt.Fprintf(r.out, "  line %d %s: %s\n", re.Line, re.Song, re.Reason)
		}
	}
	return errors.Join(errs...)
}

func (r *Runner) importFile(ctx context.Context, path string) (*core.UploadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return r.service.UploadArtistCSV(ctx, filepath.Base(path), mime.TypeByExtension(filepath.Ext(path)), data)
}

func (r *Runner) Artists(ctx context.Context, cmd *cli.Command) error {
	artists, err := r.service.ListArtists(ctx)
	if err != nil {
		return err
	}
	for _, a := range artists {
		fmt.Fprintln(r.out, a)
	}
	return nil
}

func (r *Runner) Songs(ctx context.Context, cmd *cli.Command) error {
	artist := cmd.StringArg("artist")
	if artist == "" {
		return errors.New("songs: artist name is required")
	}

	songs, err := r.service.ListSongs(ctx, artist)
	if err != nil {
		return err
	}
	for _, s := range songs {
		fmt.Fprintf(r.out, "%s\t%s\n", s.Name, s.Link)
	}
	return nil
}

func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	entries, err := r.service.ListPlaylist(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tADDED\tUSER\tARTIST\tSONG\tLINK")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.AddedAt.Local().Format(time.DateTime), e.UserName, e.ArtistName, e.SongName, e.SongLink)
	}
	return tw.Flush()
}

func (r *Runner) PlaylistAdd(ctx context.Context, cmd *cli.Command) error {
	item, err := r.service.AddToPlaylist(ctx, core.PlaylistAdd{
		ArtistName: cmd.String("artist"),
		SongName:   cmd.String("song"),
		UserName:   cmd.String("user"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "added item %d\n", item.ID)
	return nil
}

func (r *Runner) PlaylistRemove(ctx context.Context, cmd *cli.Command) error {
	raw := cmd.StringArg("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return core.Validationf("invalid playlist item id %q", raw)
	}
	if err := r.service.RemoveFromPlaylist(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "removed item %d\n", id)
	return nil
}

func (r *Runner) PlaylistClear(ctx context.Context, cmd *cli.Command) error {
	n, err := r.service.ClearPlaylist(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "removed %d item(s)\n", n)
	return nil
}
