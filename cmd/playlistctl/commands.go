package main

import "github.com/urfave/cli/v3"

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlistctl",
		Usage: "Import artist CSVs and manage the shared playlist",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment variables from this file before reading configuration",
				Value: ".env",
			},
		},
		Before: r.Open,
		After:  r.Close,
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Import artist CSV files; each file name is the artist",
				ArgsUsage: "FILE.csv...",
				Action:    r.Import,
			},
			{
				Name:   "artists",
				Usage:  "List artists",
				Action: r.Artists,
			},
			{
				Name:  "songs",
				Usage: "List the songs of an artist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "artist"},
				},
				Action: r.Songs,
			},
			{
				Name:  "playlist",
				Usage: "Inspect and edit the shared playlist",
				Commands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "Show the playlist, oldest first",
						Action: r.PlaylistList,
					},
					{
						Name:  "add",
						Usage: "Add a catalogued song",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "artist", Aliases: []string{"a"}, Required: true},
							&cli.StringFlag{Name: "song", Aliases: []string{"s"}, Required: true},
							&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Required: true},
						},
						Action: r.PlaylistAdd,
					},
					{
						Name:  "remove",
						Usage: "Remove one playlist item",
						Arguments: []cli.Argument{
							&cli.StringArg{Name: "id"},
						},
						Action: r.PlaylistRemove,
					},
					{
						Name:   "clear",
						Usage:  "Remove every playlist item",
						Action: r.PlaylistClear,
					},
				},
			},
		},
	}
}
