// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// resolveCommand identifies a video or track title and locates it on a catalog.
func resolveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "resolve",
		Aliases: []string{"res"},
		Usage:   "Resolve a video URL or raw title to a catalog track",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "input",
			},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Resolve every line of a file as a batch",
			},
			&cli.BoolFlag{
				Name:  "add",
				Usage: "Add the matched track to your library",
			},
			&cli.BoolFlag{
				Name:  "no-log",
				Usage: "Skip writing to the resolution log",
			},
			&cli.BoolFlag{
				Name:  "skip-known",
				Usage: "Reuse a prior resolution for the same title",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent workers for batch resolution",
				Value: 3,
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Batch inputs dispatched per second",
				Value: 2,
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format (text, json, csv, markdown)",
				Value: "text",
			},
		},
		Action: r.Resolve,
	}
}

// searchCommand looks a track up without touching the library or the log.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search destination catalogs for a title without logging",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Search,
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage catalog authentication",
		Commands: []*cli.Command{
			{
				Name:  "spotify",
				Usage: "Authenticate with Spotify using OAuth2",
				Flags: []cli.Flag{
					configFlag(),
				},
				Action: r.AuthSpotify,
			},
			{
				Name:  "deezer",
				Usage: "Store a Deezer access token",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "token",
						Usage:    "Deezer access token",
						Required: true,
					},
				},
				Action: r.AuthDeezer,
			},
			{
				Name:  "status",
				Usage: "Show which catalogs have stored credentials",
				Flags: []cli.Flag{
					configFlag(),
				},
				Action: r.AuthStatus,
			},
		},
	}
}

// historyCommand reads the resolution log.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "history",
		Aliases: []string{"log"},
		Usage:   "Show past resolutions",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of rows to show",
				Value: 50,
			},
			&cli.BoolFlag{
				Name:  "matched",
				Usage: "Only show resolutions that found a match",
			},
			&cli.BoolFlag{
				Name:  "stats",
				Usage: "Show summary counts instead of rows",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format (text, json, csv, markdown)",
				Value: "text",
			},
		},
		Action: r.History,
	}
}

// setupCommand initializes the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and database",
		Flags: []cli.Flag{
			configFlag(),
		},
		Action: r.Setup,
	}
}

// tuiCommand returns the top-level TUI command for browsing the resolution log.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive resolution history browser",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of rows to load",
			},
		},
		Action: r.TUI,
	}
}
