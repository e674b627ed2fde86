// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func songFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "song",
			Aliases: []string{"s"},
			Usage:   "Song title, exactly as the client reports it",
		},
		&cli.StringFlag{
			Name:    "artist",
			Aliases: []string{"a"},
			Usage:   "Primary artist",
		},
	}
}

func sweepFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"w"},
			Usage:   "Concurrent resolutions (max 10, default from [sweep])",
		},
		&cli.FloatFlag{
			Name:  "rate",
			Usage: "Resolutions per second across all workers (default from [sweep])",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Resolve only, leave the ledger untouched",
		},
	}
}

// serveCommand runs the HTTP server
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the client API and GitHub webhooks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (overrides server.port)",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml if missing, initialize the database and run migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   defaultConfigPath,
			},
		},
		Action: r.Setup,
	}
}

// authCommand handles provider credentials
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage provider credentials",
		Commands: []*cli.Command{
			{
				Name:  "check",
				Usage: "Refresh the Spotify and GitHub App tokens once and report the result",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthCheck,
			},
		},
	}
}

// ledgerCommand handles the unsupported ledger
func ledgerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "ledger",
		Aliases: []string{"unsupported"},
		Usage:   "Inspect and maintain the unsupported ledger",
		Commands: []*cli.Command{
			{
				Name:   "dump",
				Usage:  "Print every ledger line",
				Action: r.LedgerDump,
			},
			{
				Name:   "remove",
				Usage:  "Remove every entry for a song",
				Flags:  songFlags(),
				Action: r.LedgerRemove,
			},
			{
				Name:  "export",
				Usage: "Export the backlog as txt, csv, markdown or json",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format (txt, csv, markdown, json)",
						Value:   "markdown",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: unsupported_{epoch}.{ext})",
					},
					&cli.BoolFlag{
						Name:  "stdout",
						Usage: "Write to stdout instead of a file",
					},
				},
				Action: r.LedgerExport,
			},
			{
				Name:  "sweep",
				Usage: "Re-resolve pending songs and clear the ones that now have a stripper",
				Flags: append(sweepFlags(), &cli.BoolFlag{
					Name:  "json",
					Usage: "Output raw JSON",
				}),
				Action: r.LedgerSweep,
			},
			{
				Name:    "browse",
				Aliases: []string{"ui", "tui"},
				Usage:   "Browse the backlog interactively",
				Flags:   sweepFlags(),
				Action:  r.LedgerBrowse,
			},
		},
	}
}

// stripperCommand handles stored strippers
func stripperCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stripper",
		Usage: "Look up and store strippers",
		Commands: []*cli.Command{
			{
				Name:   "get",
				Usage:  "Resolve the stripper for a song",
				Flags:  songFlags(),
				Action: r.StripperGet,
			},
			{
				Name:  "add",
				Usage: "Store a confirmed stripper and clear the song from the ledger",
				Flags: append(songFlags(), &cli.StringFlag{
					Name:  "stripper",
					Usage: "Lyrics page slug, e.g. Kendrick-lamar-humble",
				}),
				Action: r.StripperAdd,
			},
			{
				Name:  "list",
				Usage: "List stored strippers",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Only list this artist",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.StripperList,
			},
		},
	}
}
