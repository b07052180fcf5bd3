// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   defaultConfigPath,
	}
}

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

func idArg() cli.Argument {
	return &cli.StringArg{Name: "id", UsageText: "entry id as shown by 'vibelist show'"}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and initialize the draft database",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "auth",
		Usage:  "Authenticate with Spotify using OAuth2",
		Action: r.AuthLogin,
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Open the browser and store the Spotify token",
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show the authenticated Spotify user",
				Flags:  jsonFlags(),
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored Spotify token",
				Action: r.AuthLogout,
			},
		},
	}
}

func newCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "new",
		Usage:     "Start a new empty draft playlist",
		Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
		Action:    r.NewDraft,
	}
}

func draftsCommand(r *Runner) *cli.Command {
	number := func() []cli.Argument {
		return []cli.Argument{&cli.StringArg{Name: "number", UsageText: "draft number as shown by 'vibelist drafts'"}}
	}
	return &cli.Command{
		Name:   "drafts",
		Usage:  "List stored drafts",
		Flags:  jsonFlags(),
		Action: r.Drafts,
		Commands: []*cli.Command{
			{
				Name:      "use",
				Usage:     "Make a draft the active one",
				Arguments: number(),
				Action:    r.UseDraft,
			},
			{
				Name:      "delete",
				Usage:     "Delete a draft",
				Arguments: number(),
				Action:    r.DeleteDraft,
			},
		},
	}
}

func recommendCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "recommend",
		Aliases: []string{"rec"},
		Usage:   "Ask the recommendation source for tracks and append them to the draft",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "bpm", Usage: "Target tempo in BPM", Value: 120},
			&cli.StringFlag{Name: "mood", Usage: "Mood to aim for", Value: "energetic"},
			&cli.BoolFlag{Name: "vocals", Usage: "Allow tracks with vocals", Value: true},
			&cli.StringFlag{Name: "energy", Usage: "Energy range, e.g. medium-high"},
			&cli.StringFlag{Name: "genre", Usage: "Preferred genre"},
			&cli.StringFlag{Name: "seed-track", Usage: "Seed the recommendations with a track"},
			&cli.StringFlag{Name: "seed-artist", Usage: "Seed the recommendations with an artist"},
			&cli.StringFlag{Name: "seed-album", Usage: "Seed the recommendations with an album"},
			&cli.BoolFlag{Name: "validate", Usage: "Validate the new entries against Spotify right away"},
		},
		Action: r.Recommend,
	}
}

func addCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Append a track typed in by hand",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "title"},
			&cli.StringArg{Name: "artist"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "album", Usage: "Album name"},
			&cli.IntFlag{Name: "duration", Usage: "Duration in seconds"},
			&cli.StringFlag{Name: "track", Usage: "Add a Spotify track by id, already validated; title and artist are ignored"},
		},
		Action: r.Add,
	}
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the Spotify catalog",
		Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
		Flags: append([]cli.Flag{
			&cli.IntFlag{Name: "limit", Usage: "Maximum number of results", Value: 10},
			&cli.StringFlag{Name: "genre", Usage: "Restrict results to a genre"},
			&cli.IntFlag{Name: "year-from", Usage: "Earliest release year"},
			&cli.IntFlag{Name: "year-to", Usage: "Latest release year"},
			&cli.IntFlag{Name: "add", Usage: "Append result N (1-based) to the draft as already validated"},
		}, jsonFlags()...),
		Action: r.Search,
	}
}

func validateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Match draft entries against the Spotify catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Usage: "Validate a single entry, resetting it first if already settled"},
			&cli.BoolFlag{Name: "all", Usage: "Validate every unvalidated entry (default)"},
			&cli.IntFlag{Name: "concurrency", Usage: "Searches in flight; overrides [reconcile] concurrency"},
		},
		Action: r.Validate,
	}
}

func selectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "select",
		Usage: "Resolve an entry that needs selection to one of its candidates",
		Arguments: []cli.Argument{
			idArg(),
			&cli.StringArg{Name: "candidate", UsageText: "candidate id or 1-based position"},
		},
		Action: r.Select,
	}
}

func skipCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "skip",
		Usage:     "Decline every candidate of an entry",
		Arguments: []cli.Argument{idArg()},
		Action:    r.Skip,
	}
}

func resetCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "reset",
		Usage:     "Return a settled entry to unvalidated",
		Arguments: []cli.Argument{idArg()},
		Action:    r.Reset,
	}
}

func removeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Aliases:   []string{"rm"},
		Usage:     "Remove an entry from the draft",
		Arguments: []cli.Argument{idArg()},
		Action:    r.Remove,
	}
}

func moveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "move",
		Usage: "Move an entry to a 1-based position",
		Arguments: []cli.Argument{
			idArg(),
			&cli.StringArg{Name: "position"},
		},
		Action: r.Move,
	}
}

func renameCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "rename",
		Usage:     "Set the draft playlist name",
		Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
		Action:    r.Rename,
	}
}

func showCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Print or export the draft playlist",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, md, csv or json",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to a file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Write to {playlist-name}.{ext}",
			},
			&cli.StringFlag{
				Name:  "id",
				Usage: "Show one entry with its candidates",
			},
		},
		Action: r.Show,
	}
}

func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlists",
		Usage: "List your Spotify playlists",
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of playlists to print",
			},
		}, jsonFlags()...),
		Action: r.Playlists,
	}
}

func pickCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "pick",
		Usage: "Choose matches interactively for entries that need selection",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the picker is open",
				Value: "vibelist-pick.log",
			},
		},
		Action: r.Pick,
	}
}

func saveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "save",
		Usage: "Create the draft as a Spotify playlist",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "public", Usage: "Make the playlist public"},
		},
		Action: r.SavePlaylist,
	}
}
