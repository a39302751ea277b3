package cmd

import (
	"context"

	"github.com/olimci/lakeprep/pkg/version"
	"github.com/urfave/cli/v3"
)

// Commands:
// init
//   writes a default config.toml into the data directory
//
// ensure:
//   makes every file of the file set present and recorded in the data directory
//   - fast path: completion marker for this file set and all files present
//   - otherwise take .downloading.lock (waiting once for another run), resolve each
//     file in order, stop at the first failure, then write manifest and marker
//
// status
//   shows marker, lock and per-file state without locking or hashing
//
// verify
//   re-hashes recorded files and reports drift
//
// validate [file set]
//   checks a lakeprep.toml and its imports
//
// tidy [--remove-files]
//   forgets manifest records outside the file set, removes leftover partial downloads
//
// unlock
//   removes a .downloading.lock left behind by a crashed run

func Execute(ctx context.Context, args []string) error {
	app := &cli.Command{
		Name:    "lakeprep",
		Usage:   "provision shared data files before they are needed",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log each step, including lock waits",
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Aliases: []string{"d"},
				Usage:   "data directory (default $LAKEPREP_DATA_DIR, then the user cache directory)",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "lakeprep.toml or a directory containing one",
				Value:   ".",
			},
		},
		Commands: []*cli.Command{
			initCommand(),
			ensureCommand(),
			statusCommand(),
			verifyCommand(),
			validateCommand(),
			tidyCommand(),
			unlockCommand(),
			versionCommand(),
		},
	}

	return app.Run(ctx, args)
}
