package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func unlockCommand() *cli.Command {
	return &cli.Command{
		Name:  "unlock",
		Usage: "remove a lock left behind by a crashed run",
		Description: "The lock is advisory and never expires on its own. Only remove it " +
			"when no other lakeprep process is using the data directory.",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "yes",
				Usage: "confirm that no other run is in progress",
			},
		},
		Action: unlockAction,
	}
}

func unlockAction(_ context.Context, cmd *cli.Command) error {
	if err := noArgs(cmd); err != nil {
		return err
	}

	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	lck := s.Lock()

	held, err := lck.Held()
	if err != nil {
		return err
	}
	if !held {
		fmt.Printf("no lock in %s\n", s.Root)
		return nil
	}
	if !cmd.Bool("yes") {
		return fmt.Errorf("%s is held; pass --yes if no other run is in progress", lck.Path())
	}

	if err := lck.Release(); err != nil {
		return err
	}
	fmt.Printf("removed %s\n", lck.Path())
	return nil
}
