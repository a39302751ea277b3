package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func tidyCommand() *cli.Command {
	return &cli.Command{
		Name:  "tidy",
		Usage: "forget files no longer in the file set and clean up interrupted writes",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "remove-files",
				Usage: "also delete data files that are no longer required",
			},
		},
		Action: tidyAction,
	}
}

func tidyAction(_ context.Context, cmd *cli.Command) error {
	if err := noArgs(cmd); err != nil {
		return err
	}

	fs, _, err := loadFileSet(cmd)
	if err != nil {
		return err
	}
	s, err := openStore(cmd)
	if err != nil {
		return err
	}

	lck := s.Lock()
	ok, err := lck.TryAcquire()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s is held by another run; try again once it finishes", lck.Path())
	}
	defer func() {
		if err := lck.Release(); err != nil {
			newLogger(cmd).Error("release lock", "lock", lck.Path(), "err", err)
		}
	}()

	res, err := s.Tidy(fs.Names(), cmd.Bool("remove-files"))
	if err != nil {
		return err
	}

	fmt.Printf("forgot %d record(s), removed %d file(s) and %d partial download(s)\n",
		len(res.RemovedEntries), len(res.RemovedFiles), len(res.RemovedPartial))
	printNames(isVerbose(cmd), "changed paths", res.ChangedPaths)
	return nil
}
