package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/olimci/lakeprep/pkg/store"
	"github.com/urfave/cli/v3"
)

func initCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "create the data directory with a default config.toml",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "overwrite an existing config.toml",
			},
		},
		Action: initAction,
	}
}

func initAction(_ context.Context, cmd *cli.Command) error {
	if err := noArgs(cmd); err != nil {
		return err
	}

	s, err := openStore(cmd)
	if err != nil {
		return err
	}

	if _, err := os.Stat(s.ConfigPath()); err == nil && !cmd.Bool("force") {
		return fmt.Errorf("%s already exists", s.ConfigPath())
	}

	if err := s.EnsureDir(); err != nil {
		return err
	}
	if err := s.SaveConfig(store.DefaultConfig()); err != nil {
		return err
	}

	fmt.Printf("initialized lakeprep data directory in %s\n", s.Root)
	return nil
}
