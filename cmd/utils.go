package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/olimci/lakeprep/pkg/fileset"
	"github.com/olimci/lakeprep/pkg/provision"
	"github.com/olimci/lakeprep/pkg/store"
	"github.com/urfave/cli/v3"
)

func isVerbose(cmd *cli.Command) bool {
	if cmd == nil {
		return false
	}
	if cmd.Bool("verbose") {
		return true
	}
	root := cmd.Root()
	return root != nil && root.Bool("verbose")
}

// globalString reads a flag declared on the root command.
func globalString(cmd *cli.Command, name string) string {
	if root := cmd.Root(); root != nil {
		return root.String(name)
	}
	return cmd.String(name)
}

func newLogger(cmd *cli.Command) *log.Logger {
	level := log.InfoLevel
	if isVerbose(cmd) {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		Prefix:          "lakeprep",
		ReportTimestamp: isVerbose(cmd),
	})
}

func openStore(cmd *cli.Command) (store.Store, error) {
	return store.Resolve(globalString(cmd, "data-dir"))
}

func loadFileSet(cmd *cli.Command) (fileset.FileSet, string, error) {
	fs, dir, err := fileset.Load(globalString(cmd, "config"))
	if err != nil {
		return fileset.FileSet{}, "", err
	}
	if len(fs.Files) == 0 {
		return fileset.FileSet{}, "", fmt.Errorf("file set in %s declares no files", dir)
	}
	return fs, dir, nil
}

func requestFor(fs fileset.FileSet) provision.Request {
	return provision.Request{
		Files:    fs.Names(),
		Expected: fs.Expected(),
	}
}

func noArgs(cmd *cli.Command) error {
	if cmd.Args().Len() > 0 {
		return fmt.Errorf("%s does not accept arguments", cmd.Name)
	}
	return nil
}
