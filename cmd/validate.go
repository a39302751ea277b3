package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/olimci/lakeprep/pkg/fileset"
	"github.com/urfave/cli/v3"
)

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "validate a file set without touching the data directory",
		ArgsUsage: "[file set]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "tree",
				Usage: "print the resolved import tree",
			},
		},
		Action: validateAction,
	}
}

func validateAction(_ context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) > 1 {
		return fmt.Errorf("validate accepts at most one optional file set argument")
	}
	path := globalString(cmd, "config")
	if len(args) == 1 {
		path = args[0]
	}

	fs, dir, tree, err := fileset.LoadWithTree(path)
	if err != nil {
		return err
	}

	name := fs.Source.Name
	if name == "" {
		name = filepath.Base(dir)
	}
	fmt.Printf("%s %s (%d file(s), %d with a known digest)\n", okLabel("validated"), name, len(fs.Files), len(fs.Expected()))
	if cmd.Bool("tree") {
		fmt.Println("resolved import tree:")
		printImportTree(tree, dir, "", true)
	}
	return nil
}

func printImportTree(tree fileset.ImportTree, rootDir, prefix string, isLast bool) {
	label := formatTreeLabel(tree.Path, rootDir)
	if prefix == "" {
		fmt.Printf("- %s\n", label)
	} else {
		branch := "|- "
		if isLast {
			branch = "`- "
		}
		fmt.Printf("%s%s%s\n", prefix, branch, label)
	}

	nextPrefix := "   "
	if prefix != "" {
		nextPrefix = prefix + "|  "
		if isLast {
			nextPrefix = prefix + "   "
		}
	}

	for i, child := range tree.Imports {
		printImportTree(child, rootDir, nextPrefix, i == len(tree.Imports)-1)
	}
}

func formatTreeLabel(path, rootDir string) string {
	if canonical, err := filepath.EvalSymlinks(rootDir); err == nil {
		rootDir = canonical
	}
	rel, err := filepath.Rel(rootDir, path)
	if err == nil {
		rel = filepath.ToSlash(rel)
		if rel != ".." && !strings.HasPrefix(rel, "../") {
			return rel
		}
	}
	return path
}
