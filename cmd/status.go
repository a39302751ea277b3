package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "show the state of the data directory",
		Action: statusAction,
	}
}

func statusAction(_ context.Context, cmd *cli.Command) error {
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

	snapshot, err := s.Status(fs.Names(), requestFor(fs).Fingerprint())
	if err != nil {
		return err
	}

	label := fs.Source.Name
	if label == "" {
		label = fs.Source.URL
	}
	if label != "" {
		fmt.Printf("Source %s\n", label)
	}
	fmt.Printf("Data directory %s\n", snapshot.Root)

	switch {
	case snapshot.Complete():
		fmt.Printf("Marker: %s\n", okLabel("complete"))
	case snapshot.MarkerCurrent:
		fmt.Printf("Marker: %s (files missing)\n", warnLabel("stale"))
	case snapshot.MarkerPresent:
		fmt.Printf("Marker: %s (written for a different file set)\n", warnLabel("stale"))
	default:
		fmt.Printf("Marker: %s\n", warnLabel("absent"))
	}
	if snapshot.LockHeld {
		fmt.Printf("Lock: %s (another run is in progress, or a crashed run left it behind)\n", warnLabel("held"))
	} else {
		fmt.Printf("Lock: %s\n", okLabel("free"))
	}
	if snapshot.ManifestError != nil {
		fmt.Printf("Manifest: %s %v\n", errLabel("damaged"), snapshot.ManifestError)
	}

	fmt.Println()
	lines := make([]string, 0, len(snapshot.Files))
	for _, f := range snapshot.Files {
		switch {
		case !f.Present:
			lines = append(lines, fmt.Sprintf("%s  %s", errLabel("M"), f.Name))
		case f.Drifted:
			lines = append(lines, fmt.Sprintf("%s  %s (%d bytes, recorded %d)", warnLabel("!"), f.Name, f.Size, f.RecordedSize))
		case f.Recorded:
			lines = append(lines, fmt.Sprintf("%s  %s", okLabel("R"), f.Name))
		default:
			lines = append(lines, fmt.Sprintf("%s  %s (not recorded)", warnLabel("?"), f.Name))
		}
	}
	printSection("Required files:", lines)

	if len(snapshot.Untracked) > 0 {
		fmt.Println()
		printSection("Recorded but not required:", snapshot.Untracked)
	}
	return nil
}
