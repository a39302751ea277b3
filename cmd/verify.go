package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:   "verify",
		Usage:  "re-hash recorded files and report any that changed",
		Action: verifyAction,
	}
}

func verifyAction(_ context.Context, cmd *cli.Command) error {
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

	results, err := s.Verify(fs.Names())
	if err != nil {
		return err
	}
	expected := fs.Expected()

	var problems int
	for _, res := range results {
		switch {
		case res.Missing:
			problems++
			fmt.Printf("%s  %s\n", errLabel("missing"), res.Name)
		case res.Drifted:
			problems++
			fmt.Printf("%s  %s\n", errLabel("changed"), res.Name)
			if isVerbose(cmd) {
				fmt.Printf("         recorded %s\n         actual   %s\n", res.Expected, res.Actual)
			}
		case expected[res.Name].String() != "" && expected[res.Name].String() != res.Actual:
			problems++
			fmt.Printf("%s  %s (expected %s)\n", errLabel("mismatch"), res.Name, expected[res.Name])
		case !res.Recorded:
			fmt.Printf("%s  %s (not recorded)\n", warnLabel("unknown"), res.Name)
		default:
			fmt.Printf("%s  %s\n", okLabel("ok"), res.Name)
		}
	}

	if problems > 0 {
		return fmt.Errorf("%d of %d file(s) failed verification; run lakeprep ensure --verify to repair", problems, len(results))
	}
	return nil
}
