package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/olimci/lakeprep/pkg/fetch"
	"github.com/olimci/lakeprep/pkg/provision"
	"github.com/olimci/lakeprep/pkg/session"
	"github.com/urfave/cli/v3"
)

func ensureCommand() *cli.Command {
	return &cli.Command{
		Name:  "ensure",
		Usage: "make sure every file of the file set is present and recorded",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "force-refresh",
				Aliases: []string{"f"},
				Usage:   "ignore the completion marker and re-run the locked resolve pass",
			},
			&cli.BoolFlag{
				Name:  "verify",
				Usage: "re-hash files that already have a manifest entry",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "how long to wait for another run holding the lock",
			},
			&cli.DurationFlag{
				Name:  "poll",
				Usage: "how often to check the lock while waiting",
			},
			&cli.StringFlag{
				Name:  "source",
				Usage: "base URL or mirror directory to download from (overrides [source] url)",
			},
		},
		Action: ensureAction,
	}
}

func ensureAction(ctx context.Context, cmd *cli.Command) error {
	if err := noArgs(cmd); err != nil {
		return err
	}

	fs, setDir, err := loadFileSet(cmd)
	if err != nil {
		return err
	}
	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	cfg, err := s.LoadConfig()
	if err != nil {
		return err
	}

	source := strings.TrimSpace(cmd.String("source"))
	if source == "" {
		source = fs.Source.URL
	}
	if source == "" {
		return fmt.Errorf("no data source: set [source] url in %s or pass --source", setDir)
	}

	logger := newLogger(cmd)
	downloader, err := fetch.New(source)
	if err != nil {
		return err
	}
	if h, ok := downloader.(*fetch.HTTP); ok {
		h.Logger = logger
	}
	logger.Debug("provisioning", "dir", s.Root, "source", source, "files", len(fs.Files))

	opts := []provision.Option{
		provision.WithLogger(logger),
		provision.WithConfig(cfg),
	}
	if cmd.IsSet("timeout") {
		opts = append(opts, provision.WithLockTimeout(cmd.Duration("timeout")))
	}
	if cmd.IsSet("poll") {
		opts = append(opts, provision.WithPollInterval(cmd.Duration("poll")))
	}
	if cmd.Bool("verify") {
		opts = append(opts, provision.WithVerify(true))
	}

	sess := session.New(provision.New(s, downloader, opts...), fs)
	if cmd.Bool("force-refresh") {
		sess.Reset()
	}

	err = sess.Initialize(ctx)
	res := sess.Result()
	if err != nil {
		fmt.Printf("%s %s\n", errLabel("failed"), res.Message)
		return err
	}

	fmt.Printf("%s %s in %s\n", okLabel("ok"), res.Message, s.Root)
	verbose := isVerbose(cmd)
	printNames(verbose, "downloaded", res.Downloaded)
	printNames(verbose, "registered", res.Registered)
	return nil
}
