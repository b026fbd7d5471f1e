package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kilupskalvis/gitnotify/internal/core"
	"github.com/kilupskalvis/gitnotify/internal/mail"
	"github.com/kilupskalvis/gitnotify/internal/remote"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Send notifications for new commits",
	Long: `Send one email per commit between the stored checkpoint and the current
revision, oldest first, then move the checkpoint to the last commit sent.

Settings come from the config file and the GitHub Actions environment
(GITHUB_REPOSITORY, GITHUB_REF, GITHUB_SHA, INPUT_* action inputs).`,
	Run: runRun,
}

var runDryRun bool

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false,
		"Write messages to stdout instead of sending them, and leave the checkpoint untouched")
}

// dryRunCheckpoints reads checkpoints but never moves them.
type dryRunCheckpoints struct {
	core.CheckpointStore
	c *cmdContext
}

func (d dryRunCheckpoints) SetCheckpoint(_ context.Context, key, rev string) error {
	d.c.Logger.Info("dry run, checkpoint not saved", "key", key, "rev", rev)
	return nil
}

func runRun(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := initRemoteContext(cmd)
	defer c.Close()

	cfg := c.Config
	if err := cfg.Validate(); err != nil {
		exitError("invalid configuration: %v", err)
	}

	logger := c.Logger.With("repo", cfg.Repository, "ref", cfg.Ref)
	if cfg.Actor != "" {
		logger = logger.With("actor", cfg.Actor)
	}

	tmpl, err := remote.FetchTemplate(ctx, c.GitHub, cfg.Template)
	if err != nil {
		exitError("failed to load template: %v", err)
	}

	var mailer core.Mailer
	checkpoints := c.Checkpoints
	if runDryRun {
		mailer = &mail.WriterMailer{From: cfg.SMTP.From, To: cfg.SMTP.To, W: os.Stdout}
		checkpoints = dryRunCheckpoints{CheckpointStore: c.Checkpoints, c: c}
	} else {
		timeout, _ := cfg.SMTPTimeout()
		mailer = mail.NewSMTPMailer(mail.Config{
			Host:      cfg.SMTP.Host,
			Port:      cfg.SMTP.Port,
			Username:  cfg.SMTP.Username,
			Password:  cfg.SMTP.Password,
			From:      cfg.SMTP.From,
			To:        cfg.SMTP.To,
			TLSPolicy: cfg.SMTP.TLSPolicy,
			Timeout:   timeout,
		}, logger)
	}

	history := remote.NewHistory(c.GitHub, cfg.Repository)
	notifier := core.NewNotifier(core.NotifierConfig{
		Repo:        cfg.Repository,
		Ref:         cfg.Ref,
		Revision:    cfg.Revision,
		Template:    tmpl,
		Concurrency: cfg.Concurrency,
	}, history, history, checkpoints, mailer, logger)

	res, err := notifier.Run(ctx)
	if err != nil {
		if res != nil && res.Sent > 0 {
			fmt.Fprintf(os.Stderr, "sent %d of %d notifications before failing\n", res.Sent, len(res.Revisions))
		}
		exitError("%v", err)
	}

	if res.UpToDate {
		color.New(color.FgYellow).Fprintf(os.Stderr, "Already notified about %s\n", shortID(cfg.Revision))
		return
	}

	green := color.New(color.FgGreen)
	if runDryRun {
		green.Fprintf(os.Stderr, "Rendered %d notification(s) (dry run)\n", res.Sent)
		return
	}
	green.Fprintf(os.Stderr, "Sent %d notification(s)", res.Sent)
	if res.PreviousRevision != "" {
		fmt.Fprintf(os.Stderr, " for %s..%s", shortID(res.PreviousRevision), shortID(cfg.Revision))
	}
	fmt.Fprintln(os.Stderr)
}
