// Package cli implements the command-line interface for gitnotify.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kilupskalvis/gitnotify/internal/config"
	"github.com/kilupskalvis/gitnotify/internal/core"
	"github.com/kilupskalvis/gitnotify/internal/logging"
	"github.com/kilupskalvis/gitnotify/internal/remote"
	"github.com/kilupskalvis/gitnotify/internal/store"
)

var (
	flagConfig    string
	flagLogLevel  string
	flagLogFormat string
)

// cmdContext holds common resources for CLI commands
type cmdContext struct {
	Config      *config.Config
	Logger      *slog.Logger
	RunID       string
	GitHub      remote.GitHubClient
	Checkpoints core.CheckpointStore
	Store       *store.Store // set for the sqlite backend only
}

// Close releases resources held by cmdContext
func (c *cmdContext) Close() {
	if c.Store != nil {
		c.Store.Close()
	}
}

// initContext loads the configuration and builds the logger.
func initContext(cmd *cobra.Command) *cmdContext {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		exitError("%v", err)
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = flagLogLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format = flagLogFormat
	}

	runID := uuid.NewString()
	logger := logging.New(os.Stderr, logging.ParseLevel(cfg.Log.Level), cfg.Log.Format).
		With("run_id", runID)

	return &cmdContext{Config: cfg, Logger: logger, RunID: runID}
}

// initRemoteContext adds the GitHub client and the checkpoint backend.
func initRemoteContext(cmd *cobra.Command) *cmdContext {
	c := initContext(cmd)
	cfg := c.Config

	c.GitHub = remote.NewRetryClient(
		remote.NewHTTPClient(cfg.GitHub.APIURL, cfg.GitHub.WebURL, cfg.GitHub.Token),
		remote.DefaultRetryConfig(),
	)

	switch cfg.Checkpoint.Backend {
	case config.BackendSQLite:
		st, err := store.Open(cfg.Checkpoint.Database)
		if err != nil {
			exitError("failed to open checkpoint database: %v", err)
		}
		c.Store = st
		c.Checkpoints = st
	case config.BackendGist:
		if cfg.GitHub.Token == "" {
			exitError("the gist checkpoint backend needs a GitHub token")
		}
		c.Checkpoints = remote.NewGistCheckpointStore(c.GitHub, cfg.Repository, cfg.Workflow)
	default:
		exitError("unknown checkpoint backend %q", cfg.Checkpoint.Backend)
	}

	return c
}

var rootCmd = &cobra.Command{
	Use:   "gitnotify",
	Short: "Email notifications for pushed commits",
	Long: `gitnotify sends one HTML email per commit pushed to a branch since the
last run. It fetches each commit's patch from GitHub, renders it with a
template, and remembers the last notified commit between runs.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Config file (default "+config.DefaultConfigFile+" if present)")
	pf.StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	pf.StringVar(&flagLogFormat, "log-format", "actions", "Log format: actions, text, json")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(checkpointCmd)
	rootCmd.AddCommand(initCmd)
}

// exitError prints an error and exits
func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

// shortID returns first 8 characters of an ID
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
