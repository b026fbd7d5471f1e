// Package config loads gitnotify settings from a TOML file, a .env file,
// and the environment of a GitHub Actions run.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFile = ".gitnotify.toml"
	DefaultEnvFile    = ".env"
	DefaultDatabase   = ".gitnotify/checkpoints.db"

	BackendGist   = "gist"
	BackendSQLite = "sqlite"
)

// Config represents the gitnotify configuration
type Config struct {
	Repository  string `toml:"repository"`
	Ref         string `toml:"ref"`
	Revision    string `toml:"revision,omitempty"`
	Workflow    string `toml:"workflow,omitempty"`
	Actor       string `toml:"actor,omitempty"`
	Template    string `toml:"template"`
	Concurrency int    `toml:"concurrency,omitempty"`

	GitHub     GitHubConfig     `toml:"github"`
	SMTP       SMTPConfig       `toml:"smtp"`
	Checkpoint CheckpointConfig `toml:"checkpoint"`
	Log        LogConfig        `toml:"log"`

	path string
}

// GitHubConfig holds API access settings.
type GitHubConfig struct {
	Token  string `toml:"token,omitempty"`
	APIURL string `toml:"api_url,omitempty"`
	WebURL string `toml:"web_url,omitempty"`
}

// SMTPConfig holds mail delivery settings.
type SMTPConfig struct {
	Host      string   `toml:"host"`
	Port      int      `toml:"port"`
	Username  string   `toml:"username,omitempty"`
	Password  string   `toml:"password,omitempty"`
	From      string   `toml:"from"`
	To        []string `toml:"to"`
	TLSPolicy string   `toml:"tls_policy,omitempty"`
	Timeout   string   `toml:"timeout,omitempty"`
}

// CheckpointConfig selects where checkpoints are kept.
type CheckpointConfig struct {
	Backend  string `toml:"backend"`
	Database string `toml:"database,omitempty"`
}

// LogConfig controls logger construction.
type LogConfig struct {
	Level  string `toml:"level,omitempty"`
	Format string `toml:"format,omitempty"`
}

// Default returns a configuration with every optional setting filled in.
func Default() *Config {
	return &Config{
		Concurrency: 4,
		SMTP: SMTPConfig{
			Port:      587,
			TLSPolicy: "mandatory",
			Timeout:   "30s",
		},
		Checkpoint: CheckpointConfig{
			Backend:  BackendGist,
			Database: DefaultDatabase,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "actions",
		},
		path: DefaultConfigFile,
	}
}

// Load builds the configuration. The file at path is read first; an empty
// path reads DefaultConfigFile if it exists. Variables from DefaultEnvFile
// are then added to the environment, and the environment overrides the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	cfg.path = path

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", DefaultEnvFile, err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnv overrides settings from environment variables. Names follow the
// GitHub Actions conventions for the workflow context and action inputs.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v, ok := lookup(name)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, v, err)
		}
		*dst = n
		return nil
	}

	str("GITHUB_REPOSITORY", &c.Repository)
	str("GITHUB_REF", &c.Ref)
	str("GITHUB_SHA", &c.Revision)
	str("GITHUB_WORKFLOW", &c.Workflow)
	str("GITHUB_ACTOR", &c.Actor)
	str("GITHUB_API_URL", &c.GitHub.APIURL)
	str("GITHUB_SERVER_URL", &c.GitHub.WebURL)

	str("INPUT_GITHUBTOKEN", &c.GitHub.Token)
	str("INPUT_TEMPLATE", &c.Template)
	str("INPUT_FROM", &c.SMTP.From)
	str("INPUT_SMTP", &c.SMTP.Host)
	str("INPUT_LOGIN", &c.SMTP.Username)
	str("INPUT_PASSWORD", &c.SMTP.Password)
	if err := num("INPUT_PORT", &c.SMTP.Port); err != nil {
		return err
	}
	if v, ok := lookup("INPUT_TO"); ok && v != "" {
		c.SMTP.To = SplitAddresses(v)
	}

	str("GITNOTIFY_API_URL", &c.GitHub.APIURL)
	str("GITNOTIFY_WEB_URL", &c.GitHub.WebURL)
	str("GITNOTIFY_TLS_POLICY", &c.SMTP.TLSPolicy)
	str("GITNOTIFY_SMTP_TIMEOUT", &c.SMTP.Timeout)
	str("GITNOTIFY_CHECKPOINT_BACKEND", &c.Checkpoint.Backend)
	str("GITNOTIFY_DATABASE", &c.Checkpoint.Database)
	str("GITNOTIFY_LOG_LEVEL", &c.Log.Level)
	str("GITNOTIFY_LOG_FORMAT", &c.Log.Format)
	return num("GITNOTIFY_CONCURRENCY", &c.Concurrency)
}

// SplitAddresses splits a comma-separated recipient list.
func SplitAddresses(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate reports every required setting that is missing or malformed.
func (c *Config) Validate() error {
	var missing []string
	require := func(name, v string) {
		if v == "" {
			missing = append(missing, name)
		}
	}

	require("repository", c.Repository)
	require("ref", c.Ref)
	require("revision", c.Revision)
	require("template", c.Template)
	require("smtp.host", c.SMTP.Host)
	require("smtp.from", c.SMTP.From)
	if len(c.SMTP.To) == 0 {
		missing = append(missing, "smtp.to")
	}

	var errs []error
	switch c.Checkpoint.Backend {
	case BackendGist:
		require("github.token", c.GitHub.Token)
		require("workflow", c.Workflow)
	case BackendSQLite:
		require("checkpoint.database", c.Checkpoint.Database)
	default:
		errs = append(errs, fmt.Errorf("unknown checkpoint.backend %q", c.Checkpoint.Backend))
	}

	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("missing required settings: %s", strings.Join(missing, ", ")))
	}
	if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid smtp.port %d", c.SMTP.Port))
	}
	if _, err := c.SMTPTimeout(); err != nil {
		errs = append(errs, err)
	}
	if c.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("invalid concurrency %d", c.Concurrency))
	}

	return errors.Join(errs...)
}

// SMTPTimeout parses the SMTP timeout; empty means no explicit timeout.
func (c *Config) SMTPTimeout() (time.Duration, error) {
	if c.SMTP.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.SMTP.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid smtp.timeout %q: %w", c.SMTP.Timeout, err)
	}
	return d, nil
}

// Path returns the file the configuration was loaded from or will be saved to.
func (c *Config) Path() string {
	return c.path
}

// SetPath changes the file Save writes to.
func (c *Config) SetPath(path string) {
	c.path = path
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// May hold SMTP credentials.
	return os.WriteFile(c.path, data, 0600)
}
