package remote

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"time"
)

// RetryConfig configures retry behavior for transient errors.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	JitterFraction float64 // 0.0 to 1.0
}

// DefaultRetryConfig returns sensible retry defaults.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		JitterFraction: 0.25,
	}
}

// RetryClient wraps a GitHubClient with automatic retry on transient errors.
type RetryClient struct {
	inner  GitHubClient
	config *RetryConfig
}

// NewRetryClient creates a RetryClient that wraps the given GitHubClient.
func NewRetryClient(inner GitHubClient, cfg *RetryConfig) *RetryClient {
	if cfg == nil {
		cfg = DefaultRetryConfig()
	}
	return &RetryClient{inner: inner, config: cfg}
}

// isTransient returns true for errors that are worth retrying.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Status >= 500 || re.Status == http.StatusTooManyRequests
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true // network errors are transient
}

// backoff computes the delay for the given attempt with jitter.
func (rc *RetryClient) backoff(attempt int) time.Duration {
	base := float64(rc.config.InitialBackoff) * math.Pow(2, float64(attempt))
	if base > float64(rc.config.MaxBackoff) {
		base = float64(rc.config.MaxBackoff)
	}
	jitter := base * rc.config.JitterFraction * (rand.Float64()*2 - 1)
	d := time.Duration(base + jitter)
	if d < 0 {
		d = 0
	}
	return d
}

// sleep waits for the given duration or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// retry executes fn with retry logic. Only retries transient errors.
func (rc *RetryClient) retry(ctx context.Context, operation string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= rc.config.MaxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isTransient(lastErr) {
			return lastErr
		}
		if attempt < rc.config.MaxRetries {
			d := rc.backoff(attempt)
			if err := sleep(ctx, d); err != nil {
				return fmt.Errorf("%s: %w (retry cancelled)", operation, lastErr)
			}
		}
	}
	return fmt.Errorf("%s: %w (after %d retries)", operation, lastErr, rc.config.MaxRetries)
}

// --- Delegate all GitHubClient methods through retry logic ---

func (rc *RetryClient) GetCommit(ctx context.Context, repo, rev string) (commit *Commit, err error) {
	err = rc.retry(ctx, "get commit", func() error {
		commit, err = rc.inner.GetCommit(ctx, repo, rev)
		return err
	})
	return
}

func (rc *RetryClient) GetPatch(ctx context.Context, repo, rev string) (patch string, err error) {
	err = rc.retry(ctx, "get patch", func() error {
		patch, err = rc.inner.GetPatch(ctx, repo, rev)
		return err
	})
	return
}

func (rc *RetryClient) ListGists(ctx context.Context) (gists []*Gist, err error) {
	err = rc.retry(ctx, "list gists", func() error {
		gists, err = rc.inner.ListGists(ctx)
		return err
	})
	return
}

func (rc *RetryClient) GetGist(ctx context.Context, id string) (gist *Gist, err error) {
	err = rc.retry(ctx, "get gist", func() error {
		gist, err = rc.inner.GetGist(ctx, id)
		return err
	})
	return
}

func (rc *RetryClient) CreateGist(ctx context.Context, gist *Gist) (*Gist, error) {
	// Creation is not idempotent; a retried request could leave duplicate gists.
	return rc.inner.CreateGist(ctx, gist)
}

func (rc *RetryClient) EditGist(ctx context.Context, id string, gist *Gist) (edited *Gist, err error) {
	err = rc.retry(ctx, "edit gist", func() error {
		edited, err = rc.inner.EditGist(ctx, id, gist)
		return err
	})
	return
}

func (rc *RetryClient) FetchURL(ctx context.Context, url string) (text string, err error) {
	err = rc.retry(ctx, "fetch url", func() error {
		text, err = rc.inner.FetchURL(ctx, url)
		return err
	})
	return
}
