package remote

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// History serves a repository's commit parents and patches to the notifier.
type History struct {
	client GitHubClient
	repo   string
}

// NewHistory creates a History for repo ("owner/name").
func NewHistory(client GitHubClient, repo string) *History {
	return &History{client: client, repo: repo}
}

// Parents returns the parent hashes of rev, first parent first.
func (h *History) Parents(ctx context.Context, rev string) ([]string, error) {
	commit, err := h.client.GetCommit(ctx, h.repo, rev)
	if err != nil {
		return nil, err
	}
	return commit.ParentSHAs(), nil
}

// FetchPatch returns the mbox patch of rev in repo.
func (h *History) FetchPatch(ctx context.Context, repo, rev string) (string, error) {
	return h.client.GetPatch(ctx, repo, rev)
}

// FetchTemplate loads a template from an http(s) URL or a local file.
func FetchTemplate(ctx context.Context, client GitHubClient, location string) (string, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return client.FetchURL(ctx, location)
	}

	data, err := os.ReadFile(location)
	if err != nil {
		return "", fmt.Errorf("read template: %w", err)
	}
	return string(data), nil
}
