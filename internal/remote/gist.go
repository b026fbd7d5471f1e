package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrTooManyGists is returned when more than one private gist carries the
// checkpoint description.
var ErrTooManyGists = errors.New("too many private checkpoint gists")

// GistCheckpointStore keeps checkpoints as files of a single private gist,
// identified by its description.
type GistCheckpointStore struct {
	client      GitHubClient
	description string
}

// GistDescription returns the description identifying the checkpoint gist
// of a repository and workflow.
func GistDescription(repo, workflow string) string {
	return fmt.Sprintf("GitNotifier action info for %s/%s", repo, workflow)
}

// NewGistCheckpointStore creates a gist-backed checkpoint store.
func NewGistCheckpointStore(client GitHubClient, repo, workflow string) *GistCheckpointStore {
	return &GistCheckpointStore{client: client, description: GistDescription(repo, workflow)}
}

// find returns the checkpoint gist, or nil if none exists yet.
func (s *GistCheckpointStore) find(ctx context.Context) (*Gist, error) {
	gists, err := s.client.ListGists(ctx)
	if err != nil {
		return nil, err
	}

	var matches []*Gist
	for _, g := range gists {
		if !g.Public && g.Description == s.description {
			matches = append(matches, g)
		}
	}

	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	}

	urls := make([]string, 0, len(matches))
	for _, g := range matches {
		urls = append(urls, g.HTMLURL)
	}
	return nil, fmt.Errorf("%w with description %q, delete all but one: %s",
		ErrTooManyGists, s.description, strings.Join(urls, ", "))
}

// GetCheckpoint returns the revision stored under key.
func (s *GistCheckpointStore) GetCheckpoint(ctx context.Context, key string) (string, bool, error) {
	g, err := s.find(ctx)
	if err != nil || g == nil {
		return "", false, err
	}

	full, err := s.client.GetGist(ctx, g.ID)
	if err != nil {
		return "", false, err
	}

	f, ok := full.Files[key]
	if !ok || f == nil {
		return "", false, nil
	}
	return strings.TrimSpace(f.Content), true, nil
}

// SetCheckpoint stores rev under key, creating the gist on first use.
func (s *GistCheckpointStore) SetCheckpoint(ctx context.Context, key, rev string) error {
	g, err := s.find(ctx)
	if err != nil {
		return err
	}

	update := &Gist{
		Description: s.description,
		Files:       map[string]*GistFile{key: {Content: rev}},
	}

	if g == nil {
		_, err = s.client.CreateGist(ctx, update)
		return err
	}

	_, err = s.client.EditGist(ctx, g.ID, update)
	return err
}
