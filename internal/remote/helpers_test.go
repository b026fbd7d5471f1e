package remote

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

// fakeGitHub is an in-memory GitHubClient. While failures is positive each
// call fails with a 503 and decrements it.
type fakeGitHub struct {
	mu       sync.Mutex
	commits  map[string]*Commit
	patches  map[string]string
	gists    map[string]*Gist
	urls     map[string]string
	calls    map[string]int
	failures int
	nextID   int
}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{
		commits: make(map[string]*Commit),
		patches: make(map[string]string),
		gists:   make(map[string]*Gist),
		urls:    make(map[string]string),
		calls:   make(map[string]int),
	}
}

func (f *fakeGitHub) enter(op string) error {
	f.calls[op]++
	if f.failures > 0 {
		f.failures--
		return &RemoteError{Status: http.StatusServiceUnavailable, Message: "unavailable"}
	}
	return nil
}

func (f *fakeGitHub) GetCommit(_ context.Context, _, rev string) (*Commit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetCommit"); err != nil {
		return nil, err
	}
	c, ok := f.commits[rev]
	if !ok {
		return nil, &RemoteError{Status: http.StatusNotFound, Message: "No commit found for SHA: " + rev}
	}
	return c, nil
}

func (f *fakeGitHub) GetPatch(_ context.Context, _, rev string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetPatch"); err != nil {
		return "", err
	}
	p, ok := f.patches[rev]
	if !ok {
		return "", &RemoteError{Status: http.StatusNotFound, Message: "HTTP 404"}
	}
	return p, nil
}

func (f *fakeGitHub) ListGists(_ context.Context) ([]*Gist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListGists"); err != nil {
		return nil, err
	}
	var out []*Gist
	for _, g := range f.gists {
		// the list endpoint omits contents
		out = append(out, &Gist{ID: g.ID, Description: g.Description, Public: g.Public, HTMLURL: g.HTMLURL})
	}
	return out, nil
}

func (f *fakeGitHub) GetGist(_ context.Context, id string) (*Gist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetGist"); err != nil {
		return nil, err
	}
	g, ok := f.gists[id]
	if !ok {
		return nil, &RemoteError{Status: http.StatusNotFound, Message: "Not Found"}
	}
	return g, nil
}

func (f *fakeGitHub) CreateGist(_ context.Context, gist *Gist) (*Gist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateGist"); err != nil {
		return nil, err
	}
	f.nextID++
	id := fmt.Sprintf("g%d", f.nextID)
	g := &Gist{
		ID:          id,
		Description: gist.Description,
		Public:      gist.Public,
		HTMLURL:     "https://gist.github.com/" + id,
		Files:       make(map[string]*GistFile),
	}
	for name, file := range gist.Files {
		g.Files[name] = &GistFile{Filename: name, Content: file.Content}
	}
	f.gists[id] = g
	return g, nil
}

func (f *fakeGitHub) EditGist(_ context.Context, id string, gist *Gist) (*Gist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("EditGist"); err != nil {
		return nil, err
	}
	g, ok := f.gists[id]
	if !ok {
		return nil, &RemoteError{Status: http.StatusNotFound, Message: "Not Found"}
	}
	for name, file := range gist.Files {
		g.Files[name] = &GistFile{Filename: name, Content: file.Content}
	}
	return g, nil
}

func (f *fakeGitHub) FetchURL(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("FetchURL"); err != nil {
		return "", err
	}
	text, ok := f.urls[url]
	if !ok {
		return "", &RemoteError{Status: http.StatusNotFound, Message: "HTTP 404"}
	}
	return text, nil
}
