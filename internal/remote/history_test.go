package remote

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_Parents(t *testing.T) {
	fake := newFakeGitHub()
	fake.commits["m"] = &Commit{SHA: "m", Parents: []CommitRef{{SHA: "p1"}, {SHA: "p2"}}}
	fake.commits["root"] = &Commit{SHA: "root"}
	h := NewHistory(fake, "octo/repo")

	parents, err := h.Parents(context.Background(), "m")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, parents)

	parents, err = h.Parents(context.Background(), "root")
	require.NoError(t, err)
	assert.Empty(t, parents)
}

func TestHistory_UnknownCommit(t *testing.T) {
	h := NewHistory(newFakeGitHub(), "octo/repo")

	_, err := h.Parents(context.Background(), "nope")
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 404, re.Status)
}

func TestHistory_FetchPatch(t *testing.T) {
	fake := newFakeGitHub()
	fake.patches["abc"] = "From abc Mon Sep 17 00:00:00 2001\n"
	h := NewHistory(fake, "octo/repo")

	patch, err := h.FetchPatch(context.Background(), "octo/repo", "abc")
	require.NoError(t, err)
	assert.Equal(t, "From abc Mon Sep 17 00:00:00 2001\n", patch)
}

func TestFetchTemplate_URL(t *testing.T) {
	fake := newFakeGitHub()
	fake.urls["https://example.com/t.html"] = "<p>$diff</p>"

	text, err := FetchTemplate(context.Background(), fake, "https://example.com/t.html")
	require.NoError(t, err)
	assert.Equal(t, "<p>$diff</p>", text)
}

func TestFetchTemplate_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.html")
	require.NoError(t, os.WriteFile(path, []byte("<b>$title</b>$diff"), 0o644))

	text, err := FetchTemplate(context.Background(), newFakeGitHub(), path)
	require.NoError(t, err)
	assert.Equal(t, "<b>$title</b>$diff", text)
}

func TestFetchTemplate_MissingFile(t *testing.T) {
	_, err := FetchTemplate(context.Background(), newFakeGitHub(), filepath.Join(t.TempDir(), "none.html"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
