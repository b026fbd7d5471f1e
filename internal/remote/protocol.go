// Package remote defines the GitHub API types and the client used to read
// commit history, download patches, and keep checkpoints in a gist.
package remote

// CommitRef points at a commit by hash.
type CommitRef struct {
	SHA string `json:"sha"`
}

// Commit is the subset of the GitHub commit resource the notifier reads.
type Commit struct {
	SHA     string      `json:"sha"`
	HTMLURL string      `json:"html_url,omitempty"`
	Parents []CommitRef `json:"parents"`
}

// ParentSHAs returns the parent hashes in order; the first is the first parent.
func (c *Commit) ParentSHAs() []string {
	shas := make([]string, 0, len(c.Parents))
	for _, p := range c.Parents {
		shas = append(shas, p.SHA)
	}
	return shas
}

// GistFile is a single file of a gist.
type GistFile struct {
	Filename  string `json:"filename,omitempty"`
	Content   string `json:"content"`
	RawURL    string `json:"raw_url,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
}

// Gist is a GitHub gist. The list endpoint omits file contents.
type Gist struct {
	ID          string               `json:"id,omitempty"`
	Description string               `json:"description"`
	Public      bool                 `json:"public"`
	HTMLURL     string               `json:"html_url,omitempty"`
	Files       map[string]*GistFile `json:"files"`
}

// ErrorResponse is the error body returned by the GitHub API.
type ErrorResponse struct {
	Message          string `json:"message"`
	DocumentationURL string `json:"documentation_url,omitempty"`
}
