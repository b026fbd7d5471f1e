package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultAPIURL = "https://api.github.com"
	DefaultWebURL = "https://github.com"

	gistsPerPage = 100
	userAgent    = "gitnotify/1.0"
)

// GitHubClient defines the GitHub operations the notifier depends on.
type GitHubClient interface {
	GetCommit(ctx context.Context, repo, rev string) (*Commit, error)
	GetPatch(ctx context.Context, repo, rev string) (string, error)

	ListGists(ctx context.Context) ([]*Gist, error)
	GetGist(ctx context.Context, id string) (*Gist, error)
	CreateGist(ctx context.Context, gist *Gist) (*Gist, error)
	EditGist(ctx context.Context, id string, gist *Gist) (*Gist, error)

	FetchURL(ctx context.Context, url string) (string, error)
}

// HTTPClient implements GitHubClient over the GitHub REST API and web host.
type HTTPClient struct {
	apiURL     string
	webURL     string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a GitHub client. Empty URLs fall back to github.com.
func NewHTTPClient(apiURL, webURL, token string) *HTTPClient {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if webURL == "" {
		webURL = DefaultWebURL
	}
	return &HTTPClient{
		apiURL:     strings.TrimSuffix(apiURL, "/"),
		webURL:     strings.TrimSuffix(webURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *HTTPClient) apiPath(format string, args ...interface{}) string {
	return c.apiURL + fmt.Sprintf(format, args...)
}

// do sends a request. The token is only attached to API requests.
func (c *HTTPClient) do(ctx context.Context, method, url string, body io.Reader, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	if c.token != "" && strings.HasPrefix(url, c.apiURL) {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}

	return resp, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, url string, reqBody, respBody interface{}) error {
	var body io.Reader
	headers := map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": "2022-11-28",
	}

	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
		headers["Content-Type"] = "application/json"
	}

	resp, err := c.do(ctx, method, url, body, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if respBody != nil {
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

func (c *HTTPClient) getText(ctx context.Context, url string) (string, error) {
	resp, err := c.do(ctx, "GET", url, nil, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", decodeError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return string(data), nil
}

// GetCommit returns a commit and its parents.
func (c *HTTPClient) GetCommit(ctx context.Context, repo, rev string) (*Commit, error) {
	var commit Commit
	if err := c.doJSON(ctx, "GET", c.apiPath("/repos/%s/commits/%s", repo, rev), nil, &commit); err != nil {
		return nil, fmt.Errorf("get commit %s: %w", rev, err)
	}
	return &commit, nil
}

// GetPatch downloads the mbox patch of a commit from the web host.
func (c *HTTPClient) GetPatch(ctx context.Context, repo, rev string) (string, error) {
	url := fmt.Sprintf("%s/%s/commit/%s.patch", c.webURL, repo, rev)
	patch, err := c.getText(ctx, url)
	if err != nil {
		return "", fmt.Errorf("get patch %s: %w", rev, err)
	}
	return patch, nil
}

// ListGists returns all gists of the authenticated user, without file contents.
func (c *HTTPClient) ListGists(ctx context.Context) ([]*Gist, error) {
	var all []*Gist
	for page := 1; ; page++ {
		var gists []*Gist
		url := c.apiPath("/gists?per_page=%d&page=%d", gistsPerPage, page)
		if err := c.doJSON(ctx, "GET", url, nil, &gists); err != nil {
			return nil, fmt.Errorf("list gists: %w", err)
		}
		all = append(all, gists...)
		if len(gists) < gistsPerPage {
			return all, nil
		}
	}
}

// GetGist returns a gist including file contents.
func (c *HTTPClient) GetGist(ctx context.Context, id string) (*Gist, error) {
	var gist Gist
	if err := c.doJSON(ctx, "GET", c.apiPath("/gists/%s", id), nil, &gist); err != nil {
		return nil, fmt.Errorf("get gist %s: %w", id, err)
	}
	return &gist, nil
}

// CreateGist creates a new gist.
func (c *HTTPClient) CreateGist(ctx context.Context, gist *Gist) (*Gist, error) {
	var created Gist
	if err := c.doJSON(ctx, "POST", c.apiPath("/gists"), gist, &created); err != nil {
		return nil, fmt.Errorf("create gist: %w", err)
	}
	return &created, nil
}

// EditGist updates the description and the given files of a gist.
func (c *HTTPClient) EditGist(ctx context.Context, id string, gist *Gist) (*Gist, error) {
	var edited Gist
	if err := c.doJSON(ctx, "PATCH", c.apiPath("/gists/%s", id), gist, &edited); err != nil {
		return nil, fmt.Errorf("edit gist %s: %w", id, err)
	}
	return &edited, nil
}

// FetchURL downloads an arbitrary document, such as a template.
func (c *HTTPClient) FetchURL(ctx context.Context, url string) (string, error) {
	text, err := c.getText(ctx, url)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	return text, nil
}

// RemoteError represents a non-2xx response.
type RemoteError struct {
	Message string
	Status  int
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error (%d): %s", e.Status, e.Message)
}

func decodeError(resp *http.Response) error {
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || errResp.Message == "" {
		return &RemoteError{
			Message: fmt.Sprintf("HTTP %d", resp.StatusCode),
			Status:  resp.StatusCode,
		}
	}

	return &RemoteError{
		Message: errResp.Message,
		Status:  resp.StatusCode,
	}
}
