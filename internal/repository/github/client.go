// Package github implements repository.FileStore on top of GitHub's REST
// contents API. Reads fetch a file at the configured branch; writes PUT the
// base64 payload together with the blob SHA, which GitHub uses to reject
// stale updates.
//
// Connection settings come from a config.Source on every call, so a missing
// owner, repository or token fails the operation with a ConfigError before
// any request is sent.
package github

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/config"
)

const apiVersion = "2022-11-28"

// Client is a GitHub contents API client. It holds no per-request state and
// is safe for concurrent use.
type Client struct {
	settings config.Source
	base     http.RoundTripper
	logger   *slog.Logger
}

// New creates a Client that resolves its settings from src.
func New(src config.Source, logger *slog.Logger) *Client {
	return NewWithTransport(src, http.DefaultTransport, logger)
}

// NewWithTransport is New with an explicit base transport underneath the
// bearer-token transport.
func NewWithTransport(src config.Source, base http.RoundTripper, logger *slog.Logger) *Client {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Client{settings: src, base: base, logger: logger}
}

// session is one resolved set of settings plus an authenticated HTTP client.
type session struct {
	gh   config.GitHub
	http *http.Client
}

// session resolves and validates settings. It never touches the network.
func (c *Client) session() (*session, error) {
	cfg, err := c.settings()
	if err != nil {
		return nil, err
	}
	if err := cfg.GitHub.Validate(); err != nil {
		return nil, err
	}

	// oauth2.Transport adds "Authorization: Bearer <token>" to every request.
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.GitHub.Token})
	return &session{
		gh: cfg.GitHub,
		http: &http.Client{
			Transport: &oauth2.Transport{Source: src, Base: c.base},
		},
	}, nil
}

// do executes the request with standard GitHub headers.
func (s *session) do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/vnd.github+json")
	}
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if req.Header.Get("Content-Type") == "" && req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.http.Do(req)
}

// url builds an API URL. Each segment is escaped on its own so slashes
// inside a file path are kept.
func (s *session) url(parts ...string) string {
	escaped := make([]string, 0, len(parts))
	for _, part := range parts {
		for _, seg := range strings.Split(strings.Trim(part, "/"), "/") {
			if seg != "" {
				escaped = append(escaped, url.PathEscape(seg))
			}
		}
	}
	return s.gh.APIBase + "/" + strings.Join(escaped, "/")
}

func (s *session) contentsURL(path string) string {
	return s.url("repos", s.gh.Owner, s.gh.Repo, "contents", path)
}

// encodeJSON marshals body for a request.
func encodeJSON(body any) (io.Reader, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

// checkStatus returns a typed error for non-2xx responses.
func checkStatus(resp *http.Response, path string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	switch resp.StatusCode {
	case http.StatusNotFound:
		return apperror.NotFound("file", path)
	case http.StatusConflict:
		return apperror.Conflict("file", path)
	case http.StatusUnprocessableEntity:
		// GitHub answers 422 "sha wasn't supplied" when the file appeared
		// after we saw it missing.
		if bytes.Contains(body, []byte("sha")) {
			return apperror.Conflict("file", path)
		}
	}
	return apperror.Upstream(resp.StatusCode, string(body))
}

func requestError(op, path string, err error) error {
	return fmt.Errorf("github: %s %s: %w", op, path, err)
}
