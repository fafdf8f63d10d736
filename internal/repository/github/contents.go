package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/repository"
)

// fileContent is the GitHub Contents API response for a file.
type fileContent struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Path        string `json:"path"`
	SHA         string `json:"sha"`
	Size        int    `json:"size"`
	Encoding    string `json:"encoding"`
	Content     string `json:"content"`
	DownloadURL string `json:"download_url"`
}

type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha,omitempty"`
}

type putResponse struct {
	Content struct {
		Path        string `json:"path"`
		SHA         string `json:"sha"`
		DownloadURL string `json:"download_url"`
	} `json:"content"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

// Read fetches path at the configured branch.
//
// Files over 1 MB come back from the contents API with encoding "none" and
// no content; their bytes are then fetched from the git blobs API.
func (c *Client) Read(ctx context.Context, path string) (*repository.File, error) {
	s, err := c.session()
	if err != nil {
		return nil, err
	}
	return c.read(ctx, s, path)
}

func (c *Client) read(ctx context.Context, s *session, path string) (*repository.File, error) {
	u := s.contentsURL(path) + "?ref=" + url.QueryEscape(s.gh.Branch)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, requestError("read", path, err)
	}
	resp, err := s.do(req)
	if err != nil {
		return nil, requestError("read", path, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, path); err != nil {
		return nil, err
	}

	var fc fileContent
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, apperror.DecodeFailed(path, fmt.Errorf("contents response: %w", err))
	}
	if fc.Type != "" && fc.Type != "file" {
		return nil, apperror.DecodeFailed(path, fmt.Errorf("expected a file, got %s", fc.Type))
	}

	file := &repository.File{
		Path:        path,
		SHA:         fc.SHA,
		Size:        fc.Size,
		DownloadURL: fc.DownloadURL,
	}

	if fc.Encoding == "none" || (fc.Content == "" && fc.Size > 0) {
		data, err := c.rawBlob(ctx, s, path, fc.SHA)
		if err != nil {
			return nil, err
		}
		file.Content = data
		return file, nil
	}
	if fc.Encoding != "" && fc.Encoding != "base64" {
		return nil, apperror.DecodeFailed(path, fmt.Errorf("unexpected encoding %q", fc.Encoding))
	}

	// GitHub wraps base64 lines at 60 characters.
	cleaned := strings.ReplaceAll(fc.Content, "\n", "")
	data, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, apperror.DecodeFailed(path, err)
	}
	file.Content = data
	return file, nil
}

// rawBlob downloads a blob by SHA using the raw accept header.
func (c *Client) rawBlob(ctx context.Context, s *session, path, sha string) ([]byte, error) {
	u := s.url("repos", s.gh.Owner, s.gh.Repo, "git", "blobs", sha)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, requestError("read blob", path, err)
	}
	req.Header.Set("Accept", "application/vnd.github.raw")
	resp, err := s.do(req)
	if err != nil {
		return nil, requestError("read blob", path, err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp, path); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, requestError("read blob", path, err)
	}
	return data, nil
}

// Write commits content to path on the configured branch.
//
// With an empty expectedSHA the current SHA is read first; a missing file is
// created. A stale SHA makes GitHub answer 409, returned as ErrConflict.
func (c *Client) Write(ctx context.Context, path string, content []byte, message, expectedSHA string) (string, error) {
	s, err := c.session()
	if err != nil {
		return "", err
	}

	sha := expectedSHA
	if sha == "" {
		current, err := c.read(ctx, s, path)
		switch {
		case err == nil:
			sha = current.SHA
		case errors.Is(err, apperror.ErrNotFound):
			// create
		default:
			return "", err
		}
	}

	body, err := encodeJSON(putRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		Branch:  s.gh.Branch,
		SHA:     sha,
	})
	if err != nil {
		return "", requestError("write", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.contentsURL(path), body)
	if err != nil {
		return "", requestError("write", path, err)
	}
	resp, err := s.do(req)
	if err != nil {
		return "", requestError("write", path, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, path); err != nil {
		return "", err
	}

	var out putResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperror.DecodeFailed(path, fmt.Errorf("put response: %w", err))
	}

	c.logger.Debug("github commit created",
		slog.String("path", path),
		slog.String("sha", out.Content.SHA),
		slog.String("commit", out.Commit.SHA),
	)
	return out.Content.SHA, nil
}
