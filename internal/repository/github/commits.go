package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/repository"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100 // GitHub's per_page ceiling
)

var _ repository.HistoryReader = (*Client)(nil)

type commitEntry struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

// History lists the commits that touched path on the configured branch,
// newest first. GitHub's commit list does not carry the file's blob SHA,
// so Commit.SHA is left empty and Commit.ID is the commit SHA.
func (c *Client) History(ctx context.Context, path string, limit int) ([]repository.Commit, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	limit = min(limit, maxHistoryLimit)

	s, err := c.session()
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("path", path)
	q.Set("per_page", strconv.Itoa(limit))
	if s.gh.Branch != "" {
		q.Set("sha", s.gh.Branch)
	}
	u := s.url("repos", s.gh.Owner, s.gh.Repo, "commits") + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, requestError("history", path, err)
	}
	resp, err := s.do(req)
	if err != nil {
		return nil, requestError("history", path, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, path); err != nil {
		return nil, err
	}

	var entries []commitEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, apperror.DecodeFailed(path, fmt.Errorf("commits response: %w", err))
	}

	commits := make([]repository.Commit, 0, len(entries))
	for _, e := range entries {
		// Only the subject line; bodies are rare and noisy in a listing.
		message, _, _ := strings.Cut(e.Commit.Message, "\n")
		commits = append(commits, repository.Commit{
			ID:        e.SHA,
			Path:      path,
			Message:   message,
			CreatedAt: e.Commit.Author.Date,
		})
	}
	return commits, nil
}
