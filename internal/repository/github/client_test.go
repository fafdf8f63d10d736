package github

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/config"
)

// =========================================================================
// FAKE GITHUB
// =========================================================================
//
// fakeGitHub implements just enough of the contents API for the client:
// GET/PUT /repos/{owner}/{repo}/contents/{path}, GET git/blobs/{sha} and
// GET commits?path=. PUT enforces the sha rules GitHub applies.

type fakeGitHub struct {
	mu       sync.Mutex
	files    map[string][]byte
	requests []*http.Request
	// bigFiles are served like GitHub serves files over 1 MB.
	bigFiles map[string]bool
	// failWith forces every request to return this status.
	failWith int
	commits  []fakeCommit
}

type fakeCommit struct {
	sha, path, message string
	date               time.Time
}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{files: map[string][]byte{}, bigFiles: map[string]bool{}}
}

func blobSHA(content []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func (f *fakeGitHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Clone(context.Background()))

	if f.failWith != 0 {
		http.Error(w, `{"message":"server exploded"}`, f.failWith)
		return
	}

	const contentsPrefix = "/repos/jane/content/contents/"
	const blobsPrefix = "/repos/jane/content/git/blobs/"

	switch {
	case r.URL.Path == "/repos/jane/content/commits":
		f.listCommits(w, r)

	case strings.HasPrefix(r.URL.Path, blobsPrefix):
		sha := strings.TrimPrefix(r.URL.Path, blobsPrefix)
		for _, data := range f.files {
			if blobSHA(data) == sha {
				w.Write(data)
				return
			}
		}
		http.NotFound(w, r)

	case strings.HasPrefix(r.URL.Path, contentsPrefix):
		path := strings.TrimPrefix(r.URL.Path, contentsPrefix)
		switch r.Method {
		case http.MethodGet:
			f.get(w, path)
		case http.MethodPut:
			f.put(w, r, path)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}

	default:
		http.NotFound(w, r)
	}
}

func (f *fakeGitHub) get(w http.ResponseWriter, path string) {
	data, ok := f.files[path]
	if !ok {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
		return
	}
	resp := map[string]any{
		"type": "file",
		"path": path,
		"sha":  blobSHA(data),
		"size": len(data),
	}
	if f.bigFiles[path] {
		resp["encoding"] = "none"
		resp["content"] = ""
	} else {
		// Wrap at 60 columns like GitHub does.
		enc := base64.StdEncoding.EncodeToString(data)
		var lines []string
		for len(enc) > 60 {
			lines = append(lines, enc[:60])
			enc = enc[60:]
		}
		lines = append(lines, enc)
		resp["encoding"] = "base64"
		resp["content"] = strings.Join(lines, "\n") + "\n"
	}
	json.NewEncoder(w).Encode(resp)
}

func (f *fakeGitHub) put(w http.ResponseWriter, r *http.Request, path string) {
	var body putRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	current, exists := f.files[path]
	switch {
	case exists && body.SHA == "":
		http.Error(w, `{"message":"Invalid request.\n\n\"sha\" wasn't supplied."}`, http.StatusUnprocessableEntity)
		return
	case exists && body.SHA != blobSHA(current):
		http.Error(w, `{"message":"`+path+` does not match `+body.SHA+`"}`, http.StatusConflict)
		return
	case !exists && body.SHA != "":
		http.Error(w, `{"message":"`+path+` does not match"}`, http.StatusConflict)
		return
	}

	data, err := base64.StdEncoding.DecodeString(body.Content)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.files[path] = data
	commitSHA := fmt.Sprintf("c0ffee%02d", len(f.commits))
	f.commits = append(f.commits, fakeCommit{
		sha:     commitSHA,
		path:    path,
		message: body.Message,
		date:    time.Date(2026, 1, 1, 0, len(f.commits), 0, 0, time.UTC),
	})

	status := http.StatusOK
	if !exists {
		status = http.StatusCreated
	}
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"content": map[string]any{"path": path, "sha": blobSHA(data)},
		"commit":  map[string]any{"sha": commitSHA},
	})
}

func (f *fakeGitHub) listCommits(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	out := []map[string]any{}
	for i := len(f.commits) - 1; i >= 0 && len(out) < perPage; i-- {
		c := f.commits[i]
		if c.path != path {
			continue
		}
		out = append(out, map[string]any{
			"sha": c.sha,
			"commit": map[string]any{
				"message": c.message,
				"author":  map[string]any{"date": c.date.Format(time.RFC3339)},
			},
		})
	}
	json.NewEncoder(w).Encode(out)
}

func (f *fakeGitHub) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// =========================================================================
// HELPERS
// =========================================================================

func newTestClient(t *testing.T, gh config.GitHub) (*Client, *fakeGitHub) {
	t.Helper()
	fake := newFakeGitHub()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	if gh.APIBase == "" {
		gh.APIBase = srv.URL
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(config.Static(&config.Config{GitHub: gh}), logger), fake
}

func validSettings() config.GitHub {
	return config.GitHub{Owner: "jane", Repo: "content", Branch: "main", Token: "ghp_test"}
}

// =========================================================================
// READ TESTS
// =========================================================================

func TestRead_DecodesWrappedBase64(t *testing.T) {
	client, fake := newTestClient(t, validSettings())
	long := strings.Repeat(`{"name":"Jane Doe"}`, 20)
	fake.files["data/content/site.json"] = []byte(long)

	file, err := client.Read(context.Background(), "data/content/site.json")
	require.NoError(t, err)

	assert.Equal(t, long, string(file.Content))
	assert.Equal(t, blobSHA([]byte(long)), file.SHA)
	assert.Equal(t, "data/content/site.json", file.Path)
}

func TestRead_SendsBranchTokenAndHeaders(t *testing.T) {
	gh := validSettings()
	gh.Branch = "content"
	client, fake := newTestClient(t, gh)
	fake.files["data/content/seo.json"] = []byte(`{}`)

	_, err := client.Read(context.Background(), "data/content/seo.json")
	require.NoError(t, err)

	require.Equal(t, 1, fake.requestCount())
	req := fake.requests[0]
	assert.Equal(t, "content", req.URL.Query().Get("ref"))
	assert.Equal(t, "Bearer ghp_test", req.Header.Get("Authorization"))
	assert.Equal(t, "application/vnd.github+json", req.Header.Get("Accept"))
	assert.Equal(t, apiVersion, req.Header.Get("X-GitHub-Api-Version"))
}

func TestRead_NotFound(t *testing.T) {
	client, _ := newTestClient(t, validSettings())

	_, err := client.Read(context.Background(), "data/content/missing.json")

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "got %v", err)
	assert.False(t, errors.Is(err, apperror.ErrUpstream))
}

func TestRead_UpstreamErrorCarriesStatusAndBody(t *testing.T) {
	client, fake := newTestClient(t, validSettings())
	fake.failWith = http.StatusInternalServerError

	_, err := client.Read(context.Background(), "data/content/site.json")

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrUpstream))

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Contains(t, appErr.Body, "server exploded")
}

func TestRead_LargeFileFallsBackToBlobAPI(t *testing.T) {
	client, fake := newTestClient(t, validSettings())
	pdf := []byte("%PDF-1.7 pretend this is two megabytes")
	fake.files["data/assets/resume.pdf"] = pdf
	fake.bigFiles["data/assets/resume.pdf"] = true

	file, err := client.Read(context.Background(), "data/assets/resume.pdf")
	require.NoError(t, err)

	assert.Equal(t, pdf, file.Content)
	require.Equal(t, 2, fake.requestCount())
	assert.Equal(t, "application/vnd.github.raw", fake.requests[1].Header.Get("Accept"))
}

func TestRead_MissingConfigFailsBeforeNetwork(t *testing.T) {
	tests := []struct {
		name string
		gh   config.GitHub
	}{
		{name: "no owner", gh: config.GitHub{Repo: "content", Token: "t"}},
		{name: "no repo", gh: config.GitHub{Owner: "jane", Token: "t"}},
		{name: "no token", gh: config.GitHub{Owner: "jane", Repo: "content"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, fake := newTestClient(t, tt.gh)

			_, err := client.Read(context.Background(), "data/content/site.json")
			assert.True(t, errors.Is(err, apperror.ErrConfig), "got %v", err)

			_, err = client.Write(context.Background(), "data/content/site.json", []byte("{}"), "msg", "")
			assert.True(t, errors.Is(err, apperror.ErrConfig), "got %v", err)

			assert.Equal(t, 0, fake.requestCount(), "no request may be sent without config")
		})
	}
}

func TestRead_SourceErrorIsReturned(t *testing.T) {
	boom := errors.New("env unreadable")
	client := New(func() (*config.Config, error) { return nil, boom }, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := client.Read(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}

// =========================================================================
// WRITE TESTS
// =========================================================================

func TestWrite_CreatesMissingFile(t *testing.T) {
	client, fake := newTestClient(t, validSettings())

	sha, err := client.Write(context.Background(), "data/content/site.json", []byte(`{"a":1}`), "Create site", "")
	require.NoError(t, err)

	assert.Equal(t, blobSHA([]byte(`{"a":1}`)), sha)
	assert.Equal(t, `{"a":1}`, string(fake.files["data/content/site.json"]))
}

func TestWrite_EmptyExpectedSHAUsesCurrentRevision(t *testing.T) {
	client, fake := newTestClient(t, validSettings())
	fake.files["data/content/site.json"] = []byte(`{"v":1}`)

	_, err := client.Write(context.Background(), "data/content/site.json", []byte(`{"v":2}`), "Update site", "")
	require.NoError(t, err)

	assert.Equal(t, `{"v":2}`, string(fake.files["data/content/site.json"]))
	// GET for the sha, then PUT.
	require.Equal(t, 2, fake.requestCount())
	assert.Equal(t, http.MethodGet, fake.requests[0].Method)
	assert.Equal(t, http.MethodPut, fake.requests[1].Method)
}

func TestWrite_StaleSHAConflictsAndLeavesContent(t *testing.T) {
	client, fake := newTestClient(t, validSettings())
	fake.files["data/content/site.json"] = []byte(`{"v":1}`)
	stale := blobSHA([]byte(`{"v":0}`))

	_, err := client.Write(context.Background(), "data/content/site.json", []byte(`{"v":2}`), "Update site", stale)

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrConflict), "got %v", err)

	file, err := client.Read(context.Background(), "data/content/site.json")
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, string(file.Content))
}

func TestWrite_FreshSHASucceeds(t *testing.T) {
	client, fake := newTestClient(t, validSettings())
	fake.files["data/content/site.json"] = []byte(`{"v":1}`)

	file, err := client.Read(context.Background(), "data/content/site.json")
	require.NoError(t, err)

	newSHA, err := client.Write(context.Background(), file.Path, []byte(`{"v":2}`), "Update site", file.SHA)
	require.NoError(t, err)
	assert.NotEqual(t, file.SHA, newSHA)

	// The old sha is now stale.
	_, err = client.Write(context.Background(), file.Path, []byte(`{"v":3}`), "Update site", file.SHA)
	assert.True(t, errors.Is(err, apperror.ErrConflict))
}

func TestWrite_SendsMessageBranchAndBase64(t *testing.T) {
	client, fake := newTestClient(t, validSettings())

	_, err := client.Write(context.Background(), "data/assets/profile.jpg", []byte{0xff, 0xd8, 0x00}, "Update asset", "")
	require.NoError(t, err)

	put := fake.requests[len(fake.requests)-1]
	assert.Equal(t, http.MethodPut, put.Method)
	assert.Empty(t, put.URL.Query().Get("ref"), "writes name the branch in the body")
	assert.Equal(t, []byte{0xff, 0xd8, 0x00}, fake.files["data/assets/profile.jpg"])
}

func TestWrite_UpstreamFailure(t *testing.T) {
	client, fake := newTestClient(t, validSettings())
	fake.failWith = http.StatusForbidden

	_, err := client.Write(context.Background(), "data/content/site.json", []byte(`{}`), "msg", "abc")

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.True(t, errors.Is(err, apperror.ErrUpstream))
	assert.Equal(t, http.StatusForbidden, appErr.Status)
}

func TestSessionURL_EscapesSegments(t *testing.T) {
	s := &session{gh: config.GitHub{Owner: "jane", Repo: "content", APIBase: "https://api.github.com"}}

	got := s.contentsURL("data/assets/my resume.pdf")

	assert.Equal(t, "https://api.github.com/repos/jane/content/contents/data/assets/my%20resume.pdf", got)
}

// =========================================================================
// HISTORY TESTS
// =========================================================================

func TestHistory_NewestFirstForPath(t *testing.T) {
	client, _ := newTestClient(t, validSettings())
	ctx := context.Background()

	_, err := client.Write(ctx, "data/content/site.json", []byte(`{"v":1}`), "First\n\nlonger body", "")
	require.NoError(t, err)
	_, err = client.Write(ctx, "data/content/home.json", []byte(`{}`), "Other file", "")
	require.NoError(t, err)
	_, err = client.Write(ctx, "data/content/site.json", []byte(`{"v":2}`), "Second", "")
	require.NoError(t, err)

	commits, err := client.History(ctx, "data/content/site.json", 0)
	require.NoError(t, err)
	require.Len(t, commits, 2)

	assert.Equal(t, "Second", commits[0].Message)
	assert.Equal(t, "First", commits[1].Message, "only the subject line is kept")
	assert.Equal(t, "c0ffee02", commits[0].ID)
	assert.Equal(t, "data/content/site.json", commits[0].Path)
	assert.True(t, commits[0].CreatedAt.After(commits[1].CreatedAt))
}

func TestHistory_SendsBranchAndLimit(t *testing.T) {
	client, fake := newTestClient(t, validSettings())

	_, err := client.History(context.Background(), "data/content/site.json", 500)
	require.NoError(t, err)

	require.Equal(t, 1, fake.requestCount())
	q := fake.requests[0].URL.Query()
	assert.Equal(t, "main", q.Get("sha"))
	assert.Equal(t, "100", q.Get("per_page"))
	assert.Equal(t, "data/content/site.json", q.Get("path"))
}

func TestHistory_Empty(t *testing.T) {
	client, _ := newTestClient(t, validSettings())

	commits, err := client.History(context.Background(), "data/content/site.json", 5)
	require.NoError(t, err)
	assert.Empty(t, commits)
	assert.NotNil(t, commits)
}
