// Package service contains the business logic between the HTTP handlers
// and the file store.
//
//	Handler (HTTP)  → parses requests, writes responses
//	Service         → decodes, validates, picks paths and commit messages
//	FileStore       → GitHub contents API or the local SQLite store
//
// Services take the repository.FileStore interface, never a concrete
// backend, so tests pass an in-memory fake and main.go picks the backend.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/repository"
)

// Default commit messages.
const (
	DefaultAssetMessage = "Update asset"
)

// DefaultDocumentMessage is the commit message for a document save that
// came without one.
func DefaultDocumentMessage(key model.Key) string {
	return "Update " + string(key)
}

// ContentService reads and writes content documents and binary assets.
// It keeps no state between calls.
type ContentService struct {
	store  repository.FileStore
	logger *slog.Logger
}

// NewContentService creates a ContentService on top of store.
func NewContentService(store repository.FileStore, logger *slog.Logger) *ContentService {
	return &ContentService{
		store:  store,
		logger: logger,
	}
}

// =========================================================================
// READ
// =========================================================================

// ReadJSON decodes the document at path into out and returns its revision.
//
// The bytes must be UTF-8 and valid JSON, otherwise ErrDecode. There is no
// schema check: fields missing from the file keep their zero values and
// unknown fields are ignored.
func (s *ContentService) ReadJSON(ctx context.Context, path string, out any) (string, error) {
	file, err := s.store.Read(ctx, path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if !utf8.Valid(file.Content) {
		return "", apperror.DecodeFailed(path, errors.New("content is not valid UTF-8"))
	}
	if err := json.Unmarshal(file.Content, out); err != nil {
		return "", apperror.DecodeFailed(path, err)
	}
	return file.SHA, nil
}

// ReadRaw returns the document at path as raw JSON, untouched, so callers
// that edit it keep fields this program doesn't model.
func (s *ContentService) ReadRaw(ctx context.Context, path string) (json.RawMessage, string, error) {
	file, err := s.store.Read(ctx, path)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", path, err)
	}
	if !utf8.Valid(file.Content) {
		return nil, "", apperror.DecodeFailed(path, errors.New("content is not valid UTF-8"))
	}
	if !json.Valid(file.Content) {
		return nil, "", apperror.DecodeFailed(path, errors.New("content is not valid JSON"))
	}
	return json.RawMessage(file.Content), file.SHA, nil
}

// ReadBinary returns the bytes at path unchanged.
func (s *ContentService) ReadBinary(ctx context.Context, path string) ([]byte, error) {
	file, err := s.store.Read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return file.Content, nil
}

func readDocument[T any](ctx context.Context, s *ContentService, key model.Key) (*T, error) {
	var doc T
	if _, err := s.ReadJSON(ctx, key.Path(), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *ContentService) Site(ctx context.Context) (*model.Site, error) {
	return readDocument[model.Site](ctx, s, model.KeySite)
}

func (s *ContentService) SEO(ctx context.Context) (*model.SEO, error) {
	return readDocument[model.SEO](ctx, s, model.KeySEO)
}

func (s *ContentService) Home(ctx context.Context) (*model.Home, error) {
	return readDocument[model.Home](ctx, s, model.KeyHome)
}

func (s *ContentService) About(ctx context.Context) (*model.About, error) {
	return readDocument[model.About](ctx, s, model.KeyAbout)
}

func (s *ContentService) Projects(ctx context.Context) (*model.Projects, error) {
	return readDocument[model.Projects](ctx, s, model.KeyProjects)
}

func (s *ContentService) Resume(ctx context.Context) (*model.Resume, error) {
	return readDocument[model.Resume](ctx, s, model.KeyResume)
}

// Bundle holds the documents one page needs. Only the requested keys are
// set; the rest stay nil.
type Bundle struct {
	Site     *model.Site
	SEO      *model.SEO
	Home     *model.Home
	About    *model.About
	Projects *model.Projects
	Resume   *model.Resume
}

func (b *Bundle) set(doc any) {
	switch d := doc.(type) {
	case *model.Site:
		b.Site = d
	case *model.SEO:
		b.SEO = d
	case *model.Home:
		b.Home = d
	case *model.About:
		b.About = d
	case *model.Projects:
		b.Projects = d
	case *model.Resume:
		b.Resume = d
	}
}

// LoadBundle reads the given documents concurrently. The first failure
// cancels the other reads and is returned.
func (s *ContentService) LoadBundle(ctx context.Context, keys ...model.Key) (*Bundle, error) {
	g, ctx := errgroup.WithContext(ctx)

	docs := make([]any, 0, len(keys))
	seen := make(map[model.Key]bool, len(keys))
	for _, key := range keys {
		if seen[key] {
			continue
		}
		seen[key] = true

		doc := key.New()
		if doc == nil {
			return nil, apperror.ValidationFailed("key", fmt.Sprintf("unknown content key %q", key))
		}
		docs = append(docs, doc)

		g.Go(func() error {
			_, err := s.ReadJSON(ctx, key.Path(), doc)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	b := &Bundle{}
	for _, doc := range docs {
		b.set(doc)
	}
	return b, nil
}

// =========================================================================
// WRITE
// =========================================================================

// WriteJSON encodes value with two-space indentation and a trailing
// newline and commits it to path. Key order follows the struct (or the
// map's sorted keys). The store re-reads the current revision immediately
// before writing, so this overwrites whatever is there.
func (s *ContentService) WriteJSON(ctx context.Context, path string, value any, message string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return "", fmt.Errorf("encoding %s: %w", path, err)
	}
	return s.commit(ctx, path, buf.Bytes(), message, "")
}

// EncodeDocument re-indents raw JSON text the same way WriteJSON formats a
// value, keeping key order and every field exactly as given.
func EncodeDocument(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(raw), "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// SaveDocument validates raw as the document for key and commits it.
//
// raw must be a JSON object whose fields have the types of the key's model
// (a string where a list is expected is a validation error). Fields the
// model doesn't know are kept. Duplicate project slugs are accepted.
//
// expectedSHA, when set, is the revision the editor loaded; a newer
// revision upstream makes the save fail with ErrConflict. When empty the
// save overwrites the current revision.
func (s *ContentService) SaveDocument(ctx context.Context, key model.Key, raw []byte, message, expectedSHA string) (string, error) {
	doc := key.New()
	if doc == nil {
		return "", apperror.ValidationFailed("key", fmt.Sprintf("unknown content key %q", key))
	}

	if err := validateDocument(raw, doc); err != nil {
		return "", err
	}
	if seo, ok := doc.(*model.SEO); ok {
		if err := validateSEO(seo); err != nil {
			return "", err
		}
	}

	body, err := EncodeDocument(raw)
	if err != nil {
		return "", apperror.ValidationFailed("data", "content must be valid JSON")
	}

	message = strings.TrimSpace(message)
	if message == "" {
		message = DefaultDocumentMessage(key)
	}

	return s.commit(ctx, key.Path(), body, message, strings.TrimSpace(expectedSHA))
}

func validateDocument(raw []byte, doc any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return apperror.ValidationFailed("data", "content is required")
	}
	if !utf8.Valid(trimmed) {
		return apperror.ValidationFailed("data", "content must be valid UTF-8")
	}
	if trimmed[0] != '{' {
		return apperror.ValidationFailed("data", "content must be a JSON object")
	}

	if err := json.Unmarshal(trimmed, doc); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return apperror.ValidationFailed(typeErr.Field,
				fmt.Sprintf("field %q must be %s, got %s", typeErr.Field, typeErr.Type.String(), typeErr.Value))
		}
		return apperror.ValidationFailed("data", "content must be valid JSON")
	}
	return nil
}

// validateSEO checks the enumerated SEO fields. Empty values are allowed.
func validateSEO(seo *model.SEO) error {
	if seo.OpenGraph.Type != "" && !seo.OpenGraph.Type.Valid() {
		return apperror.ValidationFailed("openGraph.type",
			fmt.Sprintf("openGraph.type must be one of %v", model.OpenGraphTypes))
	}
	if seo.Twitter.Card != "" && !seo.Twitter.Card.Valid() {
		return apperror.ValidationFailed("twitter.card",
			fmt.Sprintf("twitter.card must be one of %v", model.TwitterCards))
	}
	return nil
}

// UploadAsset commits binary content to one of the allow-listed asset paths.
func (s *ContentService) UploadAsset(ctx context.Context, path string, content []byte, message string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", apperror.ValidationFailed("path", "asset path is required")
	}
	if !model.IsWritableAsset(path) {
		return "", apperror.Forbidden(fmt.Sprintf("path %s is not writable", path))
	}
	if len(content) == 0 {
		return "", apperror.ValidationFailed("file", "file is empty")
	}

	message = strings.TrimSpace(message)
	if message == "" {
		message = DefaultAssetMessage
	}

	return s.commit(ctx, path, content, message, "")
}

func (s *ContentService) commit(ctx context.Context, path string, content []byte, message, expectedSHA string) (string, error) {
	sha, err := s.store.Write(ctx, path, content, message, expectedSHA)
	if err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			s.logger.Warn("content write conflicted",
				slog.String("path", path),
				slog.String("expectedSHA", expectedSHA),
			)
		}
		return "", fmt.Errorf("writing %s: %w", path, err)
	}

	s.logger.Info("content committed",
		slog.String("path", path),
		slog.String("sha", sha),
		slog.String("message", message),
		slog.Int("bytes", len(content)),
	)
	return sha, nil
}
