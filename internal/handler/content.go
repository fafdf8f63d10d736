package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/service"
)

// maxDocumentBytes bounds a content save request body.
const maxDocumentBytes = 1 << 20

// ContentHandler serves the admin content API.
//
//	GET  /api/admin/content?key=site
//	POST /api/admin/content {"key":"site","data":{...},"message":"...","sha":"..."}
type ContentHandler struct {
	content *service.ContentService
	logger  *slog.Logger
}

// NewContentHandler creates a ContentHandler.
func NewContentHandler(content *service.ContentService, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{
		content: content,
		logger:  logger,
	}
}

// DocumentResponse is returned by both content endpoints. Content is only
// set on GET.
type DocumentResponse struct {
	OK      bool            `json:"ok"`
	Key     model.Key       `json:"key"`
	Path    string          `json:"path"`
	SHA     string          `json:"sha"`
	Content json.RawMessage `json:"content,omitempty"`
}

// SaveDocumentRequest is the POST body. "content" is accepted as an alias
// of "data". SHA is the revision the editor loaded; when present a newer
// revision upstream fails the save with 409.
type SaveDocumentRequest struct {
	Key     string          `json:"key"`
	Data    json.RawMessage `json:"data"`
	Content json.RawMessage `json:"content"`
	Message string          `json:"message"`
	SHA     string          `json:"sha"`
}

// HandleGet returns the current document for ?key= exactly as stored.
func (h *ContentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	key, ok := model.ParseKey(r.URL.Query().Get("key"))
	if !ok {
		writeError(w, apperror.ValidationFailed("key", "key must be one of site, seo, home, about, projects, resume"))
		return
	}

	raw, sha, err := h.content.ReadRaw(r.Context(), key.Path())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, DocumentResponse{
		OK:      true,
		Key:     key,
		Path:    key.Path(),
		SHA:     sha,
		Content: raw,
	})
}

// HandleSave validates and commits a document.
func (h *ContentHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentBytes)

	var req SaveDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, apperror.ValidationFailed("body", "request body is too large"))
			return
		}
		writeError(w, apperror.ValidationFailed("body", "invalid JSON in request body"))
		return
	}

	key, ok := model.ParseKey(req.Key)
	if !ok {
		writeError(w, apperror.ValidationFailed("key", "key must be one of site, seo, home, about, projects, resume"))
		return
	}

	data := req.Data
	if len(data) == 0 || string(data) == "null" {
		data = req.Content
	}
	if len(data) == 0 || string(data) == "null" {
		writeError(w, apperror.ValidationFailed("data", "data is required"))
		return
	}

	sha, err := h.content.SaveDocument(r.Context(), key, data, req.Message, req.SHA)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, DocumentResponse{
		OK:   true,
		Key:  key,
		Path: key.Path(),
		SHA:  sha,
	})
}
