package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/service"
)

// maxUploadBytes bounds an asset upload (multipart body included).
const maxUploadBytes = 10 << 20

// noStore marks proxied bytes as uncacheable so a freshly uploaded asset
// shows up on the next request.
const noStore = "no-store, max-age=0"

// AssetHandler serves binary assets from the content store and accepts
// admin uploads.
type AssetHandler struct {
	content *service.ContentService
	logger  *slog.Logger
}

// NewAssetHandler creates an AssetHandler.
func NewAssetHandler(content *service.ContentService, logger *slog.Logger) *AssetHandler {
	return &AssetHandler{
		content: content,
		logger:  logger,
	}
}

// UploadResponse is returned by HandleUpload. URL is where the public site
// serves the asset, with the revision appended so browsers refetch it.
type UploadResponse struct {
	OK   bool   `json:"ok"`
	Path string `json:"path"`
	SHA  string `json:"sha"`
	URL  string `json:"url,omitempty"`
}

// HandleUpload commits a multipart upload to an allow-listed path.
//
// HTTP: POST /api/admin/asset (multipart/form-data: file, path, message)
func (h *AssetHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, apperror.ValidationFailed("file", "file is too large"))
			return
		}
		writeError(w, apperror.ValidationFailed("file", "expected a multipart form"))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperror.ValidationFailed("file", "missing file"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, fmt.Errorf("reading upload: %w", err))
		return
	}

	path := strings.TrimSpace(r.FormValue("path"))
	sha, err := h.content.UploadAsset(r.Context(), path, data, r.FormValue("message"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		OK:   true,
		Path: path,
		SHA:  sha,
		URL:  publicAssetURL(path, sha),
	})
}

// publicAssetURL maps an uploaded path to the proxy that serves it.
func publicAssetURL(path, sha string) string {
	version := sha
	if len(version) > 7 {
		version = version[:7]
	}
	switch {
	case strings.HasSuffix(path, ".pdf"):
		return "/api/asset/resume?v=" + version
	case path == model.ProfileAssetPath:
		return "/api/asset/profile?v=" + version
	default:
		return "/api/avatar?path=" + url.QueryEscape(path) + "&v=" + version
	}
}

// HandleProfile proxies the profile photo.
//
// HTTP: GET /api/asset/profile
func (h *AssetHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, model.ProfileAssetPath, "image/jpeg", "")
}

// HandleResume proxies the resume PDF.
//
// HTTP: GET /api/asset/resume
func (h *AssetHandler) HandleResume(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, model.ResumeAssetPath, "application/pdf", "")
}

// HandleResumeView shows the resume inline. It answers 404 "No resume"
// while the resume document has no resumeUrl, even if a PDF exists.
//
// HTTP: GET /resume/view
func (h *AssetHandler) HandleResumeView(w http.ResponseWriter, r *http.Request) {
	resume, err := h.content.Resume(r.Context())
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		writePlainError(w, err)
		return
	}
	if resume == nil || strings.TrimSpace(resume.ResumeURL) == "" {
		http.Error(w, "No resume", http.StatusNotFound)
		return
	}
	h.serve(w, r, model.ResumeAssetPath, "application/pdf", `inline; filename="resume.pdf"`)
}

// HandleResumeDownload sends the resume PDF as an attachment.
//
// HTTP: GET /resume/download
func (h *AssetHandler) HandleResumeDownload(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, model.ResumeAssetPath, "application/pdf", `attachment; filename="resume.pdf"`)
}

// HandleAvatar proxies an image from the content repository.
//
// HTTP: GET /api/avatar?path=data/assets/profile.jpg
//
//	GET /api/avatar?url=https://raw.githubusercontent.com/{owner}/{repo}/{branch}/{path}
//
// Only clean paths under data/assets/ or public/ with an image extension
// are served.
func (h *AssetHandler) HandleAvatar(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		path = pathFromRawURL(r.URL.Query().Get("url"))
	}
	if path == "" {
		writeError(w, apperror.ValidationFailed("path", "missing path"))
		return
	}
	if !model.IsPublicImage(path) {
		writeError(w, apperror.Forbidden(fmt.Sprintf("path %s is not a public image", path)))
		return
	}

	contentType, _ := model.ImageContentType(path)
	h.serve(w, r, path, contentType, "")
}

// rawContentHost serves raw file bytes for GitHub repositories.
const rawContentHost = "raw.githubusercontent.com"

// pathFromRawURL extracts the repository path from a
// raw.githubusercontent.com URL: /{owner}/{repo}/{branch}/{path...}.
// URLs on any other host yield "".
func pathFromRawURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" || !strings.EqualFold(u.Host, rawContentHost) {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) <= 3 {
		return ""
	}
	return strings.Join(parts[3:], "/")
}

func (h *AssetHandler) serve(w http.ResponseWriter, r *http.Request, path, contentType, disposition string) {
	data, err := h.content.ReadBinary(r.Context(), path)
	if err != nil {
		writePlainError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", noStore)
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	if disposition != "" {
		w.Header().Set("Content-Disposition", disposition)
	}
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		w.Write(data)
	}
}
