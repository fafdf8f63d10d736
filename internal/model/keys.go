package model

import (
	"path"
	"strings"
)

// Key names one of the six content documents.
type Key string

const (
	KeySite     Key = "site"
	KeySEO      Key = "seo"
	KeyHome     Key = "home"
	KeyAbout    Key = "about"
	KeyProjects Key = "projects"
	KeyResume   Key = "resume"
)

// Keys lists every content document in a stable order.
var Keys = []Key{KeySite, KeySEO, KeyHome, KeyAbout, KeyProjects, KeyResume}

// ContentDir is where documents live inside the content repository.
const ContentDir = "data/content"

// Binary assets served by the public proxies.
const (
	ResumeAssetPath  = "data/assets/resume.pdf"
	ProfileAssetPath = "data/assets/profile.jpg"
)

// WritableAssets is the allow-list for the admin upload endpoint.
var WritableAssets = []string{
	ResumeAssetPath,
	ProfileAssetPath,
	"public/profile.jpg",
	"public/resume.pdf",
}

// ParseKey validates a key supplied by a client.
func ParseKey(s string) (Key, bool) {
	k := Key(strings.TrimSpace(s))
	for _, known := range Keys {
		if k == known {
			return k, true
		}
	}
	return "", false
}

// Path is the repository path of the document.
func (k Key) Path() string {
	return path.Join(ContentDir, string(k)+".json")
}

// New returns a pointer to an empty value of the document type for k.
func (k Key) New() any {
	switch k {
	case KeySite:
		return &Site{}
	case KeySEO:
		return &SEO{}
	case KeyHome:
		return &Home{}
	case KeyAbout:
		return &About{}
	case KeyProjects:
		return &Projects{}
	case KeyResume:
		return &Resume{}
	default:
		return nil
	}
}

// IsWritableAsset reports whether p is on the upload allow-list.
func IsWritableAsset(p string) bool {
	for _, allowed := range WritableAssets {
		if p == allowed {
			return true
		}
	}
	return false
}

// IsPublicImage reports whether p may be served by the image proxy: a clean
// relative path under data/assets/ or public/ with an image extension.
func IsPublicImage(p string) bool {
	if p == "" || path.Clean(p) != p || strings.HasPrefix(p, "/") {
		return false
	}
	if !strings.HasPrefix(p, "data/assets/") && !strings.HasPrefix(p, "public/") {
		return false
	}
	_, ok := ImageContentType(p)
	return ok
}

// ImageContentType maps an image path to its MIME type by extension.
// ok is false for non-image extensions.
func ImageContentType(p string) (contentType string, ok bool) {
	switch strings.ToLower(path.Ext(p)) {
	case ".png":
		return "image/png", true
	case ".webp":
		return "image/webp", true
	case ".gif":
		return "image/gif", true
	case ".jpg", ".jpeg":
		return "image/jpeg", true
	default:
		return "", false
	}
}
