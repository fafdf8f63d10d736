// Package repository defines the versioned file store the content services
// read from and commit to.
//
// A FileStore is addressed by repository-relative paths. Every file has a
// revision (its blob SHA); Write is a compare-and-swap against that revision:
//
//	f, _ := store.Read(ctx, "data/content/site.json")
//	sha, err := store.Write(ctx, f.Path, next, "Update site", f.SHA)
//	// errors.Is(err, apperror.ErrConflict) when someone else committed first
//
// Implementations live in the github (production) and sqlite (local
// development) subpackages.
package repository

import (
	"context"
	"time"
)

// File is one file as returned by a FileStore.
type File struct {
	Path    string
	Content []byte
	SHA     string // blob SHA identifying this revision
	Size    int

	// DownloadURL is a direct link to the raw bytes when the backend has one.
	DownloadURL string
}

// FileStore reads and conditionally overwrites files.
//
// Read returns apperror.ErrNotFound for a missing path.
//
// Write creates or overwrites path. When expectedSHA is non-empty and no
// longer current, it fails with apperror.ErrConflict and leaves the file
// unchanged. When expectedSHA is empty the store reads the current revision
// itself and uses that. Write never retries; it returns the new revision.
type FileStore interface {
	Read(ctx context.Context, path string) (*File, error)
	Write(ctx context.Context, path string, content []byte, message, expectedSHA string) (string, error)
}

// Commit is one entry in a store's write history.
type Commit struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	SHA       string    `json:"sha"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// HistoryReader lists the writes that touched a path, newest first.
type HistoryReader interface {
	History(ctx context.Context, path string, limit int) ([]Commit, error)
}
