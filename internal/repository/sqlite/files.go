package sqlite

import (
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/repository"
)

var (
	_ repository.FileStore     = (*DB)(nil)
	_ repository.HistoryReader = (*DB)(nil)
)

// BlobSHA computes the git blob SHA-1 of content, the same identifier
// GitHub reports for a file.
func BlobSHA(content []byte) string {
	h := sha1.New()
	h.Write([]byte("blob " + strconv.Itoa(len(content)) + "\x00"))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// Read returns the current revision of path.
func (db *DB) Read(ctx context.Context, path string) (*repository.File, error) {
	var file repository.File
	err := db.conn.QueryRowContext(ctx,
		`SELECT path, sha, content FROM files WHERE path = ?`,
		path,
	).Scan(&file.Path, &file.SHA, &file.Content)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("file", path)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: reading %s: %w", path, err)
	}

	file.Size = len(file.Content)
	return &file, nil
}

// Write stores content at path if expectedSHA still names the current
// revision, and records a commit row.
//
// expectedSHA == "" means "whatever is current": the row is read inside the
// same transaction and used as the expected revision.
func (db *DB) Write(ctx context.Context, path string, content []byte, message, expectedSHA string) (string, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("sqlite: beginning write of %s: %w", path, err)
	}
	defer tx.Rollback() // no-op after Commit

	var current string
	err = tx.QueryRowContext(ctx, `SELECT sha FROM files WHERE path = ?`, path).Scan(&current)
	exists := true
	switch {
	case errors.Is(err, sql.ErrNoRows):
		exists = false
	case err != nil:
		return "", fmt.Errorf("sqlite: reading revision of %s: %w", path, err)
	}

	if expectedSHA == "" {
		expectedSHA = current
	}
	if expectedSHA != current {
		return "", apperror.Conflict("file", path)
	}

	sha := BlobSHA(content)
	now := time.Now().UTC()

	if exists {
		res, err := tx.ExecContext(ctx,
			`UPDATE files SET sha = ?, content = ?, updated_at = ? WHERE path = ? AND sha = ?`,
			sha, content, now, path, expectedSHA,
		)
		if err != nil {
			return "", fmt.Errorf("sqlite: updating %s: %w", path, err)
		}
		if n, _ := res.RowsAffected(); n != 1 {
			return "", apperror.Conflict("file", path)
		}
	} else {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO files (path, sha, content, updated_at) VALUES (?, ?, ?, ?)`,
			path, sha, content, now,
		)
		if err != nil {
			return "", fmt.Errorf("sqlite: creating %s: %w", path, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO commits (id, path, sha, message, created_at) VALUES (?, ?, ?, ?, ?)`,
		xid.New().String(), path, sha, message, now,
	)
	if err != nil {
		return "", fmt.Errorf("sqlite: recording commit for %s: %w", path, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("sqlite: committing %s: %w", path, err)
	}
	return sha, nil
}

// History lists commits for path, newest first. limit <= 0 means 20.
func (db *DB) History(ctx context.Context, path string, limit int) ([]repository.Commit, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, path, sha, message, created_at
		 FROM commits
		 WHERE path = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		path, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing history of %s: %w", path, err)
	}
	defer rows.Close()

	commits := []repository.Commit{}
	for rows.Next() {
		var c repository.Commit
		if err := rows.Scan(&c.ID, &c.Path, &c.SHA, &c.Message, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning commit: %w", err)
		}
		commits = append(commits, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating history of %s: %w", path, err)
	}
	return commits, nil
}
