// Package storage keeps uploaded files either on the local disk or in an
// S3 compatible bucket. Keys are slash separated relative paths.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotExist is returned by Open when the key is unknown.
var ErrNotExist = errors.New("storage: object does not exist")

// Store is the minimal surface the service needs from a blob backend.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// NewKey builds "<entity>/<yyyy>/<mm>/<uuid><ext>" for a new upload.
func NewKey(entity, ext string) string {
	now := time.Now().UTC()
	return path.Join(entity, now.Format("2006"), now.Format("01"), uuid.NewString()+strings.ToLower(ext))
}

// cleanKey rejects absolute keys and any attempt to climb out of the root.
func cleanKey(key string) (string, bool) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", false
	}
	k := path.Clean(key)
	if k == "." || k == ".." || strings.HasPrefix(k, "../") {
		return "", false
	}
	return k, true
}

// ErrInvalidKey is returned for keys that are empty or escape the store root.
var ErrInvalidKey = errors.New("storage: invalid key")
