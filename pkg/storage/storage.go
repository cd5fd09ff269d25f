// Package storage abstracts where uploaded media files live.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

// ErrNotFound is returned when the requested object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// ErrInvalidKey is returned for keys that are empty or try to escape the root.
var ErrInvalidKey = errors.New("storage: invalid key")

// Object describes a stored file.
type Object struct {
	Key         string
	Size        int64
	ContentType string
	ModTime     time.Time
}

// Backend stores objects addressed by slash-separated keys such as "images/image-1-2.png".
type Backend interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, *Object, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]Object, error)
}

// CleanKey normalises a key and rejects absolute paths and parent references.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", ErrInvalidKey
		}
	}
	cleaned := strings.TrimPrefix(path.Clean("/"+key), "/")
	if cleaned == "" || cleaned == "." {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
