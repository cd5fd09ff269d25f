package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Local stores objects as files below a root directory.
type Local struct {
	root string
}

// NewLocal creates the root directory if needed.
func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage.NewLocal: %w", err)
	}
	return &Local{root: root}, nil
}

func (l *Local) pathFor(key string) (string, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.root, filepath.FromSlash(cleaned)), nil
}

func (l *Local) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	p, err := l.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("storage.Local.Put: %w", err)
	}

	// Write to a temp file first so a failed copy never leaves a partial object.
	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return fmt.Errorf("storage.Local.Put: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("storage.Local.Put: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage.Local.Put: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("storage.Local.Put: %w", err)
	}
	return nil
}

func (l *Local) Get(ctx context.Context, key string) (io.ReadCloser, *Object, error) {
	p, err := l.pathFor(key)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("storage.Local.Get: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("storage.Local.Get: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, ErrNotFound
	}
	cleaned, _ := CleanKey(key)
	return f, &Object{
		Key:         cleaned,
		Size:        info.Size(),
		ContentType: mime.TypeByExtension(path.Ext(cleaned)),
		ModTime:     info.ModTime(),
	}, nil
}

func (l *Local) Delete(ctx context.Context, key string) error {
	p, err := l.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("storage.Local.Delete: %w", err)
	}
	return nil
}

// List returns the files directly below prefix, newest first.
func (l *Local) List(ctx context.Context, prefix string) ([]Object, error) {
	prefix = strings.Trim(prefix, "/")
	dir := l.root
	if prefix != "" {
		p, err := l.pathFor(prefix)
		if err != nil {
			return nil, err
		}
		dir = p
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Object{}, nil
		}
		return nil, fmt.Errorf("storage.Local.List: %w", err)
	}

	objects := make([]Object, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		key := entry.Name()
		if prefix != "" {
			key = prefix + "/" + key
		}
		objects = append(objects, Object{
			Key:         key,
			Size:        info.Size(),
			ContentType: mime.TypeByExtension(path.Ext(key)),
			ModTime:     info.ModTime(),
		})
	}
	sort.Slice(objects, func(i, j int) bool {
		return objects[i].ModTime.After(objects[j].ModTime)
	})
	return objects, nil
}
