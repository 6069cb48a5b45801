package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalStore is a Store backed by the local filesystem.
type LocalStore struct{}

// NewLocalStore creates a local filesystem store.
func NewLocalStore() *LocalStore {
	return &LocalStore{}
}

// List follows S3 prefix semantics: a directory yields every regular file
// below it, a file yields itself, and anything else matches the files and
// directories in the parent whose names start with the last path element.
func (s *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	info, err := os.Stat(prefix)
	switch {
	case err == nil && info.IsDir():
		return walkFiles(ctx, prefix)
	case err == nil:
		return []string{prefix}, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("failed to stat %s: %w", prefix, err)
	}

	dir, base := filepath.Split(prefix)
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var keys []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), base) {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if e.IsDir() {
			sub, err := walkFiles(ctx, p)
			if err != nil {
				return nil, err
			}
			keys = append(keys, sub...)
		} else if e.Type().IsRegular() {
			keys = append(keys, p)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func walkFiles(ctx context.Context, root string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.Type().IsRegular() {
			keys = append(keys, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Open opens the file at key.
func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(key)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", key, err)
	}
	return f, nil
}

// Put writes data to key, creating parent directories as needed.
func (s *LocalStore) Put(ctx context.Context, key string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(key), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", key, err)
	}
	if err := os.WriteFile(key, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
