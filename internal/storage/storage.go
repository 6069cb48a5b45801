//-------------------------------------------------------------------------
//
// pgEdge Warehouse Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package storage reads and writes the JSON objects that feed the staging
// tables, from Amazon S3 (or an S3-compatible endpoint) or the local
// filesystem.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Store is a flat namespace of objects addressed by key. For S3 a key is
// the object key inside the bucket; for the local filesystem it is a path.
type Store interface {
	// List returns every object key under prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)

	// Open returns the raw contents of key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Put writes data to key, replacing any existing object.
	Put(ctx context.Context, key string, data []byte) error
}

// Options configures access to object storage.
type Options struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Open returns the Store that serves loc.
func Open(ctx context.Context, loc Location, opts Options) (Store, error) {
	switch loc.Scheme {
	case SchemeS3:
		client, err := NewS3Client(ctx, opts)
		if err != nil {
			return nil, err
		}
		return NewS3Store(client, loc.Bucket), nil
	case SchemeFile:
		return NewLocalStore(), nil
	default:
		return nil, fmt.Errorf("unsupported location scheme %q", loc.Scheme)
	}
}

// OpenObject opens key and transparently decompresses it when the key ends
// in .gz.
func OpenObject(ctx context.Context, store Store, key string) (io.ReadCloser, error) {
	rc, err := store.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(key, ".gz") {
		return rc, nil
	}

	zr, err := gzip.NewReader(rc)
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("failed to open gzip stream %s: %w", key, err)
	}
	return &gzipReadCloser{Reader: zr, body: rc}, nil
}

type gzipReadCloser struct {
	*gzip.Reader
	body io.ReadCloser
}

func (g *gzipReadCloser) Close() error {
	zerr := g.Reader.Close()
	if err := g.body.Close(); err != nil {
		return err
	}
	return zerr
}
