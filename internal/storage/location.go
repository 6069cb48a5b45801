//-------------------------------------------------------------------------
//
// pgEdge Warehouse Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package storage

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// Location schemes.
const (
	SchemeS3   = "s3"
	SchemeFile = "file"
)

// Location identifies a set of objects: an S3 bucket and key prefix, or a
// local file, directory or file name prefix.
type Location struct {
	Scheme string
	Bucket string
	Path   string
}

// ParseLocation parses s3://bucket/prefix, file:///path or a bare path.
func ParseLocation(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Location{}, fmt.Errorf("location is empty")
	}

	switch {
	case strings.HasPrefix(raw, "s3://"):
		bucket, key, _ := strings.Cut(strings.TrimPrefix(raw, "s3://"), "/")
		if bucket == "" {
			return Location{}, fmt.Errorf("location %q has no bucket", raw)
		}
		return Location{Scheme: SchemeS3, Bucket: bucket, Path: key}, nil

	case strings.HasPrefix(raw, "file://"):
		p := strings.TrimPrefix(raw, "file://")
		if p == "" {
			return Location{}, fmt.Errorf("location %q has no path", raw)
		}
		return Location{Scheme: SchemeFile, Path: filepath.Clean(p)}, nil

	case strings.Contains(raw, "://"):
		scheme, _, _ := strings.Cut(raw, "://")
		return Location{}, fmt.Errorf("unsupported location scheme %q", scheme)

	default:
		return Location{Scheme: SchemeFile, Path: filepath.Clean(raw)}, nil
	}
}

// String returns the location in the form ParseLocation accepts.
func (l Location) String() string {
	if l.Scheme == SchemeS3 {
		return "s3://" + l.Bucket + "/" + l.Path
	}
	return l.Path
}

// Join returns the location of name below l.
func (l Location) Join(name string) Location {
	out := l
	if l.Scheme == SchemeS3 {
		out.Path = strings.TrimPrefix(path.Join(l.Path, name), "/")
	} else {
		out.Path = filepath.Join(l.Path, name)
	}
	return out
}
