// Package blobstore persists image bytes (covers and pages) and hands back
// references of the form blob://<bucket>/<key>.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

const (
	BucketPages  = "pages"
	BucketCovers = "covers"

	refScheme = "blob://"
)

var (
	ErrNotFound   = errors.New("blobstore: blob not found")
	ErrInvalidRef = errors.New("blobstore: invalid reference")
)

var validKey = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

type Store interface {
	Put(ctx context.Context, bucket, key string, data []byte) (string, error)
	Get(ctx context.Context, ref string) ([]byte, error)
}

// Ref formats a reference for bucket/key.
func Ref(bucket, key string) string {
	return refScheme + bucket + "/" + key
}

// ParseRef splits a reference into bucket and key.
func ParseRef(ref string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(ref, refScheme)
	if !ok {
		return "", "", ErrInvalidRef
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || !validNames(bucket, key) {
		return "", "", ErrInvalidRef
	}
	return bucket, key, nil
}

// validNames accepts only the known buckets and keys that cannot name a
// parent or hidden entry.
func validNames(bucket, key string) bool {
	if bucket != BucketPages && bucket != BucketCovers {
		return false
	}
	return validKey.MatchString(key)
}

func checkNames(bucket, key string) error {
	if !validNames(bucket, key) {
		return fmt.Errorf("%w: %q/%q", ErrInvalidRef, bucket, key)
	}
	return nil
}

// Filesystem stores one file per blob under dir/<bucket>/<key>.
type Filesystem struct {
	dir string
}

func NewFilesystem(dir string) (*Filesystem, error) {
	for _, b := range []string{BucketPages, BucketCovers} {
		if err := os.MkdirAll(filepath.Join(dir, b), 0o755); err != nil {
			return nil, fmt.Errorf("create blob dir: %w", err)
		}
	}
	return &Filesystem{dir: dir}, nil
}

// Put writes through a temp file and renames it into place.
func (f *Filesystem) Put(ctx context.Context, bucket, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := checkNames(bucket, key); err != nil {
		return "", err
	}
	bucketDir := filepath.Join(f.dir, bucket)
	if err := os.MkdirAll(bucketDir, 0o755); err != nil {
		return "", fmt.Errorf("create bucket dir: %w", err)
	}

	tmp, err := os.CreateTemp(bucketDir, ".tmp_")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmpPath, filepath.Join(bucketDir, key)); err != nil {
		return "", err
	}
	return Ref(bucket, key), nil
}

func (f *Filesystem) Get(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bucket, key, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(f.dir, bucket, key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// Memory keeps blobs in a map.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

func (m *Memory) Put(_ context.Context, bucket, key string, data []byte) (string, error) {
	if err := checkNames(bucket, key); err != nil {
		return "", err
	}
	ref := Ref(bucket, key)
	b := make([]byte, len(data))
	copy(b, data)

	m.mu.Lock()
	m.blobs[ref] = b
	m.mu.Unlock()
	return ref, nil
}

func (m *Memory) Get(_ context.Context, ref string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[ref]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

// Len is the number of stored blobs.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}
