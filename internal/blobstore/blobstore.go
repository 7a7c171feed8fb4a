// Package blobstore keeps uploaded PDF files in a local directory.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/localrivet/readaloud/internal/util"
)

// ErrNotFound is returned when a blob does not exist.
var ErrNotFound = errors.New("blob not found")

// DefaultMaxSize bounds a single upload.
const DefaultMaxSize int64 = 50 << 20

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Blob describes a stored file.
type Blob struct {
	ID       string
	Filename string
	Path     string
	Size     int64
	Hash     string
}

// Store saves blobs below a root directory.
type Store struct {
	root    string
	maxSize int64
	now     func() time.Time
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string, maxSize int64) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("blob directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Store{root: dir, maxSize: maxSize, now: time.Now}, nil
}

// Root returns the directory blobs are stored in.
func (s *Store) Root() string {
	return s.root
}

// MaxSize returns the largest accepted blob in bytes.
func (s *Store) MaxSize() int64 {
	return s.maxSize
}

// Save writes r to a new blob. The stored filename is the upload time in
// milliseconds followed by the sanitized original name.
func (s *Store) Save(ctx context.Context, originalName string, r io.Reader) (*Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	filename := fmt.Sprintf("%d-%s", s.now().UnixMilli(), sanitize(originalName))
	path := filepath.Join(s.root, id+filepath.Ext(filename))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob: %w", err)
	}

	reader := util.NewHashingReader(io.LimitReader(r, s.maxSize+1))
	_, copyErr := io.Copy(f, reader)
	closeErr := f.Close()

	if copyErr == nil && reader.Size() > s.maxSize {
		copyErr = fmt.Errorf("blob exceeds %d bytes", s.maxSize)
	}
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write blob: %w", copyErr)
	}

	return &Blob{
		ID:       id + filepath.Ext(filename),
		Filename: filename,
		Path:     path,
		Size:     reader.Size(),
		Hash:     reader.Sum(),
	}, nil
}

// Open returns a reader for the blob with the given id.
func (s *Store) Open(id string) (io.ReadCloser, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return f, err
}

// Delete removes the blob with the given id.
func (s *Store) Delete(id string) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return err
}

func (s *Store) path(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("%w: invalid id %q", ErrNotFound, id)
	}
	return filepath.Join(s.root, id), nil
}

func sanitize(name string) string {
	name = unsafeName.ReplaceAllString(filepath.Base(name), "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "upload.pdf"
	}
	return name
}
