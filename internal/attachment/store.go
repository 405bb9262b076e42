// Package attachment stores uploaded blobs and hands back opaque reference
// strings. The rest of the system never inspects file contents; it stores
// and echoes the reference as-is.
package attachment

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store accepts an uploaded blob and returns an opaque reference.
type Store interface {
	Save(filename string, r io.Reader) (string, error)
}

// DiskStore writes blobs under a local directory and returns
// "/uploads/<name>" references that the HTTP layer serves statically.
type DiskStore struct {
	dir     string
	maxSize int64
}

// NewDiskStore creates the directory if needed.
func NewDiskStore(dir string, maxSize int64) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &DiskStore{dir: dir, maxSize: maxSize}, nil
}

// Save writes the blob and returns its reference. The stored name carries a
// random prefix so colliding upload filenames never overwrite each other.
func (s *DiskStore) Save(filename string, r io.Reader) (string, error) {
	name := uuid.NewString() + "-" + sanitize(filename)
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create attachment: %w", err)
	}
	defer f.Close()

	src := r
	if s.maxSize > 0 {
		src = io.LimitReader(r, s.maxSize)
	}
	if _, err := io.Copy(f, src); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write attachment: %w", err)
	}
	return "/uploads/" + name, nil
}

func sanitize(filename string) string {
	base := filepath.Base(filename)
	base = strings.ReplaceAll(base, " ", "_")
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "attachment"
	}
	return base
}
