// Package blobstore keeps uploaded dish images on local disk.
//
// Stored blobs are addressed by a public path of the form "uploads/<name>",
// which is also the URL path they are served under.
package blobstore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const PublicPrefix = "uploads"

type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("upload directory is empty")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir is the directory blobs are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes r under a unique name derived from originalName and returns its public path.
func (s *Store) Save(originalName string, r io.Reader) (string, error) {
	name := uuid.NewString() + "-" + sanitizeName(originalName)

	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write blob: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("close blob: %w", err)
	}

	return path.Join(PublicPrefix, name), nil
}

// Delete removes the blob behind a public path returned by Save.
func (s *Store) Delete(publicPath string) error {
	name := path.Base(filepath.ToSlash(publicPath))
	if name == "." || name == "/" || name == "" {
		return fmt.Errorf("invalid blob path %q", publicPath)
	}

	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("remove blob: %w", err)
	}
	return nil
}

func sanitizeName(name string) string {
	name = path.Base(filepath.ToSlash(strings.TrimSpace(name)))
	if name == "." || name == "/" || name == "" {
		return "image"
	}
	return strings.ReplaceAll(name, " ", "_")
}
