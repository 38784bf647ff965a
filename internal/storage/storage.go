// Package storage archives uploaded import files. Paths returned by Put are opaque to callers
// and are recorded as the provenance of imported rows.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ithalat-ops/backoffice-api/internal/config"
	"go.uber.org/zap"
)

// ErrNotFound is returned by Open for an unknown path
var ErrNotFound = errors.New("archived file not found")

// Archive stores uploaded files under a category such as "rfq-quotes" or "packing-lists"
type Archive interface {
	Put(ctx context.Context, category, filename, contentType string, data io.Reader) (string, int64, error)
	Open(ctx context.Context, storagePath string) (io.ReadCloser, error)
	Delete(ctx context.Context, storagePath string) error
}

// NewArchive creates the archive selected by configuration
func NewArchive(cfg *config.StorageConfig, logger *zap.Logger) (Archive, error) {
	switch cfg.Mode {
	case "", "local":
		return NewLocalArchive(cfg.LocalBasePath)
	case "cloud", "azure":
		if cfg.CloudConnectionString == "" {
			return nil, fmt.Errorf("cloud connection string required for azure storage")
		}
		return NewAzureBlobArchive(cfg.CloudConnectionString, cfg.CloudContainer, logger)
	case "none":
		return DiscardArchive{}, nil
	default:
		return nil, fmt.Errorf("unsupported storage mode: %s", cfg.Mode)
	}
}

// objectName builds "<category>/<yyyy>/<mm>/<uuid>-<name>" with a slash separator
func objectName(category, filename string, now time.Time) string {
	category = sanitize(category)
	if category == "" {
		category = "uploads"
	}
	base := sanitize(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	ext := strings.ToLower(filepath.Ext(filename))
	name := uuid.New().String()
	if base != "" {
		name += "-" + base
	}
	return path.Join(category, now.Format("2006"), now.Format("01"), name+ext)
}

// sanitize keeps ASCII letters, digits, dash and underscore, capped at 60 characters
func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteByte('_')
		}
		if b.Len() >= 60 {
			break
		}
	}
	return b.String()
}

// LocalArchive stores files on the local filesystem
type LocalArchive struct {
	basePath string
	now      func() time.Time
}

// NewLocalArchive creates the base directory if needed
func NewLocalArchive(basePath string) (*LocalArchive, error) {
	if basePath == "" {
		basePath = "./storage"
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalArchive{basePath: basePath, now: time.Now}, nil
}

// Put writes data to a temporary file and renames it into place
func (s *LocalArchive) Put(ctx context.Context, category, filename, contentType string, data io.Reader) (string, int64, error) {
	storagePath := objectName(category, filename, s.now().UTC())
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(storagePath))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create file: %w", err)
	}
	size, err := io.Copy(tmp, data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", 0, fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		os.Remove(tmp.Name())
		return "", 0, fmt.Errorf("failed to move file into place: %w", err)
	}

	return storagePath, size, nil
}

// Open opens an archived file
func (s *LocalArchive) Open(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	fullPath, err := s.resolve(storagePath)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, storagePath)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete removes an archived file. Deleting a missing file is not an error.
func (s *LocalArchive) Delete(ctx context.Context, storagePath string) error {
	fullPath, err := s.resolve(storagePath)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// resolve rejects paths escaping the base directory
func (s *LocalArchive) resolve(storagePath string) (string, error) {
	clean := path.Clean("/" + storagePath)
	if clean == "/" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, storagePath)
	}
	return filepath.Join(s.basePath, filepath.FromSlash(clean[1:])), nil
}

// DiscardArchive drops uploads. Put returns an empty path.
type DiscardArchive struct{}

func (DiscardArchive) Put(_ context.Context, _, _, _ string, data io.Reader) (string, int64, error) {
	n, err := io.Copy(io.Discard, data)
	return "", n, err
}

func (DiscardArchive) Open(_ context.Context, storagePath string) (io.ReadCloser, error) {
	return nil, fmt.Errorf("%w: %s", ErrNotFound, storagePath)
}

func (DiscardArchive) Delete(context.Context, string) error { return nil }
