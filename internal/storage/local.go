package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"

	"rentoo/internal/logger"
)

// LocalImageStore implements image storage on the local filesystem
type LocalImageStore struct {
	cfg Config
}

// NewLocalImageStore creates the upload directory if needed
func NewLocalImageStore(cfg Config) (*LocalImageStore, error) {
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	if cfg.URLPrefix == "" {
		cfg.URLPrefix = "/uploads"
	}
	return &LocalImageStore{cfg: cfg}, nil
}

func (s *LocalImageStore) Save(ctx context.Context, subdir, filename, contentType string, r io.Reader) (string, error) {
	if !slices.Contains(s.cfg.AllowedTypes, contentType) {
		return "", fmt.Errorf("%w: %s", ErrInvalidType, contentType)
	}

	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".jpg"
	}
	name := uuid.NewString() + strings.ToLower(ext)

	dir := filepath.Join(s.cfg.Dir, subdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directories: %w", err)
	}
	fullPath := filepath.Join(dir, name)

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	// one byte past the limit tells an oversized upload apart from an exact fit
	written, err := io.Copy(file, io.LimitReader(r, s.cfg.MaxBytes+1))
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && written > s.cfg.MaxBytes {
		err = fmt.Errorf("%w: more than %d bytes", ErrTooLarge, s.cfg.MaxBytes)
	}
	if err != nil {
		os.Remove(fullPath)
		return "", err
	}

	url := path.Join(s.cfg.URLPrefix, subdir, name)
	logger.Debug("Image stored", "path", fullPath, "bytes", written, "url", url)
	return url, nil
}

func (s *LocalImageStore) Delete(ctx context.Context, url string) error {
	rel := strings.TrimPrefix(url, s.cfg.URLPrefix+"/")
	if rel == url || strings.Contains(rel, "..") {
		return fmt.Errorf("not a stored image: %s", url)
	}
	err := os.Remove(filepath.Join(s.cfg.Dir, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Dir returns the directory served under the URL prefix.
func (s *LocalImageStore) Dir() string {
	return s.cfg.Dir
}

// URLPrefix returns the path prefix of stored image URLs.
func (s *LocalImageStore) URLPrefix() string {
	return s.cfg.URLPrefix
}
