package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrInvalidType = errors.New("invalid file type")
	ErrTooLarge    = errors.New("file too large")
)

// ImageStore persists uploaded images and returns the URL path they are served at.
type ImageStore interface {
	// Save stores the content under subdir with a fresh name that keeps the
	// extension of filename.
	Save(ctx context.Context, subdir, filename, contentType string, r io.Reader) (string, error)

	// Delete removes a file previously returned by Save. Missing files are ignored.
	Delete(ctx context.Context, url string) error
}
