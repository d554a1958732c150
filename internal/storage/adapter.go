package storage

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotFound is returned when no object exists at a path
	ErrNotFound = errors.New("storage: not found")
	// ErrInvalidPath is returned for paths that escape the storage root
	ErrInvalidPath = errors.New("storage: invalid path")
)

// Adapter defines the interface for storage backends. Paths are
// slash-separated keys relative to the storage root.
type Adapter interface {
	// Put stores data at the given path
	Put(ctx context.Context, path string, data io.Reader) error

	// Get retrieves data from the given path, or ErrNotFound
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes data at the given path
	Delete(ctx context.Context, path string) error

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)

	// List returns paths matching the given prefix, sorted
	List(ctx context.Context, prefix string) ([]string, error)

	// Close cleans up any resources
	Close() error
}
