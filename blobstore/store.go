// Package blobstore abstracts the storage targets used for mirroring index
// snapshots and segment archives off the primary directory.
//
// Mirroring is best-effort replication, not a consistency mechanism: the
// primary directory remains the source of truth and mirror failures never
// fail the operation that triggered them.
package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// errors.Is(err, ErrNotFound). The default maps to os.ErrNotExist.
var ErrNotFound = os.ErrNotExist

// Store is a named-blob storage target.
type Store interface {
	// Put writes a blob atomically: readers never observe partial content.
	Put(ctx context.Context, name string, data []byte) error

	// Open opens a blob for reading. Returns ErrNotFound if absent.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// List returns all blob names with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes a blob. Deleting an absent blob is not an error.
	Delete(ctx context.Context, name string) error
}
