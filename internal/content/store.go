// Package content stores file bytes on a durable medium.
//
// Keys are server-generated storage names; callers never pass user input as a key.
// Writes are streamed through a fixed-size buffer so memory use does not grow
// with the payload.
package content

import (
	"context"
	"errors"
	"io"
	"time"
)

// ChunkSize bounds the buffer used while streaming content in and out.
const ChunkSize = 1 << 20

var (
	// ErrStorageWrite signals the medium could not persist content.
	ErrStorageWrite = errors.New("storage write failed")
	// ErrStorageRead signals the medium could not serve content.
	ErrStorageRead = errors.New("storage read failed")
	// ErrNotExist signals the key has no content on the medium.
	ErrNotExist = errors.New("content does not exist")
	// ErrSourceRead signals the incoming stream broke before it was fully consumed.
	ErrSourceRead = errors.New("upload stream interrupted")
	// ErrInvalidKey rejects keys that are not plain storage names.
	ErrInvalidKey = errors.New("invalid storage key")
)

// Object describes content that has been durably written.
type Object struct {
	Key      string
	Location string
	Size     int64
	Checksum string
}

// Store is a content medium.
type Store interface {
	// Put streams r to the medium under key. Size is the exact number of bytes written.
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Object, error)
	// Open returns a reader over the content, or ErrNotExist.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Remove deletes the content. Missing content is not an error.
	Remove(ctx context.Context, key string) error
	// Ping reports whether the medium is reachable.
	Ping(ctx context.Context) error
}

// PartialSweeper removes abandoned in-progress writes.
type PartialSweeper interface {
	SweepPartials(ctx context.Context, olderThan time.Time) (int, error)
}
