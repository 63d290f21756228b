package content

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const partialSuffix = ".part"

// Disk keeps content as flat files in one directory.
type Disk struct {
	dir string
}

// NewDisk creates the directory if needed and returns a disk store rooted there.
func NewDisk(dir string) (*Disk, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("upload directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &Disk{dir: dir}, nil
}

// Dir returns the root directory.
func (d *Disk) Dir() string {
	return d.dir
}

// Put writes to a temporary .part file, fsyncs it and renames it into place,
// so a reader never observes a partially written key.
func (d *Disk) Put(ctx context.Context, key string, r io.Reader, _ string) (Object, error) {
	path, err := d.path(key)
	if err != nil {
		return Object{}, err
	}

	tmp, err := os.CreateTemp(d.dir, "."+key+".*"+partialSuffix)
	if err != nil {
		return Object{}, fmt.Errorf("%w: create temp file: %v", ErrStorageWrite, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	hasher := sha256.New()
	src := &sourceReader{ctx: ctx, r: r}
	buf := make([]byte, ChunkSize)

	written, err := io.CopyBuffer(io.MultiWriter(tmp, hasher), src, buf)
	if err != nil {
		if src.err != nil {
			return Object{}, fmt.Errorf("%w: %v", ErrSourceRead, src.err)
		}
		return Object{}, fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	if err := tmp.Sync(); err != nil {
		return Object{}, fmt.Errorf("%w: sync: %v", ErrStorageWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return Object{}, fmt.Errorf("%w: close: %v", ErrStorageWrite, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		committed = true
		return Object{}, fmt.Errorf("%w: rename: %v", ErrStorageWrite, err)
	}
	committed = true

	return Object{
		Key:      key,
		Location: path,
		Size:     written,
		Checksum: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// Open returns the file for reading.
func (d *Disk) Open(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := d.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageRead, err)
	}
	return f, nil
}

// Remove deletes the file, ignoring files that are already gone.
func (d *Disk) Remove(_ context.Context, key string) error {
	path, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: remove: %v", ErrStorageWrite, err)
	}
	return nil
}

// Ping checks the root directory is still present.
func (d *Disk) Ping(context.Context) error {
	info, err := os.Stat(d.dir)
	if err != nil {
		return fmt.Errorf("stat upload directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("upload path %q is not a directory", d.dir)
	}
	return nil
}

// SweepPartials removes .part files last modified before olderThan.
func (d *Disk) SweepPartials(ctx context.Context, olderThan time.Time) (int, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return 0, fmt.Errorf("read upload directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), partialSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(olderThan) {
			continue
		}
		if err := os.Remove(filepath.Join(d.dir, entry.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("remove partial %q: %w", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}

func (d *Disk) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", ErrInvalidKey
	}
	return filepath.Join(d.dir, key), nil
}

// sourceReader remembers failures of the upstream reader so they can be told
// apart from failures of the medium.
type sourceReader struct {
	ctx context.Context
	r   io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	if err := s.ctx.Err(); err != nil {
		s.err = err
		return 0, err
	}
	n, err := s.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		s.err = err
	}
	return n, err
}
