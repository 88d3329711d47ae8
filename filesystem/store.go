// Package filesystem provides the file system storage backend for gatehouse.
// All access goes through an *os.Root, so even a path that slipped past the
// resolver cannot leave the storage root. Uploads are written to a temp file
// and hard-linked into place, which never replaces an existing file.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/sagarc03/gatehouse"
)

// tmpPrefix marks in-flight uploads. Such files are hidden from listings;
// every other dot entry is listed like any file.
const tmpPrefix = ".gatehouse-upload-"

// Store provides file system storage operations.
type Store struct {
	root *os.Root
}

// NewFileStorage creates a new Store with the given root directory.
// The root provides sandboxed file operations preventing path traversal.
func NewFileStorage(root *os.Root) *Store {
	return &Store{root: root}
}

// Open opens a regular file for reading. Missing files and directories
// yield gatehouse.ErrNotFound.
func (s *Store) Open(ctx context.Context, name string) (io.ReadSeekCloser, gatehouse.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, gatehouse.FileInfo{}, err
	}

	f, err := s.root.Open(name)
	if err != nil {
		if isNotExist(err) {
			return nil, gatehouse.FileInfo{}, gatehouse.ErrNotFound
		}
		return nil, gatehouse.FileInfo{}, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		closeQuietly(f, name)
		return nil, gatehouse.FileInfo{}, fmt.Errorf("failed to stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		closeQuietly(f, name)
		return nil, gatehouse.FileInfo{}, gatehouse.ErrNotFound
	}

	return f, gatehouse.FileInfo{
		Name:    info.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// ListFiles returns the names of regular files directly inside dir.
// Symbolic links count when they lead to a regular file inside the root.
func (s *Store) ListFiles(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(s.root.FS(), dir)
	if err != nil {
		if isNotExist(err) {
			return nil, gatehouse.ErrNotFound
		}
		return nil, fmt.Errorf("failed to list directory: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, tmpPrefix) {
			continue
		}

		switch {
		case entry.Type().IsRegular():
			files = append(files, name)
		case entry.Type()&fs.ModeSymlink != 0:
			info, statErr := s.root.Stat(path.Join(dir, name))
			if statErr == nil && info.Mode().IsRegular() {
				files = append(files, name)
			}
		}
	}

	return files, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Create writes content to name, creating intermediate directories. The data
// is staged in a temp file next to the destination and linked into place, so
// readers never see a partial file and an existing file is never replaced:
// that case yields gatehouse.ErrConflict.
func (s *Store) Create(ctx context.Context, name string, content io.Reader) (int64, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return 0, ctxErr
	}

	if _, err := s.root.Lstat(name); err == nil {
		return 0, gatehouse.ErrConflict
	}

	destDir := path.Dir(name)
	if destDir != "." {
		if err := s.root.MkdirAll(destDir, 0o755); err != nil {
			if isPathBlocked(err) {
				return 0, fmt.Errorf("could not create intermediate directories: %w", gatehouse.ErrPathRejected)
			}
			return 0, fmt.Errorf("could not create intermediate directories: %w", err)
		}
	}

	tmpFile := path.Join(destDir, tmpFileName())
	t, createErr := s.root.OpenFile(tmpFile, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if createErr != nil {
		if isPathBlocked(createErr) {
			return 0, fmt.Errorf("could not open temp file: %w", gatehouse.ErrPathRejected)
		}
		return 0, fmt.Errorf("could not open temp file: %w", createErr)
	}

	closed := false
	defer func() {
		if !closed {
			if closeErr := t.Close(); closeErr != nil {
				slog.Warn("failed to close tmp file", "err", closeErr)
			}
		}
		if rmErr := s.root.Remove(tmpFile); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			slog.Warn("failed to remove tmp file", "path", tmpFile, "err", rmErr)
		}
	}()

	written, err := io.Copy(t, &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return 0, fmt.Errorf("could not copy file contents: %w", err)
	}

	if err := t.Sync(); err != nil {
		return 0, fmt.Errorf("could not sync written file: %w", err)
	}

	closed = true
	if err := t.Close(); err != nil {
		return 0, fmt.Errorf("could not close written file: %w", err)
	}

	if err := s.root.Link(tmpFile, name); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return 0, gatehouse.ErrConflict
		}
		return 0, fmt.Errorf("failed to link file: %w", err)
	}

	return written, nil
}

// Close releases the underlying root.
func (s *Store) Close() error {
	return s.root.Close()
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

// isPathBlocked reports whether a directory segment of the destination is
// taken by something other than a directory.
func isPathBlocked(err error) bool {
	return errors.Is(err, fs.ErrExist) || errors.Is(err, syscall.ENOTDIR)
}

func closeQuietly(f *os.File, name string) {
	if err := f.Close(); err != nil {
		slog.Warn("failed to close file", "path", name, "err", err)
	}
}

func tmpFileName() string {
	return tmpPrefix + uuid.New().String()
}
