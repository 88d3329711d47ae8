package gatehouse

import (
	"context"
	"io"
)

// UserStore persists user identities.
//
// Lookup returns an error wrapping ErrNotFound for unknown usernames.
// InsertIfAbsent returns an error wrapping ErrConflict when the username is
// taken; the check and the insert happen atomically.
type UserStore interface {
	Lookup(ctx context.Context, username string) (Identity, error)
	InsertIfAbsent(ctx context.Context, identity Identity) error
	Count(ctx context.Context) (int64, error)
}

// FileStorage reads and writes files below the storage root. Paths are the
// slash separated Rel values produced by PathResolver.
type FileStorage interface {
	// Open returns a regular file. Directories and missing paths yield ErrNotFound.
	Open(ctx context.Context, path string) (io.ReadSeekCloser, FileInfo, error)
	// ListFiles returns the names of regular files directly inside dir.
	ListFiles(ctx context.Context, dir string) ([]string, error)
	// Create writes content to a new file, creating parent directories.
	// It never replaces an existing file; that case yields ErrConflict.
	Create(ctx context.Context, path string, content io.Reader) (int64, error)
}
