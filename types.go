package gatehouse

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"
)

// Identity is a stored user account.
type Identity struct {
	Username     string
	PasswordHash string
	Disabled     bool
}

// Credentials is the set of ways a caller can prove who they are.
// It is implemented by PasswordCredentials and BearerCredentials only.
type Credentials interface {
	credentials()
}

// PasswordCredentials carries a username and plaintext password, as sent
// with HTTP Basic auth or the login form.
type PasswordCredentials struct {
	Username string
	Password string
}

// BearerCredentials carries a token previously issued by TokenService.
type BearerCredentials struct {
	Token string
}

func (PasswordCredentials) credentials() {}
func (BearerCredentials) credentials()   {}

// Token is the result of a successful login.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ResolvedPath is the outcome of resolving a client path against the storage root.
type ResolvedPath struct {
	// Root is the canonical storage root.
	Root string
	// Requested is the path exactly as the client sent it.
	Requested string
	// Resolved is the canonical absolute location. It equals Root or lies below it.
	Resolved string
	// Rel is Resolved relative to Root, slash separated. It is "." for the root itself.
	Rel string
}

// FileInfo describes a regular file held by FileStorage.
type FileInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// File is an open file ready to be streamed to a client. Content must be closed.
type File struct {
	Path        string
	ContentType string
	Size        int64
	ModTime     time.Time
	Content     io.ReadSeekCloser
}

// Listing holds the regular files directly inside a directory.
type Listing struct {
	Path  string   `json:"path"`
	Files []string `json:"files"`
}

// UploadRequest names where an uploaded file should be placed.
type UploadRequest struct {
	Subdirectory string
	Filename     string
}

// UploadResult reports where an upload was stored.
type UploadResult struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Tables holds configurable table names for user storage.
// This allows several deployments to share one database.
type Tables struct {
	Users string `mapstructure:"users"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Users == "" {
		return errors.New("validate tables: users table name cannot be empty")
	}

	if !IsValidTableName(t.Users) {
		return fmt.Errorf("validate tables: invalid users table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Users)
	}

	return nil
}
