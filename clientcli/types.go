package clientcli

import "time"

// Token is an access token issued by POST /token.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Valid reports whether the token is set and not yet expired at now.
func (t Token) Valid(now time.Time) bool {
	return t.AccessToken != "" && now.Before(t.ExpiresAt)
}

// Identity is the authenticated user as reported by the server.
type Identity struct {
	Username string `json:"username"`
	Disabled bool   `json:"disabled"`
}

// UploadOptions configures an upload operation.
type UploadOptions struct {
	LocalPath    string
	Subdirectory string // remote directory, created if missing
	Filename     string // optional, defaults to the local base name
	Recursive    bool
}

// UploadResult represents the result of uploading a single file.
type UploadResult struct {
	LocalPath  string `json:"local_path"`
	RemotePath string `json:"remote_path"`
	Size       int64  `json:"size_bytes"`
	Err        error  `json:"-"` // nil on success
}

// DownloadOptions configures a download operation.
type DownloadOptions struct {
	RemotePath string
	LocalPath  string // empty = derive from remote, "-" = stdout
}

// DownloadResult represents the result of downloading a file.
type DownloadResult struct {
	RemotePath  string `json:"remote_path"`
	LocalPath   string `json:"local_path"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size_bytes"`
}

// ListResult is the listing of one remote directory.
type ListResult struct {
	Path  string   `json:"path"`
	Files []string `json:"files"`
}

// serverUploadResult mirrors the JSON response from the server.
type serverUploadResult struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// serverError mirrors the JSON error body from the server.
type serverError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
