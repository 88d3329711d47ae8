package clientcli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout is the default HTTP client timeout.
const DefaultTimeout = 30 * time.Second

// Client performs operations against a gatehouse server.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	// Apply defaults
	cfg = cfg.WithDefaults()

	c := &Client{
		config: &Config{
			Endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
			Username: cfg.Username,
			Password: cfg.Password,
			Token:    cfg.Token,
		},
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}

	// Apply options
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Ping checks that the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", http.NoBody, "", false)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return expectStatus(resp, http.StatusOK)
}

// Login exchanges a username and password for an access token. The token
// is also used for subsequent requests made by this client.
func (c *Client) Login(ctx context.Context, username, password string) (*Token, error) {
	form := url.Values{"username": {username}, "password": {password}}

	resp, err := c.do(ctx, http.MethodPost, "/token", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", false)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var token Token
	if err := decodeResponse(resp, http.StatusOK, &token); err != nil {
		return nil, err
	}

	c.config.Token = token.AccessToken
	return &token, nil
}

// Whoami returns the identity behind the client's credentials.
func (c *Client) Whoami(ctx context.Context) (*Identity, error) {
	resp, err := c.do(ctx, http.MethodGet, "/users/me", http.NoBody, "", true)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var identity Identity
	if err := decodeResponse(resp, http.StatusOK, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

// Register creates a new user on the server.
func (c *Client) Register(ctx context.Context, username, password string) error {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/register", bytes.NewReader(body), "application/json", true)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	return expectStatus(resp, http.StatusCreated)
}

// List returns the files directly inside a remote directory. An empty
// path lists the root.
func (c *Client) List(ctx context.Context, remoteDir string) (*ListResult, error) {
	endpoint := "/list"
	if p := escapePath(remoteDir); p != "" {
		endpoint += "/" + p
	}

	resp, err := c.do(ctx, http.MethodGet, endpoint, http.NoBody, "", true)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var result ListResult
	if err := decodeResponse(resp, http.StatusOK, &result); err != nil {
		return nil, err
	}
	if result.Files == nil {
		result.Files = []string{}
	}
	return &result, nil
}

// Upload uploads file(s) to the server.
// For recursive uploads, walks the directory and preserves relative paths
// below opts.Subdirectory.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) ([]UploadResult, error) {
	if opts.LocalPath == "" {
		return nil, fmt.Errorf("upload: %w", ErrEmptyPath)
	}
	if opts.Recursive {
		return c.uploadRecursive(ctx, opts)
	}
	result, err := c.uploadSingle(ctx, opts.LocalPath, opts.Subdirectory, opts.Filename)
	if err != nil {
		return nil, err
	}
	return []UploadResult{result}, nil
}

// uploadRecursive walks a directory and uploads all regular files.
func (c *Client) uploadRecursive(ctx context.Context, opts UploadOptions) ([]UploadResult, error) {
	info, err := os.Stat(opts.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("stat local path: %w", err)
	}

	if !info.IsDir() {
		result, uploadErr := c.uploadSingle(ctx, opts.LocalPath, opts.Subdirectory, opts.Filename)
		if uploadErr != nil {
			return nil, uploadErr
		}
		return []UploadResult{result}, nil
	}

	var results []UploadResult
	baseDir := opts.LocalPath
	remotePrefix := strings.Trim(opts.Subdirectory, "/")

	walkErr := filepath.WalkDir(baseDir, func(localPath string, d fs.DirEntry, fileErr error) error {
		if fileErr != nil {
			return fileErr
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if !d.Type().IsRegular() {
			return nil
		}

		relPath, relErr := filepath.Rel(baseDir, localPath)
		if relErr != nil {
			results = append(results, UploadResult{
				LocalPath: localPath,
				Err:       fmt.Errorf("calculate relative path: %w", relErr),
			})
			return nil
		}

		relDir := path.Dir(filepath.ToSlash(relPath))
		if relDir == "." {
			relDir = ""
		}
		subdir := path.Join(remotePrefix, relDir)

		result, uploadErr := c.uploadSingle(ctx, localPath, subdir, "")
		if uploadErr != nil {
			result = UploadResult{
				LocalPath:  localPath,
				RemotePath: path.Join(subdir, d.Name()),
				Err:        uploadErr,
			}
		}
		results = append(results, result)
		return nil
	})

	if walkErr != nil {
		return results, fmt.Errorf("walk directory: %w", walkErr)
	}

	return results, nil
}

// uploadSingle streams one file as a multipart request without buffering
// it in memory.
func (c *Client) uploadSingle(ctx context.Context, localPath, subdir, filename string) (UploadResult, error) {
	file, err := os.Open(localPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return UploadResult{}, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if filename == "" {
		filename = filepath.Base(localPath)
	}

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		err := writeUploadForm(writer, file, subdir, filename)
		if err == nil {
			err = writer.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	resp, err := c.do(ctx, http.MethodPost, "/upload", pr, writer.FormDataContentType(), true)
	if err != nil {
		_ = pr.CloseWithError(err)
		return UploadResult{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	var server serverUploadResult
	if err := decodeResponse(resp, http.StatusCreated, &server); err != nil {
		return UploadResult{}, err
	}

	return UploadResult{
		LocalPath:  localPath,
		RemotePath: server.Path,
		Size:       server.Size,
	}, nil
}

func writeUploadForm(writer *multipart.Writer, content io.Reader, subdir, filename string) error {
	if subdir != "" {
		if err := writer.WriteField("subdirectory", subdir); err != nil {
			return err
		}
	}
	if err := writer.WriteField("filename", filename); err != nil {
		return err
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, content)
	return err
}

// Download downloads a file from the server.
// If opts.LocalPath is "-", the content is returned via the io.ReadCloser and must be closed by the caller.
// Otherwise, the content is written to the file and the io.ReadCloser is nil.
func (c *Client) Download(ctx context.Context, opts DownloadOptions) (*DownloadResult, io.ReadCloser, error) {
	remotePath := strings.Trim(opts.RemotePath, "/")
	if remotePath == "" {
		return nil, nil, fmt.Errorf("download: %w", ErrEmptyPath)
	}

	resp, err := c.do(ctx, http.MethodGet, "/files/"+escapePath(remotePath), http.NoBody, "", true)
	if err != nil {
		return nil, nil, err
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, nil, parseServerError(resp.StatusCode, body)
	}

	result := &DownloadResult{
		RemotePath:  remotePath,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}

	// If stdout requested, return the body for the caller to handle
	if opts.LocalPath == "-" {
		result.LocalPath = "-"
		return result, resp.Body, nil
	}

	localPath := opts.LocalPath
	if localPath == "" {
		localPath = path.Base(remotePath)
	}
	result.LocalPath = localPath

	dir := filepath.Dir(localPath)
	if dir != "" && dir != "." {
		if mkdirErr := os.MkdirAll(dir, 0o750); mkdirErr != nil {
			_ = resp.Body.Close()
			return nil, nil, fmt.Errorf("create directory: %w", mkdirErr)
		}
	}

	file, createErr := os.Create(localPath) //#nosec G304 -- localPath is user-provided input
	if createErr != nil {
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("create file: %w", createErr)
	}

	written, copyErr := io.Copy(file, resp.Body)
	_ = resp.Body.Close()
	if copyErr != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("write file: %w", copyErr)
	}

	if closeErr := file.Close(); closeErr != nil {
		return nil, nil, fmt.Errorf("close file: %w", closeErr)
	}

	result.Size = written
	return result, nil, nil
}

// HasUploadErrors returns true if any upload failed.
func HasUploadErrors(results []UploadResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// do builds and sends a request. escapedPath must already be escaped.
func (c *Client) do(ctx context.Context, method, escapedPath string, body io.Reader, contentType string, withAuth bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.config.Endpoint+escapedPath, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if withAuth {
		if err := c.authorize(req); err != nil {
			return nil, err
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	return resp, nil
}

func (c *Client) authorize(req *http.Request) error {
	switch {
	case c.config.Token != "":
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	case c.config.Username != "" && c.config.Password != "":
		req.SetBasicAuth(c.config.Username, c.config.Password)
	default:
		return ErrCredentialsRequired
	}
	return nil
}

// escapePath escapes each segment of a slash-separated remote path so that
// reserved characters such as '%' and '?' survive the trip to the server.
func escapePath(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

func expectStatus(resp *http.Response, want int) error {
	if resp.StatusCode == want {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	return parseServerError(resp.StatusCode, body)
}

func decodeResponse(resp *http.Response, want int, v any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != want {
		return parseServerError(resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// parseServerError extracts the error code and message from a server response.
func parseServerError(statusCode int, body []byte) error {
	apiErr := &APIError{
		StatusCode: statusCode,
		Body:       string(body),
	}
	var se serverError
	if json.Unmarshal(body, &se) == nil {
		apiErr.Code = se.Error
		apiErr.Message = se.Message
	}
	return apiErr
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Code       string // machine-readable code, e.g. "conflict"
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		msg := "server error: " + strconv.Itoa(e.StatusCode) + " " + e.Code
		if e.Message != "" {
			msg += ": " + e.Message
		}
		return msg
	}
	return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Body
}

// Is reports whether target matches this error.
// It matches if target is an *APIError with the same StatusCode and, when
// the target sets one, the same Code.
func (e *APIError) Is(target error) bool {
	var t *APIError
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	if t.StatusCode != e.StatusCode {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// IsNotFound returns true if the error is a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrNotFound is returned when the requested file does not exist (404).
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrUnauthorized is returned when authentication fails (401).
	ErrUnauthorized = &APIError{StatusCode: http.StatusUnauthorized}

	// ErrConflict is returned when an upload target or username already exists.
	ErrConflict = &APIError{StatusCode: http.StatusBadRequest, Code: "conflict"}

	// ErrInvalidPath is returned when the server rejects a path.
	ErrInvalidPath = &APIError{StatusCode: http.StatusBadRequest, Code: "invalid_path"}
)
