package gatehouse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"sort"
)

// Gateway combines authentication, path resolution and file storage into
// the operations exposed over HTTP.
type Gateway struct {
	auth     *Authenticator
	users    UserStore
	hasher   PasswordHasher
	tokens   TokenIssuer
	resolver *PathResolver
	storage  FileStorage
}

// TokenProvider issues and validates tokens. *TokenService implements it.
type TokenProvider interface {
	TokenIssuer
	TokenValidator
}

// NewGateway wires a Gateway from its collaborators.
func NewGateway(users UserStore, hasher PasswordHasher, tokens TokenProvider, resolver *PathResolver, storage FileStorage) (*Gateway, error) {
	if resolver == nil || storage == nil {
		return nil, fmt.Errorf("new gateway: %w: resolver and storage are required", ErrInvalidInput)
	}

	auth, err := NewAuthenticator(users, hasher, tokens)
	if err != nil {
		return nil, fmt.Errorf("new gateway: %w", err)
	}

	return &Gateway{
		auth:     auth,
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		resolver: resolver,
		storage:  storage,
	}, nil
}

// Authenticate verifies creds and returns the active identity behind them.
func (g *Gateway) Authenticate(ctx context.Context, creds Credentials) (Identity, error) {
	return g.auth.Authenticate(ctx, creds)
}

// Login verifies a username and password and issues an access token.
func (g *Gateway) Login(ctx context.Context, username, password string) (Token, error) {
	identity, err := g.auth.Authenticate(ctx, PasswordCredentials{Username: username, Password: password})
	if err != nil {
		return Token{}, fmt.Errorf("login: %w", err)
	}

	accessToken, expiresAt, err := g.tokens.Issue(identity.Username, 0)
	if err != nil {
		return Token{}, fmt.Errorf("login: %w: %w", ErrInternal, err)
	}

	return Token{
		AccessToken: accessToken,
		TokenType:   TokenType,
		ExpiresAt:   expiresAt,
	}, nil
}

// Download opens the regular file at requested. Rejected paths never reach storage.
func (g *Gateway) Download(ctx context.Context, requested string) (File, error) {
	if err := ctx.Err(); err != nil {
		return File{}, fmt.Errorf("download: %w", err)
	}

	resolved, err := g.resolver.Resolve(requested)
	if err != nil {
		return File{}, fmt.Errorf("download: %w", err)
	}
	if resolved.Rel == "." {
		return File{}, fmt.Errorf("download: %w", ErrNotFound)
	}

	content, info, err := g.storage.Open(ctx, resolved.Rel)
	if err != nil {
		return File{}, fmt.Errorf("download %s: %w", resolved.Rel, err)
	}

	return File{
		Path:        resolved.Rel,
		ContentType: detectContentType(info.Name),
		Size:        info.Size,
		ModTime:     info.ModTime,
		Content:     content,
	}, nil
}

// List returns the sorted names of regular files directly inside requested.
func (g *Gateway) List(ctx context.Context, requested string) (Listing, error) {
	if err := ctx.Err(); err != nil {
		return Listing{}, fmt.Errorf("list: %w", err)
	}

	resolved, err := g.resolver.Resolve(requested)
	if err != nil {
		return Listing{}, fmt.Errorf("list: %w", err)
	}

	files, err := g.storage.ListFiles(ctx, resolved.Rel)
	if err != nil {
		return Listing{}, fmt.Errorf("list %s: %w", resolved.Rel, err)
	}
	if files == nil {
		files = []string{}
	}
	sort.Strings(files)

	return Listing{Path: displayPath(resolved.Rel), Files: files}, nil
}

// Upload stores content under the sanitized subdirectory and filename. It
// fails with ErrConflict rather than replacing an existing file.
func (g *Gateway) Upload(ctx context.Context, req UploadRequest, content io.Reader) (UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return UploadResult{}, fmt.Errorf("upload: %w", err)
	}
	if req.Filename == "" {
		return UploadResult{}, fmt.Errorf("upload: %w: filename is required", ErrInvalidInput)
	}

	resolved, err := g.resolver.ResolveForCreate(req.Subdirectory, req.Filename)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload: %w", err)
	}

	size, err := g.storage.Create(ctx, resolved.Rel, content)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload %s: %w", resolved.Rel, err)
	}

	return UploadResult{Path: resolved.Rel, Size: size}, nil
}

// Register creates a new active user.
func (g *Gateway) Register(ctx context.Context, username, password string) error {
	if !IsValidUsername(username) {
		return fmt.Errorf("register: %w: invalid username", ErrInvalidInput)
	}

	hash, err := g.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("register %s: %w", username, err)
	}

	if err := g.users.InsertIfAbsent(ctx, Identity{Username: username, PasswordHash: hash}); err != nil {
		return fmt.Errorf("register %s: %w", username, err)
	}
	return nil
}

// Bootstrap creates the initial user when the store is empty. It reports
// whether a user was created. An empty store with no password is an error.
func Bootstrap(ctx context.Context, users UserStore, hasher PasswordHasher, username, password string) (bool, error) {
	count, err := users.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("bootstrap: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	if !IsValidUsername(username) {
		return false, fmt.Errorf("bootstrap: %w: invalid username %q", ErrInvalidInput, username)
	}
	if password == "" {
		return false, fmt.Errorf("bootstrap: %w: user store is empty and no bootstrap password is set", ErrInvalidInput)
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return false, fmt.Errorf("bootstrap: %w", err)
	}

	err = users.InsertIfAbsent(ctx, Identity{Username: username, PasswordHash: hash})
	if errors.Is(err, ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("bootstrap: %w", err)
	}
	return true, nil
}

func displayPath(rel string) string {
	if rel == "." {
		return ""
	}
	return rel
}

// detectContentType returns MIME type based on file extension.
func detectContentType(name string) string {
	ext := path.Ext(name)
	if ext == "" {
		return "application/octet-stream"
	}

	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		return "application/octet-stream"
	}

	return mimeType
}
