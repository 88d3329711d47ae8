package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sagarc03/gatehouse"
)

// Authenticator resolves request credentials to an active identity.
type Authenticator interface {
	Authenticate(ctx context.Context, creds gatehouse.Credentials) (gatehouse.Identity, error)
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity gatehouse.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the identity stored by AuthMiddleware.
func IdentityFromContext(ctx context.Context) (gatehouse.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(gatehouse.Identity)
	return identity, ok
}

// CredentialsFromRequest extracts bearer or basic credentials from the
// Authorization header.
func CredentialsFromRequest(r *http.Request) (gatehouse.Credentials, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, ErrUnauthorized
	}

	scheme, value, found := strings.Cut(header, " ")
	if found && strings.EqualFold(scheme, "Bearer") {
		token := strings.TrimSpace(value)
		if token == "" {
			return nil, ErrUnauthorized
		}
		return gatehouse.BearerCredentials{Token: token}, nil
	}

	if username, password, ok := r.BasicAuth(); ok {
		return gatehouse.PasswordCredentials{Username: username, Password: password}, nil
	}

	return nil, ErrUnauthorized
}

// AuthMiddleware rejects requests without valid bearer or basic credentials
// and stores the authenticated identity in the request context.
func AuthMiddleware(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			creds, err := CredentialsFromRequest(r)
			if err != nil {
				slog.Warn("authentication failed", "path", r.URL.Path, "remote", r.RemoteAddr)
				WriteUnauthorized(w)
				return
			}

			identity, err := auth.Authenticate(r.Context(), creds)
			if err != nil {
				if errors.Is(err, gatehouse.ErrInvalidCredentials) {
					slog.Warn("authentication failed", "path", r.URL.Path, "remote", r.RemoteAddr)
					WriteUnauthorized(w)
					return
				}
				HandleError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequestLogger logs one line per request after it completes.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		}
		if id := middleware.GetReqID(r.Context()); id != "" {
			attrs = append(attrs, "request_id", id)
		}
		slog.Info("request", attrs...)
	})
}
