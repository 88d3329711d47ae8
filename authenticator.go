package gatehouse

import (
	"context"
	"errors"
	"fmt"
)

// dummyPassword is hashed once at startup so that lookups of unknown users
// spend the same bcrypt work as lookups of known ones.
const dummyPassword = "gatehouse-timing-equalizer"

// Authenticator turns credentials into an active Identity.
type Authenticator struct {
	users     UserStore
	hasher    PasswordHasher
	tokens    TokenValidator
	dummyHash string
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(users UserStore, hasher PasswordHasher, tokens TokenValidator) (*Authenticator, error) {
	if users == nil || hasher == nil || tokens == nil {
		return nil, fmt.Errorf("new authenticator: %w: users, hasher and tokens are required", ErrInvalidInput)
	}

	dummyHash, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("new authenticator: %w", err)
	}

	return &Authenticator{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		dummyHash: dummyHash,
	}, nil
}

// Authenticate verifies creds and requires the resulting identity to be active.
func (a *Authenticator) Authenticate(ctx context.Context, creds Credentials) (Identity, error) {
	var (
		identity Identity
		err      error
	)

	switch c := creds.(type) {
	case PasswordCredentials:
		identity, err = a.AuthenticateByPassword(ctx, c.Username, c.Password)
	case BearerCredentials:
		identity, err = a.AuthenticateByToken(ctx, c.Token)
	default:
		return Identity{}, fmt.Errorf("authenticate: %w", ErrInvalidCredentials)
	}
	if err != nil {
		return Identity{}, err
	}

	return a.RequireActive(identity)
}

// AuthenticateByPassword checks username and password. Unknown users and
// wrong passwords both yield ErrInvalidCredentials. The returned identity may
// be disabled; use RequireActive before granting access.
func (a *Authenticator) AuthenticateByPassword(ctx context.Context, username, password string) (Identity, error) {
	identity, err := a.users.Lookup(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			a.hasher.Verify(password, a.dummyHash)
			return Identity{}, fmt.Errorf("authenticate by password: %w", ErrInvalidCredentials)
		}
		return Identity{}, fmt.Errorf("authenticate by password: %w: %w", ErrInternal, err)
	}

	if !a.hasher.Verify(password, identity.PasswordHash) {
		return Identity{}, fmt.Errorf("authenticate by password: %w", ErrInvalidCredentials)
	}

	return identity, nil
}

// AuthenticateByToken validates token and loads the user named by its subject.
func (a *Authenticator) AuthenticateByToken(ctx context.Context, token string) (Identity, error) {
	subject, err := a.tokens.Validate(token)
	if err != nil {
		return Identity{}, fmt.Errorf("authenticate by token: %w: %w", ErrInvalidCredentials, err)
	}

	identity, err := a.users.Lookup(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Identity{}, fmt.Errorf("authenticate by token: %w", ErrInvalidCredentials)
		}
		return Identity{}, fmt.Errorf("authenticate by token: %w: %w", ErrInternal, err)
	}

	return identity, nil
}

// RequireActive rejects disabled identities.
func (a *Authenticator) RequireActive(identity Identity) (Identity, error) {
	if identity.Disabled {
		return Identity{}, fmt.Errorf("require active: %w", ErrInvalidCredentials)
	}
	return identity, nil
}
