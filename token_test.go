package gatehouse_test

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sagarc03/gatehouse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestTokens(t *testing.T, secret string, clock *fakeClock) *gatehouse.TokenService {
	t.Helper()
	opts := []gatehouse.TokenOption{}
	if clock != nil {
		opts = append(opts, gatehouse.WithClock(clock.Now))
	}
	s, err := gatehouse.NewTokenService([]byte(secret), 0, opts...)
	require.NoError(t, err, "new token service")
	return s
}

func TestTokenService_IssueValidate(t *testing.T) {
	s := newTestTokens(t, "test-secret", nil)

	token, expiresAt, err := s.Issue("alice", 0)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)
	assert.WithinDuration(t, time.Now().Add(gatehouse.DefaultTokenTTL), expiresAt, 2*time.Second)

	subject, err := s.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)
}

func TestTokenService_Expiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	s := newTestTokens(t, "test-secret", clock)

	token, expiresAt, err := s.Issue("alice", 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, clock.now.Add(30*time.Second), expiresAt)

	_, err = s.Validate(token)
	require.NoError(t, err, "valid immediately")

	clock.Advance(29 * time.Second)
	_, err = s.Validate(token)
	require.NoError(t, err, "valid before exp")

	clock.Advance(2 * time.Second)
	_, err = s.Validate(token)
	assert.ErrorIs(t, err, gatehouse.ErrTokenExpired)
	assert.ErrorIs(t, err, gatehouse.ErrInvalidToken)
}

func TestTokenService_FlippedSignature(t *testing.T) {
	s := newTestTokens(t, "test-secret", nil)

	token, _, err := s.Issue("alice", 0)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	require.NoError(t, err)
	sig[0] ^= 0x01
	parts[2] = base64.RawURLEncoding.EncodeToString(sig)

	_, err = s.Validate(strings.Join(parts, "."))
	assert.ErrorIs(t, err, gatehouse.ErrTokenSignature)
	assert.ErrorIs(t, err, gatehouse.ErrInvalidToken)
}

func TestTokenService_WrongSecret(t *testing.T) {
	issuer := newTestTokens(t, "secret-one", nil)
	validator := newTestTokens(t, "secret-two", nil)

	token, _, err := issuer.Issue("alice", 0)
	require.NoError(t, err)

	_, err = validator.Validate(token)
	assert.ErrorIs(t, err, gatehouse.ErrTokenSignature)
}

func TestTokenService_Malformed(t *testing.T) {
	s := newTestTokens(t, "test-secret", nil)

	for _, token := range []string{"", "abc", "a.b", "a.b.c", "....", "not a token at all"} {
		_, err := s.Validate(token)
		assert.ErrorIs(t, err, gatehouse.ErrInvalidToken, "token %q", token)
	}

	_, err := s.Validate("a.b")
	assert.ErrorIs(t, err, gatehouse.ErrTokenMalformed)
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	s := newTestTokens(t, "test-secret", nil)
	claims := jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	t.Run("HS384", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = s.Validate(token)
		assert.ErrorIs(t, err, gatehouse.ErrInvalidToken)
	})

	t.Run("none", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = s.Validate(token)
		assert.ErrorIs(t, err, gatehouse.ErrInvalidToken)
	})
}

func TestTokenService_RequiresExpAndSubject(t *testing.T) {
	s := newTestTokens(t, "test-secret", nil)

	t.Run("missing exp", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "alice"}).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = s.Validate(token)
		assert.ErrorIs(t, err, gatehouse.ErrInvalidToken)
	})

	t.Run("missing sub", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = s.Validate(token)
		assert.ErrorIs(t, err, gatehouse.ErrTokenMalformed)
	})
}

func TestNewTokenService(t *testing.T) {
	_, err := gatehouse.NewTokenService(nil, time.Minute)
	assert.ErrorIs(t, err, gatehouse.ErrInvalidInput)

	s, err := gatehouse.NewTokenService([]byte("x"), 0)
	require.NoError(t, err)
	assert.Equal(t, gatehouse.DefaultTokenTTL, s.TTL())

	_, _, err = s.Issue("", 0)
	assert.ErrorIs(t, err, gatehouse.ErrInvalidInput)
}

func TestGenerateSecret(t *testing.T) {
	a, err := gatehouse.GenerateSecret()
	require.NoError(t, err)
	b, err := gatehouse.GenerateSecret()
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
