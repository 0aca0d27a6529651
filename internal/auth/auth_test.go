package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"boltalka/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLookup struct {
	users map[string]models.User
	err   error
	calls int
}

func (s *stubLookup) GetUser(id string) (models.User, error) {
	s.calls++
	if s.err != nil {
		return models.User{}, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return models.User{}, models.ErrNotFound
	}
	return u, nil
}

func newTestAuthenticator(t *testing.T, lookup *stubLookup) (*Authenticator, *time.Time) {
	t.Helper()

	a, err := NewAuthenticator(context.Background(), Config{
		Secret:      "test-secret",
		TokenExpiry: time.Hour,
	}, lookup)
	require.NoError(t, err)

	currentTime := time.Unix(1700000000, 0)
	a.now = func() time.Time { return currentTime }

	return a, &currentTime
}

func TestAuthenticator_Authenticate(t *testing.T) {
	lookup := &stubLookup{users: map[string]models.User{
		"u1": {ID: "u1", Name: "Alice"},
	}}
	a, now := newTestAuthenticator(t, lookup)

	token, err := a.GenerateToken("u1")
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		user, err := a.Authenticate(token)
		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
		assert.Equal(t, "Alice", user.Name)
	})

	t.Run("identity served from cache", func(t *testing.T) {
		before := lookup.calls
		_, err := a.Authenticate(token)
		require.NoError(t, err)
		assert.Equal(t, before, lookup.calls)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := a.Authenticate("")
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := a.Authenticate("not.a.jwt")
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("expired token", func(t *testing.T) {
		*now = now.Add(2 * time.Hour)
		_, err := a.Authenticate(token)
		assert.ErrorIs(t, err, ErrUnauthenticated)
		*now = time.Unix(1700000000, 0)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, _ := newTestAuthenticator(t, lookup)
		other.Secret = "different-secret"
		stolen, err := other.GenerateToken("u1")
		require.NoError(t, err)

		_, err = a.Authenticate(stolen)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("unknown user", func(t *testing.T) {
		ghost, err := a.GenerateToken("nobody")
		require.NoError(t, err)

		_, err = a.Authenticate(ghost)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("store failure is not unauthenticated", func(t *testing.T) {
		failing := &stubLookup{err: errors.New("store down")}
		b, _ := newTestAuthenticator(t, failing)
		tok, err := b.GenerateToken("u1")
		require.NoError(t, err)

		_, err = b.Authenticate(tok)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnauthenticated)
	})
}

func TestPasswordHash(t *testing.T) {
	encoded, err := HashPassword("s3cret")
	require.NoError(t, err)

	ok, err := VerifyPassword("s3cret", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong", encoded)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = VerifyPassword("s3cret", "$bcrypt$nope")
	assert.ErrorIs(t, err, ErrMalformedHash)
}
