package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"boltalka/internal/models"

	"github.com/c-pro/geche"
	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultTokenExpiry = 24 * time.Hour
	tokenIssuer        = "boltalka"

	// How long a resolved identity may be served from cache before the
	// store is consulted again.
	identityCacheTTL = time.Minute
)

var ErrUnauthenticated = errors.New("unauthenticated")

// Claims is the payload carried inside a credential token.
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// UserLookup resolves a user id to its durable account record.
type UserLookup interface {
	GetUser(id string) (models.User, error)
}

type Config struct {
	Secret      string
	TokenExpiry time.Duration
}

func (c *Config) Validate() error {
	if c.Secret == "" {
		return errors.New("secret is required")
	}

	if c.TokenExpiry == 0 {
		c.TokenExpiry = DefaultTokenExpiry
	}

	return nil
}

// Authenticator validates credential tokens presented at connection time
// and resolves them to durable identities. It has no side effects beyond
// the store lookup.
type Authenticator struct {
	Config
	users UserLookup
	cache geche.Geche[string, models.User]
	now   func() time.Time
}

func NewAuthenticator(ctx context.Context, config Config, users UserLookup) (*Authenticator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Authenticator{
		Config: config,
		users:  users,
		cache:  geche.NewMapTTLCache[string, models.User](ctx, identityCacheTTL, time.Minute),
		now:    time.Now,
	}, nil
}

// Authenticate checks the token's signature and expiry, then confirms the
// referenced user still exists. Any failure maps to ErrUnauthenticated:
// the caller must refuse the connection without creating a session.
func (a *Authenticator) Authenticate(token string) (models.User, error) {
	if token == "" {
		return models.User{}, fmt.Errorf("%w: no token provided", ErrUnauthenticated)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(a.Secret), nil
	}, jwt.WithTimeFunc(func() time.Time { return a.now() }))
	if err != nil || !parsed.Valid {
		return models.User{}, fmt.Errorf("%w: invalid or expired token", ErrUnauthenticated)
	}
	if claims.UserID == "" {
		return models.User{}, fmt.Errorf("%w: token carries no user id", ErrUnauthenticated)
	}

	if user, err := a.cache.Get(claims.UserID); err == nil {
		return user, nil
	}

	user, err := a.users.GetUser(claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.User{}, fmt.Errorf("%w: user not found", ErrUnauthenticated)
		}
		return models.User{}, fmt.Errorf("failed to look up user: %w", err)
	}

	a.cache.Set(user.ID, user)
	return user, nil
}

// GenerateToken signs a credential for userID with the configured expiry.
// Used by the provisioning command and by tests.
func (a *Authenticator) GenerateToken(userID string) (string, error) {
	now := a.now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(a.TokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.Secret))
}
