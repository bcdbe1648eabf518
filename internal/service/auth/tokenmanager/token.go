package tokenmanager

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nkiryanov/delivery/internal/apperrors"
	"github.com/nkiryanov/delivery/internal/models"
	"github.com/nkiryanov/delivery/internal/service/auth/keys"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 5 * 24 * time.Hour
)

// Token manager with sensible default
type Config struct {
	// Key pair to sign and verify access tokens
	// Required to be set
	Keys *keys.Pair

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Clock used to stamp and validate tokens
	// If not set time.Now is used
	Now func() time.Time
}

type TokenManager struct {
	keys *keys.Pair

	// Signing algorithm is pinned: tokens signed with anything else are rejected
	alg jwt.SigningMethod

	// Access and refresh token lifetimes
	accessTTL  time.Duration
	refreshTTL time.Duration

	now func() time.Time
}

func New(cfg Config) (*TokenManager, error) {
	if cfg.Keys == nil {
		return nil, errors.New("key pair must not be nil")
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &TokenManager{
		keys:       cfg.Keys,
		alg:        jwt.SigningMethodES256,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        cfg.Now,
	}, nil
}

// Issue signed access token for the subject
// exp has second precision and is rounded up, so the token never expires before issuedAt+TTL
func (m *TokenManager) Issue(subject string) (models.AccessToken, error) {
	expiresAt := ceilSecond(m.now().Add(m.accessTTL))

	token := jwt.NewWithClaims(m.alg, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})

	signed, err := token.SignedString(m.keys.Private())
	if err != nil {
		return models.AccessToken{}, fmt.Errorf("%w: error while signing access token. Err: %v", apperrors.ErrTokenCreation, err)
	}

	return models.AccessToken{
		Value:     signed,
		Type:      models.TokenTypeBearer,
		ExpiresAt: expiresAt,
	}, nil
}

// Parse and validate access token
// Token is valid while now is before its exp
//
// Returns apperrors.ErrMissingCredentials if a required claim is absent
// and apperrors.ErrInvalidToken for any other failure
func (m *TokenManager) Verify(access string) (models.Claims, error) {
	claims := &jwt.RegisteredClaims{}

	_, err := jwt.ParseWithClaims(
		access,
		claims,
		func(t *jwt.Token) (any, error) {
			if t.Method.Alg() != m.alg.Alg() {
				return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
			}
			return m.keys.Public(), nil
		},
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)

	switch {
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return models.Claims{}, fmt.Errorf("%w: %w", apperrors.ErrMissingCredentials, err)
	case err != nil:
		return models.Claims{}, fmt.Errorf("%w: %w", apperrors.ErrInvalidToken, err)
	case claims.Subject == "":
		return models.Claims{}, fmt.Errorf("%w: sub claim is required", apperrors.ErrMissingCredentials)
	}

	return models.Claims{
		Subject:   claims.Subject,
		ExpiresAt: claims.ExpiresAt.UTC(),
	}, nil
}

func ceilSecond(t time.Time) time.Time {
	if truncated := t.Truncate(time.Second); truncated.Before(t) {
		return truncated.Add(time.Second)
	}
	return t
}
