package tokenmanager

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/nkiryanov/delivery/internal/models"
)

const (
	refreshIDLen     = 8
	refreshSecretLen = 32

	alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// NewRefresh creates refresh token for the user session
// The token is not stored anywhere: saving it is up to the caller
func (m *TokenManager) NewRefresh(username string) (models.RefreshToken, error) {
	id, err := randomString(refreshIDLen)
	if err != nil {
		return models.RefreshToken{}, fmt.Errorf("error while generating refresh token id. Err: %w", err)
	}

	secret, err := randomString(refreshSecretLen)
	if err != nil {
		return models.RefreshToken{}, fmt.Errorf("error while generating refresh token secret. Err: %w", err)
	}

	return models.RefreshToken{
		ID:        id,
		Secret:    secret,
		ExpiresAt: m.now().Truncate(time.Second).Add(m.refreshTTL),
		Username:  username,
	}, nil
}

// Random string of alphanumeric characters drawn from crypto/rand
func randomString(n int) (string, error) {
	max := big.NewInt(int64(len(alphanumeric)))
	b := make([]byte, n)

	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = alphanumeric[idx.Int64()]
	}

	return string(b), nil
}
