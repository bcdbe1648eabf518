package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArgon2Hasher(t *testing.T) {
	t.Parallel()

	h := DefaultHasher

	t.Run("hash and compare", func(t *testing.T) {
		hash, err := h.Hash("password123")
		require.NoError(t, err)

		require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=19456,t=2,p=1$"), "hash should be in PHC format: %s", hash)
		require.NoError(t, h.Compare(hash, "password123"))
	})

	t.Run("wrong password", func(t *testing.T) {
		hash, err := h.Hash("password123")
		require.NoError(t, err)

		err = h.Compare(hash, "password124")

		require.ErrorIs(t, err, ErrPasswordMismatch)
	})

	t.Run("salted", func(t *testing.T) {
		first, err := h.Hash("password123")
		require.NoError(t, err)
		second, err := h.Hash("password123")
		require.NoError(t, err)

		require.NotEqual(t, first, second, "same password must give different hashes")
	})

	t.Run("empty password fail", func(t *testing.T) {
		_, err := h.Hash("")

		require.Error(t, err)
	})

	t.Run("parameters taken from hash", func(t *testing.T) {
		cheap := Argon2Hasher{Memory: 1024, Time: 1, Threads: 2, SaltLen: 8, KeyLen: 16}
		hash, err := cheap.Hash("password123")
		require.NoError(t, err)

		require.NoError(t, h.Compare(hash, "password123"), "default hasher should verify hash made with other parameters")
	})

	t.Run("malformed hash", func(t *testing.T) {
		for _, hash := range []string{
			"",
			"plain-text",
			"$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy", // bcrypt
			"$argon2i$v=19$m=19456,t=2,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
			"$argon2id$v=16$m=19456,t=2,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
			"$argon2id$v=19$m=a,t=2,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
			"$argon2id$v=19$m=19456,t=2,p=1$!!!$aGFzaGhhc2g",
			"$argon2id$v=19$m=19456,t=2,p=1$c2FsdHNhbHQ$",
			"$argon2id$v=19$m=1024,t=0,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",       // zero rounds
			"$argon2id$v=19$m=1024,t=1,p=0$c2FsdHNhbHQ$aGFzaGhhc2g",       // zero parallelism
			"$argon2id$v=19$m=4294967295,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g", // huge memory
			"$argon2id$v=19$m=1024,t=4000000,p=1$c2FsdHNhbHQ$aGFzaGhhc2g", // too many rounds
			"$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaGhhc2g",            // short salt
		} {
			require.NotPanics(t, func() {
				err := h.Compare(hash, "password123")
				require.ErrorIs(t, err, ErrMalformedHash, "hash %q", hash)
			}, "hash %q", hash)
		}
	})
}
