package keys

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	err := os.WriteFile(path, data, 0o600)
	require.NoError(t, err, "failed to write test key file")

	return path
}

func Test_Keys(t *testing.T) {
	t.Parallel()

	privatePEM, publicPEM, err := Generate()
	require.NoError(t, err, "key pair should be generated without errors")

	t.Run("Generate", func(t *testing.T) {
		privBlock, _ := pem.Decode(privatePEM)
		require.NotNil(t, privBlock)
		require.Equal(t, "EC PRIVATE KEY", privBlock.Type)

		pubBlock, _ := pem.Decode(publicPEM)
		require.NotNil(t, pubBlock)
		require.Equal(t, "PUBLIC KEY", pubBlock.Type)
	})

	t.Run("Load", func(t *testing.T) {
		t.Run("load ok", func(t *testing.T) {
			pair, err := Load(writeFile(t, "private.pem", privatePEM), writeFile(t, "public.pem", publicPEM))

			require.NoError(t, err)
			require.Equal(t, elliptic.P256(), pair.Private().Curve)
			require.True(t, pair.Public().Equal(&pair.Private().PublicKey), "public key must belong to private one")
		})

		t.Run("empty paths fail", func(t *testing.T) {
			_, err := Load("", writeFile(t, "public.pem", publicPEM))

			require.Error(t, err)
		})

		t.Run("missing file fail", func(t *testing.T) {
			_, err := Load(filepath.Join(t.TempDir(), "not-exists.pem"), writeFile(t, "public.pem", publicPEM))

			require.Error(t, err)
			require.ErrorIs(t, err, os.ErrNotExist)
		})
	})

	t.Run("Parse", func(t *testing.T) {
		t.Run("not a pem fail", func(t *testing.T) {
			_, err := Parse([]byte("not a key"), publicPEM)

			require.Error(t, err)
		})

		t.Run("swapped keys fail", func(t *testing.T) {
			_, err := Parse(publicPEM, privatePEM)

			require.Error(t, err)
		})

		t.Run("keys from different pairs fail", func(t *testing.T) {
			_, otherPublicPEM, err := Generate()
			require.NoError(t, err)

			_, err = Parse(privatePEM, otherPublicPEM)

			require.Error(t, err)
			require.Contains(t, err.Error(), "does not match")
		})

		t.Run("not P-256 curve fail", func(t *testing.T) {
			private, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
			require.NoError(t, err)
			der, err := x509.MarshalECPrivateKey(private)
			require.NoError(t, err)
			pubDer, err := x509.MarshalPKIXPublicKey(&private.PublicKey)
			require.NoError(t, err)

			_, err = Parse(
				pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}),
				pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDer}),
			)

			require.Error(t, err)
			require.Contains(t, err.Error(), "P-256")
		})
	})
}
