// Package keys loads the ECDSA P-256 key pair used to sign and verify access tokens.
//
// A Pair is built once at startup and then only read, so it is safe to share
// between any number of goroutines.
package keys

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// Key pair to sign (private) and verify (public) ES256 tokens
type Pair struct {
	private *ecdsa.PrivateKey
	public  *ecdsa.PublicKey
}

// Load reads PEM encoded private and public EC keys from files
func Load(privatePath string, publicPath string) (*Pair, error) {
	if privatePath == "" || publicPath == "" {
		return nil, errors.New("both private and public key paths must be set")
	}

	privatePEM, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, fmt.Errorf("can't read private key file. Err: %w", err)
	}

	publicPEM, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("can't read public key file. Err: %w", err)
	}

	return Parse(privatePEM, publicPEM)
}

// Parse builds key pair from PEM encoded keys
// Both keys must be on P-256 curve and belong to each other
func Parse(privatePEM []byte, publicPEM []byte) (*Pair, error) {
	private, err := jwt.ParseECPrivateKeyFromPEM(privatePEM)
	if err != nil {
		return nil, fmt.Errorf("invalid EC private key. Err: %w", err)
	}

	public, err := jwt.ParseECPublicKeyFromPEM(publicPEM)
	if err != nil {
		return nil, fmt.Errorf("invalid EC public key. Err: %w", err)
	}

	if private.Curve != elliptic.P256() || public.Curve != elliptic.P256() {
		return nil, errors.New("keys must use P-256 curve")
	}

	if !private.PublicKey.Equal(public) {
		return nil, errors.New("public key does not match private key")
	}

	return &Pair{private: private, public: public}, nil
}

// Generate new P-256 key pair encoded as PEM
// Private key is SEC 1 ("EC PRIVATE KEY"), public key is PKIX ("PUBLIC KEY")
func Generate() (privatePEM []byte, publicPEM []byte, err error) {
	private, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("error while generating key. Err: %w", err)
	}

	der, err := x509.MarshalECPrivateKey(private)
	if err != nil {
		return nil, nil, fmt.Errorf("error while encoding private key. Err: %w", err)
	}
	privatePEM = pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})

	der, err = x509.MarshalPKIXPublicKey(&private.PublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("error while encoding public key. Err: %w", err)
	}
	publicPEM = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	return privatePEM, publicPEM, nil
}

func (p *Pair) Private() *ecdsa.PrivateKey {
	return p.private
}

func (p *Pair) Public() *ecdsa.PublicKey {
	return p.public
}
