package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

var (
	ErrPasswordMismatch = errors.New("password does not match")
	ErrMalformedHash    = errors.New("malformed password hash")
)

// Bounds for parameters read from a stored hash
// Anything outside them is a malformed hash, never a derivation attempt
const (
	maxHashMemory  = 256 * 1024 // KiB
	maxHashTime    = 16
	maxHashThreads = 16
	minSaltLen     = 8
	maxKeyLen      = 128
)

// Argon2id hasher
// Hashes are encoded in PHC string format: $argon2id$v=19$m=19456,t=2,p=1$<salt>$<hash>
// Compare uses parameters from the hash, so hashes made with other parameters are accepted too
type Argon2Hasher struct {
	Memory  uint32 // KiB
	Time    uint32
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

var DefaultHasher = Argon2Hasher{
	Memory:  19 * 1024,
	Time:    2,
	Threads: 1,
	SaltLen: 16,
	KeyLen:  32,
}

func (h Argon2Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}

	hash, err := argon2id.CreateHash(password, &argon2id.Params{
		Memory:      h.Memory,
		Iterations:  h.Time,
		Parallelism: h.Threads,
		SaltLength:  h.SaltLen,
		KeyLength:   h.KeyLen,
	})
	if err != nil {
		return "", fmt.Errorf("can't hash password. Err: %w", err)
	}

	return hash, nil
}

func (h Argon2Hasher) Compare(hashedPassword string, password string) error {
	if !strings.HasPrefix(hashedPassword, "$argon2id$") {
		return ErrMalformedHash
	}

	params, salt, key, err := argon2id.DecodeHash(hashedPassword)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	if err := checkParams(params, salt, key); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}

	match, _, err := argon2id.CheckHash(password, hashedPassword)
	switch {
	case err != nil:
		return fmt.Errorf("%w: %v", ErrMalformedHash, err)
	case !match:
		return ErrPasswordMismatch
	}

	return nil
}

// argon2.IDKey panics on zero rounds or threads and allocates m KiB unconditionally
func checkParams(p *argon2id.Params, salt, key []byte) error {
	switch {
	case p.Iterations < 1 || p.Iterations > maxHashTime:
		return fmt.Errorf("rounds %d out of range", p.Iterations)
	case p.Parallelism < 1 || p.Parallelism > maxHashThreads:
		return fmt.Errorf("parallelism %d out of range", p.Parallelism)
	case p.Memory < 8*uint32(p.Parallelism) || p.Memory > maxHashMemory:
		return fmt.Errorf("memory %d KiB out of range", p.Memory)
	case len(salt) < minSaltLen:
		return fmt.Errorf("salt too short: %d bytes", len(salt))
	case len(key) == 0 || len(key) > maxKeyLen:
		return fmt.Errorf("key length %d out of range", len(key))
	}
	return nil
}
