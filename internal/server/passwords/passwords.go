// Package passwords hashes account secrets and verifies them against stored
// hashes. Argon2id (PHC string) and bcrypt are supported; verification picks
// the scheme from the hash itself, so rows written under either setting stay
// valid after the configured algorithm changes.
package passwords

import (
	"errors"
	"fmt"
	"strings"
)

// Algorithm names accepted by New.
const (
	Argon2id = "argon2id"
	Bcrypt   = "bcrypt"
)

// ErrUnknownHash is returned when a stored hash matches no known scheme.
var ErrUnknownHash = errors.New("passwords: unknown hash format")

// Hasher hashes secrets and checks them.
type Hasher interface {
	Hash(secret string) (string, error)
	// Verify reports whether secret matches hash. A malformed hash yields
	// (false, err).
	Verify(secret, hash string) (bool, error)
}

type scheme interface {
	Hasher
	owns(hash string) bool
}

// Multi hashes with one scheme and verifies with whichever scheme produced
// the stored hash.
type Multi struct {
	primary scheme
	all     []scheme
}

// New returns a Hasher producing hashes with algorithm.
func New(algorithm string) (*Multi, error) {
	a, b := newArgon2(), newBcrypt()

	m := &Multi{all: []scheme{a, b}}
	switch strings.ToLower(algorithm) {
	case "", Argon2id:
		m.primary = a
	case Bcrypt:
		m.primary = b
	default:
		return nil, fmt.Errorf("passwords: unsupported algorithm %q", algorithm)
	}
	return m, nil
}

func (m *Multi) Hash(secret string) (string, error) {
	return m.primary.Hash(secret)
}

func (m *Multi) Verify(secret, hash string) (bool, error) {
	for _, s := range m.all {
		if s.owns(hash) {
			return s.Verify(secret, hash)
		}
	}
	return false, ErrUnknownHash
}
