// Package password turns plaintext passwords into salted, slow hashes and
// checks plaintexts against stored hashes.
package password

import (
	"errors"
	"fmt"
	"strings"
)

const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// ErrPasswordTooLong is returned by bcrypt for plaintexts over 72 bytes.
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// Hasher hashes and verifies passwords. Implementations are stateless after
// construction and safe for concurrent use.
type Hasher interface {
	// Hash returns an encoded hash that embeds its own salt and parameters.
	Hash(plaintext string) (string, error)

	// Verify reports whether plaintext matches hash. Malformed hashes are a mismatch.
	Verify(plaintext, hash string) bool
}

// Options selects the algorithm used for new hashes.
type Options struct {
	Algorithm  string
	BcryptCost int
	Argon2     *Argon2Params
}

// New returns a Hasher that writes hashes with the configured algorithm and
// verifies hashes written by any supported algorithm.
func New(opts Options) (Hasher, error) {
	bc := NewBcryptHasher(opts.BcryptCost)
	ar := NewArgon2Hasher(opts.Argon2)

	var primary Hasher
	switch opts.Algorithm {
	case "", AlgorithmBcrypt:
		primary = bc
	case AlgorithmArgon2id:
		primary = ar
	default:
		return nil, fmt.Errorf("unknown password algorithm %q", opts.Algorithm)
	}

	return &multiHasher{primary: primary, bcrypt: bc, argon2: ar}, nil
}

type multiHasher struct {
	primary Hasher
	bcrypt  *BcryptHasher
	argon2  *Argon2Hasher
}

func (m *multiHasher) Hash(plaintext string) (string, error) {
	return m.primary.Hash(plaintext)
}

func (m *multiHasher) Verify(plaintext, hash string) bool {
	switch {
	case strings.HasPrefix(hash, argon2Prefix):
		return m.argon2.Verify(plaintext, hash)
	case isBcryptHash(hash):
		return m.bcrypt.Verify(plaintext, hash)
	default:
		return false
	}
}
