// Package crypto derives the password digests kept in the local account
// registry. The registry lives in the profile store, so a digest and its salt
// are all that is ever written for a password.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2id cost. One derivation runs per sign-up or sign-in on the user's machine.
const (
	argonTime    uint32 = 1
	argonMemory  uint32 = 64 * 1024 // KiB
	argonThreads uint8  = 2
	argonKeyLen  uint32 = 32

	// SaltLen is the size of a per-account salt.
	SaltLen = 16
)

// decoySalt salts the derivation done for emails with no account.
var decoySalt = []byte("guidecode-nouser")

// NewSalt returns a random per-account salt.
func NewSalt() ([]byte, error) {
	b := make([]byte, SaltLen)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("read salt: %w", err)
	}
	return b, nil
}

// Digest derives the stored digest of password under salt.
func Digest(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// NewDigest salts and digests a password chosen at sign-up.
func NewDigest(password string) (digest, salt []byte, err error) {
	salt, err = NewSalt()
	if err != nil {
		return nil, nil, err
	}
	return Digest(password, salt), salt, nil
}

// Matches reports whether password produces digest under salt.
// A record missing either part never matches.
func Matches(password string, salt, digest []byte) bool {
	if len(salt) == 0 || len(digest) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(Digest(password, salt), digest) == 1
}

// Decoy spends one derivation on password so that a sign-in for an unknown
// email costs as much as a wrong password.
func Decoy(password string) {
	_ = Digest(password, decoySalt)
}
