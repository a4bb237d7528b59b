// Package credential implements password hashing and token generation.
//
// A password is hashed with HMAC-SHA512 keyed by a per-password random salt.
// Tokens are random bytes rendered as upper-case hex.
package credential

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"fmt"
	"io"
)

const (
	// SaltSize matches the block size of SHA-512, the recommended HMAC key length.
	SaltSize = 128
	// TokenSize is the number of random bytes behind each token.
	TokenSize = 64
)

// Reader is the source of randomness for salts and tokens.
var Reader io.Reader = rand.Reader

// NewSalt returns SaltSize fresh random bytes.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(Reader, salt); err != nil {
		return nil, fmt.Errorf("read salt: %w", err)
	}
	return salt, nil
}

// Hash computes HMAC-SHA512 over the UTF-8 bytes of password keyed by salt.
func Hash(password string, salt []byte) []byte {
	mac := hmac.New(sha512.New, salt)
	mac.Write([]byte(password))
	return mac.Sum(nil)
}

// HashPassword hashes password under a newly generated salt.
func HashPassword(password string) (hash, salt []byte, err error) {
	salt, err = NewSalt()
	if err != nil {
		return nil, nil, err
	}
	return Hash(password, salt), salt, nil
}

// VerifyPasswordHash reports whether password hashes to hash under salt.
// The whole digest is compared in constant time.
func VerifyPasswordHash(password string, hash, salt []byte) bool {
	return hmac.Equal(Hash(password, salt), hash)
}

// NewToken returns TokenSize random bytes encoded as upper-case hex.
func NewToken() (string, error) {
	b := make([]byte, TokenSize)
	if _, err := io.ReadFull(Reader, b); err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return fmt.Sprintf("%X", b), nil
}
