package credential_test

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/accountd/internal/credential"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	passwords := []string{"p1", "correct horse battery staple", "pässwörd", ""}

	for _, pw := range passwords {
		t.Run(pw, func(t *testing.T) {
			hash, salt, err := credential.HashPassword(pw)
			require.NoError(t, err)
			assert.Len(t, salt, credential.SaltSize)
			assert.Len(t, hash, sha512.Size)

			assert.True(t, credential.VerifyPasswordHash(pw, hash, salt))
			assert.False(t, credential.VerifyPasswordHash(pw+"x", hash, salt))
		})
	}
}

func TestHash_MatchesHMACSHA512(t *testing.T) {
	salt := bytes.Repeat([]byte{0x42}, credential.SaltSize)

	mac := hmac.New(sha512.New, salt)
	mac.Write([]byte("secret"))
	want := mac.Sum(nil)

	assert.Equal(t, want, credential.Hash("secret", salt))
}

func TestHashPassword_FreshSaltEachTime(t *testing.T) {
	h1, s1, err := credential.HashPassword("same")
	require.NoError(t, err)
	h2, s2, err := credential.HashPassword("same")
	require.NoError(t, err)

	assert.NotEqual(t, s1, s2)
	assert.NotEqual(t, h1, h2)
}

func TestVerifyPasswordHash_WrongSalt(t *testing.T) {
	hash, _, err := credential.HashPassword("pw")
	require.NoError(t, err)

	other, err := credential.NewSalt()
	require.NoError(t, err)

	assert.False(t, credential.VerifyPasswordHash("pw", hash, other))
}

func TestVerifyPasswordHash_TruncatedHash(t *testing.T) {
	hash, salt, err := credential.HashPassword("pw")
	require.NoError(t, err)

	assert.False(t, credential.VerifyPasswordHash("pw", hash[:len(hash)-1], salt))
	assert.False(t, credential.VerifyPasswordHash("pw", nil, salt))
}

func TestNewToken_Format(t *testing.T) {
	tok, err := credential.NewToken()
	require.NoError(t, err)

	assert.Len(t, tok, credential.TokenSize*2)
	assert.Equal(t, strings.ToUpper(tok), tok)

	raw, err := hex.DecodeString(tok)
	require.NoError(t, err)
	assert.Len(t, raw, credential.TokenSize)
}

func TestNewToken_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := credential.NewToken()
		require.NoError(t, err)
		require.False(t, seen[tok], "duplicate token %s", tok)
		seen[tok] = true
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestRandomSourceFailure(t *testing.T) {
	orig := credential.Reader
	credential.Reader = failingReader{}
	t.Cleanup(func() { credential.Reader = orig })

	_, err := credential.NewToken()
	assert.ErrorContains(t, err, "entropy exhausted")

	_, _, err = credential.HashPassword("pw")
	assert.ErrorContains(t, err, "read salt")
}
