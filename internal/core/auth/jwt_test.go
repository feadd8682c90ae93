package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJWTer() *JWTer {
	return &JWTer{Secret: []byte("k"), Issuer: "go-garage", TTL: 7 * 24 * time.Hour}
}

func TestIssueAndParse(t *testing.T) {
	j := newJWTer()
	tok, err := j.Issue("u1")
	require.NoError(t, err)

	c, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UID)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), c.ExpiresAt.Time, time.Minute)
}

func TestParse_Rejects(t *testing.T) {
	j := newJWTer()

	t.Run("wrong secret", func(t *testing.T) {
		other := &JWTer{Secret: []byte("other"), Issuer: j.Issuer, TTL: time.Hour}
		tok, err := other.Issue("u1")
		require.NoError(t, err)
		_, err = j.Parse(tok)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := &JWTer{Secret: j.Secret, Issuer: "someone-else", TTL: time.Hour}
		tok, err := other.Issue("u1")
		require.NoError(t, err)
		_, err = j.Parse(tok)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		old := &JWTer{Secret: j.Secret, Issuer: j.Issuer, TTL: -time.Hour}
		tok, err := old.Issue("u1")
		require.NoError(t, err)
		_, err = j.Parse(tok)
		assert.Error(t, err)
	})

	t.Run("alg none", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UID: "u1"})
		s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = j.Parse(s)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := j.Parse("not.a.token")
		assert.Error(t, err)
	})
}
