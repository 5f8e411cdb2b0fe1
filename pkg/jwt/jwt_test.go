package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)

	token, err := issuer.GenerateToken(42)
	require.NoError(t, err)

	userID, err := issuer.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := NewIssuer("secret", time.Hour).GenerateToken(1)
	require.NoError(t, err)

	_, err = NewIssuer("other", time.Hour).ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpired(t *testing.T) {
	issuer := NewIssuer("secret", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := issuer.GenerateToken(1)
	require.NoError(t, err)

	_, err = NewIssuer("secret", time.Minute).ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := NewIssuer("secret", 0).ParseToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
