package wallet

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeGithub(t *testing.T) {
	id, err := Normalize("github", githubClaim)
	require.NoError(t, err)
	assert.Equal(t, ProviderGithub, id.Provider)
	assert.Equal(t, "1001", id.Subject)
	assert.Equal(t, "dev", id.Login)
	assert.Equal(t, "https://a/1.png", id.Picture)
	assert.Equal(t, "dev@example.com", id.Email)
}

func TestNormalizeGithubNumericID(t *testing.T) {
	// decoded JSON numbers arrive as float64
	id, err := Normalize("GitHub", Claim{"id": float64(58212345), "login": "octo"})
	require.NoError(t, err)
	assert.Equal(t, "58212345", id.Subject)
}

func TestNormalizeGoogle(t *testing.T) {
	id, err := Normalize("google", googleClaim)
	require.NoError(t, err)
	assert.Equal(t, "g-42", id.Subject)
	assert.Equal(t, "someone", id.Login)
	assert.Equal(t, "https://p/42.png", id.Picture)
}

func TestNormalizeRejects(t *testing.T) {
	_, err := Normalize("facebook", Claim{"sub": "1"})
	assert.ErrorIs(t, err, ErrUnsupportedProvider)

	_, err = Normalize("google", Claim{"email": "x@y"})
	assert.ErrorIs(t, err, ErrInvalidClaim)
}

func TestSameAccount(t *testing.T) {
	a, _ := Normalize("github", githubClaim)
	b, _ := Normalize("github", Claim{"id": float64(1001), "email": "other@example.com"})
	c, _ := Normalize("google", Claim{"sub": "1001"})

	assert.True(t, a.SameAccount(b))
	assert.False(t, a.SameAccount(c))
}

func TestClaimsFromIDToken(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "g-42",
		"email": "someone@example.org",
		"aud":   "client-id",
	}).SignedString([]byte("not-checked"))
	require.NoError(t, err)

	claim, err := ClaimsFromIDToken(token)
	require.NoError(t, err)

	id, err := Normalize("google", claim)
	require.NoError(t, err)
	assert.Equal(t, "g-42", id.Subject)

	_, err = ClaimsFromIDToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidClaim)
}
