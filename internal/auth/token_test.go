package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer([]byte("secret-a"), time.Hour)

	token, err := issuer.Issue(42)
	require.NoError(t, err)

	userID, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, 42, userID)
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	token, err := NewTokenIssuer([]byte("secret-a"), time.Hour).Issue(1)
	require.NoError(t, err)

	_, err = NewTokenIssuer([]byte("secret-b"), time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestTokenIssuer_Malformed(t *testing.T) {
	issuer := NewTokenIssuer([]byte("secret"), time.Hour)

	for _, tok := range []string{"", "garbage", "a.b.c", "not.a.jwt.at.all"} {
		_, err := issuer.Verify(tok)
		assert.ErrorIs(t, err, ErrMalformedToken, tok)
	}
}

func TestTokenIssuer_Expired(t *testing.T) {
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewTokenIssuer([]byte("secret"), time.Hour)
	issuer.Now = func() time.Time { return issued }

	token, err := issuer.Issue(7)
	require.NoError(t, err)

	issuer.Now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenIssuer_NoTTLNeverExpires(t *testing.T) {
	issued := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	issuer := NewTokenIssuer([]byte("secret"), 0)
	issuer.Now = func() time.Time { return issued }

	token, err := issuer.Issue(3)
	require.NoError(t, err)

	issuer.Now = func() time.Time { return issued.AddDate(10, 0, 0) }
	userID, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, 3, userID)
}

func TestTokenIssuer_RejectsOtherAlgorithms(t *testing.T) {
	secret := []byte("secret")
	claims := Claims{UserID: 1}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(secret)
	require.NoError(t, err)

	_, err = NewTokenIssuer(secret, time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestTokenIssuer_RejectsMissingUserID(t *testing.T) {
	secret := []byte("secret")
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString(secret)
	require.NoError(t, err)

	_, err = NewTokenIssuer(secret, time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrMalformedToken)
}
