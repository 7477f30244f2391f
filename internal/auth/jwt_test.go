package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"live-placement-backend/internal/model"
)

const testSecret = "test-secret"

func TestGenerateAndValidate(t *testing.T) {
	token, err := GenerateToken(testSecret, "poc-1", model.RolePOC, time.Hour)
	require.NoError(t, err)

	claims, err := ValidatedToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "poc-1", claims.Subject)
	assert.Equal(t, model.RolePOC, claims.Role)
	assert.Equal(t, JwtIssuer, claims.Issuer)
}

func TestValidatedToken_Expired(t *testing.T) {
	token, err := GenerateToken(testSecret, "poc-1", model.RolePOC, -time.Minute)
	require.NoError(t, err)

	_, err = ValidatedToken(testSecret, token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestValidatedToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken(testSecret, "admin-1", model.RoleAdmin, time.Hour)
	require.NoError(t, err)

	_, err = ValidatedToken("other-secret", token)
	assert.Error(t, err)
}

func TestValidatedToken_WrongIssuer(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: model.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			Subject:   "admin-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = ValidatedToken(testSecret, signed)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
}

func TestValidatedToken_RejectsNoneAlgorithm(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: JwtIssuer, Subject: "x"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ValidatedToken(testSecret, signed)
	assert.Error(t, err)
}
