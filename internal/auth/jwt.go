// Package auth issues and validates the bearer tokens used by the API and the
// websocket gateway.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// JwtIssuer is the issuer stamped on every access token
const JwtIssuer = "live-placement"

// ErrInvalidRole is returned for a token carrying a role the workflow does not know.
var ErrInvalidRole = errors.New("token role is not recognized")

// Claims is the payload of an access token. The subject is the user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken signs an access token for subject with role, valid for ttl.
func GenerateToken(secret string, subject string, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	generatedAccessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    JwtIssuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})

	signedToken, err := generatedAccessToken.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("Failed to sign token: %s", err)
	}
	return signedToken, nil
}

// ValidatedToken parses encodeToken and checks signature, expiry and issuer.
func ValidatedToken(secret string, encodeToken string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(encodeToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, isvalid := token.Method.(*jwt.SigningMethodHMAC); !isvalid {
			return nil, fmt.Errorf("Invalid token")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("Invalid access token")
	}
	if !claims.VerifyIssuer(JwtIssuer, true) {
		return nil, jwt.ErrTokenInvalidIssuer
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("Token has no subject")
	}
	return claims, nil
}
