// Package auth holds the stateless building blocks of authentication:
// the JWT codec, the token issuer and the password hasher.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/contactkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload carried by every token. Subject holds the username,
// ID a random jti so that two tokens minted within the same second differ.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"token_type"`
}

// signingMethod resolves an algorithm name to an HMAC signing method.
// Only HMAC algorithms are supported since the key is a shared secret.
func signingMethod(algorithm string) (*jwt.SigningMethodHMAC, error) {
	switch algorithm {
	case jwt.SigningMethodHS256.Alg():
		return jwt.SigningMethodHS256, nil
	case jwt.SigningMethodHS384.Alg():
		return jwt.SigningMethodHS384, nil
	case jwt.SigningMethodHS512.Alg():
		return jwt.SigningMethodHS512, nil
	default:
		return nil, common.ErrUnsupportedAlgorithm
	}
}

// Encode signs claims with secret under algorithm.
func Encode(claims Claims, secret []byte, algorithm string) (string, error) {
	method, err := signingMethod(algorithm)
	if err != nil {
		return "", err
	}

	tokenString, err := jwt.NewWithClaims(method, claims).SignedString(secret)
	if err != nil {
		return "", errors.Join(common.ErrEncoding, err)
	}

	return tokenString, nil
}

// Decode verifies signature, structure, expiry and algorithm of tokenString.
// Every failure is reported as common.ErrInvalidToken without detail.
func Decode(tokenString string, secret []byte, algorithms []string) (*Claims, error) {
	return decodeAt(tokenString, secret, algorithms, time.Now)
}

func decodeAt(tokenString string, secret []byte, algorithms []string, now func() time.Time) (*Claims, error) {
	if tokenString == "" || len(algorithms) == 0 {
		return nil, common.ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods(algorithms),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, common.ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
