package auth

import (
	"time"

	"github.com/dmitrijs2005/contactkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer mints and checks access/refresh tokens for a single process-wide
// secret and algorithm. It is immutable and safe for concurrent use.
type Issuer struct {
	secret     []byte
	algorithm  string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewIssuer validates the algorithm up front so misconfiguration fails at startup.
func NewIssuer(secret []byte, algorithm string, accessTTL, refreshTTL time.Duration) (*Issuer, error) {
	if _, err := signingMethod(algorithm); err != nil {
		return nil, err
	}
	return &Issuer{
		secret:     secret,
		algorithm:  algorithm,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// WithClock returns a copy of the issuer reading time from now.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	c := *i
	c.now = now
	return &c
}

// IssueAccessToken mints an access token for subject. A zero ttl uses the
// configured default.
func (i *Issuer) IssueAccessToken(subject string, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = i.accessTTL
	}
	return i.issue(subject, common.TokenTypeAccess, ttl)
}

// IssueRefreshToken mints a refresh token for subject. A zero ttl uses the
// configured default. Persisting it is the caller's job.
func (i *Issuer) IssueRefreshToken(subject string, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = i.refreshTTL
	}
	return i.issue(subject, common.TokenTypeRefresh, ttl)
}

func (i *Issuer) issue(subject, tokenType string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		TokenType: tokenType,
	}
	return Encode(claims, i.secret, i.algorithm)
}

// Verify decodes tokenString and checks it is a tokenType token with a subject.
// Type mismatches are indistinguishable from any other invalid token.
func (i *Issuer) Verify(tokenString, tokenType string) (*Claims, error) {
	claims, err := decodeAt(tokenString, i.secret, []string{i.algorithm}, i.now)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenType || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
