package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

const (
	AdminTokenIssuer = "callbreak"
	AdminRole        = "admin"
)

// ErrUnauthorized is returned for missing, invalid or non-admin tokens.
var ErrUnauthorized = errors.New("unauthorized")

// AdminAuth issues and verifies HS256 admin tokens.
type AdminAuth struct {
	secret []byte
	now    func() time.Time
}

func NewAdminAuth(secret string) *AdminAuth {
	return &AdminAuth{secret: []byte(secret), now: time.Now}
}

// IssueToken signs an admin token for subject valid for ttl.
func (a *AdminAuth) IssueToken(subject string, ttl time.Duration) (string, error) {
	if a == nil || len(a.secret) == 0 {
		return "", fmt.Errorf("admin secret is not configured")
	}
	if subject == "" {
		return "", fmt.Errorf("subject is required")
	}
	now := a.now()
	claims := jwt.MapClaims{
		"iss":  AdminTokenIssuer,
		"sub":  subject,
		"role": AdminRole,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// Verify checks the token signature, expiry, issuer and role, and returns the subject.
func (a *AdminAuth) Verify(tokenString string) (string, error) {
	if a == nil || len(a.secret) == 0 {
		return "", fmt.Errorf("%w: admin access disabled", ErrUnauthorized)
	}
	if tokenString == "" {
		return "", fmt.Errorf("%w: token required", ErrUnauthorized)
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("%w: unexpected claims", ErrUnauthorized)
	}
	if !claims.VerifyIssuer(AdminTokenIssuer, true) {
		return "", fmt.Errorf("%w: wrong issuer", ErrUnauthorized)
	}
	if role, _ := claims["role"].(string); role != AdminRole {
		return "", fmt.Errorf("%w: not an admin", ErrUnauthorized)
	}
	sub, _ := claims["sub"].(string)
	return sub, nil
}
