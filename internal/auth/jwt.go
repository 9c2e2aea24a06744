package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"qrattendance/internal/session"
)

// Claims is the JWT payload carried by a logged-in session.
type Claims struct {
	Role session.Role `json:"role"`
	Name string       `json:"name"`
	Code string       `json:"code,omitempty"` // students only
	jwt.RegisteredClaims
}

// Issue signs an access token for a session.
func Issue(s session.Session, issuer, key string, ttl time.Duration) (string, time.Time, error) {
	exp := time.Now().Add(ttl)
	claims := Claims{
		Role: s.Role,
		Name: s.Name,
		Code: s.Code,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   s.ID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// Parse validates a token and returns its claims.
func Parse(tokenStr, key, issuer string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(key), nil
	})
	if err != nil {
		return Claims{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if issuer != "" && claims.Issuer != issuer {
		return Claims{}, errors.New("issuer mismatch")
	}
	return *claims, nil
}

// Session rebuilds the session the claims were issued for.
func (c Claims) Session() session.Session {
	return session.Session{Role: c.Role, ID: c.Subject, Name: c.Name, Code: c.Code}
}
