package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionManager validates and (for tooling) mints the HS256 session tokens
// issued by the identity provider integration.
type SessionManager struct {
	Secret []byte
	TTL    time.Duration
}

var defaultSession *SessionManager

func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	m := &SessionManager{Secret: []byte(secret), TTL: ttl}
	defaultSession = m
	return m
}

// DefaultSession returns the last constructed SessionManager (used for
// auto-wiring routes).
func DefaultSession() *SessionManager { return defaultSession }

// SessionClaims carries the identity-provider user id and email.
type SessionClaims struct {
	ClerkID string `json:"sub_id"`
	Email   string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func (m *SessionManager) Generate(clerkID, email string) (string, time.Time, error) {
	exp := time.Now().Add(m.TTL)
	claims := &SessionClaims{
		ClerkID: clerkID,
		Email:   email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clerkID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.Secret)
	return s, exp, err
}

func (m *SessionManager) Parse(tokenStr string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.ClerkID == "" && claims.Subject != "" {
		claims.ClerkID = claims.Subject
	}
	if claims.ClerkID == "" {
		return nil, errors.New("token missing subject")
	}
	return claims, nil
}
