package service

import (
	"fmt"
	"time"

	"github.com/fixmycity/fixmycity/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ClientTokenTTL bounds how long a browser keeps its client identity, and
// with it any persisted session.
const ClientTokenTTL = 30 * 24 * time.Hour

// ClientTokens mints and verifies the signed token that identifies a browser
// client. A persisted session is only trusted when presented with a token
// whose signature verifies.
type ClientTokens struct {
	secret []byte
	now    func() time.Time
}

// NewClientTokens creates a ClientTokens signing with the given HMAC secret.
func NewClientTokens(secret string) *ClientTokens {
	return &ClientTokens{secret: []byte(secret), now: time.Now}
}

// NewClient allocates a client ID and returns it with its signed token.
func (t *ClientTokens) NewClient() (clientID, token string, err error) {
	clientID = uuid.NewString()
	token, err = t.Sign(clientID)
	if err != nil {
		return "", "", err
	}
	return clientID, token, nil
}

// Sign issues a token for an existing client ID.
func (t *ClientTokens) Sign(clientID string) (string, error) {
	now := t.now()
	claims := jwt.RegisteredClaims{
		Subject:   clientID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ClientTokenTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign client token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and returns the client ID in its subject.
func (t *ClientTokens) Verify(tokenString string) (string, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !token.Valid {
		return "", domain.ErrUnauthorized
	}

	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", domain.ErrUnauthorized
	}
	return claims.Subject, nil
}
