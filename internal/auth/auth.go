// Package auth issues and checks the tokens that carry a shopper's cart
// session.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoSubject = errors.New("token has no subject")

type Authenticator interface {
	GenerateToken(subject string, ttl time.Duration) (string, error)
	ValidateToken(token string) (*jwt.Token, error)
}

// Subject extracts the validated token's sub claim.
func Subject(token *jwt.Token) (string, error) {
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	if sub == "" {
		return "", ErrNoSubject
	}
	return sub, nil
}
