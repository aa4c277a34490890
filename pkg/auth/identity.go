package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"dexchat/pkg/config"
)

var (
	// ErrNoToken means the request carried no bearer token.
	ErrNoToken = errors.New("auth: missing bearer token")
	// ErrInvalidToken means no configured secret validated the token.
	ErrInvalidToken = errors.New("auth: invalid or expired token")
)

// VerifyToken validates a bearer token against every configured HS256
// secret and returns the opaque owner id from the subject claim. The owner
// id is the only identity the rest of the system sees.
func VerifyToken(token string) (string, error) {
	secrets := config.GetAuthSecrets()
	if len(secrets) == 0 {
		return "", fmt.Errorf("auth: no token secrets configured")
	}
	for _, secret := range secrets {
		parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !parsed.Valid {
			continue
		}
		sub, err := parsed.Claims.GetSubject()
		if err != nil || sub == "" {
			continue
		}
		return sub, nil
	}
	return "", ErrInvalidToken
}
