package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	Wallet string `json:"wlt"`
	jwt.RegisteredClaims
}

// Sign issues a session token for a wallet. The wallet is lower-cased so the
// identity in the token always matches the identity keys in the game state.
func Sign(secret []byte, wallet string, ttl time.Duration) (string, error) {
	claims := Claims{
		Wallet: strings.ToLower(strings.TrimSpace(wallet)),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

func Verify(secret []byte, token string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// Verifier checks a raw token. The websocket endpoint depends on this
// interface so tests can swap the implementation.
type Verifier interface {
	Verify(token string) (*Claims, error)
}

type HSVerifier struct {
	Secret []byte
}

func (v HSVerifier) Verify(token string) (*Claims, error) {
	return Verify(v.Secret, token)
}
