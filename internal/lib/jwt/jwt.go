package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidShareToken = errors.New("invalid share token")

type ShareClaims struct {
	MediaURL string `json:"media_url"`
	Name     string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// NewShareToken подписывает ссылку на шаринг минта
func NewShareToken(mediaURL, name string, secret []byte, duration time.Duration) (string, error) {
	now := time.Now()

	claims := ShareClaims{
		MediaURL: mediaURL,
		Name:     name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func ParseShareToken(tokenString string, secret []byte) (*ShareClaims, error) {
	claims := &ShareClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShareToken, err)
	}
	if !token.Valid || claims.MediaURL == "" {
		return nil, ErrInvalidShareToken
	}

	return claims, nil
}
