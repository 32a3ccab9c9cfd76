// Bearer-token verification for the identity-provider boundary.
package infra

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Token holds the verified identity data used by downstream middleware.
type Token struct {
	UserID string
	Claims jwt.MapClaims
}

// TokenVerifier verifies a raw bearer token string and returns token data.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*Token, error)
}

type jwtVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a TokenVerifier for HS256-signed tokens issued by the
// campus identity service.
func NewJWTVerifier(secret string) TokenVerifier {
	return &jwtVerifier{secret: []byte(secret)}
}

func (v *jwtVerifier) Verify(_ context.Context, raw string) (*Token, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	uid, _ := claims["user_id"].(string)
	if uid == "" {
		uid, _ = claims["sub"].(string)
	}
	if uid == "" {
		return nil, errors.New("token has no user id")
	}
	return &Token{UserID: uid, Claims: claims}, nil
}
