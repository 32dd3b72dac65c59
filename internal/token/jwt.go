package token

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/errgroup"

	"github.com/dtroode/shopkeeper-server/internal/model"
)

// Claims represents JWT claims carrying the public account payload.
type Claims struct {
	jwt.RegisteredClaims
	model.TokenClaims
}

// JWT implements TokenManager backed by symmetric HMAC. Access and refresh
// tokens are signed with distinct secrets and expiries.
type JWT struct {
	accessSecret  string
	refreshSecret string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewJWT creates a new JWT token manager. Both secrets must be present;
// signing fails otherwise.
func NewJWT(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWT {
	return &JWT{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

var _ model.TokenManager = (*JWT)(nil)

// IssuePair signs both tokens from the same claims payload. The signings
// run concurrently; if either fails the whole call fails and no partial
// pair is returned.
func (j *JWT) IssuePair(claims model.TokenClaims) (model.TokenPair, error) {
	var pair model.TokenPair

	g, _ := errgroup.WithContext(context.Background())
	g.Go(func() error {
		access, err := j.sign(claims, j.accessSecret, j.accessTTL)
		if err != nil {
			return fmt.Errorf("failed to sign access token: %w", err)
		}
		pair.AccessToken = access
		return nil
	})
	g.Go(func() error {
		refresh, err := j.sign(claims, j.refreshSecret, j.refreshTTL)
		if err != nil {
			return fmt.Errorf("failed to sign refresh token: %w", err)
		}
		pair.RefreshToken = refresh
		return nil
	})

	if err := g.Wait(); err != nil {
		return model.TokenPair{}, fmt.Errorf("%w: %w", model.ErrTokenIssuance, err)
	}
	return pair, nil
}

// ParseAccess validates an access token and extracts its claims payload.
func (j *JWT) ParseAccess(token string) (model.TokenClaims, error) {
	return j.parse(token, j.accessSecret)
}

// ParseRefresh validates a refresh token and extracts its claims payload.
func (j *JWT) ParseRefresh(token string) (model.TokenClaims, error) {
	return j.parse(token, j.refreshSecret)
}

func (j *JWT) sign(claims model.TokenClaims, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("signing secret is empty")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenClaims: claims,
	})

	return token.SignedString([]byte(secret))
}

func (j *JWT) parse(tokenString, secret string) (model.TokenClaims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return model.TokenClaims{}, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return model.TokenClaims{}, fmt.Errorf("token is invalid")
	}
	return claims.TokenClaims, nil
}
