package model

import (
	"context"

	"github.com/google/uuid"
)

// TokenClaims is the public claims payload both session tokens are signed
// from. It mirrors what the user service exposes about an account.
type TokenClaims struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Role      UserRole   `json:"role"`
	Status    UserStatus `json:"status"`
}

// TokenPair holds an access/refresh token pair. A pair is always complete:
// issuance either produces both tokens or fails.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenManager signs and validates access/refresh token pairs.
type TokenManager interface {
	IssuePair(claims TokenClaims) (TokenPair, error)
	ParseAccess(token string) (TokenClaims, error)
	ParseRefresh(token string) (TokenClaims, error)
}

// TokenCache persists issued token pairs keyed by account id with per-key
// expiry. SetTokens is atomic across both keys: either both tokens are
// stored or neither is.
type TokenCache interface {
	SetTokens(ctx context.Context, userID uuid.UUID, pair TokenPair) error
	DeleteTokens(ctx context.Context, userID uuid.UUID) error
}
