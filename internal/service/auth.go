package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/shopkeeper-server/internal/logger"
	"github.com/dtroode/shopkeeper-server/internal/model"
)

// Provisioning states of one Register call. The saga is in-memory and
// single-attempt: no state survives the call, which is acceptable because
// the only compensation action is idempotent and side-effect-light.
const (
	stateStarted         = "STARTED"
	stateAccountCreated  = "ACCOUNT_CREATED"
	stateTokensIssued    = "TOKENS_ISSUED"
	stateTokensPersisted = "TOKENS_PERSISTED"
	stateCompensating    = "COMPENSATING"
)

// RegisterInput is the client-facing registration payload.
type RegisterInput struct {
	Email     string
	Phone     string
	FirstName string
	LastName  string
	Password  string
}

// LoginInput identifies an account by email or phone plus password.
type LoginInput struct {
	Email    string
	Phone    string
	Password string
}

// AuthResult is what a successful register/login/refresh returns.
type AuthResult struct {
	User   model.TokenClaims `json:"userData"`
	Tokens model.TokenPair   `json:"tokens"`
}

// Auth orchestrates account provisioning across the user service, the
// credential issuer and the token cache. Creating an account and
// persisting its tokens span two independent stores with no shared
// transaction, so a token persistence failure rolls the account back.
type Auth struct {
	users  model.UserGateway
	tokens model.TokenManager
	cache  model.TokenCache
	logger *logger.Logger
}

func NewAuth(
	users model.UserGateway,
	tokens model.TokenManager,
	cache model.TokenCache,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		users:  users,
		tokens: tokens,
		cache:  cache,
		logger: logger,
	}
}

// Register runs the provisioning saga: create account, issue the token
// pair, persist it. A cache failure after the account exists triggers a
// best-effort rollback emit and surfaces only a transaction-aborted error.
func (a *Auth) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	a.logger.Debug("Auth service: starting registration",
		"email", in.Email,
		"state", stateStarted)

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("failed to hash password: %w", err)
	}

	claims, err := a.users.Register(ctx, model.NewAccount{
		Email:        in.Email,
		Phone:        in.Phone,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: string(hash),
	})
	if err != nil {
		// Nothing succeeded yet, nothing to compensate.
		return AuthResult{}, err
	}

	a.logger.Debug("Auth service: account created",
		"user_id", claims.ID,
		"state", stateAccountCreated)

	pair, err := a.tokens.IssuePair(claims)
	if err != nil {
		// Signing has no side effect on other stores; surface it as is.
		a.logger.Error("Auth service: token issuance failed",
			"user_id", claims.ID,
			"error", err.Error())
		return AuthResult{}, err
	}

	a.logger.Debug("Auth service: tokens issued",
		"user_id", claims.ID,
		"state", stateTokensIssued)

	if err := a.cache.SetTokens(ctx, claims.ID, pair); err != nil {
		a.logger.Error("Auth service: token persistence failed, compensating",
			"user_id", claims.ID,
			"state", stateCompensating,
			"error", err.Error())
		a.compensate(ctx, claims)
		return AuthResult{}, model.ErrTransactionAborted
	}

	a.logger.Info("Auth service: registration completed",
		"user_id", claims.ID,
		"state", stateTokensPersisted)

	return AuthResult{User: claims, Tokens: pair}, nil
}

// compensate emits the account rollback. It is attempted before the caller
// observes the failure but never awaited or surfaced: cleanup is
// eventually consistent and the receiving side is idempotent. The emit is
// detached from the request context so a cancelled request cannot skip it.
func (a *Auth) compensate(ctx context.Context, claims model.TokenClaims) {
	if err := a.users.Rollback(context.WithoutCancel(ctx), claims.ID); err != nil {
		a.logger.Error("Auth service: failed to emit account rollback",
			"user_id", claims.ID,
			"error", err.Error())
	}
}

// Login verifies credentials and reissues a token pair. Nothing new is
// created, so there is no compensation path.
func (a *Auth) Login(ctx context.Context, in LoginInput) (AuthResult, error) {
	account, err := a.users.Verify(ctx, in.Email, in.Phone)
	if err != nil {
		return AuthResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(in.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return AuthResult{}, model.ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("failed to compare password: %w", err)
	}

	return a.issueAndPersist(ctx, account.TokenClaims)
}

// Refresh validates the presented refresh token and reissues the pair for
// its claims.
func (a *Auth) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	claims, err := a.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return AuthResult{}, model.ErrInvalidCredentials
	}

	return a.issueAndPersist(ctx, claims)
}

func (a *Auth) issueAndPersist(ctx context.Context, claims model.TokenClaims) (AuthResult, error) {
	pair, err := a.tokens.IssuePair(claims)
	if err != nil {
		return AuthResult{}, err
	}

	if err := a.cache.SetTokens(ctx, claims.ID, pair); err != nil {
		a.logger.Error("Auth service: token persistence failed",
			"user_id", claims.ID,
			"error", err.Error())
		return AuthResult{}, model.ErrTransactionAborted
	}

	return AuthResult{User: claims, Tokens: pair}, nil
}
