package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/shopkeeper-server/internal/logger"
	"github.com/dtroode/shopkeeper-server/internal/model"
)

// User owns the account rows. It is the counterpart of the provisioning
// saga: it creates accounts, verifies logins and serves the idempotent
// rollback.
type User struct {
	store  model.UserStore
	logger *logger.Logger
}

func NewUser(store model.UserStore, logger *logger.Logger) *User {
	return &User{
		store:  store,
		logger: logger,
	}
}

// Register creates the account row and returns its public claims.
func (s *User) Register(ctx context.Context, account model.NewAccount) (model.TokenClaims, error) {
	now := time.Now()
	user := model.User{
		ID:           uuid.New(),
		Email:        account.Email,
		Phone:        account.Phone,
		FirstName:    account.FirstName,
		LastName:     account.LastName,
		PasswordHash: account.PasswordHash,
		Role:         model.RoleCustomer,
		Status:       model.UserActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	saved, err := s.store.Create(ctx, user)
	if err != nil {
		if model.IsDuplicate(err, "") {
			s.logger.Info("User service: credentials taken",
				"email", account.Email)
			return model.TokenClaims{}, err
		}
		s.logger.Error("User service: failed to create user",
			"email", account.Email,
			"error", err.Error())
		return model.TokenClaims{}, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User service: user registered",
		"user_id", saved.ID)

	return saved.Claims(), nil
}

// VerifyLogin looks up the account by email or phone and returns its
// claims together with the stored password hash for the caller to compare.
func (s *User) VerifyLogin(ctx context.Context, email, phone string) (model.VerifiedAccount, error) {
	user, err := s.store.GetByLogin(ctx, email, phone)
	if err != nil {
		return model.VerifiedAccount{}, err
	}

	return model.VerifiedAccount{
		TokenClaims:  user.Claims(),
		PasswordHash: user.PasswordHash,
	}, nil
}

// Delete removes the account. It is the receiving end of the saga
// compensation and must stay idempotent: a missing id is a success, so a
// redelivered rollback event never fails.
func (s *User) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		s.logger.Error("User service: failed to roll back user",
			"user_id", id,
			"error", err.Error())
		return fmt.Errorf("failed to roll back user: %w", err)
	}

	s.logger.Info("User service: user rolled back",
		"user_id", id)

	return nil
}
