package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/dtroode/shopkeeper-server/internal/model"
	"github.com/dtroode/shopkeeper-server/internal/rpc"
	"github.com/dtroode/shopkeeper-server/internal/service"
)

// UserAPI exposes the user service on the user.* message patterns.
type UserAPI struct {
	service *service.User
}

func NewUserAPI(service *service.User) *UserAPI {
	return &UserAPI{service: service}
}

// Register subscribes all user patterns on the router.
func (a *UserAPI) Register(router *rpc.Router) error {
	if err := router.Handle(rpc.PatternUserRegister, a.register); err != nil {
		return err
	}
	if err := router.Handle(rpc.PatternUserVerify, a.verify); err != nil {
		return err
	}
	return router.Handle(rpc.PatternUserRollback, a.rollback)
}

func (a *UserAPI) register(ctx context.Context, data json.RawMessage) (any, error) {
	var account model.NewAccount
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidRequest, err)
	}
	if account.Email == "" || account.PasswordHash == "" {
		return nil, fmt.Errorf("%w: email and password hash are required", model.ErrInvalidRequest)
	}
	return a.service.Register(ctx, account)
}

type verifyRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (a *UserAPI) verify(ctx context.Context, data json.RawMessage) (any, error) {
	var req verifyRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidRequest, err)
	}
	if req.Email == "" && req.Phone == "" {
		return nil, fmt.Errorf("%w: email or phone is required", model.ErrInvalidRequest)
	}
	return a.service.VerifyLogin(ctx, req.Email, req.Phone)
}

func (a *UserAPI) rollback(ctx context.Context, data json.RawMessage) (any, error) {
	var id uuid.UUID
	if err := json.Unmarshal(data, &id); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidRequest, err)
	}
	return nil, a.service.Delete(ctx, id)
}
