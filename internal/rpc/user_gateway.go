package rpc

import (
	"context"

	"github.com/google/uuid"

	"github.com/dtroode/shopkeeper-server/internal/model"
)

var _ model.UserGateway = (*UserGateway)(nil)

// UserGateway is the auth service's proxy to the user service, speaking
// the user.* message patterns.
type UserGateway struct {
	peer Peer
}

func NewUserGateway(peer Peer) *UserGateway {
	return &UserGateway{peer: peer}
}

func (g *UserGateway) Register(ctx context.Context, account model.NewAccount) (model.TokenClaims, error) {
	var claims model.TokenClaims
	if err := g.peer.Call(ctx, PatternUserRegister, account, &claims); err != nil {
		return model.TokenClaims{}, err
	}
	return claims, nil
}

func (g *UserGateway) Verify(ctx context.Context, email, phone string) (model.VerifiedAccount, error) {
	payload := map[string]string{"email": email, "phone": phone}
	var account model.VerifiedAccount
	if err := g.peer.Call(ctx, PatternUserVerify, payload, &account); err != nil {
		return model.VerifiedAccount{}, err
	}
	return account, nil
}

// Rollback emits the compensation event. It does not wait for the user
// service to act on it.
func (g *UserGateway) Rollback(_ context.Context, id uuid.UUID) error {
	return g.peer.Emit(PatternUserRollback, id)
}
