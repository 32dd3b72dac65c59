package nats

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	servermocks "github.com/dtroode/shopkeeper-server/internal/mocks"
	"github.com/dtroode/shopkeeper-server/internal/model"
	"github.com/dtroode/shopkeeper-server/internal/service"
	"github.com/dtroode/shopkeeper-server/internal/testutil"
)

func newUserAPI(store *servermocks.UserStore) *UserAPI {
	return NewUserAPI(service.NewUser(store, testutil.MakeNoopLogger()))
}

func TestUserAPI_Register(t *testing.T) {
	store := &servermocks.UserStore{}
	store.On("Create", mock.Anything, mock.Anything).Return(model.User{
		ID:    uuid.New(),
		Email: "a@b.c",
		Role:  model.RoleCustomer,
	}, nil)
	api := newUserAPI(store)

	payload, _ := json.Marshal(model.NewAccount{Email: "a@b.c", PasswordHash: "hash"})
	result, err := api.register(context.Background(), payload)
	require.NoError(t, err)

	claims, ok := result.(model.TokenClaims)
	require.True(t, ok)
	assert.Equal(t, "a@b.c", claims.Email)
}

func TestUserAPI_Register_InvalidPayload(t *testing.T) {
	api := newUserAPI(&servermocks.UserStore{})

	_, err := api.register(context.Background(), json.RawMessage(`{broken`))
	require.ErrorIs(t, err, model.ErrInvalidRequest)

	_, err = api.register(context.Background(), json.RawMessage(`{"email":"a@b.c"}`))
	require.ErrorIs(t, err, model.ErrInvalidRequest)
}

func TestUserAPI_Verify(t *testing.T) {
	store := &servermocks.UserStore{}
	store.On("GetByLogin", mock.Anything, "a@b.c", "").Return(model.User{
		ID:           uuid.New(),
		Email:        "a@b.c",
		PasswordHash: "hash",
	}, nil)
	api := newUserAPI(store)

	result, err := api.verify(context.Background(), json.RawMessage(`{"email":"a@b.c"}`))
	require.NoError(t, err)

	account, ok := result.(model.VerifiedAccount)
	require.True(t, ok)
	assert.Equal(t, "hash", account.PasswordHash)
}

func TestUserAPI_Verify_RequiresIdentifier(t *testing.T) {
	api := newUserAPI(&servermocks.UserStore{})

	_, err := api.verify(context.Background(), json.RawMessage(`{}`))
	require.ErrorIs(t, err, model.ErrInvalidRequest)
}

func TestUserAPI_Rollback(t *testing.T) {
	store := &servermocks.UserStore{}
	id := uuid.New()
	store.On("Delete", mock.Anything, id).Return(nil)
	api := newUserAPI(store)

	payload, _ := json.Marshal(id)
	result, err := api.rollback(context.Background(), payload)
	require.NoError(t, err)
	assert.Nil(t, result)
	store.AssertCalled(t, "Delete", mock.Anything, id)
}

func TestUserAPI_Rollback_InvalidPayload(t *testing.T) {
	api := newUserAPI(&servermocks.UserStore{})

	_, err := api.rollback(context.Background(), json.RawMessage(`"not-a-uuid"`))
	require.ErrorIs(t, err, model.ErrInvalidRequest)
}
