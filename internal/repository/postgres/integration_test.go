//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dtroode/shopkeeper-server/internal/model"
	repo "github.com/dtroode/shopkeeper-server/internal/repository/postgres"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "shopkeeper_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/shopkeeper_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestUserRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ur := repo.NewUserRepository(conn)
	now := time.Now()
	u := model.User{
		ID:           uuid.New(),
		Email:        "user@example.com",
		Phone:        "+1000000",
		FirstName:    "A",
		PasswordHash: "hash",
		Role:         model.RoleCustomer,
		Status:       model.UserActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	saved, err := ur.Create(ctx, u)
	require.NoError(t, err)
	require.Equal(t, u.ID, saved.ID)

	// Second insert with the same email must report the field.
	dup := u
	dup.ID = uuid.New()
	dup.Phone = "+2000000"
	_, err = ur.Create(ctx, dup)
	require.True(t, model.IsDuplicate(err, "email"))

	byEmail, err := ur.GetByLogin(ctx, u.Email, "")
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)

	byPhone, err := ur.GetByLogin(ctx, "", u.Phone)
	require.NoError(t, err)
	require.Equal(t, u.ID, byPhone.ID)

	require.NoError(t, ur.Delete(ctx, u.ID))
	_, err = ur.GetByLogin(ctx, u.Email, "")
	require.ErrorIs(t, err, model.ErrNotFound)

	// Rollback delivery is at-least-once; a second delete must not fail.
	require.NoError(t, ur.Delete(ctx, u.ID))

	// After the rollback the credentials are reusable.
	again := u
	again.ID = uuid.New()
	_, err = ur.Create(ctx, again)
	require.NoError(t, err)
}

func TestProductRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	pr := repo.NewProductRepository(conn)

	variantPrice := decimal.NewFromInt(120)
	created, err := pr.Create(ctx, "mechanical-keyboard", model.CreateProduct{
		Title:       "Mechanical Keyboard",
		Description: "Clicky.",
		Price:       decimal.RequireFromString("99.90"),
		Stock:       5,
		SKU:         "KB-BASE",
		Images:      []model.ProductImage{{URL: "http://img/1.png", IsMain: true}},
		Variants: []model.NewVariant{
			{SKU: "KB-RED", Price: &variantPrice, Stock: 3, Status: model.StatusActive, Attributes: map[string]any{"switch": "red"}},
			{SKU: "KB-OOS", Stock: 0, Status: model.StatusInactive},
		},
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Len(t, created.Variants, 2)
	require.True(t, created.Price.Equal(decimal.RequireFromString("99.90")))

	// Duplicate slug reports the slug field so the caller can retry.
	_, err = pr.Create(ctx, "mechanical-keyboard", model.CreateProduct{
		Title: "Mechanical Keyboard",
		Price: decimal.NewFromInt(1),
	})
	require.True(t, model.IsDuplicate(err, "slug"))

	bySlug, err := pr.GetBySlug(ctx, "mechanical-keyboard")
	require.NoError(t, err)
	require.Equal(t, created.ID, bySlug.ID)

	newTitle := "Mechanical Keyboard v2"
	zero := 0
	inactive := model.StatusInactive
	updated, err := pr.Update(ctx, created.ID, model.ProductPatch{
		Title: &newTitle,
		Variants: []model.VariantPatch{
			{ID: created.Variants[0].ID, Stock: &zero, Status: &inactive},
			// A variant id of another product matches zero rows.
			{ID: 999999, Stock: &zero},
		},
	})
	require.NoError(t, err)
	require.Equal(t, newTitle, updated.Title)

	_, err = pr.Update(ctx, 999999, model.ProductPatch{Title: &newTitle})
	require.ErrorIs(t, err, model.ErrNotFound)

	more, err := pr.CreateVariants(ctx, created.ID, []model.NewVariant{
		{SKU: "KB-BLUE", Stock: 2, Status: model.StatusActive},
	})
	require.NoError(t, err)
	require.Len(t, more, 1)
	require.NotZero(t, more[0].ID)

	active, err := pr.GetWithActiveVariants(ctx, created.ID)
	require.NoError(t, err)
	for _, v := range active.Variants {
		require.Equal(t, model.StatusActive, v.Status)
	}

	matched, err := pr.SoftDeleteVariants(ctx, created.ID, []int64{more[0].ID, 999999})
	require.NoError(t, err)
	require.Equal(t, int64(1), matched)

	require.NoError(t, pr.SoftDeleteProduct(ctx, created.ID, true))
	got, err := pr.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusDeleted, got.Status)
	require.NotNil(t, got.DeletedAt)

	err = pr.SoftDeleteProduct(ctx, 999999, false)
	require.ErrorIs(t, err, model.ErrNotFound)
}
