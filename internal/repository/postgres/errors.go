package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dtroode/shopkeeper-server/internal/model"
)

const uniqueViolation = "23505"

// constraintFields maps unique constraint names to the logical field they
// guard, so callers get a distinguishable "duplicate value for X".
var constraintFields = map[string]string{
	"users_email_key":          "email",
	"users_phone_key":          "phone",
	"products_slug_key":        "slug",
	"product_variants_sku_key": "sku",
}

// translateError converts driver-level errors into model errors. Unknown
// errors pass through untouched.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		field, ok := constraintFields[pgErr.ConstraintName]
		if !ok {
			field = pgErr.ConstraintName
		}
		return &model.DuplicateError{Field: field}
	}
	return err
}
