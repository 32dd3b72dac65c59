package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/dtroode/shopkeeper-server/internal/model"
)

var _ model.ProductStore = (*ProductRepository)(nil)

type ProductRepository struct {
	db *Connection
}

func NewProductRepository(db *Connection) *ProductRepository {
	return &ProductRepository{
		db: db,
	}
}

// Create inserts the product, its variants and its tag associations in one
// transaction. A slug collision surfaces as DuplicateError{Field: "slug"}
// so the engine can retry with a new slug.
func (r *ProductRepository) Create(ctx context.Context, slug string, in model.CreateProduct) (model.Product, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return model.Product{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	images, err := json.Marshal(imagesOrEmpty(in.Images))
	if err != nil {
		return model.Product{}, fmt.Errorf("failed to marshal images: %w", err)
	}

	var id int64
	query := `INSERT INTO products (title, slug, description, price, stock, sku, images, brand_id, category_id)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING id`
	err = tx.QueryRow(ctx, query,
		in.Title, slug, in.Description, in.Price.String(), in.Stock, in.SKU,
		images, in.BrandID, in.CategoryID,
	).Scan(&id)
	if err != nil {
		err = translateError(err)
		if model.IsDuplicate(err, "") {
			return model.Product{}, err
		}
		return model.Product{}, fmt.Errorf("failed to insert product: %w", err)
	}

	if err := insertVariants(ctx, tx, id, in.Variants); err != nil {
		return model.Product{}, err
	}

	for _, tagID := range in.TagIDs {
		_, err := tx.Exec(ctx,
			`INSERT INTO product_tags (product_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			id, tagID)
		if err != nil {
			return model.Product{}, fmt.Errorf("failed to link tag %d: %w", tagID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Product{}, fmt.Errorf("failed to commit product creation: %w", err)
	}

	return r.GetByID(ctx, id)
}

// Update applies a partial product update, a wholesale tag replacement when
// requested, and per-variant partial updates in one transaction. Variant
// ids that do not belong to the product are skipped silently.
func (r *ProductRepository) Update(ctx context.Context, id int64, patch model.ProductPatch) (model.Product, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return model.Product{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists int64
	err = tx.QueryRow(ctx, `SELECT id FROM products WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, id).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, model.ErrNotFound
		}
		return model.Product{}, fmt.Errorf("failed to load product for update: %w", err)
	}

	set, args := buildProductSet(patch)
	if len(set) > 0 {
		args = append(args, id)
		query := fmt.Sprintf(`UPDATE products SET %s, updated_at = now() WHERE id = $%d`,
			strings.Join(set, ", "), len(args))
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			err = translateError(err)
			if model.IsDuplicate(err, "") {
				return model.Product{}, err
			}
			return model.Product{}, fmt.Errorf("failed to update product: %w", err)
		}
	}

	if patch.TagIDs != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM product_tags WHERE product_id = $1`, id); err != nil {
			return model.Product{}, fmt.Errorf("failed to clear tags: %w", err)
		}
		for _, tagID := range *patch.TagIDs {
			_, err := tx.Exec(ctx,
				`INSERT INTO product_tags (product_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				id, tagID)
			if err != nil {
				return model.Product{}, fmt.Errorf("failed to link tag %d: %w", tagID, err)
			}
		}
	}

	for _, vp := range patch.Variants {
		set, args := buildVariantSet(vp)
		if len(set) == 0 {
			continue
		}
		args = append(args, vp.ID, id)
		query := fmt.Sprintf(`UPDATE product_variants SET %s, updated_at = now() WHERE id = $%d AND product_id = $%d`,
			strings.Join(set, ", "), len(args)-1, len(args))
		// Foreign variant ids match zero rows; the count is intentionally
		// not checked.
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return model.Product{}, fmt.Errorf("failed to update variant %d: %w", vp.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Product{}, fmt.Errorf("failed to commit product update: %w", err)
	}

	return r.GetByID(ctx, id)
}

// CreateVariants atomically inserts variants for an existing product.
func (r *ProductRepository) CreateVariants(ctx context.Context, productID int64, variants []model.NewVariant) ([]model.Variant, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists int64
	err = tx.QueryRow(ctx, `SELECT id FROM products WHERE id = $1 AND deleted_at IS NULL`, productID).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to check product: %w", err)
	}

	created := make([]model.Variant, 0, len(variants))
	for _, v := range variants {
		attrs, err := json.Marshal(attrsOrEmpty(v.Attributes))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal attributes: %w", err)
		}

		var saved model.Variant
		var priceText *string
		var attrRaw []byte
		query := `INSERT INTO product_variants (product_id, sku, barcode, price, stock, attributes, status)
				  VALUES ($1, $2, $3, $4, $5, $6, $7)
				  RETURNING id, product_id, sku, barcode, price::text, stock, attributes, status, created_at, updated_at, deleted_at`
		err = tx.QueryRow(ctx, query,
			productID, v.SKU, v.Barcode, decimalText(v.Price), v.Stock, attrs, v.Status,
		).Scan(
			&saved.ID, &saved.ProductID, &saved.SKU, &saved.Barcode, &priceText,
			&saved.Stock, &attrRaw, &saved.Status, &saved.CreatedAt, &saved.UpdatedAt, &saved.DeletedAt,
		)
		if err != nil {
			err = translateError(err)
			if model.IsDuplicate(err, "") {
				return nil, err
			}
			return nil, fmt.Errorf("failed to insert variant %q: %w", v.SKU, err)
		}
		if err := finishVariant(&saved, priceText, attrRaw); err != nil {
			return nil, err
		}
		created = append(created, saved)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit variant creation: %w", err)
	}

	return created, nil
}

// SoftDeleteProduct flips the product status to DELETED, cascading to all
// variants when requested. Rows are retained.
func (r *ProductRepository) SoftDeleteProduct(ctx context.Context, id int64, cascade bool) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx,
		`UPDATE products SET status = $1, deleted_at = now(), updated_at = now() WHERE id = $2 AND deleted_at IS NULL`,
		model.StatusDeleted, id)
	if err != nil {
		return fmt.Errorf("failed to soft delete product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	if cascade {
		_, err := tx.Exec(ctx,
			`UPDATE product_variants SET status = $1, deleted_at = now(), updated_at = now() WHERE product_id = $2`,
			model.StatusDeleted, id)
		if err != nil {
			return fmt.Errorf("failed to soft delete variants: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit product deletion: %w", err)
	}

	return nil
}

// SoftDeleteVariants flips the status of exactly the given variant ids
// under the product and returns how many rows matched.
func (r *ProductRepository) SoftDeleteVariants(ctx context.Context, productID int64, variantIDs []int64) (int64, error) {
	cmd, err := r.db.Exec(ctx,
		`UPDATE product_variants SET status = $1, deleted_at = now(), updated_at = now()
		 WHERE product_id = $2 AND id = ANY($3)`,
		model.StatusDeleted, productID, variantIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to soft delete variants: %w", err)
	}

	return cmd.RowsAffected(), nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (model.Product, error) {
	return r.getProduct(ctx, `p.id = $1`, id, false)
}

func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (model.Product, error) {
	return r.getProduct(ctx, `p.slug = $1`, slug, false)
}

// GetWithActiveVariants loads the product with only its ACTIVE variants,
// newest first.
func (r *ProductRepository) GetWithActiveVariants(ctx context.Context, id int64) (model.Product, error) {
	return r.getProduct(ctx, `p.id = $1`, id, true)
}

func (r *ProductRepository) getProduct(ctx context.Context, where string, arg any, activeOnly bool) (model.Product, error) {
	query := `SELECT p.id, p.title, p.slug, p.description, p.price::text, p.stock, p.sku, p.status, p.images,
					 p.brand_id, b.name, b.logo,
					 p.category_id, c.name, c.slug,
					 p.created_at, p.updated_at, p.deleted_at
			  FROM products p
			  LEFT JOIN brands b ON b.id = p.brand_id
			  LEFT JOIN categories c ON c.id = p.category_id
			  WHERE ` + where

	var (
		p         model.Product
		priceText string
		imagesRaw []byte
		brandName *string
		brandLogo *string
		catName   *string
		catSlug   *string
	)
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&p.ID, &p.Title, &p.Slug, &p.Description, &priceText, &p.Stock, &p.SKU, &p.Status, &imagesRaw,
		&p.BrandID, &brandName, &brandLogo,
		&p.CategoryID, &catName, &catSlug,
		&p.CreatedAt, &p.UpdatedAt, &p.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, model.ErrNotFound
		}
		return model.Product{}, fmt.Errorf("failed to get product: %w", err)
	}

	p.Price, err = decimal.NewFromString(priceText)
	if err != nil {
		return model.Product{}, fmt.Errorf("failed to parse product price: %w", err)
	}
	if err := json.Unmarshal(imagesRaw, &p.Images); err != nil {
		return model.Product{}, fmt.Errorf("failed to unmarshal images: %w", err)
	}
	if p.BrandID != nil && brandName != nil {
		p.Brand = &model.Brand{ID: *p.BrandID, Name: *brandName, Logo: deref(brandLogo)}
	}
	if p.CategoryID != nil && catName != nil {
		p.Category = &model.Category{ID: *p.CategoryID, Name: *catName, Slug: deref(catSlug)}
	}

	if p.Tags, err = r.loadTags(ctx, p.ID); err != nil {
		return model.Product{}, err
	}
	if p.Variants, err = r.loadVariants(ctx, p.ID, activeOnly); err != nil {
		return model.Product{}, err
	}

	return p, nil
}

func (r *ProductRepository) loadTags(ctx context.Context, productID int64) ([]model.Tag, error) {
	rows, err := r.db.Query(ctx,
		`SELECT t.id, t.name FROM tags t JOIN product_tags pt ON pt.tag_id = t.id WHERE pt.product_id = $1 ORDER BY t.id`,
		productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	defer rows.Close()

	tags := []model.Tag{}
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (r *ProductRepository) loadVariants(ctx context.Context, productID int64, activeOnly bool) ([]model.Variant, error) {
	query := `SELECT id, product_id, sku, barcode, price::text, stock, attributes, status, created_at, updated_at, deleted_at
			  FROM product_variants WHERE product_id = $1`
	if activeOnly {
		query += ` AND status = 'ACTIVE'`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load variants: %w", err)
	}
	defer rows.Close()

	variants := []model.Variant{}
	for rows.Next() {
		var (
			v         model.Variant
			priceText *string
			attrRaw   []byte
		)
		err := rows.Scan(&v.ID, &v.ProductID, &v.SKU, &v.Barcode, &priceText,
			&v.Stock, &attrRaw, &v.Status, &v.CreatedAt, &v.UpdatedAt, &v.DeletedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		if err := finishVariant(&v, priceText, attrRaw); err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

func insertVariants(ctx context.Context, tx pgx.Tx, productID int64, variants []model.NewVariant) error {
	for _, v := range variants {
		attrs, err := json.Marshal(attrsOrEmpty(v.Attributes))
		if err != nil {
			return fmt.Errorf("failed to marshal attributes: %w", err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO product_variants (product_id, sku, barcode, price, stock, attributes, status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			productID, v.SKU, v.Barcode, decimalText(v.Price), v.Stock, attrs, v.Status)
		if err != nil {
			err = translateError(err)
			if model.IsDuplicate(err, "") {
				return err
			}
			return fmt.Errorf("failed to insert variant %q: %w", v.SKU, err)
		}
	}
	return nil
}

func buildProductSet(patch model.ProductPatch) ([]string, []any) {
	set := []string{}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Price != nil {
		add("price", patch.Price.String())
	}
	if patch.Stock != nil {
		add("stock", *patch.Stock)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.Images != nil {
		images, err := json.Marshal(patch.Images)
		if err == nil {
			add("images", images)
		}
	}
	return set, args
}

func buildVariantSet(patch model.VariantPatch) ([]string, []any) {
	set := []string{}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.SKU != nil {
		add("sku", *patch.SKU)
	}
	if patch.Barcode != nil {
		add("barcode", *patch.Barcode)
	}
	if patch.Price != nil {
		add("price", patch.Price.String())
	}
	if patch.Stock != nil {
		add("stock", *patch.Stock)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.Attributes != nil {
		attrs, err := json.Marshal(patch.Attributes)
		if err == nil {
			add("attributes", attrs)
		}
	}
	return set, args
}

func finishVariant(v *model.Variant, priceText *string, attrRaw []byte) error {
	if priceText != nil {
		price, err := decimal.NewFromString(*priceText)
		if err != nil {
			return fmt.Errorf("failed to parse variant price: %w", err)
		}
		v.Price = &price
	}
	if len(attrRaw) > 0 {
		if err := json.Unmarshal(attrRaw, &v.Attributes); err != nil {
			return fmt.Errorf("failed to unmarshal attributes: %w", err)
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func decimalText(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func attrsOrEmpty(attrs map[string]any) map[string]any {
	if attrs == nil {
		return map[string]any{}
	}
	return attrs
}

func imagesOrEmpty(images []model.ProductImage) []model.ProductImage {
	if images == nil {
		return []model.ProductImage{}
	}
	return images
}
