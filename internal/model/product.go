package model

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ProductStatus is shared by products and variants.
type ProductStatus string

const (
	StatusActive   ProductStatus = "ACTIVE"
	StatusInactive ProductStatus = "INACTIVE"
	StatusArchived ProductStatus = "ARCHIVED"
	StatusDeleted  ProductStatus = "DELETED"
)

// DeriveVariantStatus maps stock to a variant status. Used at creation and
// on stock updates when no explicit status is supplied.
func DeriveVariantStatus(stock int) ProductStatus {
	if stock == 0 {
		return StatusInactive
	}
	return StatusActive
}

// ProductImage is one entry of a product's ordered image list.
type ProductImage struct {
	URL    string `json:"url"`
	IsMain bool   `json:"isMain"`
}

// MainImageURL returns the URL of the image flagged as main, falling back
// to the first image, then to an empty string.
func MainImageURL(images []ProductImage) string {
	for _, img := range images {
		if img.IsMain {
			return img.URL
		}
	}
	if len(images) > 0 {
		return images[0].URL
	}
	return ""
}

// Brand is an optional product reference.
type Brand struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo"`
}

// Category is an optional product reference.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Tag is a product label, associated many-to-many.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Product is the primary-store record. The search index holds a derived
// projection of it, never the other way around.
type Product struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	SKU         string          `json:"sku,omitempty"`
	Status      ProductStatus   `json:"status"`
	Images      []ProductImage  `json:"images"`
	BrandID     *int64          `json:"brandId,omitempty"`
	Brand       *Brand          `json:"brand,omitempty"`
	CategoryID  *int64          `json:"categoryId,omitempty"`
	Category    *Category       `json:"category,omitempty"`
	Tags        []Tag           `json:"tags"`
	Variants    []Variant       `json:"variants"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	DeletedAt   *time.Time      `json:"deletedAt,omitempty"`
}

// Variant is a purchasable variation of a product. Price is nullable and
// falls back to the parent product price.
type Variant struct {
	ID         int64            `json:"id"`
	ProductID  int64            `json:"productId"`
	SKU        string           `json:"sku"`
	Barcode    *string          `json:"barcode,omitempty"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	Stock      int              `json:"stock"`
	Attributes map[string]any   `json:"attributes"`
	Status     ProductStatus    `json:"status"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
	DeletedAt  *time.Time       `json:"deletedAt,omitempty"`
}

// EffectivePrice resolves the variant price against the parent price.
func (v Variant) EffectivePrice(parent decimal.Decimal) decimal.Decimal {
	if v.Price != nil {
		return *v.Price
	}
	return parent
}

// CreateProduct carries everything a product creation writes in one
// transaction.
type CreateProduct struct {
	Title       string
	Description string
	Price       decimal.Decimal
	Stock       int
	SKU         string
	BrandID     *int64
	CategoryID  *int64
	TagIDs      []int64
	Images      []ProductImage
	Variants    []NewVariant
}

// NewVariant is a variant to insert. Status is filled in by the engine
// before the store sees it.
type NewVariant struct {
	SKU        string
	Barcode    *string
	Price      *decimal.Decimal
	Stock      int
	Attributes map[string]any
	Status     ProductStatus
}

// ProductPatch is a partial product update. Nil pointers leave the field
// untouched. A nil TagIDs keeps associations; a non-nil empty slice clears
// them.
type ProductPatch struct {
	Title       *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	Status      *ProductStatus
	Images      []ProductImage
	TagIDs      *[]int64
	Variants    []VariantPatch
}

// VariantPatch is a partial variant update matched by id. Ids that do not
// belong to the product are skipped silently.
type VariantPatch struct {
	ID         int64
	SKU        *string
	Barcode    *string
	Price      *decimal.Decimal
	Stock      *int
	Attributes map[string]any
	Status     *ProductStatus
}

// ProductStore defines the primary-store operations for the catalog. Every
// multi-statement mutation is atomic at the store level.
type ProductStore interface {
	Create(ctx context.Context, slug string, in CreateProduct) (Product, error)
	GetByID(ctx context.Context, id int64) (Product, error)
	GetBySlug(ctx context.Context, slug string) (Product, error)
	GetWithActiveVariants(ctx context.Context, id int64) (Product, error)
	Update(ctx context.Context, id int64, patch ProductPatch) (Product, error)
	CreateVariants(ctx context.Context, productID int64, variants []NewVariant) ([]Variant, error)
	SoftDeleteProduct(ctx context.Context, id int64, cascade bool) error
	SoftDeleteVariants(ctx context.Context, productID int64, variantIDs []int64) (int64, error)
}
