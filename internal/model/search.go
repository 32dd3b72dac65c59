package model

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/gosimple/slug"
)

// Index names in the search cluster.
const (
	ProductIndex  = "product"
	VariantsIndex = "variants"
)

// StatusScope enumerates which set of index documents a status change
// touches. The catalog engine is the only place that knows how a scope maps
// to concrete index operations.
type StatusScope string

const (
	ScopeProductOnly         StatusScope = "PRODUCT_ONLY"
	ScopeVariantSingle       StatusScope = "VARIANT_SINGLE"
	ScopeProductWithVariants StatusScope = "PRODUCT_WITH_VARIANTS"
	ScopeVariantsByProduct   StatusScope = "VARIANTS_BY_PRODUCT"
	ScopeVariantList         StatusScope = "VARIANT_LIST"
)

// IndexOperation is one document of a bulk upsert.
type IndexOperation struct {
	ID       string
	Document any
}

// SearchRequest is a raw query against one index.
type SearchRequest struct {
	Query map[string]any
	Sort  []map[string]any
	From  int
	Size  int
}

// SearchResult carries raw hit sources and the total hit count.
type SearchResult struct {
	Hits  []json.RawMessage
	Total int64
}

// SearchIndex is the document store the catalog projects into. PartialUpdate
// reports a missing document as ErrDocumentMissing so callers can decide
// whether that is fatal.
type SearchIndex interface {
	Upsert(ctx context.Context, index, id string, document any) error
	PartialUpdate(ctx context.Context, index, id string, fields any) error
	BulkUpsert(ctx context.Context, index string, operations []IndexOperation) error
	UpdateByQuery(ctx context.Context, index string, query map[string]any, fields map[string]any) error
	Search(ctx context.Context, index string, req SearchRequest) (SearchResult, error)
}

// SortOption is the fixed sort enumeration for catalog search.
type SortOption string

const (
	SortRelevance SortOption = "relevance"
	SortPriceAsc  SortOption = "price_asc"
	SortPriceDesc SortOption = "price_desc"
	SortNewest    SortOption = "newest"
	// SortTopRated has no backing field in the index yet and sorts by
	// relevance, matching the pre-existing behavior.
	SortTopRated SortOption = "top_rated"
)

// SearchParams are the catalog search criteria.
type SearchParams struct {
	Query      string
	CategoryID *int64
	BrandIDs   []int64
	MinPrice   *float64
	MaxPrice   *float64
	Attributes map[string][]string
	InStock    bool
	Page       int
	Limit      int
	Sort       SortOption
}

// SearchResultPage is one page of raw projected documents.
type SearchResultPage struct {
	Hits  []json.RawMessage `json:"hits"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Pages int               `json:"pages"`
}

// IndexedTag is the tag shape stored in product documents.
type IndexedTag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// IndexedAttribute is one key/value entry of a variant document. NumValue
// is filled heuristically so numeric-looking values stay range-filterable.
type IndexedAttribute struct {
	Key      string   `json:"key"`
	Value    string   `json:"value"`
	NumValue *float64 `json:"numValue,omitempty"`
}

// ProductDocument is the denormalized product projection.
type ProductDocument struct {
	ID           int64         `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Slug         string        `json:"slug"`
	Price        float64       `json:"price"`
	Stock        int           `json:"stock"`
	SKU          string        `json:"sku,omitempty"`
	BrandID      *int64        `json:"brandId,omitempty"`
	BrandName    string        `json:"brandName"`
	CategoryID   *int64        `json:"categoryId,omitempty"`
	CategoryName string        `json:"categoryName"`
	Tags         []IndexedTag  `json:"tags"`
	MainImage    string        `json:"mainImage"`
	Images       []string      `json:"images"`
	Status       ProductStatus `json:"status"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// VariantDocument is the denormalized variant projection, identified by the
// composite id "{productId}-{variantId}".
type VariantDocument struct {
	ID           string             `json:"id"`
	ProductID    int64              `json:"productId"`
	VariantID    int64              `json:"variantId"`
	Title        string             `json:"title"`
	Slug         string             `json:"slug"`
	Price        float64            `json:"price"`
	Stock        int                `json:"stock"`
	SKU          string             `json:"sku"`
	Status       ProductStatus      `json:"status"`
	BrandName    string             `json:"brandName"`
	CategoryName string             `json:"categoryName"`
	Image        string             `json:"image"`
	Attributes   []IndexedAttribute `json:"attributes"`
}

// VariantDocumentID builds the composite index id for a variant.
func VariantDocumentID(productID, variantID int64) string {
	return fmt.Sprintf("%d-%d", productID, variantID)
}

// NewProductDocument projects a product record into its index document.
func NewProductDocument(p Product) ProductDocument {
	doc := ProductDocument{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Slug:        p.Slug,
		Price:       p.Price.InexactFloat64(),
		Stock:       p.Stock,
		SKU:         p.SKU,
		BrandID:     p.BrandID,
		CategoryID:  p.CategoryID,
		Tags:        make([]IndexedTag, 0, len(p.Tags)),
		MainImage:   MainImageURL(p.Images),
		Images:      make([]string, 0, len(p.Images)),
		Status:      p.Status,
		CreatedAt:   p.CreatedAt,
	}
	if p.Brand != nil {
		doc.BrandName = p.Brand.Name
	}
	if p.Category != nil {
		doc.CategoryName = p.Category.Name
	}
	for _, t := range p.Tags {
		doc.Tags = append(doc.Tags, IndexedTag{ID: t.ID, Name: t.Name, Slug: slug.Make(t.Name)})
	}
	for _, img := range p.Images {
		doc.Images = append(doc.Images, img.URL)
	}
	return doc
}

// NewVariantDocument projects one variant against its parent product.
func NewVariantDocument(p Product, v Variant) VariantDocument {
	title := p.Title
	if v.SKU != "" {
		title = fmt.Sprintf("%s - %s", p.Title, v.SKU)
	}
	doc := VariantDocument{
		ID:         VariantDocumentID(p.ID, v.ID),
		ProductID:  p.ID,
		VariantID:  v.ID,
		Title:      title,
		Slug:       p.Slug,
		Price:      v.EffectivePrice(p.Price).InexactFloat64(),
		Stock:      v.Stock,
		SKU:        v.SKU,
		Status:     v.Status,
		Image:      MainImageURL(p.Images),
		Attributes: IndexAttributes(v.Attributes),
	}
	if p.Brand != nil {
		doc.BrandName = p.Brand.Name
	}
	if p.Category != nil {
		doc.CategoryName = p.Category.Name
	}
	return doc
}

// NewVariantDocuments projects every variant of a product.
func NewVariantDocuments(p Product) []VariantDocument {
	docs := make([]VariantDocument, 0, len(p.Variants))
	for _, v := range p.Variants {
		docs = append(docs, NewVariantDocument(p, v))
	}
	return docs
}

var numericPrefix = regexp.MustCompile(`^(\d+(\.\d+)?)`)

// IndexAttributes flattens an untyped attribute bag into the indexed
// key/value list. Numeric classification is heuristic: a number value, or a
// string with a leading numeric prefix, yields NumValue. Keys are emitted
// in sorted order so projections are deterministic.
func IndexAttributes(attrs map[string]any) []IndexedAttribute {
	if len(attrs) == 0 {
		return []IndexedAttribute{}
	}

	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]IndexedAttribute, 0, len(attrs))
	for _, key := range keys {
		raw := attrs[key]
		attr := IndexedAttribute{Key: key}

		switch v := raw.(type) {
		case string:
			attr.Value = v
			if m := numericPrefix.FindString(v); m != "" {
				if f, err := strconv.ParseFloat(m, 64); err == nil {
					attr.NumValue = &f
				}
			}
		case float64:
			attr.Value = strconv.FormatFloat(v, 'f', -1, 64)
			f := v
			attr.NumValue = &f
		case int:
			attr.Value = strconv.Itoa(v)
			f := float64(v)
			attr.NumValue = &f
		case int64:
			attr.Value = strconv.FormatInt(v, 10)
			f := float64(v)
			attr.NumValue = &f
		case bool:
			attr.Value = strconv.FormatBool(v)
		case nil:
			attr.Value = ""
		default:
			if b, err := json.Marshal(v); err == nil {
				attr.Value = string(b)
			}
		}

		out = append(out, attr)
	}
	return out
}
