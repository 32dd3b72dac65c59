package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"golang.org/x/sync/errgroup"

	"github.com/dtroode/shopkeeper-server/internal/logger"
	"github.com/dtroode/shopkeeper-server/internal/model"
)

const (
	slugAttempts     = 5
	slugSuffixLength = 4
	slugSuffixChars  = "abcdefghijklmnopqrstuvwxyz0123456789"

	defaultPageSize = 20
)

// StatusChange describes a logical status change and which index documents
// it must touch.
type StatusChange struct {
	ProductID  int64
	Status     model.ProductStatus
	Scope      model.StatusScope
	VariantID  *int64
	VariantIDs []int64
}

// BulkVariantResult reports a bulk variant insertion.
type BulkVariantResult struct {
	Success  bool            `json:"success"`
	Count    int             `json:"count"`
	Message  string          `json:"message"`
	Variants []model.Variant `json:"data"`
}

// Catalog keeps the primary store and the search index consistent for
// every product mutation. The store commits first; index projections
// follow and are never allowed to precede or roll back the primary write.
type Catalog struct {
	store  model.ProductStore
	index  model.SearchIndex
	logger *logger.Logger
}

func NewCatalog(store model.ProductStore, index model.SearchIndex, logger *logger.Logger) *Catalog {
	return &Catalog{
		store:  store,
		index:  index,
		logger: logger,
	}
}

// CreateProduct writes the product with its variants and tag links in one
// transaction, retrying the whole creation on slug collisions with a
// random suffix, then projects the new documents. Projection failures for
// brand-new documents are fatal to the call.
func (s *Catalog) CreateProduct(ctx context.Context, in model.CreateProduct) (model.Product, error) {
	for i := range in.Variants {
		if in.Variants[i].Status == "" {
			in.Variants[i].Status = model.DeriveVariantStatus(in.Variants[i].Stock)
		}
	}

	currentSlug := slug.Make(in.Title)

	var product model.Product
	created := false
	for attempt := 0; attempt < slugAttempts; attempt++ {
		p, err := s.store.Create(ctx, currentSlug, in)
		if err == nil {
			product = p
			created = true
			break
		}
		if model.IsDuplicate(err, "slug") {
			currentSlug = slug.Make(in.Title) + "-" + randomSuffix(slugSuffixLength)
			s.logger.Debug("Catalog service: slug collision, retrying",
				"title", in.Title,
				"next_slug", currentSlug,
				"attempt", attempt+1)
			continue
		}
		return model.Product{}, err
	}
	if !created {
		return model.Product{}, model.ErrSlugExhausted
	}

	if err := s.projectNewProduct(ctx, product); err != nil {
		return model.Product{}, fmt.Errorf("%w: %w", model.ErrTransientStore, err)
	}

	s.logger.Info("Catalog service: product created",
		"product_id", product.ID,
		"slug", product.Slug)

	return product, nil
}

// UpdateProduct applies a partial update in one transaction, re-deriving
// variant statuses from stock unless an explicit status is supplied, then
// projects the changed documents with update-by-id semantics. A document
// missing from the index is a warning, not an error.
func (s *Catalog) UpdateProduct(ctx context.Context, id int64, patch model.ProductPatch) (model.Product, error) {
	for i := range patch.Variants {
		vp := &patch.Variants[i]
		if vp.Status == nil && vp.Stock != nil {
			status := model.DeriveVariantStatus(*vp.Stock)
			vp.Status = &status
		}
	}

	product, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return model.Product{}, err
	}

	if err := s.projectUpdatedProduct(ctx, product); err != nil {
		return model.Product{}, fmt.Errorf("%w: %w", model.ErrTransientStore, err)
	}

	return product, nil
}

// CreateVariants atomically inserts variants for an existing product and
// projects them as brand-new documents.
func (s *Catalog) CreateVariants(ctx context.Context, productID int64, specs []model.NewVariant) (BulkVariantResult, error) {
	parent, err := s.store.GetByID(ctx, productID)
	if err != nil {
		return BulkVariantResult{}, err
	}

	for i := range specs {
		if specs[i].Status == "" {
			specs[i].Status = model.DeriveVariantStatus(specs[i].Stock)
		}
	}

	created, err := s.store.CreateVariants(ctx, productID, specs)
	if err != nil {
		return BulkVariantResult{}, err
	}

	ops := make([]model.IndexOperation, 0, len(created))
	for _, v := range created {
		doc := model.NewVariantDocument(parent, v)
		ops = append(ops, model.IndexOperation{ID: doc.ID, Document: doc})
	}
	if err := s.index.BulkUpsert(ctx, model.VariantsIndex, ops); err != nil {
		return BulkVariantResult{}, fmt.Errorf("%w: %w", model.ErrTransientStore, err)
	}

	return BulkVariantResult{
		Success:  true,
		Count:    len(created),
		Message:  fmt.Sprintf("%d variants were successfully added.", len(created)),
		Variants: created,
	}, nil
}

// DeleteProduct soft-deletes at one of three mutually exclusive scopes:
// exactly the given variants, the product with all its variants, or the
// product alone. Rows are never physically removed.
func (s *Catalog) DeleteProduct(ctx context.Context, id int64, variantIDs []int64, allDel bool) (bool, error) {
	change := StatusChange{
		ProductID: id,
		Status:    model.StatusDeleted,
	}

	if len(variantIDs) > 0 && !allDel {
		matched, err := s.store.SoftDeleteVariants(ctx, id, variantIDs)
		if err != nil {
			return false, err
		}
		if matched == 0 {
			return false, model.ErrNotFound
		}
		change.Scope = model.ScopeVariantList
		change.VariantIDs = variantIDs
	} else {
		if err := s.store.SoftDeleteProduct(ctx, id, allDel); err != nil {
			return false, err
		}
		if allDel {
			change.Scope = model.ScopeProductWithVariants
		} else {
			change.Scope = model.ScopeProductOnly
		}
	}

	if err := s.ChangeStatus(ctx, change); err != nil {
		return false, err
	}

	return true, nil
}

// ChangeStatus maps a logical status change onto concrete index
// operations. It is the only place that knows how a scope translates to
// update-by-id versus update-by-query, and which of those tolerate a
// missing document. Operations of one change run concurrently; all of them
// start only after the primary store committed.
func (s *Catalog) ChangeStatus(ctx context.Context, change StatusChange) error {
	if change.Scope == model.ScopeVariantSingle && change.VariantID == nil {
		return fmt.Errorf("%w: variant id is required for a single variant update", model.ErrInvalidRequest)
	}

	fields := map[string]any{"status": change.Status}
	productID := strconv.FormatInt(change.ProductID, 10)

	g, ctx := errgroup.WithContext(ctx)

	if change.Scope == model.ScopeProductOnly || change.Scope == model.ScopeProductWithVariants {
		g.Go(func() error {
			err := s.index.PartialUpdate(ctx, model.ProductIndex, productID, fields)
			return s.tolerateMissing(err, model.ProductIndex, productID)
		})
	}

	if change.Scope == model.ScopeVariantList && len(change.VariantIDs) > 0 {
		ids := make([]string, 0, len(change.VariantIDs))
		for _, vid := range change.VariantIDs {
			ids = append(ids, model.VariantDocumentID(change.ProductID, vid))
		}
		g.Go(func() error {
			query := map[string]any{"terms": map[string]any{"_id": ids}}
			return s.index.UpdateByQuery(ctx, model.VariantsIndex, query, fields)
		})
	}

	if change.Scope == model.ScopeVariantSingle {
		docID := model.VariantDocumentID(change.ProductID, *change.VariantID)
		g.Go(func() error {
			err := s.index.PartialUpdate(ctx, model.VariantsIndex, docID, fields)
			return s.tolerateMissing(err, model.VariantsIndex, docID)
		})
	}

	if change.Scope == model.ScopeVariantsByProduct || change.Scope == model.ScopeProductWithVariants {
		g.Go(func() error {
			query := map[string]any{"term": map[string]any{"productId": change.ProductID}}
			return s.index.UpdateByQuery(ctx, model.VariantsIndex, query, fields)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: %w", model.ErrTransientStore, err)
	}
	return nil
}

// Search delegates entirely to the index; the primary store is never
// touched on the read path.
func (s *Catalog) Search(ctx context.Context, params model.SearchParams) (model.SearchResultPage, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	if limit < 1 {
		limit = defaultPageSize
	}

	req := model.SearchRequest{
		Query: buildSearchQuery(params),
		Sort:  buildSearchSort(params.Sort),
		From:  (page - 1) * limit,
		Size:  limit,
	}

	result, err := s.index.Search(ctx, model.ProductIndex, req)
	if err != nil {
		return model.SearchResultPage{}, fmt.Errorf("%w: %w", model.ErrTransientStore, err)
	}

	pages := int((result.Total + int64(limit) - 1) / int64(limit))

	return model.SearchResultPage{
		Hits:  result.Hits,
		Total: result.Total,
		Page:  page,
		Pages: pages,
	}, nil
}

// GetByID returns the product with all relations.
func (s *Catalog) GetByID(ctx context.Context, id int64) (model.Product, error) {
	return s.store.GetByID(ctx, id)
}

// GetBySlug returns the product addressed by its slug.
func (s *Catalog) GetBySlug(ctx context.Context, slug string) (model.Product, error) {
	return s.store.GetBySlug(ctx, slug)
}

// GetActiveVariants returns the product with only its active variants. A
// deleted product with no active variants left is reported as not found.
func (s *Catalog) GetActiveVariants(ctx context.Context, id int64) (model.Product, error) {
	product, err := s.store.GetWithActiveVariants(ctx, id)
	if err != nil {
		return model.Product{}, err
	}

	if product.Status == model.StatusDeleted && len(product.Variants) == 0 {
		return model.Product{}, model.ErrNotFound
	}

	return product, nil
}

// projectNewProduct indexes the full product document and, when variants
// exist, their bulk documents. Both projections run concurrently; neither
// starts before the primary commit (the caller holds the committed
// record).
func (s *Catalog) projectNewProduct(ctx context.Context, product model.Product) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		doc := model.NewProductDocument(product)
		return s.index.Upsert(ctx, model.ProductIndex, strconv.FormatInt(product.ID, 10), doc)
	})

	if len(product.Variants) > 0 {
		g.Go(func() error {
			docs := model.NewVariantDocuments(product)
			ops := make([]model.IndexOperation, 0, len(docs))
			for _, doc := range docs {
				ops = append(ops, model.IndexOperation{ID: doc.ID, Document: doc})
			}
			return s.index.BulkUpsert(ctx, model.VariantsIndex, ops)
		})
	}

	return g.Wait()
}

// projectUpdatedProduct pushes partial updates for the product document
// and every variant document, tolerating documents the index does not hold
// yet.
func (s *Catalog) projectUpdatedProduct(ctx context.Context, product model.Product) error {
	g, ctx := errgroup.WithContext(ctx)

	productID := strconv.FormatInt(product.ID, 10)
	g.Go(func() error {
		err := s.index.PartialUpdate(ctx, model.ProductIndex, productID, model.NewProductDocument(product))
		return s.tolerateMissing(err, model.ProductIndex, productID)
	})

	g.Go(func() error {
		for _, doc := range model.NewVariantDocuments(product) {
			err := s.index.PartialUpdate(ctx, model.VariantsIndex, doc.ID, doc)
			if err = s.tolerateMissing(err, model.VariantsIndex, doc.ID); err != nil {
				return err
			}
		}
		return nil
	})

	return g.Wait()
}

// tolerateMissing downgrades a missing index document to a warning. The
// next full projection recreates it.
func (s *Catalog) tolerateMissing(err error, index, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, model.ErrDocumentMissing) {
		s.logger.Warn("Catalog service: document not found in index",
			"index", index,
			"document_id", id)
		return nil
	}
	return err
}

func buildSearchQuery(params model.SearchParams) map[string]any {
	must := []any{}
	filter := []any{}

	if q := strings.TrimSpace(params.Query); q != "" {
		must = append(must, map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"title^3", "description", "sku", "brandName", "categoryName"},
				"fuzziness": "AUTO",
			},
		})
	} else {
		must = append(must, map[string]any{"match_all": map[string]any{}})
	}

	if params.CategoryID != nil {
		filter = append(filter, map[string]any{"term": map[string]any{"categoryId": *params.CategoryID}})
	}
	if len(params.BrandIDs) > 0 {
		filter = append(filter, map[string]any{"terms": map[string]any{"brandId": params.BrandIDs}})
	}
	if params.InStock {
		filter = append(filter, map[string]any{"range": map[string]any{"stock": map[string]any{"gt": 0}}})
	}

	if params.MinPrice != nil || params.MaxPrice != nil {
		priceRange := map[string]any{}
		if params.MinPrice != nil {
			priceRange["gte"] = *params.MinPrice
		}
		if params.MaxPrice != nil {
			priceRange["lte"] = *params.MaxPrice
		}
		filter = append(filter, map[string]any{"range": map[string]any{"price": priceRange}})
	}

	for key, values := range params.Attributes {
		filter = append(filter, map[string]any{
			"nested": map[string]any{
				"path": "attributes",
				"query": map[string]any{
					"bool": map[string]any{
						"must": []any{
							map[string]any{"match": map[string]any{"attributes.key": key}},
							map[string]any{"terms": map[string]any{"attributes.value": values}},
						},
					},
				},
			},
		})
	}

	return map[string]any{
		"bool": map[string]any{
			"must":   must,
			"filter": filter,
		},
	}
}

func buildSearchSort(sort model.SortOption) []map[string]any {
	switch sort {
	case model.SortPriceAsc:
		return []map[string]any{{"price": "asc"}}
	case model.SortPriceDesc:
		return []map[string]any{{"price": "desc"}}
	case model.SortNewest:
		return []map[string]any{{"createdAt": "desc"}}
	default:
		return []map[string]any{{"_score": "desc"}}
	}
}

func randomSuffix(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = slugSuffixChars[rand.Intn(len(slugSuffixChars))]
	}
	return string(b)
}
