package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/shopkeeper-server/internal/logger"
	servermocks "github.com/dtroode/shopkeeper-server/internal/mocks"
	"github.com/dtroode/shopkeeper-server/internal/model"
)

func testProduct(id int64) model.Product {
	return model.Product{
		ID:     id,
		Title:  "Mechanical Keyboard",
		Slug:   "mechanical-keyboard",
		Price:  decimal.NewFromInt(100),
		Stock:  5,
		Status: model.StatusActive,
	}
}

func TestCatalog_CreateProduct_Success(t *testing.T) {
	ctx := context.Background()
	store := &servermocks.ProductStore{}
	index := &servermocks.SearchIndex{}
	log := logger.New(0)

	product := testProduct(1)
	product.Variants = []model.Variant{
		{ID: 10, ProductID: 1, SKU: "KB-RED", Stock: 3, Status: model.StatusActive},
	}

	store.On("Create", mock.Anything, "mechanical-keyboard", mock.Anything).Return(product, nil)
	index.On("Upsert", mock.Anything, model.ProductIndex, "1", mock.Anything).Return(nil)
	index.On("BulkUpsert", mock.Anything, model.VariantsIndex, mock.Anything).Return(nil)

	s := NewCatalog(store, index, log)

	got, err := s.CreateProduct(ctx, model.CreateProduct{
		Title: "Mechanical Keyboard",
		Price: decimal.NewFromInt(100),
		Variants: []model.NewVariant{
			{SKU: "KB-RED", Stock: 3},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, product.ID, got.ID)

	// Variant status is derived from stock before the store sees it.
	in := store.Calls[0].Arguments.Get(2).(model.CreateProduct)
	assert.Equal(t, model.StatusActive, in.Variants[0].Status)
}

func TestCatalog_CreateProduct_DerivesInactiveFromZeroStock(t *testing.T) {
	ctx := context.Background()
	store := &servermocks.ProductStore{}
	index := &servermocks.SearchIndex{}
	log := logger.New(0)

	store.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(testProduct(1), nil)
	index.On("Upsert", mock.Anything, model.ProductIndex, "1", mock.Anything).Return(nil)

	s := NewCatalog(store, index, log)

	_, err := s.CreateProduct(ctx, model.CreateProduct{
		Title: "Mechanical Keyboard",
		Variants: []model.NewVariant{
			{SKU: "KB-OOS", Stock: 0},
			{SKU: "KB-FIXED", Stock: 0, Status: model.StatusArchived},
		},
	})
	require.NoError(t, err)

	in := store.Calls[0].Arguments.Get(2).(model.CreateProduct)
	assert.Equal(t, model.StatusInactive, in.Variants[0].Status)
	// An explicit status wins over derivation.
	assert.Equal(t, model.StatusArchived, in.Variants[1].Status)
}

func TestCatalog_CreateProduct_SlugRetry(t *testing.T) {
	ctx := context.Background()
	store := &servermocks.ProductStore{}
	index := &servermocks.SearchIndex{}
	log := logger.New(0)

	store.On("Create", mock.Anything, "mechanical-keyboard", mock.Anything).
		Return(model.Product{}, &model.DuplicateError{Field: "slug"}).Once()
	store.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(testProduct(1), nil).Once()
	index.On("Upsert", mock.Anything, model.ProductIndex, "1", mock.Anything).Return(nil)

	s := NewCatalog(store, index, log)

	_, err := s.CreateProduct(ctx, model.CreateProduct{Title: "Mechanical Keyboard"})
	require.NoError(t, err)

	store.AssertNumberOfCalls(t, "Create", 2)
	retried := store.Calls[1].Arguments.String(1)
	assert.True(t, strings.HasPrefix(retried, "mechanical-keyboard-"), "got slug %q", retried)
	assert.Len(t, retried, len("mechanical-keyboard-")+4)
}

func TestCatalog_CreateProduct_SlugExhausted(t *testing.T) {
	ctx := context.Background()
	store := &servermocks.ProductStore{}
	index := &servermocks.SearchIndex{}
	log := logger.New(0)

	store.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(model.Product{}, &model.DuplicateError{Field: "slug"})

	s := NewCatalog(store, index, log)

	_, err := s.CreateProduct(ctx, model.CreateProduct{Title: "Mechanical Keyboard"})
	require.ErrorIs(t, err, model.ErrSlugExhausted)
	store.AssertNumberOfCalls(t, "Create", slugAttempts)
	index.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCatalog_CreateProduct_NonSlugDuplicateFailsFast(t *testing.T) {
	ctx := context.Background()
	store := &servermocks.ProductStore{}
	index := &servermocks.SearchIndex{}
	log := logger.New(0)

	store.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(model.Product{}, &model.DuplicateError{Field: "sku"})

	s := NewCatalog(store, index, log)

	_, err := s.CreateProduct(ctx, model.CreateProduct{Title: "Mechanical Keyboard"})
	require.Error(t, err)
	assert.True(t, model.IsDuplicate(err, "sku"))
	store.AssertNumberOfCalls(t, "Create", 1)
}

func TestCatalog_CreateProduct_IndexFailureIsFatal(t *testing.T) {
	ctx := context.Background()
	store := &servermocks.ProductStore{}
	index := &servermocks.SearchIndex{}
	log := logger.New(0)

	store.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(testProduct(1), nil)
	index.On("Upsert", mock.Anything, model.ProductIndex, "1", mock.Anything).Return(errors.New("cluster red"))

	s := NewCatalog(store, index, log)

	_, err := s.CreateProduct(ctx, model.CreateProduct{Title: "Mechanical Keyboard"})
	require.ErrorIs(t, err, model.ErrTransientStore)
}

func TestCatalog_UpdateProduct_DerivesStatusFromStock(t *testing.T) {
	ctx := context.Background()
	store := &servermocks.ProductStore{}
	index := &servermocks.SearchIndex{}
	log := logger.New(0)

	store.On("Update", mock.Anything, int64(1), mock.Anything).Return(testProduct(1), nil)
	index.On("PartialUpdate", mock.Anything, model.ProductIndex, "1", mock.Anything).Return(nil)

	s := NewCatalog(store, index, log)

	zero := 0
	explicit := model.StatusArchived
	five := 5
	_, err := s.UpdateProduct(ctx, 1, model.ProductPatch{
		Variants: []model.VariantPatch{
			{ID: 10, Stock: &zero},
			{ID: 11, Stock: &five, Status: &explicit},
			{ID: 12},
		},
	})
	require.NoError(t, err)

	patch := store.Calls[0].Arguments.Get(2).(model.ProductPatch)
	require.NotNil(t, patch.Variants[0].Status)
	assert.Equal(t, model.StatusInactive, *patch.Variants[0].Status)
	assert.Equal(t, model.StatusArchived, *patch.Variants[1].Status)
	// No stock change, no derivation.
	assert.Nil(t, patch.Variants[2].Status)
}

func TestCatalog_UpdateProduct_MissingDocumentTolerated(t *testing.T) {
	ctx := context.Background()
	store := &servermocks.ProductStore{}
	index := &servermocks.SearchIndex{}
	log := logger.New(0)

	product := testProduct(1)
	product.Variants = []model.Variant{{ID: 10, ProductID: 1, SKU: "KB-RED", Stock: 3}}

	store.On("Update", mock.Anything, int64(1), mock.Anything).Return(product, nil)
	index.On("PartialUpdate", mock.Anything, model.ProductIndex, "1", mock.Anything).Return(nil)
	index.On("PartialUpdate", mock.Anything, model.VariantsIndex, "1-10", mock.Anything).
		Return(fmt.Errorf("variants/1-10: %w", model.ErrDocumentMissing))

	s := NewCatalog(store, index, log)

	_, err := s.UpdateProduct(ctx, 1, model.ProductPatch{})
	require.NoError(t, err)
}

func TestCatalog_UpdateProduct_IndexErrorSurfaces(t *testing.T) {
	ctx := context.Background()
	store := &servermocks.ProductStore{}
	index := &servermocks.SearchIndex{}
	log := logger.New(0)

	store.On("Update", mock.Anything, int64(1), mock.Anything).Return(testProduct(1), nil)
	index.On("PartialUpdate", mock.Anything, model.ProductIndex, "1", mock.Anything).Return(errors.New("cluster red"))

	s := NewCatalog(store, index, log)

	_, err := s.UpdateProduct(ctx, 1, model.ProductPatch{})
	require.ErrorIs(t, err, model.ErrTransientStore)
}

func TestCatalog_UpdateProduct_NotFound(t *testing.T) {
	ctx := context.Background()
	store := &servermocks.ProductStore{}
	index := &servermocks.SearchIndex{}
	log := logger.New(0)

	store.On("Update", mock.Anything, int64(99), mock.Anything).Return(model.Product{}, model.ErrNotFound)

	s := NewCatalog(store, index, log)

	_, err := s.UpdateProduct(ctx, 99, model.ProductPatch{})
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestCatalog_CreateVariants_Success(t *testing.T) {
	ctx := context.Background()
	store := &servermocks.ProductStore{}
	index := &servermocks.SearchIndex{}
	log := logger.New(0)

	parent := testProduct(1)
	created := []model.Variant{
		{ID: 10, ProductID: 1, SKU: "KB-RED", Stock: 3, Status: model.StatusActive},
		{ID: 11, ProductID: 1, SKU: "KB-BLUE", Stock: 0, Status: model.StatusInactive},
	}

	store.On("GetByID", mock.Anything, int64(1)).Return(parent, nil)
	store.On("CreateVariants", mock.Anything, int64(1), mock.Anything).Return(created, nil)
	index.On("BulkUpsert", mock.Anything, model.VariantsIndex, mock.MatchedBy(func(ops []model.IndexOperation) bool {
		return len(ops) == 2 && ops[0].ID == "1-10" && ops[1].ID == "1-11"
	})).Return(nil)

	s := NewCatalog(store, index, log)

	result, err := s.CreateVariants(ctx, 1, []model.NewVariant{
		{SKU: "KB-RED", Stock: 3},
		{SKU: "KB-BLUE", Stock: 0},
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Count)
	assert.Len(t, result.Variants, 2)

	specs := store.Calls[1].Arguments.Get(2).([]model.NewVariant)
	assert.Equal(t, model.StatusActive, specs[0].Status)
	assert.Equal(t, model.StatusInactive, specs[1].Status)
}

func TestCatalog_CreateVariants_ProductNotFound(t *testing.T) {
	ctx := context.Background()
	store := &servermocks.ProductStore{}
	index := &servermocks.SearchIndex{}
	log := logger.New(0)

	store.On("GetByID", mock.Anything, int64(99)).Return(model.Product{}, model.ErrNotFound)

	s := NewCatalog(store, index, log)

	_, err := s.CreateVariants(ctx, 99, []model.NewVariant{{SKU: "X"}})
	require.ErrorIs(t, err, model.ErrNotFound)
	store.AssertNotCalled(t, "CreateVariants", mock.Anything, mock.Anything, mock.Anything)
}

func TestCatalog_DeleteProduct_VariantList(t *testing.T) {
	ctx := context.Background()
	store := &servermocks.ProductStore{}
	index := &servermocks.SearchIndex{}
	log := logger.New(0)

	store.On("SoftDeleteVariants", mock.Anything, int64(1), []int64{10, 11}).Return(int64(2), nil)
	index.On("UpdateByQuery", mock.Anything, model.VariantsIndex,
		mock.MatchedBy(func(query map[string]any) bool {
			terms, ok := query["terms"].(map[string]any)
			if !ok {
				return false
			}
			ids, ok := terms["_id"].([]string)
			return ok && len(ids) == 2 && ids[0] == "1-10" && ids[1] == "1-11"
		}),
		map[string]any{"status": model.StatusDeleted},
	).Return(nil)

	s := NewCatalog(store, index, log)

	ok, err := s.DeleteProduct(ctx, 1, []int64{10, 11}, false)
	require.NoError(t, err)
	assert.True(t, ok)

	// The product row and its index document stay untouched.
	store.AssertNotCalled(t, "SoftDeleteProduct", mock.Anything, mock.Anything, mock.Anything)
	index.AssertNotCalled(t, "PartialUpdate", mock.Anything, model.ProductIndex, mock.Anything, mock.Anything)
}

func TestCatalog_DeleteProduct_VariantListNoMatch(t *testing.T) {
	ctx := context.Background()
	store := &servermocks.ProductStore{}
	index := &servermocks.SearchIndex{}
	log := logger.New(0)

	store.On("SoftDeleteVariants", mock.Anything, int64(1), []int64{99}).Return(int64(0), nil)

	s := NewCatalog(store, index, log)

	_, err := s.DeleteProduct(ctx, 1, []int64{99}, false)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestCatalog_DeleteProduct_WithVariants(t *testing.T) {
	ctx := context.Background()
	store := &servermocks.ProductStore{}
	index := &servermocks.SearchIndex{}
	log := logger.New(0)

	store.On("SoftDeleteProduct", mock.Anything, int64(1), true).Return(nil)
	index.On("PartialUpdate", mock.Anything, model.ProductIndex, "1",
		map[string]any{"status": model.StatusDeleted}).Return(nil)
	index.On("UpdateByQuery", mock.Anything, model.VariantsIndex,
		map[string]any{"term": map[string]any{"productId": int64(1)}},
		map[string]any{"status": model.StatusDeleted},
	).Return(nil)

	s := NewCatalog(store, index, log)

	ok, err := s.DeleteProduct(ctx, 1, nil, true)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCatalog_DeleteProduct_ProductOnly(t *testing.T) {
	ctx := context.Background()
	store := &servermocks.ProductStore{}
	index := &servermocks.SearchIndex{}
	log := logger.New(0)

	store.On("SoftDeleteProduct", mock.Anything, int64(1), false).Return(nil)
	index.On("PartialUpdate", mock.Anything, model.ProductIndex, "1",
		map[string]any{"status": model.StatusDeleted}).Return(nil)

	s := NewCatalog(store, index, log)

	ok, err := s.DeleteProduct(ctx, 1, nil, false)
	require.NoError(t, err)
	assert.True(t, ok)

	index.AssertNotCalled(t, "UpdateByQuery", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCatalog_ChangeStatus_VariantSingleRequiresID(t *testing.T) {
	ctx := context.Background()
	store := &servermocks.ProductStore{}
	index := &servermocks.SearchIndex{}
	log := logger.New(0)

	s := NewCatalog(store, index, log)

	err := s.ChangeStatus(ctx, StatusChange{
		ProductID: 1,
		Status:    model.StatusInactive,
		Scope:     model.ScopeVariantSingle,
	})
	require.ErrorIs(t, err, model.ErrInvalidRequest)
}

func TestCatalog_ChangeStatus_VariantSingleToleratesMissing(t *testing.T) {
	ctx := context.Background()
	store := &servermocks.ProductStore{}
	index := &servermocks.SearchIndex{}
	log := logger.New(0)

	index.On("PartialUpdate", mock.Anything, model.VariantsIndex, "1-10", mock.Anything).
		Return(fmt.Errorf("variants/1-10: %w", model.ErrDocumentMissing))

	s := NewCatalog(store, index, log)

	vid := int64(10)
	err := s.ChangeStatus(ctx, StatusChange{
		ProductID: 1,
		Status:    model.StatusInactive,
		Scope:     model.ScopeVariantSingle,
		VariantID: &vid,
	})
	require.NoError(t, err)
}

func TestCatalog_ChangeStatus_VariantsByProduct(t *testing.T) {
	ctx := context.Background()
	store := &servermocks.ProductStore{}
	index := &servermocks.SearchIndex{}
	log := logger.New(0)

	index.On("UpdateByQuery", mock.Anything, model.VariantsIndex,
		map[string]any{"term": map[string]any{"productId": int64(1)}},
		map[string]any{"status": model.StatusArchived},
	).Return(nil)

	s := NewCatalog(store, index, log)

	err := s.ChangeStatus(ctx, StatusChange{
		ProductID: 1,
		Status:    model.StatusArchived,
		Scope:     model.ScopeVariantsByProduct,
	})
	require.NoError(t, err)

	index.AssertNotCalled(t, "PartialUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCatalog_Search_Defaults(t *testing.T) {
	ctx := context.Background()
	store := &servermocks.ProductStore{}
	index := &servermocks.SearchIndex{}
	log := logger.New(0)

	index.On("Search", mock.Anything, model.ProductIndex, mock.MatchedBy(func(req model.SearchRequest) bool {
		return req.From == 0 && req.Size == defaultPageSize
	})).Return(model.SearchResult{Total: 45}, nil)

	s := NewCatalog(store, index, log)

	page, err := s.Search(ctx, model.SearchParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, int64(45), page.Total)
	assert.Equal(t, 3, page.Pages)
}

func TestCatalog_Search_Pagination(t *testing.T) {
	ctx := context.Background()
	store := &servermocks.ProductStore{}
	index := &servermocks.SearchIndex{}
	log := logger.New(0)

	index.On("Search", mock.Anything, model.ProductIndex, mock.MatchedBy(func(req model.SearchRequest) bool {
		return req.From == 20 && req.Size == 10
	})).Return(model.SearchResult{Total: 21}, nil)

	s := NewCatalog(store, index, log)

	page, err := s.Search(ctx, model.SearchParams{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 3, page.Pages)
}

func TestCatalog_Search_QueryShape(t *testing.T) {
	ctx := context.Background()
	store := &servermocks.ProductStore{}
	index := &servermocks.SearchIndex{}
	log := logger.New(0)

	var captured model.SearchRequest
	index.On("Search", mock.Anything, model.ProductIndex, mock.MatchedBy(func(req model.SearchRequest) bool {
		captured = req
		return true
	})).Return(model.SearchResult{}, nil)

	s := NewCatalog(store, index, log)

	categoryID := int64(7)
	minPrice := 10.0
	_, err := s.Search(ctx, model.SearchParams{
		Query:      "keyboard",
		CategoryID: &categoryID,
		BrandIDs:   []int64{1, 2},
		MinPrice:   &minPrice,
		InStock:    true,
		Attributes: map[string][]string{"color": {"red", "blue"}},
		Sort:       model.SortPriceDesc,
	})
	require.NoError(t, err)

	boolQuery := captured.Query["bool"].(map[string]any)
	must := boolQuery["must"].([]any)
	require.Len(t, must, 1)
	multiMatch := must[0].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "keyboard", multiMatch["query"])
	assert.Equal(t, "AUTO", multiMatch["fuzziness"])

	// category, brands, stock, price range, one attribute filter
	filter := boolQuery["filter"].([]any)
	assert.Len(t, filter, 5)

	require.Len(t, captured.Sort, 1)
	assert.Equal(t, "desc", captured.Sort[0]["price"])
}

func TestCatalog_Search_EmptyQueryMatchesAll(t *testing.T) {
	ctx := context.Background()
	store := &servermocks.ProductStore{}
	index := &servermocks.SearchIndex{}
	log := logger.New(0)

	var captured model.SearchRequest
	index.On("Search", mock.Anything, model.ProductIndex, mock.MatchedBy(func(req model.SearchRequest) bool {
		captured = req
		return true
	})).Return(model.SearchResult{}, nil)

	s := NewCatalog(store, index, log)

	_, err := s.Search(ctx, model.SearchParams{Sort: model.SortTopRated})
	require.NoError(t, err)

	must := captured.Query["bool"].(map[string]any)["must"].([]any)
	_, hasMatchAll := must[0].(map[string]any)["match_all"]
	assert.True(t, hasMatchAll)

	// top_rated has no backing field and sorts by score.
	require.Len(t, captured.Sort, 1)
	assert.Equal(t, "desc", captured.Sort[0]["_score"])
}

func TestCatalog_GetActiveVariants_DeletedWithoutActive(t *testing.T) {
	ctx := context.Background()
	store := &servermocks.ProductStore{}
	index := &servermocks.SearchIndex{}
	log := logger.New(0)

	deleted := testProduct(1)
	deleted.Status = model.StatusDeleted
	deleted.Variants = nil
	store.On("GetWithActiveVariants", mock.Anything, int64(1)).Return(deleted, nil)

	s := NewCatalog(store, index, log)

	_, err := s.GetActiveVariants(ctx, 1)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestCatalog_GetActiveVariants_DeletedWithActive(t *testing.T) {
	ctx := context.Background()
	store := &servermocks.ProductStore{}
	index := &servermocks.SearchIndex{}
	log := logger.New(0)

	deleted := testProduct(1)
	deleted.Status = model.StatusDeleted
	deleted.Variants = []model.Variant{{ID: 10, Status: model.StatusActive}}
	store.On("GetWithActiveVariants", mock.Anything, int64(1)).Return(deleted, nil)

	s := NewCatalog(store, index, log)

	got, err := s.GetActiveVariants(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, got.Variants, 1)
}
