package http

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dtroode/shopkeeper-server/internal/model"
	"github.com/dtroode/shopkeeper-server/internal/service"
)

const attrFilterPrefix = "attr_"

// ProductHandler exposes the catalog over HTTP.
type ProductHandler struct {
	catalog *service.Catalog
	storage model.Storage
}

func NewProductHandler(catalog *service.Catalog, storage model.Storage) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		storage: storage,
	}
}

type imageDTO struct {
	URL    string `json:"url" binding:"required"`
	IsMain bool   `json:"isMain"`
}

type newVariantDTO struct {
	SKU        string              `json:"sku" binding:"required"`
	Barcode    *string             `json:"barcode"`
	Price      *float64            `json:"price"`
	Stock      int                 `json:"stock" binding:"min=0"`
	Attributes map[string]any      `json:"attributes"`
	Status     model.ProductStatus `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE ARCHIVED"`
}

type createProductRequest struct {
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description"`
	Price       float64         `json:"price" binding:"required,gt=0"`
	Stock       int             `json:"stock" binding:"min=0"`
	SKU         string          `json:"sku"`
	BrandID     *int64          `json:"brandId"`
	CategoryID  *int64          `json:"categoryId"`
	TagIDs      []int64         `json:"tagIds"`
	Images      []imageDTO      `json:"images"`
	Variants    []newVariantDTO `json:"variants" binding:"dive"`
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := model.CreateProduct{
		Title:       req.Title,
		Description: req.Description,
		Price:       decimal.NewFromFloat(req.Price),
		Stock:       req.Stock,
		SKU:         req.SKU,
		BrandID:     req.BrandID,
		CategoryID:  req.CategoryID,
		TagIDs:      req.TagIDs,
		Images:      imagesFromDTO(req.Images),
		Variants:    variantsFromDTO(req.Variants),
	}

	product, err := h.catalog.CreateProduct(c.Request.Context(), in)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

type variantPatchDTO struct {
	ID         int64                `json:"id" binding:"required"`
	SKU        *string              `json:"sku"`
	Barcode    *string              `json:"barcode"`
	Price      *float64             `json:"price"`
	Stock      *int                 `json:"stock"`
	Attributes map[string]any       `json:"attributes"`
	Status     *model.ProductStatus `json:"status"`
}

type updateProductRequest struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Price       *float64             `json:"price"`
	Stock       *int                 `json:"stock"`
	Status      *model.ProductStatus `json:"status"`
	Images      []imageDTO           `json:"images"`
	TagIDs      *[]int64             `json:"tagIds"`
	Variants    []variantPatchDTO    `json:"variants" binding:"dive"`
}

func (h *ProductHandler) Update(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := model.ProductPatch{
		Title:       req.Title,
		Description: req.Description,
		Price:       decimalPtr(req.Price),
		Stock:       req.Stock,
		Status:      req.Status,
		TagIDs:      req.TagIDs,
	}
	if req.Images != nil {
		patch.Images = imagesFromDTO(req.Images)
	}
	for _, v := range req.Variants {
		patch.Variants = append(patch.Variants, model.VariantPatch{
			ID:         v.ID,
			SKU:        v.SKU,
			Barcode:    v.Barcode,
			Price:      decimalPtr(v.Price),
			Stock:      v.Stock,
			Attributes: v.Attributes,
			Status:     v.Status,
		})
	}

	product, err := h.catalog.UpdateProduct(c.Request.Context(), id, patch)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

type deleteProductRequest struct {
	VariantIDs []int64 `json:"variantIds"`
	AllDel     bool    `json:"allDel"`
}

func (h *ProductHandler) Delete(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	// The body is optional: an empty one deletes the product alone.
	var req deleteProductRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	deleted, err := h.catalog.DeleteProduct(c.Request.Context(), id, req.VariantIDs, req.AllDel)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": deleted})
}

type createVariantsRequest struct {
	Variants []newVariantDTO `json:"variants" binding:"required,min=1,dive"`
}

func (h *ProductHandler) CreateVariants(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	var req createVariantsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.catalog.CreateVariants(c.Request.Context(), id, variantsFromDTO(req.Variants))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *ProductHandler) GetByID(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	product, err := h.catalog.GetByID(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) GetBySlug(c *gin.Context) {
	product, err := h.catalog.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) GetActiveVariants(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	product, err := h.catalog.GetActiveVariants(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// Search reads criteria from the query string. Attribute filters use
// attr_<key>=v1,v2 parameters.
func (h *ProductHandler) Search(c *gin.Context) {
	params := model.SearchParams{
		Query:   c.Query("q"),
		InStock: c.Query("inStock") == "true",
		Sort:    model.SortOption(c.DefaultQuery("sort", string(model.SortRelevance))),
	}
	params.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	params.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))

	if raw := c.Query("categoryId"); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category id"})
			return
		}
		params.CategoryID = &id
	}
	if raw := c.Query("brandIds"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := parseID(part)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid brand id"})
				return
			}
			params.BrandIDs = append(params.BrandIDs, id)
		}
	}
	if raw := c.Query("minPrice"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			params.MinPrice = &v
		}
	}
	if raw := c.Query("maxPrice"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			params.MaxPrice = &v
		}
	}

	for key, values := range c.Request.URL.Query() {
		if !strings.HasPrefix(key, attrFilterPrefix) || len(values) == 0 {
			continue
		}
		name := strings.TrimPrefix(key, attrFilterPrefix)
		if params.Attributes == nil {
			params.Attributes = make(map[string][]string)
		}
		params.Attributes[name] = strings.Split(values[0], ",")
	}

	page, err := h.catalog.Search(c.Request.Context(), params)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// UploadImage stores a product image and returns its public URL.
func (h *ProductHandler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read image"})
		return
	}
	defer src.Close()

	key := fmt.Sprintf("products/%s%s", uuid.NewString(), filepath.Ext(file.Filename))
	contentType := file.Header.Get("Content-Type")

	url, err := h.storage.Upload(c.Request.Context(), key, src, file.Size, contentType)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"url": url})
}

func parseID(raw string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
}

func decimalPtr(f *float64) *decimal.Decimal {
	if f == nil {
		return nil
	}
	d := decimal.NewFromFloat(*f)
	return &d
}

func imagesFromDTO(images []imageDTO) []model.ProductImage {
	out := make([]model.ProductImage, 0, len(images))
	for _, img := range images {
		out = append(out, model.ProductImage{URL: img.URL, IsMain: img.IsMain})
	}
	return out
}

func variantsFromDTO(variants []newVariantDTO) []model.NewVariant {
	out := make([]model.NewVariant, 0, len(variants))
	for _, v := range variants {
		out = append(out, model.NewVariant{
			SKU:        v.SKU,
			Barcode:    v.Barcode,
			Price:      decimalPtr(v.Price),
			Stock:      v.Stock,
			Attributes: v.Attributes,
			Status:     v.Status,
		})
	}
	return out
}
