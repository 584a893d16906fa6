package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	catalogapp "github.com/storefront/backend/internal/application/catalog"
)

// CatalogHandler handles product, brand and category endpoints
type CatalogHandler struct {
	BaseHandler
	productService *catalogapp.ProductService
	groupService   *catalogapp.GroupService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(productService *catalogapp.ProductService, groupService *catalogapp.GroupService) *CatalogHandler {
	return &CatalogHandler{
		productService: productService,
		groupService:   groupService,
	}
}

// listProductsQuery is the catalog query string. Group filters arrive as
// strings so a malformed id reports a validation error.
type listProductsQuery struct {
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search     string `form:"q" binding:"max=100"`
	BrandID    string `form:"brand_id" binding:"omitempty,uuid"`
	CategoryID string `form:"category_id" binding:"omitempty,uuid"`
}

func (q listProductsQuery) toRequest() catalogapp.ListProductsRequest {
	req := catalogapp.ListProductsRequest{
		Page:     q.Page,
		PageSize: q.PageSize,
		Search:   strings.TrimSpace(q.Search),
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = catalogapp.DefaultProductPageSize
	}
	if id, err := uuid.Parse(q.BrandID); err == nil {
		req.BrandID = &id
	}
	if id, err := uuid.Parse(q.CategoryID); err == nil {
		req.CategoryID = &id
	}
	return req
}

// ListProducts godoc
// @ID           listCatalogProducts
// @Summary      Browse the catalog
// @Description  List in-stock products, newest first. Supports free-text search and brand/category filters.
// @Tags         catalog
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(8)
// @Param        q query string false "Search in name and description"
// @Param        brand_id query string false "Brand filter" format(uuid)
// @Param        category_id query string false "Category filter" format(uuid)
// @Success      200 {object} APIResponse[[]catalogapp.ProductResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /catalog/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var query listProductsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.ValidationError(c, err)
		return
	}
	req := query.toRequest()

	products, total, err := h.productService.List(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, products, total, req.Page, req.PageSize)
}

// GetProduct godoc
// @ID           getCatalogProduct
// @Summary      Get product details
// @Tags         catalog
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[catalogapp.ProductResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /catalog/products/{id} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	product, err := h.productService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// CreateProduct godoc
// @ID           createCatalogProduct
// @Summary      Create a product
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        request body catalogapp.CreateProductRequest true "Product"
// @Success      201 {object} APIResponse[catalogapp.ProductResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /catalog/products [post]
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req catalogapp.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	product, err := h.productService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, product)
}

// UpdateProduct godoc
// @ID           updateCatalogProduct
// @Summary      Update a product
// @Description  Partially update price, discount, stock, colors or images
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body catalogapp.UpdateProductRequest true "Changes"
// @Success      200 {object} APIResponse[catalogapp.ProductResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /catalog/products/{id} [put]
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	var req catalogapp.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	product, err := h.productService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// DeleteProduct godoc
// @ID           deleteCatalogProduct
// @Summary      Delete a product
// @Description  Remove a product from the catalog. Placed orders keep their line snapshots.
// @Tags         catalog
// @Param        id path string true "Product ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /catalog/products/{id} [delete]
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	if err := h.productService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListBrands godoc
// @ID           listCatalogBrands
// @Summary      List brands
// @Tags         catalog
// @Produce      json
// @Success      200 {object} APIResponse[[]catalogapp.GroupResponse]
// @Router       /catalog/brands [get]
func (h *CatalogHandler) ListBrands(c *gin.Context) {
	brands, err := h.groupService.ListBrands(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, brands)
}

// CreateBrand godoc
// @ID           createCatalogBrand
// @Summary      Create a brand
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        request body catalogapp.CreateGroupRequest true "Brand"
// @Success      201 {object} APIResponse[catalogapp.GroupResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /catalog/brands [post]
func (h *CatalogHandler) CreateBrand(c *gin.Context) {
	var req catalogapp.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	brand, err := h.groupService.CreateBrand(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, brand)
}

// UpdateBrand godoc
// @ID           updateCatalogBrand
// @Summary      Rename a brand
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        id path string true "Brand ID" format(uuid)
// @Param        request body catalogapp.RenameGroupRequest true "Brand"
// @Success      200 {object} APIResponse[catalogapp.GroupResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /catalog/brands/{id} [put]
func (h *CatalogHandler) UpdateBrand(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid brand ID format")
		return
	}

	var req catalogapp.RenameGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	brand, err := h.groupService.UpdateBrand(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, brand)
}

// DeleteBrand godoc
// @ID           deleteCatalogBrand
// @Summary      Delete a brand
// @Description  Refused with BRAND_IN_USE while products reference the brand
// @Tags         catalog
// @Param        id path string true "Brand ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /catalog/brands/{id} [delete]
func (h *CatalogHandler) DeleteBrand(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid brand ID format")
		return
	}

	if err := h.groupService.DeleteBrand(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListCategories godoc
// @ID           listCatalogCategories
// @Summary      List categories
// @Tags         catalog
// @Produce      json
// @Success      200 {object} APIResponse[[]catalogapp.GroupResponse]
// @Router       /catalog/categories [get]
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.groupService.ListCategories(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, categories)
}

// CreateCategory godoc
// @ID           createCatalogCategory
// @Summary      Create a category
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        request body catalogapp.CreateGroupRequest true "Category"
// @Success      201 {object} APIResponse[catalogapp.GroupResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /catalog/categories [post]
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req catalogapp.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	category, err := h.groupService.CreateCategory(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, category)
}

// UpdateCategory godoc
// @ID           updateCatalogCategory
// @Summary      Rename a category
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        id path string true "Category ID" format(uuid)
// @Param        request body catalogapp.RenameGroupRequest true "Category"
// @Success      200 {object} APIResponse[catalogapp.GroupResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /catalog/categories/{id} [put]
func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid category ID format")
		return
	}

	var req catalogapp.RenameGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	category, err := h.groupService.UpdateCategory(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, category)
}

// DeleteCategory godoc
// @ID           deleteCatalogCategory
// @Summary      Delete a category
// @Description  Refused with CATEGORY_IN_USE while products reference the category
// @Tags         catalog
// @Param        id path string true "Category ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /catalog/categories/{id} [delete]
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid category ID format")
		return
	}

	if err := h.groupService.DeleteCategory(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
