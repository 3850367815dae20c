package handler

import (
	"github.com/gin-gonic/gin"
	catalogapp "github.com/perfume/backend/internal/application/catalog"
	"github.com/perfume/backend/internal/domain/shared"
)

// ProductHandler handles product endpoints
type ProductHandler struct {
	BaseHandler
	products *catalogapp.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products *catalogapp.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// List godoc
// @Summary      List products. The storefront sees active products only.
// @Tags         products
// @Param        category   query string false "Category slug"
// @Param        gender     query string false "men, women or unisex"
// @Param        min_price  query string false "Minimum price"
// @Param        max_price  query string false "Maximum price"
// @Param        order_by   query string false "created_at, price, name or stock"
// @Router       /products [get]
func (h *ProductHandler) List(c *gin.Context) {
	var req catalogapp.ListProductsRequest
	if !h.BindQuery(c, &req) {
		return
	}
	var (
		page shared.Paginated[catalogapp.ProductResponse]
		err  error
	)
	if isAdmin(c) {
		page, err = h.products.List(c.Request.Context(), req, h.Lang(c))
	} else {
		page, err = h.products.ListPublic(c.Request.Context(), req, h.Lang(c))
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Get godoc
// @Summary      Get a product by id or slug
// @Tags         products
// @Router       /products/{idOrSlug} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	h.get(c, c.Param("id"))
}

// GetBySlug godoc
// @Summary      Get a product by slug
// @Tags         products
// @Router       /products/slug/{slug} [get]
func (h *ProductHandler) GetBySlug(c *gin.Context) {
	h.get(c, c.Param("slug"))
}

func (h *ProductHandler) get(c *gin.Context, idOrSlug string) {
	var (
		product *catalogapp.ProductResponse
		err     error
	)
	if id, ok := parseUUID(idOrSlug); ok && isAdmin(c) {
		product, err = h.products.Get(c.Request.Context(), id, h.Lang(c))
	} else {
		product, err = h.products.GetPublic(c.Request.Context(), idOrSlug, h.Lang(c))
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Create godoc
// @Summary      Create a product
// @Tags         products
// @Security     BearerAuth
// @Router       /products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req catalogapp.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	product, err := h.products.Create(c.Request.Context(), req, h.Lang(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// Update godoc
// @Summary      Partially update a product
// @Tags         products
// @Security     BearerAuth
// @Router       /products/{id} [patch]
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	product, err := h.products.Update(c.Request.Context(), id, req, h.Lang(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Delete godoc
// @Summary      Delete a product and its images
// @Tags         products
// @Security     BearerAuth
// @Router       /products/{id} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.products.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// AdjustStock godoc
// @Summary      Add or remove stock
// @Tags         products
// @Security     BearerAuth
// @Router       /products/{id}/stock [post]
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.AdjustStockRequest
	if !h.BindJSON(c, &req) {
		return
	}
	product, err := h.products.AdjustStock(c.Request.Context(), id, req, h.Lang(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Activate godoc
// @Summary      Show a product in the storefront
// @Tags         products
// @Security     BearerAuth
// @Router       /products/{id}/activate [post]
func (h *ProductHandler) Activate(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	product, err := h.products.Activate(c.Request.Context(), id, h.Lang(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Deactivate godoc
// @Summary      Hide a product from the storefront
// @Tags         products
// @Security     BearerAuth
// @Router       /products/{id}/deactivate [post]
func (h *ProductHandler) Deactivate(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	product, err := h.products.Deactivate(c.Request.Context(), id, h.Lang(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}
