package v1

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/oshxona/backend/internal/domain"
	"github.com/oshxona/backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

func (h *Handler) initProductsRoutes(api *gin.RouterGroup) {
	products := api.Group("/products")
	{
		products.GET("", h.optionalUserIdentityMiddleware, h.getProductsList)
		products.GET("/:id", h.getProductByID)
		products.POST("/:id/like", h.userIdentityMiddleware, h.likeProduct)
		products.DELETE("/:id/like", h.userIdentityMiddleware, h.unlikeProduct)
	}
}

type productResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Price       int64     `json:"price"`
	ImageURL    *string   `json:"image_url,omitempty"`
	IsAvailable bool      `json:"is_available"`
	Likes       int64     `json:"likes"`
}

type productsListResponse struct {
	Products []productResponse `json:"products"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

func newProductResponse(p *domain.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Category:    string(p.Category),
		Price:       p.Price,
		ImageURL:    p.ImageURL,
		IsAvailable: p.IsAvailable,
		Likes:       p.Likes,
	}
}

func newProductsListResponse(products []*domain.Product, total int64, page, limit int) productsListResponse {
	response := productsListResponse{
		Products: make([]productResponse, 0, len(products)),
		Total:    total,
		Page:     page,
		Limit:    limit,
	}
	for _, p := range products {
		response.Products = append(response.Products, newProductResponse(p))
	}
	return response
}

func pagination(c *gin.Context) (int, int) {
	page := defaultPage
	limit := defaultLimit

	if pageStr := c.Query("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= maxLimit {
			limit = l
		}
	}

	return page, limit
}

// @Summary Get Products List
// @Tags Products
// @Description Menu with pagination, category filter and prefix search over title and description
// @ModuleID getProductsList
// @Produce  json
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 20, max 100)"
// @Param category query string false "food, snack, beverage, dessert, combo"
// @Param search query string false "Search text"
// @Param available query boolean false "Only available products"
// @Param liked query boolean false "Only products liked by the current user, ignored without authorization"
// @Param sort_by query string false "created_at, price, likes (default created_at)"
// @Param order query string false "asc, desc (default desc)"
// @Success 200 {object} productsListResponse
// @Failure 400 {object} ErrorStruct
// @Router /products [get]
func (h *Handler) getProductsList(c *gin.Context) {
	page, limit := pagination(c)

	filters := &service.ProductFilters{}

	if category := strings.TrimSpace(c.Query("category")); category != "" {
		if !domain.ProductCategory(category).Valid() {
			errorResponse(c, http.StatusBadRequest, AuthInvalidRequestCode)
			return
		}
		filters.Category = &category
	}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filters.Search = &search
	}

	if available, err := strconv.ParseBool(c.Query("available")); err == nil {
		filters.OnlyAvailable = available
	}

	if liked, err := strconv.ParseBool(c.Query("liked")); err == nil && liked {
		if userID, err := h.getUserUUID(c); err == nil {
			filters.LikedBy = &userID
		}
	}

	switch sortBy := c.Query("sort_by"); sortBy {
	case "created_at", "price", "likes":
		filters.SortBy = sortBy
	}

	if order := c.Query("order"); order == "asc" || order == "desc" {
		filters.Order = order
	}

	products, total, err := h.services.Products.GetAll(c.Request.Context(), page, limit, filters)
	if err != nil {
		serviceErrorResponse(c, "get products", err)
		return
	}

	c.JSON(http.StatusOK, newProductsListResponse(products, total, page, limit))
}

// @Summary Get Product By ID
// @Tags Products
// @ModuleID getProductByID
// @Produce  json
// @Param id path string true "Product ID"
// @Success 200 {object} productResponse
// @Failure 400 {object} ErrorStruct
// @Failure 404 {object} ErrorStruct
// @Router /products/{id} [get]
func (h *Handler) getProductByID(c *gin.Context) {
	productID, ok := productIDParam(c)
	if !ok {
		return
	}

	product, err := h.services.Products.GetByID(c.Request.Context(), productID)
	if err != nil {
		serviceErrorResponse(c, "get product", err)
		return
	}

	c.JSON(http.StatusOK, newProductResponse(product))
}

// @Summary Like Product
// @Tags Products
// @ModuleID likeProduct
// @Produce  json
// @Param id path string true "Product ID"
// @Success 204
// @Failure 400 {object} ErrorStruct
// @Failure 401 {object} ErrorStruct
// @Failure 404 {object} ErrorStruct
// @Security UserAuth
// @Router /products/{id}/like [post]
func (h *Handler) likeProduct(c *gin.Context) {
	userID, ok := h.mustUserUUID(c)
	if !ok {
		return
	}

	productID, ok := productIDParam(c)
	if !ok {
		return
	}

	if err := h.services.Likes.Like(c.Request.Context(), userID, productID); err != nil {
		serviceErrorResponse(c, "like product", err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Unlike Product
// @Tags Products
// @ModuleID unlikeProduct
// @Produce  json
// @Param id path string true "Product ID"
// @Success 204
// @Failure 400 {object} ErrorStruct
// @Failure 401 {object} ErrorStruct
// @Security UserAuth
// @Router /products/{id}/like [delete]
func (h *Handler) unlikeProduct(c *gin.Context) {
	userID, ok := h.mustUserUUID(c)
	if !ok {
		return
	}

	productID, ok := productIDParam(c)
	if !ok {
		return
	}

	if err := h.services.Likes.Unlike(c.Request.Context(), userID, productID); err != nil {
		serviceErrorResponse(c, "unlike product", err)
		return
	}

	c.Status(http.StatusNoContent)
}

func productIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, AuthInvalidRequestCode)
		return uuid.Nil, false
	}
	return id, true
}
