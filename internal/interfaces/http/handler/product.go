package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	productapp "github.com/intellipost/backend/internal/application/product"
	"github.com/intellipost/backend/internal/domain/product"
	"github.com/intellipost/backend/internal/infrastructure/logger"
	"github.com/intellipost/backend/internal/interfaces/http/dto"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ProductHandler handles the product lifecycle endpoints
type ProductHandler struct {
	BaseHandler
	products *productapp.ProductService
}

// NewProductHandler creates a ProductHandler
func NewProductHandler(products *productapp.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// RegisterRoutes registers product routes behind authentication
func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	p := rg.Group("/products")
	p.POST("", h.Create)
	p.GET("", h.List)
	p.GET("/dashboard", h.Dashboard)
	p.GET("/:id", h.Get)
	p.PATCH("/:id", h.Update)
	p.DELETE("/:id", h.Delete)
	p.POST("/:id/images", h.RequestUpload)
	p.POST("/:id/images/:imageID/confirm", h.ConfirmUpload)
	p.PUT("/:id/images/:imageID/primary", h.SetPrimaryImage)
	p.POST("/:id/process", h.Process)
}

// Create starts a new product draft
func (h *ProductHandler) Create(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	p, err := h.products.Create(c.Request.Context(), userID, req.Prompt, req.PriceCents, req.Currency)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, h.productResponse(c, p))
}

// List returns a page of the user's products
func (h *ProductHandler) List(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	filter := product.ListFilter{
		Status:   product.Status(c.Query("status")),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", defaultPageSize),
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}

	items, total, err := h.products.List(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]dto.ProductResponse, len(items))
	for i, p := range items {
		responses[i] = h.productResponse(c, p)
	}
	h.Paginated(c, responses, filter.Page, filter.PageSize, total)
}

// Dashboard returns per-status product counts
func (h *ProductHandler) Dashboard(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	counts, err := h.products.Counts(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := dto.DashboardResponse{Counts: make(map[string]int64, len(counts))}
	for status, n := range counts {
		resp.Counts[string(status)] = n
		resp.Total += n
	}
	h.Success(c, resp)
}

// Get returns one product with presigned image URLs
func (h *ProductHandler) Get(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	productID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.products.Get(c.Request.Context(), userID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, h.productResponse(c, p))
}

// Update edits prompt and price before publishing
func (h *ProductHandler) Update(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	productID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	var (
		p   *product.Product
		err error
	)
	if req.Prompt != nil {
		p, err = h.products.UpdatePrompt(c.Request.Context(), userID, productID, *req.Prompt)
		if err != nil {
			h.HandleError(c, err)
			return
		}
	}
	if req.PriceCents != nil {
		p, err = h.products.UpdatePrice(c.Request.Context(), userID, productID, *req.PriceCents, req.Currency)
		if err != nil {
			h.HandleError(c, err)
			return
		}
	}
	if p == nil {
		h.BadRequest(c, "Nothing to update")
		return
	}
	h.Success(c, h.productResponse(c, p))
}

// Delete removes the product and its stored images
func (h *ProductHandler) Delete(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	productID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.products.Delete(c.Request.Context(), userID, productID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// RequestUpload returns a presigned PUT URL for one image
func (h *ProductHandler) RequestUpload(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	productID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.RequestUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	ticket, err := h.products.RequestUpload(c.Request.Context(), userID, productID, req.Filename, req.ContentType, req.SizeBytes)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.UploadTicketResponse{
		ImageID:   ticket.ImageID.String(),
		Key:       ticket.Key,
		UploadURL: ticket.UploadURL,
	})
}

// ConfirmUpload verifies one image object landed in storage
func (h *ProductHandler) ConfirmUpload(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	productID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	imageID, ok := h.pathUUID(c, "imageID")
	if !ok {
		return
	}

	p, err := h.products.ConfirmUpload(c.Request.Context(), userID, productID, imageID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, h.productResponse(c, p))
}

// SetPrimaryImage changes the listing cover
func (h *ProductHandler) SetPrimaryImage(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	productID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	imageID, ok := h.pathUUID(c, "imageID")
	if !ok {
		return
	}

	p, err := h.products.SetPrimaryImage(c.Request.Context(), userID, productID, imageID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, h.productResponse(c, p))
}

// Process verifies the uploads and queues content generation
func (h *ProductHandler) Process(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	productID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.products.Process(c.Request.Context(), userID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, h.productResponse(c, p))
}

// productResponse converts the product and resolves presigned image
// URLs. A presign failure degrades to a response without URLs.
func (h *ProductHandler) productResponse(c *gin.Context, p *product.Product) dto.ProductResponse {
	ctx := c.Request.Context()
	resp := dto.NewProductResponse(p)
	for i := range p.Images {
		img := &p.Images[i]
		if url, err := h.products.ImageURL(ctx, img.BestKey()); err == nil {
			resp.Images[i].URL = url
		} else {
			logger.L(ctx).Warn("presign image url", zap.Error(err))
		}
		if img.ThumbnailKey != "" {
			if url, err := h.products.ImageURL(ctx, img.ThumbnailKey); err == nil {
				resp.Images[i].ThumbnailURL = url
			}
		}
	}
	return resp
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
