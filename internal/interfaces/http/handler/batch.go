package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	inventoryapp "github.com/shopfront/backend/internal/application/inventory"
	"github.com/shopfront/backend/internal/infrastructure/export"
)

// BatchService is the batch ledger as seen by the HTTP layer
type BatchService interface {
	CreateBatch(ctx context.Context, req inventoryapp.CreateBatchRequest) (*inventoryapp.BatchResponse, error)
	GetAvailableBatches(ctx context.Context, productID uuid.UUID, variantSlug string) ([]inventoryapp.BatchResponse, error)
	GetBatch(ctx context.Context, id uuid.UUID) (*inventoryapp.BatchResponse, error)
	GetBatchByCode(ctx context.Context, code string) (*inventoryapp.BatchResponse, error)
	ListBatches(ctx context.Context, filter inventoryapp.BatchListFilter) ([]inventoryapp.BatchResponse, int64, error)
	Restock(ctx context.Context, id uuid.UUID, req inventoryapp.RestockRequest) (*inventoryapp.BatchResponse, error)
	ExportBatches(ctx context.Context, filter inventoryapp.BatchListFilter, w io.Writer) error
}

// BatchHandler handles shipment batch endpoints
type BatchHandler struct {
	BaseHandler
	service BatchService
	now     func() time.Time
}

// NewBatchHandler creates a new BatchHandler
func NewBatchHandler(service BatchService) *BatchHandler {
	return &BatchHandler{service: service, now: time.Now}
}

// Create godoc
// @ID           createBatch
// @Summary      Record a stock receipt
// @Description  Creates a shipment batch and assigns the next daily batch code
// @Tags         batches
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Replay protection key"
// @Param        request body inventoryapp.CreateBatchRequest true "Batch receipt"
// @Success      201 {object} APIResponse[inventoryapp.BatchResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/batches [post]
func (h *BatchHandler) Create(c *gin.Context) {
	var req inventoryapp.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	batch, err := h.service.CreateBatch(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, batch)
}

// List godoc
// @ID           listBatches
// @Summary      List the batch ledger
// @Tags         batches
// @Produce      json
// @Param        product_id query string false "Filter by product" format(uuid)
// @Param        variant_slug query string false "Filter by variant"
// @Param        available_only query boolean false "Only batches with remaining stock"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Order by field" default(imported_at)
// @Param        order_dir query string false "Order direction" Enums(asc, desc) default(desc)
// @Success      200 {object} APIResponse[[]inventoryapp.BatchResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/batches [get]
func (h *BatchHandler) List(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	batches, total, err := h.service.ListBatches(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, batches, total, filter.Page, filter.PageSize)
}

// Export godoc
// @ID           exportBatches
// @Summary      Export the batch ledger
// @Description  Streams the filtered ledger as an Excel workbook
// @Tags         batches
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        product_id query string false "Filter by product" format(uuid)
// @Param        variant_slug query string false "Filter by variant"
// @Param        available_only query boolean false "Only batches with remaining stock"
// @Success      200 {file} file
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/batches/export [get]
func (h *BatchHandler) Export(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	// Buffer so a failure halfway through still yields a JSON error.
	var buf bytes.Buffer
	if err := h.service.ExportBatches(c.Request.Context(), filter, &buf); err != nil {
		h.HandleError(c, err)
		return
	}

	filename := "batches-" + h.now().UTC().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, export.ContentTypeXLSX, buf.Bytes())
}

// Available godoc
// @ID           listAvailableBatches
// @Summary      List batches with stock for a variant
// @Description  Returns batches with remaining stock, oldest first
// @Tags         batches
// @Produce      json
// @Param        product_id query string true "Product ID" format(uuid)
// @Param        variant query string true "Variant slug"
// @Success      200 {object} APIResponse[[]inventoryapp.BatchResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/batches/available [get]
func (h *BatchHandler) Available(c *gin.Context) {
	productID, err := uuid.Parse(c.Query("product_id"))
	if err != nil {
		h.BadRequest(c, "product_id must be a UUID")
		return
	}
	variant := c.Query("variant")
	if variant == "" {
		variant = c.Query("variant_slug")
	}

	batches, err := h.service.GetAvailableBatches(c.Request.Context(), productID, variant)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batches)
}

// GetByID godoc
// @ID           getBatchById
// @Summary      Get a batch by ID
// @Tags         batches
// @Produce      json
// @Param        id path string true "Batch ID" format(uuid)
// @Success      200 {object} APIResponse[inventoryapp.BatchResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/batches/{id} [get]
func (h *BatchHandler) GetByID(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	batch, err := h.service.GetBatch(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batch)
}

// GetByCode godoc
// @ID           getBatchByCode
// @Summary      Get a batch by code
// @Tags         batches
// @Produce      json
// @Param        code path string true "Batch code" example(NHAP20250115-001)
// @Success      200 {object} APIResponse[inventoryapp.BatchResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/batches/code/{code} [get]
func (h *BatchHandler) GetByCode(c *gin.Context) {
	batch, err := h.service.GetBatchByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batch)
}

// Restock godoc
// @ID           restockBatch
// @Summary      Return units to a batch
// @Description  Adds units back to a batch; remaining may not exceed the imported quantity
// @Tags         batches
// @Accept       json
// @Produce      json
// @Param        id path string true "Batch ID" format(uuid)
// @Param        request body inventoryapp.RestockRequest true "Units to return"
// @Success      200 {object} APIResponse[inventoryapp.BatchResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/batches/{id}/restock [post]
func (h *BatchHandler) Restock(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req inventoryapp.RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	batch, err := h.service.Restock(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batch)
}

func (h *BatchHandler) bindFilter(c *gin.Context) (inventoryapp.BatchListFilter, bool) {
	var filter inventoryapp.BatchListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return filter, false
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	return filter, true
}
