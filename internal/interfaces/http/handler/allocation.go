package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	inventoryapp "github.com/shopfront/backend/internal/application/inventory"
)

// AllocationService draws stock from batches in FIFO order
type AllocationService interface {
	Allocate(ctx context.Context, req inventoryapp.AllocateRequest) (*inventoryapp.AllocateResponse, error)
	AllocateInvoice(ctx context.Context, invoiceID uuid.UUID) (*inventoryapp.AllocateInvoiceResponse, error)
}

// AllocationHandler handles stock allocation endpoints
type AllocationHandler struct {
	BaseHandler
	service AllocationService
}

// NewAllocationHandler creates a new AllocationHandler
func NewAllocationHandler(service AllocationService) *AllocationHandler {
	return &AllocationHandler{service: service}
}

// Allocate godoc
// @ID           allocateStock
// @Summary      Allocate stock for a variant
// @Description  Deducts the quantity from the oldest batches first. Nothing is deducted when stock is short.
// @Tags         allocations
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Replay protection key"
// @Param        request body inventoryapp.AllocateRequest true "Allocation request"
// @Success      200 {object} APIResponse[inventoryapp.AllocateResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse "INSUFFICIENT_STOCK with requested, available and shortfall"
// @Security     BearerAuth
// @Router       /admin/allocations [post]
func (h *AllocationHandler) Allocate(c *gin.Context) {
	var req inventoryapp.AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.service.Allocate(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AllocateInvoice godoc
// @ID           allocateInvoice
// @Summary      Bind invoice lines to batches
// @Description  Allocates every unallocated line of the invoice in one transaction. Lines spanning batches are split.
// @Tags         allocations
// @Produce      json
// @Param        Idempotency-Key header string false "Replay protection key"
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[inventoryapp.AllocateInvoiceResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/invoices/{id}/allocate [post]
func (h *AllocationHandler) AllocateInvoice(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.service.AllocateInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	setETag(c, resp.Version)
	h.Success(c, resp)
}
