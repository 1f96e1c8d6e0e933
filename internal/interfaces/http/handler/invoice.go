package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	invoiceapp "github.com/shopfront/backend/internal/application/invoice"
)

// InvoiceService manages invoices and their status lifecycle
type InvoiceService interface {
	CreateInvoice(ctx context.Context, req invoiceapp.CreateInvoiceRequest) (*invoiceapp.InvoiceResponse, error)
	GetInvoice(ctx context.Context, id uuid.UUID) (*invoiceapp.InvoiceResponse, error)
	ListInvoices(ctx context.Context, filter invoiceapp.InvoiceListFilter) ([]invoiceapp.InvoiceResponse, int64, error)
	GetStatusHistory(ctx context.Context, id uuid.UUID) ([]invoiceapp.HistoryResponse, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, req invoiceapp.TransitionRequest) (*invoiceapp.InvoiceResponse, error)
	ListStatuses(ctx context.Context) []invoiceapp.StatusResponse
}

// InvoiceHandler handles invoice endpoints.
// Customers only see and create their own invoices; admins see all.
type InvoiceHandler struct {
	BaseHandler
	service   InvoiceService
	adminRole string
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(service InvoiceService, adminRole string) *InvoiceHandler {
	return &InvoiceHandler{service: service, adminRole: adminRole}
}

// Create godoc
// @ID           createInvoice
// @Summary      Place an order
// @Description  Creates a pending invoice with its lines and the first history entry
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Replay protection key"
// @Param        request body invoiceapp.CreateInvoiceRequest true "Invoice"
// @Success      201 {object} APIResponse[invoiceapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req invoiceapp.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	if !h.canAccess(c, req.CustomerID) {
		h.Forbidden(c, "Invoices can only be placed for your own account")
		return
	}

	inv, err := h.service.CreateInvoice(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	setETag(c, inv.Version)
	h.Created(c, inv)
}

// GetByID godoc
// @ID           getInvoiceById
// @Summary      Get an invoice
// @Tags         invoices
// @Produce      json
// @Param        Accept-Language header string false "Label language" Enums(en, vi)
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[invoiceapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	inv, err := h.service.GetInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	// Someone else's invoice answers like a missing one.
	if !h.canAccess(c, inv.CustomerID) {
		h.NotFound(c, "invoice "+id.String()+" not found")
		return
	}
	setETag(c, inv.Version)
	h.Success(c, inv)
}

// History godoc
// @ID           getInvoiceHistory
// @Summary      Get the status history of an invoice
// @Description  Returns every status change, oldest first
// @Tags         invoices
// @Produce      json
// @Param        Accept-Language header string false "Label language" Enums(en, vi)
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[[]invoiceapp.HistoryResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id}/history [get]
func (h *InvoiceHandler) History(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if !isAdmin(c, h.adminRole) {
		inv, err := h.service.GetInvoice(ctx, id)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		if !h.canAccess(c, inv.CustomerID) {
			h.NotFound(c, "invoice "+id.String()+" not found")
			return
		}
	}

	history, err := h.service.GetStatusHistory(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, history)
}

// List godoc
// @ID           listInvoices
// @Summary      List invoices
// @Tags         invoices
// @Produce      json
// @Param        status query string false "Filter by status" Enums(pending, paid, shipped, delivered, cancelled, payment_failed)
// @Param        customer_id query string false "Filter by customer" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Order by field" default(created_at)
// @Param        order_dir query string false "Order direction" Enums(asc, desc) default(desc)
// @Success      200 {object} APIResponse[[]invoiceapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	var filter invoiceapp.InvoiceListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	invoices, total, err := h.service.ListInvoices(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, invoices, total, filter.Page, filter.PageSize)
}

// Transition godoc
// @ID           transitionInvoice
// @Summary      Change the status of an invoice
// @Description  Applies one transition from the lifecycle table and appends a history entry.
// @Description  If-Match (or expected_version) guards against concurrent edits.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        If-Match header string false "Expected invoice version, e.g. \"3\""
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body invoiceapp.TransitionRequest true "Target status"
// @Success      200 {object} APIResponse[invoiceapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse "INVALID_TRANSITION with from and to"
// @Security     BearerAuth
// @Router       /admin/invoices/{id}/transitions [post]
func (h *InvoiceHandler) Transition(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req invoiceapp.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	ifMatch, err := parseIfMatch(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if ifMatch != nil {
		req.ExpectedVersion = ifMatch
	}

	inv, err := h.service.TransitionStatus(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	setETag(c, inv.Version)
	h.Success(c, inv)
}

// Statuses godoc
// @ID           listInvoiceStatuses
// @Summary      List invoice statuses
// @Description  Labels, badges and allowed transitions for every status
// @Tags         invoices
// @Produce      json
// @Param        Accept-Language header string false "Label language" Enums(en, vi)
// @Success      200 {object} APIResponse[[]invoiceapp.StatusResponse]
// @Router       /invoice-statuses [get]
func (h *InvoiceHandler) Statuses(c *gin.Context) {
	h.Success(c, h.service.ListStatuses(c.Request.Context()))
}

// canAccess reports whether the caller may act on customerID's invoices
func (h *InvoiceHandler) canAccess(c *gin.Context, customerID uuid.UUID) bool {
	if isAdmin(c, h.adminRole) {
		return true
	}
	userID, err := getUserID(c)
	return err == nil && userID == customerID
}
