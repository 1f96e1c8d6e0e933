package integration

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	appinventory "github.com/shopfront/backend/internal/application/inventory"
	appinvoice "github.com/shopfront/backend/internal/application/invoice"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/auth"
	"github.com/shopfront/backend/internal/infrastructure/cache"
	"github.com/shopfront/backend/internal/infrastructure/config"
	"github.com/shopfront/backend/internal/infrastructure/export"
	"github.com/shopfront/backend/internal/interfaces/http/handler"
	"github.com/shopfront/backend/internal/interfaces/http/router"
	"github.com/shopfront/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiEnv struct {
	client testutil.APIClient
	tokens *auth.JWTService
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()

	s := newStack(t, NewSQLiteDB(t), nil)
	s.batches.SetExporter(export.NewExcelLedgerExporter())

	cfg := &config.Config{
		App:         config.AppConfig{Name: "shop-integration"},
		HTTP:        config.HTTPConfig{MaxBodySize: 1 << 20},
		Idempotency: config.IdempotencyConfig{Enabled: true, TTL: time.Hour},
		JWT: config.JWTConfig{
			Secret:                "integration-secret-long-enough-for-hs256",
			Issuer:                "shop-integration",
			AccessTokenExpiration: time.Hour,
			AdminRole:             "admin",
		},
	}
	tokens := auth.NewJWTService(cfg.JWT)
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	engine := router.NewEngine(router.Dependencies{
		Config:      cfg,
		Tokens:      tokens,
		AdminRole:   tokens.AdminRole(),
		Idempotency: store,
		Labels:      s.invoices.Labels(),
		System:      handler.NewSystemHandler("shop-integration", "test"),
		Batches:     handler.NewBatchHandler(s.batches),
		Allocations: handler.NewAllocationHandler(s.allocations),
		Invoices:    handler.NewInvoiceHandler(s.invoices, tokens.AdminRole()),
	})
	return &apiEnv{client: testutil.APIClient{Handler: engine}, tokens: tokens}
}

func (e *apiEnv) token(t *testing.T, userID uuid.UUID, roles ...string) string {
	t.Helper()
	token, _, err := e.tokens.GenerateAccessToken(auth.GenerateTokenInput{UserID: userID, Username: "user-" + userID.String()[:8], Roles: roles})
	require.NoError(t, err)
	return token
}

func TestAPI_OrderToDelivery(t *testing.T) {
	env := newAPIEnv(t)
	f := gofakeit.New(21)
	admin := env.client.As(env.token(t, uuid.New(), "admin"))
	customerID := uuid.New()
	customer := env.client.As(env.token(t, customerID, "customer"))
	stranger := env.client.As(env.token(t, uuid.New(), "customer"))

	productID := uuid.New()
	variant := testutil.Variant(f)

	// Stock in
	w := admin.Do(t, http.MethodPost, "/api/v1/admin/batches", testutil.BatchRequest(f, productID, variant, 8))
	batch := testutil.RequireData[appinventory.BatchResponse](t, w, http.StatusCreated)
	assert.Equal(t, 8, batch.RemainingQuantity)

	w = admin.Do(t, http.MethodGet, "/api/v1/admin/batches/code/"+batch.BatchCode, nil)
	byCode := testutil.RequireData[appinventory.BatchResponse](t, w, http.StatusOK)
	assert.Equal(t, batch.ID, byCode.ID)

	// Customer orders; the idempotency key guards against double submits
	order := testutil.InvoiceRequest(f, customerID, productID, variant, 5)
	w = customer.Do(t, http.MethodPost, "/api/v1/invoices", order, "Idempotency-Key", "order-1")
	created := testutil.RequireData[appinvoice.InvoiceResponse](t, w, http.StatusCreated)
	assert.Equal(t, fmt.Sprintf(`"%d"`, created.Version), w.Header().Get("ETag"))

	w = customer.Do(t, http.MethodPost, "/api/v1/invoices", order, "Idempotency-Key", "order-1")
	testutil.AssertErrorResponse(t, w, http.StatusConflict, shared.CodeDuplicateRequest)

	// Ordering on someone else's behalf is refused
	w = stranger.Do(t, http.MethodPost, "/api/v1/invoices", order)
	testutil.AssertErrorResponse(t, w, http.StatusForbidden, "FORBIDDEN")

	// Only the owner sees the invoice
	invoicePath := "/api/v1/invoices/" + created.ID.String()
	w = customer.Do(t, http.MethodGet, invoicePath, nil)
	testutil.RequireData[appinvoice.InvoiceResponse](t, w, http.StatusOK)
	w = stranger.Do(t, http.MethodGet, invoicePath, nil)
	testutil.AssertErrorResponse(t, w, http.StatusNotFound, shared.CodeNotFound)

	// Admin allocates and walks the lifecycle
	adminInvoicePath := "/api/v1/admin/invoices/" + created.ID.String()
	w = admin.Do(t, http.MethodPost, adminInvoicePath+"/allocate", nil)
	alloc := testutil.RequireData[appinventory.AllocateInvoiceResponse](t, w, http.StatusOK)
	require.Len(t, alloc.Lines, 1)
	assert.Equal(t, batch.ID, alloc.Lines[0].BatchID)

	w = admin.Do(t, http.MethodPost, adminInvoicePath+"/transitions", appinvoice.TransitionRequest{Status: "paid"},
		"If-Match", fmt.Sprintf(`"%d"`, created.Version))
	testutil.AssertErrorResponse(t, w, http.StatusConflict, shared.CodeConcurrencyConflict)

	version := alloc.Version
	for _, to := range []string{"paid", "shipped", "delivered"} {
		w = admin.Do(t, http.MethodPost, adminInvoicePath+"/transitions", appinvoice.TransitionRequest{Status: to},
			"If-Match", fmt.Sprintf(`"%d"`, version))
		updated := testutil.RequireData[appinvoice.InvoiceResponse](t, w, http.StatusOK)
		assert.Equal(t, to, updated.Status)
		version = updated.Version
	}

	w = admin.Do(t, http.MethodPost, adminInvoicePath+"/transitions", appinvoice.TransitionRequest{Status: "pending"})
	testutil.AssertErrorResponse(t, w, http.StatusUnprocessableEntity, shared.CodeInvalidTransition)

	w = customer.Do(t, http.MethodGet, invoicePath+"/history", nil)
	history := testutil.RequireData[[]appinvoice.HistoryResponse](t, w, http.StatusOK)
	assert.Len(t, history, 4)

	// Remaining stock and the ledger export
	w = admin.Do(t, http.MethodGet, fmt.Sprintf("/api/v1/admin/batches/available?product_id=%s&variant=%s", productID, variant), nil)
	available := testutil.RequireData[[]appinventory.BatchResponse](t, w, http.StatusOK)
	require.Len(t, available, 1)
	assert.Equal(t, 3, available[0].RemainingQuantity)

	w = admin.Do(t, http.MethodGet, "/api/v1/admin/batches/export", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, export.ContentTypeXLSX, w.Header().Get("Content-Type"))
	assert.NotZero(t, w.Body.Len())
}

func TestAPI_DirectAllocationShortfall(t *testing.T) {
	env := newAPIEnv(t)
	f := gofakeit.New(22)
	admin := env.client.As(env.token(t, uuid.New(), "admin"))
	productID := uuid.New()
	variant := testutil.Variant(f)

	w := admin.Do(t, http.MethodPost, "/api/v1/admin/batches", testutil.BatchRequest(f, productID, variant, 2))
	testutil.RequireData[appinventory.BatchResponse](t, w, http.StatusCreated)

	w = admin.Do(t, http.MethodPost, "/api/v1/admin/allocations", appinventory.AllocateRequest{
		ProductID: productID, VariantSlug: variant, Quantity: 5,
	})
	body := testutil.AssertErrorResponse(t, w, http.StatusUnprocessableEntity, shared.CodeInsufficientStock)
	assert.EqualValues(t, 5, body.Details["requested"])
	assert.EqualValues(t, 2, body.Details["available"])
}

func TestAPI_StatusCatalogIsLocalized(t *testing.T) {
	env := newAPIEnv(t)

	w := env.client.Do(t, http.MethodGet, "/api/v1/invoice-statuses", nil, "Accept-Language", "vi-VN,vi;q=0.9")
	statuses := testutil.RequireData[[]appinvoice.StatusResponse](t, w, http.StatusOK)
	require.Len(t, statuses, 6)
	assert.Equal(t, "pending", statuses[0].Value)
	assert.Equal(t, "vi", w.Header().Get("Content-Language"))
}
