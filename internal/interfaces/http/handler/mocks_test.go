package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	inventoryapp "github.com/shopfront/backend/internal/application/inventory"
	invoiceapp "github.com/shopfront/backend/internal/application/invoice"
	"github.com/shopfront/backend/internal/infrastructure/auth"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
	"github.com/shopfront/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

const testAdminRole = "admin"

// withClaims simulates JWTAuth for a user with roles
func withClaims(userID uuid.UUID, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := &auth.Claims{UserID: userID.String(), Roles: roles}
		c.Set(middleware.JWTClaimsKey, claims)
		c.Set(middleware.JWTUserIDKey, claims.UserID)
		c.Next()
	}
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(body)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// decodeData unmarshals the data field of a success envelope into out
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, out))
}

// MockBatchService is a mock implementation of BatchService
type MockBatchService struct {
	mock.Mock
}

func (m *MockBatchService) CreateBatch(ctx context.Context, req inventoryapp.CreateBatchRequest) (*inventoryapp.BatchResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.BatchResponse), args.Error(1)
}

func (m *MockBatchService) GetAvailableBatches(ctx context.Context, productID uuid.UUID, variantSlug string) ([]inventoryapp.BatchResponse, error) {
	args := m.Called(ctx, productID, variantSlug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventoryapp.BatchResponse), args.Error(1)
}

func (m *MockBatchService) GetBatch(ctx context.Context, id uuid.UUID) (*inventoryapp.BatchResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.BatchResponse), args.Error(1)
}

func (m *MockBatchService) GetBatchByCode(ctx context.Context, code string) (*inventoryapp.BatchResponse, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.BatchResponse), args.Error(1)
}

func (m *MockBatchService) ListBatches(ctx context.Context, filter inventoryapp.BatchListFilter) ([]inventoryapp.BatchResponse, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]inventoryapp.BatchResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockBatchService) Restock(ctx context.Context, id uuid.UUID, req inventoryapp.RestockRequest) (*inventoryapp.BatchResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.BatchResponse), args.Error(1)
}

func (m *MockBatchService) ExportBatches(ctx context.Context, filter inventoryapp.BatchListFilter, w io.Writer) error {
	args := m.Called(ctx, filter, w)
	return args.Error(0)
}

// MockAllocationService is a mock implementation of AllocationService
type MockAllocationService struct {
	mock.Mock
}

func (m *MockAllocationService) Allocate(ctx context.Context, req inventoryapp.AllocateRequest) (*inventoryapp.AllocateResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.AllocateResponse), args.Error(1)
}

func (m *MockAllocationService) AllocateInvoice(ctx context.Context, invoiceID uuid.UUID) (*inventoryapp.AllocateInvoiceResponse, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.AllocateInvoiceResponse), args.Error(1)
}

// MockInvoiceService is a mock implementation of InvoiceService
type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) CreateInvoice(ctx context.Context, req invoiceapp.CreateInvoiceRequest) (*invoiceapp.InvoiceResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoiceapp.InvoiceResponse), args.Error(1)
}

func (m *MockInvoiceService) GetInvoice(ctx context.Context, id uuid.UUID) (*invoiceapp.InvoiceResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoiceapp.InvoiceResponse), args.Error(1)
}

func (m *MockInvoiceService) ListInvoices(ctx context.Context, filter invoiceapp.InvoiceListFilter) ([]invoiceapp.InvoiceResponse, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]invoiceapp.InvoiceResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockInvoiceService) GetStatusHistory(ctx context.Context, id uuid.UUID) ([]invoiceapp.HistoryResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]invoiceapp.HistoryResponse), args.Error(1)
}

func (m *MockInvoiceService) TransitionStatus(ctx context.Context, id uuid.UUID, req invoiceapp.TransitionRequest) (*invoiceapp.InvoiceResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoiceapp.InvoiceResponse), args.Error(1)
}

func (m *MockInvoiceService) ListStatuses(ctx context.Context) []invoiceapp.StatusResponse {
	args := m.Called(ctx)
	return args.Get(0).([]invoiceapp.StatusResponse)
}

var (
	_ BatchService      = (*MockBatchService)(nil)
	_ AllocationService = (*MockAllocationService)(nil)
	_ InvoiceService    = (*MockInvoiceService)(nil)
)
