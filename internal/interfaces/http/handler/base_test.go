package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", shared.NewValidationError("bad"), http.StatusBadRequest, shared.CodeValidation},
		{"not found", shared.NewNotFoundError("invoice", "x"), http.StatusNotFound, shared.CodeNotFound},
		{"wrapped conflict", fmt.Errorf("save: %w", shared.ErrConcurrencyConflict), http.StatusConflict, shared.CodeConcurrencyConflict},
		{"lock wait cancelled", &shared.DomainError{Code: shared.CodeConcurrencyConflict, Message: "gave up waiting", Cause: context.Canceled}, http.StatusConflict, shared.CodeConcurrencyConflict},
		{"insufficient stock", shared.NewInsufficientStockError("p", "v", 5, 2), http.StatusUnprocessableEntity, shared.CodeInsufficientStock},
		{"storage", shared.NewStorageError("find", errors.New("boom")), http.StatusInternalServerError, dto.ErrCodeInternal},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Set("request_id", "req-9")

			h := &BaseHandler{}
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, "req-9", resp.Error.RequestID)
		})
	}
}

func TestBaseHandler_HandleError_Nil(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	(&BaseHandler{}).HandleError(c, nil)
	assert.Empty(t, w.Body.String())
}
