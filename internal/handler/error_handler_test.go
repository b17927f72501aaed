package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"task-board-api/internal/response"
)

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		errorCode    string
		logged       bool
	}{
		{"validation", response.NewValidationError("bad", ""), http.StatusBadRequest, response.ErrCodeValidation, false},
		{"type mismatch", response.NewTypeMismatchError("bad", ""), http.StatusBadRequest, response.ErrCodeTypeMismatch, false},
		{"invalid position", response.NewInvalidPositionError("bad", ""), http.StatusBadRequest, response.ErrCodeInvalidPosition, false},
		{"not found", response.NewNotFoundError("missing", ""), http.StatusNotFound, response.ErrCodeNotFound, false},
		{"conflict", response.NewConflictError("race", ""), http.StatusConflict, response.ErrCodeConflict, false},
		{"cycle", response.NewAppError(response.ErrCodeCycleDetected, "cycle", ""), http.StatusConflict, response.ErrCodeCycleDetected, false},
		{"action failed", response.NewAppError(response.ErrCodeActionFailed, "rule", ""), http.StatusUnprocessableEntity, response.ErrCodeActionFailed, false},
		{"forbidden", response.NewForbiddenError("nope", ""), http.StatusForbidden, response.ErrCodeForbidden, false},
		{"internal", response.NewInternalError("boom", "db down"), http.StatusInternalServerError, response.ErrCodeInternal, true},
		{"wrapped not found", fmt.Errorf("load: %w", gorm.ErrRecordNotFound), http.StatusNotFound, response.ErrCodeNotFound, false},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, response.ErrCodeInternal, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.ErrorLevel)
			logger := zap.New(core)

			router := setupTestRouter()
			router.GET("/fail", func(c *gin.Context) { handleServiceError(c, logger, tt.err) })

			w := doRequestHandler(router, http.MethodGet, "/fail", nil)

			assert.Equal(t, tt.expectedCode, w.Code)
			assert.Equal(t, tt.errorCode, decodeError(t, w).Code)
			assert.Equal(t, tt.logged, logs.Len() > 0)
		})
	}
}
