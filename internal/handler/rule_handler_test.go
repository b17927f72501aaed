package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"task-board-api/internal/dto"
	"task-board-api/internal/response"
)

func newRuleRouter(mock *MockRuleService) http.Handler {
	h := NewRuleHandler(mock, zap.NewNop())
	router := setupTestRouter()
	router.GET("/api/projects/:projectId/rules", h.ListRules)
	router.POST("/api/projects/:projectId/rules", h.CreateRule)
	router.GET("/api/rules/:ruleId", h.GetRule)
	router.PATCH("/api/rules/:ruleId", h.UpdateRule)
	router.PUT("/api/rules/:ruleId/active", h.ToggleRule)
	router.DELETE("/api/rules/:ruleId", h.DeleteRule)
	return router
}

func TestRuleHandler_CreateRule(t *testing.T) {
	projectID := uuid.New()

	tests := []struct {
		name           string
		body           interface{}
		mockService    func(*MockRuleService)
		expectedStatus int
	}{
		{
			name: "성공: 규칙 생성",
			body: dto.CreateRuleRequest{
				Name:          "Close out reviews",
				Trigger:       "status_change",
				TriggerConfig: json.RawMessage(`{"fromStatus":"any","toStatus":"review"}`),
				Action:        "update_priority",
				ActionConfig:  json.RawMessage(`{"newPriority":"high"}`),
			},
			mockService: func(m *MockRuleService) {
				m.CreateRuleFunc = func(ctx context.Context, pid uuid.UUID, req *dto.CreateRuleRequest) (*dto.RuleResponse, error) {
					return &dto.RuleResponse{RuleID: uuid.New(), ProjectID: pid, Name: req.Name, Trigger: req.Trigger, Action: req.Action}, nil
				}
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "실패: 알 수 없는 트리거",
			body: map[string]string{"name": "x", "trigger": "on_friday", "action": "change_status"},
			mockService:    func(m *MockRuleService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "실패: 설정 검증 실패",
			body: dto.CreateRuleRequest{
				Name:          "Bad config",
				Trigger:       "due_date_approaching",
				TriggerConfig: json.RawMessage(`{"daysRemaining":-3}`),
				Action:        "send_notification",
				ActionConfig:  json.RawMessage(`{"message":"soon"}`),
			},
			mockService: func(m *MockRuleService) {
				m.CreateRuleFunc = func(ctx context.Context, pid uuid.UUID, req *dto.CreateRuleRequest) (*dto.RuleResponse, error) {
					return nil, response.NewValidationError("daysRemaining must not be negative", "")
				}
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockRuleService{}
			tt.mockService(mock)

			w := doRequestHandler(newRuleRouter(mock), http.MethodPost, "/api/projects/"+projectID.String()+"/rules", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
		})
	}
}

func TestRuleHandler_ToggleRule(t *testing.T) {
	ruleID := uuid.New()
	var got *bool
	mock := &MockRuleService{
		ToggleRuleFunc: func(ctx context.Context, id uuid.UUID, active bool) (*dto.RuleResponse, error) {
			got = &active
			return &dto.RuleResponse{RuleID: id, IsActive: active}, nil
		},
	}
	router := newRuleRouter(mock)

	w := doRequestHandler(router, http.MethodPut, "/api/rules/"+ruleID.String()+"/active", map[string]bool{"isActive": false})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got)
	assert.False(t, *got)

	// isActive is required, an empty body must not silently deactivate
	got = nil
	w = doRequestHandler(router, http.MethodPut, "/api/rules/"+ruleID.String()+"/active", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, got)
}

func TestRuleHandler_GetAndDelete(t *testing.T) {
	known := uuid.New()
	mock := &MockRuleService{
		GetRuleFunc: func(ctx context.Context, id uuid.UUID) (*dto.RuleResponse, error) {
			if id != known {
				return nil, response.NewNotFoundError("Rule not found", "")
			}
			return &dto.RuleResponse{RuleID: id}, nil
		},
		DeleteRuleFunc: func(ctx context.Context, id uuid.UUID) error {
			return nil
		},
	}
	router := newRuleRouter(mock)

	w := doRequestHandler(router, http.MethodGet, "/api/rules/"+known.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doRequestHandler(router, http.MethodGet, "/api/rules/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doRequestHandler(router, http.MethodDelete, "/api/rules/"+known.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
