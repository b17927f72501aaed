package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"task-board-api/internal/domain"
	"task-board-api/internal/dto"
	"task-board-api/internal/middleware"
	"task-board-api/internal/response"
	"task-board-api/internal/service"
)

var testUserID = uuid.MustParse("b2c3d4e5-f6a7-8901-bcde-f12345678901")

// setupTestRouter returns a router whose requests are already authenticated as testUserID
func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		middleware.SetUser(c, testUserID, "test-token")
		c.Next()
	})
	return router
}

func doRequestHandler(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewBuffer(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// decodeData unmarshals the data field of a success envelope into out
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var resp response.SuccessResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	raw, _ := json.Marshal(resp.Data)
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("Failed to unmarshal data: %v", err)
	}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) response.ErrorDetail {
	t.Helper()
	var resp response.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal error response: %v", err)
	}
	return resp.Error
}

// MockTaskService overrides only the methods a test sets. Calling anything else panics
// through the nil embedded interface.
type MockTaskService struct {
	service.TaskService

	ListTasksFunc      func(ctx context.Context, projectID uuid.UUID, filters *dto.TaskFilters) ([]*dto.TaskResponse, error)
	CreateTaskFunc     func(ctx context.Context, projectID uuid.UUID, req *dto.CreateTaskRequest) (*dto.TaskMutationResponse, error)
	UpdateStatusFunc   func(ctx context.Context, taskID uuid.UUID, status domain.TaskStatus) (*dto.TaskMutationResponse, error)
	UpdateProgressFunc func(ctx context.Context, taskID uuid.UUID, progress int) (*dto.TaskMutationResponse, error)
	UpdateDueDateFunc  func(ctx context.Context, taskID uuid.UUID, dueDate *time.Time) (*dto.TaskMutationResponse, error)
	MoveTaskFunc       func(ctx context.Context, taskID uuid.UUID, req *dto.MoveTaskRequest) (*dto.MoveTaskResponse, error)
	SetColumnValueFunc func(ctx context.Context, taskID, columnID uuid.UUID, value json.RawMessage) (*dto.ColumnValueResponse, error)
	GetActivityFunc    func(ctx context.Context, taskID uuid.UUID, limit int) ([]dto.ActivityResponse, error)
	DeleteTaskFunc     func(ctx context.Context, taskID uuid.UUID) error
}

func (m *MockTaskService) ListTasks(ctx context.Context, projectID uuid.UUID, filters *dto.TaskFilters) ([]*dto.TaskResponse, error) {
	return m.ListTasksFunc(ctx, projectID, filters)
}

func (m *MockTaskService) CreateTask(ctx context.Context, projectID uuid.UUID, req *dto.CreateTaskRequest) (*dto.TaskMutationResponse, error) {
	return m.CreateTaskFunc(ctx, projectID, req)
}

func (m *MockTaskService) UpdateStatus(ctx context.Context, taskID uuid.UUID, status domain.TaskStatus) (*dto.TaskMutationResponse, error) {
	return m.UpdateStatusFunc(ctx, taskID, status)
}

func (m *MockTaskService) UpdateProgress(ctx context.Context, taskID uuid.UUID, progress int) (*dto.TaskMutationResponse, error) {
	return m.UpdateProgressFunc(ctx, taskID, progress)
}

func (m *MockTaskService) UpdateDueDate(ctx context.Context, taskID uuid.UUID, dueDate *time.Time) (*dto.TaskMutationResponse, error) {
	return m.UpdateDueDateFunc(ctx, taskID, dueDate)
}

func (m *MockTaskService) MoveTask(ctx context.Context, taskID uuid.UUID, req *dto.MoveTaskRequest) (*dto.MoveTaskResponse, error) {
	return m.MoveTaskFunc(ctx, taskID, req)
}

func (m *MockTaskService) SetColumnValue(ctx context.Context, taskID, columnID uuid.UUID, value json.RawMessage) (*dto.ColumnValueResponse, error) {
	return m.SetColumnValueFunc(ctx, taskID, columnID, value)
}

func (m *MockTaskService) GetActivity(ctx context.Context, taskID uuid.UUID, limit int) ([]dto.ActivityResponse, error) {
	return m.GetActivityFunc(ctx, taskID, limit)
}

func (m *MockTaskService) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	return m.DeleteTaskFunc(ctx, taskID)
}

// MockRuleService is a mock implementation of RuleService
type MockRuleService struct {
	CreateRuleFunc func(ctx context.Context, projectID uuid.UUID, req *dto.CreateRuleRequest) (*dto.RuleResponse, error)
	ListRulesFunc  func(ctx context.Context, projectID uuid.UUID) ([]*dto.RuleResponse, error)
	GetRuleFunc    func(ctx context.Context, ruleID uuid.UUID) (*dto.RuleResponse, error)
	UpdateRuleFunc func(ctx context.Context, ruleID uuid.UUID, req *dto.UpdateRuleRequest) (*dto.RuleResponse, error)
	ToggleRuleFunc func(ctx context.Context, ruleID uuid.UUID, active bool) (*dto.RuleResponse, error)
	DeleteRuleFunc func(ctx context.Context, ruleID uuid.UUID) error
}

func (m *MockRuleService) CreateRule(ctx context.Context, projectID uuid.UUID, req *dto.CreateRuleRequest) (*dto.RuleResponse, error) {
	if m.CreateRuleFunc != nil {
		return m.CreateRuleFunc(ctx, projectID, req)
	}
	return nil, nil
}

func (m *MockRuleService) ListRules(ctx context.Context, projectID uuid.UUID) ([]*dto.RuleResponse, error) {
	if m.ListRulesFunc != nil {
		return m.ListRulesFunc(ctx, projectID)
	}
	return nil, nil
}

func (m *MockRuleService) GetRule(ctx context.Context, ruleID uuid.UUID) (*dto.RuleResponse, error) {
	if m.GetRuleFunc != nil {
		return m.GetRuleFunc(ctx, ruleID)
	}
	return nil, nil
}

func (m *MockRuleService) UpdateRule(ctx context.Context, ruleID uuid.UUID, req *dto.UpdateRuleRequest) (*dto.RuleResponse, error) {
	if m.UpdateRuleFunc != nil {
		return m.UpdateRuleFunc(ctx, ruleID, req)
	}
	return nil, nil
}

func (m *MockRuleService) ToggleRule(ctx context.Context, ruleID uuid.UUID, active bool) (*dto.RuleResponse, error) {
	if m.ToggleRuleFunc != nil {
		return m.ToggleRuleFunc(ctx, ruleID, active)
	}
	return nil, nil
}

func (m *MockRuleService) DeleteRule(ctx context.Context, ruleID uuid.UUID) error {
	if m.DeleteRuleFunc != nil {
		return m.DeleteRuleFunc(ctx, ruleID)
	}
	return nil
}

// MockBoardService is a mock implementation of BoardService
type MockBoardService struct {
	GetBoardFunc func(ctx context.Context, projectID uuid.UUID) (*dto.BoardResponse, error)
}

func (m *MockBoardService) GetBoard(ctx context.Context, projectID uuid.UUID) (*dto.BoardResponse, error) {
	return m.GetBoardFunc(ctx, projectID)
}

// MockProjectService is a mock implementation of ProjectService
type MockProjectService struct {
	CreateProjectFunc func(ctx context.Context, req *dto.CreateProjectRequest) (*dto.ProjectResponse, error)
	GetProjectFunc    func(ctx context.Context, projectID uuid.UUID) (*dto.ProjectResponse, error)
	ListProjectsFunc  func(ctx context.Context, workspaceID uuid.UUID) ([]*dto.ProjectResponse, error)
	DeleteProjectFunc func(ctx context.Context, projectID uuid.UUID) error
}

func (m *MockProjectService) CreateProject(ctx context.Context, req *dto.CreateProjectRequest) (*dto.ProjectResponse, error) {
	if m.CreateProjectFunc != nil {
		return m.CreateProjectFunc(ctx, req)
	}
	return nil, nil
}

func (m *MockProjectService) GetProject(ctx context.Context, projectID uuid.UUID) (*dto.ProjectResponse, error) {
	if m.GetProjectFunc != nil {
		return m.GetProjectFunc(ctx, projectID)
	}
	return &dto.ProjectResponse{ID: projectID}, nil
}

func (m *MockProjectService) ListProjects(ctx context.Context, workspaceID uuid.UUID) ([]*dto.ProjectResponse, error) {
	if m.ListProjectsFunc != nil {
		return m.ListProjectsFunc(ctx, workspaceID)
	}
	return nil, nil
}

func (m *MockProjectService) DeleteProject(ctx context.Context, projectID uuid.UUID) error {
	if m.DeleteProjectFunc != nil {
		return m.DeleteProjectFunc(ctx, projectID)
	}
	return nil
}

// MockGroupService is a mock implementation of GroupService
type MockGroupService struct {
	service.GroupService

	DeleteGroupFunc  func(ctx context.Context, groupID uuid.UUID, req *dto.DeleteGroupRequest) (*dto.DeleteGroupResponse, error)
	ReorderGroupFunc func(ctx context.Context, groupID uuid.UUID, position int) ([]*dto.GroupResponse, error)
}

func (m *MockGroupService) DeleteGroup(ctx context.Context, groupID uuid.UUID, req *dto.DeleteGroupRequest) (*dto.DeleteGroupResponse, error) {
	return m.DeleteGroupFunc(ctx, groupID, req)
}

func (m *MockGroupService) ReorderGroup(ctx context.Context, groupID uuid.UUID, position int) ([]*dto.GroupResponse, error) {
	return m.ReorderGroupFunc(ctx, groupID, position)
}
