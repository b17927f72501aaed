package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"task-board-api/internal/domain"
	"task-board-api/internal/dto"
	"task-board-api/internal/response"
	"task-board-api/internal/service"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 200
)

type TaskHandler struct {
	taskService service.TaskService
	logger      *zap.Logger
}

func NewTaskHandler(taskService service.TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{taskService: taskService, logger: logger}
}

// ListTasks godoc
// @Summary      태스크 목록 조회
// @Description  groupId에 "ungrouped"를 주면 미분류 태스크만 조회합니다
// @Tags         tasks
// @Produce      json
// @Param        projectId path string true "Project ID (UUID)"
// @Param        status query string false "Status filter"
// @Param        assigneeId query string false "Assignee filter (UUID)"
// @Param        groupId query string false "Group filter (UUID or ungrouped)"
// @Success      200 {object} response.SuccessResponse{data=[]dto.TaskResponse}
// @Failure      400 {object} response.ErrorResponse "잘못된 필터"
// @Failure      404 {object} response.ErrorResponse "Project를 찾을 수 없음"
// @Security     BearerAuth
// @Router       /projects/{projectId}/tasks [get]
func (h *TaskHandler) ListTasks(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectId", "project")
	if !ok {
		return
	}
	var filters dto.TaskFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid query parameters: "+err.Error())
		return
	}

	tasks, err := h.taskService.ListTasks(c.Request.Context(), projectID, &filters)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, tasks)
}

// CreateTask godoc
// @Summary      태스크 생성
// @Description  groupId가 없으면 미분류로 생성됩니다. 자동화 규칙 실행 결과가 automation에 담깁니다
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        projectId path string true "Project ID (UUID)"
// @Param        request body dto.CreateTaskRequest true "태스크 생성 요청"
// @Success      201 {object} response.SuccessResponse{data=dto.TaskMutationResponse}
// @Failure      400 {object} response.ErrorResponse "잘못된 요청"
// @Failure      404 {object} response.ErrorResponse "Project 또는 그룹을 찾을 수 없음"
// @Security     BearerAuth
// @Router       /projects/{projectId}/tasks [post]
func (h *TaskHandler) CreateTask(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectId", "project")
	if !ok {
		return
	}
	var req dto.CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.taskService.CreateTask(c.Request.Context(), projectID, &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusCreated, result)
}

// GetTask godoc
// @Summary      태스크 조회
// @Tags         tasks
// @Produce      json
// @Param        taskId path string true "Task ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=dto.TaskResponse}
// @Failure      404 {object} response.ErrorResponse "태스크를 찾을 수 없음"
// @Security     BearerAuth
// @Router       /tasks/{taskId} [get]
func (h *TaskHandler) GetTask(c *gin.Context) {
	taskID, ok := pathUUID(c, "taskId", "task")
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(c.Request.Context(), taskID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, task)
}

// UpdateTask godoc
// @Summary      태스크 수정
// @Description  바뀐 필드마다 변경 이벤트가 발생하고 자동화 규칙이 한 번에 평가됩니다
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        taskId path string true "Task ID (UUID)"
// @Param        request body dto.UpdateTaskRequest true "태스크 수정 요청"
// @Success      200 {object} response.SuccessResponse{data=dto.TaskMutationResponse}
// @Failure      400 {object} response.ErrorResponse "잘못된 요청"
// @Failure      404 {object} response.ErrorResponse "태스크를 찾을 수 없음"
// @Security     BearerAuth
// @Router       /tasks/{taskId} [patch]
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	taskID, ok := pathUUID(c, "taskId", "task")
	if !ok {
		return
	}
	var req dto.UpdateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.taskService.UpdateTask(c.Request.Context(), taskID, &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, result)
}

// DeleteTask godoc
// @Summary      태스크 삭제
// @Description  태스크와 값, 댓글, 첨부파일을 삭제하고 그룹의 position을 정리합니다. 하위 태스크는 최상위로 분리됩니다
// @Tags         tasks
// @Produce      json
// @Param        taskId path string true "Task ID (UUID)"
// @Success      200 {object} response.SuccessResponse
// @Failure      404 {object} response.ErrorResponse "태스크를 찾을 수 없음"
// @Security     BearerAuth
// @Router       /tasks/{taskId} [delete]
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	taskID, ok := pathUUID(c, "taskId", "task")
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), taskID); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, nil)
}

// UpdateStatus godoc
// @Summary      태스크 상태 변경
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        taskId path string true "Task ID (UUID)"
// @Param        request body dto.UpdateStatusRequest true "새 상태"
// @Success      200 {object} response.SuccessResponse{data=dto.TaskMutationResponse}
// @Failure      400 {object} response.ErrorResponse "잘못된 요청"
// @Failure      404 {object} response.ErrorResponse "태스크를 찾을 수 없음"
// @Security     BearerAuth
// @Router       /tasks/{taskId}/status [put]
func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	taskID, ok := pathUUID(c, "taskId", "task")
	if !ok {
		return
	}
	var req dto.UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.taskService.UpdateStatus(c.Request.Context(), taskID, domain.TaskStatus(req.Status))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, result)
}

// UpdatePriority godoc
// @Summary      태스크 우선순위 변경
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        taskId path string true "Task ID (UUID)"
// @Param        request body dto.UpdatePriorityRequest true "새 우선순위"
// @Success      200 {object} response.SuccessResponse{data=dto.TaskMutationResponse}
// @Failure      400 {object} response.ErrorResponse "잘못된 요청"
// @Failure      404 {object} response.ErrorResponse "태스크를 찾을 수 없음"
// @Security     BearerAuth
// @Router       /tasks/{taskId}/priority [put]
func (h *TaskHandler) UpdatePriority(c *gin.Context) {
	taskID, ok := pathUUID(c, "taskId", "task")
	if !ok {
		return
	}
	var req dto.UpdatePriorityRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.taskService.UpdatePriority(c.Request.Context(), taskID, domain.TaskPriority(req.Priority))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, result)
}

// UpdateProgress godoc
// @Summary      태스크 진행률 변경
// @Description  0~100 범위를 벗어난 값은 잘립니다
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        taskId path string true "Task ID (UUID)"
// @Param        request body dto.UpdateProgressRequest true "새 진행률"
// @Success      200 {object} response.SuccessResponse{data=dto.TaskMutationResponse}
// @Failure      400 {object} response.ErrorResponse "잘못된 요청"
// @Failure      404 {object} response.ErrorResponse "태스크를 찾을 수 없음"
// @Security     BearerAuth
// @Router       /tasks/{taskId}/progress [put]
func (h *TaskHandler) UpdateProgress(c *gin.Context) {
	taskID, ok := pathUUID(c, "taskId", "task")
	if !ok {
		return
	}
	var req dto.UpdateProgressRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.taskService.UpdateProgress(c.Request.Context(), taskID, *req.Progress)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, result)
}

// AssignTask godoc
// @Summary      담당자 지정
// @Description  assigneeId가 null이면 담당자를 해제합니다
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        taskId path string true "Task ID (UUID)"
// @Param        request body dto.AssignTaskRequest true "담당자"
// @Success      200 {object} response.SuccessResponse{data=dto.TaskMutationResponse}
// @Failure      404 {object} response.ErrorResponse "태스크를 찾을 수 없음"
// @Security     BearerAuth
// @Router       /tasks/{taskId}/assignee [put]
func (h *TaskHandler) AssignTask(c *gin.Context) {
	taskID, ok := pathUUID(c, "taskId", "task")
	if !ok {
		return
	}
	var req dto.AssignTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.taskService.AssignTask(c.Request.Context(), taskID, req.AssigneeID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, result)
}

// UpdateDueDate godoc
// @Summary      마감일 변경
// @Description  dueDate가 null이면 마감일을 지웁니다
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        taskId path string true "Task ID (UUID)"
// @Param        request body dto.UpdateDueDateRequest true "마감일"
// @Success      200 {object} response.SuccessResponse{data=dto.TaskMutationResponse}
// @Failure      404 {object} response.ErrorResponse "태스크를 찾을 수 없음"
// @Security     BearerAuth
// @Router       /tasks/{taskId}/due-date [put]
func (h *TaskHandler) UpdateDueDate(c *gin.Context) {
	taskID, ok := pathUUID(c, "taskId", "task")
	if !ok {
		return
	}
	var req dto.UpdateDueDateRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.taskService.UpdateDueDate(c.Request.Context(), taskID, req.DueDate)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, result)
}

// MoveTask godoc
// @Summary      태스크 이동
// @Description  같은 그룹 안에서 순서를 바꾸거나 다른 그룹(null이면 미분류)으로 옮깁니다
// @Description  position이 대상 그룹의 길이보다 크면 맨 뒤로 옮겨집니다. 응답에 정리된 그룹 순서가 포함됩니다
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        taskId path string true "Task ID (UUID)"
// @Param        request body dto.MoveTaskRequest true "이동 위치"
// @Success      200 {object} response.SuccessResponse{data=dto.MoveTaskResponse}
// @Failure      400 {object} response.ErrorResponse "INVALID_POSITION"
// @Failure      404 {object} response.ErrorResponse "태스크 또는 그룹을 찾을 수 없음"
// @Failure      409 {object} response.ErrorResponse "동시 수정 충돌"
// @Security     BearerAuth
// @Router       /tasks/{taskId}/move [put]
func (h *TaskHandler) MoveTask(c *gin.Context) {
	taskID, ok := pathUUID(c, "taskId", "task")
	if !ok {
		return
	}
	var req dto.MoveTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.taskService.MoveTask(c.Request.Context(), taskID, &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, result)
}

// SetColumnValue godoc
// @Summary      컬럼 값 설정
// @Description  값은 컬럼 타입에 맞아야 합니다. 맞지 않으면 TYPE_MISMATCH이고 기존 값은 유지됩니다
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        taskId path string true "Task ID (UUID)"
// @Param        columnId path string true "Column ID (UUID)"
// @Param        request body dto.SetColumnValueRequest true "값"
// @Success      200 {object} response.SuccessResponse{data=dto.ColumnValueResponse}
// @Failure      400 {object} response.ErrorResponse "TYPE_MISMATCH"
// @Failure      404 {object} response.ErrorResponse "태스크 또는 컬럼을 찾을 수 없음"
// @Security     BearerAuth
// @Router       /tasks/{taskId}/values/{columnId} [put]
func (h *TaskHandler) SetColumnValue(c *gin.Context) {
	taskID, ok := pathUUID(c, "taskId", "task")
	if !ok {
		return
	}
	columnID, ok := pathUUID(c, "columnId", "column")
	if !ok {
		return
	}
	var req dto.SetColumnValueRequest
	if !bindJSON(c, &req) {
		return
	}

	value, err := h.taskService.SetColumnValue(c.Request.Context(), taskID, columnID, req.Value)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, value)
}

// ClearColumnValue godoc
// @Summary      컬럼 값 삭제
// @Tags         tasks
// @Produce      json
// @Param        taskId path string true "Task ID (UUID)"
// @Param        columnId path string true "Column ID (UUID)"
// @Success      200 {object} response.SuccessResponse
// @Failure      404 {object} response.ErrorResponse "태스크 또는 컬럼을 찾을 수 없음"
// @Security     BearerAuth
// @Router       /tasks/{taskId}/values/{columnId} [delete]
func (h *TaskHandler) ClearColumnValue(c *gin.Context) {
	taskID, ok := pathUUID(c, "taskId", "task")
	if !ok {
		return
	}
	columnID, ok := pathUUID(c, "columnId", "column")
	if !ok {
		return
	}

	if err := h.taskService.ClearColumnValue(c.Request.Context(), taskID, columnID); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, nil)
}

// GetActivity godoc
// @Summary      태스크 활동 기록 조회
// @Description  최신순으로 사용자, 규칙, 시스템이 만든 변경 기록을 조회합니다
// @Tags         tasks
// @Produce      json
// @Param        taskId path string true "Task ID (UUID)"
// @Param        limit query int false "최대 개수 (기본 50, 최대 200)"
// @Success      200 {object} response.SuccessResponse{data=[]dto.ActivityResponse}
// @Failure      404 {object} response.ErrorResponse "태스크를 찾을 수 없음"
// @Security     BearerAuth
// @Router       /tasks/{taskId}/activity [get]
func (h *TaskHandler) GetActivity(c *gin.Context) {
	taskID, ok := pathUUID(c, "taskId", "task")
	if !ok {
		return
	}

	limit := defaultActivityLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	activity, err := h.taskService.GetActivity(c.Request.Context(), taskID, limit)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, activity)
}
