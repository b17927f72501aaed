package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"task-board-api/internal/dto"
	"task-board-api/internal/response"
	"task-board-api/internal/service"
)

type ColumnHandler struct {
	columnService service.ColumnService
	logger        *zap.Logger
}

func NewColumnHandler(columnService service.ColumnService, logger *zap.Logger) *ColumnHandler {
	return &ColumnHandler{columnService: columnService, logger: logger}
}

// ListColumns godoc
// @Summary      컬럼 목록 조회
// @Description  프로젝트의 컬럼 정의를 position 순서로 조회합니다
// @Tags         columns
// @Produce      json
// @Param        projectId path string true "Project ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=[]dto.ColumnResponse}
// @Failure      404 {object} response.ErrorResponse "Project를 찾을 수 없음"
// @Security     BearerAuth
// @Router       /projects/{projectId}/columns [get]
func (h *ColumnHandler) ListColumns(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectId", "project")
	if !ok {
		return
	}

	columns, err := h.columnService.ListColumns(c.Request.Context(), projectID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, columns)
}

// DefineColumn godoc
// @Summary      컬럼 정의
// @Description  새 컬럼을 추가합니다. position이 없거나 범위를 넘으면 맨 뒤에 추가됩니다
// @Tags         columns
// @Accept       json
// @Produce      json
// @Param        projectId path string true "Project ID (UUID)"
// @Param        request body dto.CreateColumnRequest true "컬럼 정의 요청"
// @Success      201 {object} response.SuccessResponse{data=dto.ColumnResponse}
// @Failure      400 {object} response.ErrorResponse "잘못된 요청"
// @Failure      404 {object} response.ErrorResponse "Project를 찾을 수 없음"
// @Security     BearerAuth
// @Router       /projects/{projectId}/columns [post]
func (h *ColumnHandler) DefineColumn(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectId", "project")
	if !ok {
		return
	}
	var req dto.CreateColumnRequest
	if !bindJSON(c, &req) {
		return
	}

	column, err := h.columnService.DefineColumn(c.Request.Context(), projectID, &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusCreated, column)
}

// UpdateColumn godoc
// @Summary      컬럼 수정
// @Description  이름, 너비, 표시 여부, 필수 여부, settings를 수정합니다. 컬럼 타입은 바꿀 수 없습니다
// @Tags         columns
// @Accept       json
// @Produce      json
// @Param        columnId path string true "Column ID (UUID)"
// @Param        request body dto.UpdateColumnRequest true "컬럼 수정 요청"
// @Success      200 {object} response.SuccessResponse{data=dto.ColumnResponse}
// @Failure      400 {object} response.ErrorResponse "잘못된 요청"
// @Failure      404 {object} response.ErrorResponse "컬럼을 찾을 수 없음"
// @Security     BearerAuth
// @Router       /columns/{columnId} [patch]
func (h *ColumnHandler) UpdateColumn(c *gin.Context) {
	columnID, ok := pathUUID(c, "columnId", "column")
	if !ok {
		return
	}
	var req dto.UpdateColumnRequest
	if !bindJSON(c, &req) {
		return
	}

	column, err := h.columnService.UpdateColumn(c.Request.Context(), columnID, &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, column)
}

// ReorderColumn godoc
// @Summary      컬럼 순서 변경
// @Description  컬럼을 새 position으로 옮기고 정리된 전체 컬럼 순서를 반환합니다
// @Tags         columns
// @Accept       json
// @Produce      json
// @Param        columnId path string true "Column ID (UUID)"
// @Param        request body dto.ReorderRequest true "새 position"
// @Success      200 {object} response.SuccessResponse{data=[]dto.ColumnResponse}
// @Failure      400 {object} response.ErrorResponse "INVALID_POSITION"
// @Failure      404 {object} response.ErrorResponse "컬럼을 찾을 수 없음"
// @Failure      409 {object} response.ErrorResponse "동시 수정 충돌"
// @Security     BearerAuth
// @Router       /columns/{columnId}/position [put]
func (h *ColumnHandler) ReorderColumn(c *gin.Context) {
	columnID, ok := pathUUID(c, "columnId", "column")
	if !ok {
		return
	}
	var req dto.ReorderRequest
	if !bindJSON(c, &req) {
		return
	}

	columns, err := h.columnService.ReorderColumn(c.Request.Context(), columnID, *req.Position)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, columns)
}

// DeleteColumn godoc
// @Summary      컬럼 삭제
// @Description  컬럼과 모든 태스크의 해당 값을 삭제하고 남은 컬럼 position을 정리합니다
// @Tags         columns
// @Produce      json
// @Param        columnId path string true "Column ID (UUID)"
// @Success      200 {object} response.SuccessResponse
// @Failure      404 {object} response.ErrorResponse "컬럼을 찾을 수 없음"
// @Security     BearerAuth
// @Router       /columns/{columnId} [delete]
func (h *ColumnHandler) DeleteColumn(c *gin.Context) {
	columnID, ok := pathUUID(c, "columnId", "column")
	if !ok {
		return
	}

	if err := h.columnService.DeleteColumn(c.Request.Context(), columnID); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, nil)
}
