package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"task-board-api/internal/response"
	"task-board-api/internal/service"
)

type BoardHandler struct {
	boardService service.BoardService
	logger       *zap.Logger
}

func NewBoardHandler(boardService service.BoardService, logger *zap.Logger) *BoardHandler {
	return &BoardHandler{boardService: boardService, logger: logger}
}

// GetBoard godoc
// @Summary      보드 조회
// @Description  컬럼, 그룹(미분류는 마지막), 그룹별 태스크와 컬럼 값을 한 번에 반환합니다
// @Description  같은 상태에 대해 항상 같은 결과를 반환합니다
// @Tags         board
// @Produce      json
// @Param        projectId path string true "Project ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=dto.BoardResponse}
// @Failure      404 {object} response.ErrorResponse "Project를 찾을 수 없음"
// @Security     BearerAuth
// @Router       /projects/{projectId}/board [get]
func (h *BoardHandler) GetBoard(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectId", "project")
	if !ok {
		return
	}

	board, err := h.boardService.GetBoard(c.Request.Context(), projectID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, board)
}
