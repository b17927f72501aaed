package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"task-board-api/internal/dto"
	"task-board-api/internal/response"
	"task-board-api/internal/service"
)

type CommentHandler struct {
	commentService service.CommentService
	logger         *zap.Logger
}

func NewCommentHandler(commentService service.CommentService, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{commentService: commentService, logger: logger}
}

// ListComments godoc
// @Summary      댓글 목록 조회
// @Tags         comments
// @Produce      json
// @Param        taskId path string true "Task ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=[]dto.CommentResponse}
// @Failure      404 {object} response.ErrorResponse "태스크를 찾을 수 없음"
// @Security     BearerAuth
// @Router       /tasks/{taskId}/comments [get]
func (h *CommentHandler) ListComments(c *gin.Context) {
	taskID, ok := pathUUID(c, "taskId", "task")
	if !ok {
		return
	}

	comments, err := h.commentService.ListComments(c.Request.Context(), taskID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, comments)
}

// AddComment godoc
// @Summary      댓글 작성
// @Description  comment_added 규칙이 평가되고 담당자에게 알림이 전송됩니다
// @Tags         comments
// @Accept       json
// @Produce      json
// @Param        taskId path string true "Task ID (UUID)"
// @Param        request body dto.CreateCommentRequest true "댓글 내용"
// @Success      201 {object} response.SuccessResponse{data=dto.CommentMutationResponse}
// @Failure      400 {object} response.ErrorResponse "잘못된 요청"
// @Failure      404 {object} response.ErrorResponse "태스크를 찾을 수 없음"
// @Security     BearerAuth
// @Router       /tasks/{taskId}/comments [post]
func (h *CommentHandler) AddComment(c *gin.Context) {
	taskID, ok := pathUUID(c, "taskId", "task")
	if !ok {
		return
	}
	var req dto.CreateCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.commentService.AddComment(c.Request.Context(), taskID, &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusCreated, result)
}

// UpdateComment godoc
// @Summary      댓글 수정
// @Description  작성자만 수정할 수 있습니다
// @Tags         comments
// @Accept       json
// @Produce      json
// @Param        commentId path string true "Comment ID (UUID)"
// @Param        request body dto.UpdateCommentRequest true "댓글 내용"
// @Success      200 {object} response.SuccessResponse{data=dto.CommentResponse}
// @Failure      403 {object} response.ErrorResponse "권한 없음"
// @Failure      404 {object} response.ErrorResponse "댓글을 찾을 수 없음"
// @Security     BearerAuth
// @Router       /comments/{commentId} [patch]
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	commentID, ok := pathUUID(c, "commentId", "comment")
	if !ok {
		return
	}
	var req dto.UpdateCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.commentService.UpdateComment(c.Request.Context(), commentID, &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, comment)
}

// DeleteComment godoc
// @Summary      댓글 삭제
// @Description  작성자만 삭제할 수 있습니다
// @Tags         comments
// @Produce      json
// @Param        commentId path string true "Comment ID (UUID)"
// @Success      200 {object} response.SuccessResponse
// @Failure      403 {object} response.ErrorResponse "권한 없음"
// @Failure      404 {object} response.ErrorResponse "댓글을 찾을 수 없음"
// @Security     BearerAuth
// @Router       /comments/{commentId} [delete]
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	commentID, ok := pathUUID(c, "commentId", "comment")
	if !ok {
		return
	}

	if err := h.commentService.DeleteComment(c.Request.Context(), commentID); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, nil)
}
