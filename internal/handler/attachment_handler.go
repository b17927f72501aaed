package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"task-board-api/internal/dto"
	"task-board-api/internal/response"
	"task-board-api/internal/service"
)

type AttachmentHandler struct {
	attachmentService service.AttachmentService
	logger            *zap.Logger
}

func NewAttachmentHandler(attachmentService service.AttachmentService, logger *zap.Logger) *AttachmentHandler {
	return &AttachmentHandler{attachmentService: attachmentService, logger: logger}
}

// GeneratePresignedURL godoc
// @Summary      업로드 URL 발급
// @Description  S3 presigned PUT URL을 발급하고 TEMP 상태의 첨부파일을 만듭니다
// @Description  확인되지 않은 TEMP 첨부파일은 만료 후 정리 작업이 삭제합니다
// @Tags         attachments
// @Accept       json
// @Produce      json
// @Param        request body dto.PresignedURLRequest true "파일 정보"
// @Success      200 {object} response.SuccessResponse{data=dto.PresignedURLResponse}
// @Failure      400 {object} response.ErrorResponse "잘못된 요청"
// @Failure      404 {object} response.ErrorResponse "Project를 찾을 수 없음"
// @Security     BearerAuth
// @Router       /attachments/presigned-url [post]
func (h *AttachmentHandler) GeneratePresignedURL(c *gin.Context) {
	var req dto.PresignedURLRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.attachmentService.GeneratePresignedURL(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, result)
}

// ConfirmAttachments godoc
// @Summary      첨부파일 확정
// @Description  업로드가 끝난 TEMP 첨부파일을 태스크에 연결하고 attachment_added 규칙을 평가합니다
// @Tags         attachments
// @Accept       json
// @Produce      json
// @Param        taskId path string true "Task ID (UUID)"
// @Param        request body dto.ConfirmAttachmentsRequest true "첨부파일 ID 목록"
// @Success      200 {object} response.SuccessResponse{data=dto.ConfirmAttachmentsResponse}
// @Failure      400 {object} response.ErrorResponse "잘못된 요청"
// @Failure      404 {object} response.ErrorResponse "태스크 또는 첨부파일을 찾을 수 없음"
// @Security     BearerAuth
// @Router       /tasks/{taskId}/attachments [post]
func (h *AttachmentHandler) ConfirmAttachments(c *gin.Context) {
	taskID, ok := pathUUID(c, "taskId", "task")
	if !ok {
		return
	}
	var req dto.ConfirmAttachmentsRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.attachmentService.ConfirmAttachments(c.Request.Context(), taskID, &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, result)
}

// ListAttachments godoc
// @Summary      첨부파일 목록 조회
// @Tags         attachments
// @Produce      json
// @Param        taskId path string true "Task ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=[]dto.AttachmentResponse}
// @Failure      404 {object} response.ErrorResponse "태스크를 찾을 수 없음"
// @Security     BearerAuth
// @Router       /tasks/{taskId}/attachments [get]
func (h *AttachmentHandler) ListAttachments(c *gin.Context) {
	taskID, ok := pathUUID(c, "taskId", "task")
	if !ok {
		return
	}

	attachments, err := h.attachmentService.ListAttachments(c.Request.Context(), taskID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, attachments)
}

// DeleteAttachment godoc
// @Summary      첨부파일 삭제
// @Tags         attachments
// @Produce      json
// @Param        attachmentId path string true "Attachment ID (UUID)"
// @Success      200 {object} response.SuccessResponse
// @Failure      404 {object} response.ErrorResponse "첨부파일을 찾을 수 없음"
// @Security     BearerAuth
// @Router       /attachments/{attachmentId} [delete]
func (h *AttachmentHandler) DeleteAttachment(c *gin.Context) {
	attachmentID, ok := pathUUID(c, "attachmentId", "attachment")
	if !ok {
		return
	}

	if err := h.attachmentService.DeleteAttachment(c.Request.Context(), attachmentID); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, nil)
}
