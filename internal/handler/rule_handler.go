package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"task-board-api/internal/dto"
	"task-board-api/internal/response"
	"task-board-api/internal/service"
)

// RuleHandler exposes automation rule management
type RuleHandler struct {
	ruleService service.RuleService
	logger      *zap.Logger
}

func NewRuleHandler(ruleService service.RuleService, logger *zap.Logger) *RuleHandler {
	return &RuleHandler{ruleService: ruleService, logger: logger}
}

// ListRules godoc
// @Summary      자동화 규칙 목록 조회
// @Description  평가 순서(생성 시각)대로 반환합니다
// @Tags         rules
// @Produce      json
// @Param        projectId path string true "Project ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=[]dto.RuleResponse}
// @Failure      404 {object} response.ErrorResponse "Project를 찾을 수 없음"
// @Security     BearerAuth
// @Router       /projects/{projectId}/rules [get]
func (h *RuleHandler) ListRules(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectId", "project")
	if !ok {
		return
	}

	rules, err := h.ruleService.ListRules(c.Request.Context(), projectID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, rules)
}

// CreateRule godoc
// @Summary      자동화 규칙 생성
// @Description  triggerConfig와 actionConfig는 트리거/액션 종류에 맞게 엄격히 검증됩니다
// @Tags         rules
// @Accept       json
// @Produce      json
// @Param        projectId path string true "Project ID (UUID)"
// @Param        request body dto.CreateRuleRequest true "규칙 정의"
// @Success      201 {object} response.SuccessResponse{data=dto.RuleResponse}
// @Failure      400 {object} response.ErrorResponse "잘못된 설정"
// @Failure      404 {object} response.ErrorResponse "Project를 찾을 수 없음"
// @Security     BearerAuth
// @Router       /projects/{projectId}/rules [post]
func (h *RuleHandler) CreateRule(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectId", "project")
	if !ok {
		return
	}
	var req dto.CreateRuleRequest
	if !bindJSON(c, &req) {
		return
	}

	rule, err := h.ruleService.CreateRule(c.Request.Context(), projectID, &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusCreated, rule)
}

// GetRule godoc
// @Summary      자동화 규칙 조회
// @Tags         rules
// @Produce      json
// @Param        ruleId path string true "Rule ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=dto.RuleResponse}
// @Failure      404 {object} response.ErrorResponse "규칙을 찾을 수 없음"
// @Security     BearerAuth
// @Router       /rules/{ruleId} [get]
func (h *RuleHandler) GetRule(c *gin.Context) {
	ruleID, ok := pathUUID(c, "ruleId", "rule")
	if !ok {
		return
	}

	rule, err := h.ruleService.GetRule(c.Request.Context(), ruleID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, rule)
}

// UpdateRule godoc
// @Summary      자동화 규칙 수정
// @Tags         rules
// @Accept       json
// @Produce      json
// @Param        ruleId path string true "Rule ID (UUID)"
// @Param        request body dto.UpdateRuleRequest true "수정할 필드"
// @Success      200 {object} response.SuccessResponse{data=dto.RuleResponse}
// @Failure      400 {object} response.ErrorResponse "잘못된 설정"
// @Failure      404 {object} response.ErrorResponse "규칙을 찾을 수 없음"
// @Security     BearerAuth
// @Router       /rules/{ruleId} [patch]
func (h *RuleHandler) UpdateRule(c *gin.Context) {
	ruleID, ok := pathUUID(c, "ruleId", "rule")
	if !ok {
		return
	}
	var req dto.UpdateRuleRequest
	if !bindJSON(c, &req) {
		return
	}

	rule, err := h.ruleService.UpdateRule(c.Request.Context(), ruleID, &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, rule)
}

// ToggleRule godoc
// @Summary      자동화 규칙 활성화/비활성화
// @Tags         rules
// @Accept       json
// @Produce      json
// @Param        ruleId path string true "Rule ID (UUID)"
// @Param        request body dto.ToggleRuleRequest true "활성 여부"
// @Success      200 {object} response.SuccessResponse{data=dto.RuleResponse}
// @Failure      404 {object} response.ErrorResponse "규칙을 찾을 수 없음"
// @Security     BearerAuth
// @Router       /rules/{ruleId}/active [put]
func (h *RuleHandler) ToggleRule(c *gin.Context) {
	ruleID, ok := pathUUID(c, "ruleId", "rule")
	if !ok {
		return
	}
	var req dto.ToggleRuleRequest
	if !bindJSON(c, &req) {
		return
	}

	rule, err := h.ruleService.ToggleRule(c.Request.Context(), ruleID, *req.IsActive)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, rule)
}

// DeleteRule godoc
// @Summary      자동화 규칙 삭제
// @Tags         rules
// @Produce      json
// @Param        ruleId path string true "Rule ID (UUID)"
// @Success      200 {object} response.SuccessResponse
// @Failure      404 {object} response.ErrorResponse "규칙을 찾을 수 없음"
// @Security     BearerAuth
// @Router       /rules/{ruleId} [delete]
func (h *RuleHandler) DeleteRule(c *gin.Context) {
	ruleID, ok := pathUUID(c, "ruleId", "rule")
	if !ok {
		return
	}

	if err := h.ruleService.DeleteRule(c.Request.Context(), ruleID); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, nil)
}
