package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"task-board-api/internal/dto"
	"task-board-api/internal/response"
	"task-board-api/internal/service"
)

type GroupHandler struct {
	groupService service.GroupService
	logger       *zap.Logger
}

func NewGroupHandler(groupService service.GroupService, logger *zap.Logger) *GroupHandler {
	return &GroupHandler{groupService: groupService, logger: logger}
}

// ListGroups godoc
// @Summary      그룹 목록 조회
// @Tags         groups
// @Produce      json
// @Param        projectId path string true "Project ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=[]dto.GroupResponse}
// @Failure      404 {object} response.ErrorResponse "Project를 찾을 수 없음"
// @Security     BearerAuth
// @Router       /projects/{projectId}/groups [get]
func (h *GroupHandler) ListGroups(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectId", "project")
	if !ok {
		return
	}

	groups, err := h.groupService.ListGroups(c.Request.Context(), projectID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, groups)
}

// CreateGroup godoc
// @Summary      그룹 생성
// @Description  새 그룹을 맨 뒤에 추가합니다
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        projectId path string true "Project ID (UUID)"
// @Param        request body dto.CreateGroupRequest true "그룹 생성 요청"
// @Success      201 {object} response.SuccessResponse{data=dto.GroupResponse}
// @Failure      400 {object} response.ErrorResponse "잘못된 요청"
// @Failure      404 {object} response.ErrorResponse "Project를 찾을 수 없음"
// @Security     BearerAuth
// @Router       /projects/{projectId}/groups [post]
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectId", "project")
	if !ok {
		return
	}
	var req dto.CreateGroupRequest
	if !bindJSON(c, &req) {
		return
	}

	group, err := h.groupService.CreateGroup(c.Request.Context(), projectID, &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusCreated, group)
}

// UpdateGroup godoc
// @Summary      그룹 수정
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        groupId path string true "Group ID (UUID)"
// @Param        request body dto.UpdateGroupRequest true "그룹 수정 요청"
// @Success      200 {object} response.SuccessResponse{data=dto.GroupResponse}
// @Failure      400 {object} response.ErrorResponse "잘못된 요청"
// @Failure      404 {object} response.ErrorResponse "그룹을 찾을 수 없음"
// @Security     BearerAuth
// @Router       /groups/{groupId} [patch]
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	groupID, ok := pathUUID(c, "groupId", "group")
	if !ok {
		return
	}
	var req dto.UpdateGroupRequest
	if !bindJSON(c, &req) {
		return
	}

	group, err := h.groupService.UpdateGroup(c.Request.Context(), groupID, &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, group)
}

// ReorderGroup godoc
// @Summary      그룹 순서 변경
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        groupId path string true "Group ID (UUID)"
// @Param        request body dto.ReorderRequest true "새 position"
// @Success      200 {object} response.SuccessResponse{data=[]dto.GroupResponse}
// @Failure      400 {object} response.ErrorResponse "INVALID_POSITION"
// @Failure      404 {object} response.ErrorResponse "그룹을 찾을 수 없음"
// @Security     BearerAuth
// @Router       /groups/{groupId}/position [put]
func (h *GroupHandler) ReorderGroup(c *gin.Context) {
	groupID, ok := pathUUID(c, "groupId", "group")
	if !ok {
		return
	}
	var req dto.ReorderRequest
	if !bindJSON(c, &req) {
		return
	}

	groups, err := h.groupService.ReorderGroup(c.Request.Context(), groupID, *req.Position)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, groups)
}

// DeleteGroup godoc
// @Summary      그룹 삭제
// @Description  strategy=reassign은 태스크를 targetGroupId 그룹 끝으로 옮기고, strategy=orphan은 미분류로 옮깁니다
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        groupId path string true "Group ID (UUID)"
// @Param        request body dto.DeleteGroupRequest true "삭제 전략"
// @Success      200 {object} response.SuccessResponse{data=dto.DeleteGroupResponse}
// @Failure      400 {object} response.ErrorResponse "잘못된 요청"
// @Failure      404 {object} response.ErrorResponse "그룹을 찾을 수 없음"
// @Security     BearerAuth
// @Router       /groups/{groupId} [delete]
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	groupID, ok := pathUUID(c, "groupId", "group")
	if !ok {
		return
	}
	var req dto.DeleteGroupRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.groupService.DeleteGroup(c.Request.Context(), groupID, &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, result)
}
