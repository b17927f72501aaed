package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"task-board-api/internal/middleware"
	"task-board-api/internal/realtime"
	"task-board-api/internal/response"
	"task-board-api/internal/service"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// WSHandler upgrades board viewers to a websocket subscription
type WSHandler struct {
	hub            *realtime.Hub
	validator      middleware.TokenValidator
	projectService service.ProjectService
	logger         *zap.Logger
}

func NewWSHandler(hub *realtime.Hub, validator middleware.TokenValidator, projectService service.ProjectService, logger *zap.Logger) *WSHandler {
	return &WSHandler{hub: hub, validator: validator, projectService: projectService, logger: logger}
}

// SubscribeBoard godoc
// @Summary      보드 실시간 구독
// @Description  WebSocket으로 연결합니다. 브라우저는 헤더를 보낼 수 없으므로 token 쿼리 파라미터도 허용합니다
// @Description  보드가 바뀌면 {"type":"board.invalidated"} 메시지를 받고 보드를 다시 조회하면 됩니다
// @Tags         board
// @Param        projectId path string true "Project ID (UUID)"
// @Param        token query string false "Access token"
// @Success      101 "Switching Protocols"
// @Failure      401 {object} response.ErrorResponse "인증 실패"
// @Failure      404 {object} response.ErrorResponse "Project를 찾을 수 없음"
// @Router       /ws/projects/{projectId} [get]
func (h *WSHandler) SubscribeBoard(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectId", "project")
	if !ok {
		return
	}

	token := c.Query("token")
	if token == "" {
		if t, found := bearerFromHeader(c.GetHeader("Authorization")); found {
			token = t
		}
	}
	if token == "" {
		response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "인증이 필요합니다")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	userID, err := h.validator.ValidateToken(ctx, token)
	if err != nil || userID == uuid.Nil {
		response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "유효하지 않거나 만료된 토큰입니다")
		return
	}

	if _, err := h.projectService.GetProject(ctx, projectID); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", zap.Error(err))
		return
	}

	h.hub.Subscribe(conn, projectID, userID)
}

func bearerFromHeader(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return "", false
	}
	return header[len(prefix):], true
}
