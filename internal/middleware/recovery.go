package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"task-board-api/internal/response"
)

// Recovery turns a handler panic into a 500 envelope and logs it with a stack trace.
// A client that went away mid-response gets no body.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			fields := []zap.Field{
				zap.Any("error", rec),
				zap.String("error_type", fmt.Sprintf("%T", rec)),
				zap.String("method", c.Request.Method),
				zap.String("route", c.FullPath()),
				zap.String("path", c.Request.URL.Path),
			}
			if id, ok := c.Get(UserIDKey); ok {
				if userID, ok := id.(uuid.UUID); ok {
					fields = append(fields, zap.String("user_id", userID.String()))
				}
			}

			if err, ok := rec.(error); ok && brokenConnection(err) {
				logger.Warn("Client connection lost", fields...)
				c.Abort()
				return
			}

			logger.Error("Panic recovered", append(fields, zap.Stack("stacktrace"))...)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			response.SendError(c, http.StatusInternalServerError, response.ErrCodeInternal, "서버 내부 오류가 발생했습니다")
		}()

		c.Next()
	}
}

func brokenConnection(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, http.ErrAbortHandler)
}
