package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"task-board-api/internal/response"
)

// UserIDKey is the gin and request-context key carrying the authenticated user
const UserIDKey = "user_id"

// TokenKey carries the raw bearer token
const TokenKey = "jwtToken"

// TokenValidator resolves a bearer token to a user id
type TokenValidator interface {
	ValidateToken(ctx context.Context, tokenStr string) (uuid.UUID, error)
}

// JWTValidator validates HS256 tokens locally. It cannot see auth-service's blacklist.
type JWTValidator struct {
	secret []byte
}

func NewJWTValidator(secret string) *JWTValidator {
	return &JWTValidator{secret: []byte(secret)}
}

// ValidateToken accepts user_id, sub or uid as the user claim
func (v *JWTValidator) ValidateToken(ctx context.Context, tokenStr string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("invalid token claims")
	}

	var userIDStr string
	for _, key := range []string{"user_id", "sub", "uid"} {
		if s, ok := claims[key].(string); ok && s != "" {
			userIDStr = s
			break
		}
	}
	if userIDStr == "" {
		return uuid.Nil, errors.New("user id not found in token")
	}
	return uuid.Parse(userIDStr)
}

// AuthWithValidator returns a middleware that validates bearer tokens with validator
func AuthWithValidator(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "인증이 필요합니다")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		userID, err := validator.ValidateToken(ctx, tokenString)
		if err != nil || userID == uuid.Nil {
			response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "유효하지 않거나 만료된 토큰입니다")
			return
		}

		SetUser(c, userID, tokenString)
		c.Next()
	}
}

// Auth validates tokens locally with the shared HMAC secret
func Auth(jwtSecret string) gin.HandlerFunc {
	return AuthWithValidator(NewJWTValidator(jwtSecret))
}

// SetUser stores the user on the gin context and on the request context read by services
func SetUser(c *gin.Context, userID uuid.UUID, token string) {
	c.Set(UserIDKey, userID)
	c.Set(TokenKey, token)
	c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), UserIDKey, userID))
}

// bearerToken extracts the token from "Bearer <token>"
func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
