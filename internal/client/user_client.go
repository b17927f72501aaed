package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"task-board-api/internal/metrics"
)

// UserClient talks to the user and auth services
type UserClient interface {
	// ValidateToken asks auth-service to validate a bearer token (blacklist included)
	ValidateToken(ctx context.Context, token string) (uuid.UUID, error)
	// UserExists reports whether a user id is known to user-service
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)
}

type tokenValidationResponse struct {
	UserID  string `json:"userId"`
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

type userClient struct {
	baseURL     string
	authBaseURL string
	apiKey      string
	httpClient  *http.Client
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// NewUserClient creates a new user/auth API client
func NewUserClient(baseURL, authBaseURL, apiKey string, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) UserClient {
	return &userClient{
		baseURL:     baseURL,
		authBaseURL: authBaseURL,
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
		metrics:     m,
	}
}

// 토큰 검증은 auth-service에서 처리
func (c *userClient) ValidateToken(ctx context.Context, token string) (uuid.UUID, error) {
	url := fmt.Sprintf("%s/api/auth/validate", c.authBaseURL)

	jsonBody, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return uuid.Nil, fmt.Errorf("validation failed: status=%d, body=%s", resp.StatusCode, string(body))
	}

	var result tokenValidationResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return uuid.Nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !result.Valid {
		return uuid.Nil, fmt.Errorf("token rejected: %s", result.Message)
	}

	userID, err := uuid.Parse(result.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user id in validation response: %w", err)
	}
	return userID, nil
}

// UserExists returns false on 404 and an error on any other failure
func (c *userClient) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	url := fmt.Sprintf("%s/api/internal/users/%s/exists", c.baseURL, userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Internal-API-Key", c.apiKey)

	resp, err := c.do(req)
	if err != nil {
		return false, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		body, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("user lookup failed: status=%d, body=%s", resp.StatusCode, string(body))
	}
}

func (c *userClient) do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}
	if c.metrics != nil {
		c.metrics.RecordExternalAPICall(req.URL.Path, req.Method, statusCode, duration, err)
	}
	if err != nil && c.logger != nil {
		c.logger.Warn("User service request failed",
			zap.String("url", req.URL.String()),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
	}
	return resp, err
}
