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

// NotificationType represents the type of notification
type NotificationType string

const (
	NotificationTaskAssigned   NotificationType = "TASK_ASSIGNED"
	NotificationTaskUnassigned NotificationType = "TASK_UNASSIGNED"
	NotificationCommentAdded   NotificationType = "COMMENT_ADDED"
	NotificationAutomationRule NotificationType = "AUTOMATION_RULE"
	NotificationDueDateSoon    NotificationType = "DUE_DATE_APPROACHING"
)

// ResourceTypeTask is the resource type sent for every task notification
const ResourceTypeTask = "task"

const notificationPath = "/api/internal/notifications"

// NotificationEvent is one notice for one recipient
type NotificationEvent struct {
	Type         NotificationType       `json:"type"`
	ActorID      uuid.UUID              `json:"actorId"`
	TargetUserID uuid.UUID              `json:"targetUserId"`
	WorkspaceID  uuid.UUID              `json:"workspaceId"`
	ResourceType string                 `json:"resourceType"`
	ResourceID   uuid.UUID              `json:"resourceId"`
	ResourceName string                 `json:"resourceName,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	OccurredAt   string                 `json:"occurredAt,omitempty"`
}

// NotificationClient delivers notices to the notification service.
// Callers treat an error as a failed side effect, never as a failed mutation.
type NotificationClient interface {
	SendNotification(ctx context.Context, event NotificationEvent) error
}

// DeliveryError is returned when the notification service answers with a non-2xx status
type DeliveryError struct {
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("notification service returned %d", e.StatusCode)
	}
	return fmt.Sprintf("notification service returned %d: %s", e.StatusCode, e.Body)
}

type notificationClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewNotificationClient creates a client posting to {baseURL}/api/internal/notifications
func NewNotificationClient(baseURL string, apiKey string, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) NotificationClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &notificationClient{
		endpoint:   baseURL + notificationPath,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    m,
	}
}

func (c *notificationClient) SendNotification(ctx context.Context, event NotificationEvent) error {
	if event.TargetUserID == uuid.Nil {
		return fmt.Errorf("notification %s has no recipient", event.Type)
	}
	if event.OccurredAt == "" {
		event.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Internal-API-Key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}
	if c.metrics != nil {
		c.metrics.RecordExternalAPICall(c.endpoint, http.MethodPost, statusCode, duration, err)
	}
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return &DeliveryError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}

	c.logger.Debug("Notification sent",
		zap.String("type", string(event.Type)),
		zap.String("target_user_id", event.TargetUserID.String()),
		zap.String("resource_id", event.ResourceID.String()),
		zap.Duration("duration", duration),
	)
	return nil
}

// NoOpNotificationClient drops every notice. Used when no notification service is configured.
type NoOpNotificationClient struct{}

func NewNoOpNotificationClient() NotificationClient {
	return &NoOpNotificationClient{}
}

func (c *NoOpNotificationClient) SendNotification(ctx context.Context, event NotificationEvent) error {
	return nil
}
