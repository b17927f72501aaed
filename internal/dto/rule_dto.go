package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CreateRuleRequest represents the request to create an automation rule
// @Description triggerConfig and actionConfig are strictly validated against the trigger and action types
type CreateRuleRequest struct {
	Name          string          `json:"name" binding:"required,min=1,max=255" example:"Close out reviews"`
	Trigger       string          `json:"trigger" binding:"required,oneof=status_change due_date_approaching task_assigned comment_added subtask_completed attachment_added" example:"status_change"`
	TriggerConfig json.RawMessage `json:"triggerConfig" swaggertype:"object"`
	Action        string          `json:"action" binding:"required,oneof=change_status assign_task send_notification create_subtask update_priority move_to_group" example:"update_priority"`
	ActionConfig  json.RawMessage `json:"actionConfig" swaggertype:"object"`
	IsActive      *bool           `json:"isActive,omitempty" example:"true"`
}

// UpdateRuleRequest represents the request to update a rule. All fields are optional.
// @Description Changing trigger requires triggerConfig, changing action requires actionConfig
type UpdateRuleRequest struct {
	Name          *string         `json:"name" binding:"omitempty,min=1,max=255"`
	Trigger       *string         `json:"trigger" binding:"omitempty,oneof=status_change due_date_approaching task_assigned comment_added subtask_completed attachment_added"`
	TriggerConfig json.RawMessage `json:"triggerConfig,omitempty" swaggertype:"object"`
	Action        *string         `json:"action" binding:"omitempty,oneof=change_status assign_task send_notification create_subtask update_priority move_to_group"`
	ActionConfig  json.RawMessage `json:"actionConfig,omitempty" swaggertype:"object"`
}

// ToggleRuleRequest activates or deactivates a rule
type ToggleRuleRequest struct {
	IsActive *bool `json:"isActive" binding:"required" example:"false"`
}

// RuleResponse represents an automation rule
type RuleResponse struct {
	RuleID        uuid.UUID       `json:"ruleId"`
	ProjectID     uuid.UUID       `json:"projectId"`
	Name          string          `json:"name"`
	Trigger       string          `json:"trigger"`
	TriggerConfig json.RawMessage `json:"triggerConfig" swaggertype:"object"`
	Action        string          `json:"action"`
	ActionConfig  json.RawMessage `json:"actionConfig" swaggertype:"object"`
	IsActive      bool            `json:"isActive"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}
