package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CreateTaskRequest represents the request to create a task
// @Description groupId omitted places the task in the ungrouped list. position omitted appends it.
type CreateTaskRequest struct {
	Title                 string      `json:"title" binding:"required,min=1,max=255" example:"Draft launch newsletter"`
	Description           string      `json:"description" example:"Two variants for A/B test"`
	GroupID               *uuid.UUID  `json:"groupId,omitempty"`
	ParentTaskID          *uuid.UUID  `json:"parentTaskId,omitempty"`
	Status                string      `json:"status,omitempty" binding:"omitempty,oneof=pending in_progress review completed cancelled blocked deferred" example:"pending"`
	Priority              string      `json:"priority,omitempty" binding:"omitempty,oneof=low medium high urgent critical" example:"medium"`
	AssigneeID            *uuid.UUID  `json:"assigneeId,omitempty"`
	AdditionalAssigneeIDs []uuid.UUID `json:"additionalAssigneeIds,omitempty" binding:"omitempty,max=50"`
	DueDate               *time.Time  `json:"dueDate,omitempty" example:"2024-03-31T00:00:00Z"`
	Progress              *int        `json:"progress,omitempty" example:"0"`
	Tags                  []string    `json:"tags,omitempty" example:"newsletter,q3"`
	Position              *int        `json:"position,omitempty" binding:"omitempty,min=0"`
}

// UpdateTaskRequest represents the request to update a task. All fields are optional.
// @Description clearDueDate removes the due date. Status, priority, progress and due date changes trigger automation rules.
type UpdateTaskRequest struct {
	Title                 *string      `json:"title" binding:"omitempty,min=1,max=255"`
	Description           *string      `json:"description"`
	Status                *string      `json:"status" binding:"omitempty,oneof=pending in_progress review completed cancelled blocked deferred"`
	Priority              *string      `json:"priority" binding:"omitempty,oneof=low medium high urgent critical"`
	Progress              *int         `json:"progress"`
	DueDate               *time.Time   `json:"dueDate"`
	ClearDueDate          bool         `json:"clearDueDate"`
	Tags                  *[]string    `json:"tags"`
	AdditionalAssigneeIDs *[]uuid.UUID `json:"additionalAssigneeIds" binding:"omitempty,max=50"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending in_progress review completed cancelled blocked deferred" example:"review"`
}

type UpdatePriorityRequest struct {
	Priority string `json:"priority" binding:"required,oneof=low medium high urgent critical" example:"high"`
}

type UpdateProgressRequest struct {
	Progress *int `json:"progress" binding:"required" example:"40"`
}

// AssignTaskRequest sets the primary assignee. A null assigneeId unassigns the task.
type AssignTaskRequest struct {
	AssigneeID *uuid.UUID `json:"assigneeId"`
}

// UpdateDueDateRequest sets the due date. A null dueDate clears it.
type UpdateDueDateRequest struct {
	DueDate *time.Time `json:"dueDate" example:"2024-03-31T00:00:00Z"`
}

// MoveTaskRequest moves a task inside or across groups
// @Description groupId null targets the ungrouped list. position is clamped to the target length.
type MoveTaskRequest struct {
	GroupID  *uuid.UUID `json:"groupId"`
	Position *int       `json:"position" binding:"required" example:"0"`
}

// SetColumnValueRequest carries the raw JSON value for a column. null, "" and [] clear the value.
type SetColumnValueRequest struct {
	Value json.RawMessage `json:"value" swaggertype:"object"`
}

// TaskFilters narrows a task listing
type TaskFilters struct {
	Status     string `form:"status" binding:"omitempty,oneof=pending in_progress review completed cancelled blocked deferred"`
	AssigneeID string `form:"assigneeId" binding:"omitempty,uuid"`
	GroupID    string `form:"groupId"`
}

// TaskResponse represents a task
type TaskResponse struct {
	TaskID                uuid.UUID   `json:"taskId"`
	ProjectID             uuid.UUID   `json:"projectId"`
	GroupID               *uuid.UUID  `json:"groupId"`
	ParentTaskID          *uuid.UUID  `json:"parentTaskId,omitempty"`
	Title                 string      `json:"title"`
	Description           string      `json:"description"`
	Status                string      `json:"status"`
	Priority              string      `json:"priority"`
	AssigneeID            *uuid.UUID  `json:"assigneeId"`
	AdditionalAssigneeIDs []uuid.UUID `json:"additionalAssigneeIds"`
	DueDate               *time.Time  `json:"dueDate,omitempty"`
	Progress              int         `json:"progress"`
	Tags                  []string    `json:"tags"`
	Position              int         `json:"position"`
	CreatedBy             uuid.UUID   `json:"createdBy"`
	CreatedAt             time.Time   `json:"createdAt"`
	UpdatedAt             time.Time   `json:"updatedAt"`
}

// ColumnValueResponse represents one set column value of a task
type ColumnValueResponse struct {
	TaskID   uuid.UUID   `json:"taskId"`
	ColumnID uuid.UUID   `json:"columnId"`
	Value    interface{} `json:"value" swaggertype:"object"`
}

// FiringResponse describes one automation rule that fired
type FiringResponse struct {
	RuleID   uuid.UUID `json:"ruleId"`
	RuleName string    `json:"ruleName"`
	TaskID   uuid.UUID `json:"taskId"`
	Action   string    `json:"action"`
	Depth    int       `json:"depth"`
	Error    string    `json:"error,omitempty"`
}

// AutomationSummary reports the rule chain started by a mutation
type AutomationSummary struct {
	EventsProcessed int              `json:"eventsProcessed"`
	Firings         []FiringResponse `json:"firings"`
	MaxDepth        int              `json:"maxDepth"`
	CycleDetected   bool             `json:"cycleDetected"`
}

// TaskMutationResponse is returned by every task write. task reflects the state after automation settled.
type TaskMutationResponse struct {
	Task       *TaskResponse      `json:"task"`
	Automation *AutomationSummary `json:"automation,omitempty"`
}

// ScopeOrder is the settled order of one task sequence
type ScopeOrder struct {
	GroupID *uuid.UUID  `json:"groupId"`
	TaskIDs []uuid.UUID `json:"taskIds"`
}

// MoveTaskResponse returns the moved task and the order of every touched sequence
type MoveTaskResponse struct {
	Task       *TaskResponse      `json:"task"`
	Scopes     []ScopeOrder       `json:"scopes"`
	Automation *AutomationSummary `json:"automation,omitempty"`
}

// ActivityResponse is one audit trail entry
type ActivityResponse struct {
	ActivityID uuid.UUID  `json:"activityId"`
	TaskID     uuid.UUID  `json:"taskId"`
	Kind       string     `json:"kind"`
	Field      string     `json:"field,omitempty"`
	OldValue   string     `json:"oldValue,omitempty"`
	NewValue   string     `json:"newValue,omitempty"`
	ActorType  string     `json:"actorType"`
	ActorID    *uuid.UUID `json:"actorId,omitempty"`
	RuleID     *uuid.UUID `json:"ruleId,omitempty"`
	ChainDepth int        `json:"chainDepth"`
	OccurredAt time.Time  `json:"occurredAt"`
}
