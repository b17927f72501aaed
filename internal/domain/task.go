package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TaskStatus is the workflow state of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusReview     TaskStatus = "review"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
	TaskStatusBlocked    TaskStatus = "blocked"
	TaskStatusDeferred   TaskStatus = "deferred"
)

// IsValid reports whether s is a known status
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusReview, TaskStatusCompleted,
		TaskStatusCancelled, TaskStatusBlocked, TaskStatusDeferred:
		return true
	}
	return false
}

// IsClosed reports whether the task no longer needs attention
func (s TaskStatus) IsClosed() bool {
	return s == TaskStatusCompleted || s == TaskStatusCancelled
}

// TaskPriority is the urgency of a task
type TaskPriority string

const (
	TaskPriorityLow      TaskPriority = "low"
	TaskPriorityMedium   TaskPriority = "medium"
	TaskPriorityHigh     TaskPriority = "high"
	TaskPriorityUrgent   TaskPriority = "urgent"
	TaskPriorityCritical TaskPriority = "critical"
)

// IsValid reports whether p is a known priority
func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent, TaskPriorityCritical:
		return true
	}
	return false
}

// Task is a board row. GroupID nil places it in the ungrouped pseudo-group.
type Task struct {
	BaseModel
	ProjectID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_tasks_scope_position,priority:1" json:"project_id"`
	GroupID      *uuid.UUID     `gorm:"type:uuid;index:idx_tasks_scope_position,priority:2" json:"group_id"`
	ParentTaskID *uuid.UUID     `gorm:"type:uuid;index:idx_tasks_parent_task_id" json:"parent_task_id"`
	Title        string         `gorm:"type:varchar(255);not null" json:"title"`
	Description  string         `gorm:"type:text" json:"description"`
	Status       TaskStatus     `gorm:"type:varchar(20);not null;index:idx_tasks_status" json:"status"`
	Priority     TaskPriority   `gorm:"type:varchar(20);not null" json:"priority"`
	AssigneeID   *uuid.UUID     `gorm:"type:uuid;index:idx_tasks_assignee_id" json:"assignee_id"`
	DueDate      *time.Time     `gorm:"type:timestamp;index:idx_tasks_due_date" json:"due_date"`
	Progress     int            `gorm:"not null" json:"progress"`
	Tags         datatypes.JSON `gorm:"type:jsonb" json:"tags"`
	Position     int            `gorm:"not null;index:idx_tasks_scope_position,priority:3" json:"position"`
	CreatedBy    uuid.UUID      `gorm:"type:uuid;not null" json:"created_by"`

	// Loaded separately from task_assignees
	AdditionalAssigneeIDs []uuid.UUID `gorm:"-" json:"additional_assignee_ids"`
}

// TableName specifies the table name for Task
func (Task) TableName() string {
	return "tasks"
}

// Scope returns the position sequence the task currently belongs to
func (t *Task) Scope() TaskScope {
	return ScopeOf(t.ProjectID, t.GroupID)
}

// TagList decodes the stored tag set
func (t *Task) TagList() []string {
	if len(t.Tags) == 0 {
		return []string{}
	}
	var tags []string
	if err := json.Unmarshal(t.Tags, &tags); err != nil {
		return []string{}
	}
	return tags
}

// SetTags stores tags as a deduplicated set, keeping first-seen order
func (t *Task) SetTags(tags []string) {
	encoded, _ := json.Marshal(UniqueStrings(tags))
	t.Tags = datatypes.JSON(encoded)
}

// TaskAssignee is an additional assignee of a task. The primary assignee never appears here.
type TaskAssignee struct {
	BaseModel
	TaskID uuid.UUID `gorm:"type:uuid;not null;index:idx_task_assignees_task_id;uniqueIndex:uq_task_assignees_task_user" json:"task_id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_task_assignees_user_id;uniqueIndex:uq_task_assignees_task_user" json:"user_id"`
}

// TableName specifies the table name for TaskAssignee
func (TaskAssignee) TableName() string {
	return "task_assignees"
}

// ClampProgress bounds progress to [0,100]
func ClampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// NormalizeAssignees deduplicates ids and drops the primary assignee
func NormalizeAssignees(ids []uuid.UUID, primary *uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		if primary != nil && *primary == id {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// UniqueStrings removes duplicates and empty strings, keeping first-seen order
func UniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
