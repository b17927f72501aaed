package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventKind classifies a mutation event
type EventKind string

const (
	EventTaskCreated        EventKind = "task_created"
	EventTaskDeleted        EventKind = "task_deleted"
	EventStatusChanged      EventKind = "status_changed"
	EventPriorityChanged    EventKind = "priority_changed"
	EventProgressChanged    EventKind = "progress_changed"
	EventTaskAssigned       EventKind = "task_assigned"
	EventDueDateChanged     EventKind = "due_date_changed"
	EventTaskMoved          EventKind = "task_moved"
	EventColumnValueChanged EventKind = "column_value_changed"
	EventCommentAdded       EventKind = "comment_added"
	EventAttachmentAdded    EventKind = "attachment_added"
	EventSubtaskCompleted   EventKind = "subtask_completed"
	EventDueDateApproaching EventKind = "due_date_approaching"
)

// TaskField names the task attribute an event changed
type TaskField string

const (
	FieldNone     TaskField = ""
	FieldStatus   TaskField = "status"
	FieldPriority TaskField = "priority"
	FieldProgress TaskField = "progress"
	FieldAssignee TaskField = "assignee"
	FieldDueDate  TaskField = "due_date"
	FieldGroup    TaskField = "group"
	FieldPosition TaskField = "position"
	FieldColumn   TaskField = "column"
)

// ActorType tells who caused a mutation
type ActorType string

const (
	ActorUser   ActorType = "user"
	ActorRule   ActorType = "rule"
	ActorSystem ActorType = "system"
)

// Actor identifies the origin of a mutation
type Actor struct {
	Type   ActorType  `json:"type"`
	UserID *uuid.UUID `json:"user_id,omitempty"`
	RuleID *uuid.UUID `json:"rule_id,omitempty"`
}

func UserActor(userID uuid.UUID) Actor {
	id := userID
	return Actor{Type: ActorUser, UserID: &id}
}

func RuleActor(ruleID uuid.UUID) Actor {
	id := ruleID
	return Actor{Type: ActorRule, RuleID: &id}
}

func SystemActor() Actor {
	return Actor{Type: ActorSystem}
}

// MutationEvent is emitted for every task change and consumed by the rule engine
type MutationEvent struct {
	ProjectID uuid.UUID `json:"project_id"`
	TaskID    uuid.UUID `json:"task_id"`
	Kind      EventKind `json:"kind"`
	Field     TaskField `json:"field,omitempty"`
	OldValue  string    `json:"old_value,omitempty"`
	NewValue  string    `json:"new_value,omitempty"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMutationEvent stamps an event with the current UTC time
func NewMutationEvent(task *Task, kind EventKind, field TaskField, oldValue, newValue string, actor Actor) MutationEvent {
	return MutationEvent{
		ProjectID: task.ProjectID,
		TaskID:    task.ID,
		Kind:      kind,
		Field:     field,
		OldValue:  oldValue,
		NewValue:  newValue,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
	}
}

// TaskActivity is the persisted audit record of a mutation event
type TaskActivity struct {
	BaseModel
	ProjectID  uuid.UUID  `gorm:"type:uuid;not null;index:idx_task_activities_project_id" json:"project_id"`
	TaskID     uuid.UUID  `gorm:"type:uuid;not null;index:idx_task_activities_task_id" json:"task_id"`
	Kind       EventKind  `gorm:"type:varchar(50);not null" json:"kind"`
	Field      TaskField  `gorm:"type:varchar(50)" json:"field"`
	OldValue   string     `gorm:"type:text" json:"old_value"`
	NewValue   string     `gorm:"type:text" json:"new_value"`
	ActorType  ActorType  `gorm:"type:varchar(20);not null" json:"actor_type"`
	ActorID    *uuid.UUID `gorm:"type:uuid" json:"actor_id"`
	RuleID     *uuid.UUID `gorm:"type:uuid" json:"rule_id"`
	ChainDepth int        `gorm:"not null" json:"chain_depth"`
	OccurredAt time.Time  `gorm:"type:timestamp;not null" json:"occurred_at"`
}

// TableName specifies the table name for TaskActivity
func (TaskActivity) TableName() string {
	return "task_activities"
}

// NewTaskActivity converts an event processed at the given chain depth
func NewTaskActivity(e MutationEvent, depth int) *TaskActivity {
	return &TaskActivity{
		ProjectID:  e.ProjectID,
		TaskID:     e.TaskID,
		Kind:       e.Kind,
		Field:      e.Field,
		OldValue:   e.OldValue,
		NewValue:   e.NewValue,
		ActorType:  e.Actor.Type,
		ActorID:    e.Actor.UserID,
		RuleID:     e.Actor.RuleID,
		ChainDepth: depth,
		OccurredAt: e.Timestamp,
	}
}
