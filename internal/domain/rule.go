package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ErrInvalidRuleConfig is returned when a trigger or action config does not fit its type
var ErrInvalidRuleConfig = errors.New("invalid rule config")

// TriggerType is the closed set of automation triggers
type TriggerType string

const (
	TriggerStatusChange       TriggerType = "status_change"
	TriggerDueDateApproaching TriggerType = "due_date_approaching"
	TriggerTaskAssigned       TriggerType = "task_assigned"
	TriggerCommentAdded       TriggerType = "comment_added"
	TriggerSubtaskCompleted   TriggerType = "subtask_completed"
	TriggerAttachmentAdded    TriggerType = "attachment_added"
)

// ActionType is the closed set of automation actions
type ActionType string

const (
	ActionChangeStatus     ActionType = "change_status"
	ActionAssignTask       ActionType = "assign_task"
	ActionSendNotification ActionType = "send_notification"
	ActionCreateSubtask    ActionType = "create_subtask"
	ActionUpdatePriority   ActionType = "update_priority"
	ActionMoveToGroup      ActionType = "move_to_group"
)

// AnyValue matches every old status or assignee in a trigger config
const AnyValue = "any"

// AutomationRule is a declarative trigger/action pair owned by a project
type AutomationRule struct {
	BaseModel
	ProjectID     uuid.UUID      `gorm:"type:uuid;not null;index:idx_automation_rules_project_trigger,priority:1" json:"project_id"`
	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	Trigger       TriggerType    `gorm:"column:trigger_type;type:varchar(50);not null;index:idx_automation_rules_project_trigger,priority:2" json:"trigger"`
	TriggerConfig datatypes.JSON `gorm:"type:jsonb" json:"trigger_config"`
	Action        ActionType     `gorm:"type:varchar(50);not null" json:"action"`
	ActionConfig  datatypes.JSON `gorm:"type:jsonb" json:"action_config"`
	IsActive      bool           `gorm:"not null;index:idx_automation_rules_is_active" json:"is_active"`
}

// TableName specifies the table name for AutomationRule
func (AutomationRule) TableName() string {
	return "automation_rules"
}

// DecodedTrigger parses the stored trigger config
func (r *AutomationRule) DecodedTrigger() (TriggerConfig, error) {
	return DecodeTriggerConfig(r.Trigger, r.TriggerConfig)
}

// DecodedAction parses the stored action config
func (r *AutomationRule) DecodedAction() (ActionConfig, error) {
	return DecodeActionConfig(r.Action, r.ActionConfig)
}

// TriggerConfig is one variant of the trigger config union
type TriggerConfig interface {
	TriggerType() TriggerType
	Validate() error
}

// ActionConfig is one variant of the action config union
type ActionConfig interface {
	ActionType() ActionType
	Validate() error
}

type StatusChangeTrigger struct {
	FromStatus string     `json:"fromStatus"`
	ToStatus   TaskStatus `json:"toStatus"`
}

func (StatusChangeTrigger) TriggerType() TriggerType { return TriggerStatusChange }

func (c StatusChangeTrigger) Validate() error {
	if c.FromStatus == "" {
		return fmt.Errorf("%w: fromStatus is required", ErrInvalidRuleConfig)
	}
	if c.FromStatus != AnyValue && !TaskStatus(c.FromStatus).IsValid() {
		return fmt.Errorf("%w: unknown fromStatus %q", ErrInvalidRuleConfig, c.FromStatus)
	}
	if !c.ToStatus.IsValid() {
		return fmt.Errorf("%w: unknown toStatus %q", ErrInvalidRuleConfig, c.ToStatus)
	}
	return nil
}

// Matches applies the status transition filter
func (c StatusChangeTrigger) Matches(oldStatus, newStatus string) bool {
	return (c.FromStatus == AnyValue || c.FromStatus == oldStatus) && string(c.ToStatus) == newStatus
}

type TaskAssignedTrigger struct {
	AssignedTo string `json:"assignedTo"`
}

func (TaskAssignedTrigger) TriggerType() TriggerType { return TriggerTaskAssigned }

func (c TaskAssignedTrigger) Validate() error {
	if c.AssignedTo == AnyValue {
		return nil
	}
	if _, err := uuid.Parse(c.AssignedTo); err != nil {
		return fmt.Errorf("%w: assignedTo must be \"any\" or a user id", ErrInvalidRuleConfig)
	}
	return nil
}

// Matches applies the assignee filter
func (c TaskAssignedTrigger) Matches(newAssignee string) bool {
	return c.AssignedTo == AnyValue || c.AssignedTo == newAssignee
}

type DueDateTrigger struct {
	DaysRemaining *int `json:"daysRemaining"`
}

func (DueDateTrigger) TriggerType() TriggerType { return TriggerDueDateApproaching }

func (c DueDateTrigger) Validate() error {
	if c.DaysRemaining == nil {
		return fmt.Errorf("%w: daysRemaining is required", ErrInvalidRuleConfig)
	}
	if *c.DaysRemaining < 0 {
		return fmt.Errorf("%w: daysRemaining must not be negative", ErrInvalidRuleConfig)
	}
	return nil
}

// KindTrigger covers triggers that match on event kind alone and take no config
type KindTrigger struct {
	kind TriggerType
}

func (c KindTrigger) TriggerType() TriggerType { return c.kind }
func (KindTrigger) Validate() error             { return nil }

type ChangeStatusAction struct {
	NewStatus TaskStatus `json:"newStatus"`
}

func (ChangeStatusAction) ActionType() ActionType { return ActionChangeStatus }

func (c ChangeStatusAction) Validate() error {
	if !c.NewStatus.IsValid() {
		return fmt.Errorf("%w: unknown newStatus %q", ErrInvalidRuleConfig, c.NewStatus)
	}
	return nil
}

type AssignTaskAction struct {
	AssignTo uuid.UUID `json:"assignTo"`
}

func (AssignTaskAction) ActionType() ActionType { return ActionAssignTask }

func (c AssignTaskAction) Validate() error {
	if c.AssignTo == uuid.Nil {
		return fmt.Errorf("%w: assignTo is required", ErrInvalidRuleConfig)
	}
	return nil
}

type UpdatePriorityAction struct {
	NewPriority TaskPriority `json:"newPriority"`
}

func (UpdatePriorityAction) ActionType() ActionType { return ActionUpdatePriority }

func (c UpdatePriorityAction) Validate() error {
	if !c.NewPriority.IsValid() {
		return fmt.Errorf("%w: unknown newPriority %q", ErrInvalidRuleConfig, c.NewPriority)
	}
	return nil
}

type SendNotificationAction struct {
	Message     string     `json:"message"`
	RecipientID *uuid.UUID `json:"recipientId,omitempty"`
}

func (SendNotificationAction) ActionType() ActionType { return ActionSendNotification }

func (c SendNotificationAction) Validate() error {
	if c.Message == "" {
		return fmt.Errorf("%w: message is required", ErrInvalidRuleConfig)
	}
	return nil
}

type CreateSubtaskAction struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

func (CreateSubtaskAction) ActionType() ActionType { return ActionCreateSubtask }

func (c CreateSubtaskAction) Validate() error {
	if c.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidRuleConfig)
	}
	return nil
}

type MoveToGroupAction struct {
	TargetGroupID uuid.UUID `json:"targetGroupId"`
}

func (MoveToGroupAction) ActionType() ActionType { return ActionMoveToGroup }

func (c MoveToGroupAction) Validate() error {
	if c.TargetGroupID == uuid.Nil {
		return fmt.Errorf("%w: targetGroupId is required", ErrInvalidRuleConfig)
	}
	return nil
}

// DecodeTriggerConfig strictly decodes raw into the variant selected by t
func DecodeTriggerConfig(t TriggerType, raw []byte) (TriggerConfig, error) {
	var cfg TriggerConfig
	switch t {
	case TriggerStatusChange:
		var c StatusChangeTrigger
		if err := decodeStrict(raw, &c); err != nil {
			return nil, err
		}
		cfg = c
	case TriggerTaskAssigned:
		var c TaskAssignedTrigger
		if err := decodeStrict(raw, &c); err != nil {
			return nil, err
		}
		cfg = c
	case TriggerDueDateApproaching:
		var c DueDateTrigger
		if err := decodeStrict(raw, &c); err != nil {
			return nil, err
		}
		cfg = c
	case TriggerCommentAdded, TriggerSubtaskCompleted, TriggerAttachmentAdded:
		c := KindTrigger{kind: t}
		if err := decodeStrict(raw, &c); err != nil {
			return nil, err
		}
		cfg = c
	default:
		return nil, fmt.Errorf("%w: unknown trigger %q", ErrInvalidRuleConfig, t)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DecodeActionConfig strictly decodes raw into the variant selected by a
func DecodeActionConfig(a ActionType, raw []byte) (ActionConfig, error) {
	var cfg ActionConfig
	switch a {
	case ActionChangeStatus:
		var c ChangeStatusAction
		if err := decodeStrict(raw, &c); err != nil {
			return nil, err
		}
		cfg = c
	case ActionAssignTask:
		var c AssignTaskAction
		if err := decodeStrict(raw, &c); err != nil {
			return nil, err
		}
		cfg = c
	case ActionUpdatePriority:
		var c UpdatePriorityAction
		if err := decodeStrict(raw, &c); err != nil {
			return nil, err
		}
		cfg = c
	case ActionSendNotification:
		var c SendNotificationAction
		if err := decodeStrict(raw, &c); err != nil {
			return nil, err
		}
		cfg = c
	case ActionCreateSubtask:
		var c CreateSubtaskAction
		if err := decodeStrict(raw, &c); err != nil {
			return nil, err
		}
		cfg = c
	case ActionMoveToGroup:
		var c MoveToGroupAction
		if err := decodeStrict(raw, &c); err != nil {
			return nil, err
		}
		cfg = c
	default:
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidRuleConfig, a)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeStrict(raw []byte, dst interface{}) error {
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		raw = []byte("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRuleConfig, err)
	}
	return nil
}
