package domain

import "github.com/google/uuid"

// DefaultGroupColor is applied when a group is created without a color
const DefaultGroupColor = "#579BFC"

// TaskGroup is an ordered, colored partition of a project's tasks
type TaskGroup struct {
	BaseModel
	ProjectID   uuid.UUID `gorm:"type:uuid;not null;index:idx_task_groups_project_position,priority:1" json:"project_id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Color       string    `gorm:"type:varchar(20);not null" json:"color"`
	Position    int       `gorm:"not null;index:idx_task_groups_project_position,priority:2" json:"position"`
	IsCollapsed bool      `gorm:"not null" json:"is_collapsed"`
}

// TableName specifies the table name for TaskGroup
func (TaskGroup) TableName() string {
	return "task_groups"
}

// GroupDeleteStrategy decides what happens to the tasks of a deleted group
type GroupDeleteStrategy string

const (
	GroupDeleteReassign GroupDeleteStrategy = "reassign"
	GroupDeleteOrphan   GroupDeleteStrategy = "orphan"
)

// IsValid reports whether s is a known strategy
func (s GroupDeleteStrategy) IsValid() bool {
	return s == GroupDeleteReassign || s == GroupDeleteOrphan
}
