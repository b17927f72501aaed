package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreateGroupRequest represents the request to create a task group
// @Description The group is appended after the last group. color defaults to #579BFC.
type CreateGroupRequest struct {
	Name  string  `json:"name" binding:"required,min=1,max=100" example:"This week"`
	Color *string `json:"color,omitempty" binding:"omitempty,hexcolor" example:"#00C875"`
}

// UpdateGroupRequest represents the request to update a group. All fields are optional.
type UpdateGroupRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100" example:"Next week"`
	Color       *string `json:"color" binding:"omitempty,hexcolor" example:"#FDAB3D"`
	IsCollapsed *bool   `json:"isCollapsed" example:"true"`
}

// DeleteGroupRequest decides where the tasks of a deleted group go
// @Description strategy "reassign" appends the tasks to targetGroupId, "orphan" moves them to the ungrouped list
type DeleteGroupRequest struct {
	Strategy      string     `json:"strategy" binding:"required,oneof=reassign orphan" example:"reassign"`
	TargetGroupID *uuid.UUID `json:"targetGroupId,omitempty" example:"f47ac10b-58cc-4372-a567-0e02b2c3d479"`
}

// GroupResponse represents a task group
type GroupResponse struct {
	GroupID     uuid.UUID `json:"groupId"`
	ProjectID   uuid.UUID `json:"projectId"`
	Name        string    `json:"name" example:"This week"`
	Color       string    `json:"color" example:"#579BFC"`
	Position    int       `json:"position" example:"0"`
	IsCollapsed bool      `json:"isCollapsed" example:"false"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DeleteGroupResponse reports the tasks moved out of a deleted group
type DeleteGroupResponse struct {
	GroupID    uuid.UUID   `json:"groupId"`
	MovedTasks []uuid.UUID `json:"movedTaskIds"`
	Target     ScopeOrder  `json:"target"`
}
