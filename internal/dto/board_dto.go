package dto

import "github.com/google/uuid"

// BoardResponse is the projected board: columns, then groups with their tasks and values.
// The ungrouped list comes last with a null group.
type BoardResponse struct {
	ProjectID uuid.UUID            `json:"projectId"`
	Columns   []ColumnResponse     `json:"columns"`
	Groups    []BoardGroupResponse `json:"groups"`
}

// BoardGroupResponse is one group section of the board
type BoardGroupResponse struct {
	Group *GroupResponse      `json:"group"`
	Tasks []BoardTaskResponse `json:"tasks"`
}

// BoardTaskResponse is a task row with its column values keyed by column id
type BoardTaskResponse struct {
	TaskResponse
	Values map[string]interface{} `json:"values"`
}
