package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CreateColumnRequest represents the request to define a new board column
// @Description position is optional; omitted or past the end appends the column
// @Description settings is an opaque JSON object. status and dropdown columns read settings.options.
type CreateColumnRequest struct {
	ColumnType string          `json:"columnType" binding:"required,oneof=text status person date progress dropdown tags number checkbox files" example:"status"`
	Name       string          `json:"name" binding:"required,min=1,max=100" example:"Stage"`
	Position   *int            `json:"position,omitempty" example:"2"`
	Width      *int            `json:"width,omitempty" binding:"omitempty,min=40,max=1000" example:"150"`
	IsVisible  *bool           `json:"isVisible,omitempty" example:"true"`
	IsRequired bool            `json:"isRequired" example:"false"`
	Settings   json.RawMessage `json:"settings,omitempty" swaggertype:"object"`
}

// UpdateColumnRequest represents the request to update a column. All fields are optional.
type UpdateColumnRequest struct {
	Name       *string         `json:"name" binding:"omitempty,min=1,max=100" example:"Owner"`
	Width      *int            `json:"width" binding:"omitempty,min=40,max=1000" example:"200"`
	IsVisible  *bool           `json:"isVisible" example:"false"`
	IsRequired *bool           `json:"isRequired" example:"true"`
	Settings   json.RawMessage `json:"settings,omitempty" swaggertype:"object"`
}

// ReorderRequest moves a column or group to a new position
type ReorderRequest struct {
	Position *int `json:"position" binding:"required" example:"0"`
}

// ColumnResponse represents a column definition
type ColumnResponse struct {
	ColumnID   uuid.UUID       `json:"columnId"`
	ProjectID  uuid.UUID       `json:"projectId"`
	ColumnType string          `json:"columnType" example:"status"`
	Name       string          `json:"name" example:"Stage"`
	Position   int             `json:"position" example:"0"`
	Width      int             `json:"width" example:"150"`
	IsVisible  bool            `json:"isVisible" example:"true"`
	IsRequired bool            `json:"isRequired" example:"false"`
	Settings   json.RawMessage `json:"settings,omitempty" swaggertype:"object"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}
