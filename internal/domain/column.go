package domain

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ColumnType is the closed set of column kinds a board can define
type ColumnType string

const (
	ColumnTypeText     ColumnType = "text"
	ColumnTypeStatus   ColumnType = "status"
	ColumnTypePerson   ColumnType = "person"
	ColumnTypeDate     ColumnType = "date"
	ColumnTypeProgress ColumnType = "progress"
	ColumnTypeDropdown ColumnType = "dropdown"
	ColumnTypeTags     ColumnType = "tags"
	ColumnTypeNumber   ColumnType = "number"
	ColumnTypeCheckbox ColumnType = "checkbox"
	ColumnTypeFiles    ColumnType = "files"
)

// ValueSlot names the typed storage slot of a TaskColumnValue
type ValueSlot string

const (
	SlotText   ValueSlot = "text"
	SlotNumber ValueSlot = "number"
	SlotDate   ValueSlot = "date"
	SlotBool   ValueSlot = "bool"
	SlotJSON   ValueSlot = "json"
)

// AllColumnTypes lists every supported column type in display order
var AllColumnTypes = []ColumnType{
	ColumnTypeText, ColumnTypeStatus, ColumnTypePerson, ColumnTypeDate, ColumnTypeProgress,
	ColumnTypeDropdown, ColumnTypeTags, ColumnTypeNumber, ColumnTypeCheckbox, ColumnTypeFiles,
}

// IsValid reports whether t is a known column type
func (t ColumnType) IsValid() bool {
	return t.ValueSlot() != ""
}

// ValueSlot returns the storage slot used by values of this column type
func (t ColumnType) ValueSlot() ValueSlot {
	switch t {
	case ColumnTypeText, ColumnTypeStatus, ColumnTypePerson, ColumnTypeDropdown:
		return SlotText
	case ColumnTypeNumber, ColumnTypeProgress:
		return SlotNumber
	case ColumnTypeDate:
		return SlotDate
	case ColumnTypeCheckbox:
		return SlotBool
	case ColumnTypeTags, ColumnTypeFiles:
		return SlotJSON
	default:
		return ""
	}
}

// ColumnDefinition is a typed, project-scoped attribute slot rendered as a board field
type ColumnDefinition struct {
	BaseModel
	ProjectID  uuid.UUID      `gorm:"type:uuid;not null;index:idx_board_columns_project_position,priority:1" json:"project_id"`
	ColumnType ColumnType     `gorm:"type:varchar(20);not null" json:"column_type"`
	Name       string         `gorm:"type:varchar(255);not null" json:"name"`
	Position   int            `gorm:"not null;index:idx_board_columns_project_position,priority:2" json:"position"`
	Width      int            `gorm:"not null" json:"width"`
	IsVisible  bool           `gorm:"not null" json:"is_visible"`
	IsRequired bool           `gorm:"not null" json:"is_required"`
	Settings   datatypes.JSON `gorm:"type:jsonb" json:"settings"`
}

// TableName specifies the table name for ColumnDefinition
func (ColumnDefinition) TableName() string {
	return "board_columns"
}

// DefaultColumnWidth is used when a column is defined without a width
const DefaultColumnWidth = 150

// columnSettings is the subset of settings the value validator understands
type columnSettings struct {
	Options []string `json:"options"`
}

// Options returns the allowed values for status/dropdown columns, if any are configured
func (c *ColumnDefinition) Options() []string {
	if len(c.Settings) == 0 {
		return nil
	}
	var s columnSettings
	if err := json.Unmarshal(c.Settings, &s); err != nil {
		return nil
	}
	return s.Options
}
