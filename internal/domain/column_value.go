package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ErrTypeMismatch is returned when a value does not fit the column's declared type
var ErrTypeMismatch = errors.New("column value type mismatch")

// TaskColumnValue holds one explicitly set value of a (task, column) pair.
// Exactly one slot is non-nil and it matches the column's ValueSlot.
type TaskColumnValue struct {
	BaseModel
	TaskID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uq_task_column_values_task_column,priority:1" json:"task_id"`
	ColumnID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uq_task_column_values_task_column,priority:2;index:idx_task_column_values_column_id" json:"column_id"`
	TextValue   *string        `gorm:"type:text" json:"text_value,omitempty"`
	NumberValue *float64       `json:"number_value,omitempty"`
	DateValue   *time.Time     `gorm:"type:timestamp" json:"date_value,omitempty"`
	BoolValue   *bool          `json:"bool_value,omitempty"`
	JSONValue   datatypes.JSON `gorm:"type:jsonb" json:"json_value,omitempty"`
}

// TableName specifies the table name for TaskColumnValue
func (TaskColumnValue) TableName() string {
	return "task_column_values"
}

// Typed returns the value held in whichever slot is populated
func (v *TaskColumnValue) Typed() interface{} {
	switch {
	case v.TextValue != nil:
		return *v.TextValue
	case v.NumberValue != nil:
		return *v.NumberValue
	case v.DateValue != nil:
		return v.DateValue.UTC().Format(time.RFC3339)
	case v.BoolValue != nil:
		return *v.BoolValue
	case len(v.JSONValue) > 0:
		return json.RawMessage(v.JSONValue)
	default:
		return nil
	}
}

// NormalizeColumnValue validates raw against the column type and returns the row to store.
// A nil result with a nil error means the value is empty and the row should be deleted.
func NormalizeColumnValue(col *ColumnDefinition, raw json.RawMessage) (*TaskColumnValue, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: value is not valid JSON", ErrTypeMismatch)
	}

	v := &TaskColumnValue{ColumnID: col.ID}

	switch col.ColumnType {
	case ColumnTypeText, ColumnTypeStatus, ColumnTypeDropdown, ColumnTypePerson:
		s, ok := decoded.(string)
		if !ok {
			return nil, mismatch(col.ColumnType, "string", decoded)
		}
		if s == "" {
			return nil, nil
		}
		if col.ColumnType == ColumnTypePerson {
			if _, err := uuid.Parse(s); err != nil {
				return nil, fmt.Errorf("%w: person column expects a user id, got %q", ErrTypeMismatch, s)
			}
		}
		if col.ColumnType == ColumnTypeStatus || col.ColumnType == ColumnTypeDropdown {
			if opts := col.Options(); len(opts) > 0 && !containsString(opts, s) {
				return nil, fmt.Errorf("%w: %q is not one of the column options", ErrTypeMismatch, s)
			}
		}
		v.TextValue = &s

	case ColumnTypeNumber, ColumnTypeProgress:
		n, ok := decoded.(float64)
		if !ok {
			return nil, mismatch(col.ColumnType, "number", decoded)
		}
		if col.ColumnType == ColumnTypeProgress {
			n = math.Min(100, math.Max(0, n))
		}
		v.NumberValue = &n

	case ColumnTypeDate:
		s, ok := decoded.(string)
		if !ok {
			return nil, mismatch(col.ColumnType, "date string", decoded)
		}
		if s == "" {
			return nil, nil
		}
		t, err := ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a date", ErrTypeMismatch, s)
		}
		v.DateValue = &t

	case ColumnTypeCheckbox:
		b, ok := decoded.(bool)
		if !ok {
			return nil, mismatch(col.ColumnType, "boolean", decoded)
		}
		v.BoolValue = &b

	case ColumnTypeTags, ColumnTypeFiles:
		items, ok := decoded.([]interface{})
		if !ok {
			return nil, mismatch(col.ColumnType, "array of strings", decoded)
		}
		strs := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, mismatch(col.ColumnType, "array of strings", decoded)
			}
			strs = append(strs, s)
		}
		if col.ColumnType == ColumnTypeTags {
			strs = UniqueStrings(strs)
		}
		if len(strs) == 0 {
			return nil, nil
		}
		encoded, err := json.Marshal(strs)
		if err != nil {
			return nil, err
		}
		v.JSONValue = datatypes.JSON(encoded)

	default:
		return nil, fmt.Errorf("%w: unknown column type %q", ErrTypeMismatch, col.ColumnType)
	}

	return v, nil
}

// ParseDate accepts RFC3339 timestamps or plain YYYY-MM-DD dates and returns UTC
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func mismatch(ct ColumnType, want string, got interface{}) error {
	return fmt.Errorf("%w: %s column expects %s, got %s", ErrTypeMismatch, ct, want, jsonKind(got))
}

func jsonKind(v interface{}) string {
	switch v.(type) {
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return "null"
	}
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
