package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func column(ct ColumnType) *ColumnDefinition {
	return &ColumnDefinition{BaseModel: BaseModel{ID: uuid.New()}, ColumnType: ct}
}

func TestColumnType_ValueSlot(t *testing.T) {
	expected := map[ColumnType]ValueSlot{
		ColumnTypeText:     SlotText,
		ColumnTypeStatus:   SlotText,
		ColumnTypePerson:   SlotText,
		ColumnTypeDropdown: SlotText,
		ColumnTypeDate:     SlotDate,
		ColumnTypeNumber:   SlotNumber,
		ColumnTypeProgress: SlotNumber,
		ColumnTypeCheckbox: SlotBool,
		ColumnTypeTags:     SlotJSON,
		ColumnTypeFiles:    SlotJSON,
	}
	for _, ct := range AllColumnTypes {
		assert.Equal(t, expected[ct], ct.ValueSlot(), string(ct))
		assert.True(t, ct.IsValid())
	}
	assert.False(t, ColumnType("formula").IsValid())
}

func TestNormalizeColumnValue_Accepts(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name   string
		ct     ColumnType
		raw    string
		assert func(t *testing.T, v *TaskColumnValue)
	}{
		{"text", ColumnTypeText, `"hello"`, func(t *testing.T, v *TaskColumnValue) {
			assert.Equal(t, "hello", *v.TextValue)
		}},
		{"person", ColumnTypePerson, `"` + userID.String() + `"`, func(t *testing.T, v *TaskColumnValue) {
			assert.Equal(t, userID.String(), *v.TextValue)
		}},
		{"number", ColumnTypeNumber, `42.5`, func(t *testing.T, v *TaskColumnValue) {
			assert.Equal(t, 42.5, *v.NumberValue)
		}},
		{"progress clamped high", ColumnTypeProgress, `140`, func(t *testing.T, v *TaskColumnValue) {
			assert.Equal(t, 100.0, *v.NumberValue)
		}},
		{"progress clamped low", ColumnTypeProgress, `-3`, func(t *testing.T, v *TaskColumnValue) {
			assert.Equal(t, 0.0, *v.NumberValue)
		}},
		{"date only", ColumnTypeDate, `"2025-03-14"`, func(t *testing.T, v *TaskColumnValue) {
			assert.True(t, v.DateValue.Equal(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)))
		}},
		{"rfc3339 date", ColumnTypeDate, `"2025-03-14T09:30:00+09:00"`, func(t *testing.T, v *TaskColumnValue) {
			assert.Equal(t, time.UTC, v.DateValue.Location())
			assert.Equal(t, 0, v.DateValue.Hour())
		}},
		{"checkbox", ColumnTypeCheckbox, `true`, func(t *testing.T, v *TaskColumnValue) {
			assert.True(t, *v.BoolValue)
		}},
		{"tags deduplicated", ColumnTypeTags, `["a","b","a"]`, func(t *testing.T, v *TaskColumnValue) {
			assert.JSONEq(t, `["a","b"]`, string(v.JSONValue))
		}},
		{"files", ColumnTypeFiles, `["k1","k2"]`, func(t *testing.T, v *TaskColumnValue) {
			assert.JSONEq(t, `["k1","k2"]`, string(v.JSONValue))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NormalizeColumnValue(column(tt.ct), json.RawMessage(tt.raw))
			require.NoError(t, err)
			require.NotNil(t, v)
			tt.assert(t, v)
		})
	}
}

func TestNormalizeColumnValue_EmptyMeansUnset(t *testing.T) {
	tests := []struct {
		ct  ColumnType
		raw string
	}{
		{ColumnTypeText, `null`},
		{ColumnTypeText, `""`},
		{ColumnTypeDate, `""`},
		{ColumnTypeTags, `[]`},
		{ColumnTypeNumber, ``},
	}
	for _, tt := range tests {
		v, err := NormalizeColumnValue(column(tt.ct), json.RawMessage(tt.raw))
		assert.NoError(t, err, "%s %s", tt.ct, tt.raw)
		assert.Nil(t, v, "%s %s", tt.ct, tt.raw)
	}
}

func TestNormalizeColumnValue_TypeMismatch(t *testing.T) {
	tests := []struct {
		name string
		ct   ColumnType
		raw  string
	}{
		{"date rejects number", ColumnTypeDate, `12`},
		{"date rejects garbage", ColumnTypeDate, `"next tuesday"`},
		{"number rejects string", ColumnTypeNumber, `"12"`},
		{"checkbox rejects string", ColumnTypeCheckbox, `"yes"`},
		{"text rejects object", ColumnTypeText, `{"a":1}`},
		{"person rejects non-uuid", ColumnTypePerson, `"bob"`},
		{"tags rejects mixed array", ColumnTypeTags, `["a",1]`},
		{"files rejects string", ColumnTypeFiles, `"file.pdf"`},
		{"invalid json", ColumnTypeText, `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NormalizeColumnValue(column(tt.ct), json.RawMessage(tt.raw))
			assert.Nil(t, v)
			assert.True(t, errors.Is(err, ErrTypeMismatch), "got %v", err)
		})
	}
}

func TestNormalizeColumnValue_StatusOptions(t *testing.T) {
	col := column(ColumnTypeStatus)
	col.Settings = datatypes.JSON(`{"options":["Working on it","Done","Stuck"]}`)

	v, err := NormalizeColumnValue(col, json.RawMessage(`"Done"`))
	require.NoError(t, err)
	assert.Equal(t, "Done", *v.TextValue)

	_, err = NormalizeColumnValue(col, json.RawMessage(`"Maybe"`))
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestTaskColumnValue_Typed(t *testing.T) {
	text := "x"
	num := 3.0
	day := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	flag := false

	assert.Equal(t, "x", (&TaskColumnValue{TextValue: &text}).Typed())
	assert.Equal(t, 3.0, (&TaskColumnValue{NumberValue: &num}).Typed())
	assert.Equal(t, "2025-01-02T00:00:00Z", (&TaskColumnValue{DateValue: &day}).Typed())
	assert.Equal(t, false, (&TaskColumnValue{BoolValue: &flag}).Typed())
	assert.Nil(t, (&TaskColumnValue{}).Typed())
}
