package domain

import (
	"time"

	"github.com/google/uuid"
)

// DueDateFiring records that a due-date rule fired for a task on a UTC calendar day
type DueDateFiring struct {
	RuleID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"rule_id"`
	TaskID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"task_id"`
	FireDate  string    `gorm:"type:varchar(10);primaryKey" json:"fire_date"` // YYYY-MM-DD
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

// TableName specifies the table name for DueDateFiring
func (DueDateFiring) TableName() string {
	return "due_date_firings"
}

// CalendarDay truncates t to its UTC calendar day
func CalendarDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysUntil is the number of UTC calendar days from now until due
func DaysUntil(due, now time.Time) int {
	return int(CalendarDay(due).Sub(CalendarDay(now)).Hours() / 24)
}

// DayKey formats the UTC calendar day of t as YYYY-MM-DD
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
