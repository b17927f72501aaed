package domain

import "github.com/google/uuid"

// TaskComment is a user comment on a task
type TaskComment struct {
	BaseModel
	TaskID  uuid.UUID `gorm:"type:uuid;not null;index:idx_task_comments_task_id" json:"task_id"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;index:idx_task_comments_user_id" json:"user_id"`
	Content string    `gorm:"type:text;not null" json:"content"`
}

// TableName specifies the table name for TaskComment
func (TaskComment) TableName() string {
	return "task_comments"
}
