package domain

import (
	"time"

	"github.com/google/uuid"
)

// AttachmentStatus represents the status of an attachment
type AttachmentStatus string

const (
	AttachmentStatusTemp      AttachmentStatus = "TEMP"      // uploaded but not yet linked to a task
	AttachmentStatusConfirmed AttachmentStatus = "CONFIRMED" // linked to a task
)

// TaskAttachment is a file stored in S3. TaskID stays nil until the upload is confirmed.
type TaskAttachment struct {
	BaseModel
	ProjectID   uuid.UUID        `gorm:"type:uuid;not null;index:idx_task_attachments_project_id" json:"project_id"`
	TaskID      *uuid.UUID       `gorm:"type:uuid;index:idx_task_attachments_task_id" json:"task_id"`
	Status      AttachmentStatus `gorm:"type:varchar(20);not null;index:idx_task_attachments_status" json:"status"`
	FileName    string           `gorm:"type:varchar(255);not null" json:"file_name"`
	FileKey     string           `gorm:"type:text;not null" json:"file_key"` // S3 key, not a full URL
	FileSize    int64            `gorm:"not null" json:"file_size"`
	ContentType string           `gorm:"type:varchar(100);not null" json:"content_type"`
	UploadedBy  uuid.UUID        `gorm:"type:uuid;not null" json:"uploaded_by"`
	ExpiresAt   *time.Time       `gorm:"type:timestamp;index:idx_task_attachments_expires_at" json:"expires_at"`
}

// TableName specifies the table name for TaskAttachment
func (TaskAttachment) TableName() string {
	return "task_attachments"
}
