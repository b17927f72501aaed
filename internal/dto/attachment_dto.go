package dto

import (
	"time"

	"github.com/google/uuid"
)

// PresignedURLRequest asks for an upload URL for a new task attachment
// @Description The returned attachment stays TEMP until it is confirmed on a task
type PresignedURLRequest struct {
	ProjectID   uuid.UUID `json:"projectId" binding:"required"`
	FileName    string    `json:"fileName" binding:"required,min=1,max=255" example:"brief.pdf"`
	FileSize    int64     `json:"fileSize" binding:"required,min=1,max=52428800" example:"102400"`
	ContentType string    `json:"contentType" binding:"required" example:"application/pdf"`
}

// PresignedURLResponse carries the upload URL
type PresignedURLResponse struct {
	AttachmentID uuid.UUID `json:"attachmentId"`
	UploadURL    string    `json:"uploadUrl"`
	FileKey      string    `json:"fileKey" example:"tasks/539167fb-b599-41ba-9ead-344a6d0b3a2f/2024/01/uuid_1700000000.pdf"`
	ExpiresIn    int       `json:"expiresIn" example:"300"`
}

// ConfirmAttachmentsRequest links uploaded attachments to a task
type ConfirmAttachmentsRequest struct {
	AttachmentIDs []uuid.UUID `json:"attachmentIds" binding:"required,min=1,max=20"`
}

// AttachmentResponse represents the attachment metadata
type AttachmentResponse struct {
	ID          uuid.UUID  `json:"id"`
	TaskID      *uuid.UUID `json:"taskId,omitempty"`
	FileName    string     `json:"fileName" example:"brief.pdf"`
	FileURL     string     `json:"fileUrl"`
	FileSize    int64      `json:"fileSize" example:"102400"`
	ContentType string     `json:"contentType" example:"application/pdf"`
	Status      string     `json:"status" example:"CONFIRMED"`
	UploadedBy  uuid.UUID  `json:"uploadedBy"`
	UploadedAt  time.Time  `json:"uploadedAt"`
}

// ConfirmAttachmentsResponse lists the confirmed attachments and the automation they started
type ConfirmAttachmentsResponse struct {
	Attachments []AttachmentResponse `json:"attachments"`
	Automation  *AutomationSummary   `json:"automation,omitempty"`
}
