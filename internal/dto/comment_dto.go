package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreateCommentRequest represents the request to comment on a task
type CreateCommentRequest struct {
	Content string `json:"content" binding:"required,min=1,max=5000"`
}

// UpdateCommentRequest represents the request to edit a comment
type UpdateCommentRequest struct {
	Content string `json:"content" binding:"required,min=1,max=5000"`
}

// CommentResponse represents the comment response
type CommentResponse struct {
	CommentID uuid.UUID `json:"commentId"`
	TaskID    uuid.UUID `json:"taskId"`
	UserID    uuid.UUID `json:"userId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CommentMutationResponse wraps a new comment with the automation it started
type CommentMutationResponse struct {
	Comment    *CommentResponse   `json:"comment"`
	Automation *AutomationSummary `json:"automation,omitempty"`
}
