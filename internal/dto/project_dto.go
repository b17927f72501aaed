package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreateProjectRequest represents the request to create a new project
// @Description Request body for creating a project. Default columns and a first group are created with it.
type CreateProjectRequest struct {
	WorkspaceID uuid.UUID `json:"workspaceId" binding:"required" example:"539167fb-b599-41ba-9ead-344a6d0b3a2f"`
	Name        string    `json:"name" binding:"required,min=2,max=100" example:"Q3 Campaign Launch"`
	Description string    `json:"description" binding:"max=500" example:"Paid social and newsletter push for the Q3 launch"`
}

// ProjectResponse represents the project response
type ProjectResponse struct {
	ID          uuid.UUID `json:"projectId" example:"539167fb-b599-41ba-9ead-344a6d0b3a2f"`
	WorkspaceID uuid.UUID `json:"workspaceId" example:"a1b2c3d4-e5f6-7890-abcd-ef1234567890"`
	OwnerID     uuid.UUID `json:"ownerId" example:"b2c3d4e5-f6a7-8901-bcde-f12345678901"`
	Name        string    `json:"name" example:"Q3 Campaign Launch"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt" example:"2024-01-15T10:30:00Z"`
	UpdatedAt   time.Time `json:"updatedAt" example:"2024-01-15T14:20:00Z"`
}
