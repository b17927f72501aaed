package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"task-board-api/internal/automation"
	"task-board-api/internal/domain"
	"task-board-api/internal/dto"
	"task-board-api/internal/repository"
	"task-board-api/internal/response"
)

// userIDFromContext extracts user_id set by the auth middleware
func userIDFromContext(ctx context.Context) (uuid.UUID, error) {
	userID, ok := ctx.Value("user_id").(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, response.NewAppError(response.ErrCodeUnauthorized, "User ID not found in context", "")
	}
	return userID, nil
}

// repoError maps gorm.ErrRecordNotFound to NOT_FOUND and passes AppErrors through
func repoError(err error, notFoundMsg, internalMsg string) error {
	if err == nil {
		return nil
	}
	var appErr *response.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NewNotFoundError(notFoundMsg, "")
	}
	return response.NewInternalError(internalMsg, err.Error())
}

// runSequenceTx runs fn under the scope locks inside one transaction.
// A sequence conflict is retried once before it is surfaced as CONFLICT.
func runSequenceTx(ctx context.Context, locker *ScopeLocker, tx repository.Transactor, keys []string, fn func(tx *gorm.DB) error) error {
	return retrySequence(func() error {
		return lockedTx(ctx, locker, tx, keys, fn)
	})
}

// retrySequence runs attempt, and once more when it lost a race on a position sequence.
// attempt must re-read whatever it decided on, the second run starts from scratch.
func retrySequence(attempt func() error) error {
	err := attempt()
	if errors.Is(err, errSequenceConflict) {
		err = attempt()
	}
	if errors.Is(err, errSequenceConflict) {
		return response.NewConflictError("Position sequence changed concurrently", "please retry")
	}
	return err
}

// lockedTx holds keys for the duration of one transaction
func lockedTx(ctx context.Context, locker *ScopeLocker, tx repository.Transactor, keys []string, fn func(tx *gorm.DB) error) error {
	unlock := locker.Lock(keys...)
	defer unlock()
	return tx.WithinTransaction(ctx, fn)
}

// taskLockKey serializes field updates of one task
func taskLockKey(taskID uuid.UUID) string {
	return "task:" + taskID.String()
}

// verifyGroupTx checks the target group inside the transaction that writes into it,
// so a group deleted while the writer waited for the scope lock is not written to
func verifyGroupTx(ctx context.Context, groups repository.GroupRepository, projectID uuid.UUID, groupID *uuid.UUID) error {
	if groupID == nil {
		return nil
	}
	group, err := groups.FindByID(ctx, *groupID)
	if err != nil {
		return repoError(err, "Group not found", "Failed to verify group")
	}
	if group.ProjectID != projectID {
		return response.NewValidationError("Group belongs to another project", "")
	}
	return nil
}

func toProjectResponse(p *domain.Project) *dto.ProjectResponse {
	return &dto.ProjectResponse{
		ID:          p.ID,
		WorkspaceID: p.WorkspaceID,
		OwnerID:     p.OwnerID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toColumnResponse(c *domain.ColumnDefinition) dto.ColumnResponse {
	var settings json.RawMessage
	if len(c.Settings) > 0 {
		settings = json.RawMessage(c.Settings)
	}
	return dto.ColumnResponse{
		ColumnID:   c.ID,
		ProjectID:  c.ProjectID,
		ColumnType: string(c.ColumnType),
		Name:       c.Name,
		Position:   c.Position,
		Width:      c.Width,
		IsVisible:  c.IsVisible,
		IsRequired: c.IsRequired,
		Settings:   settings,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func toGroupResponse(g *domain.TaskGroup) *dto.GroupResponse {
	return &dto.GroupResponse{
		GroupID:     g.ID,
		ProjectID:   g.ProjectID,
		Name:        g.Name,
		Color:       g.Color,
		Position:    g.Position,
		IsCollapsed: g.IsCollapsed,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

func toTaskResponse(t *domain.Task) *dto.TaskResponse {
	assignees := t.AdditionalAssigneeIDs
	if assignees == nil {
		assignees = []uuid.UUID{}
	}
	return &dto.TaskResponse{
		TaskID:                t.ID,
		ProjectID:             t.ProjectID,
		GroupID:               t.GroupID,
		ParentTaskID:          t.ParentTaskID,
		Title:                 t.Title,
		Description:           t.Description,
		Status:                string(t.Status),
		Priority:              string(t.Priority),
		AssigneeID:            t.AssigneeID,
		AdditionalAssigneeIDs: assignees,
		DueDate:               t.DueDate,
		Progress:              t.Progress,
		Tags:                  t.TagList(),
		Position:              t.Position,
		CreatedBy:             t.CreatedBy,
		CreatedAt:             t.CreatedAt,
		UpdatedAt:             t.UpdatedAt,
	}
}

func toRuleResponse(r *domain.AutomationRule) *dto.RuleResponse {
	return &dto.RuleResponse{
		RuleID:        r.ID,
		ProjectID:     r.ProjectID,
		Name:          r.Name,
		Trigger:       string(r.Trigger),
		TriggerConfig: rawOrEmpty(r.TriggerConfig),
		Action:        string(r.Action),
		ActionConfig:  rawOrEmpty(r.ActionConfig),
		IsActive:      r.IsActive,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func toCommentResponse(c *domain.TaskComment) *dto.CommentResponse {
	return &dto.CommentResponse{
		CommentID: c.ID,
		TaskID:    c.TaskID,
		UserID:    c.UserID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toActivityResponse(a *domain.TaskActivity) dto.ActivityResponse {
	return dto.ActivityResponse{
		ActivityID: a.ID,
		TaskID:     a.TaskID,
		Kind:       string(a.Kind),
		Field:      string(a.Field),
		OldValue:   a.OldValue,
		NewValue:   a.NewValue,
		ActorType:  string(a.ActorType),
		ActorID:    a.ActorID,
		RuleID:     a.RuleID,
		ChainDepth: a.ChainDepth,
		OccurredAt: a.OccurredAt,
	}
}

func toAutomationSummary(r *automation.ChainResult) *dto.AutomationSummary {
	if r == nil {
		return nil
	}
	firings := make([]dto.FiringResponse, len(r.Firings))
	for i, f := range r.Firings {
		firings[i] = dto.FiringResponse{
			RuleID:   f.RuleID,
			RuleName: f.RuleName,
			TaskID:   f.TaskID,
			Action:   string(f.Action),
			Depth:    f.Depth,
			Error:    f.Error,
		}
	}
	return &dto.AutomationSummary{
		EventsProcessed: r.EventsProcessed,
		Firings:         firings,
		MaxDepth:        r.MaxDepth,
		CycleDetected:   r.CycleDetected,
	}
}

func rawOrEmpty(raw []byte) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("{}")
	}
	return json.RawMessage(raw)
}
