package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"task-board-api/internal/client"
	"task-board-api/internal/domain"
	"task-board-api/internal/dto"
	"task-board-api/internal/repository"
	"task-board-api/internal/response"
)

// CommentService defines the interface for task comments
type CommentService interface {
	AddComment(ctx context.Context, taskID uuid.UUID, req *dto.CreateCommentRequest) (*dto.CommentMutationResponse, error)
	ListComments(ctx context.Context, taskID uuid.UUID) ([]*dto.CommentResponse, error)
	UpdateComment(ctx context.Context, commentID uuid.UUID, req *dto.UpdateCommentRequest) (*dto.CommentResponse, error)
	DeleteComment(ctx context.Context, commentID uuid.UUID) error
}

type commentServiceImpl struct {
	commentRepo repository.CommentRepository
	taskRepo    repository.TaskRepository
	dispatcher  TaskDispatcher
	notifier    client.NotificationClient
	logger      *zap.Logger
}

// NewCommentService creates a new instance of CommentService
func NewCommentService(
	commentRepo repository.CommentRepository,
	taskRepo repository.TaskRepository,
	dispatcher TaskDispatcher,
	notifier client.NotificationClient,
	logger *zap.Logger,
) CommentService {
	if notifier == nil {
		notifier = client.NewNoOpNotificationClient()
	}
	return &commentServiceImpl{
		commentRepo: commentRepo,
		taskRepo:    taskRepo,
		dispatcher:  dispatcher,
		notifier:    notifier,
		logger:      logger,
	}
}

// AddComment stores a comment and raises comment_added on the task
func (s *commentServiceImpl) AddComment(ctx context.Context, taskID uuid.UUID, req *dto.CreateCommentRequest) (*dto.CommentMutationResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, repoError(err, "Task not found", "Failed to load task")
	}

	comment := &domain.TaskComment{
		TaskID:  taskID,
		UserID:  userID,
		Content: req.Content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, response.NewInternalError("Failed to create comment", err.Error())
	}

	s.logger.Info("Comment created",
		zap.String("comment_id", comment.ID.String()),
		zap.String("task_id", taskID.String()),
	)

	if task.AssigneeID != nil && *task.AssigneeID != userID {
		err := s.notifier.SendNotification(ctx, client.NotificationEvent{
			Type:         client.NotificationCommentAdded,
			ActorID:      userID,
			TargetUserID: *task.AssigneeID,
			ResourceType: client.ResourceTypeTask,
			ResourceID:   task.ID,
			ResourceName: task.Title,
			Metadata: map[string]interface{}{
				"projectId": task.ProjectID.String(),
				"commentId": comment.ID.String(),
			},
		})
		if err != nil {
			s.logger.Warn("Failed to send comment notification",
				zap.String("task_id", taskID.String()),
				zap.Error(err),
			)
		}
	}

	resp := &dto.CommentMutationResponse{Comment: toCommentResponse(comment)}
	if s.dispatcher != nil {
		chain := s.dispatcher.Dispatch(ctx, []domain.MutationEvent{
			domain.NewMutationEvent(task, domain.EventCommentAdded, domain.FieldNone, "", comment.ID.String(), domain.UserActor(userID)),
		})
		resp.Automation = toAutomationSummary(chain)
	}
	return resp, nil
}

// ListComments returns a task's comments, oldest first
func (s *commentServiceImpl) ListComments(ctx context.Context, taskID uuid.UUID) ([]*dto.CommentResponse, error) {
	if _, err := s.taskRepo.FindByID(ctx, taskID); err != nil {
		return nil, repoError(err, "Task not found", "Failed to load task")
	}
	comments, err := s.commentRepo.FindByTaskID(ctx, taskID)
	if err != nil {
		return nil, response.NewInternalError("Failed to list comments", err.Error())
	}
	out := make([]*dto.CommentResponse, len(comments))
	for i, c := range comments {
		out[i] = toCommentResponse(c)
	}
	return out, nil
}

// UpdateComment edits a comment. Only its author may do so.
func (s *commentServiceImpl) UpdateComment(ctx context.Context, commentID uuid.UUID, req *dto.UpdateCommentRequest) (*dto.CommentResponse, error) {
	comment, err := s.ownComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	comment.Content = req.Content
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, response.NewInternalError("Failed to update comment", err.Error())
	}
	return toCommentResponse(comment), nil
}

// DeleteComment removes a comment. Only its author may do so.
func (s *commentServiceImpl) DeleteComment(ctx context.Context, commentID uuid.UUID) error {
	if _, err := s.ownComment(ctx, commentID); err != nil {
		return err
	}
	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		return response.NewInternalError("Failed to delete comment", err.Error())
	}
	return nil
}

func (s *commentServiceImpl) ownComment(ctx context.Context, commentID uuid.UUID) (*domain.TaskComment, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		return nil, repoError(err, "Comment not found", "Failed to load comment")
	}
	if comment.UserID != userID {
		return nil, response.NewForbiddenError("Only the author can change this comment", "")
	}
	return comment, nil
}
