package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"task-board-api/internal/client"
	"task-board-api/internal/domain"
	"task-board-api/internal/dto"
	"task-board-api/internal/repository"
	"task-board-api/internal/response"
)

// TempAttachmentTTL is how long an unconfirmed upload is kept before cleanup
const TempAttachmentTTL = time.Hour

// AttachmentService defines the interface for task attachments
type AttachmentService interface {
	GeneratePresignedURL(ctx context.Context, req *dto.PresignedURLRequest) (*dto.PresignedURLResponse, error)
	ConfirmAttachments(ctx context.Context, taskID uuid.UUID, req *dto.ConfirmAttachmentsRequest) (*dto.ConfirmAttachmentsResponse, error)
	ListAttachments(ctx context.Context, taskID uuid.UUID) ([]dto.AttachmentResponse, error)
	DeleteAttachment(ctx context.Context, attachmentID uuid.UUID) error
}

type attachmentServiceImpl struct {
	attachmentRepo repository.AttachmentRepository
	taskRepo       repository.TaskRepository
	projectRepo    repository.ProjectRepository
	s3Client       client.S3ClientInterface
	dispatcher     TaskDispatcher
	logger         *zap.Logger
}

// NewAttachmentService creates a new instance of AttachmentService
func NewAttachmentService(
	attachmentRepo repository.AttachmentRepository,
	taskRepo repository.TaskRepository,
	projectRepo repository.ProjectRepository,
	s3Client client.S3ClientInterface,
	dispatcher TaskDispatcher,
	logger *zap.Logger,
) AttachmentService {
	return &attachmentServiceImpl{
		attachmentRepo: attachmentRepo,
		taskRepo:       taskRepo,
		projectRepo:    projectRepo,
		s3Client:       s3Client,
		dispatcher:     dispatcher,
		logger:         logger,
	}
}

// GeneratePresignedURL creates a TEMP attachment and returns where to upload it
func (s *attachmentServiceImpl) GeneratePresignedURL(ctx context.Context, req *dto.PresignedURLRequest) (*dto.PresignedURLResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if s.s3Client == nil {
		return nil, response.NewInternalError("File storage is not configured", "")
	}
	if _, err := s.projectRepo.FindByID(ctx, req.ProjectID); err != nil {
		return nil, repoError(err, "Project not found", "Failed to verify project")
	}

	uploadURL, fileKey, err := s.s3Client.GeneratePresignedURL(ctx, req.ProjectID.String(), req.FileName, req.ContentType)
	if err != nil {
		s.logger.Error("Failed to generate presigned URL",
			zap.String("project_id", req.ProjectID.String()),
			zap.String("file_name", req.FileName),
			zap.Error(err),
		)
		return nil, response.NewInternalError("Failed to generate upload URL", err.Error())
	}

	expiresAt := time.Now().UTC().Add(TempAttachmentTTL)
	attachment := &domain.TaskAttachment{
		ProjectID:   req.ProjectID,
		Status:      domain.AttachmentStatusTemp,
		FileName:    req.FileName,
		FileKey:     fileKey,
		FileSize:    req.FileSize,
		ContentType: req.ContentType,
		UploadedBy:  userID,
		ExpiresAt:   &expiresAt,
	}
	if err := s.attachmentRepo.Create(ctx, attachment); err != nil {
		return nil, response.NewInternalError("Failed to save attachment", err.Error())
	}

	return &dto.PresignedURLResponse{
		AttachmentID: attachment.ID,
		UploadURL:    uploadURL,
		FileKey:      fileKey,
		ExpiresIn:    int(client.PresignExpiry.Seconds()),
	}, nil
}

// ConfirmAttachments links TEMP uploads of the task's project to the task.
// Each confirmed file raises attachment_added.
func (s *attachmentServiceImpl) ConfirmAttachments(ctx context.Context, taskID uuid.UUID, req *dto.ConfirmAttachmentsRequest) (*dto.ConfirmAttachmentsResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, repoError(err, "Task not found", "Failed to load task")
	}

	ids := uniqueIDs(req.AttachmentIDs)
	for _, id := range ids {
		attachment, err := s.attachmentRepo.FindByID(ctx, id)
		if err != nil {
			return nil, repoError(err, "Attachment not found", "Failed to load attachment")
		}
		if attachment.Status != domain.AttachmentStatusTemp {
			return nil, response.NewValidationError("Attachment is already confirmed", id.String())
		}
		if attachment.ProjectID != task.ProjectID {
			return nil, response.NewValidationError("Attachment belongs to another project", id.String())
		}
	}

	if err := s.attachmentRepo.ConfirmAttachments(ctx, ids, taskID); err != nil {
		return nil, response.NewConflictError("Failed to confirm attachments", err.Error())
	}

	confirmed, err := s.attachmentRepo.FindByTaskID(ctx, taskID)
	if err != nil {
		return nil, response.NewInternalError("Failed to load attachments", err.Error())
	}

	events := make([]domain.MutationEvent, len(ids))
	for i, id := range ids {
		events[i] = domain.NewMutationEvent(task, domain.EventAttachmentAdded, domain.FieldNone, "", id.String(), domain.UserActor(userID))
	}
	resp := &dto.ConfirmAttachmentsResponse{Attachments: s.toResponses(confirmed)}
	if s.dispatcher != nil {
		resp.Automation = toAutomationSummary(s.dispatcher.Dispatch(ctx, events))
	}

	s.logger.Info("Attachments confirmed",
		zap.String("task_id", taskID.String()),
		zap.Int("count", len(ids)),
	)
	return resp, nil
}

func (s *attachmentServiceImpl) ListAttachments(ctx context.Context, taskID uuid.UUID) ([]dto.AttachmentResponse, error) {
	if _, err := s.taskRepo.FindByID(ctx, taskID); err != nil {
		return nil, repoError(err, "Task not found", "Failed to load task")
	}
	attachments, err := s.attachmentRepo.FindByTaskID(ctx, taskID)
	if err != nil {
		return nil, response.NewInternalError("Failed to list attachments", err.Error())
	}
	return s.toResponses(attachments), nil
}

// DeleteAttachment removes the file and its record. Only the uploader may delete it.
func (s *attachmentServiceImpl) DeleteAttachment(ctx context.Context, attachmentID uuid.UUID) error {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return err
	}
	attachment, err := s.attachmentRepo.FindByID(ctx, attachmentID)
	if err != nil {
		return repoError(err, "Attachment not found", "Failed to load attachment")
	}
	if attachment.UploadedBy != userID {
		return response.NewForbiddenError("Only the uploader can delete this attachment", "")
	}

	if err := s.attachmentRepo.Delete(ctx, attachmentID); err != nil {
		return response.NewInternalError("Failed to delete attachment", err.Error())
	}
	deleteS3Files(ctx, s.s3Client, []*domain.TaskAttachment{attachment}, s.logger)
	return nil
}

func (s *attachmentServiceImpl) toResponses(attachments []*domain.TaskAttachment) []dto.AttachmentResponse {
	out := make([]dto.AttachmentResponse, len(attachments))
	for i, a := range attachments {
		fileURL := ""
		if s.s3Client != nil {
			fileURL = s.s3Client.GetFileURL(a.FileKey)
		}
		out[i] = dto.AttachmentResponse{
			ID:          a.ID,
			TaskID:      a.TaskID,
			FileName:    a.FileName,
			FileURL:     fileURL,
			FileSize:    a.FileSize,
			ContentType: a.ContentType,
			Status:      string(a.Status),
			UploadedBy:  a.UploadedBy,
			UploadedAt:  a.CreatedAt,
		}
	}
	return out
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
