package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"task-board-api/internal/domain"
)

// AttachmentRepository defines the interface for task attachment data access
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.TaskAttachment) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.TaskAttachment, error)
	FindByTaskID(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskAttachment, error)
	FindByTaskIDs(ctx context.Context, taskIDs []uuid.UUID) ([]*domain.TaskAttachment, error)
	FindExpiredTempAttachments(ctx context.Context, now time.Time) ([]*domain.TaskAttachment, error)
	ConfirmAttachments(ctx context.Context, attachmentIDs []uuid.UUID, taskID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteBatch(ctx context.Context, attachmentIDs []uuid.UUID) error
	WithTx(tx *gorm.DB) AttachmentRepository
}

type attachmentRepositoryImpl struct {
	db *gorm.DB
}

// NewAttachmentRepository creates a new instance of AttachmentRepository
func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepositoryImpl{db: db}
}

func (r *attachmentRepositoryImpl) WithTx(tx *gorm.DB) AttachmentRepository {
	return &attachmentRepositoryImpl{db: tx}
}

func (r *attachmentRepositoryImpl) Create(ctx context.Context, attachment *domain.TaskAttachment) error {
	return r.db.WithContext(ctx).Create(attachment).Error
}

func (r *attachmentRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.TaskAttachment, error) {
	var attachment domain.TaskAttachment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&attachment).Error; err != nil {
		return nil, err
	}
	return &attachment, nil
}

// FindByTaskID returns confirmed attachments of a task, newest first
func (r *attachmentRepositoryImpl) FindByTaskID(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskAttachment, error) {
	var attachments []*domain.TaskAttachment
	if err := r.db.WithContext(ctx).
		Where("task_id = ? AND status = ?", taskID, domain.AttachmentStatusConfirmed).
		Order("created_at DESC").
		Find(&attachments).Error; err != nil {
		return nil, err
	}
	return attachments, nil
}

func (r *attachmentRepositoryImpl) FindByTaskIDs(ctx context.Context, taskIDs []uuid.UUID) ([]*domain.TaskAttachment, error) {
	if len(taskIDs) == 0 {
		return []*domain.TaskAttachment{}, nil
	}
	var attachments []*domain.TaskAttachment
	if err := r.db.WithContext(ctx).Where("task_id IN ?", taskIDs).Find(&attachments).Error; err != nil {
		return nil, err
	}
	return attachments, nil
}

// FindExpiredTempAttachments finds temporary uploads whose expiry is before now
func (r *attachmentRepositoryImpl) FindExpiredTempAttachments(ctx context.Context, now time.Time) ([]*domain.TaskAttachment, error) {
	var attachments []*domain.TaskAttachment
	if err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", domain.AttachmentStatusTemp, now).
		Find(&attachments).Error; err != nil {
		return nil, err
	}
	return attachments, nil
}

// ConfirmAttachments links TEMP uploads to a task. Every id must still be TEMP.
func (r *attachmentRepositoryImpl) ConfirmAttachments(ctx context.Context, attachmentIDs []uuid.UUID, taskID uuid.UUID) error {
	if len(attachmentIDs) == 0 {
		return nil
	}

	// TEMP 상태만 업데이트
	result := r.db.WithContext(ctx).
		Model(&domain.TaskAttachment{}).
		Where("id IN ? AND status = ?", attachmentIDs, domain.AttachmentStatusTemp).
		Updates(map[string]interface{}{
			"status":     domain.AttachmentStatusConfirmed,
			"task_id":    taskID,
			"expires_at": nil,
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected != int64(len(attachmentIDs)) {
		return fmt.Errorf("expected to confirm %d attachment(s) but only confirmed %d",
			len(attachmentIDs), result.RowsAffected)
	}
	return nil
}

func (r *attachmentRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.TaskAttachment{}).Error
}

func (r *attachmentRepositoryImpl) DeleteBatch(ctx context.Context, attachmentIDs []uuid.UUID) error {
	if len(attachmentIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", attachmentIDs).Delete(&domain.TaskAttachment{}).Error
}
