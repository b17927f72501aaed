package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"task-board-api/internal/domain"
)

// CommentRepository defines the interface for task comment data access
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.TaskComment) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.TaskComment, error)
	FindByTaskID(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskComment, error)
	Update(ctx context.Context, comment *domain.TaskComment) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByTaskIDs(ctx context.Context, taskIDs []uuid.UUID) error
	WithTx(tx *gorm.DB) CommentRepository
}

type commentRepositoryImpl struct {
	db *gorm.DB
}

// NewCommentRepository creates a new instance of CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepositoryImpl{db: db}
}

func (r *commentRepositoryImpl) WithTx(tx *gorm.DB) CommentRepository {
	return &commentRepositoryImpl{db: tx}
}

func (r *commentRepositoryImpl) Create(ctx context.Context, comment *domain.TaskComment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.TaskComment, error) {
	var comment domain.TaskComment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// FindByTaskID returns comments oldest first
func (r *commentRepositoryImpl) FindByTaskID(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskComment, error) {
	var comments []*domain.TaskComment
	if err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *commentRepositoryImpl) Update(ctx context.Context, comment *domain.TaskComment) error {
	return r.db.WithContext(ctx).Model(comment).Select("content", "updated_at").Updates(comment).Error
}

func (r *commentRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.TaskComment{}).Error
}

func (r *commentRepositoryImpl) DeleteByTaskIDs(ctx context.Context, taskIDs []uuid.UUID) error {
	if len(taskIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("task_id IN ?", taskIDs).Delete(&domain.TaskComment{}).Error
}
