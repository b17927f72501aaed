package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"task-board-api/internal/domain"
)

// ActivityRepository stores the audit trail of processed mutation events
type ActivityRepository interface {
	Create(ctx context.Context, activity *domain.TaskActivity) error
	FindByTaskID(ctx context.Context, taskID uuid.UUID, limit int) ([]*domain.TaskActivity, error)
	DeleteByTaskIDs(ctx context.Context, taskIDs []uuid.UUID) error
	WithTx(tx *gorm.DB) ActivityRepository
}

type activityRepositoryImpl struct {
	db *gorm.DB
}

// NewActivityRepository creates a new instance of ActivityRepository
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepositoryImpl{db: db}
}

func (r *activityRepositoryImpl) WithTx(tx *gorm.DB) ActivityRepository {
	return &activityRepositoryImpl{db: tx}
}

func (r *activityRepositoryImpl) Create(ctx context.Context, activity *domain.TaskActivity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

// FindByTaskID returns the newest activities first. limit <= 0 means no limit.
func (r *activityRepositoryImpl) FindByTaskID(ctx context.Context, taskID uuid.UUID, limit int) ([]*domain.TaskActivity, error) {
	query := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("occurred_at DESC, chain_depth DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var activities []*domain.TaskActivity
	if err := query.Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

func (r *activityRepositoryImpl) DeleteByTaskIDs(ctx context.Context, taskIDs []uuid.UUID) error {
	if len(taskIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("task_id IN ?", taskIDs).Delete(&domain.TaskActivity{}).Error
}
