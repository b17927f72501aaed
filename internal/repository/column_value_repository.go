package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"task-board-api/internal/domain"
)

// ColumnValueRepository defines the interface for per-task column values
type ColumnValueRepository interface {
	Upsert(ctx context.Context, value *domain.TaskColumnValue) error
	Find(ctx context.Context, taskID, columnID uuid.UUID) (*domain.TaskColumnValue, error)
	FindByTaskIDs(ctx context.Context, taskIDs []uuid.UUID) ([]*domain.TaskColumnValue, error)
	Delete(ctx context.Context, taskID, columnID uuid.UUID) error
	DeleteByColumnID(ctx context.Context, columnID uuid.UUID) error
	DeleteByTaskIDs(ctx context.Context, taskIDs []uuid.UUID) error
	WithTx(tx *gorm.DB) ColumnValueRepository
}

type columnValueRepositoryImpl struct {
	db *gorm.DB
}

// NewColumnValueRepository creates a new instance of ColumnValueRepository
func NewColumnValueRepository(db *gorm.DB) ColumnValueRepository {
	return &columnValueRepositoryImpl{db: db}
}

func (r *columnValueRepositoryImpl) WithTx(tx *gorm.DB) ColumnValueRepository {
	return &columnValueRepositoryImpl{db: tx}
}

// Upsert writes the value for (task, column), replacing every slot of an existing row
func (r *columnValueRepositoryImpl) Upsert(ctx context.Context, value *domain.TaskColumnValue) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "task_id"}, {Name: "column_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"text_value", "number_value", "date_value", "bool_value", "json_value", "updated_at",
		}),
	}).Create(value).Error
}

func (r *columnValueRepositoryImpl) Find(ctx context.Context, taskID, columnID uuid.UUID) (*domain.TaskColumnValue, error) {
	var value domain.TaskColumnValue
	if err := r.db.WithContext(ctx).
		Where("task_id = ? AND column_id = ?", taskID, columnID).
		First(&value).Error; err != nil {
		return nil, err
	}
	return &value, nil
}

func (r *columnValueRepositoryImpl) FindByTaskIDs(ctx context.Context, taskIDs []uuid.UUID) ([]*domain.TaskColumnValue, error) {
	if len(taskIDs) == 0 {
		return []*domain.TaskColumnValue{}, nil
	}
	var values []*domain.TaskColumnValue
	if err := r.db.WithContext(ctx).Where("task_id IN ?", taskIDs).Find(&values).Error; err != nil {
		return nil, err
	}
	return values, nil
}

func (r *columnValueRepositoryImpl) Delete(ctx context.Context, taskID, columnID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("task_id = ? AND column_id = ?", taskID, columnID).
		Delete(&domain.TaskColumnValue{}).Error
}

func (r *columnValueRepositoryImpl) DeleteByColumnID(ctx context.Context, columnID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("column_id = ?", columnID).Delete(&domain.TaskColumnValue{}).Error
}

func (r *columnValueRepositoryImpl) DeleteByTaskIDs(ctx context.Context, taskIDs []uuid.UUID) error {
	if len(taskIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("task_id IN ?", taskIDs).Delete(&domain.TaskColumnValue{}).Error
}
