package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"task-board-api/internal/domain"
)

// GroupRepository defines the interface for task group data access
type GroupRepository interface {
	Create(ctx context.Context, group *domain.TaskGroup) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.TaskGroup, error)
	FindByProjectID(ctx context.Context, projectID uuid.UUID) ([]*domain.TaskGroup, error)
	Update(ctx context.Context, group *domain.TaskGroup) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByProjectID(ctx context.Context, projectID uuid.UUID) error
	Positions(ctx context.Context, projectID uuid.UUID) ([]PositionRow, error)
	Repack(ctx context.Context, projectID uuid.UUID, ordered []uuid.UUID) error
	WithTx(tx *gorm.DB) GroupRepository
}

type groupRepositoryImpl struct {
	db *gorm.DB
}

// NewGroupRepository creates a new instance of GroupRepository
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepositoryImpl{db: db}
}

func (r *groupRepositoryImpl) WithTx(tx *gorm.DB) GroupRepository {
	return &groupRepositoryImpl{db: tx}
}

func (r *groupRepositoryImpl) Create(ctx context.Context, group *domain.TaskGroup) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *groupRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.TaskGroup, error) {
	var group domain.TaskGroup
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// FindByProjectID returns groups ordered by position
func (r *groupRepositoryImpl) FindByProjectID(ctx context.Context, projectID uuid.UUID) ([]*domain.TaskGroup, error) {
	var groups []*domain.TaskGroup
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("position ASC, created_at ASC").
		Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

// Update saves the non-ordering fields of a group
func (r *groupRepositoryImpl) Update(ctx context.Context, group *domain.TaskGroup) error {
	return r.db.WithContext(ctx).Model(group).
		Select("name", "color", "is_collapsed", "updated_at").
		Updates(group).Error
}

func (r *groupRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.TaskGroup{}).Error
}

func (r *groupRepositoryImpl) DeleteByProjectID(ctx context.Context, projectID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("project_id = ?", projectID).Delete(&domain.TaskGroup{}).Error
}

func (r *groupRepositoryImpl) Positions(ctx context.Context, projectID uuid.UUID) ([]PositionRow, error) {
	var rows []PositionRow
	if err := r.db.WithContext(ctx).Model(&domain.TaskGroup{}).
		Select("id", "position").
		Where("project_id = ?", projectID).
		Order("position ASC, created_at ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *groupRepositoryImpl) Repack(ctx context.Context, projectID uuid.UUID, ordered []uuid.UUID) error {
	rows, err := r.Positions(ctx, projectID)
	if err != nil {
		return err
	}
	return applyPositions(r.db.WithContext(ctx), &domain.TaskGroup{}, ordered, positionMap(rows))
}
