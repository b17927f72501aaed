package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"task-board-api/internal/domain"
)

// ColumnRepository defines the interface for column definition data access
type ColumnRepository interface {
	Create(ctx context.Context, column *domain.ColumnDefinition) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.ColumnDefinition, error)
	FindByProjectID(ctx context.Context, projectID uuid.UUID) ([]*domain.ColumnDefinition, error)
	Update(ctx context.Context, column *domain.ColumnDefinition) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByProjectID(ctx context.Context, projectID uuid.UUID) error
	Positions(ctx context.Context, projectID uuid.UUID) ([]PositionRow, error)
	Repack(ctx context.Context, projectID uuid.UUID, ordered []uuid.UUID) error
	WithTx(tx *gorm.DB) ColumnRepository
}

type columnRepositoryImpl struct {
	db *gorm.DB
}

// NewColumnRepository creates a new instance of ColumnRepository
func NewColumnRepository(db *gorm.DB) ColumnRepository {
	return &columnRepositoryImpl{db: db}
}

func (r *columnRepositoryImpl) WithTx(tx *gorm.DB) ColumnRepository {
	return &columnRepositoryImpl{db: tx}
}

func (r *columnRepositoryImpl) Create(ctx context.Context, column *domain.ColumnDefinition) error {
	return r.db.WithContext(ctx).Create(column).Error
}

func (r *columnRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.ColumnDefinition, error) {
	var column domain.ColumnDefinition
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&column).Error; err != nil {
		return nil, err
	}
	return &column, nil
}

// FindByProjectID returns columns ordered by position
func (r *columnRepositoryImpl) FindByProjectID(ctx context.Context, projectID uuid.UUID) ([]*domain.ColumnDefinition, error) {
	var columns []*domain.ColumnDefinition
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("position ASC, created_at ASC").
		Find(&columns).Error; err != nil {
		return nil, err
	}
	return columns, nil
}

// Update saves the non-ordering fields of a column
func (r *columnRepositoryImpl) Update(ctx context.Context, column *domain.ColumnDefinition) error {
	return r.db.WithContext(ctx).Model(column).
		Select("name", "width", "is_visible", "is_required", "settings", "updated_at").
		Updates(column).Error
}

func (r *columnRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.ColumnDefinition{}).Error
}

func (r *columnRepositoryImpl) DeleteByProjectID(ctx context.Context, projectID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("project_id = ?", projectID).Delete(&domain.ColumnDefinition{}).Error
}

// Positions returns the column sequence of a project in stored order
func (r *columnRepositoryImpl) Positions(ctx context.Context, projectID uuid.UUID) ([]PositionRow, error) {
	var rows []PositionRow
	if err := r.db.WithContext(ctx).Model(&domain.ColumnDefinition{}).
		Select("id", "position").
		Where("project_id = ?", projectID).
		Order("position ASC, created_at ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Repack assigns positions 0..n-1 following ordered
func (r *columnRepositoryImpl) Repack(ctx context.Context, projectID uuid.UUID, ordered []uuid.UUID) error {
	rows, err := r.Positions(ctx, projectID)
	if err != nil {
		return err
	}
	return applyPositions(r.db.WithContext(ctx), &domain.ColumnDefinition{}, ordered, positionMap(rows))
}
