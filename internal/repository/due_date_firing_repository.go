package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"task-board-api/internal/domain"
)

// DueDateFiringRepository is the database ledger of due-date rule firings
type DueDateFiringRepository interface {
	// Claim records the firing and reports whether this call was the first for (rule, task, day)
	Claim(ctx context.Context, ruleID, taskID uuid.UUID, day string) (bool, error)
	DeleteBefore(ctx context.Context, day string) (int64, error)
}

type dueDateFiringRepositoryImpl struct {
	db *gorm.DB
}

// NewDueDateFiringRepository creates a new instance of DueDateFiringRepository
func NewDueDateFiringRepository(db *gorm.DB) DueDateFiringRepository {
	return &dueDateFiringRepositoryImpl{db: db}
}

func (r *dueDateFiringRepositoryImpl) Claim(ctx context.Context, ruleID, taskID uuid.UUID, day string) (bool, error) {
	firing := &domain.DueDateFiring{RuleID: ruleID, TaskID: taskID, FireDate: day, CreatedAt: time.Now().UTC()}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(firing)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// DeleteBefore prunes ledger rows older than day (YYYY-MM-DD)
func (r *dueDateFiringRepositoryImpl) DeleteBefore(ctx context.Context, day string) (int64, error) {
	result := r.db.WithContext(ctx).Where("fire_date < ?", day).Delete(&domain.DueDateFiring{})
	return result.RowsAffected, result.Error
}
