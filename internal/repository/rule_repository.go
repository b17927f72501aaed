package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"task-board-api/internal/domain"
)

// RuleRepository defines the interface for automation rule data access
type RuleRepository interface {
	Create(ctx context.Context, rule *domain.AutomationRule) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.AutomationRule, error)
	FindByProjectID(ctx context.Context, projectID uuid.UUID) ([]*domain.AutomationRule, error)
	FindActiveByProjectAndTrigger(ctx context.Context, projectID uuid.UUID, trigger domain.TriggerType) ([]*domain.AutomationRule, error)
	FindActiveByTrigger(ctx context.Context, trigger domain.TriggerType) ([]*domain.AutomationRule, error)
	Update(ctx context.Context, rule *domain.AutomationRule) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByProjectID(ctx context.Context, projectID uuid.UUID) error
	WithTx(tx *gorm.DB) RuleRepository
}

type ruleRepositoryImpl struct {
	db *gorm.DB
}

// NewRuleRepository creates a new instance of RuleRepository
func NewRuleRepository(db *gorm.DB) RuleRepository {
	return &ruleRepositoryImpl{db: db}
}

func (r *ruleRepositoryImpl) WithTx(tx *gorm.DB) RuleRepository {
	return &ruleRepositoryImpl{db: tx}
}

func (r *ruleRepositoryImpl) Create(ctx context.Context, rule *domain.AutomationRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *ruleRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.AutomationRule, error) {
	var rule domain.AutomationRule
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rule).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *ruleRepositoryImpl) FindByProjectID(ctx context.Context, projectID uuid.UUID) ([]*domain.AutomationRule, error) {
	var rules []*domain.AutomationRule
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC, id ASC").
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// FindActiveByProjectAndTrigger returns the rules evaluated for one event, oldest first
func (r *ruleRepositoryImpl) FindActiveByProjectAndTrigger(ctx context.Context, projectID uuid.UUID, trigger domain.TriggerType) ([]*domain.AutomationRule, error) {
	var rules []*domain.AutomationRule
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND trigger_type = ? AND is_active = ?", projectID, trigger, true).
		Order("created_at ASC, id ASC").
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// FindActiveByTrigger returns active rules of one trigger type across all projects
func (r *ruleRepositoryImpl) FindActiveByTrigger(ctx context.Context, trigger domain.TriggerType) ([]*domain.AutomationRule, error) {
	var rules []*domain.AutomationRule
	if err := r.db.WithContext(ctx).
		Where("trigger_type = ? AND is_active = ?", trigger, true).
		Order("project_id ASC, created_at ASC, id ASC").
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *ruleRepositoryImpl) Update(ctx context.Context, rule *domain.AutomationRule) error {
	return r.db.WithContext(ctx).Model(rule).
		Select("name", "trigger_type", "trigger_config", "action", "action_config", "is_active", "updated_at").
		Updates(rule).Error
}

func (r *ruleRepositoryImpl) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result := r.db.WithContext(ctx).Model(&domain.AutomationRule{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ruleRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.AutomationRule{}).Error
}

func (r *ruleRepositoryImpl) DeleteByProjectID(ctx context.Context, projectID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("project_id = ?", projectID).Delete(&domain.AutomationRule{}).Error
}
