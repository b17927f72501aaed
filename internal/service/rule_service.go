package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"task-board-api/internal/automation"
	"task-board-api/internal/domain"
	"task-board-api/internal/dto"
	"task-board-api/internal/repository"
	"task-board-api/internal/response"
)

// RuleService defines the interface for automation rule management
type RuleService interface {
	CreateRule(ctx context.Context, projectID uuid.UUID, req *dto.CreateRuleRequest) (*dto.RuleResponse, error)
	ListRules(ctx context.Context, projectID uuid.UUID) ([]*dto.RuleResponse, error)
	GetRule(ctx context.Context, ruleID uuid.UUID) (*dto.RuleResponse, error)
	UpdateRule(ctx context.Context, ruleID uuid.UUID, req *dto.UpdateRuleRequest) (*dto.RuleResponse, error)
	ToggleRule(ctx context.Context, ruleID uuid.UUID, active bool) (*dto.RuleResponse, error)
	DeleteRule(ctx context.Context, ruleID uuid.UUID) error
}

type ruleServiceImpl struct {
	ruleRepo    repository.RuleRepository
	projectRepo repository.ProjectRepository
	groupRepo   repository.GroupRepository
	users       automation.UserDirectory
	logger      *zap.Logger
}

// NewRuleService creates a new instance of RuleService. users may be nil.
func NewRuleService(
	ruleRepo repository.RuleRepository,
	projectRepo repository.ProjectRepository,
	groupRepo repository.GroupRepository,
	users automation.UserDirectory,
	logger *zap.Logger,
) RuleService {
	return &ruleServiceImpl{
		ruleRepo:    ruleRepo,
		projectRepo: projectRepo,
		groupRepo:   groupRepo,
		users:       users,
		logger:      logger,
	}
}

// CreateRule validates and stores a rule. Rules are active unless isActive is false.
func (s *ruleServiceImpl) CreateRule(ctx context.Context, projectID uuid.UUID, req *dto.CreateRuleRequest) (*dto.RuleResponse, error) {
	if _, err := s.projectRepo.FindByID(ctx, projectID); err != nil {
		return nil, repoError(err, "Project not found", "Failed to verify project")
	}

	rule := &domain.AutomationRule{
		ProjectID: projectID,
		Name:      req.Name,
		Trigger:   domain.TriggerType(req.Trigger),
		Action:    domain.ActionType(req.Action),
		IsActive:  true,
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if err := s.applyConfigs(ctx, rule, req.TriggerConfig, req.ActionConfig); err != nil {
		return nil, err
	}

	if err := s.ruleRepo.Create(ctx, rule); err != nil {
		return nil, response.NewInternalError("Failed to create rule", err.Error())
	}

	s.logger.Info("Automation rule created",
		zap.String("rule_id", rule.ID.String()),
		zap.String("project_id", projectID.String()),
		zap.String("trigger", string(rule.Trigger)),
		zap.String("action", string(rule.Action)),
	)
	return toRuleResponse(rule), nil
}

// ListRules returns the project's rules in evaluation order
func (s *ruleServiceImpl) ListRules(ctx context.Context, projectID uuid.UUID) ([]*dto.RuleResponse, error) {
	if _, err := s.projectRepo.FindByID(ctx, projectID); err != nil {
		return nil, repoError(err, "Project not found", "Failed to verify project")
	}
	rules, err := s.ruleRepo.FindByProjectID(ctx, projectID)
	if err != nil {
		return nil, response.NewInternalError("Failed to list rules", err.Error())
	}
	out := make([]*dto.RuleResponse, len(rules))
	for i, r := range rules {
		out[i] = toRuleResponse(r)
	}
	return out, nil
}

func (s *ruleServiceImpl) GetRule(ctx context.Context, ruleID uuid.UUID) (*dto.RuleResponse, error) {
	rule, err := s.ruleRepo.FindByID(ctx, ruleID)
	if err != nil {
		return nil, repoError(err, "Rule not found", "Failed to load rule")
	}
	return toRuleResponse(rule), nil
}

// UpdateRule changes name, trigger or action. A changed trigger or action needs its config.
func (s *ruleServiceImpl) UpdateRule(ctx context.Context, ruleID uuid.UUID, req *dto.UpdateRuleRequest) (*dto.RuleResponse, error) {
	rule, err := s.ruleRepo.FindByID(ctx, ruleID)
	if err != nil {
		return nil, repoError(err, "Rule not found", "Failed to load rule")
	}

	if req.Name != nil {
		rule.Name = *req.Name
	}
	triggerRaw := []byte(rule.TriggerConfig)
	if req.Trigger != nil && domain.TriggerType(*req.Trigger) != rule.Trigger {
		if req.TriggerConfig == nil {
			return nil, response.NewValidationError("triggerConfig is required when trigger changes", "")
		}
		rule.Trigger = domain.TriggerType(*req.Trigger)
	}
	if req.TriggerConfig != nil {
		triggerRaw = req.TriggerConfig
	}

	actionRaw := []byte(rule.ActionConfig)
	if req.Action != nil && domain.ActionType(*req.Action) != rule.Action {
		if req.ActionConfig == nil {
			return nil, response.NewValidationError("actionConfig is required when action changes", "")
		}
		rule.Action = domain.ActionType(*req.Action)
	}
	if req.ActionConfig != nil {
		actionRaw = req.ActionConfig
	}

	if err := s.applyConfigs(ctx, rule, triggerRaw, actionRaw); err != nil {
		return nil, err
	}
	if err := s.ruleRepo.Update(ctx, rule); err != nil {
		return nil, response.NewInternalError("Failed to update rule", err.Error())
	}
	return toRuleResponse(rule), nil
}

// ToggleRule activates or deactivates a rule
func (s *ruleServiceImpl) ToggleRule(ctx context.Context, ruleID uuid.UUID, active bool) (*dto.RuleResponse, error) {
	if err := s.ruleRepo.SetActive(ctx, ruleID, active); err != nil {
		return nil, repoError(err, "Rule not found", "Failed to toggle rule")
	}
	rule, err := s.ruleRepo.FindByID(ctx, ruleID)
	if err != nil {
		return nil, repoError(err, "Rule not found", "Failed to load rule")
	}
	s.logger.Info("Automation rule toggled",
		zap.String("rule_id", ruleID.String()),
		zap.Bool("is_active", active),
	)
	return toRuleResponse(rule), nil
}

func (s *ruleServiceImpl) DeleteRule(ctx context.Context, ruleID uuid.UUID) error {
	if _, err := s.ruleRepo.FindByID(ctx, ruleID); err != nil {
		return repoError(err, "Rule not found", "Failed to load rule")
	}
	if err := s.ruleRepo.Delete(ctx, ruleID); err != nil {
		return response.NewInternalError("Failed to delete rule", err.Error())
	}
	return nil
}

// applyConfigs decodes both configs strictly and stores their canonical encoding
func (s *ruleServiceImpl) applyConfigs(ctx context.Context, rule *domain.AutomationRule, triggerRaw, actionRaw []byte) error {
	trigger, err := domain.DecodeTriggerConfig(rule.Trigger, triggerRaw)
	if err != nil {
		return response.NewValidationError("Invalid trigger config", err.Error())
	}
	action, err := domain.DecodeActionConfig(rule.Action, actionRaw)
	if err != nil {
		return response.NewValidationError("Invalid action config", err.Error())
	}

	switch a := action.(type) {
	case domain.MoveToGroupAction:
		group, err := s.groupRepo.FindByID(ctx, a.TargetGroupID)
		if err != nil {
			if isNotFound(err) {
				return response.NewValidationError("Target group not found", a.TargetGroupID.String())
			}
			return response.NewInternalError("Failed to verify target group", err.Error())
		}
		if group.ProjectID != rule.ProjectID {
			return response.NewValidationError("Target group belongs to another project", a.TargetGroupID.String())
		}
	case domain.AssignTaskAction:
		if s.users != nil {
			exists, err := s.users.UserExists(ctx, a.AssignTo)
			if err != nil {
				return response.NewInternalError("Failed to verify user", err.Error())
			}
			if !exists {
				return response.NewValidationError("Assignee does not exist", a.AssignTo.String())
			}
		}
	}

	triggerJSON, err := json.Marshal(trigger)
	if err != nil {
		return response.NewInternalError("Failed to encode trigger config", err.Error())
	}
	actionJSON, err := json.Marshal(action)
	if err != nil {
		return response.NewInternalError("Failed to encode action config", err.Error())
	}
	rule.TriggerConfig = datatypes.JSON(triggerJSON)
	rule.ActionConfig = datatypes.JSON(actionJSON)
	return nil
}
