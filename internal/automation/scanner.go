package automation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"task-board-api/internal/domain"
	"task-board-api/internal/metrics"
	"task-board-api/internal/repository"
)

// FiringLedger remembers which (rule, task, day) due-date firings already happened.
// Claim returns true only for the first caller.
type FiringLedger interface {
	Claim(ctx context.Context, ruleID, taskID uuid.UUID, day string) (bool, error)
}

// ScanResult summarizes one due-date scan
type ScanResult struct {
	RulesEvaluated int `json:"rules_evaluated"`
	TasksMatched   int `json:"tasks_matched"`
	Fired          int `json:"fired"`
	AlreadyFired   int `json:"already_fired"`
	Failed         int `json:"failed"`
}

// DueDateScanner fires due_date_approaching rules for tasks whose due date is exactly
// daysRemaining UTC calendar days away, at most once per task per day
type DueDateScanner struct {
	engine  *Engine
	rules   repository.RuleRepository
	tasks   repository.TaskRepository
	ledger  FiringLedger
	mutator TaskMutator
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewDueDateScanner creates a scanner
func NewDueDateScanner(
	engine *Engine,
	rules repository.RuleRepository,
	tasks repository.TaskRepository,
	ledger FiringLedger,
	mutator TaskMutator,
	m *metrics.Metrics,
	logger *zap.Logger,
) *DueDateScanner {
	return &DueDateScanner{
		engine:  engine,
		rules:   rules,
		tasks:   tasks,
		ledger:  ledger,
		mutator: mutator,
		metrics: m,
		logger:  logger,
	}
}

// Scan evaluates every active due-date rule at instant now
func (s *DueDateScanner) Scan(ctx context.Context, now time.Time) (*ScanResult, error) {
	rules, err := s.rules.FindActiveByTrigger(ctx, domain.TriggerDueDateApproaching)
	if err != nil {
		return nil, err
	}

	result := &ScanResult{}
	day := domain.DayKey(now)
	openTasks := make(map[uuid.UUID][]*domain.Task)

	for _, rule := range rules {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		cfg, err := rule.DecodedTrigger()
		if err != nil {
			s.logger.Warn("Skipping due date rule with invalid config",
				zap.String("rule_id", rule.ID.String()),
				zap.Error(err),
			)
			continue
		}
		daysRemaining := *cfg.(domain.DueDateTrigger).DaysRemaining
		result.RulesEvaluated++

		tasks, ok := openTasks[rule.ProjectID]
		if !ok {
			tasks, err = s.tasks.FindOpenWithDueDate(ctx, rule.ProjectID)
			if err != nil {
				s.logger.Error("Failed to load tasks for due date scan",
					zap.String("project_id", rule.ProjectID.String()),
					zap.Error(err),
				)
				continue
			}
			openTasks[rule.ProjectID] = tasks
		}

		for _, task := range tasks {
			if task.DueDate == nil || domain.DaysUntil(*task.DueDate, now) != daysRemaining {
				continue
			}
			result.TasksMatched++

			claimed, err := s.ledger.Claim(ctx, rule.ID, task.ID, day)
			if err != nil {
				result.Failed++
				s.logger.Error("Failed to claim due date firing",
					zap.String("rule_id", rule.ID.String()),
					zap.String("task_id", task.ID.String()),
					zap.Error(err),
				)
				continue
			}
			if !claimed {
				result.AlreadyFired++
				continue
			}

			event := domain.NewMutationEvent(task, domain.EventDueDateApproaching, domain.FieldDueDate,
				"", task.DueDate.UTC().Format(time.RFC3339), domain.SystemActor())
			event.Timestamp = now.UTC()

			chain := s.engine.FireScheduled(ctx, s.mutator, rule, event)
			result.Fired++
			result.Failed += chain.Failed()
			if s.metrics != nil {
				s.metrics.IncrementDueDateFirings()
			}
		}
	}

	s.logger.Info("Due date scan finished",
		zap.String("day", day),
		zap.Int("rules", result.RulesEvaluated),
		zap.Int("matched", result.TasksMatched),
		zap.Int("fired", result.Fired),
		zap.Int("already_fired", result.AlreadyFired),
	)
	return result, nil
}
