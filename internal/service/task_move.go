package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"task-board-api/internal/domain"
	"task-board-api/internal/dto"
	"task-board-api/internal/repository"
	"task-board-api/internal/response"
)

// MoveTask moves a task to position inside its group or into another group (or the ungrouped list).
// The response carries the settled order of every sequence the move touched.
func (s *taskServiceImpl) MoveTask(ctx context.Context, taskID uuid.UUID, req *dto.MoveTaskRequest) (*dto.MoveTaskResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if req.Position == nil {
		return nil, response.NewInvalidPositionError("Position is required", "")
	}
	if *req.Position < 0 {
		return nil, response.NewInvalidPositionError("Position must not be negative", "")
	}

	task, orders, events, err := s.relocate(ctx, taskID, req.GroupID, req.Position, domain.UserActor(userID))
	if err != nil {
		return nil, err
	}
	if s.metrics != nil && len(events) > 0 {
		kind := "within_group"
		if events[0].Field == domain.FieldGroup {
			kind = "across_groups"
		}
		s.metrics.IncrementTaskMoved(kind)
	}

	chain := s.Dispatch(ctx, events)
	if chain != nil && len(chain.Firings) > 0 {
		// rules may have moved things again
		task, err = s.taskRepo.FindByID(ctx, task.ID)
		if err != nil {
			return nil, repoError(err, "Task not found", "Failed to load task")
		}
		if orders, err = s.scopeOrders(ctx, scopesOf(orders, task.ProjectID)...); err != nil {
			return nil, err
		}
	}

	return &dto.MoveTaskResponse{
		Task:       toTaskResponse(task),
		Scopes:     orders,
		Automation: toAutomationSummary(chain),
	}, nil
}

// relocate moves a task and returns its settled row, the touched scope orders and the task_moved event.
// position nil appends to the target. Repeating an identical move changes nothing and emits nothing.
// The task is read again on every attempt, a move that lost a race re-applies from where the task is now.
func (s *taskServiceImpl) relocate(ctx context.Context, taskID uuid.UUID, targetGroupID *uuid.UUID, position *int, actor domain.Actor) (*domain.Task, []dto.ScopeOrder, []domain.MutationEvent, error) {
	var (
		source, target domain.TaskScope
		orders         []dto.ScopeOrder
		event          *domain.MutationEvent
	)

	err := retrySequence(func() error {
		task, err := s.taskRepo.FindByID(ctx, taskID)
		if err != nil {
			return err
		}
		if err := s.verifyGroup(ctx, task.ProjectID, targetGroupID); err != nil {
			return err
		}
		source = task.Scope()
		target = domain.ScopeOf(task.ProjectID, targetGroupID)

		return lockedTx(ctx, s.locker, s.transactor, []string{source.Key(), target.Key()}, func(tx *gorm.DB) error {
			if err := verifyGroupTx(ctx, s.groupRepo.WithTx(tx), task.ProjectID, targetGroupID); err != nil {
				return err
			}
			orders, event, err = relocateTx(ctx, s.taskRepo.WithTx(tx), taskID, source, target, position, actor)
			return err
		})
	})
	if err != nil {
		return nil, nil, nil, repoError(err, "Task not found", "Failed to move task")
	}

	moved, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, nil, nil, repoError(err, "Task not found", "Failed to load task")
	}

	var events []domain.MutationEvent
	if event != nil {
		events = append(events, *event)
		s.logger.Info("Task moved",
			zap.String("task_id", taskID.String()),
			zap.String("from", source.Key()),
			zap.String("to", target.Key()),
			zap.Int("position", moved.Position),
		)
	}
	return moved, orders, events, nil
}

// relocateTx applies one move attempt while source and target are locked
func relocateTx(ctx context.Context, repo repository.TaskRepository, taskID uuid.UUID, source, target domain.TaskScope, position *int, actor domain.Actor) ([]dto.ScopeOrder, *domain.MutationEvent, error) {
	current, err := repo.FindByID(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	if !current.Scope().Equal(source) {
		// moved by someone else between the read and the lock
		return nil, nil, errSequenceConflict
	}

	srcRows, err := repo.ScopePositions(ctx, source)
	if err != nil {
		return nil, nil, err
	}
	srcIDs := idsOf(srcRows)

	if source.Equal(target) {
		pos := len(srcIDs) - 1
		if position != nil {
			pos = clampPosition(*position, len(srcIDs)-1)
		}
		ordered := moveWithin(srcIDs, taskID, pos)
		if sameOrder(ordered, srcIDs) && isDense(srcRows) {
			return []dto.ScopeOrder{{GroupID: source.GroupID, TaskIDs: srcIDs}}, nil, nil
		}
		if err := repo.RepackScope(ctx, source, ordered); err != nil {
			return nil, nil, err
		}
		if err := checkDense(repo.ScopePositions(ctx, source)); err != nil {
			return nil, nil, err
		}
		ev := domain.NewMutationEvent(current, domain.EventTaskMoved, domain.FieldPosition,
			itoa(current.Position), itoa(pos), actor)
		return []dto.ScopeOrder{{GroupID: source.GroupID, TaskIDs: ordered}}, &ev, nil
	}

	tgtRows, err := repo.ScopePositions(ctx, target)
	if err != nil {
		return nil, nil, err
	}
	tgtIDs := idsOf(tgtRows)
	pos := len(tgtIDs)
	if position != nil {
		pos = clampPosition(*position, len(tgtIDs))
	}

	remaining, _ := removeID(srcIDs, taskID)
	ordered := insertAt(tgtIDs, taskID, pos)

	if err := repo.MoveToScope(ctx, taskID, target, len(tgtIDs)); err != nil {
		return nil, nil, err
	}
	if err := repo.RepackScope(ctx, source, remaining); err != nil {
		return nil, nil, err
	}
	if err := repo.RepackScope(ctx, target, ordered); err != nil {
		return nil, nil, err
	}
	if err := checkDense(repo.ScopePositions(ctx, source)); err != nil {
		return nil, nil, err
	}
	if err := checkDense(repo.ScopePositions(ctx, target)); err != nil {
		return nil, nil, err
	}

	ev := domain.NewMutationEvent(current, domain.EventTaskMoved, domain.FieldGroup,
		source.GroupIDString(), target.GroupIDString(), actor)
	return []dto.ScopeOrder{
		{GroupID: source.GroupID, TaskIDs: remaining},
		{GroupID: target.GroupID, TaskIDs: ordered},
	}, &ev, nil
}

// scopeOrders reads the current order of each scope
func (s *taskServiceImpl) scopeOrders(ctx context.Context, scopes ...domain.TaskScope) ([]dto.ScopeOrder, error) {
	out := make([]dto.ScopeOrder, 0, len(scopes))
	for _, scope := range scopes {
		rows, err := s.taskRepo.ScopePositions(ctx, scope)
		if err != nil {
			return nil, response.NewInternalError("Failed to load task order", err.Error())
		}
		out = append(out, dto.ScopeOrder{GroupID: scope.GroupID, TaskIDs: idsOf(rows)})
	}
	return out, nil
}

func scopesOf(orders []dto.ScopeOrder, projectID uuid.UUID) []domain.TaskScope {
	scopes := make([]domain.TaskScope, len(orders))
	for i, o := range orders {
		scopes[i] = domain.ScopeOf(projectID, o.GroupID)
	}
	return scopes
}

func sameOrder(a, b []uuid.UUID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
