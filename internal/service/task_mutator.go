package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"task-board-api/internal/domain"
)

// taskMutator applies rule actions through the task store without dispatching the events,
// the engine queues them itself
type taskMutator struct {
	s *taskServiceImpl
}

func (m *taskMutator) GetTask(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	return m.s.taskRepo.FindByID(ctx, taskID)
}

func (m *taskMutator) ChangeStatus(ctx context.Context, taskID uuid.UUID, status domain.TaskStatus, actor domain.Actor) ([]domain.MutationEvent, error) {
	return m.s.mutate(ctx, taskID, actor, func(c *taskChanges) error {
		c.status(status)
		return nil
	})
}

func (m *taskMutator) ChangePriority(ctx context.Context, taskID uuid.UUID, priority domain.TaskPriority, actor domain.Actor) ([]domain.MutationEvent, error) {
	return m.s.mutate(ctx, taskID, actor, func(c *taskChanges) error {
		c.priority(priority)
		return nil
	})
}

func (m *taskMutator) Assign(ctx context.Context, taskID uuid.UUID, userID uuid.UUID, actor domain.Actor) ([]domain.MutationEvent, error) {
	events, err := m.s.mutate(ctx, taskID, actor, func(c *taskChanges) error {
		c.assignee(&userID)
		return nil
	})
	if err != nil || len(events) == 0 {
		return events, err
	}
	if task, err := m.s.taskRepo.FindByID(ctx, taskID); err == nil {
		m.s.notifyAssigned(ctx, task, userID, uuid.Nil)
	}
	return events, nil
}

// MoveToGroup appends the task to the target group. The group must belong to the task's project.
func (m *taskMutator) MoveToGroup(ctx context.Context, taskID, groupID uuid.UUID, actor domain.Actor) ([]domain.MutationEvent, error) {
	task, err := m.s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.GroupID != nil && *task.GroupID == groupID {
		return nil, nil
	}
	target := groupID
	_, _, events, err := m.s.relocate(ctx, taskID, &target, nil, actor)
	return events, err
}

// CreateSubtask appends a new pending subtask next to its parent
func (m *taskMutator) CreateSubtask(ctx context.Context, parentID uuid.UUID, title, description string, actor domain.Actor) ([]domain.MutationEvent, error) {
	parent, err := m.s.taskRepo.FindByID(ctx, parentID)
	if err != nil {
		return nil, err
	}
	subtask := &domain.Task{
		ProjectID:    parent.ProjectID,
		GroupID:      parent.GroupID,
		ParentTaskID: &parent.ID,
		Title:        title,
		Description:  description,
		Status:       domain.TaskStatusPending,
		Priority:     parent.Priority,
		CreatedBy:    parent.CreatedBy,
	}
	subtask.SetTags(nil)
	if err := m.s.insertTask(ctx, subtask, nil); err != nil {
		return nil, err
	}

	m.s.logger.Info("Subtask created by automation",
		zap.String("parent_id", parentID.String()),
		zap.String("task_id", subtask.ID.String()),
	)
	if m.s.metrics != nil {
		m.s.metrics.IncrementTaskCreated()
	}
	return []domain.MutationEvent{
		domain.NewMutationEvent(subtask, domain.EventTaskCreated, domain.FieldNone, "", subtask.Title, actor),
	}, nil
}
