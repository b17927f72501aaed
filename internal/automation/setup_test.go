package automation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"task-board-api/internal/client"
	"task-board-api/internal/database"
	"task-board-api/internal/domain"
	"task-board-api/internal/repository"
)

var errNoTask = errors.New("task not found")

// memoryMutator applies rule actions to in-memory tasks
type memoryMutator struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task
}

func newMemoryMutator(tasks ...*domain.Task) *memoryMutator {
	m := &memoryMutator{tasks: make(map[uuid.UUID]*domain.Task)}
	for _, t := range tasks {
		m.tasks[t.ID] = t
	}
	return m
}

func (m *memoryMutator) get(id uuid.UUID) *domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tasks[id]
}

func (m *memoryMutator) GetTask(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	if t := m.get(taskID); t != nil {
		return t, nil
	}
	return nil, errNoTask
}

func (m *memoryMutator) ChangeStatus(ctx context.Context, taskID uuid.UUID, status domain.TaskStatus, actor domain.Actor) ([]domain.MutationEvent, error) {
	t := m.get(taskID)
	if t == nil {
		return nil, errNoTask
	}
	if t.Status == status {
		return nil, nil
	}
	old := t.Status
	t.Status = status
	return []domain.MutationEvent{domain.NewMutationEvent(t, domain.EventStatusChanged, domain.FieldStatus, string(old), string(status), actor)}, nil
}

func (m *memoryMutator) ChangePriority(ctx context.Context, taskID uuid.UUID, priority domain.TaskPriority, actor domain.Actor) ([]domain.MutationEvent, error) {
	t := m.get(taskID)
	if t == nil {
		return nil, errNoTask
	}
	if t.Priority == priority {
		return nil, nil
	}
	old := t.Priority
	t.Priority = priority
	return []domain.MutationEvent{domain.NewMutationEvent(t, domain.EventPriorityChanged, domain.FieldPriority, string(old), string(priority), actor)}, nil
}

func (m *memoryMutator) Assign(ctx context.Context, taskID uuid.UUID, userID uuid.UUID, actor domain.Actor) ([]domain.MutationEvent, error) {
	t := m.get(taskID)
	if t == nil {
		return nil, errNoTask
	}
	old := ""
	if t.AssigneeID != nil {
		if *t.AssigneeID == userID {
			return nil, nil
		}
		old = t.AssigneeID.String()
	}
	id := userID
	t.AssigneeID = &id
	return []domain.MutationEvent{domain.NewMutationEvent(t, domain.EventTaskAssigned, domain.FieldAssignee, old, userID.String(), actor)}, nil
}

func (m *memoryMutator) MoveToGroup(ctx context.Context, taskID, groupID uuid.UUID, actor domain.Actor) ([]domain.MutationEvent, error) {
	t := m.get(taskID)
	if t == nil {
		return nil, errNoTask
	}
	from := t.Scope().GroupIDString()
	id := groupID
	t.GroupID = &id
	return []domain.MutationEvent{domain.NewMutationEvent(t, domain.EventTaskMoved, domain.FieldGroup, from, groupID.String(), actor)}, nil
}

func (m *memoryMutator) CreateSubtask(ctx context.Context, parentID uuid.UUID, title, description string, actor domain.Actor) ([]domain.MutationEvent, error) {
	parent := m.get(parentID)
	if parent == nil {
		return nil, errNoTask
	}
	sub := newTask(parent.ProjectID, title)
	sub.ParentTaskID = &parent.ID
	m.mu.Lock()
	m.tasks[sub.ID] = sub
	m.mu.Unlock()
	return []domain.MutationEvent{domain.NewMutationEvent(sub, domain.EventTaskCreated, domain.FieldNone, "", title, actor)}, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []client.NotificationEvent
}

func (n *recordingNotifier) SendNotification(ctx context.Context, event client.NotificationEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) sent() []client.NotificationEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]client.NotificationEvent(nil), n.events...)
}

type recordingBroadcaster struct {
	mu    sync.Mutex
	calls map[uuid.UUID][][]uuid.UUID
}

func (b *recordingBroadcaster) BoardChanged(projectID uuid.UUID, taskIDs []uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.calls == nil {
		b.calls = make(map[uuid.UUID][][]uuid.UUID)
	}
	b.calls[projectID] = append(b.calls[projectID], taskIDs)
}

type userSet map[uuid.UUID]bool

func (u userSet) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	return u[userID], nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.New(database.Config{Driver: database.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func newTask(projectID uuid.UUID, title string) *domain.Task {
	return &domain.Task{
		BaseModel: domain.BaseModel{ID: uuid.New()},
		ProjectID: projectID,
		Title:     title,
		Status:    domain.TaskStatusPending,
		Priority:  domain.TaskPriorityMedium,
		CreatedBy: uuid.New(),
	}
}

func createRule(t *testing.T, repo repository.RuleRepository, projectID uuid.UUID, name string,
	trigger domain.TriggerType, triggerCfg string, action domain.ActionType, actionCfg string) *domain.AutomationRule {
	t.Helper()
	rule := &domain.AutomationRule{
		ProjectID:     projectID,
		Name:          name,
		Trigger:       trigger,
		TriggerConfig: datatypes.JSON(triggerCfg),
		Action:        action,
		ActionConfig:  datatypes.JSON(actionCfg),
		IsActive:      true,
	}
	require.NoError(t, repo.Create(context.Background(), rule))
	return rule
}

func statusEvent(task *domain.Task, from, to domain.TaskStatus) domain.MutationEvent {
	task.Status = to
	return domain.NewMutationEvent(task, domain.EventStatusChanged, domain.FieldStatus, string(from), string(to), domain.UserActor(uuid.New()))
}
