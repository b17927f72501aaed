package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"task-board-api/internal/domain"
)

func createTask(t *testing.T, repo TaskRepository, scope domain.TaskScope, title string, position int) *domain.Task {
	t.Helper()
	task := &domain.Task{
		ProjectID: scope.ProjectID,
		GroupID:   scope.GroupID,
		Title:     title,
		Status:    domain.TaskStatusPending,
		Priority:  domain.TaskPriorityMedium,
		Position:  position,
		CreatedBy: uuid.New(),
	}
	require.NoError(t, repo.Create(context.Background(), task))
	return task
}

func TestTaskRepository_ScopesAreIndependent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	projectID := uuid.New()
	groupID := uuid.New()
	ungrouped := domain.UngroupedScope(projectID)
	grouped := domain.GroupScope(projectID, groupID)

	u0 := createTask(t, repo, ungrouped, "u0", 0)
	u1 := createTask(t, repo, ungrouped, "u1", 1)
	g0 := createTask(t, repo, grouped, "g0", 0)

	rows, err := repo.ScopePositions(ctx, ungrouped)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, u0.ID, rows[0].ID)
	assert.Equal(t, u1.ID, rows[1].ID)

	tasks, err := repo.FindByScope(ctx, grouped)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, g0.ID, tasks[0].ID)
}

func TestTaskRepository_RepackScope(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()
	scope := domain.UngroupedScope(uuid.New())

	a := createTask(t, repo, scope, "a", 0)
	b := createTask(t, repo, scope, "b", 1)
	c := createTask(t, repo, scope, "c", 2)

	require.NoError(t, repo.RepackScope(ctx, scope, []uuid.UUID{c.ID, a.ID, b.ID}))

	rows, err := repo.ScopePositions(ctx, scope)
	require.NoError(t, err)
	got := []uuid.UUID{rows[0].ID, rows[1].ID, rows[2].ID}
	assert.Equal(t, []uuid.UUID{c.ID, a.ID, b.ID}, got)
	for i, r := range rows {
		assert.Equal(t, i, r.Position)
	}
}

func TestTaskRepository_MoveToScope(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()
	projectID := uuid.New()
	groupID := uuid.New()

	task := createTask(t, repo, domain.UngroupedScope(projectID), "move me", 0)
	require.NoError(t, repo.MoveToScope(ctx, task.ID, domain.GroupScope(projectID, groupID), 3))

	moved, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, moved.GroupID)
	assert.Equal(t, groupID, *moved.GroupID)
	assert.Equal(t, 3, moved.Position)

	require.NoError(t, repo.MoveToScope(ctx, task.ID, domain.UngroupedScope(projectID), 0))
	moved, err = repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, moved.GroupID)
}

func TestTaskRepository_UpdateFields(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()
	task := createTask(t, repo, domain.UngroupedScope(uuid.New()), "t", 0)

	require.NoError(t, repo.UpdateFields(ctx, task.ID, map[string]interface{}{
		"status":   domain.TaskStatusBlocked,
		"progress": 40,
	}))
	updated, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusBlocked, updated.Status)
	assert.Equal(t, 40, updated.Progress)

	err = repo.UpdateFields(ctx, uuid.New(), map[string]interface{}{"progress": 1})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTaskRepository_Assignees(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()
	task := createTask(t, repo, domain.UngroupedScope(uuid.New()), "t", 0)
	u1, u2 := uuid.New(), uuid.New()

	require.NoError(t, repo.ReplaceAssignees(ctx, task.ID, []uuid.UUID{u1, u2}))
	loaded, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{u1, u2}, loaded.AdditionalAssigneeIDs)

	require.NoError(t, repo.RemoveAssignee(ctx, task.ID, u1))
	loaded, err = repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{u2}, loaded.AdditionalAssigneeIDs)

	require.NoError(t, repo.ReplaceAssignees(ctx, task.ID, nil))
	loaded, err = repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.AdditionalAssigneeIDs)
}

func TestTaskRepository_FindOpenWithDueDate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()
	projectID := uuid.New()
	scope := domain.UngroupedScope(projectID)
	due := time.Now().UTC().Add(48 * time.Hour)

	open := createTask(t, repo, scope, "open", 0)
	done := createTask(t, repo, scope, "done", 1)
	createTask(t, repo, scope, "no due date", 2)

	require.NoError(t, repo.UpdateFields(ctx, open.ID, map[string]interface{}{"due_date": due}))
	require.NoError(t, repo.UpdateFields(ctx, done.ID, map[string]interface{}{
		"due_date": due,
		"status":   domain.TaskStatusCompleted,
	}))

	tasks, err := repo.FindOpenWithDueDate(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, open.ID, tasks[0].ID)
}

func TestTaskRepository_DetachChildren(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()
	scope := domain.UngroupedScope(uuid.New())

	parent := createTask(t, repo, scope, "parent", 0)
	child := createTask(t, repo, scope, "child", 1)
	require.NoError(t, repo.UpdateFields(ctx, child.ID, map[string]interface{}{"parent_task_id": parent.ID}))

	ids, err := repo.FindChildIDs(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{child.ID}, ids)

	require.NoError(t, repo.DetachChildren(ctx, parent.ID))
	reloaded, err := repo.FindByID(ctx, child.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.ParentTaskID)
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	tx := NewTransactor(db)
	ctx := context.Background()
	scope := domain.UngroupedScope(uuid.New())

	err := tx.WithinTransaction(ctx, func(txDB *gorm.DB) error {
		createTask(t, repo.WithTx(txDB), scope, "doomed", 0)
		return gorm.ErrInvalidData
	})
	assert.ErrorIs(t, err, gorm.ErrInvalidData)

	tasks, err := repo.FindByScope(ctx, scope)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}
