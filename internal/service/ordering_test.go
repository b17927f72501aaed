package service

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-board-api/internal/domain"
	"task-board-api/internal/dto"
	"task-board-api/internal/repository"
	"task-board-api/internal/response"
)

func TestOrderingHelpers(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	ids := []uuid.UUID{a, b, c}

	assert.Equal(t, []uuid.UUID{c, a, b}, moveWithin(ids, c, 0))
	assert.Equal(t, []uuid.UUID{b, c, a}, moveWithin(ids, a, 2))
	assert.Equal(t, ids, moveWithin(ids, uuid.New(), 0))

	d := uuid.New()
	assert.Equal(t, []uuid.UUID{a, b, c, d}, insertAt(ids, d, 99))
	assert.Equal(t, []uuid.UUID{d, a, b, c}, insertAt(ids, d, -3))

	rest, idx := removeID(ids, b)
	assert.Equal(t, []uuid.UUID{a, c}, rest)
	assert.Equal(t, 1, idx)

	assert.True(t, isDense([]repository.PositionRow{{ID: a, Position: 0}, {ID: b, Position: 1}}))
	assert.False(t, isDense([]repository.PositionRow{{ID: a, Position: 0}, {ID: b, Position: 2}}))
	assert.ErrorIs(t, checkDense([]repository.PositionRow{{ID: a, Position: 1}}, nil), errSequenceConflict)
}

func TestScopeLocker_SerializesSameKey(t *testing.T) {
	locker := NewScopeLocker()
	unlock := locker.Lock("scope:a", "scope:b", "scope:a")

	acquired := make(chan struct{})
	go func() {
		release := locker.Lock("scope:b")
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("second writer acquired a held scope")
	case <-time.After(50 * time.Millisecond):
	}

	// other keys are independent
	locker.Lock("scope:c")()

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiting writer never acquired the scope")
	}
	assert.Eventually(t, func() bool { return locker.size() == 0 }, time.Second, 10*time.Millisecond)
}

func TestScopeLocker_OppositeOrderDoesNotDeadlock(t *testing.T) {
	locker := NewScopeLocker()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			locker.Lock("x", "y")()
		}()
		go func() {
			defer wg.Done()
			locker.Lock("y", "x")()
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("lock ordering deadlocked")
	}
}

func TestConcurrentInsertsStayDense(t *testing.T) {
	f := newFixture(t)

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.tasks.CreateTask(f.ctx, f.projectID, &dto.CreateTaskRequest{
				Title: "race", GroupID: &f.groupID, Position: intPtr(0),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Len(t, f.scopeIDs(t, &f.groupID), writers)
}

// A writer queued behind a group delete must not land in the deleted group
func TestWriteIntoGroupDeletedWhileWaiting(t *testing.T) {
	tests := []struct {
		name  string
		write func(f *fixture, doomed uuid.UUID, moving uuid.UUID) error
	}{
		{"create", func(f *fixture, doomed, _ uuid.UUID) error {
			_, err := f.tasks.CreateTask(f.ctx, f.projectID, &dto.CreateTaskRequest{Title: "late", GroupID: &doomed})
			return err
		}},
		{"move", func(f *fixture, doomed, moving uuid.UUID) error {
			_, err := f.tasks.MoveTask(f.ctx, moving, &dto.MoveTaskRequest{GroupID: &doomed, Position: intPtr(0)})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			moving := f.createTask(t, "moving", &f.groupID)
			doomed := f.createGroup(t, "Doomed").GroupID
			key := domain.GroupScope(f.projectID, doomed).Key()

			unlock := f.locker.Lock(key)
			deleted := make(chan error, 1)
			go func() {
				_, err := f.groups.DeleteGroup(f.ctx, doomed, &dto.DeleteGroupRequest{Strategy: "orphan"})
				deleted <- err
			}()
			waitForWaiters(t, f.locker, key, 2)

			written := make(chan error, 1)
			go func() { written <- tt.write(f, doomed, moving.TaskID) }()
			waitForWaiters(t, f.locker, key, 3)
			unlock()

			require.NoError(t, <-deleted)
			assertAppError(t, <-written, response.ErrCodeNotFound)

			// every task of the project is still on the board
			ids, err := f.taskRepo.FindIDsByProjectID(f.ctx, f.projectID)
			require.NoError(t, err)
			board, err := f.board.GetBoard(f.ctx, f.projectID)
			require.NoError(t, err)
			onBoard := 0
			for _, g := range board.Groups {
				onBoard += len(g.Tasks)
			}
			assert.Equal(t, len(ids), onBoard)
			assert.Equal(t, []uuid.UUID{moving.TaskID}, f.scopeIDs(t, &f.groupID))
		})
	}
}

// A move that lost a race to another process is re-read and applied from the task's new group
func TestMoveTask_ReappliesAfterLosingRace(t *testing.T) {
	f := newFixture(t)
	g2 := f.createGroup(t, "G2").GroupID
	g3 := f.createGroup(t, "G3").GroupID
	task := f.createTask(t, "T", &f.groupID)
	stay := f.createTask(t, "stay", &f.groupID)
	key := domain.GroupScope(f.projectID, f.groupID).Key()

	unlock := f.locker.Lock(key)
	moved := make(chan error, 1)
	go func() {
		_, err := f.tasks.MoveTask(f.ctx, task.TaskID, &dto.MoveTaskRequest{GroupID: &g3, Position: intPtr(0)})
		moved <- err
	}()
	waitForWaiters(t, f.locker, key, 2)

	_, err := f.otherReplica().MoveTask(f.ctx, task.TaskID, &dto.MoveTaskRequest{GroupID: &g2, Position: intPtr(0)})
	require.NoError(t, err)
	unlock()

	require.NoError(t, <-moved)
	assert.Equal(t, g3, *f.loadTask(t, task.TaskID).GroupID)
	assert.Equal(t, []uuid.UUID{stay.TaskID}, f.scopeIDs(t, &f.groupID))
	assert.Empty(t, f.scopeIDs(t, &g2))
	assert.Equal(t, []uuid.UUID{task.TaskID}, f.scopeIDs(t, &g3))
}

func TestUpdateStatus_ConcurrentWritersChainOldValues(t *testing.T) {
	f := newFixture(t)
	task := f.createTask(t, "T", &f.groupID)

	statuses := []domain.TaskStatus{domain.TaskStatusInProgress, domain.TaskStatusReview, domain.TaskStatusBlocked}
	var wg sync.WaitGroup
	for _, status := range statuses {
		wg.Add(1)
		go func(status domain.TaskStatus) {
			defer wg.Done()
			_, err := f.tasks.UpdateStatus(f.ctx, task.TaskID, status)
			assert.NoError(t, err)
		}(status)
	}
	wg.Wait()

	activity, err := f.tasks.GetActivity(f.ctx, task.TaskID, 50)
	require.NoError(t, err)

	// each transition starts from the value the previous one wrote
	from := map[string]int{}
	to := map[string]bool{}
	for _, a := range activity {
		if a.Field != string(domain.FieldStatus) {
			continue
		}
		from[a.OldValue]++
		to[a.NewValue] = true
	}
	assert.Equal(t, 1, from[string(domain.TaskStatusPending)])
	assert.Len(t, to, len(statuses))
	final := string(f.loadTask(t, task.TaskID).Status)
	for old, n := range from {
		assert.Equal(t, 1, n, "status %s replaced more than once", old)
		assert.NotEqual(t, final, old)
	}
}
