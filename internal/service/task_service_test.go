package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-board-api/internal/client"
	"task-board-api/internal/domain"
	"task-board-api/internal/dto"
	"task-board-api/internal/response"
)

func TestTaskService_CreateTask(t *testing.T) {
	f := newFixture(t)

	a := f.createTask(t, "a", &f.groupID)
	b := f.createTask(t, "b", &f.groupID)
	assert.Equal(t, 0, a.Position)
	assert.Equal(t, 1, b.Position)
	assert.Equal(t, string(domain.TaskStatusPending), a.Status)
	assert.Equal(t, string(domain.TaskPriorityMedium), a.Priority)
	assert.Equal(t, f.userID, a.CreatedBy)

	resp, err := f.tasks.CreateTask(f.ctx, f.projectID, &dto.CreateTaskRequest{
		Title: "first", GroupID: &f.groupID, Position: intPtr(0), Progress: intPtr(140),
		Tags: []string{"q3", "q3", "launch"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Task.Position)
	assert.Equal(t, 100, resp.Task.Progress)
	assert.Equal(t, []string{"q3", "launch"}, resp.Task.Tags)
	assert.Equal(t, []uuid.UUID{resp.Task.TaskID, a.TaskID, b.TaskID}, f.scopeIDs(t, &f.groupID))

	ungrouped := f.createTask(t, "loose", nil)
	assert.Nil(t, ungrouped.GroupID)
	assert.Equal(t, 0, ungrouped.Position)
}

func TestTaskService_CreateTask_Validation(t *testing.T) {
	f := newFixture(t)
	other := newFixture(t)

	_, err := f.tasks.CreateTask(f.ctx, f.projectID, &dto.CreateTaskRequest{Title: "x", Status: "done"})
	assertAppError(t, err, response.ErrCodeValidation)

	_, err = f.tasks.CreateTask(f.ctx, f.projectID, &dto.CreateTaskRequest{Title: "x", GroupID: &other.groupID})
	assertAppError(t, err, response.ErrCodeNotFound)

	_, err = f.tasks.CreateTask(f.ctx, uuid.New(), &dto.CreateTaskRequest{Title: "x"})
	assertAppError(t, err, response.ErrCodeNotFound)

	_, err = f.tasks.CreateTask(context.Background(), f.projectID, &dto.CreateTaskRequest{Title: "x"})
	assertAppError(t, err, response.ErrCodeUnauthorized)
}

func TestTaskService_FieldMutationsEmitEvents(t *testing.T) {
	f := newFixture(t)
	task := f.createTask(t, "Write copy", &f.groupID)

	_, err := f.tasks.UpdateStatus(f.ctx, task.TaskID, domain.TaskStatusInProgress)
	require.NoError(t, err)
	_, err = f.tasks.UpdatePriority(f.ctx, task.TaskID, domain.TaskPriorityHigh)
	require.NoError(t, err)
	resp, err := f.tasks.UpdateProgress(f.ctx, task.TaskID, -5)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Task.Progress)
	resp, err = f.tasks.UpdateProgress(f.ctx, task.TaskID, 60)
	require.NoError(t, err)
	assert.Equal(t, 60, resp.Task.Progress)

	due := time.Date(2025, 7, 1, 9, 0, 0, 0, time.FixedZone("KST", 9*3600))
	resp, err = f.tasks.UpdateDueDate(f.ctx, task.TaskID, &due)
	require.NoError(t, err)
	require.NotNil(t, resp.Task.DueDate)
	assert.True(t, resp.Task.DueDate.Equal(due))

	// same value again is a no-op
	_, err = f.tasks.UpdateStatus(f.ctx, task.TaskID, domain.TaskStatusInProgress)
	require.NoError(t, err)

	activity, err := f.tasks.GetActivity(f.ctx, task.TaskID, 0)
	require.NoError(t, err)
	kinds := map[string]int{}
	for _, a := range activity {
		kinds[a.Kind]++
	}
	assert.Equal(t, 1, kinds[string(domain.EventStatusChanged)])
	assert.Equal(t, 1, kinds[string(domain.EventPriorityChanged)])
	assert.Equal(t, 1, kinds[string(domain.EventProgressChanged)])
	assert.Equal(t, 1, kinds[string(domain.EventDueDateChanged)])
	assert.Equal(t, 1, kinds[string(domain.EventTaskCreated)])

	_, err = f.tasks.UpdateStatus(f.ctx, task.TaskID, domain.TaskStatus("done"))
	assertAppError(t, err, response.ErrCodeValidation)
	_, err = f.tasks.UpdateStatus(f.ctx, uuid.New(), domain.TaskStatusReview)
	assertAppError(t, err, response.ErrCodeNotFound)
}

func TestTaskService_AssignTask(t *testing.T) {
	f := newFixture(t)
	alice, bob := uuid.New(), uuid.New()

	resp, err := f.tasks.CreateTask(f.ctx, f.projectID, &dto.CreateTaskRequest{
		Title: "Review", AdditionalAssigneeIDs: []uuid.UUID{alice, bob},
	})
	require.NoError(t, err)
	taskID := resp.Task.TaskID
	assert.ElementsMatch(t, []uuid.UUID{alice, bob}, resp.Task.AdditionalAssigneeIDs)

	resp, err = f.tasks.AssignTask(f.ctx, taskID, &alice)
	require.NoError(t, err)
	assert.Equal(t, alice, *resp.Task.AssigneeID)
	assert.Equal(t, []uuid.UUID{bob}, resp.Task.AdditionalAssigneeIDs)

	sent := f.notifier.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, client.NotificationTaskAssigned, sent[0].Type)
	assert.Equal(t, alice, sent[0].TargetUserID)
	assert.Equal(t, f.userID, sent[0].ActorID)

	resp, err = f.tasks.AssignTask(f.ctx, taskID, nil)
	require.NoError(t, err)
	assert.Nil(t, resp.Task.AssigneeID)

	activity, err := f.tasks.GetActivity(f.ctx, taskID, 2)
	require.NoError(t, err)
	require.Len(t, activity, 2)
	assert.Equal(t, string(domain.EventTaskAssigned), activity[0].Kind)
	assert.Equal(t, alice.String(), activity[0].OldValue)
	assert.Empty(t, activity[0].NewValue)
}

func TestTaskService_UpdateTask(t *testing.T) {
	f := newFixture(t)
	task := f.createTask(t, "Draft", nil)
	due := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	extra := uuid.New()

	resp, err := f.tasks.UpdateTask(f.ctx, task.TaskID, &dto.UpdateTaskRequest{
		Title:                 strPtr("Final draft"),
		Status:                strPtr("review"),
		DueDate:               &due,
		Tags:                  &[]string{"copy"},
		AdditionalAssigneeIDs: &[]uuid.UUID{extra},
	})
	require.NoError(t, err)
	assert.Equal(t, "Final draft", resp.Task.Title)
	assert.Equal(t, "review", resp.Task.Status)
	assert.Equal(t, []string{"copy"}, resp.Task.Tags)
	assert.Equal(t, []uuid.UUID{extra}, resp.Task.AdditionalAssigneeIDs)

	resp, err = f.tasks.UpdateTask(f.ctx, task.TaskID, &dto.UpdateTaskRequest{ClearDueDate: true})
	require.NoError(t, err)
	assert.Nil(t, resp.Task.DueDate)

	_, err = f.tasks.UpdateTask(f.ctx, task.TaskID, &dto.UpdateTaskRequest{Priority: strPtr("asap")})
	assertAppError(t, err, response.ErrCodeValidation)
}

func TestTaskService_ListTasks(t *testing.T) {
	f := newFixture(t)
	a := f.createTask(t, "a", &f.groupID)
	f.createTask(t, "b", nil)
	_, err := f.tasks.UpdateStatus(f.ctx, a.TaskID, domain.TaskStatusBlocked)
	require.NoError(t, err)

	all, err := f.tasks.ListTasks(f.ctx, f.projectID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	blocked, err := f.tasks.ListTasks(f.ctx, f.projectID, &dto.TaskFilters{Status: "blocked"})
	require.NoError(t, err)
	require.Len(t, blocked, 1)
	assert.Equal(t, a.TaskID, blocked[0].TaskID)

	loose, err := f.tasks.ListTasks(f.ctx, f.projectID, &dto.TaskFilters{GroupID: "ungrouped"})
	require.NoError(t, err)
	require.Len(t, loose, 1)
	assert.Equal(t, "b", loose[0].Title)

	_, err = f.tasks.ListTasks(f.ctx, f.projectID, &dto.TaskFilters{GroupID: "nope"})
	assertAppError(t, err, response.ErrCodeValidation)
}

func TestTaskService_SetColumnValue(t *testing.T) {
	f := newFixture(t)
	task := f.createTask(t, "Launch", &f.groupID)
	cols, err := f.columns.ListColumns(f.ctx, f.projectID)
	require.NoError(t, err)
	status, dueDate := cols[0], cols[2]

	value, err := f.tasks.SetColumnValue(f.ctx, task.TaskID, dueDate.ColumnID, json.RawMessage(`"2025-03-14"`))
	require.NoError(t, err)
	assert.Equal(t, "2025-03-14T00:00:00Z", value.Value)

	t.Run("type mismatch leaves the stored value unchanged", func(t *testing.T) {
		_, err := f.tasks.SetColumnValue(f.ctx, task.TaskID, dueDate.ColumnID, json.RawMessage(`12`))
		assertAppError(t, err, response.ErrCodeTypeMismatch)

		stored, err := f.valueRepo.Find(f.ctx, task.TaskID, dueDate.ColumnID)
		require.NoError(t, err)
		assert.Equal(t, "2025-03-14T00:00:00Z", stored.Typed())
	})

	t.Run("status restricted to options", func(t *testing.T) {
		_, err := f.tasks.SetColumnValue(f.ctx, task.TaskID, status.ColumnID, json.RawMessage(`"Maybe"`))
		assertAppError(t, err, response.ErrCodeTypeMismatch)
		_, err = f.tasks.SetColumnValue(f.ctx, task.TaskID, status.ColumnID, json.RawMessage(`"Stuck"`))
		require.NoError(t, err)
	})

	t.Run("empty value clears the cell", func(t *testing.T) {
		require.NoError(t, f.tasks.ClearColumnValue(f.ctx, task.TaskID, dueDate.ColumnID))
		_, err := f.valueRepo.Find(f.ctx, task.TaskID, dueDate.ColumnID)
		assert.True(t, isNotFound(err))
	})

	t.Run("column of another project", func(t *testing.T) {
		other := newFixture(t)
		otherCols, err := other.columns.ListColumns(other.ctx, other.projectID)
		require.NoError(t, err)
		_, err = f.tasks.SetColumnValue(f.ctx, task.TaskID, otherCols[0].ColumnID, json.RawMessage(`"Done"`))
		assertAppError(t, err, response.ErrCodeNotFound)
	})

	activity, err := f.tasks.GetActivity(f.ctx, task.TaskID, 0)
	require.NoError(t, err)
	changed := 0
	for _, a := range activity {
		if a.Kind == string(domain.EventColumnValueChanged) {
			changed++
		}
	}
	// set date, set status, clear date
	assert.Equal(t, 3, changed)
}

func TestTaskService_DeleteTask(t *testing.T) {
	f := newFixture(t)
	a := f.createTask(t, "a", &f.groupID)
	b := f.createTask(t, "b", &f.groupID)
	c := f.createTask(t, "c", &f.groupID)

	sub, err := f.tasks.CreateTask(f.ctx, f.projectID, &dto.CreateTaskRequest{Title: "sub", ParentTaskID: &b.TaskID})
	require.NoError(t, err)

	cols, err := f.columns.ListColumns(f.ctx, f.projectID)
	require.NoError(t, err)
	_, err = f.tasks.SetColumnValue(f.ctx, b.TaskID, cols[0].ColumnID, json.RawMessage(`"Done"`))
	require.NoError(t, err)
	_, err = f.comments.AddComment(f.ctx, b.TaskID, &dto.CreateCommentRequest{Content: "lgtm"})
	require.NoError(t, err)

	presigned, err := f.attachments.GeneratePresignedURL(f.ctx, &dto.PresignedURLRequest{
		ProjectID: f.projectID, FileName: "brief.pdf", FileSize: 10, ContentType: "application/pdf",
	})
	require.NoError(t, err)
	_, err = f.attachments.ConfirmAttachments(f.ctx, b.TaskID, &dto.ConfirmAttachmentsRequest{
		AttachmentIDs: []uuid.UUID{presigned.AttachmentID},
	})
	require.NoError(t, err)

	require.NoError(t, f.tasks.DeleteTask(f.ctx, b.TaskID))

	assert.Equal(t, []uuid.UUID{a.TaskID, c.TaskID}, f.scopeIDs(t, &f.groupID))
	assert.Nil(t, f.loadTask(t, sub.Task.TaskID).ParentTaskID)
	assert.Equal(t, []string{presigned.FileKey}, f.s3.Deleted)

	values, err := f.valueRepo.FindByTaskIDs(f.ctx, []uuid.UUID{b.TaskID})
	require.NoError(t, err)
	assert.Empty(t, values)

	_, err = f.tasks.GetTask(f.ctx, b.TaskID)
	assertAppError(t, err, response.ErrCodeNotFound)
	assertAppError(t, f.tasks.DeleteTask(f.ctx, b.TaskID), response.ErrCodeNotFound)
}

func TestTaskService_MoveTask(t *testing.T) {
	f := newFixture(t)
	g1 := f.groupID
	g2 := f.createGroup(t, "Next").GroupID

	t1 := f.createTask(t, "T1", &g1)
	t2 := f.createTask(t, "T2", &g1)
	t3 := f.createTask(t, "T3", &g1)
	t4 := f.createTask(t, "T4", &g2)

	t.Run("within a group", func(t *testing.T) {
		resp, err := f.tasks.MoveTask(f.ctx, t3.TaskID, &dto.MoveTaskRequest{GroupID: &g1, Position: intPtr(0)})
		require.NoError(t, err)
		assert.Equal(t, 0, resp.Task.Position)
		require.Len(t, resp.Scopes, 1)
		assert.Equal(t, []uuid.UUID{t3.TaskID, t1.TaskID, t2.TaskID}, resp.Scopes[0].TaskIDs)
		assert.Equal(t, resp.Scopes[0].TaskIDs, f.scopeIDs(t, &g1))
	})

	t.Run("repeating the move changes nothing", func(t *testing.T) {
		before, err := f.tasks.GetActivity(f.ctx, t3.TaskID, 0)
		require.NoError(t, err)
		_, err = f.tasks.MoveTask(f.ctx, t3.TaskID, &dto.MoveTaskRequest{GroupID: &g1, Position: intPtr(0)})
		require.NoError(t, err)
		after, err := f.tasks.GetActivity(f.ctx, t3.TaskID, 0)
		require.NoError(t, err)
		assert.Len(t, after, len(before))
	})

	t.Run("across groups", func(t *testing.T) {
		resp, err := f.tasks.MoveTask(f.ctx, t1.TaskID, &dto.MoveTaskRequest{GroupID: &g2, Position: intPtr(0)})
		require.NoError(t, err)
		assert.Equal(t, g2, *resp.Task.GroupID)
		require.Len(t, resp.Scopes, 2)
		assert.Equal(t, []uuid.UUID{t3.TaskID, t2.TaskID}, f.scopeIDs(t, &g1))
		assert.Equal(t, []uuid.UUID{t1.TaskID, t4.TaskID}, f.scopeIDs(t, &g2))

		activity, err := f.tasks.GetActivity(f.ctx, t1.TaskID, 1)
		require.NoError(t, err)
		assert.Equal(t, string(domain.EventTaskMoved), activity[0].Kind)
		assert.Equal(t, string(domain.FieldGroup), activity[0].Field)
		assert.Equal(t, g1.String(), activity[0].OldValue)
		assert.Equal(t, g2.String(), activity[0].NewValue)
	})

	t.Run("position past the end clamps", func(t *testing.T) {
		resp, err := f.tasks.MoveTask(f.ctx, t2.TaskID, &dto.MoveTaskRequest{GroupID: nil, Position: intPtr(40)})
		require.NoError(t, err)
		assert.Nil(t, resp.Task.GroupID)
		assert.Equal(t, 0, resp.Task.Position)
		assert.Equal(t, []uuid.UUID{t3.TaskID}, f.scopeIDs(t, &g1))
	})

	t.Run("rejected moves", func(t *testing.T) {
		_, err := f.tasks.MoveTask(f.ctx, t3.TaskID, &dto.MoveTaskRequest{GroupID: &g1, Position: intPtr(-1)})
		assertAppError(t, err, response.ErrCodeInvalidPosition)
		_, err = f.tasks.MoveTask(f.ctx, t3.TaskID, &dto.MoveTaskRequest{GroupID: &g1})
		assertAppError(t, err, response.ErrCodeInvalidPosition)
		missing := uuid.New()
		_, err = f.tasks.MoveTask(f.ctx, t3.TaskID, &dto.MoveTaskRequest{GroupID: &missing, Position: intPtr(0)})
		assertAppError(t, err, response.ErrCodeNotFound)
	})
}

func TestProperty_TaskPositionsStayDense(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	properties.Property("every task sequence stays 0..n-1 after arbitrary operations", prop.ForAll(
		func(ops []int) bool {
			f := newFixture(t)
			other := f.createGroup(t, "Other").GroupID
			scopes := []*uuid.UUID{&f.groupID, &other, nil}
			var ids []uuid.UUID

			for i, op := range ops {
				scope := scopes[op%3]
				pos := op / 9
				switch (op / 3) % 3 {
				case 0:
					resp, err := f.tasks.CreateTask(f.ctx, f.projectID, &dto.CreateTaskRequest{
						Title: "task", GroupID: scope, Position: intPtr(pos),
					})
					if err != nil {
						return false
					}
					ids = append(ids, resp.Task.TaskID)
				case 1:
					if len(ids) == 0 {
						continue
					}
					id := ids[i%len(ids)]
					if _, err := f.tasks.MoveTask(f.ctx, id, &dto.MoveTaskRequest{GroupID: scope, Position: intPtr(pos)}); err != nil {
						return false
					}
				case 2:
					if len(ids) == 0 {
						continue
					}
					k := i % len(ids)
					if err := f.tasks.DeleteTask(f.ctx, ids[k]); err != nil {
						return false
					}
					ids = append(ids[:k], ids[k+1:]...)
				}
			}

			total := 0
			for _, scope := range scopes {
				rows, err := f.taskRepo.ScopePositions(context.Background(), domain.ScopeOf(f.projectID, scope))
				if err != nil || !isDense(rows) {
					return false
				}
				total += len(rows)
			}
			return total == len(ids)
		},
		gen.SliceOfN(15, gen.IntRange(0, 89)),
	))

	properties.TestingRun(t)
}
