package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-board-api/internal/client"
	"task-board-api/internal/domain"
	"task-board-api/internal/dto"
)

func TestAutomation_StatusChangeFiresOnce(t *testing.T) {
	f := newFixture(t)
	f.createRule(t, "Completed work is low priority",
		domain.TriggerStatusChange, `{"fromStatus":"any","toStatus":"completed"}`,
		domain.ActionUpdatePriority, `{"newPriority":"low"}`)
	task := f.createTask(t, "Ship", &f.groupID)

	resp, err := f.tasks.UpdateStatus(f.ctx, task.TaskID, domain.TaskStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, "low", resp.Task.Priority)
	require.NotNil(t, resp.Automation)
	require.Len(t, resp.Automation.Firings, 1)
	assert.Equal(t, 0, resp.Automation.Firings[0].Depth)
	assert.False(t, resp.Automation.CycleDetected)

	activity, err := f.tasks.GetActivity(f.ctx, task.TaskID, 1)
	require.NoError(t, err)
	assert.Equal(t, string(domain.EventPriorityChanged), activity[0].Kind)
	assert.Equal(t, string(domain.ActorRule), activity[0].ActorType)
	assert.Equal(t, 1, activity[0].ChainDepth)

	// status unchanged, no event, no firing
	resp, err = f.tasks.UpdateStatus(f.ctx, task.TaskID, domain.TaskStatusCompleted)
	require.NoError(t, err)
	assert.Nil(t, resp.Automation)
}

func TestAutomation_InactiveRuleIgnored(t *testing.T) {
	f := newFixture(t)
	rule := f.createRule(t, "Paused",
		domain.TriggerStatusChange, `{"fromStatus":"any","toStatus":"review"}`,
		domain.ActionUpdatePriority, `{"newPriority":"urgent"}`)
	_, err := f.rules.ToggleRule(f.ctx, rule.RuleID, false)
	require.NoError(t, err)
	task := f.createTask(t, "Spec", nil)

	resp, err := f.tasks.UpdateStatus(f.ctx, task.TaskID, domain.TaskStatusReview)
	require.NoError(t, err)
	assert.Equal(t, "medium", resp.Task.Priority)
}

func TestAutomation_MutualRulesTerminate(t *testing.T) {
	f := newFixture(t)
	f.createRule(t, "Reopen completed",
		domain.TriggerStatusChange, `{"fromStatus":"any","toStatus":"completed"}`,
		domain.ActionChangeStatus, `{"newStatus":"pending"}`)
	f.createRule(t, "Complete pending",
		domain.TriggerStatusChange, `{"fromStatus":"any","toStatus":"pending"}`,
		domain.ActionChangeStatus, `{"newStatus":"completed"}`)
	task := f.createTask(t, "Loop", &f.groupID)

	resp, err := f.tasks.UpdateStatus(f.ctx, task.TaskID, domain.TaskStatusCompleted)
	require.NoError(t, err)
	assert.Len(t, resp.Automation.Firings, 2)
	assert.False(t, resp.Automation.CycleDetected)
	assert.Equal(t, 2, resp.Automation.MaxDepth)
	assert.Equal(t, "completed", resp.Task.Status)
}

func TestAutomation_DepthLimit(t *testing.T) {
	f := newFixture(t, withMaxDepth(2))
	f.createRule(t, "to review",
		domain.TriggerStatusChange, `{"fromStatus":"any","toStatus":"in_progress"}`,
		domain.ActionChangeStatus, `{"newStatus":"review"}`)
	f.createRule(t, "to completed",
		domain.TriggerStatusChange, `{"fromStatus":"any","toStatus":"review"}`,
		domain.ActionChangeStatus, `{"newStatus":"completed"}`)
	f.createRule(t, "to cancelled",
		domain.TriggerStatusChange, `{"fromStatus":"any","toStatus":"completed"}`,
		domain.ActionChangeStatus, `{"newStatus":"cancelled"}`)
	task := f.createTask(t, "Deep", nil)

	resp, err := f.tasks.UpdateStatus(f.ctx, task.TaskID, domain.TaskStatusInProgress)
	require.NoError(t, err)
	assert.True(t, resp.Automation.CycleDetected)
	assert.Len(t, resp.Automation.Firings, 2)
	// the mutations applied before the limit stay
	assert.Equal(t, "completed", resp.Task.Status)
}

func TestAutomation_BlockedAssignsSupervisor(t *testing.T) {
	supervisor := uuid.New()
	f := newFixture(t, withUsers(staticUsers{supervisor: true}))
	f.createRule(t, "Escalate blocked work",
		domain.TriggerStatusChange, `{"fromStatus":"any","toStatus":"blocked"}`,
		domain.ActionAssignTask, `{"assignTo":"`+supervisor.String()+`"}`)
	f.createRule(t, "Tell the supervisor",
		domain.TriggerTaskAssigned, `{"assignedTo":"`+supervisor.String()+`"}`,
		domain.ActionSendNotification, `{"message":"A task needs you"}`)
	task := f.createTask(t, "Vendor contract", &f.groupID)

	resp, err := f.tasks.UpdateStatus(f.ctx, task.TaskID, domain.TaskStatusBlocked)
	require.NoError(t, err)
	require.NotNil(t, resp.Task.AssigneeID)
	assert.Equal(t, supervisor, *resp.Task.AssigneeID)
	assert.Len(t, resp.Automation.Firings, 2)

	var types []client.NotificationType
	for _, n := range f.notifier.sent() {
		assert.Equal(t, supervisor, n.TargetUserID)
		types = append(types, n.Type)
	}
	assert.ElementsMatch(t, []client.NotificationType{client.NotificationTaskAssigned, client.NotificationAutomationRule}, types)
}

func TestAutomation_FailedActionDoesNotFailMutation(t *testing.T) {
	supervisor := uuid.New()
	users := staticUsers{supervisor: true}
	f := newFixture(t, withUsers(users))
	f.createRule(t, "Escalate",
		domain.TriggerStatusChange, `{"fromStatus":"any","toStatus":"blocked"}`,
		domain.ActionAssignTask, `{"assignTo":"`+supervisor.String()+`"}`)
	task := f.createTask(t, "Orphaned", nil)

	// supervisor left after the rule was saved
	delete(users, supervisor)

	resp, err := f.tasks.UpdateStatus(f.ctx, task.TaskID, domain.TaskStatusBlocked)
	require.NoError(t, err)
	assert.Equal(t, "blocked", resp.Task.Status)
	assert.Nil(t, resp.Task.AssigneeID)
	require.Len(t, resp.Automation.Firings, 1)
	assert.NotEmpty(t, resp.Automation.Firings[0].Error)
}

func TestAutomation_SubtaskCompletedReachesParent(t *testing.T) {
	f := newFixture(t)
	f.createRule(t, "Nudge parent owner",
		domain.TriggerSubtaskCompleted, ``,
		domain.ActionSendNotification, `{"message":"A subtask finished"}`)
	parent := f.createTask(t, "Parent", &f.groupID)
	child, err := f.tasks.CreateTask(f.ctx, f.projectID, &dto.CreateTaskRequest{Title: "Child", ParentTaskID: &parent.TaskID})
	require.NoError(t, err)

	_, err = f.tasks.UpdateStatus(f.ctx, child.Task.TaskID, domain.TaskStatusCompleted)
	require.NoError(t, err)

	sent := f.notifier.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, parent.TaskID, sent[0].ResourceID)
	assert.Equal(t, f.userID, sent[0].TargetUserID)
	assert.Equal(t, "A subtask finished", sent[0].Metadata["message"])
}

func TestAutomation_CreateSubtaskAndMove(t *testing.T) {
	f := newFixture(t)
	done := f.createGroup(t, "Done").GroupID
	f.createRule(t, "Archive completed",
		domain.TriggerStatusChange, `{"fromStatus":"any","toStatus":"completed"}`,
		domain.ActionMoveToGroup, `{"targetGroupId":"`+done.String()+`"}`)
	f.createRule(t, "Follow up on comments",
		domain.TriggerCommentAdded, ``,
		domain.ActionCreateSubtask, `{"title":"Reply to comment"}`)

	a := f.createTask(t, "a", &f.groupID)
	b := f.createTask(t, "b", &f.groupID)

	_, err := f.tasks.UpdateStatus(f.ctx, a.TaskID, domain.TaskStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b.TaskID}, f.scopeIDs(t, &f.groupID))
	assert.Equal(t, []uuid.UUID{a.TaskID}, f.scopeIDs(t, &done))

	resp, err := f.comments.AddComment(f.ctx, b.TaskID, &dto.CreateCommentRequest{Content: "can we split this?"})
	require.NoError(t, err)
	require.Len(t, resp.Automation.Firings, 1)

	scope := f.scopeIDs(t, &f.groupID)
	require.Len(t, scope, 2)
	sub := f.loadTask(t, scope[1])
	assert.Equal(t, "Reply to comment", sub.Title)
	require.NotNil(t, sub.ParentTaskID)
	assert.Equal(t, b.TaskID, *sub.ParentTaskID)
}

func TestAutomation_AttachmentAdded(t *testing.T) {
	f := newFixture(t)
	f.createRule(t, "Files mean review",
		domain.TriggerAttachmentAdded, ``,
		domain.ActionChangeStatus, `{"newStatus":"review"}`)
	task := f.createTask(t, "Design", nil)

	presigned, err := f.attachments.GeneratePresignedURL(f.ctx, &dto.PresignedURLRequest{
		ProjectID: f.projectID, FileName: "mock.png", FileSize: 2048, ContentType: "image/png",
	})
	require.NoError(t, err)
	resp, err := f.attachments.ConfirmAttachments(f.ctx, task.TaskID, &dto.ConfirmAttachmentsRequest{
		AttachmentIDs: []uuid.UUID{presigned.AttachmentID},
	})
	require.NoError(t, err)
	require.Len(t, resp.Attachments, 1)
	assert.Equal(t, domain.TaskStatusReview, f.loadTask(t, task.TaskID).Status)
	require.NotNil(t, resp.Automation)
	assert.Len(t, resp.Automation.Firings, 1)
}
