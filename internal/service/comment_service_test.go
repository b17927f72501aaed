package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-board-api/internal/client"
	"task-board-api/internal/domain"
	"task-board-api/internal/dto"
	"task-board-api/internal/response"
)

func TestCommentService_AddComment(t *testing.T) {
	f := newFixture(t)
	assignee := uuid.New()
	task := f.createTask(t, "Copy review", &f.groupID)
	_, err := f.tasks.AssignTask(f.ctx, task.TaskID, &assignee)
	require.NoError(t, err)

	resp, err := f.comments.AddComment(f.ctx, task.TaskID, &dto.CreateCommentRequest{Content: "headline is too long"})
	require.NoError(t, err)
	assert.Equal(t, f.userID, resp.Comment.UserID)
	assert.Equal(t, "headline is too long", resp.Comment.Content)
	require.NotNil(t, resp.Automation)
	assert.Equal(t, 1, resp.Automation.EventsProcessed)

	sent := f.notifier.sent()
	require.Len(t, sent, 2)
	assert.Equal(t, client.NotificationCommentAdded, sent[1].Type)
	assert.Equal(t, assignee, sent[1].TargetUserID)

	// the assignee commenting on their own task notifies nobody
	assigneeCtx := context.WithValue(context.Background(), "user_id", assignee)
	_, err = f.comments.AddComment(assigneeCtx, task.TaskID, &dto.CreateCommentRequest{Content: "fixed"})
	require.NoError(t, err)
	assert.Len(t, f.notifier.sent(), 2)

	comments, err := f.comments.ListComments(f.ctx, task.TaskID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "headline is too long", comments[0].Content)

	activity, err := f.tasks.GetActivity(f.ctx, task.TaskID, 1)
	require.NoError(t, err)
	assert.Equal(t, string(domain.EventCommentAdded), activity[0].Kind)

	_, err = f.comments.AddComment(f.ctx, uuid.New(), &dto.CreateCommentRequest{Content: "?"})
	assertAppError(t, err, response.ErrCodeNotFound)
}

func TestCommentService_OnlyAuthorMayEdit(t *testing.T) {
	f := newFixture(t)
	task := f.createTask(t, "Copy review", nil)
	resp, err := f.comments.AddComment(f.ctx, task.TaskID, &dto.CreateCommentRequest{Content: "draft"})
	require.NoError(t, err)
	commentID := resp.Comment.CommentID

	stranger := context.WithValue(context.Background(), "user_id", uuid.New())
	_, err = f.comments.UpdateComment(stranger, commentID, &dto.UpdateCommentRequest{Content: "mine now"})
	assertAppError(t, err, response.ErrCodeForbidden)
	assertAppError(t, f.comments.DeleteComment(stranger, commentID), response.ErrCodeForbidden)

	updated, err := f.comments.UpdateComment(f.ctx, commentID, &dto.UpdateCommentRequest{Content: "final"})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Content)

	require.NoError(t, f.comments.DeleteComment(f.ctx, commentID))
	assertAppError(t, f.comments.DeleteComment(f.ctx, commentID), response.ErrCodeNotFound)
}
