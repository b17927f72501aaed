package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"task-board-api/internal/automation"
	"task-board-api/internal/client"
	"task-board-api/internal/domain"
	"task-board-api/internal/dto"
	"task-board-api/internal/metrics"
	"task-board-api/internal/repository"
	"task-board-api/internal/response"
)

// TaskService defines the interface for the task store.
// Every write dispatches its mutation events to the rule engine before returning.
type TaskService interface {
	CreateTask(ctx context.Context, projectID uuid.UUID, req *dto.CreateTaskRequest) (*dto.TaskMutationResponse, error)
	GetTask(ctx context.Context, taskID uuid.UUID) (*dto.TaskResponse, error)
	ListTasks(ctx context.Context, projectID uuid.UUID, filters *dto.TaskFilters) ([]*dto.TaskResponse, error)
	UpdateTask(ctx context.Context, taskID uuid.UUID, req *dto.UpdateTaskRequest) (*dto.TaskMutationResponse, error)
	DeleteTask(ctx context.Context, taskID uuid.UUID) error

	UpdateStatus(ctx context.Context, taskID uuid.UUID, status domain.TaskStatus) (*dto.TaskMutationResponse, error)
	UpdatePriority(ctx context.Context, taskID uuid.UUID, priority domain.TaskPriority) (*dto.TaskMutationResponse, error)
	UpdateProgress(ctx context.Context, taskID uuid.UUID, progress int) (*dto.TaskMutationResponse, error)
	AssignTask(ctx context.Context, taskID uuid.UUID, assigneeID *uuid.UUID) (*dto.TaskMutationResponse, error)
	UpdateDueDate(ctx context.Context, taskID uuid.UUID, dueDate *time.Time) (*dto.TaskMutationResponse, error)
	MoveTask(ctx context.Context, taskID uuid.UUID, req *dto.MoveTaskRequest) (*dto.MoveTaskResponse, error)

	SetColumnValue(ctx context.Context, taskID, columnID uuid.UUID, raw json.RawMessage) (*dto.ColumnValueResponse, error)
	ClearColumnValue(ctx context.Context, taskID, columnID uuid.UUID) error
	GetActivity(ctx context.Context, taskID uuid.UUID, limit int) ([]dto.ActivityResponse, error)

	TaskDispatcher
}

// TaskDispatcher runs the rule chain for events raised outside the task store
type TaskDispatcher interface {
	Dispatch(ctx context.Context, events []domain.MutationEvent) *automation.ChainResult
	Mutator() automation.TaskMutator
}

type taskServiceImpl struct {
	taskRepo       repository.TaskRepository
	valueRepo      repository.ColumnValueRepository
	columnRepo     repository.ColumnRepository
	groupRepo      repository.GroupRepository
	projectRepo    repository.ProjectRepository
	commentRepo    repository.CommentRepository
	attachmentRepo repository.AttachmentRepository
	activityRepo   repository.ActivityRepository
	transactor     repository.Transactor
	locker         *ScopeLocker
	engine         *automation.Engine
	notifier       client.NotificationClient
	s3Client       client.S3ClientInterface
	metrics        *metrics.Metrics
	logger         *zap.Logger
}

// TaskServiceDeps groups the collaborators of the task service
type TaskServiceDeps struct {
	Tasks       repository.TaskRepository
	Values      repository.ColumnValueRepository
	Columns     repository.ColumnRepository
	Groups      repository.GroupRepository
	Projects    repository.ProjectRepository
	Comments    repository.CommentRepository
	Attachments repository.AttachmentRepository
	Activities  repository.ActivityRepository
	Transactor  repository.Transactor
	Locker      *ScopeLocker
	Engine      *automation.Engine
	Notifier    client.NotificationClient
	S3Client    client.S3ClientInterface
}

// NewTaskService creates a new instance of TaskService
func NewTaskService(deps TaskServiceDeps, m *metrics.Metrics, logger *zap.Logger) TaskService {
	notifier := deps.Notifier
	if notifier == nil {
		notifier = client.NewNoOpNotificationClient()
	}
	return &taskServiceImpl{
		taskRepo:       deps.Tasks,
		valueRepo:      deps.Values,
		columnRepo:     deps.Columns,
		groupRepo:      deps.Groups,
		projectRepo:    deps.Projects,
		commentRepo:    deps.Comments,
		attachmentRepo: deps.Attachments,
		activityRepo:   deps.Activities,
		transactor:     deps.Transactor,
		locker:         deps.Locker,
		engine:         deps.Engine,
		notifier:       notifier,
		s3Client:       deps.S3Client,
		metrics:        m,
		logger:         logger,
	}
}

// Mutator returns the adapter the rule engine uses to apply actions
func (s *taskServiceImpl) Mutator() automation.TaskMutator {
	return &taskMutator{s: s}
}

// Dispatch runs the rule chain for events and returns its summary
func (s *taskServiceImpl) Dispatch(ctx context.Context, events []domain.MutationEvent) *automation.ChainResult {
	if s.engine == nil || len(events) == 0 {
		return nil
	}
	result := s.engine.Process(ctx, s.Mutator(), events)
	if result.CycleDetected {
		s.logger.Warn("Automation chain stopped at depth limit",
			zap.String("task_id", events[0].TaskID.String()),
			zap.Int("events", result.EventsProcessed),
		)
	}
	return result
}

// CreateTask creates a task in a group or in the ungrouped list
func (s *taskServiceImpl) CreateTask(ctx context.Context, projectID uuid.UUID, req *dto.CreateTaskRequest) (*dto.TaskMutationResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.projectRepo.FindByID(ctx, projectID); err != nil {
		return nil, repoError(err, "Project not found", "Failed to verify project")
	}

	task := &domain.Task{
		ProjectID:    projectID,
		GroupID:      req.GroupID,
		ParentTaskID: req.ParentTaskID,
		Title:        req.Title,
		Description:  req.Description,
		Status:       domain.TaskStatusPending,
		Priority:     domain.TaskPriorityMedium,
		AssigneeID:   req.AssigneeID,
		DueDate:      req.DueDate,
		CreatedBy:    userID,
	}
	if req.Status != "" {
		task.Status = domain.TaskStatus(req.Status)
		if !task.Status.IsValid() {
			return nil, response.NewValidationError("Invalid status", req.Status)
		}
	}
	if req.Priority != "" {
		task.Priority = domain.TaskPriority(req.Priority)
		if !task.Priority.IsValid() {
			return nil, response.NewValidationError("Invalid priority", req.Priority)
		}
	}
	if req.Progress != nil {
		task.Progress = domain.ClampProgress(*req.Progress)
	}
	if task.DueDate != nil {
		due := task.DueDate.UTC()
		task.DueDate = &due
	}
	task.SetTags(req.Tags)
	task.AdditionalAssigneeIDs = domain.NormalizeAssignees(req.AdditionalAssigneeIDs, task.AssigneeID)

	if err := s.verifyGroup(ctx, projectID, task.GroupID); err != nil {
		return nil, err
	}
	if task.ParentTaskID != nil {
		parent, err := s.taskRepo.FindByID(ctx, *task.ParentTaskID)
		if err != nil {
			return nil, repoError(err, "Parent task not found", "Failed to verify parent task")
		}
		if parent.ProjectID != projectID {
			return nil, response.NewValidationError("Parent task belongs to another project", "")
		}
	}

	if err := s.insertTask(ctx, task, req.Position); err != nil {
		return nil, err
	}

	events := []domain.MutationEvent{
		domain.NewMutationEvent(task, domain.EventTaskCreated, domain.FieldNone, "", task.Title, domain.UserActor(userID)),
	}
	if task.AssigneeID != nil {
		events = append(events, domain.NewMutationEvent(task, domain.EventTaskAssigned, domain.FieldAssignee,
			"", task.AssigneeID.String(), domain.UserActor(userID)))
		s.notifyAssigned(ctx, task, *task.AssigneeID, userID)
	}

	if s.metrics != nil {
		s.metrics.IncrementTaskCreated()
	}
	s.logger.Info("Task created",
		zap.String("task_id", task.ID.String()),
		zap.String("project_id", projectID.String()),
		zap.String("scope", task.Scope().Key()),
	)

	return s.settle(ctx, task.ID, events)
}

// insertTask creates task inside its scope at position (nil appends)
func (s *taskServiceImpl) insertTask(ctx context.Context, task *domain.Task, position *int) error {
	scope := task.Scope()
	err := runSequenceTx(ctx, s.locker, s.transactor, []string{scope.Key()}, func(tx *gorm.DB) error {
		if err := verifyGroupTx(ctx, s.groupRepo.WithTx(tx), task.ProjectID, task.GroupID); err != nil {
			return err
		}
		repo := s.taskRepo.WithTx(tx)
		rows, err := repo.ScopePositions(ctx, scope)
		if err != nil {
			return err
		}
		pos := len(rows)
		if position != nil {
			pos = clampPosition(*position, len(rows))
		}

		task.Position = len(rows)
		if err := repo.Create(ctx, task); err != nil {
			return err
		}
		if pos != len(rows) {
			if err := repo.RepackScope(ctx, scope, insertAt(idsOf(rows), task.ID, pos)); err != nil {
				return err
			}
		}
		task.Position = pos
		if err := repo.ReplaceAssignees(ctx, task.ID, task.AdditionalAssigneeIDs); err != nil {
			return err
		}
		return checkDense(repo.ScopePositions(ctx, scope))
	})
	return repoError(err, "Task not found", "Failed to create task")
}

// GetTask returns a single task
func (s *taskServiceImpl) GetTask(ctx context.Context, taskID uuid.UUID) (*dto.TaskResponse, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, repoError(err, "Task not found", "Failed to load task")
	}
	return toTaskResponse(task), nil
}

// ListTasks returns the project's tasks, filtered by status, assignee or group
func (s *taskServiceImpl) ListTasks(ctx context.Context, projectID uuid.UUID, filters *dto.TaskFilters) ([]*dto.TaskResponse, error) {
	if _, err := s.projectRepo.FindByID(ctx, projectID); err != nil {
		return nil, repoError(err, "Project not found", "Failed to verify project")
	}

	var filter repository.TaskFilter
	if filters != nil {
		if filters.Status != "" {
			status := domain.TaskStatus(filters.Status)
			if !status.IsValid() {
				return nil, response.NewValidationError("Invalid status filter", filters.Status)
			}
			filter.Status = &status
		}
		if filters.AssigneeID != "" {
			id, err := uuid.Parse(filters.AssigneeID)
			if err != nil {
				return nil, response.NewValidationError("Invalid assignee filter", filters.AssigneeID)
			}
			filter.AssigneeID = &id
		}
		switch filters.GroupID {
		case "":
		case "ungrouped":
			filter.Ungrouped = true
		default:
			id, err := uuid.Parse(filters.GroupID)
			if err != nil {
				return nil, response.NewValidationError("Invalid group filter", filters.GroupID)
			}
			filter.GroupID = &id
		}
	}

	tasks, err := s.taskRepo.FindByProjectID(ctx, projectID, filter)
	if err != nil {
		return nil, response.NewInternalError("Failed to list tasks", err.Error())
	}
	out := make([]*dto.TaskResponse, len(tasks))
	for i, t := range tasks {
		out[i] = toTaskResponse(t)
	}
	return out, nil
}

// UpdateTask applies a partial update. Field changes raise the same events as the single-field endpoints.
func (s *taskServiceImpl) UpdateTask(ctx context.Context, taskID uuid.UUID, req *dto.UpdateTaskRequest) (*dto.TaskMutationResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if req.Status != nil && !domain.TaskStatus(*req.Status).IsValid() {
		return nil, response.NewValidationError("Invalid status", *req.Status)
	}
	if req.Priority != nil && !domain.TaskPriority(*req.Priority).IsValid() {
		return nil, response.NewValidationError("Invalid priority", *req.Priority)
	}

	events, err := s.mutate(ctx, taskID, domain.UserActor(userID), func(c *taskChanges) error {
		if req.Title != nil {
			c.title(*req.Title)
		}
		if req.Description != nil {
			c.description(*req.Description)
		}
		if req.Tags != nil {
			c.tags(*req.Tags)
		}
		if req.Status != nil {
			c.status(domain.TaskStatus(*req.Status))
		}
		if req.Priority != nil {
			c.priority(domain.TaskPriority(*req.Priority))
		}
		if req.Progress != nil {
			c.progress(*req.Progress)
		}
		if req.ClearDueDate {
			c.dueDate(nil)
		} else if req.DueDate != nil {
			c.dueDate(req.DueDate)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if req.AdditionalAssigneeIDs != nil {
		if err := s.replaceAdditionalAssignees(ctx, taskID, *req.AdditionalAssigneeIDs); err != nil {
			return nil, err
		}
	}

	return s.settle(ctx, taskID, events)
}

func (s *taskServiceImpl) replaceAdditionalAssignees(ctx context.Context, taskID uuid.UUID, ids []uuid.UUID) error {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return repoError(err, "Task not found", "Failed to load task")
	}
	normalized := domain.NormalizeAssignees(ids, task.AssigneeID)
	if err := s.taskRepo.ReplaceAssignees(ctx, taskID, normalized); err != nil {
		return response.NewInternalError("Failed to update assignees", err.Error())
	}
	return nil
}

// UpdateStatus changes the workflow status
func (s *taskServiceImpl) UpdateStatus(ctx context.Context, taskID uuid.UUID, status domain.TaskStatus) (*dto.TaskMutationResponse, error) {
	if !status.IsValid() {
		return nil, response.NewValidationError("Invalid status", string(status))
	}
	return s.userMutation(ctx, taskID, func(c *taskChanges) error {
		c.status(status)
		return nil
	})
}

// UpdatePriority changes the priority
func (s *taskServiceImpl) UpdatePriority(ctx context.Context, taskID uuid.UUID, priority domain.TaskPriority) (*dto.TaskMutationResponse, error) {
	if !priority.IsValid() {
		return nil, response.NewValidationError("Invalid priority", string(priority))
	}
	return s.userMutation(ctx, taskID, func(c *taskChanges) error {
		c.priority(priority)
		return nil
	})
}

// UpdateProgress sets progress, clamped to [0,100]
func (s *taskServiceImpl) UpdateProgress(ctx context.Context, taskID uuid.UUID, progress int) (*dto.TaskMutationResponse, error) {
	return s.userMutation(ctx, taskID, func(c *taskChanges) error {
		c.progress(progress)
		return nil
	})
}

// AssignTask sets the primary assignee, nil unassigns
func (s *taskServiceImpl) AssignTask(ctx context.Context, taskID uuid.UUID, assigneeID *uuid.UUID) (*dto.TaskMutationResponse, error) {
	return s.userMutation(ctx, taskID, func(c *taskChanges) error {
		c.assignee(assigneeID)
		return nil
	})
}

// UpdateDueDate sets the due date, nil clears it
func (s *taskServiceImpl) UpdateDueDate(ctx context.Context, taskID uuid.UUID, dueDate *time.Time) (*dto.TaskMutationResponse, error) {
	return s.userMutation(ctx, taskID, func(c *taskChanges) error {
		c.dueDate(dueDate)
		return nil
	})
}

func (s *taskServiceImpl) userMutation(ctx context.Context, taskID uuid.UUID, apply func(c *taskChanges) error) (*dto.TaskMutationResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	events, err := s.mutate(ctx, taskID, domain.UserActor(userID), apply)
	if err != nil {
		return nil, err
	}
	return s.settle(ctx, taskID, events)
}

// mutate loads the task, applies field changes in one transaction and returns the events.
// The read and the write happen under the task's lock, so old values in the events are the ones replaced.
// It does not dispatch them.
func (s *taskServiceImpl) mutate(ctx context.Context, taskID uuid.UUID, actor domain.Actor, apply func(c *taskChanges) error) ([]domain.MutationEvent, error) {
	var task *domain.Task
	var changes *taskChanges

	err := lockedTx(ctx, s.locker, s.transactor, []string{taskLockKey(taskID)}, func(tx *gorm.DB) error {
		repo := s.taskRepo.WithTx(tx)
		var err error
		task, err = repo.FindByIDForUpdate(ctx, taskID)
		if err != nil {
			return err
		}

		changes = newTaskChanges(task, actor)
		if err := apply(changes); err != nil {
			return err
		}
		if changes.empty() {
			return nil
		}

		changes.set("updated_at", time.Now().UTC())
		if err := repo.UpdateFields(ctx, taskID, changes.fields); err != nil {
			return err
		}
		if changes.promoted != nil {
			return repo.RemoveAssignee(ctx, taskID, *changes.promoted)
		}
		return nil
	})
	if err != nil {
		return nil, repoError(err, "Task not found", "Failed to update task")
	}
	if changes.empty() {
		return nil, nil
	}

	events := changes.events
	if changes.completedParent != nil {
		parent, err := s.taskRepo.FindByID(ctx, *changes.completedParent)
		if err == nil {
			events = append(events, domain.NewMutationEvent(parent, domain.EventSubtaskCompleted, domain.FieldNone,
				"", task.ID.String(), actor))
		} else {
			s.logger.Warn("Parent of completed subtask not found",
				zap.String("task_id", task.ID.String()),
				zap.Error(err),
			)
		}
	}
	if changes.assigned != nil && actor.Type == domain.ActorUser && actor.UserID != nil {
		s.notifyAssigned(ctx, task, *changes.assigned, *actor.UserID)
	}
	return events, nil
}

// settle dispatches events and reloads the task in its settled state
func (s *taskServiceImpl) settle(ctx context.Context, taskID uuid.UUID, events []domain.MutationEvent) (*dto.TaskMutationResponse, error) {
	chain := s.Dispatch(ctx, events)

	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, repoError(err, "Task not found", "Failed to load task")
	}
	return &dto.TaskMutationResponse{
		Task:       toTaskResponse(task),
		Automation: toAutomationSummary(chain),
	}, nil
}

// DeleteTask removes a task with its values, comments, attachments and activity, and re-packs its scope.
// Subtasks are detached, not deleted.
func (s *taskServiceImpl) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return err
	}
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return repoError(err, "Task not found", "Failed to load task")
	}
	attachments, err := s.attachmentRepo.FindByTaskIDs(ctx, []uuid.UUID{taskID})
	if err != nil {
		return response.NewInternalError("Failed to load attachments", err.Error())
	}

	scope := task.Scope()
	err = runSequenceTx(ctx, s.locker, s.transactor, []string{scope.Key()}, func(tx *gorm.DB) error {
		repo := s.taskRepo.WithTx(tx)
		ids := []uuid.UUID{taskID}
		if err := repo.DetachChildren(ctx, taskID); err != nil {
			return err
		}
		if err := s.valueRepo.WithTx(tx).DeleteByTaskIDs(ctx, ids); err != nil {
			return err
		}
		if err := s.commentRepo.WithTx(tx).DeleteByTaskIDs(ctx, ids); err != nil {
			return err
		}
		if err := s.activityRepo.WithTx(tx).DeleteByTaskIDs(ctx, ids); err != nil {
			return err
		}
		if err := repo.DeleteAssigneesByTaskIDs(ctx, ids); err != nil {
			return err
		}
		if len(attachments) > 0 {
			if err := s.attachmentRepo.WithTx(tx).DeleteBatch(ctx, attachmentIDs(attachments)); err != nil {
				return err
			}
		}
		if err := repo.Delete(ctx, taskID); err != nil {
			return err
		}
		rows, err := repo.ScopePositions(ctx, scope)
		if err != nil {
			return err
		}
		if err := repo.RepackScope(ctx, scope, idsOf(rows)); err != nil {
			return err
		}
		return checkDense(repo.ScopePositions(ctx, scope))
	})
	if err != nil {
		return repoError(err, "Task not found", "Failed to delete task")
	}

	deleteS3Files(ctx, s.s3Client, attachments, s.logger)

	s.logger.Info("Task deleted",
		zap.String("task_id", taskID.String()),
		zap.String("project_id", task.ProjectID.String()),
	)
	s.Dispatch(ctx, []domain.MutationEvent{
		domain.NewMutationEvent(task, domain.EventTaskDeleted, domain.FieldNone, task.Title, "", domain.UserActor(userID)),
	})
	return nil
}

// SetColumnValue validates raw against the column type and stores it. Empty values clear the cell.
func (s *taskServiceImpl) SetColumnValue(ctx context.Context, taskID, columnID uuid.UUID, raw json.RawMessage) (*dto.ColumnValueResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	task, column, err := s.loadCell(ctx, taskID, columnID)
	if err != nil {
		return nil, err
	}

	value, err := domain.NormalizeColumnValue(column, raw)
	if err != nil {
		return nil, response.NewTypeMismatchError("Value does not match column type", err.Error())
	}

	previous, err := s.valueRepo.Find(ctx, taskID, columnID)
	if err != nil && !isNotFound(err) {
		return nil, response.NewInternalError("Failed to load column value", err.Error())
	}

	var newTyped interface{}
	if value == nil {
		if previous != nil {
			if err := s.valueRepo.Delete(ctx, taskID, columnID); err != nil {
				return nil, response.NewInternalError("Failed to clear column value", err.Error())
			}
		}
	} else {
		value.TaskID = taskID
		if err := s.valueRepo.Upsert(ctx, value); err != nil {
			return nil, response.NewInternalError("Failed to store column value", err.Error())
		}
		newTyped = value.Typed()
	}

	oldText, newText := typedString(previous), typedString(value)
	if oldText != newText {
		s.Dispatch(ctx, []domain.MutationEvent{
			domain.NewMutationEvent(task, domain.EventColumnValueChanged, domain.FieldColumn, oldText, newText, domain.UserActor(userID)),
		})
	}

	return &dto.ColumnValueResponse{TaskID: taskID, ColumnID: columnID, Value: newTyped}, nil
}

// ClearColumnValue unsets a cell
func (s *taskServiceImpl) ClearColumnValue(ctx context.Context, taskID, columnID uuid.UUID) error {
	_, err := s.SetColumnValue(ctx, taskID, columnID, nil)
	return err
}

func (s *taskServiceImpl) loadCell(ctx context.Context, taskID, columnID uuid.UUID) (*domain.Task, *domain.ColumnDefinition, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, nil, repoError(err, "Task not found", "Failed to load task")
	}
	column, err := s.columnRepo.FindByID(ctx, columnID)
	if err != nil {
		return nil, nil, repoError(err, "Column not found", "Failed to load column")
	}
	if column.ProjectID != task.ProjectID {
		return nil, nil, response.NewNotFoundError("Column not found", "column belongs to another project")
	}
	return task, column, nil
}

// GetActivity returns the newest audit entries of a task
func (s *taskServiceImpl) GetActivity(ctx context.Context, taskID uuid.UUID, limit int) ([]dto.ActivityResponse, error) {
	if _, err := s.taskRepo.FindByID(ctx, taskID); err != nil {
		return nil, repoError(err, "Task not found", "Failed to load task")
	}
	activities, err := s.activityRepo.FindByTaskID(ctx, taskID, limit)
	if err != nil {
		return nil, response.NewInternalError("Failed to load activity", err.Error())
	}
	out := make([]dto.ActivityResponse, len(activities))
	for i, a := range activities {
		out[i] = toActivityResponse(a)
	}
	return out, nil
}

func (s *taskServiceImpl) verifyGroup(ctx context.Context, projectID uuid.UUID, groupID *uuid.UUID) error {
	return verifyGroupTx(ctx, s.groupRepo, projectID, groupID)
}

// notifyAssigned tells a new assignee about the task unless they assigned it themselves
func (s *taskServiceImpl) notifyAssigned(ctx context.Context, task *domain.Task, assigneeID, actorID uuid.UUID) {
	if assigneeID == actorID {
		return
	}
	err := s.notifier.SendNotification(ctx, client.NotificationEvent{
		Type:         client.NotificationTaskAssigned,
		ActorID:      actorID,
		TargetUserID: assigneeID,
		ResourceType: client.ResourceTypeTask,
		ResourceID:   task.ID,
		ResourceName: task.Title,
		Metadata:     map[string]interface{}{"projectId": task.ProjectID.String()},
	})
	if err != nil {
		s.logger.Warn("Failed to send assignment notification",
			zap.String("task_id", task.ID.String()),
			zap.Error(err),
		)
	}
}

func typedString(v *domain.TaskColumnValue) string {
	if v == nil {
		return ""
	}
	typed := v.Typed()
	if typed == nil {
		return ""
	}
	if s, ok := typed.(string); ok {
		return s
	}
	encoded, err := json.Marshal(typed)
	if err != nil {
		return ""
	}
	return string(encoded)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func attachmentIDs(attachments []*domain.TaskAttachment) []uuid.UUID {
	ids := make([]uuid.UUID, len(attachments))
	for i, a := range attachments {
		ids[i] = a.ID
	}
	return ids
}

// deleteS3Files removes attachment objects. Failures are logged and skipped.
func deleteS3Files(ctx context.Context, s3Client client.S3ClientInterface, attachments []*domain.TaskAttachment, logger *zap.Logger) {
	if s3Client == nil {
		return
	}
	for _, a := range attachments {
		if err := s3Client.DeleteFile(ctx, a.FileKey); err != nil {
			logger.Warn("Failed to delete file from S3",
				zap.String("attachment_id", a.ID.String()),
				zap.String("file_key", a.FileKey),
				zap.Error(err))
		}
	}
}
