package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"task-board-api/internal/domain"
)

// TaskFilter narrows a project task listing
type TaskFilter struct {
	Status     *domain.TaskStatus
	AssigneeID *uuid.UUID
	GroupID    *uuid.UUID
	Ungrouped  bool
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	FindByProjectID(ctx context.Context, projectID uuid.UUID, filter TaskFilter) ([]*domain.Task, error)
	FindByScope(ctx context.Context, scope domain.TaskScope) ([]*domain.Task, error)
	FindOpenWithDueDate(ctx context.Context, projectID uuid.UUID) ([]*domain.Task, error)
	FindChildIDs(ctx context.Context, parentID uuid.UUID) ([]uuid.UUID, error)
	FindIDsByProjectID(ctx context.Context, projectID uuid.UUID) ([]uuid.UUID, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	MoveToScope(ctx context.Context, id uuid.UUID, scope domain.TaskScope, position int) error
	DetachChildren(ctx context.Context, parentID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByProjectID(ctx context.Context, projectID uuid.UUID) error
	Count(ctx context.Context) (int64, error)

	ScopePositions(ctx context.Context, scope domain.TaskScope) ([]PositionRow, error)
	RepackScope(ctx context.Context, scope domain.TaskScope, ordered []uuid.UUID) error

	ReplaceAssignees(ctx context.Context, taskID uuid.UUID, userIDs []uuid.UUID) error
	RemoveAssignee(ctx context.Context, taskID, userID uuid.UUID) error
	FindAssignees(ctx context.Context, taskIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error)
	DeleteAssigneesByTaskIDs(ctx context.Context, taskIDs []uuid.UUID) error

	WithTx(tx *gorm.DB) TaskRepository
}

type taskRepositoryImpl struct {
	db *gorm.DB
}

// NewTaskRepository creates a new instance of TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepositoryImpl{db: db}
}

func (r *taskRepositoryImpl) WithTx(tx *gorm.DB) TaskRepository {
	return &taskRepositoryImpl{db: tx}
}

func (r *taskRepositoryImpl) Create(ctx context.Context, task *domain.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// FindByID loads a task with its additional assignees
func (r *taskRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	var task domain.Task
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	assignees, err := r.FindAssignees(ctx, []uuid.UUID{task.ID})
	if err != nil {
		return nil, err
	}
	task.AdditionalAssigneeIDs = assignees[task.ID]
	return &task, nil
}

// FindByIDForUpdate reads the task with a row lock held until the transaction ends.
// sqlite has no row locks, its writers are already serialized.
func (r *taskRepositoryImpl) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	q := r.db.WithContext(ctx)
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var task domain.Task
	if err := q.Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	assignees, err := r.FindAssignees(ctx, []uuid.UUID{task.ID})
	if err != nil {
		return nil, err
	}
	task.AdditionalAssigneeIDs = assignees[task.ID]
	return &task, nil
}

func (r *taskRepositoryImpl) FindByProjectID(ctx context.Context, projectID uuid.UUID, filter TaskFilter) ([]*domain.Task, error) {
	query := r.db.WithContext(ctx).Where("project_id = ?", projectID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.AssigneeID != nil {
		query = query.Where("assignee_id = ?", *filter.AssigneeID)
	}
	if filter.Ungrouped {
		query = query.Where("group_id IS NULL")
	} else if filter.GroupID != nil {
		query = query.Where("group_id = ?", *filter.GroupID)
	}

	var tasks []*domain.Task
	if err := query.Order("position ASC, created_at ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	if err := r.attachAssignees(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// FindByScope returns the tasks of one position sequence ordered by position
func (r *taskRepositoryImpl) FindByScope(ctx context.Context, scope domain.TaskScope) ([]*domain.Task, error) {
	var tasks []*domain.Task
	if err := scopeQuery(r.db.WithContext(ctx), scope).
		Order("position ASC, created_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// FindOpenWithDueDate returns tasks with a due date that are neither completed nor cancelled
func (r *taskRepositoryImpl) FindOpenWithDueDate(ctx context.Context, projectID uuid.UUID) ([]*domain.Task, error) {
	var tasks []*domain.Task
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND due_date IS NOT NULL", projectID).
		Where("status NOT IN ?", []domain.TaskStatus{domain.TaskStatusCompleted, domain.TaskStatusCancelled}).
		Order("due_date ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepositoryImpl) FindChildIDs(ctx context.Context, parentID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&domain.Task{}).Where("parent_task_id = ?", parentID).Pluck("id", &ids).Error
	return ids, err
}

func (r *taskRepositoryImpl) FindIDsByProjectID(ctx context.Context, projectID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&domain.Task{}).Where("project_id = ?", projectID).Pluck("id", &ids).Error
	return ids, err
}

// UpdateFields updates the given columns of a single task
func (r *taskRepositoryImpl) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&domain.Task{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *taskRepositoryImpl) MoveToScope(ctx context.Context, id uuid.UUID, scope domain.TaskScope, position int) error {
	return r.db.WithContext(ctx).Model(&domain.Task{}).Where("id = ?", id).
		Updates(map[string]interface{}{"group_id": scope.GroupID, "position": position}).Error
}

func (r *taskRepositoryImpl) DetachChildren(ctx context.Context, parentID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("parent_task_id = ?", parentID).
		Update("parent_task_id", nil).Error
}

func (r *taskRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Task{}).Error
}

func (r *taskRepositoryImpl) DeleteByProjectID(ctx context.Context, projectID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("project_id = ?", projectID).Delete(&domain.Task{}).Error
}

func (r *taskRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Task{}).Count(&count).Error
	return count, err
}

func (r *taskRepositoryImpl) ScopePositions(ctx context.Context, scope domain.TaskScope) ([]PositionRow, error) {
	var rows []PositionRow
	if err := scopeQuery(r.db.WithContext(ctx).Model(&domain.Task{}), scope).
		Select("id", "position").
		Order("position ASC, created_at ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// RepackScope assigns positions 0..n-1 within the scope following ordered
func (r *taskRepositoryImpl) RepackScope(ctx context.Context, scope domain.TaskScope, ordered []uuid.UUID) error {
	rows, err := r.ScopePositions(ctx, scope)
	if err != nil {
		return err
	}
	return applyPositions(r.db.WithContext(ctx), &domain.Task{}, ordered, positionMap(rows))
}

// ReplaceAssignees swaps the additional assignee set of a task
func (r *taskRepositoryImpl) ReplaceAssignees(ctx context.Context, taskID uuid.UUID, userIDs []uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("task_id = ?", taskID).Delete(&domain.TaskAssignee{}).Error; err != nil {
		return err
	}
	if len(userIDs) == 0 {
		return nil
	}
	rows := make([]*domain.TaskAssignee, len(userIDs))
	for i, userID := range userIDs {
		rows[i] = &domain.TaskAssignee{TaskID: taskID, UserID: userID}
	}
	return db.Create(&rows).Error
}

func (r *taskRepositoryImpl) RemoveAssignee(ctx context.Context, taskID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		Delete(&domain.TaskAssignee{}).Error
}

// FindAssignees returns additional assignees keyed by task id
func (r *taskRepositoryImpl) FindAssignees(ctx context.Context, taskIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	result := make(map[uuid.UUID][]uuid.UUID)
	if len(taskIDs) == 0 {
		return result, nil
	}
	var rows []domain.TaskAssignee
	if err := r.db.WithContext(ctx).
		Where("task_id IN ?", taskIDs).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.TaskID] = append(result[row.TaskID], row.UserID)
	}
	return result, nil
}

func (r *taskRepositoryImpl) DeleteAssigneesByTaskIDs(ctx context.Context, taskIDs []uuid.UUID) error {
	if len(taskIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("task_id IN ?", taskIDs).Delete(&domain.TaskAssignee{}).Error
}

func (r *taskRepositoryImpl) attachAssignees(ctx context.Context, tasks []*domain.Task) error {
	ids := make([]uuid.UUID, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	assignees, err := r.FindAssignees(ctx, ids)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		t.AdditionalAssigneeIDs = assignees[t.ID]
	}
	return nil
}

func scopeQuery(db *gorm.DB, scope domain.TaskScope) *gorm.DB {
	db = db.Where("project_id = ?", scope.ProjectID)
	if scope.GroupID == nil {
		return db.Where("group_id IS NULL")
	}
	return db.Where("group_id = ?", *scope.GroupID)
}
