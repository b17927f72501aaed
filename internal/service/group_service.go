package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"task-board-api/internal/automation"
	"task-board-api/internal/domain"
	"task-board-api/internal/dto"
	"task-board-api/internal/repository"
	"task-board-api/internal/response"
)

// GroupService defines the interface for the group manager
type GroupService interface {
	CreateGroup(ctx context.Context, projectID uuid.UUID, req *dto.CreateGroupRequest) (*dto.GroupResponse, error)
	ListGroups(ctx context.Context, projectID uuid.UUID) ([]*dto.GroupResponse, error)
	UpdateGroup(ctx context.Context, groupID uuid.UUID, req *dto.UpdateGroupRequest) (*dto.GroupResponse, error)
	ReorderGroup(ctx context.Context, groupID uuid.UUID, position int) ([]*dto.GroupResponse, error)
	DeleteGroup(ctx context.Context, groupID uuid.UUID, req *dto.DeleteGroupRequest) (*dto.DeleteGroupResponse, error)
}

type groupServiceImpl struct {
	groupRepo   repository.GroupRepository
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
	transactor  repository.Transactor
	locker      *ScopeLocker
	dispatcher  TaskDispatcher
	broadcaster automation.Broadcaster
	logger      *zap.Logger
}

// NewGroupService creates a new instance of GroupService
func NewGroupService(
	groupRepo repository.GroupRepository,
	taskRepo repository.TaskRepository,
	projectRepo repository.ProjectRepository,
	transactor repository.Transactor,
	locker *ScopeLocker,
	dispatcher TaskDispatcher,
	broadcaster automation.Broadcaster,
	logger *zap.Logger,
) GroupService {
	return &groupServiceImpl{
		groupRepo:   groupRepo,
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		transactor:  transactor,
		locker:      locker,
		dispatcher:  dispatcher,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// CreateGroup appends a group after the last one
func (s *groupServiceImpl) CreateGroup(ctx context.Context, projectID uuid.UUID, req *dto.CreateGroupRequest) (*dto.GroupResponse, error) {
	if _, err := s.projectRepo.FindByID(ctx, projectID); err != nil {
		return nil, repoError(err, "Project not found", "Failed to verify project")
	}

	group := &domain.TaskGroup{
		ProjectID: projectID,
		Name:      req.Name,
		Color:     domain.DefaultGroupColor,
	}
	if req.Color != nil && *req.Color != "" {
		group.Color = *req.Color
	}

	err := runSequenceTx(ctx, s.locker, s.transactor, []string{domain.GroupScopeKey(projectID)}, func(tx *gorm.DB) error {
		repo := s.groupRepo.WithTx(tx)
		rows, err := repo.Positions(ctx, projectID)
		if err != nil {
			return err
		}
		group.Position = len(rows)
		if err := repo.Create(ctx, group); err != nil {
			return err
		}
		return checkDense(repo.Positions(ctx, projectID))
	})
	if err != nil {
		return nil, repoError(err, "Project not found", "Failed to create group")
	}

	s.logger.Info("Group created",
		zap.String("project_id", projectID.String()),
		zap.String("group_id", group.ID.String()),
		zap.Int("position", group.Position),
	)
	boardChanged(s.broadcaster, projectID)
	return toGroupResponse(group), nil
}

// ListGroups returns groups ordered by position
func (s *groupServiceImpl) ListGroups(ctx context.Context, projectID uuid.UUID) ([]*dto.GroupResponse, error) {
	if _, err := s.projectRepo.FindByID(ctx, projectID); err != nil {
		return nil, repoError(err, "Project not found", "Failed to verify project")
	}
	return s.listGroups(ctx, projectID)
}

func (s *groupServiceImpl) listGroups(ctx context.Context, projectID uuid.UUID) ([]*dto.GroupResponse, error) {
	groups, err := s.groupRepo.FindByProjectID(ctx, projectID)
	if err != nil {
		return nil, response.NewInternalError("Failed to list groups", err.Error())
	}
	out := make([]*dto.GroupResponse, len(groups))
	for i, g := range groups {
		out[i] = toGroupResponse(g)
	}
	return out, nil
}

// UpdateGroup changes name, color or collapsed state
func (s *groupServiceImpl) UpdateGroup(ctx context.Context, groupID uuid.UUID, req *dto.UpdateGroupRequest) (*dto.GroupResponse, error) {
	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		return nil, repoError(err, "Group not found", "Failed to load group")
	}
	if req.Name != nil {
		group.Name = *req.Name
	}
	if req.Color != nil {
		group.Color = *req.Color
	}
	if req.IsCollapsed != nil {
		group.IsCollapsed = *req.IsCollapsed
	}
	if err := s.groupRepo.Update(ctx, group); err != nil {
		return nil, response.NewInternalError("Failed to update group", err.Error())
	}
	boardChanged(s.broadcaster, group.ProjectID)
	return toGroupResponse(group), nil
}

// ReorderGroup moves a group to position and shifts the groups in between by one
func (s *groupServiceImpl) ReorderGroup(ctx context.Context, groupID uuid.UUID, position int) ([]*dto.GroupResponse, error) {
	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		return nil, repoError(err, "Group not found", "Failed to load group")
	}
	projectID := group.ProjectID

	err = runSequenceTx(ctx, s.locker, s.transactor, []string{domain.GroupScopeKey(projectID)}, func(tx *gorm.DB) error {
		repo := s.groupRepo.WithTx(tx)
		rows, err := repo.Positions(ctx, projectID)
		if err != nil {
			return err
		}
		if position < 0 || position >= len(rows) {
			return response.NewInvalidPositionError("Position out of range", positionRange(len(rows)))
		}
		if err := repo.Repack(ctx, projectID, moveWithin(idsOf(rows), groupID, position)); err != nil {
			return err
		}
		return checkDense(repo.Positions(ctx, projectID))
	})
	if err != nil {
		return nil, repoError(err, "Group not found", "Failed to reorder group")
	}

	boardChanged(s.broadcaster, projectID)
	return s.listGroups(ctx, projectID)
}

// DeleteGroup deletes a group. Its tasks are appended, in order, to the target group (reassign)
// or to the ungrouped list (orphan). Tasks are never deleted with their group.
func (s *groupServiceImpl) DeleteGroup(ctx context.Context, groupID uuid.UUID, req *dto.DeleteGroupRequest) (*dto.DeleteGroupResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if req == nil || !domain.GroupDeleteStrategy(req.Strategy).IsValid() {
		return nil, response.NewValidationError("A delete strategy is required", "strategy must be reassign or orphan")
	}

	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		return nil, repoError(err, "Group not found", "Failed to load group")
	}
	projectID := group.ProjectID

	target := domain.UngroupedScope(projectID)
	if domain.GroupDeleteStrategy(req.Strategy) == domain.GroupDeleteReassign {
		if req.TargetGroupID == nil {
			return nil, response.NewValidationError("targetGroupId is required for reassign", "")
		}
		if *req.TargetGroupID == groupID {
			return nil, response.NewValidationError("targetGroupId must differ from the deleted group", "")
		}
		targetGroup, err := s.groupRepo.FindByID(ctx, *req.TargetGroupID)
		if err != nil {
			return nil, repoError(err, "Target group not found", "Failed to load target group")
		}
		if targetGroup.ProjectID != projectID {
			return nil, response.NewValidationError("Target group belongs to another project", "")
		}
		target = domain.GroupScope(projectID, targetGroup.ID)
	}
	source := domain.GroupScope(projectID, groupID)

	var moved []*domain.Task
	var targetOrder []uuid.UUID
	keys := []string{domain.GroupScopeKey(projectID), source.Key(), target.Key()}

	err = runSequenceTx(ctx, s.locker, s.transactor, keys, func(tx *gorm.DB) error {
		tasks := s.taskRepo.WithTx(tx)
		groups := s.groupRepo.WithTx(tx)

		var err error
		moved, err = tasks.FindByScope(ctx, source)
		if err != nil {
			return err
		}
		tgtRows, err := tasks.ScopePositions(ctx, target)
		if err != nil {
			return err
		}
		targetOrder = idsOf(tgtRows)

		for i, task := range moved {
			if err := tasks.MoveToScope(ctx, task.ID, target, len(tgtRows)+i); err != nil {
				return err
			}
			targetOrder = append(targetOrder, task.ID)
		}
		if err := tasks.RepackScope(ctx, target, targetOrder); err != nil {
			return err
		}
		if err := checkDense(tasks.ScopePositions(ctx, target)); err != nil {
			return err
		}

		if err := groups.Delete(ctx, groupID); err != nil {
			return err
		}
		rows, err := groups.Positions(ctx, projectID)
		if err != nil {
			return err
		}
		if err := groups.Repack(ctx, projectID, idsOf(rows)); err != nil {
			return err
		}
		return checkDense(groups.Positions(ctx, projectID))
	})
	if err != nil {
		return nil, repoError(err, "Group not found", "Failed to delete group")
	}

	actor := domain.UserActor(userID)
	events := make([]domain.MutationEvent, 0, len(moved))
	movedIDs := make([]uuid.UUID, 0, len(moved))
	for _, task := range moved {
		events = append(events, domain.NewMutationEvent(task, domain.EventTaskMoved, domain.FieldGroup,
			source.GroupIDString(), target.GroupIDString(), actor))
		movedIDs = append(movedIDs, task.ID)
	}

	s.logger.Info("Group deleted",
		zap.String("group_id", groupID.String()),
		zap.String("strategy", req.Strategy),
		zap.Int("moved_tasks", len(moved)),
	)

	if len(events) > 0 && s.dispatcher != nil {
		s.dispatcher.Dispatch(ctx, events)
	} else {
		boardChanged(s.broadcaster, projectID)
	}

	return &dto.DeleteGroupResponse{
		GroupID:    groupID,
		MovedTasks: movedIDs,
		Target:     dto.ScopeOrder{GroupID: target.GroupID, TaskIDs: targetOrder},
	}, nil
}
