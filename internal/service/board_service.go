package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"task-board-api/internal/dto"
	"task-board-api/internal/repository"
	"task-board-api/internal/response"
)

// BoardService projects a project's columns, groups, tasks and values into one read model
type BoardService interface {
	GetBoard(ctx context.Context, projectID uuid.UUID) (*dto.BoardResponse, error)
}

type boardServiceImpl struct {
	projectRepo repository.ProjectRepository
	columnRepo  repository.ColumnRepository
	groupRepo   repository.GroupRepository
	taskRepo    repository.TaskRepository
	valueRepo   repository.ColumnValueRepository
	logger      *zap.Logger
}

// NewBoardService creates a new instance of BoardService
func NewBoardService(
	projectRepo repository.ProjectRepository,
	columnRepo repository.ColumnRepository,
	groupRepo repository.GroupRepository,
	taskRepo repository.TaskRepository,
	valueRepo repository.ColumnValueRepository,
	logger *zap.Logger,
) BoardService {
	return &boardServiceImpl{
		projectRepo: projectRepo,
		columnRepo:  columnRepo,
		groupRepo:   groupRepo,
		taskRepo:    taskRepo,
		valueRepo:   valueRepo,
		logger:      logger,
	}
}

// GetBoard reads the board from the store. Groups follow their positions and the
// ungrouped list is always the last section, even when empty.
func (s *boardServiceImpl) GetBoard(ctx context.Context, projectID uuid.UUID) (*dto.BoardResponse, error) {
	if _, err := s.projectRepo.FindByID(ctx, projectID); err != nil {
		return nil, repoError(err, "Project not found", "Failed to verify project")
	}

	columns, err := s.columnRepo.FindByProjectID(ctx, projectID)
	if err != nil {
		return nil, response.NewInternalError("Failed to load columns", err.Error())
	}
	groups, err := s.groupRepo.FindByProjectID(ctx, projectID)
	if err != nil {
		return nil, response.NewInternalError("Failed to load groups", err.Error())
	}
	tasks, err := s.taskRepo.FindByProjectID(ctx, projectID, repository.TaskFilter{})
	if err != nil {
		return nil, response.NewInternalError("Failed to load tasks", err.Error())
	}

	taskIDs := make([]uuid.UUID, len(tasks))
	for i, t := range tasks {
		taskIDs[i] = t.ID
	}
	values, err := s.valueRepo.FindByTaskIDs(ctx, taskIDs)
	if err != nil {
		return nil, response.NewInternalError("Failed to load column values", err.Error())
	}

	// 컬럼이 삭제된 값은 제외
	columnIDs := make(map[uuid.UUID]struct{}, len(columns))
	board := &dto.BoardResponse{
		ProjectID: projectID,
		Columns:   make([]dto.ColumnResponse, len(columns)),
		Groups:    make([]dto.BoardGroupResponse, 0, len(groups)+1),
	}
	for i, c := range columns {
		columnIDs[c.ID] = struct{}{}
		board.Columns[i] = toColumnResponse(c)
	}

	cells := make(map[uuid.UUID]map[string]interface{}, len(tasks))
	for _, v := range values {
		if _, ok := columnIDs[v.ColumnID]; !ok {
			continue
		}
		row, ok := cells[v.TaskID]
		if !ok {
			row = make(map[string]interface{})
			cells[v.TaskID] = row
		}
		row[v.ColumnID.String()] = v.Typed()
	}

	byGroup := make(map[uuid.UUID][]dto.BoardTaskResponse, len(groups))
	ungrouped := []dto.BoardTaskResponse{}
	for _, t := range tasks {
		row := cells[t.ID]
		if row == nil {
			row = map[string]interface{}{}
		}
		item := dto.BoardTaskResponse{TaskResponse: *toTaskResponse(t), Values: row}
		if t.GroupID == nil {
			ungrouped = append(ungrouped, item)
			continue
		}
		byGroup[*t.GroupID] = append(byGroup[*t.GroupID], item)
	}

	for _, g := range groups {
		items := byGroup[g.ID]
		if items == nil {
			items = []dto.BoardTaskResponse{}
		}
		board.Groups = append(board.Groups, dto.BoardGroupResponse{Group: toGroupResponse(g), Tasks: items})
	}
	board.Groups = append(board.Groups, dto.BoardGroupResponse{Group: nil, Tasks: ungrouped})

	s.logger.Debug("Board projected",
		zap.String("project_id", projectID.String()),
		zap.Int("columns", len(columns)),
		zap.Int("groups", len(groups)),
		zap.Int("tasks", len(tasks)),
	)
	return board, nil
}
