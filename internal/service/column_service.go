package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"task-board-api/internal/automation"
	"task-board-api/internal/domain"
	"task-board-api/internal/dto"
	"task-board-api/internal/repository"
	"task-board-api/internal/response"
)

// ColumnService defines the interface for the column registry
type ColumnService interface {
	DefineColumn(ctx context.Context, projectID uuid.UUID, req *dto.CreateColumnRequest) (*dto.ColumnResponse, error)
	ListColumns(ctx context.Context, projectID uuid.UUID) ([]dto.ColumnResponse, error)
	UpdateColumn(ctx context.Context, columnID uuid.UUID, req *dto.UpdateColumnRequest) (*dto.ColumnResponse, error)
	ReorderColumn(ctx context.Context, columnID uuid.UUID, position int) ([]dto.ColumnResponse, error)
	DeleteColumn(ctx context.Context, columnID uuid.UUID) error
}

type columnServiceImpl struct {
	columnRepo  repository.ColumnRepository
	valueRepo   repository.ColumnValueRepository
	projectRepo repository.ProjectRepository
	transactor  repository.Transactor
	locker      *ScopeLocker
	broadcaster automation.Broadcaster
	logger      *zap.Logger
}

// NewColumnService creates a new instance of ColumnService
func NewColumnService(
	columnRepo repository.ColumnRepository,
	valueRepo repository.ColumnValueRepository,
	projectRepo repository.ProjectRepository,
	transactor repository.Transactor,
	locker *ScopeLocker,
	broadcaster automation.Broadcaster,
	logger *zap.Logger,
) ColumnService {
	return &columnServiceImpl{
		columnRepo:  columnRepo,
		valueRepo:   valueRepo,
		projectRepo: projectRepo,
		transactor:  transactor,
		locker:      locker,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// DefineColumn inserts a column at the requested position or appends it
func (s *columnServiceImpl) DefineColumn(ctx context.Context, projectID uuid.UUID, req *dto.CreateColumnRequest) (*dto.ColumnResponse, error) {
	columnType := domain.ColumnType(req.ColumnType)
	if !columnType.IsValid() {
		return nil, response.NewValidationError("Unknown column type", req.ColumnType)
	}
	if req.Position != nil && *req.Position < 0 {
		return nil, response.NewInvalidPositionError("Position must not be negative", "")
	}
	settings, err := validateSettings(req.Settings)
	if err != nil {
		return nil, err
	}
	if _, err := s.projectRepo.FindByID(ctx, projectID); err != nil {
		return nil, repoError(err, "Project not found", "Failed to verify project")
	}

	column := &domain.ColumnDefinition{
		ProjectID:  projectID,
		ColumnType: columnType,
		Name:       req.Name,
		Width:      domain.DefaultColumnWidth,
		IsVisible:  true,
		IsRequired: req.IsRequired,
		Settings:   settings,
	}
	if req.Width != nil {
		column.Width = *req.Width
	}
	if req.IsVisible != nil {
		column.IsVisible = *req.IsVisible
	}

	err = runSequenceTx(ctx, s.locker, s.transactor, []string{domain.ColumnScopeKey(projectID)}, func(tx *gorm.DB) error {
		repo := s.columnRepo.WithTx(tx)
		rows, err := repo.Positions(ctx, projectID)
		if err != nil {
			return err
		}
		pos := len(rows)
		if req.Position != nil {
			pos = clampPosition(*req.Position, len(rows))
		}

		column.Position = len(rows)
		if err := repo.Create(ctx, column); err != nil {
			return err
		}
		if err := repo.Repack(ctx, projectID, insertAt(idsOf(rows), column.ID, pos)); err != nil {
			return err
		}
		column.Position = pos
		return checkDense(repo.Positions(ctx, projectID))
	})
	if err != nil {
		return nil, repoError(err, "Project not found", "Failed to define column")
	}

	s.logger.Info("Column defined",
		zap.String("project_id", projectID.String()),
		zap.String("column_id", column.ID.String()),
		zap.String("column_type", string(columnType)),
		zap.Int("position", column.Position),
	)
	boardChanged(s.broadcaster, projectID)

	created, err := s.columnRepo.FindByID(ctx, column.ID)
	if err != nil {
		return nil, repoError(err, "Column not found", "Failed to load column")
	}
	resp := toColumnResponse(created)
	return &resp, nil
}

// ListColumns returns the project's columns ordered by position
func (s *columnServiceImpl) ListColumns(ctx context.Context, projectID uuid.UUID) ([]dto.ColumnResponse, error) {
	if _, err := s.projectRepo.FindByID(ctx, projectID); err != nil {
		return nil, repoError(err, "Project not found", "Failed to verify project")
	}
	return s.listColumns(ctx, projectID)
}

func (s *columnServiceImpl) listColumns(ctx context.Context, projectID uuid.UUID) ([]dto.ColumnResponse, error) {
	columns, err := s.columnRepo.FindByProjectID(ctx, projectID)
	if err != nil {
		return nil, response.NewInternalError("Failed to list columns", err.Error())
	}
	out := make([]dto.ColumnResponse, len(columns))
	for i, c := range columns {
		out[i] = toColumnResponse(c)
	}
	return out, nil
}

// UpdateColumn changes name, width, visibility, required flag or settings
func (s *columnServiceImpl) UpdateColumn(ctx context.Context, columnID uuid.UUID, req *dto.UpdateColumnRequest) (*dto.ColumnResponse, error) {
	column, err := s.columnRepo.FindByID(ctx, columnID)
	if err != nil {
		return nil, repoError(err, "Column not found", "Failed to load column")
	}

	if req.Name != nil {
		column.Name = *req.Name
	}
	if req.Width != nil {
		column.Width = *req.Width
	}
	if req.IsVisible != nil {
		column.IsVisible = *req.IsVisible
	}
	if req.IsRequired != nil {
		column.IsRequired = *req.IsRequired
	}
	if req.Settings != nil {
		settings, err := validateSettings(req.Settings)
		if err != nil {
			return nil, err
		}
		column.Settings = settings
	}

	if err := s.columnRepo.Update(ctx, column); err != nil {
		return nil, response.NewInternalError("Failed to update column", err.Error())
	}
	boardChanged(s.broadcaster, column.ProjectID)

	resp := toColumnResponse(column)
	return &resp, nil
}

// ReorderColumn moves a column to position and shifts the columns in between by one
func (s *columnServiceImpl) ReorderColumn(ctx context.Context, columnID uuid.UUID, position int) ([]dto.ColumnResponse, error) {
	column, err := s.columnRepo.FindByID(ctx, columnID)
	if err != nil {
		return nil, repoError(err, "Column not found", "Failed to load column")
	}
	projectID := column.ProjectID

	err = runSequenceTx(ctx, s.locker, s.transactor, []string{domain.ColumnScopeKey(projectID)}, func(tx *gorm.DB) error {
		repo := s.columnRepo.WithTx(tx)
		rows, err := repo.Positions(ctx, projectID)
		if err != nil {
			return err
		}
		if position < 0 || position >= len(rows) {
			return response.NewInvalidPositionError("Position out of range", positionRange(len(rows)))
		}
		if err := repo.Repack(ctx, projectID, moveWithin(idsOf(rows), columnID, position)); err != nil {
			return err
		}
		return checkDense(repo.Positions(ctx, projectID))
	})
	if err != nil {
		return nil, repoError(err, "Column not found", "Failed to reorder column")
	}

	boardChanged(s.broadcaster, projectID)
	return s.listColumns(ctx, projectID)
}

// DeleteColumn removes the column with its values and re-packs the remaining columns
func (s *columnServiceImpl) DeleteColumn(ctx context.Context, columnID uuid.UUID) error {
	column, err := s.columnRepo.FindByID(ctx, columnID)
	if err != nil {
		return repoError(err, "Column not found", "Failed to load column")
	}
	projectID := column.ProjectID

	err = runSequenceTx(ctx, s.locker, s.transactor, []string{domain.ColumnScopeKey(projectID)}, func(tx *gorm.DB) error {
		repo := s.columnRepo.WithTx(tx)
		if err := s.valueRepo.WithTx(tx).DeleteByColumnID(ctx, columnID); err != nil {
			return err
		}
		if err := repo.Delete(ctx, columnID); err != nil {
			return err
		}
		rows, err := repo.Positions(ctx, projectID)
		if err != nil {
			return err
		}
		if err := repo.Repack(ctx, projectID, idsOf(rows)); err != nil {
			return err
		}
		return checkDense(repo.Positions(ctx, projectID))
	})
	if err != nil {
		return repoError(err, "Column not found", "Failed to delete column")
	}

	s.logger.Info("Column deleted",
		zap.String("project_id", projectID.String()),
		zap.String("column_id", columnID.String()),
	)
	boardChanged(s.broadcaster, projectID)
	return nil
}

// validateSettings accepts a JSON object (or nothing) and returns it for storage
func validateSettings(raw json.RawMessage) (datatypes.JSON, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, response.NewValidationError("Column settings must be a JSON object", err.Error())
	}
	if opts, ok := obj["options"]; ok {
		list, ok := opts.([]interface{})
		if !ok {
			return nil, response.NewValidationError("settings.options must be an array of strings", "")
		}
		for _, o := range list {
			if _, ok := o.(string); !ok {
				return nil, response.NewValidationError("settings.options must be an array of strings", "")
			}
		}
	}
	return datatypes.JSON(raw), nil
}

func positionRange(n int) string {
	if n == 0 {
		return "sequence is empty"
	}
	return "valid range is 0.." + itoa(n-1)
}

func boardChanged(b automation.Broadcaster, projectID uuid.UUID, taskIDs ...uuid.UUID) {
	if b == nil {
		return
	}
	b.BoardChanged(projectID, taskIDs)
}
