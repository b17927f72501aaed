package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"task-board-api/internal/client"
	"task-board-api/internal/domain"
	"task-board-api/internal/dto"
	"task-board-api/internal/metrics"
	"task-board-api/internal/repository"
	"task-board-api/internal/response"
)

// DefaultGroupName is the name of the group every new project starts with
const DefaultGroupName = "New Group"

// defaultColumns is the column set a new board starts with
var defaultColumns = []struct {
	name       string
	columnType domain.ColumnType
	settings   string
}{
	{"Status", domain.ColumnTypeStatus, `{"options":["Working on it","Done","Stuck"]}`},
	{"Owner", domain.ColumnTypePerson, ""},
	{"Due date", domain.ColumnTypeDate, ""},
	{"Progress", domain.ColumnTypeProgress, ""},
}

// ProjectService defines the interface for project business logic
type ProjectService interface {
	CreateProject(ctx context.Context, req *dto.CreateProjectRequest) (*dto.ProjectResponse, error)
	GetProject(ctx context.Context, projectID uuid.UUID) (*dto.ProjectResponse, error)
	ListProjects(ctx context.Context, workspaceID uuid.UUID) ([]*dto.ProjectResponse, error)
	DeleteProject(ctx context.Context, projectID uuid.UUID) error
}

// ProjectRepositories groups the repositories touched by project create and cascade delete
type ProjectRepositories struct {
	Projects    repository.ProjectRepository
	Columns     repository.ColumnRepository
	Groups      repository.GroupRepository
	Tasks       repository.TaskRepository
	Values      repository.ColumnValueRepository
	Comments    repository.CommentRepository
	Attachments repository.AttachmentRepository
	Activities  repository.ActivityRepository
	Rules       repository.RuleRepository
}

type projectServiceImpl struct {
	repos      ProjectRepositories
	transactor repository.Transactor
	s3Client   client.S3ClientInterface
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewProjectService creates a new instance of ProjectService
func NewProjectService(repos ProjectRepositories, transactor repository.Transactor, s3Client client.S3ClientInterface, m *metrics.Metrics, logger *zap.Logger) ProjectService {
	return &projectServiceImpl{
		repos:      repos,
		transactor: transactor,
		s3Client:   s3Client,
		metrics:    m,
		logger:     logger,
	}
}

// CreateProject creates a project with the default columns and one empty group
func (s *projectServiceImpl) CreateProject(ctx context.Context, req *dto.CreateProjectRequest) (*dto.ProjectResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	project := &domain.Project{
		WorkspaceID: req.WorkspaceID,
		OwnerID:     userID,
		Name:        req.Name,
		Description: req.Description,
	}

	err = s.transactor.WithinTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.repos.Projects.WithTx(tx).Create(ctx, project); err != nil {
			return err
		}
		columns := s.repos.Columns.WithTx(tx)
		for i, def := range defaultColumns {
			column := &domain.ColumnDefinition{
				ProjectID:  project.ID,
				ColumnType: def.columnType,
				Name:       def.name,
				Position:   i,
				Width:      domain.DefaultColumnWidth,
				IsVisible:  true,
			}
			if def.settings != "" {
				column.Settings = datatypes.JSON(def.settings)
			}
			if err := columns.Create(ctx, column); err != nil {
				return err
			}
		}
		return s.repos.Groups.WithTx(tx).Create(ctx, &domain.TaskGroup{
			ProjectID: project.ID,
			Name:      DefaultGroupName,
			Color:     domain.DefaultGroupColor,
			Position:  0,
		})
	})
	if err != nil {
		return nil, response.NewInternalError("Failed to create project", err.Error())
	}

	if s.metrics != nil {
		s.metrics.IncrementProjectCreated()
	}
	s.logger.Info("Project created",
		zap.String("project_id", project.ID.String()),
		zap.String("workspace_id", project.WorkspaceID.String()),
		zap.String("owner_id", userID.String()),
	)
	return toProjectResponse(project), nil
}

// GetProject retrieves a project by ID
func (s *projectServiceImpl) GetProject(ctx context.Context, projectID uuid.UUID) (*dto.ProjectResponse, error) {
	project, err := s.repos.Projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, repoError(err, "Project not found", "Failed to get project")
	}
	return toProjectResponse(project), nil
}

// ListProjects returns the projects of a workspace ordered by creation
func (s *projectServiceImpl) ListProjects(ctx context.Context, workspaceID uuid.UUID) ([]*dto.ProjectResponse, error) {
	projects, err := s.repos.Projects.FindByWorkspaceID(ctx, workspaceID)
	if err != nil {
		return nil, response.NewInternalError("Failed to list projects", err.Error())
	}
	out := make([]*dto.ProjectResponse, len(projects))
	for i, p := range projects {
		out[i] = toProjectResponse(p)
	}
	return out, nil
}

// DeleteProject removes a project and everything it owns. Only the owner may delete it.
func (s *projectServiceImpl) DeleteProject(ctx context.Context, projectID uuid.UUID) error {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return err
	}
	project, err := s.repos.Projects.FindByID(ctx, projectID)
	if err != nil {
		return repoError(err, "Project not found", "Failed to get project")
	}
	if project.OwnerID != userID {
		return response.NewForbiddenError("Only the project owner can delete this project", "")
	}

	taskIDs, err := s.repos.Tasks.FindIDsByProjectID(ctx, projectID)
	if err != nil {
		return response.NewInternalError("Failed to load project tasks", err.Error())
	}
	attachments, err := s.repos.Attachments.FindByTaskIDs(ctx, taskIDs)
	if err != nil {
		return response.NewInternalError("Failed to load attachments", err.Error())
	}

	err = s.transactor.WithinTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.repos.Values.WithTx(tx).DeleteByTaskIDs(ctx, taskIDs); err != nil {
			return err
		}
		if err := s.repos.Comments.WithTx(tx).DeleteByTaskIDs(ctx, taskIDs); err != nil {
			return err
		}
		if err := s.repos.Activities.WithTx(tx).DeleteByTaskIDs(ctx, taskIDs); err != nil {
			return err
		}
		if len(attachments) > 0 {
			if err := s.repos.Attachments.WithTx(tx).DeleteBatch(ctx, attachmentIDs(attachments)); err != nil {
				return err
			}
		}
		tasks := s.repos.Tasks.WithTx(tx)
		if err := tasks.DeleteAssigneesByTaskIDs(ctx, taskIDs); err != nil {
			return err
		}
		if err := tasks.DeleteByProjectID(ctx, projectID); err != nil {
			return err
		}
		if err := s.repos.Rules.WithTx(tx).DeleteByProjectID(ctx, projectID); err != nil {
			return err
		}
		if err := s.repos.Groups.WithTx(tx).DeleteByProjectID(ctx, projectID); err != nil {
			return err
		}
		if err := s.repos.Columns.WithTx(tx).DeleteByProjectID(ctx, projectID); err != nil {
			return err
		}
		return s.repos.Projects.WithTx(tx).Delete(ctx, projectID)
	})
	if err != nil {
		return response.NewInternalError("Failed to delete project", err.Error())
	}

	deleteS3Files(ctx, s.s3Client, attachments, s.logger)

	s.logger.Info("Project deleted",
		zap.String("project_id", projectID.String()),
		zap.Int("tasks", len(taskIDs)),
		zap.Int("attachments", len(attachments)),
	)
	return nil
}
