package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"task-board-api/internal/automation"
	"task-board-api/internal/client"
	"task-board-api/internal/database"
	"task-board-api/internal/domain"
	"task-board-api/internal/dto"
	"task-board-api/internal/metrics"
	"task-board-api/internal/repository"
)

// recordingNotifier keeps every notification it was asked to send
type recordingNotifier struct {
	mu     sync.Mutex
	events []client.NotificationEvent
}

func (n *recordingNotifier) SendNotification(ctx context.Context, event client.NotificationEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) sent() []client.NotificationEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]client.NotificationEvent(nil), n.events...)
}

// recordingBroadcaster counts board invalidations per project
type recordingBroadcaster struct {
	mu    sync.Mutex
	calls map[uuid.UUID]int
}

func (b *recordingBroadcaster) BoardChanged(projectID uuid.UUID, taskIDs []uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.calls == nil {
		b.calls = make(map[uuid.UUID]int)
	}
	b.calls[projectID]++
}

func (b *recordingBroadcaster) count(projectID uuid.UUID) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[projectID]
}

type staticUsers map[uuid.UUID]bool

func (u staticUsers) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	return u[userID], nil
}

type fixture struct {
	db          *gorm.DB
	ctx         context.Context
	userID      uuid.UUID
	projectID   uuid.UUID
	groupID     uuid.UUID
	metrics     *metrics.Metrics
	notifier    *recordingNotifier
	broadcaster *recordingBroadcaster
	s3          *client.MockS3Client
	engine      *automation.Engine
	locker      *ScopeLocker
	taskDeps    TaskServiceDeps

	taskRepo   repository.TaskRepository
	ruleRepo   repository.RuleRepository
	valueRepo  repository.ColumnValueRepository
	columnRepo repository.ColumnRepository

	projects    ProjectService
	columns     ColumnService
	groups      GroupService
	tasks       TaskService
	rules       RuleService
	board       BoardService
	comments    CommentService
	attachments AttachmentService
}

type fixtureOption func(*automation.Options)

func withMaxDepth(depth int) fixtureOption {
	return func(o *automation.Options) { o.MaxDepth = depth }
}

func withUsers(users automation.UserDirectory) fixtureOption {
	return func(o *automation.Options) { o.Users = users }
}

// newFixture wires every board service on an in-memory database and creates one project
func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	db, err := database.New(database.Config{Driver: database.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	logger := zap.NewNop()
	f := &fixture{
		db:          db,
		userID:      uuid.New(),
		metrics:     metrics.NewWithRegistry(prometheus.NewRegistry(), logger),
		notifier:    &recordingNotifier{},
		broadcaster: &recordingBroadcaster{},
		s3:          client.NewMockS3Client(),
	}
	f.ctx = context.WithValue(context.Background(), "user_id", f.userID)

	projectRepo := repository.NewProjectRepository(db)
	f.columnRepo = repository.NewColumnRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	f.taskRepo = repository.NewTaskRepository(db)
	f.valueRepo = repository.NewColumnValueRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	f.ruleRepo = repository.NewRuleRepository(db)
	transactor := repository.NewTransactor(db)
	locker := NewScopeLocker()
	f.locker = locker

	engineOpts := automation.Options{
		Activities:  activityRepo,
		Notifier:    f.notifier,
		Broadcaster: f.broadcaster,
		Metrics:     f.metrics,
	}
	for _, opt := range opts {
		opt(&engineOpts)
	}
	f.engine = automation.NewEngine(f.ruleRepo, engineOpts, logger)

	f.taskDeps = TaskServiceDeps{
		Tasks:       f.taskRepo,
		Values:      f.valueRepo,
		Columns:     f.columnRepo,
		Groups:      groupRepo,
		Projects:    projectRepo,
		Comments:    commentRepo,
		Attachments: attachmentRepo,
		Activities:  activityRepo,
		Transactor:  transactor,
		Locker:      locker,
		Engine:      f.engine,
		Notifier:    f.notifier,
		S3Client:    f.s3,
	}
	f.tasks = NewTaskService(f.taskDeps, f.metrics, logger)

	f.projects = NewProjectService(ProjectRepositories{
		Projects:    projectRepo,
		Columns:     f.columnRepo,
		Groups:      groupRepo,
		Tasks:       f.taskRepo,
		Values:      f.valueRepo,
		Comments:    commentRepo,
		Attachments: attachmentRepo,
		Activities:  activityRepo,
		Rules:       f.ruleRepo,
	}, transactor, f.s3, f.metrics, logger)
	f.columns = NewColumnService(f.columnRepo, f.valueRepo, projectRepo, transactor, locker, f.broadcaster, logger)
	f.groups = NewGroupService(groupRepo, f.taskRepo, projectRepo, transactor, locker, f.tasks, f.broadcaster, logger)
	f.rules = NewRuleService(f.ruleRepo, projectRepo, groupRepo, engineOpts.Users, logger)
	f.board = NewBoardService(projectRepo, f.columnRepo, groupRepo, f.taskRepo, f.valueRepo, logger)
	f.comments = NewCommentService(commentRepo, f.taskRepo, f.tasks, f.notifier, logger)
	f.attachments = NewAttachmentService(attachmentRepo, f.taskRepo, projectRepo, f.s3, f.tasks, logger)

	project, err := f.projects.CreateProject(f.ctx, &dto.CreateProjectRequest{
		WorkspaceID: uuid.New(),
		Name:        "Launch",
	})
	require.NoError(t, err)
	f.projectID = project.ID

	groups, err := f.groups.ListGroups(f.ctx, f.projectID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	f.groupID = groups[0].GroupID
	return f
}

func (f *fixture) createTask(t *testing.T, title string, groupID *uuid.UUID) *dto.TaskResponse {
	t.Helper()
	resp, err := f.tasks.CreateTask(f.ctx, f.projectID, &dto.CreateTaskRequest{Title: title, GroupID: groupID})
	require.NoError(t, err)
	return resp.Task
}

func (f *fixture) createGroup(t *testing.T, name string) *dto.GroupResponse {
	t.Helper()
	group, err := f.groups.CreateGroup(f.ctx, f.projectID, &dto.CreateGroupRequest{Name: name})
	require.NoError(t, err)
	return group
}

func (f *fixture) createRule(t *testing.T, name string, trigger domain.TriggerType, triggerCfg string, action domain.ActionType, actionCfg string) *dto.RuleResponse {
	t.Helper()
	rule, err := f.rules.CreateRule(f.ctx, f.projectID, &dto.CreateRuleRequest{
		Name:          name,
		Trigger:       string(trigger),
		TriggerConfig: []byte(triggerCfg),
		Action:        string(action),
		ActionConfig:  []byte(actionCfg),
	})
	require.NoError(t, err)
	return rule
}

// scopeIDs returns the task ids of a scope in position order and checks density
func (f *fixture) scopeIDs(t *testing.T, groupID *uuid.UUID) []uuid.UUID {
	t.Helper()
	rows, err := f.taskRepo.ScopePositions(context.Background(), domain.ScopeOf(f.projectID, groupID))
	require.NoError(t, err)
	require.True(t, isDense(rows), "positions not dense: %+v", rows)
	return idsOf(rows)
}

func (f *fixture) loadTask(t *testing.T, id uuid.UUID) *domain.Task {
	t.Helper()
	task, err := f.taskRepo.FindByID(context.Background(), id)
	require.NoError(t, err)
	return task
}

// otherReplica returns a task service on the same database with its own locker,
// the way a second API process would see the board
func (f *fixture) otherReplica() TaskService {
	deps := f.taskDeps
	deps.Locker = NewScopeLocker()
	return NewTaskService(deps, f.metrics, zap.NewNop())
}

// waitForWaiters blocks until n goroutines hold or wait for key
func waitForWaiters(t *testing.T, l *ScopeLocker, key string, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		lock, ok := l.locks[key]
		return ok && lock.refs >= n
	}, 2*time.Second, time.Millisecond)
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
