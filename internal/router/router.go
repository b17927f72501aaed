package router

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"task-board-api/internal/automation"
	"task-board-api/internal/client"
	"task-board-api/internal/handler"
	"task-board-api/internal/metrics"
	"task-board-api/internal/middleware"
	"task-board-api/internal/realtime"
	"task-board-api/internal/repository"
	"task-board-api/internal/service"
)

// Config holds everything the HTTP layer needs
type Config struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Logger *zap.Logger

	JWTSecret string
	// UserClient validates tokens against auth-service when UseAuthService is set
	// and resolves user ids for rule actions.
	UserClient     client.UserClient
	UseAuthService bool

	BasePath       string
	AllowedOrigins []string
	Metrics        *metrics.Metrics
	S3Client       client.S3ClientInterface
	Notifier       client.NotificationClient
	Hub            *realtime.Hub
	MaxChainDepth  int

	// Services may be built ahead of Setup so background jobs share the same engine and locks
	Services *Services
}

// Services are the wired board services
type Services struct {
	Projects    service.ProjectService
	Columns     service.ColumnService
	Groups      service.GroupService
	Tasks       service.TaskService
	Rules       service.RuleService
	Board       service.BoardService
	Comments    service.CommentService
	Attachments service.AttachmentService

	Engine *automation.Engine
	// RuleRepo and TaskRepo back the due-date scanner
	RuleRepo repository.RuleRepository
	TaskRepo repository.TaskRepository
}

// NewServices wires repositories, the rule engine and services on cfg.DB
func NewServices(cfg Config) *Services {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.NewWithRegistry(prometheus.NewRegistry(), logger)
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = client.NewNoOpNotificationClient()
	}
	s3Client := cfg.S3Client
	if s3Client == nil {
		s3Client = client.NewMockS3Client()
	}
	var broadcaster automation.Broadcaster
	if cfg.Hub != nil {
		broadcaster = cfg.Hub
	}
	var users automation.UserDirectory
	if cfg.UserClient != nil {
		users = cfg.UserClient
	}

	// Initialize repositories
	projectRepo := repository.NewProjectRepository(cfg.DB)
	columnRepo := repository.NewColumnRepository(cfg.DB)
	groupRepo := repository.NewGroupRepository(cfg.DB)
	taskRepo := repository.NewTaskRepository(cfg.DB)
	valueRepo := repository.NewColumnValueRepository(cfg.DB)
	commentRepo := repository.NewCommentRepository(cfg.DB)
	attachmentRepo := repository.NewAttachmentRepository(cfg.DB)
	activityRepo := repository.NewActivityRepository(cfg.DB)
	ruleRepo := repository.NewRuleRepository(cfg.DB)
	transactor := repository.NewTransactor(cfg.DB)
	locker := service.NewScopeLocker()

	engine := automation.NewEngine(ruleRepo, automation.Options{
		Activities:  activityRepo,
		Notifier:    notifier,
		Users:       users,
		Broadcaster: broadcaster,
		MaxDepth:    cfg.MaxChainDepth,
		Metrics:     m,
	}, logger)

	// Initialize services
	tasks := service.NewTaskService(service.TaskServiceDeps{
		Tasks:       taskRepo,
		Values:      valueRepo,
		Columns:     columnRepo,
		Groups:      groupRepo,
		Projects:    projectRepo,
		Comments:    commentRepo,
		Attachments: attachmentRepo,
		Activities:  activityRepo,
		Transactor:  transactor,
		Locker:      locker,
		Engine:      engine,
		Notifier:    notifier,
		S3Client:    s3Client,
	}, m, logger)

	return &Services{
		Projects: service.NewProjectService(service.ProjectRepositories{
			Projects:    projectRepo,
			Columns:     columnRepo,
			Groups:      groupRepo,
			Tasks:       taskRepo,
			Values:      valueRepo,
			Comments:    commentRepo,
			Attachments: attachmentRepo,
			Activities:  activityRepo,
			Rules:       ruleRepo,
		}, transactor, s3Client, m, logger),
		Columns:     service.NewColumnService(columnRepo, valueRepo, projectRepo, transactor, locker, broadcaster, logger),
		Groups:      service.NewGroupService(groupRepo, taskRepo, projectRepo, transactor, locker, tasks, broadcaster, logger),
		Tasks:       tasks,
		Rules:       service.NewRuleService(ruleRepo, projectRepo, groupRepo, users, logger),
		Board:       service.NewBoardService(projectRepo, columnRepo, groupRepo, taskRepo, valueRepo, logger),
		Comments:    service.NewCommentService(commentRepo, taskRepo, tasks, notifier, logger),
		Attachments: service.NewAttachmentService(attachmentRepo, taskRepo, projectRepo, s3Client, tasks, logger),
		Engine:      engine,
		RuleRepo:    ruleRepo,
		TaskRepo:    taskRepo,
	}
}

// DueDateScanner builds the scanner on the same engine and task mutator the HTTP layer uses
func (s *Services) DueDateScanner(ledger automation.FiringLedger, m *metrics.Metrics, logger *zap.Logger) *automation.DueDateScanner {
	return automation.NewDueDateScanner(s.Engine, s.RuleRepo, s.TaskRepo, ledger, s.Tasks.Mutator(), m, logger)
}

// Setup builds the gin engine with every route mounted
func Setup(cfg Config) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewWithRegistry(prometheus.NewRegistry(), cfg.Logger)
	}
	if cfg.Hub == nil {
		cfg.Hub = realtime.NewHub(nil, cfg.Metrics, cfg.Logger)
	}
	svc := cfg.Services
	if svc == nil {
		svc = NewServices(cfg)
	}

	r := gin.New()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(cfg.Metrics))

	var validator middleware.TokenValidator = middleware.NewJWTValidator(cfg.JWTSecret)
	if cfg.UseAuthService && cfg.UserClient != nil {
		validator = cfg.UserClient
	}

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(cfg.DB, cfg.Redis)
	projectHandler := handler.NewProjectHandler(svc.Projects, cfg.Logger)
	columnHandler := handler.NewColumnHandler(svc.Columns, cfg.Logger)
	groupHandler := handler.NewGroupHandler(svc.Groups, cfg.Logger)
	taskHandler := handler.NewTaskHandler(svc.Tasks, cfg.Logger)
	ruleHandler := handler.NewRuleHandler(svc.Rules, cfg.Logger)
	boardHandler := handler.NewBoardHandler(svc.Board, cfg.Logger)
	commentHandler := handler.NewCommentHandler(svc.Comments, cfg.Logger)
	attachmentHandler := handler.NewAttachmentHandler(svc.Attachments, cfg.Logger)
	wsHandler := handler.NewWSHandler(cfg.Hub, validator, svc.Projects, cfg.Logger)

	// Probes and metrics (no auth)
	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group(cfg.BasePath)
	if cfg.BasePath != "" && cfg.BasePath != "/" {
		api.GET("/health", healthHandler.Health)
		api.GET("/ready", healthHandler.Ready)
		api.GET("/metrics", gin.WrapH(promhttp.Handler()))
		api.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// websocket authenticates on its own since browsers cannot set headers
	api.GET("/ws/projects/:projectId", wsHandler.SubscribeBoard)

	authenticated := api.Group("")
	authenticated.Use(middleware.AuthWithValidator(validator))
	{
		// Projects
		authenticated.POST("/projects", projectHandler.CreateProject)
		authenticated.GET("/projects", projectHandler.ListProjects)
		authenticated.GET("/projects/:projectId", projectHandler.GetProject)
		authenticated.DELETE("/projects/:projectId", projectHandler.DeleteProject)
		authenticated.GET("/projects/:projectId/board", boardHandler.GetBoard)

		// Column registry
		authenticated.GET("/projects/:projectId/columns", columnHandler.ListColumns)
		authenticated.POST("/projects/:projectId/columns", columnHandler.DefineColumn)
		authenticated.PATCH("/columns/:columnId", columnHandler.UpdateColumn)
		authenticated.PUT("/columns/:columnId/position", columnHandler.ReorderColumn)
		authenticated.DELETE("/columns/:columnId", columnHandler.DeleteColumn)

		// Groups
		authenticated.GET("/projects/:projectId/groups", groupHandler.ListGroups)
		authenticated.POST("/projects/:projectId/groups", groupHandler.CreateGroup)
		authenticated.PATCH("/groups/:groupId", groupHandler.UpdateGroup)
		authenticated.PUT("/groups/:groupId/position", groupHandler.ReorderGroup)
		authenticated.DELETE("/groups/:groupId", groupHandler.DeleteGroup)

		// Tasks
		authenticated.GET("/projects/:projectId/tasks", taskHandler.ListTasks)
		authenticated.POST("/projects/:projectId/tasks", taskHandler.CreateTask)
		authenticated.GET("/tasks/:taskId", taskHandler.GetTask)
		authenticated.PATCH("/tasks/:taskId", taskHandler.UpdateTask)
		authenticated.DELETE("/tasks/:taskId", taskHandler.DeleteTask)
		authenticated.PUT("/tasks/:taskId/status", taskHandler.UpdateStatus)
		authenticated.PUT("/tasks/:taskId/priority", taskHandler.UpdatePriority)
		authenticated.PUT("/tasks/:taskId/progress", taskHandler.UpdateProgress)
		authenticated.PUT("/tasks/:taskId/assignee", taskHandler.AssignTask)
		authenticated.PUT("/tasks/:taskId/due-date", taskHandler.UpdateDueDate)
		authenticated.PUT("/tasks/:taskId/move", taskHandler.MoveTask)
		authenticated.PUT("/tasks/:taskId/values/:columnId", taskHandler.SetColumnValue)
		authenticated.DELETE("/tasks/:taskId/values/:columnId", taskHandler.ClearColumnValue)
		authenticated.GET("/tasks/:taskId/activity", taskHandler.GetActivity)

		// Comments
		authenticated.GET("/tasks/:taskId/comments", commentHandler.ListComments)
		authenticated.POST("/tasks/:taskId/comments", commentHandler.AddComment)
		authenticated.PATCH("/comments/:commentId", commentHandler.UpdateComment)
		authenticated.DELETE("/comments/:commentId", commentHandler.DeleteComment)

		// Attachments
		authenticated.POST("/attachments/presigned-url", attachmentHandler.GeneratePresignedURL)
		authenticated.GET("/tasks/:taskId/attachments", attachmentHandler.ListAttachments)
		authenticated.POST("/tasks/:taskId/attachments", attachmentHandler.ConfirmAttachments)
		authenticated.DELETE("/attachments/:attachmentId", attachmentHandler.DeleteAttachment)

		// Automation rules
		authenticated.GET("/projects/:projectId/rules", ruleHandler.ListRules)
		authenticated.POST("/projects/:projectId/rules", ruleHandler.CreateRule)
		authenticated.GET("/rules/:ruleId", ruleHandler.GetRule)
		authenticated.PATCH("/rules/:ruleId", ruleHandler.UpdateRule)
		authenticated.PUT("/rules/:ruleId/active", ruleHandler.ToggleRule)
		authenticated.DELETE("/rules/:ruleId", ruleHandler.DeleteRule)
	}

	return r
}
