package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"crm-api/internal/cache"
	"crm-api/internal/client"
	"crm-api/internal/form"
	"crm-api/internal/handler"
	"crm-api/internal/metrics"
	"crm-api/internal/middleware"
	"crm-api/internal/repository"
	"crm-api/internal/search"
	"crm-api/internal/service"
)

// Config holds the dependencies of the HTTP router.
// Optional collaborators left nil fall back to disabled implementations.
type Config struct {
	DB        *gorm.DB
	Redis     *redis.Client
	Logger    *zap.Logger
	JWTSecret string
	BasePath  string
	Metrics   *metrics.Metrics
	// Gatherer backs /metrics. Defaults to the global Prometheus registry.
	Gatherer prometheus.Gatherer

	Storage       client.FileStorage
	Notifications client.NotificationClient
	Search        search.Index
	Cache         *cache.Cache
	// Attachments lets the caller share the attachment service with the cleanup job
	Attachments service.AttachmentService

	BoardPageSize  int
	AllowedOrigins []string
}

func (cfg *Config) applyDefaults() {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewWithRegistry(prometheus.NewRegistry(), cfg.Logger)
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.Storage == nil {
		cfg.Storage = client.DisabledStorage{}
	}
	if cfg.Notifications == nil {
		cfg.Notifications = client.NewNoOpNotificationClient()
	}
	if cfg.Search == nil {
		cfg.Search = search.Noop{}
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.New(cfg.Redis, time.Minute, cfg.Logger)
	}
	if cfg.BoardPageSize <= 0 {
		cfg.BoardPageSize = service.DefaultStagePageSize
	}
}

// Setup creates and configures the Gin router
func Setup(cfg Config) *gin.Engine {
	cfg.applyDefaults()
	form.Install()

	r := gin.New()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Tracing())
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(cfg.Metrics))

	metricsHandler := gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))

	// Repositories
	profileRepo := repository.NewProfileRepository(cfg.DB)
	pipelineRepo := repository.NewPipelineRepository(cfg.DB)
	clientRepo := repository.NewClientRepository(cfg.DB)
	contactRepo := repository.NewContactRepository(cfg.DB)
	leadRepo := repository.NewLeadRepository(cfg.DB)
	opportunityRepo := repository.NewOpportunityRepository(cfg.DB)
	projectRepo := repository.NewProjectRepository(cfg.DB)
	taskRepo := repository.NewTaskRepository(cfg.DB)
	dashboardRepo := repository.NewDashboardRepository(cfg.DB)

	// Services
	attachmentService := cfg.Attachments
	if attachmentService == nil {
		attachmentService = service.NewAttachmentService(
			repository.NewAttachmentRepository(cfg.DB),
			cfg.Storage,
			service.EntityOwners{
				Opportunities: opportunityRepo,
				Clients:       clientRepo,
				Leads:         leadRepo,
				Projects:      projectRepo,
			},
			cfg.Logger,
		)
	}
	profileService := service.NewProfileService(profileRepo, cfg.Cache, cfg.Logger)
	clientService := service.NewClientService(clientRepo, attachmentService, cfg.Logger)
	contactService := service.NewContactService(contactRepo, cfg.Search, cfg.Logger)
	leadService := service.NewLeadService(leadRepo, attachmentService, cfg.Search, cfg.Notifications, cfg.Metrics, cfg.Logger)
	opportunityService := service.NewOpportunityService(opportunityRepo, pipelineRepo, attachmentService, cfg.Search, cfg.Logger)
	pipelineService := service.NewPipelineService(pipelineRepo, opportunityRepo, cfg.Cache, cfg.Search, cfg.Notifications, cfg.Metrics, cfg.Logger)
	projectService := service.NewProjectService(projectRepo, attachmentService, cfg.Logger)
	taskService := service.NewTaskService(taskRepo, cfg.Logger)
	dashboardService := service.NewDashboardService(dashboardRepo, taskRepo, cfg.Cache, cfg.Logger)

	// Handlers
	healthHandler := handler.NewHealthHandler(cfg.DB, cfg.Redis, cfg.Search)
	profileHandler := handler.NewProfileHandler(profileService)
	clientHandler := handler.NewClientHandler(clientService)
	contactHandler := handler.NewContactHandler(contactService)
	leadHandler := handler.NewLeadHandler(leadService)
	opportunityHandler := handler.NewOpportunityHandler(opportunityService, pipelineService)
	pipelineHandler := handler.NewPipelineHandler(pipelineService, cfg.BoardPageSize)
	boardWSHandler := handler.NewBoardWSHandler(pipelineService, cfg.BoardPageSize, cfg.AllowedOrigins, cfg.Metrics, cfg.Logger)
	projectHandler := handler.NewProjectHandler(projectService)
	taskHandler := handler.NewTaskHandler(taskService)
	attachmentHandler := handler.NewAttachmentHandler(attachmentService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)

	// Probes and metrics at the root for the cluster
	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/metrics", metricsHandler)

	api := r.Group(cfg.BasePath)
	{
		if cfg.BasePath != "" && cfg.BasePath != "/" {
			api.GET("/health", healthHandler.Health)
			api.GET("/ready", healthHandler.Ready)
			api.GET("/metrics", metricsHandler)
		}
		api.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(cfg.JWTSecret))
		authenticated.Use(middleware.ResolveRole(profileService, cfg.Logger))
		{
			authenticated.GET("/me", profileHandler.GetMe)
			authenticated.PUT("/profiles/:id/role", profileHandler.UpdateRole)

			clients := authenticated.Group("/clients")
			{
				clients.GET("", clientHandler.ListClients)
				clients.POST("", clientHandler.CreateClient)
				clients.GET("/:id", clientHandler.GetClient)
				clients.PUT("/:id", clientHandler.UpdateClient)
				clients.DELETE("/:id", clientHandler.DeleteClient)
				clients.GET("/:id/contacts/count", clientHandler.CountContacts)
			}

			contacts := authenticated.Group("/contacts")
			{
				contacts.GET("", contactHandler.ListContacts)
				contacts.POST("", contactHandler.CreateContact)
				contacts.GET("/:id", contactHandler.GetContact)
				contacts.PUT("/:id", contactHandler.UpdateContact)
				contacts.DELETE("/:id", contactHandler.DeleteContact)
			}

			leads := authenticated.Group("/leads")
			{
				leads.GET("", leadHandler.ListLeads)
				leads.GET("/stats", leadHandler.GetLeadStats)
				leads.POST("", leadHandler.CreateLead)
				leads.GET("/:id", leadHandler.GetLead)
				leads.PUT("/:id", leadHandler.UpdateLead)
				leads.DELETE("/:id", leadHandler.DeleteLead)
				leads.POST("/:id/convert", leadHandler.ConvertLead)
			}

			opportunities := authenticated.Group("/opportunities")
			{
				opportunities.GET("", opportunityHandler.ListOpportunities)
				opportunities.GET("/stats", opportunityHandler.GetOpportunityStats)
				opportunities.POST("", opportunityHandler.CreateOpportunity)
				opportunities.GET("/:id", opportunityHandler.GetOpportunity)
				opportunities.PUT("/:id", opportunityHandler.UpdateOpportunity)
				opportunities.DELETE("/:id", opportunityHandler.DeleteOpportunity)
				opportunities.POST("/:id/move", opportunityHandler.MoveOpportunity)
			}

			pipelines := authenticated.Group("/pipelines")
			{
				pipelines.GET("", pipelineHandler.ListPipelines)
				pipelines.GET("/:id", pipelineHandler.GetPipelineBoard)
				pipelines.GET("/:id/stages/:stageId/opportunities", pipelineHandler.GetStageOpportunities)
				pipelines.GET("/:id/board/ws", boardWSHandler.HandleBoard)
			}

			projects := authenticated.Group("/projects")
			{
				projects.GET("", projectHandler.ListProjects)
				projects.POST("", projectHandler.CreateProject)
				projects.GET("/:id", projectHandler.GetProject)
				projects.PUT("/:id", projectHandler.UpdateProject)
				projects.DELETE("/:id", projectHandler.DeleteProject)
			}

			tasks := authenticated.Group("/tasks")
			{
				tasks.GET("", taskHandler.ListTasks)
				tasks.POST("", taskHandler.CreateTask)
				tasks.GET("/:id", taskHandler.GetTask)
				tasks.PUT("/:id", taskHandler.UpdateTask)
				tasks.DELETE("/:id", taskHandler.DeleteTask)
			}

			attachments := authenticated.Group("/attachments")
			{
				attachments.POST("/presigned-url", attachmentHandler.GeneratePresignedURL)
				attachments.POST("/:entityType/:entityId/confirm", attachmentHandler.ConfirmAttachments)
				attachments.GET("/:entityType/:entityId", attachmentHandler.ListAttachments)
				attachments.DELETE("/:id", attachmentHandler.DeleteAttachment)
			}

			authenticated.GET("/dashboard/kpis", dashboardHandler.GetKPIs)
		}
	}

	return r
}
