package app

import (
	"classpulse_backend/internal/config"
	"classpulse_backend/internal/controller"
	"classpulse_backend/internal/repository"
	"classpulse_backend/internal/service"
	"classpulse_backend/pkg/configwatcher"
	"classpulse_backend/pkg/database"
	"classpulse_backend/pkg/logger"
	"classpulse_backend/pkg/monitoring"
	"classpulse_backend/pkg/security"
	"classpulse_backend/pkg/tracing"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user              *repository.UserRepository
	roster            *repository.RosterRepository
	session           *repository.SessionRepository
	insight           *repository.InsightRepository
	outcome           *repository.OutcomeRepository
	todo              *repository.TodoRepository
	studentAssignment *repository.StudentAssignmentRepository
	settings          *repository.SettingsRepository
}

type services struct {
	auth       *service.AuthService
	settings   *service.SettingsService
	aggregator *service.AggregatorService
	detection  *service.DetectionService
	sync       *service.SyncService
	actions    *service.ActionService
	insight    *service.InsightService
	todo       *service.TodoService
	attention  *service.AttentionService
}

type controllers struct {
	auth      *controller.AuthController
	insight   *controller.InsightController
	todo      *controller.TodoController
	attention *controller.AttentionController
	settings  *controller.SettingsController
	health    *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:              repository.NewUserRepository(db),
		roster:            repository.NewRosterRepository(db),
		session:           repository.NewSessionRepository(db),
		insight:           repository.NewInsightRepository(db),
		outcome:           repository.NewOutcomeRepository(db),
		todo:              repository.NewTodoRepository(db),
		studentAssignment: repository.NewStudentAssignmentRepository(db),
		settings:          repository.NewSettingsRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.auth = service.NewAuthService(repos.user, cfg)
	s.settings = service.NewSettingsService(repos.settings)
	s.aggregator = service.NewAggregatorService(repos.roster, repos.session, repos.user)
	s.detection = service.NewDetectionService(repos.insight, s.aggregator, s.settings)
	s.sync = service.NewSyncService(repos.todo, repos.studentAssignment, repos.session)
	s.actions = service.NewActionService(repos.roster, repos.studentAssignment, repos.session, s.sync)

	s.insight = service.NewInsightService(
		repos.insight,
		repos.outcome,
		repos.todo,
		repos.studentAssignment,
		repos.roster,
		repos.user,
		s.actions,
		s.sync,
	)

	s.todo = service.NewTodoService(repos.todo, repos.insight, s.sync)
	s.attention = service.NewAttentionService(repos.insight, repos.roster, s.settings, rdb)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.auth),
		insight:   controller.NewInsightController(s.insight, s.detection, s.attention),
		todo:      controller.NewTodoController(s.todo, s.attention),
		attention: controller.NewAttentionController(s.attention),
		settings:  controller.NewSettingsController(s.settings),
		health:    controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 100000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startBackgroundTasks(s *services, cfg *config.Config) {
	retention := time.Duration(cfg.Insights.PruneAfterDays) * 24 * time.Hour
	interval := time.Duration(cfg.Insights.PruneIntervalMinutes) * time.Minute

	go func() {
		ticker := time.NewTicker(interval)
		for range ticker.C {
			removed, err := s.insight.Prune(retention)
			if err != nil {
				logger.Log.Error("insight prune error", zap.Error(err))
				continue
			}
			if removed > 0 {
				logger.Log.Info("pruned terminal insights", zap.Int64("removed", removed))
			}
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db)

	// 监控初始化
	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("classpulse", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	}

	app.registerRoutes(router, controllers, repos, cfg)

	go configwatcher.WatchConfig("configs/config.yaml", cfg, func(reloaded interface{}) {
		newCfg, ok := reloaded.(*config.Config)
		if !ok {
			return
		}
		app.Config = newCfg
		for _, callback := range app.configCallbacks {
			callback(newCfg)
		}
		logger.Log.Info("Config reloaded")
	})

	app.startBackgroundTasks(services, cfg)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
