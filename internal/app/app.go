package app

import (
	"career_advisor_backend/internal/config"
	"career_advisor_backend/internal/controller"
	"career_advisor_backend/internal/generator"
	"career_advisor_backend/internal/repository"
	"career_advisor_backend/internal/service"
	"career_advisor_backend/pkg/database"
	"career_advisor_backend/pkg/logger"
	"career_advisor_backend/pkg/monitoring"
	"career_advisor_backend/pkg/security"
	"career_advisor_backend/pkg/tracing"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config    *config.Config
	Router    *gin.Engine
	DB        *gorm.DB
	Redis     *redis.Client
	Generator generator.ContentGenerator

	services        *services
	tracer          *sdktrace.TracerProvider
	ctx             context.Context
	cancel          context.CancelFunc
	mu              sync.Mutex
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user     *repository.UserRepository
	roadmap  *repository.GormRoadmapRepository
	progress *repository.GormProgressRepository
	chat     *repository.ChatRepository
}

type services struct {
	storage        *service.StorageService
	user           *service.UserService
	roadmap        *service.RoadmapService
	progress       *service.ProgressService
	recommendation *service.RecommendationService
	analyze        *service.AnalyzeService
	chat           *service.ChatService
}

type controllers struct {
	user     *controller.UserController
	roadmap  *controller.RoadmapController
	progress *controller.ProgressController
	career   *controller.CareerController
	chat     *controller.ChatController
	health   *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 配置热更新入口，只有超时与日志级别等运行时参数会生效
func (a *App) ApplyConfig(cfg *config.Config) {
	a.mu.Lock()
	callbacks := append([]func(*config.Config){}, a.configCallbacks...)
	a.Config = cfg
	a.mu.Unlock()

	for _, cb := range callbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		roadmap:  repository.NewRoadmapRepository(db, rdb, time.Duration(cfg.Roadmap.CacheTTLHours)*time.Hour),
		progress: repository.NewProgressRepository(db),
		chat:     repository.NewChatRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, gen generator.ContentGenerator) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.user = service.NewUserService(repos.user)
	s.roadmap = service.NewRoadmapService(repos.roadmap, repos.progress, repos.user, gen, s.storage, cfg)
	s.progress = service.NewProgressService(repos.progress, repos.roadmap)
	s.recommendation = service.NewRecommendationService(gen, service.DefaultFallbackTable(), cfg)
	s.analyze = service.NewAnalyzeService(gen, cfg)
	s.chat = service.NewChatService(gen, repos.chat, cfg)

	return s
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		user:     controller.NewUserController(s.user),
		roadmap:  controller.NewRoadmapController(s.roadmap),
		progress: controller.NewProgressController(s.progress),
		career:   controller.NewCareerController(s.recommendation, s.analyze),
		chat:     controller.NewChatController(s.chat),
		health:   controller.NewHealthController(a.DB, a.Redis, a.Generator.Name()),
	}
}

func (a *App) registerConfigCallbacks(s *services) {
	a.RegisterConfigCallback(func(cfg *config.Config) {
		logger.SetMode(cfg.Server.Mode)
	})
	a.RegisterConfigCallback(func(cfg *config.Config) {
		timeout := cfg.AI.Timeout()
		s.roadmap.SetTimeout(timeout)
		s.recommendation.SetTimeout(timeout)
		s.analyze.SetTimeout(timeout)
		s.chat.SetTimeout(timeout)
		logger.Log.Info("Generator timeout updated", zap.Duration("timeout", timeout))
	})
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(a.ctx, cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// newApp 基于已建立的连接组装服务与路由，测试中直接传入 sqlite 与假的生成器
func newApp(cfg *config.Config, db *gorm.DB, rdb *redis.Client, gen generator.ContentGenerator) *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config:    cfg,
		DB:        db,
		Redis:     rdb,
		Generator: gen,
		ctx:       ctx,
		cancel:    cancel,
	}

	repos := app.initRepositories(db, rdb, cfg)
	app.services = app.initServices(repos, cfg, gen)
	app.registerConfigCallbacks(app.services)
	c := app.initControllers(app.services)

	if cfg.Server.Mode != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, c)

	return app
}

func NewApp(cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Error("Failed to initialize database", zap.Error(err))
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	if cfg.ForceMigrate || cfg.Server.Mode == "debug" || database.NeedsMigration(db) {
		if err := database.Migrate(db); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	// Redis 只是路线图读缓存，连不上时退化为直接查库
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Warn("Redis unavailable, roadmap cache disabled", zap.Error(err))
			rdb = nil
		}
	}

	base, err := generator.New(cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("initialize content generator: %w", err)
	}
	logger.Log.Info("Content generator selected",
		zap.String("provider", base.Name()),
		zap.String("model", cfg.AI.Model),
		zap.Duration("timeout", cfg.AI.Timeout()))

	// 监控初始化
	monitoring.Init()

	app := newApp(cfg, db, rdb, generator.Instrument(base))

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Error("Failed to initialize tracing", zap.Error(err))
		} else {
			app.tracer = tp
		}
	}

	if cfg.Storage.Type == "local" && cfg.Roadmap.ArchiveRaw {
		app.Router.Static("/archive", cfg.Storage.LocalPath)
	}

	return app, nil
}

// Close 释放后台协程与外部连接
func (a *App) Close() {
	a.cancel()

	if a.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
}

func (a *App) Run() error {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	errCh := make(chan error, 1)
	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待中断信号优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		a.Close()
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}
	logger.Log.Info("Shutting down server...")

	// 生成请求可能耗时较长，给进行中的请求留出时间
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := srv.Shutdown(ctx)
	a.Close()
	if err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Log.Info("Server exiting")
	return nil
}
