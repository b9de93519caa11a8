package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"gigsos_backend/database"
	"gigsos_backend/internal/auth"
	"gigsos_backend/internal/config"
	"gigsos_backend/internal/handlers"
	"gigsos_backend/internal/logger"
	"gigsos_backend/internal/middleware"
	"gigsos_backend/internal/routes"
	"gigsos_backend/internal/services"
	"gigsos_backend/internal/validator"
	"gigsos_backend/pkg/apperrors"
	"gigsos_backend/ws"
)

const shutdownTimeout = 10 * time.Second

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)
	apperrors.Debug = cfg.IsDevelopment()

	logger.Info("Connecting to database...")
	gormDB, err := database.Connect(cfg.Database.DSN, cfg.IsDevelopment())
	if err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(gormDB); err != nil {
			logger.Fatal("AutoMigrate failed", "error", err)
		}
		logger.Info("AutoMigrate completed")
	}

	application := New(cfg, gormDB)
	if err := application.SeedFirstAdmin(); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Serve(ctx); err != nil {
		logger.Fatal("Server error", "error", err)
	}
}

// App - собранное приложение; New не открывает сокетов
type App struct {
	cfg         *config.Config
	db          *gorm.DB
	Services    *services.ServiceContainer
	Router      *gin.Engine
	wsManager   *ws.WebSocketManager
	rateLimiter *middleware.RateLimiter
}

func New(cfg *config.Config, gormDB *gorm.DB) *App {
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWTTTL())

	var (
		wsManager *ws.WebSocketManager
		pusher    services.Pusher
	)
	if cfg.WebSocket.Enabled {
		wsManager = ws.NewWebSocketManager()
		pusher = wsManager
	}

	serviceContainer := services.NewServiceContainer(services.NewRepositories(), tokens, pusher, services.Options{
		SOS: services.SOSOptions{
			NotifyRadiusKm: cfg.SOS.NotifyRadiusKm,
			DefaultReward:  int(cfg.SOS.DefaultReward),
		},
		Discovery: services.DiscoveryOptions{
			MaxRadiusKm: cfg.Discovery.MaxRadiusKm,
			ResultLimit: cfg.Discovery.ResultLimit,
		},
		LeaderboardLimit: cfg.Leaderboard.DefaultLimit,
	})

	a := &App{
		cfg:         cfg,
		db:          gormDB,
		Services:    serviceContainer,
		wsManager:   wsManager,
		rateLimiter: middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
	}
	a.Router = a.setupRouter()
	return a
}

func (a *App) setupRouter() *gin.Engine {
	if !a.cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware(a.cfg.Server.CORSOrigins))
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.DBMiddleware(a.db))

	var wsHandler *ws.WebSocketHandler
	if a.wsManager != nil {
		wsHandler = ws.NewWebSocketHandler(a.wsManager, a.Services.AuthService)
	}

	routes.RegisterRoutes(router, initializeHandlers(a.Services), wsHandler, routes.Guards{
		Auth:        a.Services.AuthService,
		Bans:        a.Services.ModerationService,
		RateLimiter: a.rateLimiter,
	})
	return router
}

func initializeHandlers(s *services.ServiceContainer) *handlers.AppHandlers {
	baseHandler := handlers.NewBaseHandler(validator.New())

	return &handlers.AppHandlers{
		AuthHandler:         handlers.NewAuthHandler(baseHandler, s.AuthService),
		UserHandler:         handlers.NewUserHandler(baseHandler, s.DiscoveryService, s.PointsService),
		AddressHandler:      handlers.NewAddressHandler(baseHandler, s.AddressService),
		JobHandler:          handlers.NewJobHandler(baseHandler, s.JobService),
		ReviewHandler:       handlers.NewReviewHandler(baseHandler, s.ReviewService),
		SOSHandler:          handlers.NewSOSHandler(baseHandler, s.SOSService),
		LeaderboardHandler:  handlers.NewLeaderboardHandler(baseHandler, s.LeaderboardService),
		NotificationHandler: handlers.NewNotificationHandler(baseHandler, s.NotificationService),
		AdminHandler:        handlers.NewAdminHandler(baseHandler, s.AdminService, s.ModerationService),
	}
}

// SeedFirstAdmin - super_admin из конфига, если администраторов еще нет
func (a *App) SeedFirstAdmin() error {
	admin := a.cfg.FirstAdmin
	if admin.Email == "" || admin.Password == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set. Skipping admin seeding.")
		return nil
	}

	created, err := a.Services.AuthService.EnsureFirstAdmin(a.db, admin.Email, admin.Password, admin.Name)
	if err != nil {
		return err
	}
	if created {
		logger.Info("First admin user created", "email", admin.Email)
	}
	return nil
}

// Serve - http сервер, hub и очистка лимитера до отмены ctx
func (a *App) Serve(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)

	if a.wsManager != nil {
		go a.wsManager.Run()
		defer a.wsManager.Stop()
	}
	a.rateLimiter.StartCleanup(10*time.Minute, done)

	server := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
