package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "invoicing/api/swagger" // swagger docs
	"invoicing/internal/billing"
	"invoicing/internal/config"
	"invoicing/internal/database"
	"invoicing/internal/handler"
	applog "invoicing/internal/log"
	"invoicing/internal/middleware"
	"invoicing/internal/repository"
	"invoicing/internal/repository/memory"
	"invoicing/internal/service"
	"invoicing/internal/session"
	"invoicing/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Travel Agency Invoicing API
// @version         1.0
// @description     Invoices, dashboards and agent performance for a travel agency.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	logCfg := applog.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.JSON = cfg.IsRelease()
	logger := applog.New(logCfg)
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", applog.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, closeDB, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		logger.Error("storage setup failed", applog.FieldError, err)
		os.Exit(1)
	}
	store, closeSessions := openSessionStore(ctx, cfg, logger)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(logger)
	go wsHub.Run(ctx)

	// Set up dependencies (Repository -> Service -> Handler)
	numbers := billing.NewNumberGenerator(nil)
	authService := service.NewAuthService(repos, store, cfg.Secret(), cfg.SessionTTL, nil, logger)
	invoiceService := service.NewInvoiceService(repos, numbers, cfg.TaxRate, wsHub, nil, logger)
	dashboardService := service.NewDashboardService(repos, cfg.PerformanceIncludeDirectors, nil, logger)
	sessionService := service.NewSessionService(store, repos.Invoices, logger)
	auditService := service.NewAuditService(repos.Audit)

	if err := authService.EnsureDirector(ctx, cfg.DirectorEmail, cfg.DirectorPassword, cfg.DirectorName); err != nil {
		logger.Error("director bootstrap failed", applog.FieldError, err)
		closeAll(logger, closeSessions, closeDB)
		os.Exit(1)
	}

	requireAuth := middleware.RequireAuth(authService)

	// Initialize Handlers
	authHandler := handler.NewAuthHandler(authService, requireAuth, cfg.SessionTTL, cfg.IsRelease())
	invoiceHandler := handler.NewInvoiceHandler(invoiceService, requireAuth)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, requireAuth)
	sessionHandler := handler.NewSessionHandler(sessionService, requireAuth)
	auditHandler := handler.NewAuditHandler(auditService, requireAuth)

	// Set up Gin Router
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), applog.GinMiddleware(logger))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Request-ID"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "backend": cfg.DataBackend})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, authService.Authenticate)
	})

	// API Routing
	api := router.Group("")
	authHandler.RegisterRoutes(api)
	invoiceHandler.RegisterRoutes(api)
	dashboardHandler.RegisterRoutes(api)
	sessionHandler.RegisterRoutes(api)
	auditHandler.RegisterRoutes(api)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", applog.FieldError, err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", applog.FieldError, err)
	}
	closeAll(logger, closeSessions, closeDB)
}

// closeAll releases backend connections in order, logging failures.
func closeAll(logger *applog.Logger, closers ...func() error) {
	for _, c := range closers {
		if err := c(); err != nil {
			logger.Warn("failed to close connection", applog.FieldError, err)
		}
	}
}

func noopClose() error { return nil }

// openRepositories returns the configured backend and a function that closes
// its connection pool.
func openRepositories(ctx context.Context, cfg *config.Config, logger *applog.Logger) (repository.Set, func() error, error) {
	storageLog := logger.WithComponent(applog.ComponentStorage)
	if cfg.DataBackend == config.BackendMemory {
		storageLog.Warn("using in-memory storage; data is lost on restart")
		repos, _ := memory.NewSet(nil)
		return repos, noopClose, nil
	}

	db, err := database.NewConnection(ctx, cfg.DSN(), storageLog)
	if err != nil {
		return repository.Set{}, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return repository.Set{}, nil, err
	}
	storageLog.Info("connected to PostgreSQL", "host", cfg.DBHost, "database", cfg.DBName)
	return repository.NewGormSet(db), sqlDB.Close, nil
}

// openSessionStore prefers Redis so sessions survive restarts and are shared
// between replicas. Without REDIS_ADDR, or when Redis is down, sessions live
// in process memory.
func openSessionStore(ctx context.Context, cfg *config.Config, logger *applog.Logger) (session.Store, func() error) {
	cacheLog := logger.WithComponent(applog.ComponentCache)
	if cfg.RedisAddr == "" {
		return session.NewMemoryStore(nil), noopClose
	}
	rdb, err := session.Connect(ctx, cfg.RedisAddr)
	if err != nil {
		cacheLog.Warn("redis unavailable, keeping sessions in memory", "addr", cfg.RedisAddr, applog.FieldError, err)
		return session.NewMemoryStore(nil), noopClose
	}
	cacheLog.Info("sessions stored in redis", "addr", cfg.RedisAddr)
	return session.NewRedisStore(rdb, nil), rdb.Close
}
