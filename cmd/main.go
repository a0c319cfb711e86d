package main

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"agent-config-service/internal/fallback"
	"agent-config-service/internal/handler"
	"agent-config-service/internal/middleware"
	"agent-config-service/internal/store"
	"agent-config-service/pkg/config"
	"agent-config-service/pkg/jwtutil"
	"agent-config-service/pkg/logger"
	"agent-config-service/prometheus"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting agent configuration service...", cfg.LogConfig()...)

	// Open the storage handle; it lives for the whole process and is
	// passed down to handlers explicitly.
	st, err := store.Open(store.DBConfig{
		DSN:             cfg.DB.GetDSN(),
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		LogLevel:        cfg.DB.LogLevel,
	})
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer st.Close()
	st.SetBcryptCost(cfg.Auth.BcryptCost)
	log.Info("Database connection established")

	// JWT utility
	jwtUtil := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      cfg.JWT.SigningKey,
		ExpirationHours: cfg.JWT.ExpirationHours,
	})

	// Optional Redis fallback for execution-time resolution during
	// the migration window
	var fb *fallback.RedisFallback
	if cfg.Redis.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		fb, err = fallback.New(ctx, cfg.Redis.URL)
		cancel()
		if err != nil {
			log.Fatal("Failed to connect fallback store", zap.Error(err))
		}
		defer fb.Close()
		log.Info("Execution fallback store connected")
	}

	h := handler.NewHandler(st, jwtUtil, fb)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", h.HealthCheck)
	e.GET("/metrics", h.Metrics)

	// Authentication routes
	auth := e.Group("/auth")
	auth.POST("/signup", h.Signup)
	auth.POST("/login", h.Login)

	// Execution-time read path. Unauthenticated, but the caller must
	// name the tenant explicitly.
	e.GET("/execution/agent/:agent_id", h.ResolveAgent)

	// API routes - all require authentication
	api := e.Group("/api", middleware.JWTAuthMiddleware(jwtUtil))

	agents := api.Group("/agent")
	agents.POST("", h.CreateAgent)
	agents.GET("", h.ListAgents)
	agents.GET("/:agent_id", h.GetAgent)
	agents.PUT("/:agent_id", h.UpdateAgent)
	agents.DELETE("/:agent_id", h.DeleteAgent)
	agents.PATCH("/:agent_id/status", h.SetAgentStatus)
	agents.GET("/:agent_id/history", h.GetAgentHistory)

	voices := api.Group("/voices")
	voices.GET("", h.ListVoices)
	voices.GET("/:id", h.GetVoice)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
