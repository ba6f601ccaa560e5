// Package server assembles the HTTP server from its dependencies and
// owns its lifecycle.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/forkful/backend/config"
	"github.com/forkful/backend/internal/api"
	"github.com/forkful/backend/internal/database"
)

// Server owns the HTTP listener and its backing connections.
type Server struct {
	cfg    *config.Config
	router *gin.Engine
	http   *http.Server
	db     *gorm.DB
	redis  *redis.Client
	logger *zap.Logger
}

// New connects to Postgres, Redis and S3 and wires the full API. Redis
// and S3 are optional at startup: without them the server runs with
// throttling, logout revocation, chat history and image upload degraded.
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	db, err := database.New(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	redisClient, err := database.NewRedisClient(cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, running degraded", zap.Error(err))
		redisClient = nil
	}

	s3Config, err := config.NewS3Config(context.Background(), cfg.Storage)
	if err != nil {
		logger.Warn("s3 unavailable, image upload disabled", zap.Error(err))
		s3Config = nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api.SetupAPI(router, api.Deps{
		DB:     db,
		Redis:  redisClient,
		Config: cfg,
		S3:     s3Config,
		Logger: logger,
	})

	return &Server{
		cfg:    cfg,
		router: router,
		db:     db,
		redis:  redisClient,
		logger: logger,
	}, nil
}

// Start blocks serving HTTP until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler: s.router,
	}

	s.logger.Info("server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and closes the backing connections.
func (s *Server) Shutdown(ctx context.Context) error {
	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var firstErr error
	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
