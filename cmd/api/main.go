package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/forkful/backend/config"
	"github.com/forkful/backend/internal/server"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Fatal("server init", zap.Error(err))
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	case sig := <-quit:
		logger.Info("received signal", zap.String("signal", sig.String()))
	}

	logger.Info("shutting down")
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Fatal("shutdown error", zap.Error(err))
	}
	logger.Info("stopped")
}
