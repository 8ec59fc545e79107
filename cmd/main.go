package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"imageenhancer/internal/events"
	"imageenhancer/internal/models"
	"imageenhancer/internal/server"
	"imageenhancer/internal/service"
	"imageenhancer/internal/storage"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := models.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	db, err := storage.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to init storage", zap.Error(err))
	}
	defer db.Close()

	files, err := service.NewFileStore(cfg.UploadRoot)
	if err != nil {
		logger.Fatal("failed to init upload dirs", zap.Error(err))
	}

	var pub events.Publisher = events.Nop{}
	if cfg.KafkaBroker != "" {
		kp := events.NewKafkaPublisher(cfg.KafkaBroker, cfg.KafkaTopic, logger)
		defer kp.Close()
		pub = kp
	}

	svc := service.New(db, files, pub, logger, cfg.MaxUploadBytes)
	srv := server.NewServer(cfg, svc, logger)

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.ServerAddr))
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
