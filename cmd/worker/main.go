package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"algoitny-backend/infrastructure/config"
	"algoitny-backend/infrastructure/di"

	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	container.Logger.Info("Starting worker service",
		zap.String("worker_id", cfg.WorkerID),
		zap.String("environment", cfg.Environment),
	)

	done := make(chan error, 1)
	go func() {
		done <- container.Processor.Run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		container.Logger.Info("Shutting down worker service...")
		cancel()
		if err := <-done; err != nil && err != context.Canceled {
			container.Logger.Error("Worker stopped with error", zap.Error(err))
		}
	case err := <-done:
		if err != nil && err != context.Canceled {
			container.Logger.Error("Worker stopped with error", zap.Error(err))
		}
	}

	if err := container.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	log.Println("Worker service stopped")
}
