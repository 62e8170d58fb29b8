package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ledger-service/src/internal/config"
	"ledger-service/src/pkg/log"

	"github.com/hibiken/asynq"
)

func main() {
	viperConfig := config.NewViper()
	viperConfig.SetDefault("log.level", "DEBUG")
	viperConfig.SetDefault("app.name", "LEDGER_SERVICE")
	viperConfig.SetDefault("web.port", 8080)
	viperConfig.SetDefault("settlement.max_payload_bytes", 65536)
	viperConfig.SetDefault("settlement.max_amount", "100000000")
	viperConfig.SetDefault("settlement.max_retries", 5)
	viperConfig.SetDefault("settlement.sweep_batch", 50)

	log.InitLogger(viperConfig)
	logger := log.GetLogger()

	config.NewKafkaConfig(viperConfig)
	config.LoadRedisConfig(viperConfig)

	db := config.NewDatabase(viperConfig, logger)
	redisClient := config.NewRedis()
	producer := config.NewKafkaProducer(viperConfig, logger)
	validate := config.NewValidator(viperConfig)

	asynqClient := config.NewAsynqClient(viperConfig)
	defer asynqClient.Close()
	asynqServer := config.NewAsynqServer(viperConfig)
	mux := asynq.NewServeMux()

	app := config.NewFiber(viperConfig)
	config.Bootstrap(&config.BootstrapConfig{
		DB:          db,
		App:         app,
		Log:         logger,
		Validate:    validate,
		Config:      viperConfig,
		Producer:    producer,
		Redis:       redisClient,
		AsynqClient: asynqClient,
		Async:       mux,
	})

	go func() {
		if err := asynqServer.Run(mux); err != nil {
			logger.Error("main", fmt.Sprintf("asynq server stopped: %v", err), "main", "")
		}
	}()

	go func() {
		webPort := viperConfig.GetInt("web.port")
		if err := app.Listen(fmt.Sprintf(":%d", webPort)); err != nil {
			logger.Error("main", fmt.Sprintf("Failed to start server: %v", err), "main", "")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("main", "Server ledger-service is shutting down...", "graceful", "")
	asynqServer.Shutdown()
	if err := app.Shutdown(); err != nil {
		logger.Error("main", fmt.Sprintf("Error during shutdown: %v", err), "graceful", "")
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("main", fmt.Sprintf("Error closing kafka producer: %v", err), "graceful", "")
		}
	}
	logger.Info("main", fmt.Sprintf("Server %s stopped", viperConfig.GetString("app.name")), "graceful", "")
}
