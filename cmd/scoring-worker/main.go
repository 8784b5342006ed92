package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/synaptica-ai/cardio/pkg/common/config"
	"github.com/synaptica-ai/cardio/pkg/common/kafka"
	"github.com/synaptica-ai/cardio/pkg/common/logger"
	"github.com/synaptica-ai/cardio/pkg/serving"
)

func main() {
	logger.Init("scoring-worker")
	cfg := config.Load()

	if len(cfg.KafkaBrokers) == 0 {
		logger.Log.Fatal("KAFKA_BROKERS is required for the scoring worker")
	}
	// Results are always published from the worker.
	cfg.KafkaEnabled = true

	model := serving.LoadModel(cfg)
	if model == nil {
		logger.Log.Fatal("Scoring worker requires a loaded model")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts, closeSinks, err := serving.ConnectSinks(ctx, cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to connect assessment sinks")
	}
	defer closeSinks()

	service := serving.NewService(model, opts)

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaRecordsTopic, cfg.KafkaGroupID)
	defer consumer.Close()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Log.Info("Shutting down Scoring Worker...")
		cancel()
	}()

	logger.Log.WithFields(map[string]interface{}{
		"topic":    cfg.KafkaRecordsTopic,
		"group_id": cfg.KafkaGroupID,
		"publish":  cfg.KafkaAssessmentsTopic,
	}).Info("Scoring Worker started")

	if err := consumer.Consume(ctx, service.HandleRecordEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Log.WithError(err).Error("Consumer stopped")
	}

	logger.Log.Info("Scoring Worker stopped")
}
