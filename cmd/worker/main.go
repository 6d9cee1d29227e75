package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/airorders/config"
	"github.com/Domenick1991/airorders/internal/kafka"
	"github.com/Domenick1991/airorders/internal/logger"
	"github.com/Domenick1991/airorders/internal/notify"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zl, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.OrdersTopic, zl)
	defer consumer.Close()

	sender := notify.NewSender(zl)

	zl.Info("notification worker started", zap.String("topic", cfg.Kafka.OrdersTopic))
	if err := consumer.ConsumeOrderEvents(ctx, sender.Send); err != nil && !errors.Is(err, context.Canceled) {
		zl.Error("consumer stopped", zap.Error(err))
		return
	}
	zl.Info("notification worker stopped")
}
