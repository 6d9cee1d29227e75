package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/airorders/api"
	"github.com/Domenick1991/airorders/config"
	"github.com/Domenick1991/airorders/internal/airline"
	healthapi "github.com/Domenick1991/airorders/internal/api/health_service_api"
	"github.com/Domenick1991/airorders/internal/auth"
	"github.com/Domenick1991/airorders/internal/bootstrap"
	"github.com/Domenick1991/airorders/internal/cache"
	"github.com/Domenick1991/airorders/internal/kafka"
	"github.com/Domenick1991/airorders/internal/logger"
	"github.com/Domenick1991/airorders/internal/repository"
	"github.com/Domenick1991/airorders/internal/service/orders"
	"github.com/jackc/pgx/v5/pgxpool"
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

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		zl.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := repository.EnsureSchema(ctx, pool); err != nil {
		zl.Fatal("ensure schema", zap.Error(err))
	}

	redisCache := cache.NewRedisCache(cfg.Redis)
	defer redisCache.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, zl)
	defer producer.Close()
	if err := producer.CheckConnection(ctx); err != nil {
		zl.Warn("kafka unreachable, order events will be dropped until it recovers", zap.Error(err))
	}

	airlineClient := airline.NewClient(cfg.Airline, zl)

	orderService := orders.NewOrderService(
		airlineClient,
		repository.NewBookingRepository(pool),
		repository.NewChangeRepository(pool),
		zl,
		orders.WithLocker(redisCache, cfg.Orders.LockTTL()),
		orders.WithEvents(producer, cfg.Kafka.OrdersTopic),
		orders.WithHoldWindows(cfg.Orders.DefaultHold(), cfg.Orders.Extension()),
		orders.WithSeatMapConcurrency(cfg.Orders.SeatMapConcurrency),
	)

	router := api.NewRouter(zl,
		api.NewOrderHandler(orderService, cfg.IsProduction()),
		auth.NewTokenVerifier(cfg.Auth.JWTSecret),
		redisCache,
		api.RouterConfig{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			Burst:             cfg.RateLimit.Burst,
			IdempotencyTTL:    cfg.Orders.IdempotencyTTL(),
		},
	)

	health := healthapi.NewServer(map[string]healthapi.Pinger{
		"postgres": pool,
		"redis":    redisCache,
	}, zl)

	if err := bootstrap.Run(ctx, cfg, zl, router, health); err != nil {
		zl.Fatal("server error", zap.Error(err))
	}
}
