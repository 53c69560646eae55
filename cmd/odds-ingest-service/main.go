package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/election-odds-ingest/internal/odds-ingest/feed"
	httpapi "github.com/radieske/election-odds-ingest/internal/odds-ingest/http"
	"github.com/radieske/election-odds-ingest/internal/odds-ingest/lock"
	"github.com/radieske/election-odds-ingest/internal/odds-ingest/parser"
	"github.com/radieske/election-odds-ingest/internal/odds-ingest/reconcile"
	"github.com/radieske/election-odds-ingest/internal/odds-ingest/repo"
	"github.com/radieske/election-odds-ingest/internal/odds-ingest/service"
	"github.com/radieske/election-odds-ingest/internal/odds-ingest/sink"
	"github.com/radieske/election-odds-ingest/internal/odds-ingest/ws"
	"github.com/radieske/election-odds-ingest/internal/shared/cache"
	"github.com/radieske/election-odds-ingest/internal/shared/config"
	"github.com/radieske/election-odds-ingest/internal/shared/db"
	"github.com/radieske/election-odds-ingest/internal/shared/logger"
	"github.com/radieske/election-odds-ingest/internal/shared/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config: %w", err))
	}

	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting service",
		zap.String("feed_url", cfg.FeedURL),
		zap.String("db_driver", cfg.DBDriver),
	)

	// Banco + schema
	conn, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatal("database connect", zap.Error(err))
	}
	defer conn.Close()

	dialect, err := repo.DialectFor(cfg.DBDriver)
	if err != nil {
		log.Fatal("sql dialect", zap.Error(err))
	}
	store := repo.NewStore(conn, dialect)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatal("ensure schema", zap.Error(err))
	}
	log.Info("database ready", zap.String("dialect", dialect.Name()))

	// Métricas Prometheus do pipeline
	m := metrics.NewIngestMetrics(prometheus.DefaultRegisterer)

	engine := reconcile.NewEngine(store, log)
	engine.OnOutcome = func(o reconcile.Outcome) { m.Outcomes.WithLabelValues(string(o.Kind)).Inc() }

	pipeline := &service.Pipeline{
		Feed:   feed.New(cfg.FeedURL, feed.WithTimeout(cfg.FeedTimeout)),
		Parser: parser.New(cfg.FeedContainer),
		Engine: engine,
		Store:  store,
		Source: cfg.FeedURL,
		Log:    log,
		OnRun: func(status string, d time.Duration) {
			m.Runs.WithLabelValues(status).Inc()
			m.RunDuration.Observe(d.Seconds())
		},
		OnError: func(stage string) { m.Errors.WithLabelValues(stage).Inc() },
	}
	locks := lock.Chain{lock.NewLocal()}

	api := &httpapi.API{Ingest: pipeline, Store: store, Log: log}

	// Redis opcional: lock entre réplicas, cache da última execução e broadcast /ws
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = cache.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatal("redis connect", zap.Error(err))
		}
		defer redisClient.Close()

		locks = append(locks, lock.NewRedis(redisClient, cfg.ServiceName+":run-lock", cfg.RunLockTTL))

		runCache := sink.NewRunCache(redisClient, cfg.RunCacheTTL)
		pipeline.Sinks = append(pipeline.Sinks, runCache, sink.NewRedisBroadcaster(redisClient, cfg.RedisPubSubChannel))
		api.Runs = runCache

		hub := ws.NewHub(func(r *http.Request) bool { return true })
		ws.StartRedisSubscriber(ctx, redisClient, cfg.RedisPubSubChannel, hub, log)
		api.WS = hub.HandleWS
		log.Info("redis connected", zap.String("addr", cfg.RedisAddr))
	}
	pipeline.Lock = locks

	// Kafka opcional
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		if cfg.Env == "local" || cfg.Env == "dev" {
			if err := sink.EnsureTopics(ctx, brokers[0], log, cfg.TopicCandidateOdds, cfg.TopicIngestionRuns); err != nil {
				log.Warn("failed to create kafka topics", zap.Error(err))
			}
		}
		pub := sink.NewKafkaPublisher(brokers, cfg.TopicCandidateOdds, cfg.TopicIngestionRuns, log)
		defer pub.Close()
		pipeline.Sinks = append(pipeline.Sinks, pub)
		log.Info("kafka publisher ready", zap.Strings("brokers", brokers))
	}

	// Agendamento opcional além do gatilho HTTP
	poller := &service.Poller{Pipeline: pipeline, Interval: cfg.PollInterval, Log: log}
	go poller.Start(ctx)

	// Servidor de métricas e health check
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := store.Ping(ctx); err != nil {
			return fmt.Errorf("db: %w", err)
		}
		if redisClient != nil {
			if err := redisClient.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
		}
		return nil
	})
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("http listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("odds-ingest-service stopped")
}
