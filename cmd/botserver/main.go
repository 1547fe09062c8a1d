// cmd/botserver/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"itbot/internal/api"
	"itbot/internal/audit"
	"itbot/internal/clients/knowledge"
	"itbot/internal/clients/servicenow"
	"itbot/internal/clients/software"
	"itbot/internal/common/config"
	"itbot/internal/common/database"
	"itbot/internal/common/logger"
	"itbot/internal/common/observability"
	"itbot/internal/conversation"
	"itbot/internal/dialogue"
	"itbot/internal/guard"
	"itbot/internal/nlu"
	"itbot/internal/notify"
	"itbot/internal/state"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// auditSink adapts the Postgres audit logger to the processor's sink.
type auditSink struct {
	log *audit.Logger
}

func (s auditSink) Append(ctx context.Context, rec conversation.TurnRecord) error {
	return s.log.Append(ctx, audit.TurnRecord(rec))
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting bot server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()

	// --- Init Elasticsearch with retry ---
	var es *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return es.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}

	// --- Wire the dialogue pipeline ---
	ticketing := servicenow.NewClient(cfg.ServiceNow)
	kb := knowledge.NewClient(es.Client, cfg.Knowledge, log)
	sw := software.NewClient(ticketing, log)
	engine := dialogue.NewEngine(ticketing, kb, sw, cfg.Dialogue.MinConfidence, log)

	var notifier conversation.Notifier
	if cfg.Notifications.Enabled {
		n, err := notify.New(ctx, cfg.Notifications, log)
		if err != nil {
			zapLog.Fatal("notifier init failed", zap.Error(err))
		}
		notifier = n
	} else {
		zapLog.Info("notifications disabled")
	}

	processor := conversation.NewProcessor(
		guard.NewConversationLocks(),
		guard.NewDeduplicator(rdb.Client, time.Duration(cfg.Dialogue.DedupWindowSeconds)*time.Second, log),
		nlu.NewResolver(log),
		state.NewRedisStore(rdb.Client, time.Duration(cfg.Dialogue.StateTTLSeconds)*time.Second, log),
		engine,
		notifier,
		auditSink{log: audit.NewLogger(pg.GetDB(), log)},
		obs,
		log,
	)

	server := api.NewServer(cfg.HTTP, processor, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		zapLog.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			zapLog.Error("http server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http shutdown failed", zap.Error(err))
	}
	zapLog.Info("bot server stopped")
}
