// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"foundingcircle-workers/internal/common/aws"
	"foundingcircle-workers/internal/common/config"
	"foundingcircle-workers/internal/common/database"
	"foundingcircle-workers/internal/common/logger"
	"foundingcircle-workers/internal/common/observability"
	"foundingcircle-workers/internal/repository"
	"foundingcircle-workers/pkg/registry"

	// Matching Workers (2)
	ccs "foundingcircle-workers/internal/workers/matching/calculate-compatibility-score"
	cmr "foundingcircle-workers/internal/workers/matching/create-match-record"

	// Lifecycle Workers (7)
	ct "foundingcircle-workers/internal/workers/lifecycle/complete-trial"
	em "foundingcircle-workers/internal/workers/lifecycle/end-match"
	lc "foundingcircle-workers/internal/workers/lifecycle/link-conversation"
	mh "foundingcircle-workers/internal/workers/lifecycle/mark-hired"
	st "foundingcircle-workers/internal/workers/lifecycle/start-trial"
	sf "foundingcircle-workers/internal/workers/lifecycle/submit-feedback"
	uma "foundingcircle-workers/internal/workers/lifecycle/update-message-activity"

	// Notification Workers (1)
	smn "foundingcircle-workers/internal/workers/notification/send-match-notification"

	// Data Access Workers (2)
	ima "foundingcircle-workers/internal/workers/data-access/index-match-analytics"
	qms "foundingcircle-workers/internal/workers/data-access/query-match-stats"
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

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebeClient zbc.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		// Test the connection
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Load Activity Registry ---
	// The registry feeds structural input validation; a missing file degrades
	// to semantic validation only, so it is a warning rather than a fatal.
	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Warn("activity registry not loaded, schema validation disabled",
			zap.String("path", cfg.Registry.Path),
			zap.Error(err),
		)
		reg = nil
	} else {
		zapLog.Info("activity registry loaded",
			zap.String("path", cfg.Registry.Path),
			zap.Int("activities", len(reg.Activities)),
		)
	}

	// --- Init AWS Clients (SES / SNS) ---
	var sesClient *aws.SESClient
	var snsClient *aws.SNSClient
	if cfg.Workers[smn.TaskType].Enabled {
		sesClient, err = aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
		snsClient, err = aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		zapLog.Info("AWS notification clients initialized", zap.String("region", cfg.Notifications.AWS.Region))
	}

	// --- Shared Repositories ---
	matches := repository.NewMatchRepository(pg.DB, log, cfg.Matching.WriteRetries)
	scenarios := repository.NewScenarioStore(pg.DB, redis, cfg.Matching.ScenarioCacheTTL, log)

	// --- START: Register ALL 12 Workers ---

	// --- 1. Matching Workers (2) ---
	if cfg.Workers[ccs.TaskType].Enabled {
		handler := ccs.NewHandler(
			&ccs.Config{
				Timeout: config.GetDuration(cfg.Workers[ccs.TaskType].Timeout),
			},
			scenarios, log,
		)
		startWorker(zeebeClient, ccs.TaskType, cfg.Workers[ccs.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[cmr.TaskType].Enabled {
		handler := cmr.NewHandler(
			&cmr.Config{
				Timeout: config.GetDuration(cfg.Workers[cmr.TaskType].Timeout),
			},
			matches, reg, log,
		)
		startWorker(zeebeClient, cmr.TaskType, cfg.Workers[cmr.TaskType], handler.Handle, zapLog)
	}

	// --- 2. Lifecycle Workers (7) ---
	if cfg.Workers[lc.TaskType].Enabled {
		handler := lc.NewHandler(
			&lc.Config{
				Timeout: config.GetDuration(cfg.Workers[lc.TaskType].Timeout),
			},
			matches, log,
		)
		startWorker(zeebeClient, lc.TaskType, cfg.Workers[lc.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[uma.TaskType].Enabled {
		handler := uma.NewHandler(
			&uma.Config{
				Timeout: config.GetDuration(cfg.Workers[uma.TaskType].Timeout),
			},
			matches, log,
		)
		startWorker(zeebeClient, uma.TaskType, cfg.Workers[uma.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[st.TaskType].Enabled {
		handler := st.NewHandler(
			&st.Config{
				Timeout: config.GetDuration(cfg.Workers[st.TaskType].Timeout),
			},
			matches, log,
		)
		startWorker(zeebeClient, st.TaskType, cfg.Workers[st.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[ct.TaskType].Enabled {
		handler := ct.NewHandler(
			&ct.Config{
				Timeout: config.GetDuration(cfg.Workers[ct.TaskType].Timeout),
			},
			matches, log,
		)
		startWorker(zeebeClient, ct.TaskType, cfg.Workers[ct.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[mh.TaskType].Enabled {
		handler := mh.NewHandler(
			&mh.Config{
				Timeout: config.GetDuration(cfg.Workers[mh.TaskType].Timeout),
			},
			matches, log,
		)
		startWorker(zeebeClient, mh.TaskType, cfg.Workers[mh.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[em.TaskType].Enabled {
		handler := em.NewHandler(
			&em.Config{
				Timeout: config.GetDuration(cfg.Workers[em.TaskType].Timeout),
			},
			matches, log,
		)
		startWorker(zeebeClient, em.TaskType, cfg.Workers[em.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[sf.TaskType].Enabled {
		handler := sf.NewHandler(
			&sf.Config{
				Timeout: config.GetDuration(cfg.Workers[sf.TaskType].Timeout),
			},
			matches, log,
		)
		startWorker(zeebeClient, sf.TaskType, cfg.Workers[sf.TaskType], handler.Handle, zapLog)
	}

	// --- 3. Notification Workers (1) ---
	if cfg.Workers[smn.TaskType].Enabled {
		handler := smn.NewHandler(
			&smn.Config{
				Timeout:      config.GetDuration(cfg.Workers[smn.TaskType].Timeout),
				EmailEnabled: cfg.Notifications.Email.Enabled,
				SMSEnabled:   cfg.Notifications.SMS.Enabled,
				FromEmail:    cfg.Notifications.Email.FromEmail,
				AWSRegion:    cfg.Notifications.AWS.Region,
			},
			pg.DB, sesClient, snsClient, log,
		)
		startWorker(zeebeClient, smn.TaskType, cfg.Workers[smn.TaskType], handler.Handle, zapLog)
	}

	// --- 4. Data Access Workers (2) ---
	if cfg.Workers[qms.TaskType].Enabled {
		handler := qms.NewHandler(
			&qms.Config{
				Timeout:           config.GetDuration(cfg.Workers[qms.TaskType].Timeout),
				SuccessStoryLimit: cfg.Matching.SuccessStoryLimit,
				DefaultSinceDays:  30,
			},
			matches, log,
		)
		startWorker(zeebeClient, qms.TaskType, cfg.Workers[qms.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[ima.TaskType].Enabled {
		handler := ima.NewHandler(
			&ima.Config{
				Timeout: config.GetDuration(cfg.Workers[ima.TaskType].Timeout),
				Index:   cfg.Matching.AnalyticsIndex,
			},
			matches, esClient.Client, log,
		)
		startWorker(zeebeClient, ima.TaskType, cfg.Workers[ima.TaskType], handler.Handle, zapLog)
	}

	zapLog.Info("All 12 workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_ = shutdownCtx

	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	client.NewJobWorker().
		JobType(taskType).
		Handler(handlerFunc).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}
