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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"scholarship-workers/internal/common/camunda"
	"scholarship-workers/internal/common/config"
	"scholarship-workers/internal/common/database"
	"scholarship-workers/internal/common/logger"
	"scholarship-workers/internal/common/metrics"
	"scholarship-workers/internal/common/observability"

	// Survey Workers (3)
	cii "scholarship-workers/internal/workers/survey/calculate-inclusivity-index"
	ssr "scholarship-workers/internal/workers/survey/save-survey-response"
	vsd "scholarship-workers/internal/workers/survey/validate-survey-data"

	// Matching Workers (2)
	gm "scholarship-workers/internal/workers/matching/generate-matches"
	gtm "scholarship-workers/internal/workers/matching/get-matches"

	// Catalog Workers (2)
	is "scholarship-workers/internal/workers/catalog/index-scholarship"
	ss "scholarship-workers/internal/workers/catalog/search-scholarships"

	// Notification Workers (1)
	sms "scholarship-workers/internal/workers/notification/send-match-summary"
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
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

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
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClient(cfg.Camunda.BrokerAddress)
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zeebeClient := camundaClient.GetClient()
	zapLog.Info("Zeebe client connected successfully")

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
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
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
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- 1. Survey Workers (3) ---
	if cfg.Workers[vsd.TaskType].Enabled {
		handler := vsd.NewHandler(
			&vsd.Config{
				Timeout: time.Duration(cfg.Workers[vsd.TaskType].Timeout) * time.Millisecond,
			},
			log,
		)
		startWorker(zeebeClient, vsd.TaskType, cfg.Workers[vsd.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[cii.TaskType].Enabled {
		handler := cii.NewHandler(
			&cii.Config{
				Timeout: time.Duration(cfg.Workers[cii.TaskType].Timeout) * time.Millisecond,
			},
			log,
		)
		startWorker(zeebeClient, cii.TaskType, cfg.Workers[cii.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[ssr.TaskType].Enabled {
		handler := ssr.NewHandler(
			&ssr.Config{
				Timeout: time.Duration(cfg.Workers[ssr.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, log,
		)
		startWorker(zeebeClient, ssr.TaskType, cfg.Workers[ssr.TaskType], handler.Handle, zapLog)
	}

	// --- 2. Matching Workers (2) ---
	if cfg.Workers[gm.TaskType].Enabled {
		cacheTTL := time.Duration(cfg.Matching.CatalogCacheTTL) * time.Second
		store := gm.NewStore(pg.DB, redis.Client, cacheTTL, log)
		handler := gm.NewHandler(
			&gm.Config{
				Timeout:         time.Duration(cfg.Workers[gm.TaskType].Timeout) * time.Millisecond,
				ScoreThreshold:  cfg.Matching.ScoreThreshold,
				CatalogCacheTTL: cacheTTL,
			},
			store, store, log,
		)
		startWorker(zeebeClient, gm.TaskType, cfg.Workers[gm.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[gtm.TaskType].Enabled {
		handler := gtm.NewHandler(
			&gtm.Config{
				Timeout: time.Duration(cfg.Workers[gtm.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, log,
		)
		startWorker(zeebeClient, gtm.TaskType, cfg.Workers[gtm.TaskType], handler.Handle, zapLog)
	}

	// --- 3. Catalog Workers (2) ---
	if cfg.Workers[ss.TaskType].Enabled {
		handler := ss.NewHandler(
			&ss.Config{
				Timeout: time.Duration(cfg.Workers[ss.TaskType].Timeout) * time.Millisecond,
				Index:   cfg.Database.Elasticsearch.Index,
			},
			esClient.Client, log,
		)
		startWorker(zeebeClient, ss.TaskType, cfg.Workers[ss.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[is.TaskType].Enabled {
		handler := is.NewHandler(
			&is.Config{
				Timeout: time.Duration(cfg.Workers[is.TaskType].Timeout) * time.Millisecond,
				Index:   cfg.Database.Elasticsearch.Index,
			},
			pg.DB, esClient.Client, redis.Client, log,
		)
		startWorker(zeebeClient, is.TaskType, cfg.Workers[is.TaskType], handler.Handle, zapLog)
	}

	// --- 4. Notification Workers (1) ---
	if cfg.Workers[sms.TaskType].Enabled {
		handler, err := sms.NewHandler(
			&sms.Config{
				Timeout:      time.Duration(cfg.Workers[sms.TaskType].Timeout) * time.Millisecond,
				EmailEnabled: cfg.Notifications.Email.Enabled,
				SMSEnabled:   cfg.Notifications.SMS.Enabled,
				FromEmail:    cfg.Notifications.Email.FromEmail,
				AWSRegion:    cfg.Notifications.AWS.Region,
			},
			pg.DB, log,
		)
		if err != nil {
			zapLog.Fatal("failed to create send-match-summary handler", zap.Error(err))
		}
		startWorker(zeebeClient, sms.TaskType, cfg.Workers[sms.TaskType], handler.Handle, zapLog)
	}

	zapLog.Info("All 8 workers registered successfully")

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
			if err := camundaClient.HealthCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"error":  err.Error(),
				})
				return
			}
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

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	instrumented := func(jobClient worker.JobClient, job entities.Job) {
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		timer := prometheus.NewTimer(metrics.WorkerJobDuration.WithLabelValues(taskType))
		defer func() {
			timer.ObserveDuration()
			metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()
		}()
		handlerFunc(jobClient, job)
	}

	client.NewJobWorker().
		JobType(taskType).
		Handler(instrumented).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}
