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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"govmatch/internal/common/camunda"
	"govmatch/internal/common/config"
	"govmatch/internal/common/database"
	"govmatch/internal/common/logger"
	"govmatch/internal/common/observability"
	"govmatch/internal/matching/hardfilter"
	"govmatch/internal/matching/pipeline"
	"govmatch/internal/matching/reasoning"
	"govmatch/internal/matching/relevance"
	"govmatch/internal/matching/scoring"
	"govmatch/internal/repository"

	mp "govmatch/internal/workers/matching/match-programs"
	vp "govmatch/internal/workers/matching/validate-profile"
)

// retryWithBackoff attempts to execute a function with exponential backoff.
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

	// --- Init Zeebe client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         time.Duration(cfg.Camunda.RequestTimeout) * time.Millisecond,
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
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init reasoning session ---
	// A missing corpus is not fatal: the reasoner falls back to local rules
	// until the index is populated.
	session, err := reasoning.Initialize(ctx, esClient.Client, cfg.Reasoning, log)
	if err != nil {
		zapLog.Warn("reasoning corpus not ready, continuing with local rules only", zap.Error(err))
	}

	// --- Assemble matching pipeline ---
	repo := repository.New(pg.DB, redisClient.Client, time.Duration(cfg.Matching.CacheTTL)*time.Second, log)
	lexicon := hardfilter.DefaultLexicon()

	judge := reasoning.NewClient(cfg.Reasoning, log)
	corpus := reasoning.NewCorpusSearcher(esClient.Client, session.CorpusIndex, log)
	rules := reasoning.NewEnhancer(reasoning.DefaultRuleTables())
	reasoner := reasoning.NewReasoner(session, judge, corpus, rules, cfg.Reasoning, cfg.Matching.FinalLimit, log)

	matchPipeline := pipeline.New(
		repo,
		hardfilter.New(lexicon, log),
		relevance.New(cfg.Matching.RelevanceLimit, log),
		scoring.New(scoring.DefaultTables(), lexicon, log),
		reasoner,
		cfg.Matching.ScoringLimit,
		log,
	)

	// --- Register workers ---
	var workers []*camunda.Worker

	if wcfg := cfg.Workers[vp.TaskType]; wcfg.Enabled {
		handler, err := vp.NewHandler(
			&vp.Config{
				Timeout:       time.Duration(wcfg.Timeout) * time.Millisecond,
				MaxJobsActive: wcfg.MaxJobsActive,
			},
			log,
		)
		if err != nil {
			zapLog.Fatal("failed to create validate-profile handler", zap.Error(err))
		}
		workers = append(workers, camunda.NewWorker(camundaClient.GetClient(), vp.TaskType, wcfg.MaxJobsActive, handler, log))
	}

	if wcfg := cfg.Workers[mp.TaskType]; wcfg.Enabled {
		handler := mp.NewHandler(
			&mp.Config{
				Timeout:       time.Duration(wcfg.Timeout) * time.Millisecond,
				MaxJobsActive: wcfg.MaxJobsActive,
			},
			matchPipeline,
			log,
		)
		workers = append(workers, camunda.NewWorker(camundaClient.GetClient(), mp.TaskType, wcfg.MaxJobsActive, handler, log))
	}

	zapLog.Info("All workers registered successfully", zap.Int("count", len(workers)))

	// --- Health & metrics server ---
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

	// --- Graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop(shutdownCtx)
	}

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
