package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/analytics"
	snapshots "github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/analytics/aggregator"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/analyzer"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/analyzer/cache"
	analyzerhandler "github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/analyzer/handler"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/ingestion/consumer"
	ingestionhandler "github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/ingestion/handler"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/redis"
)

const (
	snapshotInterval  = time.Minute
	gaugeInterval     = 15 * time.Second
	limiterSweepEvery = time.Minute
	limiterIdle       = 10 * time.Minute
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	instanceID := uuid.NewString()
	slog.Info("starting similarity analyzer",
		"port", cfg.Server.Port,
		"instance_id", instanceID,
		"corpus_driver", cfg.Corpus.Driver,
		"workers", cfg.Engine.Workers,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)
	engine := analyzer.New(corpus.NewRegistry(), corpus.NewRegistry(), cfg.Engine.Workers)
	checker := health.NewChecker(5 * time.Second)

	backing, err := openCorpusStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open corpus store", "driver", cfg.Corpus.Driver, "error", err)
		os.Exit(1)
	}
	defer backing.Close()
	if backing.refs != nil {
		if err := warmCorpus(ctx, cfg.Corpus, backing.refs, engine); err != nil {
			slog.Error("failed to load reference corpus", "error", err)
			os.Exit(1)
		}
		checker.Register("corpus_store", health.PingCheck(backing.refs.Ping))
	}
	checker.Register("documents", health.CorpusCheck("document", engine.Documents().Len))
	checker.Register("certificates", health.CorpusCheck("certificate", engine.Certificates().Len))

	var reportCache *cache.ReportCache
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, report caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			reportCache = cache.New(redisClient, cfg.Redis.CacheTTL)
			checker.RegisterOptional("redis", health.PingCheck(redisClient.Ping))
			slog.Info("report cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	agg := analytics.NewAggregator()
	var (
		sink          analytics.Tracker = agg
		refProducer   publisher.EventPublisher
		snapshotStore analytics.SnapshotSource
		consumers     []*kafka.Consumer
	)
	if cfg.Kafka.Enabled {
		analyticsProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalysisEvents)
		defer analyticsProducer.Close()
		collector := analytics.NewCollector(analyticsProducer, 10000, 100, 5*time.Second)
		collector.Start(ctx)
		defer collector.Close()
		sink = collector

		referenceProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.ReferenceDocuments)
		defer referenceProducer.Close()
		refProducer = referenceProducer

		consumers = append(consumers, kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.AnalysisEvents, agg.HandleMessage,
			kafka.WithGroup(fmt.Sprintf("%s-analytics-%s", cfg.Kafka.ConsumerGroup, instanceID))))
	}
	tracker := &instrumentedTracker{next: sink, metrics: m}

	if backing.postgres != nil {
		store := snapshots.NewStore(backing.postgres, instanceID, snapshots.DefaultRetain)
		if err := store.Migrate(ctx); err != nil {
			slog.Warn("analytics snapshots disabled", "error", err)
		} else {
			store.StartPeriodicSave(ctx, agg, snapshotInterval)
			snapshotStore = store
		}
	}

	var persister ingestion.Persister
	if backing.refs != nil {
		persister = backing.refs
	}
	registrar := ingestion.NewRegistrar(engine, persister, tracker)
	if cfg.Kafka.Enabled {
		// Every instance replays the whole topic so its registries converge.
		consumers = append(consumers, kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.ReferenceDocuments,
			consumer.HandleMessage(registrar, instanceID),
			kafka.WithGroup(fmt.Sprintf("%s-references-%s", cfg.Kafka.ConsumerGroup, instanceID)),
			kafka.FromBeginning()))
	}
	for _, c := range consumers {
		go func() {
			if err := c.Start(ctx); err != nil {
				slog.Error("kafka consumer stopped", "error", err)
			}
		}()
	}

	pub := publisher.New(registrar, refProducer, instanceID)
	ingestH := ingestionhandler.New(pub, cfg.Server.MaxBodyBytes)
	analyzeH := analyzerhandler.New(engine, reportCache, tracker, m, analyzerhandler.Config{
		Defaults:     analyzer.OptionsFromConfig(cfg.Engine),
		QueryTimeout: cfg.Engine.QueryTimeout,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})
	analyticsH := analytics.NewHandler(agg, snapshotStore)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/documents", ingestH.RegisterDocument)
	mux.HandleFunc("POST /api/v1/certificates", ingestH.RegisterCertificate)
	mux.HandleFunc("POST /api/v1/analyze", analyzeH.Analyze)
	mux.HandleFunc("POST /api/v1/certificates/analyze", analyzeH.AnalyzeCertificate)
	mux.HandleFunc("GET /api/v1/corpus/stats", analyzeH.CorpusStats)
	mux.HandleFunc("GET /api/v1/cache/stats", analyzeH.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", analyzeH.CacheInvalidate)
	mux.HandleFunc("GET /api/v1/analytics", analyticsH.Stats)
	mux.HandleFunc("GET /api/v1/analytics/snapshot", analyticsH.LatestSnapshot)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		go limiter.Cleanup(ctx, limiterSweepEvery, limiterIdle)
		chain = middleware.RateLimit(limiter, m)(chain)
	}
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port, prometheus.DefaultGatherer)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownMetrics(shutdownCtx)
		}()
	}
	go observeState(ctx, analyzeH)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("similarity analyzer listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	// In-flight handlers may still track events; the collector closes after them.
	<-drained
	slog.Info("similarity analyzer stopped", "analytics", agg.Stats().String())
}

func observeState(ctx context.Context, h *analyzerhandler.Handler) {
	ticker := time.NewTicker(gaugeInterval)
	defer ticker.Stop()
	for {
		h.ObserveState()
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}
