package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AbishekAnand15/exodetect-backend/internal/domain/repository"
	domsvc "github.com/AbishekAnand15/exodetect-backend/internal/domain/service"
	"github.com/AbishekAnand15/exodetect-backend/internal/handler/api"
	internalrepo "github.com/AbishekAnand15/exodetect-backend/internal/repository"
	apimetrics "github.com/AbishekAnand15/exodetect-backend/internal/service/metrics"
	"github.com/AbishekAnand15/exodetect-backend/internal/service/ratelimit"
	"github.com/AbishekAnand15/exodetect-backend/internal/services/analytics"
	"github.com/AbishekAnand15/exodetect-backend/internal/services/preprocess"
	"github.com/AbishekAnand15/exodetect-backend/internal/services/vetting"
	"github.com/AbishekAnand15/exodetect-backend/internal/usecase"
	"github.com/AbishekAnand15/exodetect-backend/pkg/cache"
	pkgch "github.com/AbishekAnand15/exodetect-backend/pkg/clickhouse"
	"github.com/AbishekAnand15/exodetect-backend/pkg/config"
	xhttp "github.com/AbishekAnand15/exodetect-backend/pkg/http"
	pkgkafka "github.com/AbishekAnand15/exodetect-backend/pkg/kafka"
	applogger "github.com/AbishekAnand15/exodetect-backend/pkg/logger"
	"github.com/AbishekAnand15/exodetect-backend/pkg/metrics"
	"github.com/AbishekAnand15/exodetect-backend/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("service", "exodetect")), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	apimetrics.Register()
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the run table exists.
// It returns nil when ClickHouse is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, pkgch.VettingRunsSchema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideRunStore returns the ClickHouse run store, or nil without a client.
func ProvideRunStore(ch *pkgch.Client, l *applogger.Logger) repository.RunStore {
	if ch == nil {
		return nil
	}
	s := internalrepo.NewCHRunStore(ch)
	s.SetLogger(l)
	return s
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideRunPublisher publishes completion events, or is nil without a producer.
func ProvideRunPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.RunPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaRunPublisher(producer, cfg.Kafka.Topic)
}

// ProvideCache returns Redis behind a local LRU when Redis is enabled, else the LRU alone.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewLRUCache(
			cache.WithLRUSize(cfg.Redis.LocalSize),
			cache.WithLRUTTL(cfg.Redis.TTL),
		), nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.MinIdle, cfg.Redis.PoolWait),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(rc,
		cache.WithLayeredMemorySize(cfg.Redis.LocalSize),
		cache.WithLayeredMemoryTTL(cfg.Redis.LocalTTL),
	), nil
}

// ProvideLatestStore keeps the latest verdict per target.
func ProvideLatestStore(c cache.Service, cfg *config.Config) repository.LatestStore {
	return internalrepo.NewLatestVerdictStore(c, cfg.Redis.TTL)
}

func ProvideLightCurveSource(cfg *config.Config) domsvc.LightCurveSource {
	return analytics.NewHTTPLightCurveSource(cfg)
}

func ProvidePeriodSearch(cfg *config.Config) domsvc.PeriodSearch {
	return analytics.NewHTTPPeriodSearch(cfg)
}

func ProvideDetrender(cfg *config.Config) domsvc.Detrender {
	return preprocess.NewSigmaClipDetrender(preprocess.DetrendOptions{
		OutlierSigma: cfg.Pipeline.OutlierSigma,
		Window:       cfg.Pipeline.FlattenWindow,
	})
}

func ProvideFolder() domsvc.Folder {
	return preprocess.NewPhaseFolder()
}

func ProvideCalculator(cfg *config.Config) *vetting.Calculator {
	return vetting.NewCalculator(vetting.Options{
		SNRPhaseWidth:      cfg.Pipeline.SNRPhaseWidth,
		TransitWindow:      cfg.Pipeline.TransitWindow,
		MinInTransit:       cfg.Pipeline.MinInTransit,
		SecondaryHalfWidth: cfg.Pipeline.SecondaryHalfWidth,
	})
}

// ProvideRateLimiter returns the per-client limiter for /analyze, or nil when disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.Rate, cfg.RateLimit.Burst, cfg.RateLimit.TTL)
}

// ProvideHTTPHandler builds the API handler with readiness checks for enabled stores.
func ProvideHTTPHandler(
	l *applogger.Logger,
	analyzer *usecase.Analyzer,
	limiter *ratelimit.Limiter,
	c cache.Service,
	cfg *config.Config,
) xhttp.Handler {
	var checks []api.ReadinessCheck
	if analyzer.HistoryEnabled() {
		checks = append(checks, api.ReadinessCheck{Name: "clickhouse", Check: analyzer.Health})
	}
	if cfg.Redis.Enabled {
		checks = append(checks, api.ReadinessCheck{Name: "redis", Check: c.Ping})
	}
	return api.NewAnalyzeEchoHandler(l, analyzer, limiter, checks...)
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(h xhttp.Handler, l *applogger.Logger, cfg *config.Config) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(h,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithRequestTimeout(cfg.Server.RequestTimeout),
		xhttp.WithCORS(cfg.Server.AllowOrigins),
		xhttp.WithMetrics(metricsPath, prometheus.DefaultRegisterer, prometheus.DefaultGatherer),
		xhttp.WithLogger(l),
	)
}

// ProvideKafkaConsumer creates the analysis request consumer, or nil when batch intake is off.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.TraceHook())
	return consumer, nil
}

// ProvideAnalyzeRequestsHandler handles the analysis request topic.
func ProvideAnalyzeRequestsHandler(cfg *config.Config, analyzer *usecase.Analyzer, l *applogger.Logger) *usecase.AnalyzeRequestsHandler {
	return usecase.NewAnalyzeRequestsHandler(cfg.Kafka.Consumer.Topic, analyzer, l)
}

// ProvideApp creates the application and attaches the Kafka log collector when enabled.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	kh *usecase.AnalyzeRequestsHandler,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
	publisher repository.RunPublisher,
	c cache.Service,
) *server.App {
	if cfg.Logging.Collector.Enabled && producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Logging.Collector.FlushInterval,
			CountThreshold: cfg.Logging.Collector.MaxBatch,
			Topic:          cfg.Logging.Collector.Topic,
			Publisher:      producer,
		})
	}

	var mh pkgkafka.MessageHandler
	if consumer != nil {
		mh = kh
	}
	return server.New(cfg, l, srv, consumer, mh, chClient, publisher, c)
}
