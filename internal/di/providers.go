package di

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"Consensus/internal/domain/models"
	domrepo "Consensus/internal/domain/repository"
	domsvc "Consensus/internal/domain/service"
	"Consensus/internal/handler/api"
	"Consensus/internal/handler/web"
	internalrepo "Consensus/internal/repository"
	"Consensus/internal/services/consensus"
	"Consensus/internal/services/features"
	"Consensus/internal/services/inference"
	"Consensus/internal/usecase"
	"Consensus/pkg/cache"
	pkgch "Consensus/pkg/clickhouse"
	"Consensus/pkg/config"
	xhttp "Consensus/pkg/http"
	pkgkafka "Consensus/pkg/kafka"
	applogger "Consensus/pkg/logger"
	"Consensus/pkg/metrics"
	"Consensus/pkg/server"
)

// ProvideLogger builds the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideSchema loads the reference column list.
func ProvideSchema(cfg *config.Config) (models.Schema, error) {
	s, err := internalrepo.LoadSchema(cfg.Schema.Path)
	if err != nil {
		return models.Schema{}, fmt.Errorf("schema artifact: %w", err)
	}
	return s, nil
}

// ProvideNormalizer binds the schema to the configured unknown-column policy.
func ProvideNormalizer(cfg *config.Config, schema models.Schema) (*features.Normalizer, error) {
	policy, err := features.ParsePolicy(cfg.Schema.UnknownColumns)
	if err != nil {
		return nil, err
	}
	return features.NewNormalizer(schema, policy), nil
}

// ProvideCache returns the prediction cache, or nil when caching is off.
// With Redis enabled it is a memory L1 in front of Redis.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, func(), error) {
	if !cfg.Cache.Enabled {
		return nil, func() {}, nil
	}

	var svc cache.Service
	if cfg.Cache.Redis.Enabled {
		rc, err := cache.NewRedisCache(
			cache.WithRedisAddr(fmt.Sprintf("%s:%d", cfg.Cache.Redis.Host, cfg.Cache.Redis.Port)),
			cache.WithRedisAuth(cfg.Cache.Redis.Password, cfg.Cache.Redis.DB),
			cache.WithRedisPool(cfg.Cache.Redis.PoolSize, cfg.Cache.Redis.MinIdleConns),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		svc = cache.NewLayeredCache(rc, cfg.Cache.MemoryMaxSize, cfg.Cache.TTL)
	} else {
		svc = cache.NewMemoryCache(
			cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize),
			cache.WithMemoryDefaultTTL(cfg.Cache.TTL),
		)
	}

	cleanup := func() {
		if err := svc.Close(); err != nil {
			l.Warn("cache close error", applogger.Error(err))
		}
	}
	return svc, cleanup, nil
}

// ProvidePredictor builds the configured backend and wraps it in the cache
// when one is available. A local model must emit exactly the configured
// target order and read exactly the reference columns.
func ProvidePredictor(cfg *config.Config, schema models.Schema, c cache.Service, m domrepo.Metrics, l *applogger.Logger) (domsvc.Predictor, error) {
	var p domsvc.Predictor
	switch cfg.Model.Backend {
	case "remote":
		rp, err := inference.NewRemotePredictor(inference.RemoteConfig{
			ServiceURL: cfg.Inference.ServiceURL,
			Timeout:    cfg.Inference.Timeout,
			Attempts:   cfg.Inference.Attempts,
			Targets:    cfg.Model.Targets,
			Version:    cfg.Inference.ModelVersion,
		})
		if err != nil {
			return nil, fmt.Errorf("remote predictor: %w", err)
		}
		p = rp
	default:
		artifact, err := internalrepo.LoadLinearModel(cfg.Model.Path)
		if err != nil {
			return nil, fmt.Errorf("model artifact: %w", err)
		}
		lp, err := inference.NewLinearPredictor(artifact)
		if err != nil {
			return nil, fmt.Errorf("model artifact: %w", err)
		}
		if !sameOrder(lp.Targets(), cfg.Model.Targets) {
			return nil, models.NewSchemaMismatch(fmt.Errorf("model targets [%s] differ from configured [%s]",
				strings.Join(lp.Targets(), ", "), strings.Join(cfg.Model.Targets, ", ")))
		}
		if diff := columnDiff(lp.Features(), schema); diff != "" {
			return nil, models.NewSchemaMismatch(fmt.Errorf("model features differ from reference schema: %s", diff))
		}
		p = lp
	}

	l.Info("predictor ready",
		applogger.String("backend", cfg.Model.Backend),
		applogger.String("version", p.Version()),
		applogger.Bool("cached", c != nil),
	)
	if c == nil {
		return p, nil
	}
	return inference.NewCachedPredictor(p, c, cfg.Cache.TTL, m, l), nil
}

func sameOrder(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// columnDiff describes columns present on only one side, or "" when the
// model reads exactly the schema's columns.
func columnDiff(features []string, schema models.Schema) string {
	var extra, missing []string
	seen := make(map[string]struct{}, len(features))
	for _, f := range features {
		seen[f] = struct{}{}
		if !schema.Has(f) {
			extra = append(extra, f)
		}
	}
	for _, c := range schema.Columns {
		if _, ok := seen[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(extra) == 0 && len(missing) == 0 {
		return ""
	}
	return fmt.Sprintf("not in schema [%s], not in model [%s]", strings.Join(extra, ", "), strings.Join(missing, ", "))
}

// ProvideResolver binds the predictor to the configured targets.
func ProvideResolver(cfg *config.Config, p domsvc.Predictor) (*consensus.Resolver, error) {
	return consensus.NewResolver(p, cfg.Model.Targets)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is off.
// When a log topic is set the producer also ships aggregated error logs.
func ProvideKafkaProducer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithDelivery(pkgkafka.Delivery{
			RequiredAcks: cfg.Kafka.RequiredAcks,
			MaxAttempts:  cfg.Kafka.Producer.MaxAttempts,
			Async:        cfg.Kafka.Producer.Async,
		}),
		pkgkafka.WithBatch(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithKeyHashing(true),
		pkgkafka.WithAutoCreateTopics(cfg.Kafka.AutoCreateTopics),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}

	if cfg.Kafka.LogTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			Topic:     cfg.Kafka.LogTopic,
			Publisher: producer,
		})
	}

	cleanup := func() {
		l.RemoveCollector()
		if err := producer.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	return producer, cleanup, nil
}

// ProvideClickHouseClient connects and creates the prediction table, or
// returns nil when ClickHouse is off.
func ProvideClickHouseClient(cfg *config.Config, l *applogger.Logger) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithPool(cfg.ClickHouse.MaxOpenConns, cfg.ClickHouse.MaxIdleConns, 0),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithSettings(pkgch.Settings{
			AsyncInsert:      cfg.ClickHouse.AsyncInsert,
			WaitAsyncInsert:  cfg.ClickHouse.WaitForAsync,
			MaxExecutionTime: cfg.ClickHouse.MaxExecutionTime,
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.PredictionSchema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	cleanup := func() {
		if err := client.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	return client, cleanup, nil
}

// ProvidePredictionSink fans records out to whichever sinks are enabled.
func ProvidePredictionSink(cfg *config.Config, producer *pkgkafka.Producer, ch *pkgch.Client) domrepo.PredictionSink {
	var sinks []domrepo.PredictionSink
	if producer != nil {
		sinks = append(sinks, internalrepo.NewKafkaSink(producer, cfg.Kafka.Topic))
	}
	if ch != nil {
		sinks = append(sinks, internalrepo.NewClickHouseSink(ch.DB(), ch.Database()))
	}
	return internalrepo.NewMultiSink(sinks...)
}

// ProvideConsensusPredictor assembles the request pipeline.
func ProvideConsensusPredictor(
	n *features.Normalizer,
	r *consensus.Resolver,
	sink domrepo.PredictionSink,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.ConsensusPredictor {
	return usecase.NewConsensusPredictor(n, r, sink, m, l)
}

// ProvideHTTPHandler registers the form, JSON API and health routes.
func ProvideHTTPHandler(
	l *applogger.Logger,
	svc domsvc.ConsensusService,
	p domsvc.Predictor,
	c cache.Service,
	ch *pkgch.Client,
) xhttp.Handler {
	checks := map[string]api.HealthCheck{}
	if c != nil {
		checks["cache"] = func(ctx context.Context) error {
			_, err := c.Exists(ctx, "healthz")
			return err
		}
	}
	if ch != nil {
		checks["clickhouse"] = ch.Health
	}

	return xhttp.Handlers{
		web.NewFormHandler(l, svc, p.Version()),
		api.NewConsensusHandler(l, svc),
		api.NewHealthHandler(p.Version(), checks),
	}
}

// ProvideRenderer parses the page templates.
func ProvideRenderer() (*web.Renderer, error) {
	return web.NewRenderer()
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, r *web.Renderer, l *applogger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithRenderer(r),
	}
	if cfg.Server.RateLimit.Enabled {
		opts = append(opts, xhttp.WithRateLimit(cfg.Server.RateLimit.Burst, cfg.Server.RateLimit.PerSecond))
	}
	return xhttp.NewServer(h, l, opts...)
}

// ProvideApp creates the application.
func ProvideApp(srv *xhttp.Server, l *applogger.Logger) *server.App {
	return server.New(srv, l)
}
