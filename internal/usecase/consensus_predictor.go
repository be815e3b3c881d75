package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"Consensus/internal/domain/models"
	domrepo "Consensus/internal/domain/repository"
	domsvc "Consensus/internal/domain/service"
	"Consensus/internal/services/consensus"
	"Consensus/internal/services/features"
	"Consensus/internal/services/inference"
	applogger "Consensus/pkg/logger"
)

// ConsensusPredictor runs the request pipeline: parse, normalize, resolve,
// then record.
type ConsensusPredictor struct {
	normalizer *features.Normalizer
	resolver   *consensus.Resolver
	sink       domrepo.PredictionSink
	metrics    domrepo.Metrics
	l          *applogger.Logger
	now        func() time.Time
}

// NewConsensusPredictor wires the pipeline. sink and metrics may be nil.
func NewConsensusPredictor(n *features.Normalizer, r *consensus.Resolver, sink domrepo.PredictionSink, m domrepo.Metrics, l *applogger.Logger) *ConsensusPredictor {
	if m == nil {
		m = domrepo.NoopMetrics{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &ConsensusPredictor{normalizer: n, resolver: r, sink: sink, metrics: m, l: l, now: time.Now}
}

// Columns returns the reference schema columns.
func (uc *ConsensusPredictor) Columns() []string { return uc.normalizer.Schema().Columns }

// Targets returns the model output names.
func (uc *ConsensusPredictor) Targets() []string { return uc.resolver.Targets() }

// Predict returns the consensus for in. Every error is a
// *models.PredictionError. Sink failures are logged only.
func (uc *ConsensusPredictor) Predict(ctx context.Context, in models.PredictInput) (models.PredictionResult, error) {
	start := uc.now()
	reqID := in.RequestID
	if reqID == "" {
		reqID = uuid.NewString()
	}
	l := uc.l.With(applogger.String("request_id", reqID))

	raw, err := features.ParseValues(in.Values)
	if err != nil {
		return uc.fail(l, err)
	}

	row, ignored, err := uc.normalizer.Normalize(raw)
	if err != nil {
		return uc.fail(l, err)
	}
	if len(ignored) > 0 {
		uc.metrics.RecordIgnoredColumns(len(ignored))
		l.Debug("dropped unknown columns", applogger.Strings("columns", ignored))
	}

	ctx, cacheStatus := inference.WithCacheStatus(ctx)
	inferStart := time.Now()
	c, err := uc.resolver.Resolve(ctx, row)
	uc.metrics.RecordLatency("inference", time.Since(inferStart).Seconds())
	if err != nil {
		return uc.fail(l, err)
	}

	res := models.PredictionResult{
		RequestID:      reqID,
		Consensus:      c,
		Row:            row,
		IgnoredColumns: ignored,
		ModelVersion:   uc.resolver.Predictor().Version(),
		CacheHit:       cacheStatus.Hit,
		Latency:        uc.now().Sub(start),
	}
	uc.metrics.RecordPrediction(string(c.Category))
	uc.metrics.RecordLatency("predict", res.Latency.Seconds())
	l.Debug("prediction served",
		applogger.String("category", string(c.Category)),
		applogger.Bool("cache_hit", res.CacheHit),
		applogger.Duration("latency_ms", res.Latency),
	)

	if uc.sink != nil {
		if err := uc.sink.Record(ctx, models.NewPredictionRecord(res, start.UTC())); err != nil {
			l.Warn("prediction record not stored", applogger.Error(err))
		}
	}
	return res, nil
}

var _ domsvc.ConsensusService = (*ConsensusPredictor)(nil)

func (uc *ConsensusPredictor) fail(l *applogger.Logger, err error) (models.PredictionResult, error) {
	kind := models.KindOf(err)
	if kind == 0 {
		err = models.NewInferenceFailure(err)
		kind = models.InferenceFailure
	}
	uc.metrics.RecordError(kind.String())
	if kind == models.InferenceFailure {
		l.Error("inference failed", applogger.Error(err))
	} else {
		l.Debug("prediction rejected", applogger.String("kind", kind.String()), applogger.Error(err))
	}
	return models.PredictionResult{}, err
}
