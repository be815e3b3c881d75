package inference

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"Consensus/internal/domain/models"
	"Consensus/internal/domain/repository"
	domsvc "Consensus/internal/domain/service"
	"Consensus/pkg/cache"
	"Consensus/pkg/logger"
)

// CacheStatus reports whether the last Predict under a context was served
// from cache.
type CacheStatus struct {
	Hit bool
}

type cacheStatusKey struct{}

// WithCacheStatus attaches a status probe that CachedPredictor fills in.
func WithCacheStatus(ctx context.Context) (context.Context, *CacheStatus) {
	st := &CacheStatus{}
	return context.WithValue(ctx, cacheStatusKey{}, st), st
}

func markCache(ctx context.Context, hit bool) {
	if st, ok := ctx.Value(cacheStatusKey{}).(*CacheStatus); ok {
		st.Hit = hit
	}
}

// CachedPredictor memoizes predictions keyed by model version and row contents.
type CachedPredictor struct {
	next    domsvc.Predictor
	cache   cache.Service
	ttl     time.Duration
	metrics repository.Metrics
	log     *logger.Logger
}

func NewCachedPredictor(next domsvc.Predictor, c cache.Service, ttl time.Duration, m repository.Metrics, l *logger.Logger) *CachedPredictor {
	if m == nil {
		m = repository.NoopMetrics{}
	}
	if l == nil {
		l = logger.Nop()
	}
	return &CachedPredictor{next: next, cache: c, ttl: ttl, metrics: m, log: l}
}

func (p *CachedPredictor) Targets() []string { return p.next.Targets() }

func (p *CachedPredictor) Version() string { return p.next.Version() }

// Predict returns cached outputs when present. Cache failures degrade to a
// direct call and are only logged.
func (p *CachedPredictor) Predict(ctx context.Context, rows []models.FeatureRow) ([][]float64, error) {
	key := p.key(rows)

	var cached [][]float64
	err := p.cache.Get(ctx, key, &cached)
	switch {
	case err == nil && len(cached) == len(rows):
		p.metrics.RecordCache(true)
		markCache(ctx, true)
		return cached, nil
	case err != nil && !errors.Is(err, cache.ErrCacheMiss):
		p.log.Warn("prediction cache read failed", logger.String("key", key), logger.Error(err))
	}
	p.metrics.RecordCache(false)
	markCache(ctx, false)

	out, err := p.next.Predict(ctx, rows)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Set(ctx, key, out, p.ttl); err != nil {
		p.log.Warn("prediction cache write failed", logger.String("key", key), logger.Error(err))
	}
	return out, nil
}

func (p *CachedPredictor) key(rows []models.FeatureRow) string {
	var sb strings.Builder
	for _, r := range rows {
		for i, c := range r.Columns {
			sb.WriteString(c)
			sb.WriteByte('=')
			sb.WriteString(strconv.FormatFloat(r.Values[i], 'g', -1, 64))
			sb.WriteByte(';')
		}
		sb.WriteByte('\n')
	}
	return cache.GenerateKeyWithParams("predict", p.next.Version(), cache.HashKey(sb.String()))
}

var _ domsvc.Predictor = (*CachedPredictor)(nil)
