package repository

import (
	"context"
	"database/sql"
	"fmt"

	"Consensus/internal/domain/models"
	domrepo "Consensus/internal/domain/repository"
)

const predictionsTable = "predictions"

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// PredictionSchema returns the idempotent DDL for the prediction history.
func PredictionSchema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
    ts DateTime64(3),
    request_id String,
    category LowCardinality(String),
    buy_score Float64,
    hold_score Float64,
    sell_score Float64,
    outputs Map(String, Float64),
    features Map(String, Float64),
    model_version LowCardinality(String),
    cache_hit UInt8,
    latency_ms UInt32
) ENGINE = MergeTree ORDER BY (category, ts)`, database, predictionsTable),
	}
}

// ClickHouseSink stores prediction records in ClickHouse.
type ClickHouseSink struct {
	db    execer
	query string
}

// NewClickHouseSink writes into <database>.predictions through db.
func NewClickHouseSink(db execer, database string) *ClickHouseSink {
	return &ClickHouseSink{
		db: db,
		query: fmt.Sprintf("INSERT INTO %s.%s (ts, request_id, category, buy_score, hold_score, sell_score, outputs, features, model_version, cache_hit, latency_ms) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			database, predictionsTable),
	}
}

func (s *ClickHouseSink) Record(ctx context.Context, rec models.PredictionRecord) error {
	var hit uint8
	if rec.CacheHit {
		hit = 1
	}
	_, err := s.db.ExecContext(ctx, s.query,
		rec.Timestamp,
		rec.RequestID,
		string(rec.Category),
		rec.BuyScore,
		rec.HoldScore,
		rec.SellScore,
		rec.Outputs,
		rec.Features,
		rec.ModelVersion,
		hit,
		uint32(rec.LatencyMs),
	)
	if err != nil {
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}

// Close is a no-op; the connection pool belongs to the clickhouse client.
func (s *ClickHouseSink) Close() error { return nil }

var _ domrepo.PredictionSink = (*ClickHouseSink)(nil)
