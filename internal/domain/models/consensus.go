package models

import "time"

// Category is the analyst consensus label.
type Category string

const (
	CategoryBuy  Category = "Buy"
	CategoryHold Category = "Hold"
	CategorySell Category = "Sell"
)

// Categories lists labels in tie-break order: on equal scores the earlier
// one wins.
var Categories = []Category{CategoryBuy, CategoryHold, CategorySell}

// Target output names, in the order the regressor emits them by default.
const (
	TargetBuy          = "Buy_%"
	TargetOutperform   = "Outperform_%"
	TargetHold         = "Hold_%"
	TargetUnderperform = "Underperform_%"
	TargetSell         = "Sell_%"
)

// Consensus is the resolver output.
type Consensus struct {
	Category Category
	Scores   map[Category]float64
	Outputs  map[string]float64
}

// PredictionResult is what a request gets back from the pipeline.
type PredictionResult struct {
	RequestID      string
	Consensus      Consensus
	Row            FeatureRow
	IgnoredColumns []string
	ModelVersion   string
	CacheHit       bool
	Latency        time.Duration
}

// PredictionRecord is the audit event emitted for every served prediction.
type PredictionRecord struct {
	RequestID    string             `json:"request_id"`
	Timestamp    time.Time          `json:"timestamp"`
	Category     Category           `json:"category"`
	BuyScore     float64            `json:"buy_score"`
	HoldScore    float64            `json:"hold_score"`
	SellScore    float64            `json:"sell_score"`
	Outputs      map[string]float64 `json:"outputs"`
	Features     map[string]float64 `json:"features"`
	ModelVersion string             `json:"model_version"`
	CacheHit     bool               `json:"cache_hit"`
	LatencyMs    int64              `json:"latency_ms"`
}

// NewPredictionRecord flattens a result into its audit record.
func NewPredictionRecord(res PredictionResult, at time.Time) PredictionRecord {
	return PredictionRecord{
		RequestID:    res.RequestID,
		Timestamp:    at,
		Category:     res.Consensus.Category,
		BuyScore:     res.Consensus.Scores[CategoryBuy],
		HoldScore:    res.Consensus.Scores[CategoryHold],
		SellScore:    res.Consensus.Scores[CategorySell],
		Outputs:      res.Consensus.Outputs,
		Features:     res.Row.Map(),
		ModelVersion: res.ModelVersion,
		CacheHit:     res.CacheHit,
		LatencyMs:    res.Latency.Milliseconds(),
	}
}
