package repository

import (
	"context"

	"Consensus/internal/domain/models"
	domrepo "Consensus/internal/domain/repository"
)

type publisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}

// KafkaSink publishes prediction records as JSON, keyed by category.
type KafkaSink struct {
	producer publisher
	topic    string
}

func NewKafkaSink(producer publisher, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

func (s *KafkaSink) Record(ctx context.Context, rec models.PredictionRecord) error {
	return s.producer.Publish(ctx, s.topic, []byte(rec.Category), rec)
}

// Close leaves the shared producer open; the app closes it on shutdown.
func (s *KafkaSink) Close() error { return nil }

var _ domrepo.PredictionSink = (*KafkaSink)(nil)
