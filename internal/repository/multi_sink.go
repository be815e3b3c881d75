package repository

import (
	"context"
	"errors"

	"Consensus/internal/domain/models"
	domrepo "Consensus/internal/domain/repository"
)

// MultiSink fans a record out to every sink and joins their errors.
type MultiSink struct {
	sinks []domrepo.PredictionSink
}

// NewMultiSink skips nil sinks.
func NewMultiSink(sinks ...domrepo.PredictionSink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Len reports how many sinks are attached.
func (m *MultiSink) Len() int { return len(m.sinks) }

func (m *MultiSink) Record(ctx context.Context, rec models.PredictionRecord) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Record(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ domrepo.PredictionSink = (*MultiSink)(nil)
