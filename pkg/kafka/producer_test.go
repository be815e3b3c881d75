package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishEncodesValues(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, comp: "gzip"}

	require.NoError(t, p.Publish(context.Background(), "preds", []byte("Buy"), map[string]int{"n": 1}))
	require.NoError(t, p.PublishMessage(context.Background(), "logs", "raw text"))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, "preds", w.msgs[0].Topic)
	assert.Equal(t, []byte("Buy"), w.msgs[0].Key)
	assert.JSONEq(t, `{"n":1}`, string(w.msgs[0].Value))
	assert.Equal(t, "logs", w.msgs[1].Topic)
	assert.Nil(t, w.msgs[1].Key)
	assert.Equal(t, "raw text", string(w.msgs[1].Value))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishBatchWrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := &Producer{writer: &fakeWriter{err: boom}}

	err := p.PublishBatch(context.Background(), "preds", []Message{{Value: "a"}, {Value: "b"}})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, p.PublishBatch(context.Background(), "preds", nil))
}

func TestPublishRejectsUnencodable(t *testing.T) {
	p := &Producer{writer: &fakeWriter{}}
	err := p.Publish(context.Background(), "preds", nil, make(chan int))
	assert.Error(t, err)
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer(WithRegisterer(nil))
	assert.Error(t, err)
}

func TestParseCompression(t *testing.T) {
	assert.Equal(t, kafka.Zstd, parseCompression("zstd"))
	assert.Equal(t, kafka.Gzip, parseCompression("bogus"))
	assert.Equal(t, kafka.Compression(0), parseCompression("none"))
}

func TestNewWriterAppliesOptions(t *testing.T) {
	cfg := defaultProducerConfig()
	for _, opt := range []ProducerOption{
		WithBrokers([]string{"k1:9092"}),
		WithDelivery(Delivery{RequiredAcks: 1, Async: true}),
		WithBatch(10, 0, 50*time.Millisecond),
		WithKeyHashing(true),
	} {
		opt(&cfg)
	}

	w := newWriter(cfg)
	assert.Equal(t, kafka.RequireOne, w.RequiredAcks)
	assert.Equal(t, 3, w.MaxAttempts)
	assert.True(t, w.Async)
	assert.Equal(t, 10, w.BatchSize)
	assert.Equal(t, int64(1<<20), w.BatchBytes)
	assert.Equal(t, 50*time.Millisecond, w.BatchTimeout)
	assert.IsType(t, &kafka.Hash{}, w.Balancer)
}
