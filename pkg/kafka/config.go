package kafka

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ProducerOption configures Producer.
type ProducerOption func(*ProducerConfig)

// Delivery controls acknowledgement and retry behavior of the writer.
type Delivery struct {
	// RequiredAcks follows kafka-go: -1 all replicas, 0 none, 1 leader.
	RequiredAcks int
	MaxAttempts  int
	// Async makes WriteMessages return before the broker acknowledges.
	Async bool
}

// Batching bounds how much the writer buffers before a flush.
type Batching struct {
	Size   int
	Bytes  int
	Linger time.Duration
}

// ProducerConfig holds producer configuration.
type ProducerConfig struct {
	Brokers          []string
	Delivery         Delivery
	Batch            Batching
	Compression      string
	WriteTimeout     time.Duration
	ReadTimeout      time.Duration
	KeyHashing       bool
	AutoCreateTopics bool
	Registerer       prometheus.Registerer
}

func defaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		Delivery:     Delivery{RequiredAcks: -1, MaxAttempts: 3},
		Batch:        Batching{Size: 100, Bytes: 1 << 20, Linger: time.Second},
		Compression:  "gzip",
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
		Registerer:   prometheus.DefaultRegisterer,
	}
}

// WithBrokers sets the bootstrap brokers.
func WithBrokers(brokers []string) ProducerOption {
	return func(c *ProducerConfig) { c.Brokers = brokers }
}

// WithDelivery replaces acks, attempts and async mode. A non-positive
// MaxAttempts keeps the default.
func WithDelivery(d Delivery) ProducerOption {
	return func(c *ProducerConfig) {
		if d.MaxAttempts <= 0 {
			d.MaxAttempts = c.Delivery.MaxAttempts
		}
		c.Delivery = d
	}
}

// WithBatch sets the batch size, byte cap and linger time. Zero fields keep
// the defaults.
func WithBatch(size, bytes int, linger time.Duration) ProducerOption {
	return func(c *ProducerConfig) {
		if size > 0 {
			c.Batch.Size = size
		}
		if bytes > 0 {
			c.Batch.Bytes = bytes
		}
		if linger > 0 {
			c.Batch.Linger = linger
		}
	}
}

// WithCompression sets the codec: gzip, snappy, lz4, zstd or none.
func WithCompression(codec string) ProducerOption {
	return func(c *ProducerConfig) { c.Compression = codec }
}

// WithTimeouts sets writer write and read timeouts.
func WithTimeouts(write, read time.Duration) ProducerOption {
	return func(c *ProducerConfig) {
		c.WriteTimeout = write
		c.ReadTimeout = read
	}
}

// WithKeyHashing routes equal keys to the same partition.
func WithKeyHashing(enabled bool) ProducerOption {
	return func(c *ProducerConfig) { c.KeyHashing = enabled }
}

// WithAutoCreateTopics lets the writer create missing topics.
func WithAutoCreateTopics(enabled bool) ProducerOption {
	return func(c *ProducerConfig) { c.AutoCreateTopics = enabled }
}

// WithRegisterer sets where producer metrics are registered. nil disables
// registration.
func WithRegisterer(reg prometheus.Registerer) ProducerOption {
	return func(c *ProducerConfig) { c.Registerer = reg }
}
