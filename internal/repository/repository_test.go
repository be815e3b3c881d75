package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"Consensus/internal/domain/models"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadSchema(t *testing.T) {
	s, err := LoadSchema(writeFile(t, "schema.yaml", "columns:\n  - pe_ratio\n  - ' revenue_growth '\n  - beta\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"pe_ratio", "revenue_growth", "beta"}, s.Columns)
	assert.True(t, s.Has("beta"))

	s, err = LoadSchema(writeFile(t, "schema.json", `{"columns": ["a", "b"]}`))
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
}

func TestLoadSchemaFailures(t *testing.T) {
	cases := map[string]string{
		"empty":     "columns: []\n",
		"blank":     "columns: [a, '']\n",
		"duplicate": "columns: [a, b, a]\n",
		"garbage":   "columns: {a: 1}\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadSchema(writeFile(t, "schema.yaml", body))
			assert.Error(t, err)
		})
	}

	_, err := LoadSchema(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadLinearModel(t *testing.T) {
	body := `{"version":"2024-01","features":["a"],"targets":["Buy_%"],"coefficients":[[1.5]],"intercepts":[0.5]}`
	m, err := LoadLinearModel(writeFile(t, "model.json", body))
	require.NoError(t, err)
	assert.Equal(t, "2024-01", m.Version)
	assert.Equal(t, [][]float64{{1.5}}, m.Coefficients)

	_, err = LoadLinearModel(writeFile(t, "model.json", `{"version":"x"}`))
	assert.Error(t, err)
	_, err = LoadLinearModel(writeFile(t, "model.json", `{`))
	assert.Error(t, err)
}

type execCall struct {
	query string
	args  []interface{}
}

type fakeExecer struct {
	calls []execCall
	err   error
}

func (f *fakeExecer) ExecContext(_ context.Context, query string, args ...interface{}) (sql.Result, error) {
	f.calls = append(f.calls, execCall{query: query, args: args})
	return nil, f.err
}

func sampleRecord() models.PredictionRecord {
	return models.PredictionRecord{
		RequestID:    "req-1",
		Timestamp:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Category:     models.CategoryHold,
		BuyScore:     20,
		HoldScore:    50,
		SellScore:    30,
		Outputs:      map[string]float64{"Hold_%": 50},
		Features:     map[string]float64{"a": 1},
		ModelVersion: "v1",
		CacheHit:     true,
		LatencyMs:    12,
	}
}

func TestClickHouseSinkRecord(t *testing.T) {
	db := &fakeExecer{}
	sink := NewClickHouseSink(db, "consensus")

	require.NoError(t, sink.Record(context.Background(), sampleRecord()))
	require.Len(t, db.calls, 1)
	assert.Contains(t, db.calls[0].query, "INSERT INTO consensus.predictions")
	args := db.calls[0].args
	require.Len(t, args, 11)
	assert.Equal(t, "req-1", args[1])
	assert.Equal(t, "Hold", args[2])
	assert.Equal(t, uint8(1), args[9])
	assert.Equal(t, uint32(12), args[10])

	db.err = errors.New("connection reset")
	assert.Error(t, sink.Record(context.Background(), sampleRecord()))
}

func TestPredictionSchema(t *testing.T) {
	stmts := PredictionSchema("consensus")
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], "CREATE DATABASE IF NOT EXISTS consensus")
	assert.Contains(t, stmts[1], "consensus.predictions")
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, key []byte, value interface{}) error {
	return m.Called(ctx, topic, key, value).Error(0)
}

func TestKafkaSinkKeysByCategory(t *testing.T) {
	pub := &mockPublisher{}
	rec := sampleRecord()
	pub.On("Publish", mock.Anything, "consensus.predictions", []byte("Hold"), rec).Return(nil).Once()

	sink := NewKafkaSink(pub, "consensus.predictions")
	require.NoError(t, sink.Record(context.Background(), rec))
	pub.AssertExpectations(t)
}

type stubSink struct {
	records int
	err     error
	closed  bool
}

func (s *stubSink) Record(context.Context, models.PredictionRecord) error {
	s.records++
	return s.err
}

func (s *stubSink) Close() error {
	s.closed = true
	return nil
}

func TestMultiSinkFansOut(t *testing.T) {
	ok := &stubSink{}
	failing := &stubSink{err: errors.New("down")}
	m := NewMultiSink(ok, nil, failing)
	assert.Equal(t, 2, m.Len())

	err := m.Record(context.Background(), sampleRecord())
	assert.ErrorIs(t, err, failing.err)
	assert.Equal(t, 1, ok.records)
	assert.Equal(t, 1, failing.records)

	require.NoError(t, m.Close())
	assert.True(t, ok.closed)
	assert.True(t, failing.closed)
}
