//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	domrepo "Consensus/internal/domain/repository"
	domsvc "Consensus/internal/domain/service"
	"Consensus/internal/usecase"
	"Consensus/pkg/config"
	"Consensus/pkg/metrics"
	"Consensus/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application plus
// a cleanup function that releases infrastructure clients.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		wire.Bind(new(domrepo.Metrics), new(*metrics.Recorder)),

		// Artifacts and model
		ProvideSchema,
		ProvideNormalizer,
		ProvideCache,
		ProvidePredictor,
		ProvideResolver,

		// Infrastructure clients and sinks
		ProvideKafkaProducer,
		ProvideClickHouseClient,
		ProvidePredictionSink,

		// Use case
		ProvideConsensusPredictor,
		wire.Bind(new(domsvc.ConsensusService), new(*usecase.ConsensusPredictor)),

		// Transport
		ProvideHTTPHandler,
		ProvideRenderer,
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}
