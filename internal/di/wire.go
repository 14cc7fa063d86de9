//go:build wireinject
// +build wireinject

package di

import (
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/pkg/config"
	"github.com/berkanbiyikli/bilyoner-assistant-sub002/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideCache,
		ProvidePublisher,

		// Repositories
		ProvideCalibrationStore,
		ProvideCalibrationCache,
		ProvideMatchDataProvider,

		// Engine
		ProvideEstimator,
		ProvidePredictor,
		ProvideValueFinder,
		ProvideCouponBuilder,
		ProvideFitter,
		ProvideScorer,

		// Use cases
		ProvideAnalyzer,
		ProvideSettler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
