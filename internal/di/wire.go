//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/AbishekAnand15/exodetect-backend/internal/usecase"
	"github.com/AbishekAnand15/exodetect-backend/pkg/config"
	"github.com/AbishekAnand15/exodetect-backend/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideCache,

		// Repositories
		ProvideRunStore,
		ProvideRunPublisher,
		ProvideLatestStore,

		// Pipeline collaborators
		ProvideLightCurveSource,
		ProvideDetrender,
		ProvidePeriodSearch,
		ProvideFolder,
		ProvideCalculator,

		// Use cases
		usecase.NewPipeline,
		usecase.NewAnalyzer,
		ProvideAnalyzeRequestsHandler,

		// Transport
		ProvideRateLimiter,
		ProvideHTTPHandler,
		ProvideHTTPServer,
		ProvideKafkaConsumer,

		ProvideApp,
	)
	return &server.App{}, nil
}
