//go:build wireinject
// +build wireinject

package di

import (
	"OptWatch/pkg/config"
	"OptWatch/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient services
		ProvideLogger,
		ProvideMetrics,
		ProvideClock,

		// Data source and sinks
		ProvideMarketData,
		ProvideSink,
		ProvideCache,

		// Session pipeline
		ProvideWindow,
		ProvideQuoteProcessor,
		ProvideMonitor,

		// Surfaces
		ProvideStatusHandler,
		ProvideHTTPServer,
		ProvideConsumer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
