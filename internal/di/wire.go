//go:build wireinject
// +build wireinject

package di

import (
	"marketpulse/pkg/config"
	"marketpulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		ProvideCredentialStore,
		ProvideRegistry,
		ProvideDashboardBackend,
		ProvideJobBackend,

		ProvideQueryIDs,
		ProvideJobPoller,
		ProvideReportBuilder,

		ProvideReportHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}

// InitializeToolkit wires the CLI dependencies without the HTTP server.
func InitializeToolkit(cfg *config.Config) (*Toolkit, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		ProvideCredentialStore,
		ProvideRegistry,
		ProvideDashboardBackend,
		ProvideJobBackend,

		ProvideQueryIDs,
		ProvideJobPoller,
		ProvideReportBuilder,

		ProvideToolkit,
	)
	return &Toolkit{}, nil
}
