// Package providers contains dependency injection providers for the
// Shelfmark app server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/shelfmark/shelfmark/internal/config"
	"github.com/shelfmark/shelfmark/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.WithField("environment", cfg.App.Environment).Info("Starting Shelfmark",
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Data.BasePath,
		"remote_url", cfg.Remote.BaseURL,
	)

	return log, nil
}
