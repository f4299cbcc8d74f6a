// Package di provides dependency injection configuration for the Shelfmark
// app server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/shelfmark/shelfmark/internal/auth"
	"github.com/shelfmark/shelfmark/internal/config"
	"github.com/shelfmark/shelfmark/internal/di/providers"
	"github.com/shelfmark/shelfmark/internal/logger"
	"github.com/shelfmark/shelfmark/internal/service"
	"github.com/shelfmark/shelfmark/internal/sync"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Auth layer
	do.Provide(injector, providers.ProvideVerifier)
	do.Provide(injector, providers.ProvideAuthManager)

	// Sync engine
	do.Provide(injector, providers.ProvideEventBus)
	do.Provide(injector, providers.ProvideRemoteClient)
	do.Provide(injector, providers.ProvideOrchestrator)
	do.Provide(injector, providers.ProvideSessionController)

	// Business services
	do.Provide(injector, providers.ProvideBookService)

	// Metadata layer
	do.Provide(injector, providers.ProvideOpenLibraryClient)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns once the server is running.
// This triggers lazy initialization of the whole dependency graph.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*auth.Verifier](injector)
	_ = do.MustInvoke[*auth.Manager](injector)
	_ = do.MustInvoke[*sync.EventBus](injector)
	_ = do.MustInvoke[*providers.RemoteClientHandle](injector)
	_ = do.MustInvoke[*sync.Orchestrator](injector)
	_ = do.MustInvoke[*providers.SessionControllerHandle](injector)
	_ = do.MustInvoke[*service.BookService](injector)
	_ = do.MustInvoke[*providers.OpenLibraryHandle](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Rebuild the search index from the record store if it came up empty.
	providers.TriggerSearchRebuildIfNeeded(injector)

	return nil
}
