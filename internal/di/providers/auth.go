package providers

import (
	"github.com/samber/do/v2"

	"github.com/shelfmark/shelfmark/internal/auth"
	"github.com/shelfmark/shelfmark/internal/config"
	"github.com/shelfmark/shelfmark/internal/logger"
	"github.com/shelfmark/shelfmark/internal/sync"
)

// ProvideVerifier provides the access token verifier.
func ProvideVerifier(i do.Injector) (*auth.Verifier, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return auth.NewVerifier(cfg.Auth.TokenPublicKey)
}

// ProvideAuthManager provides the session manager. Auth transitions flow
// into the sync engine through the event bus.
func ProvideAuthManager(i do.Injector) (*auth.Manager, error) {
	verifier := do.MustInvoke[*auth.Verifier](i)
	bus := do.MustInvoke[*sync.EventBus](i)
	log := do.MustInvoke[*logger.Logger](i)

	return auth.NewManager(verifier, bus, log.Logger), nil
}
