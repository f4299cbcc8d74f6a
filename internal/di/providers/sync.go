package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/shelfmark/shelfmark/internal/auth"
	"github.com/shelfmark/shelfmark/internal/config"
	"github.com/shelfmark/shelfmark/internal/logger"
	"github.com/shelfmark/shelfmark/internal/remote"
	"github.com/shelfmark/shelfmark/internal/sync"
)

// ProvideEventBus provides the sync trigger bus.
func ProvideEventBus(i do.Injector) (*sync.EventBus, error) {
	return sync.NewEventBus(), nil
}

// RemoteClientHandle wraps the remote store client with shutdown capability.
type RemoteClientHandle struct {
	*remote.Client
}

// Shutdown implements do.Shutdownable.
func (h *RemoteClientHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideRemoteClient provides the cloud record store client. It pulls
// tokens from the session manager, so it authenticates as soon as the user
// signs in.
func ProvideRemoteClient(i do.Injector) (*RemoteClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authMgr := do.MustInvoke[*auth.Manager](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := remote.New(cfg.Remote.BaseURL, authMgr, log.Logger)

	deviceID, err := storeHandle.DeviceID(context.Background())
	if err != nil {
		return nil, err
	}
	client.SetDeviceID(deviceID)

	return &RemoteClientHandle{Client: client}, nil
}

// ProvideOrchestrator provides the sync orchestrator.
func ProvideOrchestrator(i do.Injector) (*sync.Orchestrator, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	clientHandle := do.MustInvoke[*RemoteClientHandle](i)
	bus := do.MustInvoke[*sync.EventBus](i)
	log := do.MustInvoke[*logger.Logger](i)

	return sync.NewOrchestrator(storeHandle.Store, clientHandle.Client, bus, cfg.Sync.Premium, log.Logger), nil
}

// SessionControllerHandle wraps the session controller with shutdown
// capability, releasing its event subscriptions.
type SessionControllerHandle struct {
	*sync.SessionController
}

// Shutdown implements do.Shutdownable.
func (h *SessionControllerHandle) Shutdown() error {
	h.SessionController.Close()
	return nil
}

// ProvideSessionController provides the sync session controller.
func ProvideSessionController(i do.Injector) (*SessionControllerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	orch := do.MustInvoke[*sync.Orchestrator](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	bus := do.MustInvoke[*sync.EventBus](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctrl := sync.NewSessionController(orch, storeHandle.Store, bus, cfg.Sync.Premium, cfg.Sync.Cooldown, log.Logger)
	return &SessionControllerHandle{SessionController: ctrl}, nil
}
