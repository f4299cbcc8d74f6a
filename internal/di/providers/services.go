package providers

import (
	"github.com/samber/do/v2"

	"github.com/shelfmark/shelfmark/internal/logger"
	"github.com/shelfmark/shelfmark/internal/service"
	"github.com/shelfmark/shelfmark/internal/sync"
)

// ProvideBookService provides the collection service.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	ctrlHandle := do.MustInvoke[*SessionControllerHandle](i)
	orch := do.MustInvoke[*sync.Orchestrator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBookService(storeHandle.Store, ctrlHandle.SessionController, orch, log.Logger), nil
}
