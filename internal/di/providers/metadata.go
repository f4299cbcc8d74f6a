package providers

import (
	"github.com/samber/do/v2"

	"github.com/shelfmark/shelfmark/internal/logger"
	"github.com/shelfmark/shelfmark/internal/metadata/openlibrary"
)

// OpenLibraryHandle wraps the Open Library client with shutdown capability.
type OpenLibraryHandle struct {
	*openlibrary.Client
}

// Shutdown implements do.Shutdownable.
func (h *OpenLibraryHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideOpenLibraryClient provides the metadata lookup client.
func ProvideOpenLibraryClient(i do.Injector) (*OpenLibraryHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return &OpenLibraryHandle{Client: openlibrary.NewClient(log.Logger)}, nil
}
