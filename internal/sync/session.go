package sync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shelfmark/shelfmark/internal/domain"
	"github.com/shelfmark/shelfmark/internal/store"
)

// Kind selects the breadth of a requested sync pass.
type Kind string

// Requestable pass kinds. The initial pass is not requestable; the
// controller runs it implicitly on the first pass of a session.
const (
	KindFull        Kind = "full"
	KindIncremental Kind = "incremental"
)

// DefaultCooldown is the minimum spacing between non-full sync passes.
const DefaultCooldown = 30 * time.Second

// SessionController owns the sync lifecycle for one authenticated session.
//
// It is the only caller of the orchestrator: it serializes passes (one in
// flight, concurrent requests are dropped), rate-limits incremental passes
// with a cooldown, runs the initial full sync exactly once per session, and
// reacts to network, foreground, and auth events. It also keeps an
// in-memory snapshot of the collection for cheap reads.
type SessionController struct {
	orch    *Orchestrator
	store   *store.Store
	logger  *slog.Logger
	premium bool

	cooldown time.Duration

	mu            sync.Mutex
	userID        string
	sessionSynced bool
	inFlight      bool
	lastSync      time.Time
	books         []*domain.Book
	booksLoaded   bool

	unsubscribes []func()
}

// NewSessionController creates the controller and binds it to the event
// source. A cooldown of zero uses DefaultCooldown. Call Close to release
// the event subscriptions.
func NewSessionController(orch *Orchestrator, st *store.Store, events EventSource, premium bool, cooldown time.Duration, logger *slog.Logger) *SessionController {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}

	c := &SessionController{
		orch:     orch,
		store:    st,
		logger:   logger,
		premium:  premium,
		cooldown: cooldown,
	}

	c.unsubscribes = append(c.unsubscribes,
		events.OnNetworkChange(c.handleNetworkChange),
		events.OnForeground(c.handleForeground),
		events.OnAuthChange(c.handleAuthChange),
	)

	return c
}

// Close releases the controller's event subscriptions.
func (c *SessionController) Close() {
	for _, unsub := range c.unsubscribes {
		unsub()
	}
	c.unsubscribes = nil
}

// HasSession reports whether an authenticated session is active. Without
// one the app is a purely local tracker and no network traffic happens.
func (c *SessionController) HasSession() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID != ""
}

// IsSyncEnabled reports whether sync can actually run right now: an
// authenticated session exists and the network is reachable. Offline edits
// under an active session still queue as pending; this only gates passes.
func (c *SessionController) IsSyncEnabled() bool {
	return c.HasSession() && c.orch.Online()
}

// UserID returns the authenticated user of the current session, or "".
func (c *SessionController) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// State returns the sync engine's current state.
func (c *SessionController) State() State {
	return c.orch.State()
}

// Sync requests a sync pass. Returns (nil, nil) when the request is
// dropped: no session, a pass already in flight, or an incremental request
// inside the cooldown window. The window is measured from the previous
// pass's start. A full sync always bypasses the cooldown.
//
// The first pass of a session is promoted to the initial full sync
// regardless of the requested kind.
func (c *SessionController) Sync(ctx context.Context, kind Kind) (*Result, error) {
	c.mu.Lock()
	if c.userID == "" {
		c.mu.Unlock()
		return nil, nil
	}
	if c.inFlight {
		c.mu.Unlock()
		c.logger.Debug("sync already in flight, dropping request", "kind", kind)
		return nil, nil
	}
	if kind != KindFull && c.sessionSynced && !c.lastSync.IsZero() && time.Since(c.lastSync) < c.cooldown {
		c.mu.Unlock()
		c.logger.Debug("sync inside cooldown window, dropping request", "kind", kind)
		return nil, nil
	}
	c.inFlight = true
	c.lastSync = time.Now()
	userID := c.userID
	initial := !c.sessionSynced
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	var (
		result *Result
		err    error
	)
	switch {
	case initial:
		result, err = c.orch.PerformInitialSync(ctx, userID)
	case kind == KindIncremental:
		result, err = c.orch.PerformIncrementalSync(ctx, userID)
	default:
		result, err = c.orch.PerformFullSync(ctx, userID)
	}
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if initial && result.Success {
		c.sessionSynced = true
	}
	c.mu.Unlock()

	if result.Downloaded > 0 || result.Uploaded > 0 {
		if rerr := c.RefreshBooks(ctx); rerr != nil {
			c.logger.Warn("post-sync cache refresh failed", "error", rerr)
		}
	}

	return result, nil
}

// Books returns the cached collection snapshot, loading it from the store
// on first use.
func (c *SessionController) Books(ctx context.Context) ([]*domain.Book, error) {
	c.mu.Lock()
	if c.booksLoaded {
		books := c.books
		c.mu.Unlock()
		return books, nil
	}
	c.mu.Unlock()

	if err := c.RefreshBooks(ctx); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.books, nil
}

// RefreshBooks reloads the in-memory snapshot from the store.
func (c *SessionController) RefreshBooks(ctx context.Context) error {
	books, err := c.store.ListAllBooks(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.books = books
	c.booksLoaded = true
	c.mu.Unlock()
	return nil
}

// Capacity reports remote capacity usage for the current collection.
func (c *SessionController) Capacity(ctx context.Context) (CapacityUsage, error) {
	books, err := c.store.ListAllBooks(ctx)
	if err != nil {
		return CapacityUsage{}, err
	}
	return Usage(books, c.premium), nil
}

func (c *SessionController) handleNetworkChange(online bool) {
	if !online {
		c.orch.NoteOffline()
		c.logger.Info("network lost, sync paused")
		return
	}

	c.orch.NoteOnline()
	c.logger.Info("network restored")

	c.mu.Lock()
	recovered := c.userID != "" && c.sessionSynced
	c.mu.Unlock()
	if recovered {
		// Anything edited while offline needs pushing, and the remote may
		// have moved too.
		if _, err := c.Sync(context.Background(), KindFull); err != nil {
			c.logger.Warn("recovery sync failed", "error", err)
		}
	}
}

func (c *SessionController) handleForeground() {
	if !c.IsSyncEnabled() {
		return
	}
	if _, err := c.Sync(context.Background(), KindIncremental); err != nil {
		c.logger.Warn("foreground sync failed", "error", err)
	}
}

func (c *SessionController) handleAuthChange(userID string) {
	c.mu.Lock()
	c.userID = userID
	c.sessionSynced = false
	c.lastSync = time.Time{}
	c.mu.Unlock()

	if userID == "" {
		c.orch.ResetState()
		c.logger.Info("session ended, sync disabled")
		return
	}

	c.logger.Info("session started", "user_id", userID)
	if _, err := c.Sync(context.Background(), KindFull); err != nil {
		c.logger.Warn("session start sync failed", "error", err)
	}
}
