package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shelfmark/shelfmark/internal/domain"
	"github.com/shelfmark/shelfmark/internal/store"
)

// State is the externally visible condition of the sync engine.
type State string

// Sync states.
const (
	StateIdle    State = "idle"
	StateSyncing State = "syncing"
	StateError   State = "error"
	StateOffline State = "offline"
)

// ErrOffline is returned when a sync operation is requested without network.
// Going offline is not a failure; callers short-circuit on it without
// touching the remote store or mutating records.
var ErrOffline = errors.New("sync: network unavailable")

// Result summarizes one sync pass. Success is true iff Errors is empty.
type Result struct {
	Success    bool     `json:"success"`
	Uploaded   int      `json:"uploaded"`
	Downloaded int      `json:"downloaded"`
	Deleted    int      `json:"deleted"`
	Conflicts  int      `json:"conflicts"`
	Errors     []string `json:"errors"`
}

// Orchestrator coordinates full, incremental, and initial sync passes
// between the local record store and the remote store.
//
// A pass is a single logical thread of control: local reads, one bulk
// upload, then downloads applied in order. There is no per-record network
// fan-out. The orchestrator has no internal locking around passes; its
// session controller enforces one pass in flight at a time.
type Orchestrator struct {
	store        *store.Store
	remote       RemoteStore
	connectivity Connectivity
	logger       *slog.Logger
	premium      bool

	mu    sync.Mutex
	state State
}

// NewOrchestrator creates a sync orchestrator.
func NewOrchestrator(st *store.Store, remote RemoteStore, connectivity Connectivity, premium bool, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{
		store:        st,
		remote:       remote,
		connectivity: connectivity,
		logger:       logger,
		premium:      premium,
		state:        StateIdle,
	}
}

// State returns the current sync state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Online reports whether the network is currently reachable.
func (o *Orchestrator) Online() bool {
	return o.connectivity.Online()
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// ResetState returns the engine to idle. Called when the session ends.
func (o *Orchestrator) ResetState() {
	o.setState(StateIdle)
}

// NoteOffline records that the network went away.
func (o *Orchestrator) NoteOffline() {
	o.setState(StateOffline)
}

// NoteOnline clears the offline state, but never interrupts a running pass.
func (o *Orchestrator) NoteOnline() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateOffline {
		o.state = StateIdle
	}
}

// begin checks connectivity and moves to syncing. Returns ErrOffline when
// the network is unavailable.
func (o *Orchestrator) begin() error {
	if !o.connectivity.Online() {
		o.setState(StateOffline)
		return ErrOffline
	}
	o.setState(StateSyncing)
	return nil
}

// finish records the outcome of a pass in the state machine.
func (o *Orchestrator) finish(result *Result, err error) {
	if err != nil || !result.Success {
		o.setState(StateError)
		return
	}
	o.setState(StateIdle)
}

// PerformFullSync reconciles the entire collection in both directions.
//
// The pass never aborts early on remote failures: partial failures are
// recorded per item and the pass always completes with a full summary. This
// is best-effort batch reconciliation, not a transaction. Local store
// failures, by contrast, are fatal to the pass and surface as an error.
func (o *Orchestrator) PerformFullSync(ctx context.Context, userID string) (*Result, error) {
	if err := o.begin(); err != nil {
		return nil, err
	}
	result, err := o.fullSync(ctx, userID)
	o.finish(result, err)
	return result, err
}

// PerformInitialSync establishes the merged baseline for a fresh session.
// It is a full sync; the session controller runs it exactly once per
// authenticated session.
func (o *Orchestrator) PerformInitialSync(ctx context.Context, userID string) (*Result, error) {
	o.logger.Info("starting initial sync", "user_id", userID)
	return o.PerformFullSync(ctx, userID)
}

func (o *Orchestrator) fullSync(ctx context.Context, userID string) (*Result, error) {
	result := &Result{Errors: []string{}}

	local, err := o.store.ListAllBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("read local records: %w", err)
	}

	// A failed download must not block uploads, so a remote read error is
	// recorded and the pass continues against an empty remote set.
	remoteBooks, err := o.remote.FetchAll(ctx)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("fetch remote records: %v", err))
		o.logger.Warn("remote fetch failed, continuing with uploads", "error", err)
		remoteBooks = nil
	}

	remoteByID := make(map[string]*domain.Book, len(remoteBooks))
	for _, rb := range remoteBooks {
		remoteByID[rb.ID] = rb
	}

	eligible := make(map[string]bool)
	for _, id := range EligibleForUpload(local, o.premium) {
		eligible[id] = true
	}

	// Upload phase. Records over the capacity limit stay local-only; records
	// awaiting deletion are never uploaded.
	var uploads []*domain.Book
	for _, lb := range local {
		if lb.SyncStatus == domain.SyncStatusPendingDelete {
			continue
		}
		if !eligible[lb.ID] {
			if lb.SyncStatus != domain.SyncStatusLocalOnly {
				if serr := o.store.SetSyncStatus(ctx, lb.ID, domain.SyncStatusLocalOnly, ""); serr != nil {
					return nil, fmt.Errorf("mark record local-only: %w", serr)
				}
			}
			continue
		}

		rb, present := remoteByID[lb.ID]
		if !present {
			uploads = append(uploads, lb)
			continue
		}
		if lb.UpdatedAt.Equal(rb.UpdatedAt) {
			// Same version on both sides; nothing to reconcile.
			continue
		}
		if ResolveConflict(lb, rb) == WinnerLocal {
			uploads = append(uploads, lb)
			result.Conflicts++
		}
	}

	if len(uploads) > 0 {
		if uerr := o.remote.UpsertMany(ctx, uploads, userID); uerr != nil {
			// The whole batch is marked error: the backend gives no per-item
			// outcome, so this is the conservative signal.
			result.Errors = append(result.Errors, fmt.Sprintf("upload %d records: %v", len(uploads), uerr))
			for _, b := range uploads {
				if serr := o.store.SetSyncStatus(ctx, b.ID, domain.SyncStatusError, ""); serr != nil {
					return nil, fmt.Errorf("mark record error: %w", serr)
				}
			}
		} else {
			for _, b := range uploads {
				if serr := o.store.SetSyncStatus(ctx, b.ID, domain.SyncStatusSynced, userID); serr != nil {
					return nil, fmt.Errorf("mark record synced: %w", serr)
				}
			}
			result.Uploaded = len(uploads)
		}
	}

	// Download phase, applied after uploads so a record captured in the
	// local snapshot is still pushed even if the remote copy moved mid-pass.
	localByID := make(map[string]*domain.Book, len(local))
	for _, lb := range local {
		localByID[lb.ID] = lb
	}

	for _, rb := range remoteBooks {
		lb, present := localByID[rb.ID]
		if !present {
			if serr := o.store.UpsertBook(ctx, rb); serr != nil {
				return nil, fmt.Errorf("insert downloaded record: %w", serr)
			}
			result.Downloaded++
			continue
		}
		if rb.UpdatedAt.Equal(lb.UpdatedAt) {
			continue
		}
		if ResolveConflict(lb, rb) == WinnerRemote {
			if serr := o.store.UpsertBook(ctx, rb); serr != nil {
				return nil, fmt.Errorf("apply downloaded record: %w", serr)
			}
			result.Downloaded++
			result.Conflicts++
		}
	}

	result.Success = len(result.Errors) == 0

	o.logger.Info("full sync complete",
		"user_id", userID,
		"uploaded", result.Uploaded,
		"downloaded", result.Downloaded,
		"conflicts", result.Conflicts,
		"errors", len(result.Errors),
	)

	return result, nil
}

// PerformIncrementalSync pushes locally dirty records and nothing else.
//
// No download step: the device is assumed to hold a consistent base, so
// remote-only changes wait for the next full sync. That keeps the frequent
// foreground/recovery path to at most one network round trip, and zero when
// nothing is dirty.
func (o *Orchestrator) PerformIncrementalSync(ctx context.Context, userID string) (*Result, error) {
	if err := o.begin(); err != nil {
		return nil, err
	}
	result, err := o.incrementalSync(ctx, userID)
	o.finish(result, err)
	return result, err
}

func (o *Orchestrator) incrementalSync(ctx context.Context, userID string) (*Result, error) {
	result := &Result{Errors: []string{}}

	dirty, err := o.store.GetBooksNeedingSync(ctx)
	if err != nil {
		return nil, fmt.Errorf("read dirty records: %w", err)
	}

	if len(dirty) == 0 {
		result.Success = true
		return result, nil
	}

	// Capacity binds every upload path. A dirty record outside the eligible
	// set is parked as local-only instead of uploaded; one that regained
	// eligibility (capacity freed by deletes) goes up with this batch.
	local, err := o.store.ListAllBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("read local records: %w", err)
	}
	eligible := make(map[string]bool)
	for _, id := range EligibleForUpload(local, o.premium) {
		eligible[id] = true
	}

	var uploads []*domain.Book
	for _, b := range dirty {
		if !eligible[b.ID] {
			if b.SyncStatus != domain.SyncStatusLocalOnly {
				if serr := o.store.SetSyncStatus(ctx, b.ID, domain.SyncStatusLocalOnly, ""); serr != nil {
					return nil, fmt.Errorf("mark record local-only: %w", serr)
				}
			}
			continue
		}
		uploads = append(uploads, b)
	}

	if len(uploads) == 0 {
		result.Success = true
		return result, nil
	}

	if uerr := o.remote.UpsertMany(ctx, uploads, userID); uerr != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("upload %d records: %v", len(uploads), uerr))
		for _, b := range uploads {
			if serr := o.store.SetSyncStatus(ctx, b.ID, domain.SyncStatusError, ""); serr != nil {
				return nil, fmt.Errorf("mark record error: %w", serr)
			}
		}
	} else {
		for _, b := range uploads {
			if serr := o.store.SetSyncStatus(ctx, b.ID, domain.SyncStatusSynced, userID); serr != nil {
				return nil, fmt.Errorf("mark record synced: %w", serr)
			}
		}
		result.Uploaded = len(uploads)
	}

	result.Success = len(result.Errors) == 0

	o.logger.Info("incremental sync complete",
		"user_id", userID,
		"uploaded", result.Uploaded,
		"errors", len(result.Errors),
	)

	return result, nil
}

// DeleteWithSync deletes a record locally and best-effort remotely.
//
// Local deletion is authoritative and never rolled back: a remote delete
// failure is logged and swallowed so the user-visible delete is never
// blocked by the network. Worst case a ghost record lingers remotely; it
// won't be re-uploaded since the record no longer exists locally.
func (o *Orchestrator) DeleteWithSync(ctx context.Context, id string) error {
	book, err := o.store.GetBook(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			return nil
		}
		return err
	}

	// Transient marker: if a sync pass races this delete, the record must
	// never be re-uploaded.
	book.MarkPendingDelete()
	if err := o.store.UpdateBook(ctx, book); err != nil {
		return fmt.Errorf("mark pending delete: %w", err)
	}

	if err := o.store.DeleteBook(ctx, id); err != nil {
		return fmt.Errorf("delete local record: %w", err)
	}

	if !o.connectivity.Online() {
		o.logger.Debug("offline, skipping remote delete", "id", id)
		return nil
	}

	if err := o.remote.DeleteOne(ctx, id); err != nil {
		o.logger.Warn("remote delete failed, record removed locally only", "id", id, "error", err)
	}

	return nil
}
