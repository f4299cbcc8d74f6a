package sync

import (
	"context"
	"sync"

	"github.com/shelfmark/shelfmark/internal/domain"
)

// RemoteStore is the slice of the network record store the sync engine
// needs. remote.Client implements it in production; tests use
// remote.FakeClient.
type RemoteStore interface {
	FetchAll(ctx context.Context) ([]*domain.Book, error)
	UpsertMany(ctx context.Context, books []*domain.Book, ownerUserID string) error
	DeleteOne(ctx context.Context, id string) error
}

// Connectivity reports whether the network is reachable. Checked proactively
// before any sync pass so going offline never shows up as an error.
type Connectivity interface {
	Online() bool
}

// EventSource is the subscription surface the session controller binds to.
// Each subscribe call returns an unsubscribe function; the controller
// subscribes at construction and unsubscribes at teardown, independent of
// any UI framework's lifecycle.
type EventSource interface {
	OnNetworkChange(fn func(online bool)) (unsubscribe func())
	OnForeground(fn func()) (unsubscribe func())
	OnAuthChange(fn func(userID string)) (unsubscribe func())
}

// EventBus is the in-process implementation of EventSource. The UI shell
// reports lifecycle transitions into it (via the local API), and it doubles
// as the Connectivity source since it holds the last reported network state.
type EventBus struct {
	mu         sync.Mutex
	online     bool
	nextID     int
	networkFns map[int]func(online bool)
	foreground map[int]func()
	authFns    map[int]func(userID string)
}

// NewEventBus creates an event bus. The network starts out online; the shell
// reports the real state as soon as it knows it.
func NewEventBus() *EventBus {
	return &EventBus{
		online:     true,
		networkFns: make(map[int]func(online bool)),
		foreground: make(map[int]func()),
		authFns:    make(map[int]func(userID string)),
	}
}

// Online implements Connectivity.
func (b *EventBus) Online() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.online
}

// OnNetworkChange implements EventSource.
func (b *EventBus) OnNetworkChange(fn func(online bool)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.networkFns[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.networkFns, id)
	}
}

// OnForeground implements EventSource.
func (b *EventBus) OnForeground(fn func()) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.foreground[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.foreground, id)
	}
}

// OnAuthChange implements EventSource.
func (b *EventBus) OnAuthChange(fn func(userID string)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.authFns[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.authFns, id)
	}
}

// PublishNetworkChange records the new network state and notifies
// subscribers. Duplicate reports of the current state are dropped.
func (b *EventBus) PublishNetworkChange(online bool) {
	b.mu.Lock()
	if b.online == online {
		b.mu.Unlock()
		return
	}
	b.online = online
	fns := make([]func(online bool), 0, len(b.networkFns))
	for _, fn := range b.networkFns {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(online)
	}
}

// PublishForeground notifies subscribers that the app came to the foreground.
func (b *EventBus) PublishForeground() {
	b.mu.Lock()
	fns := make([]func(), 0, len(b.foreground))
	for _, fn := range b.foreground {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// PublishAuthChange notifies subscribers of a new authenticated identity.
// An empty userID means the session ended.
func (b *EventBus) PublishAuthChange(userID string) {
	b.mu.Lock()
	fns := make([]func(userID string), 0, len(b.authFns))
	for _, fn := range b.authFns {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(userID)
	}
}
