package integration

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SyncState is the coarse engine state reported to observers
type SyncState string

const (
	SyncStateSyncing SyncState = "syncing"
	SyncStateIdle    SyncState = "idle"
	SyncStateOffline SyncState = "offline"
	SyncStateError   SyncState = "error"
)

// IsTerminal reports whether the state ends a sync attempt. Terminal states
// bypass throttling so observers never miss an outcome.
func (s SyncState) IsTerminal() bool {
	return s != SyncStateSyncing
}

// StatusUpdate is one engine state notification
type StatusUpdate struct {
	ConnectionID uuid.UUID
	State        SyncState
	Detail       string
	At           time.Time
}

// StatusObserver receives engine state notifications
type StatusObserver interface {
	OnSyncStatus(update StatusUpdate)
}

// StatusObserverFunc adapts a function to the StatusObserver interface
type StatusObserverFunc func(update StatusUpdate)

// OnSyncStatus calls f
func (f StatusObserverFunc) OnSyncStatus(update StatusUpdate) {
	f(update)
}

// StatusBroadcaster fans engine state out to subscribed observers. Progress
// updates are throttled to one per connection per minimum interval so a busy
// pass cannot flood a UI; terminal updates always go through.
type StatusBroadcaster struct {
	mu          sync.Mutex
	observers   []StatusObserver
	minInterval time.Duration
	lastSent    map[uuid.UUID]time.Time
	logger      *zap.Logger

	// now is replaceable in tests
	now func() time.Time
}

// NewStatusBroadcaster creates a broadcaster throttled to minInterval per
// connection. A zero interval disables throttling.
func NewStatusBroadcaster(minInterval time.Duration, logger *zap.Logger) *StatusBroadcaster {
	return &StatusBroadcaster{
		minInterval: minInterval,
		lastSent:    make(map[uuid.UUID]time.Time),
		logger:      logger,
		now:         time.Now,
	}
}

// Subscribe registers an observer for all future updates
func (b *StatusBroadcaster) Subscribe(observer StatusObserver) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, observer)
}

// Publish delivers an update to every observer, subject to throttling
func (b *StatusBroadcaster) Publish(update StatusUpdate) {
	if update.At.IsZero() {
		update.At = b.now()
	}

	b.mu.Lock()
	if !update.State.IsTerminal() && b.minInterval > 0 {
		if last, ok := b.lastSent[update.ConnectionID]; ok && update.At.Sub(last) < b.minInterval {
			b.mu.Unlock()
			return
		}
	}
	b.lastSent[update.ConnectionID] = update.At
	observers := make([]StatusObserver, len(b.observers))
	copy(observers, b.observers)
	b.mu.Unlock()

	for _, observer := range observers {
		observer.OnSyncStatus(update)
	}

	b.logger.Debug("Sync status published",
		zap.String("connection_id", update.ConnectionID.String()),
		zap.String("state", string(update.State)),
	)
}
