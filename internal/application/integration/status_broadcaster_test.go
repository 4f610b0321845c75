package integration

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestStatusBroadcaster_DeliversToAllObservers(t *testing.T) {
	b := NewStatusBroadcaster(0, zap.NewNop())
	connID := uuid.New()

	var first, second []StatusUpdate
	b.Subscribe(StatusObserverFunc(func(u StatusUpdate) { first = append(first, u) }))
	b.Subscribe(StatusObserverFunc(func(u StatusUpdate) { second = append(second, u) }))

	b.Publish(StatusUpdate{ConnectionID: connID, State: SyncStateSyncing})

	assert.Len(t, first, 1)
	assert.Len(t, second, 1)
	assert.Equal(t, SyncStateSyncing, first[0].State)
	assert.False(t, first[0].At.IsZero())
}

func TestStatusBroadcaster_ThrottlesProgressUpdates(t *testing.T) {
	b := NewStatusBroadcaster(time.Minute, zap.NewNop())
	connID := uuid.New()
	base := time.Now()

	var seen []StatusUpdate
	b.Subscribe(StatusObserverFunc(func(u StatusUpdate) { seen = append(seen, u) }))

	b.Publish(StatusUpdate{ConnectionID: connID, State: SyncStateSyncing, At: base})
	b.Publish(StatusUpdate{ConnectionID: connID, State: SyncStateSyncing, At: base.Add(time.Second)})
	b.Publish(StatusUpdate{ConnectionID: connID, State: SyncStateSyncing, At: base.Add(2 * time.Minute)})

	assert.Len(t, seen, 2)
}

func TestStatusBroadcaster_TerminalStatesBypassThrottle(t *testing.T) {
	b := NewStatusBroadcaster(time.Minute, zap.NewNop())
	connID := uuid.New()
	base := time.Now()

	var seen []StatusUpdate
	b.Subscribe(StatusObserverFunc(func(u StatusUpdate) { seen = append(seen, u) }))

	b.Publish(StatusUpdate{ConnectionID: connID, State: SyncStateSyncing, At: base})
	b.Publish(StatusUpdate{ConnectionID: connID, State: SyncStateError, At: base.Add(time.Second)})
	b.Publish(StatusUpdate{ConnectionID: connID, State: SyncStateIdle, At: base.Add(2 * time.Second)})

	assert.Len(t, seen, 3)
	assert.Equal(t, SyncStateError, seen[1].State)
	assert.Equal(t, SyncStateIdle, seen[2].State)
}

func TestStatusBroadcaster_ThrottlesPerConnection(t *testing.T) {
	b := NewStatusBroadcaster(time.Minute, zap.NewNop())
	base := time.Now()

	var seen []StatusUpdate
	b.Subscribe(StatusObserverFunc(func(u StatusUpdate) { seen = append(seen, u) }))

	b.Publish(StatusUpdate{ConnectionID: uuid.New(), State: SyncStateSyncing, At: base})
	b.Publish(StatusUpdate{ConnectionID: uuid.New(), State: SyncStateSyncing, At: base.Add(time.Second)})

	// Different connections never throttle each other
	assert.Len(t, seen, 2)
}
