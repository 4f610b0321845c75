package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingRunner counts sync passes per connection
type recordingRunner struct {
	mu    sync.Mutex
	runs  map[uuid.UUID]int
	err   error
	fired chan uuid.UUID
}

func newRecordingRunner() *recordingRunner {
	return &recordingRunner{
		runs:  make(map[uuid.UUID]int),
		fired: make(chan uuid.UUID, 100),
	}
}

func (r *recordingRunner) RunSync(ctx context.Context, connectionID uuid.UUID) error {
	r.mu.Lock()
	r.runs[connectionID]++
	r.mu.Unlock()

	select {
	case r.fired <- connectionID:
	default:
	}
	return r.err
}

func (r *recordingRunner) count(connectionID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs[connectionID]
}

func newTestScheduler(t *testing.T, runner SyncRunner) *SyncScheduler {
	t.Helper()

	cfg := SyncSchedulerConfig{
		Enabled:         true,
		DefaultInterval: 50 * time.Millisecond,
		MinInterval:     10 * time.Millisecond,
		RunTimeout:      time.Second,
	}
	s, err := NewSyncScheduler(cfg, runner, zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestSyncSchedulerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*SyncSchedulerConfig)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *SyncSchedulerConfig) {},
			wantErr: false,
		},
		{
			name:    "zero default interval",
			modify:  func(c *SyncSchedulerConfig) { c.DefaultInterval = 0 },
			wantErr: true,
		},
		{
			name:    "zero min interval",
			modify:  func(c *SyncSchedulerConfig) { c.MinInterval = 0 },
			wantErr: true,
		},
		{
			name:    "zero run timeout",
			modify:  func(c *SyncSchedulerConfig) { c.RunTimeout = 0 },
			wantErr: true,
		},
		{
			name: "default below minimum",
			modify: func(c *SyncSchedulerConfig) {
				c.DefaultInterval = time.Second
				c.MinInterval = time.Minute
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSyncSchedulerConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSyncScheduler_ScheduleFiresRepeatedly(t *testing.T) {
	runner := newRecordingRunner()
	s := newTestScheduler(t, runner)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	connID := uuid.New()
	require.NoError(t, s.Schedule(connID, 20*time.Millisecond))

	// Wait for at least two ticks
	for i := 0; i < 2; i++ {
		select {
		case fired := <-runner.fired:
			assert.Equal(t, connID, fired)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for scheduled sync pass")
		}
	}

	assert.GreaterOrEqual(t, runner.count(connID), 2)
}

func TestSyncScheduler_ScheduleReplacesExistingTimer(t *testing.T) {
	runner := newRecordingRunner()
	s := newTestScheduler(t, runner)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	connID := uuid.New()
	require.NoError(t, s.Schedule(connID, 20*time.Millisecond))
	require.NoError(t, s.Schedule(connID, 30*time.Millisecond))

	// Only one timer remains
	assert.Equal(t, 1, s.ActiveCount())

	interval, ok := s.Interval(connID)
	require.True(t, ok)
	assert.Equal(t, 30*time.Millisecond, interval)
}

func TestSyncScheduler_ZeroIntervalUsesDefault(t *testing.T) {
	runner := newRecordingRunner()
	s := newTestScheduler(t, runner)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	connID := uuid.New()
	require.NoError(t, s.Schedule(connID, 0))

	interval, ok := s.Interval(connID)
	require.True(t, ok)
	assert.Equal(t, 50*time.Millisecond, interval)
}

func TestSyncScheduler_RejectsTooShortInterval(t *testing.T) {
	runner := newRecordingRunner()
	s := newTestScheduler(t, runner)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	err := s.Schedule(uuid.New(), time.Millisecond)
	assert.ErrorIs(t, err, ErrIntervalTooShort)
	assert.Equal(t, 0, s.ActiveCount())
}

func TestSyncScheduler_ScheduleBeforeStart(t *testing.T) {
	runner := newRecordingRunner()
	s := newTestScheduler(t, runner)

	err := s.Schedule(uuid.New(), 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestSyncScheduler_CancelStopsTimer(t *testing.T) {
	runner := newRecordingRunner()
	s := newTestScheduler(t, runner)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	connID := uuid.New()
	require.NoError(t, s.Schedule(connID, 20*time.Millisecond))

	// Wait for the first tick, then cancel
	select {
	case <-runner.fired:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for first tick")
	}
	s.Cancel(connID)
	assert.Equal(t, 0, s.ActiveCount())

	countAfterCancel := runner.count(connID)
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, countAfterCancel, runner.count(connID), "cancelled timer must not fire again")
}

func TestSyncScheduler_CancelUnknownConnectionIsNoop(t *testing.T) {
	runner := newRecordingRunner()
	s := newTestScheduler(t, runner)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	assert.NotPanics(t, func() {
		s.Cancel(uuid.New())
	})
}

func TestSyncScheduler_StopCancelsAllTimers(t *testing.T) {
	runner := newRecordingRunner()
	s := newTestScheduler(t, runner)

	require.NoError(t, s.Start(context.Background()))

	require.NoError(t, s.Schedule(uuid.New(), 20*time.Millisecond))
	require.NoError(t, s.Schedule(uuid.New(), 20*time.Millisecond))
	assert.Equal(t, 2, s.ActiveCount())

	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, 0, s.ActiveCount())

	err := s.Schedule(uuid.New(), 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestSyncScheduler_RunnerErrorKeepsSchedule(t *testing.T) {
	runner := newRecordingRunner()
	runner.err = assert.AnError
	s := newTestScheduler(t, runner)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	connID := uuid.New()
	require.NoError(t, s.Schedule(connID, 20*time.Millisecond))

	// A failing run must not tear down the timer
	for i := 0; i < 2; i++ {
		select {
		case <-runner.fired:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for tick after failure")
		}
	}
	assert.Equal(t, 1, s.ActiveCount())
}

func TestSyncScheduler_StartTwiceIsNoop(t *testing.T) {
	runner := newRecordingRunner()
	s := newTestScheduler(t, runner)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	assert.NoError(t, s.Start(context.Background()))
}
