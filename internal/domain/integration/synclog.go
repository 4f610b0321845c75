package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// SyncLog enumerations
// ---------------------------------------------------------------------------

// SyncKind distinguishes full reconciliation passes from targeted ones
type SyncKind string

const (
	// SyncKindFull is an end-to-end reconciliation of every mapping
	SyncKindFull SyncKind = "FULL"
	// SyncKindIncremental is a single-item or webhook-driven update
	SyncKindIncremental SyncKind = "INCREMENTAL"
)

// IsValid returns true if the kind is valid
func (k SyncKind) IsValid() bool {
	return k == SyncKindFull || k == SyncKindIncremental
}

// SyncTrigger records what started a sync attempt
type SyncTrigger string

const (
	// SyncTriggerManual is a user-initiated sync
	SyncTriggerManual SyncTrigger = "MANUAL"
	// SyncTriggerScheduled is a timer-initiated sync
	SyncTriggerScheduled SyncTrigger = "SCHEDULED"
	// SyncTriggerWebhook is an inbound-event-initiated sync
	SyncTriggerWebhook SyncTrigger = "WEBHOOK"
)

// IsValid returns true if the trigger is valid
func (t SyncTrigger) IsValid() bool {
	switch t {
	case SyncTriggerManual, SyncTriggerScheduled, SyncTriggerWebhook:
		return true
	default:
		return false
	}
}

// SyncLogStatus is the lifecycle state of one sync attempt
type SyncLogStatus string

const (
	// SyncLogStatusStarted indicates the pass is in flight
	SyncLogStatusStarted SyncLogStatus = "STARTED"
	// SyncLogStatusCompleted indicates the pass finished cleanly
	SyncLogStatusCompleted SyncLogStatus = "COMPLETED"
	// SyncLogStatusFailed indicates the pass aborted with an error
	SyncLogStatusFailed SyncLogStatus = "FAILED"
)

// IsValid returns true if the status is valid
func (s SyncLogStatus) IsValid() bool {
	switch s {
	case SyncLogStatusStarted, SyncLogStatusCompleted, SyncLogStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of SyncLogStatus
func (s SyncLogStatus) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// SyncLogEntry Entity
// ---------------------------------------------------------------------------

// SyncLogEntry is the append-only audit record of one sync attempt. After
// completion nothing mutates it except the status transition and the final
// counts written by that transition.
type SyncLogEntry struct {
	// ID is the unique identifier of this entry
	ID uuid.UUID
	// ConnectionID is the connection the attempt ran against
	ConnectionID uuid.UUID
	// Kind is full or incremental
	Kind SyncKind
	// Trigger records what started the attempt
	Trigger SyncTrigger
	// Status is the lifecycle state
	Status SyncLogStatus
	// Pushed counts local quantities written to the remote side
	Pushed int
	// Pulled counts remote quantities written into the local store
	Pulled int
	// ErrorCount counts per-item failures inside the pass
	ErrorCount int
	// Detail is free-form outcome detail (error cause, conflict notes)
	Detail string
	// StartedAt is when the attempt began
	StartedAt time.Time
	// CompletedAt is when the attempt reached a terminal status
	CompletedAt *time.Time
}

// NewSyncLogEntry opens a log entry in the STARTED state
func NewSyncLogEntry(connectionID uuid.UUID, kind SyncKind, trigger SyncTrigger) *SyncLogEntry {
	return &SyncLogEntry{
		ID:           uuid.New(),
		ConnectionID: connectionID,
		Kind:         kind,
		Trigger:      trigger,
		Status:       SyncLogStatusStarted,
		StartedAt:    time.Now(),
	}
}

// Complete transitions the entry to COMPLETED and records final counts
func (e *SyncLogEntry) Complete(pushed, pulled, errorCount int, detail string) {
	now := time.Now()
	e.Status = SyncLogStatusCompleted
	e.Pushed = pushed
	e.Pulled = pulled
	e.ErrorCount = errorCount
	e.Detail = detail
	e.CompletedAt = &now
}

// Fail transitions the entry to FAILED with the causing error. Counts from
// partial progress are kept: already-applied mapping updates are not rolled
// back.
func (e *SyncLogEntry) Fail(pushed, pulled, errorCount int, cause string) {
	now := time.Now()
	e.Status = SyncLogStatusFailed
	e.Pushed = pushed
	e.Pulled = pulled
	e.ErrorCount = errorCount
	e.Detail = cause
	e.CompletedAt = &now
}

// ---------------------------------------------------------------------------
// SyncLogRepository Interface
// ---------------------------------------------------------------------------

// SyncLogRepository defines persistence for sync log entries
type SyncLogRepository interface {
	// Save creates or updates a log entry
	Save(ctx context.Context, entry *SyncLogEntry) error

	// FindByConnection returns entries for a connection, newest first
	FindByConnection(ctx context.Context, connectionID uuid.UUID, limit int) ([]SyncLogEntry, error)

	// DeleteByConnection removes all entries of a connection
	DeleteByConnection(ctx context.Context, connectionID uuid.UUID) error
}
