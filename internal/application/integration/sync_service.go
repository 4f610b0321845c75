package integration

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stocklink/backend/internal/domain/catalog"
	"github.com/stocklink/backend/internal/domain/integration"
	"github.com/stocklink/backend/internal/domain/shared"
)

// SyncOrchestratorConfig holds tunables for the sync engine
type SyncOrchestratorConfig struct {
	// TokenRefreshWindow is how close to expiry a token triggers a refresh
	// before the pass starts talking to the platform
	TokenRefreshWindow time.Duration
	// WebhookDedupTTL is how long processed delivery IDs are remembered
	WebhookDedupTTL time.Duration
}

// DefaultSyncOrchestratorConfig returns default configuration
func DefaultSyncOrchestratorConfig() SyncOrchestratorConfig {
	return SyncOrchestratorConfig{
		TokenRefreshWindow: 10 * time.Minute,
		WebhookDedupTTL:    24 * time.Hour,
	}
}

// SyncOrchestrator runs reconciliation passes between the local ledger and
// remote storefronts. At most one pass runs at a time across the whole
// system: quantity baselines stored on mappings are only coherent when passes
// never interleave.
type SyncOrchestrator struct {
	connRepo    integration.ConnectionRepository
	mappingRepo integration.ProductMappingRepository
	syncLogRepo integration.SyncLogRepository
	productRepo catalog.ProductRepository
	adapters    AdapterFactory
	dedup       shared.IdempotencyStore
	config      SyncOrchestratorConfig
	status      *StatusBroadcaster
	logger      *zap.Logger

	busy atomic.Bool
}

// NewSyncOrchestrator creates a new sync orchestrator
func NewSyncOrchestrator(
	connRepo integration.ConnectionRepository,
	mappingRepo integration.ProductMappingRepository,
	syncLogRepo integration.SyncLogRepository,
	productRepo catalog.ProductRepository,
	adapters AdapterFactory,
	dedup shared.IdempotencyStore,
	config SyncOrchestratorConfig,
	logger *zap.Logger,
) *SyncOrchestrator {
	return &SyncOrchestrator{
		connRepo:    connRepo,
		mappingRepo: mappingRepo,
		syncLogRepo: syncLogRepo,
		productRepo: productRepo,
		adapters:    adapters,
		dedup:       dedup,
		config:      config,
		logger:      logger,
	}
}

// SetStatusBroadcaster wires an optional status fan-out. Without one the
// engine stays silent about its state.
func (s *SyncOrchestrator) SetStatusBroadcaster(b *StatusBroadcaster) {
	s.status = b
}

// Busy reports whether a sync pass is currently running
func (s *SyncOrchestrator) Busy() bool {
	return s.busy.Load()
}

func (s *SyncOrchestrator) publishStatus(connectionID uuid.UUID, state SyncState, detail string) {
	if s.status == nil {
		return
	}
	s.status.Publish(StatusUpdate{
		ConnectionID: connectionID,
		State:        state,
		Detail:       detail,
	})
}

// RunSync satisfies the scheduler's runner contract. A busy engine skips the
// tick silently; the next tick retries.
func (s *SyncOrchestrator) RunSync(ctx context.Context, connectionID uuid.UUID) error {
	_, err := s.RunPass(ctx, connectionID, integration.SyncTriggerScheduled)
	if errors.Is(err, integration.ErrSyncBusy) {
		s.logger.Debug("Scheduled sync skipped, engine busy",
			zap.String("connection_id", connectionID.String()),
		)
		return nil
	}
	return err
}

// pushPlanEntry is one pending remote write of a full pass
type pushPlanEntry struct {
	mapping  *integration.ProductMapping
	localQty decimal.Decimal
	conflict bool
}

// RunPass executes one full reconciliation pass for a connection.
//
// Per mapping, drift on each side is classified against the stored baseline:
// local-only drift pushes, remote-only drift pulls, drift on both sides is a
// conflict resolved in favor of the local ledger (the POS is the system of
// record for stock). Every pass is recorded in the sync log, including
// failed ones.
func (s *SyncOrchestrator) RunPass(ctx context.Context, connectionID uuid.UUID, trigger integration.SyncTrigger) (*SyncSummary, error) {
	conn, err := s.connRepo.FindByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if !conn.IsActive {
		return nil, integration.ErrConnectionInactive
	}
	if !conn.SyncEnabled {
		return nil, integration.ErrSyncDisabled
	}

	if !s.busy.CompareAndSwap(false, true) {
		return nil, integration.ErrSyncBusy
	}
	defer s.busy.Store(false)

	entry := integration.NewSyncLogEntry(conn.ID, integration.SyncKindFull, trigger)
	if err := s.syncLogRepo.Save(ctx, entry); err != nil {
		return nil, err
	}

	s.publishStatus(conn.ID, SyncStateSyncing, string(trigger))

	summary := &SyncSummary{ConnectionID: conn.ID}

	adapter, err := s.adapters.AdapterFor(conn)
	if err != nil {
		return nil, s.failPass(ctx, conn, entry, summary, err)
	}

	// Renew the token before the pass rather than mid-flight
	if conn.TokenExpiringWithin(s.config.TokenRefreshWindow) {
		if err := adapter.RefreshToken(ctx); err != nil {
			return nil, s.failPass(ctx, conn, entry, summary, fmt.Errorf("token refresh: %w", err))
		}
	}

	mappings, err := s.mappingRepo.FindByConnection(ctx, conn.ID)
	if err != nil {
		return nil, s.failPass(ctx, conn, entry, summary, err)
	}

	if len(mappings) == 0 {
		s.completePass(ctx, conn, entry, summary, "no mappings")
		return summary, nil
	}

	remoteQty, err := s.fetchRemoteQuantities(ctx, adapter, mappings)
	if err != nil {
		return nil, s.failPass(ctx, conn, entry, summary, err)
	}

	// Classification phase: pulls apply immediately, pushes are batched so
	// the adapter can use its bulk write path.
	var plan []pushPlanEntry
	for i := range mappings {
		mapping := &mappings[i]

		product, err := s.productRepo.FindByID(ctx, mapping.LocalProductID)
		if err != nil {
			summary.Errors++
			s.logger.Warn("Sync pass: local product lookup failed",
				zap.String("mapping_id", mapping.ID.String()),
				zap.Error(err),
			)
			continue
		}

		current, ok := remoteQty[mapping.RemoteInventoryItemID]
		if !ok {
			// The remote item vanished or stopped tracking stock
			summary.Errors++
			s.logger.Warn("Sync pass: no remote snapshot for mapping",
				zap.String("mapping_id", mapping.ID.String()),
				zap.String("remote_inventory_item_id", mapping.RemoteInventoryItemID),
			)
			continue
		}

		localChanged := mapping.LocalChanged(product.Quantity)
		remoteChanged := mapping.RemoteChanged(current)

		switch {
		case product.Quantity.Equal(current):
			// The sides agree, nothing to write in either direction. Refresh
			// the baselines when they went stale behind our back.
			summary.InSync++
			if mapping.Status != integration.MappingStatusSynced || localChanged || remoteChanged {
				mapping.MarkSynced(product.Quantity, current)
				if err := s.mappingRepo.Save(ctx, mapping); err != nil {
					summary.Errors++
				}
			}

		case localChanged && remoteChanged:
			summary.Conflicts++
			plan = append(plan, pushPlanEntry{mapping: mapping, localQty: product.Quantity, conflict: true})

		case localChanged:
			plan = append(plan, pushPlanEntry{mapping: mapping, localQty: product.Quantity})

		case remoteChanged:
			if err := s.pullQuantity(ctx, mapping, product, current); err != nil {
				summary.Errors++
				continue
			}
			summary.Pulled++

		default:
			// Neither side moved yet the quantities disagree, which only
			// happens with stale baselines. The local ledger wins.
			plan = append(plan, pushPlanEntry{mapping: mapping, localQty: product.Quantity})
		}
	}

	s.executePushPlan(ctx, adapter, plan, summary)

	detail := ""
	if summary.Conflicts > 0 {
		detail = fmt.Sprintf("%d conflicts resolved in favor of the local ledger", summary.Conflicts)
	}
	s.completePass(ctx, conn, entry, summary, detail)

	s.logger.Info("Sync pass completed",
		zap.String("connection_id", conn.ID.String()),
		zap.String("trigger", string(trigger)),
		zap.Int("pushed", summary.Pushed),
		zap.Int("pulled", summary.Pulled),
		zap.Int("conflicts", summary.Conflicts),
		zap.Int("errors", summary.Errors),
		zap.Int("in_sync", summary.InSync),
	)

	return summary, nil
}

// fetchRemoteQuantities reads the remote stock level for every mapping's
// handle, chunked to the adapter's batch limit.
func (s *SyncOrchestrator) fetchRemoteQuantities(ctx context.Context, adapter integration.ShopPlatform, mappings []integration.ProductMapping) (map[string]decimal.Decimal, error) {
	handles := make([]string, 0, len(mappings))
	for i := range mappings {
		handles = append(handles, mappings[i].RemoteInventoryItemID)
	}

	batchSize := adapter.InventoryBatchSize()
	if batchSize <= 0 {
		batchSize = len(handles)
	}

	quantities := make(map[string]decimal.Decimal, len(handles))
	for start := 0; start < len(handles); start += batchSize {
		end := start + batchSize
		if end > len(handles) {
			end = len(handles)
		}

		snapshots, err := adapter.FetchInventory(ctx, handles[start:end])
		if err != nil {
			return nil, fmt.Errorf("fetch inventory: %w", err)
		}
		for _, snap := range snapshots {
			quantities[snap.InventoryItemID] = snap.Quantity
		}
	}

	return quantities, nil
}

// pullQuantity writes a remote quantity into the local ledger with an audit
// adjustment, then records the new baseline on the mapping.
func (s *SyncOrchestrator) pullQuantity(ctx context.Context, mapping *integration.ProductMapping, product *catalog.Product, remoteQty decimal.Decimal) error {
	if err := s.productRepo.UpdateQuantity(ctx, product.ID, remoteQty); err != nil {
		s.logger.Warn("Sync pass: local quantity update failed",
			zap.String("mapping_id", mapping.ID.String()),
			zap.Error(err),
		)
		return err
	}

	adj := catalog.NewInventoryAdjustment(product.ID, product.Quantity, remoteQty, catalog.AdjustmentReasonPlatformSync)
	if err := s.productRepo.RecordAdjustment(ctx, adj); err != nil {
		s.logger.Warn("Sync pass: adjustment record failed",
			zap.String("mapping_id", mapping.ID.String()),
			zap.Error(err),
		)
	}

	mapping.MarkSynced(remoteQty, remoteQty)
	return s.mappingRepo.Save(ctx, mapping)
}

// executePushPlan applies all pending remote writes in one batch and settles
// each mapping from the per-item outcome.
func (s *SyncOrchestrator) executePushPlan(ctx context.Context, adapter integration.ShopPlatform, plan []pushPlanEntry, summary *SyncSummary) {
	if len(plan) == 0 {
		return
	}

	updates := make([]integration.InventoryUpdate, len(plan))
	byHandle := make(map[string]*pushPlanEntry, len(plan))
	for i := range plan {
		updates[i] = integration.InventoryUpdate{
			InventoryItemID: plan[i].mapping.RemoteInventoryItemID,
			Quantity:        plan[i].localQty,
		}
		byHandle[plan[i].mapping.RemoteInventoryItemID] = &plan[i]
	}

	result := adapter.UpdateInventory(ctx, updates)

	for _, handle := range result.Succeeded {
		item, ok := byHandle[handle]
		if !ok {
			continue
		}
		item.mapping.MarkSynced(item.localQty, item.localQty)
		if err := s.mappingRepo.Save(ctx, item.mapping); err != nil {
			summary.Errors++
			continue
		}
		summary.Pushed++
	}

	for _, failure := range result.Failed {
		summary.Errors++
		item, ok := byHandle[failure.InventoryItemID]
		if !ok {
			continue
		}
		if item.conflict {
			item.mapping.MarkConflict()
		} else {
			item.mapping.MarkPendingPush()
		}
		if err := s.mappingRepo.Save(ctx, item.mapping); err != nil {
			s.logger.Warn("Sync pass: mapping status save failed",
				zap.String("mapping_id", item.mapping.ID.String()),
				zap.Error(err),
			)
		}
		s.logger.Warn("Sync pass: remote write rejected",
			zap.String("remote_inventory_item_id", failure.InventoryItemID),
			zap.String("reason", failure.Message),
		)
	}
}

// failPass finalizes the log entry and connection state after a fatal error
func (s *SyncOrchestrator) failPass(ctx context.Context, conn *integration.Connection, entry *integration.SyncLogEntry, summary *SyncSummary, cause error) error {
	summary.Status = integration.SyncLogStatusFailed

	entry.Fail(summary.Pushed, summary.Pulled, summary.Errors, cause.Error())
	if err := s.syncLogRepo.Save(ctx, entry); err != nil {
		s.logger.Error("Failed to persist sync log entry", zap.Error(err))
	}

	conn.RecordSyncOutcome(integration.SyncLogStatusFailed, cause.Error())
	if err := s.connRepo.Save(ctx, conn); err != nil {
		s.logger.Error("Failed to persist connection sync outcome", zap.Error(err))
	}

	s.publishStatus(conn.ID, SyncStateError, cause.Error())

	s.logger.Error("Sync pass failed",
		zap.String("connection_id", conn.ID.String()),
		zap.Error(cause),
	)
	return cause
}

// completePass finalizes the log entry and connection state after a pass
func (s *SyncOrchestrator) completePass(ctx context.Context, conn *integration.Connection, entry *integration.SyncLogEntry, summary *SyncSummary, detail string) {
	summary.Status = integration.SyncLogStatusCompleted

	entry.Complete(summary.Pushed, summary.Pulled, summary.Errors, detail)
	if err := s.syncLogRepo.Save(ctx, entry); err != nil {
		s.logger.Error("Failed to persist sync log entry", zap.Error(err))
	}

	conn.RecordSyncOutcome(integration.SyncLogStatusCompleted, "")
	if err := s.connRepo.Save(ctx, conn); err != nil {
		s.logger.Error("Failed to persist connection sync outcome", zap.Error(err))
	}

	s.publishStatus(conn.ID, SyncStateIdle, detail)
}

// ---------------------------------------------------------------------------
// Push on change
// ---------------------------------------------------------------------------

// OnLocalQuantityChanged pushes a local stock edit to every mapped storefront
// immediately. When the engine is mid-pass the mapping is flagged pending
// instead; the running pass or the next one carries the change out.
func (s *SyncOrchestrator) OnLocalQuantityChanged(ctx context.Context, productID uuid.UUID, newQty decimal.Decimal) error {
	mappings, err := s.mappingRepo.FindByLocalProduct(ctx, productID)
	if err != nil {
		return err
	}
	if len(mappings) == 0 {
		return nil
	}

	if !s.busy.CompareAndSwap(false, true) {
		for i := range mappings {
			mappings[i].MarkPendingPush()
			if err := s.mappingRepo.Save(ctx, &mappings[i]); err != nil {
				s.logger.Warn("Failed to flag mapping pending push",
					zap.String("mapping_id", mappings[i].ID.String()),
					zap.Error(err),
				)
			}
		}
		return nil
	}
	defer s.busy.Store(false)

	for i := range mappings {
		mapping := &mappings[i]

		conn, err := s.connRepo.FindByID(ctx, mapping.ConnectionID)
		if err != nil {
			s.logger.Warn("Push on change: connection lookup failed",
				zap.String("mapping_id", mapping.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if !conn.IsActive || !conn.SyncEnabled {
			continue
		}

		s.pushSingle(ctx, conn, mapping, newQty)
	}

	return nil
}

// pushSingle writes one quantity to one connection and logs the attempt
func (s *SyncOrchestrator) pushSingle(ctx context.Context, conn *integration.Connection, mapping *integration.ProductMapping, qty decimal.Decimal) {
	entry := integration.NewSyncLogEntry(conn.ID, integration.SyncKindIncremental, integration.SyncTriggerManual)

	adapter, err := s.adapters.AdapterFor(conn)
	if err != nil {
		mapping.MarkPendingPush()
		_ = s.mappingRepo.Save(ctx, mapping)
		entry.Fail(0, 0, 1, err.Error())
		_ = s.syncLogRepo.Save(ctx, entry)
		return
	}

	result := adapter.UpdateInventory(ctx, []integration.InventoryUpdate{
		{InventoryItemID: mapping.RemoteInventoryItemID, Quantity: qty},
	})

	if result.AllSucceeded() {
		mapping.MarkSynced(qty, qty)
		if err := s.mappingRepo.Save(ctx, mapping); err != nil {
			s.logger.Warn("Push on change: mapping save failed",
				zap.String("mapping_id", mapping.ID.String()),
				zap.Error(err),
			)
		}
		entry.Complete(1, 0, 0, "")
	} else {
		mapping.MarkPendingPush()
		_ = s.mappingRepo.Save(ctx, mapping)
		detail := ""
		if len(result.Failed) > 0 {
			detail = result.Failed[0].Message
		}
		entry.Fail(0, 0, 1, detail)
	}

	if err := s.syncLogRepo.Save(ctx, entry); err != nil {
		s.logger.Error("Failed to persist sync log entry", zap.Error(err))
	}
}

// ---------------------------------------------------------------------------
// Webhook ingestion
// ---------------------------------------------------------------------------

// HandleWebhookEvent applies an inbound inventory notification. Redelivered
// notifications are acknowledged without effect via the dedup store; a
// delivery that fails mid-application is forgotten again so the platform's
// redelivery gets another attempt. An event carrying a quantity applies it
// directly; one without triggers a full pass, since the platform only
// signaled that something changed. When the local side has drifted since the
// last baseline the remote value is NOT applied: the local ledger wins and
// the mapping is flagged for push instead.
func (s *SyncOrchestrator) HandleWebhookEvent(ctx context.Context, event WebhookEvent) (result *WebhookResult, err error) {
	if event.DeliveryID == "" {
		return nil, integration.ErrMappingInvalidInput
	}

	fresh, err := s.dedup.MarkProcessed(ctx, event.DeliveryID, s.config.WebhookDedupTTL)
	if err != nil {
		return nil, err
	}
	if !fresh {
		s.logger.Debug("Webhook delivery already processed",
			zap.String("delivery_id", event.DeliveryID),
		)
		return &WebhookResult{Processed: false, Reason: "duplicate"}, nil
	}

	// An error after the mark means the delivery was not applied. Release
	// the mark so the redelivery is not swallowed as a duplicate.
	defer func() {
		if err == nil {
			return
		}
		if ferr := s.dedup.Forget(ctx, event.DeliveryID); ferr != nil {
			s.logger.Error("Failed to release webhook delivery mark",
				zap.String("delivery_id", event.DeliveryID),
				zap.Error(ferr),
			)
		}
	}()

	conn, err := s.connRepo.FindByID(ctx, event.ConnectionID)
	if err != nil {
		return nil, err
	}
	if !conn.IsActive || !conn.SyncEnabled {
		return &WebhookResult{Processed: false, Reason: "connection_disabled"}, nil
	}

	if event.Quantity == nil {
		// No quantity in the payload, reconcile the whole connection
		if _, err := s.RunPass(ctx, conn.ID, integration.SyncTriggerWebhook); err != nil {
			if errors.Is(err, integration.ErrSyncBusy) {
				// The running pass will pick the change up
				return &WebhookResult{Processed: false, Reason: "sync_busy"}, nil
			}
			return nil, err
		}
		return &WebhookResult{Processed: true, Reason: "full_pass"}, nil
	}

	if event.RemoteID == "" {
		return nil, integration.ErrMappingInvalidInput
	}

	mapping, err := s.mappingRepo.FindByRemoteIdentity(ctx, conn.ID, event.RemoteID)
	if err != nil {
		if errors.Is(err, integration.ErrMappingNotFound) {
			// Unmapped remote item: acknowledge so the platform stops retrying
			s.logger.Debug("Webhook for unmapped remote item",
				zap.String("connection_id", conn.ID.String()),
				zap.String("remote_id", event.RemoteID),
			)
			return &WebhookResult{Processed: false, Reason: "no_mapping"}, nil
		}
		return nil, err
	}

	product, err := s.productRepo.FindByID(ctx, mapping.LocalProductID)
	if err != nil {
		return nil, err
	}

	remoteQty := *event.Quantity
	entry := integration.NewSyncLogEntry(conn.ID, integration.SyncKindIncremental, integration.SyncTriggerWebhook)

	if mapping.LocalChanged(product.Quantity) {
		// Local drift outranks the webhook: keep our value, queue a push
		mapping.MarkPendingPush()
		if err := s.mappingRepo.Save(ctx, mapping); err != nil {
			return nil, err
		}
		entry.Complete(0, 0, 0, "local change outranks webhook, push queued")
		if err := s.syncLogRepo.Save(ctx, entry); err != nil {
			return nil, err
		}
		return &WebhookResult{Processed: true, Reason: "local_wins"}, nil
	}

	if product.Quantity.Equal(remoteQty) {
		mapping.MarkSynced(product.Quantity, remoteQty)
		if err := s.mappingRepo.Save(ctx, mapping); err != nil {
			return nil, err
		}
		entry.Complete(0, 0, 0, "already in sync")
		if err := s.syncLogRepo.Save(ctx, entry); err != nil {
			return nil, err
		}
		return &WebhookResult{Processed: true, Reason: "in_sync"}, nil
	}

	if err := s.pullQuantity(ctx, mapping, product, remoteQty); err != nil {
		entry.Fail(0, 0, 1, err.Error())
		_ = s.syncLogRepo.Save(ctx, entry)
		return nil, err
	}

	entry.Complete(0, 1, 0, "")
	if err := s.syncLogRepo.Save(ctx, entry); err != nil {
		s.logger.Error("Failed to persist sync log entry", zap.Error(err))
	}

	s.logger.Info("Webhook inventory change applied",
		zap.String("connection_id", conn.ID.String()),
		zap.String("remote_id", event.RemoteID),
		zap.String("quantity", remoteQty.String()),
	)

	return &WebhookResult{Processed: true}, nil
}

// ---------------------------------------------------------------------------
// History
// ---------------------------------------------------------------------------

// SyncHistory returns recent sync log entries for a connection, newest first
func (s *SyncOrchestrator) SyncHistory(ctx context.Context, connectionID uuid.UUID, limit int) ([]integration.SyncLogEntry, error) {
	return s.syncLogRepo.FindByConnection(ctx, connectionID, limit)
}
