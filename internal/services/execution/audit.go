package execution

import (
	"context"

	"github.com/raeisisep-star/titan/internal/common"
	"github.com/raeisisep-star/titan/internal/interfaces"
	"github.com/raeisisep-star/titan/internal/models"
)

// Compile-time interface check
var _ interfaces.AuditSink = (*StoreAuditSink)(nil)

// StoreAuditSink appends events to the audit store. Audit writes are
// best-effort: a failed append is logged but never fails the order that
// produced it.
type StoreAuditSink struct {
	store  interfaces.AuditStore
	logger *common.Logger
}

// NewStoreAuditSink creates an audit sink over the given store.
func NewStoreAuditSink(store interfaces.AuditStore, logger *common.Logger) *StoreAuditSink {
	return &StoreAuditSink{store: store, logger: logger}
}

// Record appends one audit event.
func (s *StoreAuditSink) Record(ctx context.Context, event *models.AuditEvent) {
	if err := s.store.Append(ctx, event); err != nil {
		s.logger.Error().
			Err(err).
			Str("event_type", event.EventType).
			Msg("Failed to append audit event")
	}
}
