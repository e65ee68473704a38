package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/timshannon/badgerhold/v4"

	"github.com/raeisisep-star/titan/internal/common"
	"github.com/raeisisep-star/titan/internal/models"
)

type auditStorage struct {
	store  *Store
	logger *common.Logger
}

// NewAuditStorage creates a new AuditStore backed by BadgerHold.
func NewAuditStorage(store *Store, logger *common.Logger) *auditStorage {
	return &auditStorage{store: store, logger: logger}
}

func (s *auditStorage) Append(_ context.Context, event *models.AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if err := s.store.db.Insert(event.ID, event); err != nil {
		return fmt.Errorf("failed to append audit event %s: %w", event.EventType, err)
	}
	return nil
}

func (s *auditStorage) Recent(_ context.Context, limit int) ([]*models.AuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []*models.AuditEvent
	query := badgerhold.Where("CreatedAt").Ge(time.Time{}).
		SortBy("CreatedAt").Reverse().Limit(limit)
	if err := s.store.db.Find(&events, query); err != nil {
		return nil, fmt.Errorf("failed to list recent audit events: %w", err)
	}
	return events, nil
}

func (s *auditStorage) ListByEntity(_ context.Context, entityType string, entityID int64) ([]*models.AuditEvent, error) {
	var events []*models.AuditEvent
	query := badgerhold.Where("RelatedEntityType").Eq(entityType).
		And("RelatedEntityID").Eq(entityID).
		SortBy("CreatedAt")
	if err := s.store.db.Find(&events, query); err != nil {
		return nil, fmt.Errorf("failed to list audit events for %s %d: %w", entityType, entityID, err)
	}
	return events, nil
}
