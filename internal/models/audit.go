package models

import "time"

// AuditSeverity ranks audit events
type AuditSeverity string

const (
	AuditSeverityInfo     AuditSeverity = "info"
	AuditSeverityWarning  AuditSeverity = "warning"
	AuditSeverityError    AuditSeverity = "error"
	AuditSeverityCritical AuditSeverity = "critical"
)

// Audit event types emitted by the execution engine and strategy runner.
const (
	AuditEventOrderSubmitted      = "order_submitted"
	AuditEventOrderFilled         = "order_filled"
	AuditEventOrderRejected       = "order_rejected"
	AuditEventOrderCanceled       = "order_canceled"
	AuditEventStrategyRun         = "strategy_run"
	AuditEventStrategyDegraded    = "strategy_degraded"
	AuditEventStrategyReactivated = "strategy_reactivated"
	AuditEventStateError          = "state_transition_error"
)

// AuditEvent is one append-only record of an order/trade lifecycle event.
type AuditEvent struct {
	ID                string            `json:"id" badgerhold:"key"` // uuid
	EventType         string            `json:"event_type" badgerhold:"index"`
	Severity          AuditSeverity     `json:"severity"`
	Message           string            `json:"message"`
	UserID            string            `json:"user_id" badgerhold:"index"`
	RelatedEntityType string            `json:"related_entity_type,omitempty"` // "order", "trade", "strategy"
	RelatedEntityID   int64             `json:"related_entity_id,omitempty"`
	Details           map[string]string `json:"details,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}
