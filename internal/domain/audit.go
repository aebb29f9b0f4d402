package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditEventType classifies security and lifecycle events.
type AuditEventType string

const (
	// AuditAccessDenied: a resolve was refused (no grant, or strict policy
	// with no assignment).
	AuditAccessDenied AuditEventType = "access_denied"
	// AuditFallbackApplied: the fallback-latest-active policy substituted a
	// version for a grant without an assignment.
	AuditFallbackApplied AuditEventType = "fallback_applied"
	AuditRecordCreated   AuditEventType = "record_created"
	AuditVersionCreated  AuditEventType = "version_created"
	// AuditBackfillApplied: a legacy record or grant was repaired by the
	// backfill tool.
	AuditBackfillApplied AuditEventType = "backfill_applied"
)

// AuditEvent is an append-only security/lifecycle event. Events name the
// record's natural key, never version content.
type AuditEvent struct {
	ID         uuid.UUID
	UserID     *uuid.UUID
	RecordID   *uuid.UUID
	NaturalKey string
	Type       AuditEventType
	Details    map[string]any
	CreatedAt  time.Time
}

// User is a minimal account row (a prescribing doctor). Account management
// lives outside this module; the type exists as the owner of grants and
// versions.
type User struct {
	ID        uuid.UUID
	Email     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
