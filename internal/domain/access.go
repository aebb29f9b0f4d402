package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccessGrant is the membership edge giving a user visibility into a record,
// independent of which version they observe. One exists per (record, user).
//
// Deleting a record or a user orphans the grant (set-null in storage) rather
// than cascading, preserving the audit trail. Repositories only surface
// non-orphaned grants.
type AccessGrant struct {
	ID        uuid.UUID
	RecordID  uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
}

// VersionAssignment points an access grant at the one version its user
// currently observes. At most one exists per grant; a referenced version
// cannot be deleted while the assignment exists.
type VersionAssignment struct {
	ID        uuid.UUID
	GrantID   uuid.UUID
	VersionID uuid.UUID
	UpdatedAt time.Time
}
