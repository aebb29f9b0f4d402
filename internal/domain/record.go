package domain

import (
	"time"

	"github.com/google/uuid"
)

// Record is the master row for a shared entity (clinic or patient). Exactly
// one exists per (kind, natural key). Its mutable business data lives in
// versions; the record itself only carries the immutable natural key and a
// small compatibility mirror for legacy readers.
type Record struct {
	ID         uuid.UUID
	Kind       RecordKind
	NaturalKey string

	// DisplayName mirrors the first version's name field. It exists for
	// legacy read paths only and is never authoritative: no resolve or
	// search result may be built from it.
	DisplayName string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// VersionStatus is the lifecycle state of a version.
type VersionStatus string

const (
	VersionStatusDraft    VersionStatus = "draft"
	VersionStatusActive   VersionStatus = "active"
	VersionStatusArchived VersionStatus = "archived"
)

// Valid reports whether the status is one of the known values.
func (s VersionStatus) Valid() bool {
	return s == VersionStatusDraft || s == VersionStatusActive || s == VersionStatusArchived
}

// Version is an immutable snapshot of a record's business fields. Edits never
// mutate a version; they produce a new one with the next version number.
type Version struct {
	ID            uuid.UUID
	RecordID      uuid.UUID
	VersionNumber int64
	Fields        Fields
	ChangeSummary string
	Status        VersionStatus

	// CreatedBy is nil when the creating user has since been removed.
	// Versions outlive their creators.
	CreatedBy *uuid.UUID
	CreatedAt time.Time
}

// Name returns the version's name field, the only payload key the engine
// itself interprets (for search and the compatibility mirror).
func (v *Version) Name() string {
	return v.Fields[FieldName]
}
