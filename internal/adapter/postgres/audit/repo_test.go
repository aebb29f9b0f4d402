package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lcsavb/autocusto-sub000/internal/adapter/postgres/audit"
	"github.com/lcsavb/autocusto-sub000/internal/adapter/postgres/testhelper"
	"github.com/lcsavb/autocusto-sub000/internal/domain"
)

func newRepo(t *testing.T) (*audit.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return audit.New(pool), pool
}

func buildEvent(userID, recordID *uuid.UUID, typ domain.AuditEventType) domain.AuditEvent {
	return domain.AuditEvent{
		ID:        uuid.New(),
		UserID:    userID,
		RecordID:  recordID,
		Type:      typ,
		Details:   map[string]any{"reason": "test"},
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestRepo_Create_HappyPath(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	user := testhelper.SeedUser(t, pool)
	rec := testhelper.SeedRecord(t, pool, domain.KindPatient)

	ev := buildEvent(&user.ID, &rec.ID, domain.AuditAccessDenied)
	ev.NaturalKey = rec.NaturalKey

	got, err := repo.Create(ctx, &ev)
	if err != nil {
		t.Fatalf("Create: unexpected error: %v", err)
	}
	if got.Type != domain.AuditAccessDenied {
		t.Errorf("Type mismatch: got %q", got.Type)
	}
	if got.NaturalKey != rec.NaturalKey {
		t.Errorf("NaturalKey mismatch: got %q", got.NaturalKey)
	}
	if got.Details["reason"] != "test" {
		t.Errorf("Details mismatch: got %v", got.Details)
	}
}

func TestRepo_Create_NilReferences(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)

	// System events (backfill) may have neither a user nor a record.
	ev := buildEvent(nil, nil, domain.AuditBackfillApplied)
	got, err := repo.Create(context.Background(), &ev)
	if err != nil {
		t.Fatalf("Create: unexpected error: %v", err)
	}
	if got.UserID != nil || got.RecordID != nil {
		t.Errorf("expected nil references, got user=%v record=%v", got.UserID, got.RecordID)
	}
}

func TestRepo_ListByRecord_NewestFirst(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	rec := testhelper.SeedRecord(t, pool, domain.KindClinic)

	older := buildEvent(nil, &rec.ID, domain.AuditRecordCreated)
	older.CreatedAt = time.Now().UTC().Add(-time.Hour).Truncate(time.Microsecond)
	if _, err := repo.Create(ctx, &older); err != nil {
		t.Fatalf("Create older: %v", err)
	}

	newer := buildEvent(nil, &rec.ID, domain.AuditVersionCreated)
	if _, err := repo.Create(ctx, &newer); err != nil {
		t.Fatalf("Create newer: %v", err)
	}

	got, err := repo.ListByRecord(ctx, rec.ID, 10)
	if err != nil {
		t.Fatalf("ListByRecord: unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].ID != newer.ID || got[1].ID != older.ID {
		t.Errorf("expected newest-first ordering")
	}
}

func TestRepo_ListByUser(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	user := testhelper.SeedUser(t, pool)
	other := testhelper.SeedUser(t, pool)
	rec := testhelper.SeedRecord(t, pool, domain.KindPatient)

	mine := buildEvent(&user.ID, &rec.ID, domain.AuditFallbackApplied)
	if _, err := repo.Create(ctx, &mine); err != nil {
		t.Fatalf("Create: %v", err)
	}
	theirs := buildEvent(&other.ID, &rec.ID, domain.AuditFallbackApplied)
	if _, err := repo.Create(ctx, &theirs); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.ListByUser(ctx, user.ID, 10)
	if err != nil {
		t.Fatalf("ListByUser: unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].ID != mine.ID {
		t.Errorf("expected own event, got %s", got[0].ID)
	}
}
