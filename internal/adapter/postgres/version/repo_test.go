package version_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lcsavb/autocusto-sub000/internal/adapter/postgres/testhelper"
	"github.com/lcsavb/autocusto-sub000/internal/adapter/postgres/version"
	"github.com/lcsavb/autocusto-sub000/internal/domain"
)

func newRepo(t *testing.T) (*version.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return version.New(pool), pool
}

func buildVersion(recordID uuid.UUID, number int64, name string) domain.Version {
	return domain.Version{
		ID:            uuid.New(),
		RecordID:      recordID,
		VersionNumber: number,
		Fields:        domain.Fields{domain.FieldName: name},
		Status:        domain.VersionStatusActive,
		CreatedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestRepo_Create_HappyPath(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	rec := testhelper.SeedRecord(t, pool, domain.KindPatient)
	user := testhelper.SeedUser(t, pool)

	v := buildVersion(rec.ID, 1, "Maria Silva")
	v.ChangeSummary = "initial import"
	v.CreatedBy = &user.ID

	got, err := repo.Create(ctx, &v)
	if err != nil {
		t.Fatalf("Create: unexpected error: %v", err)
	}

	if got.VersionNumber != 1 {
		t.Errorf("VersionNumber mismatch: got %d, want 1", got.VersionNumber)
	}
	if got.Fields[domain.FieldName] != "Maria Silva" {
		t.Errorf("name field mismatch: got %q", got.Fields[domain.FieldName])
	}
	if got.ChangeSummary != "initial import" {
		t.Errorf("ChangeSummary mismatch: got %q", got.ChangeSummary)
	}
	if got.CreatedBy == nil || *got.CreatedBy != user.ID {
		t.Errorf("CreatedBy mismatch: got %v, want %s", got.CreatedBy, user.ID)
	}
	if got.Status != domain.VersionStatusActive {
		t.Errorf("Status mismatch: got %q", got.Status)
	}
}

func TestRepo_Create_DuplicateNumberIsConflict(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	rec := testhelper.SeedRecord(t, pool, domain.KindClinic)

	v1 := buildVersion(rec.ID, 1, "Clinica A")
	if _, err := repo.Create(ctx, &v1); err != nil {
		t.Fatalf("Create first: %v", err)
	}

	v2 := buildVersion(rec.ID, 1, "Clinica B")
	_, err := repo.Create(ctx, &v2)
	assertIsDomainError(t, err, domain.ErrVersionConflict)
}

func TestRepo_Create_ConcurrentSameNumber(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	rec := testhelper.SeedRecord(t, pool, domain.KindPatient)

	const goroutines = 5
	var wg sync.WaitGroup
	wg.Add(goroutines)

	errs := make([]error, goroutines)
	for i := range goroutines {
		go func() {
			defer wg.Done()
			v := buildVersion(rec.ID, 1, "Concurrent")
			_, errs[i] = repo.Create(ctx, &v)
		}()
	}
	wg.Wait()

	// Exactly 1 should win the version number; the rest get a conflict.
	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else if !errors.Is(err, domain.ErrVersionConflict) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("expected exactly 1 success, got %d", successes)
	}
}

func TestRepo_Create_UnknownRecord(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)

	v := buildVersion(uuid.New(), 1, "Orphan")
	_, err := repo.Create(context.Background(), &v)
	assertIsDomainError(t, err, domain.ErrNotFound)
}

func TestRepo_MaxVersionNumber(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	rec := testhelper.SeedRecord(t, pool, domain.KindPatient)

	max, err := repo.MaxVersionNumber(ctx, rec.ID)
	if err != nil {
		t.Fatalf("MaxVersionNumber (empty): %v", err)
	}
	if max != 0 {
		t.Errorf("expected 0 for record with no versions, got %d", max)
	}

	testhelper.SeedVersion(t, pool, rec.ID, 1, domain.VersionStatusActive, nil)
	testhelper.SeedVersion(t, pool, rec.ID, 2, domain.VersionStatusActive, nil)
	testhelper.SeedVersion(t, pool, rec.ID, 3, domain.VersionStatusArchived, nil)

	max, err = repo.MaxVersionNumber(ctx, rec.ID)
	if err != nil {
		t.Fatalf("MaxVersionNumber: %v", err)
	}
	// Archived versions still count toward the numbering sequence.
	if max != 3 {
		t.Errorf("expected max 3, got %d", max)
	}
}

func TestRepo_LatestActive_SkipsDraftAndArchived(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	rec := testhelper.SeedRecord(t, pool, domain.KindClinic)
	testhelper.SeedVersion(t, pool, rec.ID, 1, domain.VersionStatusActive, nil)
	active2 := testhelper.SeedVersion(t, pool, rec.ID, 2, domain.VersionStatusActive, nil)
	testhelper.SeedVersion(t, pool, rec.ID, 3, domain.VersionStatusArchived, nil)
	testhelper.SeedVersion(t, pool, rec.ID, 4, domain.VersionStatusDraft, nil)

	got, err := repo.LatestActive(ctx, rec.ID)
	if err != nil {
		t.Fatalf("LatestActive: unexpected error: %v", err)
	}
	if got.ID != active2.ID {
		t.Errorf("expected version %s (number 2), got %s (number %d)", active2.ID, got.ID, got.VersionNumber)
	}
}

func TestRepo_LatestActive_NoneActive(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	rec := testhelper.SeedRecord(t, pool, domain.KindClinic)
	testhelper.SeedVersion(t, pool, rec.ID, 1, domain.VersionStatusArchived, nil)

	_, err := repo.LatestActive(ctx, rec.ID)
	assertIsDomainError(t, err, domain.ErrNotFound)
}

func TestRepo_ListByRecord_Ordered(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	rec := testhelper.SeedRecord(t, pool, domain.KindPatient)
	testhelper.SeedVersion(t, pool, rec.ID, 2, domain.VersionStatusActive, nil)
	testhelper.SeedVersion(t, pool, rec.ID, 1, domain.VersionStatusActive, nil)
	testhelper.SeedVersion(t, pool, rec.ID, 3, domain.VersionStatusActive, nil)

	got, err := repo.ListByRecord(ctx, rec.ID)
	if err != nil {
		t.Fatalf("ListByRecord: unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 versions, got %d", len(got))
	}
	for i, v := range got {
		if v.VersionNumber != int64(i+1) {
			t.Errorf("position %d: expected number %d, got %d", i, i+1, v.VersionNumber)
		}
	}
}

func assertIsDomainError(t *testing.T, err error, target error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error wrapping %v, got nil", target)
	}
	if !errors.Is(err, target) {
		t.Fatalf("expected error wrapping %v, got: %v", target, err)
	}
}
