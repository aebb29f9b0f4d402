package testhelper

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lcsavb/autocusto-sub000/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// uniqueDigits returns n unique decimal digits for natural keys.
func uniqueDigits(n int) string {
	const digits = "0123456789"
	id := uuid.New()
	out := make([]byte, n)
	for i := range out {
		out[i] = digits[int(id[i%len(id)])%len(digits)]
	}
	return string(out)
}

// SeedUser creates a user row. Returns a filled domain.User.
func SeedUser(t *testing.T, pool *pgxpool.Pool) domain.User {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	user := domain.User{
		ID:        uuid.New(),
		Email:     "testuser-" + suffix + "@example.com",
		Name:      "Test User " + suffix,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO users (id, email, name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Email, user.Name, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedUser insert user: %v", err)
	}

	return user
}

// SeedRecord creates a master record with a unique natural key of the right
// length for the kind. Returns a filled domain.Record.
func SeedRecord(t *testing.T, pool *pgxpool.Pool, kind domain.RecordKind) domain.Record {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	key := uniqueDigits(11)
	if kind == domain.KindClinic {
		key = uniqueDigits(7)
	}
	rec := domain.Record{
		ID:          uuid.New(),
		Kind:        kind,
		NaturalKey:  key,
		DisplayName: "Seeded " + string(kind) + " " + uniqueSuffix(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO records (id, kind, natural_key, display_name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, string(rec.Kind), rec.NaturalKey, rec.DisplayName, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedRecord insert record: %v", err)
	}

	return rec
}

// SeedVersion creates a version of a record with the given number and status.
func SeedVersion(t *testing.T, pool *pgxpool.Pool, recordID uuid.UUID, number int64, status domain.VersionStatus, fields domain.Fields) domain.Version {
	t.Helper()
	ctx := context.Background()

	if fields == nil {
		fields = domain.Fields{domain.FieldName: "Seeded Name " + uniqueSuffix()}
	}
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("testhelper: SeedVersion marshal fields: %v", err)
	}

	v := domain.Version{
		ID:            uuid.New(),
		RecordID:      recordID,
		VersionNumber: number,
		Fields:        fields,
		Status:        status,
		CreatedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO record_versions (id, record_id, version_number, fields, change_summary, status, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		v.ID, v.RecordID, v.VersionNumber, fieldsJSON, v.ChangeSummary, string(v.Status), v.CreatedBy, v.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedVersion insert version: %v", err)
	}

	return v
}

// SeedGrant creates an access grant linking a user to a record.
func SeedGrant(t *testing.T, pool *pgxpool.Pool, recordID, userID uuid.UUID) domain.AccessGrant {
	t.Helper()
	ctx := context.Background()

	g := domain.AccessGrant{
		ID:        uuid.New(),
		RecordID:  recordID,
		UserID:    userID,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO access_grants (id, record_id, user_id, created_at)
		 VALUES ($1, $2, $3, $4)`,
		g.ID, g.RecordID, g.UserID, g.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedGrant insert grant: %v", err)
	}

	return g
}

// SeedAssignment points a grant at a version.
func SeedAssignment(t *testing.T, pool *pgxpool.Pool, grantID, versionID uuid.UUID) domain.VersionAssignment {
	t.Helper()
	ctx := context.Background()

	a := domain.VersionAssignment{
		ID:        uuid.New(),
		GrantID:   grantID,
		VersionID: versionID,
		UpdatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO version_assignments (id, grant_id, version_id, updated_at)
		 VALUES ($1, $2, $3, $4)`,
		a.ID, a.GrantID, a.VersionID, a.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedAssignment insert assignment: %v", err)
	}

	return a
}
