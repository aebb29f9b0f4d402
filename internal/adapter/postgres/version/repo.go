// Package version implements the record-version repository using PostgreSQL.
// Versions are immutable: the repository only ever inserts and reads them.
package version

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/lcsavb/autocusto-sub000/internal/adapter/postgres"
	"github.com/lcsavb/autocusto-sub000/internal/domain"
)

// Repo provides version persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new version repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const versionColumns = `id, record_id, version_number, fields, change_summary, status, created_by, created_at`

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a new version. The (record_id, version_number) uniqueness
// constraint is the authoritative guard against concurrent writers racing the
// max+1 computation; a violation surfaces as domain.ErrVersionConflict so the
// writer can retry with a freshly computed number.
func (r *Repo) Create(ctx context.Context, v *domain.Version) (*domain.Version, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	fieldsJSON, err := json.Marshal(v.Fields)
	if err != nil {
		return nil, fmt.Errorf("version %s: marshal fields: %w", v.ID, err)
	}

	row := q.QueryRow(ctx,
		`INSERT INTO record_versions (id, record_id, version_number, fields, change_summary, status, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+versionColumns,
		v.ID, v.RecordID, v.VersionNumber, fieldsJSON, v.ChangeSummary, string(v.Status), v.CreatedBy, v.CreatedAt)

	created, err := scanVersion(row)
	if err != nil {
		return nil, mapError(err, v.ID)
	}
	return created, nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a version by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Version, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	row := q.QueryRow(ctx,
		`SELECT `+versionColumns+` FROM record_versions WHERE id = $1`, id)

	v, err := scanVersion(row)
	if err != nil {
		return nil, mapError(err, id)
	}
	return v, nil
}

// MaxVersionNumber returns the highest version number for a record, or 0 when
// the record has no versions yet.
func (r *Repo) MaxVersionNumber(ctx context.Context, recordID uuid.UUID) (int64, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var max int64
	err := q.QueryRow(ctx,
		`SELECT COALESCE(MAX(version_number), 0) FROM record_versions WHERE record_id = $1`,
		recordID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max version number for record %s: %w", recordID, err)
	}
	return max, nil
}

// LatestActive returns the record's newest active version by version number.
// Used exclusively by the fallback-latest-active isolation policy.
func (r *Repo) LatestActive(ctx context.Context, recordID uuid.UUID) (*domain.Version, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	row := q.QueryRow(ctx,
		`SELECT `+versionColumns+` FROM record_versions
		  WHERE record_id = $1 AND status = 'active'
		  ORDER BY version_number DESC
		  LIMIT 1`, recordID)

	v, err := scanVersion(row)
	if err != nil {
		return nil, mapError(err, recordID)
	}
	return v, nil
}

// ListByRecord returns all versions of a record ordered by version number.
func (r *Repo) ListByRecord(ctx context.Context, recordID uuid.UUID) ([]domain.Version, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx,
		`SELECT `+versionColumns+` FROM record_versions
		  WHERE record_id = $1
		  ORDER BY version_number`, recordID)
	if err != nil {
		return nil, fmt.Errorf("list versions for record %s: %w", recordID, err)
	}
	defer rows.Close()

	var versions []domain.Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, *v)
	}
	return versions, rows.Err()
}

// ---------------------------------------------------------------------------
// Error mapping and scanning
// ---------------------------------------------------------------------------

// versionNumberConstraint is the uniqueness constraint on
// (record_id, version_number); see migrations.
const versionNumberConstraint = "record_versions_number_uq"

// mapError converts pgx/pgconn errors into domain errors. A violation of the
// version-number constraint becomes ErrVersionConflict (retryable); any other
// unique violation is a caller bug and maps to ErrAlreadyExists.
func mapError(err error, id uuid.UUID) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("version %s: %w", id, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("version %s: %w", id, domain.ErrNotFound)
	}

	if constraint, ok := postgres.UniqueViolation(err); ok {
		if constraint == versionNumberConstraint {
			return fmt.Errorf("version %s: %w", id, domain.ErrVersionConflict)
		}
		return fmt.Errorf("version %s: %w", id, domain.ErrAlreadyExists)
	}
	if postgres.IsForeignKeyViolation(err) {
		return fmt.Errorf("version %s: %w", id, domain.ErrNotFound)
	}
	if postgres.IsCheckViolation(err) {
		return fmt.Errorf("version %s: %w", id, domain.ErrValidation)
	}

	return fmt.Errorf("version %s: %w", id, err)
}

func scanVersion(row pgx.Row) (*domain.Version, error) {
	var (
		v          domain.Version
		status     string
		fieldsJSON []byte
	)
	if err := row.Scan(&v.ID, &v.RecordID, &v.VersionNumber, &fieldsJSON, &v.ChangeSummary, &status, &v.CreatedBy, &v.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(fieldsJSON, &v.Fields); err != nil {
		return nil, fmt.Errorf("decode fields for version %s: %w", v.ID, err)
	}
	v.Status = domain.VersionStatus(status)
	return &v, nil
}
