// Package record implements the master-record repository using PostgreSQL.
// A master record holds the immutable natural key; business data lives in
// versions.
package record

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/lcsavb/autocusto-sub000/internal/adapter/postgres"
	"github.com/lcsavb/autocusto-sub000/internal/domain"
)

// Repo provides master-record persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new record repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const recordColumns = `id, kind, natural_key, display_name, created_at, updated_at`

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a master record by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Record, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	row := q.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM records WHERE id = $1`, id)

	rec, err := scanRecord(row)
	if err != nil {
		return nil, mapError(err, id)
	}
	return rec, nil
}

// FindByNaturalKey returns the master record for a normalized natural key.
// Returns domain.ErrNotFound when no record exists for (kind, key).
func (r *Repo) FindByNaturalKey(ctx context.Context, kind domain.RecordKind, key string) (*domain.Record, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	row := q.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM records WHERE kind = $1 AND natural_key = $2`,
		string(kind), key)

	rec, err := scanRecord(row)
	if err != nil {
		return nil, mapError(err, uuid.Nil)
	}
	return rec, nil
}

// ListWithoutVersions returns master records that have no version at all.
// These are legacy rows that predate the versioning system; the backfill
// tool repairs them.
func (r *Repo) ListWithoutVersions(ctx context.Context, limit int) ([]domain.Record, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx,
		`SELECT r.id, r.kind, r.natural_key, r.display_name, r.created_at, r.updated_at
		   FROM records r
		   LEFT JOIN record_versions v ON v.record_id = r.id
		  WHERE v.id IS NULL
		  ORDER BY r.created_at
		  LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list records without versions: %w", err)
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a new master record. Returns domain.ErrAlreadyExists when a
// record with the same (kind, natural_key) is already present; the natural
// key is unique and immutable for the record's lifetime.
func (r *Repo) Create(ctx context.Context, rec *domain.Record) (*domain.Record, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	row := q.QueryRow(ctx,
		`INSERT INTO records (id, kind, natural_key, display_name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+recordColumns,
		rec.ID, string(rec.Kind), rec.NaturalKey, rec.DisplayName, rec.CreatedAt, rec.UpdatedAt)

	created, err := scanRecord(row)
	if err != nil {
		return nil, mapError(err, rec.ID)
	}
	return created, nil
}

// SetDisplayName backfills the compatibility mirror. It is the only mutation
// a master record ever receives after creation.
func (r *Repo) SetDisplayName(ctx context.Context, id uuid.UUID, name string) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx,
		`UPDATE records SET display_name = $2, updated_at = $3 WHERE id = $1`,
		id, name, time.Now().UTC())
	if err != nil {
		return mapError(err, id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("record %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Error mapping and scanning
// ---------------------------------------------------------------------------

// mapError converts pgx/pgconn errors into domain errors.
func mapError(err error, id uuid.UUID) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("record %s: %w", id, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("record %s: %w", id, domain.ErrNotFound)
	}

	if _, ok := postgres.UniqueViolation(err); ok {
		return fmt.Errorf("record %s: %w", id, domain.ErrAlreadyExists)
	}
	if postgres.IsCheckViolation(err) {
		return fmt.Errorf("record %s: %w", id, domain.ErrValidation)
	}

	return fmt.Errorf("record %s: %w", id, err)
}

func scanRecord(row pgx.Row) (*domain.Record, error) {
	var (
		rec  domain.Record
		kind string
	)
	if err := row.Scan(&rec.ID, &kind, &rec.NaturalKey, &rec.DisplayName, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.Kind = domain.RecordKind(kind)
	return &rec, nil
}
