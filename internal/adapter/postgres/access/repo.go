// Package access implements the grant and version-assignment repositories
// using PostgreSQL. Grants are the only path from a user to a record: a query
// that does not start from a grant row cannot leak another user's data.
package access

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

// Repo provides grant and assignment persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new access repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const grantColumns = `id, record_id, user_id, created_at`

// ---------------------------------------------------------------------------
// Grants
// ---------------------------------------------------------------------------

// CreateGrant inserts a new access grant. Returns domain.ErrAlreadyExists
// when the user already holds a grant for the record.
func (r *Repo) CreateGrant(ctx context.Context, g *domain.AccessGrant) (*domain.AccessGrant, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	row := q.QueryRow(ctx,
		`INSERT INTO access_grants (id, record_id, user_id, created_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+grantColumns,
		g.ID, g.RecordID, g.UserID, g.CreatedAt)

	created, err := scanGrant(row)
	if err != nil {
		return nil, mapError(err, g.ID)
	}
	return created, nil
}

// GetGrant returns the user's grant for a record. Orphaned grants (record or
// user nulled out by deletion) never match; to every caller they are
// indistinguishable from no grant at all.
func (r *Repo) GetGrant(ctx context.Context, recordID, userID uuid.UUID) (*domain.AccessGrant, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	row := q.QueryRow(ctx,
		`SELECT `+grantColumns+` FROM access_grants
		  WHERE record_id = $1 AND user_id = $2`,
		recordID, userID)

	g, err := scanGrant(row)
	if err != nil {
		return nil, mapError(err, recordID)
	}
	return g, nil
}

// GetGrantByID returns a non-orphaned grant by primary key.
func (r *Repo) GetGrantByID(ctx context.Context, id uuid.UUID) (*domain.AccessGrant, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	row := q.QueryRow(ctx,
		`SELECT `+grantColumns+` FROM access_grants
		  WHERE id = $1 AND record_id IS NOT NULL AND user_id IS NOT NULL`, id)

	g, err := scanGrant(row)
	if err != nil {
		return nil, mapError(err, id)
	}
	return g, nil
}

// ListGrantsByUser returns every non-orphaned grant the user holds, newest
// record first.
func (r *Repo) ListGrantsByUser(ctx context.Context, userID uuid.UUID) ([]domain.AccessGrant, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx,
		`SELECT `+grantColumns+` FROM access_grants
		  WHERE user_id = $1 AND record_id IS NOT NULL
		  ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list grants for user %s: %w", userID, err)
	}
	defer rows.Close()

	var grants []domain.AccessGrant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		grants = append(grants, *g)
	}
	return grants, rows.Err()
}

// ListGrantsByRecord returns every non-orphaned grant on a record. Used by
// the backfill tool to repair assignments for legacy rows.
func (r *Repo) ListGrantsByRecord(ctx context.Context, recordID uuid.UUID) ([]domain.AccessGrant, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx,
		`SELECT `+grantColumns+` FROM access_grants
		  WHERE record_id = $1 AND user_id IS NOT NULL
		  ORDER BY created_at, id`, recordID)
	if err != nil {
		return nil, fmt.Errorf("list grants for record %s: %w", recordID, err)
	}
	defer rows.Close()

	var grants []domain.AccessGrant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		grants = append(grants, *g)
	}
	return grants, rows.Err()
}

// ---------------------------------------------------------------------------
// Assignments
// ---------------------------------------------------------------------------

// UpsertAssignment points a grant at a version, replacing any previous
// assignment. The grant_id uniqueness constraint enforces the one-assignment-
// per-grant invariant.
func (r *Repo) UpsertAssignment(ctx context.Context, grantID, versionID uuid.UUID) (*domain.VersionAssignment, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	row := q.QueryRow(ctx,
		`INSERT INTO version_assignments (id, grant_id, version_id, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (grant_id)
		 DO UPDATE SET version_id = EXCLUDED.version_id, updated_at = EXCLUDED.updated_at
		 RETURNING id, grant_id, version_id, updated_at`,
		uuid.New(), grantID, versionID, time.Now().UTC())

	var a domain.VersionAssignment
	if err := row.Scan(&a.ID, &a.GrantID, &a.VersionID, &a.UpdatedAt); err != nil {
		return nil, mapError(err, grantID)
	}
	return &a, nil
}

// GetAssignment returns the grant's version assignment, or domain.ErrNotFound
// when the grant has none.
func (r *Repo) GetAssignment(ctx context.Context, grantID uuid.UUID) (*domain.VersionAssignment, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	row := q.QueryRow(ctx,
		`SELECT id, grant_id, version_id, updated_at
		   FROM version_assignments WHERE grant_id = $1`, grantID)

	var a domain.VersionAssignment
	if err := row.Scan(&a.ID, &a.GrantID, &a.VersionID, &a.UpdatedAt); err != nil {
		return nil, mapError(err, grantID)
	}
	return &a, nil
}

// DeleteAssignment removes the grant's version assignment. Deleting a missing
// assignment is not an error: the end state is the same.
func (r *Repo) DeleteAssignment(ctx context.Context, grantID uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	_, err := q.Exec(ctx,
		`DELETE FROM version_assignments WHERE grant_id = $1`, grantID)
	if err != nil {
		return mapError(err, grantID)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Search
// ---------------------------------------------------------------------------

// Candidate is one row of the accessible-record search: the grant, the
// record identity it points at, and whether the grant currently has a
// version assignment. Candidates with Assigned=false still need policy
// resolution before they can be shown.
type Candidate struct {
	Grant      domain.AccessGrant
	Kind       domain.RecordKind
	NaturalKey string
	Assigned   bool
}

// SearchAccessible returns the user's accessible records matching the
// filter. Every row originates from one of the user's own grants, so results
// can never include a record the user has no grant for.
func (r *Repo) SearchAccessible(ctx context.Context, userID uuid.UUID, f SearchFilter) ([]Candidate, error) {
	f.normalize()

	sql, args, err := buildSearchQuery(userID, f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build search query: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("search accessible records for user %s: %w", userID, err)
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		var (
			c    Candidate
			kind string
		)
		if err := rows.Scan(
			&c.Grant.ID, &c.Grant.RecordID, &c.Grant.UserID, &c.Grant.CreatedAt,
			&kind, &c.NaturalKey, &c.Assigned,
		); err != nil {
			return nil, fmt.Errorf("scan search candidate: %w", err)
		}
		c.Kind = domain.RecordKind(kind)
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// ---------------------------------------------------------------------------
// Error mapping
// ---------------------------------------------------------------------------

func mapError(err error, id uuid.UUID) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("access %s: %w", id, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("access %s: %w", id, domain.ErrNotFound)
	}

	if _, ok := postgres.UniqueViolation(err); ok {
		return fmt.Errorf("access %s: %w", id, domain.ErrAlreadyExists)
	}
	if postgres.IsForeignKeyViolation(err) {
		return fmt.Errorf("access %s: %w", id, domain.ErrNotFound)
	}

	return fmt.Errorf("access %s: %w", id, err)
}

func scanGrant(row pgx.Row) (*domain.AccessGrant, error) {
	var g domain.AccessGrant
	if err := row.Scan(&g.ID, &g.RecordID, &g.UserID, &g.CreatedAt); err != nil {
		return nil, err
	}
	return &g, nil
}
