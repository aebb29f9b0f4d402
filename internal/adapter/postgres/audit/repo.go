// Package audit implements the append-only audit trail using PostgreSQL.
// Events are written whenever isolation denies access or a policy fallback
// fires, and whenever records, versions, or backfills are created.
package audit

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

// Repo provides audit-event persistence backed by PostgreSQL. Events are
// insert-only; nothing updates or deletes them.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new audit repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const eventColumns = `id, user_id, record_id, natural_key, event_type, details, created_at`

// Create appends an audit event.
func (r *Repo) Create(ctx context.Context, ev *domain.AuditEvent) (*domain.AuditEvent, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	detailsJSON, err := json.Marshal(ev.Details)
	if err != nil {
		return nil, fmt.Errorf("audit event %s: marshal details: %w", ev.ID, err)
	}

	row := q.QueryRow(ctx,
		`INSERT INTO audit_events (id, user_id, record_id, natural_key, event_type, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+eventColumns,
		ev.ID, ev.UserID, ev.RecordID, ev.NaturalKey, string(ev.Type), detailsJSON, ev.CreatedAt)

	created, err := scanEvent(row)
	if err != nil {
		return nil, mapError(err, ev.ID)
	}
	return created, nil
}

// ListByRecord returns a record's audit events, newest first.
func (r *Repo) ListByRecord(ctx context.Context, recordID uuid.UUID, limit int) ([]domain.AuditEvent, error) {
	return r.list(ctx,
		`SELECT `+eventColumns+` FROM audit_events
		  WHERE record_id = $1
		  ORDER BY created_at DESC, id
		  LIMIT $2`, recordID, limit)
}

// ListByUser returns a user's audit events, newest first.
func (r *Repo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.AuditEvent, error) {
	return r.list(ctx,
		`SELECT `+eventColumns+` FROM audit_events
		  WHERE user_id = $1
		  ORDER BY created_at DESC, id
		  LIMIT $2`, userID, limit)
}

func (r *Repo) list(ctx context.Context, sql string, args ...any) ([]domain.AuditEvent, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []domain.AuditEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

func mapError(err error, id uuid.UUID) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("audit event %s: %w", id, domain.ErrNotFound)
	}
	return fmt.Errorf("audit event %s: %w", id, err)
}

func scanEvent(row pgx.Row) (*domain.AuditEvent, error) {
	var (
		ev          domain.AuditEvent
		eventType   string
		detailsJSON []byte
	)
	if err := row.Scan(&ev.ID, &ev.UserID, &ev.RecordID, &ev.NaturalKey, &eventType, &detailsJSON, &ev.CreatedAt); err != nil {
		return nil, err
	}
	if len(detailsJSON) > 0 {
		if err := json.Unmarshal(detailsJSON, &ev.Details); err != nil {
			return nil, fmt.Errorf("decode details for audit event %s: %w", ev.ID, err)
		}
	}
	ev.Type = domain.AuditEventType(eventType)
	return &ev, nil
}
