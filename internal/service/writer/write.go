package writer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lcsavb/autocusto-sub000/internal/domain"
	"github.com/lcsavb/autocusto-sub000/pkg/ctxutil"
)

// CreateOrUpdate saves an entity under its natural key for the calling user.
//
// If no record exists for (kind, key), it creates the master record, version
// number 1, the writer's grant, and their assignment, all in one
// transaction. If the record exists, it appends the next version and points
// the writer's assignment at it; other users' assignments are untouched.
//
// A payload equivalent to the writer's current effective version writes
// nothing and returns that version with Reused=true.
//
// Races on record creation and version numbering are retried up to the
// configured bound.
func (s *Service) CreateOrUpdate(ctx context.Context, input WriteInput) (*WriteResult, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	key := domain.NormalizeNaturalKey(input.NaturalKey)
	if err := input.Kind.ValidateNaturalKey(key); err != nil {
		return nil, err
	}
	fields := input.Fields.Clone()

	for attempt := 1; attempt <= s.cfg.MaxWriteRetries; attempt++ {
		rec, err := s.records.FindByNaturalKey(ctx, input.Kind, key)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("find record: %w", err)
			}

			result, cerr := s.createRecord(ctx, userID, input.Kind, key, fields, input.ChangeSummary)
			if errors.Is(cerr, domain.ErrAlreadyExists) {
				// Lost the creation race; the record now exists, take the
				// append path on the next attempt.
				s.log.Info("record creation race lost, retrying",
					"kind", input.Kind, "attempt", attempt)
				continue
			}
			return result, cerr
		}

		result, uerr := s.appendVersion(ctx, userID, rec, fields, input.ChangeSummary)
		if errors.Is(uerr, domain.ErrVersionConflict) {
			s.metrics.VersionConflictRetries.Inc()
			s.log.Info("version number race lost, retrying",
				"record_id", rec.ID, "attempt", attempt)
			continue
		}
		return result, uerr
	}

	return nil, fmt.Errorf("save %s %s: retries exhausted: %w", input.Kind, key, domain.ErrVersionConflict)
}

// createRecord registers a brand-new entity: master record, version 1, the
// writer's grant and assignment, atomically.
func (s *Service) createRecord(ctx context.Context, userID uuid.UUID, kind domain.RecordKind, key string, fields domain.Fields, summary string) (*WriteResult, error) {
	now := time.Now().UTC()
	name := domain.NormalizeFieldValue(fields[domain.FieldName])

	rec := &domain.Record{
		ID:   uuid.New(),
		Kind: kind,
		// The compatibility mirror is written once, at creation; it is
		// never updated from later versions.
		NaturalKey:  key,
		DisplayName: name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	version := &domain.Version{
		ID:            uuid.New(),
		RecordID:      rec.ID,
		VersionNumber: 1,
		Fields:        fields,
		ChangeSummary: summary,
		Status:        domain.VersionStatusActive,
		CreatedBy:     &userID,
		CreatedAt:     now,
	}

	grant := &domain.AccessGrant{
		ID:        uuid.New(),
		RecordID:  rec.ID,
		UserID:    userID,
		CreatedAt: now,
	}

	txErr := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		created, err := s.records.Create(txCtx, rec)
		if err != nil {
			return err
		}
		rec = created

		if version, err = s.versions.Create(txCtx, version); err != nil {
			return fmt.Errorf("create first version: %w", err)
		}
		if grant, err = s.access.CreateGrant(txCtx, grant); err != nil {
			return fmt.Errorf("create grant: %w", err)
		}
		if _, err = s.access.UpsertAssignment(txCtx, grant.ID, version.ID); err != nil {
			return fmt.Errorf("create assignment: %w", err)
		}

		if err = s.writeAudit(txCtx, userID, rec, domain.AuditRecordCreated, map[string]any{"kind": string(kind)}); err != nil {
			return err
		}
		return s.writeAudit(txCtx, userID, rec, domain.AuditVersionCreated, map[string]any{"version_number": int64(1)})
	})
	if txErr != nil {
		if errors.Is(txErr, domain.ErrAlreadyExists) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, txErr
	}

	s.log.Info("record created",
		"record_id", rec.ID,
		"kind", kind,
		"user_id", userID)

	return &WriteResult{Record: rec, Version: version, WasCreated: true}, nil
}

// appendVersion saves a new version of an existing record for the writer and
// repoints their assignment. Returns domain.ErrVersionConflict when a
// concurrent writer claims the same version number.
func (s *Service) appendVersion(ctx context.Context, userID uuid.UUID, rec *domain.Record, fields domain.Fields, summary string) (*WriteResult, error) {
	grant, err := s.access.GetGrant(ctx, rec.ID, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load grant: %w", err)
	}

	// Equivalent payloads write nothing: saving the same data twice must not
	// grow the version history.
	if grant != nil {
		effective, eerr := s.effectiveVersion(ctx, rec, grant)
		if eerr != nil {
			return nil, eerr
		}
		if effective != nil && effective.Fields.EquivalentTo(fields) {
			return &WriteResult{Record: rec, Version: effective, Reused: true}, nil
		}
	}

	now := time.Now().UTC()
	var version *domain.Version

	txErr := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if grant == nil {
			created, gerr := s.access.CreateGrant(txCtx, &domain.AccessGrant{
				ID:        uuid.New(),
				RecordID:  rec.ID,
				UserID:    userID,
				CreatedAt: now,
			})
			if gerr != nil {
				return fmt.Errorf("create grant: %w", gerr)
			}
			grant = created
		}

		max, merr := s.versions.MaxVersionNumber(txCtx, rec.ID)
		if merr != nil {
			return merr
		}

		var verr error
		version, verr = s.versions.Create(txCtx, &domain.Version{
			ID:            uuid.New(),
			RecordID:      rec.ID,
			VersionNumber: max + 1,
			Fields:        fields,
			ChangeSummary: summary,
			Status:        domain.VersionStatusActive,
			CreatedBy:     &userID,
			CreatedAt:     now,
		})
		if verr != nil {
			return verr
		}

		if _, aerr := s.access.UpsertAssignment(txCtx, grant.ID, version.ID); aerr != nil {
			return fmt.Errorf("upsert assignment: %w", aerr)
		}

		return s.writeAudit(txCtx, userID, rec, domain.AuditVersionCreated, map[string]any{"version_number": version.VersionNumber})
	})
	if txErr != nil {
		return nil, txErr
	}

	s.log.Info("version appended",
		"record_id", rec.ID,
		"version_number", version.VersionNumber,
		"user_id", userID)

	return &WriteResult{Record: rec, Version: version}, nil
}

// effectiveVersion returns what the writer currently sees for the record:
// their assigned version, or under fallback-latest-active the record's
// latest active version, or nil when nothing is visible.
func (s *Service) effectiveVersion(ctx context.Context, rec *domain.Record, grant *domain.AccessGrant) (*domain.Version, error) {
	assignment, err := s.access.GetAssignment(ctx, grant.ID)
	if err == nil {
		v, verr := s.versions.GetByID(ctx, assignment.VersionID)
		if verr != nil {
			return nil, fmt.Errorf("load assigned version: %w", verr)
		}
		return v, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load assignment: %w", err)
	}

	if s.cfg.PolicyFor(rec.Kind) != domain.PolicyFallbackLatestActive {
		return nil, nil
	}

	v, err := s.versions.LatestActive(ctx, rec.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load latest active version: %w", err)
	}
	return v, nil
}

// writeAudit appends an audit event inside the write transaction. The event
// commits or rolls back together with the data it describes.
func (s *Service) writeAudit(ctx context.Context, userID uuid.UUID, rec *domain.Record, typ domain.AuditEventType, details map[string]any) error {
	_, err := s.audit.Create(ctx, &domain.AuditEvent{
		ID:         uuid.New(),
		UserID:     &userID,
		RecordID:   &rec.ID,
		NaturalKey: rec.NaturalKey,
		Type:       typ,
		Details:    details,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("audit %s: %w", typ, err)
	}
	return nil
}
