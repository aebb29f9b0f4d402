package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lcsavb/autocusto-sub000/internal/domain"
	"github.com/lcsavb/autocusto-sub000/pkg/ctxutil"
)

// Resolve returns the version of a record the calling user is allowed to
// see. The outcome is always one of:
//
//   - the version their grant's assignment points at,
//   - the record's latest active version, when the kind's policy is
//     fallback-latest-active and the grant has no assignment,
//   - domain.ErrDenied.
//
// A missing record, a missing grant, and a strict-policy grant without an
// assignment all produce the same ErrDenied: callers cannot distinguish
// "does not exist" from "exists but not yours".
func (s *Service) Resolve(ctx context.Context, recordID uuid.UUID) (*domain.Version, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	rec, err := s.records.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrDenied
		}
		return nil, fmt.Errorf("load record: %w", err)
	}

	grant, err := s.access.GetGrant(ctx, recordID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.deny(ctx, userID, rec, "no grant")
			return nil, domain.ErrDenied
		}
		return nil, fmt.Errorf("load grant: %w", err)
	}

	assignment, err := s.access.GetAssignment(ctx, grant.ID)
	if err == nil {
		version, verr := s.versions.GetByID(ctx, assignment.VersionID)
		if verr != nil {
			return nil, fmt.Errorf("load assigned version: %w", verr)
		}
		return version, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load assignment: %w", err)
	}

	// Grant without an assignment: the kind's isolation policy decides.
	switch s.cfg.PolicyFor(rec.Kind) {
	case domain.PolicyFallbackLatestActive:
		version, verr := s.versions.LatestActive(ctx, recordID)
		if verr != nil {
			if errors.Is(verr, domain.ErrNotFound) {
				s.deny(ctx, userID, rec, "no active version for fallback")
				return nil, domain.ErrDenied
			}
			return nil, fmt.Errorf("load latest active version: %w", verr)
		}
		s.fallback(ctx, userID, rec, version)
		return version, nil

	default:
		s.deny(ctx, userID, rec, "strict policy, no assignment")
		return nil, domain.ErrDenied
	}
}

// deny records an audit event and metric for a denied resolution. Audit
// failures are logged, not propagated: resolution is a read path and the
// denial itself must still reach the caller.
func (s *Service) deny(ctx context.Context, userID uuid.UUID, rec *domain.Record, reason string) {
	s.metrics.ResolutionsDenied.WithLabelValues(string(rec.Kind)).Inc()
	s.log.Warn("resolution denied",
		"record_id", rec.ID,
		"kind", rec.Kind,
		"user_id", userID,
		"reason", reason)

	s.writeAudit(ctx, &domain.AuditEvent{
		ID:         uuid.New(),
		UserID:     &userID,
		RecordID:   &rec.ID,
		NaturalKey: rec.NaturalKey,
		Type:       domain.AuditAccessDenied,
		Details:    map[string]any{"reason": reason},
		CreatedAt:  time.Now().UTC(),
	})
}

// fallback records that a resolution was served by the fallback policy
// rather than an explicit assignment.
func (s *Service) fallback(ctx context.Context, userID uuid.UUID, rec *domain.Record, version *domain.Version) {
	s.metrics.FallbacksApplied.WithLabelValues(string(rec.Kind)).Inc()
	s.log.Info("fallback applied",
		"record_id", rec.ID,
		"kind", rec.Kind,
		"user_id", userID,
		"version_number", version.VersionNumber)

	s.writeAudit(ctx, &domain.AuditEvent{
		ID:         uuid.New(),
		UserID:     &userID,
		RecordID:   &rec.ID,
		NaturalKey: rec.NaturalKey,
		Type:       domain.AuditFallbackApplied,
		Details:    map[string]any{"version_number": version.VersionNumber},
		CreatedAt:  time.Now().UTC(),
	})
}

func (s *Service) writeAudit(ctx context.Context, ev *domain.AuditEvent) {
	if _, err := s.audit.Create(ctx, ev); err != nil {
		s.log.Error("audit write failed", "event_type", ev.Type, "error", err)
	}
}
