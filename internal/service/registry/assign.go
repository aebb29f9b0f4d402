package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/lcsavb/autocusto-sub000/internal/domain"
	"github.com/lcsavb/autocusto-sub000/pkg/ctxutil"
)

// AssignVersion points the calling user's grant at a specific version of a
// record. The version must belong to the record; assigning a foreign
// record's version would let the assignment edge bypass isolation.
func (s *Service) AssignVersion(ctx context.Context, recordID, versionID uuid.UUID) (*domain.VersionAssignment, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	grant, err := s.access.GetGrant(ctx, recordID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrDenied
		}
		return nil, fmt.Errorf("load grant: %w", err)
	}

	version, err := s.versions.GetByID(ctx, versionID)
	if err != nil {
		return nil, fmt.Errorf("load version: %w", err)
	}
	if version.RecordID != recordID {
		return nil, domain.NewValidationError("version_id", "version does not belong to record")
	}

	var assignment *domain.VersionAssignment
	txErr := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var upsertErr error
		assignment, upsertErr = s.access.UpsertAssignment(txCtx, grant.ID, versionID)
		if upsertErr != nil {
			return fmt.Errorf("upsert assignment: %w", upsertErr)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.log.Info("version assigned",
		"grant_id", grant.ID,
		"record_id", recordID,
		"version_id", versionID,
		"version_number", version.VersionNumber)

	return assignment, nil
}

// RevokeAssignment removes the calling user's version assignment for a
// record. The grant itself survives; the record's visibility afterwards is
// governed by the kind's isolation policy.
func (s *Service) RevokeAssignment(ctx context.Context, recordID uuid.UUID) error {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.ErrUnauthorized
	}

	grant, err := s.access.GetGrant(ctx, recordID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrDenied
		}
		return fmt.Errorf("load grant: %w", err)
	}

	if err := s.access.DeleteAssignment(ctx, grant.ID); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}

	s.log.Info("assignment revoked", "grant_id", grant.ID, "record_id", recordID)
	return nil
}

// AssignmentFor returns the calling user's assignment on a record, or
// domain.ErrNotFound when the grant has none.
func (s *Service) AssignmentFor(ctx context.Context, recordID uuid.UUID) (*domain.VersionAssignment, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	grant, err := s.access.GetGrant(ctx, recordID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrDenied
		}
		return nil, fmt.Errorf("load grant: %w", err)
	}

	return s.access.GetAssignment(ctx, grant.ID)
}
