package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lcsavb/autocusto-sub000/internal/domain"
	"github.com/lcsavb/autocusto-sub000/pkg/ctxutil"
)

// EnsureGrant gives a user access to a record, returning the existing grant
// if one is already present. The record must exist; access to it is the
// caller's concern, so this is invoked when a record is legitimately shared
// (for example a clinic registering a second physician).
func (s *Service) EnsureGrant(ctx context.Context, recordID, userID uuid.UUID) (*domain.AccessGrant, error) {
	if _, ok := ctxutil.UserIDFromCtx(ctx); !ok {
		return nil, domain.ErrUnauthorized
	}
	if userID == uuid.Nil {
		return nil, domain.NewValidationError("user_id", "required")
	}

	rec, err := s.records.GetByID(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("load record: %w", err)
	}

	existing, err := s.access.GetGrant(ctx, recordID, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check existing grant: %w", err)
	}

	grant := &domain.AccessGrant{
		ID:        uuid.New(),
		RecordID:  recordID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}

	created, err := s.access.CreateGrant(ctx, grant)
	if err != nil {
		// A concurrent EnsureGrant for the same pair may have won; reuse it.
		if errors.Is(err, domain.ErrAlreadyExists) {
			return s.access.GetGrant(ctx, recordID, userID)
		}
		return nil, fmt.Errorf("create grant: %w", err)
	}

	s.log.Info("grant created",
		"grant_id", created.ID,
		"record_id", recordID,
		"kind", rec.Kind,
		"user_id", userID)

	return created, nil
}

// GrantsForUser lists the calling user's non-orphaned grants.
func (s *Service) GrantsForUser(ctx context.Context) ([]domain.AccessGrant, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	grants, err := s.access.ListGrantsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	return grants, nil
}
