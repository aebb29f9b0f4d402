package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/lcsavb/autocusto-sub000/internal/domain"
	"github.com/lcsavb/autocusto-sub000/pkg/ctxutil"
)

// VersionHistory lists every version of a record, oldest first. The calling
// user must hold a grant on the record; without one the record does not exist
// as far as they are concerned.
func (s *Service) VersionHistory(ctx context.Context, recordID uuid.UUID) ([]domain.Version, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if _, err := s.access.GetGrant(ctx, recordID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrDenied
		}
		return nil, fmt.Errorf("load grant: %w", err)
	}

	versions, err := s.versions.ListByRecord(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return versions, nil
}
