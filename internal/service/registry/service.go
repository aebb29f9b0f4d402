// Package registry implements grant and version-assignment management: who
// may see a record, and which version each grant points at.
package registry

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lcsavb/autocusto-sub000/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type accessRepo interface {
	CreateGrant(ctx context.Context, g *domain.AccessGrant) (*domain.AccessGrant, error)
	GetGrant(ctx context.Context, recordID, userID uuid.UUID) (*domain.AccessGrant, error)
	ListGrantsByUser(ctx context.Context, userID uuid.UUID) ([]domain.AccessGrant, error)
	UpsertAssignment(ctx context.Context, grantID, versionID uuid.UUID) (*domain.VersionAssignment, error)
	GetAssignment(ctx context.Context, grantID uuid.UUID) (*domain.VersionAssignment, error)
	DeleteAssignment(ctx context.Context, grantID uuid.UUID) error
}

type recordRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Record, error)
}

type versionRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Version, error)
	ListByRecord(ctx context.Context, recordID uuid.UUID) ([]domain.Version, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the access-registry business logic.
type Service struct {
	log      *slog.Logger
	access   accessRepo
	records  recordRepo
	versions versionRepo
	tx       txManager
}

// NewService creates a new registry service.
func NewService(
	logger *slog.Logger,
	access accessRepo,
	records recordRepo,
	versions versionRepo,
	tx txManager,
) *Service {
	return &Service{
		log:      logger.With("service", "registry"),
		access:   access,
		records:  records,
		versions: versions,
		tx:       tx,
	}
}
