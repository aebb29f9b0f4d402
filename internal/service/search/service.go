// Package search lists and filters the records a user can see, always
// through the user's own grants and always showing each record as the
// version that user would resolve.
package search

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lcsavb/autocusto-sub000/internal/adapter/postgres/access"
	"github.com/lcsavb/autocusto-sub000/internal/config"
	"github.com/lcsavb/autocusto-sub000/internal/domain"
	"github.com/lcsavb/autocusto-sub000/internal/observability"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type accessRepo interface {
	SearchAccessible(ctx context.Context, userID uuid.UUID, f access.SearchFilter) ([]access.Candidate, error)
	GetAssignment(ctx context.Context, grantID uuid.UUID) (*domain.VersionAssignment, error)
}

type versionRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Version, error)
	LatestActive(ctx context.Context, recordID uuid.UUID) (*domain.Version, error)
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements accessible-record search.
type Service struct {
	log      *slog.Logger
	access   accessRepo
	versions versionRepo
	metrics  *observability.Metrics
	cfg      config.VersioningConfig
}

// NewService creates a new search service.
func NewService(
	logger *slog.Logger,
	accessRepo accessRepo,
	versions versionRepo,
	metrics *observability.Metrics,
	cfg config.VersioningConfig,
) *Service {
	return &Service{
		log:      logger.With("service", "search"),
		access:   accessRepo,
		versions: versions,
		metrics:  metrics,
		cfg:      cfg,
	}
}
