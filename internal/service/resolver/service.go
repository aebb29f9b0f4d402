// Package resolver answers the one question the whole engine exists for:
// which version of a record does this user see, if any.
package resolver

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lcsavb/autocusto-sub000/internal/config"
	"github.com/lcsavb/autocusto-sub000/internal/domain"
	"github.com/lcsavb/autocusto-sub000/internal/observability"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type accessRepo interface {
	GetGrant(ctx context.Context, recordID, userID uuid.UUID) (*domain.AccessGrant, error)
	GetAssignment(ctx context.Context, grantID uuid.UUID) (*domain.VersionAssignment, error)
}

type recordRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Record, error)
}

type versionRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Version, error)
	LatestActive(ctx context.Context, recordID uuid.UUID) (*domain.Version, error)
}

type auditRepo interface {
	Create(ctx context.Context, ev *domain.AuditEvent) (*domain.AuditEvent, error)
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements per-user version resolution.
type Service struct {
	log      *slog.Logger
	access   accessRepo
	records  recordRepo
	versions versionRepo
	audit    auditRepo
	metrics  *observability.Metrics
	cfg      config.VersioningConfig
}

// NewService creates a new resolver service.
func NewService(
	logger *slog.Logger,
	access accessRepo,
	records recordRepo,
	versions versionRepo,
	audit auditRepo,
	metrics *observability.Metrics,
	cfg config.VersioningConfig,
) *Service {
	return &Service{
		log:      logger.With("service", "resolver"),
		access:   access,
		records:  records,
		versions: versions,
		audit:    audit,
		metrics:  metrics,
		cfg:      cfg,
	}
}
