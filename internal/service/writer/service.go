// Package writer implements the write path: creating master records,
// appending immutable versions, and keeping the writer's own assignment
// pointed at what they wrote.
package writer

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

type recordRepo interface {
	Create(ctx context.Context, rec *domain.Record) (*domain.Record, error)
	FindByNaturalKey(ctx context.Context, kind domain.RecordKind, key string) (*domain.Record, error)
	ListWithoutVersions(ctx context.Context, limit int) ([]domain.Record, error)
}

type versionRepo interface {
	Create(ctx context.Context, v *domain.Version) (*domain.Version, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Version, error)
	MaxVersionNumber(ctx context.Context, recordID uuid.UUID) (int64, error)
	LatestActive(ctx context.Context, recordID uuid.UUID) (*domain.Version, error)
}

type accessRepo interface {
	CreateGrant(ctx context.Context, g *domain.AccessGrant) (*domain.AccessGrant, error)
	GetGrant(ctx context.Context, recordID, userID uuid.UUID) (*domain.AccessGrant, error)
	ListGrantsByRecord(ctx context.Context, recordID uuid.UUID) ([]domain.AccessGrant, error)
	UpsertAssignment(ctx context.Context, grantID, versionID uuid.UUID) (*domain.VersionAssignment, error)
	GetAssignment(ctx context.Context, grantID uuid.UUID) (*domain.VersionAssignment, error)
}

type auditRepo interface {
	Create(ctx context.Context, ev *domain.AuditEvent) (*domain.AuditEvent, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the versioned write path.
type Service struct {
	log      *slog.Logger
	records  recordRepo
	versions versionRepo
	access   accessRepo
	audit    auditRepo
	tx       txManager
	metrics  *observability.Metrics
	cfg      config.VersioningConfig
}

// NewService creates a new writer service.
func NewService(
	logger *slog.Logger,
	records recordRepo,
	versions versionRepo,
	access accessRepo,
	audit auditRepo,
	tx txManager,
	metrics *observability.Metrics,
	cfg config.VersioningConfig,
) *Service {
	return &Service{
		log:      logger.With("service", "writer"),
		records:  records,
		versions: versions,
		access:   access,
		audit:    audit,
		tx:       tx,
		metrics:  metrics,
		cfg:      cfg,
	}
}
