//go:build e2e

package e2e_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lcsavb/autocusto-sub000/internal/adapter/postgres"
	"github.com/lcsavb/autocusto-sub000/internal/adapter/postgres/access"
	"github.com/lcsavb/autocusto-sub000/internal/adapter/postgres/audit"
	"github.com/lcsavb/autocusto-sub000/internal/adapter/postgres/record"
	"github.com/lcsavb/autocusto-sub000/internal/adapter/postgres/testhelper"
	"github.com/lcsavb/autocusto-sub000/internal/adapter/postgres/version"
	"github.com/lcsavb/autocusto-sub000/internal/config"
	"github.com/lcsavb/autocusto-sub000/internal/domain"
	"github.com/lcsavb/autocusto-sub000/internal/observability"
	"github.com/lcsavb/autocusto-sub000/internal/service/registry"
	"github.com/lcsavb/autocusto-sub000/internal/service/resolver"
	"github.com/lcsavb/autocusto-sub000/internal/service/search"
	"github.com/lcsavb/autocusto-sub000/internal/service/writer"
	"github.com/lcsavb/autocusto-sub000/pkg/ctxutil"
)

// testEnv wires the full service stack over a real database, mirroring the
// production wiring minus configuration loading.
type testEnv struct {
	Pool     *pgxpool.Pool
	Registry *registry.Service
	Resolver *resolver.Service
	Writer   *writer.Service
	Search   *search.Service
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	pool := testhelper.SetupTestDB(t)

	cfg := config.VersioningConfig{
		ClinicPolicy:      string(domain.PolicyFallbackLatestActive),
		PatientPolicy:     string(domain.PolicyStrict),
		MaxWriteRetries:   5,
		SearchMaxLimit:    200,
		BackfillBatchSize: 500,
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	txManager := postgres.NewTxManager(pool)
	recordRepo := record.New(pool)
	versionRepo := version.New(pool)
	accessRepo := access.New(pool)
	auditRepo := audit.New(pool)

	return &testEnv{
		Pool:     pool,
		Registry: registry.NewService(logger, accessRepo, recordRepo, versionRepo, txManager),
		Resolver: resolver.NewService(logger, accessRepo, recordRepo, versionRepo, auditRepo, metrics, cfg),
		Writer:   writer.NewService(logger, recordRepo, versionRepo, accessRepo, auditRepo, txManager, metrics, cfg),
		Search:   search.NewService(logger, accessRepo, versionRepo, metrics, cfg),
	}
}

// userCtx seeds a user row and returns a context authenticated as that user.
func userCtx(t *testing.T, env *testEnv) (context.Context, domain.User) {
	t.Helper()
	user := testhelper.SeedUser(t, env.Pool)
	return ctxutil.WithUserID(context.Background(), user.ID), user
}

// uniqueDigits returns n random decimal digits for non-conflicting natural keys.
func uniqueDigits(n int) string {
	const digits = "0123456789"
	id := uuid.New()
	out := make([]byte, n)
	for i := range out {
		out[i] = digits[int(id[i%len(id)])%len(digits)]
	}
	return string(out)
}

func patientInput(naturalKey, name string) writer.WriteInput {
	return writer.WriteInput{
		Kind:       domain.KindPatient,
		NaturalKey: naturalKey,
		Fields:     domain.Fields{domain.FieldName: name},
	}
}

func clinicInput(naturalKey, name string) writer.WriteInput {
	return writer.WriteInput{
		Kind:       domain.KindClinic,
		NaturalKey: naturalKey,
		Fields:     domain.Fields{domain.FieldName: name},
	}
}
