//go:build e2e

package e2e_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcsavb/autocusto-sub000/internal/adapter/postgres/testhelper"
	"github.com/lcsavb/autocusto-sub000/internal/domain"
	"github.com/lcsavb/autocusto-sub000/pkg/ctxutil"
)

// TestE2E_Backfill_LegacyRecordGetsVersionOne verifies that a record created
// before versioning receives a synthesized first version built from its
// display name.
func TestE2E_Backfill_LegacyRecordGetsVersionOne(t *testing.T) {
	env := setupEnv(t)

	legacy := testhelper.SeedRecord(t, env.Pool, domain.KindClinic)
	user := testhelper.SeedUser(t, env.Pool)
	testhelper.SeedGrant(t, env.Pool, legacy.ID, user.ID)

	report, err := env.Writer.BackfillLegacy(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, report.RecordsScanned, 1)
	assert.GreaterOrEqual(t, report.VersionsCreated, 1)

	// A fallback-policy grant without an assignment was repaired, so the user
	// resolves the synthesized version directly.
	ctx := ctxutil.WithUserID(context.Background(), user.ID)
	version, err := env.Resolver.Resolve(ctx, legacy.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, version.VersionNumber)
	assert.Equal(t, legacy.DisplayName, version.Name())
	assert.Nil(t, version.CreatedBy, "synthesized versions have no author")
}

// TestE2E_Backfill_StrictKindLeftUnassigned verifies patient grants are not
// auto-assigned: the version exists but the user stays denied.
func TestE2E_Backfill_StrictKindLeftUnassigned(t *testing.T) {
	env := setupEnv(t)

	legacy := testhelper.SeedRecord(t, env.Pool, domain.KindPatient)
	user := testhelper.SeedUser(t, env.Pool)
	testhelper.SeedGrant(t, env.Pool, legacy.ID, user.ID)

	report, err := env.Writer.BackfillLegacy(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, report.VersionsCreated, 1)

	ctx := ctxutil.WithUserID(context.Background(), user.ID)
	_, err = env.Resolver.Resolve(ctx, legacy.ID)
	require.ErrorIs(t, err, domain.ErrDenied)
}

// TestE2E_Backfill_Idempotent verifies a second pass finds nothing to do for
// already-backfilled records.
func TestE2E_Backfill_Idempotent(t *testing.T) {
	env := setupEnv(t)

	legacy := testhelper.SeedRecord(t, env.Pool, domain.KindClinic)

	_, err := env.Writer.BackfillLegacy(context.Background())
	require.NoError(t, err)

	report, err := env.Writer.BackfillLegacy(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.VersionsCreated, "no legacy records should remain")

	var count int
	err = env.Pool.QueryRow(context.Background(),
		"SELECT count(*) FROM record_versions WHERE record_id = $1", legacy.ID).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
