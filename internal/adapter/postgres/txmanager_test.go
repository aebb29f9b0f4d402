package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lcsavb/autocusto-sub000/internal/adapter/postgres"
	"github.com/lcsavb/autocusto-sub000/internal/adapter/postgres/testhelper"
)

// recordExists checks whether a record row with the given ID exists.
func recordExists(t *testing.T, pool *pgxpool.Pool, recordID uuid.UUID) bool {
	t.Helper()
	var exists bool
	err := pool.QueryRow(
		context.Background(),
		`SELECT EXISTS(SELECT 1 FROM records WHERE id = $1)`,
		recordID,
	).Scan(&exists)
	if err != nil {
		t.Fatalf("recordExists query: %v", err)
	}
	return exists
}

func insertRecord(ctx context.Context, q postgres.Querier, id uuid.UUID, key string) error {
	_, err := q.Exec(ctx,
		`INSERT INTO records (id, kind, natural_key, display_name, created_at, updated_at)
		 VALUES ($1, 'patient', $2, 'Tx Test', now(), now())`,
		id, key,
	)
	return err
}

func uniqueKey() string {
	const digits = "0123456789"
	id := uuid.New()
	out := make([]byte, 11)
	for i := range out {
		out[i] = digits[int(id[i])%len(digits)]
	}
	return string(out)
}

func TestRunInTx_Commit(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	recordID := uuid.New()

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		return insertRecord(ctx, postgres.QuerierFromCtx(ctx, pool), recordID, uniqueKey())
	})
	if err != nil {
		t.Fatalf("RunInTx returned error: %v", err)
	}

	if !recordExists(t, pool, recordID) {
		t.Fatal("expected record to exist after committed transaction")
	}
}

func TestRunInTx_RollbackOnError(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	recordID := uuid.New()
	sentinel := errors.New("business logic error")

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		if execErr := insertRecord(ctx, postgres.QuerierFromCtx(ctx, pool), recordID, uniqueKey()); execErr != nil {
			t.Fatalf("insert inside tx failed: %v", execErr)
		}
		return sentinel
	})

	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got: %v", err)
	}

	if recordExists(t, pool, recordID) {
		t.Fatal("expected record NOT to exist after rolled-back transaction")
	}
}

func TestRunInTx_RollbackOnPanic(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	recordID := uuid.New()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic to be re-raised")
		}
		if r != "test panic" {
			t.Fatalf("expected panic value %q, got %v", "test panic", r)
		}

		// Verify data was rolled back.
		if recordExists(t, pool, recordID) {
			t.Fatal("expected record NOT to exist after panic-rolled-back transaction")
		}
	}()

	_ = tm.RunInTx(context.Background(), func(ctx context.Context) error {
		if err := insertRecord(ctx, postgres.QuerierFromCtx(ctx, pool), recordID, uniqueKey()); err != nil {
			t.Fatalf("insert inside tx failed: %v", err)
		}
		panic("test panic")
	})
}

func TestRunInTx_QuerierFromCtx_UsesTx(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	recordID := uuid.New()

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		if err := insertRecord(ctx, postgres.QuerierFromCtx(ctx, pool), recordID, uniqueKey()); err != nil {
			return err
		}

		// The uncommitted row must already be visible inside the transaction.
		var exists bool
		err := postgres.QuerierFromCtx(ctx, pool).QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM records WHERE id = $1)`, recordID,
		).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			t.Fatal("expected uncommitted record to be visible inside the transaction")
		}

		// Outside the transaction (direct pool query) it must not be visible yet.
		err = pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM records WHERE id = $1)`, recordID,
		).Scan(&exists)
		if err != nil {
			return err
		}
		if exists {
			t.Fatal("expected uncommitted record to be invisible outside the transaction")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunInTx returned error: %v", err)
	}
}
