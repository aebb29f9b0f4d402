// Command backfill synthesizes a first version for master records created
// before versioning existed, batch by batch until none remain. It is intended
// to be invoked once after deploying the versioning schema, and is safe to
// re-run: records that already have versions are never touched.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lcsavb/autocusto-sub000/internal/app"
	"github.com/lcsavb/autocusto-sub000/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	a, err := app.New(ctx, cfg, logger, prometheus.NewRegistry())
	if err != nil {
		logger.Error("startup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer a.Close()

	totalScanned, totalVersions, totalAssignments := 0, 0, 0

	for {
		report, err := a.Writer.BackfillLegacy(ctx)
		if err != nil {
			logger.Error("backfill batch failed", slog.String("error", err.Error()))
			os.Exit(1)
		}

		totalScanned += report.RecordsScanned
		totalVersions += report.VersionsCreated
		totalAssignments += report.AssignmentsCreated

		if report.RecordsScanned == 0 {
			break
		}

		logger.Info("backfill batch completed",
			slog.Int("scanned", report.RecordsScanned),
			slog.Int("versions_created", report.VersionsCreated),
			slog.Int("assignments_created", report.AssignmentsCreated),
		)
	}

	logger.Info("backfill completed",
		slog.Int("total_scanned", totalScanned),
		slog.Int("total_versions_created", totalVersions),
		slog.Int("total_assignments_created", totalAssignments),
	)
}
