package writer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lcsavb/autocusto-sub000/internal/domain"
)

// BackfillReport summarizes one backfill pass.
type BackfillReport struct {
	RecordsScanned     int
	VersionsCreated    int
	AssignmentsCreated int
}

// BackfillLegacy repairs master records that predate versioning: each one
// gets a version number 1 synthesized from its display name. For kinds
// governed by fallback-latest-active, grants without an assignment are
// pointed at the synthesized version so their view stops depending on the
// fallback path. Strict-kind grants are left unassigned: inventing an
// assignment would silently grant a view the user never chose.
//
// The pass is idempotent. Records already carrying versions are never
// touched, and it processes at most one configured batch per call; callers
// loop until the report shows zero scanned records.
func (s *Service) BackfillLegacy(ctx context.Context) (*BackfillReport, error) {
	report := &BackfillReport{}

	records, err := s.records.ListWithoutVersions(ctx, s.cfg.BackfillBatchSize)
	if err != nil {
		return nil, fmt.Errorf("list legacy records: %w", err)
	}
	report.RecordsScanned = len(records)

	for i := range records {
		rec := &records[i]
		if err := s.backfillRecord(ctx, rec, report); err != nil {
			return report, fmt.Errorf("backfill record %s: %w", rec.ID, err)
		}
	}

	if report.RecordsScanned > 0 {
		s.log.Info("backfill pass complete",
			"scanned", report.RecordsScanned,
			"versions_created", report.VersionsCreated,
			"assignments_created", report.AssignmentsCreated)
	}

	return report, nil
}

func (s *Service) backfillRecord(ctx context.Context, rec *domain.Record, report *BackfillReport) error {
	now := time.Now().UTC()

	name := domain.NormalizeFieldValue(rec.DisplayName)
	if name == "" {
		name = rec.NaturalKey
	}

	version := &domain.Version{
		ID:            uuid.New(),
		RecordID:      rec.ID,
		VersionNumber: 1,
		Fields:        domain.Fields{domain.FieldName: name},
		ChangeSummary: "legacy backfill",
		Status:        domain.VersionStatusActive,
		CreatedAt:     now,
	}

	assignable := s.cfg.PolicyFor(rec.Kind) == domain.PolicyFallbackLatestActive
	assigned := 0

	txErr := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		created, err := s.versions.Create(txCtx, version)
		if err != nil {
			return err
		}

		if assignable {
			grants, err := s.access.ListGrantsByRecord(txCtx, rec.ID)
			if err != nil {
				return err
			}
			for _, g := range grants {
				if _, aerr := s.access.GetAssignment(txCtx, g.ID); aerr == nil {
					continue
				} else if !errors.Is(aerr, domain.ErrNotFound) {
					return fmt.Errorf("load assignment for grant %s: %w", g.ID, aerr)
				}
				if _, uerr := s.access.UpsertAssignment(txCtx, g.ID, created.ID); uerr != nil {
					return fmt.Errorf("assign grant %s: %w", g.ID, uerr)
				}
				assigned++
			}
		}

		_, err = s.audit.Create(txCtx, &domain.AuditEvent{
			ID:         uuid.New(),
			RecordID:   &rec.ID,
			NaturalKey: rec.NaturalKey,
			Type:       domain.AuditBackfillApplied,
			Details: map[string]any{
				"kind":                string(rec.Kind),
				"assignments_created": assigned,
			},
			CreatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("audit backfill: %w", err)
		}
		return nil
	})
	if txErr != nil {
		// A concurrent pass or writer already versioned this record.
		if errors.Is(txErr, domain.ErrVersionConflict) {
			s.log.Info("record versioned concurrently, skipping", "record_id", rec.ID)
			return nil
		}
		return txErr
	}

	report.VersionsCreated++
	report.AssignmentsCreated += assigned
	return nil
}
