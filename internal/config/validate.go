package config

import (
	"fmt"

	"github.com/lcsavb/autocusto-sub000/internal/domain"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.Versioning.validate(); err != nil {
		return fmt.Errorf("versioning: %w", err)
	}
	return nil
}

func (v *VersioningConfig) validate() error {
	if _, err := domain.ParseIsolationPolicy(v.ClinicPolicy); err != nil {
		return fmt.Errorf("clinic_policy: %w", err)
	}
	if _, err := domain.ParseIsolationPolicy(v.PatientPolicy); err != nil {
		return fmt.Errorf("patient_policy: %w", err)
	}
	if v.MaxWriteRetries < 1 {
		return fmt.Errorf("max_write_retries must be >= 1 (got %d)", v.MaxWriteRetries)
	}
	if v.SearchMaxLimit < 1 {
		return fmt.Errorf("search_max_limit must be >= 1 (got %d)", v.SearchMaxLimit)
	}
	if v.BackfillBatchSize < 1 {
		return fmt.Errorf("backfill_batch_size must be >= 1 (got %d)", v.BackfillBatchSize)
	}
	return nil
}

// PolicyFor returns the isolation policy configured for a record kind.
// Unknown kinds fall back to strict: denying is always the safe direction.
func (v *VersioningConfig) PolicyFor(kind domain.RecordKind) domain.IsolationPolicy {
	var raw string
	switch kind {
	case domain.KindClinic:
		raw = v.ClinicPolicy
	case domain.KindPatient:
		raw = v.PatientPolicy
	}
	policy, err := domain.ParseIsolationPolicy(raw)
	if err != nil {
		return domain.PolicyStrict
	}
	return policy
}
