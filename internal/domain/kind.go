package domain

import "fmt"

// RecordKind identifies the kind of shared record. Each kind carries its own
// national natural key: CNES-style CNS for clinics, CPF for patients.
type RecordKind string

const (
	KindClinic  RecordKind = "clinic"
	KindPatient RecordKind = "patient"
)

// Valid reports whether the kind is one of the known values.
func (k RecordKind) Valid() bool {
	return k == KindClinic || k == KindPatient
}

// NaturalKeyLabel returns the human name of the kind's natural key.
func (k RecordKind) NaturalKeyLabel() string {
	if k == KindPatient {
		return "CPF"
	}
	return "CNS"
}

// naturalKeyLength is the exact digit count required per kind.
// Clinic CNS is 7 digits, patient CPF is 11.
func (k RecordKind) naturalKeyLength() int {
	if k == KindPatient {
		return 11
	}
	return 7
}

// ValidateNaturalKey checks a normalized natural key for the kind.
// The key must already be normalized (digits only, see NormalizeNaturalKey).
func (k RecordKind) ValidateNaturalKey(key string) error {
	if key == "" {
		return NewValidationError("natural_key", fmt.Sprintf("%s is required", k.NaturalKeyLabel()))
	}
	for _, r := range key {
		if r < '0' || r > '9' {
			return NewValidationError("natural_key", fmt.Sprintf("%s must contain only digits", k.NaturalKeyLabel()))
		}
	}
	if want := k.naturalKeyLength(); len(key) != want {
		return NewValidationError("natural_key", fmt.Sprintf("%s must have %d digits", k.NaturalKeyLabel(), want))
	}
	return nil
}

// IsolationPolicy governs what a resolve returns when a user holds an access
// grant but no explicit version assignment. It is always an explicit,
// per-kind configuration choice, never a control-flow accident.
type IsolationPolicy string

const (
	// PolicyStrict denies resolution when no version is assigned.
	// Used for patients: maximum privacy, no substitute data ever.
	PolicyStrict IsolationPolicy = "strict"

	// PolicyFallbackLatestActive returns the record's latest active version
	// when no version is assigned. An audited relaxation used for clinics.
	PolicyFallbackLatestActive IsolationPolicy = "fallback_latest_active"
)

// ParseIsolationPolicy converts a configuration string into a policy.
func ParseIsolationPolicy(s string) (IsolationPolicy, error) {
	switch IsolationPolicy(s) {
	case PolicyStrict:
		return PolicyStrict, nil
	case PolicyFallbackLatestActive:
		return PolicyFallbackLatestActive, nil
	}
	return "", fmt.Errorf("unknown isolation policy %q", s)
}
