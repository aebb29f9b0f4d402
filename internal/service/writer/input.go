package writer

import (
	"github.com/lcsavb/autocusto-sub000/internal/domain"
)

// WriteInput carries one logical save of an entity, keyed by its natural
// key. The same input shape serves both first registration and subsequent
// edits; the writer decides which one it is.
type WriteInput struct {
	Kind          domain.RecordKind
	NaturalKey    string
	Fields        domain.Fields
	ChangeSummary string
}

// Validate checks the input shape. Natural-key digits are validated
// separately after normalization.
func (in WriteInput) Validate() error {
	var errs []domain.FieldError

	if !in.Kind.Valid() {
		errs = append(errs, domain.FieldError{Field: "kind", Message: "unknown record kind"})
	}
	if domain.NormalizeFieldValue(in.Fields[domain.FieldName]) == "" {
		errs = append(errs, domain.FieldError{Field: domain.FieldName, Message: "required"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// WriteResult reports what a save actually did.
type WriteResult struct {
	Record  *domain.Record
	Version *domain.Version

	// WasCreated is true when the save registered a new master record.
	WasCreated bool

	// Reused is true when the payload matched the writer's effective version
	// and no new version was written.
	Reused bool
}
