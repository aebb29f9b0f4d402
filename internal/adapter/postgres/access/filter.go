package access

import (
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/lcsavb/autocusto-sub000/internal/domain"
)

const (
	defaultSearchLimit = 50
	maxSearchLimit     = 200
)

// SearchFilter narrows the set of accessible records returned by
// SearchAccessible. The zero value lists every record the user holds a
// non-orphaned grant for.
type SearchFilter struct {
	// Query matches the assigned version's name (case-insensitive substring)
	// or the record's natural key (digit substring). Rows whose grant has no
	// assignment always pass the query predicate: their effective version is
	// policy-dependent and the caller filters them after resolution.
	Query string

	// Kind restricts results to a single record kind when set.
	Kind *domain.RecordKind

	Limit  int
	Offset int
}

func (f *SearchFilter) normalize() {
	f.Query = strings.TrimSpace(f.Query)

	if f.Limit <= 0 {
		f.Limit = defaultSearchLimit
	}
	if f.Limit > maxSearchLimit {
		f.Limit = maxSearchLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// buildSearchQuery assembles the candidate query for one user. It joins
// grants to records and, through the assignment edge, to the assigned
// version, so the name predicate runs against the version the user would
// actually see.
func buildSearchQuery(userID uuid.UUID, f SearchFilter) squirrel.SelectBuilder {
	q := psql.
		Select(
			"g.id", "g.record_id", "g.user_id", "g.created_at",
			"r.kind", "r.natural_key",
			"va.id IS NOT NULL AS assigned",
		).
		From("access_grants g").
		Join("records r ON r.id = g.record_id").
		LeftJoin("version_assignments va ON va.grant_id = g.id").
		LeftJoin("record_versions v ON v.id = va.version_id").
		Where(squirrel.Eq{"g.user_id": userID})

	if f.Kind != nil {
		q = q.Where(squirrel.Eq{"r.kind": string(*f.Kind)})
	}

	if f.Query != "" {
		match := squirrel.Or{
			squirrel.ILike{"v.fields->>'name'": "%" + f.Query + "%"},
			// Unassigned grants: the name check is deferred to the caller.
			squirrel.Eq{"va.id": nil},
		}
		if digits := domain.NormalizeNaturalKey(f.Query); digits != "" {
			match = append(match, squirrel.Like{"r.natural_key": "%" + digits + "%"})
		}
		q = q.Where(match)
	}

	return q.
		OrderBy("r.created_at DESC", "r.id").
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset))
}
