package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/lcsavb/autocusto-sub000/internal/adapter/postgres/access"
	"github.com/lcsavb/autocusto-sub000/internal/domain"
	"github.com/lcsavb/autocusto-sub000/pkg/ctxutil"
)

// Input narrows a search over the calling user's accessible records.
type Input struct {
	Query  string
	Kind   *domain.RecordKind
	Limit  int
	Offset int
}

// Result is one accessible record rendered as the version the caller
// resolves for it.
type Result struct {
	RecordID   uuid.UUID
	Kind       domain.RecordKind
	NaturalKey string
	Version    domain.Version
}

// Search returns the calling user's records matching the input, each shown
// as that user's effective version. Candidates whose version cannot be
// resolved for the caller (strict policy without assignment, or no active
// version to fall back on) are silently dropped; their count is logged and
// metered, never exposed per-row.
func (s *Service) Search(ctx context.Context, input Input) ([]Result, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	limit := input.Limit
	if limit <= 0 || limit > s.cfg.SearchMaxLimit {
		limit = s.cfg.SearchMaxLimit
	}

	candidates, err := s.access.SearchAccessible(ctx, userID, access.SearchFilter{
		Query:  input.Query,
		Kind:   input.Kind,
		Limit:  limit,
		Offset: input.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("search accessible: %w", err)
	}

	query := strings.ToLower(strings.TrimSpace(input.Query))
	queryDigits := domain.NormalizeNaturalKey(input.Query)

	results := make([]Result, 0, len(candidates))
	skipped := 0

	for _, c := range candidates {
		version, rerr := s.resolveCandidate(ctx, c)
		if rerr != nil {
			if errors.Is(rerr, domain.ErrDenied) {
				skipped++
				continue
			}
			return nil, rerr
		}

		// Unassigned candidates pass the SQL predicate unconditionally; the
		// query must be re-checked against the version they resolved to.
		if !c.Assigned && query != "" && !matches(c, version, query, queryDigits) {
			continue
		}

		results = append(results, Result{
			RecordID:   c.Grant.RecordID,
			Kind:       c.Kind,
			NaturalKey: c.NaturalKey,
			Version:    *version,
		})
	}

	if skipped > 0 {
		s.metrics.SearchResultsSkipped.Add(float64(skipped))
		s.log.Info("search skipped unresolvable candidates",
			"user_id", userID,
			"skipped", skipped,
			"returned", len(results))
	}

	return results, nil
}

// resolveCandidate computes the caller's effective version for one search
// row without re-querying grants: the candidate already carries the grant.
func (s *Service) resolveCandidate(ctx context.Context, c access.Candidate) (*domain.Version, error) {
	if c.Assigned {
		assignment, err := s.access.GetAssignment(ctx, c.Grant.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Assignment vanished between the query and now.
				return nil, domain.ErrDenied
			}
			return nil, fmt.Errorf("load assignment: %w", err)
		}
		version, err := s.versions.GetByID(ctx, assignment.VersionID)
		if err != nil {
			return nil, fmt.Errorf("load assigned version: %w", err)
		}
		return version, nil
	}

	if s.cfg.PolicyFor(c.Kind) != domain.PolicyFallbackLatestActive {
		return nil, domain.ErrDenied
	}

	version, err := s.versions.LatestActive(ctx, c.Grant.RecordID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrDenied
		}
		return nil, fmt.Errorf("load latest active version: %w", err)
	}
	return version, nil
}

// matches applies the query to a fallback-resolved candidate: substring on
// the resolved version's name (case-insensitive) or on the natural key's
// digits.
func matches(c access.Candidate, version *domain.Version, query, queryDigits string) bool {
	name := strings.ToLower(domain.NormalizeFieldValue(version.Name()))
	if name != "" && strings.Contains(name, query) {
		return true
	}
	if queryDigits != "" && strings.Contains(c.NaturalKey, queryDigits) {
		return true
	}
	return false
}
