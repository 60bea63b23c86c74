package match

import "github.com/bazarlink/match-cli/internal/model"

// Pair identifies a (listing, requirement) combination.
type Pair struct {
	ListingID     string
	RequirementID string
}

// Exclusions lists the entities and pairs a previously computed batch must
// no longer reference. Nil sets exclude nothing.
type Exclusions struct {
	ExpiredListings     map[string]struct{}
	ExpiredRequirements map[string]struct{}
	BlockedListings     map[string]struct{}
	BlockedRequirements map[string]struct{}
	RejectedPairs       map[Pair]struct{}
}

// FilterExcludedMatches removes matches referencing expired or blocked
// entities and explicitly rejected pairs, preserving order. It lets a caller
// re-filter a stored batch cheaply without re-scoring.
func FilterExcludedMatches(matches []model.MatchResult, excl Exclusions) []model.MatchResult {
	kept := make([]model.MatchResult, 0, len(matches))
	for _, m := range matches {
		if _, ok := excl.ExpiredListings[m.ListingID]; ok {
			continue
		}
		if _, ok := excl.BlockedListings[m.ListingID]; ok {
			continue
		}
		if _, ok := excl.ExpiredRequirements[m.RequirementID]; ok {
			continue
		}
		if _, ok := excl.BlockedRequirements[m.RequirementID]; ok {
			continue
		}
		if _, ok := excl.RejectedPairs[Pair{m.ListingID, m.RequirementID}]; ok {
			continue
		}
		kept = append(kept, m)
	}
	return kept
}
