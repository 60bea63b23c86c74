package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bazarlink/match-cli/internal/model"
)

func TestFilterExcludedMatches(t *testing.T) {
	t.Parallel()

	matches := []model.MatchResult{
		{ListingID: "lst-1", RequirementID: "req-1", Score: 95, IsValid: true},
		{ListingID: "lst-expired", RequirementID: "req-1", Score: 90, IsValid: true},
		{ListingID: "lst-2", RequirementID: "req-expired", Score: 88, IsValid: true},
		{ListingID: "lst-blocked", RequirementID: "req-1", Score: 85, IsValid: true},
		{ListingID: "lst-3", RequirementID: "req-blocked", Score: 82, IsValid: true},
		{ListingID: "lst-4", RequirementID: "req-2", Score: 80, IsValid: true},
		{ListingID: "lst-5", RequirementID: "req-1", Score: 75, IsValid: true},
	}

	got := FilterExcludedMatches(matches, Exclusions{
		ExpiredListings:     map[string]struct{}{"lst-expired": {}},
		ExpiredRequirements: map[string]struct{}{"req-expired": {}},
		BlockedListings:     map[string]struct{}{"lst-blocked": {}},
		BlockedRequirements: map[string]struct{}{"req-blocked": {}},
		RejectedPairs:       map[Pair]struct{}{{"lst-4", "req-2"}: {}},
	})

	var kept []string
	for _, m := range got {
		kept = append(kept, m.ListingID)
	}
	assert.Equal(t, []string{"lst-1", "lst-5"}, kept)
}

func TestFilterExcludedMatchesNoExclusions(t *testing.T) {
	t.Parallel()

	matches := []model.MatchResult{
		{ListingID: "lst-1", RequirementID: "req-1", Score: 95, IsValid: true},
		{ListingID: "lst-2", RequirementID: "req-2", Score: 75, IsValid: true},
	}

	got := FilterExcludedMatches(matches, Exclusions{})
	assert.Equal(t, matches, got, "order and content preserved")
}

func TestFilterExcludedMatchesRejectedPairIsExact(t *testing.T) {
	t.Parallel()

	matches := []model.MatchResult{
		{ListingID: "lst-1", RequirementID: "req-1"},
		{ListingID: "lst-1", RequirementID: "req-2"},
	}

	got := FilterExcludedMatches(matches, Exclusions{
		RejectedPairs: map[Pair]struct{}{{"lst-1", "req-1"}: {}},
	})
	assert.Len(t, got, 1)
	assert.Equal(t, "req-2", got[0].RequirementID)
}
