package match

import (
	"sort"

	"github.com/bazarlink/match-cli/internal/model"
)

// vipBoost is added to the score of VIP-flagged listings. Raw scores are
// bounded at 100, so the offset guarantees VIP candidates always outrank
// non-VIP ones.
const vipBoost = 1000

// EffectiveScore returns the delivery-ordering score for a listing: the base
// score, boosted past the non-VIP range and raised by the listing's priority
// weight when the listing is VIP.
func EffectiveScore(baseScore int, l model.ListingSnapshot) int {
	if !l.IsVIP {
		return baseScore
	}
	return baseScore + vipBoost + l.PriorityScore
}

// SortByPriority stably sorts matches for delivery: VIP listings first,
// then by priority weight, then by raw score. Ties keep their input order so
// the ordering is reproducible. Matches whose listing is missing from the
// lookup are treated as non-VIP.
func SortByPriority(matches []model.MatchResult, listings map[string]model.ListingSnapshot) {
	sort.SliceStable(matches, func(i, j int) bool {
		li := listings[matches[i].ListingID]
		lj := listings[matches[j].ListingID]

		if li.IsVIP != lj.IsVIP {
			return li.IsVIP
		}
		if li.IsVIP && li.PriorityScore != lj.PriorityScore {
			return li.PriorityScore > lj.PriorityScore
		}
		return matches[i].Score > matches[j].Score
	})
}
