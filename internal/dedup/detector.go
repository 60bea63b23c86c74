// Package dedup flags probable re-posts: pairwise similarity scoring between
// listing snapshots combining structured fields with perceptual image
// evidence.
package dedup

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/bazarlink/match-cli/internal/config"
	"github.com/bazarlink/match-cli/internal/model"
)

// ImageHasher is the optional perceptual-hashing capability. When it is
// absent (or reports unavailable) the detector simply scores pairs without
// image evidence.
type ImageHasher interface {
	Available() bool
	HasAnyMatch(hashesA, hashesB []string) bool
}

// DefaultDedupConfig returns the production similarity points and thresholds.
// Points sum to 100.
func DefaultDedupConfig() config.DedupConfig {
	return config.DedupConfig{
		LocationPoints: 30,
		PricePoints:    25,
		AreaPoints:     20,
		RoomsPoints:    15,
		ImagePoints:    10,

		PriceTolerancePct: 5.0,
		AreaTolerancePct:  10.0,

		DuplicateThreshold: 85,
	}
}

// Detector scores listing pairs for similarity.
type Detector struct {
	cfg    config.DedupConfig
	hasher ImageHasher
}

// NewDetector creates a Detector. hasher may be nil, in which case only the
// exact-string hash comparison is attempted.
func NewDetector(cfg config.DedupConfig, hasher ImageHasher) *Detector {
	return &Detector{cfg: cfg, hasher: hasher}
}

// ComparePair scores the similarity of two listings in [0,100] and reports
// which criteria matched.
func (d *Detector) ComparePair(a, b model.ListingSnapshot) model.DuplicateCheckResult {
	breakdown := model.DuplicateBreakdown{
		LocationMatch: a.LocationID != "" && a.LocationID == b.LocationID,
		PriceMatch:    withinPct(a.Price, b.Price, d.cfg.PriceTolerancePct),
		AreaMatch:     withinPct(a.Area, b.Area, d.cfg.AreaTolerancePct),
		RoomsMatch:    roomsMatch(a.Rooms, b.Rooms),
		ImageMatch:    d.imagesMatch(a.ImageHashes, b.ImageHashes),
	}

	score := 0
	if breakdown.LocationMatch {
		score += d.cfg.LocationPoints
	}
	if breakdown.PriceMatch {
		score += d.cfg.PricePoints
	}
	if breakdown.AreaMatch {
		score += d.cfg.AreaPoints
	}
	if breakdown.RoomsMatch {
		score += d.cfg.RoomsPoints
	}
	if breakdown.ImageMatch {
		score += d.cfg.ImagePoints
	}
	if score > 100 {
		score = 100
	}

	return model.DuplicateCheckResult{
		ListingID:            a.ID,
		OtherListingID:       b.ID,
		SimilarityScore:      score,
		IsPotentialDuplicate: d.IsPotentialDuplicate(score),
		Breakdown:            breakdown,
	}
}

// IsPotentialDuplicate reports whether a similarity score crosses the
// configured duplicate threshold.
func (d *Detector) IsPotentialDuplicate(score int) bool {
	return score >= d.cfg.DuplicateThreshold
}

// FindDuplicates compares the new listing against every existing one
// (skipping itself) and returns the flagged pairs sorted by similarity
// descending.
func (d *Detector) FindDuplicates(newListing model.ListingSnapshot, existing []model.ListingSnapshot) []model.DuplicateCheckResult {
	results := d.scan(newListing, existing, d.cfg.DuplicateThreshold)

	if len(results) > 0 {
		zap.L().Info("dedup: potential duplicates found",
			zap.String("listing_id", newListing.ID),
			zap.Int("count", len(results)),
			zap.Int("top_score", results[0].SimilarityScore),
		)
	}
	return results
}

// FindAllSimilar is the unfiltered-by-threshold variant for exploratory
// review: every pair scoring at least minScore, sorted by similarity
// descending.
func (d *Detector) FindAllSimilar(newListing model.ListingSnapshot, existing []model.ListingSnapshot, minScore int) []model.DuplicateCheckResult {
	return d.scan(newListing, existing, minScore)
}

func (d *Detector) scan(newListing model.ListingSnapshot, existing []model.ListingSnapshot, minScore int) []model.DuplicateCheckResult {
	var results []model.DuplicateCheckResult
	for _, other := range existing {
		if other.ID == newListing.ID {
			continue
		}
		res := d.ComparePair(newListing, other)
		if res.SimilarityScore >= minScore {
			results = append(results, res)
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].SimilarityScore > results[j].SimilarityScore
	})
	return results
}

// imagesMatch first tries an exact string intersection of the two hash
// lists, then falls back to perceptual comparison when a hasher is present.
func (d *Detector) imagesMatch(hashesA, hashesB []string) bool {
	for _, a := range hashesA {
		if a == "" {
			continue
		}
		for _, b := range hashesB {
			if a == b {
				return true
			}
		}
	}
	if d.hasher == nil || !d.hasher.Available() {
		return false
	}
	return d.hasher.HasAnyMatch(hashesA, hashesB)
}

// withinPct reports whether two positive values deviate by at most pct
// percent, measured against their average so the check is symmetric.
// Non-positive values never match.
func withinPct(a, b, pct float64) bool {
	if a <= 0 || b <= 0 {
		return false
	}
	avg := (a + b) / 2
	return math.Abs(a-b)/avg*100 <= pct
}

// roomsMatch: both absent counts as a match, exactly one absent does not,
// otherwise exact equality.
func roomsMatch(a, b *int) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
