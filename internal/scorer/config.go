// Package scorer computes 0-100 compatibility scores between a listing
// snapshot and a requirement snapshot.
package scorer

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/bazarlink/match-cli/internal/config"
)

// DefaultMatchConfig returns a config.MatchConfig with the production
// weights. Weights sum to 1.
func DefaultMatchConfig() config.MatchConfig {
	return config.MatchConfig{
		CategoryWeight: 0.20,
		LocationWeight: 0.25,
		PriceWeight:    0.20,
		RoomsWeight:    0.10,
		AreaWeight:     0.10,
		OtherWeight:    0.15,

		ValidityThreshold: 70,
		SearchRadiusKm:    5.0,
	}
}

// WeightSum returns the sum of all sub-score weights.
func WeightSum(c config.MatchConfig) float64 {
	return c.CategoryWeight + c.LocationWeight + c.PriceWeight +
		c.RoomsWeight + c.AreaWeight + c.OtherWeight
}

// ValidateConfig checks that a MatchConfig is internally consistent.
func ValidateConfig(c config.MatchConfig) error {
	var errs []string

	weights := map[string]float64{
		"category_weight": c.CategoryWeight,
		"location_weight": c.LocationWeight,
		"price_weight":    c.PriceWeight,
		"rooms_weight":    c.RoomsWeight,
		"area_weight":     c.AreaWeight,
		"other_weight":    c.OtherWeight,
	}
	for name, w := range weights {
		if w < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	sum := WeightSum(c)
	if sum <= 0 {
		errs = append(errs, "weight sum must be > 0")
	}
	// Weights are fractions of the total; allow floating-point slack.
	if math.Abs(sum-1) > 0.01 {
		errs = append(errs, fmt.Sprintf("weights should sum to 1, got %.3f", sum))
	}

	if c.ValidityThreshold < 0 || c.ValidityThreshold > 100 {
		errs = append(errs, "validity_threshold must be between 0 and 100")
	}
	if c.SearchRadiusKm < 0 {
		errs = append(errs, "search_radius_km must be >= 0")
	}
	if c.Concurrency < 0 {
		errs = append(errs, "concurrency must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
