package scorer

import (
	"github.com/bazarlink/match-cli/internal/config"
	"github.com/bazarlink/match-cli/internal/model"
)

// LocationContext carries caller-supplied proximity hints for the location
// sub-score. The engine never computes distances itself; adjacency, same-city
// membership, and raw distance figures all come precomputed from the caller.
type LocationContext struct {
	// Adjacent holds location ids adjacent to the requirement's locations.
	Adjacent map[string]struct{}

	// SameCity holds location ids in the same city as the requirement's
	// locations.
	SameCity map[string]struct{}

	// DistanceKm, when set, switches the location sub-score to the
	// GPS-distance variant and is the precomputed distance between the
	// listing and the requirement's search center.
	DistanceKm *float64
}

// Scorer computes compatibility scores using a fixed weight configuration.
type Scorer struct {
	cfg config.MatchConfig
}

// New creates a Scorer with the given configuration.
func New(cfg config.MatchConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Config returns the scorer's weight configuration.
func (s *Scorer) Config() config.MatchConfig {
	return s.cfg
}

// Score computes the total compatibility score in [0,100] for one
// listing/requirement pair. Category is a hard gate: a category mismatch
// scores 0 regardless of every other attribute. The result is the weighted
// sum of the six sub-scores, truncated to an integer.
func (s *Scorer) Score(l model.ListingSnapshot, r model.RequirementSnapshot, loc *LocationContext) int {
	if l.CategoryID != r.CategoryID {
		return 0
	}

	components := map[string]float64{
		"category": 100, // gate already passed
		"location": s.scoreLocation(l, r, loc),
		"price":    scoreBandedRange(l.Price, r.PriceMin, r.PriceMax),
		"rooms":    scoreRooms(l.Rooms, r.RoomsMin, r.RoomsMax),
		"area":     scoreBandedRange(l.Area, r.AreaMin, r.AreaMax),
		"other":    scoreOther(l, r),
	}

	weights := map[string]float64{
		"category": s.cfg.CategoryWeight,
		"location": s.cfg.LocationWeight,
		"price":    s.cfg.PriceWeight,
		"rooms":    s.cfg.RoomsWeight,
		"area":     s.cfg.AreaWeight,
		"other":    s.cfg.OtherWeight,
	}

	var total float64
	for k, component := range components {
		total += component * weights[k]
	}

	if total < 0 {
		return 0
	}
	if total > 100 {
		return 100
	}
	return int(total)
}

// scoreLocation returns the location sub-score. An unconstrained requirement
// scores 100; exact membership 100; adjacent 70; same city 40; otherwise 0.
// When the context carries a precomputed distance, the banded sets are
// replaced by a linear decay over the search radius.
func (s *Scorer) scoreLocation(l model.ListingSnapshot, r model.RequirementSnapshot, loc *LocationContext) float64 {
	if len(r.LocationIDs) == 0 {
		return 100
	}
	if r.AcceptsLocation(l.LocationID) {
		return 100
	}
	if loc == nil {
		return 0
	}
	if loc.DistanceKm != nil {
		return scoreLocationByDistance(*loc.DistanceKm, s.cfg.SearchRadiusKm)
	}
	if _, ok := loc.Adjacent[l.LocationID]; ok {
		return 70
	}
	if _, ok := loc.SameCity[l.LocationID]; ok {
		return 40
	}
	return 0
}

// scoreLocationByDistance decays linearly from 100 at distance 0 to 70 at
// the radius boundary, then from 70 to 0 at twice the radius.
func scoreLocationByDistance(distanceKm, radiusKm float64) float64 {
	if radiusKm <= 0 {
		return 0
	}
	if distanceKm <= 0 {
		return 100
	}
	ratio := distanceKm / radiusKm
	switch {
	case ratio <= 1:
		return 100 - 30*ratio
	case ratio <= 2:
		return 70 * (2 - ratio)
	default:
		return 0
	}
}

// scoreBandedRange scores a value against an optional [min,max] range with
// graduated tolerance: inside the range 100, then 80/50/0 at <=10%/<=20%/>20%
// deviation from the nearest violated bound. Nil bounds are unbounded; an
// inverted range scores 0 instead of panicking.
func scoreBandedRange(value float64, min, max *float64) float64 {
	if min == nil && max == nil {
		return 100
	}
	if min != nil && max != nil && *min > *max {
		return 0
	}

	var dev float64
	switch {
	case min != nil && value < *min:
		if *min <= 0 {
			return 0
		}
		dev = (*min - value) / *min
	case max != nil && value > *max:
		if *max <= 0 {
			return 0
		}
		dev = (value - *max) / *max
	default:
		return 100
	}

	if dev < 0 {
		dev = -dev
	}
	switch {
	case dev <= 0.10:
		return 80
	case dev <= 0.20:
		return 50
	default:
		return 0
	}
}

// scoreRooms scores the room count with integer deviation bands: in range
// 100, off by one 70, off by two 40, further 0. A listing without a room
// count cannot satisfy an explicit rooms constraint.
func scoreRooms(rooms, min, max *int) float64 {
	if min == nil && max == nil {
		return 100
	}
	if rooms == nil {
		return 0
	}
	if min != nil && max != nil && *min > *max {
		return 0
	}

	dev := intRangeDeviation(*rooms, min, max)
	switch {
	case dev == 0:
		return 100
	case dev == 1:
		return 70
	case dev == 2:
		return 40
	default:
		return 0
	}
}

// scoreFloor scores the floor preference. The not-first-floor and
// not-last-floor flags are hard vetoes; beyond that the deviation bands are
// wider than rooms (<=2 floors 70, <=5 floors 40). A listing with no floor
// information is fully compatible.
func scoreFloor(l model.ListingSnapshot, r model.RequirementSnapshot) float64 {
	if r.NotFirstFloor && l.OnFirstFloor() {
		return 0
	}
	if r.NotLastFloor && l.OnLastFloor() {
		return 0
	}
	if r.FloorMin == nil && r.FloorMax == nil {
		return 100
	}
	if l.Floor == nil {
		return 100
	}
	if r.FloorMin != nil && r.FloorMax != nil && *r.FloorMin > *r.FloorMax {
		return 0
	}

	dev := intRangeDeviation(*l.Floor, r.FloorMin, r.FloorMax)
	switch {
	case dev == 0:
		return 100
	case dev <= 2:
		return 70
	case dev <= 5:
		return 40
	default:
		return 0
	}
}

// intRangeDeviation returns how far value lies outside [min,max], zero when
// inside. Nil bounds are unbounded.
func intRangeDeviation(value int, min, max *int) int {
	if min != nil && value < *min {
		return *min - value
	}
	if max != nil && value > *max {
		return value - *max
	}
	return 0
}

// scoreOther blends the condition/compliance criteria (renovation,
// documents, utilities, heating — equal-weighted mean) at 70% with the floor
// preference at 30%.
func scoreOther(l model.ListingSnapshot, r model.RequirementSnapshot) float64 {
	condition := (scoreRenovation(l, r) +
		scoreDocuments(l, r) +
		scoreUtilities(l, r) +
		scoreHeating(l, r)) / 4

	return 0.7*condition + 0.3*scoreFloor(l, r)
}

// scoreRenovation scores 100 when the preference set is empty or contains
// the listing's renovation status, else 0.
func scoreRenovation(l model.ListingSnapshot, r model.RequirementSnapshot) float64 {
	if len(r.Renovations) == 0 {
		return 100
	}
	if l.Renovation == nil {
		return 0
	}
	if r.AcceptsRenovation(*l.Renovation) {
		return 100
	}
	return 0
}

// scoreDocuments gives partial credit for a partial intersection: the score
// is the fraction of requested document types the listing carries.
func scoreDocuments(l model.ListingSnapshot, r model.RequirementSnapshot) float64 {
	if len(r.DocumentTypes) == 0 {
		return 100
	}
	overlap := 0
	for _, dt := range r.DocumentTypes {
		if l.HasDocumentType(dt) {
			overlap++
		}
	}
	return float64(overlap) / float64(len(r.DocumentTypes)) * 100
}

// scoreHeating scores 100 when the preference set is empty or contains the
// listing's heating type, else 0.
func scoreHeating(l model.ListingSnapshot, r model.RequirementSnapshot) float64 {
	if len(r.HeatingTypes) == 0 {
		return 100
	}
	if l.Heating == nil {
		return 0
	}
	if r.AcceptsHeating(*l.Heating) {
		return 100
	}
	return 0
}

// scoreUtilities compares each requested utility against the listing.
// Requirement entries valued "any" are skipped; a utility the listing does
// not declare scores 50 (missing information, not a failure). With nothing
// requested the sub-score is 100.
func scoreUtilities(l model.ListingSnapshot, r model.RequirementSnapshot) float64 {
	var sum float64
	var considered int

	for key, want := range r.Utilities {
		if want == model.UtilityAny || want == "" {
			continue
		}
		considered++

		have, ok := l.Utilities[key]
		if !ok || have == model.UtilityAny || have == "" {
			sum += 50
			continue
		}
		if have == want {
			sum += 100
		}
	}

	if considered == 0 {
		return 100
	}
	return sum / float64(considered)
}
