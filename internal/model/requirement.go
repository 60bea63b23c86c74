package model

// RequirementSnapshot is a read-only projection of a buyer requirement.
// Every constraint is optional: a nil bound means unbounded, an empty
// preference set means unconstrained.
type RequirementSnapshot struct {
	ID         string `json:"id"`
	CategoryID string `json:"category_id"`

	// LocationIDs is the set of acceptable locations; empty means any.
	LocationIDs []string `json:"location_ids,omitempty"`

	PriceMin *float64 `json:"price_min,omitempty"`
	PriceMax *float64 `json:"price_max,omitempty"`

	RoomsMin *int     `json:"rooms_min,omitempty"`
	RoomsMax *int     `json:"rooms_max,omitempty"`
	AreaMin  *float64 `json:"area_min,omitempty"`
	AreaMax  *float64 `json:"area_max,omitempty"`
	FloorMin *int     `json:"floor_min,omitempty"`
	FloorMax *int     `json:"floor_max,omitempty"`

	NotFirstFloor bool `json:"not_first_floor,omitempty"`
	NotLastFloor  bool `json:"not_last_floor,omitempty"`

	// Preference sets: any member matching counts, empty means unconstrained.
	Renovations   []RenovationStatus      `json:"renovations,omitempty"`
	DocumentTypes []string                `json:"document_types,omitempty"`
	HeatingTypes  []HeatingType           `json:"heating_types,omitempty"`
	Utilities     map[string]UtilityState `json:"utilities,omitempty"`
}

// AcceptsLocation reports whether loc satisfies the requirement's location
// set. An empty set accepts every location.
func (r RequirementSnapshot) AcceptsLocation(loc string) bool {
	if len(r.LocationIDs) == 0 {
		return true
	}
	for _, id := range r.LocationIDs {
		if id == loc {
			return true
		}
	}
	return false
}

// AcceptsRenovation reports whether the given status satisfies the
// renovation preference set.
func (r RequirementSnapshot) AcceptsRenovation(s RenovationStatus) bool {
	if len(r.Renovations) == 0 {
		return true
	}
	for _, want := range r.Renovations {
		if want == s {
			return true
		}
	}
	return false
}

// AcceptsHeating reports whether the given heating type satisfies the
// heating preference set.
func (r RequirementSnapshot) AcceptsHeating(h HeatingType) bool {
	if len(r.HeatingTypes) == 0 {
		return true
	}
	for _, want := range r.HeatingTypes {
		if want == h {
			return true
		}
	}
	return false
}
