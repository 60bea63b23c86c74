package store

import "github.com/bazarlink/match-cli/internal/model"

// FromStoredListing flattens a persisted listing into the immutable snapshot
// the scoring core consumes. Categorical attributes are resolved to their
// typed values here, once, at the boundary.
func FromStoredListing(l Listing) model.ListingSnapshot {
	snap := model.ListingSnapshot{
		ID:             l.ID,
		CategoryID:     l.CategoryID,
		LocationID:     l.LocationID,
		Price:          l.Price,
		PaymentType:    model.PaymentType(l.PaymentType),
		Rooms:          l.Rooms,
		Area:           l.Area,
		Floor:          l.Floor,
		BuildingFloors: l.BuildingFloors,
		DocumentTypes:  l.DocumentTypes,
		IsVIP:          l.IsVIP,
		PriorityScore:  l.PriorityScore,
		ImageHashes:    l.ImageHashes,
	}

	if l.Renovation != nil {
		r := model.RenovationStatus(*l.Renovation)
		snap.Renovation = &r
	}
	if l.Heating != nil {
		h := model.HeatingType(*l.Heating)
		snap.Heating = &h
	}
	if len(l.Utilities) > 0 {
		snap.Utilities = make(map[string]model.UtilityState, len(l.Utilities))
		for k, v := range l.Utilities {
			snap.Utilities[k] = model.UtilityState(v)
		}
	}

	return snap
}

// FromStoredRequirement flattens a persisted requirement into a snapshot.
// locationIDs, when non-nil, replaces the stored location set — callers use
// this to expand a stored location group into its member locations.
func FromStoredRequirement(r Requirement, locationIDs []string) model.RequirementSnapshot {
	if locationIDs == nil {
		locationIDs = r.LocationIDs
	}

	snap := model.RequirementSnapshot{
		ID:            r.ID,
		CategoryID:    r.CategoryID,
		LocationIDs:   locationIDs,
		PriceMin:      r.PriceMin,
		PriceMax:      r.PriceMax,
		RoomsMin:      r.RoomsMin,
		RoomsMax:      r.RoomsMax,
		AreaMin:       r.AreaMin,
		AreaMax:       r.AreaMax,
		FloorMin:      r.FloorMin,
		FloorMax:      r.FloorMax,
		NotFirstFloor: r.NotFirstFloor,
		NotLastFloor:  r.NotLastFloor,
		DocumentTypes: r.DocumentTypes,
	}

	for _, v := range r.Renovations {
		snap.Renovations = append(snap.Renovations, model.RenovationStatus(v))
	}
	for _, v := range r.HeatingTypes {
		snap.HeatingTypes = append(snap.HeatingTypes, model.HeatingType(v))
	}
	if len(r.Utilities) > 0 {
		snap.Utilities = make(map[string]model.UtilityState, len(r.Utilities))
		for k, v := range r.Utilities {
			snap.Utilities[k] = model.UtilityState(v)
		}
	}

	return snap
}
