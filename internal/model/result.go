package model

// MatchResult is the outcome of scoring one listing against one requirement.
// It is produced per invocation and is not itself a stored entity.
type MatchResult struct {
	ListingID     string `json:"listing_id"`
	RequirementID string `json:"requirement_id"`
	Score         int    `json:"score"`
	IsValid       bool   `json:"is_valid"`
}

// DuplicateBreakdown records which similarity criteria matched between two
// listings.
type DuplicateBreakdown struct {
	LocationMatch bool `json:"location_match"`
	PriceMatch    bool `json:"price_match"`
	AreaMatch     bool `json:"area_match"`
	RoomsMatch    bool `json:"rooms_match"`
	ImageMatch    bool `json:"image_match"`
}

// DuplicateCheckResult is the outcome of comparing a candidate listing
// against an existing one.
type DuplicateCheckResult struct {
	ListingID            string             `json:"listing_id"`
	OtherListingID       string             `json:"other_listing_id"`
	SimilarityScore      int                `json:"similarity_score"`
	IsPotentialDuplicate bool               `json:"is_potential_duplicate"`
	Breakdown            DuplicateBreakdown `json:"breakdown"`
}
