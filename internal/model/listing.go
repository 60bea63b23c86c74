// Package model holds the immutable value types the scoring core operates
// on: flattened listing/requirement snapshots and the result tuples the
// engine produces. Snapshots are constructed once at the storage boundary
// and never mutated.
package model

// PaymentType classifies how a listing is offered.
type PaymentType string

const (
	PaymentTypeSale      PaymentType = "sale"
	PaymentTypeRent      PaymentType = "rent"
	PaymentTypeDailyRent PaymentType = "daily_rent"
)

// RenovationStatus describes the renovation condition of a property.
type RenovationStatus string

const (
	RenovationNone      RenovationStatus = "none"
	RenovationCosmetic  RenovationStatus = "cosmetic"
	RenovationEuro      RenovationStatus = "euro"
	RenovationDesigner  RenovationStatus = "designer"
	RenovationNewlyDone RenovationStatus = "newly_done"
)

// HeatingType describes the heating installed in a property.
type HeatingType string

const (
	HeatingNone       HeatingType = "none"
	HeatingCentral    HeatingType = "central"
	HeatingGas        HeatingType = "gas"
	HeatingElectric   HeatingType = "electric"
	HeatingSolidFuel  HeatingType = "solid_fuel"
	HeatingFloorWater HeatingType = "floor_water"
)

// UtilityState is the tri-state value of a utility attribute: present,
// absent, or unspecified ("any" on a requirement means "don't care").
type UtilityState string

const (
	UtilityYes UtilityState = "yes"
	UtilityNo  UtilityState = "no"
	UtilityAny UtilityState = "any"
)

// ListingSnapshot is a read-only projection of a listing at scoring time.
// Optional attributes are pointers; nil means the listing carries no
// information for that attribute.
type ListingSnapshot struct {
	ID         string `json:"id"`
	CategoryID string `json:"category_id"`
	LocationID string `json:"location_id"`

	Price       float64     `json:"price"`
	PaymentType PaymentType `json:"payment_type"`

	Rooms          *int    `json:"rooms,omitempty"`
	Area           float64 `json:"area"`
	Floor          *int    `json:"floor,omitempty"`
	BuildingFloors *int    `json:"building_floors,omitempty"`

	Renovation    *RenovationStatus       `json:"renovation,omitempty"`
	DocumentTypes []string                `json:"document_types,omitempty"`
	Utilities     map[string]UtilityState `json:"utilities,omitempty"`
	Heating       *HeatingType            `json:"heating,omitempty"`

	IsVIP         bool `json:"is_vip"`
	PriorityScore int  `json:"priority_score"`

	ImageHashes []string `json:"image_hashes,omitempty"`
}

// HasDocumentType reports whether the listing carries the given document type.
func (l ListingSnapshot) HasDocumentType(dt string) bool {
	for _, d := range l.DocumentTypes {
		if d == dt {
			return true
		}
	}
	return false
}

// OnFirstFloor reports whether the listing is on the first floor. A listing
// without floor information is not considered to be on any particular floor.
func (l ListingSnapshot) OnFirstFloor() bool {
	return l.Floor != nil && *l.Floor == 1
}

// OnLastFloor reports whether the listing occupies the building's top floor.
// Requires both the floor and the building height to be known.
func (l ListingSnapshot) OnLastFloor() bool {
	return l.Floor != nil && l.BuildingFloors != nil && *l.Floor == *l.BuildingFloors
}
