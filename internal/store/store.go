// Package store persists listings, requirements, and computed matches. The
// scoring core never touches storage; this package owns the row shapes and
// the snapshot adapters at the boundary.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = eris.New("store: not found")

// Entity status values. Matching only considers active entities.
const (
	StatusActive        = "active"
	StatusPendingReview = "pending_review"
	StatusExpired       = "expired"
	StatusBlocked       = "blocked"
)

// Match status values.
const (
	MatchStatusPending   = "pending"
	MatchStatusDelivered = "delivered"
	MatchStatusRejected  = "rejected"
)

// Listing is the persisted listing record.
type Listing struct {
	ID         string `json:"id"`
	CategoryID string `json:"category_id"`
	LocationID string `json:"location_id"`
	Title      string `json:"title"`

	Price       float64 `json:"price"`
	PaymentType string  `json:"payment_type"`

	Rooms          *int     `json:"rooms,omitempty"`
	Area           float64  `json:"area"`
	Floor          *int     `json:"floor,omitempty"`
	BuildingFloors *int     `json:"building_floors,omitempty"`
	Renovation     *string  `json:"renovation,omitempty"`
	DocumentTypes  []string `json:"document_types,omitempty"`
	Utilities      map[string]string `json:"utilities,omitempty"`
	Heating        *string  `json:"heating,omitempty"`

	IsVIP         bool `json:"is_vip"`
	PriorityScore int  `json:"priority_score"`

	ImageHashes []string `json:"image_hashes,omitempty"`

	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Requirement is the persisted buyer-requirement record.
type Requirement struct {
	ID         string `json:"id"`
	CategoryID string `json:"category_id"`

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

	Renovations   []string          `json:"renovations,omitempty"`
	DocumentTypes []string          `json:"document_types,omitempty"`
	HeatingTypes  []string          `json:"heating_types,omitempty"`
	Utilities     map[string]string `json:"utilities,omitempty"`

	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Match is a persisted listing/requirement match.
type Match struct {
	ID            string    `json:"id"`
	ListingID     string    `json:"listing_id"`
	RequirementID string    `json:"requirement_id"`
	Score         int       `json:"score"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// MatchFilter specifies criteria for listing persisted matches.
type MatchFilter struct {
	ListingID     string `json:"listing_id,omitempty"`
	RequirementID string `json:"requirement_id,omitempty"`
	Status        string `json:"status,omitempty"`
	Limit         int    `json:"limit,omitempty"`
}

// Store defines the persistence interface consumed by the CLI and the HTTP
// API.
type Store interface {
	// Listings
	CreateListing(ctx context.Context, l *Listing) error
	GetListing(ctx context.Context, id string) (*Listing, error)
	ListActiveListings(ctx context.Context, categoryID string) ([]Listing, error)
	UpdateListingStatus(ctx context.Context, id, status string) error

	// Requirements
	CreateRequirement(ctx context.Context, r *Requirement) error
	GetRequirement(ctx context.Context, id string) (*Requirement, error)
	ListActiveRequirements(ctx context.Context, categoryID string) ([]Requirement, error)

	// Matches
	UpsertMatch(ctx context.Context, m *Match) error
	ListMatches(ctx context.Context, filter MatchFilter) ([]Match, error)
	RejectMatch(ctx context.Context, listingID, requirementID string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
