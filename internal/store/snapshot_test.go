package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazarlink/match-cli/internal/model"
)

func TestFromStoredListing(t *testing.T) {
	t.Parallel()

	snap := FromStoredListing(*sampleListing())
	assert.Equal(t, "apartments", snap.CategoryID)
	assert.Equal(t, "loc-1", snap.LocationID)
	assert.Equal(t, model.PaymentType("sale"), snap.PaymentType)
	require.NotNil(t, snap.Rooms)
	assert.Equal(t, 3, *snap.Rooms)
	require.NotNil(t, snap.Renovation)
	assert.Equal(t, model.RenovationStatus("renovated"), *snap.Renovation)
	require.NotNil(t, snap.Heating)
	assert.Equal(t, model.HeatingType("central"), *snap.Heating)
	assert.Equal(t, model.UtilityYes, snap.Utilities["water"])
	assert.Equal(t, model.UtilityNo, snap.Utilities["gas"])
	assert.True(t, snap.IsVIP)
	assert.Equal(t, 7, snap.PriorityScore)
	assert.Equal(t, []string{"p:cafe", "p:beef"}, snap.ImageHashes)
}

func TestFromStoredListingOptionalsAbsent(t *testing.T) {
	t.Parallel()

	snap := FromStoredListing(Listing{ID: "lst-1", CategoryID: "land", Price: 40_000, Area: 600})
	assert.Nil(t, snap.Rooms)
	assert.Nil(t, snap.Renovation)
	assert.Nil(t, snap.Heating)
	assert.Nil(t, snap.Utilities)
}

func TestFromStoredRequirement(t *testing.T) {
	t.Parallel()

	r := *sampleRequirement()
	snap := FromStoredRequirement(r, nil)
	assert.Equal(t, []string{"loc-1", "loc-2"}, snap.LocationIDs, "stored locations used when no override")
	require.NotNil(t, snap.PriceMax)
	assert.Equal(t, 130_000.0, *snap.PriceMax)
	assert.True(t, snap.NotFirstFloor)
	assert.Equal(t, []model.RenovationStatus{"renovated"}, snap.Renovations)
	assert.Equal(t, model.UtilityYes, snap.Utilities["water"])

	expanded := FromStoredRequirement(r, []string{"loc-1", "loc-2", "loc-3"})
	assert.Equal(t, []string{"loc-1", "loc-2", "loc-3"}, expanded.LocationIDs, "override replaces stored set")
}
