package match

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazarlink/match-cli/internal/model"
	"github.com/bazarlink/match-cli/internal/scorer"
)

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

func listingFixture(id string, price float64) model.ListingSnapshot {
	return model.ListingSnapshot{
		ID:         id,
		CategoryID: "apartments",
		LocationID: "loc-1",
		Price:      price,
		Rooms:      ptrInt(3),
		Area:       80,
	}
}

func requirementFixture(id string) model.RequirementSnapshot {
	return model.RequirementSnapshot{
		ID:          id,
		CategoryID:  "apartments",
		LocationIDs: []string{"loc-1"},
		PriceMin:    ptrFloat64(90_000),
		PriceMax:    ptrFloat64(110_000),
		RoomsMin:    ptrInt(2),
		RoomsMax:    ptrInt(4),
	}
}

func TestCalculateMatch(t *testing.T) {
	t.Parallel()
	e := NewEngine(scorer.DefaultMatchConfig())

	res := e.CalculateMatch(listingFixture("lst-1", 100_000), requirementFixture("req-1"), nil)
	assert.Equal(t, "lst-1", res.ListingID)
	assert.Equal(t, "req-1", res.RequirementID)
	assert.GreaterOrEqual(t, res.Score, 95)
	assert.True(t, res.IsValid)

	again := e.CalculateMatch(listingFixture("lst-1", 100_000), requirementFixture("req-1"), nil)
	assert.Equal(t, res, again, "re-scoring an identical pair is idempotent")
}

func TestFindMatchesForRequirement(t *testing.T) {
	t.Parallel()
	e := NewEngine(scorer.DefaultMatchConfig())

	listings := []model.ListingSnapshot{
		listingFixture("lst-good", 100_000),
		listingFixture("lst-pricier", 118_000), // ~7% over max: price band 80
		listingFixture("lst-way-off", 200_000), // >20% over: price band 0, still valid at 80 total
	}
	wrongCategory := listingFixture("lst-moto", 100_000)
	wrongCategory.CategoryID = "vehicles"
	listings = append(listings, wrongCategory)

	got, err := e.FindMatchesForRequirement(context.Background(), requirementFixture("req-1"), listings, Options{})
	require.NoError(t, err)

	require.Len(t, got, 3, "category mismatch is filtered by the validity threshold")
	assert.Equal(t, "lst-good", got[0].ListingID)
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i].Score, got[i-1].Score, "sorted by score descending")
	}
	for _, m := range got {
		assert.True(t, m.IsValid)
		assert.Equal(t, "req-1", m.RequirementID)
	}
}

func TestFindMatchesForRequirementVIPOrdering(t *testing.T) {
	t.Parallel()
	e := NewEngine(scorer.DefaultMatchConfig())

	vip := listingFixture("lst-vip", 118_000) // lower raw score
	vip.IsVIP = true
	listings := []model.ListingSnapshot{
		listingFixture("lst-perfect", 100_000),
		vip,
	}

	got, err := e.FindMatchesForRequirement(context.Background(), requirementFixture("req-1"), listings, Options{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "lst-vip", got[0].ListingID, "VIP outranks a higher raw score")
}

func TestFindMatchesForRequirementExclusions(t *testing.T) {
	t.Parallel()
	e := NewEngine(scorer.DefaultMatchConfig())

	listings := []model.ListingSnapshot{
		listingFixture("lst-1", 100_000),
		listingFixture("lst-rejected", 100_000),
		listingFixture("lst-inactive", 100_000),
		listingFixture("lst-blocked", 100_000),
	}
	opts := Options{
		Rejected: map[string]struct{}{"lst-rejected": {}},
		Activity: map[string]Activity{
			"lst-1":        {Active: true},
			"lst-inactive": {Active: false},
			"lst-blocked":  {Active: true, Blocked: true},
		},
	}

	got, err := e.FindMatchesForRequirement(context.Background(), requirementFixture("req-1"), listings, opts)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "lst-1", got[0].ListingID)
}

func TestFindMatchesForListing(t *testing.T) {
	t.Parallel()
	e := NewEngine(scorer.DefaultMatchConfig())

	l := listingFixture("lst-1", 100_000)

	tight := requirementFixture("req-tight")
	tight.PriceMax = ptrFloat64(95_000) // ~5% over: price band 80
	mismatched := requirementFixture("req-other-cat")
	mismatched.CategoryID = "vehicles"

	got, err := e.FindMatchesForListing(context.Background(), l, []model.RequirementSnapshot{
		tight,
		requirementFixture("req-exact"),
		mismatched,
	}, Options{})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "req-exact", got[0].RequirementID)
	assert.Equal(t, "req-tight", got[1].RequirementID)
}

func TestFindMatchesEmptyCandidates(t *testing.T) {
	t.Parallel()
	e := NewEngine(scorer.DefaultMatchConfig())

	got, err := e.FindMatchesForRequirement(context.Background(), requirementFixture("req-1"), nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = e.FindMatchesForListing(context.Background(), listingFixture("lst-1", 1000), nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindMatchesMaxCandidates(t *testing.T) {
	t.Parallel()
	e := NewEngine(scorer.DefaultMatchConfig())

	var listings []model.ListingSnapshot
	for i := 0; i < 10; i++ {
		listings = append(listings, listingFixture(fmt.Sprintf("lst-%d", i), 100_000))
	}

	got, err := e.FindMatchesForRequirement(context.Background(), requirementFixture("req-1"), listings, Options{MaxCandidates: 4})
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestFindMatchesConcurrentParity(t *testing.T) {
	t.Parallel()
	e := NewEngine(scorer.DefaultMatchConfig())

	var listings []model.ListingSnapshot
	for i := 0; i < 50; i++ {
		listings = append(listings, listingFixture(fmt.Sprintf("lst-%02d", i), 90_000+float64(i)*1000))
	}
	req := requirementFixture("req-1")

	sequential, err := e.FindMatchesForRequirement(context.Background(), req, listings, Options{})
	require.NoError(t, err)

	concurrent, err := e.FindMatchesForRequirement(context.Background(), req, listings, Options{Concurrency: 8})
	require.NoError(t, err)

	assert.Equal(t, sequential, concurrent, "fan-out must not change the result")
}

func TestFindMatchesCancelledContext(t *testing.T) {
	t.Parallel()
	e := NewEngine(scorer.DefaultMatchConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.FindMatchesForRequirement(ctx, requirementFixture("req-1"), []model.ListingSnapshot{
		listingFixture("lst-1", 100_000),
	}, Options{})
	require.ErrorIs(t, err, context.Canceled)
}
