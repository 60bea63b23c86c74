package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bazarlink/match-cli/internal/model"
)

func ptrFloat64(v float64) *float64                        { return &v }
func ptrInt(v int) *int                                    { return &v }
func ptrRenovation(v model.RenovationStatus) *model.RenovationStatus { return &v }
func ptrHeating(v model.HeatingType) *model.HeatingType    { return &v }

func testListing() model.ListingSnapshot {
	return model.ListingSnapshot{
		ID:         "lst-1",
		CategoryID: "apartments",
		LocationID: "loc-1",
		Price:      100_000,
		Rooms:      ptrInt(3),
		Area:       80,
	}
}

func testRequirement() model.RequirementSnapshot {
	return model.RequirementSnapshot{
		ID:          "req-1",
		CategoryID:  "apartments",
		LocationIDs: []string{"loc-1"},
		PriceMin:    ptrFloat64(90_000),
		PriceMax:    ptrFloat64(110_000),
		RoomsMin:    ptrInt(2),
		RoomsMax:    ptrInt(4),
	}
}

func TestScoreCategoryGate(t *testing.T) {
	t.Parallel()
	s := New(DefaultMatchConfig())

	l := testListing()
	r := testRequirement()
	r.CategoryID = "vehicles"

	// Everything else matches perfectly; category mismatch still zeroes it.
	assert.Equal(t, 0, s.Score(l, r, nil))
}

func TestScoreNearPerfectMatch(t *testing.T) {
	t.Parallel()
	s := New(DefaultMatchConfig())

	got := s.Score(testListing(), testRequirement(), nil)
	assert.GreaterOrEqual(t, got, 95)

	res := 0
	for i := 0; i < 3; i++ {
		res = s.Score(testListing(), testRequirement(), nil)
	}
	assert.Equal(t, got, res, "scoring is idempotent")
}

func TestScorePriceThirtyPercentOver(t *testing.T) {
	t.Parallel()
	s := New(DefaultMatchConfig())

	l := testListing()
	l.Price = 130_000
	r := testRequirement()
	r.PriceMin = nil
	r.PriceMax = ptrFloat64(100_000)

	// Price sub-score 0, everything else 100:
	// 100*0.20 + 100*0.25 + 0*0.20 + 100*0.10 + 100*0.10 + 100*0.15 = 80.
	assert.Equal(t, 80, s.Score(l, r, nil))
}

func TestScoreUnconstrainedIdentity(t *testing.T) {
	t.Parallel()
	s := New(DefaultMatchConfig())

	r := testRequirement()
	r.PriceMin = nil
	r.PriceMax = nil

	l := testListing()
	var scores []int
	for _, price := range []float64{1, 50_000, 100_000, 10_000_000} {
		l.Price = price
		scores = append(scores, s.Score(l, r, nil))
	}
	for _, got := range scores[1:] {
		assert.Equal(t, scores[0], got, "price must not affect the score when unconstrained")
	}
}

func TestScoreBandedRange(t *testing.T) {
	t.Parallel()

	min := ptrFloat64(100_000)
	max := ptrFloat64(200_000)

	tests := []struct {
		name  string
		value float64
		min   *float64
		max   *float64
		want  float64
	}{
		{"unbounded", 123, nil, nil, 100},
		{"inside", 150_000, min, max, 100},
		{"at min", 100_000, min, max, 100},
		{"at max", 200_000, min, max, 100},
		{"10pct below min", 90_000, min, max, 80},
		{"10pct above max", 220_000, min, max, 80},
		{"15pct below min", 85_000, min, max, 50},
		{"20pct above max", 240_000, min, max, 50},
		{"25pct below min", 75_000, min, max, 0},
		{"30pct above max", 260_000, min, max, 0},
		{"only min, inside", 500_000, min, nil, 100},
		{"only max, inside", 1, nil, max, 100},
		{"inverted range", 150_000, max, min, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, scoreBandedRange(tt.value, tt.min, tt.max), 0.001)
		})
	}
}

func TestScoreBandedRangeMonotone(t *testing.T) {
	t.Parallel()

	max := ptrFloat64(100_000)
	prev := 100.0
	for _, value := range []float64{100_000, 105_000, 110_000, 115_000, 120_000, 130_000, 200_000} {
		got := scoreBandedRange(value, nil, max)
		assert.LessOrEqual(t, got, prev, "score must not increase with deviation (value %.0f)", value)
		prev = got
	}
}

func TestScoreRooms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		rooms *int
		min   *int
		max   *int
		want  float64
	}{
		{"unconstrained, no rooms", nil, nil, nil, 100},
		{"unconstrained, has rooms", ptrInt(3), nil, nil, 100},
		{"constrained, no rooms", nil, ptrInt(2), ptrInt(4), 0},
		{"in range", ptrInt(3), ptrInt(2), ptrInt(4), 100},
		{"off by one", ptrInt(5), ptrInt(2), ptrInt(4), 70},
		{"off by one below", ptrInt(1), ptrInt(2), ptrInt(4), 70},
		{"off by two", ptrInt(6), ptrInt(2), ptrInt(4), 40},
		{"off by three", ptrInt(7), ptrInt(2), ptrInt(4), 0},
		{"inverted range", ptrInt(3), ptrInt(4), ptrInt(2), 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, scoreRooms(tt.rooms, tt.min, tt.max), 0.001)
		})
	}
}

func TestScoreFloor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		l    model.ListingSnapshot
		r    model.RequirementSnapshot
		want float64
	}{
		{
			"not-first-floor veto",
			model.ListingSnapshot{Floor: ptrInt(1)},
			model.RequirementSnapshot{NotFirstFloor: true},
			0,
		},
		{
			"not-last-floor veto",
			model.ListingSnapshot{Floor: ptrInt(9), BuildingFloors: ptrInt(9)},
			model.RequirementSnapshot{NotLastFloor: true},
			0,
		},
		{
			"not-last-floor passes mid building",
			model.ListingSnapshot{Floor: ptrInt(5), BuildingFloors: ptrInt(9)},
			model.RequirementSnapshot{NotLastFloor: true},
			100,
		},
		{
			"no floor info is fully compatible",
			model.ListingSnapshot{},
			model.RequirementSnapshot{FloorMin: ptrInt(2), FloorMax: ptrInt(6)},
			100,
		},
		{
			"in range",
			model.ListingSnapshot{Floor: ptrInt(4)},
			model.RequirementSnapshot{FloorMin: ptrInt(2), FloorMax: ptrInt(6)},
			100,
		},
		{
			"off by two",
			model.ListingSnapshot{Floor: ptrInt(8)},
			model.RequirementSnapshot{FloorMin: ptrInt(2), FloorMax: ptrInt(6)},
			70,
		},
		{
			"off by five",
			model.ListingSnapshot{Floor: ptrInt(11)},
			model.RequirementSnapshot{FloorMin: ptrInt(2), FloorMax: ptrInt(6)},
			40,
		},
		{
			"off by six",
			model.ListingSnapshot{Floor: ptrInt(12)},
			model.RequirementSnapshot{FloorMin: ptrInt(2), FloorMax: ptrInt(6)},
			0,
		},
		{
			"unconstrained",
			model.ListingSnapshot{Floor: ptrInt(3)},
			model.RequirementSnapshot{},
			100,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, scoreFloor(tt.l, tt.r), 0.001)
		})
	}
}

func TestScoreLocation(t *testing.T) {
	t.Parallel()
	s := New(DefaultMatchConfig())

	r := model.RequirementSnapshot{LocationIDs: []string{"loc-1"}}

	t.Run("unconstrained", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, 100, s.scoreLocation(model.ListingSnapshot{LocationID: "anywhere"}, model.RequirementSnapshot{}, nil), 0.001)
	})

	t.Run("exact membership", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, 100, s.scoreLocation(model.ListingSnapshot{LocationID: "loc-1"}, r, nil), 0.001)
	})

	t.Run("adjacent", func(t *testing.T) {
		t.Parallel()
		ctx := &LocationContext{Adjacent: map[string]struct{}{"loc-2": {}}}
		assert.InDelta(t, 70, s.scoreLocation(model.ListingSnapshot{LocationID: "loc-2"}, r, ctx), 0.001)
	})

	t.Run("same city", func(t *testing.T) {
		t.Parallel()
		ctx := &LocationContext{SameCity: map[string]struct{}{"loc-3": {}}}
		assert.InDelta(t, 40, s.scoreLocation(model.ListingSnapshot{LocationID: "loc-3"}, r, ctx), 0.001)
	})

	t.Run("no evidence", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, 0, s.scoreLocation(model.ListingSnapshot{LocationID: "loc-9"}, r, nil), 0.001)
		assert.InDelta(t, 0, s.scoreLocation(model.ListingSnapshot{LocationID: "loc-9"}, r, &LocationContext{}), 0.001)
	})
}

func TestScoreLocationByDistance(t *testing.T) {
	t.Parallel()

	const radius = 5.0
	tests := []struct {
		name string
		km   float64
		want float64
	}{
		{"at center", 0, 100},
		{"half radius", 2.5, 85},
		{"at radius", 5, 70},
		{"one and a half radius", 7.5, 35},
		{"twice radius", 10, 0},
		{"beyond", 25, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, scoreLocationByDistance(tt.km, radius), 0.001)
		})
	}

	t.Run("zero radius is defensive", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, 0, scoreLocationByDistance(3, 0), 0.001)
	})
}

func TestScoreDocuments(t *testing.T) {
	t.Parallel()

	l := model.ListingSnapshot{DocumentTypes: []string{"deed", "cadastre"}}

	assert.InDelta(t, 100, scoreDocuments(l, model.RequirementSnapshot{}), 0.001)
	assert.InDelta(t, 100, scoreDocuments(l, model.RequirementSnapshot{DocumentTypes: []string{"deed"}}), 0.001)
	assert.InDelta(t, 50, scoreDocuments(l, model.RequirementSnapshot{DocumentTypes: []string{"deed", "power_of_attorney"}}), 0.001)
	assert.InDelta(t, 0, scoreDocuments(l, model.RequirementSnapshot{DocumentTypes: []string{"power_of_attorney"}}), 0.001)
}

func TestScoreUtilities(t *testing.T) {
	t.Parallel()

	r := model.RequirementSnapshot{Utilities: map[string]model.UtilityState{
		"water":    model.UtilityYes,
		"gas":      model.UtilityYes,
		"electric": model.UtilityAny, // ignored
	}}

	t.Run("all matching", func(t *testing.T) {
		t.Parallel()
		l := model.ListingSnapshot{Utilities: map[string]model.UtilityState{
			"water": model.UtilityYes, "gas": model.UtilityYes,
		}}
		assert.InDelta(t, 100, scoreUtilities(l, r), 0.001)
	})

	t.Run("unknown scores half", func(t *testing.T) {
		t.Parallel()
		l := model.ListingSnapshot{Utilities: map[string]model.UtilityState{
			"water": model.UtilityYes,
		}}
		// water 100, gas unknown 50 -> mean 75.
		assert.InDelta(t, 75, scoreUtilities(l, r), 0.001)
	})

	t.Run("mismatch scores zero", func(t *testing.T) {
		t.Parallel()
		l := model.ListingSnapshot{Utilities: map[string]model.UtilityState{
			"water": model.UtilityNo, "gas": model.UtilityNo,
		}}
		assert.InDelta(t, 0, scoreUtilities(l, r), 0.001)
	})

	t.Run("nothing requested", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, 100, scoreUtilities(model.ListingSnapshot{}, model.RequirementSnapshot{}), 0.001)
	})
}

func TestScoreOtherComposite(t *testing.T) {
	t.Parallel()

	l := model.ListingSnapshot{
		Renovation: ptrRenovation(model.RenovationEuro),
		Heating:    ptrHeating(model.HeatingCentral),
	}
	r := model.RequirementSnapshot{
		Renovations:  []model.RenovationStatus{model.RenovationEuro},
		HeatingTypes: []model.HeatingType{model.HeatingGas},
	}

	// renovation 100, documents 100, utilities 100, heating 0 -> mean 75;
	// floor unconstrained 100. 0.7*75 + 0.3*100 = 82.5.
	assert.InDelta(t, 82.5, scoreOther(l, r), 0.001)
}
