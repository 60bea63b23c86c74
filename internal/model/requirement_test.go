package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAcceptsLocation(t *testing.T) {
	t.Parallel()

	t.Run("empty set accepts anything", func(t *testing.T) {
		t.Parallel()
		r := RequirementSnapshot{}
		assert.True(t, r.AcceptsLocation("loc-1"))
		assert.True(t, r.AcceptsLocation(""))
	})

	t.Run("membership", func(t *testing.T) {
		t.Parallel()
		r := RequirementSnapshot{LocationIDs: []string{"loc-1", "loc-2"}}
		assert.True(t, r.AcceptsLocation("loc-2"))
		assert.False(t, r.AcceptsLocation("loc-3"))
	})
}

func TestAcceptsRenovation(t *testing.T) {
	t.Parallel()

	r := RequirementSnapshot{Renovations: []RenovationStatus{RenovationEuro, RenovationDesigner}}
	assert.True(t, r.AcceptsRenovation(RenovationEuro))
	assert.False(t, r.AcceptsRenovation(RenovationNone))
	assert.True(t, RequirementSnapshot{}.AcceptsRenovation(RenovationNone), "unconstrained")
}

func TestAcceptsHeating(t *testing.T) {
	t.Parallel()

	r := RequirementSnapshot{HeatingTypes: []HeatingType{HeatingCentral}}
	assert.True(t, r.AcceptsHeating(HeatingCentral))
	assert.False(t, r.AcceptsHeating(HeatingGas))
	assert.True(t, RequirementSnapshot{}.AcceptsHeating(HeatingGas), "unconstrained")
}
