package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultMatchConfig()
	assert.InDelta(t, 1.0, WeightSum(cfg), 0.001)
	assert.Equal(t, 70, cfg.ValidityThreshold)
	require.NoError(t, ValidateConfig(cfg))
}

func TestValidateConfig(t *testing.T) {
	t.Parallel()

	t.Run("negative weight", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultMatchConfig()
		cfg.PriceWeight = -0.2
		cfg.RoomsWeight = 0.5 // keep the sum at 1
		assert.Error(t, ValidateConfig(cfg))
	})

	t.Run("weights not summing to one", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultMatchConfig()
		cfg.OtherWeight = 0.5
		assert.Error(t, ValidateConfig(cfg))
	})

	t.Run("threshold out of range", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultMatchConfig()
		cfg.ValidityThreshold = 150
		assert.Error(t, ValidateConfig(cfg))
	})

	t.Run("negative radius", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultMatchConfig()
		cfg.SearchRadiusKm = -1
		assert.Error(t, ValidateConfig(cfg))
	})
}
