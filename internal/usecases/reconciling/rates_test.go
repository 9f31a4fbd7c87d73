package reconciling

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateTableLookups(t *testing.T) {
	table := NewRateTable()

	assert.Equal(t, 0.042, table.BaseCVR("40-44"))
	assert.Equal(t, 0.010, table.BaseCVR("18-24"))
	assert.Equal(t, 1.12, table.GenderMultiplier("F"))
	assert.Equal(t, 1.0, table.GenderMultiplier("M"))
	assert.Equal(t, 1.4, table.RevenueMultiplier("40-44"))

	premium := table.TierRange(TierPremium)
	assert.Equal(t, 600.0, premium.Min)
	assert.Equal(t, 1200.0, premium.Max)
}

func TestRateTableFallbacks(t *testing.T) {
	table := NewRateTable()

	// Unrecognized categorical values get the documented defaults, never a
	// silent zero.
	assert.Equal(t, DefaultBaseCVR, table.BaseCVR("65+"))
	assert.Equal(t, DefaultBaseCVR, table.BaseCVR(""))
	assert.Equal(t, DefaultGenderMultiplier, table.GenderMultiplier("unknown"))
	assert.Equal(t, DefaultRevenueMultiplier, table.RevenueMultiplier("65+"))
	assert.Equal(t, table.TierRange(TierStandard), table.TierRange(Tier("deluxe")))
}

func TestPolicyForClicks(t *testing.T) {
	tests := []struct {
		clicks int
		policy SamplePolicy
	}{
		{0, SamplePolicy{MaxCVR: 0.12, VarianceMin: 0.6, VarianceMax: 1.5}},
		{3, SamplePolicy{MaxCVR: 0.12, VarianceMin: 0.6, VarianceMax: 1.5}},
		{4, SamplePolicy{MaxCVR: 0.08, VarianceMin: 0.8, VarianceMax: 1.3}},
		{8, SamplePolicy{MaxCVR: 0.08, VarianceMin: 0.8, VarianceMax: 1.3}},
		{9, SamplePolicy{MaxCVR: 0.06, VarianceMin: 0.9, VarianceMax: 1.1}},
		{500, SamplePolicy{MaxCVR: 0.06, VarianceMin: 0.9, VarianceMax: 1.1}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.policy, PolicyForClicks(tt.clicks), "clicks=%d", tt.clicks)
	}
}
