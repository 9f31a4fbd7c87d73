package reconciling

// Baseline rates for the financial-services advertising vertical. Conversion
// rates peak in the 40-44 bracket and taper on both sides; per-conversion
// value follows the same shape. Unrecognized segment values fall back to the
// documented defaults below, never to zero.
const (
	// DefaultBaseCVR is the population-average conversion rate used for any
	// age segment missing from the table.
	DefaultBaseCVR = 0.028
	// DefaultGenderMultiplier leaves the base rate unchanged.
	DefaultGenderMultiplier = 1.0
	// DefaultRevenueMultiplier leaves the per-conversion revenue unchanged.
	DefaultRevenueMultiplier = 1.0
)

// Tier buckets a record by advertising investment; the tier determines the
// plausible per-conversion revenue range.
type Tier string

const (
	TierBasic    Tier = "basic"
	TierStandard Tier = "standard"
	TierPremium  Tier = "premium"
)

// RevenueRange bounds the per-conversion revenue drawn for a tier.
type RevenueRange struct {
	Min float64
	Max float64
}

// RateTable is the static segment lookup backing the synthesizer. Pure data;
// every lookup succeeds.
type RateTable struct {
	baseCVR      map[string]float64
	genderAdj    map[string]float64
	revenueTiers map[Tier]RevenueRange
	revenueAdj   map[string]float64
}

// NewRateTable returns the production rate table.
func NewRateTable() *RateTable {
	return &RateTable{
		baseCVR: map[string]float64{
			"18-24": 0.010,
			"25-29": 0.018,
			"30-34": 0.028,
			"35-39": 0.035,
			"40-44": 0.042,
			"45-49": 0.038,
			"50+":   0.025,
		},
		genderAdj: map[string]float64{
			"M": 1.0,
			"F": 1.12,
		},
		revenueTiers: map[Tier]RevenueRange{
			TierBasic:    {Min: 40, Max: 120},
			TierStandard: {Min: 150, Max: 400},
			TierPremium:  {Min: 600, Max: 1200},
		},
		revenueAdj: map[string]float64{
			"18-24": 0.8,
			"25-29": 0.9,
			"30-34": 1.1,
			"35-39": 1.3,
			"40-44": 1.4,
			"45-49": 1.2,
			"50+":   1.0,
		},
	}
}

// BaseCVR returns the baseline conversion rate for an age segment.
func (t *RateTable) BaseCVR(ageSegment string) float64 {
	if rate, ok := t.baseCVR[ageSegment]; ok {
		return rate
	}
	return DefaultBaseCVR
}

// GenderMultiplier returns the multiplicative adjustment for a gender value.
func (t *RateTable) GenderMultiplier(gender string) float64 {
	if adj, ok := t.genderAdj[gender]; ok {
		return adj
	}
	return DefaultGenderMultiplier
}

// TierRange returns the per-conversion revenue range for a product tier.
func (t *RateTable) TierRange(tier Tier) RevenueRange {
	if r, ok := t.revenueTiers[tier]; ok {
		return r
	}
	return t.revenueTiers[TierStandard]
}

// RevenueMultiplier returns the age adjustment applied to per-conversion
// revenue.
func (t *RateTable) RevenueMultiplier(ageSegment string) float64 {
	if adj, ok := t.revenueAdj[ageSegment]; ok {
		return adj
	}
	return DefaultRevenueMultiplier
}
