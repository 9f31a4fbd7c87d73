package reconciling

// SamplePolicy caps how extreme a plausible conversion rate may get for a
// given click count. Small samples carry high binomial noise, so both the
// rate ceiling and the variance multiplier range widen as the sample shrinks.
type SamplePolicy struct {
	MaxCVR      float64
	VarianceMin float64
	VarianceMax float64
}

// PolicyForClicks maps an observed click count onto its sample-size tier.
func PolicyForClicks(clicks int) SamplePolicy {
	switch {
	case clicks <= 3:
		return SamplePolicy{MaxCVR: 0.12, VarianceMin: 0.6, VarianceMax: 1.5}
	case clicks <= 8:
		return SamplePolicy{MaxCVR: 0.08, VarianceMin: 0.8, VarianceMax: 1.3}
	default:
		return SamplePolicy{MaxCVR: 0.06, VarianceMin: 0.9, VarianceMax: 1.1}
	}
}
