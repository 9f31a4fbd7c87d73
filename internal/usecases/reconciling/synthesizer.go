package reconciling

import (
	"math/rand"

	"github.com/Molly503/paid-media/internal/config"
	"github.com/Molly503/paid-media/internal/domain"
)

// SynthesisSettings holds the tunable constants of the synthesizer. The
// thresholds are empirical values carried over from the historical repair
// runs, exposed through configuration rather than re-derived.
type SynthesisSettings struct {
	MinCVR              float64
	SmallExpectation    float64
	CTRBoostThreshold   float64
	CTRPenaltyThreshold float64
	QualityBoost        float64
	QualityPenalty      float64
	ApprovalRateMin     float64
	ApprovalRateMax     float64
	BasicSpendBelow     float64
	BasicClicksBelow    int
	PremiumSpendAbove   float64
	PremiumClicksAbove  int
}

// SettingsFromConfig copies the reconcile section of the runtime config.
func SettingsFromConfig(cfg *config.Config) SynthesisSettings {
	return SynthesisSettings{
		MinCVR:              cfg.Reconcile.MinCVR,
		SmallExpectation:    cfg.Reconcile.SmallExpectation,
		CTRBoostThreshold:   cfg.Reconcile.CTRBoostThreshold,
		CTRPenaltyThreshold: cfg.Reconcile.CTRPenaltyThreshold,
		QualityBoost:        cfg.Reconcile.QualityBoost,
		QualityPenalty:      cfg.Reconcile.QualityPenalty,
		ApprovalRateMin:     cfg.Reconcile.ApprovalRateMin,
		ApprovalRateMax:     cfg.Reconcile.ApprovalRateMax,
		BasicSpendBelow:     cfg.Reconcile.BasicSpendBelow,
		BasicClicksBelow:    cfg.Reconcile.BasicClicksBelow,
		PremiumSpendAbove:   cfg.Reconcile.PremiumSpendAbove,
		PremiumClicksAbove:  cfg.Reconcile.PremiumClicksAbove,
	}
}

// DefaultSettings returns the historical constants.
func DefaultSettings() SynthesisSettings {
	return SynthesisSettings{
		MinCVR:              0.005,
		SmallExpectation:    0.15,
		CTRBoostThreshold:   0.0003,
		CTRPenaltyThreshold: 0.0001,
		QualityBoost:        1.2,
		QualityPenalty:      0.8,
		ApprovalRateMin:     0.70,
		ApprovalRateMax:     0.88,
		BasicSpendBelow:     10,
		BasicClicksBelow:    5,
		PremiumSpendAbove:   50,
		PremiumClicksAbove:  30,
	}
}

// Synthesizer regenerates the conversion, revenue and ratio fields of a
// record so that every derived ratio is internally consistent and within
// plausible bounds for the vertical. All randomness comes from the passed
// generator; a record is reconciled with a fixed number of draws, so record
// order fully determines the output for a given seed.
type Synthesizer struct {
	rates    *RateTable
	settings SynthesisSettings
}

func NewSynthesizer(rates *RateTable, settings SynthesisSettings) *Synthesizer {
	return &Synthesizer{rates: rates, settings: settings}
}

// Reconcile returns a new record with regenerated conversion, revenue and
// ratio fields. The input record is not modified. A record with zero clicks
// is terminal: every synthesized field becomes zero and no randomness is
// consumed.
func (s *Synthesizer) Reconcile(rec *domain.Record, rng *rand.Rand) *domain.Record {
	out := rec.Clone()

	if rec.Clicks == 0 {
		out.TotalConversion = 0
		out.ApprovedConversion = 0
		out.RevenueTotal = 0
		out.RevenueApproved = 0
		out.RecomputeRatios()
		return out
	}

	cvr := s.RealisticCVR(rec, rng)
	conversions := s.drawConversions(rec.Clicks, cvr, rng)

	var perConversion float64
	if conversions > 0 {
		tier := s.ProductTier(rec.Spent, rec.Clicks)
		bounds := s.rates.TierRange(tier)
		perConversion = uniform(rng, bounds.Min, bounds.Max) * s.rates.RevenueMultiplier(rec.AgeSegment)
		out.RevenueTotal = float64(conversions) * perConversion
	} else {
		out.RevenueTotal = 0
	}
	out.TotalConversion = conversions

	out.ApprovedConversion, out.RevenueApproved = s.simulateApproval(conversions, perConversion, rng)

	out.RecomputeRatios()
	return out
}

// RealisticCVR estimates the plausible conversion rate for a record:
// segment base rate, gender adjustment, a three-way quality adjustment from
// the observed click-through ratio, and a sample-size variance multiplier,
// clamped into [MinCVR, policy ceiling]. Consumes exactly one draw.
func (s *Synthesizer) RealisticCVR(rec *domain.Record, rng *rand.Rand) float64 {
	rate := s.rates.BaseCVR(rec.AgeSegment) * s.rates.GenderMultiplier(rec.Gender)

	ctr := 0.0
	if rec.Impressions > 0 {
		ctr = float64(rec.Clicks) / float64(rec.Impressions)
	}
	switch {
	case ctr > s.settings.CTRBoostThreshold:
		rate *= s.settings.QualityBoost
	case ctr < s.settings.CTRPenaltyThreshold:
		rate *= s.settings.QualityPenalty
	}

	policy := PolicyForClicks(rec.Clicks)
	rate *= uniform(rng, policy.VarianceMin, policy.VarianceMax)

	if rate < s.settings.MinCVR {
		rate = s.settings.MinCVR
	}
	if rate > policy.MaxCVR {
		rate = policy.MaxCVR
	}
	return rate
}

// drawConversions draws the conversion count. When the expected count is far
// below one, a binomial draw would still produce spurious non-zero counts too
// often, so a single Bernoulli trial on the expectation is used instead.
func (s *Synthesizer) drawConversions(clicks int, cvr float64, rng *rand.Rand) int {
	expected := cvr * float64(clicks)
	if expected < s.settings.SmallExpectation {
		if rng.Float64() < expected {
			return 1
		}
		return 0
	}
	return binomial(rng, clicks, cvr)
}

// ProductTier buckets a record by advertising investment.
func (s *Synthesizer) ProductTier(spent float64, clicks int) Tier {
	switch {
	case spent < s.settings.BasicSpendBelow || clicks < s.settings.BasicClicksBelow:
		return TierBasic
	case spent > s.settings.PremiumSpendAbove || clicks > s.settings.PremiumClicksAbove:
		return TierPremium
	default:
		return TierStandard
	}
}

// simulateApproval draws an approval rate and truncates the approved count,
// so approved never exceeds total. Zero conversions consume no randomness.
func (s *Synthesizer) simulateApproval(conversions int, perConversion float64, rng *rand.Rand) (int, float64) {
	if conversions == 0 {
		return 0, 0
	}

	rate := uniform(rng, s.settings.ApprovalRateMin, s.settings.ApprovalRateMax)
	approved := int(float64(conversions) * rate)
	if approved <= 0 {
		return 0, 0
	}
	return approved, float64(approved) * perConversion
}

func uniform(rng *rand.Rand, min, max float64) float64 {
	return min + rng.Float64()*(max-min)
}

func binomial(rng *rand.Rand, n int, p float64) int {
	successes := 0
	for i := 0; i < n; i++ {
		if rng.Float64() < p {
			successes++
		}
	}
	return successes
}
