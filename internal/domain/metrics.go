package domain

import "fmt"

// ratio divides num by den, returning the zero sentinel when the denominator
// is zero so that tabular output stays well-formed.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// RecomputeTrafficMetrics overwrites CTR, CPC, CPM and average frequency from
// the impression, click and spend fields.
func (r *Record) RecomputeTrafficMetrics() {
	r.CTR = ratio(float64(r.Clicks), float64(r.Impressions))
	r.CPC = ratio(r.Spent, float64(r.Clicks))
	r.CPM = ratio(r.Spent, float64(r.Impressions)) * 1000
	r.AvgFrequency = ratio(float64(r.Impressions), float64(r.Clicks))
}

// RecomputeRatios overwrites the CVR, CPA and ROAS fields from the conversion
// and revenue fields. Every division is zero-guarded.
func (r *Record) RecomputeRatios() {
	r.CVRTotal = ratio(float64(r.TotalConversion), float64(r.Clicks))
	r.CVRApproved = ratio(float64(r.ApprovedConversion), float64(r.Clicks))
	r.CPATotal = ratio(r.Spent, float64(r.TotalConversion))
	r.CPAApproved = ratio(r.Spent, float64(r.ApprovedConversion))
	r.ROASTotal = ratio(r.RevenueTotal, r.Spent)
	r.ROASApproved = ratio(r.RevenueApproved, r.Spent)
}

// FunnelViolations lists every ordering constraint the record breaks in the
// impressions >= clicks >= total conversions >= approved conversions funnel.
func (r *Record) FunnelViolations() []string {
	var violations []string

	if r.Impressions < r.Clicks {
		violations = append(violations, fmt.Sprintf("impressions (%d) < clicks (%d)", r.Impressions, r.Clicks))
	}
	if r.Clicks < r.TotalConversion {
		violations = append(violations, fmt.Sprintf("clicks (%d) < total conversions (%d)", r.Clicks, r.TotalConversion))
	}
	if r.TotalConversion < r.ApprovedConversion {
		violations = append(violations, fmt.Sprintf("total conversions (%d) < approved conversions (%d)", r.TotalConversion, r.ApprovedConversion))
	}

	return violations
}

// ValidFunnel reports whether the record respects the funnel ordering.
func (r *Record) ValidFunnel() bool {
	return len(r.FunnelViolations()) == 0
}

// RevenueConsistent reports whether revenue presence matches conversion
// presence: zero conversions with zero revenue, or positive conversions with
// positive revenue.
func (r *Record) RevenueConsistent() bool {
	if r.TotalConversion == 0 {
		return r.RevenueTotal == 0
	}
	return r.RevenueTotal > 0
}
