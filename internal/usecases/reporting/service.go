// Package reporting compares the record set before and after reconciliation.
// It is read-only: it never mutates the records it inspects.
package reporting

import (
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/Molly503/paid-media/internal/config"
	"github.com/Molly503/paid-media/internal/domain"
	"github.com/Molly503/paid-media/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Thresholds classify ROAS and CVR values when profiling a record set.
type Thresholds struct {
	HighROAS    float64 `json:"high_roas"`
	ExtremeROAS float64 `json:"extreme_roas"`
	HighCVR     float64 `json:"high_cvr"`
	ExtremeCVR  float64 `json:"extreme_cvr"`
	// SuspectROAS flags the contradiction the reconciler exists to remove: a
	// return above this bound with zero recorded conversions.
	SuspectROAS float64 `json:"suspect_roas"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		HighROAS:    15,
		ExtremeROAS: 30,
		HighCVR:     0.15,
		ExtremeCVR:  0.30,
		SuspectROAS: 5,
	}
}

// ThresholdsFromConfig copies the report section of the runtime config.
func ThresholdsFromConfig(cfg *config.Config) Thresholds {
	return Thresholds{
		HighROAS:    cfg.Report.HighROAS,
		ExtremeROAS: cfg.Report.ExtremeROAS,
		HighCVR:     cfg.Report.HighCVR,
		ExtremeCVR:  cfg.Report.ExtremeCVR,
		SuspectROAS: cfg.Report.SuspectROAS,
	}
}

// DistributionStats profiles ROAS and CVR over one record set.
type DistributionStats struct {
	Records        int     `json:"records"`
	MeanROAS       float64 `json:"mean_roas"`
	HighROAS       int     `json:"high_roas_count"`
	ExtremeROAS    int     `json:"extreme_roas_count"`
	MeanCVRPct     float64 `json:"mean_cvr_pct"`
	HighCVR        int     `json:"high_cvr_count"`
	ExtremeCVR     int     `json:"extreme_cvr_count"`
	SuspectRecords int     `json:"suspect_roas_zero_conversion_count"`
}

// ConsistencyStats holds the logical-consistency checks over the after set.
// SuspectRecords must be zero and ConsistencyRate must be 100 after a
// successful reconciliation.
type ConsistencyStats struct {
	SuspectRecords    int     `json:"suspect_roas_zero_conversion_count"`
	ConsistentRecords int     `json:"revenue_conversion_consistent"`
	ConsistencyRate   float64 `json:"revenue_conversion_consistency_pct"`
}

// RevenueStats profiles per-conversion revenue over converting records.
type RevenueStats struct {
	ConvertingRecords int     `json:"converting_records"`
	MinPerConversion  float64 `json:"min_per_conversion"`
	MaxPerConversion  float64 `json:"max_per_conversion"`
	MeanPerConversion float64 `json:"mean_per_conversion"`
}

// Summary is the full comparison between the sets before and after
// reconciliation.
type Summary struct {
	Thresholds  Thresholds        `json:"thresholds"`
	Before      DistributionStats `json:"before"`
	After       DistributionStats `json:"after"`
	Consistency ConsistencyStats  `json:"consistency"`
	Revenue     RevenueStats      `json:"revenue"`
}

// Reporter produces reconciliation summaries.
type Reporter struct {
	thresholds Thresholds
}

func NewReporter(thresholds Thresholds) *Reporter {
	return &Reporter{thresholds: thresholds}
}

// Compare profiles both sets and runs the consistency checks on the after
// set.
func (r *Reporter) Compare(before, after []*domain.Record) *Summary {
	return &Summary{
		Thresholds:  r.thresholds,
		Before:      r.profile(before),
		After:       r.profile(after),
		Consistency: r.checkConsistency(after),
		Revenue:     r.profileRevenue(after),
	}
}

func (r *Reporter) profile(records []*domain.Record) DistributionStats {
	stats := DistributionStats{Records: len(records)}
	if len(records) == 0 {
		return stats
	}

	var roasSum, cvrSum float64
	for _, rec := range records {
		roasSum += rec.ROASTotal
		cvrSum += rec.CVRTotal

		if rec.ROASTotal > r.thresholds.HighROAS {
			stats.HighROAS++
		}
		if rec.ROASTotal > r.thresholds.ExtremeROAS {
			stats.ExtremeROAS++
		}
		if rec.CVRTotal > r.thresholds.HighCVR {
			stats.HighCVR++
		}
		if rec.CVRTotal > r.thresholds.ExtremeCVR {
			stats.ExtremeCVR++
		}
		if rec.ROASTotal > r.thresholds.SuspectROAS && rec.TotalConversion == 0 {
			stats.SuspectRecords++
		}
	}

	stats.MeanROAS = utils.RoundWithTwoDecimalPlace(roasSum / float64(len(records)))
	stats.MeanCVRPct = utils.RoundWithTwoDecimalPlace(cvrSum / float64(len(records)) * 100)
	return stats
}

func (r *Reporter) checkConsistency(records []*domain.Record) ConsistencyStats {
	stats := ConsistencyStats{}
	for _, rec := range records {
		if rec.ROASTotal > r.thresholds.SuspectROAS && rec.TotalConversion == 0 {
			stats.SuspectRecords++
		}
		if rec.RevenueConsistent() {
			stats.ConsistentRecords++
		}
	}
	if len(records) > 0 {
		stats.ConsistencyRate = utils.RoundWithTwoDecimalPlace(
			float64(stats.ConsistentRecords) / float64(len(records)) * 100,
		)
	}
	return stats
}

func (r *Reporter) profileRevenue(records []*domain.Record) RevenueStats {
	stats := RevenueStats{}
	var sum float64
	for _, rec := range records {
		if rec.TotalConversion == 0 {
			continue
		}
		perConversion := rec.RevenueTotal / float64(rec.TotalConversion)
		if stats.ConvertingRecords == 0 || perConversion < stats.MinPerConversion {
			stats.MinPerConversion = perConversion
		}
		if perConversion > stats.MaxPerConversion {
			stats.MaxPerConversion = perConversion
		}
		sum += perConversion
		stats.ConvertingRecords++
	}
	if stats.ConvertingRecords > 0 {
		stats.MeanPerConversion = utils.RoundWithTwoDecimalPlace(sum / float64(stats.ConvertingRecords))
	}
	return stats
}

// Render writes the human-readable comparison summary.
func (r *Reporter) Render(w io.Writer, s *Summary) {
	fmt.Fprintln(w, "=== Reconciliation summary ===")
	renderDistribution(w, "before", s.Before, s.Thresholds)
	renderDistribution(w, "after", s.After, s.Thresholds)

	fmt.Fprintln(w, "\nConsistency checks (after):")
	fmt.Fprintf(w, "  ROAS > %.0f with zero conversions: %d (target 0)\n",
		s.Thresholds.SuspectROAS, s.Consistency.SuspectRecords)
	fmt.Fprintf(w, "  revenue/conversion consistent: %d/%d (%.1f%%)\n",
		s.Consistency.ConsistentRecords, s.After.Records, s.Consistency.ConsistencyRate)

	if s.Revenue.ConvertingRecords > 0 {
		fmt.Fprintln(w, "\nPer-conversion revenue (after):")
		fmt.Fprintf(w, "  range: %.0f-%.0f, mean: %.0f over %d converting records\n",
			s.Revenue.MinPerConversion, s.Revenue.MaxPerConversion,
			s.Revenue.MeanPerConversion, s.Revenue.ConvertingRecords)
	}
}

func renderDistribution(w io.Writer, label string, d DistributionStats, t Thresholds) {
	fmt.Fprintf(w, "\n%s (%d records):\n", label, d.Records)
	fmt.Fprintf(w, "  mean ROAS: %.2f\n", d.MeanROAS)
	fmt.Fprintf(w, "  ROAS > %.0f: %d (%.1f%%)\n", t.HighROAS, d.HighROAS, pct(d.HighROAS, d.Records))
	fmt.Fprintf(w, "  ROAS > %.0f: %d (%.1f%%)\n", t.ExtremeROAS, d.ExtremeROAS, pct(d.ExtremeROAS, d.Records))
	fmt.Fprintf(w, "  mean CVR: %.2f%%\n", d.MeanCVRPct)
	fmt.Fprintf(w, "  CVR > %.0f%%: %d (%.1f%%)\n", t.HighCVR*100, d.HighCVR, pct(d.HighCVR, d.Records))
	fmt.Fprintf(w, "  CVR > %.0f%%: %d (%.1f%%)\n", t.ExtremeCVR*100, d.ExtremeCVR, pct(d.ExtremeCVR, d.Records))
}

func pct(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}

// WriteJSON writes the machine-readable summary next to the output table.
func (r *Reporter) WriteJSON(path string, s *Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report file: %w", err)
	}
	return nil
}
