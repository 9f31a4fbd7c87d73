// Package enriching computes the derived metric columns of a raw campaign
// table and validates the delivery funnel before the downstream cleaning and
// reconciliation stages run.
package enriching

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/Molly503/paid-media/internal/dataset"
	"github.com/Molly503/paid-media/internal/domain"
)

// QualityCriterion is one pass/fail check of the enriched table.
type QualityCriterion struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
}

// QualityReport summarizes the enrichment pass.
type QualityReport struct {
	TotalRows        int                `json:"total_rows"`
	KeptRows         int                `json:"kept_rows"`
	DroppedZeroSpend int                `json:"dropped_zero_spend"`
	DroppedZeroImpr  int                `json:"dropped_zero_impressions"`
	DroppedFunnel    int                `json:"dropped_funnel_violations"`
	FunnelViolations []string           `json:"funnel_violations,omitempty"`
	Criteria         []QualityCriterion `json:"criteria"`
}

// Enricher runs one full enrichment pass.
type Enricher interface {
	Run() (*QualityReport, error)
}

type Service struct {
	source dataset.Source
	sink   dataset.Sink

	averageOrderValue float64
	minRows           int
}

func NewService(source dataset.Source, sink dataset.Sink, averageOrderValue float64, minRows int) Enricher {
	return &Service{
		source:            source,
		sink:              sink,
		averageOrderValue: averageOrderValue,
		minRows:           minRows,
	}
}

// Run reads the raw table, computes CTR, CPC, CPM, frequency, revenue from
// the flat order value, and every CVR/CPA/ROAS ratio, drops rows that break
// the funnel ordering or carry no spend or impressions, and writes the
// enriched table.
func (s *Service) Run() (*QualityReport, error) {
	records, err := s.source.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("loading raw table: %w", err)
	}

	report := &QualityReport{TotalRows: len(records)}
	kept := make([]*domain.Record, 0, len(records))

	for _, rec := range records {
		enriched := rec.Clone()
		enriched.RevenueTotal = float64(enriched.TotalConversion) * s.averageOrderValue
		enriched.RevenueApproved = float64(enriched.ApprovedConversion) * s.averageOrderValue
		enriched.RecomputeTrafficMetrics()
		enriched.RecomputeRatios()

		switch {
		case enriched.Spent <= 0:
			report.DroppedZeroSpend++
		case enriched.Impressions <= 0:
			report.DroppedZeroImpr++
		case !enriched.ValidFunnel():
			report.DroppedFunnel++
			for _, v := range enriched.FunnelViolations() {
				report.FunnelViolations = append(report.FunnelViolations, fmt.Sprintf("ad %s: %s", enriched.AdID, v))
			}
		default:
			kept = append(kept, enriched)
		}
	}
	report.KeptRows = len(kept)

	report.Criteria = s.evaluate(kept)

	if err := s.sink.WriteAll(kept); err != nil {
		return nil, fmt.Errorf("writing enriched table: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"total_rows": report.TotalRows,
		"kept_rows":  report.KeptRows,
	}).Info("enrichment completed")

	return report, nil
}

// evaluate checks whether the enriched table is fit for downstream analysis.
func (s *Service) evaluate(records []*domain.Record) []QualityCriterion {
	totalConversions := 0
	ctrSum := 0.0
	ages := map[string]struct{}{}
	genders := map[string]struct{}{}

	for _, rec := range records {
		totalConversions += rec.TotalConversion
		ctrSum += rec.CTR
		ages[rec.AgeSegment] = struct{}{}
		genders[rec.Gender] = struct{}{}
	}

	meanCTR := 0.0
	if len(records) > 0 {
		meanCTR = ctrSum / float64(len(records))
	}

	return []QualityCriterion{
		{Name: "sample size", Passed: len(records) >= s.minRows},
		{Name: "plausible mean CTR", Passed: meanCTR > 0 && meanCTR < 1},
		{Name: "segment diversity", Passed: len(ages) > 1 && len(genders) > 1},
		{Name: "conversion tracking", Passed: totalConversions > 0},
	}
}

// Render writes the human-readable quality summary.
func (r *QualityReport) Render(w io.Writer) {
	fmt.Fprintln(w, "=== Enrichment summary ===")
	fmt.Fprintf(w, "rows: %d read, %d kept\n", r.TotalRows, r.KeptRows)
	fmt.Fprintf(w, "dropped: %d zero spend, %d zero impressions, %d funnel violations\n",
		r.DroppedZeroSpend, r.DroppedZeroImpr, r.DroppedFunnel)

	for _, v := range r.FunnelViolations {
		fmt.Fprintf(w, "  funnel: %s\n", v)
	}

	fmt.Fprintln(w, "quality criteria:")
	for _, c := range r.Criteria {
		status := "FAIL"
		if c.Passed {
			status = "ok"
		}
		fmt.Fprintf(w, "  %-20s %s\n", c.Name, status)
	}
}
