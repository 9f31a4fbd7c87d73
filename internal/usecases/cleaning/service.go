// Package cleaning drops rows whose derived metrics fall outside configured
// plausible ranges. When the survivor count drops below a floor, the pass is
// rerun with a relaxed backup bound set so downstream stages keep a workable
// sample.
package cleaning

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Molly503/paid-media/internal/config"
	"github.com/Molly503/paid-media/internal/dataset"
	"github.com/Molly503/paid-media/internal/domain"
	"github.com/Molly503/paid-media/pkg/utils"
)

// Bounds is one closed numeric range.
type Bounds struct {
	Min float64
	Max float64
}

func (b Bounds) contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// BoundSet holds every outlier range of one cleaning pass. ROAS and CPA are
// checked on the approved variants, matching how the downstream dashboards
// read the table.
type BoundSet struct {
	ROAS           Bounds
	CPA            Bounds
	CPC            Bounds
	CPM            Bounds
	MinSpend       float64
	MinConversions int
}

// BoundsFromConfig copies the cleaning section of the runtime config.
func BoundsFromConfig(cfg *config.Config) BoundSet {
	return BoundSet{
		ROAS:           Bounds{Min: cfg.Cleaning.ROASMin, Max: cfg.Cleaning.ROASMax},
		CPA:            Bounds{Min: cfg.Cleaning.CPAMin, Max: cfg.Cleaning.CPAMax},
		CPC:            Bounds{Min: cfg.Cleaning.CPCMin, Max: cfg.Cleaning.CPCMax},
		CPM:            Bounds{Min: cfg.Cleaning.CPMMin, Max: cfg.Cleaning.CPMMax},
		MinSpend:       cfg.Cleaning.MinSpend,
		MinConversions: cfg.Cleaning.MinConversions,
	}
}

// RelaxedBounds is the backup set applied when the primary pass leaves too
// few rows.
func RelaxedBounds() BoundSet {
	return BoundSet{
		ROAS:           Bounds{Min: 0.001, Max: 500},
		CPA:            Bounds{Min: 0.01, Max: 5000},
		CPC:            Bounds{Min: 0.001, Max: 100},
		CPM:            Bounds{Min: 0.001, Max: 1000},
		MinSpend:       0.001,
		MinConversions: 0,
	}
}

// Step records one cleaning rule and how many rows it removed.
type Step struct {
	Rule    string `json:"rule"`
	Removed int    `json:"removed"`
}

// Log summarizes one cleaning run.
type Log struct {
	RunID         string    `json:"run_id"`
	StartedAt     time.Time `json:"started_at"`
	OriginalCount int       `json:"original_count"`
	FinalCount    int       `json:"final_count"`
	RemovalRate   float64   `json:"removal_rate_pct"`
	Relaxed       bool      `json:"relaxed_bounds"`
	Steps         []Step    `json:"steps"`
}

// Cleaner runs one full outlier-cleaning pass.
type Cleaner interface {
	Run() (*Log, error)
}

type Service struct {
	source  dataset.Source
	sink    dataset.Sink
	bounds  BoundSet
	minRows int
	logPath string
}

func NewService(source dataset.Source, sink dataset.Sink, bounds BoundSet, minRows int, logPath string) Cleaner {
	return &Service{
		source:  source,
		sink:    sink,
		bounds:  bounds,
		minRows: minRows,
		logPath: logPath,
	}
}

// Run applies the bound set rule by rule, falls back to the relaxed set when
// too few rows survive, writes the cleaned table and the cleaning log.
func (s *Service) Run() (*Log, error) {
	runID, err := utils.GenerateID()
	if err != nil {
		return nil, fmt.Errorf("generating run ID: %w", err)
	}

	records, err := s.source.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("loading enriched table: %w", err)
	}

	result := &Log{
		RunID:         runID,
		StartedAt:     time.Now(),
		OriginalCount: len(records),
	}

	kept, steps := applyBounds(records, s.bounds)
	result.Steps = steps

	if len(kept) < s.minRows {
		logrus.WithFields(logrus.Fields{
			"run_id":    runID,
			"survivors": len(kept),
			"floor":     s.minRows,
		}).Warn("too few rows survived cleaning, retrying with relaxed bounds")

		kept, steps = applyBounds(records, RelaxedBounds())
		result.Steps = steps
		result.Relaxed = true
	}

	result.FinalCount = len(kept)
	if result.OriginalCount > 0 {
		result.RemovalRate = float64(result.OriginalCount-result.FinalCount) / float64(result.OriginalCount) * 100
	}

	if err := s.sink.WriteAll(kept); err != nil {
		return nil, fmt.Errorf("writing cleaned table: %w", err)
	}

	if s.logPath != "" {
		if err := s.writeLog(result); err != nil {
			return nil, err
		}
	}

	logrus.WithFields(logrus.Fields{
		"run_id":      runID,
		"original":    result.OriginalCount,
		"final":       result.FinalCount,
		"removal_pct": fmt.Sprintf("%.1f", result.RemovalRate),
	}).Info("outlier cleaning completed")

	return result, nil
}

// rule is one named predicate a surviving record must satisfy.
type rule struct {
	name string
	keep func(*domain.Record) bool
}

func rulesFor(b BoundSet) []rule {
	return []rule{
		{"ROAS range", func(r *domain.Record) bool { return b.ROAS.contains(r.ROASApproved) }},
		{"CPA range", func(r *domain.Record) bool { return b.CPA.contains(r.CPAApproved) }},
		{"CPC range", func(r *domain.Record) bool { return b.CPC.contains(r.CPC) }},
		{"CPM range", func(r *domain.Record) bool { return b.CPM.contains(r.CPM) }},
		{"minimum thresholds", func(r *domain.Record) bool {
			return r.Spent >= b.MinSpend && r.ApprovedConversion >= b.MinConversions
		}},
	}
}

func applyBounds(records []*domain.Record, bounds BoundSet) ([]*domain.Record, []Step) {
	kept := records
	steps := make([]Step, 0, 5)

	for _, rl := range rulesFor(bounds) {
		survivors := make([]*domain.Record, 0, len(kept))
		for _, rec := range kept {
			if rl.keep(rec) {
				survivors = append(survivors, rec)
			}
		}
		steps = append(steps, Step{Rule: rl.name, Removed: len(kept) - len(survivors)})
		kept = survivors
	}

	return kept, steps
}

func (s *Service) writeLog(l *Log) error {
	var b strings.Builder

	fmt.Fprintf(&b, "outlier cleaning run %s\n", l.RunID)
	fmt.Fprintf(&b, "started: %s\n", l.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "rows: %d -> %d (%.1f%% removed)\n", l.OriginalCount, l.FinalCount, l.RemovalRate)
	if l.Relaxed {
		fmt.Fprintln(&b, "bounds: relaxed backup set")
	}
	for _, step := range l.Steps {
		fmt.Fprintf(&b, "  %s: removed %d\n", step.Rule, step.Removed)
	}

	if err := os.WriteFile(s.logPath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing cleaning log: %w", err)
	}
	return nil
}
