// Package dataset reads and writes the campaign CSV tables the pipeline
// consumes and produces. Columns are located by header name, so input column
// order does not matter; output uses the canonical column order, with any
// unrecognized input columns carried through untouched after it.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/Molly503/paid-media/internal/domain"
)

var (
	// ErrInputNotFound indicates the input table could not be located.
	ErrInputNotFound = errors.New("input table not found")
	// ErrMissingColumn indicates a required column is absent from the header.
	ErrMissingColumn = errors.New("required column missing")
)

// Schema selects which columns a source requires. Raw tables carry only the
// delivery counters; enriched tables also carry the derived metric columns.
type Schema int

const (
	SchemaRaw Schema = iota
	SchemaEnriched
)

const (
	colAdID               = "ad_id"
	colXYZCampaignID      = "xyz_campaign_id"
	colFBCampaignID       = "fb_campaign_id"
	colAge                = "age"
	colGender             = "gender"
	colInterest           = "interest"
	colImpressions        = "Impressions"
	colClicks             = "Clicks"
	colSpent              = "Spent"
	colTotalConversion    = "Total_Conversion"
	colApprovedConversion = "Approved_Conversion"
	colCTR                = "CTR"
	colCVRTotal           = "CVR_Total"
	colCVRApproved        = "CVR_Approved"
	colCPC                = "CPC"
	colCPM                = "CPM"
	colCPATotal           = "CPA_Total"
	colCPAApproved        = "CPA_Approved"
	colAvgFrequency       = "Avg_Frequency"
	colRevenueTotal       = "Revenue_Total"
	colRevenueApproved    = "Revenue_Approved"
	colROASTotal          = "ROAS_Total"
	colROASApproved       = "ROAS_Approved"
)

// rawRequired are the columns every input table must carry.
var rawRequired = []string{
	colAge, colGender, colImpressions, colClicks, colSpent,
	colTotalConversion, colApprovedConversion,
}

// enrichedRequired additionally demands the derived metric columns.
var enrichedRequired = append(rawRequired[:len(rawRequired):len(rawRequired)],
	colRevenueTotal, colRevenueApproved,
	colCVRTotal, colCVRApproved,
	colCPATotal, colCPAApproved,
	colROASTotal, colROASApproved,
)

// outputColumns is the canonical column order for every written table.
var outputColumns = []string{
	colAdID, colXYZCampaignID, colFBCampaignID,
	colAge, colGender, colInterest,
	colImpressions, colClicks, colSpent,
	colTotalConversion, colApprovedConversion,
	colCTR, colCVRTotal, colCVRApproved,
	colCPC, colCPM, colCPATotal, colCPAApproved, colAvgFrequency,
	colRevenueTotal, colRevenueApproved,
	colROASTotal, colROASApproved,
}

var canonicalColumns = func() map[string]struct{} {
	m := make(map[string]struct{}, len(outputColumns))
	for _, name := range outputColumns {
		m[name] = struct{}{}
	}
	return m
}()

// Source reads a full record set, in file order, in one pass.
type Source interface {
	ReadAll() ([]*domain.Record, error)
}

// Sink writes a full record set, preserving its order, in one pass.
type Sink interface {
	WriteAll(records []*domain.Record) error
}

// CSVSource reads records from a CSV file on disk.
type CSVSource struct {
	path   string
	schema Schema
}

func NewCSVSource(path string, schema Schema) *CSVSource {
	return &CSVSource{path: path, schema: schema}
}

func (s *CSVSource) ReadAll() ([]*domain.Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, s.path)
		}
		return nil, fmt.Errorf("opening input table: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", s.path, err)
	}

	cols := make(map[string]int, len(header))
	var extras []string
	for i, name := range header {
		cols[name] = i
		if _, ok := canonicalColumns[name]; !ok {
			extras = append(extras, name)
		}
	}

	required := rawRequired
	if s.schema == SchemaEnriched {
		required = enrichedRequired
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading rows of %s: %w", s.path, err)
	}

	records := make([]*domain.Record, 0, len(rows))
	for i, row := range rows {
		rec, err := parseRow(row, cols, extras)
		if err != nil {
			return nil, fmt.Errorf("row %d of %s: %w", i+2, s.path, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

func parseRow(row []string, cols map[string]int, extras []string) (*domain.Record, error) {
	p := rowParser{row: row, cols: cols}

	rec := &domain.Record{
		AdID:          p.text(colAdID),
		XYZCampaignID: p.text(colXYZCampaignID),
		FBCampaignID:  p.text(colFBCampaignID),
		AgeSegment:    p.text(colAge),
		Gender:        p.text(colGender),
		Interest:      p.text(colInterest),

		Impressions: p.integer(colImpressions),
		Clicks:      p.integer(colClicks),
		Spent:       p.float(colSpent),

		TotalConversion:    p.integer(colTotalConversion),
		ApprovedConversion: p.integer(colApprovedConversion),
		RevenueTotal:       p.float(colRevenueTotal),
		RevenueApproved:    p.float(colRevenueApproved),

		CTR:          p.float(colCTR),
		CPC:          p.float(colCPC),
		CPM:          p.float(colCPM),
		AvgFrequency: p.float(colAvgFrequency),

		CVRTotal:     p.float(colCVRTotal),
		CVRApproved:  p.float(colCVRApproved),
		CPATotal:     p.float(colCPATotal),
		CPAApproved:  p.float(colCPAApproved),
		ROASTotal:    p.float(colROASTotal),
		ROASApproved: p.float(colROASApproved),
	}

	for _, name := range extras {
		rec.Extra = append(rec.Extra, domain.ExtraField{Name: name, Value: p.text(name)})
	}

	return rec, p.err
}

// rowParser accumulates the first parse failure of a row so field reads can
// be chained without per-field error plumbing. Absent optional columns read
// as zero values.
type rowParser struct {
	row  []string
	cols map[string]int
	err  error
}

func (p *rowParser) cell(name string) (string, bool) {
	idx, ok := p.cols[name]
	if !ok || idx >= len(p.row) {
		return "", false
	}
	return p.row[idx], true
}

func (p *rowParser) text(name string) string {
	value, _ := p.cell(name)
	return value
}

func (p *rowParser) integer(name string) int {
	value, ok := p.cell(name)
	if !ok || value == "" {
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("column %s: %w", name, err)
	}
	return n
}

func (p *rowParser) float(name string) float64 {
	value, ok := p.cell(name)
	if !ok || value == "" {
		return 0
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("column %s: %w", name, err)
	}
	return f
}

// CSVSink writes records to a CSV file on disk using the canonical schema.
type CSVSink struct {
	path string
}

func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

func (s *CSVSink) WriteAll(records []*domain.Record) error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("creating output table: %w", err)
	}
	defer f.Close()

	extras := extraColumnNames(records)
	header := outputColumns
	if len(extras) > 0 {
		header = append(append([]string{}, outputColumns...), extras...)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, rec := range records {
		row := formatRow(rec)
		for _, name := range extras {
			row = append(row, rec.ExtraValue(name))
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flushing output table: %w", err)
	}

	return nil
}

// extraColumnNames lists the passthrough columns of a record set. Every
// record read from one table carries the same extra columns, so the first
// record determines the header.
func extraColumnNames(records []*domain.Record) []string {
	if len(records) == 0 {
		return nil
	}
	names := make([]string, 0, len(records[0].Extra))
	for _, f := range records[0].Extra {
		names = append(names, f.Name)
	}
	return names
}

func formatRow(rec *domain.Record) []string {
	return []string{
		rec.AdID, rec.XYZCampaignID, rec.FBCampaignID,
		rec.AgeSegment, rec.Gender, rec.Interest,
		strconv.Itoa(rec.Impressions),
		strconv.Itoa(rec.Clicks),
		formatFloat(rec.Spent),
		strconv.Itoa(rec.TotalConversion),
		strconv.Itoa(rec.ApprovedConversion),
		formatFloat(rec.CTR),
		formatFloat(rec.CVRTotal),
		formatFloat(rec.CVRApproved),
		formatFloat(rec.CPC),
		formatFloat(rec.CPM),
		formatFloat(rec.CPATotal),
		formatFloat(rec.CPAApproved),
		formatFloat(rec.AvgFrequency),
		formatFloat(rec.RevenueTotal),
		formatFloat(rec.RevenueApproved),
		formatFloat(rec.ROASTotal),
		formatFloat(rec.ROASApproved),
	}
}

// formatFloat uses the shortest exact decimal form so that two runs with the
// same seed produce byte-identical output.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
