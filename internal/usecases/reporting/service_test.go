package reporting

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Molly503/paid-media/internal/domain"
)

func before() []*domain.Record {
	return []*domain.Record{
		// The contradiction the reconciler removes: high return, zero
		// conversions.
		{Spent: 2, RevenueTotal: 100, ROASTotal: 50, TotalConversion: 0, CVRTotal: 0},
		{Spent: 10, RevenueTotal: 350, ROASTotal: 35, TotalConversion: 1, RevenueApproved: 350, CVRTotal: 0.5, Clicks: 2},
		{Spent: 40, RevenueTotal: 80, ROASTotal: 2, TotalConversion: 2, CVRTotal: 0.1, Clicks: 20},
		{Spent: 5, ROASTotal: 0, TotalConversion: 0, CVRTotal: 0},
	}
}

func after() []*domain.Record {
	return []*domain.Record{
		{Spent: 2, RevenueTotal: 0, ROASTotal: 0, TotalConversion: 0},
		{Spent: 10, RevenueTotal: 320, ROASTotal: 32, TotalConversion: 1, CVRTotal: 0.05, Clicks: 20},
		{Spent: 40, RevenueTotal: 160, ROASTotal: 4, TotalConversion: 2, CVRTotal: 0.04, Clicks: 50},
		{Spent: 5, RevenueTotal: 0, ROASTotal: 0, TotalConversion: 0},
	}
}

func TestCompare(t *testing.T) {
	reporter := NewReporter(DefaultThresholds())
	summary := reporter.Compare(before(), after())

	assert.Equal(t, 4, summary.Before.Records)
	assert.Equal(t, 2, summary.Before.HighROAS)    // 50 and 35
	assert.Equal(t, 2, summary.Before.ExtremeROAS) // 50 and 35
	assert.Equal(t, 1, summary.Before.HighCVR)     // 0.5
	assert.Equal(t, 1, summary.Before.ExtremeCVR)
	assert.Equal(t, 1, summary.Before.SuspectRecords)
	assert.InDelta(t, 21.75, summary.Before.MeanROAS, 1e-9)
	assert.InDelta(t, 15.0, summary.Before.MeanCVRPct, 1e-9) // (0.5+0.1)/4, rounded

	assert.InDelta(t, 2.25, summary.After.MeanCVRPct, 1e-9)

	assert.Equal(t, 1, summary.After.HighROAS) // 32
	assert.Equal(t, 1, summary.After.ExtremeROAS)
	assert.Zero(t, summary.After.SuspectRecords)

	assert.Zero(t, summary.Consistency.SuspectRecords)
	assert.Equal(t, 4, summary.Consistency.ConsistentRecords)
	assert.Equal(t, 100.0, summary.Consistency.ConsistencyRate)

	assert.Equal(t, 2, summary.Revenue.ConvertingRecords)
	assert.Equal(t, 80.0, summary.Revenue.MinPerConversion)
	assert.Equal(t, 320.0, summary.Revenue.MaxPerConversion)
	assert.Equal(t, 200.0, summary.Revenue.MeanPerConversion)
}

func TestCompareEmptySets(t *testing.T) {
	reporter := NewReporter(DefaultThresholds())
	summary := reporter.Compare(nil, nil)

	assert.Zero(t, summary.Before.Records)
	assert.Zero(t, summary.Consistency.ConsistencyRate)
	assert.Zero(t, summary.Revenue.ConvertingRecords)
}

func TestRender(t *testing.T) {
	reporter := NewReporter(DefaultThresholds())
	summary := reporter.Compare(before(), after())

	var buf bytes.Buffer
	reporter.Render(&buf, summary)
	out := buf.String()

	assert.Contains(t, out, "Reconciliation summary")
	assert.Contains(t, out, "before (4 records)")
	assert.Contains(t, out, "after (4 records)")
	assert.Contains(t, out, "zero conversions: 0 (target 0)")
	assert.Contains(t, out, "revenue/conversion consistent: 4/4 (100.0%)")
}

func TestWriteJSON(t *testing.T) {
	reporter := NewReporter(DefaultThresholds())
	summary := reporter.Compare(before(), after())

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, reporter.WriteJSON(path, summary))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Summary
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, summary.After.Records, decoded.After.Records)
	assert.Equal(t, summary.Consistency.ConsistencyRate, decoded.Consistency.ConsistencyRate)
}
