package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Molly503/paid-media/internal/domain"
)

const rawCSV = `ad_id,xyz_campaign_id,fb_campaign_id,age,gender,interest,Impressions,Clicks,Spent,Total_Conversion,Approved_Conversion
708746,916,103916,30-34,M,15,7350,1,1.43,2,1
708749,916,103917,35-39,F,16,17861,2,1.82,2,0
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVSourceReadAll(t *testing.T) {
	path := writeFile(t, "raw.csv", rawCSV)

	records, err := NewCSVSource(path, SchemaRaw).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "708746", first.AdID)
	assert.Equal(t, "30-34", first.AgeSegment)
	assert.Equal(t, "M", first.Gender)
	assert.Equal(t, 7350, first.Impressions)
	assert.Equal(t, 1, first.Clicks)
	assert.Equal(t, 1.43, first.Spent)
	assert.Equal(t, 2, first.TotalConversion)
	assert.Equal(t, 1, first.ApprovedConversion)

	// Input order preserved.
	assert.Equal(t, "708749", records[1].AdID)
}

func TestCSVSourceMissingFile(t *testing.T) {
	_, err := NewCSVSource(filepath.Join(t.TempDir(), "absent.csv"), SchemaRaw).ReadAll()
	assert.ErrorIs(t, err, ErrInputNotFound)
}

func TestCSVSourceMissingColumn(t *testing.T) {
	tests := []struct {
		name   string
		header string
		schema Schema
	}{
		{
			name:   "raw table without Clicks",
			header: "age,gender,Impressions,Spent,Total_Conversion,Approved_Conversion",
			schema: SchemaRaw,
		},
		{
			name:   "enriched table without derived columns",
			header: "ad_id,xyz_campaign_id,fb_campaign_id,age,gender,interest,Impressions,Clicks,Spent,Total_Conversion,Approved_Conversion",
			schema: SchemaEnriched,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "table.csv", tt.header+"\n")
			_, err := NewCSVSource(path, tt.schema).ReadAll()
			assert.ErrorIs(t, err, ErrMissingColumn)
		})
	}
}

func TestCSVSourceBadCell(t *testing.T) {
	content := `age,gender,Impressions,Clicks,Spent,Total_Conversion,Approved_Conversion
30-34,M,oops,1,1.43,0,0
`
	path := writeFile(t, "bad.csv", content)
	_, err := NewCSVSource(path, SchemaRaw).ReadAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
	assert.Contains(t, err.Error(), "Impressions")
}

func TestCSVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.csv")

	records := []*domain.Record{
		{
			AdID: "1", XYZCampaignID: "916", FBCampaignID: "103916",
			AgeSegment: "40-44", Gender: "F", Interest: "20",
			Impressions: 1000, Clicks: 20, Spent: 60,
			TotalConversion: 2, ApprovedConversion: 1,
			RevenueTotal: 1560.5, RevenueApproved: 780.25,
		},
		{
			AdID: "2", AgeSegment: "50+", Gender: "M",
			Impressions: 10, Clicks: 0, Spent: 0.5,
		},
	}
	records[0].RecomputeTrafficMetrics()
	records[0].RecomputeRatios()

	require.NoError(t, NewCSVSink(out).WriteAll(records))

	read, err := NewCSVSource(out, SchemaEnriched).ReadAll()
	require.NoError(t, err)
	require.Len(t, read, 2)

	assert.Equal(t, records[0], read[0])
	assert.Equal(t, records[1], read[1])
}

func TestCSVPassthroughColumns(t *testing.T) {
	content := `ad_id,xyz_campaign_id,fb_campaign_id,age,gender,interest,Impressions,Clicks,Spent,Total_Conversion,Approved_Conversion,placement,bid_strategy
708746,916,103916,30-34,M,15,7350,1,1.43,2,1,mobile_feed,lowest_cost
708749,916,103917,35-39,F,16,17861,2,1.82,2,0,desktop_feed,cost_cap
`
	in := writeFile(t, "raw.csv", content)
	out := filepath.Join(t.TempDir(), "out.csv")

	records, err := NewCSVSource(in, SchemaRaw).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "mobile_feed", records[0].ExtraValue("placement"))
	assert.Equal(t, "cost_cap", records[1].ExtraValue("bid_strategy"))

	require.NoError(t, NewCSVSink(out).WriteAll(records))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	written := string(data)

	// Unrecognized columns survive the round trip, headers in input order.
	assert.Contains(t, written, ",placement,bid_strategy\n")
	assert.Contains(t, written, ",mobile_feed,lowest_cost\n")
	assert.Contains(t, written, ",desktop_feed,cost_cap\n")

	read, err := NewCSVSource(out, SchemaEnriched).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, records[0].Extra, read[0].Extra)
}

func TestCSVSinkDeterministicBytes(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")

	records := []*domain.Record{
		{AdID: "1", AgeSegment: "35-39", Gender: "F", Impressions: 1000, Clicks: 20, Spent: 60, TotalConversion: 1, RevenueTotal: 1017.3339012},
	}
	records[0].RecomputeRatios()

	require.NoError(t, NewCSVSink(a).WriteAll(records))
	require.NoError(t, NewCSVSink(b).WriteAll(records))

	bytesA, err := os.ReadFile(a)
	require.NoError(t, err)
	bytesB, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, bytesA, bytesB)
}
