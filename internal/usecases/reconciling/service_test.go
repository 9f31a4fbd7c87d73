package reconciling

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Molly503/paid-media/internal/dataset"
	"github.com/Molly503/paid-media/internal/dataset/mocks"
	"github.com/Molly503/paid-media/internal/domain"
	"github.com/Molly503/paid-media/internal/usecases/reporting"
)

func TestServiceRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	source := mocks.NewMockSource(ctrl)
	sink := mocks.NewMockSink(ctrl)

	input := []*domain.Record{
		{AdID: "1", AgeSegment: "35-39", Gender: "F", Impressions: 1000, Clicks: 20, Spent: 60, RevenueTotal: 9000, ROASTotal: 150},
		{AdID: "2", AgeSegment: "50+", Gender: "M", Impressions: 400, Clicks: 0, Spent: 2},
		{AdID: "3", AgeSegment: "40-44", Gender: "F", Impressions: 50000, Clicks: 35, Spent: 95, ROASTotal: 40},
	}

	source.EXPECT().ReadAll().Return(input, nil)

	var written []*domain.Record
	sink.EXPECT().WriteAll(gomock.Any()).DoAndReturn(func(records []*domain.Record) error {
		written = records
		return nil
	})

	service := NewService(
		source, sink,
		newTestSynthesizer(),
		reporting.NewReporter(reporting.DefaultThresholds()),
		42,
	)

	summary, err := service.Run()
	require.NoError(t, err)
	require.Len(t, written, 3)

	// Row order and passthrough fields preserved.
	assert.Equal(t, "1", written[0].AdID)
	assert.Equal(t, "2", written[1].AdID)
	assert.Equal(t, "3", written[2].AdID)
	assert.Equal(t, 20, written[0].Clicks)
	assert.Equal(t, 60.0, written[0].Spent)

	// The zero-click record is fully zeroed.
	assert.Zero(t, written[1].TotalConversion)
	assert.Zero(t, written[1].RevenueTotal)

	// After synthesis no record may combine high ROAS with zero conversions.
	assert.Zero(t, summary.Consistency.SuspectRecords)
	assert.Equal(t, 100.0, summary.Consistency.ConsistencyRate)
	assert.Equal(t, 3, summary.After.Records)
}

func TestServiceRunReadFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	source := mocks.NewMockSource(ctrl)
	sink := mocks.NewMockSink(ctrl)

	source.EXPECT().ReadAll().Return(nil, errors.New("disk gone"))
	// No write may happen when the read fails.

	service := NewService(source, sink, newTestSynthesizer(), reporting.NewReporter(reporting.DefaultThresholds()), 1)

	_, err := service.Run()
	assert.ErrorContains(t, err, "disk gone")
}

func TestServiceRunWriteFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	source := mocks.NewMockSource(ctrl)
	sink := mocks.NewMockSink(ctrl)

	source.EXPECT().ReadAll().Return([]*domain.Record{{AgeSegment: "30-34", Clicks: 5, Spent: 3}}, nil)
	sink.EXPECT().WriteAll(gomock.Any()).Return(errors.New("disk full"))

	service := NewService(source, sink, newTestSynthesizer(), reporting.NewReporter(reporting.DefaultThresholds()), 1)

	_, err := service.Run()
	assert.ErrorContains(t, err, "disk full")
}

const reconcileFixture = `ad_id,xyz_campaign_id,fb_campaign_id,age,gender,interest,Impressions,Clicks,Spent,Total_Conversion,Approved_Conversion,CTR,CVR_Total,CVR_Approved,CPC,CPM,CPA_Total,CPA_Approved,Avg_Frequency,Revenue_Total,Revenue_Approved,ROAS_Total,ROAS_Approved
1,916,103916,30-34,M,15,7350,1,1.43,2,1,0.000136,2,1,1.43,0.19,0.72,1.43,7350,100,50,69.93,34.97
2,916,103917,35-39,F,16,17861,20,61.82,0,0,0.00112,0,0,3.09,3.46,0,0,893,500,0,8.09,0
3,936,103920,40-44,F,20,130000,35,95.5,1,1,0.000269,0.0286,0.0286,2.73,0.73,95.5,95.5,3714,50,50,0.52,0.52
4,936,103921,50+,M,28,4250,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0
`

// Two runs over the same file with the same seed must be byte-identical.
func TestServiceRunDeterministicOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(in, []byte(reconcileFixture), 0o644))

	runOnce := func(out string) []byte {
		service := NewService(
			dataset.NewCSVSource(in, dataset.SchemaEnriched),
			dataset.NewCSVSink(out),
			newTestSynthesizer(),
			reporting.NewReporter(reporting.DefaultThresholds()),
			42,
		)
		_, err := service.Run()
		require.NoError(t, err)

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		return data
	}

	first := runOnce(filepath.Join(dir, "out1.csv"))
	second := runOnce(filepath.Join(dir, "out2.csv"))
	assert.Equal(t, first, second)
}
