package analytics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildReport(t *testing.T) {
	live := &LiveComputationSource{Data: testDataset()}
	fc := fcWith([]string{"corp-a"}, nil)

	report, err := BuildReport(live, nil, fc, ReportOptions{
		TopSpecies:          10,
		Smooth:              true,
		IncludeConsolidated: true,
	})
	require.NoError(t, err)
	require.NotNil(t, report)
	require.NotEmpty(t, report.RunID)

	// corp-a has two species across two sampling events.
	require.Len(t, report.Species, 2)
	require.Equal(t, 1, report.Species[0].Rank)
	require.Equal(t, "Panthera onca", report.Species[0].Species)

	require.Len(t, report.Occupancy, 2)
	require.NotEmpty(t, report.Accumulation)
	require.Len(t, report.Periods, 3) // 2023-1, 2023-2, CONSOLIDATED
	require.Equal(t, ConsolidatedPeriod, report.Periods[2].Period)
	require.Empty(t, report.Warnings)
}

func TestBuildReportBadInterval(t *testing.T) {
	live := &LiveComputationSource{Data: testDataset()}
	fc := FilterContext{IntervalMagnitude: 30, IntervalUnit: "lightyears"}

	_, err := BuildReport(live, nil, fc, ReportOptions{})
	require.Error(t, err)
}

func TestBuildReportEmptyDataset(t *testing.T) {
	live := &LiveComputationSource{Data: Dataset{}}

	report, err := BuildReport(live, nil, fcWith(nil, nil), ReportOptions{Smooth: true})
	require.NoError(t, err)
	require.Empty(t, report.Species)
	require.Empty(t, report.Accumulation)
	require.Empty(t, report.Periods)
}
