package uservector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alazca/official-coach/internal/coach/scalars"
	"github.com/Alazca/official-coach/internal/vector"
)

type computerMock struct {
	scalars  scalars.InfluenceScalars
	computed int
}

func (c *computerMock) Compute(_ context.Context, _ int, _ int) (*scalars.InfluenceScalars, error) {
	c.computed++
	s := c.scalars
	return &s, nil
}

func testBuilder(s scalars.InfluenceScalars) (*Builder, *repoMock, *computerMock) {
	repo := NewMockVectorRepo()
	computer := &computerMock{scalars: s}
	return NewBuilder(computer, repo), repo, computer
}

func TestBuilder_Build(t *testing.T) {
	builder, repo, computer := testBuilder(scalars.InfluenceScalars{
		CombinedStrength: 0.3,
		WeeklyVolume:     0.4,
		TrainingDays:     0.6,
		InfluenceScalar:  0.42,
		FinalScalar:      0.55,
	})

	uv, err := builder.Build(context.Background(), 1, "", 7)
	require.NoError(t, err)
	assert.Equal(t, 1, computer.computed)
	assert.Equal(t, DefaultProfile, uv.Profile)
	assert.Equal(t, scalars.TierNovice, uv.Tier)
	assert.Equal(t, 9, uv.Vector.Len())

	finalScalar, ok := uv.Vector.Value(scalars.DimFinalScalar)
	require.True(t, ok)
	assert.Equal(t, 0.55, finalScalar)

	combined, ok := uv.Vector.Value(scalars.DimCombinedStrength)
	require.True(t, ok)
	assert.Equal(t, 0.3, combined)

	// a second build overwrites, no new row
	_, err = builder.Build(context.Background(), 1, "", 7)
	require.NoError(t, err)
	assert.Len(t, repo.vectors, 1)

	stored, err := builder.Get(context.Background(), 1, "")
	require.NoError(t, err)
	assert.Equal(t, uv.Vector.Values, stored.Vector.Values)
}

func TestBuilder_Snapshot(t *testing.T) {
	builder, repo, _ := testBuilder(scalars.InfluenceScalars{FinalScalar: 0.5})

	// snapshot before any build fails loudly
	_, err := builder.Snapshot(context.Background(), 1, "")
	assert.ErrorIs(t, err, ErrUserVectorNotFound)

	_, err = builder.Build(context.Background(), 1, "", 7)
	require.NoError(t, err)

	s1, err := builder.Snapshot(context.Background(), 1, "")
	require.NoError(t, err)
	s2, err := builder.Snapshot(context.Background(), 1, "")
	require.NoError(t, err)

	// same calendar day, the second snapshot overwrote the first
	assert.Equal(t, s1.SnapshotDate, s2.SnapshotDate)
	assert.Len(t, repo.snapshots, 1)
}

func TestBuilder_Trend(t *testing.T) {
	builder, repo, _ := testBuilder(scalars.InfluenceScalars{})

	report, err := builder.Trend(context.Background(), 1, "", 30)
	require.NoError(t, err)
	assert.False(t, report.SufficientData)
	assert.Zero(t, report.SnapshotCount)

	now := time.Now()
	earliest := snapshotOn(t, 1, now.AddDate(0, 0, -20), map[string]float64{
		scalars.DimCombinedStrength: 0.4,
		scalars.DimWeeklyVolume:     0.5,
		scalars.DimConsistencyPct:   0.9,
		scalars.DimFinalScalar:      0.5,
	})
	latest := snapshotOn(t, 1, now.AddDate(0, 0, -1), map[string]float64{
		scalars.DimCombinedStrength: 0.5, // +25%
		scalars.DimWeeklyVolume:     0.4, // -20%
		scalars.DimConsistencyPct:   0.9, // stable
		scalars.DimFinalScalar:      0.55,
	})
	require.NoError(t, repo.SaveSnapshot(context.Background(), earliest))
	require.NoError(t, repo.SaveSnapshot(context.Background(), latest))

	report, err = builder.Trend(context.Background(), 1, "", 30)
	require.NoError(t, err)
	assert.True(t, report.SufficientData)
	assert.Equal(t, 2, report.SnapshotCount)
	assert.InDelta(t, 10, report.OverallChangePct, 0.0001)

	require.Len(t, report.TopImprovements, 1)
	assert.Equal(t, scalars.DimCombinedStrength, report.TopImprovements[0].Dimension)
	assert.Equal(t, TrendImproving, report.TopImprovements[0].Trend)

	require.Len(t, report.TopRegressions, 1)
	assert.Equal(t, scalars.DimWeeklyVolume, report.TopRegressions[0].Dimension)

	assert.NotEmpty(t, report.Insights)
	assert.Contains(t, report.Insights, "Your workout volume has been decreasing, which may indicate fatigue or insufficient recovery.")
	assert.Contains(t, report.Insights, "Excellent workout consistency! Your adherence to your training schedule is a key factor in your results.")
}

func snapshotOn(t *testing.T, userID int, day time.Time, values map[string]float64) Snapshot {
	t.Helper()

	dims := make([]string, 0, len(values))
	vals := make([]float64, 0, len(values))
	for _, dim := range append(scalars.MetricDimensions(), scalars.DimFinalScalar) {
		if v, ok := values[dim]; ok {
			dims = append(dims, dim)
			vals = append(vals, v)
		}
	}

	vec, err := vector.New(dims, vals)
	require.NoError(t, err)

	return Snapshot{
		UserID:       userID,
		Profile:      DefaultProfile,
		Vector:       vec,
		SnapshotDate: time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
		ComputedAt:   day,
	}
}
