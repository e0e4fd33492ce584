package progress

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alazca/official-coach/internal/coach/scalars"
	"github.com/Alazca/official-coach/internal/coach/targets"
	"github.com/Alazca/official-coach/internal/coach/uservector"
	"github.com/Alazca/official-coach/internal/vector"
)

type targetSourceMock struct {
	targets map[uuid.UUID]*targets.Target
}

func (m *targetSourceMock) Get(_ context.Context, id uuid.UUID) (*targets.Target, error) {
	target, ok := m.targets[id]
	if !ok {
		return nil, targets.ErrTargetNotFound
	}
	return target, nil
}

func testVec(t *testing.T, values map[string]float64) vector.Vector {
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
	return vec
}

// strengthFixture returns a calculator with a 100 day Strength goal
// starting 2026-01-01 and the given current user vector.
func strengthFixture(t *testing.T, currentValues map[string]float64) (*Calculator, *targets.Target) {
	t.Helper()

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	target := &targets.Target{
		ID:       uuid.New(),
		UserID:   1,
		GoalType: targets.GoalStrength,
		Profile:  uservector.DefaultProfile,
		Status:   targets.StatusActive,
		Baseline: testVec(t, map[string]float64{
			scalars.DimCombinedStrength: 0.3,
			scalars.DimIntensityAvg:     0.4,
			scalars.DimTotalVolume:      0.2,
		}),
		Vector: testVec(t, map[string]float64{
			scalars.DimCombinedStrength: 0.7,
			scalars.DimIntensityAvg:     0.8,
			scalars.DimTotalVolume:      0.6,
		}),
		StartDate:  start,
		TargetDate: start.AddDate(0, 0, 100),
	}
	target.Milestones = []targets.Milestone{
		{Percent: 25, Date: start.AddDate(0, 0, 25), Vector: testVec(t, map[string]float64{
			scalars.DimCombinedStrength: 0.45,
			scalars.DimIntensityAvg:     0.55,
			scalars.DimTotalVolume:      0.35,
		})},
		{Percent: 50, Date: start.AddDate(0, 0, 50), Vector: testVec(t, map[string]float64{
			scalars.DimCombinedStrength: 0.55,
			scalars.DimIntensityAvg:     0.65,
			scalars.DimTotalVolume:      0.45,
		})},
		{Percent: 75, Date: start.AddDate(0, 0, 75), Vector: testVec(t, map[string]float64{
			scalars.DimCombinedStrength: 0.63,
			scalars.DimIntensityAvg:     0.73,
			scalars.DimTotalVolume:      0.53,
		})},
	}

	vectorRepo := uservector.NewMockVectorRepo()
	require.NoError(t, vectorRepo.Upsert(context.Background(), uservector.UserVector{
		UserID:  1,
		Profile: uservector.DefaultProfile,
		Vector:  testVec(t, currentValues),
	}))

	calculator := NewCalculator(
		&targetSourceMock{targets: map[uuid.UUID]*targets.Target{target.ID: target}},
		vectorRepo,
	)
	return calculator, target
}

func TestCalculator_Calculate_expiredGoalAtTarget(t *testing.T) {
	calculator, target := strengthFixture(t, map[string]float64{
		scalars.DimCombinedStrength: 0.7,
		scalars.DimIntensityAvg:     0.8,
		scalars.DimTotalVolume:      0.6,
	})
	// the target date was yesterday
	calculator.now = func() time.Time { return target.TargetDate.AddDate(0, 0, 1) }

	report, err := calculator.Calculate(context.Background(), 1, target.ID)
	require.NoError(t, err)

	assert.Equal(t, 100.0, report.TimeProgressPct)
	assert.InDelta(t, 100, report.OverallProgressPct, 0.0001)
	assert.Contains(t, []string{StatusAhead, StatusOnTrack}, report.Status)
	assert.True(t, report.OnTrack)
	assert.Zero(t, report.DaysRemaining)
	assert.Nil(t, report.NextMilestone)
	assert.Empty(t, report.Feedback)
	assert.Greater(t, report.CurrentSimilarity, report.BaselineSimilarity)
}

func TestCalculator_Calculate_monotoneInProgress(t *testing.T) {
	halfway := func(currentStrength float64) float64 {
		calculator, target := strengthFixture(t, map[string]float64{
			scalars.DimCombinedStrength: currentStrength,
			scalars.DimIntensityAvg:     0.4,
			scalars.DimTotalVolume:      0.2,
		})
		calculator.now = func() time.Time { return target.StartDate.AddDate(0, 0, 50) }

		report, err := calculator.Calculate(context.Background(), 1, target.ID)
		require.NoError(t, err)
		return report.OverallProgressPct
	}

	// moving a dimension strictly toward the target never lowers progress
	prev := -1.0
	for _, strength := range []float64{0.3, 0.4, 0.5, 0.6, 0.7} {
		overall := halfway(strength)
		assert.Greater(t, overall, prev)
		prev = overall
	}
}

func TestCalculator_Calculate_onTrackBands(t *testing.T) {
	calculator, target := strengthFixture(t, map[string]float64{
		scalars.DimCombinedStrength: 0.5,
		scalars.DimIntensityAvg:     0.6,
		scalars.DimTotalVolume:      0.4,
	})
	// halfway: expected progress is exactly 50
	calculator.now = func() time.Time { return target.StartDate.AddDate(0, 0, 50) }

	report, err := calculator.Calculate(context.Background(), 1, target.ID)
	require.NoError(t, err)
	assert.InDelta(t, 50, report.ExpectedProgressPct, 0.0001)
	// every dimension is exactly halfway to target
	assert.InDelta(t, 50, report.OverallProgressPct, 0.0001)
	assert.InDelta(t, 1.0, report.ProgressRatio, 0.0001)
	assert.True(t, report.OnTrack)
	assert.Equal(t, StatusOnTrack, report.Status)

	// no movement at all halfway in is far behind expectations
	stuck, stuckTarget := strengthFixture(t, map[string]float64{
		scalars.DimCombinedStrength: 0.3,
		scalars.DimIntensityAvg:     0.4,
		scalars.DimTotalVolume:      0.2,
	})
	stuck.now = func() time.Time { return stuckTarget.StartDate.AddDate(0, 0, 50) }

	stuckReport, err := stuck.Calculate(context.Background(), 1, stuckTarget.ID)
	require.NoError(t, err)
	assert.Less(t, stuckReport.OverallProgressPct, stuckReport.ExpectedProgressPct/2)
	assert.False(t, stuckReport.OnTrack)
	assert.Equal(t, StatusBehind, stuckReport.Status)
	assert.Nil(t, stuckReport.ProjectedCompletion)
	// far-off dimensions produce feedback
	assert.NotEmpty(t, stuckReport.Feedback)
	assert.Equal(t, "increase", stuckReport.Feedback[0].Direction)
}

func TestCalculator_Calculate_projectionAndNextMilestone(t *testing.T) {
	calculator, target := strengthFixture(t, map[string]float64{
		scalars.DimCombinedStrength: 0.5,
		scalars.DimIntensityAvg:     0.6,
		scalars.DimTotalVolume:      0.4,
	})
	now := target.StartDate.AddDate(0, 0, 40)
	calculator.now = func() time.Time { return now }

	report, err := calculator.Calculate(context.Background(), 1, target.ID)
	require.NoError(t, err)

	// 50% progress in 40 days projects completion in another 40
	require.NotNil(t, report.ProjectedCompletion)
	assert.InDelta(t, 40, report.ProjectedCompletion.Sub(now).Hours()/24, 0.01)

	require.NotNil(t, report.NextMilestone)
	assert.Equal(t, 50.0, report.NextMilestone.Percent)
	assert.Equal(t, 10, report.NextMilestone.DaysUntil)
}

func TestCalculator_Calculate_notFound(t *testing.T) {
	calculator, target := strengthFixture(t, map[string]float64{
		scalars.DimCombinedStrength: 0.3,
	})

	_, err := calculator.Calculate(context.Background(), 1, uuid.New())
	assert.ErrorIs(t, err, targets.ErrTargetNotFound)

	_, err = calculator.Calculate(context.Background(), 99, target.ID)
	assert.ErrorIs(t, err, uservector.ErrUserVectorNotFound)
}

func TestCalculator_CurrentMilestone(t *testing.T) {
	calculator, target := strengthFixture(t, map[string]float64{
		scalars.DimCombinedStrength: 0.3,
	})

	// before the first milestone, pro-rated between baseline and milestone 1
	calculator.now = func() time.Time { return target.StartDate.AddDate(0, 0, 5) }
	milestone, err := calculator.CurrentMilestone(context.Background(), target.ID)
	require.NoError(t, err)
	assert.True(t, milestone.IsProrated)
	assert.InDelta(t, 5, milestone.Percent, 0.0001) // 25 * 5/25
	strength, _ := milestone.Vector.Value(scalars.DimCombinedStrength)
	assert.InDelta(t, 0.33, strength, 0.0001)

	// between milestones, the last one whose date has passed
	calculator.now = func() time.Time { return target.StartDate.AddDate(0, 0, 60) }
	milestone, err = calculator.CurrentMilestone(context.Background(), target.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, milestone.Percent)
	assert.False(t, milestone.IsProrated)

	// past the target date, the target itself
	calculator.now = func() time.Time { return target.TargetDate }
	milestone, err = calculator.CurrentMilestone(context.Background(), target.ID)
	require.NoError(t, err)
	assert.True(t, milestone.IsFinal)
	assert.Equal(t, 100.0, milestone.Percent)
	targetStrength, _ := target.Vector.Value(scalars.DimCombinedStrength)
	milestoneStrength, _ := milestone.Vector.Value(scalars.DimCombinedStrength)
	assert.Equal(t, targetStrength, milestoneStrength)
}
