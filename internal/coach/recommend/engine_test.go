package recommend

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

type generatorMock struct {
	initialized []targets.InitializeParams
}

func (g *generatorMock) Initialize(_ context.Context, params targets.InitializeParams) (*targets.Target, error) {
	g.initialized = append(g.initialized, params)
	return &targets.Target{
		UserID:     params.UserID,
		GoalType:   params.GoalType,
		Status:     targets.StatusActive,
		TargetDate: params.TargetDate,
	}, nil
}

func testEngine(t *testing.T, values map[string]float64) (*Engine, *generatorMock) {
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

	vectorRepo := uservector.NewMockVectorRepo()
	require.NoError(t, vectorRepo.Upsert(context.Background(), uservector.UserVector{
		UserID:  1,
		Profile: uservector.DefaultProfile,
		Vector:  vec,
	}))

	generator := &generatorMock{}
	return NewEngine(vectorRepo, generator, 1024*1024, time.Minute), generator
}

func TestEngine_Generate(t *testing.T) {
	engine, _ := testEngine(t, map[string]float64{
		scalars.DimCombinedStrength: 0.25,
		scalars.DimWeeklyVolume:     0.45,
		scalars.DimTrainingDays:     0.9,
		scalars.DimIntensityAvg:     0.65,
		scalars.DimConsistencyPct:   0.8,
	})

	recommendations, err := engine.Generate(context.Background(), 1, "")
	require.NoError(t, err)
	require.Len(t, recommendations, 3)

	// weakest first, priorities follow the rank
	assert.Equal(t, scalars.DimCombinedStrength, recommendations[0].Dimension)
	assert.Equal(t, 1, recommendations[0].Priority)
	assert.Equal(t, SeverityCritical, recommendations[0].Severity)
	assert.Equal(t, targets.GoalStrength, recommendations[0].GoalType)
	assert.Equal(t, 90, recommendations[0].DurationDays)
	// critical improvement of 0.3 on top of the current value
	assert.InDelta(t, 0.55, recommendations[0].CustomDimensions[scalars.DimCombinedStrength], 0.0001)

	assert.Equal(t, scalars.DimWeeklyVolume, recommendations[1].Dimension)
	assert.Equal(t, SeveritySignificant, recommendations[1].Severity)

	assert.Equal(t, scalars.DimIntensityAvg, recommendations[2].Dimension)
	assert.Equal(t, SeverityModerate, recommendations[2].Severity)

	// re-deriving yields identical ids
	again, err := engine.Generate(context.Background(), 1, "")
	require.NoError(t, err)
	for i := range recommendations {
		assert.Equal(t, recommendations[i].ID, again[i].ID)
	}
}

func TestEngine_Generate_missingVector(t *testing.T) {
	engine := NewEngine(uservector.NewMockVectorRepo(), &generatorMock{}, 1024*1024, time.Minute)

	_, err := engine.Generate(context.Background(), 7, "")
	assert.ErrorIs(t, err, uservector.ErrUserVectorNotFound)
}

func TestEngine_CreateGoal(t *testing.T) {
	engine, generator := testEngine(t, map[string]float64{
		scalars.DimCombinedStrength: 0.25,
		scalars.DimWeeklyVolume:     0.45,
		scalars.DimTrainingDays:     0.9,
		scalars.DimIntensityAvg:     0.65,
		scalars.DimConsistencyPct:   0.8,
	})
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return now }

	recommendations, err := engine.Generate(context.Background(), 1, "")
	require.NoError(t, err)

	target, err := engine.CreateGoal(context.Background(), 1, "", recommendations[0].ID, 0)
	require.NoError(t, err)
	assert.Equal(t, targets.GoalStrength, target.GoalType)

	require.Len(t, generator.initialized, 1)
	params := generator.initialized[0]
	assert.Equal(t, now.AddDate(0, 0, 90), params.TargetDate)
	assert.InDelta(t, 0.55, params.CustomDimensions[scalars.DimCombinedStrength], 0.0001)

	// a custom duration overrides the recommended one
	_, err = engine.CreateGoal(context.Background(), 1, "", recommendations[1].ID, 14)
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, 14), generator.initialized[1].TargetDate)

	// unknown ids are rejected, not silently defaulted
	_, err = engine.CreateGoal(context.Background(), 1, "", recommendations[0].ID, 0)
	require.NoError(t, err)
	_, err = engine.CreateGoal(context.Background(), 1, "", uuid.New(), 0)
	assert.ErrorIs(t, err, ErrRecommendationNotFound)
}
