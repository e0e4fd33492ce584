package scalars

import (
	"context"
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Alazca/official-coach/internal/coach/users"
	"github.com/Alazca/official-coach/internal/coach/workouts"
	"github.com/Alazca/official-coach/internal/telemetry/tracing"
)

// Normalization caps for the raw metrics.
const (
	capRelativeStrength = 2.0
	capTotalVolume      = 50000.0
	capWeeklyVolume     = 20000.0
	capIntensity        = 100.0
)

type metricsSource interface {
	StrengthMetrics(ctx context.Context, userID int, days int) (*workouts.StrengthMetrics, error)
	ConditioningMetrics(ctx context.Context, userID int, days int) (*workouts.ConditioningMetrics, error)
}

type activityStore interface {
	Get(ctx context.Context, id int) (*users.User, error)
	SetActivityLevel(ctx context.Context, id int, level users.ActivityLevel) error
}

// Config carries the weight tables of the computer so behavior is
// reproducible in tests.
type Config struct {
	// influence weights per metric dimension, expected to sum to 1.0
	Weights map[string]float64
	// blend of influence scalar vs activity scalar, expected to sum to 1.0
	StrengthWeight float64
	ActivityWeight float64
}

func DefaultConfig() Config {
	return Config{
		Weights: map[string]float64{
			DimCombinedStrength: 0.20,
			DimTotalVolume:      0.10,
			DimVolumePercentile: 0.10,
			DimWeeklyVolume:     0.15,
			DimTrainingDays:     0.15,
			DimVolumeChangePct:  0.10,
			DimIntensityAvg:     0.10,
			DimConsistencyPct:   0.10,
		},
		StrengthWeight: 0.7,
		ActivityWeight: 0.3,
	}
}

// Computer normalizes raw training metrics into influence scalars and the
// composite final scalar.
type Computer struct {
	cfg     Config
	metrics metricsSource
	users   activityStore
}

func NewComputer(cfg Config, metricsSrc metricsSource, usersStore activityStore) (*Computer, error) {
	if err := validateWeights(cfg.Weights); err != nil {
		return nil, err
	}
	if cfg.StrengthWeight < 0 || cfg.ActivityWeight < 0 {
		return nil, fmt.Errorf("%w: negative blend weight", ErrInvalidWeight)
	}
	return &Computer{
		cfg:     cfg,
		metrics: metricsSrc,
		users:   usersStore,
	}, nil
}

func validateWeights(weights map[string]float64) error {
	if len(weights) == 0 {
		return fmt.Errorf("%w: empty weight table", ErrInvalidWeight)
	}
	for dim, w := range weights {
		if w < 0 || w > 1 {
			return fmt.Errorf("%w: weight for %s out of [0,1]: %f", ErrInvalidWeight, dim, w)
		}
	}
	return nil
}

// Compute normalizes the user's raw metrics for the lookback window, blends
// them into the final scalar, and persists the re-derived activity level.
func (c *Computer) Compute(ctx context.Context, userID int, days int) (_ *InfluenceScalars, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "scalars.compute")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("user.id", userID),
		attribute.Int("days", days),
	)

	// a zero window would divide the training days scalar into NaN
	if days <= 0 {
		return nil, fmt.Errorf("%w: %d days", ErrInvalidWindow, days)
	}

	user, err := c.users.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	strength, err := c.metrics.StrengthMetrics(ctx, userID, days)
	if err != nil {
		return nil, fmt.Errorf("get strength metrics: %w", err)
	}
	conditioning, err := c.metrics.ConditioningMetrics(ctx, userID, days)
	if err != nil {
		return nil, fmt.Errorf("get conditioning metrics: %w", err)
	}

	s := &InfluenceScalars{
		CombinedStrength: clamp01(strength.CombinedStrength / capRelativeStrength),
		TotalVolume:      clamp01(strength.TotalVolume / capTotalVolume),
		VolumePercentile: clamp01(strength.VolumePercentile / 100),
		WeeklyVolume:     clamp01(conditioning.WeeklyVolume / capWeeklyVolume),
		TrainingDays:     clamp01(float64(conditioning.TrainingDays) / float64(days)),
		VolumeChangePct:  clamp01((conditioning.VolumeChangePct + 100) / 200),
		IntensityAvg:     clamp01(conditioning.IntensityAvg / capIntensity),
		// lower volume variance means a steadier, better score
		ConsistencyPct: clamp01(1 - conditioning.ConsistencyPct/100),
	}

	s.InfluenceScalar, err = c.weightedInfluence(s)
	if err != nil {
		return nil, err
	}

	strengthW, activityW := c.cfg.StrengthWeight, c.cfg.ActivityWeight
	if blendSum := strengthW + activityW; math.Abs(blendSum-1) > 1e-9 {
		if blendSum == 0 {
			return nil, fmt.Errorf("%w: zero blend weights", ErrInvalidWeight)
		}
		log.Warnf("scalar blend weights sum to %f, renormalizing", blendSum)
		strengthW /= blendSum
		activityW /= blendSum
	}
	s.FinalScalar = clamp01(strengthW*s.InfluenceScalar + activityW*user.ActivityLevel.Scalar())

	newLevel := users.ActivityLevelFromScalar(s.FinalScalar)
	if newLevel != user.ActivityLevel {
		if err := c.users.SetActivityLevel(ctx, userID, newLevel); err != nil {
			return nil, fmt.Errorf("persist activity level: %w", err)
		}
		log.Debugf("user %d activity level: %s -> %s", userID, user.ActivityLevel, newLevel)
	}

	return s, nil
}

func (c *Computer) weightedInfluence(s *InfluenceScalars) (float64, error) {
	var weightSum float64
	for _, w := range c.cfg.Weights {
		weightSum += w
	}
	if weightSum == 0 {
		return 0, fmt.Errorf("%w: zero weight table sum", ErrInvalidWeight)
	}
	if math.Abs(weightSum-1) > 1e-9 {
		log.Warnf("influence weights sum to %f, renormalizing", weightSum)
	}

	var sum float64
	for dim, w := range c.cfg.Weights {
		val, ok := s.Value(dim)
		if !ok {
			return 0, fmt.Errorf("%w: unknown weighted dimension %s", ErrInvalidWeight, dim)
		}
		if val < 0 || val > 1 {
			return 0, fmt.Errorf("%w: scalar %s out of [0,1]: %f", ErrInvalidWeight, dim, val)
		}
		sum += w * val
	}
	return sum / weightSum, nil
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
