package progress

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Alazca/official-coach/internal/coach/scalars"
	"github.com/Alazca/official-coach/internal/coach/targets"
	"github.com/Alazca/official-coach/internal/coach/uservector"
	"github.com/Alazca/official-coach/internal/telemetry/tracing"
	"github.com/Alazca/official-coach/internal/vector"
)

const (
	defaultImportance = 0.5

	// feedback triggers when a dimension is further than this from target
	feedbackThreshold = 0.2

	// the similarity improvement formula degenerates near a perfect
	// baseline similarity
	baselineSimilarityCeiling = 0.99
)

// goalImportance weighs dimensions per goal type when averaging progress.
var goalImportance = map[targets.GoalType]map[string]float64{
	targets.GoalStrength: {
		scalars.DimCombinedStrength: 1.0,
		scalars.DimIntensityAvg:     0.8,
		scalars.DimTotalVolume:      0.6,
	},
	targets.GoalEndurance: {
		scalars.DimWeeklyVolume:   1.0,
		scalars.DimTrainingDays:   0.9,
		scalars.DimConsistencyPct: 0.8,
	},
	targets.GoalWeightLoss: {
		scalars.DimTrainingDays:   0.9,
		scalars.DimWeeklyVolume:   0.8,
		scalars.DimConsistencyPct: 0.7,
	},
	targets.GoalPerformance: {
		scalars.DimConsistencyPct:   1.0,
		scalars.DimCombinedStrength: 0.8,
		scalars.DimTrainingDays:     0.7,
	},
}

func importanceFor(goalType targets.GoalType, dimension string) float64 {
	if weights, ok := goalImportance[goalType]; ok {
		if w, ok := weights[dimension]; ok {
			return w
		}
	}
	return defaultImportance
}

type targetSource interface {
	Get(ctx context.Context, id uuid.UUID) (*targets.Target, error)
}

type vectorSource interface {
	Get(ctx context.Context, userID int, profile string) (*uservector.UserVector, error)
}

// Calculator compares a user's current vector against a target's milestone
// schedule and timeline.
type Calculator struct {
	targets targetSource
	vectors vectorSource

	now func() time.Time
}

func NewCalculator(targetSrc targetSource, vectorSrc vectorSource) *Calculator {
	return &Calculator{
		targets: targetSrc,
		vectors: vectorSrc,
		now:     time.Now,
	}
}

// CurrentMilestone locates today's position in the milestone schedule.
func (c *Calculator) CurrentMilestone(ctx context.Context, targetID uuid.UUID) (_ *targets.Milestone, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progress.currentMilestone")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("target.id", targetID.String()))

	target, err := c.targets.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}

	now := c.now()
	if !now.Before(target.TargetDate) {
		return &targets.Milestone{
			Percent: 100,
			Date:    target.TargetDate,
			Vector:  target.Vector.Clone(),
			IsFinal: true,
		}, nil
	}

	if len(target.Milestones) == 0 {
		return &targets.Milestone{
			Percent:   0,
			Date:      target.StartDate,
			Vector:    target.Baseline.Clone(),
			IsInitial: true,
		}, nil
	}

	first := target.Milestones[0]
	if now.Before(first.Date) {
		// pro-rate between baseline and the first milestone by elapsed time
		window := first.Date.Sub(target.StartDate)
		ratio := 0.0
		if window > 0 {
			ratio = float64(now.Sub(target.StartDate)) / float64(window)
		}
		values, err := vector.Interpolate(target.Baseline.Values, first.Vector.Values, ratio)
		if err != nil {
			return nil, err
		}
		vec, err := vector.New(target.Baseline.Clone().Dimensions, values)
		if err != nil {
			return nil, err
		}
		return &targets.Milestone{
			Percent:    first.Percent * math.Max(0, math.Min(1, ratio)),
			Date:       now,
			Vector:     vec,
			IsProrated: true,
			IsInitial:  ratio <= 0,
		}, nil
	}

	var current targets.Milestone
	for _, m := range target.Milestones {
		if m.Date.After(now) {
			break
		}
		current = m
	}
	return &current, nil
}

// Calculate produces a full progress report for a user and target pair.
func (c *Calculator) Calculate(ctx context.Context, userID int, targetID uuid.UUID) (_ *Report, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progress.calculate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("user.id", userID),
		attribute.String("target.id", targetID.String()),
	)

	target, err := c.targets.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}
	current, err := c.vectors.Get(ctx, userID, target.Profile)
	if err != nil {
		return nil, err
	}

	report := &Report{
		UserID:   userID,
		TargetID: targetID,
		GoalType: target.GoalType,
	}

	now := c.now()
	c.fillTimeMetrics(report, target, now)
	c.fillDimensionProgress(report, target, current.Vector)
	c.fillStatus(report)
	if err := c.fillSimilarity(report, target, current.Vector); err != nil {
		return nil, err
	}
	c.fillProjection(report, target, now)
	c.fillNextMilestone(report, target, now)
	report.Feedback = vectorFeedback(current.Vector, target.Vector)

	return report, nil
}

// VectorProgress returns just the overall progress percent, used by the
// goal archiver.
func (c *Calculator) VectorProgress(ctx context.Context, userID int, targetID uuid.UUID) (float64, error) {
	report, err := c.Calculate(ctx, userID, targetID)
	if err != nil {
		return 0, err
	}
	return report.OverallProgressPct, nil
}

func (c *Calculator) fillTimeMetrics(report *Report, target *targets.Target, now time.Time) {
	totalDays := int(target.TargetDate.Sub(target.StartDate).Hours() / 24)
	daysPassed := int(now.Sub(target.StartDate).Hours() / 24)
	daysRemaining := int(target.TargetDate.Sub(now).Hours() / 24)

	report.TotalDays = totalDays
	report.DaysPassed = daysPassed
	report.DaysRemaining = int(math.Max(0, float64(daysRemaining)))

	if totalDays <= 0 {
		// degenerate timeline counts as fully elapsed
		report.TimeProgressPct = 100
		return
	}
	report.TimeProgressPct = math.Max(0, math.Min(100, float64(daysPassed)/float64(totalDays)*100))
}

func (c *Calculator) fillDimensionProgress(report *Report, target *targets.Target, current vector.Vector) {
	var weightedSum, weightSum float64
	for _, dim := range current.CommonDimensions(target.Vector) {
		currentVal, _ := current.Value(dim)
		targetVal, _ := target.Vector.Value(dim)
		baselineVal, _ := target.Baseline.Value(dim)

		var pct float64
		if targetVal == baselineVal {
			// no movement required on this dimension
			if currentVal >= targetVal {
				pct = 100
			}
		} else {
			pct = math.Max(0, math.Min(100, (currentVal-baselineVal)/(targetVal-baselineVal)*100))
		}

		importance := importanceFor(target.GoalType, dim)
		report.Dimensions = append(report.Dimensions, DimensionProgress{
			Dimension:   dim,
			Baseline:    baselineVal,
			Current:     currentVal,
			Target:      targetVal,
			ProgressPct: pct,
			Importance:  importance,
		})
		weightedSum += pct * importance
		weightSum += importance
	}

	if weightSum > 0 {
		report.OverallProgressPct = weightedSum / weightSum
	}
}

func (c *Calculator) fillStatus(report *Report) {
	t := report.TimeProgressPct / 100
	report.ExpectedProgressPct = 100 / (1 + math.Exp(-10*(t-0.5)))

	if report.ExpectedProgressPct == 0 {
		report.ProgressRatio = 1
	} else {
		report.ProgressRatio = report.OverallProgressPct / report.ExpectedProgressPct
	}

	switch {
	case report.ProgressRatio >= 1.2:
		report.Status = StatusAhead
	case report.ProgressRatio >= 0.8:
		report.Status = StatusOnTrack
	case report.ProgressRatio >= 0.5:
		report.Status = StatusSlightlyBehind
	default:
		report.Status = StatusBehind
	}
	report.OnTrack = report.ProgressRatio >= 0.8
}

func (c *Calculator) fillSimilarity(report *Report, target *targets.Target, current vector.Vector) error {
	common := current.CommonDimensions(target.Vector)
	if len(common) == 0 {
		return nil
	}

	currentVals := make([]float64, len(common))
	baselineVals := make([]float64, len(common))
	targetVals := make([]float64, len(common))
	weights := make([]float64, len(common))
	for i, dim := range common {
		currentVals[i], _ = current.Value(dim)
		baselineVals[i], _ = target.Baseline.Value(dim)
		targetVals[i], _ = target.Vector.Value(dim)
		weights[i] = importanceFor(target.GoalType, dim)
	}

	currentSim, err := vector.WeightedSimilarity(currentVals, targetVals, weights)
	if err != nil {
		return fmt.Errorf("current similarity: %w", err)
	}
	baselineSim, err := vector.WeightedSimilarity(baselineVals, targetVals, weights)
	if err != nil {
		return fmt.Errorf("baseline similarity: %w", err)
	}

	report.CurrentSimilarity = currentSim
	report.BaselineSimilarity = baselineSim
	if baselineSim < baselineSimilarityCeiling {
		report.SimilarityImprovement = (currentSim - baselineSim) / (1 - baselineSim) * 100
	}
	return nil
}

func (c *Calculator) fillProjection(report *Report, target *targets.Target, now time.Time) {
	if report.OverallProgressPct <= 0 || report.DaysPassed <= 0 {
		// no progress yet, nothing to extrapolate
		return
	}
	dailyRate := report.OverallProgressPct / float64(report.DaysPassed)
	daysToComplete := (100 - report.OverallProgressPct) / dailyRate
	projected := now.Add(time.Duration(daysToComplete * 24 * float64(time.Hour)))
	report.ProjectedCompletion = &projected
}

func (c *Calculator) fillNextMilestone(report *Report, target *targets.Target, now time.Time) {
	currentPct := 0.0
	for _, m := range target.Milestones {
		if !m.Date.After(now) {
			currentPct = m.Percent
		}
	}
	if !now.Before(target.TargetDate) {
		return
	}

	for _, m := range target.Milestones {
		if m.Percent > currentPct {
			report.NextMilestone = &NextMilestone{
				Milestone: m,
				DaysUntil: int(math.Ceil(m.Date.Sub(now).Hours() / 24)),
			}
			return
		}
	}
	// no intermediate milestone left, the target itself is next
	report.NextMilestone = &NextMilestone{
		Milestone: targets.Milestone{
			Percent: 100,
			Date:    target.TargetDate,
			Vector:  target.Vector.Clone(),
			IsFinal: true,
		},
		DaysUntil: int(math.Ceil(target.TargetDate.Sub(now).Hours() / 24)),
	}
}

// vectorFeedback nudges every dimension still far from its target.
func vectorFeedback(current, target vector.Vector) []FeedbackItem {
	var feedback []FeedbackItem
	for _, dim := range current.CommonDimensions(target) {
		currentVal, _ := current.Value(dim)
		targetVal, _ := target.Value(dim)
		diff := targetVal - currentVal
		if math.Abs(diff) <= feedbackThreshold {
			continue
		}

		direction := "increase"
		if diff < 0 {
			direction = "decrease"
		}
		magnitude := "slightly"
		if math.Abs(diff) > feedbackThreshold*2 {
			magnitude = "significantly"
		}

		feedback = append(feedback, FeedbackItem{
			Dimension:  dim,
			Current:    currentVal,
			Target:     targetVal,
			Difference: diff,
			Direction:  direction,
			Magnitude:  magnitude,
			Suggestion: fmt.Sprintf(
				"%s%s %s your %s",
				strings.ToUpper(magnitude[:1]), magnitude[1:],
				direction, strings.ReplaceAll(dim, "_", " "),
			),
		})
	}
	return feedback
}
