package uservector

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Alazca/official-coach/internal/coach/scalars"
	"github.com/Alazca/official-coach/internal/telemetry/tracing"
)

const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"

	// percent change thresholds for the trend classification
	improvingThresholdPct = 5.0
	decliningThresholdPct = -5.0
)

type DimensionTrend struct {
	Dimension string  `json:"dimension"`
	Earliest  float64 `json:"earliest"`
	Latest    float64 `json:"latest"`
	ChangePct float64 `json:"change_pct"`
	Trend     string  `json:"trend"`
}

// TrendReport describes how the snapshots of a window moved. When fewer
// than two snapshots exist the report carries SufficientData=false instead
// of failing.
type TrendReport struct {
	UserID         int    `json:"user_id"`
	Profile        string `json:"profile"`
	WindowDays     int    `json:"window_days"`
	SnapshotCount  int    `json:"snapshot_count"`
	SufficientData bool   `json:"sufficient_data"`

	Dimensions       []DimensionTrend `json:"dimensions,omitempty"`
	TopImprovements  []DimensionTrend `json:"top_improvements,omitempty"`
	TopRegressions   []DimensionTrend `json:"top_regressions,omitempty"`
	OverallChangePct float64          `json:"overall_change_pct"`
	Insights         []string         `json:"insights,omitempty"`
}

// Trend compares the earliest and latest snapshot of the window.
func (b *Builder) Trend(ctx context.Context, userID int, profile string, days int) (_ *TrendReport, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "uservector.trend")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("user.id", userID),
		attribute.Int("days", days),
	)

	if profile == "" {
		profile = DefaultProfile
	}

	to := b.now()
	from := to.AddDate(0, 0, -days)
	snapshots, err := b.repo.SnapshotsInRange(ctx, userID, profile, from, to)
	if err != nil {
		return nil, fmt.Errorf("read snapshots: %w", err)
	}

	report := &TrendReport{
		UserID:        userID,
		Profile:       profile,
		WindowDays:    days,
		SnapshotCount: len(snapshots),
	}
	if len(snapshots) < 2 {
		return report, nil
	}
	report.SufficientData = true

	earliest, latest := snapshots[0], snapshots[len(snapshots)-1]
	for _, dim := range earliest.Vector.CommonDimensions(latest.Vector) {
		earliestVal, _ := earliest.Vector.Value(dim)
		latestVal, _ := latest.Vector.Value(dim)

		trend := DimensionTrend{
			Dimension: dim,
			Earliest:  earliestVal,
			Latest:    latestVal,
			ChangePct: percentChange(earliestVal, latestVal),
		}
		switch {
		case trend.ChangePct > improvingThresholdPct:
			trend.Trend = TrendImproving
		case trend.ChangePct < decliningThresholdPct:
			trend.Trend = TrendDeclining
		default:
			trend.Trend = TrendStable
		}

		if dim == scalars.DimFinalScalar {
			report.OverallChangePct = trend.ChangePct
		}
		report.Dimensions = append(report.Dimensions, trend)
	}

	report.TopImprovements = topMetricTrends(report.Dimensions, true)
	report.TopRegressions = topMetricTrends(report.Dimensions, false)
	report.Insights = trendInsights(report, latest)

	return report, nil
}

func percentChange(earliest, latest float64) float64 {
	if earliest == 0 {
		if latest > 0 {
			return 100
		}
		return 0
	}
	return (latest - earliest) / earliest * 100
}

// topMetricTrends picks up to three strongest movers among the metric
// dimensions, skipping the composite final scalar.
func topMetricTrends(trends []DimensionTrend, improvements bool) []DimensionTrend {
	var movers []DimensionTrend
	for _, t := range trends {
		if t.Dimension == scalars.DimFinalScalar {
			continue
		}
		if improvements && t.Trend == TrendImproving {
			movers = append(movers, t)
		}
		if !improvements && t.Trend == TrendDeclining {
			movers = append(movers, t)
		}
	}

	sort.Slice(movers, func(i, j int) bool {
		if improvements {
			return movers[i].ChangePct > movers[j].ChangePct
		}
		return movers[i].ChangePct < movers[j].ChangePct
	})

	if len(movers) > 3 {
		movers = movers[:3]
	}
	return movers
}

func trendInsights(report *TrendReport, latest Snapshot) []string {
	var insights []string

	for _, t := range report.Dimensions {
		if t.Dimension != scalars.DimWeeklyVolume {
			continue
		}
		switch t.Trend {
		case TrendImproving:
			insights = append(insights, "Your workout volume is steadily increasing, showing good progress in training capacity.")
		case TrendDeclining:
			insights = append(insights, "Your workout volume has been decreasing, which may indicate fatigue or insufficient recovery.")
		default:
			insights = append(insights, "Your workout volume is relatively stable.")
		}
	}

	for _, t := range report.Dimensions {
		if t.Dimension != scalars.DimIntensityAvg {
			continue
		}
		switch t.Trend {
		case TrendImproving:
			insights = append(insights, "Your workout intensity is trending upward, indicating improved strength and conditioning.")
		case TrendDeclining:
			insights = append(insights, "Your workout intensity has been decreasing, which may require attention to training stimulus.")
		default:
			insights = append(insights, "Your workout intensity is being maintained at a consistent level.")
		}
	}

	if consistency, ok := latest.Vector.Value(scalars.DimConsistencyPct); ok {
		switch {
		case consistency >= 0.8:
			insights = append(insights, "Excellent workout consistency! Your adherence to your training schedule is a key factor in your results.")
		case consistency >= 0.6:
			insights = append(insights, "Good workout consistency overall, with room for minor improvements in schedule adherence.")
		case consistency >= 0.4:
			insights = append(insights, "Moderate workout consistency. Try to improve adherence to your planned schedule for better results.")
		default:
			insights = append(insights, "Your workout consistency needs improvement. Consider addressing schedule barriers.")
		}
	}

	switch {
	case report.OverallChangePct > improvingThresholdPct:
		insights = append(insights, "Your overall fitness score is improving across this window.")
	case report.OverallChangePct < decliningThresholdPct:
		insights = append(insights, "Your overall fitness score has dropped across this window.")
	}

	return insights
}
