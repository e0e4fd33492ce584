package scalars

import "errors"

var (
	ErrInvalidWeight = errors.New("invalid weight")
	ErrInvalidWindow = errors.New("invalid lookback window")
)

// Canonical metric dimension names, shared by user and target vectors.
const (
	DimCombinedStrength = "combined_strength"
	DimTotalVolume      = "total_volume"
	DimVolumePercentile = "volume_percentile"
	DimWeeklyVolume     = "weekly_volume"
	DimTrainingDays     = "training_days"
	DimVolumeChangePct  = "volume_change_pct"
	DimIntensityAvg     = "intensity_avg"
	DimConsistencyPct   = "consistency_pct"
	DimFinalScalar      = "final_scalar"
)

// MetricDimensions is the canonical ordered list of the normalized metric
// dimensions, without the final scalar.
func MetricDimensions() []string {
	return []string{
		DimCombinedStrength,
		DimTotalVolume,
		DimVolumePercentile,
		DimWeeklyVolume,
		DimTrainingDays,
		DimVolumeChangePct,
		DimIntensityAvg,
		DimConsistencyPct,
	}
}

// InfluenceScalars is the ephemeral result of one metric normalization
// round. All values are in [0,1].
type InfluenceScalars struct {
	CombinedStrength float64 `json:"combined_strength"`
	TotalVolume      float64 `json:"total_volume"`
	VolumePercentile float64 `json:"volume_percentile"`
	WeeklyVolume     float64 `json:"weekly_volume"`
	TrainingDays     float64 `json:"training_days"`
	VolumeChangePct  float64 `json:"volume_change_pct"`
	IntensityAvg     float64 `json:"intensity_avg"`
	ConsistencyPct   float64 `json:"consistency_pct"`

	InfluenceScalar float64 `json:"influence_scalar"`
	FinalScalar     float64 `json:"final_scalar"`
}

// MetricValues returns the normalized scalars in canonical dimension order.
func (s *InfluenceScalars) MetricValues() []float64 {
	return []float64{
		s.CombinedStrength,
		s.TotalVolume,
		s.VolumePercentile,
		s.WeeklyVolume,
		s.TrainingDays,
		s.VolumeChangePct,
		s.IntensityAvg,
		s.ConsistencyPct,
	}
}

// Value returns the normalized scalar for a canonical metric dimension.
func (s *InfluenceScalars) Value(dimension string) (float64, bool) {
	switch dimension {
	case DimCombinedStrength:
		return s.CombinedStrength, true
	case DimTotalVolume:
		return s.TotalVolume, true
	case DimVolumePercentile:
		return s.VolumePercentile, true
	case DimWeeklyVolume:
		return s.WeeklyVolume, true
	case DimTrainingDays:
		return s.TrainingDays, true
	case DimVolumeChangePct:
		return s.VolumeChangePct, true
	case DimIntensityAvg:
		return s.IntensityAvg, true
	case DimConsistencyPct:
		return s.ConsistencyPct, true
	case DimFinalScalar:
		return s.FinalScalar, true
	default:
		return 0, false
	}
}

// FitnessTier is the categorical reading of the final scalar.
type FitnessTier string

const (
	TierBeginner     FitnessTier = "Beginner"
	TierNovice       FitnessTier = "Novice"
	TierIntermediate FitnessTier = "Intermediate"
	TierAdvanced     FitnessTier = "Advanced"
	TierElite        FitnessTier = "Elite"
)

func TierFromScalar(finalScalar float64) FitnessTier {
	switch {
	case finalScalar < 0.40:
		return TierBeginner
	case finalScalar < 0.65:
		return TierNovice
	case finalScalar < 0.75:
		return TierIntermediate
	case finalScalar < 0.85:
		return TierAdvanced
	default:
		return TierElite
	}
}
