package workouts

// StrengthMetrics holds the raw strength figures for a lookback window.
// All values are raw, not normalized.
type StrengthMetrics struct {
	// average of latest one-rep-max / bodyweight across tracked lifts
	CombinedStrength float64 `json:"combined_strength"`
	// sum of kilos*reps over the window
	TotalVolume float64 `json:"total_volume"`
	// percent rank of the user's volume among all users, 0-100
	VolumePercentile float64 `json:"volume_percentile"`
}

// ConditioningMetrics holds the raw conditioning figures for a lookback window.
type ConditioningMetrics struct {
	WeeklyVolume float64 `json:"weekly_volume"`
	TrainingDays int     `json:"training_days"`
	// percent change vs the preceding window of the same length
	VolumeChangePct float64 `json:"volume_change_pct"`
	// volume per rep
	IntensityAvg float64 `json:"intensity_avg"`
	// std dev of daily volumes as percent of the mean, lower is steadier
	ConsistencyPct float64 `json:"consistency_pct"`
}
