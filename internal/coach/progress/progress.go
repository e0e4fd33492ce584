package progress

import (
	"time"

	"github.com/google/uuid"

	"github.com/Alazca/official-coach/internal/coach/targets"
)

// Progress status bands, driven by the actual/expected progress ratio.
const (
	StatusAhead          = "ahead"
	StatusOnTrack        = "on_track"
	StatusSlightlyBehind = "slightly_behind"
	StatusBehind         = "behind"
)

type DimensionProgress struct {
	Dimension   string  `json:"dimension"`
	Baseline    float64 `json:"baseline"`
	Current     float64 `json:"current"`
	Target      float64 `json:"target"`
	ProgressPct float64 `json:"progress_pct"`
	Importance  float64 `json:"importance"`
}

// FeedbackItem nudges one dimension that still sits far from its target.
type FeedbackItem struct {
	Dimension  string  `json:"dimension"`
	Current    float64 `json:"current_value"`
	Target     float64 `json:"target_value"`
	Difference float64 `json:"difference"`
	Direction  string  `json:"direction"`
	Magnitude  string  `json:"magnitude"`
	Suggestion string  `json:"suggestion"`
}

type NextMilestone struct {
	targets.Milestone
	DaysUntil int `json:"days_until"`
}

// Report is the ephemeral result of one progress calculation. It is never
// persisted.
type Report struct {
	UserID   int              `json:"user_id"`
	TargetID uuid.UUID        `json:"target_id"`
	GoalType targets.GoalType `json:"goal_type"`

	TotalDays       int     `json:"total_days"`
	DaysPassed      int     `json:"days_passed"`
	DaysRemaining   int     `json:"days_remaining"`
	TimeProgressPct float64 `json:"time_progress_pct"`

	OverallProgressPct  float64 `json:"overall_progress_pct"`
	ExpectedProgressPct float64 `json:"expected_progress_pct"`
	ProgressRatio       float64 `json:"progress_ratio"`
	Status              string  `json:"status"`
	OnTrack             bool    `json:"on_track"`

	Dimensions []DimensionProgress `json:"dimensions"`

	CurrentSimilarity     float64 `json:"current_similarity"`
	BaselineSimilarity    float64 `json:"baseline_similarity"`
	SimilarityImprovement float64 `json:"similarity_improvement"`

	ProjectedCompletion *time.Time     `json:"projected_completion,omitempty"`
	NextMilestone       *NextMilestone `json:"next_milestone,omitempty"`

	Feedback []FeedbackItem `json:"feedback,omitempty"`
}
