package recommend

import (
	"errors"

	"github.com/google/uuid"

	"github.com/Alazca/official-coach/internal/coach/targets"
)

var ErrRecommendationNotFound = errors.New("recommendation not found")

type Severity string

const (
	SeverityCritical    Severity = "critical"
	SeveritySignificant Severity = "significant"
	SeverityModerate    Severity = "moderate"
	SeverityMinor       Severity = "minor"
)

func severityFor(value float64) Severity {
	switch {
	case value < 0.3:
		return SeverityCritical
	case value < 0.5:
		return SeveritySignificant
	case value < 0.7:
		return SeverityModerate
	default:
		return SeverityMinor
	}
}

// Recommendation proposes a goal targeting one weak dimension. Priority 1
// is the weakest dimension.
type Recommendation struct {
	ID               uuid.UUID          `json:"id"`
	Dimension        string             `json:"dimension"`
	CurrentValue     float64            `json:"current_value"`
	Severity         Severity           `json:"severity"`
	Priority         int                `json:"priority"`
	GoalType         targets.GoalType   `json:"goal_type"`
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	CustomDimensions map[string]float64 `json:"custom_dimensions"`
	DurationDays     int                `json:"duration_days"`
}
