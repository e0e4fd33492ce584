package users

import "time"

type ActivityLevel string

const (
	ActivitySedentary ActivityLevel = "Sedentary"
	ActivityCasual    ActivityLevel = "Casual"
	ActivityModerate  ActivityLevel = "Moderate"
	ActivityActive    ActivityLevel = "Active"
	ActivityIntense   ActivityLevel = "Intense"
)

// Scalar maps the ordinal activity levels onto [0.2, 1.0]. Unknown levels
// score as sedentary.
func (l ActivityLevel) Scalar() float64 {
	switch l {
	case ActivityCasual:
		return 0.4
	case ActivityModerate:
		return 0.6
	case ActivityActive:
		return 0.8
	case ActivityIntense:
		return 1.0
	default:
		return 0.2
	}
}

// ActivityLevelFromScalar is the reverse mapping, used to persist the tier
// derived from a freshly computed final scalar.
func ActivityLevelFromScalar(scalar float64) ActivityLevel {
	switch {
	case scalar >= 0.85:
		return ActivityIntense
	case scalar >= 0.65:
		return ActivityActive
	case scalar >= 0.5:
		return ActivityModerate
	case scalar >= 0.35:
		return ActivityCasual
	default:
		return ActivitySedentary
	}
}

type User struct {
	ID            int           `json:"id"`
	Username      string        `json:"username"`
	Weight        float64       `json:"weight"`
	ActivityLevel ActivityLevel `json:"activity_level"`
	CreatedAt     time.Time     `json:"created_at"`
}
