package targets

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Alazca/official-coach/internal/vector"
)

var (
	ErrTargetNotFound = errors.New("target not found")
	ErrInvalidDate    = errors.New("invalid target date")
	ErrInvalidStatus  = errors.New("unknown goal status")
	ErrGoalFinalized  = errors.New("goal is in a terminal state")
)

type GoalType string

const (
	GoalStrength    GoalType = "Strength"
	GoalEndurance   GoalType = "Endurance"
	GoalWeightLoss  GoalType = "Weight-Loss"
	GoalPerformance GoalType = "Performance"
	GoalDefault     GoalType = "Default"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
	StatusAbandoned Status = "abandoned"
)

// Terminal states accept no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusExpired || s == StatusAbandoned
}

// Known reports whether s is one of the defined goal statuses.
func (s Status) Known() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusExpired, StatusAbandoned:
		return true
	}
	return false
}

// Milestone is an interpolated checkpoint between baseline and target,
// tagged with a completion percent and a calendar date.
type Milestone struct {
	Percent    float64       `json:"percent"`
	Date       time.Time     `json:"date"`
	Vector     vector.Vector `json:"vector"`
	IsFinal    bool          `json:"is_final,omitempty"`
	IsProrated bool          `json:"is_prorated,omitempty"`
	IsInitial  bool          `json:"is_initial,omitempty"`
}

// Target is a goal-adjusted vector with its milestone schedule. Baseline is
// the user vector captured when the goal was created or last rebased.
type Target struct {
	ID          uuid.UUID     `json:"id"`
	UserID      int           `json:"user_id"`
	GoalType    GoalType      `json:"goal_type"`
	Profile     string        `json:"profile"`
	Status      Status        `json:"status"`
	Vector      vector.Vector `json:"vector"`
	Baseline    vector.Vector `json:"baseline"`
	Milestones  []Milestone   `json:"milestones"`
	Description string        `json:"description"`
	StartDate   time.Time     `json:"start_date"`
	TargetDate  time.Time     `json:"target_date"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
