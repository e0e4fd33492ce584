package uservector

import (
	"errors"
	"time"

	"github.com/Alazca/official-coach/internal/coach/scalars"
	"github.com/Alazca/official-coach/internal/vector"
)

var ErrUserVectorNotFound = errors.New("user vector not found")

const DefaultProfile = "default"

// UserVector is the current fitness state of one user and profile. Rebuilt
// wholesale on every recompute, last write wins.
type UserVector struct {
	UserID      int                `json:"user_id"`
	Profile     string             `json:"profile"`
	Vector      vector.Vector      `json:"vector"`
	Tier        scalars.FitnessTier `json:"tier"`
	FinalScalar float64            `json:"final_scalar"`
	CreatedAt   time.Time          `json:"created_at"`
}

// Snapshot is an append-only daily copy of a user vector, at most one per
// user, profile and calendar day.
type Snapshot struct {
	UserID       int           `json:"user_id"`
	Profile      string        `json:"profile"`
	Vector       vector.Vector `json:"vector"`
	SnapshotDate time.Time     `json:"snapshot_date"`
	ComputedAt   time.Time     `json:"computed_at"`
}
