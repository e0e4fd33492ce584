package targets

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"

	"github.com/Alazca/official-coach/internal/coach/scalars"
	"github.com/Alazca/official-coach/internal/coach/users"
	"github.com/Alazca/official-coach/internal/coach/uservector"
	"github.com/Alazca/official-coach/internal/telemetry/tracing"
	"github.com/Alazca/official-coach/internal/vector"
)

// completed goals past their date need at least this much vector progress
const completionThresholdPct = 80.0

// milestoneCurveExponent front-loads the milestone curve: early progress is
// modeled faster than late progress.
const milestoneCurveExponent = 0.7

var milestonePercents = []float64{25, 50, 75}

// goalBoosts maps each goal type to per-dimension improvement factors.
var goalBoosts = map[GoalType]map[string]float64{
	GoalStrength: {
		scalars.DimCombinedStrength: 0.5,
		scalars.DimIntensityAvg:     0.4,
		scalars.DimTotalVolume:      0.3,
	},
	GoalEndurance: {
		scalars.DimWeeklyVolume:   0.5,
		scalars.DimTrainingDays:   0.5,
		scalars.DimConsistencyPct: 0.4,
	},
	GoalWeightLoss: {
		scalars.DimTrainingDays:   0.5,
		scalars.DimWeeklyVolume:   0.4,
		scalars.DimConsistencyPct: 0.3,
	},
	GoalPerformance: {
		scalars.DimConsistencyPct:   0.5,
		scalars.DimCombinedStrength: 0.4,
		scalars.DimIntensityAvg:     0.3,
		scalars.DimTrainingDays:     0.3,
	},
}

func boostsFor(goalType GoalType) map[string]float64 {
	if boosts, ok := goalBoosts[goalType]; ok {
		return boosts
	}
	// default goal nudges every metric dimension a little
	boosts := make(map[string]float64, len(scalars.MetricDimensions()))
	for _, dim := range scalars.MetricDimensions() {
		boosts[dim] = 0.25
	}
	return boosts
}

type targetRepo interface {
	Add(ctx context.Context, target *Target) error
	Get(ctx context.Context, id uuid.UUID) (*Target, error)
	Update(ctx context.Context, target *Target) error
	ActiveForUser(ctx context.Context, userID int) ([]Target, error)
}

type baselineSource interface {
	Get(ctx context.Context, userID int, profile string) (*uservector.UserVector, error)
}

type userSource interface {
	Get(ctx context.Context, id int) (*users.User, error)
}

// progressReporter yields the overall vector progress percent of a target,
// used when archiving goals past their date.
type progressReporter interface {
	VectorProgress(ctx context.Context, userID int, targetID uuid.UUID) (float64, error)
}

// Generator derives goal targets and their milestone schedules.
type Generator struct {
	repo     targetRepo
	vectors  baselineSource
	users    userSource
	progress progressReporter

	locksMx sync.Mutex
	locks   map[int]*sync.Mutex

	now func() time.Time
}

func NewGenerator(repo targetRepo, vectors baselineSource, usersSrc userSource) *Generator {
	return &Generator{
		repo:    repo,
		vectors: vectors,
		users:   usersSrc,
		locks:   map[int]*sync.Mutex{},
		now:     time.Now,
	}
}

// lockFor serializes goal mutations per user, milestone rebuilds read and
// write the same target row.
func (g *Generator) lockFor(userID int) *sync.Mutex {
	g.locksMx.Lock()
	defer g.locksMx.Unlock()
	mx, ok := g.locks[userID]
	if !ok {
		mx = &sync.Mutex{}
		g.locks[userID] = mx
	}
	return mx
}

// SetProgressReporter wires the progress calculator in after construction,
// the calculator itself reads targets through this package.
func (g *Generator) SetProgressReporter(reporter progressReporter) {
	g.progress = reporter
}

type InitializeParams struct {
	UserID           int
	GoalType         GoalType
	Profile          string
	TargetDate       time.Time
	CustomDimensions map[string]float64
	Description      string
}

func (g *Generator) Initialize(ctx context.Context, params InitializeParams) (_ *Target, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "targets.initialize")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("user.id", params.UserID),
		attribute.String("goal.type", string(params.GoalType)),
	)

	now := g.now()
	if !params.TargetDate.After(now) {
		return nil, fmt.Errorf("%w: target date %s is not in the future", ErrInvalidDate, params.TargetDate.Format(time.DateOnly))
	}
	if params.Profile == "" {
		params.Profile = uservector.DefaultProfile
	}

	baseline, err := g.vectors.Get(ctx, params.UserID, params.Profile)
	if err != nil {
		return nil, fmt.Errorf("baseline vector: %w", err)
	}

	targetVec := buildTargetVector(baseline.Vector, params.GoalType, params.CustomDimensions)

	description := params.Description
	if description == "" {
		description = g.autoDescription(ctx, params.UserID, params.GoalType, params.TargetDate)
	}

	target := &Target{
		ID:          uuid.New(),
		UserID:      params.UserID,
		GoalType:    params.GoalType,
		Profile:     params.Profile,
		Status:      StatusActive,
		Vector:      targetVec,
		Baseline:    baseline.Vector.Clone(),
		Description: description,
		StartDate:   now,
		TargetDate:  params.TargetDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	target.Milestones, err = buildMilestones(target.Baseline, target.Vector, now, params.TargetDate)
	if err != nil {
		return nil, fmt.Errorf("build milestones: %w", err)
	}

	if err := g.repo.Add(ctx, target); err != nil {
		return nil, fmt.Errorf("persist target: %w", err)
	}
	return target, nil
}

func (g *Generator) autoDescription(ctx context.Context, userID int, goalType GoalType, targetDate time.Time) string {
	name := fmt.Sprintf("User %d", userID)
	if user, err := g.users.Get(ctx, userID); err == nil && user.Username != "" {
		name = user.Username
	}
	return fmt.Sprintf("%s's %s goal targeting %s", name, goalType, targetDate.Format(time.DateOnly))
}

// buildTargetVector boosts the baseline per goal type with diminishing
// returns, then applies caller overrides.
func buildTargetVector(baseline vector.Vector, goalType GoalType, customDims map[string]float64) vector.Vector {
	boosts := boostsFor(goalType)

	target := baseline.Clone()
	var improvementSum float64
	var boostedCount int
	for i, dim := range target.Dimensions {
		factor, ok := boosts[dim]
		if !ok {
			continue
		}
		base := target.Values[i]
		boosted := math.Min(1, base+(1-base)*(1-math.Exp(-2*factor)))
		target.Values[i] = boosted
		improvementSum += boosted - base
		boostedCount++
	}

	for i, dim := range target.Dimensions {
		if override, ok := customDims[dim]; ok {
			target.Values[i] = math.Max(0, math.Min(1, override))
		}
	}

	// the final scalar follows the average improvement, never reaching 1.0
	for i, dim := range target.Dimensions {
		if dim != scalars.DimFinalScalar {
			continue
		}
		if _, overridden := customDims[dim]; overridden {
			continue
		}
		if boostedCount > 0 {
			base, _ := baseline.Value(dim)
			target.Values[i] = math.Min(0.98, base+improvementSum/float64(boostedCount))
		}
	}

	return target
}

// buildMilestones interpolates checkpoints at 25/50/75 percent of the
// timeline. Dates advance linearly; vector progress follows the percent
// raised to a front-loading exponent.
func buildMilestones(baseline, target vector.Vector, start, targetDate time.Time) ([]Milestone, error) {
	totalDays := targetDate.Sub(start).Hours() / 24

	milestones := make([]Milestone, 0, len(milestonePercents))
	for _, pct := range milestonePercents {
		progressFactor := math.Pow(pct/100, milestoneCurveExponent)
		values, err := vector.Interpolate(baseline.Values, target.Values, progressFactor)
		if err != nil {
			return nil, err
		}
		dims := make([]string, len(baseline.Dimensions))
		copy(dims, baseline.Dimensions)
		vec, err := vector.New(dims, values)
		if err != nil {
			return nil, err
		}
		milestones = append(milestones, Milestone{
			Percent: pct,
			Date:    start.Add(time.Duration(totalDays * pct / 100 * 24 * float64(time.Hour))),
			Vector:  vec,
		})
	}
	return milestones, nil
}

type UpdateParams struct {
	CustomDimensions map[string]float64
	ExtendDays       int
	Description      *string
	Status           *Status
}

func (p UpdateParams) empty() bool {
	return len(p.CustomDimensions) == 0 && p.ExtendDays == 0 && p.Description == nil && p.Status == nil
}

// Update mutates only the supplied fields. Changing dimensions or the date
// rebases the milestone schedule on the user's current vector.
func (g *Generator) Update(ctx context.Context, targetID uuid.UUID, params UpdateParams) (_ *Target, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "targets.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("target.id", targetID.String()))

	target, err := g.repo.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if params.empty() {
		return target, nil
	}
	if params.Status != nil && !params.Status.Known() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *params.Status)
	}

	mx := g.lockFor(target.UserID)
	mx.Lock()
	defer mx.Unlock()

	// re-read under the lock, a concurrent update may have landed in between
	target, err = g.repo.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.Status.Terminal() {
		return nil, fmt.Errorf("%w: %s", ErrGoalFinalized, target.Status)
	}

	if params.Status != nil {
		target.Status = *params.Status
	}
	if params.Description != nil {
		target.Description = *params.Description
	}

	rebase := false
	if len(params.CustomDimensions) > 0 {
		for i, dim := range target.Vector.Dimensions {
			if override, ok := params.CustomDimensions[dim]; ok {
				target.Vector.Values[i] = math.Max(0, math.Min(1, override))
			}
		}
		rebase = true
	}
	if params.ExtendDays != 0 {
		target.TargetDate = target.TargetDate.AddDate(0, 0, params.ExtendDays)
		if !target.TargetDate.After(g.now()) {
			return nil, fmt.Errorf("%w: extended date is not in the future", ErrInvalidDate)
		}
		rebase = true
	}

	if rebase {
		current, err := g.vectors.Get(ctx, target.UserID, target.Profile)
		if err != nil {
			return nil, fmt.Errorf("current baseline: %w", err)
		}
		target.Baseline = current.Vector.Clone()
		target.Milestones, err = buildMilestones(target.Baseline, target.Vector, g.now(), target.TargetDate)
		if err != nil {
			return nil, fmt.Errorf("rebuild milestones: %w", err)
		}
	}

	target.UpdatedAt = g.now()
	if err := g.repo.Update(ctx, target); err != nil {
		return nil, fmt.Errorf("persist target update: %w", err)
	}
	return target, nil
}

// Get returns a stored target.
func (g *Generator) Get(ctx context.Context, targetID uuid.UUID) (*Target, error) {
	return g.repo.Get(ctx, targetID)
}

// ArchiveCompleted closes every active goal past its target date, marking
// it completed when enough vector progress was made and expired otherwise.
// Per-goal failures are collected and do not stop the sweep.
func (g *Generator) ArchiveCompleted(ctx context.Context, userID int) (archived int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "targets.archiveCompleted")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	if g.progress == nil {
		return 0, fmt.Errorf("no progress reporter wired")
	}

	mx := g.lockFor(userID)
	mx.Lock()
	defer mx.Unlock()

	activeTargets, err := g.repo.ActiveForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list active targets: %w", err)
	}

	now := g.now()
	var errs error
	for i := range activeTargets {
		target := &activeTargets[i]
		if target.TargetDate.After(now) {
			continue
		}

		progressPct, perr := g.progress.VectorProgress(ctx, userID, target.ID)
		if perr != nil {
			errs = multierr.Append(errs, fmt.Errorf("progress for target %s: %w", target.ID, perr))
			continue
		}

		if progressPct >= completionThresholdPct {
			target.Status = StatusCompleted
		} else {
			target.Status = StatusExpired
		}
		target.UpdatedAt = now

		if perr := g.repo.Update(ctx, target); perr != nil {
			errs = multierr.Append(errs, fmt.Errorf("archive target %s: %w", target.ID, perr))
			continue
		}
		log.Debugf("archived goal %s for user %d as %s", target.ID, userID, target.Status)
		archived++
	}

	return archived, errs
}
