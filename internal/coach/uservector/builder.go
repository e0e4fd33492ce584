package uservector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Alazca/official-coach/internal/coach/scalars"
	"github.com/Alazca/official-coach/internal/telemetry/tracing"
	"github.com/Alazca/official-coach/internal/vector"
)

type scalarComputer interface {
	Compute(ctx context.Context, userID int, days int) (*scalars.InfluenceScalars, error)
}

type vectorRepo interface {
	Upsert(ctx context.Context, uv UserVector) error
	Get(ctx context.Context, userID int, profile string) (*UserVector, error)
	SaveSnapshot(ctx context.Context, snapshot Snapshot) error
	SnapshotsInRange(ctx context.Context, userID int, profile string, from, to time.Time) ([]Snapshot, error)
}

// Builder assembles and persists user vectors. Writes for the same user and
// profile are serialized through a keyed mutex so concurrent rebuilds cannot
// interleave; reads are not blocked.
type Builder struct {
	computer scalarComputer
	repo     vectorRepo

	locksMx sync.Mutex
	locks   map[string]*sync.Mutex

	now func() time.Time
}

func NewBuilder(computer scalarComputer, repo vectorRepo) *Builder {
	return &Builder{
		computer: computer,
		repo:     repo,
		locks:    map[string]*sync.Mutex{},
		now:      time.Now,
	}
}

func (b *Builder) lockFor(userID int, profile string) *sync.Mutex {
	b.locksMx.Lock()
	defer b.locksMx.Unlock()
	key := fmt.Sprintf("%d|%s", userID, profile)
	mx, ok := b.locks[key]
	if !ok {
		mx = &sync.Mutex{}
		b.locks[key] = mx
	}
	return mx
}

// Build recomputes the influence scalars and upserts the user vector row
// keyed by user and profile.
func (b *Builder) Build(ctx context.Context, userID int, profile string, days int) (_ *UserVector, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "uservector.build")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("user.id", userID),
		attribute.String("profile", profile),
	)

	if profile == "" {
		profile = DefaultProfile
	}

	mx := b.lockFor(userID, profile)
	mx.Lock()
	defer mx.Unlock()

	s, err := b.computer.Compute(ctx, userID, days)
	if err != nil {
		return nil, fmt.Errorf("compute scalars: %w", err)
	}

	dims := append(scalars.MetricDimensions(), scalars.DimFinalScalar)
	values := append(s.MetricValues(), s.FinalScalar)
	vec, err := vector.New(dims, values)
	if err != nil {
		return nil, fmt.Errorf("assemble vector: %w", err)
	}

	uv := UserVector{
		UserID:      userID,
		Profile:     profile,
		Vector:      vec,
		Tier:        scalars.TierFromScalar(s.FinalScalar),
		FinalScalar: s.FinalScalar,
		CreatedAt:   b.now(),
	}
	if err := b.repo.Upsert(ctx, uv); err != nil {
		return nil, fmt.Errorf("upsert user vector: %w", err)
	}

	return &uv, nil
}

// Get returns the current vector without blocking on in-flight rebuilds.
func (b *Builder) Get(ctx context.Context, userID int, profile string) (*UserVector, error) {
	if profile == "" {
		profile = DefaultProfile
	}
	return b.repo.Get(ctx, userID, profile)
}

// Snapshot stores today's copy of the current vector. Calling it twice on
// the same day overwrites the earlier snapshot.
func (b *Builder) Snapshot(ctx context.Context, userID int, profile string) (_ *Snapshot, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "uservector.snapshot")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("user.id", userID),
		attribute.String("profile", profile),
	)

	if profile == "" {
		profile = DefaultProfile
	}

	mx := b.lockFor(userID, profile)
	mx.Lock()
	defer mx.Unlock()

	current, err := b.repo.Get(ctx, userID, profile)
	if err != nil {
		return nil, err
	}

	now := b.now()
	snapshot := Snapshot{
		UserID:       userID,
		Profile:      profile,
		Vector:       current.Vector.Clone(),
		SnapshotDate: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		ComputedAt:   now,
	}
	if err := b.repo.SaveSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}

	return &snapshot, nil
}
