package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/coocood/freecache"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Alazca/official-coach/internal/coach/scalars"
	"github.com/Alazca/official-coach/internal/coach/targets"
	"github.com/Alazca/official-coach/internal/coach/uservector"
	"github.com/Alazca/official-coach/internal/telemetry/tracing"
)

const weakDimensionCount = 3

// recommendationIDSpace namespaces the deterministic recommendation ids,
// so a re-derived set carries the same ids as the served one.
var recommendationIDSpace = uuid.MustParse("7a7a2f1e-6b7c-4ad1-9e64-3f05c2f7c001")

type dimensionMeta struct {
	goalType     targets.GoalType
	title        string
	description  string
	durationDays int
}

// trackedDimensions are the metric dimensions the engine watches, with the
// goal each weak one should map to.
var trackedDimensions = map[string]dimensionMeta{
	scalars.DimCombinedStrength: {
		goalType:     targets.GoalStrength,
		title:        "Build foundational strength",
		description:  "Your relative strength is lagging. A focused strength block with progressive overload on the main lifts will move it fastest.",
		durationDays: 90,
	},
	scalars.DimWeeklyVolume: {
		goalType:     targets.GoalEndurance,
		title:        "Raise your weekly training volume",
		description:  "Your weekly training volume is low. Gradually adding sets and sessions builds work capacity without overreaching.",
		durationDays: 60,
	},
	scalars.DimTrainingDays: {
		goalType:     targets.GoalDefault,
		title:        "Train more often",
		description:  "You are training on few days. Spreading the same work across more days improves recovery and habit strength.",
		durationDays: 30,
	},
	scalars.DimIntensityAvg: {
		goalType:     targets.GoalPerformance,
		title:        "Lift heavier on average",
		description:  "Your average intensity is low. Working closer to your maxes teaches your body to express the strength you build.",
		durationDays: 60,
	},
	scalars.DimConsistencyPct: {
		goalType:     targets.GoalPerformance,
		title:        "Even out your training week",
		description:  "Your daily volumes swing a lot. A steadier split makes progress more predictable and easier to recover from.",
		durationDays: 45,
	},
}

// improvement per severity, applied on top of the current value and capped
var severityImprovement = map[Severity]float64{
	SeverityCritical:    0.30,
	SeveritySignificant: 0.25,
	SeverityModerate:    0.20,
	SeverityMinor:       0.15,
}

type vectorSource interface {
	Get(ctx context.Context, userID int, profile string) (*uservector.UserVector, error)
}

type goalInitializer interface {
	Initialize(ctx context.Context, params targets.InitializeParams) (*targets.Target, error)
}

// Engine ranks a user's weakest dimensions and proposes goals for them.
// Generated sets are cached briefly so creating a goal from a served
// recommendation re-derives the exact same list.
type Engine struct {
	vectors   vectorSource
	generator goalInitializer
	cache     *freecache.Cache
	cacheTTL  time.Duration

	now func() time.Time
}

func NewEngine(vectors vectorSource, generator goalInitializer, cacheSizeBytes int, cacheTTL time.Duration) *Engine {
	return &Engine{
		vectors:   vectors,
		generator: generator,
		cache:     freecache.NewCache(cacheSizeBytes),
		cacheTTL:  cacheTTL,
		now:       time.Now,
	}
}

func cacheKey(userID int, profile string) []byte {
	return []byte(fmt.Sprintf("rec::%d::%s", userID, profile))
}

// Generate returns up to three recommendations for the user's weakest
// tracked dimensions, weakest first.
func (e *Engine) Generate(ctx context.Context, userID int, profile string) (_ []Recommendation, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "recommend.generate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	if profile == "" {
		profile = uservector.DefaultProfile
	}

	if cached, err := e.cache.Get(cacheKey(userID, profile)); err == nil {
		var recommendations []Recommendation
		if err := json.Unmarshal(cached, &recommendations); err == nil {
			log.Tracef("recommendations for user %d served from cache", userID)
			return recommendations, nil
		}
		log.Errorf("failed to unmarshal cached recommendations for user %d: %s", userID, err)
	}

	uv, err := e.vectors.Get(ctx, userID, profile)
	if err != nil {
		return nil, err
	}

	recommendations := deriveRecommendations(userID, uv)

	if setJson, err := json.Marshal(recommendations); err == nil {
		if err := e.cache.Set(cacheKey(userID, profile), setJson, int(e.cacheTTL.Seconds())); err != nil {
			log.Errorf("failed to cache recommendations for user %d: %s", userID, err)
		}
	}

	return recommendations, nil
}

func deriveRecommendations(userID int, uv *uservector.UserVector) []Recommendation {
	type dimValue struct {
		dim   string
		value float64
	}

	var ranked []dimValue
	for dim := range trackedDimensions {
		if value, ok := uv.Vector.Value(dim); ok {
			ranked = append(ranked, dimValue{dim: dim, value: value})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].value == ranked[j].value {
			return ranked[i].dim < ranked[j].dim
		}
		return ranked[i].value < ranked[j].value
	})

	if len(ranked) > weakDimensionCount {
		ranked = ranked[:weakDimensionCount]
	}

	recommendations := make([]Recommendation, 0, len(ranked))
	for i, dv := range ranked {
		meta := trackedDimensions[dv.dim]
		severity := severityFor(dv.value)
		targetValue := math.Min(1, dv.value+severityImprovement[severity])

		recommendations = append(recommendations, Recommendation{
			ID:           uuid.NewSHA1(recommendationIDSpace, []byte(fmt.Sprintf("%d|%s", userID, dv.dim))),
			Dimension:    dv.dim,
			CurrentValue: dv.value,
			Severity:     severity,
			Priority:     i + 1,
			GoalType:     meta.goalType,
			Title:        meta.title,
			Description:  meta.description,
			CustomDimensions: map[string]float64{
				dv.dim: targetValue,
			},
			DurationDays: meta.durationDays,
		})
	}
	return recommendations
}

// CreateGoal re-derives the recommendation set, locates the requested
// entry and initializes a goal from it.
func (e *Engine) CreateGoal(
	ctx context.Context,
	userID int,
	profile string,
	recommendationID uuid.UUID,
	customDurationDays int,
) (_ *targets.Target, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "recommend.createGoal")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("user.id", userID),
		attribute.String("recommendation.id", recommendationID.String()),
	)

	recommendations, err := e.Generate(ctx, userID, profile)
	if err != nil {
		return nil, err
	}

	for _, rec := range recommendations {
		if rec.ID != recommendationID {
			continue
		}

		durationDays := rec.DurationDays
		if customDurationDays > 0 {
			durationDays = customDurationDays
		}

		return e.generator.Initialize(ctx, targets.InitializeParams{
			UserID:           userID,
			GoalType:         rec.GoalType,
			Profile:          profile,
			TargetDate:       e.now().AddDate(0, 0, durationDays),
			CustomDimensions: rec.CustomDimensions,
			Description:      rec.Title,
		})
	}

	return nil, fmt.Errorf("%w: %s", ErrRecommendationNotFound, recommendationID)
}
