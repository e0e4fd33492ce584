package workouts

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Alazca/official-coach/internal/telemetry/tracing"
)

// Repo reads raw training metrics from the workouts tables. Absence of
// workout data yields zero metrics, never an error.
type Repo struct {
	db *pgxpool.Pool

	now func() time.Time
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db:  db,
		now: time.Now,
	}
}

func (r *Repo) StrengthMetrics(ctx context.Context, userID int, days int) (_ *StrengthMetrics, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.strengthMetrics")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	to := r.now()
	from := to.AddDate(0, 0, -days)

	combined, err := r.combinedLiftStrength(ctx, userID)
	if err != nil {
		return nil, err
	}

	var totalVolume float64
	if err := r.db.QueryRow(
		ctx,
		`SELECT COALESCE(SUM(ws.kilos * ws.reps), 0)
			FROM workout_sets ws
			JOIN workouts w ON ws.workout_id = w.id
			WHERE w.user_id = $1 AND w.performed_at BETWEEN $2 AND $3;`,
		userID, from, to,
	).Scan(&totalVolume); err != nil {
		return nil, err
	}

	percentile, err := r.volumePercentile(ctx, totalVolume, from, to)
	if err != nil {
		return nil, err
	}

	return &StrengthMetrics{
		CombinedStrength: combined,
		TotalVolume:      totalVolume,
		VolumePercentile: percentile,
	}, nil
}

// combinedLiftStrength averages latest 1RM / bodyweight ratios across the
// lifts the user has max attempts for. Zero when bodyweight or max data is
// missing.
func (r *Repo) combinedLiftStrength(ctx context.Context, userID int) (float64, error) {
	var bodyweight float64
	if err := r.db.QueryRow(
		ctx,
		`SELECT COALESCE(weight, 0) FROM users WHERE id = $1;`,
		userID,
	).Scan(&bodyweight); err != nil {
		return 0, err
	}
	if bodyweight <= 0 {
		return 0, nil
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT MAX(ws.kilos)
			FROM workout_sets ws
			JOIN workouts w ON ws.workout_id = w.id
			WHERE w.user_id = $1 AND ws.is_one_rm
			GROUP BY ws.exercise;`,
		userID,
	)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var ratios []float64
	for rows.Next() {
		var max float64
		if err := rows.Scan(&max); err != nil {
			return 0, err
		}
		if max > 0 {
			ratios = append(ratios, max/bodyweight)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	if len(ratios) == 0 {
		return 0, nil
	}

	var sum float64
	for _, ratio := range ratios {
		sum += ratio
	}
	return sum / float64(len(ratios)), nil
}

func (r *Repo) volumePercentile(ctx context.Context, userVolume float64, from, to time.Time) (float64, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT COALESCE(SUM(ws.kilos * ws.reps), 0) AS vol
			FROM workout_sets ws
			JOIN workouts w ON ws.workout_id = w.id
			WHERE w.performed_at BETWEEN $1 AND $2
			GROUP BY w.user_id;`,
		from, to,
	)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var volumes []float64
	for rows.Next() {
		var vol float64
		if err := rows.Scan(&vol); err != nil {
			return 0, err
		}
		volumes = append(volumes, vol)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	if len(volumes) == 0 {
		return 0, nil
	}

	sort.Float64s(volumes)
	rank := sort.SearchFloat64s(volumes, userVolume)
	if rank >= len(volumes) || volumes[rank] != userVolume {
		return 0, nil
	}
	return float64(rank) / float64(len(volumes)) * 100, nil
}

func (r *Repo) ConditioningMetrics(ctx context.Context, userID int, days int) (_ *ConditioningMetrics, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.conditioningMetrics")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	to := r.now()
	from := to.AddDate(0, 0, -days)
	prevFrom := from.AddDate(0, 0, -days)

	rows, err := r.db.Query(
		ctx,
		`SELECT
				COALESCE(SUM(ws.kilos * ws.reps), 0) AS day_vol,
				COALESCE(SUM(ws.reps), 0) AS day_reps
			FROM workout_sets ws
			JOIN workouts w ON ws.workout_id = w.id
			WHERE w.user_id = $1 AND w.performed_at BETWEEN $2 AND $3
			GROUP BY date_trunc('day', w.performed_at);`,
		userID, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		dailyVolumes []float64
		totalReps    int
	)
	for rows.Next() {
		var dayVol float64
		var dayReps int
		if err := rows.Scan(&dayVol, &dayReps); err != nil {
			return nil, err
		}
		dailyVolumes = append(dailyVolumes, dayVol)
		totalReps += dayReps
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var weeklyVolume float64
	for _, vol := range dailyVolumes {
		weeklyVolume += vol
	}

	intensityAvg := 0.0
	if totalReps > 0 {
		intensityAvg = weeklyVolume / float64(totalReps)
	}

	var prevVolume float64
	if err := r.db.QueryRow(
		ctx,
		`SELECT COALESCE(SUM(ws.kilos * ws.reps), 0)
			FROM workout_sets ws
			JOIN workouts w ON ws.workout_id = w.id
			WHERE w.user_id = $1 AND w.performed_at BETWEEN $2 AND $3;`,
		userID, prevFrom, from,
	).Scan(&prevVolume); err != nil {
		return nil, err
	}
	if prevVolume <= 0 {
		prevVolume = 1
	}

	return &ConditioningMetrics{
		WeeklyVolume:    weeklyVolume,
		TrainingDays:    len(dailyVolumes),
		VolumeChangePct: (weeklyVolume - prevVolume) / prevVolume * 100,
		IntensityAvg:    intensityAvg,
		ConsistencyPct:  volumeDeviationPct(dailyVolumes),
	}, nil
}

// volumeDeviationPct is the population std dev of daily volumes expressed
// as a percent of their mean.
func volumeDeviationPct(dailyVolumes []float64) float64 {
	if len(dailyVolumes) == 0 {
		return 0
	}

	var sum float64
	for _, vol := range dailyVolumes {
		sum += vol
	}
	mean := sum / float64(len(dailyVolumes))
	if mean == 0 {
		return 0
	}

	var sqDiffSum float64
	for _, vol := range dailyVolumes {
		diff := vol - mean
		sqDiffSum += diff * diff
	}
	stdDev := math.Sqrt(sqDiffSum / float64(len(dailyVolumes)))

	return stdDev / mean * 100
}
