package uservector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Alazca/official-coach/internal/coach/scalars"
	"github.com/Alazca/official-coach/internal/telemetry/tracing"
	"github.com/Alazca/official-coach/internal/vector"
)

// Repo persists user vectors as parallel dimension and value arrays.
type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Upsert(ctx context.Context, uv UserVector) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.uservector.upsert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("user.id", uv.UserID),
		attribute.String("profile", uv.Profile),
	)

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO user_vectors (user_id, profile, dimensions, vals, computed_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id, profile) DO UPDATE
			SET dimensions = EXCLUDED.dimensions,
				vals = EXCLUDED.vals,
				computed_at = EXCLUDED.computed_at;`,
		uv.UserID, uv.Profile, uv.Vector.Dimensions, uv.Vector.Values, uv.CreatedAt,
	)
	return err
}

func (r *Repo) Get(ctx context.Context, userID int, profile string) (_ *UserVector, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.uservector.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("user.id", userID),
		attribute.String("profile", profile),
	)

	var (
		dims      []string
		vals      []float64
		createdAt time.Time
	)
	err = r.db.QueryRow(
		ctx,
		`SELECT dimensions, vals, computed_at
			FROM user_vectors
			WHERE user_id = $1 AND profile = $2;`,
		userID, profile,
	).Scan(&dims, &vals, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserVectorNotFound
	}
	if err != nil {
		return nil, err
	}

	vec, err := vector.New(dims, vals)
	if err != nil {
		return nil, fmt.Errorf("corrupt vector row for user %d: %w", userID, err)
	}

	uv := &UserVector{
		UserID:    userID,
		Profile:   profile,
		Vector:    vec,
		CreatedAt: createdAt,
	}
	if finalScalar, ok := vec.Value(scalars.DimFinalScalar); ok {
		uv.FinalScalar = finalScalar
		uv.Tier = scalars.TierFromScalar(finalScalar)
	}
	return uv, nil
}

func (r *Repo) SaveSnapshot(ctx context.Context, snapshot Snapshot) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.uservector.saveSnapshot")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("user.id", snapshot.UserID),
		attribute.String("profile", snapshot.Profile),
	)

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO user_vector_history (user_id, profile, dimensions, vals, snapshot_date, computed_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (user_id, profile, snapshot_date) DO UPDATE
			SET dimensions = EXCLUDED.dimensions,
				vals = EXCLUDED.vals,
				computed_at = EXCLUDED.computed_at;`,
		snapshot.UserID, snapshot.Profile,
		snapshot.Vector.Dimensions, snapshot.Vector.Values,
		snapshot.SnapshotDate, snapshot.ComputedAt,
	)
	return err
}

func (r *Repo) SnapshotsInRange(
	ctx context.Context,
	userID int,
	profile string,
	from, to time.Time,
) (_ []Snapshot, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.uservector.snapshotsInRange")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("user.id", userID),
		attribute.String("profile", profile),
	)

	rows, err := r.db.Query(
		ctx,
		`SELECT dimensions, vals, snapshot_date, computed_at
			FROM user_vector_history
			WHERE user_id = $1 AND profile = $2 AND snapshot_date BETWEEN $3 AND $4
			ORDER BY snapshot_date;`,
		userID, profile, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var (
			dims []string
			vals []float64
			s    Snapshot
		)
		if err := rows.Scan(&dims, &vals, &s.SnapshotDate, &s.ComputedAt); err != nil {
			return nil, err
		}
		vec, err := vector.New(dims, vals)
		if err != nil {
			return nil, fmt.Errorf("corrupt snapshot row for user %d: %w", userID, err)
		}
		s.UserID = userID
		s.Profile = profile
		s.Vector = vec
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return snapshots, nil
}
