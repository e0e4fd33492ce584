package targets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Alazca/official-coach/internal/telemetry/tracing"
	"github.com/Alazca/official-coach/internal/vector"
)

// Repo persists targets with their milestone schedule as a jsonb column
// and the vectors as parallel arrays.
type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, target *Target) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.targets.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("target.id", target.ID.String()))

	milestonesJson, err := json.Marshal(target.Milestones)
	if err != nil {
		return fmt.Errorf("marshal milestones: %w", err)
	}

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO target_vectors
				(id, user_id, goal_type, status, dimensions, vals,
				 baseline_dims, baseline_vals, milestones, description, profile,
				 start_date, target_date, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);`,
		target.ID, target.UserID, target.GoalType, target.Status,
		target.Vector.Dimensions, target.Vector.Values,
		target.Baseline.Dimensions, target.Baseline.Values,
		milestonesJson, target.Description, target.Profile,
		target.StartDate, target.TargetDate, target.CreatedAt, target.UpdatedAt,
	)
	return err
}

func (r *Repo) Get(ctx context.Context, id uuid.UUID) (_ *Target, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.targets.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("target.id", id.String()))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, goal_type, status, dimensions, vals,
				baseline_dims, baseline_vals, milestones, description, profile,
				start_date, target_date, created_at, updated_at
			FROM target_vectors WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	targets, err := r.rows2targets(rows)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, ErrTargetNotFound
	}
	return &targets[0], nil
}

func (r *Repo) Update(ctx context.Context, target *Target) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.targets.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("target.id", target.ID.String()))

	milestonesJson, err := json.Marshal(target.Milestones)
	if err != nil {
		return fmt.Errorf("marshal milestones: %w", err)
	}

	tag, err := r.db.Exec(
		ctx,
		`UPDATE target_vectors SET
				status = $1, dimensions = $2, vals = $3,
				baseline_dims = $4, baseline_vals = $5, milestones = $6,
				description = $7, target_date = $8, updated_at = $9
			WHERE id = $10;`,
		target.Status, target.Vector.Dimensions, target.Vector.Values,
		target.Baseline.Dimensions, target.Baseline.Values, milestonesJson,
		target.Description, target.TargetDate, target.UpdatedAt, target.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTargetNotFound
	}
	return nil
}

func (r *Repo) ActiveForUser(ctx context.Context, userID int) (_ []Target, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.targets.activeForUser")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, goal_type, status, dimensions, vals,
				baseline_dims, baseline_vals, milestones, description, profile,
				start_date, target_date, created_at, updated_at
			FROM target_vectors
			WHERE user_id = $1 AND status = $2
			ORDER BY created_at;`,
		userID, StatusActive,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.rows2targets(rows)
}

func (r *Repo) rows2targets(rows pgx.Rows) ([]Target, error) {
	var targets []Target
	for rows.Next() {
		var (
			t              Target
			dims           []string
			vals           []float64
			baselineDims   []string
			baselineVals   []float64
			milestonesJson []byte
		)
		if err := rows.Scan(
			&t.ID, &t.UserID, &t.GoalType, &t.Status, &dims, &vals,
			&baselineDims, &baselineVals, &milestonesJson, &t.Description, &t.Profile,
			&t.StartDate, &t.TargetDate, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}

		var err error
		if t.Vector, err = vector.New(dims, vals); err != nil {
			return nil, fmt.Errorf("corrupt target vector %s: %w", t.ID, err)
		}
		if t.Baseline, err = vector.New(baselineDims, baselineVals); err != nil {
			return nil, fmt.Errorf("corrupt baseline vector %s: %w", t.ID, err)
		}
		if err = json.Unmarshal(milestonesJson, &t.Milestones); err != nil {
			return nil, fmt.Errorf("unmarshal milestones %s: %w", t.ID, err)
		}

		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return targets, nil
}
