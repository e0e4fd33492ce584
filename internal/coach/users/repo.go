package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Alazca/official-coach/internal/telemetry/tracing"
)

var ErrUserNotFound = errors.New("user not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Get(ctx context.Context, id int) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", id))

	var user User
	err = r.db.QueryRow(
		ctx,
		`SELECT id, username, weight, activity_level, created_at FROM users WHERE id = $1;`,
		id,
	).Scan(&user.ID, &user.Username, &user.Weight, &user.ActivityLevel, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *Repo) SetActivityLevel(ctx context.Context, id int, level ActivityLevel) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.setActivityLevel")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("user.id", id),
		attribute.String("activity.level", string(level)),
	)

	tag, err := r.db.Exec(
		ctx,
		`UPDATE users SET activity_level = $1 WHERE id = $2;`,
		level, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}
