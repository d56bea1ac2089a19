// Package postgres provides pgx-backed persistence for planner state and the
// submission outbox.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/runplan/internal/domain"
	"example.com/runplan/internal/outbox"
)

// Repository persists profiles, activities and completions in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
    owner_id     TEXT PRIMARY KEY,
    anchor_date  DATE,
    week_index   INT NOT NULL DEFAULT 0,
    plan_length  INT NOT NULL DEFAULT 2,
    plan         JSONB,
    mileage      JSONB NOT NULL DEFAULT '[]',
    paces        JSONB NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL,
    updated_at   TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS activities (
    activity_id  BIGSERIAL PRIMARY KEY,
    owner_id     TEXT NOT NULL,
    kind         TEXT NOT NULL,
    name         TEXT NOT NULL DEFAULT '',
    custom_name  TEXT NOT NULL DEFAULT '',
    info         TEXT NOT NULL DEFAULT '',
    distance     DOUBLE PRECISION NOT NULL DEFAULT 0,
    difficulty   INT NOT NULL DEFAULT 2,
    last_done    DATE,
    progressive  BOOLEAN NOT NULL DEFAULT FALSE,
    spec         JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS activities_owner_idx ON activities (owner_id, last_done);
CREATE TABLE IF NOT EXISTS completions (
    completion_id TEXT PRIMARY KEY,
    owner_id      TEXT NOT NULL,
    date_done     DATE NOT NULL,
    name          TEXT NOT NULL,
    distance      DOUBLE PRECISION NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS completions_owner_date_idx ON completions (owner_id, date_done);
CREATE TABLE IF NOT EXISTS submissions (
    event_id   TEXT PRIMARY KEY,
    owner_id   TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS outbox (
    event_id      BIGSERIAL PRIMARY KEY,
    owner_id      TEXT NOT NULL,
    event_type    TEXT NOT NULL,
    topic         TEXT NOT NULL,
    partition_key TEXT NOT NULL,
    payload       JSONB NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    claimed_at    TIMESTAMPTZ,
    published_at  TIMESTAMPTZ
);`

// EnsureSchema creates the planner tables when they do not exist yet.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schema)
	return err
}

// activitySpec is the JSONB shape of the variant payload column.
type activitySpec struct {
	PacedRun   *domain.PacedRunSpec   `json:"paced_run,omitempty"`
	Intervals  *domain.IntervalsSpec  `json:"intervals,omitempty"`
	TimeTrial  *domain.TimeTrialSpec  `json:"time_trial,omitempty"`
	CrossTrain *domain.CrossTrainSpec `json:"cross_train,omitempty"`
}

// GetProfile returns nil, nil when the owner has no profile row.
func (r *Repository) GetProfile(ctx context.Context, ownerID string) (*domain.Profile, error) {
	const query = `SELECT owner_id, anchor_date, week_index, plan_length, plan, mileage, paces, created_at, updated_at
        FROM profiles WHERE owner_id=$1`

	row := r.pool.QueryRow(ctx, query, ownerID)
	profile, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// CreateProfile inserts a fresh profile row.
func (r *Repository) CreateProfile(ctx context.Context, profile *domain.Profile) error {
	const stmt = `INSERT INTO profiles (owner_id, anchor_date, week_index, plan_length, plan, mileage, paces, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        ON CONFLICT (owner_id) DO NOTHING`
	args, err := profileArgs(profile)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, stmt, args...)
	return err
}

// SaveProfile overwrites the profile row. The row is guaranteed to exist by
// the service's fetch-or-create contract.
func (r *Repository) SaveProfile(ctx context.Context, profile *domain.Profile) error {
	return execSaveProfile(ctx, r.pool, profile)
}

// GetActivity returns nil, nil when absent or foreign-owned.
func (r *Repository) GetActivity(ctx context.Context, ownerID string, id int64) (*domain.Activity, error) {
	const query = `SELECT activity_id, owner_id, kind, name, custom_name, info, distance, difficulty, last_done, progressive, spec
        FROM activities WHERE owner_id=$1 AND activity_id=$2`

	row := r.pool.QueryRow(ctx, query, ownerID, id)
	activity, err := scanActivity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return activity, nil
}

// CreateActivity inserts the activity and fills in its assigned id.
func (r *Repository) CreateActivity(ctx context.Context, activity *domain.Activity) error {
	const stmt = `INSERT INTO activities (owner_id, kind, name, custom_name, info, distance, difficulty, last_done, progressive, spec)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING activity_id`

	spec, err := marshalSpec(activity)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx, stmt,
		activity.OwnerID,
		string(activity.Kind),
		activity.Name,
		activity.CustomName,
		activity.Info,
		activity.Distance,
		int(activity.Difficulty),
		nullIfZeroDate(activity.LastDone),
		activity.Progressive,
		spec,
	).Scan(&activity.ID)
}

// ListActivities returns the owner's activities, oldest last-done first.
func (r *Repository) ListActivities(ctx context.Context, ownerID string) ([]domain.Activity, error) {
	const query = `SELECT activity_id, owner_id, kind, name, custom_name, info, distance, difficulty, last_done, progressive, spec
        FROM activities WHERE owner_id=$1
        ORDER BY last_done ASC NULLS FIRST, activity_id ASC`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Activity, 0)
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *activity)
	}
	return out, rows.Err()
}

// SaveActivity overwrites a stored activity.
func (r *Repository) SaveActivity(ctx context.Context, activity *domain.Activity) error {
	return execSaveActivity(ctx, r.pool, activity)
}

// DeleteActivity removes the owner's activity; completion history remains.
func (r *Repository) DeleteActivity(ctx context.Context, ownerID string, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM activities WHERE owner_id=$1 AND activity_id=$2`, ownerID, id)
	return err
}

// ListCompletions returns completion records in an inclusive date range.
func (r *Repository) ListCompletions(ctx context.Context, ownerID string, from, to time.Time) ([]domain.CompletedAct, error) {
	const query = `SELECT completion_id, owner_id, date_done, name, distance
        FROM completions WHERE owner_id=$1 AND date_done BETWEEN $2 AND $3
        ORDER BY date_done ASC`

	rows, err := r.pool.Query(ctx, query, ownerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.CompletedAct, 0)
	for rows.Next() {
		var c domain.CompletedAct
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Date, &c.Name, &c.Distance); err != nil {
			return nil, err
		}
		c.Date = domain.DateOnly(c.Date)
		out = append(out, c)
	}
	return out, rows.Err()
}

// ApplySubmission persists one completion event in a single transaction:
// idempotency ledger, completion record, activity and profile updates, the
// retention reap (strictly after the mileage-bearing profile write) and the
// outbox rows. A replayed event id commits nothing.
func (r *Repository) ApplySubmission(ctx context.Context, sub domain.Submission) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	tag, err := tx.Exec(ctx,
		`INSERT INTO submissions (event_id, owner_id) VALUES ($1,$2) ON CONFLICT (event_id) DO NOTHING`,
		sub.EventID, sub.OwnerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Idempotent replay.
		return tx.Commit(ctx)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO completions (completion_id, owner_id, date_done, name, distance) VALUES ($1,$2,$3,$4,$5)`,
		sub.Completion.ID, sub.Completion.OwnerID, sub.Completion.Date, sub.Completion.Name, sub.Completion.Distance)
	if err != nil {
		return err
	}

	if sub.Activity != nil {
		if err = execSaveActivity(ctx, tx, sub.Activity); err != nil {
			return err
		}
	}
	if sub.Profile != nil {
		if err = execSaveProfile(ctx, tx, sub.Profile); err != nil {
			return err
		}
	}

	if !sub.PruneBefore.IsZero() {
		_, err = tx.Exec(ctx,
			`DELETE FROM completions WHERE owner_id=$1 AND date_done < $2`,
			sub.OwnerID, sub.PruneBefore)
		if err != nil {
			return err
		}
	}

	for _, event := range sub.Events {
		if err = insertOutbox(ctx, tx, sub.OwnerID, event); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func insertOutbox(ctx context.Context, tx pgx.Tx, ownerID string, event domain.Event) error {
	topic, ok := outbox.TopicFor(event.Type)
	if !ok {
		return fmt.Errorf("unknown event type: %s", event.Type)
	}
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}
	const stmt = `INSERT INTO outbox (owner_id, event_type, topic, partition_key, payload)
        VALUES ($1,$2,$3,$4,$5)`
	_, err = tx.Exec(ctx, stmt, ownerID, event.Type, topic, ownerID, payload)
	return err
}

func execSaveActivity(ctx context.Context, db dbExec, activity *domain.Activity) error {
	const stmt = `UPDATE activities
        SET name=$3, custom_name=$4, info=$5, distance=$6, difficulty=$7, last_done=$8, progressive=$9, spec=$10
        WHERE owner_id=$1 AND activity_id=$2`

	spec, err := marshalSpec(activity)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, stmt,
		activity.OwnerID,
		activity.ID,
		activity.Name,
		activity.CustomName,
		activity.Info,
		activity.Distance,
		int(activity.Difficulty),
		nullIfZeroDate(activity.LastDone),
		activity.Progressive,
		spec,
	)
	return err
}

func execSaveProfile(ctx context.Context, db dbExec, profile *domain.Profile) error {
	const stmt = `UPDATE profiles
        SET anchor_date=$2, week_index=$3, plan_length=$4, plan=$5, mileage=$6, paces=$7, updated_at=$8
        WHERE owner_id=$1`

	args, err := profileArgs(profile)
	if err != nil {
		return err
	}
	// profileArgs orders owner_id first, matching both insert and update.
	_, err = db.Exec(ctx, stmt, args[0], args[1], args[2], args[3], args[4], args[5], args[6], args[8])
	return err
}

// dbExec is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbExec interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func profileArgs(profile *domain.Profile) ([]any, error) {
	var plan any
	if profile.Plan != nil {
		raw, err := json.Marshal(struct {
			Weeks int               `json:"weeks"`
			Days  map[string]string `json:"days"`
		}{profile.Plan.Weeks, profile.Plan.DayMap()})
		if err != nil {
			return nil, err
		}
		plan = raw
	}
	mileage, err := json.Marshal(profile.Mileage)
	if err != nil {
		return nil, err
	}
	paces, err := json.Marshal(profile.Paces)
	if err != nil {
		return nil, err
	}
	return []any{
		profile.OwnerID,
		nullIfZeroDate(profile.AnchorDate),
		profile.WeekIndex,
		profile.PlanLength,
		plan,
		mileage,
		paces,
		profile.CreatedAt,
		profile.UpdatedAt,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*domain.Profile, error) {
	var (
		profile    domain.Profile
		anchorDate *time.Time
		planRaw    []byte
		mileageRaw []byte
		pacesRaw   []byte
	)
	if err := row.Scan(&profile.OwnerID, &anchorDate, &profile.WeekIndex, &profile.PlanLength,
		&planRaw, &mileageRaw, &pacesRaw, &profile.CreatedAt, &profile.UpdatedAt); err != nil {
		return nil, err
	}
	if anchorDate != nil {
		profile.AnchorDate = domain.DateOnly(*anchorDate)
	}
	if len(planRaw) > 0 {
		var stored struct {
			Weeks int               `json:"weeks"`
			Days  map[string]string `json:"days"`
		}
		if err := json.Unmarshal(planRaw, &stored); err != nil {
			return nil, err
		}
		plan, err := domain.ParsePlan(stored.Weeks, stored.Days)
		if err != nil {
			return nil, err
		}
		profile.Plan = plan
	}
	if err := json.Unmarshal(mileageRaw, &profile.Mileage); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(pacesRaw, &profile.Paces); err != nil {
		return nil, err
	}
	return &profile, nil
}

func scanActivity(row rowScanner) (*domain.Activity, error) {
	var (
		activity   domain.Activity
		kind       string
		difficulty int
		lastDone   *time.Time
		specRaw    []byte
	)
	if err := row.Scan(&activity.ID, &activity.OwnerID, &kind, &activity.Name, &activity.CustomName,
		&activity.Info, &activity.Distance, &difficulty, &lastDone, &activity.Progressive, &specRaw); err != nil {
		return nil, err
	}
	activity.Kind = domain.Kind(kind)
	activity.Difficulty = domain.Difficulty(difficulty)
	if lastDone != nil {
		activity.LastDone = domain.DateOnly(*lastDone)
	}
	var spec activitySpec
	if err := json.Unmarshal(specRaw, &spec); err != nil {
		return nil, err
	}
	activity.PacedRun = spec.PacedRun
	activity.Intervals = spec.Intervals
	activity.TimeTrial = spec.TimeTrial
	activity.CrossTrain = spec.CrossTrain
	return &activity, nil
}

func marshalSpec(activity *domain.Activity) ([]byte, error) {
	return json.Marshal(activitySpec{
		PacedRun:   activity.PacedRun,
		Intervals:  activity.Intervals,
		TimeTrial:  activity.TimeTrial,
		CrossTrain: activity.CrossTrain,
	})
}

func nullIfZeroDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
