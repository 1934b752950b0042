package report

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool the Postgres sink needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

const schemaStmt = `
CREATE TABLE IF NOT EXISTS test_attempts (
	attempt_id         TEXT PRIMARY KEY,
	timestamp          TIMESTAMPTZ NOT NULL,
	student_name       TEXT NOT NULL,
	student_email      TEXT NOT NULL,
	student_phone      TEXT NOT NULL DEFAULT '',
	total_score        INTEGER NOT NULL,
	max_score          INTEGER NOT NULL,
	percentage         INTEGER NOT NULL,
	duration_seconds   INTEGER NOT NULL,
	cefr_level         TEXT NOT NULL,
	study_plan_summary TEXT NOT NULL,
	study_plan_link    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS question_responses (
	attempt_id     TEXT NOT NULL REFERENCES test_attempts (attempt_id),
	question_id    TEXT NOT NULL,
	grammar_topic  TEXT NOT NULL,
	is_correct     BOOLEAN NOT NULL,
	student_answer TEXT NOT NULL,
	time_spent_ms  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS unsubscribes (
	email     TEXT PRIMARY KEY,
	timestamp TIMESTAMPTZ NOT NULL
);
`

// PostgresSink stores attempts, responses and unsubscribes in Postgres tables
// mirroring the spreadsheet layout.
type PostgresSink struct {
	db DB
}

func NewPostgresSink(db DB) *PostgresSink {
	return &PostgresSink{db: db}
}

// EnsureSchema creates the tables when they are missing.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaStmt); err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresSink) Append(ctx context.Context, a AttemptRow, rs []ResponseRow) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = stderrors.Join(err, tx.Rollback(ctx))
		}
	}()

	const insAttemptStmt = `INSERT INTO test_attempts (
		attempt_id, timestamp, student_name, student_email, student_phone,
		total_score, max_score, percentage, duration_seconds, cefr_level,
		study_plan_summary, study_plan_link
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`

	_, err = tx.Exec(ctx, insAttemptStmt,
		a.AttemptID, a.Timestamp, a.StudentName, a.StudentEmail, a.StudentPhone,
		a.TotalScore, a.MaxScore, a.Percentage, a.DurationSeconds, a.CEFRLevel,
		a.StudyPlanSummary, a.StudyPlanLink,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert attempt: %w", err)
	}

	if len(rs) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"question_responses"},
			[]string{"attempt_id", "question_id", "grammar_topic", "is_correct", "student_answer", "time_spent_ms"},
			pgx.CopyFromSlice(len(rs), func(i int) ([]any, error) {
				r := rs[i]
				return []any{r.AttemptID, r.QuestionID, r.GrammarTopic, r.IsCorrect, r.StudentAnswer, r.TimeSpentMS}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("postgres: copy responses: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}

	return nil
}

func (s *PostgresSink) Unsubscribe(ctx context.Context, email string) error {
	const stmt = `INSERT INTO unsubscribes (email, timestamp) VALUES ($1, $2) ON CONFLICT (email) DO NOTHING;`

	if _, err := s.db.Exec(ctx, stmt, foldEmail(email), time.Now()); err != nil {
		return fmt.Errorf("postgres: insert unsubscribe: %w", err)
	}
	return nil
}

func (s *PostgresSink) IsUnsubscribed(ctx context.Context, email string) (bool, error) {
	const stmt = `SELECT EXISTS (SELECT 1 FROM unsubscribes WHERE email = $1);`

	var ok bool
	if err := s.db.QueryRow(ctx, stmt, foldEmail(email)).Scan(&ok); err != nil {
		return false, fmt.Errorf("postgres: query unsubscribe: %w", err)
	}
	return ok, nil
}
