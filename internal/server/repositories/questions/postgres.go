package questions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/common"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/dbx"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, q *models.Question) (*models.Question, error) {
	query := `INSERT INTO questions (ballot_id, prompt) VALUES ($1, $2) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, q.BallotID, q.Prompt).Scan(&q.ID); err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return q, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Question, error) {
	q := &models.Question{}
	err := r.db.QueryRowContext(ctx, `SELECT id, ballot_id, prompt FROM questions WHERE id = $1`, id).
		Scan(&q.ID, &q.BallotID, &q.Prompt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || dbx.IsInvalidText(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return q, nil
}

// ListByBallot reads questions and choices in one round trip. Questions
// without choices are kept.
func (r *PostgresRepository) ListByBallot(ctx context.Context, ballotID string) ([]models.Question, error) {
	query := `
		SELECT q.id, q.prompt, c.id, c.label, c.votes
		FROM questions q
		LEFT JOIN choices c ON c.question_id = q.id
		WHERE q.ballot_id = $1
		ORDER BY q.id, c.id
	`
	rows, err := r.db.QueryContext(ctx, query, ballotID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Question
	for rows.Next() {
		var (
			qID, prompt string
			cID, label  sql.NullString
			votes       sql.NullInt64
		)
		if err := rows.Scan(&qID, &prompt, &cID, &label, &votes); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if len(out) == 0 || out[len(out)-1].ID != qID {
			out = append(out, models.Question{ID: qID, BallotID: ballotID, Prompt: prompt})
		}
		if cID.Valid {
			last := &out[len(out)-1]
			last.Choices = append(last.Choices, models.Choice{
				ID: cID.String, QuestionID: qID, Label: label.String, Votes: votes.Int64,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) CreateChoice(ctx context.Context, c *models.Choice) (*models.Choice, error) {
	query := `INSERT INTO choices (question_id, label) VALUES ($1, $2) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, c.QuestionID, c.Label).Scan(&c.ID); err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) GetChoice(ctx context.Context, id string) (*models.Choice, error) {
	c := &models.Choice{}
	err := r.db.QueryRowContext(ctx, `SELECT id, question_id, label, votes FROM choices WHERE id = $1`, id).
		Scan(&c.ID, &c.QuestionID, &c.Label, &c.Votes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || dbx.IsInvalidText(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) ListChoices(ctx context.Context, questionID string) ([]models.Choice, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, question_id, label, votes FROM choices WHERE question_id = $1 ORDER BY id`, questionID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Choice
	for rows.Next() {
		var c models.Choice
		if err := rows.Scan(&c.ID, &c.QuestionID, &c.Label, &c.Votes); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) IncrementChoice(ctx context.Context, choiceID string) (int64, error) {
	query :=
		`UPDATE choices SET votes = votes + 1
		 WHERE id = $1
		 RETURNING votes
		 `

	var votes int64
	if err := r.db.QueryRowContext(ctx, query, choiceID).Scan(&votes); err != nil {
		if errors.Is(err, sql.ErrNoRows) || dbx.IsInvalidText(err) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return votes, nil
}
