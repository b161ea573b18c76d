package casts

import (
	"context"
	"fmt"
	"time"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/dbx"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateBallot(ctx context.Context, ballotID string, castAt time.Time) (string, error) {
	var id string
	query := `INSERT INTO cast_ballots (ballot_id, cast_at) VALUES ($1, $2) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, ballotID, castAt).Scan(&id); err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) CreateVote(ctx context.Context, castBallotID, choiceID string) error {
	query := `INSERT INTO cast_votes (cast_ballot_id, choice_id) VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, query, castBallotID, choiceID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CountByQuestion(ctx context.Context, questionID string) ([]models.ChoiceCount, error) {
	query := `
		SELECT c.id, c.label, count(v.id)
		FROM choices c
		LEFT JOIN cast_votes v ON v.choice_id = c.id
		WHERE c.question_id = $1
		GROUP BY c.id, c.label
		ORDER BY c.id
	`
	rows, err := r.db.QueryContext(ctx, query, questionID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.ChoiceCount
	for rows.Next() {
		var cc models.ChoiceCount
		if err := rows.Scan(&cc.ChoiceID, &cc.Label, &cc.Count); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) CountBallots(ctx context.Context, ballotID string) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM cast_ballots WHERE ballot_id = $1`, ballotID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
