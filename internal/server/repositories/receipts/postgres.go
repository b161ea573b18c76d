package receipts

import (
	"context"
	"fmt"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/common"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Exists(ctx context.Context, ballotID, signature string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM vote_records WHERE ballot_id = $1 AND voter_signature = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, ballotID, signature).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) Create(ctx context.Context, ballotID, signature string) error {
	query := `INSERT INTO vote_records (ballot_id, voter_signature) VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, query, ballotID, signature); err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		if dbx.IsForeignKeyViolation(err) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) VotedBallotIDs(ctx context.Context, signature string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT ballot_id FROM vote_records WHERE voter_signature = $1`, signature)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ids, nil
}

func (r *PostgresRepository) CountByBallot(ctx context.Context, ballotID string) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM vote_records WHERE ballot_id = $1`, ballotID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
