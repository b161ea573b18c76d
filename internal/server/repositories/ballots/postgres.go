package ballots

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/common"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/dbx"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/models"
)

const selectBallot = `SELECT id, title, description, district, publish_at, due_at, created_at FROM ballots`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, b *models.Ballot) (*models.Ballot, error) {
	query := `
		INSERT INTO ballots (title, description, district, publish_at, due_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, b.Title, b.Description, b.District, b.PublishAt, b.DueAt).
		Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) Update(ctx context.Context, b *models.Ballot) error {
	query := `
		UPDATE ballots
		SET title = $2, description = $3, district = $4, publish_at = $5, due_at = $6
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, b.ID, b.Title, b.Description, b.District, b.PublishAt, b.DueAt)
	if dbx.IsInvalidText(err) {
		return common.ErrorNotFound
	}
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return mustAffect(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ballots WHERE id = $1`, id)
	if dbx.IsInvalidText(err) {
		return common.ErrorNotFound
	}
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return mustAffect(res)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Ballot, error) {
	return r.getOne(ctx, selectBallot+` WHERE id = $1`, id)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*models.Ballot, error) {
	return r.getOne(ctx, selectBallot+` WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query, id string) (*models.Ballot, error) {
	b, err := scanBallot(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || dbx.IsInvalidText(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.Ballot, error) {
	return r.list(ctx, selectBallot+` ORDER BY publish_at, id`)
}

func (r *PostgresRepository) ListPublishedInDistrict(ctx context.Context, district string, now time.Time) ([]models.Ballot, error) {
	query := selectBallot + `
		WHERE publish_at <= $1 AND lower(district) = lower($2)
		ORDER BY due_at NULLS LAST, id`
	return r.list(ctx, query, now, district)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]models.Ballot, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Ballot
	for rows.Next() {
		b, err := scanBallot(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBallot(s scanner) (*models.Ballot, error) {
	b := &models.Ballot{}
	var due sql.NullTime
	if err := s.Scan(&b.ID, &b.Title, &b.Description, &b.District, &b.PublishAt, &due, &b.CreatedAt); err != nil {
		return nil, err
	}
	if due.Valid {
		b.DueAt = &due.Time
	}
	return b, nil
}

func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
