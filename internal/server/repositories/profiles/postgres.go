package profiles

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

func (r *PostgresRepository) Create(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO profiles (user_id, district, sign, middle_name, birth_date)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, p.UserID, p.District, p.Sign, p.MiddleName, p.BirthDate)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	query := `
		SELECT user_id, district, sign, middle_name, birth_date
		FROM profiles
		WHERE user_id = $1
	`
	p := &models.Profile{}
	var birth sql.NullTime
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&p.UserID, &p.District, &p.Sign, &p.MiddleName, &birth)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || dbx.IsInvalidText(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if birth.Valid {
		p.BirthDate = &birth.Time
	}
	return p, nil
}

func (r *PostgresRepository) SignExists(ctx context.Context, sign string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM profiles WHERE sign = $1)`, sign).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) UpdateDistrict(ctx context.Context, userID, district string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE profiles SET district = $2 WHERE user_id = $1`, userID, district)
	if dbx.IsInvalidText(err) {
		return common.ErrorNotFound
	}
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
