// Package repomanager provides the PostgreSQL RepositoryManager, wiring
// repository constructors and goose migrations together.
package repomanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/dbx"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/migrations"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/repositories/ballots"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/repositories/casts"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/repositories/profiles"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/repositories/questions"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/repositories/receipts"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/repositories/refreshtokens"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/repositories/users"
)

type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Profiles(db dbx.DBTX) profiles.Repository {
	return profiles.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Ballots(db dbx.DBTX) ballots.Repository {
	return ballots.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Questions(db dbx.DBTX) questions.Repository {
	return questions.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Receipts(db dbx.DBTX) receipts.Repository {
	return receipts.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Casts(db dbx.DBTX) casts.Repository {
	return casts.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations to db.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}
