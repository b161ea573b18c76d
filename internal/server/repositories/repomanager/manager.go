package repomanager

import (
	"context"
	"database/sql"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/dbx"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/repositories/ballots"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/repositories/casts"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/repositories/profiles"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/repositories/questions"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/repositories/receipts"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/repositories/refreshtokens"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same
// service code runs against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Profiles(db dbx.DBTX) profiles.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Ballots(db dbx.DBTX) ballots.Repository
	Questions(db dbx.DBTX) questions.Repository
	Receipts(db dbx.DBTX) receipts.Repository
	Casts(db dbx.DBTX) casts.Repository
}
