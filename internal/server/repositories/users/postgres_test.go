package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/common"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const insertQ = `(?s)^INSERT\s+INTO\s+users\s*\(username,\s*email,\s*salt,\s*password_hash,\s*is_staff\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*RETURNING\s+id,\s*created_at\s*$`

func newUser() *models.User {
	return &models.User{UserName: "alice", Email: "alice@example.com", Salt: []byte("salt"), PasswordHash: []byte("hash")}
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2021, 10, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "created_at"}).AddRow("42", created)
	mock.ExpectQuery(insertQ).
		WithArgs("alice", "alice@example.com", []byte("salt"), []byte("hash"), false).
		WillReturnRows(rows)

	got, err := repo.Create(context.Background(), newUser())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "42" || got.UserName != "alice" || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestCreate_Duplicate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), newUser())
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("want common.ErrorAlreadyExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), newUser())
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

var selectCols = []string{"id", "username", "email", "salt", "password_hash", "is_staff", "created_at"}

func TestGetUserByLogin_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*username,.*FROM\s+users\s+WHERE\s+username\s*=\s*\$1\s*$`

	rows := sqlmock.NewRows(selectCols).
		AddRow("u-1", "alice", "a@example.com", []byte("salt"), []byte("hash"), true, time.Now())
	mock.ExpectQuery(q).WithArgs("alice").WillReturnRows(rows)

	got, err := repo.GetUserByLogin(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetUserByLogin error: %v", err)
	}
	if got.ID != "u-1" || got.UserName != "alice" || !got.IsStaff {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetUserByLogin_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+username\s*=\s*\$1\s*$`
	mock.ExpectQuery(q).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetUserByLogin(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetUserByID_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`
	mock.ExpectQuery(q).WithArgs("u-1").WillReturnError(errors.New("db err"))

	_, err := repo.GetUserByID(context.Background(), "u-1")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `^DELETE FROM users WHERE id = \$1$`
	mock.ExpectExec(q).WithArgs("u-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("u-2").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "u-1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := repo.Delete(context.Background(), "u-2"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestMalformedIDIsNotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	invalid := &pgconn.PgError{Code: "22P02"}
	mock.ExpectQuery(`(?s)FROM\s+users\s+WHERE\s+id\s*=\s*\$1`).WithArgs("u?").WillReturnError(invalid)
	mock.ExpectExec(`^DELETE FROM users WHERE id = \$1$`).WithArgs("u?").WillReturnError(invalid)

	if _, err := repo.GetUserByID(context.Background(), "u?"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("GetUserByID: want common.ErrorNotFound, got %v", err)
	}
	if err := repo.Delete(context.Background(), "u?"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("Delete: want common.ErrorNotFound, got %v", err)
	}
}
