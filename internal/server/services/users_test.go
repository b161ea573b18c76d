package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/common"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/auth"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/models"
)

type recordingNotifier struct {
	created []string
	deleted []string
	err     error
}

func (n *recordingNotifier) AccountCreated(_ context.Context, u *models.User) error {
	n.created = append(n.created, u.UserName)
	return n.err
}

func (n *recordingNotifier) AccountDeleted(_ context.Context, u *models.User) error {
	n.deleted = append(n.deleted, u.UserName)
	return n.err
}

type userFixture struct {
	s        *memStore
	mock     sqlmock.Sqlmock
	clock    *FixedClock
	notifier *recordingNotifier
	svc      *UserService
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	db, mock := newSQLMockDB(t)
	f := &userFixture{
		s:        newMemStore(),
		mock:     mock,
		clock:    &FixedClock{T: baseNow},
		notifier: &recordingNotifier{},
	}
	f.svc = NewUserService(db, &fakeRepoManager{f.s}, testConfig(), f.notifier, f.clock, discardLogger())
	return f
}

func (f *userFixture) register(t *testing.T, name, password string) *models.Identity {
	t.Helper()
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	id, err := f.svc.Register(context.Background(), RegisterInput{
		UserName: name,
		Email:    name + "@example.org",
		Password: []byte(password),
		District: "BaltimoreCounty",
	})
	require.NoError(t, err)
	return id
}

func TestUserService_Register(t *testing.T) {
	f := newUserFixture(t)
	birth := time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC)
	pw := []byte("hunter2")

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	id, err := f.svc.Register(context.Background(), RegisterInput{
		UserName:   " alice ",
		Password:   pw,
		District:   " BaltimoreCounty ",
		MiddleName: "Q",
		BirthDate:  &birth,
	})
	require.NoError(t, err)

	assert.Equal(t, "alice", id.User.UserName)
	assert.Equal(t, id.User.ID, id.Profile.UserID)
	assert.Equal(t, "BaltimoreCounty", id.Profile.District)
	assert.Len(t, id.Profile.Sign, common.SignLength)
	assert.Equal(t, &birth, id.Profile.BirthDate)
	assert.NotEmpty(t, id.User.PasswordHash)
	assert.Equal(t, make([]byte, len(pw)), pw, "password must be wiped")

	assert.Equal(t, []string{"alice"}, f.notifier.created)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUserService_RegisterValidation(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.svc.Register(context.Background(), RegisterInput{UserName: "  ", Password: []byte("x")})
	assert.ErrorIs(t, err, common.ErrorValidation)
	_, err = f.svc.Register(context.Background(), RegisterInput{UserName: "bob"})
	assert.ErrorIs(t, err, common.ErrorValidation)
	assert.Empty(t, f.s.users)
}

func TestUserService_RegisterDuplicate(t *testing.T) {
	f := newUserFixture(t)
	f.register(t, "alice", "pw")

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	_, err := f.svc.Register(context.Background(), RegisterInput{UserName: "alice", Password: []byte("pw")})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
	assert.Len(t, f.notifier.created, 1)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUserService_SignCollisionRetries(t *testing.T) {
	f := newUserFixture(t)
	f.s.signCollision = 3

	id := f.register(t, "alice", "pw")
	assert.Len(t, id.Profile.Sign, common.SignLength)
	assert.Zero(t, f.s.signCollision)
}

func TestUserService_SignCollisionGivesUp(t *testing.T) {
	f := newUserFixture(t)
	f.s.signCollision = maxSignAttempts

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	_, err := f.svc.Register(context.Background(), RegisterInput{UserName: "alice", Password: []byte("pw")})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrorInternal)
	assert.Regexp(t, `^error creating user: `, err.Error())
	assert.Empty(t, f.notifier.created)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUserService_NotifierFailureIsNotFatal(t *testing.T) {
	f := newUserFixture(t)
	f.notifier.err = errBoom{}

	id := f.register(t, "alice", "pw")
	assert.NotEmpty(t, id.User.ID)
}

func TestUserService_Login(t *testing.T) {
	f := newUserFixture(t)
	id := f.register(t, "alice", "correct horse")

	pair, err := f.svc.Login(context.Background(), "alice", []byte("correct horse"))
	require.NoError(t, err)
	assert.NotEmpty(t, pair.RefreshToken)

	claims, err := auth.ParseToken(pair.AccessToken, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, id.User.ID, claims.UserID)
	assert.False(t, claims.Staff)

	rt := f.s.refresh[pair.RefreshToken]
	require.NotNil(t, rt)
	assert.Equal(t, baseNow.Add(2*time.Hour), rt.Expires)

	_, err = f.svc.Login(context.Background(), "alice", []byte("wrong"))
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	_, err = f.svc.Login(context.Background(), "nobody", []byte("x"))
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestUserService_RefreshToken(t *testing.T) {
	f := newUserFixture(t)
	f.register(t, "alice", "pw")

	pair, err := f.svc.Login(context.Background(), "alice", []byte("pw"))
	require.NoError(t, err)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	next, err := f.svc.RefreshToken(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)
	assert.NotContains(t, f.s.refresh, pair.RefreshToken)
	assert.Contains(t, f.s.refresh, next.RefreshToken)

	// rotated token is gone
	_, err = f.svc.RefreshToken(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	f.clock.T = baseNow.Add(3 * time.Hour)
	_, err = f.svc.RefreshToken(context.Background(), next.RefreshToken)
	assert.ErrorIs(t, err, common.ErrRefreshTokenExpired)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUserService_RefreshTokenDeleteError(t *testing.T) {
	f := newUserFixture(t)
	f.register(t, "alice", "pw")
	pair, err := f.svc.Login(context.Background(), "alice", []byte("pw"))
	require.NoError(t, err)

	f.s.refreshDelErr = errBoom{}
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	_, err = f.svc.RefreshToken(context.Background(), pair.RefreshToken)
	require.Error(t, err)
	assert.Regexp(t, `^error deleting refresh token: boom$`, err.Error())
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUserService_DeleteAndDistrict(t *testing.T) {
	f := newUserFixture(t)
	id := f.register(t, "alice", "pw")

	require.NoError(t, f.svc.UpdateDistrict(context.Background(), id.User.ID, " MontgomeryCounty "))
	got, err := f.svc.Identity(context.Background(), id.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "MontgomeryCounty", got.Profile.District)
	assert.Equal(t, id.Profile.Sign, got.Profile.Sign)

	require.NoError(t, f.svc.Delete(context.Background(), id.User.ID))
	assert.Equal(t, []string{"alice"}, f.notifier.deleted)

	err = f.svc.Delete(context.Background(), id.User.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = f.svc.Identity(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestLogNotifierAndClocks(t *testing.T) {
	n := NewLogNotifier(discardLogger())
	assert.NoError(t, n.AccountCreated(context.Background(), &models.User{UserName: "a"}))
	assert.NoError(t, n.AccountDeleted(context.Background(), &models.User{UserName: "a"}))

	assert.Equal(t, baseNow, FixedClock{T: baseNow}.Now())
	assert.Equal(t, time.UTC, SystemClock{}.Now().Location())
}
