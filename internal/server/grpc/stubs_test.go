package grpc

import (
	"context"
	"time"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/logging"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/lifecycle"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/models"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/services"
)

var testNow = time.Date(2021, 11, 10, 14, 30, 0, 0, time.UTC)

type stubUsers struct {
	loginUser   string
	loginPass   string
	tokens      *services.TokenPair
	err         error
	registered  *services.RegisterInput
	deletedUser string
	movedUser   string
	movedTo     string
}

func (u *stubUsers) Login(_ context.Context, userName string, password []byte) (*services.TokenPair, error) {
	u.loginUser, u.loginPass = userName, string(password)
	return u.tokens, u.err
}

func (u *stubUsers) RefreshToken(context.Context, string) (*services.TokenPair, error) {
	return u.tokens, u.err
}

func (u *stubUsers) Register(_ context.Context, in services.RegisterInput) (*models.Identity, error) {
	u.registered = &in
	if u.err != nil {
		return nil, u.err
	}
	return &models.Identity{User: models.User{ID: "u-new", UserName: in.UserName}, Profile: models.Profile{Sign: "secret-sign"}}, nil
}

func (u *stubUsers) Delete(_ context.Context, userID string) error {
	u.deletedUser = userID
	return u.err
}

func (u *stubUsers) UpdateDistrict(_ context.Context, userID, district string) error {
	u.movedUser, u.movedTo = userID, district
	return u.err
}

type stubBallots struct {
	index   *services.VoterIndex
	ballot  *models.Ballot
	list    []models.Ballot
	err     error
	input   services.BallotInput
	userID  string
	nowSeen time.Time
	phase   lifecycle.Phase
}

func (b *stubBallots) Index(_ context.Context, userID string, now time.Time) (*services.VoterIndex, error) {
	b.userID, b.nowSeen = userID, now
	return b.index, b.err
}

func (b *stubBallots) Detail(_ context.Context, userID, _ string, now time.Time) (*models.Ballot, error) {
	b.userID, b.nowSeen = userID, now
	return b.ballot, b.err
}

func (b *stubBallots) Create(_ context.Context, in services.BallotInput, _ time.Time) (*models.Ballot, error) {
	b.input = in
	return b.ballot, b.err
}

func (b *stubBallots) Update(_ context.Context, _ string, in services.BallotInput, _ time.Time) (*models.Ballot, error) {
	b.input = in
	return b.ballot, b.err
}

func (b *stubBallots) Delete(context.Context, string, time.Time) error { return b.err }

func (b *stubBallots) AddQuestion(_ context.Context, ballotID, prompt string, _ time.Time) (*models.Question, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &models.Question{ID: "q-new", BallotID: ballotID, Prompt: prompt}, nil
}

func (b *stubBallots) AddChoice(_ context.Context, questionID, label string, _ time.Time) (*models.Choice, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &models.Choice{ID: "c-new", QuestionID: questionID, Label: label}, nil
}

func (b *stubBallots) ListByPhase(_ context.Context, phase lifecycle.Phase, _ time.Time) ([]models.Ballot, error) {
	b.phase = phase
	return b.list, b.err
}

type stubVotes struct {
	result     *services.CastResult
	err        error
	selections map[string]string
	userID     string
}

func (v *stubVotes) CastVote(_ context.Context, userID, _ string, selections map[string]string, _ time.Time) (*services.CastResult, error) {
	v.userID, v.selections = userID, selections
	return v.result, v.err
}

type stubTally struct {
	counts     map[string]int64
	votes      int64
	results    *services.BallotResults
	err        error
	privileged bool
	caller     string
}

func (t *stubTally) ReadTally(context.Context, string) (map[string]int64, error) { return t.counts, t.err }

func (t *stubTally) SimpleVote(context.Context, string, string, time.Time) (int64, error) {
	return t.votes, t.err
}

func (t *stubTally) Results(_ context.Context, _, userID string, _ time.Time, privileged bool) (*services.BallotResults, error) {
	t.privileged = privileged
	t.caller = userID
	return t.results, t.err
}

type stubArchive struct {
	err error
}

func (a *stubArchive) Export(_ context.Context, ballotID string, _ time.Time) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	return "archives/_/" + ballotID + ".json", nil
}

func (a *stubArchive) DownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://s3.local/" + key, nil
}

type testDeps struct {
	users   *stubUsers
	ballots *stubBallots
	votes   *stubVotes
	tally   *stubTally
	archive *stubArchive
}

func newTestServer(secret string) (*GRPCServer, *testDeps) {
	d := &testDeps{
		users:   &stubUsers{},
		ballots: &stubBallots{},
		votes:   &stubVotes{},
		tally:   &stubTally{},
		archive: &stubArchive{},
	}
	s := NewGRPCServer("", logging.Discard(), Services{
		Users:   d.users,
		Ballots: d.ballots,
		Votes:   d.votes,
		Tally:   d.tally,
		Archive: d.archive,
		Clock:   services.FixedClock{T: testNow},
	}, secret)
	return s, d
}
