package services

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/common"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/dbx"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/logging"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/config"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/models"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/repositories/ballots"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/repositories/casts"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/repositories/profiles"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/repositories/questions"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/repositories/receipts"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/repositories/refreshtokens"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/repositories/users"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/signature"
)

// --- helpers ---

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                    "k",
		SignatureSecret:              "sig-secret",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
		DefaultBallotDuration:        30 * 24 * time.Hour,
	}
}

func testSigner() *signature.Signer {
	return signature.NewSigner(signature.DeriveKey("sig-secret"))
}

// memStore backs every fake repository. Writes are not transactional;
// rollbacks are asserted through sqlmock instead.
type memStore struct {
	mu sync.Mutex

	users      map[string]*models.User
	profiles   map[string]*models.Profile
	refresh    map[string]*models.RefreshToken
	ballots    map[string]*models.Ballot
	questions  map[string]*models.Question
	choices    map[string]*models.Choice
	receipts   map[[2]string]time.Time
	castBallot map[string]*models.CastBallot
	castVotes  []models.CastVote

	// failure injection
	existsErr     error
	receiptErr    error
	castVoteErr   error
	signCollision int
	refreshDelErr error

	// existsBarrier, when set, holds every Exists call until the group is done.
	existsBarrier *sync.WaitGroup
}

func newMemStore() *memStore {
	return &memStore{
		users:      map[string]*models.User{},
		profiles:   map[string]*models.Profile{},
		refresh:    map[string]*models.RefreshToken{},
		ballots:    map[string]*models.Ballot{},
		questions:  map[string]*models.Question{},
		choices:    map[string]*models.Choice{},
		receipts:   map[[2]string]time.Time{},
		castBallot: map[string]*models.CastBallot{},
	}
}

type fakeRepoManager struct{ s *memStore }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                 { return &fakeUsers{m.s} }
func (m *fakeRepoManager) Profiles(dbx.DBTX) profiles.Repository           { return &fakeProfiles{m.s} }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return &fakeRefresh{m.s} }
func (m *fakeRepoManager) Ballots(dbx.DBTX) ballots.Repository             { return &fakeBallots{m.s} }
func (m *fakeRepoManager) Questions(dbx.DBTX) questions.Repository         { return &fakeQuestions{m.s} }
func (m *fakeRepoManager) Receipts(dbx.DBTX) receipts.Repository           { return &fakeReceipts{m.s} }
func (m *fakeRepoManager) Casts(dbx.DBTX) casts.Repository                 { return &fakeCasts{m.s} }

// --- users ---

type fakeUsers struct{ s *memStore }

func (f *fakeUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, existing := range f.s.users {
		if existing.UserName == u.UserName {
			return nil, common.ErrorAlreadyExists
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	cp := *u
	f.s.users[u.ID] = &cp
	return u, nil
}

func (f *fakeUsers) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, u := range f.s.users {
		if u.UserName == login {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) Delete(_ context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.s.users, id)
	delete(f.s.profiles, id)
	return nil
}

// --- profiles ---

type fakeProfiles struct{ s *memStore }

func (f *fakeProfiles) Create(_ context.Context, p *models.Profile) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.profiles[p.UserID]; ok {
		return common.ErrorAlreadyExists
	}
	for _, existing := range f.s.profiles {
		if existing.Sign == p.Sign {
			return common.ErrorAlreadyExists
		}
	}
	cp := *p
	f.s.profiles[p.UserID] = &cp
	return nil
}

func (f *fakeProfiles) GetByUserID(_ context.Context, userID string) (*models.Profile, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p, ok := f.s.profiles[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfiles) SignExists(_ context.Context, sign string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.signCollision > 0 {
		f.s.signCollision--
		return true, nil
	}
	for _, p := range f.s.profiles {
		if p.Sign == sign {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeProfiles) UpdateDistrict(_ context.Context, userID, district string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p, ok := f.s.profiles[userID]
	if !ok {
		return common.ErrorNotFound
	}
	p.District = district
	return nil
}

// --- refresh tokens ---

type fakeRefresh struct{ s *memStore }

func (f *fakeRefresh) Create(_ context.Context, userID, token string, expiresAt time.Time) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.refresh[token] = &models.RefreshToken{UserID: userID, Token: token, Expires: expiresAt}
	return nil
}

func (f *fakeRefresh) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	rt, ok := f.s.refresh[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *rt
	return &cp, nil
}

func (f *fakeRefresh) Delete(_ context.Context, token string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.refreshDelErr != nil {
		return f.s.refreshDelErr
	}
	delete(f.s.refresh, token)
	return nil
}

// --- ballots ---

type fakeBallots struct{ s *memStore }

func (f *fakeBallots) Create(_ context.Context, b *models.Ballot) (*models.Ballot, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	b.ID = uuid.NewString()
	cp := *b
	f.s.ballots[b.ID] = &cp
	return b, nil
}

func (f *fakeBallots) Update(_ context.Context, b *models.Ballot) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.ballots[b.ID]; !ok {
		return common.ErrorNotFound
	}
	cp := *b
	cp.Questions = nil
	f.s.ballots[b.ID] = &cp
	return nil
}

func (f *fakeBallots) Delete(_ context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.ballots[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.s.ballots, id)
	for qid, q := range f.s.questions {
		if q.BallotID == id {
			delete(f.s.questions, qid)
		}
	}
	return nil
}

func (f *fakeBallots) GetByID(_ context.Context, id string) (*models.Ballot, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	b, ok := f.s.ballots[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBallots) GetForUpdate(ctx context.Context, id string) (*models.Ballot, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeBallots) List(_ context.Context) ([]models.Ballot, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []models.Ballot
	for _, b := range f.s.ballots {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublishAt.Before(out[j].PublishAt) })
	return out, nil
}

func (f *fakeBallots) ListPublishedInDistrict(_ context.Context, district string, now time.Time) ([]models.Ballot, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []models.Ballot
	for _, b := range f.s.ballots {
		if !b.PublishAt.After(now) && strings.EqualFold(b.District, district) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DueAt == nil {
			return false
		}
		if out[j].DueAt == nil {
			return true
		}
		return out[i].DueAt.Before(*out[j].DueAt)
	})
	return out, nil
}

// --- questions & choices ---

type fakeQuestions struct{ s *memStore }

func (f *fakeQuestions) Create(_ context.Context, q *models.Question) (*models.Question, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.ballots[q.BallotID]; !ok {
		return nil, common.ErrorNotFound
	}
	q.ID = uuid.NewString()
	cp := *q
	f.s.questions[q.ID] = &cp
	return q, nil
}

func (f *fakeQuestions) GetByID(_ context.Context, id string) (*models.Question, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	q, ok := f.s.questions[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *q
	return &cp, nil
}

func (f *fakeQuestions) ListByBallot(_ context.Context, ballotID string) ([]models.Question, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []models.Question
	for _, q := range f.s.questions {
		if q.BallotID != ballotID {
			continue
		}
		cp := *q
		cp.Choices = f.choicesOf(q.ID)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeQuestions) choicesOf(questionID string) []models.Choice {
	var out []models.Choice
	for _, c := range f.s.choices {
		if c.QuestionID == questionID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeQuestions) CreateChoice(_ context.Context, c *models.Choice) (*models.Choice, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.questions[c.QuestionID]; !ok {
		return nil, common.ErrorNotFound
	}
	c.ID = uuid.NewString()
	cp := *c
	f.s.choices[c.ID] = &cp
	return c, nil
}

func (f *fakeQuestions) GetChoice(_ context.Context, id string) (*models.Choice, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	c, ok := f.s.choices[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeQuestions) ListChoices(_ context.Context, questionID string) ([]models.Choice, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.choicesOf(questionID), nil
}

func (f *fakeQuestions) IncrementChoice(_ context.Context, choiceID string) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	c, ok := f.s.choices[choiceID]
	if !ok {
		return 0, common.ErrorNotFound
	}
	c.Votes++
	return c.Votes, nil
}

// --- receipts ---

type fakeReceipts struct{ s *memStore }

func (f *fakeReceipts) Exists(_ context.Context, ballotID, signature string) (bool, error) {
	if f.s.existsBarrier != nil {
		f.s.existsBarrier.Done()
		f.s.existsBarrier.Wait()
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.existsErr != nil {
		return false, f.s.existsErr
	}
	_, ok := f.s.receipts[[2]string{ballotID, signature}]
	return ok, nil
}

func (f *fakeReceipts) Create(_ context.Context, ballotID, signature string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.receiptErr != nil {
		return f.s.receiptErr
	}
	key := [2]string{ballotID, signature}
	if _, ok := f.s.receipts[key]; ok {
		return common.ErrorAlreadyExists
	}
	f.s.receipts[key] = time.Now()
	return nil
}

func (f *fakeReceipts) VotedBallotIDs(_ context.Context, signature string) ([]string, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []string
	for k := range f.s.receipts {
		if k[1] == signature {
			out = append(out, k[0])
		}
	}
	return out, nil
}

func (f *fakeReceipts) CountByBallot(_ context.Context, ballotID string) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var n int64
	for k := range f.s.receipts {
		if k[0] == ballotID {
			n++
		}
	}
	return n, nil
}

// --- casts ---

type fakeCasts struct{ s *memStore }

func (f *fakeCasts) CreateBallot(_ context.Context, ballotID string, castAt time.Time) (string, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	id := uuid.NewString()
	f.s.castBallot[id] = &models.CastBallot{ID: id, BallotID: ballotID, CastAt: castAt}
	return id, nil
}

func (f *fakeCasts) CreateVote(_ context.Context, castBallotID, choiceID string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.castVoteErr != nil {
		return f.s.castVoteErr
	}
	f.s.castVotes = append(f.s.castVotes, models.CastVote{ID: uuid.NewString(), CastBallotID: castBallotID, ChoiceID: choiceID})
	return nil
}

func (f *fakeCasts) CountByQuestion(_ context.Context, questionID string) ([]models.ChoiceCount, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []models.ChoiceCount
	for _, c := range (&fakeQuestions{f.s}).choicesOf(questionID) {
		cc := models.ChoiceCount{ChoiceID: c.ID, Label: c.Label}
		for _, v := range f.s.castVotes {
			if v.ChoiceID == c.ID {
				cc.Count++
			}
		}
		out = append(out, cc)
	}
	return out, nil
}

func (f *fakeCasts) CountBallots(_ context.Context, ballotID string) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var n int64
	for _, cb := range f.s.castBallot {
		if cb.BallotID == ballotID {
			n++
		}
	}
	return n, nil
}

// --- fixtures ---

func (s *memStore) addUser(district string) (*models.User, *models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &models.User{ID: uuid.NewString(), UserName: "user-" + uuid.NewString()[:8]}
	sign, _ := common.MakeRandString(common.SignLength)
	p := &models.Profile{UserID: u.ID, District: district, Sign: sign}
	s.users[u.ID] = u
	s.profiles[u.ID] = p
	return u, p
}

func (s *memStore) addBallot(district string, publish time.Time, due *time.Time) *models.Ballot {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := &models.Ballot{ID: uuid.NewString(), Title: "ballot", District: district, PublishAt: publish, DueAt: due}
	cp := *b
	s.ballots[b.ID] = &cp
	return b
}

func (s *memStore) addQuestion(ballotID string, labels ...string) (*models.Question, []models.Choice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := &models.Question{ID: uuid.NewString(), BallotID: ballotID, Prompt: "question"}
	cp := *q
	s.questions[q.ID] = &cp
	var out []models.Choice
	for _, l := range labels {
		c := models.Choice{ID: uuid.NewString(), QuestionID: q.ID, Label: l}
		cc := c
		s.choices[c.ID] = &cc
		out = append(out, c)
	}
	return q, out
}

func (s *memStore) castBallotCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.castBallot)
}

func (s *memStore) castVoteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.castVotes)
}

func (s *memStore) choiceVotes(id string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.choices[id].Votes
}

func ptr(t time.Time) *time.Time { return &t }

func discardLogger() logging.Logger { return logging.Discard() }
