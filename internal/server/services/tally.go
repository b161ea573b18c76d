package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/common"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/lifecycle"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/metrics"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/models"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/repositories/repomanager"
)

type QuestionResult struct {
	QuestionID string
	Prompt     string
	Choices    []models.ChoiceCount
}

// BallotResults are the anonymous results of a ballot. Receipts and
// Envelopes should match; a difference means a write was lost.
type BallotResults struct {
	Ballot    models.Ballot
	Receipts  int64
	Envelopes int64
	Questions []QuestionResult
}

// TallyService reads and maintains vote counts.
type TallyService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	metrics     *metrics.Recorder
}

func NewTallyService(db *sql.DB, m repomanager.RepositoryManager, rec *metrics.Recorder) *TallyService {
	return &TallyService{db: db, repomanager: m, metrics: rec}
}

// IncrementChoice atomically bumps the legacy counter of a choice.
func (s *TallyService) IncrementChoice(ctx context.Context, choiceID string) (int64, error) {
	return s.repomanager.Questions(s.db).IncrementChoice(ctx, choiceID)
}

// ReadTally returns the legacy counter of every choice of the question.
func (s *TallyService) ReadTally(ctx context.Context, questionID string) (map[string]int64, error) {
	repo := s.repomanager.Questions(s.db)
	if _, err := repo.GetByID(ctx, questionID); err != nil {
		return nil, err
	}
	choices, err := repo.ListChoices(ctx, questionID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(choices))
	for _, c := range choices {
		out[c.ID] = c.Votes
	}
	return out, nil
}

// ReadCastTally counts anonymous selections per choice. Every choice of
// the question is present, with zero when nobody picked it.
func (s *TallyService) ReadCastTally(ctx context.Context, questionID string) (map[string]int64, error) {
	if _, err := s.repomanager.Questions(s.db).GetByID(ctx, questionID); err != nil {
		return nil, err
	}
	counts, err := s.repomanager.Casts(s.db).CountByQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(counts))
	for _, c := range counts {
		out[c.ChoiceID] = c.Count
	}
	return out, nil
}

// SimpleVote is the legacy, non-anonymous vote: it only increments the
// choice counter. It is limited to open ballots without a district;
// district ballots must go through VoteService.
func (s *TallyService) SimpleVote(ctx context.Context, questionID, choiceID string, now time.Time) (int64, error) {
	questions := s.repomanager.Questions(s.db)

	choice, err := questions.GetChoice(ctx, choiceID)
	if err != nil {
		return 0, err
	}
	if canonicalID(choice.QuestionID) != canonicalID(questionID) {
		return 0, common.ErrorNotFound
	}
	question, err := questions.GetByID(ctx, questionID)
	if err != nil {
		return 0, err
	}
	ballot, err := s.repomanager.Ballots(s.db).GetByID(ctx, question.BallotID)
	if err != nil {
		return 0, err
	}
	if lifecycle.Classify(ballot, now) != lifecycle.Open || ballot.District != "" {
		return 0, common.ErrorForbidden
	}

	votes, err := questions.IncrementChoice(ctx, choice.ID)
	if err != nil {
		return 0, err
	}
	s.metrics.SimpleVote()
	return votes, nil
}

// Results assembles the anonymous results of a ballot. Unless privileged,
// results are only visible once the ballot is past due, and only to a
// voter of the ballot's district (ignoring case). Ballots without a
// district are visible to every voter.
func (s *TallyService) Results(ctx context.Context, ballotID, userID string, now time.Time, privileged bool) (*BallotResults, error) {
	ballot, err := s.repomanager.Ballots(s.db).GetByID(ctx, ballotID)
	if err != nil {
		return nil, err
	}
	if !privileged {
		if lifecycle.Classify(ballot, now) != lifecycle.PastDue {
			return nil, common.ErrorForbidden
		}
		if ballot.District != "" {
			profile, err := s.repomanager.Profiles(s.db).GetByUserID(ctx, userID)
			if err != nil {
				return nil, err
			}
			if !strings.EqualFold(profile.District, ballot.District) {
				return nil, common.ErrorForbidden
			}
		}
	}

	questions, err := s.repomanager.Questions(s.db).ListByBallot(ctx, ballot.ID)
	if err != nil {
		return nil, err
	}
	receipts, err := s.repomanager.Receipts(s.db).CountByBallot(ctx, ballot.ID)
	if err != nil {
		return nil, err
	}
	casts := s.repomanager.Casts(s.db)
	envelopes, err := casts.CountBallots(ctx, ballot.ID)
	if err != nil {
		return nil, err
	}

	res := &BallotResults{Ballot: *ballot, Receipts: receipts, Envelopes: envelopes}
	for _, q := range questions {
		counts, err := casts.CountByQuestion(ctx, q.ID)
		if err != nil {
			return nil, err
		}
		res.Questions = append(res.Questions, QuestionResult{QuestionID: q.ID, Prompt: q.Prompt, Choices: counts})
	}
	return res, nil
}
