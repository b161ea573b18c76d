package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/common"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/dbx"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/logging"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/config"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/lifecycle"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/models"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/repositories/repomanager"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/signature"
)

// BallotInput carries editable ballot fields. Nil times mean "default"
// on create and "unchanged" on update.
type BallotInput struct {
	Title       string
	Description string
	District    string
	PublishAt   *time.Time
	DueAt       *time.Time
}

// VoterIndex is what a voter sees on their landing page.
type VoterIndex struct {
	Available []models.Ballot
	Finished  []models.Ballot
}

// BallotService administers ballots and serves the voter-facing reads.
type BallotService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	gate            *EligibilityService
	signer          *signature.Signer
	defaultDuration time.Duration
	logger          logging.Logger
}

func NewBallotService(db *sql.DB, m repomanager.RepositoryManager, gate *EligibilityService, signer *signature.Signer,
	cfg *config.Config, l logging.Logger) *BallotService {
	return &BallotService{
		db:              db,
		repomanager:     m,
		gate:            gate,
		signer:          signer,
		defaultDuration: cfg.DefaultBallotDuration,
		logger:          l.With("module", "ballots"),
	}
}

// Create stores a new ballot. PublishAt defaults to now and DueAt to
// now plus the configured default duration.
func (s *BallotService) Create(ctx context.Context, in BallotInput, now time.Time) (*models.Ballot, error) {
	b := &models.Ballot{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		District:    strings.TrimSpace(in.District),
		PublishAt:   now,
	}
	if in.PublishAt != nil {
		b.PublishAt = *in.PublishAt
	}
	if in.DueAt != nil {
		due := *in.DueAt
		b.DueAt = &due
	} else {
		due := now.Add(s.defaultDuration)
		b.DueAt = &due
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	b, err := s.repomanager.Ballots(s.db).Create(ctx, b)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "ballot created", "ballot_id", b.ID, "district", b.District)
	return b, nil
}

// Update changes a ballot that is not yet published.
func (s *BallotService) Update(ctx context.Context, id string, in BallotInput, now time.Time) (*models.Ballot, error) {
	var out *models.Ballot
	err := s.editable(ctx, id, now, func(ctx context.Context, tx dbx.DBTX, b *models.Ballot) error {
		if t := strings.TrimSpace(in.Title); t != "" {
			b.Title = t
		}
		if in.Description != "" {
			b.Description = in.Description
		}
		if d := strings.TrimSpace(in.District); d != "" {
			b.District = d
		}
		if in.PublishAt != nil {
			b.PublishAt = *in.PublishAt
		}
		if in.DueAt != nil {
			due := *in.DueAt
			b.DueAt = &due
		}
		if err := b.Validate(); err != nil {
			return err
		}
		if err := s.repomanager.Ballots(tx).Update(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes an unpublished ballot with its questions and choices.
func (s *BallotService) Delete(ctx context.Context, id string, now time.Time) error {
	return s.editable(ctx, id, now, func(ctx context.Context, tx dbx.DBTX, b *models.Ballot) error {
		return s.repomanager.Ballots(tx).Delete(ctx, b.ID)
	})
}

func (s *BallotService) AddQuestion(ctx context.Context, ballotID, prompt string, now time.Time) (*models.Question, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", common.ErrorValidation)
	}
	var out *models.Question
	err := s.editable(ctx, ballotID, now, func(ctx context.Context, tx dbx.DBTX, b *models.Ballot) error {
		q, err := s.repomanager.Questions(tx).Create(ctx, &models.Question{BallotID: b.ID, Prompt: prompt})
		out = q
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BallotService) AddChoice(ctx context.Context, questionID, label string, now time.Time) (*models.Choice, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, fmt.Errorf("%w: label is required", common.ErrorValidation)
	}
	q, err := s.repomanager.Questions(s.db).GetByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	var out *models.Choice
	err = s.editable(ctx, q.BallotID, now, func(ctx context.Context, tx dbx.DBTX, _ *models.Ballot) error {
		c, err := s.repomanager.Questions(tx).CreateChoice(ctx, &models.Choice{QuestionID: q.ID, Label: label})
		out = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// editable runs fn in a transaction holding the ballot row lock, after
// checking the ballot is still unpublished at now.
func (s *BallotService) editable(ctx context.Context, id string, now time.Time,
	fn func(ctx context.Context, tx dbx.DBTX, b *models.Ballot) error) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		b, err := s.repomanager.Ballots(tx).GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !lifecycle.IsEditable(b, now) {
			return common.ErrBallotPublished
		}
		return fn(ctx, tx, b)
	})
}

// ListByPhase returns the ballots in the given administrative bucket.
func (s *BallotService) ListByPhase(ctx context.Context, phase lifecycle.Phase, now time.Time) ([]models.Ballot, error) {
	all, err := s.repomanager.Ballots(s.db).List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Ballot, 0, len(all))
	for _, b := range all {
		if lifecycle.PhaseOf(&b, now) == phase {
			out = append(out, b)
		}
	}
	return out, nil
}

// Index lists the published ballots of the user's district, ordered by
// due date. Ballots the user already voted on go to Finished; open ones
// they have not voted on go to Available. Closed, unvoted ballots are
// left out.
func (s *BallotService) Index(ctx context.Context, userID string, now time.Time) (*VoterIndex, error) {
	profile, err := s.repomanager.Profiles(s.db).GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	published, err := s.repomanager.Ballots(s.db).ListPublishedInDistrict(ctx, profile.District, now)
	if err != nil {
		return nil, err
	}
	votedIDs, err := s.repomanager.Receipts(s.db).VotedBallotIDs(ctx, s.signer.Derive(profile.Sign))
	if err != nil {
		return nil, err
	}
	voted := make(map[string]struct{}, len(votedIDs))
	for _, id := range votedIDs {
		voted[id] = struct{}{}
	}

	idx := &VoterIndex{Available: []models.Ballot{}, Finished: []models.Ballot{}}
	for _, b := range published {
		if _, ok := voted[b.ID]; ok {
			idx.Finished = append(idx.Finished, b)
			continue
		}
		if lifecycle.Classify(&b, now) == lifecycle.Open {
			idx.Available = append(idx.Available, b)
		}
	}
	return idx, nil
}

// Detail returns the ballot with its questions if the user may vote on
// it right now. Any denial is common.ErrorForbidden so the reason is not
// disclosed.
func (s *BallotService) Detail(ctx context.Context, userID, ballotID string, now time.Time) (*models.Ballot, error) {
	ballot, err := s.repomanager.Ballots(s.db).GetByID(ctx, ballotID)
	if err != nil {
		return nil, err
	}
	profile, err := s.repomanager.Profiles(s.db).GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	decision, err := s.gate.CanVote(ctx, profile, ballot, now)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, common.ErrorForbidden
	}

	ballot.Questions, err = s.repomanager.Questions(s.db).ListByBallot(ctx, ballot.ID)
	if err != nil {
		return nil, err
	}
	return ballot, nil
}

// Get reads a ballot with its questions regardless of phase, for staff.
func (s *BallotService) Get(ctx context.Context, ballotID string) (*models.Ballot, error) {
	ballot, err := s.repomanager.Ballots(s.db).GetByID(ctx, ballotID)
	if err != nil {
		return nil, err
	}
	ballot.Questions, err = s.repomanager.Questions(s.db).ListByBallot(ctx, ballot.ID)
	if err != nil {
		return nil, err
	}
	return ballot, nil
}
