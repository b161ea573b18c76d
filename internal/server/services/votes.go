package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/common"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/dbx"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/logging"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/metrics"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/models"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/repositories/repomanager"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/signature"
)

type CastStatus int

const (
	CastAccepted CastStatus = iota
	CastRejected
	CastNoSelection
)

func (s CastStatus) String() string {
	switch s {
	case CastAccepted:
		return "accepted"
	case CastRejected:
		return "rejected"
	case CastNoSelection:
		return "no_selection"
	default:
		return fmt.Sprintf("CastStatus(%d)", int(s))
	}
}

// CastResult reports what happened to a submission. CastBallotID is only
// set when accepted and must not be stored next to the user.
type CastResult struct {
	Status       CastStatus
	Reason       DenialReason
	CastBallotID string
}

// selection is one resolved question/choice pair.
type selection struct {
	questionID string
	choiceID   string
}

// VoteService records anonymous ballots.
type VoteService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	gate        *EligibilityService
	signer      *signature.Signer
	metrics     *metrics.Recorder
	logger      logging.Logger
}

func NewVoteService(db *sql.DB, m repomanager.RepositoryManager, gate *EligibilityService, signer *signature.Signer,
	rec *metrics.Recorder, l logging.Logger) *VoteService {
	return &VoteService{
		db:          db,
		repomanager: m,
		gate:        gate,
		signer:      signer,
		metrics:     rec,
		logger:      l.With("module", "votes"),
	}
}

// CastVote records the selections of userID on ballotID.
//
// selections maps question IDs to choice IDs as posted by the client.
// Malformed IDs are skipped; well-formed IDs that do not belong to the
// ballot reject the whole submission. When at least one selection is
// valid, the receipt, the envelope and its votes are written in one
// transaction, receipt first, so the unique receipt constraint decides
// concurrent submissions.
func (s *VoteService) CastVote(ctx context.Context, userID, ballotID string, selections map[string]string, now time.Time) (*CastResult, error) {
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
		return s.rejected(decision.Reason), nil
	}

	questions, err := s.repomanager.Questions(s.db).ListByBallot(ctx, ballot.ID)
	if err != nil {
		return nil, err
	}

	resolved, ok := resolveSelections(questions, selections)
	if !ok {
		return s.rejected(DenialInvalidSelection), nil
	}
	if len(resolved) == 0 {
		s.metrics.EmptySubmit()
		return &CastResult{Status: CastNoSelection}, nil
	}

	sig := s.signer.Derive(profile.Sign)
	var castBallotID string

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Receipts(tx).Create(ctx, ballot.ID, sig); err != nil {
			return err
		}

		casts := s.repomanager.Casts(tx)
		id, err := casts.CreateBallot(ctx, ballot.ID, now.Truncate(time.Hour))
		if err != nil {
			return err
		}
		for _, sel := range resolved {
			if err := casts.CreateVote(ctx, id, sel.choiceID); err != nil {
				return err
			}
		}
		castBallotID = id
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return s.rejected(DenialAlreadyVoted), nil
		}
		s.logger.Error(ctx, "error casting vote", "ballot_id", ballot.ID, "error", err.Error())
		return nil, fmt.Errorf("error casting vote: %w", err)
	}

	s.metrics.VoteAccepted()
	s.logger.Info(ctx, "vote accepted", "ballot_id", ballot.ID, "selections", len(resolved))

	return &CastResult{Status: CastAccepted, CastBallotID: castBallotID}, nil
}

func (s *VoteService) rejected(reason DenialReason) *CastResult {
	s.metrics.VoteDenied(reason.String())
	return &CastResult{Status: CastRejected, Reason: reason}
}

// resolveSelections validates raw form values against the ballot's
// questions. It returns ok=false when a well-formed ID points outside the
// ballot or when one question is answered under more than one spelling of
// its ID. The result is ordered by question ID.
func resolveSelections(questions []models.Question, raw map[string]string) ([]selection, bool) {
	choicesByQuestion := make(map[string]map[string]struct{}, len(questions))
	for _, q := range questions {
		set := make(map[string]struct{}, len(q.Choices))
		for _, c := range q.Choices {
			set[canonicalID(c.ID)] = struct{}{}
		}
		choicesByQuestion[canonicalID(q.ID)] = set
	}

	var out []selection
	seen := make(map[string]struct{}, len(raw))
	for rawQ, rawC := range raw {
		qID, err := uuid.Parse(rawQ)
		if err != nil {
			continue
		}
		cID, err := uuid.Parse(rawC)
		if err != nil {
			continue
		}

		if _, dup := seen[qID.String()]; dup {
			return nil, false
		}
		seen[qID.String()] = struct{}{}

		choices, known := choicesByQuestion[qID.String()]
		if !known {
			return nil, false
		}
		if _, valid := choices[cID.String()]; !valid {
			return nil, false
		}
		out = append(out, selection{questionID: qID.String(), choiceID: cID.String()})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].questionID < out[j].questionID })
	return out, true
}

// canonicalID lowercases UUIDs so form input and stored IDs compare equal.
// Non-UUID IDs are kept verbatim.
func canonicalID(id string) string {
	if u, err := uuid.Parse(id); err == nil {
		return u.String()
	}
	return id
}
