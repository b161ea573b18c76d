package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/lifecycle"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/models"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/repositories/repomanager"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/signature"
)

type DenialReason int

const (
	DenialNone DenialReason = iota
	DenialNotOpen
	DenialWrongDistrict
	DenialAlreadyVoted
	DenialInvalidSelection
)

func (r DenialReason) String() string {
	switch r {
	case DenialNone:
		return "none"
	case DenialNotOpen:
		return "not_open"
	case DenialWrongDistrict:
		return "wrong_district"
	case DenialAlreadyVoted:
		return "already_voted"
	case DenialInvalidSelection:
		return "invalid_selection"
	default:
		return fmt.Sprintf("DenialReason(%d)", int(r))
	}
}

// Decision is the gate's verdict. Reason is DenialNone when Allowed.
type Decision struct {
	Allowed bool
	Reason  DenialReason
}

func allow() Decision                   { return Decision{Allowed: true} }
func deny(reason DenialReason) Decision { return Decision{Reason: reason} }

// EligibilityService decides whether a profile may vote on a ballot.
type EligibilityService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	signer      *signature.Signer
}

func NewEligibilityService(db *sql.DB, m repomanager.RepositoryManager, signer *signature.Signer) *EligibilityService {
	return &EligibilityService{db: db, repomanager: m, signer: signer}
}

// CanVote checks, in order: the ballot is open at now, the districts match
// ignoring case, and no receipt exists for the profile's signature.
// Storage failures are returned as errors, never as denials.
func (s *EligibilityService) CanVote(ctx context.Context, profile *models.Profile, ballot *models.Ballot, now time.Time) (Decision, error) {
	if lifecycle.Classify(ballot, now) != lifecycle.Open {
		return deny(DenialNotOpen), nil
	}
	if !strings.EqualFold(profile.District, ballot.District) {
		return deny(DenialWrongDistrict), nil
	}

	voted, err := s.repomanager.Receipts(s.db).Exists(ctx, ballot.ID, s.signer.Derive(profile.Sign))
	if err != nil {
		return Decision{}, fmt.Errorf("error checking receipt: %w", err)
	}
	if voted {
		return deny(DenialAlreadyVoted), nil
	}
	return allow(), nil
}
