// Package casts stores the anonymous ballot envelopes and the selections
// inside them. Nothing here references a user.
package casts

import (
	"context"
	"time"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/models"
)

type Repository interface {
	// CreateBallot stores an envelope and returns its ID. castAt is stored
	// as given; callers coarsen it.
	CreateBallot(ctx context.Context, ballotID string, castAt time.Time) (string, error)
	CreateVote(ctx context.Context, castBallotID, choiceID string) error
	// CountByQuestion returns one row per choice of the question, zero
	// when nobody picked it.
	CountByQuestion(ctx context.Context, questionID string) ([]models.ChoiceCount, error)
	CountBallots(ctx context.Context, ballotID string) (int64, error)
}
