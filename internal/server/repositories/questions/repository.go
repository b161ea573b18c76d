// Package questions stores ballot questions, their choices and the legacy
// per-choice vote counters.
package questions

import (
	"context"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, q *models.Question) (*models.Question, error)
	GetByID(ctx context.Context, id string) (*models.Question, error)
	// ListByBallot returns the ballot's questions with their choices filled in.
	ListByBallot(ctx context.Context, ballotID string) ([]models.Question, error)

	CreateChoice(ctx context.Context, c *models.Choice) (*models.Choice, error)
	GetChoice(ctx context.Context, id string) (*models.Choice, error)
	ListChoices(ctx context.Context, questionID string) ([]models.Choice, error)
	// IncrementChoice bumps the legacy counter and returns its new value.
	IncrementChoice(ctx context.Context, choiceID string) (int64, error)
}
