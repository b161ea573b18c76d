// Package ballots stores ballot headers. Questions and choices live in
// the questions package.
package ballots

import (
	"context"
	"time"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, b *models.Ballot) (*models.Ballot, error)
	Update(ctx context.Context, b *models.Ballot) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.Ballot, error)
	// GetForUpdate locks the ballot row for the rest of the transaction.
	GetForUpdate(ctx context.Context, id string) (*models.Ballot, error)
	// List returns every ballot ordered by publish date.
	List(ctx context.Context) ([]models.Ballot, error)
	// ListPublishedInDistrict returns ballots published at or before now
	// whose district matches case-insensitively, ordered by due date.
	ListPublishedInDistrict(ctx context.Context, district string, now time.Time) ([]models.Ballot, error)
}
