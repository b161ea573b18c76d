// Package profiles stores the one-to-one voter profile of each user.
package profiles

import (
	"context"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/models"
)

type Repository interface {
	// Create returns common.ErrorAlreadyExists when the user already has a
	// profile or the sign is taken.
	Create(ctx context.Context, p *models.Profile) error
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
	SignExists(ctx context.Context, sign string) (bool, error)
	UpdateDistrict(ctx context.Context, userID, district string) error
}
