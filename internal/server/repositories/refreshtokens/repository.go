package refreshtokens

import (
	"context"
	"time"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/models"
)

// Repository issues, looks up and revokes refresh tokens.
type Repository interface {
	Create(ctx context.Context, userID string, token string, expiresAt time.Time) error

	// Find returns common.ErrorNotFound when the token is absent.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete is idempotent.
	Delete(ctx context.Context, token string) error
}
