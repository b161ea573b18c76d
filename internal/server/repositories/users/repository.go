// Package users stores login accounts.
package users

import (
	"context"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	Delete(ctx context.Context, id string) error
}
