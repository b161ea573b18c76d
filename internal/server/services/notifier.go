package services

import (
	"context"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/logging"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/models"
)

// Notifier is told about account lifecycle events after they commit.
// Failures are logged by the caller and never undo the change.
type Notifier interface {
	AccountCreated(ctx context.Context, u *models.User) error
	AccountDeleted(ctx context.Context, u *models.User) error
}

// LogNotifier records account events in the log. It stands in for mail
// delivery, which is deployment specific.
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(l logging.Logger) *LogNotifier {
	return &LogNotifier{logger: l.With("module", "notifier")}
}

func (n *LogNotifier) AccountCreated(ctx context.Context, u *models.User) error {
	n.logger.Info(ctx, "account created", "username", u.UserName, "email", u.Email)
	return nil
}

func (n *LogNotifier) AccountDeleted(ctx context.Context, u *models.User) error {
	n.logger.Info(ctx, "account deleted", "username", u.UserName, "email", u.Email)
	return nil
}
