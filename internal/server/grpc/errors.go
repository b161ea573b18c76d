package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/common"
)

// msgNotPermitted is the one message for every denial, so callers cannot
// tell a wrong district from an earlier vote.
const msgNotPermitted = "not permitted"

// toStatus maps service errors to gRPC status errors. Unknown errors are
// logged and reported as Internal without detail.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrBallotPublished):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, common.ErrorAlreadyExists):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, common.ErrorForbidden):
		return status.Error(codes.PermissionDenied, msgNotPermitted)
	case errors.Is(err, common.ErrRefreshTokenExpired), errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, "unauthorized")
	}

	s.logger.Error(ctx, "internal error", "error", err.Error())
	return status.Error(codes.Internal, "internal error")
}
