package grpc

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/ballotrpc"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/common"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/auth"
)

type ctxKey string

const (
	userIDKey ctxKey = "userID"
	staffKey  ctxKey = "staff"
)

var publicMethods = map[string]bool{
	ballotrpc.FullMethod(ballotrpc.MethodLogin):        true,
	ballotrpc.FullMethod(ballotrpc.MethodRefreshToken): true,
}

var staffMethods = map[string]bool{
	ballotrpc.FullMethod(ballotrpc.MethodRegisterUser):     true,
	ballotrpc.FullMethod(ballotrpc.MethodDeleteUser):       true,
	ballotrpc.FullMethod(ballotrpc.MethodUpdateProfile):    true,
	ballotrpc.FullMethod(ballotrpc.MethodCreateBallot):     true,
	ballotrpc.FullMethod(ballotrpc.MethodUpdateBallot):     true,
	ballotrpc.FullMethod(ballotrpc.MethodDeleteBallot):     true,
	ballotrpc.FullMethod(ballotrpc.MethodAddQuestion):      true,
	ballotrpc.FullMethod(ballotrpc.MethodAddChoice):        true,
	ballotrpc.FullMethod(ballotrpc.MethodListAdminBallots): true,
	ballotrpc.FullMethod(ballotrpc.MethodExportArchive):    true,
}

// accessTokenInterceptor authenticates every method except Login and
// RefreshToken and puts the caller's user ID and staff flag in the context.
func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if publicMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AccessTokenHeaderName)
		if len(values) > 0 {
			accessToken = values[0]
		}
	}
	if len(accessToken) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	claims, err := auth.ParseToken(accessToken, s.jwtSecret)
	if err != nil {
		// clients refresh on this exact message
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
		}
		return nil, status.Error(codes.Unauthenticated, common.ErrInvalidToken.Error())
	}

	if staffMethods[info.FullMethod] && !claims.Staff {
		return nil, status.Error(codes.PermissionDenied, msgNotPermitted)
	}

	ctx = context.WithValue(ctx, userIDKey, claims.UserID)
	ctx = context.WithValue(ctx, staffKey, claims.Staff)

	return handler(ctx, req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug(ctx, "rpc", "method", info.FullMethod, "code", status.Code(err).String(), "duration", time.Since(start).String())
	return resp, err
}

func userIDFromContext(ctx context.Context) (string, error) {
	id, ok := ctx.Value(userIDKey).(string)
	if !ok || id == "" {
		return "", status.Error(codes.Unauthenticated, "unauthorized")
	}
	return id, nil
}

func isStaff(ctx context.Context) bool {
	staff, _ := ctx.Value(staffKey).(bool)
	return staff
}
