package grpc

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/services"
)

func tokenPairValue(p *services.TokenPair) map[string]any {
	return map[string]any{"access_token": p.AccessToken, "refresh_token": p.RefreshToken}
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	username, err := requiredString(req, "username")
	if err != nil {
		return nil, err
	}

	tokens, err := s.svc.Users.Login(ctx, username, []byte(stringField(req, "password")))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return newStruct(tokenPairValue(tokens))
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	token, err := requiredString(req, "refresh_token")
	if err != nil {
		return nil, err
	}

	tokens, err := s.svc.Users.RefreshToken(ctx, token)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return newStruct(tokenPairValue(tokens))
}

// ListBallots is the voter's landing page.
func (s *GRPCServer) ListBallots(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	now := s.svc.Clock.Now()
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	idx, err := s.svc.Ballots.Index(ctx, userID, now)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return newStruct(map[string]any{
		"available": ballotList(idx.Available, now),
		"finished":  ballotList(idx.Finished, now),
	})
}

func (s *GRPCServer) GetBallot(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	now := s.svc.Clock.Now()
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	ballotID, err := requiredString(req, "ballot_id")
	if err != nil {
		return nil, err
	}

	b, err := s.svc.Ballots.Detail(ctx, userID, ballotID, now)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return newStruct(ballotValue(b, now))
}

func (s *GRPCServer) CastVote(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	now := s.svc.Clock.Now()
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	ballotID, err := requiredString(req, "ballot_id")
	if err != nil {
		return nil, err
	}

	res, err := s.svc.Votes.CastVote(ctx, userID, ballotID, selectionsField(req), now)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	if res.Status == services.CastRejected {
		return nil, status.Error(codes.PermissionDenied, msgNotPermitted)
	}

	// the envelope ID stays server side
	return newStruct(map[string]any{"status": res.Status.String()})
}

func (s *GRPCServer) SimpleVote(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	now := s.svc.Clock.Now()
	questionID, err := requiredString(req, "question_id")
	if err != nil {
		return nil, err
	}
	choiceID, err := requiredString(req, "choice_id")
	if err != nil {
		return nil, err
	}

	votes, err := s.svc.Tally.SimpleVote(ctx, questionID, choiceID, now)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return newStruct(map[string]any{"votes": votes})
}

// GetTally returns the legacy per-choice counters of a question.
func (s *GRPCServer) GetTally(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	questionID, err := requiredString(req, "question_id")
	if err != nil {
		return nil, err
	}

	counts, err := s.svc.Tally.ReadTally(ctx, questionID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return newStruct(map[string]any{"counts": countsValue(counts)})
}

// GetResults returns anonymous results. Voters see them once the ballot is
// past due and only for their own district; staff at any time.
func (s *GRPCServer) GetResults(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	now := s.svc.Clock.Now()
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	ballotID, err := requiredString(req, "ballot_id")
	if err != nil {
		return nil, err
	}

	res, err := s.svc.Tally.Results(ctx, ballotID, userID, now, isStaff(ctx))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return newStruct(resultsValue(res, now))
}
