package grpc

import (
	"context"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/lifecycle"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/services"
)

const archiveURLValidity = 15 * time.Minute

func (s *GRPCServer) RegisterUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	username, err := requiredString(req, "username")
	if err != nil {
		return nil, err
	}
	password, err := requiredString(req, "password")
	if err != nil {
		return nil, err
	}
	birth, err := dateField(req, "birth_date")
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "Registration request", "username", username)

	identity, err := s.svc.Users.Register(ctx, services.RegisterInput{
		UserName:   username,
		Email:      stringField(req, "email"),
		Password:   []byte(password),
		IsStaff:    boolField(req, "is_staff"),
		District:   stringField(req, "district"),
		MiddleName: stringField(req, "middle_name"),
		BirthDate:  birth,
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	// the profile sign never leaves the server
	return newStruct(map[string]any{"user_id": identity.User.ID})
}

func (s *GRPCServer) DeleteUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := requiredString(req, "user_id")
	if err != nil {
		return nil, err
	}
	if err := s.svc.Users.Delete(ctx, userID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &structpb.Struct{}, nil
}

// UpdateProfile moves a voter to another district. Receipts already
// recorded are unaffected.
func (s *GRPCServer) UpdateProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := requiredString(req, "user_id")
	if err != nil {
		return nil, err
	}
	district, err := requiredString(req, "district")
	if err != nil {
		return nil, err
	}
	if err := s.svc.Users.UpdateDistrict(ctx, userID, district); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &structpb.Struct{}, nil
}

func (s *GRPCServer) CreateBallot(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	now := s.svc.Clock.Now()
	in, err := ballotInput(req)
	if err != nil {
		return nil, err
	}

	b, err := s.svc.Ballots.Create(ctx, in, now)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return newStruct(ballotValue(b, now))
}

func (s *GRPCServer) UpdateBallot(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	now := s.svc.Clock.Now()
	ballotID, err := requiredString(req, "ballot_id")
	if err != nil {
		return nil, err
	}
	in, err := ballotInput(req)
	if err != nil {
		return nil, err
	}

	b, err := s.svc.Ballots.Update(ctx, ballotID, in, now)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return newStruct(ballotValue(b, now))
}

func (s *GRPCServer) DeleteBallot(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	now := s.svc.Clock.Now()
	ballotID, err := requiredString(req, "ballot_id")
	if err != nil {
		return nil, err
	}
	if err := s.svc.Ballots.Delete(ctx, ballotID, now); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &structpb.Struct{}, nil
}

func (s *GRPCServer) AddQuestion(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	now := s.svc.Clock.Now()
	ballotID, err := requiredString(req, "ballot_id")
	if err != nil {
		return nil, err
	}

	q, err := s.svc.Ballots.AddQuestion(ctx, ballotID, stringField(req, "prompt"), now)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return newStruct(map[string]any{"question_id": q.ID})
}

func (s *GRPCServer) AddChoice(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	now := s.svc.Clock.Now()
	questionID, err := requiredString(req, "question_id")
	if err != nil {
		return nil, err
	}

	c, err := s.svc.Ballots.AddChoice(ctx, questionID, stringField(req, "label"), now)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return newStruct(map[string]any{"choice_id": c.ID})
}

// ListAdminBallots lists ballots in one phase: upcoming, open, past or archived.
func (s *GRPCServer) ListAdminBallots(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	now := s.svc.Clock.Now()
	phase, err := lifecycle.ParsePhase(stringField(req, "phase"))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	ballots, err := s.svc.Ballots.ListByPhase(ctx, phase, now)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return newStruct(map[string]any{"phase": phase.String(), "ballots": ballotList(ballots, now)})
}

// ExportArchive uploads the results of an archived ballot and returns the
// object key with a short-lived download URL.
func (s *GRPCServer) ExportArchive(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	now := s.svc.Clock.Now()
	ballotID, err := requiredString(req, "ballot_id")
	if err != nil {
		return nil, err
	}

	key, err := s.svc.Archive.Export(ctx, ballotID, now)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	url, err := s.svc.Archive.DownloadURL(ctx, key, archiveURLValidity)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return newStruct(map[string]any{"key": key, "url": url})
}
