// Package grpc exposes the ballot services over gRPC.
package grpc

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/ballotrpc"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/logging"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/lifecycle"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/models"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/services"
)

type UserService interface {
	Login(ctx context.Context, userName string, password []byte) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Register(ctx context.Context, in services.RegisterInput) (*models.Identity, error)
	Delete(ctx context.Context, userID string) error
	UpdateDistrict(ctx context.Context, userID, district string) error
}

type BallotService interface {
	Index(ctx context.Context, userID string, now time.Time) (*services.VoterIndex, error)
	Detail(ctx context.Context, userID, ballotID string, now time.Time) (*models.Ballot, error)
	Create(ctx context.Context, in services.BallotInput, now time.Time) (*models.Ballot, error)
	Update(ctx context.Context, id string, in services.BallotInput, now time.Time) (*models.Ballot, error)
	Delete(ctx context.Context, id string, now time.Time) error
	AddQuestion(ctx context.Context, ballotID, prompt string, now time.Time) (*models.Question, error)
	AddChoice(ctx context.Context, questionID, label string, now time.Time) (*models.Choice, error)
	ListByPhase(ctx context.Context, phase lifecycle.Phase, now time.Time) ([]models.Ballot, error)
}

type VoteService interface {
	CastVote(ctx context.Context, userID, ballotID string, selections map[string]string, now time.Time) (*services.CastResult, error)
}

type TallyService interface {
	ReadTally(ctx context.Context, questionID string) (map[string]int64, error)
	SimpleVote(ctx context.Context, questionID, choiceID string, now time.Time) (int64, error)
	Results(ctx context.Context, ballotID, userID string, now time.Time, privileged bool) (*services.BallotResults, error)
}

type ArchiveService interface {
	Export(ctx context.Context, ballotID string, now time.Time) (string, error)
	DownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Services bundles what the transport calls into.
type Services struct {
	Users   UserService
	Ballots BallotService
	Votes   VoteService
	Tally   TallyService
	Archive ArchiveService
	Clock   services.Clock
}

type GRPCServer struct {
	address   string
	svc       Services
	logger    logging.Logger
	jwtSecret []byte
}

var _ ballotrpc.BallotServiceServer = (*GRPCServer)(nil)

func NewGRPCServer(a string, l logging.Logger, svc Services, secretKey string) *GRPCServer {
	if svc.Clock == nil {
		svc.Clock = services.SystemClock{}
	}
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		svc:       svc,
		jwtSecret: []byte(secretKey),
	}
}

// Run listens on the configured address until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis and stops gracefully when ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))
	ballotrpc.RegisterBallotServiceServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
