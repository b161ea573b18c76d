// Package client is a voter-side client for the ballot gRPC service.
// It keeps the session tokens in memory and refreshes the access token
// transparently when the server reports it expired.
package client

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/ballotrpc"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/common"
)

type GRPCClient struct {
	conn   *grpc.ClientConn
	client *ballotrpc.BallotServiceClient

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) tokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

func (s *GRPCClient) setTokens(resp *structpb.Struct) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = resp.GetFields()["access_token"].GetStringValue()
	s.refreshToken = resp.GetFields()["refresh_token"].GetStringValue()
}

// Logout forgets the session tokens. The server keeps no session to end.
func (s *GRPCClient) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken, s.refreshToken = "", ""
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if method == ballotrpc.FullMethod(ballotrpc.MethodLogin) || method == ballotrpc.FullMethod(ballotrpc.MethodRefreshToken) {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	access, refresh := s.tokens()
	err := invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}
	if refresh == "" {
		return err
	}

	resp, err := s.client.Call(ctx, ballotrpc.MethodRefreshToken, &structpb.Struct{Fields: map[string]*structpb.Value{
		"refresh_token": structpb.NewStringValue(refresh),
	}})
	if err != nil {
		return err
	}
	s.setTokens(resp)

	access, _ = s.tokens()
	return invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
}

// NewGRPCClient dials endpointURL without TLS.
func NewGRPCClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{}
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = ballotrpc.NewBallotServiceClient(conn)
	return c, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) call(ctx context.Context, method string, req map[string]any) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Call(ctx, method, in)
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) Login(ctx context.Context, userName string, password []byte) error {
	defer common.WipeByteArray(password)

	resp, err := s.call(ctx, ballotrpc.MethodLogin, map[string]any{"username": userName, "password": string(password)})
	if err != nil {
		return err
	}
	s.setTokens(resp)
	return nil
}

// ListBallots returns the available and finished ballots of the caller.
func (s *GRPCClient) ListBallots(ctx context.Context) (available, finished []Ballot, err error) {
	resp, err := s.call(ctx, ballotrpc.MethodListBallots, nil)
	if err != nil {
		return nil, nil, err
	}
	return ballotsFrom(resp.Fields["available"]), ballotsFrom(resp.Fields["finished"]), nil
}

func (s *GRPCClient) GetBallot(ctx context.Context, ballotID string) (*Ballot, error) {
	resp, err := s.call(ctx, ballotrpc.MethodGetBallot, map[string]any{"ballot_id": ballotID})
	if err != nil {
		return nil, err
	}
	b := ballotFrom(resp)
	return &b, nil
}

// CastVote submits question ID to choice ID selections and returns the
// server's status: "accepted" or "no_selection".
func (s *GRPCClient) CastVote(ctx context.Context, ballotID string, selections map[string]string) (string, error) {
	sel := make(map[string]any, len(selections))
	for q, c := range selections {
		sel[q] = c
	}
	resp, err := s.call(ctx, ballotrpc.MethodCastVote, map[string]any{"ballot_id": ballotID, "selections": sel})
	if err != nil {
		return "", err
	}
	return resp.Fields["status"].GetStringValue(), nil
}

func (s *GRPCClient) GetResults(ctx context.Context, ballotID string) (*Results, error) {
	resp, err := s.call(ctx, ballotrpc.MethodGetResults, map[string]any{"ballot_id": ballotID})
	if err != nil {
		return nil, err
	}
	return resultsFrom(resp), nil
}

// ExportArchive asks the server to upload the results of an archived ballot
// and returns the object key with a short-lived download URL. Staff only.
func (s *GRPCClient) ExportArchive(ctx context.Context, ballotID string) (key, url string, err error) {
	resp, err := s.call(ctx, ballotrpc.MethodExportArchive, map[string]any{"ballot_id": ballotID})
	if err != nil {
		return "", "", err
	}
	return str(resp.Fields, "key"), str(resp.Fields, "url"), nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated:
		return ErrUnauthorized
	case codes.PermissionDenied:
		return ErrNotPermitted
	case codes.NotFound:
		return ErrNotFound
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
