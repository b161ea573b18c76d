// Package ballotrpc describes the blindvote.v1.BallotService gRPC service.
//
// Messages are google.protobuf.Struct values shaped like form posts, so the
// service needs no generated code: the descriptor, the server interface and
// the client stub are declared here by hand and use the default proto codec.
package ballotrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "blindvote.v1.BallotService"

const (
	MethodLogin            = "Login"
	MethodRefreshToken     = "RefreshToken"
	MethodListBallots      = "ListBallots"
	MethodGetBallot        = "GetBallot"
	MethodCastVote         = "CastVote"
	MethodSimpleVote       = "SimpleVote"
	MethodGetTally         = "GetTally"
	MethodGetResults       = "GetResults"
	MethodRegisterUser     = "RegisterUser"
	MethodDeleteUser       = "DeleteUser"
	MethodUpdateProfile    = "UpdateProfile"
	MethodCreateBallot     = "CreateBallot"
	MethodUpdateBallot     = "UpdateBallot"
	MethodDeleteBallot     = "DeleteBallot"
	MethodAddQuestion      = "AddQuestion"
	MethodAddChoice        = "AddChoice"
	MethodListAdminBallots = "ListAdminBallots"
	MethodExportArchive    = "ExportArchive"
)

// FullMethod returns the "/service/method" form used by interceptors.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// BallotServiceServer is implemented by the transport.
type BallotServiceServer interface {
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RefreshToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListBallots(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetBallot(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CastVote(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SimpleVote(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetTally(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetResults(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RegisterUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateBallot(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateBallot(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteBallot(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddQuestion(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddChoice(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListAdminBallots(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportArchive(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type methodFunc func(BallotServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call methodFunc) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(BallotServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(BallotServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BallotServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodLogin, BallotServiceServer.Login),
		unary(MethodRefreshToken, BallotServiceServer.RefreshToken),
		unary(MethodListBallots, BallotServiceServer.ListBallots),
		unary(MethodGetBallot, BallotServiceServer.GetBallot),
		unary(MethodCastVote, BallotServiceServer.CastVote),
		unary(MethodSimpleVote, BallotServiceServer.SimpleVote),
		unary(MethodGetTally, BallotServiceServer.GetTally),
		unary(MethodGetResults, BallotServiceServer.GetResults),
		unary(MethodRegisterUser, BallotServiceServer.RegisterUser),
		unary(MethodDeleteUser, BallotServiceServer.DeleteUser),
		unary(MethodUpdateProfile, BallotServiceServer.UpdateProfile),
		unary(MethodCreateBallot, BallotServiceServer.CreateBallot),
		unary(MethodUpdateBallot, BallotServiceServer.UpdateBallot),
		unary(MethodDeleteBallot, BallotServiceServer.DeleteBallot),
		unary(MethodAddQuestion, BallotServiceServer.AddQuestion),
		unary(MethodAddChoice, BallotServiceServer.AddChoice),
		unary(MethodListAdminBallots, BallotServiceServer.ListAdminBallots),
		unary(MethodExportArchive, BallotServiceServer.ExportArchive),
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterBallotServiceServer(s grpc.ServiceRegistrar, srv BallotServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// BallotServiceClient invokes any method by name.
type BallotServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewBallotServiceClient(cc grpc.ClientConnInterface) *BallotServiceClient {
	return &BallotServiceClient{cc: cc}
}

func (c *BallotServiceClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
