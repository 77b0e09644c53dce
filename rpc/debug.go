// Package rpc implements SPEC_FULL.md §4.N's debug/control-plane
// service: a read-only gRPC surface exposing a dpor.Search's live
// progress to an external tool, never on the hot path of a mailbox
// round trip. Unlike the teacher's generated-from-.proto services
// (examples/paxos's acceptor/proposer/learner, which exchange
// emptypb.Empty against already-modeled domain messages), this service
// has no stable domain protocol of its own — only a flat progress
// snapshot — so its grpc.ServiceDesc is hand-written against
// structpb.Struct/emptypb.Empty instead of generated from a .proto.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"mcmini/dpor"
)

// Snapshotter is the subset of dpor.Search the debug service depends
// on, narrow enough to fake in a test without a real Search.
type Snapshotter interface {
	Snapshot() dpor.Stats
}

// DebugServiceServer is the server-side interface HandlerType binds to.
type DebugServiceServer interface {
	Snapshot(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error)
}

type debugServer struct {
	search Snapshotter
}

// NewDebugServer wraps search as a DebugServiceServer.
func NewDebugServer(search Snapshotter) DebugServiceServer {
	return &debugServer{search: search}
}

func (s *debugServer) Snapshot(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st := s.search.Snapshot()
	return structpb.NewStruct(map[string]interface{}{
		"traces_explored": float64(st.TracesExplored),
		"deadlocks":       float64(st.Deadlocks),
		"starvations":     float64(st.Starvations),
		"undefined_cases": float64(st.UndefinedCases),
		"max_depth_seen":  float64(st.MaxDepthSeen),
	})
}

const debugServiceName = "mcmini.debug.DebugService"

// ServiceDesc is the hand-written grpc.ServiceDesc for DebugService, the
// same shape grpc-go's protoc plugin would otherwise generate.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: debugServiceName,
	HandlerType: (*DebugServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Snapshot",
			Handler:    debugSnapshotHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "mcmini/rpc/debug.go",
}

func debugSnapshotHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DebugServiceServer).Snapshot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + debugServiceName + "/Snapshot"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DebugServiceServer).Snapshot(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterDebugServiceServer registers srv with s, the hand-written
// analogue of a generated RegisterDebugServiceServer helper.
func RegisterDebugServiceServer(s grpc.ServiceRegistrar, srv DebugServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// DebugServiceClient is the read-only client stub.
type DebugServiceClient interface {
	Snapshot(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type debugServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewDebugServiceClient(cc grpc.ClientConnInterface) DebugServiceClient {
	return &debugServiceClient{cc: cc}
}

func (c *debugServiceClient) Snapshot(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+debugServiceName+"/Snapshot", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
