package envserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Requests and responses are protobuf Structs so learners in any language can
// talk to the service without generated stubs.

const (
	// ServiceName is the fully qualified gRPC service name
	ServiceName = "moldmaze.env.v1.EnvService"

	CreateEnvFullMethodName    = "/" + ServiceName + "/CreateEnv"
	ResetFullMethodName        = "/" + ServiceName + "/Reset"
	StepFullMethodName         = "/" + ServiceName + "/Step"
	ForceTieFullMethodName     = "/" + ServiceName + "/ForceTie"
	ObserveFullMethodName      = "/" + ServiceName + "/Observe"
	ValidActionsFullMethodName = "/" + ServiceName + "/ValidActions"
	CloseEnvFullMethodName     = "/" + ServiceName + "/CloseEnv"
)

// EnvServiceServer is the server API for the environment service
type EnvServiceServer interface {
	CreateEnv(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Reset(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Step(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ForceTie(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Observe(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ValidActions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CloseEnv(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type envCall func(EnvServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call envCall) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(EnvServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(EnvServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// EnvService_ServiceDesc is the grpc.ServiceDesc for the environment service
var EnvService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EnvServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateEnv", Handler: unaryHandler(CreateEnvFullMethodName, EnvServiceServer.CreateEnv)},
		{MethodName: "Reset", Handler: unaryHandler(ResetFullMethodName, EnvServiceServer.Reset)},
		{MethodName: "Step", Handler: unaryHandler(StepFullMethodName, EnvServiceServer.Step)},
		{MethodName: "ForceTie", Handler: unaryHandler(ForceTieFullMethodName, EnvServiceServer.ForceTie)},
		{MethodName: "Observe", Handler: unaryHandler(ObserveFullMethodName, EnvServiceServer.Observe)},
		{MethodName: "ValidActions", Handler: unaryHandler(ValidActionsFullMethodName, EnvServiceServer.ValidActions)},
		{MethodName: "CloseEnv", Handler: unaryHandler(CloseEnvFullMethodName, EnvServiceServer.CloseEnv)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "moldmaze/env/v1/env.proto",
}

// RegisterEnvServiceServer registers srv with the gRPC server
func RegisterEnvServiceServer(s grpc.ServiceRegistrar, srv EnvServiceServer) {
	s.RegisterService(&EnvService_ServiceDesc, srv)
}

// EnvServiceClient is the client API for the environment service
type EnvServiceClient interface {
	CreateEnv(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Reset(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Step(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ForceTie(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Observe(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ValidActions(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	CloseEnv(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type envServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewEnvServiceClient creates a client on cc
func NewEnvServiceClient(cc grpc.ClientConnInterface) EnvServiceClient {
	return &envServiceClient{cc}
}

func (c *envServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *envServiceClient) CreateEnv(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, CreateEnvFullMethodName, in, opts)
}

func (c *envServiceClient) Reset(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ResetFullMethodName, in, opts)
}

func (c *envServiceClient) Step(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, StepFullMethodName, in, opts)
}

func (c *envServiceClient) ForceTie(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ForceTieFullMethodName, in, opts)
}

func (c *envServiceClient) Observe(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ObserveFullMethodName, in, opts)
}

func (c *envServiceClient) ValidActions(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ValidActionsFullMethodName, in, opts)
}

func (c *envServiceClient) CloseEnv(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, CloseEnvFullMethodName, in, opts)
}
