package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName gRPC 服务全名
const ServiceName = "llcformation.onboarding.v1.OnboardingService"

// 方法全名
const (
	MethodSubmitApplication = "/" + ServiceName + "/SubmitApplication"
	MethodUploadDocument    = "/" + ServiceName + "/UploadDocument"
	MethodSubmitDocuments   = "/" + ServiceName + "/SubmitDocuments"
	MethodGetApplication    = "/" + ServiceName + "/GetApplication"
	MethodListApplications  = "/" + ServiceName + "/ListApplications"
	MethodTrackApplication  = "/" + ServiceName + "/TrackApplication"
	MethodApplyTransition   = "/" + ServiceName + "/ApplyTransition"
)

// OnboardingServer 请求和响应统一使用 google.protobuf.Struct，字段与 HTTP 接口的 JSON 一致
type OnboardingServer interface {
	SubmitApplication(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UploadDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitDocuments(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetApplication(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListApplications(context.Context, *structpb.Struct) (*structpb.Struct, error)
	TrackApplication(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ApplyTransition(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(OnboardingServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(OnboardingServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv.(OnboardingServer), ctx, req.(*structpb.Struct))
		})
	}
}

// ServiceDesc 手写的服务描述，等价于 protoc 生成的 _grpc.pb.go
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OnboardingServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SubmitApplication", Handler: unaryHandler(MethodSubmitApplication, OnboardingServer.SubmitApplication)},
		{MethodName: "UploadDocument", Handler: unaryHandler(MethodUploadDocument, OnboardingServer.UploadDocument)},
		{MethodName: "SubmitDocuments", Handler: unaryHandler(MethodSubmitDocuments, OnboardingServer.SubmitDocuments)},
		{MethodName: "GetApplication", Handler: unaryHandler(MethodGetApplication, OnboardingServer.GetApplication)},
		{MethodName: "ListApplications", Handler: unaryHandler(MethodListApplications, OnboardingServer.ListApplications)},
		{MethodName: "TrackApplication", Handler: unaryHandler(MethodTrackApplication, OnboardingServer.TrackApplication)},
		{MethodName: "ApplyTransition", Handler: unaryHandler(MethodApplyTransition, OnboardingServer.ApplyTransition)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "llcformation/onboarding/v1/onboarding.proto",
}

// RegisterOnboardingServer 注册服务实现
func RegisterOnboardingServer(s grpc.ServiceRegistrar, srv OnboardingServer) {
	s.RegisterService(&ServiceDesc, srv)
}
