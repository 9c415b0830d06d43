// Package sessionrpc описывает внутренний gRPC-сервис проверки сессий.
//
// Сообщения строятся на стандартных well-known типах protobuf:
// запрос wrapperspb.StringValue с токеном, ответ structpb.Struct.
package sessionrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName полное имя сервиса.
const ServiceName = "admin.sessions.v1.SessionValidator"

// Методы сервиса.
const (
	MethodWhoAmI          = "WhoAmI"
	MethodValidateSession = "ValidateSession"
)

// Поля ответов.
const (
	FieldUserUID   = "userUid"
	FieldEmail     = "email"
	FieldRole      = "role"
	FieldSessionID = "sessionId"
	FieldExpiresAt = "expiresAt"
)

// FullMethod возвращает путь метода для Invoke.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// SessionValidatorServer серверная часть сервиса.
type SessionValidatorServer interface {
	// WhoAmI принимает access-токен и возвращает пользователя.
	WhoAmI(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error)
	// ValidateSession принимает токен сессии и возвращает её владельца и срок.
	ValidateSession(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error)
}

// RegisterSessionValidatorServer регистрирует реализацию на сервере.
func RegisterSessionValidatorServer(s grpc.ServiceRegistrar, srv SessionValidatorServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func unaryHandler(method string, call func(SessionValidatorServer, context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(wrapperspb.StringValue)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(SessionValidatorServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(SessionValidatorServer), ctx, req.(*wrapperspb.StringValue))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc описание сервиса для grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SessionValidatorServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler(MethodWhoAmI, SessionValidatorServer.WhoAmI),
		unaryHandler(MethodValidateSession, SessionValidatorServer.ValidateSession),
	},
	Streams: []grpc.StreamDesc{},
}
