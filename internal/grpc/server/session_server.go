// Package server реализует gRPC-сервер проверки сессий для соседних сервисов.
//
// SessionServer делегирует проверку шлюзу аутентификации и сервису сессий,
// недействительные токены отдаёт кодом Unauthenticated с причиной в сообщении.
package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/magabrotheeeer/admin-sessions/internal/grpc/sessionrpc"
	"github.com/magabrotheeeer/admin-sessions/internal/lib/sl"
	"github.com/magabrotheeeer/admin-sessions/internal/models"
	"github.com/magabrotheeeer/admin-sessions/internal/services/auth"
	"github.com/magabrotheeeer/admin-sessions/internal/services/session"
)

// Identity определяет пользователя по access-токену.
type Identity interface {
	WhoAmI(ctx context.Context, accessToken string) (*models.UserSummary, error)
}

// Sessions проверяет сессию по её токену.
type Sessions interface {
	ValidateSession(ctx context.Context, sessionToken string) (*models.Session, error)
}

// SessionServer реализует sessionrpc.SessionValidatorServer.
type SessionServer struct {
	identity Identity
	sessions Sessions
	log      *slog.Logger
}

// NewSessionServer создаёт сервер.
func NewSessionServer(identity Identity, sessions Sessions, logger *slog.Logger) *SessionServer {
	return &SessionServer{
		identity: identity,
		sessions: sessions,
		log:      logger,
	}
}

// WhoAmI возвращает пользователя по access-токену.
func (s *SessionServer) WhoAmI(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	const op = "grpc.server.WhoAmI"
	log := s.log.With(slog.String("op", op))

	summary, err := s.identity.WhoAmI(ctx, in.GetValue())
	if err != nil {
		if code := auth.Code(err); code != "" {
			reason := session.Reason(err)
			if reason == "" {
				reason = code
			}
			return nil, status.Error(codes.Unauthenticated, reason)
		}
		log.Error("whoami failed", sl.Err(err))
		return nil, status.Error(codes.Internal, "internal error")
	}

	out, err := structpb.NewStruct(map[string]any{
		sessionrpc.FieldUserUID:   summary.UserUID,
		sessionrpc.FieldEmail:     summary.Email,
		sessionrpc.FieldRole:      string(summary.Role),
		sessionrpc.FieldSessionID: summary.SessionID,
	})
	if err != nil {
		log.Error("failed to build response", sl.Err(err))
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

// ValidateSession проверяет сессию по её токену.
func (s *SessionServer) ValidateSession(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	const op = "grpc.server.ValidateSession"
	log := s.log.With(slog.String("op", op))

	sess, err := s.sessions.ValidateSession(ctx, in.GetValue())
	if err != nil {
		if reason := session.Reason(err); reason != "" {
			return nil, status.Error(codes.Unauthenticated, reason)
		}
		log.Error("validate session failed", sl.Err(err))
		return nil, status.Error(codes.Internal, "internal error")
	}

	out, err := structpb.NewStruct(map[string]any{
		sessionrpc.FieldUserUID:   sess.UserUID,
		sessionrpc.FieldSessionID: sess.Token,
		sessionrpc.FieldExpiresAt: sess.ExpiresAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Error("failed to build response", sl.Err(err))
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}
