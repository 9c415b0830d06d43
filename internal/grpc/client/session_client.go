// Package client клиент внутреннего gRPC-сервиса проверки сессий.
package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/magabrotheeeer/admin-sessions/internal/grpc/sessionrpc"
)

// ErrInvalid токен недействителен.
var ErrInvalid = errors.New("invalid session")

// InvalidError недействительный токен с причиной: NotFound, Revoked, Expired
// или Unauthenticated для неразобранного access-токена.
type InvalidError struct {
	Reason string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalid, e.Reason)
}

// Is позволяет сравнивать с ErrInvalid.
func (e *InvalidError) Is(target error) bool {
	return target == ErrInvalid
}

// Identity пользователь, которому принадлежит токен.
type Identity struct {
	UserUID   string
	Email     string
	Role      string
	SessionID string
	ExpiresAt time.Time
}

// SessionClient клиент SessionValidator.
type SessionClient struct {
	conn *grpc.ClientConn
}

// NewSessionClient создаёт клиента. Соединение устанавливается лениво.
func NewSessionClient(addr string, opts ...grpc.DialOption) (*SessionClient, error) {
	const op = "grpc.client.NewSessionClient"
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &SessionClient{conn: conn}, nil
}

// Close закрывает соединение.
func (c *SessionClient) Close() error {
	return c.conn.Close()
}

// WhoAmI возвращает пользователя по access-токену.
func (c *SessionClient) WhoAmI(ctx context.Context, accessToken string) (*Identity, error) {
	out, err := c.invoke(ctx, sessionrpc.MethodWhoAmI, accessToken)
	if err != nil {
		return nil, err
	}
	return &Identity{
		UserUID:   stringField(out, sessionrpc.FieldUserUID),
		Email:     stringField(out, sessionrpc.FieldEmail),
		Role:      stringField(out, sessionrpc.FieldRole),
		SessionID: stringField(out, sessionrpc.FieldSessionID),
	}, nil
}

// ValidateSession проверяет токен сессии.
func (c *SessionClient) ValidateSession(ctx context.Context, sessionToken string) (*Identity, error) {
	const op = "grpc.client.ValidateSession"
	out, err := c.invoke(ctx, sessionrpc.MethodValidateSession, sessionToken)
	if err != nil {
		return nil, err
	}
	expiresAt, err := time.Parse(time.RFC3339, stringField(out, sessionrpc.FieldExpiresAt))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Identity{
		UserUID:   stringField(out, sessionrpc.FieldUserUID),
		SessionID: stringField(out, sessionrpc.FieldSessionID),
		ExpiresAt: expiresAt,
	}, nil
}

func (c *SessionClient) invoke(ctx context.Context, method, value string) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	err := c.conn.Invoke(ctx, sessionrpc.FullMethod(method), wrapperspb.String(value), out)
	if err != nil {
		if st, ok := status.FromError(err); ok && st.Code() == codes.Unauthenticated {
			return nil, &InvalidError{Reason: st.Message()}
		}
		return nil, fmt.Errorf("grpc.client.%s: %w", method, err)
	}
	return out, nil
}

func stringField(s *structpb.Struct, key string) string {
	v, ok := s.GetFields()[key]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}
