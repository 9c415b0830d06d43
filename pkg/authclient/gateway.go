package authclient

import "context"

// LoginResponse ответ шлюза на вход.
type LoginResponse struct {
	AccessToken      string `json:"accessToken"`
	RefreshMaterial  string `json:"refreshMaterial"`
	SessionID        string `json:"sessionId"`
	ExpiresInSeconds int64  `json:"expiresInSeconds"`
}

// RefreshResponse ответ шлюза на обновление access-токена.
type RefreshResponse struct {
	AccessToken      string `json:"accessToken"`
	ExpiresInSeconds int64  `json:"expiresInSeconds"`
}

// UserSummary текущий пользователь.
type UserSummary struct {
	UserUID   string `json:"userUid"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	SessionID string `json:"sessionId"`
}

// Gateway вызовы шлюза аутентификации. Ошибки приводятся к ошибкам пакета.
type Gateway interface {
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	Refresh(ctx context.Context, sessionID, refreshMaterial string) (*RefreshResponse, error)
	Logout(ctx context.Context, sessionID string) error
	WhoAmI(ctx context.Context, accessToken string) (*UserSummary, error)
}
