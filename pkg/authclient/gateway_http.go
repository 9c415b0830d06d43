package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
)

// HTTPGateway реализует Gateway поверх HTTP API шлюза.
type HTTPGateway struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPGateway создаёт HTTPGateway. Таймауты задаются контекстом вызова.
func NewHTTPGateway(baseURL string, httpClient *http.Client) *HTTPGateway {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &HTTPGateway{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Login выполняет POST /v1/auth/login.
func (g *HTTPGateway) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	err := g.do(ctx, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, http.StatusOK, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh выполняет POST /v1/auth/refresh.
func (g *HTTPGateway) Refresh(ctx context.Context, sessionID, refreshMaterial string) (*RefreshResponse, error) {
	var out RefreshResponse
	err := g.do(ctx, http.MethodPost, "/v1/auth/refresh", "", map[string]string{
		"sessionId":       sessionID,
		"refreshMaterial": refreshMaterial,
	}, http.StatusOK, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout выполняет POST /v1/auth/logout.
func (g *HTTPGateway) Logout(ctx context.Context, sessionID string) error {
	return g.do(ctx, http.MethodPost, "/v1/auth/logout", "", map[string]string{
		"sessionId": sessionID,
	}, http.StatusNoContent, nil)
}

// WhoAmI выполняет GET /v1/auth/me.
func (g *HTTPGateway) WhoAmI(ctx context.Context, accessToken string) (*UserSummary, error) {
	var out UserSummary
	if err := g.do(ctx, http.MethodGet, "/v1/auth/me", accessToken, nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type errorBody struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func (g *HTTPGateway) do(ctx context.Context, method, path, bearer string, body any, want int, out any) error {
	var reader io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("%w: %w", ErrTransport, err)
		}
		reader = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		var eb errorBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		if mapped := errorForCode(eb.Error); mapped != nil && resp.StatusCode < http.StatusInternalServerError {
			return mapped
		}
		return &APIError{Status: resp.StatusCode, Code: eb.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return transportError(err)
	}
	return nil
}

func transportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", ErrNetworkTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}
