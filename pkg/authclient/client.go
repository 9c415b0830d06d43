// Package authclient клиент шлюза аутентификации админки.
//
// Client хранит текущего пользователя, сессию и срок действия access-токена.
// Состояние меняют только Login, RefreshTokens, Logout и FetchCurrentUser
// (и Restore при загрузке сохранённой сессии). Одновременные обновления
// токена схлопываются RefreshCoordinator в один сетевой вызов.
package authclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const (
	defaultRetryDelay         = 5 * time.Second
	defaultMinRefreshInterval = time.Second
)

// State снимок состояния клиента.
type State struct {
	User            *UserSummary `json:"user,omitempty"`
	SessionID       string       `json:"sessionId,omitempty"`
	AccessToken     string       `json:"accessToken,omitempty"`
	RefreshMaterial string       `json:"refreshMaterial,omitempty"`
	ExpiresAt       time.Time    `json:"expiresAt"`
}

// LoggedIn сообщает, есть ли у клиента сессия.
func (s State) LoggedIn() bool {
	return s.SessionID != ""
}

// Option настраивает Client.
type Option func(*Client)

// WithClock подменяет часы.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithLogger задаёт логгер.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithRetryDelay задаёт паузу RunAutoRefresh после сетевой ошибки.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// WithMinRefreshInterval задаёт наименьшую паузу между обновлениями в RunAutoRefresh.
func WithMinRefreshInterval(d time.Duration) Option {
	return func(c *Client) { c.minRefresh = d }
}

// Client клиент шлюза аутентификации.
type Client struct {
	gateway    Gateway
	refresh    *RefreshCoordinator
	timeout    time.Duration
	retryDelay time.Duration
	minRefresh time.Duration
	now        func() time.Time
	log        *slog.Logger

	mu sync.Mutex
	// gen растёт при каждом входе, выходе и сбросе состояния.
	// Результаты запросов, начатых в другом поколении, отбрасываются.
	gen   uint64
	state State
}

// New создаёт клиента поверх gateway. timeout ограничивает каждый вызов шлюза.
func New(gateway Gateway, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		gateway:    gateway,
		refresh:    NewRefreshCoordinator(timeout),
		timeout:    timeout,
		retryDelay: defaultRetryDelay,
		minRefresh: defaultMinRefreshInterval,
		now:        time.Now,
		log:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig создаёт клиента с HTTPGateway.
func NewFromConfig(cfg *Config, opts ...Option) *Client {
	return New(NewHTTPGateway(cfg.APIBaseURL, &http.Client{}), cfg.Timeout, opts...)
}

// Login входит и сохраняет сессию. При ошибке состояние не меняется.
// Если во время входа случился выход, новая сессия закрывается и
// возвращается ErrLoggedOut.
func (c *Client) Login(ctx context.Context, email, password string) error {
	const op = "authclient.Login"

	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.gateway.Login(callCtx, email, password)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	loggedInAt := c.now()

	user, err := c.gateway.WhoAmI(callCtx, resp.AccessToken)
	if err != nil {
		c.discardSession(resp.SessionID)
		return fmt.Errorf("%s: %w", op, err)
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		c.discardSession(resp.SessionID)
		return fmt.Errorf("%s: %w", op, ErrLoggedOut)
	}
	c.gen++
	c.state = State{
		User:            user,
		SessionID:       resp.SessionID,
		AccessToken:     resp.AccessToken,
		RefreshMaterial: resp.RefreshMaterial,
		ExpiresAt:       loggedInAt.Add(time.Duration(resp.ExpiresInSeconds) * time.Second),
	}
	c.mu.Unlock()

	c.log.Info("logged in", slog.String("email", user.Email), slog.String("session_id", resp.SessionID))
	return nil
}

// discardSession закрывает сессию, которую не удалось довести до конца входа.
func (c *Client) discardSession(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := c.gateway.Logout(ctx, sessionID); err != nil {
		c.log.Warn("failed to discard half-open session", slog.String("error", err.Error()))
	}
}

// RefreshTokens обновляет access-токен. Одновременные вызовы делят один запрос
// и один результат. Истёкшая или отозванная сессия сбрасывает состояние.
func (c *Client) RefreshTokens(ctx context.Context) error {
	const op = "authclient.RefreshTokens"

	c.mu.Lock()
	gen := c.gen
	sessionID, material := c.state.SessionID, c.state.RefreshMaterial
	c.mu.Unlock()
	if sessionID == "" {
		return fmt.Errorf("%s: %w", op, ErrNotLoggedIn)
	}

	_, _, err := c.refresh.Do(ctx, strconv.FormatUint(gen, 10), func(callCtx context.Context) (any, error) {
		resp, err := c.gateway.Refresh(callCtx, sessionID, material)
		settledAt := c.now()

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gen != gen {
			return nil, ErrLoggedOut
		}
		if err != nil {
			if sessionEnded(err) {
				c.resetLocked()
			}
			return nil, err
		}
		c.state.AccessToken = resp.AccessToken
		c.state.ExpiresAt = settledAt.Add(time.Duration(resp.ExpiresInSeconds) * time.Second)
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Logout завершает сессию. Локальное состояние сбрасывается в любом случае,
// ошибка шлюза только возвращается вызывающему.
func (c *Client) Logout(ctx context.Context) error {
	const op = "authclient.Logout"

	c.mu.Lock()
	sessionID := c.state.SessionID
	c.resetLocked()
	c.mu.Unlock()

	if sessionID == "" {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.gateway.Logout(callCtx, sessionID); err != nil {
		c.log.Warn("logout request failed, local state cleared", slog.String("error", err.Error()))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FetchCurrentUser загружает пользователя по текущему токену. Просроченный
// access-токен сначала обновляется. Если сессия недействительна, состояние
// сбрасывается и возвращается (nil, nil). Сетевые ошибки возвращаются.
func (c *Client) FetchCurrentUser(ctx context.Context) (*UserSummary, error) {
	const op = "authclient.FetchCurrentUser"

	snap := c.Snapshot()
	if !snap.LoggedIn() {
		return nil, nil
	}

	if RemainingSeconds(snap.ExpiresAt, c.now()) == 0 {
		err := c.RefreshTokens(ctx)
		if sessionEnded(err) || errors.Is(err, ErrLoggedOut) || errors.Is(err, ErrNotLoggedIn) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	c.mu.Lock()
	gen, accessToken := c.gen, c.state.AccessToken
	c.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	user, err := c.gateway.WhoAmI(callCtx, accessToken)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return nil, nil
	}
	if errors.Is(err, ErrUnauthenticated) || sessionEnded(err) {
		c.resetLocked()
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.state.User = user
	cp := *user
	return &cp, nil
}

// Restore загружает сохранённое ранее состояние.
func (c *Client) Restore(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.state = s
	if s.User != nil {
		u := *s.User
		c.state.User = &u
	}
}

// Snapshot возвращает копию состояния.
func (c *Client) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// CurrentUser возвращает текущего пользователя или nil.
func (c *Client) CurrentUser() *UserSummary {
	return c.Snapshot().User
}

// RemainingSeconds секунды до истечения access-токена.
func (c *Client) RemainingSeconds() int64 {
	c.mu.Lock()
	expiresAt := c.state.ExpiresAt
	c.mu.Unlock()
	return RemainingSeconds(expiresAt, c.now())
}

// RemainingSeconds целые секунды от now до expiresAt, не меньше нуля.
func RemainingSeconds(expiresAt, now time.Time) int64 {
	if expiresAt.IsZero() || !expiresAt.After(now) {
		return 0
	}
	return int64(expiresAt.Sub(now) / time.Second)
}

// NextRefreshDelay пауза до следующего обновления токена. Обычно это время до
// expiresAt минус lead. Если токену осталось не больше lead, ждём половину
// остатка. Пауза не меньше floor.
func NextRefreshDelay(expiresAt, now time.Time, lead, floor time.Duration) time.Duration {
	remaining := expiresAt.Sub(now)
	wait := remaining - lead
	if remaining <= lead {
		wait = remaining / 2
	}
	if wait < floor {
		wait = floor
	}
	return wait
}

// RunAutoRefresh обновляет токен за lead до истечения. Завершается с nil,
// когда состояние сброшено, и с ошибкой контекста при его отмене.
func (c *Client) RunAutoRefresh(ctx context.Context, lead time.Duration) error {
	for {
		snap := c.Snapshot()
		if !snap.LoggedIn() {
			return nil
		}

		timer := time.NewTimer(NextRefreshDelay(snap.ExpiresAt, c.now(), lead, c.minRefresh))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		err := c.RefreshTokens(ctx)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return ctx.Err()
		case sessionEnded(err), errors.Is(err, ErrLoggedOut), errors.Is(err, ErrNotLoggedIn):
			c.log.Info("auto refresh stopped", slog.String("reason", err.Error()))
			return nil
		default:
			c.log.Warn("auto refresh failed, will retry", slog.String("error", err.Error()))
			retry := time.NewTimer(c.retryDelay)
			select {
			case <-ctx.Done():
				retry.Stop()
				return ctx.Err()
			case <-retry.C:
			}
		}
	}
}

func (c *Client) resetLocked() {
	c.gen++
	c.state = State{}
}
