package authclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu sync.Mutex

	loginErr  error
	whoAmIErr error
	logoutErr error

	loginGate  chan struct{}
	loginCalls atomic.Int32

	refreshErr   error
	refreshGate  chan struct{}
	refreshCalls atomic.Int32
	logoutCalls  atomic.Int32
	whoAmICalls  atomic.Int32

	accessTTL int64
	issued    int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{accessTTL: 900}
}

func (g *fakeGateway) Login(_ context.Context, email, password string) (*LoginResponse, error) {
	g.loginCalls.Add(1)
	if g.loginGate != nil {
		<-g.loginGate
	}
	if g.loginErr != nil {
		return nil, g.loginErr
	}
	if password != "correct" {
		return nil, ErrInvalidCredentials
	}
	return &LoginResponse{
		AccessToken:      g.nextToken(),
		RefreshMaterial:  "refresh-" + email,
		SessionID:        "session-1",
		ExpiresInSeconds: g.accessTTL,
	}, nil
}

func (g *fakeGateway) Refresh(ctx context.Context, sessionID, refreshMaterial string) (*RefreshResponse, error) {
	g.refreshCalls.Add(1)
	if g.refreshGate != nil {
		select {
		case <-g.refreshGate:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrNetworkTimeout, ctx.Err())
		}
	}
	if g.refreshErr != nil {
		return nil, g.refreshErr
	}
	return &RefreshResponse{AccessToken: g.nextToken(), ExpiresInSeconds: g.accessTTL}, nil
}

func (g *fakeGateway) Logout(context.Context, string) error {
	g.logoutCalls.Add(1)
	return g.logoutErr
}

func (g *fakeGateway) WhoAmI(_ context.Context, accessToken string) (*UserSummary, error) {
	g.whoAmICalls.Add(1)
	if g.whoAmIErr != nil {
		return nil, g.whoAmIErr
	}
	return &UserSummary{UserUID: "uid-1", Email: "a@example.com", Role: "admin", SessionID: "session-1"}, nil
}

func (g *fakeGateway) nextToken() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.issued++
	return fmt.Sprintf("access-%d", g.issued)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestClient(t *testing.T, gw Gateway) (*Client, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return New(gw, time.Second, WithClock(clock.Now)), clock
}

func TestClient_Login(t *testing.T) {
	tests := []struct {
		name      string
		password  string
		loginErr  error
		whoAmIErr error
		wantErr   error
		loggedIn  bool
		discarded int32
	}{
		{name: "success", password: "correct", loggedIn: true},
		{name: "wrong password", password: "nope", wantErr: ErrInvalidCredentials},
		{name: "rate limited", password: "correct", loginErr: ErrTooManyAttempts, wantErr: ErrTooManyAttempts},
		{name: "whoami fails after login", password: "correct", whoAmIErr: ErrTransport, wantErr: ErrTransport, discarded: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newFakeGateway()
			gw.loginErr = tt.loginErr
			gw.whoAmIErr = tt.whoAmIErr
			c, _ := newTestClient(t, gw)

			err := c.Login(context.Background(), "a@example.com", tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			snap := c.Snapshot()
			assert.Equal(t, tt.loggedIn, snap.LoggedIn())
			assert.Equal(t, tt.discarded, gw.logoutCalls.Load())
			if tt.loggedIn {
				assert.Equal(t, "a@example.com", snap.User.Email)
				assert.Equal(t, int64(900), c.RemainingSeconds())
			} else {
				assert.Nil(t, snap.User)
			}
		})
	}
}

func TestClient_RefreshTokens_SingleFlight(t *testing.T) {
	gw := newFakeGateway()
	c, _ := newTestClient(t, gw)
	require.NoError(t, c.Login(context.Background(), "a@example.com", "correct"))

	gw.refreshGate = make(chan struct{})
	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	started := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			started <- struct{}{}
			errs[i] = c.RefreshTokens(context.Background())
		}(i)
	}
	for i := 0; i < n; i++ {
		<-started
	}
	require.Eventually(t, func() bool { return gw.refreshCalls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(gw.refreshGate)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), gw.refreshCalls.Load())
	assert.Equal(t, "access-2", c.Snapshot().AccessToken)

	require.NoError(t, c.RefreshTokens(context.Background()))
	assert.Equal(t, int32(2), gw.refreshCalls.Load(), "settled refresh is not reused")
}

func TestClient_RefreshTokens_SessionEndedClearsState(t *testing.T) {
	for _, sentinel := range []error{ErrSessionExpired, ErrSessionRevoked} {
		t.Run(sentinel.Error(), func(t *testing.T) {
			gw := newFakeGateway()
			c, _ := newTestClient(t, gw)
			require.NoError(t, c.Login(context.Background(), "a@example.com", "correct"))

			gw.refreshErr = sentinel
			err := c.RefreshTokens(context.Background())
			assert.ErrorIs(t, err, sentinel)
			assert.False(t, c.Snapshot().LoggedIn())
			assert.Nil(t, c.CurrentUser())
		})
	}
}

func TestClient_RefreshTokens_TransportErrorKeepsState(t *testing.T) {
	gw := newFakeGateway()
	c, _ := newTestClient(t, gw)
	require.NoError(t, c.Login(context.Background(), "a@example.com", "correct"))

	gw.refreshErr = ErrTransport
	err := c.RefreshTokens(context.Background())
	assert.ErrorIs(t, err, ErrTransport)
	assert.True(t, c.Snapshot().LoggedIn())
	assert.Equal(t, "access-1", c.Snapshot().AccessToken)
}

func TestClient_RefreshTokens_NotLoggedIn(t *testing.T) {
	c, _ := newTestClient(t, newFakeGateway())
	assert.ErrorIs(t, c.RefreshTokens(context.Background()), ErrNotLoggedIn)
}

func TestClient_RefreshTokens_Timeout(t *testing.T) {
	gw := newFakeGateway()
	clock := &testClock{now: time.Now()}
	c := New(gw, 30*time.Millisecond, WithClock(clock.Now))
	require.NoError(t, c.Login(context.Background(), "a@example.com", "correct"))

	gw.refreshGate = make(chan struct{})
	err := c.RefreshTokens(context.Background())
	assert.ErrorIs(t, err, ErrNetworkTimeout)
	assert.True(t, c.Snapshot().LoggedIn())
}

func TestClient_LogoutDuringRefresh(t *testing.T) {
	gw := newFakeGateway()
	c, _ := newTestClient(t, gw)
	require.NoError(t, c.Login(context.Background(), "a@example.com", "correct"))

	gw.refreshGate = make(chan struct{})
	errCh := make(chan error, 1)
	go func() { errCh <- c.RefreshTokens(context.Background()) }()
	require.Eventually(t, func() bool { return gw.refreshCalls.Load() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, c.Logout(context.Background()))
	close(gw.refreshGate)

	assert.ErrorIs(t, <-errCh, ErrLoggedOut)
	snap := c.Snapshot()
	assert.False(t, snap.LoggedIn())
	assert.Empty(t, snap.AccessToken)
}

func TestClient_LogoutDuringLogin(t *testing.T) {
	gw := newFakeGateway()
	gw.loginGate = make(chan struct{})
	c, _ := newTestClient(t, gw)

	errCh := make(chan error, 1)
	go func() { errCh <- c.Login(context.Background(), "a@example.com", "correct") }()
	require.Eventually(t, func() bool { return gw.loginCalls.Load() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, c.Logout(context.Background()))
	close(gw.loginGate)

	assert.ErrorIs(t, <-errCh, ErrLoggedOut)
	assert.False(t, c.Snapshot().LoggedIn())
	assert.Equal(t, int32(1), gw.logoutCalls.Load(), "session opened by the late login is closed")
}

func TestClient_Logout(t *testing.T) {
	t.Run("gateway error still clears state", func(t *testing.T) {
		gw := newFakeGateway()
		gw.logoutErr = ErrTransport
		c, _ := newTestClient(t, gw)
		require.NoError(t, c.Login(context.Background(), "a@example.com", "correct"))

		err := c.Logout(context.Background())
		assert.ErrorIs(t, err, ErrTransport)
		assert.False(t, c.Snapshot().LoggedIn())
	})

	t.Run("without session is a no-op", func(t *testing.T) {
		gw := newFakeGateway()
		c, _ := newTestClient(t, gw)
		assert.NoError(t, c.Logout(context.Background()))
		assert.Equal(t, int32(0), gw.logoutCalls.Load())
	})
}

func TestClient_FetchCurrentUser(t *testing.T) {
	t.Run("not logged in", func(t *testing.T) {
		c, _ := newTestClient(t, newFakeGateway())
		user, err := c.FetchCurrentUser(context.Background())
		assert.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("valid token", func(t *testing.T) {
		gw := newFakeGateway()
		c, _ := newTestClient(t, gw)
		require.NoError(t, c.Login(context.Background(), "a@example.com", "correct"))

		user, err := c.FetchCurrentUser(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "uid-1", user.UserUID)
		assert.Equal(t, int32(0), gw.refreshCalls.Load())
	})

	t.Run("expired token is refreshed first", func(t *testing.T) {
		gw := newFakeGateway()
		c, clock := newTestClient(t, gw)
		require.NoError(t, c.Login(context.Background(), "a@example.com", "correct"))
		clock.Advance(16 * time.Minute)

		user, err := c.FetchCurrentUser(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, user)
		assert.Equal(t, int32(1), gw.refreshCalls.Load())
		assert.Equal(t, int64(900), c.RemainingSeconds())
	})

	t.Run("invalid session clears state", func(t *testing.T) {
		gw := newFakeGateway()
		c, _ := newTestClient(t, gw)
		require.NoError(t, c.Login(context.Background(), "a@example.com", "correct"))
		gw.whoAmIErr = ErrUnauthenticated

		user, err := c.FetchCurrentUser(context.Background())
		assert.NoError(t, err)
		assert.Nil(t, user)
		assert.False(t, c.Snapshot().LoggedIn())
	})

	t.Run("expired session on refresh", func(t *testing.T) {
		gw := newFakeGateway()
		c, clock := newTestClient(t, gw)
		require.NoError(t, c.Login(context.Background(), "a@example.com", "correct"))
		clock.Advance(time.Hour)
		gw.refreshErr = ErrSessionExpired

		user, err := c.FetchCurrentUser(context.Background())
		assert.NoError(t, err)
		assert.Nil(t, user)
		assert.False(t, c.Snapshot().LoggedIn())
	})

	t.Run("transport error is returned", func(t *testing.T) {
		gw := newFakeGateway()
		c, _ := newTestClient(t, gw)
		require.NoError(t, c.Login(context.Background(), "a@example.com", "correct"))
		gw.whoAmIErr = ErrTransport

		user, err := c.FetchCurrentUser(context.Background())
		assert.ErrorIs(t, err, ErrTransport)
		assert.Nil(t, user)
		assert.True(t, c.Snapshot().LoggedIn())
	})
}

func TestClient_SnapshotRestore(t *testing.T) {
	gw := newFakeGateway()
	c, clock := newTestClient(t, gw)
	require.NoError(t, c.Login(context.Background(), "a@example.com", "correct"))
	saved := c.Snapshot()

	other := New(gw, time.Second, WithClock(clock.Now))
	other.Restore(saved)
	assert.Equal(t, saved, other.Snapshot())

	saved.User.Email = "mutated@example.com"
	assert.Equal(t, "a@example.com", other.CurrentUser().Email)
}

func TestRemainingSeconds(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		expiresAt time.Time
		want      int64
	}{
		{name: "zero time", expiresAt: time.Time{}, want: 0},
		{name: "past", expiresAt: now.Add(-time.Second), want: 0},
		{name: "now", expiresAt: now, want: 0},
		{name: "fraction rounds down", expiresAt: now.Add(1500 * time.Millisecond), want: 1},
		{name: "fifteen minutes", expiresAt: now.Add(15 * time.Minute), want: 900},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RemainingSeconds(tt.expiresAt, now))
		})
	}
}

func TestNextRefreshDelay(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		expiresAt time.Time
		lead      time.Duration
		want      time.Duration
	}{
		{name: "long token waits until lead", expiresAt: now.Add(15 * time.Minute), lead: time.Minute, want: 14 * time.Minute},
		{name: "token shorter than lead waits half", expiresAt: now.Add(30 * time.Second), lead: time.Minute, want: 15 * time.Second},
		{name: "token equal to lead waits half", expiresAt: now.Add(time.Minute), lead: time.Minute, want: 30 * time.Second},
		{name: "almost expired uses floor", expiresAt: now.Add(500 * time.Millisecond), lead: time.Minute, want: time.Second},
		{name: "already expired uses floor", expiresAt: now.Add(-time.Minute), lead: time.Minute, want: time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextRefreshDelay(tt.expiresAt, now, tt.lead, time.Second))
		})
	}
}

func TestClient_RunAutoRefresh_ShortTokenDoesNotSpin(t *testing.T) {
	gw := newFakeGateway()
	gw.accessTTL = 1
	c := New(gw, time.Second, WithMinRefreshInterval(50*time.Millisecond))
	require.NoError(t, c.Login(context.Background(), "a@example.com", "correct"))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	err := c.RunAutoRefresh(ctx, time.Minute)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	// токен на 1с при lead в минуту: первое обновление через 500мс
	assert.Equal(t, int32(0), gw.refreshCalls.Load())
	assert.True(t, c.Snapshot().LoggedIn())
}

func TestClient_RunAutoRefresh_ExpiredTokenRefreshesAtFloorPace(t *testing.T) {
	gw := newFakeGateway()
	gw.accessTTL = 0
	c := New(gw, time.Second, WithMinRefreshInterval(50*time.Millisecond))
	require.NoError(t, c.Login(context.Background(), "a@example.com", "correct"))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_ = c.RunAutoRefresh(ctx, time.Minute)

	calls := gw.refreshCalls.Load()
	assert.GreaterOrEqual(t, calls, int32(1))
	assert.LessOrEqual(t, calls, int32(7))
}

func TestClient_RunAutoRefresh(t *testing.T) {
	t.Run("stops when session ends", func(t *testing.T) {
		gw := newFakeGateway()
		gw.accessTTL = 0
		c := New(gw, time.Second, WithMinRefreshInterval(time.Millisecond))
		require.NoError(t, c.Login(context.Background(), "a@example.com", "correct"))
		gw.refreshErr = ErrSessionRevoked

		err := c.RunAutoRefresh(context.Background(), time.Second)
		assert.NoError(t, err)
		assert.False(t, c.Snapshot().LoggedIn())
	})

	t.Run("retries after transport error until cancelled", func(t *testing.T) {
		gw := newFakeGateway()
		gw.accessTTL = 0
		c := New(gw, time.Second, WithRetryDelay(5*time.Millisecond), WithMinRefreshInterval(time.Millisecond))
		require.NoError(t, c.Login(context.Background(), "a@example.com", "correct"))
		gw.refreshErr = ErrTransport

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		err := c.RunAutoRefresh(ctx, time.Second)
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
		assert.Greater(t, gw.refreshCalls.Load(), int32(1))
		assert.True(t, c.Snapshot().LoggedIn())
	})
}
