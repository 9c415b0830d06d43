package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/admin-sessions/internal/lib/sl"
)

// Decision результат проверки лимита.
type Decision struct {
	Allowed    bool
	Count      int
	RetryAfter time.Duration
}

// LoginLimiter считает попытки входа на email в фиксированном окне.
// Ошибки Redis не блокируют вход: попытка пропускается и логируется.
type LoginLimiter struct {
	client   *redis.Client
	log      *slog.Logger
	attempts int
	window   time.Duration
	prefix   string
}

// NewLoginLimiter создаёт ограничитель. attempts <= 0 отключает ограничение.
func NewLoginLimiter(client *redis.Client, attempts int, window time.Duration, log *slog.Logger) *LoginLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &LoginLimiter{
		client:   client,
		log:      log,
		attempts: attempts,
		window:   window,
		prefix:   "login:attempts:",
	}
}

// Allow учитывает попытку для email и сообщает, разрешена ли она.
func (l *LoginLimiter) Allow(ctx context.Context, email string) Decision {
	if l == nil || l.attempts <= 0 {
		return Decision{Allowed: true}
	}
	key := l.prefix + strings.ToLower(strings.TrimSpace(email))

	var incr *redis.IntCmd
	var ttlCmd *redis.DurationCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttlCmd = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		l.log.Error("login limiter incr failed", sl.Err(err))
		return Decision{Allowed: true}
	}
	counter := incr.Val()
	ttl := ttlCmd.Val()

	// Ключ без срока жизни означает новое окно или неудачный EXPIRE прошлой попытки.
	if ttl < 0 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			l.log.Error("login limiter expire failed", sl.Err(err))
		}
		ttl = l.window
	}
	if ttl == 0 {
		ttl = time.Second
	}
	return Decision{
		Allowed:    int(counter) <= l.attempts,
		Count:      int(counter),
		RetryAfter: ttl,
	}
}

// Reset сбрасывает счётчик после успешного входа.
func (l *LoginLimiter) Reset(ctx context.Context, email string) error {
	if l == nil || l.attempts <= 0 {
		return nil
	}
	key := l.prefix + strings.ToLower(strings.TrimSpace(email))
	if err := l.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache.LoginLimiter.Reset: %w", err)
	}
	return nil
}
