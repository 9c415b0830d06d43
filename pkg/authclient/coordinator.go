package authclient

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// RefreshCoordinator схлопывает одновременные обновления токена в один вызов.
//
// Первый вызывающий запускает функцию, остальные с тем же ключом ждут её
// результат. Общий вызов не зависит от отмены контекста отдельного
// ожидающего и ограничен только timeout. После завершения ключ забывается,
// и следующий Do начинает новый вызов.
type RefreshCoordinator struct {
	group   singleflight.Group
	timeout time.Duration
}

// NewRefreshCoordinator создаёт координатор.
func NewRefreshCoordinator(timeout time.Duration) *RefreshCoordinator {
	return &RefreshCoordinator{timeout: timeout}
}

// Do выполняет fn или присоединяется к уже идущему вызову с ключом key.
// shared true, если результат получен не только этим вызывающим.
func (c *RefreshCoordinator) Do(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (v any, shared bool, err error) {
	ch := c.group.DoChan(key, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return fn(callCtx)
	})

	select {
	case res := <-ch:
		return res.Val, res.Shared, res.Err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}
