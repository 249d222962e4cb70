package apiclient

import (
	"context"
	"sync"
)

// Refresher mints a new access token from a refresh token. Implementations
// persist the new pair before returning.
type Refresher interface {
	RefreshAccessToken(ctx context.Context, refreshToken string) (string, error)
}

type RefresherFunc func(ctx context.Context, refreshToken string) (string, error)

func (f RefresherFunc) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	return f(ctx, refreshToken)
}

type refreshResult struct {
	access string
	err    error
}

type waiter struct {
	ctx    context.Context
	result chan refreshResult
}

// refreshCoordinator allows one refresh at a time. Callers that hit a 401 while
// a refresh is running queue up and receive its result in arrival order.
type refreshCoordinator struct {
	lock     sync.Mutex
	inFlight bool
	queue    []*waiter
}

func newRefreshCoordinator() *refreshCoordinator {
	return &refreshCoordinator{}
}

// do returns a fresh access token. current is checked under the lock first so
// a request that failed just after another refresh completed reuses its token.
func (rc *refreshCoordinator) do(
	ctx context.Context,
	current func(context.Context) (string, error),
	refresh func(context.Context) (string, error),
) (string, error) {
	rc.lock.Lock()
	if rc.inFlight {
		w := &waiter{ctx: ctx, result: make(chan refreshResult)}
		rc.queue = append(rc.queue, w)
		rc.lock.Unlock()

		select {
		case res := <-w.result:
			return res.access, res.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if access, err := current(ctx); err == nil && access != "" {
		rc.lock.Unlock()
		return access, nil
	}

	rc.inFlight = true
	rc.lock.Unlock()

	// The refresh outlives the caller that started it; queued requests depend on it.
	access, err := refresh(context.WithoutCancel(ctx))

	rc.lock.Lock()
	queue := rc.queue
	rc.queue = nil
	rc.inFlight = false
	rc.lock.Unlock()

	for _, w := range queue {
		select {
		case w.result <- refreshResult{access: access, err: err}:
		case <-w.ctx.Done():
		}
	}
	return access, err
}

// pending returns the number of queued waiters.
func (rc *refreshCoordinator) pending() int {
	rc.lock.Lock()
	defer rc.lock.Unlock()
	return len(rc.queue)
}
