package akinator

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Call is the pending result of a call made through AsyncClient.
type Call[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Done is closed once the call has finished.
func (c *Call[T]) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the call finishes or ctx is done. Giving up on the wait
// does not cancel the call itself.
func (c *Call[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-c.done:
		return c.val, c.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Ready reports whether the call has finished.
func (c *Call[T]) Ready() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// AsyncClient runs Client calls in the background. Each call runs in its own
// goroutine under the context it was started with.
type AsyncClient struct {
	client *Client
	sem    *semaphore.Weighted
	wg     sync.WaitGroup
}

// NewAsync wraps c. maxInFlight bounds how many calls talk to the service at
// once; calls beyond it queue. Zero or less means no bound.
func NewAsync(c *Client, maxInFlight int) *AsyncClient {
	a := &AsyncClient{client: c}
	if maxInFlight > 0 {
		a.sem = semaphore.NewWeighted(int64(maxInFlight))
	}
	return a
}

func (a *AsyncClient) StartGame(ctx context.Context) *Call[Step] {
	return goCall(ctx, a, a.client.StartGame)
}

func (a *AsyncClient) Answer(ctx context.Context, id string, answer Answer) *Call[Step] {
	return goCall(ctx, a, func(ctx context.Context) (Step, error) {
		return a.client.Answer(ctx, id, answer)
	})
}

func (a *AsyncClient) Back(ctx context.Context, id string) *Call[Step] {
	return goCall(ctx, a, func(ctx context.Context) (Step, error) {
		return a.client.Back(ctx, id)
	})
}

func (a *AsyncClient) Exclude(ctx context.Context, id string) *Call[Step] {
	return goCall(ctx, a, func(ctx context.Context) (Step, error) {
		return a.client.Exclude(ctx, id)
	})
}

// Wait blocks until every call started so far has finished.
func (a *AsyncClient) Wait() {
	a.wg.Wait()
}

func goCall[T any](ctx context.Context, a *AsyncClient, fn func(context.Context) (T, error)) *Call[T] {
	call := &Call[T]{done: make(chan struct{})}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer close(call.done)

		if a.sem != nil {
			if err := a.sem.Acquire(ctx, 1); err != nil {
				call.err = err
				return
			}
			defer a.sem.Release(1)
		}

		call.val, call.err = fn(ctx)
	}()

	return call
}
