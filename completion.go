// ©The rad-go Authors 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rados

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
)

// Completion bridges one native asynchronous operation to a cooperatively
// polled future.
//
// Lifecycle: constructed by [Submit] → zero or more non-terminal polls, each
// re-registering the waiter → exactly one terminal poll yielding the
// finalized outcome → [Completion.Close], which always releases the native
// handle whether or not a terminal poll ever happened.
//
// A Completion is confined to a single polling goroutine; the native
// callbacks may fire from any thread.
type Completion[T, O any] struct {
	notifier Notifier
	cell     *cell[T]
	handle   CompletionHandle
	caution  Caution
	fin      Finalizer[T, O]
	released atomix.Uint32
}

// Submit creates a native completion with registered milestone hooks, hands
// ownership of payload to the bridge, and invokes init with the fresh handle
// to start the actual native operation. init returns an error if the native
// submission is rejected synchronously; the just-created handle is released
// before the error propagates, so no path leaks native resources.
//
// The callback shares are reachable from the native runtime thread the
// instant NewCompletion returns, before init even runs. That window is safe:
// the hooks never touch the payload's contents, only its ownership share and
// the notifier.
func Submit[T, O any](dev Completer, caution Caution, payload T, fin Finalizer[T, O], init func(CompletionHandle) error) (*Completion[T, O], error) {
	c := &Completion[T, O]{
		cell:    newCell(payload),
		caution: caution,
		fin:     fin,
	}
	// Hook ordering is mandatory: drop the callback share, then notify.
	// The woken poller must observe a share count low enough to reclaim
	// sole ownership; notifying first would strand the operation as
	// pending until some unrelated wake.
	handle, err := dev.NewCompletion(
		func() {
			c.cell.drop()
			c.notifier.Notify()
		},
		c.notifier.Notify,
	)
	if err != nil {
		return nil, err
	}
	c.handle = handle
	if err := init(handle); err != nil {
		handle.Release()
		return nil, err
	}
	return c, nil
}

// Poll drives the bridge one step. The waker is registered before any
// readiness check — register-then-check is what makes a wake racing the poll
// observable. w may be nil when the caller waits by backoff instead of by
// wakeup.
//
// Poll returns iox.ErrWouldBlock while the operation is in flight. Exactly
// one call returns a terminal outcome; polling again after that is a
// programming error and panics.
func (c *Completion[T, O]) Poll(w Waker) (O, error) {
	var zero O
	if c.fin == nil {
		panic("rados: completion polled after terminal outcome")
	}
	c.notifier.Register(w)

	acked := c.handle.Acked()
	durable := c.handle.Durable()
	if !acked && !durable {
		// The native layer has not necessarily written the status yet;
		// reading it before either milestone is disallowed.
		return zero, iox.ErrWouldBlock
	}

	status := c.handle.Status()
	if status < 0 {
		// An error is safe to finalize once any milestone fired, even
		// under Durable caution: a failed operation never becomes durable.
		payload, ok := c.cell.reclaim()
		if !ok {
			return zero, iox.ErrWouldBlock
		}
		return c.finalize().Failure(payload, status)
	}

	if c.caution == Durable && !durable {
		return zero, iox.ErrWouldBlock
	}
	payload, ok := c.cell.reclaim()
	if !ok {
		return zero, iox.ErrWouldBlock
	}
	return c.finalize().Success(payload, status), nil
}

// finalize takes the one-shot finalizer; the nil check at the top of Poll
// rejects a second terminal poll.
func (c *Completion[T, O]) finalize() Finalizer[T, O] {
	fin := c.fin
	c.fin = nil
	return fin
}

// Wait blocks until the operation reaches a terminal outcome, then releases
// the native handle. Waiting uses adaptive backoff (iox.Backoff) rather than
// goroutines or channels, mirroring how the non-blocking dispatch boundary
// is waited out elsewhere in this package.
func (c *Completion[T, O]) Wait() (O, error) {
	defer c.Close()
	var bo iox.Backoff
	for {
		out, err := c.Poll(nil)
		if err != iox.ErrWouldBlock {
			return out, err
		}
		bo.Wait()
	}
}

// Acked reports whether the cluster has accepted the operation into memory.
func (c *Completion[T, O]) Acked() bool { return c.handle.Acked() }

// Durable reports whether the operation has been persisted to stable
// storage.
func (c *Completion[T, O]) Durable() bool { return c.handle.Durable() }

// Close releases the native completion handle. Exactly one native release
// happens no matter how many times Close is called. Closing a still-pending
// completion is a supported cancellation path: the payload is abandoned to
// the callback side, whose only action is dropping its own share.
func (c *Completion[T, O]) Close() error {
	if c.released.CompareAndSwap(0, 1) {
		c.handle.Release()
	}
	return nil
}
