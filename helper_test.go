// ©The rad-go Authors 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rados_test

import (
	"fmt"
	"testing"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"

	rados "github.com/sdleffler/rad-go"
)

// fakeHandle is a hand-driven native completion handle: the test decides
// when each milestone fires, from whichever goroutine it likes.
type fakeHandle struct {
	acked     atomix.Uint32
	durable   atomix.Uint32
	status    atomix.Uint32
	releases  atomix.Uint32
	onAcked   func()
	onDurable func()
}

func (h *fakeHandle) Acked() bool   { return h.acked.Load() != 0 }
func (h *fakeHandle) Durable() bool { return h.durable.Load() != 0 }
func (h *fakeHandle) Status() int   { return int(int32(h.status.Load())) }
func (h *fakeHandle) Release()      { h.releases.Add(1) }

func (h *fakeHandle) Releases() int { return int(h.releases.Load()) }

// ack publishes the status and fires the acknowledged milestone, in the
// order the native layer guarantees: status first, flag, then hook.
func (h *fakeHandle) ack(status int) {
	h.status.Store(uint32(int32(status)))
	h.acked.Store(1)
	if h.onAcked != nil {
		h.onAcked()
	}
}

// persist fires the durable milestone.
func (h *fakeHandle) persist() {
	h.durable.Store(1)
	if h.onDurable != nil {
		h.onDurable()
	}
}

// fakeCompleter hands out fakeHandles and remembers the most recent one.
type fakeCompleter struct {
	last *fakeHandle
	err  error
}

func (f *fakeCompleter) NewCompletion(acked, durable func()) (rados.CompletionHandle, error) {
	if f.err != nil {
		return nil, f.err
	}
	h := &fakeHandle{onAcked: acked, onDurable: durable}
	f.last = h
	return h, nil
}

// echoFinalizer passes the payload through on success and wraps the raw
// status on failure. Used where the test cares about payload handoff rather
// than a specific operation's finalization.
type echoFinalizer[T any] struct{}

func (echoFinalizer[T]) Success(p T, _ int) T { return p }

func (echoFinalizer[T]) Failure(_ T, status int) (T, error) {
	var zero T
	return zero, fmt.Errorf("echo finalizer: raw status %d", status)
}

// submitEcho creates a payload-echoing completion over a fresh fake
// completer with an always-accepting init.
func submitEcho[T any](caution rados.Caution, payload T) (*fakeCompleter, *rados.Completion[T, T]) {
	dev := &fakeCompleter{}
	c, err := rados.Submit[T, T](dev, caution, payload, echoFinalizer[T]{}, func(rados.CompletionHandle) error {
		return nil
	})
	if err != nil {
		panic(err)
	}
	return dev, c
}

// pollPending asserts a single non-terminal poll.
func pollPending[T, O any](c *rados.Completion[T, O]) bool {
	_, err := c.Poll(nil)
	return err == iox.ErrWouldBlock
}

// memPool opens a pool context over a fresh, connected in-memory cluster.
// The cluster is shut down via the connection when the test finishes.
func memPool(tb testing.TB) *rados.Context {
	tb.Helper()
	conn, err := rados.NewConnection(rados.NewMemCluster()).Connect()
	if err != nil {
		tb.Fatal(err)
	}
	tb.Cleanup(func() { conn.Close() })
	ctx, err := conn.Pool("data")
	if err != nil {
		tb.Fatal(err)
	}
	return ctx
}
