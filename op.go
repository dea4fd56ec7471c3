// ©The rad-go Authors 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rados

import (
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// aioDispatcher is the structural interface for completion effects.
// DispatchAio is non-blocking: it returns iox.ErrWouldBlock at the I/O
// boundary while the native operation is still in flight.
type aioDispatcher interface {
	DispatchAio(w Waker) (kont.Resumed, error)
}

// Await is the effect operation for awaiting a completion's outcome.
// Perform(Await[T, O]{C: c}) suspends the protocol until c is terminal and
// resumes with Either[error, O] — Right on success, Left carrying the
// finalized error. The completion's native handle is released on the
// terminal dispatch.
type Await[T, O any] struct {
	kont.Phantom[kont.Either[error, O]]
	C *Completion[T, O]
}

// DispatchAio polls the completion once. Non-blocking: returns
// iox.ErrWouldBlock while the operation is in flight, leaving the effect
// retryable.
func (a Await[T, O]) DispatchAio(w Waker) (kont.Resumed, error) {
	out, err := a.C.Poll(w)
	if err == iox.ErrWouldBlock {
		return nil, err
	}
	if err != nil {
		_ = a.C.Close()
		return kont.Left[error, O](err), nil
	}
	_ = a.C.Close()
	return kont.Right[error](out), nil
}

// AwaitBind awaits a completion and passes its outcome to f.
// Fuses Perform(Await{C: c}) + Bind.
func AwaitBind[T, O, B any](c *Completion[T, O], f func(kont.Either[error, O]) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(Await[T, O]{C: c}), f)
}

// AwaitDone awaits a completion and finishes the protocol with its outcome.
// Fuses Perform(Await{C: c}) + Pure.
func AwaitDone[T, O any](c *Completion[T, O]) kont.Eff[kont.Either[error, O]] {
	return kont.Perform(Await[T, O]{C: c})
}
