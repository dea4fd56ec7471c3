// ©The rad-go Authors 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rados

import (
	"code.hybscloud.com/kont"
)

// Step evaluates a completion protocol until the first pending operation.
// Returns (result, nil) on completion, or (zero, suspension) if suspended on
// an in-flight native operation.
func Step[R any](protocol kont.Expr[R]) (R, *kont.Suspension[R]) {
	return kont.StepExpr(protocol)
}

// Advance polls the suspended completion once. Non-blocking: returns
// iox.ErrWouldBlock while the native operation is in flight (the I/O
// boundary).
//
// On success (nil error), the suspension is consumed and the protocol
// advances to the next effect or to completion. On iox.ErrWouldBlock the
// suspension is unconsumed and may be retried after the waker fires or on
// the scheduler's next pass.
func Advance[R any](w Waker, susp *kont.Suspension[R]) (R, *kont.Suspension[R], error) {
	aop, ok := susp.Op().(aioDispatcher)
	if !ok {
		panic("rados: unhandled effect in Advance")
	}
	v, err := aop.DispatchAio(w)
	if err != nil {
		var zero R
		return zero, susp, err
	}
	result, next := susp.Resume(v)
	return result, next, nil
}
