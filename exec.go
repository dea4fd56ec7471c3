// ©The rad-go Authors 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rados

import (
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// aioHandler implements kont.Handler for completion effects. Waits past the
// iox.ErrWouldBlock boundary with adaptive backoff.
type aioHandler[R any] struct{}

// Dispatch implements kont.Handler via structural interface assertion.
func (aioHandler[R]) Dispatch(op kont.Operation) (kont.Resumed, bool) {
	aop, ok := op.(aioDispatcher)
	if !ok {
		panic("rados: unhandled effect in aioHandler")
	}
	return awaitWait(aop), true
}

// awaitWait blocks until DispatchAio succeeds, backing off on
// iox.ErrWouldBlock with iox.Backoff (I/O readiness waiting).
func awaitWait(aop aioDispatcher) kont.Resumed {
	var bo iox.Backoff
	for {
		v, err := aop.DispatchAio(nil)
		if err == nil {
			return v
		}
		bo.Wait()
	}
}

// Exec runs a completion protocol to its final value. Blocks on
// iox.ErrWouldBlock via adaptive backoff, without spawning goroutines or
// creating channels.
func Exec[R any](protocol kont.Eff[R]) R {
	return kont.Handle(protocol, aioHandler[R]{})
}

// ExecExpr runs an Expr-world completion protocol to its final value.
// Blocks on iox.ErrWouldBlock via adaptive backoff, without spawning
// goroutines or creating channels.
func ExecExpr[R any](protocol kont.Expr[R]) R {
	return kont.HandleExpr(protocol, aioHandler[R]{})
}

// aioErrorHandler handles both completion and error effects. Completion ops
// wait on ErrWouldBlock via iox.Backoff; error ops short-circuit on Throw.
type aioErrorHandler[E, A any] struct {
	errCtx *kont.ErrorContext[E]
}

// Dispatch implements kont.Handler for the composed Completion+Error
// handler. Dispatch order: Completion → Error.
func (h aioErrorHandler[E, A]) Dispatch(op kont.Operation) (kont.Resumed, bool) {
	if aop, ok := op.(aioDispatcher); ok {
		return awaitWait(aop), true
	}
	if eop, ok := op.(interface {
		DispatchError(ctx *kont.ErrorContext[E]) (kont.Resumed, bool)
	}); ok {
		v, _ := eop.DispatchError(h.errCtx)
		if h.errCtx.HasErr {
			return kont.Left[E, A](h.errCtx.Err), false
		}
		return v, true
	}
	panic("rados: unhandled effect in aioErrorHandler")
}

// ExecEither runs a completion protocol with error handling. Returns
// Either[E, R] — Right on success, Left on Throw. Blocks on
// iox.ErrWouldBlock via adaptive backoff, without spawning goroutines or
// creating channels.
func ExecEither[E, R any](protocol kont.Eff[R]) kont.Either[E, R] {
	wrapped := kont.Map[kont.Resumed, R, kont.Either[E, R]](protocol, func(r R) kont.Either[E, R] {
		return kont.Right[E, R](r)
	})
	var errCtx kont.ErrorContext[E]
	return kont.Handle(wrapped, aioErrorHandler[E, R]{errCtx: &errCtx})
}
