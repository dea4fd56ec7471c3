// ©The rad-go Authors 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rados_test

import (
	"bytes"
	"errors"
	"syscall"
	"testing"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"

	rados "github.com/sdleffler/rad-go"
)

func TestExecAwaitImmediate(t *testing.T) {
	// Callback already fired: Exec drives the protocol without waiting.
	dev, c := submitEcho(rados.Acked, "value")
	dev.last.ack(0)

	out := rados.Exec(rados.AwaitDone(c))
	if !out.IsRight() {
		v, _ := out.GetLeft()
		t.Fatalf("expected Right, got Left %v", v)
	}
	v, _ := out.GetRight()
	if v != "value" {
		t.Fatalf("got %q, want %q", v, "value")
	}
	if n := dev.last.Releases(); n != 1 {
		t.Fatalf("handle released %d times, want exactly 1", n)
	}
}

func TestExecAwaitError(t *testing.T) {
	dev := &fakeCompleter{}
	c, err := rados.Submit[struct{}, struct{}](dev, rados.Acked, struct{}{},
		rados.FinishRemove{OID: "obj"},
		func(rados.CompletionHandle) error { return nil },
	)
	if err != nil {
		t.Fatal(err)
	}
	dev.last.ack(-int(syscall.ENOENT))

	out := rados.Exec(rados.AwaitDone(c))
	if !out.IsLeft() {
		t.Fatal("expected Left over a failed status")
	}
	e, _ := out.GetLeft()
	if !errors.Is(e, syscall.ENOENT) {
		t.Fatalf("error %v does not match ENOENT", e)
	}
}

func TestExecExprAwait(t *testing.T) {
	// Expr-world evaluation of the same protocol Exec drives in Cont-world.
	dev, c := submitEcho(rados.Acked, "expr")
	go func() {
		dev.last.ack(0)
	}()

	out := rados.ExecExpr(rados.Reify(rados.AwaitDone(c)))
	if !out.IsRight() {
		e, _ := out.GetLeft()
		t.Fatalf("expected Right, got Left %v", e)
	}
	v, _ := out.GetRight()
	if v != "expr" {
		t.Fatalf("got %q, want %q", v, "expr")
	}
	if n := dev.last.Releases(); n != 1 {
		t.Fatalf("handle released %d times, want exactly 1", n)
	}
}

func TestStepAdvance(t *testing.T) {
	// Step suspends at the in-flight operation; Advance retries past
	// iox.ErrWouldBlock without consuming the suspension.
	dev, c := submitEcho(rados.Acked, 7)
	expr := rados.Reify(rados.AwaitDone(c))

	_, susp := rados.Step(expr)
	if susp == nil {
		t.Fatal("protocol finished without suspending on the in-flight operation")
	}

	for i := 0; i < 3; i++ {
		_, next, err := rados.Advance(nil, susp)
		if err != iox.ErrWouldBlock {
			t.Fatalf("advance %d got %v, want pending", i, err)
		}
		susp = next
	}

	dev.last.ack(0)
	result, next, err := rados.Advance(nil, susp)
	if err != nil {
		t.Fatalf("advance after callback got %v, want completion", err)
	}
	if next != nil {
		t.Fatal("protocol left a trailing suspension")
	}
	if !result.IsRight() {
		t.Fatal("expected Right")
	}
	v, _ := result.GetRight()
	if v != 7 {
		t.Fatalf("got %d, want 7", v)
	}
}

func TestExecEitherThrow(t *testing.T) {
	out := rados.ExecEither[string, string](
		kont.ThrowError[string, string]("refused"),
	)
	if !out.IsLeft() {
		t.Fatal("expected Left after throw")
	}
	e, _ := out.GetLeft()
	if e != "refused" {
		t.Fatalf("got %q, want %q", e, "refused")
	}
}

func TestExecEitherSuccess(t *testing.T) {
	dev, c := submitEcho(rados.Acked, "ok")
	dev.last.ack(0)

	out := rados.ExecEither[string](kont.Bind(rados.AwaitDone(c),
		func(r kont.Either[error, string]) kont.Eff[string] {
			if r.IsLeft() {
				return kont.ThrowError[string, string]("await failed")
			}
			v, _ := r.GetRight()
			return kont.Pure(v + "!")
		},
	))
	if !out.IsRight() {
		e, _ := out.GetLeft()
		t.Fatalf("expected Right, got Left %q", e)
	}
	v, _ := out.GetRight()
	if v != "ok!" {
		t.Fatalf("got %q, want %q", v, "ok!")
	}
}

func TestAwaitBindChain(t *testing.T) {
	// Write then read back, sequenced in the effect world over the
	// in-memory cluster.
	skipRace(t)
	ctx := memPool(t)
	defer ctx.Close()

	payload := []byte("chained")
	wc, err := ctx.WriteFullAsync(rados.Acked, "obj", payload)
	if err != nil {
		t.Fatal(err)
	}

	protocol := rados.AwaitBind(wc, func(r kont.Either[error, struct{}]) kont.Eff[kont.Either[error, []byte]] {
		if r.IsLeft() {
			e, _ := r.GetLeft()
			return kont.Pure(kont.Left[error, []byte](e))
		}
		rc, err := ctx.ReadAsync("obj", make([]byte, len(payload)), 0)
		if err != nil {
			return kont.Pure(kont.Left[error, []byte](err))
		}
		return rados.AwaitDone(rc)
	})

	out := rados.Exec(protocol)
	if !out.IsRight() {
		e, _ := out.GetLeft()
		t.Fatalf("chain failed: %v", e)
	}
	got, _ := out.GetRight()
	if !bytes.Equal(got, payload) {
		t.Fatalf("read back %q, want %q", got, payload)
	}
}
