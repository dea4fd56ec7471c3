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

	rados "github.com/sdleffler/rad-go"
)

func TestSyncRoundTrip(t *testing.T) {
	skipRace(t)
	ctx := memPool(t)
	defer ctx.Close()

	if err := ctx.WriteFull("obj", []byte("hello")); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Append("obj", []byte(" world")); err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 64)
	n, err := ctx.Read("obj", buf, 0)
	if err != nil {
		t.Fatal(err)
	}
	if string(buf[:n]) != "hello world" {
		t.Fatalf("read back %q, want %q", buf[:n], "hello world")
	}

	st, err := ctx.Stat("obj")
	if err != nil {
		t.Fatal(err)
	}
	if st.Size != uint64(len("hello world")) {
		t.Fatalf("size got %d, want %d", st.Size, len("hello world"))
	}

	if err := ctx.Resize("obj", 5); err != nil {
		t.Fatal(err)
	}
	got, err := ctx.ReadFull("obj")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Fatalf("after resize read back %q, want %q", got, "hello")
	}

	ok, err := ctx.Exists("obj")
	if err != nil || !ok {
		t.Fatalf("exists got (%v, %v), want (true, nil)", ok, err)
	}
	if err := ctx.Remove("obj"); err != nil {
		t.Fatal(err)
	}
	ok, err = ctx.Exists("obj")
	if err != nil || ok {
		t.Fatalf("exists after remove got (%v, %v), want (false, nil)", ok, err)
	}
}

func TestSyncReadMissingObject(t *testing.T) {
	skipRace(t)
	ctx := memPool(t)
	defer ctx.Close()

	_, err := ctx.Read("ghost", make([]byte, 8), 0)
	if !errors.Is(err, syscall.ENOENT) {
		t.Fatalf("read of a missing object got %v, want ENOENT", err)
	}
}

func TestReadFullChunked(t *testing.T) {
	skipRace(t)
	ctx := memPool(t)
	defer ctx.Close()

	// Larger than one read chunk, so ReadFull has to loop.
	big := bytes.Repeat([]byte("0123456789abcdef"), 1024)
	if err := ctx.WriteFull("big", big); err != nil {
		t.Fatal(err)
	}
	got, err := ctx.ReadFull("big")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, big) {
		t.Fatalf("read back %d bytes, want %d and equal content", len(got), len(big))
	}
}

func TestXattrRoundTrip(t *testing.T) {
	skipRace(t)
	ctx := memPool(t)
	defer ctx.Close()

	if err := ctx.SetXattr("obj", "user.tag", []byte("alpha")); err != nil {
		t.Fatal(err)
	}
	v, err := ctx.GetXattr("obj", "user.tag")
	if err != nil {
		t.Fatal(err)
	}
	if string(v) != "alpha" {
		t.Fatalf("xattr got %q, want %q", v, "alpha")
	}

	_, err = ctx.GetXattr("obj", "user.other")
	if !errors.Is(err, syscall.ENODATA) {
		t.Fatalf("missing xattr got %v, want ENODATA", err)
	}
	_, err = ctx.GetXattr("ghost", "user.tag")
	if !errors.Is(err, syscall.ENOENT) {
		t.Fatalf("xattr on missing object got %v, want ENOENT", err)
	}
}

func TestAsyncWriteReadRoundTrip(t *testing.T) {
	skipRace(t)
	ctx := memPool(t)
	defer ctx.Close()

	wc, err := ctx.WriteAsync(rados.Acked, "obj", []byte("async payload"), 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wc.Wait(); err != nil {
		t.Fatal(err)
	}

	rc, err := ctx.ReadAsync("obj", make([]byte, 64), 0)
	if err != nil {
		t.Fatal(err)
	}
	got, err := rc.Wait()
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "async payload" {
		t.Fatalf("read back %q, want %q", got, "async payload")
	}
}

func TestAsyncAppendAndStat(t *testing.T) {
	skipRace(t)
	ctx := memPool(t)
	defer ctx.Close()

	for _, chunk := range []string{"one ", "two ", "three"} {
		ac, err := ctx.AppendAsync(rados.Acked, "log", []byte(chunk))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := ac.Wait(); err != nil {
			t.Fatal(err)
		}
	}

	sc, err := ctx.StatAsync("log")
	if err != nil {
		t.Fatal(err)
	}
	st, err := sc.Wait()
	if err != nil {
		t.Fatal(err)
	}
	if st.Size != uint64(len("one two three")) {
		t.Fatalf("size got %d, want %d", st.Size, len("one two three"))
	}
	if st.ModTime.IsZero() {
		t.Fatal("mtime not recorded")
	}
}

func TestAsyncExistsProbe(t *testing.T) {
	skipRace(t)
	ctx := memPool(t)
	defer ctx.Close()

	ec, err := ctx.ExistsAsync("obj")
	if err != nil {
		t.Fatal(err)
	}
	ok, err := ec.Wait()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("probe found an object that was never written")
	}

	if err := ctx.WriteFull("obj", []byte("x")); err != nil {
		t.Fatal(err)
	}
	ec, err = ctx.ExistsAsync("obj")
	if err != nil {
		t.Fatal(err)
	}
	ok, err = ec.Wait()
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("probe missed a written object")
	}
}

func TestAsyncRemove(t *testing.T) {
	skipRace(t)
	ctx := memPool(t)
	defer ctx.Close()

	if err := ctx.WriteFull("obj", []byte("doomed")); err != nil {
		t.Fatal(err)
	}
	dc, err := ctx.RemoveAsync(rados.Acked, "obj")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := dc.Wait(); err != nil {
		t.Fatal(err)
	}
	_, err = ctx.Read("obj", make([]byte, 8), 0)
	if !errors.Is(err, syscall.ENOENT) {
		t.Fatalf("read after async remove got %v, want ENOENT", err)
	}
}

func TestHeldDurabilityGatesDurableCaution(t *testing.T) {
	skipRace(t)
	mc := rados.NewMemCluster()
	mc.HoldDurability()
	conn, err := rados.NewConnection(mc).Connect()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	ctx, err := conn.Pool("data")
	if err != nil {
		t.Fatal(err)
	}
	defer ctx.Close()

	wc, err := ctx.WriteFullAsync(rados.Durable, "obj", []byte("held"))
	if err != nil {
		t.Fatal(err)
	}
	// Wait for the acknowledged milestone; the durable one is held back.
	var bo iox.Backoff
	for !wc.Acked() {
		bo.Wait()
	}
	if wc.Durable() {
		t.Fatal("write durable while durability is held")
	}
	if !pollPending(wc) {
		t.Fatal("durable-caution completion ready while only acknowledged")
	}

	mc.ReleaseDurability()
	if _, err := wc.Wait(); err != nil {
		t.Fatal(err)
	}
}

func TestReleaseDurabilityRacesCompletion(t *testing.T) {
	skipRace(t)
	mc := rados.NewMemCluster()
	conn, err := rados.NewConnection(mc).Connect()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	ctx, err := conn.Pool("data")
	if err != nil {
		t.Fatal(err)
	}
	defer ctx.Close()

	// The release may land before, during, or after the runtime finishes
	// the write. Whichever way the race goes, the acknowledged milestone
	// must be observable by the time the durable one is, and the wait must
	// terminate with the write's real outcome.
	for i := 0; i < 100; i++ {
		mc.HoldDurability()
		wc, err := ctx.WriteFullAsync(rados.Durable, "obj", []byte("held"))
		if err != nil {
			t.Fatal(err)
		}
		go mc.ReleaseDurability()
		if _, err := wc.Wait(); err != nil {
			t.Fatalf("round %d: %v", i, err)
		}
	}
}

func TestAsyncFlush(t *testing.T) {
	skipRace(t)
	ctx := memPool(t)
	defer ctx.Close()

	for i := 0; i < 8; i++ {
		wc, err := ctx.AppendAsync(rados.Acked, "obj", []byte("chunk "))
		if err != nil {
			t.Fatal(err)
		}
		defer wc.Close()
	}

	fc, err := ctx.FlushAsync()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fc.Wait(); err != nil {
		t.Fatal(err)
	}

	// FIFO completion: by the time the flush finished, all appends landed.
	got, err := ctx.ReadFull("obj")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 8*len("chunk ") {
		t.Fatalf("read back %d bytes after flush, want %d", len(got), 8*len("chunk "))
	}
}

func TestSyncFlushDrainsPending(t *testing.T) {
	skipRace(t)
	ctx := memPool(t)
	defer ctx.Close()

	var comps []*rados.WriteCompletion
	for i := 0; i < 4; i++ {
		wc, err := ctx.AppendAsync(rados.Acked, "obj", []byte("x"))
		if err != nil {
			t.Fatal(err)
		}
		comps = append(comps, wc)
	}
	if err := ctx.Flush(); err != nil {
		t.Fatal(err)
	}
	for _, wc := range comps {
		if !wc.Acked() {
			t.Fatal("flush returned with an unacknowledged operation")
		}
		wc.Close()
	}
	st, err := ctx.Stat("obj")
	if err != nil {
		t.Fatal(err)
	}
	if st.Size != 4 {
		t.Fatalf("size got %d, want 4", st.Size)
	}
}
