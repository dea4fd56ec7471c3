// ©The rad-go Authors 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rados_test

import (
	"sync"
	"testing"

	"code.hybscloud.com/atomix"

	rados "github.com/sdleffler/rad-go"
)

func TestNotifierWakesRegisteredWaker(t *testing.T) {
	var n rados.Notifier
	woken := 0
	n.Register(func() { woken++ })
	n.Notify()
	if woken != 1 {
		t.Fatalf("waker fired %d times, want exactly 1", woken)
	}
}

func TestNotifierConsumesWakerOnNotify(t *testing.T) {
	// A notification consumes the parked waker; a second notification
	// without a new registration has nothing to fire.
	var n rados.Notifier
	woken := 0
	n.Register(func() { woken++ })
	n.Notify()
	n.Notify()
	if woken != 1 {
		t.Fatalf("waker fired %d times, want exactly 1", woken)
	}
}

func TestNotifierReplacesWaker(t *testing.T) {
	var n rados.Notifier
	var first, second int
	n.Register(func() { first++ })
	n.Register(func() { second++ })
	n.Notify()
	if first != 0 {
		t.Fatal("stale waker fired after replacement")
	}
	if second != 1 {
		t.Fatalf("current waker fired %d times, want exactly 1", second)
	}
}

func TestNotifierNotifyWithoutRegistration(t *testing.T) {
	var n rados.Notifier
	n.Notify() // must not panic or spin
}

func TestNotifierConcurrentRegisterNotify(t *testing.T) {
	// The lost-wakeup guarantee: when a notification races a registration,
	// some waker fires — either the parked one or, after the racing
	// registration observes the collision, the registering side's own.
	for i := 0; i < 1000; i++ {
		var n rados.Notifier
		var woken atomix.Uint32
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			n.Notify()
		}()
		n.Register(func() { woken.Add(1) })
		wg.Wait()
		if woken.Load() == 0 {
			// The notification landed before the registration parked
			// anything; the registration side must then re-check state, so
			// a follow-up notification reaches the parked waker.
			n.Notify()
		}
		if got := woken.Load(); got != 1 {
			t.Fatalf("round %d: waker fired %d times, want exactly 1", i, got)
		}
	}
}
