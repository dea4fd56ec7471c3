// ©The rad-go Authors 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rados

import (
	"code.hybscloud.com/atomix"
)

// Waker wakes whatever is driving a pending [Completion]: a scheduler hook, a
// condition signal, or nothing at all for backoff-driven waiting. A Waker must
// be safe to call from the native callback thread and is invoked at most once
// per registration.
type Waker func()

// Notifier states. The slot is quiescent in wakerIdle; wakerRegistering and
// wakerNotifying mark a Register or Notify critical section in progress.
const (
	wakerIdle uint32 = iota
	wakerRegistering
	wakerNotifying
)

// Notifier is a single-slot handoff between the native callback thread and
// the poller. At most one waiter is registered at a time; each registration
// consumes at most one wake.
//
// Register must run before the readiness check on every poll. A Notify that
// arrives with no waiter registered is not buffered here — the structural
// readiness fact it announces (the result cell's share count, the native
// milestone flags) is what the next registered poll observes. Registering
// first is what closes the lost-wakeup window: a wake that lands between
// registration and the readiness check is delivered to the registered waker.
//
// The zero Notifier is ready for use. Register is single-caller; Notify may
// race Register from any thread.
type Notifier struct {
	state atomix.Uint32
	waker Waker
}

// Register installs w as the current waiter.
//
// If a Notify is in flight on another thread, the notification is consumed
// locally by waking w immediately: the poller re-checks readiness on the
// resulting poll, so a spurious wake is harmless while a swallowed one is not.
func (n *Notifier) Register(w Waker) {
	if !n.state.CompareAndSwap(wakerIdle, wakerRegistering) {
		// A concurrent Notify holds the slot. It is completing against the
		// previous registration; consume the wake on behalf of this one.
		if w != nil {
			w()
		}
		return
	}
	n.waker = w
	if n.state.CompareAndSwap(wakerRegistering, wakerIdle) {
		return
	}
	// Notify hit the registration window and deferred delivery to us.
	n.waker = nil
	n.state.Store(wakerIdle)
	if w != nil {
		w()
	}
}

// Notify wakes the registered waiter, if any, at most once. The caller must
// publish the readiness fact (drop the cell share, set the milestone flag)
// before notifying: the woken poll must be able to observe it.
func (n *Notifier) Notify() {
	for {
		switch n.state.Load() {
		case wakerIdle:
			if !n.state.CompareAndSwap(wakerIdle, wakerNotifying) {
				continue
			}
			w := n.waker
			n.waker = nil
			n.state.Store(wakerIdle)
			if w != nil {
				w()
			}
			return
		case wakerRegistering:
			// Defer to the in-flight Register: observing this state, it
			// wakes its own waker instead of parking it.
			if n.state.CompareAndSwap(wakerRegistering, wakerNotifying) {
				return
			}
		default:
			// Another Notify is in flight; at most one wake is live per
			// registration, nothing to add.
			return
		}
	}
}
