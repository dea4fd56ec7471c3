// ©The rad-go Authors 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rados

import (
	"code.hybscloud.com/atomix"
)

// cellShares is the share count at creation: one share for the future side,
// one captured into the native callback.
const cellShares = 2

// cell is the shared-ownership container for a completion's payload. The
// share count is the only signal that the native callback has fired; it is
// never inferred from elapsed time or poll count. The payload is mutated, if
// at all, only by the native operation before the callback fires; afterwards
// only the future side touches it.
type cell[T any] struct {
	shares  atomix.Uint32
	payload T
}

func newCell[T any](payload T) *cell[T] {
	c := &cell[T]{payload: payload}
	c.shares.Store(cellShares)
	return c
}

// drop releases the callback side's share. Dropping against a cell whose
// future side has already been abandoned is safe: it only lowers the count on
// an allocation nothing else reads.
func (c *cell[T]) drop() {
	c.shares.Add(^uint32(0))
}

// reclaim attempts to take sole ownership of the payload. It succeeds only
// once the callback side has dropped its share, which the callback does
// before notifying.
func (c *cell[T]) reclaim() (T, bool) {
	if c.shares.Load() != 1 {
		var zero T
		return zero, false
	}
	return c.payload, true
}
