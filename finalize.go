// ©The rad-go Authors 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rados

import (
	"syscall"
	"time"
)

// Finalizer translates a finished operation's raw native status into the
// operation's visible result. Different asynchronous operations differ only
// in their Finalizer; the poll state machine is shared, which keeps the
// caution and milestone handling in exactly one place.
//
// Exactly one of Success or Failure is invoked, exactly once, on the
// terminal poll. Failure may recover a value instead of reporting an error —
// an existence probe maps "not found" to a valid false.
type Finalizer[T, O any] interface {
	// Success builds the visible result from the reclaimed payload and the
	// non-negative raw status.
	Success(payload T, status int) O

	// Failure consumes the payload and the negative raw status, producing
	// either a recovered value or a typed error carrying the operation's
	// identifying context.
	Failure(payload T, status int) (O, error)
}

// FinishWrite finalizes an asynchronous write of Len bytes at offset Off.
type FinishWrite struct {
	OID string
	Len int
	Off uint64
}

func (f FinishWrite) Success(struct{}, int) struct{} { return struct{}{} }

func (f FinishWrite) Failure(_ struct{}, status int) (struct{}, error) {
	return struct{}{}, &OpError{Op: OpWrite, Async: true, OID: f.OID, Len: f.Len, Off: f.Off, Status: status}
}

// FinishWriteFull finalizes an asynchronous full overwrite.
type FinishWriteFull struct {
	OID string
	Len int
}

func (f FinishWriteFull) Success(struct{}, int) struct{} { return struct{}{} }

func (f FinishWriteFull) Failure(_ struct{}, status int) (struct{}, error) {
	return struct{}{}, &OpError{Op: OpWriteFull, Async: true, OID: f.OID, Len: f.Len, Status: status}
}

// FinishAppend finalizes an asynchronous append.
type FinishAppend struct {
	OID string
	Len int
}

func (f FinishAppend) Success(struct{}, int) struct{} { return struct{}{} }

func (f FinishAppend) Failure(_ struct{}, status int) (struct{}, error) {
	return struct{}{}, &OpError{Op: OpAppend, Async: true, OID: f.OID, Len: f.Len, Status: status}
}

// FinishRemove finalizes an asynchronous object removal.
type FinishRemove struct {
	OID string
}

func (f FinishRemove) Success(struct{}, int) struct{} { return struct{}{} }

func (f FinishRemove) Failure(_ struct{}, status int) (struct{}, error) {
	return struct{}{}, &OpError{Op: OpRemove, Async: true, OID: f.OID, Status: status}
}

// FinishFlush finalizes an asynchronous flush.
//
// Known backend limitation: some native versions report the flush status as
// success unconditionally. The raw status is passed through untouched rather
// than second-guessed.
type FinishFlush struct{}

func (FinishFlush) Success(struct{}, int) struct{} { return struct{}{} }

func (FinishFlush) Failure(_ struct{}, status int) (struct{}, error) {
	return struct{}{}, &OpError{Op: OpFlush, Async: true, Status: status}
}

// FinishRead finalizes an asynchronous read. The payload is the destination
// buffer, held by the bridge until the native side is guaranteed done
// writing into it; the success value is the buffer sliced to the byte count
// the raw status reports.
type FinishRead struct {
	OID string
	Off uint64
}

func (f FinishRead) Success(buf []byte, status int) []byte {
	if status > len(buf) {
		status = len(buf)
	}
	return buf[:status]
}

func (f FinishRead) Failure(buf []byte, status int) ([]byte, error) {
	return nil, &OpError{Op: OpRead, Async: true, OID: f.OID, Len: len(buf), Off: f.Off, Status: status}
}

// StatPayload is the native-written landing area for an asynchronous stat.
// It stays allocated until the completion finalizes, so the native side
// always has a stable destination for its two raw fields.
type StatPayload struct {
	Size  uint64
	MTime int64
}

// Stat describes a single object: its size in bytes and its last
// modification time.
type Stat struct {
	Size    uint64
	ModTime time.Time
}

// FinishStat finalizes an asynchronous stat, decoding the two raw fields
// into a structured Stat.
type FinishStat struct {
	OID string
}

func (f FinishStat) Success(p *StatPayload, _ int) Stat {
	return Stat{Size: p.Size, ModTime: time.Unix(p.MTime, 0)}
}

func (f FinishStat) Failure(_ *StatPayload, status int) (Stat, error) {
	return Stat{}, &OpError{Op: OpStat, Async: true, OID: f.OID, Status: status}
}

// FinishExists finalizes an existence probe, implemented natively as a stat.
// A "not found" status is not an error here: it is the probe's false answer.
type FinishExists struct {
	OID string
}

func (f FinishExists) Success(struct{}, int) bool { return true }

func (f FinishExists) Failure(_ struct{}, status int) (bool, error) {
	if status == -int(syscall.ENOENT) {
		return false, nil
	}
	return false, &OpError{Op: OpExists, Async: true, OID: f.OID, Status: status}
}
