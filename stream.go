// ©The rad-go Authors 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rados

import (
	"fmt"
	"io"
)

// Object is an [io.Reader], [io.Writer] and [io.Seeker] view of a single
// object. Writes are submitted asynchronously and collected; Flush blocks
// until every outstanding write has finished. Reads are synchronous. Seeking
// is local except for [io.SeekEnd], which stats the object.
//
// Like its Context, an Object is confined to one goroutine at a time.
type Object struct {
	ctx     *Context
	oid     string
	caution Caution
	off     uint64
	pending []*WriteCompletion
}

// Read reads from the current offset, advancing it by the bytes read.
func (o *Object) Read(p []byte) (int, error) {
	n, err := o.ctx.Read(o.oid, p, o.off)
	if err != nil {
		return 0, err
	}
	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	o.off += uint64(n)
	return n, nil
}

// Write submits an asynchronous write at the current offset and advances the
// offset. The write is not guaranteed complete until Flush returns.
func (o *Object) Write(p []byte) (int, error) {
	// WriteAsync needs the buffer stable until the operation completes;
	// io.Writer forbids retaining p. Copy before submitting.
	buf := append([]byte(nil), p...)
	cmpl, err := o.ctx.WriteAsync(o.caution, o.oid, buf, o.off)
	if err != nil {
		return 0, err
	}
	o.pending = append(o.pending, cmpl)
	o.off += uint64(len(p))
	return len(p), nil
}

// Flush waits on every outstanding asynchronous write. All completions are
// drained and released even when one of them fails; the first error wins.
func (o *Object) Flush() error {
	var first error
	for _, cmpl := range o.pending {
		if _, err := cmpl.Wait(); err != nil && first == nil {
			first = err
		}
	}
	o.pending = o.pending[:0]
	return first
}

// Seek sets the offset for the next Read or Write. SeekEnd stats the object
// to learn its current size.
func (o *Object) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = int64(o.off)
	case io.SeekEnd:
		stat, err := o.ctx.Stat(o.oid)
		if err != nil {
			return int64(o.off), err
		}
		base = int64(stat.Size)
	default:
		return int64(o.off), fmt.Errorf("rados: invalid seek whence %d", whence)
	}
	pos := base + offset
	if pos < 0 {
		return int64(o.off), fmt.Errorf("rados: seek to negative offset %d on object %q", pos, o.oid)
	}
	o.off = uint64(pos)
	return pos, nil
}
