// ©The rad-go Authors 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rados

import (
	"syscall"
	"time"

	"code.hybscloud.com/atomix"
)

// readBufferSize is the chunk size for ReadFull and xattr reads.
const readBufferSize = 4096

// Completion shapes produced by Context's asynchronous operations.
type (
	// WriteCompletion is the completion of a mutation with no result payload:
	// write, full-write, append, remove, flush.
	WriteCompletion = Completion[struct{}, struct{}]
	// ReadCompletion carries the destination buffer and yields it, sliced to
	// the bytes actually read.
	ReadCompletion = Completion[[]byte, []byte]
	// StatCompletion yields a decoded Stat.
	StatCompletion = Completion[*StatPayload, Stat]
	// ExistsCompletion yields an existence probe's answer.
	ExistsCompletion = Completion[struct{}, bool]
)

// Context wraps one pool I/O context. A Context must be confined to a single
// goroutine at a time, though it may be freely handed between goroutines.
// Each Context counts as a reference against the cluster handle.
type Context struct {
	ref    *clusterRef
	dev    IOContextDevice
	pool   string
	logger Logger
	closed atomix.Uint32
}

// Close destroys the native context and releases its cluster reference.
// Idempotent.
func (c *Context) Close() error {
	if c.closed.CompareAndSwap(0, 1) {
		c.logger.Debug("pool context closed", Fields{"pool": c.pool})
		c.dev.Destroy()
		c.ref.release()
	}
	return nil
}

// Write writes b to the object at the given offset.
func (c *Context) Write(oid string, b []byte, off uint64) error {
	if status := c.dev.Write(oid, b, off); status < 0 {
		return &OpError{Op: OpWrite, OID: oid, Len: len(b), Off: off, Status: status}
	}
	return nil
}

// WriteFull replaces the object's entire contents with b.
func (c *Context) WriteFull(oid string, b []byte) error {
	if status := c.dev.WriteFull(oid, b); status < 0 {
		return &OpError{Op: OpWriteFull, OID: oid, Len: len(b), Status: status}
	}
	return nil
}

// Append appends b to the object.
func (c *Context) Append(oid string, b []byte) error {
	if status := c.dev.Append(oid, b); status < 0 {
		return &OpError{Op: OpAppend, OID: oid, Len: len(b), Status: status}
	}
	return nil
}

// Read reads into b from the object at the given offset, returning the
// number of bytes read. Zero bytes past the end of the object is not an
// error at this layer.
func (c *Context) Read(oid string, b []byte, off uint64) (int, error) {
	status := c.dev.Read(oid, b, off)
	if status < 0 {
		return 0, &OpError{Op: OpRead, OID: oid, Len: len(b), Off: off, Status: status}
	}
	return status, nil
}

// ReadFull reads the object's entire contents, chunk by chunk.
func (c *Context) ReadFull(oid string) ([]byte, error) {
	var out []byte
	buf := make([]byte, readBufferSize)
	var off uint64
	for {
		n, err := c.Read(oid, buf, off)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return out, nil
		}
		out = append(out, buf[:n]...)
		off += uint64(n)
	}
}

// Remove deletes the object.
func (c *Context) Remove(oid string) error {
	if status := c.dev.Remove(oid); status < 0 {
		return &OpError{Op: OpRemove, OID: oid, Status: status}
	}
	return nil
}

// Resize resizes the object, zero-filling when growing.
func (c *Context) Resize(oid string, size uint64) error {
	if status := c.dev.Resize(oid, size); status < 0 {
		return &OpError{Op: OpResize, OID: oid, Off: size, Status: status}
	}
	return nil
}

// Stat fetches the object's size and last modification time.
func (c *Context) Stat(oid string) (Stat, error) {
	var size uint64
	var mtime int64
	if status := c.dev.Stat(oid, &size, &mtime); status < 0 {
		return Stat{}, &OpError{Op: OpStat, OID: oid, Status: status}
	}
	return Stat{Size: size, ModTime: time.Unix(mtime, 0)}, nil
}

// Exists reports whether the object exists, treating "not found" as a valid
// false rather than an error.
func (c *Context) Exists(oid string) (bool, error) {
	var size uint64
	var mtime int64
	status := c.dev.Stat(oid, &size, &mtime)
	switch {
	case status == -int(syscall.ENOENT):
		return false, nil
	case status < 0:
		return false, &OpError{Op: OpExists, OID: oid, Status: status}
	default:
		return true, nil
	}
}

// GetXattr fetches an extended attribute of the object.
func (c *Context) GetXattr(oid, key string) ([]byte, error) {
	buf := make([]byte, readBufferSize)
	status := c.dev.GetXattr(oid, key, buf)
	if status < 0 {
		return nil, &OpError{Op: OpGetXattr, OID: oid, Key: key, Status: status}
	}
	return buf[:status], nil
}

// SetXattr sets an extended attribute on the object.
func (c *Context) SetXattr(oid, key string, value []byte) error {
	if status := c.dev.SetXattr(oid, key, value); status < 0 {
		return &OpError{Op: OpSetXattr, OID: oid, Key: key, Len: len(value), Status: status}
	}
	return nil
}

// Flush blocks until every previously submitted asynchronous operation on
// this context has completed.
func (c *Context) Flush() error {
	if status := c.dev.Flush(); status < 0 {
		return &OpError{Op: OpFlush, Status: status}
	}
	return nil
}

// WriteAsync asynchronously writes b to the object at the given offset.
// b must stay valid and unmodified until the completion finalizes; the
// native layer reads it at an unspecified later point.
func (c *Context) WriteAsync(caution Caution, oid string, b []byte, off uint64) (*WriteCompletion, error) {
	c.logger.Debug("aio write", Fields{"oid": oid, "len": len(b), "off": off, "caution": caution.String()})
	fin := FinishWrite{OID: oid, Len: len(b), Off: off}
	return Submit[struct{}, struct{}](c.dev, caution, struct{}{}, fin, func(h CompletionHandle) error {
		if status := c.dev.AioWrite(oid, h, b, off); status < 0 {
			return &OpError{Op: OpWrite, Async: true, OID: oid, Len: len(b), Off: off, Status: status}
		}
		return nil
	})
}

// WriteFullAsync asynchronously replaces the object's entire contents.
// b must stay valid and unmodified until the completion finalizes.
func (c *Context) WriteFullAsync(caution Caution, oid string, b []byte) (*WriteCompletion, error) {
	c.logger.Debug("aio write-full", Fields{"oid": oid, "len": len(b), "caution": caution.String()})
	fin := FinishWriteFull{OID: oid, Len: len(b)}
	return Submit[struct{}, struct{}](c.dev, caution, struct{}{}, fin, func(h CompletionHandle) error {
		if status := c.dev.AioWriteFull(oid, h, b); status < 0 {
			return &OpError{Op: OpWriteFull, Async: true, OID: oid, Len: len(b), Status: status}
		}
		return nil
	})
}

// AppendAsync asynchronously appends b to the object. b must stay valid and
// unmodified until the completion finalizes.
func (c *Context) AppendAsync(caution Caution, oid string, b []byte) (*WriteCompletion, error) {
	c.logger.Debug("aio append", Fields{"oid": oid, "len": len(b), "caution": caution.String()})
	fin := FinishAppend{OID: oid, Len: len(b)}
	return Submit[struct{}, struct{}](c.dev, caution, struct{}{}, fin, func(h CompletionHandle) error {
		if status := c.dev.AioAppend(oid, h, b); status < 0 {
			return &OpError{Op: OpAppend, Async: true, OID: oid, Len: len(b), Status: status}
		}
		return nil
	})
}

// RemoveAsync asynchronously deletes the object.
func (c *Context) RemoveAsync(caution Caution, oid string) (*WriteCompletion, error) {
	c.logger.Debug("aio remove", Fields{"oid": oid, "caution": caution.String()})
	fin := FinishRemove{OID: oid}
	return Submit[struct{}, struct{}](c.dev, caution, struct{}{}, fin, func(h CompletionHandle) error {
		if status := c.dev.AioRemove(oid, h); status < 0 {
			return &OpError{Op: OpRemove, Async: true, OID: oid, Status: status}
		}
		return nil
	})
}

// ReadAsync asynchronously reads into b from the object at the given offset.
// The buffer is owned by the bridge until the completion finalizes. Reads
// have no durability milestone, so the caution level is fixed to Acked
// regardless of what the caller would request.
func (c *Context) ReadAsync(oid string, b []byte, off uint64) (*ReadCompletion, error) {
	c.logger.Debug("aio read", Fields{"oid": oid, "len": len(b), "off": off})
	fin := FinishRead{OID: oid, Off: off}
	return Submit[[]byte, []byte](c.dev, Acked, b, fin, func(h CompletionHandle) error {
		if status := c.dev.AioRead(oid, h, b, off); status < 0 {
			return &OpError{Op: OpRead, Async: true, OID: oid, Len: len(b), Off: off, Status: status}
		}
		return nil
	})
}

// StatAsync asynchronously fetches the object's size and modification time.
// Stats gate on Acked: like reads, they have no durability milestone.
func (c *Context) StatAsync(oid string) (*StatCompletion, error) {
	c.logger.Debug("aio stat", Fields{"oid": oid})
	payload := &StatPayload{}
	fin := FinishStat{OID: oid}
	return Submit[*StatPayload, Stat](c.dev, Acked, payload, fin, func(h CompletionHandle) error {
		if status := c.dev.AioStat(oid, h, &payload.Size, &payload.MTime); status < 0 {
			return &OpError{Op: OpStat, Async: true, OID: oid, Status: status}
		}
		return nil
	})
}

// ExistsAsync asynchronously probes for the object's existence via a stat
// with no landing area, mapping "not found" to false.
func (c *Context) ExistsAsync(oid string) (*ExistsCompletion, error) {
	c.logger.Debug("aio exists", Fields{"oid": oid})
	fin := FinishExists{OID: oid}
	return Submit[struct{}, bool](c.dev, Acked, struct{}{}, fin, func(h CompletionHandle) error {
		if status := c.dev.AioStat(oid, h, nil, nil); status < 0 {
			return &OpError{Op: OpExists, Async: true, OID: oid, Status: status}
		}
		return nil
	})
}

// FlushAsync asynchronously flushes every pending operation on this
// context; the completion becomes ready when they are all done. Flush gates
// on Durable, matching the strongest milestone it vouches for.
func (c *Context) FlushAsync() (*WriteCompletion, error) {
	c.logger.Debug("aio flush", Fields{"pool": c.pool})
	return Submit[struct{}, struct{}](c.dev, Durable, struct{}{}, FinishFlush{}, func(h CompletionHandle) error {
		if status := c.dev.AioFlush(h); status < 0 {
			return &OpError{Op: OpFlush, Async: true, Status: status}
		}
		return nil
	})
}

// Object returns a Read/Write/Seek view of the named object with Acked
// caution for its asynchronous writes.
func (c *Context) Object(oid string) *Object {
	return c.ObjectWithCaution(Acked, oid)
}

// ObjectWithCaution returns a Read/Write/Seek view of the named object,
// submitting its writes at the given caution level.
func (c *Context) ObjectWithCaution(caution Caution, oid string) *Object {
	return &Object{ctx: c, oid: oid, caution: caution}
}
