// ©The rad-go Authors 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rados

import (
	"fmt"
	"syscall"
)

// Op identifies the native operation an error originated from.
type Op uint8

const (
	OpConnect Op = iota
	OpConf
	OpClusterStat
	OpIOContext
	OpCompletion
	OpWrite
	OpWriteFull
	OpAppend
	OpRead
	OpRemove
	OpResize
	OpStat
	OpExists
	OpFlush
	OpGetXattr
	OpSetXattr
)

var opNames = [...]string{
	OpConnect:     "connect",
	OpConf:        "conf",
	OpClusterStat: "cluster stat",
	OpIOContext:   "ioctx",
	OpCompletion:  "completion",
	OpWrite:       "write",
	OpWriteFull:   "write-full",
	OpAppend:      "append",
	OpRead:        "read",
	OpRemove:      "remove",
	OpResize:      "resize",
	OpStat:        "stat",
	OpExists:      "exists",
	OpFlush:       "flush",
	OpGetXattr:    "getxattr",
	OpSetXattr:    "setxattr",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// statusText renders a raw native status the way the native layer would:
// negative values are errno codes.
func statusText(status int) string {
	if status >= 0 {
		return "success"
	}
	return syscall.Errno(-status).Error()
}

// OpError describes a failed object operation. It carries enough context to
// render a precise diagnostic: the operation kind, the object identity, byte
// length and offset where applicable, and the raw native status.
type OpError struct {
	Op     Op
	OID    string
	Key    string // extended attribute key, when applicable
	Len    int
	Off    uint64
	Status int
	Async  bool
}

func (e *OpError) Error() string {
	mode := ""
	if e.Async {
		mode = "asynchronously "
	}
	reason := statusText(e.Status)
	switch e.Op {
	case OpWrite:
		return fmt.Sprintf("rados: unable to %swrite %d bytes at offset %d to object %q: %s",
			mode, e.Len, e.Off, e.OID, reason)
	case OpWriteFull:
		return fmt.Sprintf("rados: unable to %sfull-write %d bytes to object %q: %s",
			mode, e.Len, e.OID, reason)
	case OpAppend:
		return fmt.Sprintf("rados: unable to %sappend %d bytes to object %q: %s",
			mode, e.Len, e.OID, reason)
	case OpRead:
		return fmt.Sprintf("rados: unable to %sread into a buffer of %d bytes at offset %d from object %q: %s",
			mode, e.Len, e.Off, e.OID, reason)
	case OpRemove:
		return fmt.Sprintf("rados: unable to %sdelete object %q: %s", mode, e.OID, reason)
	case OpResize:
		return fmt.Sprintf("rados: unable to resize object %q to a size of %d bytes: %s",
			e.OID, e.Off, reason)
	case OpStat:
		return fmt.Sprintf("rados: unable to %sfetch stats for object %q: %s", mode, e.OID, reason)
	case OpExists:
		return fmt.Sprintf("rados: unable to %scheck existence of object %q: %s", mode, e.OID, reason)
	case OpFlush:
		return fmt.Sprintf("rados: unable to %sflush pending asynchronous operations: %s", mode, reason)
	case OpGetXattr:
		return fmt.Sprintf("rados: unable to get extended attribute %q on object %q: %s",
			e.Key, e.OID, reason)
	case OpSetXattr:
		return fmt.Sprintf("rados: unable to set extended attribute %q to %d bytes of data on object %q: %s",
			e.Key, e.Len, e.OID, reason)
	default:
		return fmt.Sprintf("rados: %s on object %q failed: %s", e.Op, e.OID, reason)
	}
}

// Errno returns the errno encoded in the raw status, or 0 for non-negative
// statuses.
func (e *OpError) Errno() syscall.Errno {
	if e.Status >= 0 {
		return 0
	}
	return syscall.Errno(-e.Status)
}

// Is matches any error carrying the same errno, so callers can test
// errors.Is(err, syscall.ENOENT).
func (e *OpError) Is(target error) bool {
	errno, ok := target.(syscall.Errno)
	return ok && e.Errno() == errno
}

// SetupError describes a failed connection-layer call: cluster handle
// creation, configuration, connecting, opening an I/O context, or creating a
// native completion.
type SetupError struct {
	Op     Op
	Name   string // user, conf path, conf option, or pool name
	Value  string // conf value, when applicable
	Status int
}

func (e *SetupError) Error() string {
	reason := statusText(e.Status)
	switch e.Op {
	case OpConnect:
		if e.Name != "" {
			return fmt.Sprintf("rados: unable to create cluster handle as user %q: %s", e.Name, reason)
		}
		return fmt.Sprintf("rados: unable to connect to cluster: %s", reason)
	case OpConf:
		if e.Value != "" {
			return fmt.Sprintf("rados: unable to set config option %q to value %q: %s",
				e.Name, e.Value, reason)
		}
		return fmt.Sprintf("rados: unable to read configuration file from path %q: %s", e.Name, reason)
	case OpClusterStat:
		return fmt.Sprintf("rados: unable to retrieve cluster stats: %s", reason)
	case OpIOContext:
		return fmt.Sprintf("rados: unable to create I/O context for pool %q: %s", e.Name, reason)
	case OpCompletion:
		return fmt.Sprintf("rados: unable to create completion: %s", reason)
	default:
		return fmt.Sprintf("rados: %s failed: %s", e.Op, reason)
	}
}

// Is matches any error carrying the same errno.
func (e *SetupError) Is(target error) bool {
	errno, ok := target.(syscall.Errno)
	return ok && e.Status < 0 && syscall.Errno(-e.Status) == errno
}
