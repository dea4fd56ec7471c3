// ©The rad-go Authors 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rados

// Caution selects which completion milestone gates readiness for an
// asynchronous operation.
type Caution uint8

const (
	// Acked treats an operation as complete once the cluster has accepted it
	// into memory, not necessarily onto stable storage.
	Acked Caution = iota

	// Durable treats an operation as complete only once it is persisted to
	// stable storage. Some native backends collapse the distinction and fire
	// both milestones together; the bridge assumes only that the predicate is
	// queryable, not that the levels differ.
	Durable
)

func (c Caution) String() string {
	if c == Durable {
		return "durable"
	}
	return "acked"
}

// CompletionHandle is the opaque native token for one in-flight asynchronous
// operation. It owns native-side resources until Release is called, which
// must happen exactly once per handle regardless of whether the operation
// ever completed.
type CompletionHandle interface {
	// Acked reports whether the cluster has accepted the operation into
	// memory.
	Acked() bool

	// Durable reports whether the operation has been persisted to stable
	// storage. Reads never reach this milestone.
	Durable() bool

	// Status returns the raw native status: non-negative on success (for
	// reads, the byte count), negative errno on failure. Its value is
	// unspecified before Acked or Durable reports true.
	Status() int

	// Release frees the native resources. After Release the native layer
	// must not invoke the handle's callbacks against freed memory; the
	// bridge's callback shares are independently owned, so a late callback
	// only drops a share on an otherwise-abandoned allocation.
	Release()
}

// Completer creates native completion objects. The acked hook fires when the
// operation is accepted into cluster memory, the durable hook when it is
// persisted; either hook, or both, may be invoked from an arbitrary native
// runtime thread the instant NewCompletion returns.
type Completer interface {
	NewCompletion(acked, durable func()) (CompletionHandle, error)
}

// ClusterStat reports whole-cluster usage figures.
type ClusterStat struct {
	KB      uint64
	KBUsed  uint64
	KBAvail uint64
	Objects uint64
}

// ClusterDevice is the raw native surface of a cluster handle. All methods
// return librados-style statuses: non-negative on success, negative errno on
// failure. A ClusterDevice is not safe for concurrent use; the connection
// layer confines it behind a reference-counted wrapper.
type ClusterDevice interface {
	// Create initializes the native handle for the given client user.
	Create(user string) int

	// ConfReadFile loads configuration from a file path.
	ConfReadFile(path string) int

	// ConfSet sets a single configuration option.
	ConfSet(option, value string) int

	// Connect establishes the cluster connection.
	Connect() int

	// ClusterStat fetches usage figures for the whole cluster.
	ClusterStat() (ClusterStat, int)

	// OpenContext opens an I/O context on the named pool. The context counts
	// as a reference against the cluster handle.
	OpenContext(pool string) (IOContextDevice, int)

	// LookupPool resolves a pool name to its numeric id.
	LookupPool(pool string) (uint64, int)

	// OpenContextByID opens an I/O context on the pool with the given numeric
	// id, also reporting the pool's name.
	OpenContextByID(id uint64) (IOContextDevice, string, int)

	// Shutdown tears the native handle down. Called exactly once, after the
	// last connection and context reference is released.
	Shutdown()
}

// IOContextDevice is the raw native surface of one pool I/O context.
// Synchronous calls block until the native operation finishes; Aio variants
// submit against a CompletionHandle and return the submission status only.
// Contexts are confined to a single goroutine at a time but may be handed
// between goroutines.
type IOContextDevice interface {
	Completer

	Write(oid string, b []byte, off uint64) int
	WriteFull(oid string, b []byte) int
	Append(oid string, b []byte) int
	Read(oid string, b []byte, off uint64) int
	Remove(oid string) int
	Resize(oid string, size uint64) int
	Stat(oid string, size *uint64, mtime *int64) int
	GetXattr(oid, key string, b []byte) int
	SetXattr(oid, key string, v []byte) int

	AioWrite(oid string, c CompletionHandle, b []byte, off uint64) int
	AioWriteFull(oid string, c CompletionHandle, b []byte) int
	AioAppend(oid string, c CompletionHandle, b []byte) int
	AioRead(oid string, c CompletionHandle, b []byte, off uint64) int
	AioRemove(oid string, c CompletionHandle) int
	AioStat(oid string, c CompletionHandle, size *uint64, mtime *int64) int
	AioFlush(c CompletionHandle) int

	// Flush blocks until every previously submitted asynchronous operation
	// on this context has completed.
	Flush() int

	// Destroy releases the native context resources.
	Destroy()
}
