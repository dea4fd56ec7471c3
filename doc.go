// ©The rad-go Authors 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package rados provides a safe, poll-driven asynchronous client layer over a
// librados-shaped native object store API.
//
// The native layer models an in-flight operation as an opaque completion
// handle: an operation is submitted against the handle and the native runtime
// later invokes registered callbacks, on a thread of its own choosing, as the
// operation reaches its milestones. [Completion] converts that callback model
// into a single cooperatively polled future.
//
// # Architecture
//
//   - Bridge: [Submit] creates a [Completion] bound to one native operation.
//     The payload is held in a shared result cell; the native callback owns the
//     second share and releases it before waking the poller, so sole ownership
//     of the cell is the structural fact that the callback has fired.
//   - Non-blocking: [Completion.Poll] returns [code.hybscloud.com/iox.ErrWouldBlock]
//     while the operation is in flight. [Completion.Wait] blocks past the
//     boundary using adaptive backoff, without goroutines or channels.
//   - Milestones: [Caution] selects which native milestone gates readiness —
//     [Acked] (accepted into cluster memory) or [Durable] (persisted). Reads
//     have no durability milestone and always gate on [Acked].
//   - Finalization: a per-operation [Finalizer] translates the raw native
//     status into a typed result or a typed error, including recoveries such as
//     an existence probe treating "not found" as a valid false.
//   - Execution: completions are also effect operations on
//     [code.hybscloud.com/kont]. [Await] suspends a protocol on a completion;
//     [Exec] and [ExecEither] evaluate blocking, [Step] and [Advance] evaluate
//     one pending operation at a time for proactor loops.
//
// # Collaborators
//
//   - [ConnectionBuilder] configures and establishes a cluster connection over
//     a [ClusterDevice]. The native cluster handle is reference counted and
//     shut down when the last [Connection] or [Context] closes.
//   - [Context] is a pool I/O context offering synchronous operations and
//     asynchronous variants returning completions. A Context is confined to one
//     goroutine at a time, though it may be handed between goroutines.
//   - [Object] adapts one object to [io.Reader], [io.Writer] and [io.Seeker];
//     writes are submitted asynchronously and gathered by Flush.
//   - [MemCluster] is an in-memory backend implementing the full native
//     surface, with a runtime goroutine per context standing in for the native
//     callback thread.
//
// # Example
//
//	cluster := rados.NewMemCluster()
//	conn, _ := rados.NewConnection(cluster).Connect()
//	pool, _ := conn.Pool("rbd")
//	cmpl, _ := pool.WriteAsync(rados.Durable, "greeting", []byte("hello"), 0)
//	out, err := cmpl.Wait()
package rados
