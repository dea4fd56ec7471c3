// ©The rad-go Authors 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rados

import (
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
)

// submissionQueueCapacity bounds each context's in-flight submission window.
// Submission spins briefly when the window is full, like a native queue-depth
// limit.
const submissionQueueCapacity = 16

// MemCluster is an in-memory native backend implementing [ClusterDevice]. It
// reproduces the raw surface a cgo binding would expose — negative-errno
// statuses, milestone flags on completion handles — and fires completion
// callbacks from a runtime goroutine per context, standing in for the native
// callback thread.
//
// HoldDurability makes mutations stop at the acknowledged milestone until
// ReleaseDurability, so callers can observe the gap between the two.
type MemCluster struct {
	mu        sync.Mutex
	objects   map[string]*memObject
	conf      map[string]string
	pools     map[string]uint64
	nextPool  uint64
	user      string
	created   bool
	connected bool
	down      bool
	holding   bool
	held      []*memCompletion
}

type memObject struct {
	data   []byte
	mtime  int64
	xattrs map[string][]byte
}

// NewMemCluster returns an empty in-memory cluster.
func NewMemCluster() *MemCluster {
	return &MemCluster{
		objects: make(map[string]*memObject),
		conf:    make(map[string]string),
		pools:   make(map[string]uint64),
	}
}

// Connected reports whether the cluster is connected and not shut down.
func (mc *MemCluster) Connected() bool {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.connected
}

// HoldDurability makes subsequent mutations acknowledge without becoming
// durable until ReleaseDurability is called.
func (mc *MemCluster) HoldDurability() {
	mc.mu.Lock()
	mc.holding = true
	mc.mu.Unlock()
}

// ReleaseDurability marks every held mutation durable, fires its durable
// hook, and leaves holding mode.
func (mc *MemCluster) ReleaseDurability() {
	mc.mu.Lock()
	held := mc.held
	mc.held = nil
	mc.holding = false
	mc.mu.Unlock()
	for _, comp := range held {
		comp.persist()
	}
}

// Create implements ClusterDevice.
func (mc *MemCluster) Create(user string) int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if mc.created {
		return -int(syscall.EEXIST)
	}
	mc.created = true
	mc.user = user
	return 0
}

// ConfReadFile implements ClusterDevice. The file is parsed as flat
// "key = value" lines; section headers and comments are skipped.
func (mc *MemCluster) ConfReadFile(path string) int {
	raw, err := os.ReadFile(path)
	if err != nil {
		return -int(syscall.ENOENT)
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "[") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return -int(syscall.EINVAL)
		}
		mc.conf[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return 0
}

// ConfSet implements ClusterDevice.
func (mc *MemCluster) ConfSet(option, value string) int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.conf[option] = value
	return 0
}

// Connect implements ClusterDevice.
func (mc *MemCluster) Connect() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if !mc.created || mc.down {
		return -int(syscall.EINVAL)
	}
	mc.connected = true
	return 0
}

// memClusterKB is the advertised total capacity of the fake cluster.
const memClusterKB = 1 << 20

// ClusterStat implements ClusterDevice.
func (mc *MemCluster) ClusterStat() (ClusterStat, int) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if !mc.connected {
		return ClusterStat{}, -int(syscall.ENOTCONN)
	}
	var used uint64
	for _, obj := range mc.objects {
		used += uint64(len(obj.data))
	}
	usedKB := used / 1024
	return ClusterStat{
		KB:      memClusterKB,
		KBUsed:  usedKB,
		KBAvail: memClusterKB - usedKB,
		Objects: uint64(len(mc.objects)),
	}, 0
}

// OpenContext implements ClusterDevice. Each context gets its own runtime
// goroutine consuming a bounded SPSC submission queue: the confined context
// is the single producer, the runtime the single consumer. The pool is
// assigned a numeric id the first time a context opens it.
func (mc *MemCluster) OpenContext(pool string) (IOContextDevice, int) {
	mc.mu.Lock()
	if !mc.connected {
		mc.mu.Unlock()
		return nil, -int(syscall.ENOTCONN)
	}
	if _, ok := mc.pools[pool]; !ok {
		mc.nextPool++
		mc.pools[pool] = mc.nextPool
	}
	mc.mu.Unlock()
	return mc.openContext(pool), 0
}

// LookupPool implements ClusterDevice. Only pools that have had a context
// opened on them exist here.
func (mc *MemCluster) LookupPool(pool string) (uint64, int) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if !mc.connected {
		return 0, -int(syscall.ENOTCONN)
	}
	id, ok := mc.pools[pool]
	if !ok {
		return 0, -int(syscall.ENOENT)
	}
	return id, 0
}

// OpenContextByID implements ClusterDevice.
func (mc *MemCluster) OpenContextByID(id uint64) (IOContextDevice, string, int) {
	mc.mu.Lock()
	if !mc.connected {
		mc.mu.Unlock()
		return nil, "", -int(syscall.ENOTCONN)
	}
	pool := ""
	found := false
	for name, pid := range mc.pools {
		if pid == id {
			pool, found = name, true
			break
		}
	}
	mc.mu.Unlock()
	if !found {
		return nil, "", -int(syscall.ENOENT)
	}
	return mc.openContext(pool), pool, 0
}

func (mc *MemCluster) openContext(pool string) *memContext {
	ctx := &memContext{cluster: mc, pool: pool}
	ctx.queue.Init(submissionQueueCapacity)
	go ctx.run()
	return ctx
}

// Shutdown implements ClusterDevice.
func (mc *MemCluster) Shutdown() {
	mc.mu.Lock()
	mc.connected = false
	mc.down = true
	mc.mu.Unlock()
}

// object returns the object under the pool-prefixed key, optionally creating
// it. Caller holds mu.
func (mc *MemCluster) object(key string, create bool) *memObject {
	obj, ok := mc.objects[key]
	if !ok && create {
		obj = &memObject{xattrs: make(map[string][]byte)}
		mc.objects[key] = obj
	}
	return obj
}

// Submission op kinds processed by the context runtime.
const (
	memOpWrite = iota
	memOpWriteFull
	memOpAppend
	memOpRead
	memOpRemove
	memOpStat
	memOpFlush
)

type memOp struct {
	kind  int
	oid   string
	buf   []byte
	off   uint64
	size  *uint64
	mtime *int64
	comp  *memCompletion
}

// memContext is one pool I/O context plus its native runtime goroutine.
type memContext struct {
	cluster   *MemCluster
	pool      string
	queue     lfq.SPSC[*memOp]
	pending   atomix.Uint32
	destroyed atomix.Uint32
}

func (c *memContext) key(oid string) string {
	return c.pool + "/" + oid
}

// run is the simulated native runtime thread: it drains the submission
// queue, applies each operation to the shared store, and fires the
// completion hooks. It exits once the context is destroyed and the queue is
// drained.
func (c *memContext) run() {
	var bo iox.Backoff
	for {
		op, err := c.queue.Dequeue()
		if err != nil {
			if c.destroyed.Load() != 0 {
				return
			}
			bo.Wait()
			continue
		}
		bo.Reset()
		c.execute(op)
		c.pending.Add(^uint32(0))
	}
}

// execute applies one submitted operation and completes its handle. The
// store mutation happens under the cluster lock; the hooks fire outside it.
// A completion joins the held list only after its acknowledged milestone is
// published, so a concurrent ReleaseDurability can never fire the durable
// hook against an unpublished status.
func (c *memContext) execute(op *memOp) {
	mc := c.cluster
	mc.mu.Lock()
	var status int
	durable := false
	switch op.kind {
	case memOpWrite:
		status = mc.writeLocked(c.key(op.oid), op.buf, op.off, false)
		durable = true
	case memOpWriteFull:
		status = mc.writeLocked(c.key(op.oid), op.buf, 0, true)
		durable = true
	case memOpAppend:
		status = mc.appendLocked(c.key(op.oid), op.buf)
		durable = true
	case memOpRead:
		status = mc.readLocked(c.key(op.oid), op.buf, op.off)
	case memOpRemove:
		status = mc.removeLocked(c.key(op.oid))
		durable = true
	case memOpStat:
		status = mc.statLocked(c.key(op.oid), op.size, op.mtime)
	case memOpFlush:
		// FIFO processing means every earlier submission on this context
		// has already completed by the time the flush op is reached.
		status = 0
		durable = true
	}
	mc.mu.Unlock()
	op.comp.finish(status)
	if !durable {
		return
	}
	mc.mu.Lock()
	if mc.holding {
		mc.held = append(mc.held, op.comp)
		mc.mu.Unlock()
		return
	}
	mc.mu.Unlock()
	op.comp.persist()
}

// submit enqueues an operation for the runtime, spinning briefly while the
// bounded submission window is full.
func (c *memContext) submit(op *memOp) int {
	if c.destroyed.Load() != 0 {
		return -int(syscall.EBADF)
	}
	c.pending.Add(1)
	var bo iox.Backoff
	for c.queue.Enqueue(&op) != nil {
		bo.Wait()
	}
	return 0
}

// aioHandle narrows a CompletionHandle back to the backend's own type.
func aioHandle(h CompletionHandle) *memCompletion {
	comp, ok := h.(*memCompletion)
	if !ok {
		panic("rados: foreign completion handle passed to MemCluster")
	}
	return comp
}

// NewCompletion implements Completer.
func (c *memContext) NewCompletion(acked, durable func()) (CompletionHandle, error) {
	return &memCompletion{onAcked: acked, onDurable: durable}, nil
}

func (c *memContext) Write(oid string, b []byte, off uint64) int {
	c.cluster.mu.Lock()
	defer c.cluster.mu.Unlock()
	return c.cluster.writeLocked(c.key(oid), b, off, false)
}

func (c *memContext) WriteFull(oid string, b []byte) int {
	c.cluster.mu.Lock()
	defer c.cluster.mu.Unlock()
	return c.cluster.writeLocked(c.key(oid), b, 0, true)
}

func (c *memContext) Append(oid string, b []byte) int {
	c.cluster.mu.Lock()
	defer c.cluster.mu.Unlock()
	return c.cluster.appendLocked(c.key(oid), b)
}

func (c *memContext) Read(oid string, b []byte, off uint64) int {
	c.cluster.mu.Lock()
	defer c.cluster.mu.Unlock()
	return c.cluster.readLocked(c.key(oid), b, off)
}

func (c *memContext) Remove(oid string) int {
	c.cluster.mu.Lock()
	defer c.cluster.mu.Unlock()
	return c.cluster.removeLocked(c.key(oid))
}

func (c *memContext) Resize(oid string, size uint64) int {
	c.cluster.mu.Lock()
	defer c.cluster.mu.Unlock()
	return c.cluster.resizeLocked(c.key(oid), size)
}

func (c *memContext) Stat(oid string, size *uint64, mtime *int64) int {
	c.cluster.mu.Lock()
	defer c.cluster.mu.Unlock()
	return c.cluster.statLocked(c.key(oid), size, mtime)
}

func (c *memContext) GetXattr(oid, key string, b []byte) int {
	c.cluster.mu.Lock()
	defer c.cluster.mu.Unlock()
	obj := c.cluster.object(c.key(oid), false)
	if obj == nil {
		return -int(syscall.ENOENT)
	}
	v, ok := obj.xattrs[key]
	if !ok {
		return -int(syscall.ENODATA)
	}
	if len(v) > len(b) {
		return -int(syscall.ERANGE)
	}
	return copy(b, v)
}

func (c *memContext) SetXattr(oid, key string, v []byte) int {
	c.cluster.mu.Lock()
	defer c.cluster.mu.Unlock()
	obj := c.cluster.object(c.key(oid), true)
	obj.xattrs[key] = append([]byte(nil), v...)
	return 0
}

func (c *memContext) AioWrite(oid string, h CompletionHandle, b []byte, off uint64) int {
	return c.submit(&memOp{kind: memOpWrite, oid: oid, buf: b, off: off, comp: aioHandle(h)})
}

func (c *memContext) AioWriteFull(oid string, h CompletionHandle, b []byte) int {
	return c.submit(&memOp{kind: memOpWriteFull, oid: oid, buf: b, comp: aioHandle(h)})
}

func (c *memContext) AioAppend(oid string, h CompletionHandle, b []byte) int {
	return c.submit(&memOp{kind: memOpAppend, oid: oid, buf: b, comp: aioHandle(h)})
}

func (c *memContext) AioRead(oid string, h CompletionHandle, b []byte, off uint64) int {
	return c.submit(&memOp{kind: memOpRead, oid: oid, buf: b, off: off, comp: aioHandle(h)})
}

func (c *memContext) AioRemove(oid string, h CompletionHandle) int {
	return c.submit(&memOp{kind: memOpRemove, oid: oid, comp: aioHandle(h)})
}

func (c *memContext) AioStat(oid string, h CompletionHandle, size *uint64, mtime *int64) int {
	return c.submit(&memOp{kind: memOpStat, oid: oid, size: size, mtime: mtime, comp: aioHandle(h)})
}

func (c *memContext) AioFlush(h CompletionHandle) int {
	return c.submit(&memOp{kind: memOpFlush, comp: aioHandle(h)})
}

// Flush blocks until the runtime has processed every prior submission.
func (c *memContext) Flush() int {
	var bo iox.Backoff
	for c.pending.Load() != 0 {
		bo.Wait()
	}
	return 0
}

// Destroy implements IOContextDevice. The runtime drains what was already
// submitted, then exits.
func (c *memContext) Destroy() {
	c.destroyed.Store(1)
}

// Store primitives. All run under the cluster lock.

func (mc *MemCluster) writeLocked(key string, b []byte, off uint64, truncate bool) int {
	obj := mc.object(key, true)
	if truncate {
		obj.data = append(obj.data[:0], b...)
	} else {
		end := off + uint64(len(b))
		if uint64(len(obj.data)) < end {
			obj.data = append(obj.data, make([]byte, end-uint64(len(obj.data)))...)
		}
		copy(obj.data[off:], b)
	}
	obj.mtime = time.Now().Unix()
	return 0
}

func (mc *MemCluster) appendLocked(key string, b []byte) int {
	obj := mc.object(key, true)
	obj.data = append(obj.data, b...)
	obj.mtime = time.Now().Unix()
	return 0
}

func (mc *MemCluster) readLocked(key string, b []byte, off uint64) int {
	obj := mc.object(key, false)
	if obj == nil {
		return -int(syscall.ENOENT)
	}
	if off >= uint64(len(obj.data)) {
		return 0
	}
	return copy(b, obj.data[off:])
}

func (mc *MemCluster) removeLocked(key string) int {
	if mc.object(key, false) == nil {
		return -int(syscall.ENOENT)
	}
	delete(mc.objects, key)
	return 0
}

func (mc *MemCluster) resizeLocked(key string, size uint64) int {
	obj := mc.object(key, true)
	switch {
	case uint64(len(obj.data)) > size:
		obj.data = obj.data[:size]
	case uint64(len(obj.data)) < size:
		obj.data = append(obj.data, make([]byte, size-uint64(len(obj.data)))...)
	}
	obj.mtime = time.Now().Unix()
	return 0
}

func (mc *MemCluster) statLocked(key string, size *uint64, mtime *int64) int {
	obj := mc.object(key, false)
	if obj == nil {
		return -int(syscall.ENOENT)
	}
	if size != nil {
		*size = uint64(len(obj.data))
	}
	if mtime != nil {
		*mtime = obj.mtime
	}
	return 0
}

// memCompletion is the backend's completion handle: milestone flags, the raw
// status, and the hooks registered at creation.
type memCompletion struct {
	acked     atomix.Uint32
	durable   atomix.Uint32
	status    atomix.Uint32
	released  atomix.Uint32
	onAcked   func()
	onDurable func()
}

func (m *memCompletion) Acked() bool   { return m.acked.Load() != 0 }
func (m *memCompletion) Durable() bool { return m.durable.Load() != 0 }

func (m *memCompletion) Status() int {
	return int(int32(m.status.Load()))
}

// Release panics on a second call: the contract is exactly one release per
// handle, and the fake enforces it so misuse fails loudly in tests.
func (m *memCompletion) Release() {
	if !m.released.CompareAndSwap(0, 1) {
		panic("rados: native completion handle released twice")
	}
}

// finish publishes the status and fires the acknowledged milestone. Status
// before flag, flag before hook: a poller woken by the hook must observe
// both.
func (m *memCompletion) finish(status int) {
	m.status.Store(uint32(int32(status)))
	m.acked.Store(1)
	if m.onAcked != nil {
		m.onAcked()
	}
}

// persist fires the durable milestone. Never called before finish.
func (m *memCompletion) persist() {
	m.durable.Store(1)
	if m.onDurable != nil {
		m.onDurable()
	}
}
