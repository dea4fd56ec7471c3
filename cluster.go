// ©The rad-go Authors 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rados

import (
	"strconv"

	"code.hybscloud.com/atomix"
)

// clusterRef shares a connected cluster device between the connection and
// its I/O contexts. Contexts count as references against the underlying
// handle — the native shutdown runs exactly once, when the last holder
// releases.
type clusterRef struct {
	dev  ClusterDevice
	refs atomix.Uint32
}

func (r *clusterRef) acquire() {
	r.refs.Add(1)
}

func (r *clusterRef) release() {
	if r.refs.Add(^uint32(0)) == 0 {
		r.dev.Shutdown()
	}
}

// ConnectionBuilder configures a cluster connection before establishing it.
// Configuration errors stick to the builder and surface from Connect, so
// calls chain without intermediate checks:
//
//	conn, err := rados.NewConnectionAs(dev, "admin").
//		ReadConfFile("/etc/ceph/ceph.conf").
//		ConfSet("keyring", "/etc/ceph/ceph.client.admin.keyring").
//		Connect()
type ConnectionBuilder struct {
	dev    ClusterDevice
	logger Logger
	err    error
}

// NewConnection starts building a connection as the default client.
func NewConnection(dev ClusterDevice) *ConnectionBuilder {
	return NewConnectionAs(dev, "client.admin")
}

// NewConnectionAs starts building a connection authenticating as user.
func NewConnectionAs(dev ClusterDevice, user string) *ConnectionBuilder {
	b := &ConnectionBuilder{dev: dev, logger: NopLogger{}}
	if status := dev.Create(user); status < 0 {
		b.err = &SetupError{Op: OpConnect, Name: user, Status: status}
	}
	return b
}

// ReadConfFile loads configuration from a file path.
func (b *ConnectionBuilder) ReadConfFile(path string) *ConnectionBuilder {
	if b.err != nil {
		return b
	}
	if status := b.dev.ConfReadFile(path); status < 0 {
		b.err = &SetupError{Op: OpConf, Name: path, Status: status}
	}
	return b
}

// ConfSet sets a single configuration option. Useful options include
// "keyring" when the cluster credentials live on nonstandard paths.
func (b *ConnectionBuilder) ConfSet(option, value string) *ConnectionBuilder {
	if b.err != nil {
		return b
	}
	if status := b.dev.ConfSet(option, value); status < 0 {
		b.err = &SetupError{Op: OpConf, Name: option, Value: value, Status: status}
	}
	return b
}

// WithLogger attaches a logger to the connection and every context opened
// from it.
func (b *ConnectionBuilder) WithLogger(l Logger) *ConnectionBuilder {
	if l != nil {
		b.logger = l
	}
	return b
}

// Connect finishes configuration and establishes the cluster connection. On
// any failure, including an earlier sticky configuration error, the native
// handle is shut down before the error is returned.
func (b *ConnectionBuilder) Connect() (*Connection, error) {
	if b.err != nil {
		b.dev.Shutdown()
		return nil, b.err
	}
	if status := b.dev.Connect(); status < 0 {
		b.dev.Shutdown()
		return nil, &SetupError{Op: OpConnect, Status: status}
	}
	ref := &clusterRef{dev: b.dev}
	ref.acquire()
	b.logger.Debug("connected to cluster", nil)
	return &Connection{ref: ref, logger: b.logger}, nil
}

// Connection is an established cluster connection. It is not safe for
// concurrent use from multiple goroutines; open one Context per goroutine
// instead. The underlying native handle stays alive until the connection and
// every context opened from it are closed.
type Connection struct {
	ref    *clusterRef
	logger Logger
	closed atomix.Uint32
}

// Stat fetches usage figures for the whole cluster.
func (c *Connection) Stat() (ClusterStat, error) {
	stat, status := c.ref.dev.ClusterStat()
	if status < 0 {
		return ClusterStat{}, &SetupError{Op: OpClusterStat, Status: status}
	}
	return stat, nil
}

// Pool opens an I/O context on the named pool. The context holds its own
// reference against the cluster handle and must be closed independently.
func (c *Connection) Pool(name string) (*Context, error) {
	dev, status := c.ref.dev.OpenContext(name)
	if status < 0 {
		return nil, &SetupError{Op: OpIOContext, Name: name, Status: status}
	}
	c.ref.acquire()
	c.logger.Debug("opened pool context", Fields{"pool": name})
	return &Context{ref: c.ref, dev: dev, pool: name, logger: c.logger}, nil
}

// LookupPool resolves a pool name to its numeric id.
func (c *Connection) LookupPool(name string) (uint64, error) {
	id, status := c.ref.dev.LookupPool(name)
	if status < 0 {
		return 0, &SetupError{Op: OpIOContext, Name: name, Status: status}
	}
	return id, nil
}

// PoolByID opens an I/O context on the pool with the given numeric id. Like
// Pool, the context holds its own reference against the cluster handle.
func (c *Connection) PoolByID(id uint64) (*Context, error) {
	dev, name, status := c.ref.dev.OpenContextByID(id)
	if status < 0 {
		return nil, &SetupError{Op: OpIOContext, Name: strconv.FormatUint(id, 10), Status: status}
	}
	c.ref.acquire()
	c.logger.Debug("opened pool context", Fields{"pool": name, "id": id})
	return &Context{ref: c.ref, dev: dev, pool: name, logger: c.logger}, nil
}

// Close releases the connection's reference to the cluster handle. The
// native shutdown runs once the last context is closed as well. Close is
// idempotent.
func (c *Connection) Close() error {
	if c.closed.CompareAndSwap(0, 1) {
		c.logger.Debug("connection closed", nil)
		c.ref.release()
	}
	return nil
}
