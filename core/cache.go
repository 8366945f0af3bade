package core

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// PeerConnection owns at most one live socket to a single remote address. All
// writes to the socket are serialized through mu; a failed write is retried
// once against a freshly dialed connection before being reported to the
// caller.
type PeerConnection struct {
	addr   string
	dialer *Dialer

	mu   sync.Mutex
	conn netConn

	closeOnce sync.Once
}

// netConn is the subset of net.Conn a PeerConnection needs; aliased so tests
// can substitute fakes without importing net directly here.
type netConn interface {
	Write(b []byte) (int, error)
	Close() error
}

func newPeerConnection(addr string, d *Dialer) *PeerConnection {
	return &PeerConnection{addr: addr, dialer: d}
}

// Write sends frameBody to the peer, dialing lazily on first use. If the
// write fails against an existing connection, the connection is discarded,
// redialed once, and the write retried; a second failure is reported to the
// caller and the connection is left unset so the next call redials.
func (p *PeerConnection) Write(ctx context.Context, frameBody []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		conn, err := p.dialer.Dial(ctx, p.addr)
		if err != nil {
			return err
		}
		p.conn = conn
	}

	if err := writeFrame(p.conn, frameBody); err == nil {
		return nil
	}

	p.conn.Close()
	p.conn = nil

	conn, err := p.dialer.Dial(ctx, p.addr)
	if err != nil {
		return err
	}
	p.conn = conn

	if err := writeFrame(p.conn, frameBody); err != nil {
		p.conn.Close()
		p.conn = nil
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}

// Close shuts down the socket asynchronously and is safe to call more than
// once or concurrently with Write. It returns without waiting for the socket
// lock, so callers holding a cache lock never wait on an in-flight write.
func (p *PeerConnection) Close() {
	p.closeOnce.Do(func() {
		go func() {
			p.mu.Lock()
			conn := p.conn
			p.conn = nil
			p.mu.Unlock()
			if conn != nil {
				conn.Close()
			}
		}()
	})
}

// ConnectionCache hands out a shared PeerConnection per address and evicts
// entries on request or under capacity pressure.
type ConnectionCache interface {
	GetOrInsert(addr string) *PeerConnection
	Remove(addr string) (*PeerConnection, bool)
	Len() int
}

// MapCache is an unbounded ConnectionCache: entries live until explicitly
// removed.
type MapCache struct {
	dialer *Dialer

	mu    sync.Mutex
	conns map[string]*PeerConnection
}

// NewMapCache creates an unbounded connection cache using d to dial new
// peers.
func NewMapCache(d *Dialer) *MapCache {
	return &MapCache{dialer: d, conns: make(map[string]*PeerConnection)}
}

func (c *MapCache) GetOrInsert(addr string) *PeerConnection {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pc, ok := c.conns[addr]; ok {
		return pc
	}
	pc := newPeerConnection(addr, c.dialer)
	c.conns[addr] = pc
	return pc
}

func (c *MapCache) Remove(addr string) (*PeerConnection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pc, ok := c.conns[addr]
	if ok {
		delete(c.conns, addr)
	}
	return pc, ok
}

func (c *MapCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.conns)
}

// LRUCache is a bounded ConnectionCache: once capacity is exceeded the
// least-recently-used peer connection is evicted and its socket closed.
type LRUCache struct {
	dialer *Dialer

	mu  sync.Mutex
	lru *lru.Cache[string, *PeerConnection]
}

// NewLRUCache creates a bounded connection cache holding at most capacity
// live peer connections.
func NewLRUCache(capacity int, d *Dialer) (*LRUCache, error) {
	c := &LRUCache{dialer: d}
	l, err := lru.NewWithEvict[string, *PeerConnection](capacity, func(_ string, pc *PeerConnection) {
		pc.Close()
	})
	if err != nil {
		return nil, err
	}
	c.lru = l
	return c, nil
}

func (c *LRUCache) GetOrInsert(addr string) *PeerConnection {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pc, ok := c.lru.Get(addr); ok {
		return pc
	}
	pc := newPeerConnection(addr, c.dialer)
	c.lru.Add(addr, pc)
	return pc
}

func (c *LRUCache) Remove(addr string) (*PeerConnection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pc, ok := c.lru.Peek(addr)
	if !ok {
		return nil, false
	}
	c.lru.Remove(addr) // triggers the evict callback, which closes pc
	return pc, true
}

func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
