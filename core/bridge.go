package core

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// dialTimeout and dialKeepAlive are the fixed connection parameters used by
// every Dialer a Net creates; the wire protocol has no notion of per-call
// timeout tuning.
const (
	dialTimeout   = 10 * time.Second
	dialKeepAlive = 30 * time.Second
)

// CreateOptions configures a new Net.
type CreateOptions struct {
	Host string
	Port int

	UseLRUCache  bool
	LRUCacheSize int

	HashKeyHex   string
	SigningSKHex string

	MaxFrameBytes uint32
	StatsWindow   int
}

// Net is the host-facing bridge: the single entry point applications use to
// create a node, listen for inbound messages, and send to peers.
type Net struct {
	sender   *Sender
	listener *Listener
	cache    ConnectionCache
	stats    *Stats
	crypto   *CryptoHandle
	keys     *KeyPair

	cancel context.CancelFunc
}

// Create validates opts, initializes the process-wide crypto handle, and
// wires up a Sender and Listener sharing one connection cache and stats
// tracker. The listener is not yet bound; call Listen to start serving.
func Create(opts CreateOptions) (*Net, error) {
	addr, err := ResolvePeerAddress(opts.Host, opts.Port)
	if err != nil {
		return nil, err
	}

	crypto, err := InitCrypto(opts.HashKeyHex)
	if err != nil {
		return nil, err
	}
	keys, err := KeyPairFromSecret(opts.SigningSKHex)
	if err != nil {
		return nil, err
	}

	dialer := NewDialer(dialTimeout, dialKeepAlive)
	var cache ConnectionCache
	if opts.UseLRUCache {
		lru, err := NewLRUCache(opts.LRUCacheSize, dialer)
		if err != nil {
			return nil, fmt.Errorf("netmesh: create lru cache: %w", err)
		}
		cache = lru
	} else {
		cache = NewMapCache(dialer)
	}

	stats := NewStats(opts.StatsWindow)
	sender := NewSender(cache, crypto, keys, stats)
	listener := NewListener(addr.String(), opts.MaxFrameBytes, crypto, stats, nil)

	return &Net{
		sender:   sender,
		listener: listener,
		cache:    cache,
		stats:    stats,
		crypto:   crypto,
		keys:     keys,
	}, nil
}

// Listen installs callback as the inbound handler and starts accepting
// connections in the background. It returns once the accept goroutine has
// been launched, not once the socket is bound.
func (n *Net) Listen(callback InboundHandler) {
	n.listener.handler = callback
	ctx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel
	go func() {
		if err := n.listener.Serve(ctx); err != nil && ctx.Err() == nil {
			logrus.WithError(err).Error("netmesh: listener stopped")
		}
	}()
}

// Send delivers an opaque UTF-8 payload to host:port with no header or
// signature, matching a legacy peer's wire expectations. complete, if
// non-nil, is invoked once the underlying write resolves.
func (n *Net) Send(host string, port int, dataUTF8 string, complete SendCompletion) {
	addr, err := ResolvePeerAddress(host, port)
	if err != nil {
		if complete != nil {
			complete(err)
		}
		return
	}
	n.sender.Send(addr.String(), []byte(dataUTF8), complete)
}

// SendWithHeader signs and envelopes dataUTF8 under the header described by
// headerJSON before delivering it to host:port.
func (n *Net) SendWithHeader(host string, port int, headerVersion HeaderVersion, headerJSON string, dataUTF8 string, complete SendCompletion) error {
	addr, err := ResolvePeerAddress(host, port)
	if err != nil {
		return err
	}
	header, err := headerV1FromJSON(headerJSON)
	if err != nil {
		return err
	}
	n.sender.SendWithHeader(addr.String(), headerVersion, header, []byte(dataUTF8), complete)
	return nil
}

// MultiSendWithHeader signs one envelope and fans it out to every host:port
// pair. When awaitProcessing is false, complete is not attached to any of
// the individual sends, matching a fire-and-forget broadcast.
func (n *Net) MultiSendWithHeader(hosts []string, ports []int, headerVersion HeaderVersion, headerJSON string, dataUTF8 string, complete SendCompletion, awaitProcessing bool) error {
	if len(hosts) != len(ports) {
		return fmt.Errorf("netmesh: hosts/ports length mismatch: %d != %d", len(hosts), len(ports))
	}
	header, err := headerV1FromJSON(headerJSON)
	if err != nil {
		return err
	}

	addrs := make([]string, len(hosts))
	for i := range hosts {
		addr, err := ResolvePeerAddress(hosts[i], ports[i])
		if err != nil {
			return err
		}
		addrs[i] = addr.String()
	}

	dones := make([]SendCompletion, len(addrs))
	if awaitProcessing {
		for i := range dones {
			dones[i] = complete
		}
	}

	return n.sender.MultiSendWithHeader(addrs, headerVersion, header, []byte(dataUTF8), dones)
}

// EvictSocket drops the cached connection to host:port, if any, and closes
// its socket.
func (n *Net) EvictSocket(host string, port int) {
	addr, err := ResolvePeerAddress(host, port)
	if err != nil {
		return
	}
	n.sender.EvictSocket(addr.String())
}

// Stats returns a point-in-time snapshot of outstanding counts and rolling
// windows.
func (n *Net) Stats() StatsSnapshot {
	return n.stats.Snapshot()
}

// Close stops the listener and the sender's background loops.
func (n *Net) Close() error {
	if n.cancel != nil {
		n.cancel()
	}
	n.sender.Close()
	return n.listener.Close()
}
