package core

import (
	"bufio"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

// listenerRebindBackoff is how long Serve waits before retrying a failed
// bind or a dead accept loop.
const listenerRebindBackoff = 10 * time.Second

// RequestMetadata is handed to an InboundHandler alongside an enveloped
// message's decoded payload. HeaderJSON and SignatureJSON are the same
// stable-field-order projections the host sees elsewhere.
type RequestMetadata struct {
	HeaderVersion HeaderVersion
	HeaderJSON    json.RawMessage
	SignatureJSON json.RawMessage
}

// InboundHandler receives one decoded frame's payload. meta is nil for
// legacy (unenveloped) payloads.
type InboundHandler func(payload string, remoteHost string, remotePort int, meta *RequestMetadata)

// Listener accepts TCP connections, reads length-prefixed frames from each,
// and dispatches decoded payloads to an InboundHandler. A failed bind is
// retried on a fixed backoff rather than surfaced as a fatal error, since
// the port may become available again (e.g. after the host process that was
// holding it exits).
type Listener struct {
	addr        string
	maxFrameLen uint32
	crypto      *CryptoHandle
	stats       *Stats
	handler     InboundHandler

	ln        net.Listener
	closeCh   chan struct{}
	closeOnce sync.Once
}

// NewListener creates a Listener bound to addr once Serve is called.
func NewListener(addr string, maxFrameLen uint32, crypto *CryptoHandle, stats *Stats, handler InboundHandler) *Listener {
	return &Listener{
		addr:        addr,
		maxFrameLen: maxFrameLen,
		crypto:      crypto,
		stats:       stats,
		handler:     handler,
		closeCh:     make(chan struct{}),
	}
}

// Serve binds and accepts connections until ctx is canceled or Close is
// called. It blocks; callers typically run it in its own goroutine.
func (l *Listener) Serve(ctx context.Context) error {
	for {
		ln, err := net.Listen("tcp", l.addr)
		if err != nil {
			logrus.WithError(err).Warnf("netmesh: bind %s failed, retrying in %s", l.addr, listenerRebindBackoff)
			if !l.wait(ctx, listenerRebindBackoff) {
				return ctx.Err()
			}
			continue
		}

		l.ln = ln
		logrus.Infof("netmesh: listening on %s", ln.Addr().String())
		stop := context.AfterFunc(ctx, func() { ln.Close() })
		l.acceptLoop(ctx)
		stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.closeCh:
			return nil
		default:
			logrus.Warnf("netmesh: accept loop on %s exited, rebinding in %s", l.addr, listenerRebindBackoff)
			if !l.wait(ctx, listenerRebindBackoff) {
				return ctx.Err()
			}
		}
	}
}

func (l *Listener) wait(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	case <-l.closeCh:
		return false
	}
}

func (l *Listener) acceptLoop(ctx context.Context) {
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			return
		}
		go l.connLoop(conn)
	}
}

// connLoop owns one accepted connection's read side: Reading-length,
// Reading-body, Decoding, back to Reading-length. A malformed frame or
// decode failure drops that frame and keeps reading, except for a legacy
// (unenveloped) payload that fails UTF-8 validation, which ends the
// connection per the legacy-path error policy.
func (l *Listener) connLoop(conn net.Conn) {
	defer conn.Close()
	host, portStr, _ := net.SplitHostPort(conn.RemoteAddr().String())
	port, _ := strconv.Atoi(portStr)

	r := bufio.NewReader(conn)
	for {
		body, err := readFrame(r, l.maxFrameLen)
		if err != nil {
			return
		}

		enqueuedAt := time.Now()
		if l.stats != nil {
			l.stats.IncrementOutstandingReceives()
		}

		payload, meta, terminate, err := l.decodeFrame(body)
		if err != nil {
			if l.stats != nil {
				l.stats.DecrementOutstandingReceives()
			}
			logrus.WithError(err).Debugf("netmesh: dropping frame from %s:%d", host, port)
			if terminate {
				return
			}
			continue
		}

		go l.dispatch(payload, host, port, meta, enqueuedAt)
	}
}

func (l *Listener) dispatch(payload string, host string, port int, meta *RequestMetadata, enqueuedAt time.Time) {
	defer func() {
		if l.stats != nil {
			l.stats.DecrementOutstandingReceives()
			l.stats.RecordReceiveLatency(time.Since(enqueuedAt))
		}
	}()
	if l.handler != nil {
		l.handler(payload, host, port, meta)
	}
}

// decodeFrame classifies and decodes one frame body. terminate is true only
// when the connection itself should end (a non-UTF-8 legacy payload);
// otherwise a non-nil error means the frame should be dropped and reading
// continued.
func (l *Listener) decodeFrame(body []byte) (payload string, meta *RequestMetadata, terminate bool, err error) {
	if len(body) == 0 || body[0] != EnvelopeMarker {
		if !utf8.Valid(body) {
			return "", nil, true, ErrPayloadNotUTF8
		}
		return string(body), nil, false, nil
	}

	msg, err := DecodeMessage(body[1:])
	if err != nil {
		return "", nil, false, fmt.Errorf("%w: %v", ErrFrameMalformed, err)
	}

	hashVal, err := l.crypto.Hash(signablePortion(msg.HeaderVersion, msg.HeaderBytes, msg.PayloadBytes))
	if err != nil {
		return "", nil, false, err
	}
	if !Verify(hashVal[:], msg.Sig.Signature, ed25519.PublicKey(msg.Sig.Owner)) {
		return "", nil, false, ErrSignatureInvalid
	}

	version := HeaderVersion(msg.HeaderVersion)
	header, err := DecodeHeader(version, msg.HeaderBytes)
	if err != nil {
		return "", nil, false, err
	}
	if int(header.MessageLength) != len(msg.PayloadBytes) {
		return "", nil, false, fmt.Errorf("%w: declared payload length %d != actual %d", ErrHeaderInvalid, header.MessageLength, len(msg.PayloadBytes))
	}

	decompressed, err := Decompress(header.Compression, msg.PayloadBytes)
	if err != nil {
		return "", nil, false, err
	}
	if !utf8.Valid(decompressed) {
		return "", nil, false, ErrPayloadNotUTF8
	}

	headerJSON, err := header.JSON()
	if err != nil {
		return "", nil, false, err
	}
	sigJSON, err := msg.Sig.JSON()
	if err != nil {
		return "", nil, false, err
	}

	return string(decompressed), &RequestMetadata{
		HeaderVersion: version,
		HeaderJSON:    headerJSON,
		SignatureJSON: sigJSON,
	}, false, nil
}

// Close stops Serve and closes the underlying socket if bound.
func (l *Listener) Close() error {
	l.closeOnce.Do(func() { close(l.closeCh) })
	if l.ln != nil {
		return l.ln.Close()
	}
	return nil
}
