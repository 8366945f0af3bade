package core

import (
	"context"
	"fmt"
	"sync"
)

// SendCompletion is invoked once a send attempt finishes, with a nil error
// on success. It may be nil if the caller does not want a callback.
type SendCompletion func(err error)

type sendJob struct {
	addr    string
	payload []byte
	done    SendCompletion
}

type evictJob struct {
	addr string
}

// Sender owns the dispatch and eviction loops that drive a ConnectionCache.
// Enqueuing a send never blocks the caller: a single dispatch loop drains an
// unbounded queue and spawns one goroutine per send, so peers are served
// concurrently while each peer's own PeerConnection serializes its writes.
type Sender struct {
	cache  ConnectionCache
	crypto *CryptoHandle
	keys   *KeyPair
	stats  *Stats

	sendQ  *unboundedQueue[sendJob]
	evictQ *unboundedQueue[evictJob]

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewSender starts the dispatch and eviction loops and returns a ready
// Sender. Close must be called to stop them.
func NewSender(cache ConnectionCache, crypto *CryptoHandle, keys *KeyPair, stats *Stats) *Sender {
	s := &Sender{
		cache:  cache,
		crypto: crypto,
		keys:   keys,
		stats:  stats,
		sendQ:  newUnboundedQueue[sendJob](),
		evictQ: newUnboundedQueue[evictJob](),
	}
	s.wg.Add(2)
	go s.dispatchLoop()
	go s.evictLoop()
	return s
}

func (s *Sender) dispatchLoop() {
	defer s.wg.Done()
	for {
		job, ok := s.sendQ.Pop()
		if !ok {
			return
		}
		pc := s.cache.GetOrInsert(job.addr)
		go s.write(pc, job)
	}
}

func (s *Sender) write(pc *PeerConnection, job sendJob) {
	if s.stats != nil {
		s.stats.IncrementOutstandingSends()
	}
	err := pc.Write(context.Background(), job.payload)
	if s.stats != nil {
		s.stats.DecrementOutstandingSends()
	}
	if job.done != nil {
		job.done(err)
	}
}

func (s *Sender) evictLoop() {
	defer s.wg.Done()
	for {
		job, ok := s.evictQ.Pop()
		if !ok {
			return
		}
		if pc, found := s.cache.Remove(job.addr); found {
			pc.Close()
		}
	}
}

// Close stops the dispatch and eviction loops and waits for them to drain.
// In-flight per-send goroutines are not waited on; their completion
// callbacks may still fire after Close returns.
func (s *Sender) Close() {
	s.stopOnce.Do(func() {
		s.sendQ.Close()
		s.evictQ.Close()
	})
	s.wg.Wait()
}

// Send enqueues an opaque, unsigned payload for delivery to addr. done, if
// non-nil, is called with the outcome of the underlying socket write.
func (s *Sender) Send(addr string, payload []byte, done SendCompletion) {
	s.sendQ.Push(sendJob{addr: addr, payload: payload, done: done})
}

// SendWithHeader compresses payload per header's compression code, signs the
// resulting envelope, and enqueues it for delivery to addr. Envelope
// construction happens off the caller's goroutine so Send returns
// immediately.
func (s *Sender) SendWithHeader(addr string, version HeaderVersion, header *HeaderV1, payload []byte, done SendCompletion) {
	go func() {
		wire, err := s.buildEnvelope(version, header, payload)
		if err != nil {
			if done != nil {
				done(err)
			}
			return
		}
		s.sendQ.Push(sendJob{addr: addr, payload: wire, done: done})
	}()
}

// MultiSendWithHeader builds one signed envelope and fans it out to every
// address in addrs, pairing each with the completion at the same index.
func (s *Sender) MultiSendWithHeader(addrs []string, version HeaderVersion, header *HeaderV1, payload []byte, dones []SendCompletion) error {
	if len(addrs) != len(dones) {
		return fmt.Errorf("netmesh: addrs/completions length mismatch: %d != %d", len(addrs), len(dones))
	}
	go func() {
		wire, err := s.buildEnvelope(version, header, payload)
		if err != nil {
			for _, done := range dones {
				if done != nil {
					done(err)
				}
			}
			return
		}
		for i, addr := range addrs {
			s.sendQ.Push(sendJob{addr: addr, payload: wire, done: dones[i]})
		}
	}()
	return nil
}

// EvictSocket schedules the cached connection for addr to be dropped and its
// socket closed.
func (s *Sender) EvictSocket(addr string) {
	s.evictQ.Push(evictJob{addr: addr})
}

func (s *Sender) buildEnvelope(version HeaderVersion, header *HeaderV1, payload []byte) ([]byte, error) {
	compressed, err := Compress(header.Compression, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: compress payload: %v", ErrSendFailed, err)
	}
	header.MessageLength = uint32(len(compressed))

	headerBytes, err := EncodeHeader(version, header)
	if err != nil {
		return nil, err
	}

	hashVal, err := s.crypto.Hash(signablePortion(uint8(version), headerBytes, compressed))
	if err != nil {
		return nil, err
	}
	sig := Sign(hashVal[:], s.keys.Secret)

	msg := &Message{
		HeaderVersion: uint8(version),
		HeaderBytes:   headerBytes,
		PayloadBytes:  compressed,
		Sig:           SignatureRecord{Owner: s.keys.Public, Signature: sig},
	}
	body := EncodeMessage(msg)

	wire := make([]byte, 0, len(body)+1)
	wire = append(wire, EnvelopeMarker)
	wire = append(wire, body...)
	return wire, nil
}
