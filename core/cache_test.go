package core

import (
	"context"
	"testing"
	"time"
)

func TestMapCacheReusesConnection(t *testing.T) {
	ln, conns := startTestServer(t)
	defer closeServer(ln, conns)

	d := NewDialer(time.Second, time.Second)
	cache := NewMapCache(d)

	pc1 := cache.GetOrInsert(ln.Addr().String())
	pc2 := cache.GetOrInsert(ln.Addr().String())
	if pc1 != pc2 {
		t.Fatal("expected same PeerConnection for repeated address")
	}
	if cache.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", cache.Len())
	}

	if err := pc1.Write(context.Background(), []byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestMapCacheRemove(t *testing.T) {
	ln, conns := startTestServer(t)
	defer closeServer(ln, conns)

	d := NewDialer(time.Second, time.Second)
	cache := NewMapCache(d)
	addr := ln.Addr().String()

	cache.GetOrInsert(addr)
	pc, ok := cache.Remove(addr)
	if !ok || pc == nil {
		t.Fatal("expected removal to find the entry")
	}
	if cache.Len() != 0 {
		t.Fatalf("expected 0 entries after remove, got %d", cache.Len())
	}
	if _, ok := cache.Remove(addr); ok {
		t.Fatal("expected second remove to find nothing")
	}
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ln1, conns1 := startTestServer(t)
	defer closeServer(ln1, conns1)
	ln2, conns2 := startTestServer(t)
	defer closeServer(ln2, conns2)
	ln3, conns3 := startTestServer(t)
	defer closeServer(ln3, conns3)

	d := NewDialer(time.Second, time.Second)
	cache, err := NewLRUCache(2, d)
	if err != nil {
		t.Fatalf("new lru cache: %v", err)
	}

	a1, a2, a3 := ln1.Addr().String(), ln2.Addr().String(), ln3.Addr().String()
	cache.GetOrInsert(a1)
	cache.GetOrInsert(a2)
	cache.GetOrInsert(a3) // evicts a1, the least recently used

	if cache.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", cache.Len())
	}
	if _, ok := cache.Remove(a1); ok {
		t.Fatal("expected a1 to already be evicted")
	}
	if _, ok := cache.Remove(a2); !ok {
		t.Fatal("expected a2 to still be cached")
	}
}

func TestPeerConnectionCloseIsIdempotent(t *testing.T) {
	ln, conns := startTestServer(t)
	defer closeServer(ln, conns)

	d := NewDialer(time.Second, time.Second)
	pc := newPeerConnection(ln.Addr().String(), d)
	if err := pc.Write(context.Background(), []byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}
	pc.Close()
	pc.Close()
}
