package core

import (
	"context"
	"testing"
	"time"
)

func TestDialerDialSuccess(t *testing.T) {
	ln, conns := startTestServer(t)
	defer closeServer(ln, conns)

	d := NewDialer(time.Second, time.Second)
	conn, err := d.Dial(context.Background(), ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
}

func TestDialerDialNoListener(t *testing.T) {
	d := NewDialer(100*time.Millisecond, time.Second)
	_, err := d.Dial(context.Background(), "127.0.0.1:1")
	if err == nil {
		t.Fatal("expected dial error, got nil")
	}
}
