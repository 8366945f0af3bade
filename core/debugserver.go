package core

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// DebugServer exposes a node's rolling stats over HTTP for operators and
// dashboards; it is not part of the peer wire protocol.
type DebugServer struct {
	srv *http.Server
}

// NewDebugServer builds a debug server bound to addr, serving a single
// /stats endpoint backed by n's current Stats snapshot.
func NewDebugServer(addr string, n *Net) *DebugServer {
	r := chi.NewRouter()
	r.Get("/stats", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(n.Stats())
	})
	return &DebugServer{srv: &http.Server{Addr: addr, Handler: r}}
}

// ListenAndServe blocks serving the debug endpoint until the server is
// closed.
func (d *DebugServer) ListenAndServe() error {
	return d.srv.ListenAndServe()
}

// Close shuts down the debug server.
func (d *DebugServer) Close() error {
	return d.srv.Close()
}
