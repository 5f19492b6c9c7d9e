package runtime

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
)

// debugMux builds the diagnostic endpoints:
//
//	GET /health    -> full HealthReport
//	GET /memory    -> allocator statistics
//	GET /pool      -> worker pool statistics
//	GET /deadlocks -> lock hierarchy analysis
//	GET /perf      -> performance counters and suggestions
func (r *Runtime) debugMux() *http.ServeMux {
	mux := http.NewServeMux()

	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		_ = enc.Encode(v)
	}

	mux.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, r.Health())
	})
	mux.HandleFunc("/memory", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, r.memory.Stats())
	})
	mux.HandleFunc("/pool", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, r.pool.Stats())
	})
	mux.HandleFunc("/deadlocks", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, r.locks.Analyze())
	})
	mux.HandleFunc("/perf", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, r.monitor.Snapshot())
	})
	return mux
}

// startDebugHTTP serves the diagnostic endpoints on addr. It returns a
// shutdown function compatible with http.Server.Shutdown.
func (r *Runtime) startDebugHTTP(addr string) (func(ctx context.Context) error, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{Handler: r.debugMux()}
	go func() { _ = srv.Serve(ln) }()
	r.debugAddr = ln.Addr().String()
	return srv.Shutdown, nil
}

// DebugAddr returns the bound diagnostic address, or "" when the
// endpoint is disabled.
func (r *Runtime) DebugAddr() string {
	return r.debugAddr
}
