package server

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Health tracks the outcome of the most recent scheduled pass.
type Health struct {
	lastOK  atomic.Int64
	lastErr atomic.Value
}

// Record stores the outcome of a pass finished at t.
func (h *Health) Record(t time.Time, err error) {
	if err != nil {
		h.lastErr.Store(err.Error())
		return
	}
	h.lastErr.Store("")
	h.lastOK.Store(t.Unix())
}

// LastError returns the error of the latest pass, or "" if it succeeded.
func (h *Health) LastError() string {
	v, _ := h.lastErr.Load().(string)
	return v
}

// New returns the daemon router exposing /metrics and /healthz.
func New(h *Health) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if msg := h.LastError(); msg != "" {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("last run failed: " + msg + "\n"))
			return
		}
		if ts := h.lastOK.Load(); ts > 0 {
			_, _ = w.Write([]byte("ok last_success=" + time.Unix(ts, 0).UTC().Format(time.RFC3339) + "\n"))
			return
		}
		_, _ = w.Write([]byte("ok\n"))
	})
	return r
}

// Listen builds the daemon http.Server for addr.
func Listen(addr string, h *Health) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      New(h),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}
