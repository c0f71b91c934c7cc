// Package httpapi serves the read-only status surface.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/MimeLyc/dvr-mirror/internal/reconcile"
	"github.com/MimeLyc/dvr-mirror/internal/state"
	"github.com/MimeLyc/dvr-mirror/pkg/icron"
)

type statusReader interface {
	Read() state.ActiveJobSet
}

type cycleReporter interface {
	LastCycle() (reconcile.CycleResult, bool)
}

type scheduleReporter interface {
	TriggerInfo() (*icron.TriggerInfo, error)
}

// Server exposes the mirrored job set and cycle health over HTTP.
type Server struct {
	status   statusReader
	cycles   cycleReporter
	schedule scheduleReporter
	metrics  http.Handler
	rps      float64

	mux     *http.ServeMux
	handler http.Handler
	server  *http.Server
}

type Option func(*Server)

func WithCycleReporter(cycles cycleReporter) Option {
	return func(s *Server) {
		s.cycles = cycles
	}
}

func WithScheduleReporter(schedule scheduleReporter) Option {
	return func(s *Server) {
		s.schedule = schedule
	}
}

// WithMetricsHandler mounts h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithRateLimit caps requests per second across all clients. Zero disables it.
func WithRateLimit(rps float64) Option {
	return func(s *Server) {
		s.rps = rps
	}
}

// NewServer routes /status and /healthz, plus /metrics when a metrics handler is set.
func NewServer(status statusReader, opts ...Option) *Server {
	s := &Server{
		status: status,
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	s.handler = rateLimit(s.rps)(s.mux)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/status", s.handleStatus)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("/metrics", getOnly(s.metrics))
	}
}
