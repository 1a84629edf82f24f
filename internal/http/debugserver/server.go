// Package debugserver exposes metrics and pprof on a side port.
package debugserver

import (
	"context"
	"crypto/subtle"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"loadboard-dispatch/internal/logx"
)

// Config stores debug server settings. Empty Addr disables the server.
type Config struct {
	Addr string
	User string
	Pass string
}

// Server is the side HTTP server. A nil *Server is valid and does nothing.
type Server struct {
	srv    *http.Server
	logger logx.Logger
}

// New returns the debug server, or nil when cfg.Addr is empty.
func New(cfg Config, gatherer prometheus.Gatherer, logger logx.Logger) *Server {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Server{
		srv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           Handler(cfg, gatherer),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.srv.Addr
}

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	if s == nil {
		return
	}
	go func() {
		s.logger.Info("debug server listening", logx.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("debug server stopped", logx.Err(err))
		}
	}()
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// Handler serves /metrics to anyone and /debug/pprof/ to loopback callers or
// holders of the basic auth credentials.
func Handler(cfg Config, gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	prof := http.NewServeMux()
	prof.HandleFunc("/debug/pprof/", pprof.Index)
	prof.HandleFunc("/debug/pprof/profile", pprof.Profile)
	prof.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	prof.HandleFunc("/debug/pprof/trace", pprof.Trace)
	prof.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.Handle("/debug/pprof/", guard(prof, cfg))
	return mux
}

func guard(next http.Handler, cfg Config) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isLoopback(r.RemoteAddr) || authorized(r, cfg) {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
}

func authorized(r *http.Request, cfg Config) bool {
	if cfg.User == "" || cfg.Pass == "" {
		return false
	}
	u, p, ok := r.BasicAuth()
	return ok && secureEq(u, cfg.User) && secureEq(p, cfg.Pass)
}

func secureEq(u, s string) bool {
	if len(u) != len(s) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(u), []byte(s)) == 1
}

func isLoopback(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	ip := net.ParseIP(strings.TrimSpace(host))
	return ip != nil && ip.IsLoopback()
}
