// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"grimm.is/degrader/internal/logging"
)

// Server exposes a Registry's series on /metrics, grounded on the
// teacher's internal/ebpf/stats.Exporter.startPrometheusServer.
type Server struct {
	http *http.Server
	log  *logging.Logger
}

// NewServer builds (but does not start) an HTTP server for addr exposing
// registry on /metrics.
func NewServer(addr string, registry *Registry, log *logging.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry.Gatherer(), promhttp.HandlerOpts{}))
	return &Server{http: &http.Server{Addr: addr, Handler: mux}, log: log}
}

// Start runs the server until ctx is canceled. It blocks the calling
// goroutine; callers typically invoke it with "go".
func (s *Server) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		s.http.Close()
	}()
	if s.log != nil {
		s.log.Infof("metrics server listening on %s/metrics", s.http.Addr)
	}
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		if s.log != nil {
			s.log.Errorf("metrics server: %v", err)
		}
	}
}
