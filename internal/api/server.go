// Package api configures the debug HTTP server that can run next to a hunt.
// It exposes Prometheus metrics and pprof handlers wrapped in the access-log
// middleware.
package api

import (
	"bucketscan/internal/config"
	"bucketscan/pkg/controller"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options holds configuration for the debug server.
type Options struct {
	// Addr is the TCP address the server listens on, e.g. ":9090".
	Addr string
	// ReadHeaderTimeout is the amount of time allowed to read request headers.
	ReadHeaderTimeout time.Duration
	// MetricsPath is the HTTP path at which Prometheus metrics are served.
	MetricsPath string
	// PprofPath is the prefix of the pprof handlers. Empty disables them.
	PprofPath string
	// Gatherer is the registry served at MetricsPath. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// NewOptions constructs an Options value from the provided application configuration.
func NewOptions(cfg *config.Config) Options {
	return Options{
		Addr:              cfg.HTTP.Addr,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		MetricsPath:       cfg.HTTP.MetricsPath,
		PprofPath:         cfg.HTTP.PprofPath,
	}
}

// NewHandler returns the debug server's routes:
// - Prometheus metrics endpoint (MetricsPath)
// - pprof endpoints (PprofPath)
// - a liveness probe at /healthz
// all wrapped with the logging middleware.
func NewHandler(opts Options) http.Handler {
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	metricsPath := opts.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(metricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.PprofPath != "" {
		prefix := opts.PprofPath
		if !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		mux.Handle(prefix, controller.PprofMux(prefix))
	}

	return controller.WithLogger(mux)
}

// NewServer wires up and returns a configured *http.Server using the provided Options.
func NewServer(opts Options) *http.Server {
	return &http.Server{
		Addr:              opts.Addr,
		Handler:           NewHandler(opts),
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
	}
}
