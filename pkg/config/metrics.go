package config

import (
	"fmt"
	"net/http"
	"time"

	"github.com/velin-dev/velin/pkg/metrics"
	metricsprom "github.com/velin-dev/velin/pkg/metrics/prometheus"
)

// MetricsResult carries the outcome of metrics initialization.
//
// All fields are nil when metrics are disabled. Every consumer treats a
// nil collector as a no-op, so the result can be passed around without
// checking Enabled again.
type MetricsResult struct {
	// Syscalls observes the syscall dispatch path.
	Syscalls metrics.SyscallMetrics

	// VFS observes filesystem backend operations.
	VFS metrics.VFSMetrics

	// Server serves the /metrics endpoint. The caller owns starting and
	// stopping it.
	Server *http.Server
}

// InitializeMetrics sets up the Prometheus registry, the collectors, and
// the metrics HTTP server according to configuration.
//
// When metrics are disabled the zero result is returned and nothing is
// registered, keeping the metrics path at zero overhead.
func InitializeMetrics(cfg *Config) MetricsResult {
	if !cfg.Metrics.Enabled {
		return MetricsResult{}
	}

	metrics.InitRegistry()

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return MetricsResult{
		Syscalls: metricsprom.NewSyscallMetrics(),
		VFS:      metricsprom.NewVFSMetrics(),
		Server:   server,
	}
}
