package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/velin-dev/velin/pkg/metrics"
)

// vfsMetrics is the Prometheus implementation of metrics.VFSMetrics.
type vfsMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	mounts            prometheus.Gauge
	bytesUsed         *prometheus.GaugeVec
}

// NewVFSMetrics creates a new Prometheus-backed VFSMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewVFSMetrics() metrics.VFSMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &vfsMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "velin_vfs_operations_total",
				Help: "Total number of filesystem operations by backend, operation, and status",
			},
			[]string{"backend", "operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "velin_vfs_operation_duration_milliseconds",
				Help: "Duration of filesystem operations in milliseconds",
				Buckets: []float64{
					0.01, // 10µs - memfs
					0.1,  // 100µs
					1,    // 1ms - badger
					5,    // 5ms
					10,   // 10ms
					50,   // 50ms - s3
					100,  // 100ms
					500,  // 500ms
					1000, // 1s
				},
			},
			[]string{"backend", "operation"},
		),
		mounts: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "velin_vfs_mounts",
				Help: "Current number of mounted filesystems",
			},
		),
		bytesUsed: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "velin_vfs_bytes_used",
				Help: "Content bytes held under a mount point",
			},
			[]string{"mount"},
		),
	}
}

func (m *vfsMetrics) ObserveOperation(backend, operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}

	m.operationsTotal.WithLabelValues(backend, operation, status).Inc()
	m.operationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds() * 1000)
}

func (m *vfsMetrics) SetMounts(count int) {
	if m == nil {
		return
	}
	m.mounts.Set(float64(count))
}

func (m *vfsMetrics) SetBytesUsed(mount string, bytes uint64) {
	if m == nil {
		return
	}
	m.bytesUsed.WithLabelValues(mount).Set(float64(bytes))
}
