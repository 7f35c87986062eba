// Package prometheus provides Prometheus-backed implementations of the
// metrics interfaces in pkg/metrics.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/velin-dev/velin/pkg/metrics"
)

// syscallMetrics is the Prometheus implementation of metrics.SyscallMetrics.
type syscallMetrics struct {
	syscallsTotal    *prometheus.CounterVec
	syscallDuration  *prometheus.HistogramVec
	syscallsInFlight *prometheus.GaugeVec
	replyBytes       *prometheus.CounterVec
	activeTasks      prometheus.Gauge
	tasksCreated     prometheus.Counter
	tasksReleased    prometheus.Counter
}

// NewSyscallMetrics creates a new Prometheus-backed SyscallMetrics
// instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewSyscallMetrics() metrics.SyscallMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &syscallMetrics{
		syscallsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "velin_syscalls_total",
				Help: "Total number of emulated syscalls by name and errno",
			},
			[]string{"syscall", "errno"},
		),
		syscallDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "velin_syscall_duration_milliseconds",
				Help: "Duration of emulated syscalls in milliseconds",
				Buckets: []float64{
					0.01, // 10µs - in-memory lookups
					0.05, // 50µs
					0.1,  // 100µs
					0.5,  // 500µs
					1,    // 1ms - badger reads
					5,    // 5ms
					10,   // 10ms
					50,   // 50ms - s3 round trips
					100,  // 100ms
					500,  // 500ms
				},
			},
			[]string{"syscall"},
		),
		syscallsInFlight: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "velin_syscalls_in_flight",
				Help: "Current number of syscalls being processed",
			},
			[]string{"syscall"},
		),
		replyBytes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "velin_syscall_reply_bytes_total",
				Help: "Total bytes of reply data copied into guest memory",
			},
			[]string{"syscall"},
		),
		activeTasks: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "velin_tasks_active",
				Help: "Current number of live tasks",
			},
		),
		tasksCreated: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "velin_tasks_created_total",
				Help: "Total number of tasks created",
			},
		),
		tasksReleased: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "velin_tasks_released_total",
				Help: "Total number of tasks released",
			},
		),
	}
}

func (m *syscallMetrics) RecordSyscall(name string, duration time.Duration, errno string) {
	if m == nil {
		return
	}

	// Successful calls carry an empty errno; label them "OK" so the
	// series stays queryable.
	label := errno
	if label == "" {
		label = "OK"
	}

	m.syscallsTotal.WithLabelValues(name, label).Inc()
	m.syscallDuration.WithLabelValues(name).Observe(duration.Seconds() * 1000)
}

func (m *syscallMetrics) RecordSyscallStart(name string) {
	if m == nil {
		return
	}
	m.syscallsInFlight.WithLabelValues(name).Inc()
}

func (m *syscallMetrics) RecordSyscallEnd(name string) {
	if m == nil {
		return
	}
	m.syscallsInFlight.WithLabelValues(name).Dec()
}

func (m *syscallMetrics) RecordReplyBytes(name string, bytes uint64) {
	if m == nil || bytes == 0 {
		return
	}
	m.replyBytes.WithLabelValues(name).Add(float64(bytes))
}

func (m *syscallMetrics) SetActiveTasks(count int32) {
	if m == nil {
		return
	}
	m.activeTasks.Set(float64(count))
}

func (m *syscallMetrics) RecordTaskCreated() {
	if m == nil {
		return
	}
	m.tasksCreated.Inc()
}

func (m *syscallMetrics) RecordTaskReleased() {
	if m == nil {
		return
	}
	m.tasksReleased.Inc()
}
