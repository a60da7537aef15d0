package fileio

import (
	"sync"
	"time"

	"github.com/buildbarn/bb-bfs/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	engineOperationsPrometheusMetrics sync.Once

	engineOperationsDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "buildbarn",
			Subsystem: "fileio",
			Name:      "engine_operations_duration_seconds",
			Help:      "Amount of time spent per operation on file I/O engines, in seconds.",
			Buckets:   util.DecimalExponentialBuckets(-6, 6, 2),
		},
		[]string{"name", "operation", "grpc_code"})
	engineOperationsBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildbarn",
			Subsystem: "fileio",
			Name:      "engine_operations_bytes_total",
			Help:      "Number of bytes read from and written to files through file I/O engines.",
		},
		[]string{"name", "operation"})
)

type metricsEngine struct {
	base Engine
	name string

	readBytes  prometheus.Counter
	writeBytes prometheus.Counter
}

// NewMetricsEngine creates an adapter for Engine that adds basic
// instrumentation in the form of Prometheus metrics.
func NewMetricsEngine(base Engine, name string) Engine {
	engineOperationsPrometheusMetrics.Do(func() {
		prometheus.MustRegister(engineOperationsDurationSeconds)
		prometheus.MustRegister(engineOperationsBytes)
	})

	return &metricsEngine{
		base:       base,
		name:       name,
		readBytes:  engineOperationsBytes.WithLabelValues(name, "Read"),
		writeBytes: engineOperationsBytes.WithLabelValues(name, "Write"),
	}
}

func (e *metricsEngine) observe(operation string, timeStart time.Time, err error) {
	engineOperationsDurationSeconds.
		WithLabelValues(e.name, operation, util.StatusCodeName(err)).
		Observe(time.Since(timeStart).Seconds())
}

func (e *metricsEngine) Read(fd Descriptor, p []byte) (int, error) {
	timeStart := time.Now()
	n, err := e.base.Read(fd, p)
	e.observe("Read", timeStart, err)
	e.readBytes.Add(float64(n))
	return n, err
}

func (e *metricsEngine) Write(fd Descriptor, p []byte) error {
	timeStart := time.Now()
	err := e.base.Write(fd, p)
	e.observe("Write", timeStart, err)
	if err == nil {
		e.writeBytes.Add(float64(len(p)))
	}
	return err
}

func (e *metricsEngine) Seek(fd Descriptor, offset int64, whence Whence) error {
	timeStart := time.Now()
	err := e.base.Seek(fd, offset, whence)
	e.observe("Seek", timeStart, err)
	return err
}

func (e *metricsEngine) Tell(fd Descriptor) (int64, error) {
	timeStart := time.Now()
	cursor, err := e.base.Tell(fd)
	e.observe("Tell", timeStart, err)
	return cursor, err
}

func (e *metricsEngine) Size(fd Descriptor) (int64, error) {
	timeStart := time.Now()
	sizeBytes, err := e.base.Size(fd)
	e.observe("Size", timeStart, err)
	return sizeBytes, err
}
