package blockdevice

import (
	"sync"
	"time"

	"github.com/buildbarn/bb-bfs/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	blockDevicePrometheusMetrics sync.Once

	blockDeviceOperationsDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "buildbarn",
			Subsystem: "blockdevice",
			Name:      "operations_duration_seconds",
			Help:      "Amount of time spent per operation on block devices, in seconds.",
			Buckets:   util.DecimalExponentialBuckets(-6, 6, 2),
		},
		[]string{"name", "operation", "grpc_code"})
	blockDeviceOperationsBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildbarn",
			Subsystem: "blockdevice",
			Name:      "operations_bytes_total",
			Help:      "Number of bytes transferred by block device operations.",
		},
		[]string{"name", "operation"})
)

type metricsBlockDevice struct {
	base BlockDevice
	name string

	readBytes  prometheus.Counter
	writeBytes prometheus.Counter
}

// NewMetricsBlockDevice creates a decorator for BlockDevice that
// exposes the duration and size of operations as Prometheus metrics.
func NewMetricsBlockDevice(base BlockDevice, name string) BlockDevice {
	blockDevicePrometheusMetrics.Do(func() {
		prometheus.MustRegister(blockDeviceOperationsDurationSeconds)
		prometheus.MustRegister(blockDeviceOperationsBytes)
	})

	return &metricsBlockDevice{
		base:       base,
		name:       name,
		readBytes:  blockDeviceOperationsBytes.WithLabelValues(name, "ReadAt"),
		writeBytes: blockDeviceOperationsBytes.WithLabelValues(name, "WriteAt"),
	}
}

func (bd *metricsBlockDevice) observe(operation string, timeStart time.Time, err error) {
	blockDeviceOperationsDurationSeconds.
		WithLabelValues(bd.name, operation, util.StatusCodeName(err)).
		Observe(time.Since(timeStart).Seconds())
}

func (bd *metricsBlockDevice) ReadAt(p []byte, off int64) (int, error) {
	timeStart := time.Now()
	n, err := bd.base.ReadAt(p, off)
	bd.observe("ReadAt", timeStart, err)
	bd.readBytes.Add(float64(n))
	return n, err
}

func (bd *metricsBlockDevice) WriteAt(p []byte, off int64) (int, error) {
	timeStart := time.Now()
	n, err := bd.base.WriteAt(p, off)
	bd.observe("WriteAt", timeStart, err)
	bd.writeBytes.Add(float64(n))
	return n, err
}

func (bd *metricsBlockDevice) Sync() error {
	timeStart := time.Now()
	err := bd.base.Sync()
	bd.observe("Sync", timeStart, err)
	return err
}
