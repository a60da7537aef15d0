package util

import (
	"log"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ErrorLogger may be used to report errors. Implementations may decide
// to log, mutate, redirect and discard them. This interface is used in
// places where errors are generated asynchronously, meaning they cannot
// be returned to the caller directly.
type ErrorLogger interface {
	Log(err error)
}

type defaultErrorLogger struct{}

func (l defaultErrorLogger) Log(err error) {
	log.Print(err)
}

// DefaultErrorLogger writes errors using Go's standard logging package.
var DefaultErrorLogger ErrorLogger = defaultErrorLogger{}

var (
	errorLoggerPrometheusMetrics sync.Once

	errorLoggerErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildbarn",
			Subsystem: "util",
			Name:      "error_logger_errors_total",
			Help:      "Number of errors reported through error loggers, by gRPC status code.",
		},
		[]string{"name", "grpc_code"})
)

type metricsErrorLogger struct {
	base ErrorLogger
	name string
}

// NewMetricsErrorLogger creates a decorator for ErrorLogger that counts
// the number of errors reported, so that failures of background tasks
// such as periodic synchronization can be alerted on.
func NewMetricsErrorLogger(base ErrorLogger, name string) ErrorLogger {
	errorLoggerPrometheusMetrics.Do(func() {
		prometheus.MustRegister(errorLoggerErrors)
	})
	return &metricsErrorLogger{
		base: base,
		name: name,
	}
}

func (l *metricsErrorLogger) Log(err error) {
	errorLoggerErrors.WithLabelValues(l.name, StatusCodeName(err)).Inc()
	l.base.Log(err)
}
