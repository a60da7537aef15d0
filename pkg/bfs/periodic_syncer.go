package bfs

import (
	"context"
	"sync"
	"time"

	"github.com/buildbarn/bb-bfs/pkg/clock"
	"github.com/buildbarn/bb-bfs/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	periodicSyncerPrometheusMetrics sync.Once

	periodicSyncerSynchronizations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildbarn",
			Subsystem: "bfs",
			Name:      "periodic_syncer_synchronizations_total",
			Help:      "Number of times the periodic syncer attempted to persist pending writes.",
		},
		[]string{"result"})
	periodicSyncerLastSuccessTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "buildbarn",
			Subsystem: "bfs",
			Name:      "periodic_syncer_last_success_timestamp_seconds",
			Help:      "Time at which the periodic syncer last persisted pending writes successfully.",
		})
)

// PeriodicSyncer calls Sync() against a Syncer at a fixed interval, so
// that writes are persisted to the underlying storage medium even if
// no explicit requests to do so are made.
type PeriodicSyncer struct {
	syncer      Syncer
	clock       clock.Clock
	errorLogger util.ErrorLogger
	interval    time.Duration

	succeeded prometheus.Counter
	failed    prometheus.Counter
}

// NewPeriodicSyncer creates a new PeriodicSyncer according to the
// arguments provided.
func NewPeriodicSyncer(syncer Syncer, clock clock.Clock, errorLogger util.ErrorLogger, interval time.Duration) *PeriodicSyncer {
	periodicSyncerPrometheusMetrics.Do(func() {
		prometheus.MustRegister(periodicSyncerSynchronizations)
		prometheus.MustRegister(periodicSyncerLastSuccessTimestamp)
	})

	return &PeriodicSyncer{
		syncer:      syncer,
		clock:       clock,
		errorLogger: errorLogger,
		interval:    interval,

		succeeded: periodicSyncerSynchronizations.WithLabelValues("Succeeded"),
		failed:    periodicSyncerSynchronizations.WithLabelValues("Failed"),
	}
}

// Run calls Sync() every time the interval elapses, until the context
// is cancelled. Failures are reported through the ErrorLogger, after
// which synchronization is retried during the next interval.
func (ps *PeriodicSyncer) Run(ctx context.Context) error {
	ticker, t := ps.clock.NewTicker(ps.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t:
			if err := ps.syncer.Sync(); err != nil {
				ps.failed.Inc()
				ps.errorLogger.Log(util.StatusWrap(err, "Failed to synchronize file system"))
			} else {
				ps.succeeded.Inc()
				periodicSyncerLastSuccessTimestamp.Set(float64(ps.clock.Now().UnixNano()) / 1e9)
			}
		}
	}
}
