// Package metrics records run statistics and optionally pushes them to a
// Prometheus Pushgateway when the run ends.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const jobName = "naver_trends_sync"

// Recorder holds the run's collectors. A nil *Recorder records nothing.
type Recorder struct {
	registry      *prometheus.Registry
	rowsInserted  *prometheus.CounterVec
	clientResults *prometheus.CounterVec
	insertRetries prometheus.Counter
	lastRun       prometheus.Gauge
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		rowsInserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "naver_trends_rows_inserted_total",
			Help: "Rows inserted into the warehouse by client and device type",
		}, []string{"client", "device_type"}),
		clientResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "naver_trends_client_syncs_total",
			Help: "Client syncs by outcome (done, no_change, failed)",
		}, []string{"outcome"}),
		insertRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "naver_trends_insert_retries_total",
			Help: "Insert attempts repeated while a new table propagated",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "naver_trends_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
	}
	r.registry.MustRegister(r.rowsInserted, r.clientResults, r.insertRetries, r.lastRun)
	return r
}

// RowsInserted adds n rows for the client and device.
func (r *Recorder) RowsInserted(client, device string, n int) {
	if r == nil || n == 0 {
		return
	}
	r.rowsInserted.WithLabelValues(client, device).Add(float64(n))
}

// ClientResult counts one client outcome.
func (r *Recorder) ClientResult(outcome string) {
	if r == nil {
		return
	}
	r.clientResults.WithLabelValues(outcome).Inc()
}

// InsertRetry counts one repeated insert attempt.
func (r *Recorder) InsertRetry() {
	if r == nil {
		return
	}
	r.insertRetries.Inc()
}

// Push stamps the finish time and sends every metric to the gateway.
func (r *Recorder) Push(gatewayURL string) error {
	if r == nil || gatewayURL == "" {
		return nil
	}
	r.lastRun.Set(float64(time.Now().Unix()))

	if err := push.New(gatewayURL, jobName).Gatherer(r.registry).Push(); err != nil {
		return fmt.Errorf("metrics: push to %s: %w", gatewayURL, err)
	}
	return nil
}
