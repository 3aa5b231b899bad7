package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cyclesTotal  prometheus.Counter
	fetchErrors  *prometheus.CounterVec
	writesTotal  *prometheus.CounterVec
	writeErrors  *prometheus.CounterVec
	indexPrice   prometheus.Gauge
	rollingAvg   prometheus.Gauge
	forwardPrice prometheus.Gauge
	optionPrice  *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		cyclesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "optwatch_cycles_total",
				Help: "Total number of completed monitoring cycles",
			},
		),
		fetchErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optwatch_fetch_errors_total",
				Help: "Total number of data source fetch failures",
			},
			[]string{"source"},
		),
		writesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optwatch_records_written_total",
				Help: "Total number of monitoring records written",
			},
			[]string{"sink"},
		),
		writeErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optwatch_record_write_errors_total",
				Help: "Total number of failed record writes",
			},
			[]string{"sink"},
		),
		indexPrice: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "optwatch_index_price",
				Help: "Last observed index price",
			},
		),
		rollingAvg: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "optwatch_rolling_average",
				Help: "Rolling average of the index price",
			},
		),
		forwardPrice: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "optwatch_forward_price",
				Help: "Forward price estimate used for pricing",
			},
		),
		optionPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "optwatch_option_price",
				Help: "Latest option price per instrument, normalized by the underlying",
			},
			[]string{"instrument", "kind"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "optwatch_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordCycle counts one completed monitoring cycle.
func (r *Recorder) RecordCycle() {
	r.cyclesTotal.Inc()
}

// RecordFetchError records a failed fetch against a data source.
func (r *Recorder) RecordFetchError(source string) {
	r.fetchErrors.WithLabelValues(source).Inc()
}

// RecordWrite records a monitoring record written to a sink.
func (r *Recorder) RecordWrite(sink string) {
	r.writesTotal.WithLabelValues(sink).Inc()
}

// RecordWriteError records a failed sink write.
func (r *Recorder) RecordWriteError(sink string) {
	r.writeErrors.WithLabelValues(sink).Inc()
}

// RecordIndex updates the spot, rolling average and forward gauges.
func (r *Recorder) RecordIndex(spot, rollingAvg, forward float64) {
	r.indexPrice.Set(spot)
	r.rollingAvg.Set(rollingAvg)
	r.forwardPrice.Set(forward)
}

// RecordOptionPrice records the latest market or model price for an instrument.
func (r *Recorder) RecordOptionPrice(instrument, kind string, price float64) {
	r.optionPrice.WithLabelValues(instrument, kind).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
