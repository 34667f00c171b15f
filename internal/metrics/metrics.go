package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"MatchSync/internal/model"
)

// Recorder publishes ingestion and HTTP metrics. A nil *Recorder records nothing, so components
// can be built without metrics in tests.
type Recorder struct {
	runs         *prometheus.CounterVec
	records      *prometheus.CounterVec
	skipped      *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
	handler      http.Handler
}

// NewRecorder registers the collectors on a private registry.
func NewRecorder() (*Recorder, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, err
	}
	r, err := NewRecorderWith(reg)
	if err != nil {
		return nil, err
	}
	r.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return r, nil
}

// NewRecorderWith registers the collectors on reg.
func NewRecorderWith(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matchsync_ingest_runs_total",
			Help: "Ingestion runs by sport and final status.",
		}, []string{"sport", "status"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matchsync_records_total",
			Help: "Reconciled records by sport and outcome.",
		}, []string{"sport", "outcome"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matchsync_extraction_skipped_total",
			Help: "Match elements skipped because they could not be extracted.",
		}, []string{"sport"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "matchsync_ingest_duration_seconds",
			Help:    "Wall time of ingestion runs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"sport"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matchsync_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "matchsync_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	for _, c := range []prometheus.Collector{r.runs, r.records, r.skipped, r.duration, r.httpRequests, r.httpLatency} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Handler serves the registry created by NewRecorder. It is nil for NewRecorderWith.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return nil
	}
	return r.handler
}

// RecordIngest records one finished run.
func (r *Recorder) RecordIngest(res model.IngestResult, elapsed time.Duration) {
	if r == nil {
		return
	}
	sport := string(res.Sport)
	r.runs.WithLabelValues(sport, res.Status).Inc()
	r.duration.WithLabelValues(sport).Observe(elapsed.Seconds())
	if res.Skipped > 0 {
		r.skipped.WithLabelValues(sport).Add(float64(res.Skipped))
	}
	if !res.Succeeded() {
		return
	}
	r.records.WithLabelValues(sport, model.Inserted.String()).Add(float64(res.Inserted))
	r.records.WithLabelValues(sport, model.Updated.String()).Add(float64(res.Updated))
	r.records.WithLabelValues(sport, model.Unchanged.String()).Add(float64(res.Unchanged))
}

// RecordHTTPRequest tracks one served request. route is the matched route pattern.
func (r *Recorder) RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
