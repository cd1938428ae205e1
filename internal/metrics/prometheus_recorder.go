package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once                sync.Once
	downloadDuration    *prom.HistogramVec
	uploadDuration      *prom.HistogramVec
	jobOutcomes         *prom.CounterVec
	destinationOutcomes *prom.CounterVec
	retries             *prom.CounterVec
	runDuration         prom.Histogram
	workerConcurrency   prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.downloadDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "beetmover",
			Name:      "download_duration_seconds",
			Help:      "Duration of artifact downloads",
			Buckets:   prom.DefBuckets,
		}, []string{"result"})
		pr.uploadDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "beetmover",
			Name:      "upload_duration_seconds",
			Help:      "Duration of destination uploads",
			Buckets:   prom.DefBuckets,
		}, []string{"result"})
		pr.jobOutcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "beetmover",
			Name:      "job_outcomes_total",
			Help:      "Copy job outcomes by final status",
		}, []string{"result"})
		pr.destinationOutcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "beetmover",
			Name:      "destination_outcomes_total",
			Help:      "Per-destination upload outcomes",
		}, []string{"result"})
		pr.retries = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "beetmover",
			Name:      "transfer_retries_total",
			Help:      "Total transfer retries (transient failures)",
		}, []string{"stage"})
		pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "beetmover",
			Name:      "run_duration_seconds",
			Help:      "Total copy run duration",
			Buckets:   prom.DefBuckets,
		})
		pr.workerConcurrency = prom.NewGauge(prom.GaugeOpts{
			Namespace: "beetmover",
			Name:      "worker_concurrency",
			Help:      "Configured copy job worker concurrency",
		})
		reg.MustRegister(pr.downloadDuration, pr.uploadDuration, pr.jobOutcomes,
			pr.destinationOutcomes, pr.retries, pr.runDuration, pr.workerConcurrency)
	})
	return pr
}

func resultLabel(success bool) string {
	if success {
		return string(ResultSuccess)
	}
	return string(ResultFailed)
}

func (p *PrometheusRecorder) ObserveDownloadDuration(d time.Duration, success bool) {
	if p == nil || p.downloadDuration == nil {
		return
	}
	p.downloadDuration.WithLabelValues(resultLabel(success)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveUploadDuration(d time.Duration, success bool) {
	if p == nil || p.uploadDuration == nil {
		return
	}
	p.uploadDuration.WithLabelValues(resultLabel(success)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncJobOutcome(result ResultLabel) {
	if p == nil || p.jobOutcomes == nil {
		return
	}
	p.jobOutcomes.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncDestinationOutcome(result ResultLabel) {
	if p == nil || p.destinationOutcomes == nil {
		return
	}
	p.destinationOutcomes.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncRetry(stage string) {
	if p == nil || p.retries == nil {
		return
	}
	p.retries.WithLabelValues(stage).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetWorkerConcurrency(n int) {
	if p == nil || p.workerConcurrency == nil {
		return
	}
	p.workerConcurrency.Set(float64(n))
}
