package metrics

import "time"

// ResultLabel enumerates transfer result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for copy runs. Implementations may
// forward to Prometheus, OpenTelemetry, etc. The NoopRecorder default lets
// components skip nil checks.
type Recorder interface {
	ObserveDownloadDuration(d time.Duration, success bool)
	ObserveUploadDuration(d time.Duration, success bool)
	IncJobOutcome(result ResultLabel)
	IncDestinationOutcome(result ResultLabel)
	IncRetry(stage string)
	ObserveRunDuration(d time.Duration)
	SetWorkerConcurrency(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveDownloadDuration(time.Duration, bool) {}
func (NoopRecorder) ObserveUploadDuration(time.Duration, bool)   {}
func (NoopRecorder) IncJobOutcome(ResultLabel)                   {}
func (NoopRecorder) IncDestinationOutcome(ResultLabel)           {}
func (NoopRecorder) IncRetry(string)                             {}
func (NoopRecorder) ObserveRunDuration(time.Duration)            {}
func (NoopRecorder) SetWorkerConcurrency(int)                    {}
