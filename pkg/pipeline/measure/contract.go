package measure

import "time"

// Measure holds one Metric per pipeline step.
type Measure interface {
	AddMetric(name string) Metric
	GetMetric(name string) Metric
	AllMetrics() map[string]Metric
}

// Metric accumulates the durations of one step across runs.
type Metric interface {
	AddDuration(elapsed time.Duration)
	AddWaitDuration(elapsed time.Duration)
	AVGDuration() time.Duration
	AVGWaitDuration() time.Duration
	Count() int64
	SetTotalDuration(endDuration time.Duration)
	GetTotalDuration() time.Duration
}
