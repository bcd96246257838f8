// Package metrics provides the MetricsRecorder interface and a noop implementation.
package metrics

import "time"

// Footer lookup outcomes passed to RecordFooter.
const (
	FooterHit         = "hit"
	FooterAbsent      = "absent"
	FooterUnsupported = "unsupported"
)

// MetricsRecorder is the interface for recording decoder and mapping-tier
// metrics.
type MetricsRecorder interface {
	RecordHit(tier, kind string)
	RecordMiss(tier, kind string)
	RecordLatency(component, op string, d time.Duration)
	RecordError(component, op string)
	RecordFooter(outcome string)
	RecordDirtyCount(count int64)
}

// Noop is a MetricsRecorder that discards all data.
type Noop struct{}

func (Noop) RecordHit(tier, kind string)                         {}
func (Noop) RecordMiss(tier, kind string)                        {}
func (Noop) RecordLatency(component, op string, d time.Duration) {}
func (Noop) RecordError(component, op string)                    {}
func (Noop) RecordFooter(outcome string)                         {}
func (Noop) RecordDirtyCount(count int64)                        {}
