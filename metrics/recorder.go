// Package metrics provides an opt-in latency recorder for the client
// facade, backed by an HDR histogram for accurate percentiles.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Recorder aggregates request latencies. Safe for concurrent use:
// counters are atomic, the histogram is mutex-protected.
type Recorder struct {
	// Histogram range: 1 microsecond to 1 hour, 3 significant figures.
	hist   *hdrhistogram.Histogram
	histMu sync.Mutex

	total  atomic.Int64
	failed atomic.Int64
}

// Summary is a point-in-time snapshot of recorded latencies.
type Summary struct {
	Total  int64
	Failed int64
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	P50    time.Duration
	P95    time.Duration
	P99    time.Duration
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		hist: hdrhistogram.New(1, 3600000000, 3),
	}
}

// Record registers one successful exchange with its total duration.
func (r *Recorder) Record(d time.Duration) {
	r.total.Add(1)
	r.histMu.Lock()
	r.hist.RecordValue(d.Microseconds())
	r.histMu.Unlock()
}

// RecordFailure registers one failed exchange. Failures carry no latency:
// a timeout would skew the percentiles of completed requests.
func (r *Recorder) RecordFailure() {
	r.total.Add(1)
	r.failed.Add(1)
}

// Snapshot returns current aggregates.
func (r *Recorder) Snapshot() Summary {
	r.histMu.Lock()
	defer r.histMu.Unlock()

	micros := func(v int64) time.Duration { return time.Duration(v) * time.Microsecond }
	s := Summary{
		Total:  r.total.Load(),
		Failed: r.failed.Load(),
		Mean:   time.Duration(r.hist.Mean()) * time.Microsecond,
		P50:    micros(r.hist.ValueAtQuantile(50)),
		P95:    micros(r.hist.ValueAtQuantile(95)),
		P99:    micros(r.hist.ValueAtQuantile(99)),
		Max:    micros(r.hist.Max()),
	}
	if r.hist.TotalCount() > 0 {
		s.Min = micros(r.hist.Min())
	}
	return s
}

// Reset clears all recorded values.
func (r *Recorder) Reset() {
	r.histMu.Lock()
	r.hist.Reset()
	r.histMu.Unlock()
	r.total.Store(0)
	r.failed.Store(0)
}
