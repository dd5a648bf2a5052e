// Package monitoring declares the error-reporting hook used for failures that
// never reach a caller: background refreshes and rolled-back optimistic writes.
package monitoring

import (
	"sync"
	"time"
)

// Monitor reports errors to an external tracker.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

// OrNop returns m, or NopMonitor when m is nil.
func OrNop(m Monitor) Monitor {
	if m == nil {
		return NopMonitor{}
	}
	return m
}

// Recorder is a Monitor keeping captured errors in memory. It is safe for
// concurrent use.
type Recorder struct {
	mu       sync.Mutex
	captured []Capture
}

// Capture is one reported error with its tags.
type Capture struct {
	Err  error
	Tags map[string]string
}

func (r *Recorder) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	r.mu.Lock()
	r.captured = append(r.captured, Capture{Err: err, Tags: tags})
	r.mu.Unlock()
}

// Captures returns a copy of the recorded errors.
func (r *Recorder) Captures() []Capture {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Capture(nil), r.captured...)
}

func (r *Recorder) Recover()            {}
func (r *Recorder) Flush(time.Duration) {}
