package metrics

import "errors"

// MultiSink fans records out to several sinks. Every sink is called even when
// an earlier one fails; the errors are joined.
type MultiSink struct {
	Sinks []Sink
}

func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

func (m *MultiSink) RecordCache(ev CacheEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordCache(ev))
	}
	return errors.Join(errs...)
}

// RecordMutation forwards to the sinks implementing MutationRecorder.
func (m *MultiSink) RecordMutation(ev MutationEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(MutationRecorder); ok {
			errs = append(errs, r.RecordMutation(ev))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordFleetProgress(p FleetProgress) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(ProgressRecorder); ok {
			errs = append(errs, r.RecordFleetProgress(p))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordLocationProgress(p []LocationProgress) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(ProgressRecorder); ok {
			errs = append(errs, r.RecordLocationProgress(p))
		}
	}
	return errors.Join(errs...)
}
