package audit

import (
	"errors"

	"go-dataset-registry/internal/model"
)

// Sink receives immutable audit entries. The dataset service is constructed
// with a Sink so tests can substitute an in-memory one. Implementations must
// be safe for concurrent use.
type Sink interface {
	Append(entry model.AuditEntry) error
}

// MultiSink fans one entry out to several sinks; every sink sees the entry
// even when an earlier one fails.
type MultiSink struct {
	sinks []Sink
}

func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (s *MultiSink) Append(entry model.AuditEntry) error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Append(entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
