// Package sink delivers extracted records to their destination: a stream of
// JSON messages on stdout for a hosting pipeline, or a Redis stream.
package sink

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Sternrassler/clevertap-source/pkg/profiles"
)

// Prometheus metrics for record delivery.
var (
	recordsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clevertap_sink_records_total",
		Help: "Total number of records written by sink",
	}, []string{"sink"})

	writeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clevertap_sink_errors_total",
		Help: "Total number of failed record writes by sink",
	}, []string{"sink"})
)

// Record is one extracted record together with its provenance.
type Record struct {
	Stream    string
	Data      profiles.Record
	EmittedAt time.Time
	// RunID identifies the read that produced the record.
	RunID string
}

// Sink receives records as soon as they are extracted.
//
// A record accepted by Write is never retracted, even when the read fails
// later on. Close flushes pending output; it does not close resources the
// sink did not create.
type Sink interface {
	Write(ctx context.Context, rec Record) error
	Close() error
}
