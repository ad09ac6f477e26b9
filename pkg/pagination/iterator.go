package pagination

import (
	"context"
	"iter"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/clevertap-source/pkg/client"
	"github.com/Sternrassler/clevertap-source/pkg/profiles"
)

// Prometheus metrics for the cursor loop.
var (
	pagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clevertap_pages_total",
		Help: "Total number of profile pages fetched",
	})

	recordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clevertap_records_total",
		Help: "Total number of profile records yielded",
	})

	limitExceededTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clevertap_pagination_limit_exceeded_total",
		Help: "Total number of downloads stopped by the page cap",
	})
)

// progressEvery is the page interval of progress log lines.
const progressEvery = 50

// Config holds iterator configuration.
type Config struct {
	// MaxPages caps the number of page requests of one download. A server
	// that still returns a cursor after MaxPages pages is treated as broken.
	MaxPages int
}

// DefaultConfig returns the default iterator configuration.
func DefaultConfig() Config {
	return Config{
		MaxPages: 100000,
	}
}

// PageSource is the protocol the iterator drives. *profiles.API implements it.
type PageSource interface {
	AcquireCursor(ctx context.Context, q profiles.Query) (profiles.Cursor, error)
	FetchPage(ctx context.Context, token string) (profiles.Page, error)
}

// Stats summarizes the progress of an iterator.
type Stats struct {
	Pages   int
	Records int
}

// Iterator downloads the profiles matching one query.
type Iterator struct {
	source PageSource
	query  profiles.Query
	config Config
	logger zerolog.Logger

	used    atomic.Bool
	pages   atomic.Int64
	records atomic.Int64
}

// New creates an iterator. It does not perform any request.
func New(source PageSource, query profiles.Query, config Config, logger zerolog.Logger) *Iterator {
	if config.MaxPages <= 0 {
		config.MaxPages = DefaultConfig().MaxPages
	}

	return &Iterator{
		source: source,
		query:  query,
		config: config,
		logger: logger,
	}
}

// Stats returns the pages fetched and records yielded so far.
func (it *Iterator) Stats() Stats {
	return Stats{
		Pages:   int(it.pages.Load()),
		Records: int(it.records.Load()),
	}
}

// Records returns the record sequence. Requests are only issued while the
// sequence is ranged over, and stop as soon as the consumer breaks out.
// Any error is yielded once, as the last element.
//
// The sequence can be consumed once; later calls yield an error.
func (it *Iterator) Records(ctx context.Context) iter.Seq2[profiles.Record, error] {
	return func(yield func(profiles.Record, error) bool) {
		if !it.used.CompareAndSwap(false, true) {
			yield(nil, client.NewError(client.KindConfigInvalid, "record sequence already consumed"))
			return
		}

		start := time.Now()
		err := it.run(ctx, yield)

		stats := it.Stats()
		event := it.logger.Info()
		if err != nil {
			event = it.logger.Error().Err(err)
		}
		event.
			Str("event_name", it.query.EventName).
			Int("pages", stats.Pages).
			Int("records", stats.Records).
			Dur("duration", time.Since(start)).
			Msg("Profile download finished")

		if err != nil {
			yield(nil, err)
		}
	}
}

// run walks the cursor chain. It returns nil when the chain ends or the
// consumer stops early.
func (it *Iterator) run(ctx context.Context, yield func(profiles.Record, error) bool) error {
	it.logger.Info().
		Str("event_name", it.query.EventName).
		Int("from", it.query.From).
		Int("to", it.query.To).
		Msg("Starting profile download")

	cursor, err := it.source.AcquireCursor(ctx, it.query)
	if err != nil {
		return err
	}

	for {
		token, ok := cursor.Token()
		if !ok {
			return nil
		}

		if int(it.pages.Load()) >= it.config.MaxPages {
			limitExceededTotal.Inc()
			return client.Errorf(client.KindPaginationLimitExceeded,
				"server still returned a cursor after %d pages", it.config.MaxPages)
		}

		page, err := it.source.FetchPage(ctx, token)
		if err != nil {
			return err
		}

		n := it.pages.Add(1)
		pagesTotal.Inc()

		it.logger.Debug().
			Int64("page", n).
			Str("cursor", cursor.String()).
			Int("records", len(page.Records)).
			Bool("more", page.Next.Present()).
			Msg("Fetched profile page")

		if n%progressEvery == 0 {
			it.logger.Info().
				Int64("pages", n).
				Int64("records", it.records.Load()).
				Msg("Download progress")
		}

		for _, rec := range page.Records {
			it.records.Add(1)
			recordsTotal.Inc()
			if !yield(rec, nil) {
				return nil
			}
		}

		cursor = page.Next
	}
}

// Collect drains a record sequence into a slice. Records yielded before a
// failure are returned together with the error.
func Collect(seq iter.Seq2[profiles.Record, error]) ([]profiles.Record, error) {
	var out []profiles.Record
	for rec, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}
