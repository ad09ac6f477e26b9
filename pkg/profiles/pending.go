package profiles

import (
	"context"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/clevertap-source/pkg/client"
)

// Prometheus metrics for "query in progress" polling.
var (
	pendingPollsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clevertap_pending_polls_total",
		Help: "Total number of page requests repeated because the query was still in progress",
	})

	pendingBackoffSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "clevertap_pending_backoff_seconds",
		Help:    "Wait before repeating a page request for a query in progress",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	})

	pendingExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clevertap_pending_exhausted_total",
		Help: "Total number of queries still in progress after the last poll",
	})
)

// PendingPolicy bounds polling of a query the server is still preparing.
// Transport failures are never retried; only an explicit in-progress answer
// is.
type PendingPolicy struct {
	// MaxAttempts is the maximum number of requests for one cursor,
	// including the first.
	MaxAttempts int

	// InitialDelay is the wait after the first in-progress answer.
	InitialDelay time.Duration

	// MaxDelay caps the wait between attempts.
	MaxDelay time.Duration

	// Multiplier grows the wait after every attempt.
	Multiplier float64
}

// DefaultPendingPolicy returns the default polling policy.
func DefaultPendingPolicy() PendingPolicy {
	return PendingPolicy{
		MaxAttempts:  10,
		InitialDelay: 5 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   1.5,
	}
}

// pollPending calls fn until it reports the query ready, fails, or the
// policy is exhausted. It respects context cancellation and adds ±20%
// jitter to each wait.
func pollPending(ctx context.Context, p PendingPolicy, logger zerolog.Logger, fn func() (pending bool, err error)) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Multiplier < 1 {
		p.Multiplier = 1
	}

	delay := p.InitialDelay

	for attempt := 1; ; attempt++ {
		pending, err := fn()
		if err != nil {
			return err
		}
		if !pending {
			if attempt > 1 {
				logger.Info().Int("attempt", attempt).Msg("Query ready after polling")
			}
			return nil
		}

		if attempt >= p.MaxAttempts {
			pendingExhaustedTotal.Inc()
			logger.Warn().Int("max_attempts", p.MaxAttempts).Msg("Query still in progress, giving up")
			return client.Errorf(client.KindQueryRejected, "query still in progress after %d attempts", p.MaxAttempts)
		}

		pendingPollsTotal.Inc()

		jitter := time.Duration(float64(delay) * (0.8 + rand.Float64()*0.4))
		pendingBackoffSeconds.Observe(jitter.Seconds())

		logger.Debug().
			Int("attempt", attempt).
			Dur("backoff", jitter).
			Msg("Query in progress, waiting")

		timer := time.NewTimer(jitter)
		select {
		case <-ctx.Done():
			timer.Stop()
			return client.Wrap(ctx.Err(), client.KindTransportFailure, "cancelled while waiting for query")
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * p.Multiplier)
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
}
