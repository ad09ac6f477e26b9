// Package connector implements the operations a data-integration pipeline
// calls on the CleverTap source: Spec, Check, Discover and Read.
//
// Every operation takes the configuration by value and validates it before
// any network call. None of them keeps state between calls.
package connector

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/clevertap-source/pkg/client"
	"github.com/Sternrassler/clevertap-source/pkg/config"
	"github.com/Sternrassler/clevertap-source/pkg/logging"
	"github.com/Sternrassler/clevertap-source/pkg/pagination"
	"github.com/Sternrassler/clevertap-source/pkg/profiles"
)

// Option configures Check and Read.
type Option func(*options)

type options struct {
	httpClient *http.Client
	timeout    time.Duration
	maxPages   int
	pending    *profiles.PendingPolicy
	logger     zerolog.Logger
	now        func() time.Time
}

func newOptions(opts []Option) options {
	o := options{
		maxPages: pagination.DefaultConfig().MaxPages,
		logger:   logging.NewLogger("connector"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithHTTPClient sets the HTTP client used for CleverTap requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithTimeout bounds every CleverTap request. Non-positive values keep
// the client default.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithMaxPages caps the number of pages of one read.
func WithMaxPages(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxPages = n
		}
	}
}

// WithPendingPolicy sets how a query still in progress is polled.
func WithPendingPolicy(p profiles.PendingPolicy) Option {
	return func(o *options) { o.pending = &p }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithClock sets the clock used for the end_date default and record
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// prepare applies defaults and validates cfg.
func prepare(cfg config.Config, o options) (config.Config, error) {
	cfg = cfg.WithDefaults(o.now())
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newAPI builds the profiles API for a validated configuration.
func newAPI(cfg config.Config, o options, logger zerolog.Logger) (*profiles.API, error) {
	ccfg := cfg.ClientConfig()
	if o.timeout > 0 {
		ccfg.Timeout = o.timeout
	}

	c, err := client.New(ccfg)
	if err != nil {
		return nil, client.Wrap(err, client.KindConfigInvalid, "create client")
	}
	if o.httpClient != nil {
		c.SetHTTPClient(o.httpClient)
	}

	if !cfg.KnownRegion() {
		logger.Warn().
			Str("region", cfg.Region).
			Str("endpoint", cfg.Endpoint()).
			Msg("Unknown region, using the default endpoint")
	}

	apiOpts := []profiles.Option{
		profiles.WithSecrets(cfg.Passcode),
		profiles.WithLogger(logger),
	}
	if o.pending != nil {
		apiOpts = append(apiOpts, profiles.WithPendingPolicy(*o.pending))
	}

	return profiles.NewAPI(c, cfg.Endpoint(), apiOpts...), nil
}

func query(cfg config.Config) profiles.Query {
	return profiles.Query{
		EventName: cfg.EventName,
		From:      cfg.StartDate,
		To:        cfg.EndDate,
	}
}
