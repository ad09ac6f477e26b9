package connector

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Sternrassler/clevertap-source/pkg/client"
	"github.com/Sternrassler/clevertap-source/pkg/config"
	"github.com/Sternrassler/clevertap-source/pkg/pagination"
	"github.com/Sternrassler/clevertap-source/pkg/sink"
)

// ReadSummary describes a finished or failed read. Records counts the
// records the sink accepted.
type ReadSummary struct {
	RunID    string
	Pages    int
	Records  int
	Duration time.Duration
}

// Read downloads the profiles selected by catalog and writes each record
// to out as soon as it arrives. A nil catalog selects the profiles stream.
//
// When the read fails midway, records already written stay written and
// the error is returned with the summary of what was delivered. Read does
// not close out.
func Read(ctx context.Context, cfg config.Config, catalog *ConfiguredCatalog, out sink.Sink, opts ...Option) (ReadSummary, error) {
	o := newOptions(opts)

	cfg, err := prepare(cfg, o)
	if err != nil {
		return ReadSummary{}, err
	}
	if out == nil {
		return ReadSummary{}, client.NewError(client.KindConfigInvalid, "no sink to write records to")
	}

	selected, err := selectProfiles(catalog)
	if err != nil {
		return ReadSummary{}, err
	}

	summary := ReadSummary{RunID: uuid.NewString()}
	logger := o.logger.With().
		Str("operation", "read").
		Str("run_id", summary.RunID).
		Logger()

	if !selected {
		logger.Info().Msg("Catalog does not select the profiles stream, nothing to read")
		return summary, nil
	}

	api, err := newAPI(cfg, o, logger)
	if err != nil {
		return summary, err
	}

	logger.Info().Object("config", cfg).Str("endpoint", api.Endpoint()).Msg("Starting read")

	start := time.Now()
	it := pagination.New(api, query(cfg), pagination.Config{MaxPages: o.maxPages}, logger)

	delivered := 0
	finish := func() {
		summary.Pages = it.Stats().Pages
		summary.Records = delivered
		summary.Duration = time.Since(start)
	}

	for rec, err := range it.Records(ctx) {
		if err != nil {
			finish()
			return summary, err
		}

		werr := out.Write(ctx, sink.Record{
			Stream:    StreamName,
			Data:      rec,
			EmittedAt: o.now(),
			RunID:     summary.RunID,
		})
		if werr != nil {
			finish()
			logger.Error().Err(werr).Int("records", summary.Records).Msg("Sink write failed")
			return summary, fmt.Errorf("deliver record: %w", werr)
		}
		delivered++
	}

	finish()
	logger.Info().
		Int("pages", summary.Pages).
		Int("records", summary.Records).
		Dur("duration", summary.Duration).
		Msg("Read complete")

	return summary, nil
}
