package connector

import (
	"context"

	"github.com/Sternrassler/clevertap-source/pkg/config"
	"github.com/Sternrassler/clevertap-source/pkg/logging"
)

// Status is the outcome of Check.
type Status string

const (
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
)

// CheckResult is the outcome of Check. Message is set on failure.
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// OK reports whether the check succeeded.
func (r CheckResult) OK() bool {
	return r.Status == StatusSucceeded
}

// Check validates cfg and submits the query once. It does not download
// any page. A query that matches no profile still succeeds.
func Check(ctx context.Context, cfg config.Config, opts ...Option) CheckResult {
	o := newOptions(opts)

	cfg, err := prepare(cfg, o)
	if err != nil {
		return failed(err, "")
	}

	logger := o.logger.With().Str("operation", "check").Logger()

	api, err := newAPI(cfg, o, logger)
	if err != nil {
		return failed(err, cfg.Passcode)
	}

	cursor, err := api.AcquireCursor(ctx, query(cfg))
	if err != nil {
		logger.Warn().Err(err).Object("config", cfg).Msg("Connection check failed")
		return failed(err, cfg.Passcode)
	}

	logger.Info().
		Object("config", cfg).
		Bool("has_cursor", cursor.Present()).
		Msg("Connection check succeeded")

	return CheckResult{Status: StatusSucceeded}
}

func failed(err error, passcode string) CheckResult {
	return CheckResult{
		Status:  StatusFailed,
		Message: "Connection check failed: " + logging.Redact(err.Error(), passcode),
	}
}
