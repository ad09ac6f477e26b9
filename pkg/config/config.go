// Package config defines the connector configuration: the CleverTap
// account, the event filter and the date range to extract.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/clevertap-source/pkg/client"
	"github.com/Sternrassler/clevertap-source/pkg/region"
)

// DateLayout is the YYYYMMDD layout CleverTap uses for integer dates.
const DateLayout = "20060102"

// Config is the connector configuration. It is read once per invocation
// and passed by value; nothing mutates it after Load.
type Config struct {
	AccountID string `json:"account_id" yaml:"account_id"`
	Passcode  string `json:"passcode" yaml:"passcode"`
	Region    string `json:"region,omitempty" yaml:"region"`
	EventName string `json:"event_name" yaml:"event_name"`
	StartDate int    `json:"start_date" yaml:"start_date"`
	EndDate   int    `json:"end_date,omitempty" yaml:"end_date"`
}

// WithDefaults returns a copy with optional fields filled in.
// A missing end date means "up to today" in UTC.
func (c Config) WithDefaults(now time.Time) Config {
	c.AccountID = strings.TrimSpace(c.AccountID)
	c.EventName = strings.TrimSpace(c.EventName)
	c.Region = strings.ToLower(strings.TrimSpace(c.Region))
	if c.EndDate == 0 {
		c.EndDate = DateInt(now.UTC())
	}
	return c
}

// Validate checks required fields and the date range. The returned error
// is a *client.Error of kind KindConfigInvalid.
func (c Config) Validate() error {
	required := []struct {
		name  string
		empty bool
	}{
		{"account_id", strings.TrimSpace(c.AccountID) == ""},
		{"passcode", c.Passcode == ""},
		{"event_name", strings.TrimSpace(c.EventName) == ""},
		{"start_date", c.StartDate == 0},
	}
	for _, f := range required {
		if f.empty {
			return client.Errorf(client.KindConfigInvalid, "missing required config field: %s", f.name)
		}
	}

	if _, err := ParseDate(c.StartDate); err != nil {
		return client.Wrap(err, client.KindConfigInvalid, "start_date must be a date in YYYYMMDD format")
	}
	if c.EndDate != 0 {
		if _, err := ParseDate(c.EndDate); err != nil {
			return client.Wrap(err, client.KindConfigInvalid, "end_date must be a date in YYYYMMDD format")
		}
		if c.StartDate > c.EndDate {
			return client.Errorf(client.KindConfigInvalid,
				"start_date must be less than or equal to end_date (%d > %d)", c.StartDate, c.EndDate)
		}
	}

	return nil
}

// KnownRegion reports whether Region is a recognized data center.
// Unknown regions are not an error; they resolve to the default origin.
func (c Config) KnownRegion() bool {
	return c.Region == "" || region.Known(c.Region)
}

// Endpoint returns the profiles API URL for the configured region.
func (c Config) Endpoint() string {
	return region.Endpoint(c.Region)
}

// ClientConfig returns the transport configuration for this account.
func (c Config) ClientConfig() client.Config {
	return client.DefaultConfig(c.AccountID, c.Passcode)
}

// String implements fmt.Stringer without the passcode.
func (c Config) String() string {
	return fmt.Sprintf("Config{account_id=%s region=%q event_name=%q start_date=%d end_date=%d passcode=%s}",
		c.AccountID, c.Region, c.EventName, c.StartDate, c.EndDate, mask(c.Passcode))
}

// MarshalZerologObject logs the configuration without the passcode.
func (c Config) MarshalZerologObject(e *zerolog.Event) {
	e.Str("account_id", c.AccountID).
		Str("region", c.Region).
		Str("event_name", c.EventName).
		Int("start_date", c.StartDate).
		Int("end_date", c.EndDate)
}

// ParseDate parses an integer YYYYMMDD date.
func ParseDate(v int) (time.Time, error) {
	if v < 10000101 || v > 99991231 {
		return time.Time{}, fmt.Errorf("%d is not an 8-digit date", v)
	}
	t, err := time.Parse(DateLayout, strconv.Itoa(v))
	if err != nil {
		return time.Time{}, fmt.Errorf("%d is not a calendar date", v)
	}
	return t, nil
}

// DateInt formats t as an integer YYYYMMDD date.
func DateInt(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "****"
}
