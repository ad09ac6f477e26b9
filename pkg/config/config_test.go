package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/clevertap-source/pkg/client"
)

var fixedNow = time.Date(2026, 2, 12, 15, 4, 5, 0, time.UTC)

func validConfig() Config {
	return Config{
		AccountID: "TEST-ACCOUNT-ID",
		Passcode:  "TEST-PASSCODE",
		Region:    "in1",
		EventName: "App Launched",
		StartDate: 20220101,
		EndDate:   20260212,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing account", mutate: func(c *Config) { c.AccountID = "" }, wantErr: "missing required config field: account_id"},
		{name: "blank account", mutate: func(c *Config) { c.AccountID = "   " }, wantErr: "missing required config field: account_id"},
		{name: "missing passcode", mutate: func(c *Config) { c.Passcode = "" }, wantErr: "missing required config field: passcode"},
		{name: "missing event", mutate: func(c *Config) { c.EventName = "" }, wantErr: "missing required config field: event_name"},
		{name: "missing start", mutate: func(c *Config) { c.StartDate = 0 }, wantErr: "missing required config field: start_date"},
		{name: "start after end", mutate: func(c *Config) { c.StartDate, c.EndDate = 20220201, 20220101 }, wantErr: "start_date must be less than or equal to end_date"},
		{name: "same day", mutate: func(c *Config) { c.StartDate, c.EndDate = 20220101, 20220101 }},
		{name: "short start", mutate: func(c *Config) { c.StartDate = 2022011 }, wantErr: "start_date must be a date in YYYYMMDD format"},
		{name: "impossible start", mutate: func(c *Config) { c.StartDate = 20220231 }, wantErr: "start_date must be a date in YYYYMMDD format"},
		{name: "impossible end", mutate: func(c *Config) { c.EndDate = 20221301 }, wantErr: "end_date must be a date in YYYYMMDD format"},
		{name: "unknown region is allowed", mutate: func(c *Config) { c.Region = "mars1" }},
		{name: "empty region is allowed", mutate: func(c *Config) { c.Region = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.Is(err, client.ErrConfigInvalid), "want ErrConfigInvalid, got %v", err)
			assert.NotContains(t, err.Error(), "TEST-PASSCODE")
		})
	}
}

func TestWithDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.EndDate = 0
	cfg.Region = " EU1 "
	cfg.EventName = " App Launched "

	got := cfg.WithDefaults(fixedNow)

	assert.Equal(t, 20260212, got.EndDate)
	assert.Equal(t, "eu1", got.Region)
	assert.Equal(t, "App Launched", got.EventName)
	assert.Equal(t, 0, cfg.EndDate, "receiver must not be modified")
}

func TestWithDefaults_KeepsEndDate(t *testing.T) {
	got := validConfig().WithDefaults(fixedNow.AddDate(1, 0, 0))
	assert.Equal(t, 20260212, got.EndDate)
}

func TestEndpoint(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "https://in1.api.clevertap.com/1/profiles.json", cfg.Endpoint())
	assert.True(t, cfg.KnownRegion())

	cfg.Region = ""
	assert.Equal(t, "https://api.clevertap.com/1/profiles.json", cfg.Endpoint())
	assert.True(t, cfg.KnownRegion())

	cfg.Region = "xx9"
	assert.Equal(t, "https://api.clevertap.com/1/profiles.json", cfg.Endpoint())
	assert.False(t, cfg.KnownRegion())
}

func TestSecretNeverRendered(t *testing.T) {
	cfg := validConfig()

	assert.NotContains(t, cfg.String(), "TEST-PASSCODE")
	assert.Contains(t, cfg.String(), "passcode=****")

	var buf strings.Builder
	logger := zerolog.New(&buf)
	logger.Info().Object("config", cfg).Msg("loaded")
	assert.NotContains(t, buf.String(), "TEST-PASSCODE")
	assert.Contains(t, buf.String(), `"account_id":"TEST-ACCOUNT-ID"`)
}

func TestParse(t *testing.T) {
	data := []byte(`{
		"account_id": "TEST-ACCOUNT-ID",
		"passcode": "TEST-PASSCODE",
		"region": "in1",
		"event_name": "App Launched",
		"start_date": 20220101
	}`)

	cfg, err := Parse(data, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "TEST-ACCOUNT-ID", cfg.AccountID)
	assert.Equal(t, 20220101, cfg.StartDate)
	assert.Equal(t, 20260212, cfg.EndDate)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{name: "not json", data: `account_id=1`, wantErr: "config is not a valid document"},
		{name: "string date", data: `{"account_id":"a","passcode":"p","event_name":"e","start_date":"20220101"}`, wantErr: "start_date"},
		{name: "missing fields", data: `{"account_id":"TEST"}`, wantErr: "missing required config field"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), fixedNow)
			require.Error(t, err)
			assert.True(t, errors.Is(err, client.ErrConfigInvalid))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_JSONWithEnv(t *testing.T) {
	t.Setenv("CT_PASSCODE", "from-env$1")

	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"account_id":"A","passcode":"${CT_PASSCODE}","event_name":"App Launched","start_date":20220101,"end_date":20220201}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "from-env$1", cfg.Passcode)
	assert.Equal(t, 20220201, cfg.EndDate)
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "account_id: A\npasscode: P\nregion: sg1\nevent_name: Charged\nstart_date: 20230101\nend_date: 20230131\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "sg1", cfg.Region)
	assert.Equal(t, "Charged", cfg.EventName)
	assert.Equal(t, 20230131, cfg.EndDate)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"), fixedNow)
	require.Error(t, err)
	assert.True(t, errors.Is(err, client.ErrConfigInvalid))
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("A", "x")
	assert.Equal(t, "x-x", expandEnv("${A}-${A}"))
	assert.Equal(t, "$A ${", expandEnv("$A ${"))
	assert.Equal(t, "-", expandEnv("${UNSET_VARIABLE_FOR_TEST}-"))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(20240229)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate(20230229)
	assert.Error(t, err)

	assert.Equal(t, 20260212, DateInt(fixedNow))
}

func TestSchema(t *testing.T) {
	s := Schema()
	assert.Equal(t, "object", s["type"])
	assert.ElementsMatch(t, []string{"account_id", "passcode", "event_name", "start_date"}, s["required"])

	props := s["properties"].(map[string]any)
	passcode := props["passcode"].(map[string]any)
	assert.Equal(t, true, passcode["airbyte_secret"])

	regionProp := props["region"].(map[string]any)
	assert.Contains(t, regionProp["enum"], "")
	assert.Contains(t, regionProp["enum"], "sk1")
}
