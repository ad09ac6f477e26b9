package connector

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"github.com/Sternrassler/clevertap-source/pkg/client"
	"github.com/Sternrassler/clevertap-source/pkg/config"
)

// StreamName is the name of the only stream.
const StreamName = "profiles"

// SyncMode is how a stream is replicated.
type SyncMode string

// SyncModeFullRefresh re-reads the whole stream on every sync.
const SyncModeFullRefresh SyncMode = "full_refresh"

// Stream describes one stream of the catalog.
type Stream struct {
	Name                    string         `json:"name"`
	JSONSchema              map[string]any `json:"json_schema"`
	SupportedSyncModes      []SyncMode     `json:"supported_sync_modes"`
	SourceDefinedPrimaryKey [][]string     `json:"source_defined_primary_key,omitempty"`
}

// Catalog lists the streams a source offers.
type Catalog struct {
	Streams []Stream `json:"streams"`
}

// ConfiguredStream is a stream selected for a sync.
type ConfiguredStream struct {
	Stream              Stream   `json:"stream"`
	SyncMode            SyncMode `json:"sync_mode"`
	DestinationSyncMode string   `json:"destination_sync_mode,omitempty"`
}

// ConfiguredCatalog lists the streams selected for a sync.
type ConfiguredCatalog struct {
	Streams []ConfiguredStream `json:"streams"`
}

// ProfilesSchema returns the JSON schema of a profile record. The field
// set is account specific, so any property is allowed.
func ProfilesSchema() map[string]any {
	return map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"type":                 "object",
		"additionalProperties": true,
		"properties":           map[string]any{},
	}
}

// ProfilesStream returns the catalog entry of the profiles stream.
func ProfilesStream() Stream {
	return Stream{
		Name:               StreamName,
		JSONSchema:         ProfilesSchema(),
		SupportedSyncModes: []SyncMode{SyncModeFullRefresh},
	}
}

// Discover validates cfg and returns the static catalog. It performs no
// request.
func Discover(cfg config.Config, opts ...Option) (Catalog, error) {
	if _, err := prepare(cfg, newOptions(opts)); err != nil {
		return Catalog{}, err
	}
	return Catalog{Streams: []Stream{ProfilesStream()}}, nil
}

// DefaultCatalog selects the profiles stream in full refresh mode.
func DefaultCatalog() *ConfiguredCatalog {
	return &ConfiguredCatalog{
		Streams: []ConfiguredStream{{
			Stream:   ProfilesStream(),
			SyncMode: SyncModeFullRefresh,
		}},
	}
}

// ParseCatalog decodes a configured catalog.
func ParseCatalog(data []byte) (*ConfiguredCatalog, error) {
	var c ConfiguredCatalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, client.Wrap(err, client.KindConfigInvalid, "catalog is not a valid document")
	}
	return &c, nil
}

// LoadCatalog reads a configured catalog file.
func LoadCatalog(path string) (*ConfiguredCatalog, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator's command line
	if err != nil {
		return nil, client.Wrap(err, client.KindConfigInvalid, "read catalog file")
	}
	return ParseCatalog(data)
}

// selectProfiles reports whether catalog selects the profiles stream.
// A nil catalog selects it.
func selectProfiles(catalog *ConfiguredCatalog) (bool, error) {
	if catalog == nil {
		return true, nil
	}
	for _, s := range catalog.Streams {
		if s.Stream.Name != StreamName {
			continue
		}
		if s.SyncMode != "" && s.SyncMode != SyncModeFullRefresh {
			return false, client.NewError(client.KindConfigInvalid,
				fmt.Sprintf("stream %s does not support sync mode %q", StreamName, s.SyncMode))
		}
		return true, nil
	}
	return false, nil
}
