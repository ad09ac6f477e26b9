package connector

import "github.com/Sternrassler/clevertap-source/pkg/config"

// DocumentationURL points to the CleverTap profiles download API.
const DocumentationURL = "https://developer.clevertap.com/docs/get-user-profiles-api"

// Specification describes the connector to a hosting pipeline.
type Specification struct {
	DocumentationURL        string         `json:"documentationUrl"`
	ConnectionSpecification map[string]any `json:"connectionSpecification"`
	SupportsIncremental     bool           `json:"supportsIncremental"`
	SupportedSyncModes      []SyncMode     `json:"supported_sync_modes"`
}

// Spec returns the connector specification.
func Spec() Specification {
	return Specification{
		DocumentationURL:        DocumentationURL,
		ConnectionSpecification: config.Schema(),
		SupportsIncremental:     false,
		SupportedSyncModes:      []SyncMode{SyncModeFullRefresh},
	}
}
