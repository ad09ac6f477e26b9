package config

import "github.com/Sternrassler/clevertap-source/pkg/region"

// Schema returns the JSON schema of Config as exposed by the spec operation.
func Schema() map[string]any {
	regions := append([]string{""}, region.Codes()...)

	return map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"title":                "CleverTap Profiles Source Spec",
		"type":                 "object",
		"required":             []string{"account_id", "passcode", "event_name", "start_date"},
		"additionalProperties": true,
		"properties": map[string]any{
			"account_id": map[string]any{
				"type":        "string",
				"title":       "Account ID",
				"description": "CleverTap project account ID (Settings > Project).",
				"order":       0,
			},
			"passcode": map[string]any{
				"type":           "string",
				"title":          "Passcode",
				"description":    "CleverTap project passcode.",
				"airbyte_secret": true,
				"order":          1,
			},
			"region": map[string]any{
				"type":        "string",
				"title":       "Region",
				"description": "Data center of the account. Empty selects the default endpoint.",
				"enum":        regions,
				"default":     "",
				"order":       2,
			},
			"event_name": map[string]any{
				"type":        "string",
				"title":       "Event Name",
				"description": "Only profiles that performed this event in the date range are returned.",
				"examples":    []string{"App Launched"},
				"order":       3,
			},
			"start_date": map[string]any{
				"type":        "integer",
				"title":       "Start Date",
				"description": "First day of the range, YYYYMMDD.",
				"examples":    []int{20220101},
				"minimum":     10000101,
				"maximum":     99991231,
				"order":       4,
			},
			"end_date": map[string]any{
				"type":        "integer",
				"title":       "End Date",
				"description": "Last day of the range, YYYYMMDD. Defaults to today (UTC).",
				"examples":    []int{20260212},
				"minimum":     10000101,
				"maximum":     99991231,
				"order":       5,
			},
		},
	}
}
