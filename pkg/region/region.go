// Package region maps CleverTap data-center codes to API origins.
//
// CleverTap hosts each account in one data center. Requests for an account
// must go to that data center's origin, e.g. https://in1.api.clevertap.com.
// Accounts created before regional hosting use the bare origin.
package region

import (
	"strings"
)

// DefaultOrigin is used for an empty or unrecognized region code.
const DefaultOrigin = "https://api.clevertap.com"

// ProfilesPath is the resource path of the profiles download API.
const ProfilesPath = "/1/profiles.json"

// Known region codes.
const (
	India        = "in1"
	UnitedStates = "us1"
	Singapore    = "sg1"
	SaudiArabia  = "sk1"
	Europe       = "eu1"
)

var codes = []string{India, UnitedStates, Singapore, SaudiArabia, Europe}

// Codes returns the recognized region codes in a stable order.
func Codes() []string {
	out := make([]string, len(codes))
	copy(out, codes)
	return out
}

// Known reports whether code names a recognized data center.
func Known(code string) bool {
	code = normalize(code)
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

// Resolve returns the HTTPS origin for a region code.
// It never fails: an empty or unknown code yields DefaultOrigin.
func Resolve(code string) string {
	code = normalize(code)
	if !Known(code) {
		return DefaultOrigin
	}
	return "https://" + code + ".api.clevertap.com"
}

// Endpoint returns the profiles API URL for a region code.
func Endpoint(code string) string {
	return Resolve(code) + ProfilesPath
}

func normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
