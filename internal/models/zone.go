package models

// Zone is the coarse geographic pricing tier between a pickup and a delivery
// pincode. It is derived from a Route, never stored independently of one.
type Zone string

const (
	ZoneWithinCity   Zone = "WITHIN_CITY"
	ZoneWithinState  Zone = "WITHIN_STATE"
	ZoneMetroToMetro Zone = "METRO_TO_METRO"
	ZoneRestOfIndia  Zone = "REST_OF_INDIA"
	ZoneSpecial      Zone = "SPECIAL_ZONE"
)

// SpecialZoneStates lists destination states that always price as the special
// zone regardless of origin.
var SpecialZoneStates = map[string]bool{
	"ASSAM":             true,
	"ARUNACHAL PRADESH": true,
	"MANIPUR":           true,
	"MEGHALAYA":         true,
	"MIZORAM":           true,
	"NAGALAND":          true,
	"SIKKIM":            true,
	"TRIPURA":           true,
	"JAMMU AND KASHMIR": true,
	"HIMACHAL PRADESH":  true,
	"ANDAMAN AND NICOBAR ISLANDS": true,
}

// MetroCities is the set used for metro-to-metro classification.
var MetroCities = map[string]bool{
	"DELHI":     true,
	"NEW DELHI": true,
	"MUMBAI":    true,
	"KOLKATA":   true,
	"CHENNAI":   true,
	"BENGALURU": true,
	"HYDERABAD": true,
	"PUNE":      true,
	"AHMEDABAD": true,
}
