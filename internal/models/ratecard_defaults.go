package models

// Static fallback rate cards. Every call path that cannot find a slab table in
// the configuration store resolves through here, so pricing degrades uniformly
// instead of each caller carrying its own fallback table.

// ServiceSurface is the default service mode priced by the fallback cards.
const ServiceSurface = "SURFACE"

type zoneRates struct {
	base       float64
	additional float64
	days       int
}

var defaultZoneRates = map[CarrierCode]map[Zone]zoneRates{
	CarrierDelhivery: {
		ZoneWithinCity:   {37, 32, 2},
		ZoneWithinState:  {45, 38, 3},
		ZoneMetroToMetro: {49, 42, 3},
		ZoneRestOfIndia:  {61, 52, 5},
		ZoneSpecial:      {81, 70, 7},
	},
	CarrierXpressbees: {
		ZoneWithinCity:   {35, 30, 2},
		ZoneWithinState:  {42, 36, 3},
		ZoneMetroToMetro: {47, 41, 4},
		ZoneRestOfIndia:  {58, 50, 5},
		ZoneSpecial:      {76, 66, 8},
	},
	CarrierBluedart: {
		ZoneWithinCity:   {45, 40, 1},
		ZoneWithinState:  {55, 48, 2},
		ZoneMetroToMetro: {60, 52, 2},
		ZoneRestOfIndia:  {75, 65, 4},
		ZoneSpecial:      {99, 86, 6},
	},
	CarrierDTDC: {
		ZoneWithinCity:   {33, 29, 2},
		ZoneWithinState:  {40, 35, 4},
		ZoneMetroToMetro: {45, 39, 4},
		ZoneRestOfIndia:  {55, 48, 6},
		ZoneSpecial:      {73, 63, 9},
	},
	CarrierEcomExpress: {
		ZoneWithinCity:   {36, 31, 2},
		ZoneWithinState:  {43, 37, 3},
		ZoneMetroToMetro: {48, 41, 4},
		ZoneRestOfIndia:  {59, 51, 5},
		ZoneSpecial:      {78, 68, 8},
	},
}

var defaultCODCharges = map[CarrierCode]struct {
	flat    float64
	percent float64
}{
	CarrierDelhivery:   {35, 1.5},
	CarrierXpressbees:  {30, 1.5},
	CarrierBluedart:    {50, 2.0},
	CarrierDTDC:        {30, 1.25},
	CarrierEcomExpress: {35, 1.8},
}

// DefaultRateCard returns the static slab table for a carrier and zone, or
// false for an unknown carrier. The table prices the first half kilogram at
// the base rate and each half kilogram above it at the additional rate.
func DefaultRateCard(carrier CarrierCode, zone Zone) (RateCardEntry, bool) {
	zones, ok := defaultZoneRates[carrier]
	if !ok {
		return RateCardEntry{}, false
	}
	zr, ok := zones[zone]
	if !ok {
		zr = zones[ZoneRestOfIndia]
	}
	cod := defaultCODCharges[carrier]
	return RateCardEntry{
		Carrier:    carrier,
		Mode:       ServiceSurface,
		Zone:       zone,
		Slabs:      []float64{0.5},
		Base:       []float64{zr.base},
		Additional: []float64{zr.additional},
		CODFlat:    cod.flat,
		CODPercent: cod.percent,
	}, true
}

// DefaultTransitDays returns the fallback transit estimate for a carrier and zone.
func DefaultTransitDays(carrier CarrierCode, zone Zone) int {
	zones, ok := defaultZoneRates[carrier]
	if !ok {
		return 5
	}
	zr, ok := zones[zone]
	if !ok {
		zr = zones[ZoneRestOfIndia]
	}
	return zr.days
}

// DefaultPartnerConfig is the hardcoded minimal configuration used when the
// configuration store has no entry for a known carrier, so the partner
// degrades gracefully instead of dropping out entirely.
func DefaultPartnerConfig(carrier CarrierCode) PartnerConfig {
	cfg := PartnerConfig{
		Carrier:           carrier,
		DisplayName:       string(carrier),
		Active:            true,
		ServiceTypes:      []string{ServiceSurface},
		MaxWeightKg:       50,
		CalculationMethod: MethodDatabase,
	}
	switch carrier {
	case CarrierDelhivery:
		cfg.DisplayName = "Delhivery"
		cfg.CalculationMethod = MethodAPI
		cfg.APITypePreference = APITypeB2C
	case CarrierXpressbees:
		cfg.DisplayName = "Xpressbees"
		cfg.CalculationMethod = MethodAPI
	case CarrierBluedart:
		cfg.DisplayName = "Bluedart"
		cfg.MaxWeightKg = 32
	case CarrierDTDC:
		cfg.DisplayName = "DTDC"
	case CarrierEcomExpress:
		cfg.DisplayName = "Ecom Express"
	}
	return cfg
}
