package models

import "time"

// CarrierCode is a typed carrier identity. Adapter dispatch is keyed by this
// enum, resolved once at the registry boundary instead of matching raw name
// strings with casing variants.
type CarrierCode string

const (
	CarrierDelhivery   CarrierCode = "DELHIVERY"
	CarrierXpressbees  CarrierCode = "XPRESSBEES"
	CarrierBluedart    CarrierCode = "BLUEDART"
	CarrierDTDC        CarrierCode = "DTDC"
	CarrierEcomExpress CarrierCode = "ECOM_EXPRESS"
)

// AllCarriers is the hardcoded fallback partner set used when the
// configuration store yields no eligible partner.
var AllCarriers = []CarrierCode{
	CarrierDelhivery,
	CarrierXpressbees,
	CarrierBluedart,
	CarrierDTDC,
	CarrierEcomExpress,
}

// ParseCarrierCode maps a free-form carrier name to its typed code.
func ParseCarrierCode(name string) (CarrierCode, bool) {
	switch normalizeCarrierName(name) {
	case "DELHIVERY":
		return CarrierDelhivery, true
	case "XPRESSBEES":
		return CarrierXpressbees, true
	case "BLUEDART", "BLUE DART":
		return CarrierBluedart, true
	case "DTDC":
		return CarrierDTDC, true
	case "ECOM_EXPRESS", "ECOM EXPRESS", "ECOMEXPRESS":
		return CarrierEcomExpress, true
	}
	return "", false
}

func normalizeCarrierName(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}

// Calculation methods for pricing a partner's quote.
const (
	MethodAPI      = "API"
	MethodDatabase = "DATABASE"
	MethodB2BAPI   = "B2B_API"
)

// API type preference for partners that expose both retail and enterprise APIs.
const (
	APITypeB2C = "B2C"
	APITypeB2B = "B2B"
)

// PartnerConfig is the narrow projection of a partner's configuration used by
// the orchestrators. Loaded from the configuration store and cached with a
// 30-minute TTL; invalidated on administrative update.
type PartnerConfig struct {
	Carrier           CarrierCode `json:"carrier"`
	DisplayName       string      `json:"display_name"`
	Active            bool        `json:"active"`
	ServiceTypes      []string    `json:"service_types"`
	MaxWeightKg       float64     `json:"max_weight_kg"`
	MaxDimensionCm    float64     `json:"max_dimension_cm"`
	CalculationMethod string      `json:"calculation_method"` // API | DATABASE
	APITypePreference string      `json:"api_type_preference,omitempty"`
	CredentialsRef    string      `json:"credentials_ref,omitempty"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// Admits reports whether the package fits the partner's limits. Zero limits
// mean "no limit configured".
func (c PartnerConfig) Admits(p Package) bool {
	if c.MaxWeightKg > 0 && p.ChargeableWeight() > c.MaxWeightKg {
		return false
	}
	if c.MaxDimensionCm > 0 {
		if p.LengthCm > c.MaxDimensionCm || p.WidthCm > c.MaxDimensionCm || p.HeightCm > c.MaxDimensionCm {
			return false
		}
	}
	return true
}

// PartnerUpdateRequest is the admin payload for updating a partner's config.
type PartnerUpdateRequest struct {
	Active            *bool    `json:"active,omitempty"`
	ServiceTypes      []string `json:"service_types,omitempty"`
	MaxWeightKg       *float64 `json:"max_weight_kg,omitempty" validate:"omitempty,gt=0"`
	MaxDimensionCm    *float64 `json:"max_dimension_cm,omitempty" validate:"omitempty,gt=0"`
	CalculationMethod *string  `json:"calculation_method,omitempty" validate:"omitempty,oneof=API DATABASE"`
	APITypePreference *string  `json:"api_type_preference,omitempty" validate:"omitempty,oneof=B2C B2B"`
}
