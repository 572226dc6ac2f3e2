package models

// QuoteRequest is the client input for rate shopping across partners.
type QuoteRequest struct {
	Package
	Route
	ServiceType string   `json:"service_type,omitempty"`
	Partners    []string `json:"partners,omitempty"`
}

// ChargeBreakdown itemizes a quote's total.
type ChargeBreakdown struct {
	Base          float64 `json:"base"`
	WeightCharge  float64 `json:"weight_charge"`
	ServiceCharge float64 `json:"service_charge"`
	CODCharge     float64 `json:"cod_charge"`
	FuelSurcharge float64 `json:"fuel_surcharge"`
}

// RateQuote is one partner's priced offer. Ephemeral: held in the quote cache
// until selected or expired, never persisted.
type RateQuote struct {
	ID              string          `json:"id"`
	Carrier         CarrierCode     `json:"carrier"`
	CarrierName     string          `json:"carrier_name"`
	ServiceType     string          `json:"service_type"`
	Zone            Zone            `json:"zone"`
	ChargeableKg    float64         `json:"chargeable_kg"`
	Total           float64         `json:"total"`
	Breakdown       ChargeBreakdown `json:"breakdown"`
	EstimatedDays   int             `json:"estimated_days"`
	Source          string          `json:"source"` // API | DATABASE | B2B_API
	PaymentMode     string          `json:"payment_mode"`
	PickupPincode   string          `json:"pickup_pincode"`
	DeliveryPincode string          `json:"delivery_pincode"`
}
