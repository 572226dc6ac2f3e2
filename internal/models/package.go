package models

import "math"

// Payment modes accepted on a shipment.
const (
	PaymentPrepaid = "PREPAID"
	PaymentCOD     = "COD"
)

// VolumetricDivisor converts L*W*H in cm to kilograms, per industry convention.
const VolumetricDivisor = 5000.0

// Package describes the parcel being quoted or booked.
type Package struct {
	WeightKg      float64 `json:"weight_kg" validate:"required,gt=0"`
	LengthCm      float64 `json:"length_cm" validate:"required,gt=0"`
	WidthCm       float64 `json:"width_cm" validate:"required,gt=0"`
	HeightCm      float64 `json:"height_cm" validate:"required,gt=0"`
	DeclaredValue float64 `json:"declared_value" validate:"gte=0"`
	PaymentMode   string  `json:"payment_mode" validate:"required,oneof=PREPAID COD"`
}

// VolumetricWeight returns L*W*H / 5000 in kg.
func (p Package) VolumetricWeight() float64 {
	return p.LengthCm * p.WidthCm * p.HeightCm / VolumetricDivisor
}

// ChargeableWeight is the greater of actual and volumetric weight.
func (p Package) ChargeableWeight() float64 {
	return math.Max(p.WeightKg, p.VolumetricWeight())
}

// IsCOD reports whether the shipment is cash-on-delivery.
func (p Package) IsCOD() bool {
	return p.PaymentMode == PaymentCOD
}

// Route is an (origin, destination) pincode pair. Immutable once a quote
// request has been issued.
type Route struct {
	PickupPincode   string `json:"pickup_pincode" validate:"required,len=6,numeric"`
	DeliveryPincode string `json:"delivery_pincode" validate:"required,len=6,numeric"`
}

// PincodeRecord is the city/state/district projection returned by the
// pincode lookup collaborator.
type PincodeRecord struct {
	Pincode  string `json:"pincode"`
	City     string `json:"city"`
	District string `json:"district"`
	State    string `json:"state"`
}
