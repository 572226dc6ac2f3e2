package models

// Booking types at the orchestration boundary. A carrier failure degrades to
// manual handling rather than propagating as a user-facing error, so the
// response always carries Success=true with one of these tags.
const (
	BookingAutomated      = "AUTOMATED"
	BookingManualRequired = "MANUAL_REQUIRED"
)

// BookingRequest is the client input for booking a previously issued quote.
type BookingRequest struct {
	QuoteID       string `json:"quote_id" validate:"required"`
	OrderID       string `json:"order_id" validate:"required"`
	PickupName    string `json:"pickup_name" validate:"required"`
	PickupPhone   string `json:"pickup_phone" validate:"required"`
	ConsigneeName string `json:"consignee_name" validate:"required"`
	ConsigneePhone string `json:"consignee_phone" validate:"required"`
	DeliveryAddress string `json:"delivery_address" validate:"required"`
	ItemDescription string `json:"item_description,omitempty"`
}

// CarrierBooking is the adapter-level result of a successful carrier call.
type CarrierBooking struct {
	AWB         string `json:"awb"`
	TrackingURL string `json:"tracking_url,omitempty"`
	CourierName string `json:"courier_name,omitempty"`
}

// BookingResult is the orchestration-level outcome returned to the caller.
type BookingResult struct {
	Success         bool   `json:"success"`
	BookingType     string `json:"booking_type"`
	AWB             string `json:"awb,omitempty"`
	TrackingURL     string `json:"tracking_url,omitempty"`
	ManualReference string `json:"manual_reference,omitempty"`
	Instructions    string `json:"instructions,omitempty"`
	ShipmentID      string `json:"shipment_id"`
	AmountDebited   float64 `json:"amount_debited"`
}
