package models

import "time"

// Shipment statuses. A shipment is created at booking time, status-transitioned
// by the tracking synchronizer and never deleted.
const (
	ShipmentBooked    = "BOOKED"
	ShipmentInTransit = "IN_TRANSIT"
	ShipmentDelivered = "DELIVERED"
	ShipmentException = "EXCEPTION"
	ShipmentReturned  = "RETURNED"
)

// Shipment is the locally owned record of a booked consignment.
type Shipment struct {
	ID            string          `json:"id"`
	OrderID       string          `json:"order_id"`
	Carrier       CarrierCode     `json:"carrier"`
	AWB           string          `json:"awb"`
	BookingType   string          `json:"booking_type"`
	Status        string          `json:"status"`
	TrackingURL   string          `json:"tracking_url,omitempty"`
	Amount        float64         `json:"amount"`
	Events        []TrackingEvent `json:"events,omitempty"`
	DeliveredAt   *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TrackingEvent is one normalized scan in a shipment's history.
type TrackingEvent struct {
	Status      string    `json:"status"`
	Location    string    `json:"location,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description,omitempty"`
}

// TrackingSnapshot is the adapter-normalized view of a carrier's tracking
// response. When a tracking call fails, adapters return a snapshot with
// ManualCheck set and human instructions instead of an error.
type TrackingSnapshot struct {
	AWB          string          `json:"awb"`
	Carrier      CarrierCode     `json:"carrier"`
	Status       string          `json:"status"`
	Events       []TrackingEvent `json:"events"`
	ManualCheck  bool            `json:"manual_check,omitempty"`
	Instructions string          `json:"instructions,omitempty"`
}
