// Package carriers provides the uniform adapter contract for shipping
// partners. Each adapter hides its carrier's authentication, request shaping
// and response parsing behind Quote, Book and Track.
package carriers

import (
	"context"
	"net/http"
	"time"

	"courier-broker/internal/models"
)

// Adapter is the contract every carrier integration implements.
//
// Failure policy: Quote returns an error instead of a quote and never panics
// past the adapter boundary; Book returns a structured error that the booking
// orchestrator converts into a manual placeholder; Track returns a
// manual-check snapshot with human instructions rather than an error when the
// carrier cannot be reached.
type Adapter interface {
	// Code returns the typed carrier identity.
	Code() models.CarrierCode

	// Quote prices the package for the given route and resolved zone.
	Quote(ctx context.Context, pkg models.Package, route models.Route, zone models.Zone) (*models.RateQuote, error)

	// Book creates the shipment with the carrier and returns the AWB.
	Book(ctx context.Context, req BookRequest) (*models.CarrierBooking, error)

	// Track fetches and normalizes the carrier's tracking events for an AWB.
	Track(ctx context.Context, awb string) (*models.TrackingSnapshot, error)
}

// B2BQuoter is implemented by adapters that expose a separate enterprise
// freight estimator in addition to the retail Quote path.
type B2BQuoter interface {
	QuoteB2B(ctx context.Context, pkg models.Package, route models.Route, zone models.Zone) (*models.RateQuote, error)
}

// BookRequest carries everything an adapter needs to manifest a shipment.
type BookRequest struct {
	OrderID         string
	Quote           models.RateQuote
	Package         models.Package
	PickupPincode   string
	DeliveryPincode string
	PickupName      string
	PickupPhone     string
	ConsigneeName   string
	ConsigneePhone  string
	DeliveryAddress string
	ItemDescription string
}

// Registry resolves a typed carrier code to its adapter. Adapters are
// registered once at startup via an explicit map, not string-keyed lookup.
type Registry struct {
	adapters map[models.CarrierCode]Adapter
}

// NewRegistry builds a registry from the given adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	m := make(map[models.CarrierCode]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Code()] = a
	}
	return &Registry{adapters: m}
}

// Get returns the adapter for a carrier code.
func (r *Registry) Get(code models.CarrierCode) (Adapter, error) {
	a, ok := r.adapters[code]
	if !ok {
		return nil, models.ErrUnknownCarrier
	}
	return a, nil
}

// newHTTPClient is the shared client shape for carrier API calls.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}
