package carriers

import (
	"context"
	"fmt"

	"courier-broker/internal/models"
)

// DTDC prices from local configuration only, like Bluedart.
type DTDC struct{}

func NewDTDC() *DTDC { return &DTDC{} }

func (d *DTDC) Code() models.CarrierCode { return models.CarrierDTDC }

func (d *DTDC) Quote(ctx context.Context, pkg models.Package, route models.Route, zone models.Zone) (*models.RateQuote, error) {
	return localQuote(models.CarrierDTDC, "DTDC", pkg, route, zone)
}

func (d *DTDC) Book(ctx context.Context, breq BookRequest) (*models.CarrierBooking, error) {
	return nil, fmt.Errorf("dtdc.Book: %w: no automated manifest on current contract", models.ErrCarrierUnavailable)
}

func (d *DTDC) Track(ctx context.Context, awb string) (*models.TrackingSnapshot, error) {
	return manualTrackSnapshot(models.CarrierDTDC, awb,
		"Track manually at https://www.dtdc.in/tracking with the consignment number."), nil
}
