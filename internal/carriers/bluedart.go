package carriers

import (
	"context"
	"fmt"

	"courier-broker/internal/models"

	"github.com/google/uuid"
)

// Bluedart prices synchronously from local configuration; there is no live
// rate API on this contract. Bookings raise a structured error so the booking
// orchestrator issues a manual placeholder, and tracking always defers to the
// carrier portal.
type Bluedart struct{}

func NewBluedart() *Bluedart { return &Bluedart{} }

func (b *Bluedart) Code() models.CarrierCode { return models.CarrierBluedart }

// Quote computes from the built-in slab table. No network call.
func (b *Bluedart) Quote(ctx context.Context, pkg models.Package, route models.Route, zone models.Zone) (*models.RateQuote, error) {
	return localQuote(models.CarrierBluedart, "Bluedart", pkg, route, zone)
}

// Book has no automated path on this contract.
func (b *Bluedart) Book(ctx context.Context, breq BookRequest) (*models.CarrierBooking, error) {
	return nil, fmt.Errorf("bluedart.Book: %w: no automated manifest on current contract", models.ErrCarrierUnavailable)
}

// Track defers to the carrier portal.
func (b *Bluedart) Track(ctx context.Context, awb string) (*models.TrackingSnapshot, error) {
	return manualTrackSnapshot(models.CarrierBluedart, awb,
		"Track manually at https://www.bluedart.com/tracking with the AWB number."), nil
}

// localQuote prices a package from the consolidated default rate cards.
// Shared by every adapter that computes quotes without a network call.
func localQuote(code models.CarrierCode, name string, pkg models.Package, route models.Route, zone models.Zone) (*models.RateQuote, error) {
	card, ok := models.DefaultRateCard(code, zone)
	if !ok {
		return nil, models.ErrNoRateCard
	}
	weight := pkg.ChargeableWeight()
	total, breakdown := card.Price(weight, pkg.IsCOD())
	return &models.RateQuote{
		ID:              uuid.NewString(),
		Carrier:         code,
		CarrierName:     name,
		ServiceType:     card.Mode,
		Zone:            zone,
		ChargeableKg:    weight,
		Total:           total,
		Breakdown:       breakdown,
		EstimatedDays:   models.DefaultTransitDays(code, zone),
		Source:          models.MethodDatabase,
		PaymentMode:     pkg.PaymentMode,
		PickupPincode:   route.PickupPincode,
		DeliveryPincode: route.DeliveryPincode,
	}, nil
}

// ManualReference generates the synthetic reference used when a carrier
// booking degrades to manual handling.
func ManualReference() string {
	return "MAN-" + uuid.NewString()[:8]
}
