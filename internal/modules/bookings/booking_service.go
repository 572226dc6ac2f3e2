package bookings

import (
	"context"
	"fmt"
	"log"

	"courier-broker/internal/carriers"
	"courier-broker/internal/models"
	"courier-broker/internal/modules/rates"
	"courier-broker/internal/modules/wallet"
	"courier-broker/pkg/notification"
)

// ServiceInterface defines the booking orchestration operations.
type ServiceInterface interface {
	// Book settles a previously issued quote: funds check, one carrier
	// attempt, ledger debit and shipment persistence.
	Book(ctx context.Context, userID string, req models.BookingRequest) (*models.BookingResult, error)
	// GetShipment loads a shipment by AWB or manual reference.
	GetShipment(ctx context.Context, awb string) (*models.Shipment, error)
}

// service walks the booking state machine: Selected, FundsChecked, then
// either CarrierBooked or a manual placeholder, then Settled. The carrier is
// called exactly once per request; there is no automatic retry and no way to
// retract an issued book call, so failure compensates with a placeholder
// instead of retrying or cancelling.
type service struct {
	repo     RepositoryInterface
	ratesSvc rates.ServiceInterface
	walletSvc wallet.ServiceInterface
	registry *carriers.Registry
	notifier notification.Notifier
}

func NewService(repo RepositoryInterface, ratesSvc rates.ServiceInterface, walletSvc wallet.ServiceInterface, registry *carriers.Registry, notifier notification.Notifier) ServiceInterface {
	return &service{
		repo:      repo,
		ratesSvc:  ratesSvc,
		walletSvc: walletSvc,
		registry:  registry,
		notifier:  notifier,
	}
}

// Book runs the success path Selected -> FundsChecked -> CarrierBooked ->
// Settled, degrading to ManualPlaceholderIssued when the carrier refuses.
// Insufficient funds is the only fatal, user-visible failure and aborts
// before any carrier call with no side effects.
func (s *service) Book(ctx context.Context, userID string, req models.BookingRequest) (*models.BookingResult, error) {
	// Read without consuming: an abort before the carrier call must leave the
	// quote bookable, so the user can top up and retry the same quote.
	quote, _, err := s.ratesSvc.PeekQuote(req.QuoteID)
	if err != nil {
		return nil, fmt.Errorf("service.Book: %w", err)
	}

	balance, err := s.walletSvc.CheckBalance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.Book: %w", err)
	}
	if balance < quote.Total {
		return nil, models.ErrInsufficientBalance
	}

	adapter, err := s.registry.Get(quote.Carrier)
	if err != nil {
		return nil, fmt.Errorf("service.Book: %w", err)
	}

	// Consume now that the booking is committed to proceed. Of two concurrent
	// bookings of the same quote, the loser fails here before any carrier call.
	quote, pkg, err := s.ratesSvc.TakeQuote(req.QuoteID)
	if err != nil {
		return nil, fmt.Errorf("service.Book: %w", err)
	}

	result := &models.BookingResult{Success: true, AmountDebited: quote.Total}
	shipment := &models.Shipment{
		OrderID: req.OrderID,
		Carrier: quote.Carrier,
		Status:  models.ShipmentBooked,
		Amount:  quote.Total,
	}

	booking, bookErr := adapter.Book(ctx, carriers.BookRequest{
		OrderID:         req.OrderID,
		Quote:           *quote,
		Package:         pkg,
		PickupPincode:   quote.PickupPincode,
		DeliveryPincode: quote.DeliveryPincode,
		PickupName:      req.PickupName,
		PickupPhone:     req.PickupPhone,
		ConsigneeName:   req.ConsigneeName,
		ConsigneePhone:  req.ConsigneePhone,
		DeliveryAddress: req.DeliveryAddress,
		ItemDescription: req.ItemDescription,
	})
	if bookErr != nil {
		// Degraded path: the order is never left unbooked. Operations get a
		// placeholder reference and the customer is still charged, matching
		// the manual-fulfilment policy.
		log.Printf("bookings: carrier %s refused order %s, issuing manual placeholder: %v",
			quote.Carrier, req.OrderID, bookErr)
		result.BookingType = models.BookingManualRequired
		result.ManualReference = carriers.ManualReference()
		result.Instructions = fmt.Sprintf(
			"Automated booking with %s failed. Book manually on the carrier portal and attach the AWB to reference %s.",
			quote.CarrierName, result.ManualReference)
		shipment.BookingType = models.BookingManualRequired
		shipment.AWB = result.ManualReference
	} else {
		result.BookingType = models.BookingAutomated
		result.AWB = booking.AWB
		result.TrackingURL = booking.TrackingURL
		shipment.BookingType = models.BookingAutomated
		shipment.AWB = booking.AWB
		shipment.TrackingURL = booking.TrackingURL
	}

	debit := &models.LedgerEntry{
		UserID:      userID,
		Type:        models.LedgerDebit,
		Amount:      quote.Total,
		Reason:      fmt.Sprintf("shipping charge %s (%s)", shipment.AWB, quote.CarrierName),
		ReferenceID: shipment.AWB,
	}
	if err := s.repo.SettleBooking(ctx, userID, shipment, debit); err != nil {
		// The carrier call may already have gone out and cannot be retracted;
		// surface the settle failure for reconciliation.
		return nil, fmt.Errorf("service.Book settle: %w", err)
	}
	result.ShipmentID = shipment.ID

	go func() {
		nctx := context.Background()
		s.notifier.BookingConfirmed(nctx, userID, *result)
		if result.BookingType == models.BookingManualRequired {
			s.notifier.ManualBookingRequired(nctx, *result)
		}
	}()

	return result, nil
}

func (s *service) GetShipment(ctx context.Context, awb string) (*models.Shipment, error) {
	return s.repo.FindShipment(ctx, awb)
}
