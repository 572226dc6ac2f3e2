package bookings

import (
	"context"
	"strings"
	"testing"
	"time"

	"courier-broker/internal/carriers"
	"courier-broker/internal/models"
)

type fakeRepo struct {
	settled []settleCall
}

type settleCall struct {
	userID   string
	shipment models.Shipment
	debit    models.LedgerEntry
}

func (f *fakeRepo) SettleBooking(ctx context.Context, userID string, shipment *models.Shipment, debit *models.LedgerEntry) error {
	shipment.ID = "sh-1"
	f.settled = append(f.settled, settleCall{userID: userID, shipment: *shipment, debit: *debit})
	return nil
}

func (f *fakeRepo) FindShipment(ctx context.Context, awb string) (*models.Shipment, error) {
	for _, s := range f.settled {
		if s.shipment.AWB == awb {
			cp := s.shipment
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

// fakeRates hands out one scripted quote.
type fakeRates struct {
	quote *models.RateQuote
	pkg   models.Package
	taken bool
}

func (f *fakeRates) QuoteAll(ctx context.Context, req models.QuoteRequest) ([]models.RateQuote, error) {
	return nil, nil
}

func (f *fakeRates) PeekQuote(id string) (*models.RateQuote, models.Package, error) {
	if f.taken || f.quote == nil || f.quote.ID != id {
		return nil, models.Package{}, models.ErrNotFound
	}
	cp := *f.quote
	return &cp, f.pkg, nil
}

func (f *fakeRates) TakeQuote(id string) (*models.RateQuote, models.Package, error) {
	if f.taken || f.quote == nil || f.quote.ID != id {
		return nil, models.Package{}, models.ErrNotFound
	}
	f.taken = true
	cp := *f.quote
	return &cp, f.pkg, nil
}

func (f *fakeRates) UpsertRateCard(ctx context.Context, req models.RateCardUpsertRequest) (*models.RateCardEntry, error) {
	return nil, models.ErrNotFound
}

type fakeWallet struct {
	balance float64
	checks  int
}

func (f *fakeWallet) CheckBalance(ctx context.Context, userID string) (float64, error) {
	f.checks++
	return f.balance, nil
}

func (f *fakeWallet) Recharge(ctx context.Context, userID string, req models.RechargeRequest) (*models.LedgerEntry, error) {
	return nil, models.ErrNotFound
}

func (f *fakeWallet) History(ctx context.Context, userID string, page, limit int) ([]*models.LedgerEntry, int, error) {
	return nil, 0, nil
}

// chanNotifier publishes events on channels so tests can await the async sends.
type chanNotifier struct {
	confirmed chan models.BookingResult
	manual    chan models.BookingResult
	delivered chan models.Shipment
}

func newChanNotifier() *chanNotifier {
	return &chanNotifier{
		confirmed: make(chan models.BookingResult, 1),
		manual:    make(chan models.BookingResult, 1),
		delivered: make(chan models.Shipment, 1),
	}
}

func (n *chanNotifier) BookingConfirmed(ctx context.Context, userID string, result models.BookingResult) {
	n.confirmed <- result
}

func (n *chanNotifier) ManualBookingRequired(ctx context.Context, result models.BookingResult) {
	n.manual <- result
}

func (n *chanNotifier) ShipmentDelivered(ctx context.Context, shipment models.Shipment) {
	n.delivered <- shipment
}

// bookStub scripts the carrier Book outcome and counts calls.
type bookStub struct {
	code    models.CarrierCode
	booking *models.CarrierBooking
	err     error
	calls   int
}

func (s *bookStub) Code() models.CarrierCode { return s.code }

func (s *bookStub) Quote(ctx context.Context, pkg models.Package, route models.Route, zone models.Zone) (*models.RateQuote, error) {
	return nil, models.ErrCarrierUnavailable
}

func (s *bookStub) Book(ctx context.Context, req carriers.BookRequest) (*models.CarrierBooking, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.booking, nil
}

func (s *bookStub) Track(ctx context.Context, awb string) (*models.TrackingSnapshot, error) {
	return &models.TrackingSnapshot{AWB: awb, Carrier: s.code}, nil
}

func codQuote() (*models.RateQuote, models.Package) {
	quote := &models.RateQuote{
		ID:              "q-1",
		Carrier:         models.CarrierDelhivery,
		CarrierName:     "Delhivery",
		Total:           73,
		Zone:            models.ZoneMetroToMetro,
		PaymentMode:     models.PaymentCOD,
		PickupPincode:   "110001",
		DeliveryPincode: "400001",
	}
	pkg := models.Package{
		WeightKg: 0.5, LengthCm: 10, WidthCm: 10, HeightCm: 10,
		DeclaredValue: 1200, PaymentMode: models.PaymentCOD,
	}
	return quote, pkg
}

func bookingReq() models.BookingRequest {
	return models.BookingRequest{
		QuoteID:         "q-1",
		OrderID:         "ord-1",
		PickupName:      "Warehouse A",
		PickupPhone:     "9800000001",
		ConsigneeName:   "R. Sharma",
		ConsigneePhone:  "9800000002",
		DeliveryAddress: "14 Marine Drive, Mumbai",
		ItemDescription: "apparel",
	}
}

func TestBookInsufficientFundsAbortsBeforeCarrier(t *testing.T) {
	quote, pkg := codQuote()
	fr := &fakeRepo{}
	rates := &fakeRates{quote: quote, pkg: pkg}
	wal := &fakeWallet{balance: 50}
	stub := &bookStub{code: models.CarrierDelhivery, booking: &models.CarrierBooking{AWB: "AWB123"}}
	svc := NewService(fr, rates, wal, carriers.NewRegistry(stub), newChanNotifier())

	_, err := svc.Book(context.Background(), "user-1", bookingReq())
	if err != models.ErrInsufficientBalance {
		t.Fatalf("Book err = %v; want ErrInsufficientBalance", err)
	}
	if stub.calls != 0 {
		t.Errorf("carrier called %d times on an aborted booking; want 0", stub.calls)
	}
	if len(fr.settled) != 0 {
		t.Errorf("settle called %d times on an aborted booking; want 0", len(fr.settled))
	}
	if rates.taken {
		t.Error("aborted booking consumed the quote")
	}

	// After a top-up the same quote ID must still book.
	wal.balance = 500
	result, err := svc.Book(context.Background(), "user-1", bookingReq())
	if err != nil {
		t.Fatalf("retry after top-up failed: %v", err)
	}
	if result.BookingType != models.BookingAutomated || result.AWB != "AWB123" {
		t.Errorf("retry result = %+v; want an AUTOMATED booking of the same quote", result)
	}
}

func TestBookAutomatedSuccess(t *testing.T) {
	quote, pkg := codQuote()
	fr := &fakeRepo{}
	notifier := newChanNotifier()
	stub := &bookStub{code: models.CarrierDelhivery, booking: &models.CarrierBooking{
		AWB:         "AWB123",
		TrackingURL: "https://www.delhivery.com/track/package/AWB123",
	}}
	svc := NewService(fr, &fakeRates{quote: quote, pkg: pkg}, &fakeWallet{balance: 500},
		carriers.NewRegistry(stub), notifier)

	result, err := svc.Book(context.Background(), "user-1", bookingReq())
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}
	if !result.Success || result.BookingType != models.BookingAutomated {
		t.Errorf("result = %+v; want successful AUTOMATED booking", result)
	}
	if result.AWB != "AWB123" || result.AmountDebited != 73 {
		t.Errorf("AWB/debit = %s/%.0f; want AWB123/73", result.AWB, result.AmountDebited)
	}
	if stub.calls != 1 {
		t.Errorf("carrier called %d times; want exactly 1", stub.calls)
	}

	if len(fr.settled) != 1 {
		t.Fatalf("settle called %d times; want 1", len(fr.settled))
	}
	settle := fr.settled[0]
	if settle.debit.Type != models.LedgerDebit || settle.debit.Amount != 73 {
		t.Errorf("debit = %+v; want a 73 DEBIT", settle.debit)
	}
	if settle.shipment.AWB != "AWB123" || settle.shipment.Status != models.ShipmentBooked {
		t.Errorf("shipment = %+v; want BOOKED with AWB123", settle.shipment)
	}

	select {
	case got := <-notifier.confirmed:
		if got.AWB != "AWB123" {
			t.Errorf("confirmation AWB = %s; want AWB123", got.AWB)
		}
	case <-time.After(time.Second):
		t.Error("no booking confirmation fired")
	}
}

func TestBookCarrierFailureIssuesManualPlaceholder(t *testing.T) {
	quote, pkg := codQuote()
	fr := &fakeRepo{}
	notifier := newChanNotifier()
	stub := &bookStub{code: models.CarrierDelhivery, err: models.ErrCarrierUnavailable}
	svc := NewService(fr, &fakeRates{quote: quote, pkg: pkg}, &fakeWallet{balance: 500},
		carriers.NewRegistry(stub), notifier)

	result, err := svc.Book(context.Background(), "user-1", bookingReq())
	if err != nil {
		t.Fatalf("Book error: %v; carrier failure must not surface to the caller", err)
	}
	if !result.Success || result.BookingType != models.BookingManualRequired {
		t.Errorf("result = %+v; want successful MANUAL_REQUIRED booking", result)
	}
	if !strings.HasPrefix(result.ManualReference, "MAN-") {
		t.Errorf("ManualReference = %q; want MAN- prefix", result.ManualReference)
	}
	if result.Instructions == "" {
		t.Error("manual booking carries no instructions")
	}
	if stub.calls != 1 {
		t.Errorf("carrier called %d times; want exactly 1, no retry", stub.calls)
	}

	// The customer is still charged under the manual-fulfilment policy.
	if len(fr.settled) != 1 {
		t.Fatalf("settle called %d times; want 1", len(fr.settled))
	}
	settle := fr.settled[0]
	if settle.debit.Amount != 73 {
		t.Errorf("debit amount = %.0f; want 73", settle.debit.Amount)
	}
	if settle.shipment.AWB != result.ManualReference {
		t.Errorf("shipment AWB = %s; want the manual reference %s", settle.shipment.AWB, result.ManualReference)
	}

	select {
	case got := <-notifier.manual:
		if got.ManualReference != result.ManualReference {
			t.Errorf("ops alert reference = %s; want %s", got.ManualReference, result.ManualReference)
		}
	case <-time.After(time.Second):
		t.Error("no manual-booking alert fired")
	}
}

func TestBookExpiredQuote(t *testing.T) {
	fr := &fakeRepo{}
	wallet := &fakeWallet{balance: 500}
	svc := NewService(fr, &fakeRates{}, wallet, carriers.NewRegistry(), newChanNotifier())

	_, err := svc.Book(context.Background(), "user-1", bookingReq())
	if err == nil {
		t.Fatal("Book accepted an expired quote")
	}
	if wallet.checks != 0 {
		t.Errorf("balance checked %d times for an expired quote; want 0", wallet.checks)
	}
}
