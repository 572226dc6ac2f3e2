package bookings

import (
	"context"
	"sort"
	"testing"

	"courier-broker/internal/carriers"
	"courier-broker/internal/models"
	"courier-broker/internal/modules/rates"
)

// flowRatesRepo backs the real rate orchestrator: pincode fixtures, no stored
// slab tables, so pricing comes from the consolidated defaults.
type flowRatesRepo struct {
	pincodes map[string]*models.PincodeRecord
}

func (f *flowRatesRepo) LookupPincode(ctx context.Context, pincode string) (*models.PincodeRecord, error) {
	rec, ok := f.pincodes[pincode]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *flowRatesRepo) FindRateCard(ctx context.Context, carrier models.CarrierCode, mode string, zone models.Zone) (*models.RateCardEntry, error) {
	return nil, models.ErrNoRateCard
}

func (f *flowRatesRepo) UpsertRateCard(ctx context.Context, entry *models.RateCardEntry) error {
	return nil
}

// flowPartners serves the static defaults for every carrier.
type flowPartners struct{}

func (flowPartners) Resolve(ctx context.Context, code models.CarrierCode) (*models.PartnerConfig, error) {
	cfg := models.DefaultPartnerConfig(code)
	return &cfg, nil
}

func (flowPartners) EligiblePartners(ctx context.Context, pkg models.Package) []models.CarrierCode {
	var out []models.CarrierCode
	for _, code := range models.AllCarriers {
		if models.DefaultPartnerConfig(code).Admits(pkg) {
			out = append(out, code)
		}
	}
	return out
}

func (flowPartners) ListActive(ctx context.Context) ([]*models.PartnerConfig, error) {
	return nil, nil
}

func (flowPartners) Update(ctx context.Context, code models.CarrierCode, req models.PartnerUpdateRequest) (*models.PartnerConfig, error) {
	return nil, models.ErrNotFound
}

// TestQuoteAndBookCheapestFlow walks the full happy path through the real
// rate orchestrator: quote a 1.5 kg COD parcel Delhi to Mumbai across all
// five partners, then book the cheapest offer and verify the ledger is
// debited by exactly its total.
func TestQuoteAndBookCheapestFlow(t *testing.T) {
	repo := &flowRatesRepo{pincodes: map[string]*models.PincodeRecord{
		"110001": {Pincode: "110001", City: "New Delhi", District: "Central Delhi", State: "Delhi"},
		"400001": {Pincode: "400001", City: "Mumbai", District: "Mumbai", State: "Maharashtra"},
	}}

	// Live rate APIs are down, so every partner prices from its slab table;
	// only DTDC accepts the manifest.
	stubs := make(map[models.CarrierCode]*bookStub)
	var adapters []carriers.Adapter
	for _, code := range models.AllCarriers {
		s := &bookStub{code: code, err: models.ErrCarrierUnavailable}
		stubs[code] = s
		adapters = append(adapters, s)
	}
	stubs[models.CarrierDTDC].err = nil
	stubs[models.CarrierDTDC].booking = &models.CarrierBooking{AWB: "DT700123", CourierName: "DTDC"}

	registry := carriers.NewRegistry(adapters...)
	ratesSvc := rates.NewService(repo, flowPartners{}, registry)

	fr := &fakeRepo{}
	wal := &fakeWallet{balance: 0}
	svc := NewService(fr, ratesSvc, wal, registry, newChanNotifier())
	ctx := context.Background()

	quotes, err := ratesSvc.QuoteAll(ctx, models.QuoteRequest{
		Package: models.Package{
			WeightKg: 1.5, LengthCm: 20, WidthCm: 15, HeightCm: 10,
			DeclaredValue: 1499, PaymentMode: models.PaymentCOD,
		},
		Route: models.Route{PickupPincode: "110001", DeliveryPincode: "400001"},
	})
	if err != nil {
		t.Fatalf("QuoteAll error: %v", err)
	}
	if len(quotes) != 5 {
		t.Fatalf("got %d quotes; want all 5 partners priced", len(quotes))
	}
	if !sort.SliceIsSorted(quotes, func(i, j int) bool { return quotes[i].Total < quotes[j].Total }) {
		t.Fatalf("quotes not sorted ascending: %+v", quotes)
	}
	cheapest := quotes[0]
	// 1.5 kg metro-to-metro on the DTDC card: 45 + 2x39 = 123, COD
	// 30 + 1.25% of 123 = 31.5375, total 154.5375 rounds to 155.
	if cheapest.Carrier != models.CarrierDTDC || cheapest.Total != 155 {
		t.Fatalf("cheapest = %s/%.2f; want DTDC/155", cheapest.Carrier, cheapest.Total)
	}
	if cheapest.Zone != models.ZoneMetroToMetro {
		t.Errorf("zone = %s; want METRO_TO_METRO", cheapest.Zone)
	}

	breq := bookingReq()
	breq.QuoteID = cheapest.ID

	// An empty wallet aborts before the carrier and keeps the quote bookable.
	if _, err := svc.Book(ctx, "user-1", breq); err != models.ErrInsufficientBalance {
		t.Fatalf("Book on empty wallet err = %v; want ErrInsufficientBalance", err)
	}
	if stubs[models.CarrierDTDC].calls != 0 {
		t.Fatalf("carrier called on an aborted booking")
	}

	wal.balance = cheapest.Total
	result, err := svc.Book(ctx, "user-1", breq)
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}
	if result.BookingType != models.BookingAutomated || result.AWB != "DT700123" {
		t.Fatalf("result = %+v; want AUTOMATED with the carrier AWB", result)
	}
	if result.AmountDebited != cheapest.Total {
		t.Errorf("AmountDebited = %.2f; want the quoted %.2f", result.AmountDebited, cheapest.Total)
	}
	if stubs[models.CarrierDTDC].calls != 1 {
		t.Errorf("carrier called %d times; want exactly 1", stubs[models.CarrierDTDC].calls)
	}

	if len(fr.settled) != 1 {
		t.Fatalf("settle called %d times; want 1", len(fr.settled))
	}
	debit := fr.settled[0].debit
	if debit.Type != models.LedgerDebit || debit.Amount != cheapest.Total {
		t.Errorf("debit = %+v; want a %.2f DEBIT", debit, cheapest.Total)
	}

	// The quote is consumed by the settled booking.
	if _, err := svc.Book(ctx, "user-1", breq); err == nil {
		t.Error("the same quote booked twice")
	}
}
