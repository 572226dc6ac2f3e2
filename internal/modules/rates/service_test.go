package rates

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"courier-broker/internal/carriers"
	"courier-broker/internal/models"
)

// fakeRepo backs both the zone resolver and the rate card store in tests.
type fakeRepo struct {
	pincodes  map[string]*models.PincodeRecord
	rateCards map[string]*models.RateCardEntry
	upserts   []*models.RateCardEntry
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		pincodes:  make(map[string]*models.PincodeRecord),
		rateCards: make(map[string]*models.RateCardEntry),
	}
}

func rateCardKey(carrier models.CarrierCode, mode string, zone models.Zone) string {
	return fmt.Sprintf("%s/%s/%s", carrier, mode, zone)
}

func (f *fakeRepo) LookupPincode(ctx context.Context, pincode string) (*models.PincodeRecord, error) {
	rec, ok := f.pincodes[pincode]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeRepo) FindRateCard(ctx context.Context, carrier models.CarrierCode, mode string, zone models.Zone) (*models.RateCardEntry, error) {
	entry, ok := f.rateCards[rateCardKey(carrier, mode, zone)]
	if !ok {
		return nil, models.ErrNoRateCard
	}
	cp := *entry
	return &cp, nil
}

func (f *fakeRepo) UpsertRateCard(ctx context.Context, entry *models.RateCardEntry) error {
	cp := *entry
	f.rateCards[rateCardKey(entry.Carrier, entry.Mode, entry.Zone)] = &cp
	f.upserts = append(f.upserts, &cp)
	return nil
}

// fakePartnerSvc serves static configurations without a store.
type fakePartnerSvc struct {
	configs map[models.CarrierCode]*models.PartnerConfig
}

func newFakePartnerSvc() *fakePartnerSvc {
	f := &fakePartnerSvc{configs: make(map[models.CarrierCode]*models.PartnerConfig)}
	for _, code := range models.AllCarriers {
		cfg := models.DefaultPartnerConfig(code)
		f.configs[code] = &cfg
	}
	return f
}

func (f *fakePartnerSvc) Resolve(ctx context.Context, code models.CarrierCode) (*models.PartnerConfig, error) {
	cfg, ok := f.configs[code]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *cfg
	return &cp, nil
}

func (f *fakePartnerSvc) EligiblePartners(ctx context.Context, pkg models.Package) []models.CarrierCode {
	var out []models.CarrierCode
	for _, code := range models.AllCarriers {
		if cfg, ok := f.configs[code]; ok && cfg.Active && cfg.Admits(pkg) {
			out = append(out, code)
		}
	}
	return out
}

func (f *fakePartnerSvc) ListActive(ctx context.Context) ([]*models.PartnerConfig, error) {
	var out []*models.PartnerConfig
	for _, cfg := range f.configs {
		if cfg.Active {
			cp := *cfg
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakePartnerSvc) Update(ctx context.Context, code models.CarrierCode, req models.PartnerUpdateRequest) (*models.PartnerConfig, error) {
	return nil, models.ErrNotFound
}

// stubAdapter scripts one carrier's quote behavior.
type stubAdapter struct {
	code   models.CarrierCode
	total  float64
	err    error
	panics bool
	calls  int
}

func (s *stubAdapter) Code() models.CarrierCode { return s.code }

func (s *stubAdapter) Quote(ctx context.Context, pkg models.Package, route models.Route, zone models.Zone) (*models.RateQuote, error) {
	s.calls++
	if s.panics {
		panic("adapter exploded")
	}
	if s.err != nil {
		return nil, s.err
	}
	return &models.RateQuote{
		ID:      fmt.Sprintf("q-%s", s.code),
		Carrier: s.code,
		Total:   s.total,
		Source:  models.MethodAPI,
	}, nil
}

func (s *stubAdapter) Book(ctx context.Context, req carriers.BookRequest) (*models.CarrierBooking, error) {
	return nil, models.ErrCarrierUnavailable
}

func (s *stubAdapter) Track(ctx context.Context, awb string) (*models.TrackingSnapshot, error) {
	return &models.TrackingSnapshot{AWB: awb, Carrier: s.code}, nil
}

func apiOnlyPartners() *fakePartnerSvc {
	f := newFakePartnerSvc()
	for _, cfg := range f.configs {
		cfg.CalculationMethod = models.MethodAPI
		cfg.APITypePreference = ""
	}
	return f
}

func testQuoteRequest() models.QuoteRequest {
	return models.QuoteRequest{
		Package: models.Package{WeightKg: 0.5, LengthCm: 10, WidthCm: 10, HeightCm: 10, PaymentMode: models.PaymentPrepaid},
		Route:   models.Route{PickupPincode: "110001", DeliveryPincode: "400001"},
	}
}

func TestQuoteAllSurvivesPartnerFailures(t *testing.T) {
	// Two of five adapters panic mid-quote; the batch must still return the
	// other three, sorted ascending, with no escaped panic.
	adapters := []*stubAdapter{
		{code: models.CarrierDelhivery, total: 90},
		{code: models.CarrierXpressbees, panics: true},
		{code: models.CarrierBluedart, total: 120},
		{code: models.CarrierDTDC, panics: true},
		{code: models.CarrierEcomExpress, total: 75},
	}
	var regAdapters []carriers.Adapter
	for _, a := range adapters {
		regAdapters = append(regAdapters, a)
	}
	svc := NewService(newFakeRepo(), apiOnlyPartners(), carriers.NewRegistry(regAdapters...))

	quotes, err := svc.QuoteAll(context.Background(), testQuoteRequest())
	if err != nil {
		t.Fatalf("QuoteAll error: %v", err)
	}
	if len(quotes) != 3 {
		t.Fatalf("got %d quotes; want 3", len(quotes))
	}
	if !sort.SliceIsSorted(quotes, func(i, j int) bool { return quotes[i].Total < quotes[j].Total }) {
		t.Errorf("quotes not sorted ascending: %+v", quotes)
	}
	if quotes[0].Carrier != models.CarrierEcomExpress || quotes[0].Total != 75 {
		t.Errorf("cheapest = %s/%.0f; want ECOM_EXPRESS/75", quotes[0].Carrier, quotes[0].Total)
	}
	for _, a := range adapters {
		if a.calls != 1 {
			t.Errorf("adapter %s called %d times; want 1", a.code, a.calls)
		}
	}
}

func TestQuotePartnerFallsBackToRateCard(t *testing.T) {
	// The API adapter errors; the partner must still be priced from the slab
	// table (the static default, since the store is empty).
	a := &stubAdapter{code: models.CarrierDelhivery, err: models.ErrCarrierUnavailable}
	partnerSvc := apiOnlyPartners()
	svc := NewService(newFakeRepo(), partnerSvc, carriers.NewRegistry(a))

	req := testQuoteRequest()
	req.Partners = []string{"delhivery"}
	quotes, err := svc.QuoteAll(context.Background(), req)
	if err != nil {
		t.Fatalf("QuoteAll error: %v", err)
	}
	if len(quotes) != 1 {
		t.Fatalf("got %d quotes; want 1", len(quotes))
	}
	q := quotes[0]
	if q.Source != models.MethodDatabase {
		t.Errorf("Source = %s; want DATABASE fallback", q.Source)
	}
	if q.Total <= 0 {
		t.Errorf("fallback total = %.2f; want positive", q.Total)
	}
}

func TestQuoteAllPrefersStoredRateCard(t *testing.T) {
	// A stored slab table beats the static default for DATABASE partners.
	fr := newFakeRepo()
	fr.rateCards[rateCardKey(models.CarrierDTDC, models.ServiceSurface, models.ZoneRestOfIndia)] = &models.RateCardEntry{
		Carrier:    models.CarrierDTDC,
		Mode:       models.ServiceSurface,
		Zone:       models.ZoneRestOfIndia,
		Slabs:      []float64{0.5},
		Base:       []float64{200},
		Additional: []float64{100},
	}
	a := &stubAdapter{code: models.CarrierDTDC}
	svc := NewService(fr, newFakePartnerSvc(), carriers.NewRegistry(a))

	req := testQuoteRequest()
	req.Partners = []string{"dtdc"}
	quotes, err := svc.QuoteAll(context.Background(), req)
	if err != nil {
		t.Fatalf("QuoteAll error: %v", err)
	}
	if len(quotes) != 1 || quotes[0].Total != 200 {
		t.Fatalf("quotes = %+v; want one quote priced 200 from the stored card", quotes)
	}
	if a.calls != 0 {
		t.Errorf("API adapter called %d times for a DATABASE partner; want 0", a.calls)
	}
}

func TestTakeQuoteConsumesOnce(t *testing.T) {
	a := &stubAdapter{code: models.CarrierDelhivery, total: 90}
	svc := NewService(newFakeRepo(), apiOnlyPartners(), carriers.NewRegistry(a))

	req := testQuoteRequest()
	req.Partners = []string{"delhivery"}
	quotes, err := svc.QuoteAll(context.Background(), req)
	if err != nil || len(quotes) != 1 {
		t.Fatalf("QuoteAll = (%v, %v); want one quote", quotes, err)
	}

	// Peeking reads the quote without consuming it.
	for i := 0; i < 3; i++ {
		peeked, _, err := svc.PeekQuote(quotes[0].ID)
		if err != nil {
			t.Fatalf("PeekQuote #%d error: %v", i+1, err)
		}
		if peeked.Total != 90 {
			t.Errorf("PeekQuote total = %.2f; want 90", peeked.Total)
		}
	}

	quote, pkg, err := svc.TakeQuote(quotes[0].ID)
	if err != nil {
		t.Fatalf("TakeQuote error: %v", err)
	}
	if quote.Total != 90 {
		t.Errorf("TakeQuote total = %.2f; want 90", quote.Total)
	}
	if pkg.WeightKg != req.Package.WeightKg {
		t.Errorf("TakeQuote package weight = %.2f; want %.2f", pkg.WeightKg, req.Package.WeightKg)
	}

	// Second take of the same quote must fail.
	if _, _, err := svc.TakeQuote(quotes[0].ID); err != models.ErrNotFound {
		t.Errorf("second TakeQuote err = %v; want ErrNotFound", err)
	}
	if _, _, err := svc.TakeQuote("never-issued"); err != models.ErrNotFound {
		t.Errorf("TakeQuote(unknown) err = %v; want ErrNotFound", err)
	}
	// Once taken, a peek fails the same way.
	if _, _, err := svc.PeekQuote(quotes[0].ID); err != models.ErrNotFound {
		t.Errorf("PeekQuote after take err = %v; want ErrNotFound", err)
	}
}

func TestUpsertRateCardValidation(t *testing.T) {
	fr := newFakeRepo()
	svc := NewService(fr, newFakePartnerSvc(), carriers.NewRegistry())

	base := models.RateCardUpsertRequest{
		Carrier:    "delhivery",
		Mode:       models.ServiceSurface,
		Zone:       models.ZoneWithinCity,
		Slabs:      []float64{0.5, 1.0},
		Base:       []float64{40, 60},
		Additional: []float64{10, 15},
	}

	if _, err := svc.UpsertRateCard(context.Background(), base); err != nil {
		t.Fatalf("valid upsert failed: %v", err)
	}
	if len(fr.upserts) != 1 {
		t.Fatalf("store received %d upserts; want 1", len(fr.upserts))
	}

	misaligned := base
	misaligned.Base = []float64{40}
	if _, err := svc.UpsertRateCard(context.Background(), misaligned); err == nil {
		t.Error("misaligned arrays accepted")
	}

	unsorted := base
	unsorted.Slabs = []float64{1.0, 0.5}
	if _, err := svc.UpsertRateCard(context.Background(), unsorted); err == nil {
		t.Error("non-increasing slabs accepted")
	}

	unknown := base
	unknown.Carrier = "fedex"
	if _, err := svc.UpsertRateCard(context.Background(), unknown); err != models.ErrUnknownCarrier {
		t.Errorf("unknown carrier err = %v; want ErrUnknownCarrier", err)
	}
}
