package rates

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"courier-broker/internal/carriers"
	"courier-broker/internal/models"
	"courier-broker/internal/modules/partners"

	"github.com/google/uuid"
)

// Fan-out deadlines. One hanging partner must not hold the whole batch: each
// partner call gets its own budget and the batch joins under an aggregate one.
const (
	perPartnerTimeout = 10 * time.Second
	aggregateTimeout  = 15 * time.Second
)

// quoteTTL is how long an issued quote stays bookable.
const quoteTTL = 15 * time.Minute

// ServiceInterface defines the rate orchestration operations.
type ServiceInterface interface {
	// QuoteAll fans the request out to every eligible partner and returns the
	// surviving quotes sorted ascending by total.
	QuoteAll(ctx context.Context, req models.QuoteRequest) ([]models.RateQuote, error)
	// PeekQuote returns a previously issued quote by ID without consuming it.
	PeekQuote(id string) (*models.RateQuote, models.Package, error)
	// TakeQuote consumes a previously issued quote by ID, returning the quote
	// and the package it was issued for.
	TakeQuote(id string) (*models.RateQuote, models.Package, error)
	// UpsertRateCard validates and stores an admin slab table.
	UpsertRateCard(ctx context.Context, req models.RateCardUpsertRequest) (*models.RateCardEntry, error)
}

type cachedQuote struct {
	quote   models.RateQuote
	pkg     models.Package
	expires time.Time
}

// service is the rate orchestrator: zone resolution, per-partner method
// selection with fallback, and the concurrent fan-out.
type service struct {
	repo     RepositoryInterface
	partners partners.ServiceInterface
	registry *carriers.Registry
	zones    *ZoneResolver

	quoteLock  sync.Mutex
	quoteCache map[string]cachedQuote
}

func NewService(repo RepositoryInterface, partnerSvc partners.ServiceInterface, registry *carriers.Registry) ServiceInterface {
	return &service{
		repo:       repo,
		partners:   partnerSvc,
		registry:   registry,
		zones:      NewZoneResolver(repo),
		quoteCache: make(map[string]cachedQuote),
	}
}

// QuoteAll resolves the zone once, then prices every partner concurrently.
// Any single partner's failure is converted to an absent quote; the batch
// itself never fails once validation has passed.
func (s *service) QuoteAll(ctx context.Context, req models.QuoteRequest) ([]models.RateQuote, error) {
	zone := s.zones.Resolve(ctx, req.Route)
	set := s.partnerSet(ctx, req)

	ctx, cancel := context.WithTimeout(ctx, aggregateTimeout)
	defer cancel()

	results := make([]*models.RateQuote, len(set))
	var wg sync.WaitGroup
	for i, code := range set {
		wg.Add(1)
		go func(i int, code models.CarrierCode) {
			defer wg.Done()
			results[i] = s.quotePartner(ctx, code, req, zone)
		}(i, code)
	}
	wg.Wait()

	quotes := make([]models.RateQuote, 0, len(results))
	for _, q := range results {
		if q != nil {
			quotes = append(quotes, *q)
		}
	}
	sort.Slice(quotes, func(i, j int) bool { return quotes[i].Total < quotes[j].Total })

	s.cacheQuotes(quotes, req.Package)
	return quotes, nil
}

// partnerSet picks the partners to price: the explicit request list, else all
// active partners admitting the package, else the hardcoded five-carrier
// fallback so the caller always gets a priced answer.
func (s *service) partnerSet(ctx context.Context, req models.QuoteRequest) []models.CarrierCode {
	if len(req.Partners) > 0 {
		var set []models.CarrierCode
		for _, name := range req.Partners {
			if code, ok := models.ParseCarrierCode(name); ok {
				set = append(set, code)
			}
		}
		if len(set) > 0 {
			return set
		}
	}

	if set := s.partners.EligiblePartners(ctx, req.Package); len(set) > 0 {
		return set
	}
	return models.AllCarriers
}

// quotePartner prices one partner under its own deadline. Returns nil on any
// failure; a panic in an adapter is contained here as well.
func (s *service) quotePartner(ctx context.Context, code models.CarrierCode, req models.QuoteRequest, zone models.Zone) (quote *models.RateQuote) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("rates: partner %s panicked during quote: %v", code, r)
			quote = nil
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, perPartnerTimeout)
	defer cancel()

	cfg, err := s.partners.Resolve(ctx, code)
	if err != nil || !cfg.Active || !cfg.Admits(req.Package) {
		return nil
	}

	adapter, err := s.registry.Get(code)
	if err != nil {
		return nil
	}

	if cfg.CalculationMethod == models.MethodAPI {
		// Enterprise estimator first when preferred, then the retail API.
		if cfg.APITypePreference == models.APITypeB2B {
			if b2b, ok := adapter.(carriers.B2BQuoter); ok {
				if q, err := b2b.QuoteB2B(ctx, req.Package, req.Route, zone); err == nil {
					return q
				}
			}
		}
		if q, err := adapter.Quote(ctx, req.Package, req.Route, zone); err == nil {
			return q
		}
		// API failed; re-attempt from the rate card with the same config.
	}

	return s.rateCardQuote(ctx, code, cfg, req, zone)
}

// rateCardQuote prices from the stored slab table, falling back to the static
// defaults when the store has no entry for the key.
func (s *service) rateCardQuote(ctx context.Context, code models.CarrierCode, cfg *models.PartnerConfig, req models.QuoteRequest, zone models.Zone) *models.RateQuote {
	mode := req.ServiceType
	if mode == "" {
		mode = models.ServiceSurface
	}

	entry, err := s.repo.FindRateCard(ctx, code, mode, zone)
	if err != nil {
		def, ok := models.DefaultRateCard(code, zone)
		if !ok {
			return nil
		}
		entry = &def
	}

	weight := req.Package.ChargeableWeight()
	total, breakdown := entry.Price(weight, req.Package.IsCOD())
	return &models.RateQuote{
		ID:              uuid.NewString(),
		Carrier:         code,
		CarrierName:     cfg.DisplayName,
		ServiceType:     entry.Mode,
		Zone:            zone,
		ChargeableKg:    weight,
		Total:           total,
		Breakdown:       breakdown,
		EstimatedDays:   models.DefaultTransitDays(code, zone),
		Source:          models.MethodDatabase,
		PaymentMode:     req.Package.PaymentMode,
		PickupPincode:   req.Route.PickupPincode,
		DeliveryPincode: req.Route.DeliveryPincode,
	}
}

// cacheQuotes records issued quotes for later booking, pruning expired ones.
func (s *service) cacheQuotes(quotes []models.RateQuote, pkg models.Package) {
	now := time.Now()
	s.quoteLock.Lock()
	defer s.quoteLock.Unlock()
	for id, cq := range s.quoteCache {
		if now.After(cq.expires) {
			delete(s.quoteCache, id)
		}
	}
	for _, q := range quotes {
		s.quoteCache[q.ID] = cachedQuote{quote: q, pkg: pkg, expires: now.Add(quoteTTL)}
	}
}

// PeekQuote reads a quote without consuming it, so pre-booking checks that
// abort (insufficient funds, unknown carrier) leave the quote bookable.
func (s *service) PeekQuote(id string) (*models.RateQuote, models.Package, error) {
	s.quoteLock.Lock()
	defer s.quoteLock.Unlock()
	cq, ok := s.quoteCache[id]
	if !ok || time.Now().After(cq.expires) {
		return nil, models.Package{}, models.ErrNotFound
	}
	cp := cq.quote
	return &cp, cq.pkg, nil
}

// TakeQuote consumes a quote. A quote can be booked at most once.
func (s *service) TakeQuote(id string) (*models.RateQuote, models.Package, error) {
	s.quoteLock.Lock()
	defer s.quoteLock.Unlock()
	cq, ok := s.quoteCache[id]
	if !ok || time.Now().After(cq.expires) {
		return nil, models.Package{}, models.ErrNotFound
	}
	delete(s.quoteCache, id)
	cp := cq.quote
	return &cp, cq.pkg, nil
}

// UpsertRateCard validates slab monotonicity and array alignment before storing.
func (s *service) UpsertRateCard(ctx context.Context, req models.RateCardUpsertRequest) (*models.RateCardEntry, error) {
	code, ok := models.ParseCarrierCode(req.Carrier)
	if !ok {
		return nil, models.ErrUnknownCarrier
	}
	if len(req.Slabs) != len(req.Base) || len(req.Slabs) != len(req.Additional) {
		return nil, fmt.Errorf("service.UpsertRateCard: slabs, base and additional must align")
	}
	for i := 1; i < len(req.Slabs); i++ {
		if req.Slabs[i] <= req.Slabs[i-1] {
			return nil, fmt.Errorf("service.UpsertRateCard: slabs must be strictly increasing")
		}
	}

	entry := &models.RateCardEntry{
		Carrier:    code,
		Mode:       req.Mode,
		Zone:       req.Zone,
		Slabs:      req.Slabs,
		Base:       req.Base,
		Additional: req.Additional,
		CODFlat:    req.CODFlat,
		CODPercent: req.CODPercent,
	}
	if err := s.repo.UpsertRateCard(ctx, entry); err != nil {
		return nil, fmt.Errorf("service.UpsertRateCard: %w", err)
	}
	return entry, nil
}
