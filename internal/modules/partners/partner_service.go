package partners

import (
	"context"
	"fmt"
	"sync"
	"time"

	"courier-broker/internal/models"
)

// cacheTTL bounds how long a resolved partner configuration is served without
// rereading the store. Admin updates invalidate eagerly.
const cacheTTL = 30 * time.Minute

// ServiceInterface is the partner registry exposed to the orchestrators.
type ServiceInterface interface {
	// Resolve returns the configuration for a carrier, falling back to the
	// static defaults when the store has no entry.
	Resolve(ctx context.Context, code models.CarrierCode) (*models.PartnerConfig, error)
	// EligiblePartners returns the carriers whose limits admit the package.
	EligiblePartners(ctx context.Context, pkg models.Package) []models.CarrierCode
	// ListActive returns all active partner configurations.
	ListActive(ctx context.Context) ([]*models.PartnerConfig, error)
	// Update applies an admin change and invalidates the cache entry.
	Update(ctx context.Context, code models.CarrierCode, req models.PartnerUpdateRequest) (*models.PartnerConfig, error)
}

type cacheEntry struct {
	cfg     *models.PartnerConfig
	expires time.Time
}

// service resolves partner configuration through a TTL cache in front of the
// configuration store, with hardcoded per-carrier defaults as the last tier.
type service struct {
	repo      RepositoryInterface
	cacheLock sync.RWMutex
	cache     map[models.CarrierCode]cacheEntry
	now       func() time.Time
}

func NewService(repo RepositoryInterface) ServiceInterface {
	return &service{
		repo:  repo,
		cache: make(map[models.CarrierCode]cacheEntry),
		now:   time.Now,
	}
}

// Resolve checks the cache, then the store, then the static defaults. A store
// miss still repopulates the cache so absent partners do not hammer the store.
func (s *service) Resolve(ctx context.Context, code models.CarrierCode) (*models.PartnerConfig, error) {
	s.cacheLock.RLock()
	entry, ok := s.cache[code]
	s.cacheLock.RUnlock()
	if ok && s.now().Before(entry.expires) {
		cp := *entry.cfg
		return &cp, nil
	}

	cfg, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if err != models.ErrNotFound {
			return nil, fmt.Errorf("service.Resolve: %w", err)
		}
		def := models.DefaultPartnerConfig(code)
		cfg = &def
	}

	s.cacheLock.Lock()
	s.cache[code] = cacheEntry{cfg: cfg, expires: s.now().Add(cacheTTL)}
	s.cacheLock.Unlock()

	cp := *cfg
	return &cp, nil
}

// EligiblePartners filters all known carriers by weight/dimension limits.
// Resolution failures drop the partner rather than failing the batch.
func (s *service) EligiblePartners(ctx context.Context, pkg models.Package) []models.CarrierCode {
	var eligible []models.CarrierCode
	for _, code := range models.AllCarriers {
		cfg, err := s.Resolve(ctx, code)
		if err != nil || !cfg.Active {
			continue
		}
		if cfg.Admits(pkg) {
			eligible = append(eligible, code)
		}
	}
	return eligible
}

func (s *service) ListActive(ctx context.Context) ([]*models.PartnerConfig, error) {
	configs, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.ListActive: %w", err)
	}
	return configs, nil
}

// Update writes through to the store and drops the cached entry so the next
// Resolve observes the change immediately.
func (s *service) Update(ctx context.Context, code models.CarrierCode, req models.PartnerUpdateRequest) (*models.PartnerConfig, error) {
	cfg, err := s.repo.Update(ctx, code, req)
	if err != nil {
		return nil, fmt.Errorf("service.Update: %w", err)
	}

	s.cacheLock.Lock()
	delete(s.cache, code)
	s.cacheLock.Unlock()

	return cfg, nil
}
