package rates

import (
	"context"
	"fmt"

	"courier-broker/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the pincode lookup and rate card store
// operations the rates module needs.
type RepositoryInterface interface {
	// LookupPincode returns the city/district/state record for a pincode.
	LookupPincode(ctx context.Context, pincode string) (*models.PincodeRecord, error)
	// FindRateCard returns the slab table for a (carrier, mode, zone) key.
	FindRateCard(ctx context.Context, carrier models.CarrierCode, mode string, zone models.Zone) (*models.RateCardEntry, error)
	// UpsertRateCard replaces the slab table for a (carrier, mode, zone) key.
	UpsertRateCard(ctx context.Context, entry *models.RateCardEntry) error
}

// Repository implements RepositoryInterface over PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

// LookupPincode reads the pincodes reference table.
func (r *Repository) LookupPincode(ctx context.Context, pincode string) (*models.PincodeRecord, error) {
	const query = `
		SELECT pincode, city, district, state
		FROM pincodes
		WHERE pincode = $1`
	rec := &models.PincodeRecord{}
	err := r.db.QueryRow(ctx, query, pincode).Scan(&rec.Pincode, &rec.City, &rec.District, &rec.State)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.LookupPincode: %w", err)
	}
	return rec, nil
}

// FindRateCard loads one slab table.
func (r *Repository) FindRateCard(ctx context.Context, carrier models.CarrierCode, mode string, zone models.Zone) (*models.RateCardEntry, error) {
	const query = `
		SELECT carrier, mode, zone, slabs, base, additional, cod_flat, cod_percent
		FROM rate_cards
		WHERE carrier = $1 AND mode = $2 AND zone = $3`
	entry := &models.RateCardEntry{}
	err := r.db.QueryRow(ctx, query, carrier, mode, zone).Scan(
		&entry.Carrier, &entry.Mode, &entry.Zone,
		&entry.Slabs, &entry.Base, &entry.Additional,
		&entry.CODFlat, &entry.CODPercent,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, models.ErrNoRateCard
		}
		return nil, fmt.Errorf("repository.FindRateCard: %w", err)
	}
	return entry, nil
}

// UpsertRateCard replaces the slab table for the key.
func (r *Repository) UpsertRateCard(ctx context.Context, entry *models.RateCardEntry) error {
	const query = `
		INSERT INTO rate_cards (carrier, mode, zone, slabs, base, additional, cod_flat, cod_percent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (carrier, mode, zone) DO UPDATE SET
			slabs = EXCLUDED.slabs,
			base = EXCLUDED.base,
			additional = EXCLUDED.additional,
			cod_flat = EXCLUDED.cod_flat,
			cod_percent = EXCLUDED.cod_percent`
	_, err := r.db.Exec(ctx, query,
		entry.Carrier, entry.Mode, entry.Zone,
		entry.Slabs, entry.Base, entry.Additional,
		entry.CODFlat, entry.CODPercent,
	)
	if err != nil {
		return fmt.Errorf("repository.UpsertRateCard: %w", err)
	}
	return nil
}
