package partners

import (
	"context"
	"fmt"

	"courier-broker/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the partner configuration store operations.
type RepositoryInterface interface {
	// FindByCode returns the stored configuration for a carrier, whatever its
	// active flag. Callers gate on cfg.Active.
	FindByCode(ctx context.Context, code models.CarrierCode) (*models.PartnerConfig, error)
	// ListActive returns every active partner configuration.
	ListActive(ctx context.Context) ([]*models.PartnerConfig, error)
	// Update applies an admin update and returns the stored row.
	Update(ctx context.Context, code models.CarrierCode, req models.PartnerUpdateRequest) (*models.PartnerConfig, error)
}

// Repository implements RepositoryInterface over PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const partnerColumns = `carrier, display_name, active, service_types, max_weight_kg,
       max_dimension_cm, calculation_method, COALESCE(api_type_preference, ''),
       COALESCE(credentials_ref, ''), updated_at`

func scanPartner(row pgx.Row) (*models.PartnerConfig, error) {
	cfg := &models.PartnerConfig{}
	err := row.Scan(
		&cfg.Carrier, &cfg.DisplayName, &cfg.Active, &cfg.ServiceTypes,
		&cfg.MaxWeightKg, &cfg.MaxDimensionCm, &cfg.CalculationMethod,
		&cfg.APITypePreference, &cfg.CredentialsRef, &cfg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindByCode loads the configuration row for a carrier. Deactivated rows are
// returned as-is; filtering them here would make the defaults tier resurrect
// the partner as active.
func (r *Repository) FindByCode(ctx context.Context, code models.CarrierCode) (*models.PartnerConfig, error) {
	query := `
		SELECT ` + partnerColumns + `
		FROM partner_configs
		WHERE carrier = $1`
	cfg, err := scanPartner(r.db.QueryRow(ctx, query, code))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByCode: %w", err)
	}
	return cfg, nil
}

// ListActive returns all active partner rows ordered by carrier.
func (r *Repository) ListActive(ctx context.Context) ([]*models.PartnerConfig, error) {
	query := `
		SELECT ` + partnerColumns + `
		FROM partner_configs
		WHERE active = true
		ORDER BY carrier`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository.ListActive: %w", err)
	}
	defer rows.Close()

	var configs []*models.PartnerConfig
	for rows.Next() {
		cfg, err := scanPartner(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.ListActive scan: %w", err)
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.ListActive rows: %w", err)
	}
	return configs, nil
}

// Update upserts the partner row, seeding missing rows from the static
// defaults so an admin can adjust a partner that was never persisted.
func (r *Repository) Update(ctx context.Context, code models.CarrierCode, req models.PartnerUpdateRequest) (*models.PartnerConfig, error) {
	// Seed from the stored row even when it is deactivated, so reactivating
	// a disabled partner keeps its previous limits.
	base := models.DefaultPartnerConfig(code)
	if existing, err := r.FindByCode(ctx, code); err == nil {
		base = *existing
	}

	if req.Active != nil {
		base.Active = *req.Active
	}
	if req.ServiceTypes != nil {
		base.ServiceTypes = req.ServiceTypes
	}
	if req.MaxWeightKg != nil {
		base.MaxWeightKg = *req.MaxWeightKg
	}
	if req.MaxDimensionCm != nil {
		base.MaxDimensionCm = *req.MaxDimensionCm
	}
	if req.CalculationMethod != nil {
		base.CalculationMethod = *req.CalculationMethod
	}
	if req.APITypePreference != nil {
		base.APITypePreference = *req.APITypePreference
	}

	query := `
		INSERT INTO partner_configs (carrier, display_name, active, service_types, max_weight_kg,
		                             max_dimension_cm, calculation_method, api_type_preference,
		                             credentials_ref, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''), now())
		ON CONFLICT (carrier) DO UPDATE SET
			active = EXCLUDED.active,
			service_types = EXCLUDED.service_types,
			max_weight_kg = EXCLUDED.max_weight_kg,
			max_dimension_cm = EXCLUDED.max_dimension_cm,
			calculation_method = EXCLUDED.calculation_method,
			api_type_preference = EXCLUDED.api_type_preference,
			updated_at = now()
		RETURNING ` + partnerColumns
	cfg, err := scanPartner(r.db.QueryRow(ctx, query,
		code, base.DisplayName, base.Active, base.ServiceTypes, base.MaxWeightKg,
		base.MaxDimensionCm, base.CalculationMethod, base.APITypePreference, base.CredentialsRef,
	))
	if err != nil {
		return nil, fmt.Errorf("repository.Update: %w", err)
	}
	return cfg, nil
}
