package tracking

import (
	"context"
	"fmt"
	"time"

	"courier-broker/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the persistence the synchronizer needs.
type RepositoryInterface interface {
	// FindByAWB loads a shipment and its event history.
	FindByAWB(ctx context.Context, awb string) (*models.Shipment, error)
	// AppendEvents inserts newly observed events for a shipment.
	AppendEvents(ctx context.Context, shipmentID string, events []models.TrackingEvent) error
	// UpdateStatus transitions the shipment (and, when delivered, the owning
	// order) to the new status.
	UpdateStatus(ctx context.Context, shipmentID, orderID, status string, deliveredAt *time.Time) error
}

// Repository implements RepositoryInterface over PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

func (r *Repository) FindByAWB(ctx context.Context, awb string) (*models.Shipment, error) {
	const query = `
		SELECT id, order_id, carrier, awb, booking_type, status,
		       COALESCE(tracking_url, ''), amount, delivered_at, created_at, updated_at
		FROM shipments
		WHERE awb = $1`
	sh := &models.Shipment{}
	err := r.db.QueryRow(ctx, query, awb).Scan(
		&sh.ID, &sh.OrderID, &sh.Carrier, &sh.AWB, &sh.BookingType, &sh.Status,
		&sh.TrackingURL, &sh.Amount, &sh.DeliveredAt, &sh.CreatedAt, &sh.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByAWB: %w", err)
	}

	const eventsQuery = `
		SELECT status, COALESCE(location, ''), event_time, COALESCE(description, '')
		FROM shipment_events
		WHERE shipment_id = $1
		ORDER BY event_time DESC`
	rows, err := r.db.Query(ctx, eventsQuery, sh.ID)
	if err != nil {
		return nil, fmt.Errorf("repository.FindByAWB events: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ev models.TrackingEvent
		if err := rows.Scan(&ev.Status, &ev.Location, &ev.Timestamp, &ev.Description); err != nil {
			return nil, fmt.Errorf("repository.FindByAWB scan: %w", err)
		}
		sh.Events = append(sh.Events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.FindByAWB rows: %w", err)
	}
	return sh, nil
}

func (r *Repository) AppendEvents(ctx context.Context, shipmentID string, events []models.TrackingEvent) error {
	const query = `
		INSERT INTO shipment_events (shipment_id, status, location, event_time, description)
		VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''))`
	for _, ev := range events {
		if _, err := r.db.Exec(ctx, query, shipmentID, ev.Status, ev.Location, ev.Timestamp, ev.Description); err != nil {
			return fmt.Errorf("repository.AppendEvents: %w", err)
		}
	}
	return nil
}

func (r *Repository) UpdateStatus(ctx context.Context, shipmentID, orderID, status string, deliveredAt *time.Time) error {
	const query = `
		UPDATE shipments
		SET status = $2,
		    delivered_at = COALESCE($3, delivered_at),
		    updated_at = now()
		WHERE id = $1`
	cmd, err := r.db.Exec(ctx, query, shipmentID, status, deliveredAt)
	if err != nil {
		return fmt.Errorf("repository.UpdateStatus: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	if status == models.ShipmentDelivered {
		const orderQuery = `
			UPDATE orders
			SET status = 'DELIVERED', updated_at = now()
			WHERE id = $1`
		if _, err := r.db.Exec(ctx, orderQuery, orderID); err != nil {
			return fmt.Errorf("repository.UpdateStatus order: %w", err)
		}
	}
	return nil
}
