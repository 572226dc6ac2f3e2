package bookings

import (
	"context"
	"fmt"

	"courier-broker/internal/models"
	"courier-broker/internal/modules/wallet"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface persists booking outcomes.
type RepositoryInterface interface {
	// SettleBooking writes the ledger debit, the shipment row and the order
	// status transition as one transaction. The ledger is never debited
	// without a recorded shipment outcome.
	SettleBooking(ctx context.Context, userID string, shipment *models.Shipment, debit *models.LedgerEntry) error
	// FindShipment loads one shipment with its event history.
	FindShipment(ctx context.Context, awb string) (*models.Shipment, error)
}

// Repository implements RepositoryInterface over PostgreSQL, delegating the
// ledger write to the wallet repository on the same transaction.
type Repository struct {
	db     *pgxpool.Pool
	ledger wallet.RepositoryInterface
}

func NewRepository(db *pgxpool.Pool, ledger wallet.RepositoryInterface) RepositoryInterface {
	return &Repository{db: db, ledger: ledger}
}

// SettleBooking runs the single logical settle unit.
func (r *Repository) SettleBooking(ctx context.Context, userID string, shipment *models.Shipment, debit *models.LedgerEntry) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("repository.SettleBooking begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.ledger.CreateEntry(ctx, tx, debit); err != nil {
		return fmt.Errorf("repository.SettleBooking ledger: %w", err)
	}

	const insertShipment = `
		INSERT INTO shipments (order_id, user_id, carrier, awb, booking_type, status, tracking_url, amount)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRow(ctx, insertShipment,
		shipment.OrderID, userID, shipment.Carrier, shipment.AWB,
		shipment.BookingType, shipment.Status, shipment.TrackingURL, shipment.Amount,
	).Scan(&shipment.ID, &shipment.CreatedAt, &shipment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository.SettleBooking shipment: %w", err)
	}

	// The owning order moves to BOOKED; a missing order row is tolerated so
	// externally managed orders do not fail the settle.
	const updateOrder = `
		UPDATE orders
		SET status = 'BOOKED', updated_at = now()
		WHERE id = $1`
	if _, err := tx.Exec(ctx, updateOrder, shipment.OrderID); err != nil {
		return fmt.Errorf("repository.SettleBooking order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository.SettleBooking commit: %w", err)
	}
	return nil
}

// FindShipment loads one shipment and its tracking events, newest first.
func (r *Repository) FindShipment(ctx context.Context, awb string) (*models.Shipment, error) {
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
		return nil, fmt.Errorf("repository.FindShipment: %w", err)
	}

	const eventsQuery = `
		SELECT status, COALESCE(location, ''), event_time, COALESCE(description, '')
		FROM shipment_events
		WHERE shipment_id = $1
		ORDER BY event_time DESC`
	rows, err := r.db.Query(ctx, eventsQuery, sh.ID)
	if err != nil {
		return nil, fmt.Errorf("repository.FindShipment events: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ev models.TrackingEvent
		if err := rows.Scan(&ev.Status, &ev.Location, &ev.Timestamp, &ev.Description); err != nil {
			return nil, fmt.Errorf("repository.FindShipment scan: %w", err)
		}
		sh.Events = append(sh.Events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.FindShipment rows: %w", err)
	}
	return sh, nil
}
