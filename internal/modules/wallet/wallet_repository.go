package wallet

import (
	"context"
	"errors"
	"fmt"

	"courier-broker/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx, so ledger writes can
// join a caller-owned transaction. The booking orchestrator relies on this to
// couple the debit to the shipment insert atomically.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// RepositoryInterface defines the ledger storage operations.
type RepositoryInterface interface {
	// Balance returns the latest closing balance for an actor, zero if the
	// ledger has no entries yet.
	Balance(ctx context.Context, userID string) (float64, error)
	// CreateEntry writes one ledger row on the given Querier, computing the
	// closing balance at write time. A duplicate reference for the same
	// entry type returns models.ErrConflict instead of a second row.
	CreateEntry(ctx context.Context, q Querier, entry *models.LedgerEntry) error
	// ListByUser pages through an actor's ledger history, newest first.
	ListByUser(ctx context.Context, userID string, page, limit int) ([]*models.LedgerEntry, int, error)
}

// Repository implements RepositoryInterface over PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

// Balance reads the closing balance of the newest entry.
func (r *Repository) Balance(ctx context.Context, userID string) (float64, error) {
	return balanceOn(ctx, r.db, userID)
}

func balanceOn(ctx context.Context, q Querier, userID string) (float64, error) {
	const query = `
		SELECT closing_balance
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`
	var balance float64
	if err := q.QueryRow(ctx, query, userID).Scan(&balance); err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("repository.Balance: %w", err)
	}
	return balance, nil
}

// CreateEntry reads the balance the write observes and stores the movement
// with its closing balance. The closing balance is never recomputed from
// history afterwards.
func (r *Repository) CreateEntry(ctx context.Context, q Querier, entry *models.LedgerEntry) error {
	balance, err := balanceOn(ctx, q, entry.UserID)
	if err != nil {
		return fmt.Errorf("repository.CreateEntry: %w", err)
	}

	switch entry.Type {
	case models.LedgerDebit:
		entry.ClosingBalance = balance - entry.Amount
	case models.LedgerCredit:
		entry.ClosingBalance = balance + entry.Amount
	default:
		return fmt.Errorf("repository.CreateEntry: unknown entry type %q", entry.Type)
	}

	const query = `
		INSERT INTO ledger_entries (user_id, type, amount, closing_balance, reason, reference_id)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		RETURNING id, created_at`
	err = q.QueryRow(ctx, query,
		entry.UserID, entry.Type, entry.Amount, entry.ClosingBalance,
		entry.Reason, entry.ReferenceID,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.ErrConflict
		}
		return fmt.Errorf("repository.CreateEntry: %w", err)
	}
	return nil
}

// ListByUser returns one page of history plus the total count.
func (r *Repository) ListByUser(ctx context.Context, userID string, page, limit int) ([]*models.LedgerEntry, int, error) {
	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM ledger_entries WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository.ListByUser count: %w", err)
	}

	const query = `
		SELECT id, user_id, type, amount, closing_balance, reason, COALESCE(reference_id, ''), created_at
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, query, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("repository.ListByUser: %w", err)
	}
	defer rows.Close()

	var entries []*models.LedgerEntry
	for rows.Next() {
		e := &models.LedgerEntry{}
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.Type, &e.Amount, &e.ClosingBalance,
			&e.Reason, &e.ReferenceID, &e.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("repository.ListByUser scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repository.ListByUser rows: %w", err)
	}
	return entries, total, nil
}
