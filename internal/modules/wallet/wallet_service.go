package wallet

import (
	"context"
	"fmt"

	"courier-broker/internal/models"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
)

// ServiceInterface defines the wallet operations used by handlers and by the
// booking orchestrator's funds check.
type ServiceInterface interface {
	// CheckBalance returns the actor's current balance.
	CheckBalance(ctx context.Context, userID string) (float64, error)
	// Recharge captures a top-up through the payment gateway and credits the ledger.
	Recharge(ctx context.Context, userID string, req models.RechargeRequest) (*models.LedgerEntry, error)
	// History pages through the actor's ledger.
	History(ctx context.Context, userID string, page, limit int) ([]*models.LedgerEntry, int, error)
}

// service implements ServiceInterface. The booking debit path does not go
// through here: it writes via RepositoryInterface.CreateEntry inside the
// booking transaction.
type service struct {
	repo RepositoryInterface
	pool Querier
}

// NewService wires the wallet service. stripeKey configures the global stripe
// client; an empty key leaves recharge disabled.
func NewService(repo RepositoryInterface, pool Querier, stripeKey string) ServiceInterface {
	if stripeKey != "" {
		stripe.Key = stripeKey
	}
	return &service{repo: repo, pool: pool}
}

func (s *service) CheckBalance(ctx context.Context, userID string) (float64, error) {
	balance, err := s.repo.Balance(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("service.CheckBalance: %w", err)
	}
	return balance, nil
}

// Recharge confirms a PaymentIntent for the top-up amount and credits the
// wallet with the gateway reference, so a repeated confirmation of the same
// intent cannot double-credit.
func (s *service) Recharge(ctx context.Context, userID string, req models.RechargeRequest) (*models.LedgerEntry, error) {
	if stripe.Key == "" {
		return nil, fmt.Errorf("service.Recharge: payment gateway not configured")
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(int64(req.Amount * 100)),
		Currency:      stripe.String(string(stripe.CurrencyINR)),
		PaymentMethod: stripe.String(req.PaymentMethodID),
		Confirm:       stripe.Bool(true),
	}
	params.Context = ctx

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("service.Recharge: payment failed: %w", err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, fmt.Errorf("service.Recharge: payment not completed, status %s", pi.Status)
	}

	entry := &models.LedgerEntry{
		UserID:      userID,
		Type:        models.LedgerCredit,
		Amount:      req.Amount,
		Reason:      "wallet recharge",
		ReferenceID: pi.ID,
	}
	if err := s.repo.CreateEntry(ctx, s.pool, entry); err != nil {
		return nil, fmt.Errorf("service.Recharge: %w", err)
	}
	return entry, nil
}

func (s *service) History(ctx context.Context, userID string, page, limit int) ([]*models.LedgerEntry, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	entries, total, err := s.repo.ListByUser(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("service.History: %w", err)
	}
	return entries, total, nil
}
