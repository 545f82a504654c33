package client

import (
	"context"
	"sync"

	"spendtrack/internal/listview"
	"spendtrack/internal/money"
)

// BalanceView tracks the user's income, expense, and balance totals for the
// home screen header. Refresh on a change notification or on a poll; either
// way the figures come from the server in one round trip.
type BalanceView struct {
	client *Client

	mu     sync.Mutex
	totals listview.Totals
}

// NewBalanceView creates a balance view over the given client.
func NewBalanceView(client *Client) *BalanceView {
	return &BalanceView{client: client}
}

// Refresh refetches the totals.
func (v *BalanceView) Refresh(ctx context.Context) error {
	totals, err := v.client.GetBalance(ctx)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.totals = *totals
	v.mu.Unlock()
	return nil
}

// Totals returns the last fetched figures.
func (v *BalanceView) Totals() listview.Totals {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.totals
}

// FormattedBalance renders the balance as a decimal string for display.
func (v *BalanceView) FormattedBalance() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return money.FormatCents(v.totals.BalanceCents)
}
