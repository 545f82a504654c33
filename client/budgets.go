package client

import (
	"context"
	"sync"

	"spendtrack/internal/models"
)

// BudgetStatus pairs a budget with its recomputed progress.
type BudgetStatus struct {
	Budget   models.Budget
	Progress BudgetProgress
}

// BudgetView drives the budgets screen: each budget with its spent amount,
// remaining amount, percentage, and display level.
type BudgetView struct {
	client *Client

	mu       sync.Mutex
	statuses []BudgetStatus
}

// NewBudgetView creates a budget view over the given client.
func NewBudgetView(client *Client) *BudgetView {
	return &BudgetView{client: client}
}

// Refresh refetches the budgets and their progress.
func (v *BudgetView) Refresh(ctx context.Context) error {
	budgets, err := v.client.ListBudgets(ctx)
	if err != nil {
		return err
	}

	statuses := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		progress, err := v.client.GetBudgetProgress(ctx, b.ID)
		if err != nil {
			return err
		}
		statuses = append(statuses, BudgetStatus{Budget: b, Progress: *progress})
	}

	v.mu.Lock()
	v.statuses = statuses
	v.mu.Unlock()
	return nil
}

// Statuses returns the last fetched budget statuses.
func (v *BudgetView) Statuses() []BudgetStatus {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]BudgetStatus, len(v.statuses))
	copy(out, v.statuses)
	return out
}
