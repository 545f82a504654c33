// Package listview holds the pure in-memory list operations behind the
// transaction screens: substring search, the four fixed sort orders, and
// incremental patching of an already-fetched list from change
// notifications. Everything here is a pure function of its inputs so the
// same code backs both the HTTP list endpoint and the client SDK.
package listview

import (
	"sort"
	"strings"

	"spendtrack/internal/events"
	"spendtrack/internal/models"
)

// SortKey identifies one of the four fixed transaction orderings.
type SortKey string

const (
	SortDateDesc   SortKey = "date-desc"
	SortDateAsc    SortKey = "date-asc"
	SortAmountDesc SortKey = "amount-desc"
	SortAmountAsc  SortKey = "amount-asc"
)

// DefaultSort is the order lists are fetched in (creation time descending).
const DefaultSort = SortDateDesc

// ValidSortKey reports whether key names a supported ordering.
func ValidSortKey(key string) bool {
	switch SortKey(key) {
	case SortDateDesc, SortDateAsc, SortAmountDesc, SortAmountAsc:
		return true
	}
	return false
}

// Filter returns the transactions whose title, description, or type contain
// query, compared case-insensitively. A blank query returns the input
// unchanged. The input slice is never mutated.
func Filter(txns []models.Transaction, query string) []models.Transaction {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return txns
	}

	out := make([]models.Transaction, 0, len(txns))
	for _, t := range txns {
		if strings.Contains(strings.ToLower(t.Title), q) ||
			strings.Contains(strings.ToLower(t.Description), q) ||
			strings.Contains(strings.ToLower(string(t.Type)), q) {
			out = append(out, t)
		}
	}
	return out
}

// Sort returns a copy of txns ordered by key. The sort is stable, so
// reapplying the same key or switching keys back and forth never reshuffles
// equal elements.
func Sort(txns []models.Transaction, key SortKey) []models.Transaction {
	out := make([]models.Transaction, len(txns))
	copy(out, txns)

	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j], key)
	})
	return out
}

func less(a, b models.Transaction, key SortKey) bool {
	switch key {
	case SortDateAsc:
		return a.CreatedAt.Before(b.CreatedAt)
	case SortDateDesc:
		return b.CreatedAt.Before(a.CreatedAt)
	case SortAmountAsc:
		return a.AmountCents < b.AmountCents
	case SortAmountDesc:
		return a.AmountCents > b.AmountCents
	}
	return false
}

// Patch applies a single change notification to an already-sorted list,
// preserving the ordering for key. Inserts are spliced into position,
// updates replace by id, deletes remove by id. When limit > 0 the result is
// truncated to at most limit entries. The input slice is never mutated.
func Patch(txns []models.Transaction, ev events.EventType, newRow, oldRow *models.Transaction, key SortKey, limit int) []models.Transaction {
	out := make([]models.Transaction, 0, len(txns)+1)
	out = append(out, txns...)

	switch ev {
	case events.EventInsert:
		if newRow == nil {
			return out
		}
		pos := len(out)
		for i := range out {
			if less(*newRow, out[i], key) {
				pos = i
				break
			}
		}
		out = append(out, models.Transaction{})
		copy(out[pos+1:], out[pos:])
		out[pos] = *newRow

	case events.EventUpdate:
		if newRow == nil {
			return out
		}
		for i := range out {
			if out[i].ID == newRow.ID {
				out[i] = *newRow
				break
			}
		}
		// An update can move the row under amount orderings.
		out = Sort(out, key)

	case events.EventDelete:
		if oldRow == nil {
			return out
		}
		for i := range out {
			if out[i].ID == oldRow.ID {
				out = append(out[:i], out[i+1:]...)
				break
			}
		}
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Totals aggregates a transaction set by type.
type Totals struct {
	IncomeCents  int64 `json:"income_cents"`
	ExpenseCents int64 `json:"expense_cents"`
	BalanceCents int64 `json:"balance_cents"`
}

// ComputeTotals sums the set by type; balance is income minus expense.
func ComputeTotals(txns []models.Transaction) Totals {
	var t Totals
	for _, txn := range txns {
		switch txn.Type {
		case models.TransactionTypeIncome:
			t.IncomeCents += txn.AmountCents
		case models.TransactionTypeExpense:
			t.ExpenseCents += txn.AmountCents
		}
	}
	t.BalanceCents = t.IncomeCents - t.ExpenseCents
	return t
}
