package client

import (
	"context"
	"sync"

	apperrors "spendtrack/internal/errors"
	"spendtrack/internal/listview"
	"spendtrack/internal/models"
)

// TransactionList is the controller behind the transaction screen. It holds
// the fetched rows and derives the visible list from the current search
// query and sort key without refetching.
type TransactionList struct {
	client *Client

	mu    sync.Mutex
	rows  []models.Transaction
	query string
	sort  listview.SortKey
}

// NewTransactionList creates a list controller over the given client.
func NewTransactionList(client *Client) *TransactionList {
	return &TransactionList{
		client: client,
		sort:   listview.DefaultSort,
	}
}

// Load fetches the user's transactions. Without a session it surfaces the
// auth error and leaves the list empty.
func (l *TransactionList) Load(ctx context.Context) error {
	if l.client.Session() == nil {
		l.mu.Lock()
		l.rows = nil
		l.mu.Unlock()
		return &APIError{Code: apperrors.ErrUnauthorized.Code, Message: "Sign in to see your transactions"}
	}

	rows, err := l.client.ListTransactions(ctx)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.rows = rows
	l.mu.Unlock()
	return nil
}

// Search sets the text filter. The filter applies to the fetched rows only.
func (l *TransactionList) Search(query string) {
	l.mu.Lock()
	l.query = query
	l.mu.Unlock()
}

// SortBy sets the sort key. Unknown keys are ignored.
func (l *TransactionList) SortBy(key listview.SortKey) {
	if !listview.ValidSortKey(string(key)) {
		return
	}
	l.mu.Lock()
	l.sort = key
	l.mu.Unlock()
}

// Visible returns the rows after the current filter and sort. The backing
// rows are never mutated, so reselecting a sort always starts from the same
// fetched set.
func (l *TransactionList) Visible() []models.Transaction {
	l.mu.Lock()
	rows, query, key := l.rows, l.query, l.sort
	l.mu.Unlock()

	if query != "" {
		rows = listview.Filter(rows, query)
	}
	return listview.Sort(rows, key)
}

// Create records a transaction and refetches the list on success.
func (l *TransactionList) Create(ctx context.Context, form TransactionForm) (*models.Transaction, error) {
	txn, err := l.client.CreateTransaction(ctx, form)
	if err != nil {
		return nil, err
	}
	if err := l.Load(ctx); err != nil {
		return txn, err
	}
	return txn, nil
}

// Update edits a transaction and refetches the list on success.
func (l *TransactionList) Update(ctx context.Context, id string, form TransactionForm) (*models.Transaction, error) {
	txn, err := l.client.UpdateTransaction(ctx, id, form)
	if err != nil {
		return nil, err
	}
	if err := l.Load(ctx); err != nil {
		return txn, err
	}
	return txn, nil
}

// Delete removes a transaction and refetches the list on success.
// Confirmation is the caller's concern; a repeated delete surfaces the
// backend's not-found error.
func (l *TransactionList) Delete(ctx context.Context, id string) error {
	if err := l.client.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	return l.Load(ctx)
}
