package client

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"spendtrack/internal/events"
	"spendtrack/internal/listview"
	"spendtrack/internal/models"
)

// recentLimit is how many transactions the recent view keeps.
const recentLimit = 5

// defaultPollInterval backstops the change feed; a lost notification only
// delays the view by one poll.
const defaultPollInterval = 3 * time.Second

// RecentWatcher maintains the newest transactions for the home screen. It
// patches its window incrementally from change notifications and refetches
// on a fixed poll as a backstop. All state updates stop once the watcher's
// context is cancelled.
type RecentWatcher struct {
	client   *Client
	changes  <-chan events.Change
	interval time.Duration

	mu   sync.Mutex
	rows []models.Transaction

	refreshCh chan struct{}
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewRecentWatcher creates a watcher fed by the given change stream. The
// stream may be nil, leaving only the poll.
func NewRecentWatcher(client *Client, changes <-chan events.Change) *RecentWatcher {
	return &RecentWatcher{
		client:    client,
		changes:   changes,
		interval:  defaultPollInterval,
		refreshCh: make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

// Start launches the watch loop. It returns after the initial fetch
// completes so the first Snapshot is populated.
func (w *RecentWatcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.refresh(ctx)
	go w.run(ctx)
}

// Close stops the loop. No snapshot update lands afterwards.
func (w *RecentWatcher) Close() {
	if w.cancel != nil {
		w.cancel()
		<-w.done
	}
}

// Snapshot returns the current window, newest first.
func (w *RecentWatcher) Snapshot() []models.Transaction {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]models.Transaction, len(w.rows))
	copy(out, w.rows)
	return out
}

// RequestRefresh asks for a refetch. Requests while one is already pending
// coalesce into a single fetch.
func (w *RecentWatcher) RequestRefresh() {
	select {
	case w.refreshCh <- struct{}{}:
	default:
	}
}

func (w *RecentWatcher) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.refresh(ctx)
		case <-w.refreshCh:
			w.refresh(ctx)
		case ch, ok := <-w.changes:
			if !ok {
				w.changes = nil
				continue
			}
			w.apply(ch)
		}
	}
}

// apply patches the window from one change. Rows that fail to decode fall
// back to a refetch.
func (w *RecentWatcher) apply(ch events.Change) {
	if ch.Table != events.TableTransactions {
		return
	}

	newRow, okNew := decodeTransaction(ch.New)
	oldRow, okOld := decodeTransaction(ch.Old)
	switch ch.Type {
	case events.EventInsert:
		if !okNew {
			w.RequestRefresh()
			return
		}
	case events.EventUpdate:
		if !okNew {
			w.RequestRefresh()
			return
		}
	case events.EventDelete:
		if !okOld {
			w.RequestRefresh()
			return
		}
	default:
		return
	}

	w.mu.Lock()
	w.rows = listview.Patch(w.rows, ch.Type, newRow, oldRow, listview.SortDateDesc, recentLimit)
	w.mu.Unlock()
}

// refresh refetches the window. Fetch errors keep the last good window; the
// next tick retries.
func (w *RecentWatcher) refresh(ctx context.Context) {
	rows, err := w.client.RecentTransactions(ctx, recentLimit)
	if err != nil {
		return
	}
	select {
	case <-ctx.Done():
		return
	default:
	}
	w.mu.Lock()
	w.rows = rows
	w.mu.Unlock()
}

// decodeTransaction normalizes a change payload into a transaction row.
// Local changes carry the model directly; remote changes arrive as raw
// JSON.
func decodeTransaction(v any) (*models.Transaction, bool) {
	switch row := v.(type) {
	case nil:
		return nil, false
	case *models.Transaction:
		return row, true
	case models.Transaction:
		return &row, true
	case json.RawMessage:
		var txn models.Transaction
		if err := json.Unmarshal(row, &txn); err != nil {
			return nil, false
		}
		return &txn, true
	case []byte:
		var txn models.Transaction
		if err := json.Unmarshal(row, &txn); err != nil {
			return nil, false
		}
		return &txn, true
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, false
		}
		var txn models.Transaction
		if err := json.Unmarshal(data, &txn); err != nil {
			return nil, false
		}
		return &txn, true
	}
}
