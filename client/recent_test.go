package client

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"spendtrack/internal/events"
	"spendtrack/internal/models"
)

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func recentRow(id string, createdAt time.Time) models.Transaction {
	return models.Transaction{
		Base:        models.Base{ID: id, CreatedAt: createdAt},
		Type:        models.TransactionTypeExpense,
		Title:       "Entry " + id,
		Description: "row",
		AmountCents: 100,
	}
}

func TestRecentWatcher(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	newWatcher := func(t *testing.T) (*RecentWatcher, chan events.Change) {
		t.Helper()
		mux := http.NewServeMux()
		mountTransactionList(mux, func() []map[string]any {
			return []map[string]any{
				{"id": "txn-2", "title": "Entry txn-2", "type": "expense", "description": "row", "amount_cents": 100, "created_at": base.Add(2 * time.Hour)},
				{"id": "txn-1", "title": "Entry txn-1", "type": "expense", "description": "row", "amount_cents": 100, "created_at": base.Add(1 * time.Hour)},
			}
		})
		c := newAuthedClient(t, mux)

		changes := make(chan events.Change, 16)
		w := NewRecentWatcher(c, changes)
		w.Start(context.Background())
		t.Cleanup(w.Close)
		return w, changes
	}

	t.Run("start populates the window", func(t *testing.T) {
		w, _ := newWatcher(t)
		rows := w.Snapshot()
		if len(rows) != 2 {
			t.Fatalf("expected 2 rows after start, got %d", len(rows))
		}
		if rows[0].ID != "txn-2" {
			t.Errorf("expected newest first, got %q", rows[0].ID)
		}
	})

	t.Run("an insert is prepended and the window stays capped", func(t *testing.T) {
		w, changes := newWatcher(t)

		for i := 3; i <= 8; i++ {
			row := recentRow(strconv.Itoa(i), base.Add(time.Duration(i)*time.Hour))
			changes <- events.Change{
				Table: events.TableTransactions,
				Type:  events.EventInsert,
				New:   row,
			}
		}

		eventually(t, func() bool {
			rows := w.Snapshot()
			return len(rows) == recentLimit && rows[0].ID == "8"
		}, "expected the newest insert first and the window capped at 5")
	})

	t.Run("an update replaces the row in place", func(t *testing.T) {
		w, changes := newWatcher(t)

		updated := recentRow("txn-2", base.Add(2*time.Hour))
		updated.Title = "renamed"
		changes <- events.Change{
			Table: events.TableTransactions,
			Type:  events.EventUpdate,
			New:   updated,
		}

		eventually(t, func() bool {
			rows := w.Snapshot()
			return len(rows) == 2 && rows[0].Title == "renamed"
		}, "expected the updated row to replace the original")
	})

	t.Run("a delete removes the row", func(t *testing.T) {
		w, changes := newWatcher(t)

		old := recentRow("txn-2", base.Add(2*time.Hour))
		changes <- events.Change{
			Table: events.TableTransactions,
			Type:  events.EventDelete,
			Old:   old,
		}

		eventually(t, func() bool {
			rows := w.Snapshot()
			return len(rows) == 1 && rows[0].ID == "txn-1"
		}, "expected the deleted row to be removed")
	})

	t.Run("changes for other tables are ignored", func(t *testing.T) {
		w, changes := newWatcher(t)

		changes <- events.Change{
			Table: events.TableCategories,
			Type:  events.EventDelete,
			Old:   map[string]string{"id": "txn-2"},
		}
		// Give the loop a moment to (not) apply it.
		time.Sleep(50 * time.Millisecond)

		if rows := w.Snapshot(); len(rows) != 2 {
			t.Errorf("expected the window untouched, got %d rows", len(rows))
		}
	})

	t.Run("no update lands after close", func(t *testing.T) {
		w, changes := newWatcher(t)
		w.Close()

		changes <- events.Change{
			Table: events.TableTransactions,
			Type:  events.EventInsert,
			New:   recentRow("late", base.Add(24 * time.Hour)),
		}
		time.Sleep(50 * time.Millisecond)

		for _, row := range w.Snapshot() {
			if row.ID == "late" {
				t.Error("expected no updates after close")
			}
		}
	})
}
