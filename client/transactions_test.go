package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"spendtrack/internal/listview"
)

func transactionsFixture() []map[string]any {
	return []map[string]any{
		{"id": "txn-1", "type": "expense", "title": "Coffee", "description": "Morning", "amount_cents": 450, "created_at": time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)},
		{"id": "txn-2", "type": "income", "title": "Salary", "description": "March", "amount_cents": 300000, "created_at": time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)},
		{"id": "txn-3", "type": "expense", "title": "Groceries", "description": "Weekly shop", "amount_cents": 5000, "created_at": time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
}

func mountTransactionList(mux *http.ServeMux, rows func() []map[string]any) {
	mux.HandleFunc("GET /api/v1/transactions", func(w http.ResponseWriter, r *http.Request) {
		data := rows()
		jsonResponse(w, http.StatusOK, map[string]any{
			"data": data, "page": 1, "page_size": 50, "total_items": len(data), "total_pages": 1,
		})
	})
}

// mountPagedTransactionList serves rows honoring the page and page_size
// query parameters, the way the real list endpoint pages.
func mountPagedTransactionList(mux *http.ServeMux, rows []map[string]any) {
	mux.HandleFunc("GET /api/v1/transactions", func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}
		size, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
		if size < 1 {
			size = 50
		}
		start := (page - 1) * size
		if start > len(rows) {
			start = len(rows)
		}
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		totalPages := (len(rows) + size - 1) / size
		jsonResponse(w, http.StatusOK, map[string]any{
			"data": rows[start:end], "page": page, "page_size": size,
			"total_items": len(rows), "total_pages": totalPages,
		})
	})
}

func TestTransactionList_Load(t *testing.T) {
	t.Run("without a session the list stays empty and the error surfaces", func(t *testing.T) {
		mux := http.NewServeMux()
		c := newAuthedClient(t, mux)
		c.SignOut()

		list := NewTransactionList(c)
		err := list.Load(context.Background())
		if err == nil {
			t.Fatal("expected an auth error")
		}
		if got := list.Visible(); len(got) != 0 {
			t.Errorf("expected an empty list, got %d rows", len(got))
		}
	})

	t.Run("loads the fetched rows", func(t *testing.T) {
		mux := http.NewServeMux()
		mountTransactionList(mux, transactionsFixture)
		c := newAuthedClient(t, mux)

		list := NewTransactionList(c)
		if err := list.Load(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := list.Visible(); len(got) != 3 {
			t.Fatalf("expected 3 rows, got %d", len(got))
		}
	})

	t.Run("a multi-page history is fetched in full", func(t *testing.T) {
		rows := make([]map[string]any, 0, 130)
		for i := 130; i >= 1; i-- {
			title := fmt.Sprintf("Entry %03d", i)
			if i == 1 {
				title = "First rent"
			}
			rows = append(rows, map[string]any{
				"id": fmt.Sprintf("txn-%d", i), "type": "expense", "title": title,
				"description": "history", "amount_cents": 100 * i,
				"created_at": time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour),
			})
		}

		mux := http.NewServeMux()
		mountPagedTransactionList(mux, rows)
		c := newAuthedClient(t, mux)

		list := NewTransactionList(c)
		if err := list.Load(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := list.Visible(); len(got) != 130 {
			t.Fatalf("expected 130 rows, got %d", len(got))
		}

		// The oldest row lives on the last page; search must still reach it.
		list.Search("first rent")
		got := list.Visible()
		if len(got) != 1 || got[0].ID != "txn-1" {
			t.Fatalf("expected only txn-1, got %d rows", len(got))
		}
	})
}

func TestTransactionList_SearchAndSort(t *testing.T) {
	mux := http.NewServeMux()
	mountTransactionList(mux, transactionsFixture)
	c := newAuthedClient(t, mux)

	list := NewTransactionList(c)
	if err := list.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("search narrows without touching the fetched set", func(t *testing.T) {
		list.Search("grocer")
		got := list.Visible()
		if len(got) != 1 || got[0].ID != "txn-3" {
			t.Fatalf("expected only txn-3, got %+v", got)
		}

		list.Search("")
		if got := list.Visible(); len(got) != 3 {
			t.Errorf("expected the full set after clearing the search, got %d", len(got))
		}
	})

	t.Run("reselecting a sort starts from the same fetched set", func(t *testing.T) {
		list.SortBy(listview.SortDateDesc)
		afterDate := list.Visible()

		list.SortBy(listview.SortAmountAsc)
		afterAmount := list.Visible()
		if afterAmount[0].ID != "txn-1" {
			t.Errorf("expected cheapest txn-1 first, got %q", afterAmount[0].ID)
		}

		list.SortBy(listview.SortDateDesc)
		again := list.Visible()
		for i := range afterDate {
			if afterDate[i].ID != again[i].ID {
				t.Fatalf("sort is not stable under reselection: %q vs %q at %d",
					afterDate[i].ID, again[i].ID, i)
			}
		}
	})

	t.Run("an unknown sort key is ignored", func(t *testing.T) {
		list.SortBy(listview.SortDateDesc)
		list.SortBy(listview.SortKey("title-asc"))
		got := list.Visible()
		if got[0].ID != "txn-1" {
			t.Errorf("expected order unchanged after unknown key, got %q first", got[0].ID)
		}
	})
}

func TestTransactionList_Delete(t *testing.T) {
	rows := transactionsFixture()
	mux := http.NewServeMux()
	mountTransactionList(mux, func() []map[string]any { return rows })
	deleted := false
	mux.HandleFunc("DELETE /api/v1/transactions/{id}", func(w http.ResponseWriter, r *http.Request) {
		if deleted {
			errorResponse(w, http.StatusNotFound, "TRANSACTION_NOT_FOUND", "Transaction not found")
			return
		}
		deleted = true
		rows = rows[1:]
		w.WriteHeader(http.StatusNoContent)
	})
	c := newAuthedClient(t, mux)

	list := NewTransactionList(c)
	if err := list.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := list.Delete(context.Background(), "txn-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := list.Visible(); len(got) != 2 {
		t.Errorf("expected 2 rows after delete, got %d", len(got))
	}

	// Double tap: the second delete surfaces the backend's not-found.
	err := list.Delete(context.Background(), "txn-1")
	if err == nil {
		t.Fatal("expected an error on repeated delete")
	}
	apiErr, ok := err.(*APIError)
	if !ok || apiErr.Code != "TRANSACTION_NOT_FOUND" {
		t.Errorf("expected TRANSACTION_NOT_FOUND, got %v", err)
	}
}
