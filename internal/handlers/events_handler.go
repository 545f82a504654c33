package handlers

import (
	"io"

	"github.com/gin-gonic/gin"

	apperrors "spendtrack/internal/errors"
	"spendtrack/internal/events"
)

// EventsHandler streams row-level change notifications to clients over
// server-sent events.
type EventsHandler struct {
	bus *events.Bus
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(bus *events.Bus) *EventsHandler {
	return &EventsHandler{bus: bus}
}

var streamTables = []string{
	events.TableTransactions,
	events.TableCategories,
	events.TableBudgets,
}

// Stream handles the SSE change feed
// @Summary     Stream change events
// @Description Server-sent event stream of the authenticated user's row changes across transactions, categories, and budgets
// @Tags        events
// @Produce     text/event-stream
// @Security    BearerAuth
// @Param       table query string false "Restrict the stream to one table" Enums(transactions, categories, budgets)
// @Success     200 {string} string "SSE stream"
// @Failure     400 {object} ErrorResponse "Unknown table"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /events [get]
func (h *EventsHandler) Stream(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tables := streamTables
	if t := c.Query("table"); t != "" {
		switch t {
		case events.TableTransactions, events.TableCategories, events.TableBudgets:
			tables = []string{t}
		default:
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown table"))
			return
		}
	}

	// One subscription per table, merged onto a single channel so the
	// stream loop has one source to select on.
	merged := make(chan events.Change, len(tables)*4)
	subs := make([]*events.Subscription, 0, len(tables))
	for _, table := range tables {
		sub := h.bus.Subscribe(table, userID)
		subs = append(subs, sub)
		go func(sub *events.Subscription) {
			for ch := range sub.C {
				select {
				case merged <- ch:
				default:
				}
			}
		}(sub)
	}
	defer func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	}()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.Stream(func(w io.Writer) bool {
		select {
		case ch := <-merged:
			c.SSEvent("change", ch)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
