package client

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"spendtrack/internal/events"
)

// SubscribeChanges opens the server-sent event stream and decodes each
// change onto the returned channel. Table may be empty for all tables. The
// channel closes when ctx is cancelled or the stream ends.
func (c *Client) SubscribeChanges(ctx context.Context, table string) (<-chan events.Change, error) {
	path := c.baseURL + "/events"
	if table != "" {
		path += "?table=" + table
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	// No client timeout on a long-lived stream; cancellation comes from ctx.
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}

	out := make(chan events.Change, 16)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))

			var wire struct {
				Table  string           `json:"table"`
				Type   events.EventType `json:"type"`
				UserID string           `json:"user_id"`
				New    json.RawMessage  `json:"new"`
				Old    json.RawMessage  `json:"old"`
			}
			if err := json.Unmarshal([]byte(payload), &wire); err != nil {
				continue
			}

			ch := events.Change{
				Table:  wire.Table,
				Type:   wire.Type,
				UserID: wire.UserID,
			}
			if len(wire.New) > 0 {
				ch.New = wire.New
			}
			if len(wire.Old) > 0 {
				ch.Old = wire.Old
			}

			select {
			case out <- ch:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}
