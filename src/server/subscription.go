package server

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"stock-pulse/src/models"
)

// -----------------------------------------------------------------------------
// Per-connection subscription state machine: Idle (no symbols, no poll loop)
// <-> Polling (>=1 symbol, one poll loop) -> Closed. Exactly one poll loop
// exists per connection with subscriptions, and zero otherwise.
// -----------------------------------------------------------------------------

func (c *Client) handleCommand(raw []byte) {
	var cmd models.MStreamCommand
	if err := json.Unmarshal(raw, &cmd); err != nil {
		c.sendError("Invalid JSON")
		return
	}

	if strings.TrimSpace(cmd.Symbol) == "" {
		c.sendError("Symbol required")
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(cmd.Symbol))

	switch cmd.Action {
	case "subscribe":
		c.subscribe(symbol)
	case "unsubscribe":
		c.unsubscribe(symbol)
	default:
		c.sendError("Invalid action")
	}
}

// -----------------------------------------------------------------------------

// subscribe adds symbol to the set and starts the poll loop on the
// Idle -> Polling transition. The loop pushes once immediately.
func (c *Client) subscribe(symbol string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	if _, ok := c.symbols[symbol]; !ok {
		c.symbols[symbol] = struct{}{}
		c.order = append(c.order, symbol)
	}

	var ctx context.Context
	start := c.pollCancel == nil
	if start {
		ctx, c.pollCancel = context.WithCancel(context.Background())
	}
	c.mu.Unlock()

	if start {
		go c.pollLoop(ctx)
	}
}

// -----------------------------------------------------------------------------

// unsubscribe removes symbol and cancels the poll loop when the set drains.
// Unknown symbols are a no-op.
func (c *Client) unsubscribe(symbol string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.symbols[symbol]; !ok {
		return
	}

	delete(c.symbols, symbol)
	for i, s := range c.order {
		if s == symbol {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}

	if len(c.symbols) == 0 && c.pollCancel != nil {
		c.pollCancel()
		c.pollCancel = nil
	}
}

// -----------------------------------------------------------------------------

func (c *Client) pollLoop(ctx context.Context) {
	c.fetchAndPush(ctx)

	interval := time.Duration(c.server.Config.Stream.PollIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.fetchAndPush(ctx)
		}
	}
}

// -----------------------------------------------------------------------------

// fetchAndPush fetches every subscribed symbol concurrently and pushes one
// batched update. The snapshot keeps set mutation and iteration disjoint.
func (c *Client) fetchAndPush(ctx context.Context) {
	c.mu.Lock()
	symbols := append([]string(nil), c.order...)
	c.mu.Unlock()

	if len(symbols) == 0 {
		return
	}

	records := make([]models.MAggregatedRecord, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	for i, symbol := range symbols {
		g.Go(func() error {
			record, err := c.server.Aggregator.GetAggregated(gctx, symbol)
			if err != nil {
				return err
			}
			records[i] = record
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			// Connection went away mid-fetch; discard the results
			return
		}
		c.sendError(err.Error())
		return
	}

	c.push(models.MStreamMessage{Type: "stock_update", Data: records})
}
