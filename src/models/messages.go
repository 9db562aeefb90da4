package models

// -----------------------------------------------------------------------------
// Websocket message shapes
// -----------------------------------------------------------------------------

// MStreamCommand is the inbound client message.
type MStreamCommand struct {
	Action string `json:"action"` // "subscribe" | "unsubscribe"
	Symbol string `json:"symbol"`
}

// MStreamMessage is the outbound message: one "stock_update" batch per tick,
// or an "error" with a message.
type MStreamMessage struct {
	Type    string              `json:"type"`
	Data    []MAggregatedRecord `json:"data,omitempty"`
	Message string              `json:"message,omitempty"`
}
