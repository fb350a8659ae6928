package shop

import (
	"encoding/json"
	"time"
)

const (
	EventSessionStarted = "SessionStarted"
	EventSessionEnded   = "SessionEnded"
	EventCartChanged    = "CartChanged"
	EventOrderPlaced    = "OrderPlaced"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // one of the consts above
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // browser session id
	Payload       json.RawMessage `json:"payload"`
}

const (
	ReasonSignedOut = "signed_out"
	ReasonExpired   = "expired"
)

type SessionPayload struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id,omitempty"`
	Reason    string `json:"reason,omitempty"` // SessionEnded only
}

type CartChangedPayload struct {
	SessionID  string `json:"session_id"`
	ItemCount  int    `json:"item_count"`
	TotalCents int64  `json:"total_cents"`
}

type OrderPlacedPayload struct {
	SessionID  string `json:"session_id"`
	OrderID    string `json:"order_id"`
	TotalCents int64  `json:"total_cents"`
}
