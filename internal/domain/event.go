package domain

import "time"

// Event channels published on the signal bus.
const (
	ChannelMarkets     = "ch:markets"
	ChannelBets        = "ch:bets"
	ChannelResolutions = "ch:resolutions"
	ChannelClaims      = "ch:claims"
)

// Event types.
const (
	EventMarketCreated        = "market_created"
	EventBetCommitted         = "bet_committed"
	EventBetRevealed          = "bet_revealed"
	EventResolutionCommitted  = "resolution_committed"
	EventResolutionRevealed   = "resolution_revealed"
	EventResolutionDisputed   = "resolution_disputed"
	EventClaimSettled         = "claim_settled"
)

// Event is a protocol occurrence published to the signal bus and fanned out
// to WebSocket subscribers.
type Event struct {
	Type      string            `json:"type"`
	MarketID  string            `json:"market_id,omitempty"`
	Actor     string            `json:"actor,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// StreamMessage represents a single entry read back from a durable stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}
