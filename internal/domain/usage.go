package domain

import "time"

// UsageRecord is one row of the append-only usage ledger, written in the
// same transaction as the ConversationTurn it belongs to.
type UsageRecord struct {
	ID       string
	AgentID  string
	Provider Provider
	Model    string
	// TokensUsed is provider-authoritative.
	TokensUsed int
	// CostUSD is a local estimate rendered with fixed six-decimal precision
	// ("0.012345"). Display value only, never billed truth.
	CostUSD   string
	CreatedAt time.Time
}
