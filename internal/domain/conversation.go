package domain

import "time"

// ConversationTurn records one completed user/agent exchange.
// Turns are append-only; retention and export live outside this core.
type ConversationTurn struct {
	ID             string
	AgentID        string
	UserMessage    string
	AgentResponse  string
	TokensUsed     int
	ResponseTimeMs int
	// RAGContext holds the retrieved snippets that informed the response,
	// nil when no knowledge base was consulted.
	RAGContext []string
	CreatedAt  time.Time
}
