package llm

import (
	"fmt"

	"github.com/clearstack/agentbox/internal/domain"
)

// Cost rates are integer micro-dollars per 1000 tokens, so estimates stay
// exact without floating-point rounding. Rates drift from real provider
// pricing; this is a display value, not a billing source of truth.
var costPer1KTokens = map[string]int64{
	"gpt-4":             60000,
	"gpt-4-turbo":       30000,
	"gpt-4o":            12500,
	"gpt-3.5-turbo":     2000,
	"claude-3-opus":     75000,
	"claude-3-sonnet":   15000,
	"claude-3-5-sonnet": 15000,
	"claude-3-haiku":    2500,
}

// Fallback rates by provider for unlisted models.
var defaultCostPer1KTokens = map[domain.Provider]int64{
	domain.ProviderOpenAI:    30000,
	domain.ProviderAnthropic: 15000,
}

// EstimateCost returns the estimated cost in USD for a token count, rendered
// with fixed six-decimal precision.
func EstimateCost(provider domain.Provider, model string, tokens int) string {
	rate, ok := costPer1KTokens[model]
	if !ok {
		rate = defaultCostPer1KTokens[provider]
	}

	microDollars := int64(tokens) * rate / 1000
	return FormatMicroDollars(microDollars)
}

// FormatMicroDollars renders an integer micro-dollar amount as "D.DDDDDD".
func FormatMicroDollars(micro int64) string {
	return fmt.Sprintf("%d.%06d", micro/1_000_000, micro%1_000_000)
}
