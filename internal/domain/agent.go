package domain

import "time"

// AgentStatus represents the lifecycle state of an agent.
type AgentStatus string

const (
	AgentStatusActive   AgentStatus = "active"
	AgentStatusInactive AgentStatus = "inactive"
	AgentStatusError    AgentStatus = "error"
)

// Provider identifies a generation backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// DefaultSystemPrompt is used when an agent has no configured prompt.
const DefaultSystemPrompt = "You are a helpful AI assistant."

// Agent represents a configured conversational agent.
// This core only reads agents; their lifecycle is managed by the admin surface.
type Agent struct {
	ID           string
	Name         string
	Provider     Provider
	Model        string
	SystemPrompt string
	Status       AgentStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsValidAgentStatus reports whether s is a known agent status.
func IsValidAgentStatus(s AgentStatus) bool {
	switch s {
	case AgentStatusActive, AgentStatusInactive, AgentStatusError:
		return true
	}
	return false
}

// IsValidProvider reports whether p is a supported generation provider.
func IsValidProvider(p Provider) bool {
	switch p {
	case ProviderOpenAI, ProviderAnthropic:
		return true
	}
	return false
}

// EffectiveSystemPrompt returns the configured prompt or the default.
func (a *Agent) EffectiveSystemPrompt() string {
	if a.SystemPrompt == "" {
		return DefaultSystemPrompt
	}
	return a.SystemPrompt
}
