package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

// AgentResponse represents an agent in API responses.
type AgentResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	SystemPrompt string `json:"system_prompt"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// AgentStatusResponse represents the agent status API response.
type AgentStatusResponse struct {
	AgentID           string `json:"agent_id"`
	Name              string `json:"name"`
	Status            string `json:"status"`
	ConversationCount int    `json:"conversation_count"`
	TotalTokensUsed   int64  `json:"total_tokens_used"`
	CreatedAt         string `json:"created_at"`
}

// ConversationResponse represents one conversation turn.
type ConversationResponse struct {
	ID             string   `json:"id"`
	UserMessage    string   `json:"user_message"`
	AgentResponse  string   `json:"agent_response"`
	TokensUsed     int      `json:"tokens_used"`
	ResponseTimeMs int      `json:"response_time_ms"`
	RAGContext     []string `json:"rag_context"`
	CreatedAt      string   `json:"created_at"`
}

// ConversationListResponse represents a page of conversation history.
type ConversationListResponse struct {
	Items   []*ConversationResponse `json:"items"`
	Cursor  string                  `json:"cursor,omitempty"`
	HasMore bool                    `json:"has_more"`
}

// AgentsCmd creates the agents command.
func AgentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Inspect agents",
	}

	cmd.AddCommand(agentsListCmd())
	cmd.AddCommand(agentsStatusCmd())
	cmd.AddCommand(agentsHistoryCmd())

	return cmd
}

func agentsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAgentsList(cmd, outputJSON)
		},
	}
}

func runAgentsList(cmd *cobra.Command, outputJSON bool) error {
	api := NewAPIClient(cmd)

	resp, err := api.Get("/agents")
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	var agents []*AgentResponse
	if err := json.Unmarshal(resp.Data, &agents); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		jsonBytes, _ := json.MarshalIndent(agents, "", "  ")
		fmt.Println(string(jsonBytes))
		return nil
	}

	fmt.Printf("Agents (%d):\n", len(agents))
	for _, agent := range agents {
		fmt.Printf("  %s: %s [%s/%s] status=%s\n",
			agent.ID, agent.Name, agent.Provider, agent.Model, agent.Status)
	}
	return nil
}

func agentsStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <agent-id>",
		Short: "Show agent status and usage totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAgentsStatus(cmd, args[0], outputJSON)
		},
	}
}

func runAgentsStatus(cmd *cobra.Command, agentID string, outputJSON bool) error {
	api := NewAPIClient(cmd)

	resp, err := api.Get("/agents/" + agentID + "/status")
	if err != nil {
		return fmt.Errorf("status failed: %w", err)
	}

	var statusResp AgentStatusResponse
	if err := json.Unmarshal(resp.Data, &statusResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		jsonBytes, _ := json.MarshalIndent(statusResp, "", "  ")
		fmt.Println(string(jsonBytes))
		return nil
	}

	fmt.Printf("%s (%s)\n", statusResp.Name, statusResp.AgentID)
	fmt.Printf("  status: %s\n", statusResp.Status)
	fmt.Printf("  conversations: %d\n", statusResp.ConversationCount)
	fmt.Printf("  total tokens: %d\n", statusResp.TotalTokensUsed)
	return nil
}

func agentsHistoryCmd() *cobra.Command {
	var (
		limit  int
		cursor string
	)

	cmd := &cobra.Command{
		Use:   "history <agent-id>",
		Short: "Show conversation history for an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAgentsHistory(cmd, args[0], limit, cursor, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

func runAgentsHistory(cmd *cobra.Command, agentID string, limit int, cursor string, outputJSON bool) error {
	api := NewAPIClient(cmd)

	path := "/agents/" + agentID + "/conversations?limit=" + strconv.Itoa(limit)
	if cursor != "" {
		path += "&cursor=" + url.QueryEscape(cursor)
	}

	resp, err := api.Get(path)
	if err != nil {
		return fmt.Errorf("history failed: %w", err)
	}

	var listResp ConversationListResponse
	if err := json.Unmarshal(resp.Data, &listResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		jsonBytes, _ := json.MarshalIndent(listResp, "", "  ")
		fmt.Println(string(jsonBytes))
		return nil
	}

	for _, turn := range listResp.Items {
		fmt.Printf("[%s] user: %s\n", turn.CreatedAt, turn.UserMessage)
		fmt.Printf("  agent: %s (%d tokens)\n", turn.AgentResponse, turn.TokensUsed)
	}
	if listResp.HasMore && listResp.Cursor != "" {
		fmt.Printf("\nMore results available. Use --cursor %s\n", listResp.Cursor)
	}
	return nil
}
