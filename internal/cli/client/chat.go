package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// ChatRequest represents the chat API request.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse represents the chat API response.
type ChatResponse struct {
	Response       string   `json:"response"`
	TokensUsed     int      `json:"tokens_used"`
	ResponseTimeMs int      `json:"response_time_ms"`
	RAGContext     []string `json:"rag_context"`
}

// ChatCmd creates the chat command.
func ChatCmd() *cobra.Command {
	var showContext bool

	cmd := &cobra.Command{
		Use:   "chat <agent-id> <message>",
		Short: "Send a message to an agent",
		Long:  "Sends a chat message to the agent and prints the response.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runChat(cmd, args[0], args[1], showContext, outputJSON)
		},
	}

	cmd.Flags().BoolVar(&showContext, "show-context", false, "Print the retrieved context passages")

	return cmd
}

func runChat(cmd *cobra.Command, agentID, message string, showContext, outputJSON bool) error {
	api := NewAPIClient(cmd)

	resp, err := api.Post("/agents/"+agentID+"/chat", ChatRequest{Message: message})
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(resp.Data, &chatResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		jsonBytes, _ := json.MarshalIndent(chatResp, "", "  ")
		fmt.Println(string(jsonBytes))
		return nil
	}

	fmt.Println(chatResp.Response)
	fmt.Printf("\n(%d tokens, %dms)\n", chatResp.TokensUsed, chatResp.ResponseTimeMs)

	if showContext && len(chatResp.RAGContext) > 0 {
		fmt.Println("\nRetrieved context:")
		for i, passage := range chatResp.RAGContext {
			fmt.Printf("  [%d] %s\n", i+1, passage)
		}
	}

	return nil
}
