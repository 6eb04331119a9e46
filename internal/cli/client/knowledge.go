package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// UploadResponse represents the knowledge upload API response.
type UploadResponse struct {
	Filename      string `json:"filename"`
	ChunksCreated int    `json:"chunks_created"`
	Status        string `json:"status"`
}

// KnowledgeStatusResponse represents the knowledge status API response.
type KnowledgeStatusResponse struct {
	AgentID      string `json:"agent_id"`
	HasKnowledge bool   `json:"has_knowledge"`
}

// ResetResponse represents the knowledge reset API response.
type ResetResponse struct {
	AgentID      string `json:"agent_id"`
	DeletedCount int    `json:"deleted_count"`
}

// UploadCmd creates the upload command.
func UploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <agent-id> <file>",
		Short: "Upload a document to an agent's knowledge base",
		Long:  "Uploads a txt, json, pdf or docx file and indexes it for retrieval.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runUpload(cmd, args[0], args[1], outputJSON)
		},
	}

	return cmd
}

func runUpload(cmd *cobra.Command, agentID, path string, outputJSON bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	api := NewAPIClient(cmd)

	resp, err := api.PostFile("/agents/"+agentID+"/knowledge", filepath.Base(path), content)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	var uploadResp UploadResponse
	if err := json.Unmarshal(resp.Data, &uploadResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		jsonBytes, _ := json.MarshalIndent(uploadResp, "", "  ")
		fmt.Println(string(jsonBytes))
		return nil
	}

	fmt.Printf("Uploaded %s: %d chunks indexed\n", uploadResp.Filename, uploadResp.ChunksCreated)
	return nil
}

// KnowledgeCmd creates the kb command with status and reset subcommands.
func KnowledgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kb",
		Short: "Inspect and reset an agent's knowledge base",
	}

	cmd.AddCommand(knowledgeStatusCmd())
	cmd.AddCommand(knowledgeResetCmd())

	return cmd
}

func knowledgeStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <agent-id>",
		Short: "Show whether the agent has indexed knowledge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runKnowledgeStatus(cmd, args[0], outputJSON)
		},
	}
}

func runKnowledgeStatus(cmd *cobra.Command, agentID string, outputJSON bool) error {
	api := NewAPIClient(cmd)

	resp, err := api.Get("/agents/" + agentID + "/knowledge")
	if err != nil {
		return fmt.Errorf("status check failed: %w", err)
	}

	var statusResp KnowledgeStatusResponse
	if err := json.Unmarshal(resp.Data, &statusResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		jsonBytes, _ := json.MarshalIndent(statusResp, "", "  ")
		fmt.Println(string(jsonBytes))
		return nil
	}

	if statusResp.HasKnowledge {
		fmt.Println("Agent has indexed knowledge")
	} else {
		fmt.Println("Agent has no indexed knowledge")
	}
	return nil
}

func knowledgeResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <agent-id>",
		Short: "Delete all indexed knowledge for the agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runKnowledgeReset(cmd, args[0], outputJSON)
		},
	}
}

func runKnowledgeReset(cmd *cobra.Command, agentID string, outputJSON bool) error {
	api := NewAPIClient(cmd)

	resp, err := api.Delete("/agents/" + agentID + "/knowledge")
	if err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}

	var resetResp ResetResponse
	if err := json.Unmarshal(resp.Data, &resetResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		jsonBytes, _ := json.MarshalIndent(resetResp, "", "  ")
		fmt.Println(string(jsonBytes))
		return nil
	}

	fmt.Printf("Deleted %d chunks\n", resetResp.DeletedCount)
	return nil
}
