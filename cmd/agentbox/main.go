package main

import (
	"fmt"
	"os"

	"github.com/clearstack/agentbox/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "agentbox",
		Short: "Agentbox CLI - RAG-backed chat agents",
		Long: `Agentbox CLI provides commands to chat with agents and manage their knowledge bases.

Environment variables:
  AGENTBOX_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env)")

	rootCmd.AddCommand(client.ChatCmd())
	rootCmd.AddCommand(client.UploadCmd())
	rootCmd.AddCommand(client.KnowledgeCmd())
	rootCmd.AddCommand(client.AgentsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
