package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/clearstack/agentbox/internal/config"
	"github.com/clearstack/agentbox/internal/database"
	"github.com/clearstack/agentbox/internal/domain"
	"github.com/clearstack/agentbox/internal/repository"
	"github.com/clearstack/agentbox/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

func AgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Manage agents",
		Long:  "Create and list agents directly against the database",
	}

	cmd.AddCommand(AgentCreateCmd())
	cmd.AddCommand(AgentListCmd())

	return cmd
}

func AgentCreateCmd() *cobra.Command {
	var (
		provider     string
		model        string
		systemPrompt string
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new agent",
		Long:  "Create a new agent with the specified name, provider and model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, _ := cmd.Flags().GetString("output")
			return runAgentCreate(args[0], provider, model, systemPrompt, outputFormat)
		},
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	cmd.Flags().StringVar(&provider, "provider", "openai", "LLM provider (openai or anthropic)")
	cmd.Flags().StringVar(&model, "model", "gpt-4o", "Model name")
	cmd.Flags().StringVar(&systemPrompt, "system-prompt", "", "System prompt (optional)")

	return cmd
}

func runAgentCreate(name, provider, model, systemPrompt, outputFormat string) error {
	ctx := context.Background()

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	agentRepo := repository.NewAgentRepository(pool)
	agentSvc := service.NewAgentService(agentRepo, nil, nil)

	agent, err := agentSvc.Create(ctx, service.CreateAgentInput{
		Name:         name,
		Provider:     domain.Provider(provider),
		Model:        model,
		SystemPrompt: systemPrompt,
	})
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	if outputFormat == "json" {
		data := map[string]interface{}{
			"id":         agent.ID,
			"name":       agent.Name,
			"provider":   agent.Provider,
			"model":      agent.Model,
			"status":     agent.Status,
			"created_at": agent.CreatedAt,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Agent created: %s (%s)\n", agent.Name, agent.ID)
		fmt.Printf("  provider: %s, model: %s\n", agent.Provider, agent.Model)
	}

	return nil
}

func AgentListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all agents",
		Long:  "List all agents in the system",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, _ := cmd.Flags().GetString("output")
			return runAgentList(outputFormat)
		},
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runAgentList(outputFormat string) error {
	ctx := context.Background()

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	agentRepo := repository.NewAgentRepository(pool)
	agents, err := agentRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list agents: %w", err)
	}

	if outputFormat == "json" {
		jsonBytes, _ := json.MarshalIndent(agents, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Agents (%d):\n", len(agents))
		for _, agent := range agents {
			fmt.Printf("  %s: %s [%s/%s] status=%s (created: %s)\n",
				agent.ID, agent.Name, agent.Provider, agent.Model, agent.Status,
				agent.CreatedAt.Format("2006-01-02 15:04:05"))
		}
	}

	return nil
}

func getDBPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return pool, nil
}
