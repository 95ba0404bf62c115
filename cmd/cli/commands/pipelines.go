package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veltra/genflow/internal/types"
)

// GetPipelinesCmd returns the pipelines command group.
func GetPipelinesCmd() *cobra.Command {
	pipelinesCmd := &cobra.Command{
		Use:   "pipelines",
		Short: "Manage persona asset pipelines",
	}

	pipelinesCmd.AddCommand(startPipelineCmd())
	pipelinesCmd.AddCommand(pipelineStatusCmd())

	return pipelinesCmd
}

func startPipelineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the asset pipeline for a persona",
		RunE: func(cmd *cobra.Command, _ []string) error {
			personaID, _ := cmd.Flags().GetString("persona-id")
			provider, _ := cmd.Flags().GetString("provider")
			paramsStr, _ := cmd.Flags().GetString("params")
			notifyURL, _ := cmd.Flags().GetString("notify-url")

			req := types.StartPipelineRequest{
				PersonaID: personaID,
				Provider:  provider,
				NotifyURL: notifyURL,
			}
			if paramsStr != "" {
				if err := json.Unmarshal([]byte(paramsStr), &req.Params); err != nil {
					return fmt.Errorf("invalid params JSON: %w", err)
				}
			}

			resp, err := apiClient.StartPipeline(context.Background(), req)
			if err != nil {
				return fmt.Errorf("error starting pipeline: %w", err)
			}

			return printJSON(cmd, resp)
		},
	}

	cmd.Flags().String("persona-id", "", "Persona to generate assets for")
	cmd.Flags().StringP("provider", "p", "", "Generation provider")
	cmd.Flags().String("params", "", "Generation parameters as JSON")
	cmd.Flags().String("notify-url", "", "Webhook URL notified after each stage job")
	_ = cmd.MarkFlagRequired("persona-id")
	_ = cmd.MarkFlagRequired("provider")

	return cmd
}

func pipelineStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the pipeline state for a persona",
		RunE: func(cmd *cobra.Command, _ []string) error {
			personaID, _ := cmd.Flags().GetString("persona-id")

			resp, err := apiClient.GetPipeline(context.Background(), personaID)
			if err != nil {
				return fmt.Errorf("error fetching pipeline: %w", err)
			}

			return printJSON(cmd, resp)
		},
	}

	cmd.Flags().String("persona-id", "", "Persona whose pipeline to fetch")
	_ = cmd.MarkFlagRequired("persona-id")

	return cmd
}
