package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veltra/genflow/internal/types"
)

// GetJobsCmd returns the jobs command group.
func GetJobsCmd() *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Manage generation jobs",
	}

	jobsCmd.AddCommand(submitJobCmd())
	jobsCmd.AddCommand(getJobCmd())
	jobsCmd.AddCommand(listJobsCmd())
	jobsCmd.AddCommand(pollJobCmd())
	jobsCmd.AddCommand(sweepCmd())

	return jobsCmd
}

func submitJobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a generation job to a provider",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ownerKind, _ := cmd.Flags().GetString("owner-kind")
			ownerID, _ := cmd.Flags().GetString("owner-id")
			provider, _ := cmd.Flags().GetString("provider")
			kind, _ := cmd.Flags().GetString("kind")
			payloadStr, _ := cmd.Flags().GetString("payload")
			inputURL, _ := cmd.Flags().GetString("input-url")
			notifyURL, _ := cmd.Flags().GetString("notify-url")

			req := types.SubmitJobRequest{
				OwnerKind: ownerKind,
				OwnerID:   ownerID,
				Provider:  provider,
				Kind:      kind,
				InputURL:  inputURL,
				NotifyURL: notifyURL,
			}
			if payloadStr != "" {
				if err := json.Unmarshal([]byte(payloadStr), &req.Payload); err != nil {
					return fmt.Errorf("invalid payload JSON: %w", err)
				}
			}

			resp, err := apiClient.SubmitJob(context.Background(), req)
			if err != nil {
				return fmt.Errorf("error submitting job: %w", err)
			}

			return printJSON(cmd, resp)
		},
	}

	cmd.Flags().String("owner-kind", "", "Kind of the entity the media is for")
	cmd.Flags().String("owner-id", "", "ID of the entity the media is for")
	cmd.Flags().StringP("provider", "p", "", "Generation provider")
	cmd.Flags().StringP("kind", "k", "", "Media kind (image or video)")
	cmd.Flags().String("payload", "", "Creation request payload as JSON")
	cmd.Flags().String("input-url", "", "Referenced input media URL")
	cmd.Flags().String("notify-url", "", "Webhook URL notified when the job completes")
	_ = cmd.MarkFlagRequired("owner-kind")
	_ = cmd.MarkFlagRequired("owner-id")
	_ = cmd.MarkFlagRequired("provider")
	_ = cmd.MarkFlagRequired("kind")

	return cmd
}

func getJobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get a specific job",
		RunE: func(cmd *cobra.Command, _ []string) error {
			jobID, _ := cmd.Flags().GetString("id")

			job, err := apiClient.GetJob(context.Background(), jobID)
			if err != nil {
				return fmt.Errorf("error fetching job: %w", err)
			}

			return printJSON(cmd, job)
		},
	}

	cmd.Flags().StringP("id", "i", "", "Job ID to fetch")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func listJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, _ := cmd.Flags().GetInt("page")
			status, _ := cmd.Flags().GetString("status")

			jobs, err := apiClient.ListJobs(context.Background(), page, status)
			if err != nil {
				return fmt.Errorf("error fetching jobs: %w", err)
			}

			return printJSON(cmd, map[string]interface{}{"jobs": jobs})
		},
	}

	cmd.Flags().Int("page", 1, "Page to fetch")
	cmd.Flags().String("status", "", "Filter jobs by status")

	return cmd
}

func pollJobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Reconcile one job against its provider",
		RunE: func(cmd *cobra.Command, _ []string) error {
			jobID, _ := cmd.Flags().GetString("id")

			job, err := apiClient.PollJob(context.Background(), jobID)
			if err != nil {
				return fmt.Errorf("error polling job: %w", err)
			}

			return printJSON(cmd, job)
		},
	}

	cmd.Flags().StringP("id", "i", "", "Job ID to poll")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Poll every non-terminal job",
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := apiClient.Sweep(context.Background())
			if err != nil {
				return fmt.Errorf("error running sweep: %w", err)
			}

			return printJSON(cmd, report)
		},
	}
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error formatting response: %w", err)
	}
	cmd.Println(string(pretty))
	return nil
}
