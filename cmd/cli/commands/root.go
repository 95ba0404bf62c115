// Package commands implements the genflow operator CLI. It replaces the
// one-off poll scripts of the past: every reconciliation action goes through
// the same API the scheduler uses.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veltra/genflow/pkg/api/v1/client"
	"github.com/veltra/genflow/pkg/api/v1/routes"
)

// flag names
const (
	flagServerAddress = "server-address"
)

// environment variable names
const (
	envServerAddress = "GENFLOW_SERVER_ADDRESS"
)

var (
	// apiClient is the shared API client instance
	apiClient client.Client
	// serverAddress holds the target API server address
	serverAddress string
)

func initClient() error {
	opts := client.DefaultOptions()
	opts.BaseURL = serverAddress

	var err error
	apiClient, err = client.NewClient(opts)
	return err
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&serverAddress, flagServerAddress, "s", routes.DefaultBaseURL,
		"Address of the genflow API server (env: GENFLOW_SERVER_ADDRESS)")

	RootCmd.AddCommand(GetJobsCmd())
	RootCmd.AddCommand(GetPipelinesCmd())
}

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "genflow",
	Short: "genflow CLI - manage generation jobs and persona pipelines",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if !cmd.Flags().Changed(flagServerAddress) {
			if envAddr := os.Getenv(envServerAddress); envAddr != "" {
				serverAddress = envAddr
			}
		}

		if serverAddress == "" {
			return fmt.Errorf("server address cannot be empty")
		}
		return initClient()
	},
}

// Execute runs the root command.
func Execute() error {
	return RootCmd.Execute()
}
