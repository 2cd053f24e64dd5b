// Package root implements the command line interface for Skiff.
package root

import (
	"context"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/skiff-cd/skiff/cmd/deployment"
	"github.com/skiff-cd/skiff/cmd/output"
	"github.com/skiff-cd/skiff/cmd/serve"
	"github.com/skiff-cd/skiff/internal/app"
	"github.com/skiff-cd/skiff/logging"
	"github.com/skiff-cd/skiff/services"
)

var config *services.Config

func Execute() {
	if err := NewCmdRoot().Execute(); err != nil {
		os.Exit(1)
	}
}

func NewCmdRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skiff",
		Short: "Control plane for multi-tenant use case deployments",
		Long: `Skiff manages the lifecycle of per-tenant use case deployments:
it provisions infrastructure stacks from declarative templates and keeps the
configuration, credential, and metadata stores in step with them.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var err error
			config, err = services.NewConfig()
			if err != nil {
				log.Fatalf("Failed to initialize configuration: %s", err)
			}

			// Initialize colors (CLI flag overrides config)
			output.InitColors(output.NoColor.IsSet())

			// Initialize logging (CLI flag overrides config)
			logLevel := config.LogLevel
			if logging.LogLevel.IsSet() {
				logLevel = logging.LogLevel.String()
			}
			logging.InitLogging(logLevel)

			if err := app.InitializeWithConfig(context.Background(), config); err != nil {
				log.Fatalf("Failed to initialize application: %s", err)
			}
		},
	}

	cmd.PersistentFlags().VarP(logging.LogLevel, "log-level", "l", "Set log verbosity level")
	cmd.PersistentFlags().VarP(output.NoColor, "no-color", "c", "Disable colored terminal output")

	cmd.AddCommand(deployment.NewCmdDeployment())
	cmd.AddCommand(serve.NewCmdServe())
	return cmd
}
