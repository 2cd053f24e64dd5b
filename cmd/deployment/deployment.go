// Package deployment implements the deployment management CLI commands.
package deployment

import (
	"github.com/spf13/cobra"
)

func NewCmdDeployment() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deployment",
		Short: "Manage use case deployments",
	}

	cmd.AddCommand(NewCmdDeploymentList())
	cmd.AddCommand(NewCmdDeploymentRemove())
	return cmd
}
